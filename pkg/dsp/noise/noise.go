// Package noise provides a deterministic LFSR noise generator unit.
package noise

import (
	"github.com/machlibs/synth/pkg/framework/unit"
)

// LFSR is a xorshift-16 noise source. An internal phase accumulator
// advances with the square of the frequency; each time it crosses one the
// register is stepped and a new sample in {-1, +1} latched. Output is
// fully determined by the seed and the frequency schedule.
type LFSR struct {
	frequency float64
	reg       uint16
	phase     float64
	value     float32
}

// NewLFSR constructs a noise unit. A zero seed is replaced with 1; the
// register must never be zero or the sequence collapses.
func NewLFSR(seed uint16, hz float64) unit.Unit {
	if seed == 0 {
		seed = 1
	}
	n := &LFSR{frequency: hz, reg: seed}
	n.latch()
	return unit.Unit{
		Name:  "noise",
		State: n,
		Run:   runLFSR,
	}
}

// SetFrequency sets the rate the register is clocked at, in Hz.
func (n *LFSR) SetFrequency(hz float64) { n.frequency = hz }

// step advances the xorshift-16 register.
func (n *LFSR) step() {
	x := n.reg
	x ^= x << 7
	x ^= x >> 9
	x ^= x << 8
	n.reg = x
}

// latch derives the output sample from the register's low bit.
func (n *LFSR) latch() {
	if n.reg&1 == 1 {
		n.value = 1
	} else {
		n.value = -1
	}
}

func runLFSR(u *unit.Unit, _ int64, _, outputs [][]float32) {
	if len(outputs) == 0 {
		return
	}
	n := u.State.(*LFSR)
	sr := u.SampleRate
	inc := n.frequency * n.frequency / ((1e6 / sr) * sr)
	for i := range outputs[0] {
		n.phase += inc
		for n.phase >= 1 {
			n.phase -= 1
			n.step()
			n.latch()
		}
		for _, out := range outputs {
			out[i] += n.value
		}
	}
}

// Package oscillator provides the graph's periodic signal generators.
package oscillator

import (
	"github.com/machlibs/synth/pkg/framework/unit"
)

// Phasor emits its own phase: a ramp from 0 to 1 repeating at the
// configured frequency. Useful directly as a modulation source and as the
// timebase other oscillators are built from.
type Phasor struct {
	frequency float64
	phase     float64
}

// NewPhasor constructs a phasor unit at the given frequency in Hz.
func NewPhasor(hz float64) unit.Unit {
	return unit.Unit{
		Name:  "phasor",
		State: &Phasor{frequency: hz},
		Run:   runPhasor,
	}
}

// SetFrequency sets the frequency in Hz. Callers must hold off Run.
func (p *Phasor) SetFrequency(hz float64) { p.frequency = hz }

// Frequency reports the configured frequency in Hz.
func (p *Phasor) Frequency() float64 { return p.frequency }

func runPhasor(u *unit.Unit, _ int64, _, outputs [][]float32) {
	if len(outputs) == 0 {
		return
	}
	p := u.State.(*Phasor)
	// The phase accumulates in float32, the precision of the emitted
	// samples.
	inc := float32(p.frequency / u.SampleRate)
	phase := float32(p.phase)
	for i := range outputs[0] {
		phase += inc
		if phase >= 1 {
			phase -= 1
		}
		v := phase
		for _, out := range outputs {
			out[i] += v
		}
	}
	p.phase = float64(phase)
}

// Square is a polyBLEP-smoothed pulse oscillator with configurable duty
// cycle. A zero frequency emits silence.
type Square struct {
	frequency float64
	duty      float64
	phase     float64
}

// NewSquare constructs a square unit at the given frequency with a 50%
// duty cycle.
func NewSquare(hz float64) unit.Unit {
	return unit.Unit{
		Name:  "square",
		State: &Square{frequency: hz, duty: 0.5},
		Run:   runSquare,
	}
}

// SetFrequency sets the frequency in Hz.
func (s *Square) SetFrequency(hz float64) { s.frequency = hz }

// SetDuty sets the duty cycle, clamped to (0, 1).
func (s *Square) SetDuty(duty float64) {
	if duty < 0.01 {
		duty = 0.01
	}
	if duty > 0.99 {
		duty = 0.99
	}
	s.duty = duty
}

// polyBLEP approximates a bandlimited step with the polynomial t + t - t*t
// in the one-increment neighbourhood of a discontinuity.
func polyBLEP(t, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func runSquare(u *unit.Unit, _ int64, _, outputs [][]float32) {
	if len(outputs) == 0 {
		return
	}
	s := u.State.(*Square)
	if s.frequency == 0 {
		return
	}
	inc := s.frequency / u.SampleRate
	phase := s.phase
	for i := range outputs[0] {
		phase += inc
		if phase >= 1 {
			phase -= 1
		}
		naive := -1.0
		if phase < s.duty {
			naive = 1.0
		}
		// Smooth the falling edge at the duty boundary and the rising
		// edge at the period boundary.
		down := phase + 1 - s.duty
		if down >= 1 {
			down -= 1
		}
		v := float32(naive + polyBLEP(phase, inc) - polyBLEP(down, inc))
		for _, out := range outputs {
			out[i] += v
		}
	}
	s.phase = phase
}

// Triangle emits 2*|2*phase - 1| - 1. A zero frequency emits silence.
type Triangle struct {
	frequency float64
	phase     float64
}

// NewTriangle constructs a triangle unit at the given frequency.
func NewTriangle(hz float64) unit.Unit {
	return unit.Unit{
		Name:  "triangle",
		State: &Triangle{frequency: hz},
		Run:   runTriangle,
	}
}

// SetFrequency sets the frequency in Hz.
func (t *Triangle) SetFrequency(hz float64) { t.frequency = hz }

func runTriangle(u *unit.Unit, _ int64, _, outputs [][]float32) {
	if len(outputs) == 0 {
		return
	}
	t := u.State.(*Triangle)
	if t.frequency == 0 {
		return
	}
	inc := t.frequency / u.SampleRate
	phase := t.phase
	for i := range outputs[0] {
		phase += inc
		if phase >= 1 {
			phase -= 1
		}
		folded := 2*phase - 1
		if folded < 0 {
			folded = -folded
		}
		v := float32(2*folded - 1)
		for _, out := range outputs {
			out[i] += v
		}
	}
	t.phase = phase
}

// Package envelope provides time-domain amplitude shapers: the APDHSR
// envelope and a line-segment ramp.
package envelope

import (
	"github.com/machlibs/synth/pkg/framework/unit"
)

// APDHSRParams hold the envelope's six parameters. Times are in samples,
// levels in [0, 1].
type APDHSRParams struct {
	Attack  int64
	Peak    float64
	Decay   int64
	Hold    int64
	Sustain float64
	Release int64
}

// APDHSR is an attack-peak-decay-hold-sustain-release envelope evaluated
// on absolute sample times. Start precomputes the phase-end times; Sample
// is a piecewise-linear function of the sample counter, so the envelope is
// stateless across blocks and immune to block-size changes.
//
// As a unit it multiplies its input by the envelope value; with no input
// connected it emits the envelope itself.
type APDHSR struct {
	params APDHSRParams

	started    bool
	startAt    int64
	attackEnd  int64
	decayEnd   int64
	holdEnd    int64
	releaseEnd int64
}

// NewAPDHSR constructs an envelope unit. The envelope is silent until
// Start is called.
func NewAPDHSR(params APDHSRParams) unit.Unit {
	return unit.Unit{
		Name:  "apdhsr",
		State: &APDHSR{params: params},
		Run:   runAPDHSR,
	}
}

// SetParams replaces the envelope parameters. A running envelope picks up
// the new phase-end times at the next Start.
func (e *APDHSR) SetParams(params APDHSRParams) { e.params = params }

// Start triggers the envelope at absolute sample time t0, precomputing the
// end of each phase.
func (e *APDHSR) Start(t0 int64) {
	e.started = true
	e.startAt = t0
	e.attackEnd = t0 + e.params.Attack
	e.decayEnd = e.attackEnd + e.params.Decay
	e.holdEnd = e.decayEnd + e.params.Hold
	e.releaseEnd = e.holdEnd + e.params.Release
}

// Sample evaluates the envelope at absolute sample time t.
func (e *APDHSR) Sample(t int64) float64 {
	if !e.started || t < e.startAt || t >= e.releaseEnd {
		return 0
	}
	p := &e.params
	switch {
	case t < e.attackEnd:
		return p.Peak * float64(t-e.startAt) / float64(p.Attack)
	case t < e.decayEnd:
		return p.Peak + (p.Sustain-p.Peak)*float64(t-e.attackEnd)/float64(p.Decay)
	case t < e.holdEnd:
		return p.Sustain
	default:
		return p.Sustain * (1 - float64(t-e.holdEnd)/float64(p.Release))
	}
}

func runAPDHSR(u *unit.Unit, tm int64, inputs, outputs [][]float32) {
	if len(outputs) == 0 {
		return
	}
	e := u.State.(*APDHSR)
	n := len(outputs[0])
	if len(inputs) == 0 {
		for i := 0; i < n; i++ {
			v := float32(e.Sample(tm + int64(i)))
			for _, out := range outputs {
				out[i] += v
			}
		}
		return
	}
	in := inputs[0]
	for i := 0; i < n; i++ {
		v := in[i] * float32(e.Sample(tm+int64(i)))
		for _, out := range outputs {
			out[i] += v
		}
	}
}

// Ramp is a single line segment: it emits From until started, then
// interpolates to To across Duration samples and holds To. With an input
// connected it multiplies instead of generating, like APDHSR.
type Ramp struct {
	From     float64
	To       float64
	Duration int64

	started bool
	startAt int64
}

// NewRamp constructs a ramp unit.
func NewRamp(from, to float64, duration int64) unit.Unit {
	return unit.Unit{
		Name:  "ramp",
		State: &Ramp{From: from, To: to, Duration: duration},
		Run:   runRamp,
	}
}

// Start triggers the ramp at absolute sample time t0.
func (r *Ramp) Start(t0 int64) {
	r.started = true
	r.startAt = t0
}

// Sample evaluates the ramp at absolute sample time t.
func (r *Ramp) Sample(t int64) float64 {
	if !r.started || t < r.startAt {
		return r.From
	}
	if r.Duration <= 0 || t >= r.startAt+r.Duration {
		return r.To
	}
	frac := float64(t-r.startAt) / float64(r.Duration)
	return r.From + (r.To-r.From)*frac
}

func runRamp(u *unit.Unit, tm int64, inputs, outputs [][]float32) {
	if len(outputs) == 0 {
		return
	}
	r := u.State.(*Ramp)
	n := len(outputs[0])
	if len(inputs) == 0 {
		for i := 0; i < n; i++ {
			v := float32(r.Sample(tm + int64(i)))
			for _, out := range outputs {
				out[i] += v
			}
		}
		return
	}
	in := inputs[0]
	for i := 0; i < n; i++ {
		v := in[i] * float32(r.Sample(tm+int64(i)))
		for _, out := range outputs {
			out[i] += v
		}
	}
}

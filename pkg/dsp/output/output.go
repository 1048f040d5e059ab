// Package output provides the sink unit that delivers the graph's signal
// to the host.
package output

import (
	"github.com/machlibs/synth/pkg/dsp"
	"github.com/machlibs/synth/pkg/framework/unit"
)

// Output is a sink: the block runner pairs each of its connected input
// channels with the matching host output channel, and the unit adds the
// summed bus into it. Several sinks may target the same host channels;
// their contributions mix.
type Output struct{}

// New constructs a sink unit.
func New() unit.Unit {
	return unit.Unit{
		Name:     "output",
		IsOutput: true,
		State:    &Output{},
		Run:      runOutput,
	}
}

func runOutput(_ *unit.Unit, _ int64, inputs, outputs [][]float32) {
	n := len(inputs)
	if len(outputs) < n {
		n = len(outputs)
	}
	for ch := 0; ch < n; ch++ {
		dsp.Add(outputs[ch], inputs[ch])
	}
}

// Package gain provides the gain stage unit and amplitude conversion
// helpers.
package gain

import (
	"math"

	"github.com/machlibs/synth/pkg/dsp"
	"github.com/machlibs/synth/pkg/framework/unit"
)

// MinDB is the floor of the dB scale (effectively -infinity).
const MinDB = -200.0

// LinearToDb converts a linear amplitude value to decibels.
// Returns MinDB for values <= 0.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return MinDB
	}
	return 20.0 * math.Log10(linear)
}

// DbToLinear converts a decibel value to linear amplitude.
// Values <= MinDB return 0.
func DbToLinear(db float64) float64 {
	if db <= MinDB {
		return 0
	}
	return math.Pow(10.0, db/20.0)
}

// Gain multiplies each input sample by a configured level. Extra input
// channels beyond the first are mixed in before scaling, so a gain stage
// doubles as a summing node.
type Gain struct {
	level float64
}

// New constructs a gain unit at the given linear level.
func New(level float64) unit.Unit {
	return unit.Unit{
		Name:  "gain",
		State: &Gain{level: level},
		Run:   runGain,
	}
}

// NewDb constructs a gain unit at the given level in decibels.
func NewDb(db float64) unit.Unit {
	return New(DbToLinear(db))
}

// SetLevel sets the linear gain level.
func (g *Gain) SetLevel(level float64) { g.level = level }

// SetLevelDb sets the gain level in decibels.
func (g *Gain) SetLevelDb(db float64) { g.level = DbToLinear(db) }

// Level reports the linear gain level.
func (g *Gain) Level() float64 { return g.level }

func runGain(u *unit.Unit, _ int64, inputs, outputs [][]float32) {
	if len(inputs) == 0 || len(outputs) == 0 {
		return
	}
	g := u.State.(*Gain)
	level := float32(g.level)
	for _, out := range outputs {
		for _, in := range inputs {
			dsp.AddScaled(out, in, level)
		}
	}
}

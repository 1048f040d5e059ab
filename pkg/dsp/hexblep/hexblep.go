// Package hexblep builds bandlimited step (BLEP) and bandlimited ramp
// (BLAMP) correction tables. The stored values are residuals: the table is
// built by integrating a Nuttall-windowed sinc, then the naive step and
// ramp are subtracted, so adding a row onto an aliased waveform cancels the
// discontinuity without touching the rest of the signal.
package hexblep

import (
	"math"
	"sync"
)

const (
	// MaxWidth bounds the correction width in output samples.
	MaxWidth = 64

	// fineGrid is the integration oversampling factor on top of the
	// table's own oversample rate.
	fineGrid = 16
)

// Table holds deinterleaved BLEP and BLAMP residuals: (oversample+1) rows
// of width samples each, adjacent rows one sub-sample phase apart so a
// query can interpolate between them. Tables are immutable after New and
// safe for concurrent readers.
type Table struct {
	width      int
	oversample int
	blep       []float32
	blamp      []float32
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns a shared table with width 32 and oversample 64, built on
// first use.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable = New(32, 64)
	})
	return defaultTable
}

// New builds a table. width is clamped to an even value in [4, MaxWidth];
// oversample is clamped to at least 2.
func New(width, oversample int) *Table {
	width &^= 1
	if width < 4 {
		width = 4
	}
	if width > MaxWidth {
		width = MaxWidth
	}
	if oversample < 2 {
		oversample = 2
	}

	half := width / 2 * oversample
	n := 2*half + 1

	step := make([]float64, n)
	ramp := make([]float64, n)

	// Integrate the windowed sinc on a 16x-finer grid. The first
	// accumulator turns the impulse into a step, the second turns the
	// step into a ramp. The integration step is one output sample divided
	// by oversample*fineGrid.
	total := n * fineGrid
	dx := 1.0 / float64(oversample*fineGrid)
	var integStep, integRamp float64
	for i := 0; i < total; i++ {
		x := math.Pi * float64(i-half*fineGrid) / float64(oversample*fineGrid)
		sinc := 1.0
		if i != half*fineGrid {
			sinc = math.Sin(x) / x
		}
		wt := 2 * math.Pi * float64(i) / float64(total-1)
		window := 0.355768 - 0.487396*math.Cos(wt) + 0.144232*math.Cos(2*wt) - 0.012604*math.Cos(3*wt)

		integStep += sinc * window * dx
		integRamp += integStep * dx
		if i%fineGrid == 0 {
			step[i/fineGrid] = integStep
			ramp[i/fineGrid] = integRamp
		}
	}

	// Normalise so the step settles at 1 and the ramp at width/2.
	stepScale := 1.0 / step[n-1]
	rampScale := float64(width) / 2 / ramp[n-1]
	for i := range step {
		step[i] *= stepScale
		ramp[i] *= rampScale
	}

	// Deinterleave into (oversample+1) rows of width samples and subtract
	// the naive step and ramp so only the residual is stored. In every row
	// the naive step starts at sample width/2, the sample a caller writes
	// the post-transition value to.
	t := &Table{
		width:      width,
		oversample: oversample,
		blep:       make([]float32, (oversample+1)*width),
		blamp:      make([]float32, (oversample+1)*width),
	}
	for j := 0; j <= oversample; j++ {
		for i := 0; i < width; i++ {
			idx := j + i*oversample
			s := step[idx]
			r := ramp[idx]
			if i >= width/2 {
				s -= 1
				r -= float64(idx-half) / float64(oversample)
			}
			t.blep[j*width+i] = float32(s)
			t.blamp[j*width+i] = float32(r)
		}
	}
	return t
}

// Width reports the correction width in samples. Callers that apply
// corrections near a block boundary need a carry buffer of this length.
func (t *Table) Width() int { return t.width }

// Oversample reports the number of sub-sample phases stored.
func (t *Table) Oversample() int { return t.oversample }

// Blep adds the bandlimited step residual for a discontinuity at
// fractional position frac within a sample, scaled by scale, into
// out[0:Width()]. frac must be in [0, 1].
func (t *Table) Blep(out []float32, frac, scale float32) {
	t.apply(t.blep, out, frac, scale)
}

// Blamp adds the bandlimited ramp residual for a slope change at
// fractional position frac, scaled by scale, into out[0:Width()].
func (t *Table) Blamp(out []float32, frac, scale float32) {
	t.apply(t.blamp, out, frac, scale)
}

func (t *Table) apply(table, out []float32, frac, scale float32) {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	pos := frac * float32(t.oversample)
	row := int(pos)
	if row > t.oversample-1 {
		row = t.oversample - 1
	}
	mix := pos - float32(row)

	lo := t.width * row
	hi := lo + t.width
	n := t.width
	if len(out) < n {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		a := table[lo+i]
		b := table[hi+i]
		out[i] += scale * (a + (b-a)*mix)
	}
}

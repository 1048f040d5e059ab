package oscillator

import (
	"github.com/machlibs/synth/pkg/dsp/hexblep"
	"github.com/machlibs/synth/pkg/framework/unit"
)

// HexwaveParams describe a single period built from six line segments.
// PeakTime and ZeroWait are in [0, 1]; HalfHeight is the level reached at
// the end of each half-period's active part; Reflect time-mirrors the
// second half instead of phase-shifting it.
type HexwaveParams struct {
	Reflect    bool
	PeakTime   float64
	HalfHeight float64
	ZeroWait   float64
}

const hexVerts = 7 // six segments plus the closing vertex at phase 1

type hexVertex struct {
	t, v, slope float64
}

// Hexwave is an oscillator whose period is six line segments, antialiased
// with BLEP corrections at value discontinuities and BLAMP corrections at
// slope changes. Because corrections extend across the table width, the
// unit keeps a carry buffer so the tail of one block seeds the head of the
// next; the output is delayed by half the table width.
type Hexwave struct {
	table     *hexblep.Table
	frequency float64

	current HexwaveParams
	pending HexwaveParams
	hasPend bool

	vert   [hexVerts]hexVertex
	phase  float64
	seg    int
	prevDt float64
	primed bool

	temp  []float32
	carry []float32
}

// NewHexwave constructs a hexwave unit at the given frequency using the
// shared default BLEP table. Working buffers are sized at graph insertion.
func NewHexwave(hz float64, params HexwaveParams) unit.Unit {
	h := &Hexwave{
		table:     hexblep.Default(),
		frequency: hz,
		current:   params,
	}
	h.generate()
	return unit.Unit{
		Name:  "hexwave",
		State: h,
		Init:  initHexwave,
		Run:   runHexwave,
	}
}

// NewHexwaveWithTable is NewHexwave with an explicit table, for hosts that
// want a different width/oversample trade-off.
func NewHexwaveWithTable(hz float64, params HexwaveParams, table *hexblep.Table) unit.Unit {
	u := NewHexwave(hz, params)
	u.State.(*Hexwave).table = table
	return u
}

func initHexwave(u *unit.Unit) error {
	h := u.State.(*Hexwave)
	w := h.table.Width()
	h.temp = make([]float32, u.MaxBlockSize+w)
	h.carry = make([]float32, w)
	return nil
}

// SetFrequency sets the frequency in Hz. The resulting slope change is
// compensated with a BLAMP at the next block boundary.
func (h *Hexwave) SetFrequency(hz float64) { h.frequency = hz }

// Change queues new shape parameters. They are applied when the phase
// wraps, so a mid-period switch cannot introduce an uncorrected
// discontinuity.
func (h *Hexwave) Change(params HexwaveParams) {
	h.pending = params
	h.hasPend = true
}

// generate derives the segment vertices from the current parameters.
// One half-period is 0 -> 1 at PeakTime, then down to HalfHeight at the
// end of the active part, then a straight line from HalfHeight back to 0
// across the zero-wait span; the wave does not hold at 0 during the zero
// wait. The second half is the negative of the first, time-mirrored when
// Reflect is set. Zero-length segments are value discontinuities.
func (h *Hexwave) generate() {
	p := h.current
	halflen := 0.5 / (1 + clamp01(p.ZeroWait))
	peak := clamp01(p.PeakTime)

	var ts, vs [hexVerts]float64
	if p.Reflect {
		ts = [hexVerts]float64{0, peak * halflen, halflen, 0.5, 1 - halflen, 1 - peak*halflen, 1}
		vs = [hexVerts]float64{0, 1, p.HalfHeight, 0, -p.HalfHeight, -1, 0}
	} else {
		ts = [hexVerts]float64{0, peak * halflen, halflen, 0.5, 0.5 + peak*halflen, 0.5 + halflen, 1}
		vs = [hexVerts]float64{0, 1, p.HalfHeight, 0, -1, -p.HalfHeight, 0}
	}
	for i := 0; i < hexVerts; i++ {
		h.vert[i].t = ts[i]
		h.vert[i].v = vs[i]
	}
	for i := 0; i < hexVerts-1; i++ {
		dt := ts[i+1] - ts[i]
		if dt > 0 {
			h.vert[i].slope = (vs[i+1] - vs[i]) / dt
		} else {
			h.vert[i].slope = 0
		}
	}
	h.vert[hexVerts-1].slope = 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// value evaluates the naive waveform inside the current segment.
func (h *Hexwave) value(phase float64) float64 {
	v := h.vert[h.seg]
	return v.v + v.slope*(phase-v.t)
}

func runHexwave(u *unit.Unit, _ int64, _, outputs [][]float32) {
	if len(outputs) == 0 {
		return
	}
	h := u.State.(*Hexwave)
	n := len(outputs[0])
	w := h.table.Width()
	half := w / 2

	temp := h.temp[:n+w]
	copy(temp[:w], h.carry)
	clear(temp[w:])

	dt := h.frequency / u.SampleRate
	if dt > 0 {
		if !h.primed {
			h.prevDt = dt
			h.primed = true
		}
		if dt != h.prevDt {
			// A frequency change bends the ramp currently in flight.
			h.table.Blamp(temp, 0, float32((dt-h.prevDt)*h.vert[h.seg].slope))
			h.prevDt = dt
		}

		for i := 0; i < n; i++ {
			prev := h.phase
			h.phase += dt
			h.advance(temp[i:], prev, dt)
			temp[i+half] += float32(h.value(h.phase))
		}
	}

	for _, out := range outputs {
		for i := 0; i < n; i++ {
			out[i] += temp[i]
		}
	}
	copy(h.carry, temp[n:])
}

// advance walks the vertices crossed during one sample step, adding a BLEP
// for every value discontinuity (zero-length segment) and a BLAMP for
// every slope change. dst is the correction window starting at the current
// output sample.
func (h *Hexwave) advance(dst []float32, prev, dt float64) {
	for {
		next := h.seg + 1
		crossT := h.vert[next].t
		if crossT > h.phase {
			return
		}

		// Fraction of the sample elapsed since the transition: 0 when the
		// transition lands on the current sample, approaching 1 when it
		// happened just after the previous one.
		frac := 1 - (crossT-prev)/dt
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}

		oldSlope := h.vert[h.seg].slope
		jump := 0.0
		segLen := crossT - h.vert[h.seg].t
		if segLen == 0 {
			jump = h.vert[next].v - h.vert[h.seg].v
		}

		if next == hexVerts-1 {
			// Period boundary: apply pending parameters before computing
			// the new segment's slope so the correction spans old and new
			// shapes.
			if h.hasPend {
				h.current = h.pending
				h.hasPend = false
				h.generate()
			}
			h.phase -= 1
			prev -= 1
			h.seg = 0
		} else {
			h.seg = next
		}

		if jump != 0 {
			h.table.Blep(dst, float32(frac), float32(jump))
		}
		if ds := h.vert[h.seg].slope - oldSlope; ds != 0 {
			h.table.Blamp(dst, float32(frac), float32(ds*dt))
		}
	}
}

package graph

import (
	"errors"
	"math"
	"testing"

	"github.com/machlibs/synth/pkg/dsp/envelope"
	"github.com/machlibs/synth/pkg/dsp/oscillator"
	"github.com/machlibs/synth/pkg/dsp/output"
	"github.com/machlibs/synth/pkg/framework/unit"
)

func TestRunSplitsIntoSubBlocks(t *testing.T) {
	// A host buffer larger than MaxBlockSize is processed in successive
	// sub-blocks with phase carried across: the result must match a graph
	// whose block size covers the whole buffer.
	big := New(10, 64)
	ph := mustAdd(t, big, oscillator.NewPhasor(1))
	out := mustAdd(t, big, output.New())
	mustConnect(t, big, ph, out, 0)
	mustReschedule(t, big)
	wantHost := make([]float32, 25)
	big.Run(0, nil, [][]float32{wantHost})

	small := New(10, 8)
	ph2 := mustAdd(t, small, oscillator.NewPhasor(1))
	out2 := mustAdd(t, small, output.New())
	mustConnect(t, small, ph2, out2, 0)
	mustReschedule(t, small)
	gotHost := make([]float32, 25)
	small.Run(0, nil, [][]float32{gotHost})

	for i := range wantHost {
		if math.Abs(float64(gotHost[i]-wantHost[i])) > 1e-6 {
			t.Errorf("sample %d: sub-blocked %v vs whole %v", i, gotHost[i], wantHost[i])
		}
	}
}

func TestRunAdvancesTimeAcrossSubBlocks(t *testing.T) {
	// The envelope samples absolute time, so a sub-blocked run only
	// matches when the runner advances tm between sub-blocks.
	g := New(10, 4)
	env := mustAdd(t, g, envelope.NewAPDHSR(envelope.APDHSRParams{
		Attack: 2, Peak: 1, Decay: 2, Hold: 2, Sustain: 0.5, Release: 2,
	}))
	out := mustAdd(t, g, output.New())
	mustConnect(t, g, env, out, 0)
	env.State.(*envelope.APDHSR).Start(0)
	mustReschedule(t, g)

	host := make([]float32, 10)
	g.Run(0, nil, [][]float32{host})

	want := []float32{0, 0.5, 1, 0.75, 0.5, 0.5, 0.5, 0.25, 0, 0}
	for i := range want {
		if math.Abs(float64(host[i]-want[i])) > 0.01 {
			t.Errorf("host[%d] = %v, want %v", i, host[i], want[i])
		}
	}
}

func TestRunDoesNotAllocate(t *testing.T) {
	g := New(44100, 128)
	ph := mustAdd(t, g, oscillator.NewPhasor(440))
	sq := mustAdd(t, g, oscillator.NewSquare(220))
	out := mustAdd(t, g, output.New())
	mustConnect(t, g, ph, out, 0)
	mustConnect(t, g, sq, out, 1)
	mustReschedule(t, g)

	left := make([]float32, 256)
	right := make([]float32, 256)
	host := [][]float32{left, right}

	tm := int64(0)
	allocs := testing.AllocsPerRun(50, func() {
		g.Run(tm, nil, host)
		tm += 256
	})
	if allocs != 0 {
		t.Fatalf("Run allocated %.1f times per call, want 0", allocs)
	}
}

func TestInvalidGraphEmitsSilence(t *testing.T) {
	// One bus of capacity is not enough for two (unit, channel) pairs:
	// scheduling latches the invalid flag and Run silences the host.
	g := NewWithConfig(Config{SampleRate: 44100, MaxBlockSize: 32, BusCapacity: 1})
	ph := mustAdd(t, g, oscillator.NewPhasor(440))
	gn := mustAdd(t, g, gainUnit(t))
	out := mustAdd(t, g, output.New())
	mustConnect(t, g, ph, gn, 0)
	mustConnect(t, g, gn, out, 0)

	err := g.Reschedule()
	if !errors.Is(err, ErrOutOfCapacity) {
		t.Fatalf("Reschedule with 1 bus = %v, want ErrOutOfCapacity", err)
	}
	if !errors.Is(g.Err(), ErrInvalidGraph) {
		t.Fatalf("Err() = %v, want ErrInvalidGraph", g.Err())
	}

	host := make([]float32, 32)
	for i := range host {
		host[i] = 0.25
	}
	g.Run(0, nil, [][]float32{host})
	for i, v := range host {
		if v != 0 {
			t.Fatalf("invalid graph wrote host[%d] = %v, want silence", i, v)
		}
	}

	// Repairing the graph clears the latch.
	g.Disconnect(ph, gn, 0)
	mustReschedule(t, g)
	if g.Err() != nil {
		t.Fatalf("Err() after repair = %v, want nil", g.Err())
	}
	g.Run(0, nil, [][]float32{host})
}

func TestScratchExhaustionKeepsPreviousSchedule(t *testing.T) {
	g := NewWithConfig(Config{SampleRate: 10, MaxBlockSize: 16, ScratchSize: 48})
	ph := mustAdd(t, g, oscillator.NewPhasor(1))
	out := mustAdd(t, g, output.New())
	mustConnect(t, g, ph, out, 0)
	mustReschedule(t, g)
	schedLen := len(g.Schedule())

	// Enough extra units that the visit list no longer fits the arena.
	for i := 0; i < 8; i++ {
		u := mustAdd(t, g, oscillator.NewPhasor(float64(i + 2)))
		mustConnect(t, g, u, out, 0)
	}
	err := g.Reschedule()
	if !errors.Is(err, ErrOutOfCapacity) {
		t.Fatalf("Reschedule with tiny scratch = %v, want ErrOutOfCapacity", err)
	}
	if len(g.Schedule()) != schedLen {
		t.Fatalf("failed reschedule replaced the schedule: %d units", len(g.Schedule()))
	}

	// The old schedule still runs and still produces the old signal.
	host := make([]float32, 10)
	g.Run(0, nil, [][]float32{host})
	want := phasorSequence(10)
	for i := range want {
		if math.Abs(float64(host[i]-want[i])) > 0.01 {
			t.Errorf("host[%d] = %v, want %v", i, host[i], want[i])
		}
	}
}

func TestRunHandlesShortHostBuffer(t *testing.T) {
	g := New(10, 16)
	ph := mustAdd(t, g, oscillator.NewPhasor(1))
	out := mustAdd(t, g, output.New())
	mustConnect(t, g, ph, out, 0)
	mustReschedule(t, g)

	// 5 frames, shorter than MaxBlockSize.
	host := make([]float32, 5)
	g.Run(0, nil, [][]float32{host})
	want := phasorSequence(5)
	for i := range want {
		if math.Abs(float64(host[i]-want[i])) > 0.01 {
			t.Errorf("host[%d] = %v, want %v", i, host[i], want[i])
		}
	}
}

// gainUnit builds a pass-through one-input unit without importing the gain
// package into every test.
func gainUnit(t *testing.T) unit.Unit {
	t.Helper()
	return unit.Unit{
		Name: "pass",
		Run: func(_ *unit.Unit, _ int64, inputs, outputs [][]float32) {
			if len(inputs) == 0 {
				return
			}
			for _, out := range outputs {
				for i := range out {
					out[i] += inputs[0][i]
				}
			}
		},
	}
}

func BenchmarkRun(b *testing.B) {
	g := New(44100, 128)
	ph, _ := g.Add(oscillator.NewPhasor(440))
	sq, _ := g.Add(oscillator.NewSquare(220))
	tr, _ := g.Add(oscillator.NewTriangle(110))
	out, _ := g.Add(output.New())
	g.Connect(ph, out, 0)
	g.Connect(sq, out, 0)
	g.Connect(tr, out, 1)
	if err := g.Reschedule(); err != nil {
		b.Fatal(err)
	}

	host := [][]float32{make([]float32, 128), make([]float32, 128)}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Run(int64(i)*128, nil, host)
	}
}

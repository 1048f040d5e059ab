// Package unit defines the processing contract shared by every node in the
// audio graph.
package unit

const (
	// MaxPorts bounds the number of input and output channels per unit.
	MaxPorts = 16
)

// NoBus marks an unassigned bus slot in BusIDs.
const NoBus int32 = -1

// RunFunc processes exactly one block of at most MaxBlockSize frames.
// tm is the sample counter at the first frame of the block. inputs[i] is
// the i-th connected input channel's already-mixed bus, in ascending
// channel order. outputs[j] is a bus (or, for sinks, a host channel) into
// which the unit must add its contribution; output buses start zeroed at
// the top of each block, so every unit accumulates rather than overwrites.
//
// A RunFunc must not allocate, block, or touch anything beyond the unit's
// own state and the buffers it is handed.
type RunFunc func(u *Unit, tm int64, inputs, outputs [][]float32)

// Unit is one node in the graph: a DSP operator with a run function and
// private state. Units are constructed by the concrete packages under
// pkg/dsp and handed to graph.Add, which copies the value into a pool slot
// and fills in SampleRate and MaxBlockSize. The pointer returned by Add is
// stable until Remove.
type Unit struct {
	// Name is a human-readable label used only in diagnostics.
	Name string

	// IsOutput marks a sink: its outputs are the host-provided channels.
	IsOutput bool

	// SampleRate and MaxBlockSize are copied from the graph at insertion.
	SampleRate   float64
	MaxBlockSize int

	// InputsConnected and OutputsConnected track live connection counts;
	// the graph maintains them on Connect/Disconnect/Remove.
	InputsConnected  int
	OutputsConnected int

	// BusIDs maps an input channel to its bus index in the graph's bus
	// pool. Filled by the scheduler; NoBus where no connection exists.
	BusIDs [MaxPorts]int32

	// Run processes one block. See RunFunc.
	Run RunFunc

	// Init, when non-nil, is called by the graph after SampleRate and
	// MaxBlockSize are filled in, before the unit can be scheduled. Units
	// size their working buffers here so the audio path never allocates.
	Init func(u *Unit) error

	// State points at the concrete unit's private state struct, allocated
	// once at construction time, never on the audio path. Hosts mutate
	// parameters through a type assertion on State, and only when they
	// have guaranteed exclusion from Run.
	State any
}

// ClearBusIDs resets every bus slot to NoBus. The scheduler calls this
// before reassigning buses.
func (u *Unit) ClearBusIDs() {
	for i := range u.BusIDs {
		u.BusIDs[i] = NoBus
	}
}

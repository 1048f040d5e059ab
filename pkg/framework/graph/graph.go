// Package graph owns the unit graph: units, connections, sinks, the
// schedule, and the bus pool, with the block runner that fills host
// buffers. Mutation and execution must not overlap; the host arranges
// exclusion (pausing the device or draining a command queue at block
// boundaries). The engine takes no locks of its own.
package graph

import (
	"fmt"

	"github.com/machlibs/synth/pkg/framework/arena"
	"github.com/machlibs/synth/pkg/framework/debug"
	"github.com/machlibs/synth/pkg/framework/pool"
	"github.com/machlibs/synth/pkg/framework/unit"
)

// Config sizes a graph. Zero values fall back to the defaults.
type Config struct {
	SampleRate   float64
	MaxBlockSize int

	// UnitCapacity is the number of pre-allocated unit slots (default
	// 128). Add grows past it; AddRealTime does not.
	UnitCapacity int

	// ConnectionCapacity bounds the connection table (default 256).
	ConnectionCapacity int

	// MaxOutputs bounds the sink table (default 16).
	MaxOutputs int

	// ScratchSize is the scheduler scratch arena in bytes (default 4096).
	ScratchSize int

	// BusCapacity is the number of max-block-size buses (default 64).
	BusCapacity int

	// Logger receives diagnostics; nil means the shared default logger.
	Logger *debug.Logger
}

const (
	defaultUnitCapacity       = 128
	defaultConnectionCapacity = 256
	defaultMaxOutputs         = 16
	defaultScratchSize        = 4096
	defaultBusCapacity        = 64
)

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}
	if c.MaxBlockSize <= 0 {
		c.MaxBlockSize = 128
	}
	if c.UnitCapacity <= 0 {
		c.UnitCapacity = defaultUnitCapacity
	}
	if c.ConnectionCapacity <= 0 {
		c.ConnectionCapacity = defaultConnectionCapacity
	}
	if c.MaxOutputs <= 0 {
		c.MaxOutputs = defaultMaxOutputs
	}
	if c.ScratchSize <= 0 {
		c.ScratchSize = defaultScratchSize
	}
	if c.BusCapacity <= 0 {
		c.BusCapacity = defaultBusCapacity
	}
	if c.Logger == nil {
		c.Logger = debug.Default()
	}
	return c
}

// connection is one edge: producer's signal feeds the consumer's input
// channel. The same pair may connect on several channels.
type connection struct {
	producer *unit.Unit
	consumer *unit.Unit
	channel  int32
}

// Graph is the engine. Create one with New, populate it with Add and
// Connect, call Reschedule, then drive Run from the audio callback.
type Graph struct {
	cfg Config

	units   *pool.Pool[unit.Unit]
	conns   []connection
	outs    []*unit.Unit
	scratch *arena.Arena
	log     *debug.Logger

	// schedule holds units in run order, producers before their
	// consumers, sinks last. Valid while scheduledAt == mods.
	schedule    []*unit.Unit
	mods        uint64
	scheduledAt uint64
	invalid     bool

	// buses is the shared sample transfer pool: BusCapacity slices of
	// MaxBlockSize float32 each, zeroed at the top of every block.
	buses []float32

	// Pre-allocated gather tables so Run never allocates.
	inGather  [unit.MaxPorts][]float32
	outGather [unit.MaxPorts][]float32
	hostOut   [unit.MaxPorts][]float32
}

// New creates a graph with default capacities.
func New(sampleRate float64, maxBlockSize int) *Graph {
	return NewWithConfig(Config{SampleRate: sampleRate, MaxBlockSize: maxBlockSize})
}

// NewWithConfig creates a graph with explicit capacities.
func NewWithConfig(cfg Config) *Graph {
	cfg = cfg.withDefaults()
	g := &Graph{
		cfg:      cfg,
		units:    pool.NewWithCapacity[unit.Unit](cfg.UnitCapacity),
		conns:    make([]connection, 0, cfg.ConnectionCapacity),
		outs:     make([]*unit.Unit, 0, cfg.MaxOutputs),
		scratch:  arena.New(cfg.ScratchSize),
		log:      cfg.Logger,
		schedule: make([]*unit.Unit, 0, cfg.UnitCapacity),
		buses:    make([]float32, cfg.MaxBlockSize*cfg.BusCapacity),
	}
	// mods starts ahead of scheduledAt so an empty graph still gets a
	// first (empty) schedule computed.
	g.mods = 1
	return g
}

// SampleRate reports the configured sample rate.
func (g *Graph) SampleRate() float64 { return g.cfg.SampleRate }

// MaxBlockSize reports the configured block size ceiling.
func (g *Graph) MaxBlockSize() int { return g.cfg.MaxBlockSize }

// Add inserts a unit, growing the pool if needed, and returns its stable
// pointer. The unit's sample rate and block size are filled in and its
// Init hook runs before it can be scheduled.
func (g *Graph) Add(u unit.Unit) (*unit.Unit, error) {
	return g.add(u, false)
}

// AddRealTime is Add without the growing path: a full pool fails with
// ErrOutOfCapacity instead of allocating.
func (g *Graph) AddRealTime(u unit.Unit) (*unit.Unit, error) {
	return g.add(u, true)
}

func (g *Graph) add(u unit.Unit, realTime bool) (*unit.Unit, error) {
	var v *unit.Unit
	if realTime {
		var err error
		v, err = g.units.NewFromPool()
		if err != nil {
			return nil, fmt.Errorf("%w: unit pool full", ErrOutOfCapacity)
		}
	} else {
		v = g.units.New()
	}

	*v = u
	v.SampleRate = g.cfg.SampleRate
	v.MaxBlockSize = g.cfg.MaxBlockSize
	v.InputsConnected = 0
	v.OutputsConnected = 0
	v.ClearBusIDs()

	if v.Init != nil {
		if err := v.Init(v); err != nil {
			g.units.Delete(v)
			return nil, fmt.Errorf("graph: init %q: %w", v.Name, err)
		}
	}

	if v.IsOutput {
		if len(g.outs) == cap(g.outs) {
			g.units.Delete(v)
			return nil, fmt.Errorf("%w: sink table full", ErrOutOfCapacity)
		}
		g.outs = append(g.outs, v)
	}

	g.mods++
	return v, nil
}

// Connect records an edge from producer to the consumer's input channel.
// Connecting a unit to itself fails with ErrFeedbackLoop; longer cycles
// are not detected here.
func (g *Graph) Connect(producer, consumer *unit.Unit, channel int) error {
	if producer == consumer {
		return ErrFeedbackLoop
	}
	if channel < 0 || channel >= unit.MaxPorts {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	if len(g.conns) == cap(g.conns) {
		return fmt.Errorf("%w: connection table full", ErrOutOfCapacity)
	}
	if producer.OutputsConnected >= unit.MaxPorts {
		return fmt.Errorf("%w: %q output ports", ErrOutOfCapacity, producer.Name)
	}
	if consumer.InputsConnected >= unit.MaxPorts {
		return fmt.Errorf("%w: %q input ports", ErrOutOfCapacity, consumer.Name)
	}

	g.conns = append(g.conns, connection{producer: producer, consumer: consumer, channel: int32(channel)})
	producer.OutputsConnected++
	consumer.InputsConnected++
	g.mods++
	return nil
}

// Disconnect removes one matching edge if present; absent edges are a
// silent no-op. Removing any edge invalidates the schedule.
func (g *Graph) Disconnect(producer, consumer *unit.Unit, channel int) {
	for i := range g.conns {
		cn := &g.conns[i]
		if cn.producer == producer && cn.consumer == consumer && cn.channel == int32(channel) {
			g.removeConnectionAt(i)
			g.mods++
			return
		}
	}
}

// removeConnectionAt drops connection i preserving order, so repeated
// scans see a stable sequence.
func (g *Graph) removeConnectionAt(i int) {
	cn := g.conns[i]
	cn.producer.OutputsConnected--
	cn.consumer.InputsConnected--
	copy(g.conns[i:], g.conns[i+1:])
	g.conns = g.conns[:len(g.conns)-1]
}

// Remove drops a unit, every connection touching it, and its sink entry,
// then returns the slot to the pool. Other units keep their pointers.
func (g *Graph) Remove(u *unit.Unit) {
	for i := len(g.conns) - 1; i >= 0; i-- {
		cn := &g.conns[i]
		if cn.producer == u || cn.consumer == u {
			g.removeConnectionAt(i)
		}
	}
	for i, s := range g.outs {
		if s == u {
			g.outs = append(g.outs[:i], g.outs[i+1:]...)
			break
		}
	}
	g.units.Delete(u)
	g.mods++
}

// Err reports the latched scheduling state: ErrInvalidGraph after a
// scheduling pass failed unrecoverably (Run emits silence), nil
// otherwise. A successful Reschedule clears the latch.
func (g *Graph) Err() error {
	if g.invalid {
		return ErrInvalidGraph
	}
	return nil
}

// Units reports the number of live units.
func (g *Graph) Units() int { return g.units.Len() }

// Connections reports the number of live connections.
func (g *Graph) Connections() int { return len(g.conns) }

// Schedule exposes the current run order for inspection and tests. The
// returned slice is owned by the graph; do not mutate it.
func (g *Graph) Schedule() []*unit.Unit { return g.schedule }

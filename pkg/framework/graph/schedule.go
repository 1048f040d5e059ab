package graph

import (
	"fmt"

	"github.com/machlibs/synth/pkg/framework/arena"
	"github.com/machlibs/synth/pkg/framework/unit"
)

// Reschedule recomputes the run order and bus assignment. A graph whose
// modification counter is unchanged since the last successful call is a
// no-op. Scratch exhaustion fails before the previous schedule or any bus
// assignment is touched; bus pool exhaustion latches the invalid flag so
// Run emits silence until the graph is repaired.
func (g *Graph) Reschedule() error {
	if g.mods == g.scheduledAt {
		return nil
	}

	// Scheduling is a reverse breadth-first traversal rooted at the
	// sinks. Every first-seen unit is appended to the visit order; every
	// first-seen (consumer, channel) pair is assigned a fresh bus.
	// Reversing the visit order puts producers ahead of consumers and
	// sinks last. The seen set doubles as the cycle bound: a cyclic graph
	// schedules each unit once and terminates, though running it is
	// semantically undefined.
	g.scratch.Reset()
	visited, err := arena.Make[*unit.Unit](g.scratch, g.units.Len())
	if err != nil {
		return fmt.Errorf("scheduling %d units: %w", g.units.Len(), errScratch(err))
	}
	queue, err := arena.Make[*unit.Unit](g.scratch, len(g.conns)+len(g.outs))
	if err != nil {
		return fmt.Errorf("scheduling %d edges: %w", len(g.conns), errScratch(err))
	}

	// Past this point the traversal cannot fail for lack of memory, so
	// clearing the live bus assignment is safe.
	g.units.Range(func(u *unit.Unit) bool {
		u.ClearBusIDs()
		return true
	})

	seen := func(u *unit.Unit, n int) bool {
		for _, v := range visited[:n] {
			if v == u {
				return true
			}
		}
		return false
	}

	qn := 0
	for _, sink := range g.outs {
		dup := false
		for _, prev := range queue[:qn] {
			if prev == sink {
				dup = true
				break
			}
		}
		if dup {
			g.log.Warn("duplicate sink %q in output list, ignoring", sink.Name)
			continue
		}
		queue[qn] = sink
		qn++
	}

	visits := 0
	var nextBus int32
	for head := 0; head < qn; head++ {
		u := queue[head]
		if seen(u, visits) {
			continue
		}
		visited[visits] = u
		visits++

		for i := range g.conns {
			cn := &g.conns[i]
			if cn.consumer != u {
				continue
			}
			if u.BusIDs[cn.channel] == unit.NoBus {
				if int(nextBus) >= g.cfg.BusCapacity {
					g.invalid = true
					return fmt.Errorf("%w: bus pool exhausted at %q", ErrOutOfCapacity, u.Name)
				}
				u.BusIDs[cn.channel] = nextBus
				nextBus++
			}
			// Each connection enqueues its producer at most once, which
			// bounds the queue at len(conns)+len(outs).
			queue[qn] = cn.producer
			qn++
		}
	}

	g.schedule = g.schedule[:0]
	for i := visits - 1; i >= 0; i-- {
		g.schedule = append(g.schedule, visited[i])
	}

	g.scheduledAt = g.mods
	g.invalid = false
	g.log.Debug("scheduled %d of %d units across %d buses", visits, g.units.Len(), nextBus)
	return nil
}

func errScratch(err error) error {
	if err == arena.ErrOutOfCapacity {
		return fmt.Errorf("%w: scratch arena exhausted", ErrOutOfCapacity)
	}
	return err
}

package graph

import (
	"github.com/machlibs/synth/pkg/framework/unit"
)

// Run fills the host's planar output channels, executing the schedule once
// per sub-block of at most MaxBlockSize frames until the host buffer is
// full. tm is the sample counter at the first frame; each sub-block sees
// it advanced by the frames already written. Host channels beyond
// unit.MaxPorts are zeroed but not routed.
//
// Run never fails and never allocates: an invalid graph emits silence, and
// all buffer gathering goes through pre-allocated tables. hostIn is
// accepted for symmetry with the host callback signature; no unit in the
// library consumes it yet.
func (g *Graph) Run(tm int64, hostIn, hostOut [][]float32) {
	frames := 0
	for _, ch := range hostOut {
		clear(ch)
		if len(ch) > frames {
			frames = len(ch)
		}
	}
	if g.invalid || frames == 0 {
		return
	}

	for done := 0; done < frames; done += g.cfg.MaxBlockSize {
		n := frames - done
		if n > g.cfg.MaxBlockSize {
			n = g.cfg.MaxBlockSize
		}

		nOut := len(hostOut)
		if nOut > unit.MaxPorts {
			nOut = unit.MaxPorts
		}
		for ch := 0; ch < nOut; ch++ {
			g.hostOut[ch] = sub(hostOut[ch], done, n)
		}

		g.runBlock(tm+int64(done), nOut, n)
	}
}

// sub returns buf[off:off+n] clamped to the buffer's length.
func sub(buf []float32, off, n int) []float32 {
	if off >= len(buf) {
		return nil
	}
	end := off + n
	if end > len(buf) {
		end = len(buf)
	}
	return buf[off:end]
}

// runBlock executes the schedule once for a block of n frames.
func (g *Graph) runBlock(tm int64, hostChannels, n int) {
	// One contiguous clear of the whole bus pool: every bus starts the
	// block at silence, and producers accumulate into it.
	clear(g.buses)

	for _, u := range g.schedule {
		inputs, outputs := g.gather(u, hostChannels, n)
		u.Run(u, tm, inputs, outputs)
	}
}

// gather collects a unit's input and output bus slices. Inputs are the
// unit's assigned buses in ascending channel order. For sinks, each
// connected channel is paired with the matching host channel; for interior
// units, every outgoing edge contributes the destination's bus, so fan-out
// and fan-in mix by accumulation into shared buses.
func (g *Graph) gather(u *unit.Unit, hostChannels, n int) (inputs, outputs [][]float32) {
	k := 0
	if u.IsOutput {
		for ch := 0; ch < unit.MaxPorts; ch++ {
			id := u.BusIDs[ch]
			if id == unit.NoBus || ch >= hostChannels {
				continue
			}
			g.inGather[k] = g.bus(id, n)
			g.outGather[k] = g.hostOut[ch]
			k++
		}
		return g.inGather[:k], g.outGather[:k]
	}

	for ch := 0; ch < unit.MaxPorts; ch++ {
		if id := u.BusIDs[ch]; id != unit.NoBus {
			g.inGather[k] = g.bus(id, n)
			k++
		}
	}
	m := 0
	for i := range g.conns {
		cn := &g.conns[i]
		if cn.producer != u {
			continue
		}
		if id := cn.consumer.BusIDs[cn.channel]; id != unit.NoBus {
			g.outGather[m] = g.bus(id, n)
			m++
		}
	}
	return g.inGather[:k], g.outGather[:m]
}

// bus returns bus id's slice for the current block length.
func (g *Graph) bus(id int32, n int) []float32 {
	off := int(id) * g.cfg.MaxBlockSize
	return g.buses[off : off+n]
}

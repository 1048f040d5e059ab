// Package player provides a unit that plays a decoded sample stream into
// the graph.
package player

import (
	"fmt"
	"io"

	"github.com/machlibs/synth/pkg/codec"
	"github.com/machlibs/synth/pkg/codec/wav"
	"github.com/machlibs/synth/pkg/framework/unit"
)

// drainChunk is the read granularity used while preloading a source.
const drainChunk = 4096

// Player emits a preloaded sample stream. The source is drained into
// memory at construction, so Run touches nothing but the sample slice.
// Output j carries source channel j; a mono stream replicates to every
// output. When the stream runs out, IsFinished reports true and the unit
// emits silence, unless Loop is set.
type Player struct {
	samples  []float32
	channels int
	pos      int
	finished bool

	// Loop restarts playback at the beginning instead of finishing.
	Loop bool
}

// FromSource constructs a player unit by draining src. Close is called on
// the source once it is drained.
func FromSource(src codec.Source) (unit.Unit, error) {
	p := &Player{channels: src.Channels()}
	if p.channels < 1 {
		p.channels = 1
	}
	buf := make([]float32, drainChunk)
	for {
		n, err := src.ReadSamples(buf)
		p.samples = append(p.samples, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return unit.Unit{}, fmt.Errorf("player: draining source: %w", err)
		}
	}
	if err := src.Close(); err != nil {
		return unit.Unit{}, fmt.Errorf("player: closing source: %w", err)
	}
	// Drop a trailing partial frame so pos arithmetic stays aligned.
	p.samples = p.samples[:len(p.samples)/p.channels*p.channels]
	return unit.Unit{
		Name:  "player",
		State: p,
		Run:   runPlayer,
	}, nil
}

// FromReader constructs a player from a WAV stream.
func FromReader(r io.Reader) (unit.Unit, error) {
	d, err := wav.Decode(r)
	if err != nil {
		return unit.Unit{}, err
	}
	return FromSource(d)
}

// FromMemory constructs a player from a WAV image in memory.
func FromMemory(b []byte) (unit.Unit, error) {
	d, err := wav.DecodeBytes(b)
	if err != nil {
		return unit.Unit{}, err
	}
	return FromSource(d)
}

// IsFinished reports whether the stream is exhausted. A looping player
// with at least one frame never sets it.
func (p *Player) IsFinished() bool { return p.finished }

// Rewind restarts playback from the first frame.
func (p *Player) Rewind() {
	p.pos = 0
	p.finished = false
}

// Frames reports the stream length in frames.
func (p *Player) Frames() int { return len(p.samples) / p.channels }

func runPlayer(u *unit.Unit, _ int64, _, outputs [][]float32) {
	if len(outputs) == 0 {
		return
	}
	p := u.State.(*Player)
	frames := p.Frames()
	for i := range outputs[0] {
		if p.pos >= frames {
			if !p.Loop || frames == 0 {
				p.finished = true
				return
			}
			p.pos = 0
		}
		base := p.pos * p.channels
		for j, out := range outputs {
			ch := j
			if ch >= p.channels {
				ch = p.channels - 1
			}
			out[i] += p.samples[base+ch]
		}
		p.pos++
	}
}

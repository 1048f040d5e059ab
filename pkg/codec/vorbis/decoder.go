// Package vorbis adapts jfreymuth/oggvorbis to the codec.Source interface.
package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

// Decoder streams float32 samples from an Ogg Vorbis file.
type Decoder struct {
	r *oggvorbis.Reader
}

// Decode wraps r in a Vorbis decoder.
func Decode(r io.Reader) (*Decoder, error) {
	or, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("vorbis: %w", err)
	}
	return &Decoder{r: or}, nil
}

// SampleRate implements codec.Source.
func (d *Decoder) SampleRate() int { return d.r.SampleRate() }

// Channels implements codec.Source.
func (d *Decoder) Channels() int { return d.r.Channels() }

// Close implements codec.Source.
func (d *Decoder) Close() error { return nil }

// ReadSamples implements codec.Source. The underlying reader already
// produces interleaved float32 in [-1, 1].
func (d *Decoder) ReadSamples(dst []float32) (int, error) {
	n, err := d.r.Read(dst)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("vorbis: %w", err)
	}
	if n == 0 && err == io.EOF {
		return 0, io.EOF
	}
	return n, nil
}

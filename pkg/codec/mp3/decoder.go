// Package mp3 adapts hajimehoshi/go-mp3 to the codec.Source interface.
package mp3

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// Decoder streams float32 samples from an MPEG-1 layer 3 file. The
// underlying decoder always emits 16-bit little-endian stereo.
type Decoder struct {
	dec *gomp3.Decoder
	buf []byte
}

// Decode wraps r in an MP3 decoder.
func Decode(r io.Reader) (*Decoder, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	return &Decoder{dec: dec}, nil
}

// SampleRate implements codec.Source.
func (d *Decoder) SampleRate() int { return d.dec.SampleRate() }

// Channels implements codec.Source. go-mp3 upmixes mono to stereo.
func (d *Decoder) Channels() int { return 2 }

// Close implements codec.Source.
func (d *Decoder) Close() error { return nil }

// ReadSamples implements codec.Source, converting the decoder's 16-bit
// output as x/32767 to match the engine's PCM convention.
func (d *Decoder) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if cap(d.buf) < len(dst)*2 {
		d.buf = make([]byte, len(dst)*2)
	}
	b := d.buf[:len(dst)*2]
	n, err := io.ReadFull(d.dec, b)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("mp3: %w", err)
	}
	samples := n / 2
	for i := 0; i < samples; i++ {
		x := int16(binary.LittleEndian.Uint16(b[2*i:]))
		dst[i] = float32(x) / 32767
	}
	if samples == 0 {
		return 0, io.EOF
	}
	return samples, nil
}

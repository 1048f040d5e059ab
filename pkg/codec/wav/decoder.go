// Package wav decodes RIFF/WAVE PCM files into float32 sample streams.
// Supported encodings are 8-bit unsigned and 16-bit signed, mono or
// stereo. The whole data chunk is loaded at decode time, so reads from
// the returned Decoder never touch the underlying reader again.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/riff"
)

// Format mirrors the canonical 16-byte fmt subchunk.
type Format struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Decoder holds a fully loaded PCM stream and converts it to float32 on
// demand. It implements codec.Source.
type Decoder struct {
	format Format
	data   []byte
	pos    int
}

// Decode parses a WAV stream from r, loading the data chunk into memory.
func Decode(r io.Reader) (*Decoder, error) {
	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotARiffFile, err)
	}
	if p.Format != riff.WavFormatID {
		return nil, ErrNotAWavFile
	}

	d := &Decoder{}
	sawFmt := false
	for {
		ch, err := p.NextChunk()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
		}
		switch ch.ID {
		case riff.FmtID:
			if ch.Size != 16 {
				return nil, ErrUnsupportedFormatLength
			}
			if err := d.readFormat(ch); err != nil {
				return nil, err
			}
			sawFmt = true
		case riff.DataFormatID:
			if !sawFmt {
				return nil, ErrInvalidDataHeader
			}
			d.data = make([]byte, ch.Size)
			n, err := io.ReadFull(ch, d.data)
			if err == io.ErrUnexpectedEOF && len(d.data)%2 == 0 && n == len(d.data)-1 {
				// The chunk walker rounds an odd size up to include the
				// RIFF pad byte; a file that omits the pad byte ends one
				// byte early, and that short tail is accepted.
				d.data = d.data[:n]
				err = nil
			}
			if err != nil {
				return nil, fmt.Errorf("%w: short data chunk: %v", ErrUnexpectedEOF, err)
			}
			return d, nil
		default:
			ch.Drain()
		}
	}
	return nil, ErrInvalidDataHeader
}

// DecodeBytes parses a WAV image already in memory.
func DecodeBytes(b []byte) (*Decoder, error) {
	return Decode(bytes.NewReader(b))
}

func (d *Decoder) readFormat(r io.Reader) error {
	fields := []any{
		&d.format.AudioFormat,
		&d.format.NumChannels,
		&d.format.SampleRate,
		&d.format.ByteRate,
		&d.format.BlockAlign,
		&d.format.BitsPerSample,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return fmt.Errorf("%w: truncated fmt chunk", ErrUnexpectedEOF)
		}
	}
	f := &d.format
	if f.AudioFormat != 1 {
		return ErrCompressedWavFile
	}
	if f.BitsPerSample != 8 && f.BitsPerSample != 16 {
		return fmt.Errorf("%w: %d bits per sample", ErrUnsupported, f.BitsPerSample)
	}
	if f.NumChannels != 1 && f.NumChannels != 2 {
		return fmt.Errorf("%w: %d channels", ErrUnsupported, f.NumChannels)
	}
	if f.BlockAlign != f.NumChannels*f.BitsPerSample/8 {
		return ErrMismatchedBlockAlign
	}
	if f.ByteRate != f.SampleRate*uint32(f.BlockAlign) {
		return ErrMismatchedByteRate
	}
	return nil
}

// Format reports the parsed fmt subchunk.
func (d *Decoder) Format() Format { return d.format }

// NumSamples reports the number of frames (samples per channel) in the
// data chunk.
func (d *Decoder) NumSamples() int {
	return len(d.data) / int(d.format.BlockAlign)
}

// SampleRate implements codec.Source.
func (d *Decoder) SampleRate() int { return int(d.format.SampleRate) }

// Channels implements codec.Source.
func (d *Decoder) Channels() int { return int(d.format.NumChannels) }

// Close implements codec.Source. The decoder holds no external resources.
func (d *Decoder) Close() error { return nil }

// ReadSamples fills dst with interleaved float32 samples and reports how
// many were written. Returns io.EOF once the stream is exhausted.
// 16-bit samples convert as x/32767, 8-bit as (x/255)*2 - 1.
func (d *Decoder) ReadSamples(dst []float32) (int, error) {
	bytesPer := int(d.format.BitsPerSample) / 8
	remaining := (len(d.data) - d.pos) / bytesPer
	if remaining == 0 {
		return 0, io.EOF
	}
	n := len(dst)
	if n > remaining {
		n = remaining
	}
	if bytesPer == 1 {
		for i := 0; i < n; i++ {
			x := d.data[d.pos]
			dst[i] = float32(x)/255*2 - 1
			d.pos++
		}
	} else {
		for i := 0; i < n; i++ {
			x := int16(binary.LittleEndian.Uint16(d.data[d.pos:]))
			dst[i] = float32(x) / 32767
			d.pos += 2
		}
	}
	return n, nil
}

// DecodeFull converts the entire stream into dst in one call and reports
// the number of samples written. Fails with ErrInsufficientBuffer when dst
// cannot hold every sample; dst is untouched in that case.
func (d *Decoder) DecodeFull(dst []float32) (int, error) {
	total := len(d.data) / (int(d.format.BitsPerSample) / 8)
	if len(dst) < total {
		return 0, ErrInsufficientBuffer
	}
	saved := d.pos
	d.pos = 0
	n, err := d.ReadSamples(dst[:total])
	d.pos = saved
	if err != nil && err != io.EOF {
		return n, err
	}
	return n, nil
}

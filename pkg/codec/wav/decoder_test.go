package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// buildWav assembles a canonical 44-byte-header WAV image.
func buildWav(numChannels, sampleRate, bitsPerSample int, data []byte) []byte {
	blockAlign := numChannels * bitsPerSample / 8
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+len(data)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint16(numChannels))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(&b, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&b, binary.LittleEndian, uint16(bitsPerSample))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(data)))
	b.Write(data)
	return b.Bytes()
}

func int16Data(samples ...int16) []byte {
	var b bytes.Buffer
	for _, s := range samples {
		binary.Write(&b, binary.LittleEndian, s)
	}
	return b.Bytes()
}

func TestDecode16BitStereo(t *testing.T) {
	img := buildWav(2, 44100, 16, int16Data(0, 32767, -32767, 16384))
	d, err := DecodeBytes(img)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}

	f := d.Format()
	if f.AudioFormat != 1 || f.NumChannels != 2 || f.SampleRate != 44100 ||
		f.BitsPerSample != 16 || f.BlockAlign != 4 || f.ByteRate != 44100*4 {
		t.Fatalf("format fields wrong: %+v", f)
	}
	if d.NumSamples() != 2 {
		t.Fatalf("NumSamples() = %d, want 2 frames", d.NumSamples())
	}

	got := make([]float32, 4)
	n, err := d.ReadSamples(got)
	if err != nil || n != 4 {
		t.Fatalf("ReadSamples = %d, %v", n, err)
	}
	want := []float32{0, 1, -1, 0.5}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0.001, 0)); diff != "" {
		t.Errorf("sample conversion mismatch (-want +got):\n%s", diff)
	}

	if _, err := d.ReadSamples(got); err != io.EOF {
		t.Fatalf("ReadSamples at end = %v, want io.EOF", err)
	}
}

func TestDecode8BitMono(t *testing.T) {
	img := buildWav(1, 8000, 8, []byte{0, 128, 255})
	d, err := DecodeBytes(img)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if d.Channels() != 1 || d.SampleRate() != 8000 {
		t.Fatalf("Channels/SampleRate = %d/%d", d.Channels(), d.SampleRate())
	}

	got := make([]float32, 3)
	if _, err := d.ReadSamples(got); err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	want := []float32{-1, float32(128)/255*2 - 1, 1}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0.001, 0)); diff != "" {
		t.Errorf("8-bit conversion mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodePartialReads(t *testing.T) {
	img := buildWav(1, 8000, 16, int16Data(100, 200, 300))
	d, err := DecodeBytes(img)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}

	buf := make([]float32, 2)
	n, err := d.ReadSamples(buf)
	if n != 2 || err != nil {
		t.Fatalf("first read = %d, %v", n, err)
	}
	n, err = d.ReadSamples(buf)
	if n != 1 || err != nil {
		t.Fatalf("tail read = %d, %v", n, err)
	}
	if math.Abs(float64(buf[0]-300.0/32767)) > 1e-6 {
		t.Errorf("tail sample = %v", buf[0])
	}
}

func TestDecodeErrors(t *testing.T) {
	good := buildWav(1, 8000, 16, int16Data(1, 2))

	corrupt := func(mutate func([]byte)) []byte {
		img := append([]byte(nil), good...)
		mutate(img)
		return img
	}

	tests := []struct {
		name string
		img  []byte
		want error
	}{
		{"not riff", corrupt(func(b []byte) { copy(b, "JUNK") }), ErrNotARiffFile},
		{"not wave", corrupt(func(b []byte) { copy(b[8:], "AIFF") }), ErrNotAWavFile},
		{"fmt length", corrupt(func(b []byte) { b[16] = 18 }), ErrUnsupportedFormatLength},
		{"compressed", corrupt(func(b []byte) { b[20] = 2 }), ErrCompressedWavFile},
		{"bad bits", corrupt(func(b []byte) {
			b[34] = 24              // bits per sample
			b[32] = 3               // keep block align consistent
			binary.LittleEndian.PutUint32(b[28:], 8000*3) // and byte rate
		}), ErrUnsupported},
		{"bad channels", corrupt(func(b []byte) {
			b[22] = 3
			b[32] = 6
			binary.LittleEndian.PutUint32(b[28:], 8000*6)
		}), ErrUnsupported},
		{"block align", corrupt(func(b []byte) { b[32] = 7 }), ErrMismatchedBlockAlign},
		{"byte rate", corrupt(func(b []byte) {
			binary.LittleEndian.PutUint32(b[28:], 12345)
		}), ErrMismatchedByteRate},
		{"truncated data", good[:len(good)-2], ErrUnexpectedEOF},
		{"no data chunk", good[:36], ErrInvalidDataHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes(tt.img)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeBytes = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeSkipsUnknownChunks(t *testing.T) {
	// A LIST chunk between fmt and data must be ignored.
	img := buildWav(1, 8000, 16, int16Data(42))
	var b bytes.Buffer
	b.Write(img[:36]) // header + fmt
	b.WriteString("LIST")
	binary.Write(&b, binary.LittleEndian, uint32(4))
	b.WriteString("INFO")
	b.Write(img[36:]) // data chunk
	full := b.Bytes()
	binary.LittleEndian.PutUint32(full[4:], uint32(len(full)-8))

	d, err := DecodeBytes(full)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if d.NumSamples() != 1 {
		t.Fatalf("NumSamples() = %d, want 1", d.NumSamples())
	}
}

func TestDecodeFull(t *testing.T) {
	img := buildWav(2, 44100, 16, int16Data(1000, -1000, 2000, -2000))
	d, err := DecodeBytes(img)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}

	small := make([]float32, 3)
	if _, err := d.DecodeFull(small); !errors.Is(err, ErrInsufficientBuffer) {
		t.Fatalf("DecodeFull(small) = %v, want ErrInsufficientBuffer", err)
	}

	dst := make([]float32, 4)
	n, err := d.DecodeFull(dst)
	if err != nil || n != 4 {
		t.Fatalf("DecodeFull = %d, %v", n, err)
	}

	// DecodeFull must not disturb streaming position: a full ReadSamples
	// pass still sees every sample.
	streamed := make([]float32, 4)
	if n, err := d.ReadSamples(streamed); n != 4 || err != nil {
		t.Fatalf("ReadSamples after DecodeFull = %d, %v", n, err)
	}
	if diff := cmp.Diff(dst, streamed); diff != "" {
		t.Errorf("DecodeFull and ReadSamples disagree:\n%s", diff)
	}
}

func TestRiffSizeFieldMatchesFixtureShape(t *testing.T) {
	// Mirrors the shape checks for a known ambience fixture: stereo
	// 16-bit PCM at 44100 Hz where every frame is 4 bytes.
	data := make([]byte, 82436)
	img := buildWav(2, 44100, 16, data)

	if got := binary.LittleEndian.Uint32(img[4:]); got != 82472 {
		t.Fatalf("RIFF size = %d, want 82472", got)
	}
	d, err := DecodeBytes(img)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if got, want := d.NumSamples(), 82436/4; got != want {
		t.Fatalf("NumSamples() = %d, want %d", got, want)
	}
}

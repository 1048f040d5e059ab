// Package codec defines the sample-stream interface the player unit
// consumes. Concrete decoders live in the subpackages.
package codec

// Source is a decoded audio stream. ReadSamples fills dst with interleaved
// 32-bit float samples in [-1, 1] and reports the number of samples
// written; it returns io.EOF once the stream is exhausted. Sources may
// stream from their underlying reader: the player unit drains its source
// into memory at construction, never on the audio path.
type Source interface {
	ReadSamples(dst []float32) (int, error)
	SampleRate() int
	Channels() int
	Close() error
}

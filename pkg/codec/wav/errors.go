package wav

import "errors"

// Decode errors. Decode wraps these with position context where useful;
// match with errors.Is.
var (
	// ErrNotARiffFile marks a missing or malformed RIFF header.
	ErrNotARiffFile = errors.New("wav: not a RIFF file")

	// ErrNotAWavFile marks a RIFF container whose form type is not WAVE.
	ErrNotAWavFile = errors.New("wav: not a WAVE file")

	// ErrUnsupportedFormatLength marks a fmt subchunk whose length is not
	// the canonical 16 bytes.
	ErrUnsupportedFormatLength = errors.New("wav: unsupported fmt chunk length")

	// ErrCompressedWavFile marks a non-PCM audio format tag.
	ErrCompressedWavFile = errors.New("wav: compressed files are not supported")

	// ErrMismatchedByteRate marks a byte rate inconsistent with the
	// sample rate and block alignment.
	ErrMismatchedByteRate = errors.New("wav: mismatched byte rate")

	// ErrMismatchedBlockAlign marks a block alignment inconsistent with
	// the channel count and sample width.
	ErrMismatchedBlockAlign = errors.New("wav: mismatched block align")

	// ErrInvalidDataHeader marks a missing or malformed data subchunk.
	ErrInvalidDataHeader = errors.New("wav: invalid data header")

	// ErrUnexpectedEOF marks a file truncated mid-chunk.
	ErrUnexpectedEOF = errors.New("wav: unexpected end of file")

	// ErrUnsupported marks a bits-per-sample or channel count outside the
	// supported set (8/16 bit, mono or stereo).
	ErrUnsupported = errors.New("wav: unsupported sample format")

	// ErrInsufficientBuffer is returned by DecodeFull when the caller's
	// buffer cannot hold the whole stream.
	ErrInsufficientBuffer = errors.New("wav: insufficient buffer")
)

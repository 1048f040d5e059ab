package debug

import (
	"fmt"
	"math"
)

// AnalysisResult summarises one audio buffer.
type AnalysisResult struct {
	Peak          float32
	RMS           float32
	DC            float32
	Clipped       int
	NaNs          int
	ZeroCrossings int
	Silent        bool
}

const (
	clippingThreshold = 0.99
	silenceThreshold  = 0.0001
)

// Analyze scans a buffer for level, DC offset, clipping, and NaNs. Meant
// for assertions in tests and offline inspection of rendered blocks, not
// for the audio callback.
func Analyze(buffer []float32) AnalysisResult {
	var r AnalysisResult
	if len(buffer) == 0 {
		r.Silent = true
		return r
	}

	var sum, sumSquares float64
	var last float32
	for i, sample := range buffer {
		if math.IsNaN(float64(sample)) {
			r.NaNs++
			continue
		}
		abs := sample
		if abs < 0 {
			abs = -abs
		}
		if abs > r.Peak {
			r.Peak = abs
		}
		if abs >= clippingThreshold {
			r.Clipped++
		}
		if i > 0 && ((last < 0 && sample >= 0) || (last >= 0 && sample < 0)) {
			r.ZeroCrossings++
		}
		last = sample
		sum += float64(sample)
		sumSquares += float64(sample) * float64(sample)
	}

	n := float64(len(buffer))
	r.DC = float32(sum / n)
	r.RMS = float32(math.Sqrt(sumSquares / n))
	r.Silent = r.Peak < silenceThreshold
	return r
}

// String renders the result in one line for log output.
func (r AnalysisResult) String() string {
	return fmt.Sprintf("peak=%.4f rms=%.4f dc=%.4f clipped=%d nans=%d zc=%d silent=%v",
		r.Peak, r.RMS, r.DC, r.Clipped, r.NaNs, r.ZeroCrossings, r.Silent)
}

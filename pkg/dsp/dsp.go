// Package dsp provides shared buffer primitives for unit implementations.
package dsp

// Clear zeroes a buffer - no allocations
func Clear(buffer []float32) {
	for i := range buffer {
		buffer[i] = 0
	}
}

// Add adds source to destination - no allocations
func Add(dst, src []float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
}

// AddScaled adds scaled source to destination - no allocations
func AddScaled(dst, src []float32, scale float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] += src[i] * scale
	}
}

// Scale multiplies buffer by a constant - no allocations
func Scale(buffer []float32, scale float32) {
	for i := range buffer {
		buffer[i] *= scale
	}
}

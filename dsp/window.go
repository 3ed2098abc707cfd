package dsp

import "math"

// HannWindow returns an n-point Hann window.
//
// The window follows w[i] = 0.5 * (1 - cos(2*pi*i/(n-1))), tapering to zero
// at both edges. Windows of length 0 or 1 degenerate to an empty slice or a
// single unity coefficient.
func HannWindow(n int) []float64 {
	window := make([]float64, n)
	if n == 1 {
		window[0] = 1.0
		return window
	}
	for i := range window {
		window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(n-1)))
	}
	return window
}

// ApplyWindow multiplies samples by window element-wise into dst.
//
// dst, samples, and window must all have the same length; dst may alias
// samples for in-place operation.
func ApplyWindow(dst, samples, window []float64) {
	for i := range samples {
		dst[i] = samples[i] * window[i]
	}
}

// Package dsp provides the signal-processing primitives used by the
// voiceproc pipeline: Hann windowing, a real-input FFT with magnitude/phase
// decomposition, biquad filter sections, level conversion helpers, PCM
// format conversion, and a linear-interpolation resampler.
//
// Everything in this package is allocation-conscious and single-threaded:
// callers own one instance per audio stream and reuse it frame after frame.
// Stateless helpers operate on caller-provided slices wherever possible so
// the per-frame hot path does not allocate.
package dsp

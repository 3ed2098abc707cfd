package dsp

import (
	"fmt"
	"math/cmplx"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT converts fixed-length real frames between the time domain and a
// magnitude/phase spectral representation.
//
// The transform wraps gonum's real-input FFT. A frame of n samples maps to
// n/2+1 spectral bins; bin k covers frequency k*sampleRate/n. Coefficients
// are kept unnormalized on the forward path (matching the underlying
// transform); Inverse applies the 1/n factor so a Forward/Inverse round trip
// reproduces the input.
//
// An FFT instance owns reusable scratch buffers and is not safe for
// concurrent use; sessions hold one instance each.
type FFT struct {
	n      int
	fft    *fourier.FFT
	coeffs []complex128
	seq    []float64
}

// NewFFT creates a transform for frames of exactly n samples.
//
// Parameters:
//   - n: frame length in samples (must be positive)
//
// Returns:
//   - *FFT: transform instance sized for n-sample frames
//   - error: if n is not positive
func NewFFT(n int) (*FFT, error) {
	if n <= 0 {
		return nil, fmt.Errorf("fft length must be positive, got %d", n)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewFFT",
		"length":   n,
		"bins":     n/2 + 1,
	}).Debug("Creating spectral transform")

	return &FFT{
		n:      n,
		fft:    fourier.NewFFT(n),
		coeffs: make([]complex128, n/2+1),
		seq:    make([]float64, n),
	}, nil
}

// Len returns the frame length the transform was sized for.
func (t *FFT) Len() int { return t.n }

// Bins returns the number of spectral bins (n/2 + 1).
func (t *FFT) Bins() int { return t.n/2 + 1 }

// Forward computes the magnitude and phase spectra of samples.
//
// magnitude[k] = sqrt(re^2 + im^2) and phase[k] = atan2(im, re) for each of
// the n/2+1 bins. The destination slices must each hold Bins() elements;
// samples must hold exactly Len() elements.
//
// Returns an error only on a length mismatch; the transform itself cannot
// fail.
func (t *FFT) Forward(samples, magnitude, phase []float64) error {
	if len(samples) != t.n {
		return fmt.Errorf("forward transform expects %d samples, got %d", t.n, len(samples))
	}
	if len(magnitude) != len(t.coeffs) || len(phase) != len(t.coeffs) {
		return fmt.Errorf("spectral buffers must hold %d bins, got %d/%d", len(t.coeffs), len(magnitude), len(phase))
	}

	t.coeffs = t.fft.Coefficients(t.coeffs, samples)
	for k, c := range t.coeffs {
		magnitude[k] = cmplx.Abs(c)
		phase[k] = cmplx.Phase(c)
	}
	return nil
}

// Inverse reconstructs an n-sample frame from magnitude and phase spectra.
//
// Each bin is rebuilt as magnitude*cos(phase) + i*magnitude*sin(phase)
// before the inverse transform runs. The result is written into dst, which
// must hold Len() samples; the 1/n normalization is applied here.
func (t *FFT) Inverse(magnitude, phase, dst []float64) error {
	if len(magnitude) != len(t.coeffs) || len(phase) != len(t.coeffs) {
		return fmt.Errorf("spectral buffers must hold %d bins, got %d/%d", len(t.coeffs), len(magnitude), len(phase))
	}
	if len(dst) != t.n {
		return fmt.Errorf("inverse transform expects %d output samples, got %d", t.n, len(dst))
	}

	for k := range t.coeffs {
		t.coeffs[k] = cmplx.Rect(magnitude[k], phase[k])
	}
	t.seq = t.fft.Sequence(t.seq, t.coeffs)

	scale := 1.0 / float64(t.n)
	for i, v := range t.seq {
		dst[i] = v * scale
	}
	return nil
}

package dsp

import (
	"fmt"
	"math"
)

// ButterworthQ is the quality factor of a single maximally flat second-order
// section.
const ButterworthQ = 0.7071067811865476

// BiquadCoeffs holds normalized transfer-function coefficients for one
// second-order (two-pole/two-zero) filter section. The a0 coefficient is
// already divided out.
type BiquadCoeffs struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// HighPassCoeffs derives second-order high-pass coefficients from the cutoff
// frequency and sample rate using the standard audio-EQ cookbook form.
//
// Parameters:
//   - cutoff: -3 dB corner frequency in Hz (must be positive and below Nyquist)
//   - sampleRate: sample rate in Hz (must be positive)
//   - q: section quality factor (must be positive; ButterworthQ for a flat response)
//
// Returns:
//   - BiquadCoeffs: normalized coefficients
//   - error: if any parameter is out of range
func HighPassCoeffs(cutoff, sampleRate, q float64) (BiquadCoeffs, error) {
	if sampleRate <= 0 {
		return BiquadCoeffs{}, fmt.Errorf("sample rate must be positive, got %g", sampleRate)
	}
	if cutoff <= 0 || cutoff >= sampleRate/2 {
		return BiquadCoeffs{}, fmt.Errorf("cutoff must be in (0, %g), got %g", sampleRate/2, cutoff)
	}
	if q <= 0 {
		return BiquadCoeffs{}, fmt.Errorf("q must be positive, got %g", q)
	}

	omega := 2.0 * math.Pi * cutoff / sampleRate
	cosw := math.Cos(omega)
	alpha := math.Sin(omega) / (2.0 * q)

	a0 := 1.0 + alpha
	return BiquadCoeffs{
		B0: (1.0 + cosw) / 2.0 / a0,
		B1: -(1.0 + cosw) / a0,
		B2: (1.0 + cosw) / 2.0 / a0,
		A1: -2.0 * cosw / a0,
		A2: (1.0 - alpha) / a0,
	}, nil
}

// Biquad is one stateful second-order filter section: the coefficients plus
// two samples of input and output history.
type Biquad struct {
	coeffs BiquadCoeffs
	x1, x2 float64
	y1, y2 float64
}

// NewBiquad creates a filter section with zeroed history.
func NewBiquad(coeffs BiquadCoeffs) *Biquad {
	return &Biquad{coeffs: coeffs}
}

// Process runs one sample through the direct-form-I recurrence
// y = b0*x + b1*x1 + b2*x2 - a1*y1 - a2*y2 and shifts the history.
func (b *Biquad) Process(x float64) float64 {
	y := b.coeffs.B0*x + b.coeffs.B1*b.x1 + b.coeffs.B2*b.x2 - b.coeffs.A1*b.y1 - b.coeffs.A2*b.y2
	b.x2, b.x1 = b.x1, x
	b.y2, b.y1 = b.y1, y
	return y
}

// Reset clears the filter history without touching the coefficients.
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

package dsp

import "math"

// levelFloor guards level math against log(0) and division by zero on
// degenerate (all-zero) signals. Levels below it report as SilenceDb.
const levelFloor = 1e-10

// SilenceDb is the level reported for signals at or below the numeric floor.
const SilenceDb = -200.0

// DbToLinear converts a decibel value to linear amplitude: 10^(db/20).
func DbToLinear(db float64) float64 {
	return math.Pow(10.0, db/20.0)
}

// LinearToDb converts linear amplitude to decibels: 20*log10(v).
// Values at or below the numeric floor return SilenceDb instead of -Inf.
func LinearToDb(v float64) float64 {
	if v <= levelFloor {
		return SilenceDb
	}
	return 20.0 * math.Log10(v)
}

// RMS returns the root-mean-square amplitude of samples, 0 for an empty
// slice.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// MeanAbs returns the mean absolute amplitude of samples, 0 for an empty
// slice.
func MeanAbs(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += math.Abs(s)
	}
	return sum / float64(len(samples))
}

// Mean returns the arithmetic mean of samples, the DC offset of an audio
// frame, or 0 for an empty slice.
func Mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

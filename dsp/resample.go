package dsp

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Resampler converts mono audio between sample rates using linear
// interpolation, which is adequate for voice signals feeding an analysis
// pipeline. The fractional read position and the last input sample carry
// across calls so consecutive frames resample without discontinuities.
type Resampler struct {
	inputRate  int
	outputRate int
	ratio      float64
	position   float64
	lastSample float64
	primed     bool
}

// NewResampler creates a resampler from inputRate to outputRate (both Hz).
//
// Returns an error if either rate is not positive. Equal rates are valid;
// Resample then degenerates to a copy.
func NewResampler(inputRate, outputRate int) (*Resampler, error) {
	if inputRate <= 0 || outputRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: input=%d, output=%d", inputRate, outputRate)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewResampler",
		"input_rate":  inputRate,
		"output_rate": outputRate,
		"ratio":       float64(inputRate) / float64(outputRate),
	}).Info("Created audio resampler")

	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		ratio:      float64(inputRate) / float64(outputRate),
	}, nil
}

// Resample converts input samples to the output rate, appending to dst and
// returning the extended slice. Empty input yields dst unchanged.
func (r *Resampler) Resample(dst, input []float64) []float64 {
	if len(input) == 0 {
		return dst
	}
	if r.inputRate == r.outputRate {
		return append(dst, input...)
	}

	outputFrames := int(float64(len(input))/r.ratio + 0.5)
	for out := 0; out < outputFrames; out++ {
		idx := int(r.position)
		frac := r.position - float64(idx)

		var sample float64
		switch {
		case idx < 0:
			// Still between the previous batch's last sample and input[0].
			if r.primed {
				sample = r.lastSample*(1.0-frac) + input[0]*frac
			} else {
				sample = input[0]
			}
		case idx >= len(input)-1:
			sample = input[len(input)-1]
		default:
			sample = input[idx]*(1.0-frac) + input[idx+1]*frac
		}

		dst = append(dst, sample)
		r.position += r.ratio
	}

	r.position -= float64(len(input))
	r.lastSample = input[len(input)-1]
	r.primed = true

	logrus.WithFields(logrus.Fields{
		"function":      "Resample",
		"input_frames":  len(input),
		"output_frames": outputFrames,
	}).Debug("Resampled audio block")

	return dst
}

// OutputLen estimates the number of output samples produced for an input of
// the given length, for buffer pre-sizing.
func (r *Resampler) OutputLen(inputLen int) int {
	if r.inputRate == r.outputRate {
		return inputLen
	}
	return int(float64(inputLen)/r.ratio + 0.5)
}

// InputRate returns the configured input sample rate.
func (r *Resampler) InputRate() int { return r.inputRate }

// OutputRate returns the configured output sample rate.
func (r *Resampler) OutputRate() int { return r.outputRate }

// Reset clears the interpolation state for a new stream or after a
// discontinuity.
func (r *Resampler) Reset() {
	r.position = 0
	r.lastSample = 0
	r.primed = false
}

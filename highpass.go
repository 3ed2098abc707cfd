package voiceproc

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voiceproc/dsp"
)

// dcSmoothing is the EMA retention for the DC-offset diagnostic.
const dcSmoothing = 0.9

// HighPassFilter removes DC offset and low-frequency rumble ahead of the
// adaptive stages. It is a fixed-coefficient biquad cascade, stateful but
// non-adaptive, and additionally tracks a smoothed DC-offset diagnostic of
// the incoming signal for quality reporting.
type HighPassFilter struct {
	cfg    HighPassConfig
	stages []*dsp.Biquad

	dcOffset float64
	dcSeeded bool
}

// NewHighPassFilter creates the filter from its configuration.
//
// Order 2 builds one Butterworth section; order 4 cascades the standard
// Butterworth Q pair for a maximally flat fourth-order response.
//
// Parameters:
//   - cfg: filter configuration (DefaultHighPassConfig for the defaults)
//
// Returns:
//   - *HighPassFilter: ready-to-use filter with zeroed history
//   - error: ConfigError if the configuration is invalid
func NewHighPassFilter(cfg HighPassConfig) (*HighPassFilter, error) {
	if err := cfg.validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewHighPassFilter",
			"error":    err.Error(),
		}).Error("High-pass configuration rejected")
		return nil, err
	}

	qs := []float64{dsp.ButterworthQ}
	if cfg.Order == 4 {
		// Fourth-order Butterworth splits into two sections with these Qs.
		qs = []float64{0.5411961001461969, 1.3065629648763766}
	}

	stages := make([]*dsp.Biquad, 0, len(qs))
	for _, q := range qs {
		coeffs, err := dsp.HighPassCoeffs(cfg.CutoffFrequency, float64(cfg.SampleRate), q)
		if err != nil {
			return nil, newConfigError("highpass", "CutoffFrequency", err.Error())
		}
		stages = append(stages, dsp.NewBiquad(coeffs))
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewHighPassFilter",
		"cutoff_hz":   cfg.CutoffFrequency,
		"sample_rate": cfg.SampleRate,
		"order":       cfg.Order,
	}).Info("Created high-pass filter")

	return &HighPassFilter{cfg: cfg, stages: stages}, nil
}

// Process filters samples in place and updates the DC-offset diagnostic
// from the unfiltered input. Any frame length is accepted; the filter has
// no frame-size contract of its own.
func (h *HighPassFilter) Process(samples []float64) {
	if len(samples) == 0 {
		return
	}

	mean := dsp.Mean(samples)
	if !h.dcSeeded {
		h.dcOffset = mean
		h.dcSeeded = true
	} else {
		h.dcOffset = dcSmoothing*h.dcOffset + (1.0-dcSmoothing)*mean
	}

	for i, x := range samples {
		y := x
		for _, stage := range h.stages {
			y = stage.Process(y)
		}
		samples[i] = y
	}

	logrus.WithFields(logrus.Fields{
		"function":  "HighPassFilter.Process",
		"samples":   len(samples),
		"dc_offset": h.dcOffset,
	}).Trace("Applied high-pass filter")
}

// GetDCOffset returns the smoothed DC offset measured on the input signal.
func (h *HighPassFilter) GetDCOffset() float64 { return h.dcOffset }

// GetName returns the module name used in processing orders.
func (h *HighPassFilter) GetName() string { return ModuleHighPass }

// Reset clears filter history and the DC diagnostic, keeping the
// configuration.
func (h *HighPassFilter) Reset() {
	for _, stage := range h.stages {
		stage.Reset()
	}
	h.dcOffset = 0
	h.dcSeeded = false

	logrus.WithFields(logrus.Fields{
		"function": "HighPassFilter.Reset",
	}).Debug("High-pass filter state cleared")
}

package voiceproc

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voiceproc/dsp"
)

// magnitudeFloor guards the per-bin gain division; bins at or below it keep
// unity gain.
const magnitudeFloor = 1e-10

// NoiseReducer suppresses stationary background noise by adaptive spectral
// subtraction.
//
// A per-bin noise profile is learned from quiet audio: the first absorbed
// frame seeds it, later quiet frames fold in by exponential smoothing
// (profile = LearningRate*profile + (1-LearningRate)*magnitude). The first
// AdaptationFrames frames are absorbed unconditionally so a fresh instance
// converges without hints; afterwards absorption requires the caller's
// quiet flag. Until a profile exists the reducer passes audio through
// untouched.
//
// Per frame the signal is Hann-windowed and transformed; each bin's
// magnitude has Alpha times the profile subtracted, is floored at Beta
// times itself, and the resulting gain is clamped to [MinGain, MaxGain]
// before the spectrum is recombined with the original phase,
// inverse-transformed, re-windowed, and overlap-added against the tail
// carried from the previous call. Exact reconstruction holds when the host
// advances frames by HopSize; hosts delivering disjoint frames configure
// HopSize equal to FrameSize, which degenerates to per-frame windowed
// processing with an empty tail.
type NoiseReducer struct {
	cfg    NoiseReductionConfig
	fft    *dsp.FFT
	window []float64

	profile       []float64
	framesAdapted int

	tail []float64

	// Per-frame scratch, reused to keep the hot path allocation-free.
	windowed  []float64
	magnitude []float64
	phase     []float64
	enhanced  []float64
	resynth   []float64
}

// NewNoiseReducer creates a reducer from its configuration.
//
// Parameters:
//   - cfg: noise-reduction configuration (DefaultNoiseReductionConfig for
//     the documented defaults)
//
// Returns:
//   - *NoiseReducer: ready-to-use instance with an uninitialized profile
//   - error: ConfigError if the configuration is invalid
func NewNoiseReducer(cfg NoiseReductionConfig) (*NoiseReducer, error) {
	if cfg.HopSize == 0 {
		cfg.HopSize = cfg.FrameSize / 2
	}
	if err := cfg.validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewNoiseReducer",
			"error":    err.Error(),
		}).Error("Noise-reduction configuration rejected")
		return nil, err
	}

	fft, err := dsp.NewFFT(cfg.FrameSize)
	if err != nil {
		return nil, newConfigError("denoise", "FrameSize", err.Error())
	}

	bins := fft.Bins()
	n := &NoiseReducer{
		cfg:       cfg,
		fft:       fft,
		window:    dsp.HannWindow(cfg.FrameSize),
		tail:      make([]float64, cfg.FrameSize-cfg.HopSize),
		windowed:  make([]float64, cfg.FrameSize),
		magnitude: make([]float64, bins),
		phase:     make([]float64, bins),
		enhanced:  make([]float64, bins),
		resynth:   make([]float64, cfg.FrameSize),
	}

	logrus.WithFields(logrus.Fields{
		"function":          "NewNoiseReducer",
		"frame_size":        cfg.FrameSize,
		"hop_size":          cfg.HopSize,
		"bins":              bins,
		"alpha":             cfg.Alpha,
		"beta":              cfg.Beta,
		"learning_rate":     cfg.LearningRate,
		"adaptation_frames": cfg.AdaptationFrames,
	}).Info("Created noise reducer")

	return n, nil
}

// Process enhances one frame in place.
//
// The quiet flag marks the frame as noise-only, forcing a profile update;
// it is combined upstream with the VAD's own silence decision. A frame
// whose length differs from the configured FrameSize is rejected with a
// FrameShapeError before any state is touched.
func (n *NoiseReducer) Process(samples []float64, quiet bool) error {
	if len(samples) != n.cfg.FrameSize {
		logrus.WithFields(logrus.Fields{
			"function":   "NoiseReducer.Process",
			"got_length": len(samples),
			"frame_size": n.cfg.FrameSize,
		}).Error("Frame rejected before processing")
		return &FrameShapeError{Got: len(samples), Want: n.cfg.FrameSize}
	}

	dsp.ApplyWindow(n.windowed, samples, n.window)
	if err := n.fft.Forward(n.windowed, n.magnitude, n.phase); err != nil {
		return err
	}

	if quiet || n.framesAdapted < n.cfg.AdaptationFrames {
		n.adaptProfile()
	}

	if n.profile == nil {
		logrus.WithFields(logrus.Fields{
			"function": "NoiseReducer.Process",
		}).Trace("No noise profile yet, passing frame through")
		return nil
	}

	n.subtractSpectrum()

	if err := n.fft.Inverse(n.enhanced, n.phase, n.resynth); err != nil {
		return err
	}
	dsp.ApplyWindow(n.resynth, n.resynth, n.window)

	for i := range n.tail {
		n.resynth[i] += n.tail[i]
	}
	copy(samples, n.resynth)
	copy(n.tail, n.resynth[n.cfg.HopSize:])

	logrus.WithFields(logrus.Fields{
		"function":       "NoiseReducer.Process",
		"frames_adapted": n.framesAdapted,
		"quiet":          quiet,
	}).Trace("Applied spectral subtraction")

	return nil
}

// adaptProfile folds the current magnitude spectrum into the noise profile.
func (n *NoiseReducer) adaptProfile() {
	if n.profile == nil {
		n.profile = make([]float64, len(n.magnitude))
		copy(n.profile, n.magnitude)
	} else {
		rate := n.cfg.LearningRate
		for k, mag := range n.magnitude {
			n.profile[k] = rate*n.profile[k] + (1.0-rate)*mag
		}
	}
	n.framesAdapted++

	logrus.WithFields(logrus.Fields{
		"function":       "NoiseReducer.adaptProfile",
		"frames_adapted": n.framesAdapted,
	}).Debug("Updated noise profile")
}

// subtractSpectrum computes the enhanced magnitude spectrum from the
// current magnitudes and the noise profile.
func (n *NoiseReducer) subtractSpectrum() {
	for k, mag := range n.magnitude {
		if mag <= magnitudeFloor {
			n.enhanced[k] = mag
			continue
		}
		subtracted := mag - n.cfg.Alpha*n.profile[k]
		floored := subtracted
		if floor := n.cfg.Beta * mag; floored < floor {
			floored = floor
		}
		gain := dsp.Clamp(floored/mag, n.cfg.MinGain, n.cfg.MaxGain)
		n.enhanced[k] = mag * gain
	}
}

// HasNoiseProfile reports whether a profile has been learned yet.
func (n *NoiseReducer) HasNoiseProfile() bool { return n.profile != nil }

// GetNoiseProfile returns a copy of the learned per-bin noise estimate, or
// nil while uninitialized.
func (n *NoiseReducer) GetNoiseProfile() []float64 {
	if n.profile == nil {
		return nil
	}
	out := make([]float64, len(n.profile))
	copy(out, n.profile)
	return out
}

// GetFramesAdapted returns how many frames have been folded into the
// profile.
func (n *NoiseReducer) GetFramesAdapted() int { return n.framesAdapted }

// GetName returns the module name used in processing orders.
func (n *NoiseReducer) GetName() string { return ModuleDenoise }

// Reset clears the noise profile back to uninitialized and empties the
// overlap tail, keeping the configuration.
func (n *NoiseReducer) Reset() {
	n.profile = nil
	n.framesAdapted = 0
	for i := range n.tail {
		n.tail[i] = 0
	}

	logrus.WithFields(logrus.Fields{
		"function": "NoiseReducer.Reset",
	}).Debug("Noise reducer state cleared")
}

package voiceproc

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voiceproc/dsp"
)

// ConsensusInfo is the fusion-stage breakdown inside a Decision.
type ConsensusInfo struct {
	// Score is the weighted detector-confidence sum in [0, 1].
	Score float64
	// Threshold is the configured consensus cut the score was compared to.
	Threshold float64
	// AgreementCount is how many detectors agreed with the raw fused
	// decision, 0 through 3.
	AgreementCount int
}

// Decision is the per-frame voice-activity verdict published downstream.
type Decision struct {
	// IsVoiceActive is the stabilized decision: the window's majority vote
	// or an active hangover.
	IsVoiceActive bool
	// Confidence is the consensus weighted score in [0, 1].
	Confidence float64
	// Timestamp is the source frame's capture timestamp.
	Timestamp time.Time
	// PerAlgorithm holds each detector's verdict keyed by detector name.
	PerAlgorithm map[string]DetectorResult
	Consensus    ConsensusInfo
	Smoothing    SmoothingInfo
}

// VAD is the full speech-presence stack: the three detectors, consensus
// fusion, and the temporal stabilizer, plus a spectral transform sized to
// the configured frame length feeding the spectrum-based detectors.
//
// One instance serves one audio stream; it is single-threaded and holds
// its per-frame spectral scratch across calls.
type VAD struct {
	cfg VADConfig

	energy  *energyDetector
	zcr     *zcrDetector
	entropy *entropyDetector

	fusion     *consensusFusion
	stabilizer *temporalStabilizer

	fft      *dsp.FFT
	window   []float64
	windowed []float64
	spectrum []float64
	phase    []float64
}

// NewVAD creates the stack from its configuration.
//
// Parameters:
//   - cfg: VAD configuration (DefaultVADConfig for the documented defaults)
//
// Returns:
//   - *VAD: ready-to-use instance in the silence state
//   - error: ConfigError if the configuration is invalid, including fusion
//     weights whose sum is off by more than the 10% tolerance
func NewVAD(cfg VADConfig) (*VAD, error) {
	if err := cfg.validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewVAD",
			"error":    err.Error(),
		}).Error("VAD configuration rejected")
		return nil, err
	}
	weights, err := cfg.normalizedWeights()
	if err != nil {
		return nil, err
	}

	fft, err := dsp.NewFFT(cfg.FrameSize)
	if err != nil {
		return nil, newConfigError("vad", "FrameSize", err.Error())
	}

	v := &VAD{
		cfg:        cfg,
		energy:     newEnergyDetector(cfg.Energy, cfg.FrameSize, cfg.SampleRate, cfg.ConfidenceSaturation),
		zcr:        newZCRDetector(cfg.ZCR, cfg.ConfidenceSaturation),
		entropy:    newEntropyDetector(cfg.Entropy, cfg.ConfidenceSaturation),
		fusion:     newConsensusFusion(weights, cfg.ConsensusThreshold),
		stabilizer: newTemporalStabilizer(cfg.SmoothingWindow, cfg.HangoverFrames, cfg.HysteresisMargin),
		fft:        fft,
		window:     dsp.HannWindow(cfg.FrameSize),
		windowed:   make([]float64, cfg.FrameSize),
		spectrum:   make([]float64, fft.Bins()),
		phase:      make([]float64, fft.Bins()),
	}

	logrus.WithFields(logrus.Fields{
		"function":            "NewVAD",
		"frame_size":          cfg.FrameSize,
		"sample_rate":         cfg.SampleRate,
		"weights":             weights,
		"consensus_threshold": cfg.ConsensusThreshold,
		"smoothing_window":    cfg.SmoothingWindow,
		"hangover_frames":     cfg.HangoverFrames,
	}).Info("Created voice activity detector")

	return v, nil
}

// ProcessFrame scores one frame and returns the stabilized decision.
//
// A frame whose length differs from the configured frame size is rejected
// with a FrameShapeError before any detector or stabilizer state advances.
// A degenerate all-zero frame is valid and yields a silence
// decision, never an error.
func (v *VAD) ProcessFrame(frame *AudioFrame) (*Decision, error) {
	if len(frame.Samples) != v.cfg.FrameSize {
		logrus.WithFields(logrus.Fields{
			"function":   "VAD.ProcessFrame",
			"got_length": len(frame.Samples),
			"frame_size": v.cfg.FrameSize,
		}).Error("Frame rejected before processing")
		return nil, &FrameShapeError{Got: len(frame.Samples), Want: v.cfg.FrameSize}
	}

	dsp.ApplyWindow(v.windowed, frame.Samples, v.window)
	if err := v.fft.Forward(v.windowed, v.spectrum, v.phase); err != nil {
		return nil, err
	}

	energy := v.energy.Detect(frame, v.spectrum)
	zcr := v.zcr.Detect(frame, v.spectrum)
	entropy := v.entropy.Detect(frame, v.spectrum)

	consensus := v.fusion.Fuse(energy, zcr, entropy)
	active, smoothing := v.stabilizer.Push(consensus.RawDecision, frame.Timestamp)

	logrus.WithFields(logrus.Fields{
		"function":        "VAD.ProcessFrame",
		"is_voice_active": active,
		"weighted_score":  consensus.WeightedScore,
		"agreement":       consensus.AgreementCount,
		"state":           smoothing.State.String(),
	}).Trace("Scored frame")

	return &Decision{
		IsVoiceActive: active,
		Confidence:    consensus.WeightedScore,
		Timestamp:     frame.Timestamp,
		PerAlgorithm:  consensus.Results,
		Consensus: ConsensusInfo{
			Score:          consensus.WeightedScore,
			Threshold:      v.cfg.ConsensusThreshold,
			AgreementCount: consensus.AgreementCount,
		},
		Smoothing: smoothing,
	}, nil
}

// Reset clears all adaptation and smoothing state, keeping the
// configuration.
func (v *VAD) Reset() {
	v.energy.Reset()
	v.zcr.Reset()
	v.entropy.Reset()
	v.stabilizer.Reset()

	logrus.WithFields(logrus.Fields{
		"function": "VAD.Reset",
	}).Debug("VAD state cleared")
}

package voiceproc

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voiceproc/dsp"
)

// noiseLevelFloorDb bounds the extrapolated residual-noise estimate.
const noiseLevelFloorDb = -100.0

// QualityMetrics summarizes one processed frame for downstream telemetry.
type QualityMetrics struct {
	// SignalLevelDb is the output level derived from the mean absolute
	// sample amplitude.
	SignalLevelDb float64
	// NoiseLevelDb is the estimated residual noise level, extrapolated
	// from the input-to-output level delta: the more the chain attenuated,
	// the lower the estimate. With no attenuation it degrades to the
	// signal level. Floored at -100 dB.
	NoiseLevelDb float64
	// DCOffset is the smoothed DC offset measured by the high-pass module,
	// 0 when that module is disabled.
	DCOffset float64
}

// PreprocessingResult is the orchestrator's per-frame output.
type PreprocessingResult struct {
	// Audio is the enhanced frame, the same AudioFrame the caller passed
	// in with its samples processed in place.
	Audio *AudioFrame
	// ModulesApplied lists the modules that ran, in execution order.
	ModulesApplied []string
	Quality        QualityMetrics
	// ProcessingTimeMs is the wall-clock cost of this call.
	ProcessingTimeMs float64
	// Timestamp is the source frame's capture timestamp.
	Timestamp time.Time
}

// Preprocessor orchestrates the enhancement chain: it applies the enabled
// modules in the configured order, records which ran, and derives quality
// metrics for each frame.
//
// One instance serves one audio stream. Reconfigure validates the whole
// new configuration before anything is swapped, so a rejected
// reconfiguration leaves the previous one fully in effect; Reset clears
// all module state while keeping the configuration.
type Preprocessor struct {
	cfg PreprocessorConfig

	highpass *HighPassFilter
	agc      *AutoGainControl
	denoise  *NoiseReducer

	// order holds the enabled module names in execution order, resolved
	// once per (re)configuration.
	order   []string
	applied []string
}

// NewPreprocessor creates the orchestrator from its configuration.
//
// Parameters:
//   - cfg: orchestrator configuration (DefaultPreprocessorConfig for the
//     full default chain)
//
// Returns:
//   - *Preprocessor: ready-to-use instance
//   - error: ConfigError if the configuration or any enabled module's
//     sub-configuration is invalid
func NewPreprocessor(cfg PreprocessorConfig) (*Preprocessor, error) {
	p := &Preprocessor{}
	if err := p.apply(cfg); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewPreprocessor",
			"error":    err.Error(),
		}).Error("Preprocessor configuration rejected")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewPreprocessor",
		"frame_size":  p.cfg.FrameSize,
		"sample_rate": p.cfg.SampleRate,
		"order":       p.order,
	}).Info("Created preprocessing orchestrator")

	return p, nil
}

// apply validates cfg, builds the module set, and installs both. Nothing
// is mutated until every construction has succeeded.
func (p *Preprocessor) apply(cfg PreprocessorConfig) error {
	cfg = cfg.withInherited()
	if err := cfg.validate(); err != nil {
		return err
	}

	var (
		highpass *HighPassFilter
		agc      *AutoGainControl
		denoise  *NoiseReducer
		err      error
	)
	if cfg.EnableHighPass {
		if highpass, err = NewHighPassFilter(cfg.HighPass); err != nil {
			return err
		}
	}
	if cfg.EnableAGC {
		if agc, err = NewAutoGainControl(cfg.AGC); err != nil {
			return err
		}
	}
	if cfg.EnableNoiseReduction {
		if denoise, err = NewNoiseReducer(cfg.NoiseReduction); err != nil {
			return err
		}
	}

	order := make([]string, 0, len(cfg.ProcessingOrder))
	for _, name := range cfg.ProcessingOrder {
		switch name {
		case ModuleHighPass:
			if cfg.EnableHighPass {
				order = append(order, name)
			}
		case ModuleAGC:
			if cfg.EnableAGC {
				order = append(order, name)
			}
		case ModuleDenoise:
			if cfg.EnableNoiseReduction {
				order = append(order, name)
			}
		}
	}

	p.cfg = cfg
	p.highpass = highpass
	p.agc = agc
	p.denoise = denoise
	p.order = order
	p.applied = make([]string, 0, len(order))
	return nil
}

// Process enhances one frame in place and returns the per-frame result.
//
// The quiet flag forces noise-profile adaptation in the denoise module;
// callers combine their own quiet hint with the VAD's silence decision
// before passing it here. A frame whose length differs from the configured
// frame size is rejected with a FrameShapeError before any module state
// advances, and a subsequent valid frame behaves as if the bad one never
// arrived.
func (p *Preprocessor) Process(frame *AudioFrame, quiet bool) (*PreprocessingResult, error) {
	if len(frame.Samples) != p.cfg.FrameSize {
		logrus.WithFields(logrus.Fields{
			"function":   "Preprocessor.Process",
			"got_length": len(frame.Samples),
			"frame_size": p.cfg.FrameSize,
		}).Error("Frame rejected before processing")
		return nil, &FrameShapeError{Got: len(frame.Samples), Want: p.cfg.FrameSize}
	}

	start := time.Now()
	inputLevel := dsp.LinearToDb(dsp.MeanAbs(frame.Samples))
	p.applied = p.applied[:0]

	for _, name := range p.order {
		switch name {
		case ModuleHighPass:
			p.highpass.Process(frame.Samples)
		case ModuleAGC:
			p.agc.Process(frame.Samples)
		case ModuleDenoise:
			if err := p.denoise.Process(frame.Samples, quiet); err != nil {
				return nil, err
			}
		}
		p.applied = append(p.applied, name)
	}

	quality := p.measureQuality(frame.Samples, inputLevel)
	elapsed := time.Since(start)

	logrus.WithFields(logrus.Fields{
		"function":        "Preprocessor.Process",
		"modules_applied": p.applied,
		"signal_level_db": quality.SignalLevelDb,
		"elapsed":         elapsed,
	}).Trace("Processed frame")

	applied := make([]string, len(p.applied))
	copy(applied, p.applied)

	return &PreprocessingResult{
		Audio:            frame,
		ModulesApplied:   applied,
		Quality:          quality,
		ProcessingTimeMs: float64(elapsed) / float64(time.Millisecond),
		Timestamp:        frame.Timestamp,
	}, nil
}

// measureQuality derives the per-frame quality metrics from the enhanced
// samples and the pre-enhancement input level.
func (p *Preprocessor) measureQuality(samples []float64, inputLevelDb float64) QualityMetrics {
	outputLevel := dsp.LinearToDb(dsp.MeanAbs(samples))

	// The attenuation the chain achieved is projected below the output
	// level to estimate what noise remains.
	noiseLevel := outputLevel - (inputLevelDb - outputLevel)
	if noiseLevel < noiseLevelFloorDb {
		noiseLevel = noiseLevelFloorDb
	}

	var dcOffset float64
	if p.highpass != nil {
		dcOffset = p.highpass.GetDCOffset()
	}

	return QualityMetrics{
		SignalLevelDb: outputLevel,
		NoiseLevelDb:  noiseLevel,
		DCOffset:      dcOffset,
	}
}

// Reconfigure atomically replaces the configuration and rebuilds the
// module set. On failure the previous configuration and all module state
// remain fully in effect; on success adaptive state (noise profile, AGC
// envelope, filter history) restarts from scratch.
func (p *Preprocessor) Reconfigure(cfg PreprocessorConfig) error {
	if err := p.apply(cfg); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Preprocessor.Reconfigure",
			"error":    err.Error(),
		}).Warn("Reconfiguration rejected, previous configuration kept")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function": "Preprocessor.Reconfigure",
		"order":    p.order,
	}).Info("Preprocessor reconfigured")

	return nil
}

// GetConfig returns a copy of the active configuration.
func (p *Preprocessor) GetConfig() PreprocessorConfig { return p.cfg }

// ModulesEnabled returns the enabled module names in execution order.
func (p *Preprocessor) ModulesEnabled() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// AGC returns the gain-control module, nil when disabled.
func (p *Preprocessor) AGC() *AutoGainControl { return p.agc }

// NoiseReducer returns the denoise module, nil when disabled.
func (p *Preprocessor) NoiseReducer() *NoiseReducer { return p.denoise }

// HighPass returns the filter module, nil when disabled.
func (p *Preprocessor) HighPass() *HighPassFilter { return p.highpass }

// Reset clears every module's transient state, preserving the
// configuration.
func (p *Preprocessor) Reset() {
	if p.highpass != nil {
		p.highpass.Reset()
	}
	if p.agc != nil {
		p.agc.Reset()
	}
	if p.denoise != nil {
		p.denoise.Reset()
	}

	logrus.WithFields(logrus.Fields{
		"function": "Preprocessor.Reset",
	}).Debug("Preprocessor state cleared")
}

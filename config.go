package voiceproc

import "time"

// Enhancement module names as they appear in processing orders and in
// PreprocessingResult.ModulesApplied.
const (
	ModuleHighPass = "highpass"
	ModuleAGC      = "agc"
	ModuleDenoise  = "denoise"
)

// Frame-size bounds accepted by the spectral stages. The lower bound keeps
// spectral estimates meaningful; the upper bound keeps per-frame latency
// compatible with real-time capture.
const (
	MinFrameSize = 64
	MaxFrameSize = 8192
)

// AGCConfig configures the look-ahead automatic gain control.
//
// TargetLevel, MinGain, and MaxGain are decibel values; MinGain and MaxGain
// bound the applied gain, so the linear gain always stays within
// [10^(MinGain/20), 10^(MaxGain/20)]. TargetLevel is defined against the RMS
// level of the output signal.
type AGCConfig struct {
	// TargetLevel is the output level the AGC drives toward, in dB RMS.
	TargetLevel float64
	// MinGain and MaxGain bound the applied gain in dB.
	MinGain float64
	MaxGain float64
	// AttackTime and ReleaseTime are envelope time constants in seconds;
	// the follower coefficients are exp(-1/(time*sampleRate)).
	AttackTime  float64
	ReleaseTime float64
	// SampleRate in Hz. Zero inherits the orchestrator's rate when the AGC
	// is constructed through a Preprocessor.
	SampleRate int
	// LookAheadTime sizes the delay line in seconds; the gain computed from
	// the current sample is applied to a sample this far in the past.
	// Zero disables the look-ahead delay.
	LookAheadTime float64
	// GainSmoothing is the per-sample step by which the applied gain moves
	// toward its target, a low-pass on the gain itself that prevents
	// audible pumping. It is deliberately independent of AttackTime and
	// ReleaseTime; tune it per deployment rather than assuming a
	// sample-rate-specific constant. Must be in (0, 1].
	GainSmoothing float64
}

// DefaultAGCConfig returns the documented AGC defaults.
func DefaultAGCConfig() AGCConfig {
	return AGCConfig{
		TargetLevel:   -18.0,
		MinGain:       -30.0,
		MaxGain:       30.0,
		AttackTime:    0.005,
		ReleaseTime:   0.1,
		SampleRate:    44100,
		LookAheadTime: 0.005,
		GainSmoothing: 0.01,
	}
}

func (c AGCConfig) validate() error {
	if c.SampleRate <= 0 {
		return newConfigError("agc", "SampleRate", "must be positive")
	}
	if c.AttackTime <= 0 {
		return newConfigError("agc", "AttackTime", "must be positive")
	}
	if c.ReleaseTime <= 0 {
		return newConfigError("agc", "ReleaseTime", "must be positive")
	}
	if c.MinGain > c.MaxGain {
		return newConfigError("agc", "MinGain", "must not exceed MaxGain")
	}
	if c.LookAheadTime < 0 {
		return newConfigError("agc", "LookAheadTime", "must not be negative")
	}
	if c.GainSmoothing <= 0 || c.GainSmoothing > 1 {
		return newConfigError("agc", "GainSmoothing", "must be in (0, 1]")
	}
	return nil
}

// NoiseReductionConfig configures the adaptive spectral subtractor.
//
// Unlike AGCConfig, MinGain and MaxGain here are linear per-bin gain bounds
// applied to the magnitude spectrum.
type NoiseReductionConfig struct {
	// Alpha is the over-subtraction factor: alpha*profile is removed from
	// each bin's magnitude.
	Alpha float64
	// Beta is the spectral floor: a bin never drops below beta times its
	// observed magnitude.
	Beta float64
	// FrameSize is the analysis frame length in samples.
	FrameSize int
	// HopSize is the host's frame advance in samples; the overlap-add tail
	// carries FrameSize-HopSize samples between calls. Zero defaults to
	// FrameSize/2. Hosts that deliver disjoint frames set HopSize equal to
	// FrameSize.
	HopSize int
	// LearningRate is the EMA retention for noise-profile updates:
	// profile = LearningRate*profile + (1-LearningRate)*magnitude.
	LearningRate float64
	// MinGain and MaxGain bound the linear per-bin gain.
	MinGain float64
	MaxGain float64
	// AdaptationFrames is how many initial frames feed the noise profile
	// unconditionally, before adaptation becomes quiet-gated.
	AdaptationFrames int
}

// DefaultNoiseReductionConfig returns the documented noise-reduction
// defaults.
func DefaultNoiseReductionConfig() NoiseReductionConfig {
	return NoiseReductionConfig{
		Alpha:            2.0,
		Beta:             0.01,
		FrameSize:        1024,
		HopSize:          512,
		LearningRate:     0.95,
		MinGain:          0.1,
		MaxGain:          2.0,
		AdaptationFrames: 20,
	}
}

func (c NoiseReductionConfig) validate() error {
	if c.FrameSize < MinFrameSize || c.FrameSize > MaxFrameSize {
		return newConfigError("denoise", "FrameSize", "must be between 64 and 8192")
	}
	if c.HopSize < 0 || c.HopSize > c.FrameSize {
		return newConfigError("denoise", "HopSize", "must be between 1 and FrameSize")
	}
	if c.Alpha < 0 {
		return newConfigError("denoise", "Alpha", "must not be negative")
	}
	if c.Beta < 0 || c.Beta > 1 {
		return newConfigError("denoise", "Beta", "must be in [0, 1]")
	}
	if c.LearningRate < 0 || c.LearningRate >= 1 {
		return newConfigError("denoise", "LearningRate", "must be in [0, 1)")
	}
	if c.MinGain <= 0 {
		return newConfigError("denoise", "MinGain", "must be positive")
	}
	if c.MinGain > c.MaxGain {
		return newConfigError("denoise", "MinGain", "must not exceed MaxGain")
	}
	if c.AdaptationFrames < 0 {
		return newConfigError("denoise", "AdaptationFrames", "must not be negative")
	}
	return nil
}

// HighPassConfig configures the DC/rumble removal filter.
type HighPassConfig struct {
	// CutoffFrequency is the -3 dB corner in Hz.
	CutoffFrequency float64
	// SampleRate in Hz. Zero inherits the orchestrator's rate.
	SampleRate int
	// Order is the filter order: 2 (one biquad section) or 4 (a cascaded
	// Butterworth pair).
	Order int
}

// DefaultHighPassConfig returns an 80 Hz second-order filter, enough to
// remove DC offset and handling rumble without touching voiced speech.
func DefaultHighPassConfig() HighPassConfig {
	return HighPassConfig{
		CutoffFrequency: 80.0,
		SampleRate:      44100,
		Order:           2,
	}
}

func (c HighPassConfig) validate() error {
	if c.SampleRate <= 0 {
		return newConfigError("highpass", "SampleRate", "must be positive")
	}
	if c.CutoffFrequency <= 0 || c.CutoffFrequency >= float64(c.SampleRate)/2 {
		return newConfigError("highpass", "CutoffFrequency", "must be between 0 and the Nyquist frequency")
	}
	if c.Order != 2 && c.Order != 4 {
		return newConfigError("highpass", "Order", "must be 2 or 4")
	}
	return nil
}

// EnergyDetectorConfig tunes the adaptive energy detector.
type EnergyDetectorConfig struct {
	// ThresholdFloor is the static lower bound on the dynamic threshold,
	// in normalized amplitude.
	ThresholdFloor float64
	// BackgroundRate is the EMA retention for the background level,
	// updated only while the detector's own state machine reports silence.
	BackgroundRate float64
	// RecentFrames sizes the recent-average window feeding the dynamic
	// threshold.
	RecentFrames int
	// MinSpeechDuration and MinSilenceDuration are the cumulative
	// consecutive-frame durations required to flip the detector's state
	// machine toward speech and toward silence respectively.
	MinSpeechDuration  time.Duration
	MinSilenceDuration time.Duration
}

// ZCRDetectorConfig tunes the zero-crossing-rate detector.
type ZCRDetectorConfig struct {
	// Threshold is the static crossings/(N-1) rate above which the frame
	// counts as active.
	Threshold float64
}

// EntropyDetectorConfig tunes the spectral-entropy detector.
type EntropyDetectorConfig struct {
	// Threshold is the static normalized-entropy value above which the
	// frame counts as active.
	Threshold float64
}

// VADConfig configures the full voice-activity stack: the three detectors,
// consensus fusion, and temporal stabilization.
type VADConfig struct {
	// FrameSize and SampleRate describe the frames the engine will see;
	// the engine owns a spectral transform sized to FrameSize.
	FrameSize  int
	SampleRate int

	// Detector weights for consensus fusion. They should sum to 1; sums
	// within ±10% are normalized automatically, anything further off is
	// rejected at construction.
	EnergyWeight  float64
	ZCRWeight     float64
	EntropyWeight float64

	// ConsensusThreshold is the weighted-score cut for the raw
	// speech/silence decision, in [0, 1].
	ConsensusThreshold float64

	// SmoothingWindow is the length of the majority-vote window in frames.
	SmoothingWindow int
	// HangoverFrames is how many majority-silence votes must pass after
	// the last majority-speech vote before the published decision may
	// drop to silence.
	HangoverFrames int
	// HysteresisMargin widens the majority boundary for state flips: the
	// stabilized state moves to speech only above 0.5+margin speech
	// fraction and back below 0.5-margin. Must be in [0, 0.5).
	HysteresisMargin float64

	// ConfidenceSaturation is the metric/threshold ratio at which a
	// detector's confidence saturates at 1.0. The default of 2 maps
	// "metric exactly at threshold" to 0.5 confidence; steeper values
	// make consensus more decisive and are a deliberate tuning surface.
	ConfidenceSaturation float64

	Energy  EnergyDetectorConfig
	ZCR     ZCRDetectorConfig
	Entropy EntropyDetectorConfig
}

// DefaultVADConfig returns the documented VAD defaults for the given frame
// geometry.
func DefaultVADConfig(frameSize, sampleRate int) VADConfig {
	return VADConfig{
		FrameSize:            frameSize,
		SampleRate:           sampleRate,
		EnergyWeight:         0.5,
		ZCRWeight:            0.2,
		EntropyWeight:        0.3,
		ConsensusThreshold:   0.5,
		SmoothingWindow:      5,
		HangoverFrames:       8,
		HysteresisMargin:     0.1,
		ConfidenceSaturation: 2.0,
		Energy: EnergyDetectorConfig{
			ThresholdFloor:     0.01,
			BackgroundRate:     0.95,
			RecentFrames:       50,
			MinSpeechDuration:  50 * time.Millisecond,
			MinSilenceDuration: 200 * time.Millisecond,
		},
		ZCR:     ZCRDetectorConfig{Threshold: 0.15},
		Entropy: EntropyDetectorConfig{Threshold: 0.6},
	}
}

// normalizedWeights returns the fusion weights scaled to sum to exactly 1,
// or a ConfigError when the raw sum is off by more than the 10% tolerance.
func (c VADConfig) normalizedWeights() ([3]float64, error) {
	sum := c.EnergyWeight + c.ZCRWeight + c.EntropyWeight
	if c.EnergyWeight < 0 || c.ZCRWeight < 0 || c.EntropyWeight < 0 {
		return [3]float64{}, newConfigError("vad", "weights", "must not be negative")
	}
	if sum < 0.9 || sum > 1.1 {
		return [3]float64{}, newConfigError("vad", "weights", "must sum to 1 within a 10% tolerance")
	}
	return [3]float64{c.EnergyWeight / sum, c.ZCRWeight / sum, c.EntropyWeight / sum}, nil
}

func (c VADConfig) validate() error {
	if c.FrameSize < MinFrameSize || c.FrameSize > MaxFrameSize {
		return newConfigError("vad", "FrameSize", "must be between 64 and 8192")
	}
	if c.SampleRate <= 0 {
		return newConfigError("vad", "SampleRate", "must be positive")
	}
	if _, err := c.normalizedWeights(); err != nil {
		return err
	}
	if c.ConsensusThreshold < 0 || c.ConsensusThreshold > 1 {
		return newConfigError("vad", "ConsensusThreshold", "must be in [0, 1]")
	}
	if c.SmoothingWindow < 1 {
		return newConfigError("vad", "SmoothingWindow", "must be at least 1")
	}
	if c.HangoverFrames < 0 {
		return newConfigError("vad", "HangoverFrames", "must not be negative")
	}
	if c.HysteresisMargin < 0 || c.HysteresisMargin >= 0.5 {
		return newConfigError("vad", "HysteresisMargin", "must be in [0, 0.5)")
	}
	if c.ConfidenceSaturation < 1 {
		return newConfigError("vad", "ConfidenceSaturation", "must be at least 1")
	}
	if c.Energy.ThresholdFloor <= 0 {
		return newConfigError("vad", "Energy.ThresholdFloor", "must be positive")
	}
	if c.Energy.BackgroundRate < 0 || c.Energy.BackgroundRate >= 1 {
		return newConfigError("vad", "Energy.BackgroundRate", "must be in [0, 1)")
	}
	if c.Energy.RecentFrames < 1 {
		return newConfigError("vad", "Energy.RecentFrames", "must be at least 1")
	}
	if c.Energy.MinSpeechDuration < 0 || c.Energy.MinSilenceDuration < 0 {
		return newConfigError("vad", "Energy durations", "must not be negative")
	}
	if c.ZCR.Threshold <= 0 || c.ZCR.Threshold > 1 {
		return newConfigError("vad", "ZCR.Threshold", "must be in (0, 1]")
	}
	if c.Entropy.Threshold <= 0 || c.Entropy.Threshold > 1 {
		return newConfigError("vad", "Entropy.Threshold", "must be in (0, 1]")
	}
	return nil
}

// PreprocessorConfig configures the enhancement orchestrator.
type PreprocessorConfig struct {
	// FrameSize and SampleRate describe the frames the orchestrator
	// accepts. Module sub-configurations with zero FrameSize/SampleRate
	// inherit these; explicitly conflicting values are rejected.
	FrameSize  int
	SampleRate int

	// ProcessingOrder lists enabled modules in execution order; entries
	// must be drawn from highpass, agc, denoise without duplicates.
	// Entries whose enable flag is off are skipped.
	ProcessingOrder []string

	EnableHighPass       bool
	EnableAGC            bool
	EnableNoiseReduction bool

	HighPass       HighPassConfig
	AGC            AGCConfig
	NoiseReduction NoiseReductionConfig
}

// DefaultPreprocessorConfig returns a full enhancement chain (high-pass,
// then AGC, then noise reduction) at the given frame geometry.
func DefaultPreprocessorConfig(frameSize, sampleRate int) PreprocessorConfig {
	cfg := PreprocessorConfig{
		FrameSize:            frameSize,
		SampleRate:           sampleRate,
		ProcessingOrder:      []string{ModuleHighPass, ModuleAGC, ModuleDenoise},
		EnableHighPass:       true,
		EnableAGC:            true,
		EnableNoiseReduction: true,
		HighPass:             DefaultHighPassConfig(),
		AGC:                  DefaultAGCConfig(),
		NoiseReduction:       DefaultNoiseReductionConfig(),
	}
	cfg.HighPass.SampleRate = sampleRate
	cfg.AGC.SampleRate = sampleRate
	cfg.NoiseReduction.FrameSize = frameSize
	cfg.NoiseReduction.HopSize = frameSize / 2
	return cfg
}

// withInherited returns a copy with zero-valued module frame geometry
// filled in from the orchestrator's own.
func (c PreprocessorConfig) withInherited() PreprocessorConfig {
	if c.HighPass.SampleRate == 0 {
		c.HighPass.SampleRate = c.SampleRate
	}
	if c.AGC.SampleRate == 0 {
		c.AGC.SampleRate = c.SampleRate
	}
	if c.NoiseReduction.FrameSize == 0 {
		c.NoiseReduction.FrameSize = c.FrameSize
	}
	if c.NoiseReduction.HopSize == 0 {
		c.NoiseReduction.HopSize = c.NoiseReduction.FrameSize / 2
	}
	return c
}

func (c PreprocessorConfig) validate() error {
	if c.FrameSize < MinFrameSize || c.FrameSize > MaxFrameSize {
		return newConfigError("preprocessor", "FrameSize", "must be between 64 and 8192")
	}
	if c.SampleRate <= 0 {
		return newConfigError("preprocessor", "SampleRate", "must be positive")
	}
	seen := make(map[string]bool, len(c.ProcessingOrder))
	for _, name := range c.ProcessingOrder {
		switch name {
		case ModuleHighPass, ModuleAGC, ModuleDenoise:
		default:
			return newConfigError("preprocessor", "ProcessingOrder", "contains unknown module "+name)
		}
		if seen[name] {
			return newConfigError("preprocessor", "ProcessingOrder", "contains duplicate module "+name)
		}
		seen[name] = true
	}
	if c.EnableHighPass {
		if c.HighPass.SampleRate != c.SampleRate {
			return newConfigError("preprocessor", "HighPass.SampleRate", "conflicts with the orchestrator sample rate")
		}
		if err := c.HighPass.validate(); err != nil {
			return err
		}
	}
	if c.EnableAGC {
		if c.AGC.SampleRate != c.SampleRate {
			return newConfigError("preprocessor", "AGC.SampleRate", "conflicts with the orchestrator sample rate")
		}
		if err := c.AGC.validate(); err != nil {
			return err
		}
	}
	if c.EnableNoiseReduction {
		if c.NoiseReduction.FrameSize != c.FrameSize {
			return newConfigError("preprocessor", "NoiseReduction.FrameSize", "conflicts with the orchestrator frame size")
		}
		if err := c.NoiseReduction.validate(); err != nil {
			return err
		}
	}
	return nil
}

// SessionConfig configures one per-stream Session: the enhancement chain,
// the VAD stack, and how they connect.
type SessionConfig struct {
	Preprocessor PreprocessorConfig

	// EnableVAD turns the speech-presence stack on. When off, ProcessFrame
	// returns a nil Decision.
	EnableVAD bool
	VAD       VADConfig

	// VADOnEnhanced feeds the VAD the enhanced frame when true, the raw
	// input frame when false.
	VADOnEnhanced bool
}

// DefaultSessionConfig returns a complete session configuration at the
// given frame geometry: the full enhancement chain plus the VAD stack
// running on enhanced audio.
func DefaultSessionConfig(frameSize, sampleRate int) SessionConfig {
	return SessionConfig{
		Preprocessor:  DefaultPreprocessorConfig(frameSize, sampleRate),
		EnableVAD:     true,
		VAD:           DefaultVADConfig(frameSize, sampleRate),
		VADOnEnhanced: true,
	}
}

func (c SessionConfig) validate() error {
	cfg := c.Preprocessor.withInherited()
	if err := cfg.validate(); err != nil {
		return err
	}
	if c.EnableVAD {
		if c.VAD.FrameSize != cfg.FrameSize {
			return newConfigError("session", "VAD.FrameSize", "conflicts with the preprocessor frame size")
		}
		if err := c.VAD.validate(); err != nil {
			return err
		}
	}
	return nil
}

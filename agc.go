package voiceproc

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voiceproc/dsp"
)

// agcSilenceFloor is the envelope level below which the AGC freezes its
// gain instead of chasing MaxGain; roughly -80 dB.
const agcSilenceFloor = 1e-4

// invSqrt2 converts a sine peak estimate to its RMS equivalent.
const invSqrt2 = 0.7071067811865476

// AGCStats accumulates observability counters across the life of one
// AutoGainControl instance.
type AGCStats struct {
	FramesProcessed  uint64
	SamplesProcessed uint64
	// PeakLevel is the largest absolute input sample seen.
	PeakLevel float64
	// AverageLevel is the running mean of per-frame input RMS.
	AverageLevel float64
	// AverageGain is the running mean of per-frame applied gain (linear).
	AverageGain float64
	// LargeGainFrames counts frames whose mean applied gain deviated from
	// unity by more than 1 dB in either direction.
	LargeGainFrames uint64
}

// AutoGainControl normalizes loudness toward a target RMS level using an
// envelope follower and a look-ahead delay line.
//
// Per sample: the input is written into a circular buffer and the sample
// one buffer length behind is read back as the output source, so a gain
// decision made from the current sample applies to a sample emitted
// LookAheadTime later. The envelope tracks |input| with asymmetric
// attack/release smoothing; the needed gain is the dB distance from the
// envelope (crest-compensated to RMS) to TargetLevel, clamped to
// [MinGain, MaxGain], and the applied gain moves toward it by the
// GainSmoothing step each sample. Near-silent input freezes the gain
// rather than ramping it to the maximum.
//
// The applied linear gain is invariantly within
// [10^(MinGain/20), 10^(MaxGain/20)] after every sample.
type AutoGainControl struct {
	cfg AGCConfig

	attackCoeff  float64
	releaseCoeff float64
	minGainLin   float64
	maxGainLin   float64

	envelope    float64
	currentGain float64

	lookAhead  []float64
	writeIndex int

	stats AGCStats
}

// NewAutoGainControl creates an AGC from its configuration.
//
// Parameters:
//   - cfg: AGC configuration (DefaultAGCConfig for the defaults)
//
// Returns:
//   - *AutoGainControl: ready-to-use instance at unity gain
//   - error: ConfigError if the configuration is invalid
func NewAutoGainControl(cfg AGCConfig) (*AutoGainControl, error) {
	if err := cfg.validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewAutoGainControl",
			"error":    err.Error(),
		}).Error("AGC configuration rejected")
		return nil, err
	}

	a := &AutoGainControl{
		cfg:          cfg,
		attackCoeff:  math.Exp(-1.0 / (cfg.AttackTime * float64(cfg.SampleRate))),
		releaseCoeff: math.Exp(-1.0 / (cfg.ReleaseTime * float64(cfg.SampleRate))),
		minGainLin:   dsp.DbToLinear(cfg.MinGain),
		maxGainLin:   dsp.DbToLinear(cfg.MaxGain),
	}
	a.currentGain = dsp.Clamp(1.0, a.minGainLin, a.maxGainLin)

	lookAheadSamples := int(cfg.LookAheadTime * float64(cfg.SampleRate))
	if lookAheadSamples > 0 {
		a.lookAhead = make([]float64, lookAheadSamples)
	}

	logrus.WithFields(logrus.Fields{
		"function":           "NewAutoGainControl",
		"target_level_db":    cfg.TargetLevel,
		"gain_range_db":      []float64{cfg.MinGain, cfg.MaxGain},
		"attack_coeff":       a.attackCoeff,
		"release_coeff":      a.releaseCoeff,
		"look_ahead_samples": lookAheadSamples,
		"gain_smoothing":     cfg.GainSmoothing,
	}).Info("Created automatic gain control")

	return a, nil
}

// Process applies gain control to samples in place. Any frame length is
// accepted; the AGC operates per sample and has no frame-size contract.
func (a *AutoGainControl) Process(samples []float64) {
	if len(samples) == 0 {
		return
	}

	inputRMS := dsp.RMS(samples)
	var gainSum, framePeak float64

	for i, x := range samples {
		delayed := x
		if len(a.lookAhead) > 0 {
			delayed = a.lookAhead[a.writeIndex]
			a.lookAhead[a.writeIndex] = x
			a.writeIndex = (a.writeIndex + 1) % len(a.lookAhead)
		}

		mag := math.Abs(x)
		if mag > framePeak {
			framePeak = mag
		}

		coeff := a.releaseCoeff
		if mag > a.envelope {
			coeff = a.attackCoeff
		}
		a.envelope = coeff*a.envelope + (1.0-coeff)*mag

		if a.envelope > agcSilenceFloor {
			envelopeDb := dsp.LinearToDb(a.envelope * invSqrt2)
			gainDb := dsp.Clamp(a.cfg.TargetLevel-envelopeDb, a.cfg.MinGain, a.cfg.MaxGain)
			target := dsp.DbToLinear(gainDb)
			a.currentGain += a.cfg.GainSmoothing * (target - a.currentGain)
			a.currentGain = dsp.Clamp(a.currentGain, a.minGainLin, a.maxGainLin)
		}

		samples[i] = delayed * a.currentGain
		gainSum += a.currentGain
	}

	a.updateStats(inputRMS, framePeak, gainSum/float64(len(samples)), len(samples))

	logrus.WithFields(logrus.Fields{
		"function":     "AutoGainControl.Process",
		"samples":      len(samples),
		"input_rms":    inputRMS,
		"current_gain": a.currentGain,
		"envelope":     a.envelope,
	}).Trace("Applied gain control")
}

// updateStats folds one frame's measurements into the running statistics.
func (a *AutoGainControl) updateStats(inputRMS, framePeak, meanGain float64, samples int) {
	a.stats.FramesProcessed++
	a.stats.SamplesProcessed += uint64(samples)
	if framePeak > a.stats.PeakLevel {
		a.stats.PeakLevel = framePeak
	}
	n := float64(a.stats.FramesProcessed)
	a.stats.AverageLevel += (inputRMS - a.stats.AverageLevel) / n
	a.stats.AverageGain += (meanGain - a.stats.AverageGain) / n
	if math.Abs(dsp.LinearToDb(meanGain)) > 1.0 {
		a.stats.LargeGainFrames++
	}
}

// GetCurrentGain returns the applied linear gain after the last sample.
func (a *AutoGainControl) GetCurrentGain() float64 { return a.currentGain }

// GetStats returns a copy of the accumulated statistics.
func (a *AutoGainControl) GetStats() AGCStats { return a.stats }

// GetName returns the module name used in processing orders.
func (a *AutoGainControl) GetName() string { return ModuleAGC }

// LookAheadSamples returns the delay-line length, which is also the
// latency the AGC adds in samples.
func (a *AutoGainControl) LookAheadSamples() int { return len(a.lookAhead) }

// Reset returns the AGC to its initial state (unity gain, empty envelope,
// cleared delay line and statistics), keeping the configuration.
func (a *AutoGainControl) Reset() {
	a.envelope = 0
	a.currentGain = dsp.Clamp(1.0, a.minGainLin, a.maxGainLin)
	for i := range a.lookAhead {
		a.lookAhead[i] = 0
	}
	a.writeIndex = 0
	a.stats = AGCStats{}

	logrus.WithFields(logrus.Fields{
		"function": "AutoGainControl.Reset",
	}).Debug("AGC state cleared")
}

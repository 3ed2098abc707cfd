package voiceproc

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voiceproc/dsp"
)

// Speech band used for the in-band spectral energy component.
const (
	speechBandLowHz  = 300.0
	speechBandHighHz = 3400.0
)

// Dynamic-threshold multipliers over the adapted background level and the
// recent-average level.
const (
	backgroundMultiplier = 3.0
	recentMultiplier     = 1.5
)

// energyDetector is the adaptive energy-based voice detector.
//
// Its metric blends full-band RMS with the RMS-equivalent energy of the
// 300-3400 Hz speech band, both in normalized amplitude. The background
// level is an EMA updated only while the detector's own state machine
// reports silence, so speech never inflates the noise estimate; the
// dynamic threshold is the largest of 3x background, 1.5x the recent
// average, and the static floor.
//
// Active is the settled state of an internal silence/speech machine with
// minimum-duration hysteresis: a flip requires consecutive frames on the
// other side of the threshold whose cumulative duration exceeds the
// configured onset (MinSpeechDuration) or offset (MinSilenceDuration)
// minimum. Short bursts and brief dips do not flip the state.
type energyDetector struct {
	cfg        EnergyDetectorConfig
	sat        float64
	frameSize  int
	sampleRate int

	// Speech-band bin range, derived once from the frame geometry.
	bandLow  int
	bandHigh int

	background float64
	seeded     bool

	recent    []float64
	recentIdx int
	recentLen int

	inSpeech bool
	// pendingSpeech is the direction of the consecutive run being
	// accumulated toward a state flip.
	pendingSpeech bool
	pendingDur    time.Duration
}

// newEnergyDetector builds the detector for the given frame geometry.
// Configuration is validated by the owning VAD before this is called.
func newEnergyDetector(cfg EnergyDetectorConfig, frameSize, sampleRate int, sat float64) *energyDetector {
	bins := frameSize/2 + 1
	hzPerBin := float64(sampleRate) / float64(frameSize)
	bandLow := int(math.Ceil(speechBandLowHz / hzPerBin))
	bandHigh := int(math.Floor(speechBandHighHz / hzPerBin))
	if bandHigh >= bins {
		bandHigh = bins - 1
	}
	if bandLow > bandHigh {
		bandLow = 0
		bandHigh = bins - 1
	}

	logrus.WithFields(logrus.Fields{
		"function":    "newEnergyDetector",
		"frame_size":  frameSize,
		"sample_rate": sampleRate,
		"band_bins":   []int{bandLow, bandHigh},
		"floor":       cfg.ThresholdFloor,
	}).Debug("Created energy detector")

	return &energyDetector{
		cfg:        cfg,
		sat:        sat,
		frameSize:  frameSize,
		sampleRate: sampleRate,
		bandLow:    bandLow,
		bandHigh:   bandHigh,
		recent:     make([]float64, cfg.RecentFrames),
	}
}

// Detect scores one frame and advances the adaptation and hysteresis state.
func (d *energyDetector) Detect(frame *AudioFrame, spectrum []float64) DetectorResult {
	metric := 0.5*dsp.RMS(frame.Samples) + 0.5*d.bandRMS(spectrum)

	if !d.seeded {
		// First frame seeds the background the way the noise profile
		// seeds from its first quiet frame.
		d.background = metric
		d.seeded = true
	}

	threshold := d.dynamicThreshold()
	above := metric > threshold

	d.advance(above, frame)
	d.pushRecent(metric)

	if !d.inSpeech {
		d.background = d.cfg.BackgroundRate*d.background + (1.0-d.cfg.BackgroundRate)*metric
	}

	return DetectorResult{
		Active:     d.inSpeech,
		Confidence: saturatedConfidence(metric, threshold, d.sat),
		Metric:     metric,
		Threshold:  threshold,
	}
}

// bandRMS returns the RMS-equivalent amplitude of the speech band. By
// Parseval the time-domain RMS equals sqrt(sum |X|^2)/N for a real signal,
// so the band energy is folded back to the same normalized-amplitude
// domain as the full-band RMS (doubled for the conjugate-symmetric half).
func (d *energyDetector) bandRMS(spectrum []float64) float64 {
	if len(spectrum) == 0 {
		return 0
	}
	var sum float64
	for k := d.bandLow; k <= d.bandHigh && k < len(spectrum); k++ {
		sum += spectrum[k] * spectrum[k]
	}
	return math.Sqrt(2.0*sum) / float64(d.frameSize)
}

// dynamicThreshold combines the adapted background, the recent average,
// and the static floor.
func (d *energyDetector) dynamicThreshold() float64 {
	threshold := d.cfg.ThresholdFloor
	if t := backgroundMultiplier * d.background; t > threshold {
		threshold = t
	}
	if d.recentLen > 0 {
		var sum float64
		for _, m := range d.recent[:d.recentLen] {
			sum += m
		}
		if t := recentMultiplier * sum / float64(d.recentLen); t > threshold {
			threshold = t
		}
	}
	return threshold
}

// advance runs the minimum-duration state machine one frame.
func (d *energyDetector) advance(above bool, frame *AudioFrame) {
	if above == d.inSpeech {
		d.pendingDur = 0
		return
	}

	if d.pendingDur == 0 || d.pendingSpeech != above {
		d.pendingSpeech = above
		d.pendingDur = 0
	}
	d.pendingDur += frame.Duration()

	minDur := d.cfg.MinSilenceDuration
	if above {
		minDur = d.cfg.MinSpeechDuration
	}
	if d.pendingDur > minDur {
		d.inSpeech = above
		d.pendingDur = 0

		logrus.WithFields(logrus.Fields{
			"function":  "energyDetector.advance",
			"in_speech": d.inSpeech,
		}).Trace("Energy detector state flipped")
	}
}

// pushRecent records the metric in the recent-average ring.
func (d *energyDetector) pushRecent(metric float64) {
	d.recent[d.recentIdx] = metric
	d.recentIdx = (d.recentIdx + 1) % len(d.recent)
	if d.recentLen < len(d.recent) {
		d.recentLen++
	}
}

// GetName returns the detector's name in per-algorithm breakdowns.
func (d *energyDetector) GetName() string { return DetectorEnergy }

// Reset clears the background estimate, recent window, and state machine,
// keeping the configuration.
func (d *energyDetector) Reset() {
	d.background = 0
	d.seeded = false
	d.recentIdx = 0
	d.recentLen = 0
	d.inSpeech = false
	d.pendingSpeech = false
	d.pendingDur = 0
}

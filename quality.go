package voiceproc

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// QualityLevel represents the overall quality assessment of processed
// audio, computed from per-frame quality metrics with simple thresholds so
// applications can make enhancement and routing decisions without
// interpreting raw decibel values.
type QualityLevel int

const (
	// QualityExcellent indicates clean, well-leveled audio.
	QualityExcellent QualityLevel = iota
	// QualityGood indicates good audio with minor residual noise.
	QualityGood
	// QualityFair indicates usable audio with noticeable impairments.
	QualityFair
	// QualityPoor indicates audio with significant noise or level problems.
	QualityPoor
	// QualityUnacceptable indicates audio unlikely to survive downstream
	// analysis.
	QualityUnacceptable
)

// String returns the string representation of QualityLevel.
func (q QualityLevel) String() string {
	switch q {
	case QualityExcellent:
		return "Excellent"
	case QualityGood:
		return "Good"
	case QualityFair:
		return "Fair"
	case QualityPoor:
		return "Poor"
	case QualityUnacceptable:
		return "Unacceptable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(q))
	}
}

// QualityThresholds defines the boundaries for quality assessment.
// Applications can customize these values; the defaults suit typical
// close-microphone voice capture.
type QualityThresholds struct {
	// Signal-to-noise thresholds in dB, derived from the frame's signal
	// and residual-noise levels.
	ExcellentSNR float64
	GoodSNR      float64
	FairSNR      float64
	PoorSNR      float64

	// MinSignalLevel is the signal level in dB below which audio is
	// considered too quiet regardless of its SNR.
	MinSignalLevel float64

	// MaxDCOffset is the absolute DC offset above which quality is capped
	// at Poor, indicating a capture-chain fault.
	MaxDCOffset float64
}

// DefaultQualityThresholds returns sensible defaults for voice capture.
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		ExcellentSNR:   25.0,
		GoodSNR:        18.0,
		FairSNR:        12.0,
		PoorSNR:        6.0,
		MinSignalLevel: -50.0,
		MaxDCOffset:    0.02,
	}
}

// Assess maps one frame's quality metrics onto a QualityLevel.
func (t QualityThresholds) Assess(m QualityMetrics) QualityLevel {
	if m.SignalLevelDb < t.MinSignalLevel {
		return QualityUnacceptable
	}

	level := QualityUnacceptable
	switch snr := m.SignalLevelDb - m.NoiseLevelDb; {
	case snr >= t.ExcellentSNR:
		level = QualityExcellent
	case snr >= t.GoodSNR:
		level = QualityGood
	case snr >= t.FairSNR:
		level = QualityFair
	case snr >= t.PoorSNR:
		level = QualityPoor
	}

	if m.DCOffset > t.MaxDCOffset || m.DCOffset < -t.MaxDCOffset {
		if level < QualityPoor {
			level = QualityPoor
		}
	}
	return level
}

// QualityCallback is invoked when the monitored quality level changes.
type QualityCallback func(old, new QualityLevel, metrics QualityMetrics)

// QualityMonitor tracks the quality level across frames and notifies a
// callback on changes. Like the rest of the pipeline it is single-threaded
// and owned by one session.
type QualityMonitor struct {
	thresholds QualityThresholds
	callback   QualityCallback

	current     QualityLevel
	assessed    bool
	lastChange  time.Time
	framesAtCur uint64
}

// NewQualityMonitor creates a monitor with the given thresholds. The
// callback may be nil; Observe then only tracks the level.
func NewQualityMonitor(thresholds QualityThresholds, callback QualityCallback) *QualityMonitor {
	return &QualityMonitor{thresholds: thresholds, callback: callback}
}

// Observe folds one frame's metrics into the monitor and fires the
// callback if the assessed level changed.
func (q *QualityMonitor) Observe(metrics QualityMetrics, timestamp time.Time) QualityLevel {
	level := q.thresholds.Assess(metrics)

	if !q.assessed {
		q.current = level
		q.assessed = true
		q.lastChange = timestamp
		q.framesAtCur = 1
		return level
	}

	if level != q.current {
		old := q.current
		q.current = level
		q.lastChange = timestamp
		q.framesAtCur = 1

		logrus.WithFields(logrus.Fields{
			"function":    "QualityMonitor.Observe",
			"old_quality": old.String(),
			"new_quality": level.String(),
			"signal_db":   metrics.SignalLevelDb,
			"noise_db":    metrics.NoiseLevelDb,
		}).Info("Audio quality level changed")

		if q.callback != nil {
			q.callback(old, level, metrics)
		}
	} else {
		q.framesAtCur++
	}
	return level
}

// Current returns the most recently assessed level and whether any frame
// has been observed yet.
func (q *QualityMonitor) Current() (QualityLevel, bool) {
	return q.current, q.assessed
}

// Reset clears the monitor's history, keeping thresholds and callback.
func (q *QualityMonitor) Reset() {
	q.current = QualityExcellent
	q.assessed = false
	q.lastChange = time.Time{}
	q.framesAtCur = 0
}

package voiceproc

// zcrDetector is the zero-crossing-rate voice detector: the fraction of
// adjacent sample pairs whose signs differ, against a static threshold.
// Unvoiced consonants push the rate up; it carries no adaptation state.
type zcrDetector struct {
	cfg ZCRDetectorConfig
	sat float64
}

func newZCRDetector(cfg ZCRDetectorConfig, sat float64) *zcrDetector {
	return &zcrDetector{cfg: cfg, sat: sat}
}

// Detect scores one frame; the spectrum is ignored.
func (d *zcrDetector) Detect(frame *AudioFrame, _ []float64) DetectorResult {
	rate := zeroCrossingRate(frame.Samples)
	return DetectorResult{
		Active:     rate > d.cfg.Threshold,
		Confidence: saturatedConfidence(rate, d.cfg.Threshold, d.sat),
		Metric:     rate,
		Threshold:  d.cfg.Threshold,
	}
}

// zeroCrossingRate returns crossings/(N-1), 0 for frames shorter than two
// samples. Exact zeros count as non-negative so a silent frame scores 0.
func zeroCrossingRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	prevNeg := samples[0] < 0
	for _, s := range samples[1:] {
		neg := s < 0
		if neg != prevNeg {
			crossings++
			prevNeg = neg
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

// GetName returns the detector's name in per-algorithm breakdowns.
func (d *zcrDetector) GetName() string { return DetectorZCR }

// Reset is a no-op; the detector is stateless.
func (d *zcrDetector) Reset() {}

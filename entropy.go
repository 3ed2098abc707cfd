package voiceproc

import "math"

// entropyDetector is the spectral-entropy voice detector: Shannon entropy
// of the normalized magnitude spectrum divided by log2(binCount), against a
// static threshold. Structured spectra (voiced speech, tones) score low;
// flat noise scores near 1. No adaptation state.
type entropyDetector struct {
	cfg EntropyDetectorConfig
	sat float64
}

func newEntropyDetector(cfg EntropyDetectorConfig, sat float64) *entropyDetector {
	return &entropyDetector{cfg: cfg, sat: sat}
}

// Detect scores one frame from its magnitude spectrum; the time-domain
// samples are ignored. Zero-energy spectra score 0.
func (d *entropyDetector) Detect(_ *AudioFrame, spectrum []float64) DetectorResult {
	entropy := normalizedEntropy(spectrum)
	return DetectorResult{
		Active:     entropy > d.cfg.Threshold,
		Confidence: saturatedConfidence(entropy, d.cfg.Threshold, d.sat),
		Metric:     entropy,
		Threshold:  d.cfg.Threshold,
	}
}

// normalizedEntropy treats the magnitude spectrum as a probability
// distribution and returns its Shannon entropy scaled to [0, 1] by the
// log2 of the bin count.
func normalizedEntropy(spectrum []float64) float64 {
	if len(spectrum) < 2 {
		return 0
	}
	var total float64
	for _, m := range spectrum {
		total += m
	}
	if total <= magnitudeFloor {
		return 0
	}

	var entropy float64
	for _, m := range spectrum {
		p := m / total
		if p > magnitudeFloor {
			entropy -= p * math.Log2(p)
		}
	}
	return entropy / math.Log2(float64(len(spectrum)))
}

// GetName returns the detector's name in per-algorithm breakdowns.
func (d *entropyDetector) GetName() string { return DetectorEntropy }

// Reset is a no-op; the detector is stateless.
func (d *entropyDetector) Reset() {}

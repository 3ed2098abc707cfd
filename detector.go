package voiceproc

// Detector names as they appear in per-algorithm VAD breakdowns.
const (
	DetectorEnergy  = "energy"
	DetectorZCR     = "zcr"
	DetectorEntropy = "entropy"
)

// DetectorResult is one detector's verdict on one frame. It is derived per
// frame and not retained; detectors persist only scalar adaptation state.
type DetectorResult struct {
	// Active is the detector's own speech/silence decision.
	Active bool
	// Confidence is clamp(Metric/Threshold, 0, sat)/sat in [0, 1], where
	// sat is the configured confidence saturation.
	Confidence float64
	// Metric is the raw per-frame measurement the decision was made from.
	Metric float64
	// Threshold is the cut the metric was compared against, dynamic for
	// the energy detector, static for the others.
	Threshold float64
}

// Detector is the capability every voice-activity algorithm implements:
// one audio frame plus its magnitude spectrum in, one result out.
//
// The fixed variant set is {energy, zcr, entropy}; adding an algorithm
// means adding an implementation and a fusion weight, nothing else.
// Implementations are single-threaded and owned by one VAD instance.
type Detector interface {
	// Detect scores one frame. The spectrum is the magnitude half-spectrum
	// of the same samples; detectors that work purely in the time domain
	// ignore it.
	Detect(frame *AudioFrame, spectrum []float64) DetectorResult

	// GetName returns the detector's name in the per-algorithm breakdown.
	GetName() string

	// Reset clears adaptation state, keeping the configuration.
	Reset()
}

// saturatedConfidence maps a metric/threshold ratio onto [0, 1] with the
// configured saturation: confidence reaches 1 when the metric is sat times
// the threshold and 1/sat at the threshold itself.
func saturatedConfidence(metric, threshold, sat float64) float64 {
	if threshold <= 0 {
		return 0
	}
	ratio := metric / threshold
	if ratio < 0 {
		ratio = 0
	} else if ratio > sat {
		ratio = sat
	}
	return ratio / sat
}

package voiceproc

import "github.com/sirupsen/logrus"

// ConsensusDecision is the fused verdict of the three detectors on one
// frame, before temporal stabilization.
type ConsensusDecision struct {
	// WeightedScore is the confidence-weighted sum in [0, 1] when every
	// confidence is in [0, 1] and the weights sum to 1.
	WeightedScore float64
	// RawDecision is WeightedScore > the consensus threshold.
	RawDecision bool
	// Results holds the per-detector verdicts keyed by detector name.
	Results map[string]DetectorResult
	// AgreementCount is how many detectors' own Active verdicts match
	// RawDecision, 0 through 3: an observability signal, not an input to
	// the decision.
	AgreementCount int
}

// consensusFusion combines the three detectors' confidences into one
// weighted score. Weights are normalized to sum to exactly 1 at
// construction (raw sums off by more than 10% are rejected there).
type consensusFusion struct {
	weights   [3]float64
	threshold float64
}

// newConsensusFusion builds the fusion stage from already-normalized
// weights in energy/zcr/entropy order.
func newConsensusFusion(weights [3]float64, threshold float64) *consensusFusion {
	return &consensusFusion{weights: weights, threshold: threshold}
}

// Fuse combines per-detector results given in energy/zcr/entropy order.
func (f *consensusFusion) Fuse(energy, zcr, entropy DetectorResult) ConsensusDecision {
	score := energy.Confidence*f.weights[0] +
		zcr.Confidence*f.weights[1] +
		entropy.Confidence*f.weights[2]
	raw := score > f.threshold

	agreement := 0
	for _, r := range [3]DetectorResult{energy, zcr, entropy} {
		if r.Active == raw {
			agreement++
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":       "consensusFusion.Fuse",
		"weighted_score": score,
		"raw_decision":   raw,
		"agreement":      agreement,
	}).Trace("Fused detector results")

	return ConsensusDecision{
		WeightedScore: score,
		RawDecision:   raw,
		Results: map[string]DetectorResult{
			DetectorEnergy:  energy,
			DetectorZCR:     zcr,
			DetectorEntropy: entropy,
		},
		AgreementCount: agreement,
	}
}

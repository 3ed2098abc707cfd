package voiceproc

import (
	"errors"
	"math"
	"testing"
)

func TestVADConfig_WeightNormalization(t *testing.T) {
	tests := []struct {
		name    string
		weights [3]float64
		wantErr bool
	}{
		{name: "exact sum", weights: [3]float64{0.5, 0.2, 0.3}, wantErr: false},
		{name: "within tolerance low", weights: [3]float64{0.45, 0.2, 0.27}, wantErr: false},
		{name: "within tolerance high", weights: [3]float64{0.54, 0.22, 0.32}, wantErr: false},
		{name: "unnormalizable", weights: [3]float64{0.9, 0.9, 0.9}, wantErr: true},
		{name: "sum too low", weights: [3]float64{0.2, 0.2, 0.2}, wantErr: true},
		{name: "negative weight", weights: [3]float64{1.2, -0.2, 0.0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultVADConfig(1024, 44100)
			cfg.EnergyWeight = tt.weights[0]
			cfg.ZCRWeight = tt.weights[1]
			cfg.EntropyWeight = tt.weights[2]

			normalized, err := cfg.normalizedWeights()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected ConfigError, got nil")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("error %v does not wrap ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sum := normalized[0] + normalized[1] + normalized[2]; math.Abs(sum-1.0) > 1e-12 {
				t.Errorf("normalized weights sum to %g", sum)
			}
		})
	}
}

func TestConsensusFusion_WeightedScore(t *testing.T) {
	fusion := newConsensusFusion([3]float64{0.5, 0.2, 0.3}, 0.5)

	result := func(active bool, conf float64) DetectorResult {
		return DetectorResult{Active: active, Confidence: conf}
	}

	tests := []struct {
		name      string
		energy    DetectorResult
		zcr       DetectorResult
		entropy   DetectorResult
		wantScore float64
		wantRaw   bool
		wantAgree int
	}{
		{
			name:      "all silent",
			energy:    result(false, 0),
			zcr:       result(false, 0),
			entropy:   result(false, 0),
			wantScore: 0, wantRaw: false, wantAgree: 3,
		},
		{
			name:      "all confident speech",
			energy:    result(true, 1),
			zcr:       result(true, 1),
			entropy:   result(true, 1),
			wantScore: 1, wantRaw: true, wantAgree: 3,
		},
		{
			name:      "energy alone insufficient",
			energy:    result(true, 1),
			zcr:       result(false, 0),
			entropy:   result(false, 0),
			wantScore: 0.5, wantRaw: false, wantAgree: 2,
		},
		{
			name:      "energy plus entropy",
			energy:    result(true, 0.9),
			zcr:       result(false, 0.2),
			entropy:   result(true, 0.8),
			wantScore: 0.73, wantRaw: true, wantAgree: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fusion.Fuse(tt.energy, tt.zcr, tt.entropy)
			if math.Abs(got.WeightedScore-tt.wantScore) > 1e-12 {
				t.Errorf("WeightedScore = %g, want %g", got.WeightedScore, tt.wantScore)
			}
			if got.RawDecision != tt.wantRaw {
				t.Errorf("RawDecision = %v, want %v", got.RawDecision, tt.wantRaw)
			}
			if got.AgreementCount != tt.wantAgree {
				t.Errorf("AgreementCount = %d, want %d", got.AgreementCount, tt.wantAgree)
			}
			if len(got.Results) != 3 {
				t.Errorf("Results has %d entries", len(got.Results))
			}
		})
	}
}

func TestConsensusFusion_ScoreStaysInUnitInterval(t *testing.T) {
	fusion := newConsensusFusion([3]float64{0.4, 0.3, 0.3}, 0.5)
	confs := []float64{0, 0.25, 0.5, 0.75, 1}
	for _, a := range confs {
		for _, b := range confs {
			for _, c := range confs {
				got := fusion.Fuse(
					DetectorResult{Confidence: a},
					DetectorResult{Confidence: b},
					DetectorResult{Confidence: c},
				)
				if got.WeightedScore < 0 || got.WeightedScore > 1 {
					t.Fatalf("score %g outside [0, 1] for (%g, %g, %g)", got.WeightedScore, a, b, c)
				}
			}
		}
	}
}

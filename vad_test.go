package voiceproc

import (
	"errors"
	"testing"
)

func TestNewVAD_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*VADConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *VADConfig) {}, wantErr: false},
		{name: "unnormalizable weights", mutate: func(c *VADConfig) {
			c.EnergyWeight, c.ZCRWeight, c.EntropyWeight = 0.9, 0.9, 0.9
		}, wantErr: true},
		{name: "frame too small", mutate: func(c *VADConfig) { c.FrameSize = 16 }, wantErr: true},
		{name: "zero sample rate", mutate: func(c *VADConfig) { c.SampleRate = 0 }, wantErr: true},
		{name: "threshold above one", mutate: func(c *VADConfig) { c.ConsensusThreshold = 1.5 }, wantErr: true},
		{name: "zero smoothing window", mutate: func(c *VADConfig) { c.SmoothingWindow = 0 }, wantErr: true},
		{name: "negative hangover", mutate: func(c *VADConfig) { c.HangoverFrames = -1 }, wantErr: true},
		{name: "margin at half", mutate: func(c *VADConfig) { c.HysteresisMargin = 0.5 }, wantErr: true},
		{name: "saturation below one", mutate: func(c *VADConfig) { c.ConfidenceSaturation = 0.5 }, wantErr: true},
		{name: "zero energy floor", mutate: func(c *VADConfig) { c.Energy.ThresholdFloor = 0 }, wantErr: true},
		{name: "zcr threshold zero", mutate: func(c *VADConfig) { c.ZCR.Threshold = 0 }, wantErr: true},
		{name: "entropy threshold above one", mutate: func(c *VADConfig) { c.Entropy.Threshold = 1.2 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultVADConfig(1024, 44100)
			tt.mutate(&cfg)
			vad, err := NewVAD(cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected ConfigError, got nil")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("error %v does not wrap ErrInvalidConfig", err)
				}
				if vad != nil {
					t.Error("got a usable instance alongside an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestVAD_AllSilenceNeverActivates(t *testing.T) {
	vad, err := NewVAD(DefaultVADConfig(1024, 44100))
	if err != nil {
		t.Fatalf("NewVAD: %v", err)
	}

	for i := 0; i < 100; i++ {
		frame := NewAudioFrame(make([]float64, 1024), 44100, frameTimestamp(i))
		decision, err := vad.ProcessFrame(frame)
		if err != nil {
			t.Fatalf("silent frame %d: %v", i, err)
		}
		if decision.IsVoiceActive {
			t.Fatalf("silent frame %d marked as speech", i)
		}
		if decision.Confidence < 0 || decision.Confidence > 1 {
			t.Fatalf("confidence %g out of range at frame %d", decision.Confidence, i)
		}
		if len(decision.PerAlgorithm) != 3 {
			t.Fatalf("per-algorithm breakdown has %d entries", len(decision.PerAlgorithm))
		}
	}
}

func TestVAD_FrameShapeRejection(t *testing.T) {
	vad, err := NewVAD(DefaultVADConfig(1024, 44100))
	if err != nil {
		t.Fatalf("NewVAD: %v", err)
	}

	control, err := NewVAD(DefaultVADConfig(1024, 44100))
	if err != nil {
		t.Fatalf("NewVAD: %v", err)
	}

	feedBoth := func(i int) {
		t.Helper()
		a := sineFrame(1024, 440, 0.01, 44100, i)
		b := sineFrame(1024, 440, 0.01, 44100, i)
		da, err := vad.ProcessFrame(a)
		if err != nil {
			t.Fatalf("subject frame %d: %v", i, err)
		}
		db, err := control.ProcessFrame(b)
		if err != nil {
			t.Fatalf("control frame %d: %v", i, err)
		}
		if da.IsVoiceActive != db.IsVoiceActive || da.Confidence != db.Confidence {
			t.Fatalf("decisions diverge at frame %d", i)
		}
	}

	for i := 0; i < 10; i++ {
		feedBoth(i)
	}

	bad := NewAudioFrame(make([]float64, 1025), 44100, frameTimestamp(10))
	if _, err := vad.ProcessFrame(bad); !errors.Is(err, ErrFrameShape) {
		t.Fatalf("oversized frame: error = %v, want FrameShapeError", err)
	}

	// The rejected frame must not have advanced any state.
	for i := 11; i < 20; i++ {
		feedBoth(i)
	}
}

// energyOnlyVADConfig isolates the stabilizer behavior from the ZCR and
// entropy detectors.
func energyOnlyVADConfig(hangover, window int) VADConfig {
	cfg := DefaultVADConfig(1024, 44100)
	cfg.EnergyWeight = 1.0
	cfg.ZCRWeight = 0
	cfg.EntropyWeight = 0
	cfg.ConsensusThreshold = 0.4
	cfg.SmoothingWindow = window
	cfg.HangoverFrames = hangover
	return cfg
}

func TestVAD_HangoverHoldsThroughShortSilence(t *testing.T) {
	vad, err := NewVAD(energyOnlyVADConfig(3, 1))
	if err != nil {
		t.Fatalf("NewVAD: %v", err)
	}

	frame := 0
	quiet := func() *AudioFrame {
		f := sineFrame(1024, 440, 0.003, 44100, frame)
		frame++
		return f
	}
	loud := func() *AudioFrame {
		f := sineFrame(1024, 440, 0.5, 44100, frame)
		frame++
		return f
	}

	// Establish a quiet background so the energy threshold settles low.
	for i := 0; i < 25; i++ {
		d, err := vad.ProcessFrame(quiet())
		if err != nil {
			t.Fatalf("background frame: %v", err)
		}
		if d.IsVoiceActive {
			t.Fatalf("background frame %d active", i)
		}
	}

	// Five loud frames must produce speech votes.
	var speechSeen bool
	for i := 0; i < 5; i++ {
		d, err := vad.ProcessFrame(loud())
		if err != nil {
			t.Fatalf("loud frame: %v", err)
		}
		if d.IsVoiceActive {
			speechSeen = true
		}
	}
	if !speechSeen {
		t.Fatal("loud frames never produced a speech decision")
	}

	// Hangover 3: the decision holds through two silent frames and
	// releases on the third.
	d, err := vad.ProcessFrame(quiet())
	if err != nil {
		t.Fatalf("silent frame 1: %v", err)
	}
	if !d.IsVoiceActive || !d.Smoothing.HangoverActive {
		t.Fatalf("silent frame 1: active=%v hangover=%v", d.IsVoiceActive, d.Smoothing.HangoverActive)
	}
	d, err = vad.ProcessFrame(quiet())
	if err != nil {
		t.Fatalf("silent frame 2: %v", err)
	}
	if !d.IsVoiceActive {
		t.Fatal("silent frame 2 dropped inside the hangover")
	}
	d, err = vad.ProcessFrame(quiet())
	if err != nil {
		t.Fatalf("silent frame 3: %v", err)
	}
	if d.IsVoiceActive {
		t.Fatal("silent frame 3 still active after the hangover expired")
	}
}

func TestVAD_Reset(t *testing.T) {
	vad, err := NewVAD(energyOnlyVADConfig(3, 1))
	if err != nil {
		t.Fatalf("NewVAD: %v", err)
	}

	for i := 0; i < 25; i++ {
		if _, err := vad.ProcessFrame(sineFrame(1024, 440, 0.003, 44100, i)); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	for i := 25; i < 30; i++ {
		if _, err := vad.ProcessFrame(sineFrame(1024, 440, 0.5, 44100, i)); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}

	vad.Reset()

	// After a reset the very next frame is scored with no history: no
	// hangover, state silence.
	d, err := vad.ProcessFrame(NewAudioFrame(make([]float64, 1024), 44100, frameTimestamp(30)))
	if err != nil {
		t.Fatalf("post-reset frame: %v", err)
	}
	if d.IsVoiceActive || d.Smoothing.HangoverActive || d.Smoothing.State != StateSilence {
		t.Errorf("post-reset decision: %+v", d)
	}
}

func BenchmarkVAD(b *testing.B) {
	vad, err := NewVAD(DefaultVADConfig(1024, 44100))
	if err != nil {
		b.Fatal(err)
	}
	frame := sineFrame(1024, 440, 0.1, 44100, 0)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := vad.ProcessFrame(frame); err != nil {
			b.Fatal(err)
		}
	}
}

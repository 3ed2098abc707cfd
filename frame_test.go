package voiceproc

import (
	"testing"
	"time"
)

func TestAudioFrame_Duration(t *testing.T) {
	tests := []struct {
		name       string
		samples    int
		sampleRate int
		want       time.Duration
	}{
		{name: "1024 at 44100", samples: 1024, sampleRate: 44100, want: 23219954 * time.Nanosecond},
		{name: "480 at 48000", samples: 480, sampleRate: 48000, want: 10 * time.Millisecond},
		{name: "empty", samples: 0, sampleRate: 44100, want: 0},
		{name: "zero rate", samples: 1024, sampleRate: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := NewAudioFrame(make([]float64, tt.samples), tt.sampleRate, time.Unix(0, 0))
			if got := frame.Duration(); got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewAudioFrame_ReferencesSlice(t *testing.T) {
	samples := []float64{0.1, 0.2, 0.3}
	frame := NewAudioFrame(samples, 44100, time.Unix(0, 0))

	samples[0] = 0.9
	if frame.Samples[0] != 0.9 {
		t.Error("frame must reference the caller's slice, not copy it")
	}
}

func TestSpectralFrame(t *testing.T) {
	sf := NewSpectralFrame(513)
	if sf.Bins() != 513 {
		t.Errorf("Bins() = %d, want 513", sf.Bins())
	}
	if len(sf.Phase) != 513 {
		t.Errorf("len(Phase) = %d, want 513", len(sf.Phase))
	}
}

package voiceproc

import "time"

// AudioFrame is one fixed-length block of single-channel audio.
//
// Samples are normalized floating-point values in [-1, 1], tagged with the
// sample rate they were captured at and a monotonic capture timestamp.
// Frames are produced by the host's capture layer, transformed stage to
// stage inside the pipeline, and never retained across calls.
type AudioFrame struct {
	Samples    []float64
	SampleRate int
	Timestamp  time.Time
}

// NewAudioFrame wraps samples in an AudioFrame. The slice is referenced,
// not copied; the caller must not reuse it until the frame has been
// processed.
func NewAudioFrame(samples []float64, sampleRate int, timestamp time.Time) *AudioFrame {
	return &AudioFrame{
		Samples:    samples,
		SampleRate: sampleRate,
		Timestamp:  timestamp,
	}
}

// Duration returns the time span the frame covers.
func (f *AudioFrame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(f.Samples)) / float64(f.SampleRate) * float64(time.Second))
}

// SpectralFrame is the magnitude/phase decomposition of one AudioFrame,
// covering frameSize/2+1 bins. It is transient scratch owned by the stage
// that produced it.
type SpectralFrame struct {
	Magnitude []float64
	Phase     []float64
}

// NewSpectralFrame allocates a spectral frame with the given bin count.
func NewSpectralFrame(bins int) *SpectralFrame {
	return &SpectralFrame{
		Magnitude: make([]float64, bins),
		Phase:     make([]float64, bins),
	}
}

// Bins returns the number of spectral bins.
func (s *SpectralFrame) Bins() int { return len(s.Magnitude) }

package dsp

import (
	"math"
	"testing"
)

func TestDbLinearConversion(t *testing.T) {
	tests := []struct {
		name   string
		db     float64
		linear float64
	}{
		{name: "unity", db: 0, linear: 1.0},
		{name: "plus six", db: 6.0206, linear: 2.0},
		{name: "minus twenty", db: -20, linear: 0.1},
		{name: "minus forty", db: -40, linear: 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DbToLinear(tt.db); math.Abs(got-tt.linear) > 1e-4 {
				t.Errorf("DbToLinear(%g) = %g, want %g", tt.db, got, tt.linear)
			}
			if got := LinearToDb(tt.linear); math.Abs(got-tt.db) > 1e-3 {
				t.Errorf("LinearToDb(%g) = %g, want %g", tt.linear, got, tt.db)
			}
		})
	}
}

func TestLinearToDb_Floor(t *testing.T) {
	for _, v := range []float64{0, -1, 1e-12} {
		if got := LinearToDb(v); got != SilenceDb {
			t.Errorf("LinearToDb(%g) = %g, want SilenceDb", v, got)
		}
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %g, want 0", got)
	}
	if got := RMS([]float64{0.5, -0.5, 0.5, -0.5}); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("RMS = %g, want 0.5", got)
	}
	// Sine RMS is amplitude over sqrt(2).
	sine := makeSine(4410, 100, 44100, 1.0)
	if got := RMS(sine); math.Abs(got-1.0/math.Sqrt2) > 1e-3 {
		t.Errorf("sine RMS = %g, want %g", got, 1.0/math.Sqrt2)
	}
}

func TestMeanAndMeanAbs(t *testing.T) {
	samples := []float64{0.2, -0.4, 0.2, -0.4}
	if got := Mean(samples); math.Abs(got-(-0.1)) > 1e-12 {
		t.Errorf("Mean = %g, want -0.1", got)
	}
	if got := MeanAbs(samples); math.Abs(got-0.3) > 1e-12 {
		t.Errorf("MeanAbs = %g, want 0.3", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 1); got != 1 {
		t.Errorf("Clamp high = %g", got)
	}
	if got := Clamp(-5, 0, 1); got != 0 {
		t.Errorf("Clamp low = %g", got)
	}
	if got := Clamp(0.5, 0, 1); got != 0.5 {
		t.Errorf("Clamp inside = %g", got)
	}
}

func TestPCMRoundTrip(t *testing.T) {
	pcm := []int16{0, 1000, -1000, 32767, -32768}
	floats := Int16ToFloat64(nil, pcm)
	back := Float64ToInt16(nil, floats)
	for i := range pcm {
		if back[i] != pcm[i] {
			t.Errorf("sample %d: %d -> %g -> %d", i, pcm[i], floats[i], back[i])
		}
	}
}

func TestFloat64ToInt16_Clipping(t *testing.T) {
	out := Float64ToInt16(nil, []float64{1.5, -1.5})
	if out[0] != 32767 || out[1] != -32768 {
		t.Errorf("clipping produced %v, want [32767 -32768]", out)
	}
}

func TestBytesInt16RoundTrip(t *testing.T) {
	samples := []int16{256, -256, 12345}
	data := Int16ToBytes(samples)
	back := BytesToInt16(data)
	for i := range samples {
		if back[i] != samples[i] {
			t.Errorf("sample %d: %d -> %d", i, samples[i], back[i])
		}
	}
	// Odd trailing byte is ignored.
	if got := BytesToInt16([]byte{0x01, 0x02, 0x03}); len(got) != 1 {
		t.Errorf("odd-length conversion yielded %d samples, want 1", len(got))
	}
}

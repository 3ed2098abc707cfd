package voiceproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/voiceproc/dsp"
)

func TestNewPreprocessor_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*PreprocessorConfig)
		expectErr bool
	}{
		{name: "defaults", mutate: func(c *PreprocessorConfig) {}, expectErr: false},
		{name: "unknown_module", mutate: func(c *PreprocessorConfig) {
			c.ProcessingOrder = []string{"echo_cancel"}
		}, expectErr: true},
		{name: "duplicate_module", mutate: func(c *PreprocessorConfig) {
			c.ProcessingOrder = []string{ModuleAGC, ModuleAGC}
		}, expectErr: true},
		{name: "frame_too_small", mutate: func(c *PreprocessorConfig) { c.FrameSize = 8 }, expectErr: true},
		{name: "conflicting_agc_rate", mutate: func(c *PreprocessorConfig) { c.AGC.SampleRate = 48000 }, expectErr: true},
		{name: "conflicting_denoise_frame", mutate: func(c *PreprocessorConfig) { c.NoiseReduction.FrameSize = 512 }, expectErr: true},
		{name: "invalid_enabled_module", mutate: func(c *PreprocessorConfig) { c.HighPass.CutoffFrequency = -5 }, expectErr: true},
		{name: "invalid_disabled_module_ok", mutate: func(c *PreprocessorConfig) {
			c.EnableHighPass = false
			c.HighPass.CutoffFrequency = -5
		}, expectErr: false},
		{name: "partial_chain", mutate: func(c *PreprocessorConfig) {
			c.ProcessingOrder = []string{ModuleAGC}
			c.EnableHighPass = false
			c.EnableNoiseReduction = false
		}, expectErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPreprocessorConfig(1024, 44100)
			tt.mutate(&cfg)
			p, err := NewPreprocessor(cfg)
			if tt.expectErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, p)
		})
	}
}

func TestPreprocessor_Process(t *testing.T) {
	p, err := NewPreprocessor(DefaultPreprocessorConfig(1024, 44100))
	require.NoError(t, err)

	frame := sineFrame(1024, 440, 0.1, 44100, 0)
	result, err := p.Process(frame, false)
	require.NoError(t, err)

	assert.Equal(t, []string{ModuleHighPass, ModuleAGC, ModuleDenoise}, result.ModulesApplied)
	assert.Same(t, frame, result.Audio)
	assert.Equal(t, frame.Timestamp, result.Timestamp)
	assert.GreaterOrEqual(t, result.ProcessingTimeMs, 0.0)
	assert.Greater(t, result.Quality.SignalLevelDb, -100.0)
	assert.GreaterOrEqual(t, result.Quality.NoiseLevelDb, -100.0)
}

func TestPreprocessor_RespectsProcessingOrder(t *testing.T) {
	cfg := DefaultPreprocessorConfig(1024, 44100)
	cfg.ProcessingOrder = []string{ModuleDenoise, ModuleHighPass}
	cfg.EnableAGC = false

	p, err := NewPreprocessor(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{ModuleDenoise, ModuleHighPass}, p.ModulesEnabled())
	assert.Nil(t, p.AGC())

	result, err := p.Process(sineFrame(1024, 440, 0.1, 44100, 0), false)
	require.NoError(t, err)
	assert.Equal(t, []string{ModuleDenoise, ModuleHighPass}, result.ModulesApplied)
}

func TestPreprocessor_DisabledModulesSkipped(t *testing.T) {
	cfg := DefaultPreprocessorConfig(1024, 44100)
	cfg.EnableHighPass = false
	cfg.EnableNoiseReduction = false

	p, err := NewPreprocessor(cfg)
	require.NoError(t, err)

	result, err := p.Process(sineFrame(1024, 440, 0.1, 44100, 0), false)
	require.NoError(t, err)
	assert.Equal(t, []string{ModuleAGC}, result.ModulesApplied)
	// Without the high-pass module the DC diagnostic reads zero.
	assert.Zero(t, result.Quality.DCOffset)
}

func TestPreprocessor_FrameShapeRejection(t *testing.T) {
	subject, err := NewPreprocessor(DefaultPreprocessorConfig(1024, 44100))
	require.NoError(t, err)
	control, err := NewPreprocessor(DefaultPreprocessorConfig(1024, 44100))
	require.NoError(t, err)

	feedBoth := func(i int) {
		t.Helper()
		a := sineFrame(1024, 440, 0.1, 44100, i)
		b := sineFrame(1024, 440, 0.1, 44100, i)
		ra, err := subject.Process(a, false)
		require.NoError(t, err)
		rb, err := control.Process(b, false)
		require.NoError(t, err)
		assert.Equal(t, rb.Audio.Samples, ra.Audio.Samples, "frame %d", i)
	}

	for i := 0; i < 5; i++ {
		feedBoth(i)
	}

	bad := NewAudioFrame(make([]float64, 1025), 44100, frameTimestamp(5))
	_, err = subject.Process(bad, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFrameShape)

	// State must be untouched: outputs keep matching the control.
	for i := 6; i < 12; i++ {
		feedBoth(i)
	}
}

func TestPreprocessor_ReconfigureAtomicity(t *testing.T) {
	p, err := NewPreprocessor(DefaultPreprocessorConfig(1024, 44100))
	require.NoError(t, err)

	badCfg := DefaultPreprocessorConfig(1024, 44100)
	badCfg.AGC.GainSmoothing = -1

	err = p.Reconfigure(badCfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	// The previous configuration stays fully in effect.
	assert.Equal(t, []string{ModuleHighPass, ModuleAGC, ModuleDenoise}, p.ModulesEnabled())
	_, err = p.Process(sineFrame(1024, 440, 0.1, 44100, 0), false)
	assert.NoError(t, err)
}

func TestPreprocessor_ReconfigureSwapsChain(t *testing.T) {
	p, err := NewPreprocessor(DefaultPreprocessorConfig(1024, 44100))
	require.NoError(t, err)

	newCfg := DefaultPreprocessorConfig(2048, 48000)
	newCfg.EnableNoiseReduction = false
	require.NoError(t, p.Reconfigure(newCfg))

	assert.Equal(t, []string{ModuleHighPass, ModuleAGC}, p.ModulesEnabled())
	assert.Nil(t, p.NoiseReducer())

	// Old-geometry frames are now rejected, new-geometry frames accepted.
	_, err = p.Process(sineFrame(1024, 440, 0.1, 44100, 0), false)
	assert.ErrorIs(t, err, ErrFrameShape)
	_, err = p.Process(sineFrame(2048, 440, 0.1, 48000, 0), false)
	assert.NoError(t, err)
}

func TestPreprocessor_QualityMetrics(t *testing.T) {
	cfg := DefaultPreprocessorConfig(1024, 44100)
	cfg.EnableAGC = false
	cfg.EnableNoiseReduction = false
	p, err := NewPreprocessor(cfg)
	require.NoError(t, err)

	// DC-offset diagnostic comes from the high-pass module.
	frame := sineFrame(1024, 1000, 0.3, 44100, 0)
	for i := range frame.Samples {
		frame.Samples[i] += 0.05
	}
	result, err := p.Process(frame, false)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, result.Quality.DCOffset, 0.01)

	// An all-zero frame degrades to the silence floor, never NaN. Reset
	// first so no filter transient leaks into the silent frame.
	p.Reset()
	zero := NewAudioFrame(make([]float64, 1024), 44100, frameTimestamp(1))
	result, err = p.Process(zero, false)
	require.NoError(t, err)
	assert.Equal(t, dsp.SilenceDb, result.Quality.SignalLevelDb)
	assert.False(t, result.Quality.NoiseLevelDb > 0)
}

func TestPreprocessor_Reset(t *testing.T) {
	p, err := NewPreprocessor(DefaultPreprocessorConfig(1024, 44100))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := p.Process(sineFrame(1024, 440, 0.1, 44100, i), true)
		require.NoError(t, err)
	}
	require.True(t, p.NoiseReducer().HasNoiseProfile())

	p.Reset()
	assert.False(t, p.NoiseReducer().HasNoiseProfile())
	assert.Equal(t, 1.0, p.AGC().GetCurrentGain())
	assert.Zero(t, p.HighPass().GetDCOffset())
	// Configuration survives.
	assert.Equal(t, []string{ModuleHighPass, ModuleAGC, ModuleDenoise}, p.ModulesEnabled())
}

func BenchmarkPreprocessor(b *testing.B) {
	p, err := NewPreprocessor(DefaultPreprocessorConfig(1024, 44100))
	if err != nil {
		b.Fatal(err)
	}
	frame := sineFrame(1024, 440, 0.1, 44100, 0)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Process(frame, false); err != nil {
			b.Fatal(err)
		}
	}
}

package voiceproc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/voiceproc/observe"
)

// SessionResult bundles one frame's enhancement output and voice-activity
// decision. Decision is nil when the session's VAD is disabled.
type SessionResult struct {
	Preprocessing *PreprocessingResult
	Decision      *Decision
	QualityLevel  QualityLevel
}

// Session is the per-stream facade over the whole pipeline: one microphone
// stream owns one Session, which owns an exclusive Preprocessor, VAD, and
// quality monitor. Sessions are single-threaded; parallelism across
// streams is achieved by independent Session instances.
//
// The caller's per-frame quiet-segment hint and the VAD's own silence
// decision from the previous frame are independent noise-adaptation
// triggers, combined with a logical OR before reaching the denoise module.
type Session struct {
	cfg SessionConfig

	preprocessor *Preprocessor
	vad          *VAD
	quality      *QualityMonitor
	metrics      *observe.Metrics

	// lastSpeech mirrors the previous frame's stabilized decision; true
	// until the VAD has history so a fresh session does not force
	// adaptation on its very first frame.
	lastSpeech  bool
	hasDecision bool

	raw []float64
}

// NewSession creates a session from its configuration.
//
// Parameters:
//   - cfg: session configuration (DefaultSessionConfig for the full
//     default pipeline)
//
// Returns:
//   - *Session: ready-to-use session
//   - error: ConfigError if any part of the configuration is invalid
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewSession",
			"error":    err.Error(),
		}).Error("Session configuration rejected")
		return nil, err
	}

	preprocessor, err := NewPreprocessor(cfg.Preprocessor)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:          cfg,
		preprocessor: preprocessor,
		quality:      NewQualityMonitor(DefaultQualityThresholds(), nil),
	}
	if cfg.EnableVAD {
		if s.vad, err = NewVAD(cfg.VAD); err != nil {
			return nil, err
		}
	}
	if !cfg.VADOnEnhanced {
		s.raw = make([]float64, cfg.Preprocessor.FrameSize)
	}

	logrus.WithFields(logrus.Fields{
		"function":        "NewSession",
		"frame_size":      cfg.Preprocessor.FrameSize,
		"sample_rate":     cfg.Preprocessor.SampleRate,
		"vad_enabled":     cfg.EnableVAD,
		"vad_on_enhanced": cfg.VADOnEnhanced,
	}).Info("Created pipeline session")

	s.metrics.SessionStarted(context.Background())
	return s, nil
}

// SetMetrics installs OpenTelemetry instruments for the session. A nil
// value (the default) disables recording. Call before the first frame.
func (s *Session) SetMetrics(m *observe.Metrics) {
	s.metrics = m
	s.metrics.SessionStarted(context.Background())
}

// OnQualityChange installs a callback fired whenever the assessed quality
// level changes.
func (s *Session) OnQualityChange(cb QualityCallback) {
	s.quality = NewQualityMonitor(DefaultQualityThresholds(), cb)
}

// ProcessFrame runs one frame through the pipeline: enhancement in the
// configured module order, then the VAD stack on the enhanced (or, when
// configured, raw) frame.
//
// quietHint marks the frame as known noise-only; it is ORed with the
// previous frame's VAD silence decision to trigger noise-profile
// adaptation. The frame's samples are enhanced in place. Frame-shape
// violations reject the frame before any state advances.
func (s *Session) ProcessFrame(frame *AudioFrame, quietHint bool) (*SessionResult, error) {
	ctx := context.Background()

	if len(frame.Samples) != s.cfg.Preprocessor.FrameSize {
		s.metrics.RecordRejected(ctx, "frame_shape")
		return nil, &FrameShapeError{Got: len(frame.Samples), Want: s.cfg.Preprocessor.FrameSize}
	}

	quiet := quietHint || (s.hasDecision && !s.lastSpeech)

	if s.raw != nil {
		copy(s.raw, frame.Samples)
	}

	start := time.Now()
	result, err := s.preprocessor.Process(frame, quiet)
	if err != nil {
		s.metrics.RecordRejected(ctx, "preprocess")
		return nil, err
	}
	s.metrics.RecordStageLatency(ctx, "preprocess", time.Since(start).Seconds())

	out := &SessionResult{Preprocessing: result}
	speech := false

	if s.vad != nil {
		vadFrame := frame
		if s.raw != nil {
			vadFrame = &AudioFrame{Samples: s.raw, SampleRate: frame.SampleRate, Timestamp: frame.Timestamp}
		}

		vadStart := time.Now()
		decision, err := s.vad.ProcessFrame(vadFrame)
		if err != nil {
			s.metrics.RecordRejected(ctx, "vad")
			return nil, err
		}
		s.metrics.RecordStageLatency(ctx, "vad", time.Since(vadStart).Seconds())

		speech = decision.IsVoiceActive
		s.lastSpeech = speech
		s.hasDecision = true
		out.Decision = decision
	}
	s.metrics.RecordFrame(ctx, speech)

	prev, _ := s.quality.Current()
	out.QualityLevel = s.quality.Observe(result.Quality, frame.Timestamp)
	if assessed := out.QualityLevel; assessed != prev {
		s.metrics.RecordQualityChange(ctx, assessed.String())
	}

	logrus.WithFields(logrus.Fields{
		"function": "Session.ProcessFrame",
		"quiet":    quiet,
		"quality":  out.QualityLevel.String(),
	}).Trace("Processed session frame")

	return out, nil
}

// Preprocessor exposes the enhancement chain, for reconfiguration and
// statistics access.
func (s *Session) Preprocessor() *Preprocessor { return s.preprocessor }

// VAD exposes the voice-activity stack, nil when disabled.
func (s *Session) VAD() *VAD { return s.vad }

// Reset clears all transient pipeline state (noise profile, AGC envelope,
// filter history, VAD windows, quality history) while preserving
// configuration.
func (s *Session) Reset() {
	s.preprocessor.Reset()
	if s.vad != nil {
		s.vad.Reset()
	}
	s.quality.Reset()
	s.lastSpeech = false
	s.hasDecision = false

	logrus.WithFields(logrus.Fields{
		"function": "Session.Reset",
	}).Debug("Session state cleared")
}

// Close tears the session down. The pipeline holds no external resources,
// so this only updates the active-session gauge; discarding the Session
// afterwards releases everything.
func (s *Session) Close() {
	s.metrics.SessionEnded(context.Background())

	logrus.WithFields(logrus.Fields{
		"function": "Session.Close",
	}).Info("Session closed")
}

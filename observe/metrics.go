// Package observe provides OpenTelemetry metric instruments for the
// voiceproc pipeline: per-frame latency, processed/rejected/speech frame
// counters, and an active-session gauge.
//
// Metrics are recorded through the OpenTelemetry Metrics API so the host
// application chooses the exporter. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution. A nil *Metrics is valid everywhere and records nothing, so
// observability stays strictly optional for library users.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voiceproc
// metrics.
const meterName = "github.com/opd-ai/voiceproc"

// Metrics holds all OpenTelemetry metric instruments for the pipeline.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// FrameDuration tracks per-frame processing latency. Use with
	// attribute.String("stage", "preprocess"|"vad").
	FrameDuration metric.Float64Histogram

	// FramesProcessed counts frames that completed the pipeline.
	FramesProcessed metric.Int64Counter

	// FramesRejected counts frames rejected before processing. Use with
	// attribute.String("reason", ...).
	FramesRejected metric.Int64Counter

	// SpeechFrames counts frames whose stabilized decision was speech.
	SpeechFrames metric.Int64Counter

	// QualityChanges counts quality-level transitions. Use with
	// attribute.String("level", ...).
	QualityChanges metric.Int64Counter

	// ActiveSessions tracks the number of live pipeline sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized
// for per-frame DSP costs, which sit well under one frame period.
var latencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FrameDuration, err = m.Float64Histogram("voiceproc.frame.duration",
		metric.WithDescription("Per-frame processing latency by pipeline stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FramesProcessed, err = m.Int64Counter("voiceproc.frames.processed",
		metric.WithDescription("Total frames that completed the pipeline."),
	); err != nil {
		return nil, err
	}
	if met.FramesRejected, err = m.Int64Counter("voiceproc.frames.rejected",
		metric.WithDescription("Total frames rejected before processing, by reason."),
	); err != nil {
		return nil, err
	}
	if met.SpeechFrames, err = m.Int64Counter("voiceproc.frames.speech",
		metric.WithDescription("Total frames whose stabilized decision was speech."),
	); err != nil {
		return nil, err
	}
	if met.QualityChanges, err = m.Int64Counter("voiceproc.quality.changes",
		metric.WithDescription("Total audio quality level transitions, by new level."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("voiceproc.active_sessions",
		metric.WithDescription("Number of live pipeline sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordStageLatency records one pipeline stage's processing time for a
// single frame. Safe to call on a nil receiver, which records nothing.
func (m *Metrics) RecordStageLatency(ctx context.Context, stage string, seconds float64) {
	if m == nil {
		return
	}
	m.FrameDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordFrame records one completed frame and, when the stabilized
// decision was speech, the speech counter. Safe to call on a nil receiver.
func (m *Metrics) RecordFrame(ctx context.Context, speech bool) {
	if m == nil {
		return
	}
	m.FramesProcessed.Add(ctx, 1)
	if speech {
		m.SpeechFrames.Add(ctx, 1)
	}
}

// RecordRejected records one rejected frame with its reason.
// Safe to call on a nil receiver.
func (m *Metrics) RecordRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.FramesRejected.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordQualityChange records one quality-level transition.
// Safe to call on a nil receiver.
func (m *Metrics) RecordQualityChange(ctx context.Context, level string) {
	if m == nil {
		return
	}
	m.QualityChanges.Add(ctx, 1,
		metric.WithAttributes(attribute.String("level", level)))
}

// SessionStarted increments the active-session gauge.
// Safe to call on a nil receiver.
func (m *Metrics) SessionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, 1)
}

// SessionEnded decrements the active-session gauge.
// Safe to call on a nil receiver.
func (m *Metrics) SessionEnded(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, -1)
}

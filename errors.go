// Package voiceproc error definitions.
//
// Two failure categories cover everything the pipeline can reject:
// configuration problems (raised at construction or reconfiguration, never
// mid-stream) and frame-shape violations (raised before a frame is touched,
// leaving module state unchanged). Degenerate signals (all-zero frames,
// zero energy) are never errors; level math is floored so the pipeline
// degrades to unity gain instead of producing NaN or Inf.
//
// The sentinel values enable reliable classification using errors.Is();
// the concrete types carry detail for errors.As().
package voiceproc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is wrapped by every ConfigError. A failed
	// reconfiguration leaves the previous valid configuration in effect.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrFrameShape is wrapped by every FrameShapeError. The offending
	// frame is dropped before any module state is modified.
	ErrFrameShape = errors.New("frame shape mismatch")
)

// ConfigError reports an invalid construction or reconfiguration parameter.
type ConfigError struct {
	// Component names the module that rejected the configuration
	// ("agc", "denoise", "highpass", "vad", "preprocessor", ...).
	Component string
	// Field is the offending parameter in its configuration struct.
	Field string
	// Reason describes the constraint that was violated.
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s configuration: %s %s", e.Component, e.Field, e.Reason)
}

// Unwrap ties ConfigError into the ErrInvalidConfig sentinel chain.
func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// newConfigError builds a ConfigError for component with the offending
// field and the violated constraint.
func newConfigError(component, field, reason string) *ConfigError {
	return &ConfigError{Component: component, Field: field, Reason: reason}
}

// FrameShapeError reports a frame whose length does not match the
// configured frame size. The frame is rejected before processing.
type FrameShapeError struct {
	Got  int
	Want int
}

func (e *FrameShapeError) Error() string {
	return fmt.Sprintf("frame length %d does not match configured frame size %d", e.Got, e.Want)
}

// Unwrap ties FrameShapeError into the ErrFrameShape sentinel chain.
func (e *FrameShapeError) Unwrap() error { return ErrFrameShape }

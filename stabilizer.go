package voiceproc

import (
	"time"

	"github.com/sirupsen/logrus"
)

// StabilizedState is the hysteresis-governed speech/silence state the
// stabilizer publishes alongside the per-frame decision.
type StabilizedState int

const (
	// StateSilence is the stabilizer's resting state.
	StateSilence StabilizedState = iota
	// StateSpeech is entered when the window's speech fraction clears the
	// upper hysteresis bound and left when it drops below the lower one.
	StateSpeech
)

// String returns the state name used in logs and breakdowns.
func (s StabilizedState) String() string {
	if s == StateSpeech {
		return "speech"
	}
	return "silence"
}

// SmoothingInfo describes the stabilizer's contribution to one decision.
type SmoothingInfo struct {
	// HangoverActive reports whether the hangover counter forced the
	// decision to speech this frame.
	HangoverActive bool
	// State is the hysteresis-governed stabilized state.
	State StabilizedState
	// LastTransition is when State last flipped, zero until it first does.
	LastTransition time.Time
}

// temporalStabilizer smooths raw consensus decisions over time.
//
// Three mechanisms stack: a fixed-size sliding window of raw decisions
// yields a majority vote; hysteresis on the window's speech fraction
// governs the published stabilized state (entering speech needs fraction
// above 0.5+margin, leaving needs below 0.5-margin); and a hangover
// counter resets to its configured frame count on every majority-speech
// vote and decrements on majority-silence votes, holding the decision at
// speech while positive. The externally visible decision is the majority
// vote OR an active hangover, so output returns to silence only when the
// majority is silence and the counter has run out.
type temporalStabilizer struct {
	windowSize     int
	hangoverFrames int
	margin         float64

	window    []bool
	windowIdx int
	windowLen int

	hangover       int
	state          StabilizedState
	lastTransition time.Time
}

func newTemporalStabilizer(windowSize, hangoverFrames int, margin float64) *temporalStabilizer {
	return &temporalStabilizer{
		windowSize:     windowSize,
		hangoverFrames: hangoverFrames,
		margin:         margin,
		window:         make([]bool, windowSize),
	}
}

// Push records one raw decision and returns the stabilized decision plus
// the smoothing breakdown. Decisions are frame-atomic: all state advances
// exactly once per call.
func (t *temporalStabilizer) Push(raw bool, timestamp time.Time) (bool, SmoothingInfo) {
	t.window[t.windowIdx] = raw
	t.windowIdx = (t.windowIdx + 1) % t.windowSize
	if t.windowLen < t.windowSize {
		t.windowLen++
	}

	speechVotes := 0
	for _, v := range t.window[:t.windowLen] {
		if v {
			speechVotes++
		}
	}
	fraction := float64(speechVotes) / float64(t.windowLen)
	majority := fraction > 0.5

	switch t.state {
	case StateSilence:
		if fraction > 0.5+t.margin {
			t.state = StateSpeech
			t.lastTransition = timestamp
		}
	case StateSpeech:
		if fraction < 0.5-t.margin {
			t.state = StateSilence
			t.lastTransition = timestamp
		}
	}

	if majority {
		t.hangover = t.hangoverFrames
	} else if t.hangover > 0 {
		t.hangover--
	}

	hangoverActive := !majority && t.hangover > 0
	decision := majority || t.hangover > 0

	logrus.WithFields(logrus.Fields{
		"function":        "temporalStabilizer.Push",
		"speech_fraction": fraction,
		"majority":        majority,
		"hangover":        t.hangover,
		"state":           t.state.String(),
		"decision":        decision,
	}).Trace("Stabilized raw decision")

	return decision, SmoothingInfo{
		HangoverActive: hangoverActive,
		State:          t.state,
		LastTransition: t.lastTransition,
	}
}

// SpeechFraction returns the current window's speech fraction, 0 while the
// window is empty.
func (t *temporalStabilizer) SpeechFraction() float64 {
	if t.windowLen == 0 {
		return 0
	}
	speech := 0
	for _, v := range t.window[:t.windowLen] {
		if v {
			speech++
		}
	}
	return float64(speech) / float64(t.windowLen)
}

// Reset clears the vote window, hangover counter, and stabilized state,
// keeping the configuration.
func (t *temporalStabilizer) Reset() {
	for i := range t.window {
		t.window[i] = false
	}
	t.windowIdx = 0
	t.windowLen = 0
	t.hangover = 0
	t.state = StateSilence
	t.lastTransition = time.Time{}
}

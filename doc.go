// Package voiceproc implements a real-time, single-channel voice
// enhancement and speech-presence detection pipeline.
//
// The pipeline ingests fixed-length microphone frames and, inside one
// frame period, removes DC offset and rumble, suppresses stationary
// background noise by adaptive spectral subtraction, normalizes loudness
// with a look-ahead automatic gain control, and decides whether each frame
// contains speech using three independent detectors fused by weighted
// consensus and stabilized over time with majority voting, hysteresis, and
// hangover.
//
// # Getting Started
//
// Create a session per microphone stream and feed it frames:
//
//	cfg := voiceproc.DefaultSessionConfig(1024, 44100)
//	session, err := voiceproc.NewSession(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	result, err := session.ProcessFrame(frame, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if result.Decision != nil && result.Decision.IsVoiceActive {
//	    // route result.Preprocessing.Audio downstream
//	}
//
// Individual stages (HighPassFilter, AutoGainControl, NoiseReducer, VAD,
// Preprocessor) are exported for hosts that compose their own pipelines.
//
// # Concurrency
//
// Everything is single-threaded by design: one session owns an exclusive
// set of component instances and is driven synchronously, one frame per
// call. Run independent sessions for parallel streams; no locking is
// needed anywhere because no state is shared.
package voiceproc

package recognizer

import "errors"

// ErrDecode marks a recoverable decode failure. The caller resets the
// recognizer and keeps feeding; repeated consecutive failures escalate.
var ErrDecode = errors.New("recognizer: decode failure")

// Hypothesis is one incremental recognition update for the current utterance
// window. Non-final hypotheses may be revised wholesale until IsFinal is
// emitted, after which the window is closed and never touched again.
type Hypothesis struct {
	Text        string
	IsFinal     bool
	StartSample uint64
	EndSample   uint64
	Confidence  float32
}

// Recognizer is a streaming speech recognizer fed from a single goroutine.
type Recognizer interface {
	// Feed consumes one contiguous PCM chunk and returns zero or more
	// hypothesis updates produced by it.
	Feed(pcm []int16) ([]Hypothesis, error)
	// Reset clears decoder state after a stop, restart or audio discontinuity.
	Reset()
	Close() error
}

type Factory func() (Recognizer, error)

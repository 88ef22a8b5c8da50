package transcript

import (
	"errors"
	"sync"
)

var ErrOutOfOrderSegment = errors.New("transcript: out-of-order segment")

// Segment is one finalized caption. Immutable once appended.
type Segment struct {
	SequenceID  uint64
	Text        string
	StartTimeMs int64
	EndTimeMs   int64
}

// Store is the append-only log of finalized segments and the source of truth
// for export. Reads take an immutable snapshot so UI/export callers never
// observe a half-appended segment.
type Store struct {
	mu       sync.RWMutex
	segments []Segment
}

func NewStore() *Store {
	return &Store{}
}

// Append enforces the append-order invariant: sequence ids strictly
// increasing, start times non-decreasing. A correctly driven assembler never
// trips this; the check is a safety net against recognizer reordering bugs.
func (s *Store) Append(seg Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.segments); n > 0 {
		last := s.segments[n-1]
		if seg.SequenceID <= last.SequenceID || seg.StartTimeMs < last.StartTimeMs {
			return ErrOutOfOrderSegment
		}
	}
	s.segments = append(s.segments, seg)
	return nil
}

// Iterate returns a fresh copy of all segments in append order.
func (s *Store) Iterate() []Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// Last returns the most recently appended segment, if any.
func (s *Store) Last() (Segment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.segments) == 0 {
		return Segment{}, false
	}
	return s.segments[len(s.segments)-1], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segments)
}

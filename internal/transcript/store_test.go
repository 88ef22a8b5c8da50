package transcript

import "testing"

func TestAppendAndIterate(t *testing.T) {
	s := NewStore()
	segs := []Segment{
		{SequenceID: 0, Text: "first", StartTimeMs: 0, EndTimeMs: 1000},
		{SequenceID: 1, Text: "second", StartTimeMs: 1500, EndTimeMs: 2500},
	}
	for _, seg := range segs {
		if err := s.Append(seg); err != nil {
			t.Fatalf("unexpected append error: %v", err)
		}
	}
	got := s.Iterate()
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got))
	}
	if got[0].Text != "first" || got[1].Text != "second" {
		t.Fatalf("unexpected segment order: %+v", got)
	}
}

func TestIterateIdempotent(t *testing.T) {
	s := NewStore()
	_ = s.Append(Segment{SequenceID: 0, Text: "a", StartTimeMs: 0, EndTimeMs: 100})
	_ = s.Append(Segment{SequenceID: 1, Text: "b", StartTimeMs: 100, EndTimeMs: 200})

	first := s.Iterate()
	second := s.Iterate()
	if len(first) != len(second) {
		t.Fatalf("expected identical lengths, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("iteration %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestIterateReturnsSnapshot(t *testing.T) {
	s := NewStore()
	_ = s.Append(Segment{SequenceID: 0, Text: "a", StartTimeMs: 0, EndTimeMs: 100})
	snap := s.Iterate()
	snap[0].Text = "mutated"
	if got := s.Iterate()[0].Text; got != "a" {
		t.Fatalf("store content changed through snapshot: %q", got)
	}
}

func TestAppendRejectsOutOfOrder(t *testing.T) {
	s := NewStore()
	_ = s.Append(Segment{SequenceID: 1, Text: "a", StartTimeMs: 1000, EndTimeMs: 2000})

	if err := s.Append(Segment{SequenceID: 1, Text: "dup", StartTimeMs: 2000, EndTimeMs: 3000}); err != ErrOutOfOrderSegment {
		t.Fatalf("expected ErrOutOfOrderSegment for duplicate sequence id, got %v", err)
	}
	if err := s.Append(Segment{SequenceID: 2, Text: "early", StartTimeMs: 500, EndTimeMs: 3000}); err != ErrOutOfOrderSegment {
		t.Fatalf("expected ErrOutOfOrderSegment for regressing start time, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("rejected segments must not be stored, len=%d", s.Len())
	}
}

func TestLast(t *testing.T) {
	s := NewStore()
	if _, ok := s.Last(); ok {
		t.Fatal("expected no last segment on empty store")
	}
	_ = s.Append(Segment{SequenceID: 0, Text: "a", StartTimeMs: 0, EndTimeMs: 100})
	last, ok := s.Last()
	if !ok || last.Text != "a" {
		t.Fatalf("unexpected last segment: %+v ok=%v", last, ok)
	}
}

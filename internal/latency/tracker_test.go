package latency

import (
	"testing"
	"time"
)

func TestSnapshotEmpty(t *testing.T) {
	tr := NewTracker(16)
	snap := tr.Snapshot()
	if snap.Chunks != 0 || snap.P50Ms != 0 || snap.P95Ms != 0 {
		t.Fatalf("expected zero aggregates on empty tracker, got %+v", snap)
	}
}

func TestSnapshotPercentiles(t *testing.T) {
	tr := NewTracker(100)
	for i := 1; i <= 100; i++ {
		tr.ObserveDuration(time.Duration(i) * time.Millisecond)
	}
	snap := tr.Snapshot()
	if snap.Chunks != 100 {
		t.Fatalf("expected 100 chunks, got %d", snap.Chunks)
	}
	if snap.P50Ms < 50 || snap.P50Ms > 52 {
		t.Fatalf("unexpected p50: %f", snap.P50Ms)
	}
	if snap.P95Ms < 95 || snap.P95Ms > 97 {
		t.Fatalf("unexpected p95: %f", snap.P95Ms)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	tr := NewTracker(10)
	for i := 0; i < 10; i++ {
		tr.ObserveDuration(time.Second)
	}
	// Overwrite the window with fast chunks; the old slow samples must age out.
	for i := 0; i < 10; i++ {
		tr.ObserveDuration(time.Millisecond)
	}
	snap := tr.Snapshot()
	if snap.P95Ms > 2 {
		t.Fatalf("old samples leaked into the window: p95=%f", snap.P95Ms)
	}
	if snap.Chunks != 20 {
		t.Fatalf("chunk counter must be cumulative, got %d", snap.Chunks)
	}
}

func TestObserveClampsNegative(t *testing.T) {
	tr := NewTracker(4)
	now := time.Now()
	tr.Observe(now.Add(time.Second), now)
	if snap := tr.Snapshot(); snap.P50Ms != 0 {
		t.Fatalf("expected clamped latency, got %+v", snap)
	}
}

package audio

import (
	"testing"
	"time"
)

func frame(seq uint64) Frame {
	return Frame{Samples: make([]int16, 4), Seq: seq, Captured: time.Now()}
}

func TestRing_FIFO(t *testing.T) {
	r := NewRing(4)
	for seq := uint64(1); seq <= 3; seq++ {
		if _, overrun, err := r.Push(frame(seq)); err != nil || overrun {
			t.Fatalf("unexpected push result: overrun=%v err=%v", overrun, err)
		}
	}
	for seq := uint64(1); seq <= 3; seq++ {
		f, ok := r.PopWait(time.Second)
		if !ok {
			t.Fatalf("expected frame %d, got timeout", seq)
		}
		if f.Seq != seq {
			t.Fatalf("expected seq %d, got %d", seq, f.Seq)
		}
	}
}

func TestRing_OverrunDropsOldest(t *testing.T) {
	r := NewRing(3)
	for seq := uint64(1); seq <= 3; seq++ {
		if _, overrun, _ := r.Push(frame(seq)); overrun {
			t.Fatalf("unexpected overrun while filling at seq %d", seq)
		}
	}

	dropped, overrun, err := r.Push(frame(4))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !overrun {
		t.Fatal("expected overrun when pushing into a full ring")
	}
	if dropped != 1 {
		t.Fatalf("expected oldest seq 1 dropped, got %d", dropped)
	}
	if r.Len() != 3 {
		t.Fatalf("expected occupancy unchanged at capacity 3, got %d", r.Len())
	}

	f, ok := r.PopWait(time.Second)
	if !ok || f.Seq != 2 {
		t.Fatalf("expected seq 2 at the head after drop, got %v ok=%v", f.Seq, ok)
	}
}

func TestRing_PopWaitTimeout(t *testing.T) {
	r := NewRing(2)
	start := time.Now()
	if _, ok := r.PopWait(20 * time.Millisecond); ok {
		t.Fatal("expected timeout on empty ring")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("PopWait returned before the timeout elapsed")
	}
}

func TestRing_CloseRejectsPushButDrains(t *testing.T) {
	r := NewRing(2)
	if _, _, err := r.Push(frame(1)); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}
	r.Close()

	if _, _, err := r.Push(frame(2)); err != ErrRingClosed {
		t.Fatalf("expected ErrRingClosed, got %v", err)
	}

	f, ok := r.PopWait(time.Second)
	if !ok || f.Seq != 1 {
		t.Fatal("expected buffered frame to drain after close")
	}
	if _, ok := r.PopWait(10 * time.Millisecond); ok {
		t.Fatal("expected no further frames after drain")
	}
}

func TestRing_CloseIdempotent(t *testing.T) {
	r := NewRing(1)
	r.Close()
	r.Close()
}

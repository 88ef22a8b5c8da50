package caption

import (
	"testing"

	"github.com/foxseedlab/jimakun/internal/recognizer"
	"github.com/foxseedlab/jimakun/internal/transcript"
)

const testSampleRate = 16000

func newTestAssembler(t *testing.T) (*Assembler, *transcript.Store) {
	t.Helper()
	store := transcript.NewStore()
	return NewAssembler(testSampleRate, store), store
}

func feed(t *testing.T, a *Assembler, updates []recognizer.Hypothesis) {
	t.Helper()
	for _, h := range updates {
		if err := a.OnHypothesis(h); err != nil {
			t.Fatalf("unexpected assembler error: %v", err)
		}
	}
}

func TestRevisedWindowProducesSingleSegment(t *testing.T) {
	a, store := newTestAssembler(t)
	feed(t, a, []recognizer.Hypothesis{
		{Text: "the", IsFinal: false, StartSample: 0, EndSample: 16000},
		{Text: "the cat", IsFinal: false, StartSample: 0, EndSample: 24000},
		{Text: "the cat sat", IsFinal: true, StartSample: 0, EndSample: 32000},
	})

	segs := store.Iterate()
	if len(segs) != 1 {
		t.Fatalf("expected exactly one segment, got %d", len(segs))
	}
	want := transcript.Segment{SequenceID: 0, Text: "the cat sat", StartTimeMs: 0, EndTimeMs: 2000}
	if segs[0] != want {
		t.Fatalf("unexpected segment: %+v", segs[0])
	}
	if _, ok := a.LiveCaption(); ok {
		t.Fatal("live caption must be cleared on finalization")
	}
}

func TestEmptyFinalClosesWindowWithoutSegment(t *testing.T) {
	a, store := newTestAssembler(t)
	feed(t, a, []recognizer.Hypothesis{
		{Text: "", IsFinal: true, StartSample: 0, EndSample: 8000},
	})

	if store.Len() != 0 {
		t.Fatalf("expected no segments for an empty final, got %d", store.Len())
	}
	if a.WindowsClosed() != 1 {
		t.Fatalf("expected window count to advance, got %d", a.WindowsClosed())
	}
	if a.WindowOpen() {
		t.Fatal("window must be closed after an empty final")
	}

	// The next non-empty final must still get sequence id 0.
	feed(t, a, []recognizer.Hypothesis{
		{Text: "hello", IsFinal: true, StartSample: 8000, EndSample: 16000},
	})
	segs := store.Iterate()
	if len(segs) != 1 || segs[0].SequenceID != 0 {
		t.Fatalf("empty finals must not consume sequence ids: %+v", segs)
	}
}

func TestPartialUpdatesReviseLiveCaption(t *testing.T) {
	a, _ := newTestAssembler(t)
	feed(t, a, []recognizer.Hypothesis{
		{Text: "hel", IsFinal: false, StartSample: 16000, EndSample: 20000},
	})
	live, ok := a.LiveCaption()
	if !ok || live.Text != "hel" || live.StartTimeMs != 1000 {
		t.Fatalf("unexpected live caption: %+v ok=%v", live, ok)
	}

	feed(t, a, []recognizer.Hypothesis{
		{Text: "hello there", IsFinal: false, StartSample: 16000, EndSample: 28000},
	})
	live, ok = a.LiveCaption()
	if !ok || live.Text != "hello there" {
		t.Fatalf("expected whole-text revision, got %+v", live)
	}
	if live.StartTimeMs != 1000 {
		t.Fatalf("revision must not move the window start, got %d", live.StartTimeMs)
	}
}

func TestFinalWithoutPriorPartials(t *testing.T) {
	a, store := newTestAssembler(t)
	feed(t, a, []recognizer.Hypothesis{
		{Text: "sudden final", IsFinal: true, StartSample: 16000, EndSample: 48000},
	})
	segs := store.Iterate()
	if len(segs) != 1 {
		t.Fatalf("expected open-and-immediately-close to produce one segment, got %d", len(segs))
	}
	if segs[0].StartTimeMs != 1000 || segs[0].EndTimeMs != 3000 {
		t.Fatalf("unexpected timestamps: %+v", segs[0])
	}
}

func TestForceFinalizeUsesProvisionalText(t *testing.T) {
	a, store := newTestAssembler(t)
	feed(t, a, []recognizer.Hypothesis{
		{Text: "cut off mid", IsFinal: false, StartSample: 0, EndSample: 16000},
	})

	produced, err := a.ForceFinalize(32000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !produced {
		t.Fatal("expected force-finalize to produce a segment")
	}
	segs := store.Iterate()
	if len(segs) != 1 || segs[0].Text != "cut off mid" {
		t.Fatalf("unexpected segments: %+v", segs)
	}
	if segs[0].EndTimeMs != 2000 {
		t.Fatalf("expected end time at the stop position, got %d", segs[0].EndTimeMs)
	}
	if _, ok := a.LiveCaption(); ok {
		t.Fatal("live caption must be cleared by force-finalize")
	}
}

func TestForceFinalizeWithoutWindowIsNoop(t *testing.T) {
	a, store := newTestAssembler(t)
	produced, err := a.ForceFinalize(16000)
	if err != nil || produced {
		t.Fatalf("expected no-op, got produced=%v err=%v", produced, err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d segments", store.Len())
	}
}

func TestForceFinalizeDiscardsEmptyProvisionalText(t *testing.T) {
	a, store := newTestAssembler(t)
	feed(t, a, []recognizer.Hypothesis{
		{Text: "   ", IsFinal: false, StartSample: 0, EndSample: 8000},
	})
	produced, err := a.ForceFinalize(16000)
	if err != nil || produced {
		t.Fatalf("expected blank window to be discarded, got produced=%v err=%v", produced, err)
	}
	if store.Len() != 0 || a.WindowsClosed() != 1 {
		t.Fatalf("expected closed empty window, segments=%d windows=%d", store.Len(), a.WindowsClosed())
	}
}

func TestNonMonotonicEndClamped(t *testing.T) {
	a, store := newTestAssembler(t)
	feed(t, a, []recognizer.Hypothesis{
		{Text: "first", IsFinal: true, StartSample: 0, EndSample: 32000},
		// Model bug: end regresses behind the previous segment's end.
		{Text: "second", IsFinal: true, StartSample: 16000, EndSample: 24000},
	})

	segs := store.Iterate()
	if len(segs) != 2 {
		t.Fatalf("expected both segments kept, got %d", len(segs))
	}
	if segs[1].EndTimeMs != segs[0].EndTimeMs {
		t.Fatalf("expected end clamped to %d, got %d", segs[0].EndTimeMs, segs[1].EndTimeMs)
	}
}

func TestLargeForwardGapAccepted(t *testing.T) {
	a, store := newTestAssembler(t)
	feed(t, a, []recognizer.Hypothesis{
		{Text: "before silence", IsFinal: true, StartSample: 0, EndSample: 16000},
		{Text: "after silence", IsFinal: true, StartSample: 16000000, EndSample: 16160000},
	})
	segs := store.Iterate()
	if len(segs) != 2 {
		t.Fatalf("expected long silences to be accepted, got %d segments", len(segs))
	}
	if segs[1].StartTimeMs != 1000000 {
		t.Fatalf("unexpected post-silence start: %d", segs[1].StartTimeMs)
	}
}

func TestSequenceIDsMatchArrivalOrder(t *testing.T) {
	a, store := newTestAssembler(t)
	texts := []string{"one", "two", "three"}
	for i, txt := range texts {
		feed(t, a, []recognizer.Hypothesis{
			{Text: txt, IsFinal: true, StartSample: uint64(i) * 16000, EndSample: uint64(i+1) * 16000},
		})
	}
	segs := store.Iterate()
	if len(segs) != len(texts) {
		t.Fatalf("expected %d segments, got %d", len(texts), len(segs))
	}
	for i, seg := range segs {
		if seg.SequenceID != uint64(i) {
			t.Fatalf("expected sequence id %d at position %d, got %d", i, i, seg.SequenceID)
		}
		if seg.Text != texts[i] {
			t.Fatalf("segment order does not match arrival order: %+v", segs)
		}
	}
}

package caption

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/foxseedlab/jimakun/internal/recognizer"
	"github.com/foxseedlab/jimakun/internal/transcript"
)

// Live is the single non-final caption shown while an utterance window is
// open. It is replaced wholesale on every revision and cleared when the
// window closes.
type Live struct {
	Text        string
	StartTimeMs int64
}

// Assembler reconciles incremental recognizer hypotheses into finalized,
// timestamped transcript segments plus one live caption. It is a strictly
// single-threaded state machine: all hypothesis input must come from the
// recognition loop. Only the live-caption projection is safe to read from
// other goroutines.
type Assembler struct {
	sampleRate int
	store      *transcript.Store

	window        *window
	windowsClosed uint64
	nextSeqID     uint64
	lastStartMs   int64
	lastEndMs     int64

	liveMu  sync.Mutex
	live    Live
	liveSet bool
}

type window struct {
	startSample uint64
	text        string
}

func NewAssembler(sampleRate int, store *transcript.Store) *Assembler {
	return &Assembler{sampleRate: sampleRate, store: store}
}

// OnHypothesis applies one recognizer update. Non-final updates open or
// revise the current window; final updates close it and, for non-empty text,
// append a segment to the store.
func (a *Assembler) OnHypothesis(h recognizer.Hypothesis) error {
	if h.IsFinal {
		start := h.StartSample
		if a.window != nil {
			start = a.window.startSample
		}
		return a.finalize(h.Text, start, h.EndSample)
	}

	if a.window == nil {
		a.window = &window{startSample: h.StartSample, text: h.Text}
	} else {
		// Revisions are whole-text replacements, never diffs.
		a.window.text = h.Text
	}
	a.setLive(Live{Text: a.window.text, StartTimeMs: a.samplesToMs(a.window.startSample)})
	return nil
}

// ForceFinalize closes an open window with its last provisional text, using
// endSample as the window end. Used on stream stop and on audio
// discontinuities, so no partial utterance is silently lost. It reports
// whether a segment was produced.
func (a *Assembler) ForceFinalize(endSample uint64) (bool, error) {
	if a.window == nil {
		return false, nil
	}
	before := a.store.Len()
	err := a.finalize(a.window.text, a.window.startSample, endSample)
	return a.store.Len() > before, err
}

func (a *Assembler) finalize(text string, startSample, endSample uint64) error {
	a.windowsClosed++
	a.window = nil
	a.clearLive()

	// Silence windows close without producing a segment and without
	// consuming a sequence id.
	if strings.TrimSpace(text) == "" {
		return nil
	}

	startMs := a.samplesToMs(startSample)
	endMs := a.samplesToMs(endSample)
	if endMs < startMs {
		slog.Warn("caption window end precedes start; clamping", "start_ms", startMs, "end_ms", endMs)
		endMs = startMs
	}
	if startMs < a.lastStartMs {
		slog.Warn("caption window starts before previous segment; clamping", "start_ms", startMs, "prev_start_ms", a.lastStartMs)
		startMs = a.lastStartMs
	}
	if endMs < a.lastEndMs {
		slog.Warn("caption window ends before previous segment end; clamping", "end_ms", endMs, "prev_end_ms", a.lastEndMs)
		endMs = a.lastEndMs
	}

	seg := transcript.Segment{
		SequenceID:  a.nextSeqID,
		Text:        text,
		StartTimeMs: startMs,
		EndTimeMs:   endMs,
	}
	a.nextSeqID++

	if err := a.store.Append(seg); err != nil {
		if !errors.Is(err, transcript.ErrOutOfOrderSegment) {
			return err
		}
		// Invariant-violation safety net: clamp against the stored tail and
		// retry rather than dropping the text.
		if last, ok := a.store.Last(); ok {
			if seg.StartTimeMs < last.StartTimeMs {
				seg.StartTimeMs = last.StartTimeMs
			}
			if seg.EndTimeMs < last.EndTimeMs {
				seg.EndTimeMs = last.EndTimeMs
			}
		}
		slog.Warn("out-of-order segment clamped and re-appended", "sequence_id", seg.SequenceID)
		if err := a.store.Append(seg); err != nil {
			return err
		}
	}

	a.lastStartMs = seg.StartTimeMs
	a.lastEndMs = seg.EndTimeMs
	return nil
}

// LiveCaption returns the current non-final caption, if one exists.
func (a *Assembler) LiveCaption() (Live, bool) {
	a.liveMu.Lock()
	defer a.liveMu.Unlock()
	return a.live, a.liveSet
}

// WindowsClosed counts every closed utterance window, including discarded
// silence windows.
func (a *Assembler) WindowsClosed() uint64 {
	return a.windowsClosed
}

// WindowOpen reports whether an utterance window is currently open.
func (a *Assembler) WindowOpen() bool {
	return a.window != nil
}

func (a *Assembler) setLive(l Live) {
	a.liveMu.Lock()
	a.live = l
	a.liveSet = true
	a.liveMu.Unlock()
}

func (a *Assembler) clearLive() {
	a.liveMu.Lock()
	a.live = Live{}
	a.liveSet = false
	a.liveMu.Unlock()
}

func (a *Assembler) samplesToMs(samples uint64) int64 {
	return int64(samples) * 1000 / int64(a.sampleRate)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/jimakun/internal/archive"
	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/foxseedlab/jimakun/internal/caption"
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/export"
	"github.com/foxseedlab/jimakun/internal/latency"
	"github.com/foxseedlab/jimakun/internal/metrics"
	"github.com/foxseedlab/jimakun/internal/recognizer"
	"github.com/foxseedlab/jimakun/internal/transcript"
	"github.com/foxseedlab/jimakun/internal/webhook"
	"github.com/rs/xid"
)

const (
	popTimeout       = 100 * time.Millisecond
	drainPopTimeout  = 10 * time.Millisecond
	finalizeTimeout  = 10 * time.Second
	eventsBufferSize = 64
)

var (
	ErrAlreadyCapturing = errors.New("pipeline: already capturing")
	ErrNotCapturing     = errors.New("pipeline: not capturing")
	ErrStreamFatal      = errors.New("pipeline: stream fatal")
)

type State int

const (
	StateIdle State = iota
	StateCapturing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type EventKind string

const (
	EventOverrun       EventKind = "overrun"
	EventDecodeFailure EventKind = "decode_failure"
	EventDiscontinuity EventKind = "discontinuity"
	EventStreamFatal   EventKind = "stream_fatal"
)

// Event is one entry of the observability stream. Publication never blocks:
// when the consumer lags, events are dropped, not the audio.
type Event struct {
	Kind       EventKind
	DroppedSeq uint64
	Err        error
	At         time.Time
}

// Pipeline owns the capture→ring→recognizer→assembler chain and its
// lifecycle (Idle → Capturing → Stopped). The recognition loop is the single
// consumer of the ring and the only goroutine that touches the recognizer and
// the assembler.
type Pipeline struct {
	cfg           *config.Config
	source        audio.Source
	newRecognizer recognizer.Factory
	store         *transcript.Store
	assembler     *caption.Assembler
	tracker       *latency.Tracker
	metrics       *metrics.Metrics
	archive       archive.Repository
	webhook       webhook.Sender

	mu            sync.Mutex
	state         State
	stopRequested bool
	sessionID     string
	startedAt     time.Time
	ring          *audio.Ring
	capture       audio.Capture
	rec           recognizer.Recognizer
	stop          chan struct{}
	done          chan struct{}
	loopErr       error

	events chan Event
}

func New(
	cfg *config.Config,
	source audio.Source,
	newRecognizer recognizer.Factory,
	store *transcript.Store,
	tracker *latency.Tracker,
	m *metrics.Metrics,
	repo archive.Repository,
	wh webhook.Sender,
) *Pipeline {
	return &Pipeline{
		cfg:           cfg,
		source:        source,
		newRecognizer: newRecognizer,
		store:         store,
		assembler:     caption.NewAssembler(cfg.SampleRate, store),
		tracker:       tracker,
		metrics:       m,
		archive:       repo,
		webhook:       wh,
		state:         StateIdle,
		events:        make(chan Event, eventsBufferSize),
	}
}

// Start opens the capture device and launches the recognition loop.
// DeviceUnavailable/FormatUnsupported from the source are fatal here and
// surfaced to the caller; nothing is retried.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateCapturing {
		p.mu.Unlock()
		return ErrAlreadyCapturing
	}
	p.state = StateCapturing
	p.stopRequested = false
	p.loopErr = nil
	p.sessionID = xid.New().String()
	p.startedAt = time.Now()
	p.ring = audio.NewRing(p.cfg.RingCapacityFrames)
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	ring := p.ring
	sessionID := p.sessionID
	p.mu.Unlock()

	rec, err := p.newRecognizer()
	if err != nil {
		p.setState(StateIdle)
		return fmt.Errorf("start recognizer: %w", err)
	}

	cb := func(f audio.Frame) { p.onFrame(ring, f) }
	capture, err := p.source.Open(p.cfg.AudioDeviceID, p.cfg.SampleRate, p.cfg.Channels, p.cfg.FrameSamples(), cb)
	if err != nil {
		_ = rec.Close()
		p.setState(StateIdle)
		return fmt.Errorf("open capture device: %w", err)
	}

	p.mu.Lock()
	p.capture = capture
	p.rec = rec
	p.mu.Unlock()

	p.metrics.PipelineState.Set(float64(StateCapturing))
	slog.Info("capture session started",
		"session_id", sessionID,
		"device_id", p.cfg.AudioDeviceID,
		"sample_rate", p.cfg.SampleRate,
		"channels", p.cfg.Channels,
		"ring_capacity", p.cfg.RingCapacityFrames)

	if err := p.archive.CreateSession(ctx, archive.CreateSessionInput{
		SessionID: sessionID,
		DeviceID:  p.cfg.AudioDeviceID,
		StartedAt: p.startedAt,
	}); err != nil {
		slog.Error("failed to archive session start", "error", err, "session_id", sessionID)
	}

	go p.runLoop(ring, rec, capture)
	return nil
}

// onFrame runs on the platform capture thread. It only pushes into the ring;
// frames arriving after the stop signal are discarded.
func (p *Pipeline) onFrame(ring *audio.Ring, f audio.Frame) {
	droppedSeq, overrun, err := ring.Push(f)
	if err != nil {
		return
	}
	p.metrics.FramesCaptured.Inc()
	p.metrics.RingOccupancy.Set(float64(ring.Len()))
	if overrun {
		p.metrics.FramesDropped.Inc()
		p.publish(Event{Kind: EventOverrun, DroppedSeq: droppedSeq, At: time.Now()})
	}
}

// Stop signals the recognition loop, drains buffered frames, force-finalizes
// any open utterance window and releases capture resources. The transcript
// store remains intact and exportable.
func (p *Pipeline) Stop(reason string) error {
	if !p.beginStop() {
		return ErrNotCapturing
	}

	slog.Info("stopping capture session", "session_id", p.sessionID, "reason", reason)
	if err := p.capture.Stop(); err != nil {
		slog.Error("failed to stop capture", "error", err, "session_id", p.sessionID)
	}
	p.ring.Close()
	close(p.stop)
	<-p.done

	_ = p.rec.Close()
	p.setState(StateStopped)
	p.finalizeSession(reason)

	p.mu.Lock()
	err := p.loopErr
	p.mu.Unlock()
	return err
}

func (p *Pipeline) runLoop(ring *audio.Ring, rec recognizer.Recognizer, capture audio.Capture) {
	defer close(p.done)

	loop := &loopState{}
	for {
		select {
		case <-p.stop:
			p.drain(ring, rec, loop)
			p.closeWindow(loop.fedSamples)
			return
		default:
		}

		f, ok := ring.PopWait(popTimeout)
		if !ok {
			continue
		}
		if fatal := p.processFrame(ring, rec, f, loop); fatal {
			p.closeWindow(loop.fedSamples)
			p.abort(capture, ring)
			return
		}
	}
}

type loopState struct {
	fedSamples uint64
	lastSeq    uint64
	failures   int
}

// drain empties the ring after the stop signal so already-captured audio is
// still captioned.
func (p *Pipeline) drain(ring *audio.Ring, rec recognizer.Recognizer, loop *loopState) {
	for {
		f, ok := ring.PopWait(drainPopTimeout)
		if !ok {
			return
		}
		if fatal := p.processFrame(ring, rec, f, loop); fatal {
			return
		}
	}
}

func (p *Pipeline) processFrame(ring *audio.Ring, rec recognizer.Recognizer, f audio.Frame, loop *loopState) (fatal bool) {
	if loop.lastSeq != 0 && f.Seq > loop.lastSeq+1 {
		missed := f.Seq - loop.lastSeq - 1
		slog.Warn("audio discontinuity detected",
			"session_id", p.sessionID, "missed_frames", missed, "seq", f.Seq)
		p.metrics.Discontinuities.Inc()
		p.publish(Event{Kind: EventDiscontinuity, DroppedSeq: f.Seq - 1, At: time.Now()})
		// Acoustic context is broken: close the current window before any
		// post-gap audio reaches the recognizer.
		p.closeWindow(loop.fedSamples)
		rec.Reset()
	}
	loop.lastSeq = f.Seq

	segsBefore := p.store.Len()
	windowsBefore := p.assembler.WindowsClosed()

	updates, err := rec.Feed(f.Samples)
	loop.fedSamples += uint64(len(f.Samples))
	if err != nil {
		loop.failures++
		p.metrics.DecodeFailures.Inc()
		p.publish(Event{Kind: EventDecodeFailure, Err: err, At: time.Now()})
		slog.Warn("recognizer decode failure",
			"error", err, "session_id", p.sessionID, "consecutive", loop.failures)
		if loop.failures >= p.cfg.MaxDecodeFailures {
			return true
		}
		rec.Reset()
		return false
	}
	loop.failures = 0

	for _, h := range updates {
		if err := p.assembler.OnHypothesis(h); err != nil {
			slog.Error("failed to apply hypothesis", "error", err, "session_id", p.sessionID)
		}
	}

	elapsed := time.Since(f.Captured)
	p.tracker.ObserveDuration(elapsed)
	p.metrics.ChunkLatency.Observe(elapsed.Seconds())
	p.metrics.RingOccupancy.Set(float64(ring.Len()))
	p.recordSegmentMetrics(segsBefore, windowsBefore)
	return false
}

func (p *Pipeline) recordSegmentMetrics(segsBefore int, windowsBefore uint64) {
	finalized := p.store.Len() - segsBefore
	if finalized > 0 {
		p.metrics.SegmentsFinalized.Add(float64(finalized))
		if last, ok := p.store.Last(); ok {
			p.metrics.SegmentDuration.Observe(float64(last.EndTimeMs-last.StartTimeMs) / 1000)
		}
	}
	closed := int(p.assembler.WindowsClosed() - windowsBefore)
	if empty := closed - finalized; empty > 0 {
		p.metrics.EmptyWindows.Add(float64(empty))
	}
}

// closeWindow force-finalizes an open utterance window at the given audio
// position so no partial caption is silently lost.
func (p *Pipeline) closeWindow(endSample uint64) {
	segsBefore := p.store.Len()
	windowsBefore := p.assembler.WindowsClosed()
	produced, err := p.assembler.ForceFinalize(endSample)
	if err != nil {
		slog.Error("failed to force-finalize caption window", "error", err, "session_id", p.sessionID)
		return
	}
	if produced {
		slog.Info("open caption window force-finalized", "session_id", p.sessionID)
	}
	p.recordSegmentMetrics(segsBefore, windowsBefore)
}

// abort is the stream-fatal path driven by the loop itself: consecutive
// decode failures exhausted the retry budget.
func (p *Pipeline) abort(capture audio.Capture, ring *audio.Ring) {
	p.mu.Lock()
	p.loopErr = fmt.Errorf("%w: %d consecutive decode failures", ErrStreamFatal, p.cfg.MaxDecodeFailures)
	p.mu.Unlock()
	p.publish(Event{Kind: EventStreamFatal, Err: ErrStreamFatal, At: time.Now()})

	if !p.beginStop() {
		// A concurrent Stop() already owns the shutdown; it will observe
		// loopErr once the loop exits.
		return
	}
	slog.Error("stream fatal: stopping session", "session_id", p.sessionID)
	if err := capture.Stop(); err != nil {
		slog.Error("failed to stop capture", "error", err, "session_id", p.sessionID)
	}
	ring.Close()
	_ = p.rec.Close()
	p.setState(StateStopped)
	p.finalizeSession("decode failure escalation")
}

// finalizeSession exports the transcript, mirrors it to the archive and
// notifies the webhook. Failures here are logged, never propagated: the
// in-memory store stays intact and exportable regardless.
func (p *Pipeline) finalizeSession(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	endedAt := time.Now()
	segments := p.store.Iterate()
	base := "transcript-" + p.sessionID

	if len(p.cfg.ExportFormats) > 0 {
		paths, err := export.WriteAll(p.cfg.ExportDir, base, p.cfg.ExportFormats, segments)
		if err != nil {
			slog.Error("failed to export transcript", "error", err, "session_id", p.sessionID)
		} else {
			slog.Info("transcript exported", "session_id", p.sessionID, "files", paths)
		}
	}

	for _, seg := range segments {
		if err := p.archive.InsertSegment(ctx, archive.InsertSegmentInput{
			SessionID:   p.sessionID,
			SequenceID:  seg.SequenceID,
			Content:     seg.Text,
			StartTimeMs: seg.StartTimeMs,
			EndTimeMs:   seg.EndTimeMs,
		}); err != nil {
			slog.Error("failed to archive segment", "error", err, "session_id", p.sessionID, "sequence_id", seg.SequenceID)
			break
		}
	}
	if err := p.archive.CompleteSession(ctx, archive.CompleteSessionInput{
		SessionID:    p.sessionID,
		EndedAt:      endedAt,
		StopReason:   reason,
		SegmentCount: len(segments),
	}); err != nil {
		slog.Error("failed to archive session completion", "error", err, "session_id", p.sessionID)
	}

	if err := p.webhook.SendTranscript(ctx, p.buildWebhookPayload(reason, endedAt, segments)); err != nil {
		slog.Error("failed to send transcript webhook", "error", err, "session_id", p.sessionID)
	}

	slog.Info("capture session finalized",
		"session_id", p.sessionID,
		"reason", reason,
		"segments", len(segments),
		"duration_sec", int64(endedAt.Sub(p.startedAt).Seconds()))
}

func (p *Pipeline) buildWebhookPayload(reason string, endedAt time.Time, segments []transcript.Segment) webhook.TranscriptWebhookPayload {
	lines := make([]string, 0, len(segments))
	whSegments := make([]webhook.TranscriptWebhookSegment, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, seg.Text)
		whSegments = append(whSegments, webhook.TranscriptWebhookSegment{
			SequenceID:  seg.SequenceID,
			StartTimeMs: seg.StartTimeMs,
			EndTimeMs:   seg.EndTimeMs,
			Text:        seg.Text,
		})
	}
	durationSeconds := int64(endedAt.Sub(p.startedAt).Seconds())
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	return webhook.TranscriptWebhookPayload{
		SchemaVersion:   webhook.TranscriptWebhookSchemaVersion,
		SessionID:       p.sessionID,
		DeviceID:        p.cfg.AudioDeviceID,
		StartedAt:       p.startedAt.Format(time.RFC3339),
		EndedAt:         endedAt.Format(time.RFC3339),
		StopReason:      reason,
		DurationSeconds: durationSeconds,
		SegmentCount:    len(segments),
		Segments:        whSegments,
		Transcript:      strings.Join(lines, "\n"),
	}
}

func (p *Pipeline) publish(e Event) {
	select {
	case p.events <- e:
	default:
	}
}

// Events exposes the overrun/decode-failure/discontinuity stream. Consumers
// that lag lose events; no control flow returns through this surface.
func (p *Pipeline) Events() <-chan Event {
	return p.events
}

// LiveCaption returns the current non-final caption, if any.
func (p *Pipeline) LiveCaption() (caption.Live, bool) {
	return p.assembler.LiveCaption()
}

// Store exposes the transcript for read-only consumers (UI, export).
func (p *Pipeline) Store() *transcript.Store {
	return p.store
}

// Snapshot returns the rolling latency/CPU aggregates.
func (p *Pipeline) Snapshot() latency.Snapshot {
	return p.tracker.Snapshot()
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) SessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID
}

func (p *Pipeline) beginStop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateCapturing || p.stopRequested {
		return false
	}
	p.stopRequested = true
	return true
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	p.metrics.PipelineState.Set(float64(s))
}

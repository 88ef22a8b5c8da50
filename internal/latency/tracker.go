package latency

import (
	"os"
	"sort"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Tracker measures per-chunk capture-to-emission latency over a bounded
// history and samples process CPU usage for the snapshot. It only observes:
// nothing in the pipeline blocks on it.
type Tracker struct {
	mu      sync.Mutex
	history []time.Duration
	next    int
	filled  int
	chunks  uint64

	proc *process.Process
}

// Snapshot is an immutable view of the rolling aggregates.
type Snapshot struct {
	Chunks     uint64
	P50Ms      float64
	P95Ms      float64
	CPUPercent float64
}

func NewTracker(historySize int) *Tracker {
	if historySize < 1 {
		historySize = 1
	}
	// Best effort: CPU sampling is skipped if the process handle is not
	// available (e.g. restricted environments).
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &Tracker{
		history: make([]time.Duration, historySize),
		proc:    proc,
	}
}

// Observe records the capture-to-emission latency of one chunk.
func (t *Tracker) Observe(captured, emitted time.Time) {
	t.ObserveDuration(emitted.Sub(captured))
}

func (t *Tracker) ObserveDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.mu.Lock()
	t.history[t.next] = d
	t.next = (t.next + 1) % len(t.history)
	if t.filled < len(t.history) {
		t.filled++
	}
	t.chunks++
	t.mu.Unlock()
}

// Snapshot returns the current rolling aggregates. Safe to call from any
// goroutine.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	chunks := t.chunks
	window := make([]time.Duration, t.filled)
	copy(window, t.history[:t.filled])
	t.mu.Unlock()

	snap := Snapshot{Chunks: chunks}
	if len(window) > 0 {
		sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
		snap.P50Ms = durationMs(percentile(window, 0.50))
		snap.P95Ms = durationMs(percentile(window, 0.95))
	}
	if t.proc != nil {
		if cpu, err := t.proc.Percent(0); err == nil {
			snap.CPUPercent = cpu
		}
	}
	return snap
}

// percentile expects sorted input and uses nearest-rank selection.
func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(p * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

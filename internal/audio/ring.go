package audio

import (
	"errors"
	"time"
)

var ErrRingClosed = errors.New("audio: ring closed")

// Ring is a bounded single-producer/single-consumer frame queue between the
// capture callback and the recognition loop. Push never blocks: when the ring
// is full the oldest frame is dropped so the OS audio thread is never stalled.
type Ring struct {
	ch     chan Frame
	closed chan struct{}
}

func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{
		ch:     make(chan Frame, capacity),
		closed: make(chan struct{}),
	}
}

// Push enqueues f without blocking. When the ring is full it drops the oldest
// frame and reports its sequence number with overrun=true. After Close it
// returns ErrRingClosed and discards f.
func (r *Ring) Push(f Frame) (droppedSeq uint64, overrun bool, err error) {
	select {
	case <-r.closed:
		return 0, false, ErrRingClosed
	default:
	}

	select {
	case r.ch <- f:
		return 0, false, nil
	default:
	}

	// Full: evict the oldest frame, then retry. With a single producer the
	// retry cannot find the ring full again.
	select {
	case old := <-r.ch:
		droppedSeq = old.Seq
		overrun = true
	default:
	}
	select {
	case r.ch <- f:
	default:
	}
	return droppedSeq, overrun, nil
}

// PopWait blocks until a frame is available or the timeout elapses. Buffered
// frames remain readable after Close so the consumer can drain on shutdown.
func (r *Ring) PopWait(timeout time.Duration) (Frame, bool) {
	select {
	case f := <-r.ch:
		return f, true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case f := <-r.ch:
		return f, true
	case <-timer.C:
		return Frame{}, false
	}
}

// Close rejects further pushes. It does not discard buffered frames.
func (r *Ring) Close() {
	select {
	case <-r.closed:
	default:
		close(r.closed)
	}
}

func (r *Ring) Len() int {
	return len(r.ch)
}

func (r *Ring) Capacity() int {
	return cap(r.ch)
}

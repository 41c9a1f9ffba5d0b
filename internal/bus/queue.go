package bus

import (
	"context"
	"sync"

	"github.com/yanun0323/errors"

	"scalper/internal/model"
)

var (
	ErrQueueFull   = errors.New("signal queue full")
	ErrQueueClosed = errors.New("signal queue closed")
)

// SignalQueue is a bounded, non-blocking queue between the detectors and
// the position engine. Momentum signals are ephemeral, so a full queue
// drops rather than blocks.
type SignalQueue struct {
	mu     sync.RWMutex
	ch     chan model.MomentumSignal
	closed bool
}

// NewSignalQueue allocates a queue with the given capacity.
func NewSignalQueue(capacity int) *SignalQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &SignalQueue{ch: make(chan model.MomentumSignal, capacity)}
}

// TryPublish enqueues a signal without blocking. The read lock pins the
// channel open for the duration of the send so a concurrent Close cannot
// close it mid-publish.
func (q *SignalQueue) TryPublish(sig model.MomentumSignal) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- sig:
		return nil
	default:
		return ErrQueueFull
	}
}

// Chan exposes the receive side for callers that drive their own select
// loop instead of Run.
func (q *SignalQueue) Chan() <-chan model.MomentumSignal {
	return q.ch
}

// Close stops the queue from accepting new signals.
func (q *SignalQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// Run consumes signals until the context is done or the queue is closed.
func (q *SignalQueue) Run(ctx context.Context, handler func(model.MomentumSignal)) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-q.ch:
			if !ok {
				return
			}
			handler(sig)
		}
	}
}

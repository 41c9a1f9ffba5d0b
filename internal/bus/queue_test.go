package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalper/internal/model"
)

func TestTryPublishDropsWhenFull(t *testing.T) {
	q := NewSignalQueue(2)
	require.NoError(t, q.TryPublish(model.MomentumSignal{Symbol: "A"}))
	require.NoError(t, q.TryPublish(model.MomentumSignal{Symbol: "B"}))

	err := q.TryPublish(model.MomentumSignal{Symbol: "C"})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestPublishAfterClose(t *testing.T) {
	q := NewSignalQueue(1)
	q.Close()
	q.Close() // idempotent

	err := q.TryPublish(model.MomentumSignal{Symbol: "A"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestPublishRacingCloseDoesNotPanic(t *testing.T) {
	q := NewSignalQueue(1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = q.TryPublish(model.MomentumSignal{Symbol: "A"})
			}
		}()
	}
	q.Close()
	wg.Wait()

	assert.ErrorIs(t, q.TryPublish(model.MomentumSignal{Symbol: "A"}), ErrQueueClosed)
}

func TestRunDrainsUntilClose(t *testing.T) {
	q := NewSignalQueue(8)
	for _, s := range []string{"A", "B", "C"} {
		require.NoError(t, q.TryPublish(model.MomentumSignal{Symbol: s}))
	}
	q.Close()

	var got []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(context.Background(), func(sig model.MomentumSignal) {
			got = append(got, sig.Symbol)
		})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not stop after close")
	}
	assert.Equal(t, []string{"A", "B", "C"}, got)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	q := NewSignalQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(ctx, func(model.MomentumSignal) {})
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

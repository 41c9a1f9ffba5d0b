package ledger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveRelease(t *testing.T) {
	l := New(100)

	require.True(t, l.Reserve(20))
	assert.Equal(t, 80.0, l.Free())
	assert.Equal(t, 100.0, l.Total())
	assert.Equal(t, 20.0, l.Locked())

	l.Release(20, 25)
	assert.Equal(t, 105.0, l.Total())
	assert.Equal(t, 105.0, l.Peak())
	assert.Equal(t, 0.0, l.Locked())
}

func TestReserveRejects(t *testing.T) {
	l := New(50)

	assert.False(t, l.Reserve(0))
	assert.False(t, l.Reserve(-1))
	assert.False(t, l.Reserve(50.01))

	require.True(t, l.Reserve(30))
	assert.False(t, l.Reserve(25), "free balance is only 20")
	assert.Equal(t, 30.0, l.Locked())
}

func TestReleaseAtLoss(t *testing.T) {
	l := New(100)
	require.True(t, l.Reserve(40))

	l.Release(40, 30)
	assert.Equal(t, 90.0, l.Total())
	assert.Equal(t, 100.0, l.Peak(), "peak never decreases")
	assert.Equal(t, 0.0, l.Locked())
}

func TestReleaseClampsDefensively(t *testing.T) {
	l := New(10)
	require.True(t, l.Reserve(10))

	// Over-released amount must not drive balances negative.
	l.Release(50, 0)
	assert.Equal(t, 0.0, l.Total())
	assert.Equal(t, 0.0, l.Locked())
}

func TestSyncTotal(t *testing.T) {
	l := New(100)
	require.True(t, l.Reserve(60))

	l.SyncTotal(40)
	assert.Equal(t, 40.0, l.Total())
	assert.Equal(t, 40.0, l.Locked(), "locked clamps to total")
	assert.Equal(t, 100.0, l.Peak())

	l.SyncTotal(250)
	assert.Equal(t, 250.0, l.Peak())
}

func TestInvariantUnderSequence(t *testing.T) {
	l := New(100)
	check := func() {
		locked, total := l.Locked(), l.Total()
		assert.GreaterOrEqual(t, locked, 0.0)
		assert.LessOrEqual(t, locked, total)
		assert.GreaterOrEqual(t, l.Peak(), total)
	}

	for _, step := range []func(){
		func() { l.Reserve(30) },
		func() { l.Reserve(80) },
		func() { l.Release(30, 45) },
		func() { l.Reserve(100) },
		func() { l.Release(100, 0) },
		func() { l.SyncTotal(5) },
		func() { l.Release(10, 2) },
	} {
		step()
		check()
	}
}

func TestConcurrentReserveNeverOverdrafts(t *testing.T) {
	l := New(100)
	var wg sync.WaitGroup
	granted := make(chan float64, 64)

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Reserve(10) {
				granted <- 10
			}
		}()
	}
	wg.Wait()
	close(granted)

	var sum float64
	for amt := range granted {
		sum += amt
	}
	assert.Equal(t, 100.0, sum, "exactly ten reservations fit")
	assert.Equal(t, 100.0, l.Locked())
	assert.Equal(t, 0.0, l.Free())
}

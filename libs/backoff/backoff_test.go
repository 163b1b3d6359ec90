package backoff_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gonano/nanogo/libs/backoff"
)

func TestWaiterReturnsWhenPredicateBecomesTrue(t *testing.T) {
	var mu sync.Mutex
	cond := sync.NewCond(&mu)
	w := backoff.New(cond, time.Millisecond, 10*time.Millisecond)

	ready := false
	go func() {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		ready = true
		mu.Unlock()
	}()

	mu.Lock()
	ok := w.Wait(func() bool { return ready }, func() bool { return false })
	mu.Unlock()

	require.True(t, ok)
}

func TestWaiterReturnsFalseWhenStopped(t *testing.T) {
	var mu sync.Mutex
	cond := sync.NewCond(&mu)
	w := backoff.New(cond, time.Millisecond, 10*time.Millisecond)

	mu.Lock()
	ok := w.Wait(func() bool { return false }, func() bool { return true })
	mu.Unlock()

	require.False(t, ok)
}

func TestWaiterCapsIntervalAtMax(t *testing.T) {
	var mu sync.Mutex
	cond := sync.NewCond(&mu)
	w := backoff.New(cond, time.Millisecond, 4*time.Millisecond)

	attempts := 0
	mu.Lock()
	w.Wait(func() bool {
		attempts++
		return attempts >= 5
	}, func() bool { return false })
	mu.Unlock()

	require.GreaterOrEqual(t, attempts, 5)
}

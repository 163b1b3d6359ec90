package bootstrap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gonano/nanogo/internal/bootstrap"
)

func TestThrottleDoesNotThrottleUntilWindowFull(t *testing.T) {
	th := bootstrap.NewThrottle(4)
	th.Resize(100) // window capacity ~40
	for i := 0; i < th.Size()-1; i++ {
		th.Add(false)
	}
	require.False(t, th.ShouldThrottle())
}

func TestThrottleThrottlesWhenWindowAllUnproductive(t *testing.T) {
	th := bootstrap.NewThrottle(1)
	th.Resize(4) // window capacity 2
	for i := 0; i < th.Size(); i++ {
		th.Add(false)
	}
	require.True(t, th.ShouldThrottle())
}

func TestThrottleStaysOpenWithAnyUsefulOutcome(t *testing.T) {
	th := bootstrap.NewThrottle(1)
	th.Resize(4)
	th.Add(true)
	for i := 1; i < th.Size(); i++ {
		th.Add(false)
	}
	require.False(t, th.ShouldThrottle())
}

func TestThrottleResizeDiscardsHistory(t *testing.T) {
	th := bootstrap.NewThrottle(1)
	th.Resize(4)
	for i := 0; i < th.Size(); i++ {
		th.Add(false)
	}
	require.True(t, th.ShouldThrottle())

	th.Resize(64)
	require.False(t, th.ShouldThrottle())
}

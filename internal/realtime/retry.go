package realtime

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the reconnect-with-refresh cycle. It is independent
// of any timer primitive so the cycle is testable without real delays.
type RetryPolicy struct {
	// MaxAttempts caps reconnect attempts per session. Exceeding it
	// forces logout instead of retrying indefinitely.
	MaxAttempts int

	// NewBackOff builds the delay schedule for one reconnect cycle.
	NewBackOff func() backoff.BackOff
}

// DefaultRetryPolicy allows 3 attempts with 1s..10s exponential delays.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		NewBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = time.Second
			bo.MaxInterval = 10 * time.Second
			bo.MaxElapsedTime = 0
			return bo
		},
	}
}

// timeAfter is time.After that fires immediately for non-positive
// durations (ZeroBackOff in tests, or a spent schedule).
func timeAfter(d time.Duration) <-chan time.Time {
	if d <= 0 {
		ch := make(chan time.Time)
		close(ch)
		return ch
	}
	return time.After(d)
}

// immediatePolicy is what tests use: same shape, zero delay.
func immediatePolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		NewBackOff:  func() backoff.BackOff { return &backoff.ZeroBackOff{} },
	}
}

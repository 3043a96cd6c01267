package ports

import (
	"context"
	"time"
)

// TimeProvider abstracts time operations for testability
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	After(d time.Duration) <-chan time.Time
}

// RealTimeProvider implements TimeProvider using standard time package
type RealTimeProvider struct{}

// NewRealTimeProvider creates a new real time provider implementation
func NewRealTimeProvider() TimeProvider {
	return &RealTimeProvider{}
}

// Now returns the current time
func (tp *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t
func (tp *RealTimeProvider) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// After returns a channel that delivers the current time after d
func (tp *RealTimeProvider) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// SleepContext waits for d on the provider's clock or until ctx is done.
func SleepContext(ctx context.Context, tp TimeProvider, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tp.After(d):
		return nil
	}
}

// IDGenerator hands out unique identifiers for presentations and slides.
type IDGenerator interface {
	NewID() string
}

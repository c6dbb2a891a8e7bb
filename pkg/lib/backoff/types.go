package backoff

import (
	"context"
	"time"
)

// Backoff waits between attempts of a repeated operation.
type Backoff interface {
	// Backoff blocks for the delay of the given attempt or until ctx is done.
	Backoff(ctx context.Context, attempts int)
	// BackoffDuration returns the delay Backoff would wait.
	BackoffDuration(attempts int) time.Duration
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Noop never waits.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) Backoff(context.Context, int) {}

func (*Noop) BackoffDuration(int) time.Duration { return 0 }

var _ Backoff = (*Noop)(nil)

package backoff

import (
	"context"
	"time"

	"github.com/samber/oops"

	apperrors "github.com/reshetovitsme/telegram-channel-archiver/internal/shared/errors"
)

type state int

const (
	stateIdle state = iota
	stateWaiting
)

// Controller decides how long to suspend a retrieval step after a provider
// failure. A flood-wait signal carries an authoritative duration which is
// honored in full and does not consume a retry attempt. Generic transient
// failures wait base*2^attempt capped at the ceiling; exceeding maxAttempts
// consecutive failures for the same page is terminal.
type Controller struct {
	base        time.Duration
	ceiling     time.Duration
	maxAttempts int

	attempt int
	state   state
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates an idle controller
func New(base, ceiling time.Duration, maxAttempts int) *Controller {
	return &Controller{
		base:        base,
		ceiling:     ceiling,
		maxAttempts: maxAttempts,
		sleep:       sleepContext,
	}
}

// Wait suspends the caller until the failed call may be retried. It returns
// nil when a retry is permitted, the context error when cancelled mid-wait,
// and an error wrapping ErrRetriesExhausted once attempts run out.
func (c *Controller) Wait(ctx context.Context, err error) error {
	if wait, ok := apperrors.AsFloodWait(err); ok {
		// The provider's duration is never second-guessed or shortened.
		return c.suspend(ctx, wait)
	}

	c.attempt++
	if c.attempt > c.maxAttempts {
		return oops.
			With("attempts", c.maxAttempts).
			With("cause", err.Error()).
			Wrap(apperrors.ErrRetriesExhausted)
	}

	return c.suspend(ctx, c.delay())
}

// Reset clears the attempt counter after a fully successful fetch.
func (c *Controller) Reset() {
	c.attempt = 0
}

// Attempts reports how many consecutive generic failures have been seen.
func (c *Controller) Attempts() int {
	return c.attempt
}

func (c *Controller) delay() time.Duration {
	d := c.base << (c.attempt - 1)
	if d <= 0 || d > c.ceiling {
		d = c.ceiling
	}
	return d
}

func (c *Controller) suspend(ctx context.Context, d time.Duration) error {
	c.state = stateWaiting
	defer func() { c.state = stateIdle }()
	return c.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

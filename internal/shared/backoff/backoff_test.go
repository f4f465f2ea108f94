package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/reshetovitsme/telegram-channel-archiver/internal/shared/errors"
)

// recordingController swaps the real sleep for a recorder so tests observe
// exact wait durations without slowing down.
func recordingController(base, ceiling time.Duration, maxAttempts int) (*Controller, *[]time.Duration) {
	c := New(base, ceiling, maxAttempts)
	waits := &[]time.Duration{}
	c.sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return c, waits
}

func TestFloodWaitIsHonoredExactly(t *testing.T) {
	c, waits := recordingController(time.Second, 60*time.Second, 5)

	err := c.Wait(context.Background(), &apperrors.FloodWaitError{Wait: 30 * time.Second})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{30 * time.Second}, *waits)
	assert.Equal(t, 0, c.Attempts(), "flood wait must not consume a retry attempt")
}

func TestExponentialBackoffSequence(t *testing.T) {
	c, waits := recordingController(time.Second, 60*time.Second, 10)
	transient := errors.New("connection reset")

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Wait(context.Background(), transient))
	}

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, *waits)
}

func TestBackoffIsCappedAtCeiling(t *testing.T) {
	c, waits := recordingController(time.Second, 60*time.Second, 20)
	transient := errors.New("timeout")

	for i := 0; i < 10; i++ {
		require.NoError(t, c.Wait(context.Background(), transient))
	}

	last := (*waits)[len(*waits)-1]
	assert.Equal(t, 60*time.Second, last)
	for _, w := range *waits {
		assert.LessOrEqual(t, w, 60*time.Second)
	}
}

func TestResetRestartsTheSequence(t *testing.T) {
	c, waits := recordingController(time.Second, 60*time.Second, 10)
	transient := errors.New("timeout")

	require.NoError(t, c.Wait(context.Background(), transient))
	require.NoError(t, c.Wait(context.Background(), transient))
	c.Reset()
	require.NoError(t, c.Wait(context.Background(), transient))

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, time.Second}, *waits)
}

func TestFloodWaitDoesNotAdvanceBackoffSequence(t *testing.T) {
	c, waits := recordingController(time.Second, 60*time.Second, 10)

	require.NoError(t, c.Wait(context.Background(), errors.New("timeout")))
	require.NoError(t, c.Wait(context.Background(), &apperrors.FloodWaitError{Wait: 5 * time.Second}))
	require.NoError(t, c.Wait(context.Background(), errors.New("timeout")))

	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 2 * time.Second}, *waits)
}

func TestExhaustedAttemptsAreTerminal(t *testing.T) {
	c, _ := recordingController(time.Millisecond, time.Second, 3)
	transient := errors.New("timeout")

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Wait(context.Background(), transient))
	}

	err := c.Wait(context.Background(), transient)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRetriesExhausted)
}

func TestWaitStopsOnCancelledContext(t *testing.T) {
	c := New(time.Minute, time.Hour, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Wait(ctx, errors.New("timeout"))
	assert.ErrorIs(t, err, context.Canceled)
}

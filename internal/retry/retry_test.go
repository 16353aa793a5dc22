package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithBackoffSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithBackoffRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithBackoffExhaustsAttempts(t *testing.T) {
	calls := 0
	wantErr := errors.New("still broken")
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
}

func TestWithBackoffPermanentStopsImmediately(t *testing.T) {
	calls := 0
	wantErr := errors.New("HTTP 404: not found")
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		return Permanent(wantErr)
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls, "a permanent error must not be retried")
}

func TestWithBackoffContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	cfg := fastConfig()
	cfg.InitialDelay = time.Hour // cancellation must cut the sleep short
	err := WithBackoff(ctx, cfg, func() error {
		calls++
		cancel()
		return errors.New("transient")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}

func TestAddJitterBounds(t *testing.T) {
	base := 1 * time.Second
	for i := 0; i < 200; i++ {
		d := AddJitter(base, 20)
		assert.GreaterOrEqual(t, d, 800*time.Millisecond)
		assert.LessOrEqual(t, d, 1200*time.Millisecond)
	}
}

func TestAddJitterPassthrough(t *testing.T) {
	assert.Equal(t, time.Duration(0), AddJitter(0, 20))
	assert.Equal(t, time.Second, AddJitter(time.Second, 0))
}

func TestSleep(t *testing.T) {
	t.Run("zero duration returns immediately", func(t *testing.T) {
		require.NoError(t, Sleep(context.Background(), 0))
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	})
}

func TestBackoffDelayCapped(t *testing.T) {
	cfg := Config{
		MaxAttempts:  10,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
	// Attempt 8 would be 128s uncapped; the cap plus 20% jitter bounds it.
	d := backoffDelay(cfg, 8)
	assert.LessOrEqual(t, d, 12*time.Second)
	assert.GreaterOrEqual(t, d, 8*time.Second)
}

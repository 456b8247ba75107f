package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// noSleep records requested waits without actually sleeping.
func noSleep(waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	var waits []time.Duration
	calls := 0

	out, err := Do(context.Background(), zap.NewNop(), "extract", Policy{Sleep: noSleep(&waits)},
		func(context.Context) (string, error) {
			calls++
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, calls)
	assert.Empty(t, waits)
}

func TestDoExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	var waits []time.Duration
	calls := 0
	boom := errors.New("adapter down")

	_, err := Do(context.Background(), zap.NewNop(), "source", Policy{Sleep: noSleep(&waits)},
		func(context.Context) (int, error) {
			calls++
			return 0, boom
		})

	// Exactly MaxAttempts calls, no more, and the original error unchanged.
	assert.Equal(t, DefaultMaxAttempts, calls)
	assert.Same(t, boom, err)
	assert.Len(t, waits, DefaultMaxAttempts-1)
}

func TestDoRecoversOnLaterAttempt(t *testing.T) {
	var waits []time.Duration
	calls := 0

	out, err := Do(context.Background(), zap.NewNop(), "score", Policy{Sleep: noSleep(&waits)},
		func(context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("flaky")
			}
			return 42, nil
		})

	require.NoError(t, err)
	assert.Equal(t, 42, out)
	assert.Equal(t, 3, calls)
}

func TestBackoffWaitsAreExponentialAndCapped(t *testing.T) {
	var waits []time.Duration

	p := Policy{
		MaxAttempts: 6,
		Multiplier:  1 * time.Second,
		WaitMax:     10 * time.Second,
		Sleep:       noSleep(&waits),
	}

	_, err := Do(context.Background(), zap.NewNop(), "pitch", p,
		func(context.Context) (struct{}, error) {
			return struct{}{}, errors.New("always fails")
		})
	require.Error(t, err)

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second, // capped at WaitMax
	}
	assert.Equal(t, want, waits)
}

func TestDoStopsWhenContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	boom := errors.New("down")

	_, err := Do(ctx, zap.NewNop(), "export", Policy{
		Sleep: func(context.Context, time.Duration) error {
			cancel()
			return context.Canceled
		},
	}, func(context.Context) (string, error) {
		calls++
		return "", boom
	})

	assert.Equal(t, 1, calls)
	// The stage error wins over the bare cancellation.
	assert.Same(t, boom, err)
}

func TestDoCancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, zap.NewNop(), "extract", Policy{},
		func(context.Context) (string, error) {
			calls++
			return "", nil
		})

	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

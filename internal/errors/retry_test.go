package errors

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxRetries:   2,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Multiplier:   2.0,
	}
}

// retry runs fn through RetryWithResult for tests that only care about the error.
func retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := RetryWithResult(ctx, cfg, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

func TestRetry_SucceedsAfterTransientError(t *testing.T) {
	// Given: a function that fails twice then succeeds
	attempts := 0
	fn := func() error {
		attempts++
		if attempts < 3 {
			return TransportError("connection reset", nil)
		}
		return nil
	}

	// When: retrying with the default predicate
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = 5 * time.Millisecond

	err := retry(context.Background(), cfg, fn)

	// Then: succeeds after 3 attempts
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_FailsAfterMaxRetries(t *testing.T) {
	attempts := 0
	fn := func() error {
		attempts++
		return errors.New("persistent error")
	}

	err := retry(context.Background(), fastRetry(), fn)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, 3, attempts) // Initial + 2 retries
}

func TestRetry_StopsOnNonRetryableError(t *testing.T) {
	// Given: a predicate that only retries transport failures
	cfg := fastRetry()
	cfg.Retryable = IsRetryable

	attempts := 0
	err := retry(context.Background(), cfg, func() error {
		attempts++
		return InvalidInput("empty term")
	})

	// Then: the error comes back untouched after one attempt
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotContains(t, err.Error(), "retries")
}

func TestRetry_ZeroRetriesReturnsBareError(t *testing.T) {
	cfg := fastRetry()
	cfg.MaxRetries = 0

	sentinel := errors.New("boom")
	err := retry(context.Background(), cfg, func() error { return sentinel })
	assert.Equal(t, sentinel, err)
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	cfg := fastRetry()
	cfg.InitialDelay = 500 * time.Millisecond

	start := time.Now()
	err := retry(ctx, cfg, func() error { return errors.New("error") })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestRetry_AlreadyCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	err := retry(ctx, fastRetry(), func() error {
		calls.Add(1)
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}

func TestRetry_ExponentialBackoff(t *testing.T) {
	// Given: timestamps of each attempt
	var stamps []time.Time
	cfg := RetryConfig{
		MaxRetries:   3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}

	_ = retry(context.Background(), cfg, func() error {
		stamps = append(stamps, time.Now())
		return errors.New("fail")
	})

	// Then: gaps grow (10ms, 20ms, 40ms)
	require.Len(t, stamps, 4)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 10*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[3].Sub(stamps[2]), 40*time.Millisecond)
}

func TestRetryWithResult_ReturnsValue(t *testing.T) {
	attempts := 0
	got, err := RetryWithResult(context.Background(), fastRetry(), func() ([]string, error) {
		attempts++
		if attempts == 1 {
			return nil, StatusError(503, "")
		}
		return []string{"52772", "52940"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"52772", "52940"}, got)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithResult_ReturnsZeroOnFailure(t *testing.T) {
	got, err := RetryWithResult(context.Background(), fastRetry(), func() (int, error) {
		return 42, errors.New("always")
	})

	assert.Error(t, err)
	assert.Zero(t, got)
}

func TestDefaultRetryConfig_HasSensibleDefaults(t *testing.T) {
	cfg := DefaultRetryConfig()

	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 2.0, cfg.Multiplier)
	assert.True(t, cfg.Jitter)
	require.NotNil(t, cfg.Retryable)
	assert.True(t, cfg.Retryable(TransportError("x", nil)))
	assert.False(t, cfg.Retryable(InvalidInput("x")))
}

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	r := New(WithInitialDelay(time.Millisecond))

	attempts := 0
	err := r.Do(context.Background(), func(_ context.Context) error {
		attempts++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_RetriesRetryableErrors(t *testing.T) {
	r := New(WithMaxAttempts(3), WithInitialDelay(time.Millisecond))

	attempts := 0
	err := r.Do(context.Background(), func(_ context.Context) error {
		attempts++
		if attempts < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	r := New(WithMaxAttempts(2), WithInitialDelay(time.Millisecond))

	attempts := 0
	wantErr := errors.New("still failing")
	err := r.Do(context.Background(), func(_ context.Context) error {
		attempts++
		return Retryable(wantErr)
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 2, attempts)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	r := New(WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	attempts := 0
	wantErr := errors.New("bad request")
	err := r.Do(context.Background(), func(_ context.Context) error {
		attempts++
		return Permanent(wantErr)
	})

	assert.Equal(t, wantErr, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_PlainErrorNotRetried(t *testing.T) {
	r := New(WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	attempts := 0
	err := r.Do(context.Background(), func(_ context.Context) error {
		attempts++
		return errors.New("plain")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_CancelledContext(t *testing.T) {
	r := New(WithMaxAttempts(3), WithInitialDelay(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := r.Do(ctx, func(_ context.Context) error {
		attempts++
		return Retryable(errors.New("transient"))
	})

	assert.Error(t, err)
	assert.Equal(t, 0, attempts)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var retried []int
	r := New(
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithOnRetry(func(attempt int, _ error, _ time.Duration) {
			retried = append(retried, attempt)
		}),
	)

	r.Do(context.Background(), func(_ context.Context) error {
		return Retryable(errors.New("transient"))
	})

	assert.Equal(t, []int{1, 2}, retried)
}

func TestErrorWrapping(t *testing.T) {
	inner := errors.New("inner")

	assert.True(t, IsRetryable(Retryable(inner)))
	assert.False(t, IsRetryable(Permanent(inner)))
	assert.True(t, IsPermanent(Permanent(inner)))
	assert.False(t, IsPermanent(Retryable(inner)))

	assert.ErrorIs(t, Retryable(inner), inner)
	assert.ErrorIs(t, Permanent(inner), inner)

	assert.Nil(t, Retryable(nil))
	assert.Nil(t, Permanent(nil))
}

func TestDelayFor_BackoffGrowsAndCaps(t *testing.T) {
	r := New(
		WithMaxAttempts(10),
		WithInitialDelay(10*time.Millisecond),
		WithMaxDelay(40*time.Millisecond),
	)
	r.config.JitterFactor = 0

	assert.Equal(t, 10*time.Millisecond, r.delayFor(1))
	assert.Equal(t, 20*time.Millisecond, r.delayFor(2))
	assert.Equal(t, 40*time.Millisecond, r.delayFor(3))
	assert.Equal(t, 40*time.Millisecond, r.delayFor(4))
}

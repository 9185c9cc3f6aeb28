package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func failing(_ context.Context) error { return errBoom }
func succeeding(_ context.Context) error { return nil }

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := New("test")

	assert.Equal(t, StateClosed, cb.State())
	assert.NoError(t, cb.Execute(context.Background(), succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
		assert.Equal(t, StateClosed, cb.State())
	}

	assert.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	// Requests are blocked without invoking the function.
	called := false
	err := cb.Execute(ctx, func(_ context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := New("test", WithFailureThreshold(2))
	ctx := context.Background()

	cb.Execute(ctx, failing)
	cb.Execute(ctx, succeeding)
	cb.Execute(ctx, failing)

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cb := New("test", WithFailureThreshold(1), WithTimeout(5*time.Millisecond))
	cb.config.SuccessThreshold = 1
	ctx := context.Background()

	cb.Execute(ctx, failing)
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(10 * time.Millisecond)

	// First request after the timeout probes the backend and closes on success.
	assert.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := New("test", WithFailureThreshold(1), WithTimeout(5*time.Millisecond))
	ctx := context.Background()

	cb.Execute(ctx, failing)
	time.Sleep(10 * time.Millisecond)

	assert.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_CustomIsFailure(t *testing.T) {
	errIgnored := errors.New("not a real failure")
	cb := New("test",
		WithFailureThreshold(1),
		WithIsFailure(func(err error) bool { return !errors.Is(err, errIgnored) }),
	)
	ctx := context.Background()

	cb.Execute(ctx, func(_ context.Context) error { return errIgnored })
	assert.Equal(t, StateClosed, cb.State())

	cb.Execute(ctx, failing)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	type transition struct{ from, to State }
	var transitions []transition

	cb := New("claude",
		WithFailureThreshold(1),
		WithOnStateChange(func(name string, from, to State) {
			assert.Equal(t, "claude", name)
			transitions = append(transitions, transition{from, to})
		}),
	)

	cb.Execute(context.Background(), failing)

	assert.Equal(t, []transition{{StateClosed, StateOpen}}, transitions)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(99).String())
}

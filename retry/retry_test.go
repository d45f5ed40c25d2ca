package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	calls int
	seen  []string
}

// failUntil returns an operation that fails on calls 1..k-1 and succeeds on call k.
func failUntil(c *counter, k int) Operation[string, int] {
	return func(_ context.Context, arg string) (int, error) {
		c.calls++
		c.seen = append(c.seen, arg)
		if c.calls < k {
			return -1, fmt.Errorf("attempt %d failed", c.calls)
		}
		return c.calls * 10, nil
	}
}

func TestDoSucceedsOnAttemptK(t *testing.T) {
	for k := 1; k <= 5; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			c := &counter{}
			got, err := Do(context.Background(), 5, failUntil(c, k), "args")
			require.NoError(t, err)
			assert.Equal(t, k*10, got)
			assert.Equal(t, k, c.calls)
		})
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	c := &counter{}
	got, err := Do(context.Background(), 4, failUntil(c, 100), "args")
	require.Error(t, err)
	assert.Equal(t, 4, c.calls)
	assert.Equal(t, "attempt 4 failed", err.Error())
	assert.Zero(t, got, "result of a failed attempt must not leak")
}

func TestDoReturnsLastErrorVerbatim(t *testing.T) {
	last := errors.New("last")
	calls := 0
	op := func(context.Context, struct{}) (string, error) {
		calls++
		if calls == 3 {
			return "", last
		}
		return "", errors.New("earlier")
	}

	_, err := Do(context.Background(), 3, op, struct{}{})
	assert.Same(t, last, err)
}

func TestDoPassesIdenticalArgs(t *testing.T) {
	c := &counter{}
	_, err := Do(context.Background(), 3, failUntil(c, 100), "same")
	require.Error(t, err)
	assert.Equal(t, []string{"same", "same", "same"}, c.seen)
}

func TestDoNonPositiveAttemptsRunsOnce(t *testing.T) {
	for _, n := range []int{0, -3} {
		c := &counter{}
		_, err := Do(context.Background(), n, failUntil(c, 100), "x")
		require.Error(t, err)
		assert.Equal(t, 1, c.calls)
	}
}

func TestDoDoesNotStopOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	op := func(ctx context.Context, _ int) (int, error) {
		calls++
		return 0, ctx.Err()
	}

	_, err := Do(ctx, 3, op, 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, calls)
}

package sentiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffExponentialWithCap(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second}
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
	assert.Equal(t, 8*time.Second, p.Backoff(3))
	assert.Equal(t, 10*time.Second, p.Backoff(4))
	assert.Equal(t, 10*time.Second, p.Backoff(30))
}

func TestBackoffJitterBounds(t *testing.T) {
	p := DefaultRetryPolicy()
	for i := 0; i < 200; i++ {
		d := p.Backoff(2)
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.LessOrEqual(t, d, 4*time.Second)
	}
}

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	err := fastRetry.Do(context.Background(), func(context.Context, int) error {
		calls++
		if calls == 2 {
			return nil
		}
		return errors.New("again")
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoReturnsLastError(t *testing.T) {
	var retries []int
	err := fastRetry.Do(context.Background(), func(_ context.Context, n int) error {
		return errors.New("fail")
	}, func(n int, _ error, _ time.Duration) { retries = append(retries, n) })
	assert.EqualError(t, err, "fail")
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDoPermanent(t *testing.T) {
	base := errors.New("forbidden")
	calls := 0
	err := fastRetry.Do(context.Background(), func(context.Context, int) error {
		calls++
		return Permanent(base)
	}, nil)
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(err))
	assert.Equal(t, 1, calls)
	assert.True(t, IsPermanent(Permanent(base)))
	assert.Nil(t, Permanent(nil))
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := p.Do(ctx, func(context.Context, int) error {
		calls++
		return errors.New("down")
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

package retrier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fast(opts ...Option) *Backoff {
	return New(append([]Option{WithInitialInterval(time.Millisecond), WithMaxInterval(2 * time.Millisecond)}, opts...)...)
}

func TestBackoff_Do(t *testing.T) {
	t.Run("success on first attempt", func(t *testing.T) {
		attempts := 0
		err := fast().Do(context.Background(), func(context.Context) error {
			attempts++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("success after retries", func(t *testing.T) {
		attempts := 0
		err := fast(WithMaxRetries(3)).Do(context.Background(), func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("503")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("returns the last error when retries are used up", func(t *testing.T) {
		attempts := 0
		err := fast(WithMaxRetries(2)).Do(context.Background(), func(context.Context) error {
			attempts++
			return errors.New("still down")
		})
		assert.EqualError(t, err, "still down")
		assert.Equal(t, 3, attempts)
	})

	t.Run("permanent errors stop immediately", func(t *testing.T) {
		notFound := errors.New("404")
		attempts := 0
		err := fast(WithMaxRetries(5)).Do(context.Background(), func(context.Context) error {
			attempts++
			return Permanent(notFound)
		})
		assert.Equal(t, notFound, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("canceled context stops waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		b := New(WithInitialInterval(time.Hour), WithMaxRetries(1))
		err := b.Do(ctx, func(context.Context) error {
			cancel()
			return errors.New("fail")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDoWithData(t *testing.T) {
	attempts := 0
	v, err := DoWithData(context.Background(), fast(), func(context.Context) (int, error) {
		attempts++
		if attempts == 1 {
			return 0, errors.New("flaky")
		}
		return 42, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, v)
}

// Package retrier retries transient failures of outbound calls with
// exponential backoff and jitter.
package retrier

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Backoff retries a function with exponentially growing pauses.
type Backoff struct {
	initial    time.Duration
	max        time.Duration
	multiplier float64
	retries    int
	jitter     float64
}

// Option configures a Backoff.
type Option func(*Backoff)

// WithInitialInterval sets the pause before the first retry.
func WithInitialInterval(d time.Duration) Option {
	return func(b *Backoff) {
		b.initial = d
	}
}

// WithMaxInterval caps the pause between retries.
func WithMaxInterval(d time.Duration) Option {
	return func(b *Backoff) {
		b.max = d
	}
}

// WithMaxRetries sets how many retries follow the first attempt.
func WithMaxRetries(n int) Option {
	return func(b *Backoff) {
		b.retries = n
	}
}

// WithJitter sets the jitter factor in [0, 1].
func WithJitter(j float64) Option {
	return func(b *Backoff) {
		b.jitter = j
	}
}

// New returns a Backoff with two retries starting at 250ms.
func New(opts ...Option) *Backoff {
	b := &Backoff{
		initial:    250 * time.Millisecond,
		max:        5 * time.Second,
		multiplier: 2,
		retries:    2,
		jitter:     0.2,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do calls fn until it succeeds, returns a Permanent error, the retries are
// used up or ctx is done.
func (b *Backoff) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	interval := b.initial
	var err error

	for attempt := 0; attempt <= b.retries; attempt++ {
		if attempt > 0 {
			pause := time.Duration(float64(interval) * (1 + (rand.Float64()*2-1)*b.jitter))
			timer := time.NewTimer(max(pause, 0))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			interval = min(time.Duration(float64(interval)*b.multiplier), b.max)
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
	}
	return err
}

// DoWithData is Do for functions returning a value.
func DoWithData[T any](ctx context.Context, b *Backoff, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := b.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

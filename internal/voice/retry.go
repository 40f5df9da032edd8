package voice

import (
	"context"
	"errors"
	"log"
	"time"
)

// Retry schedule defaults: the first failure is retried after baseDelay,
// the second after 2×baseDelay, then the dispatcher falls back.
const (
	DefaultMaxRetries = 2
	DefaultRetryDelay = 1 * time.Second
)

// Retrier wraps a Synthesizer with a bounded linear-backoff retry policy.
// Invalid-input failures are not retried: the same text will not become
// valid on a second attempt.
type Retrier struct {
	inner      Synthesizer
	maxRetries int
	baseDelay  time.Duration
	logger     *log.Logger
}

// NewRetrier wraps inner with the default retry policy.
func NewRetrier(inner Synthesizer, logger *log.Logger) *Retrier {
	return &Retrier{
		inner:      inner,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultRetryDelay,
		logger:     logger,
	}
}

// Name implements Synthesizer.
func (r *Retrier) Name() string { return r.inner.Name() }

// Synthesize implements Synthesizer. It attempts the wrapped synthesizer up
// to 1+maxRetries times, sleeping baseDelay×attempt between attempts, and
// aborts immediately when ctx is canceled so a stopped session never leaves
// a dangling retry timer.
func (r *Retrier) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * r.baseDelay
			r.logger.Printf("Retrier: %s attempt %d/%d in %v (%q): %v",
				r.inner.Name(), attempt+1, r.maxRetries+1, delay, text, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		audio, err := r.inner.Synthesize(ctx, text)
		if err == nil {
			return audio, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

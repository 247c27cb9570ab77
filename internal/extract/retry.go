package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"oshikake/internal/port"
)

// Retrier wraps an extractor with a bounded retry policy. Retry is a
// deployment decision, not part of the extractor contract: a MaxAttempts
// of 1 makes the Retrier a transparent passthrough.
type Retrier struct {
	inner       port.OrderExtractor
	maxAttempts int
	backoffBase time.Duration
}

// NewRetrier creates a Retrier. maxAttempts < 1 is treated as 1;
// backoffBase <= 0 defaults to 2s.
func NewRetrier(inner port.OrderExtractor, maxAttempts int, backoffBase time.Duration) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if backoffBase <= 0 {
		backoffBase = 2 * time.Second
	}
	return &Retrier{inner: inner, maxAttempts: maxAttempts, backoffBase: backoffBase}
}

// Extract calls the wrapped extractor up to maxAttempts times with
// exponential backoff between attempts. A rate-limit error's retry-after
// hint overrides the computed delay.
func (r *Retrier) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		out, err := r.inner.Extract(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt == r.maxAttempts {
			break
		}

		delay := r.backoffBase << (attempt - 1)
		var rlErr *RateLimitError
		if errors.As(err, &rlErr) && rlErr.RetryAfter > delay {
			delay = rlErr.RetryAfter
		}
		log.Printf("extract.Retrier: attempt %d/%d failed, retrying in %s: %v",
			attempt, r.maxAttempts, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("extraction failed after %d attempts: %w", r.maxAttempts, lastErr)
}

package extraction

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// RetryPolicy wraps a single fallible oracle call with bounded retries and
// backoff. A blank response counts as a failure and is retried like an error.
type RetryPolicy struct {
	MaxRetries int
	Backoff    func(attempt int) time.Duration
}

// ExponentialBackoff returns base^attempt seconds.
func ExponentialBackoff(base float64) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(math.Pow(base, float64(attempt)) * float64(time.Second))
	}
}

// Do invokes call until it returns a non-blank response, retrying up to
// MaxRetries additional attempts. The last error (or a synthetic empty-response
// error) is returned once attempts are exhausted or the context ends.
func (p RetryPolicy) Do(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	backoff := p.Backoff
	if backoff == nil {
		backoff = ExponentialBackoff(2)
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		resp, err := call(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}
		if strings.TrimSpace(resp) == "" {
			lastErr = fmt.Errorf("empty response from model")
			continue
		}
		return resp, nil
	}

	return "", lastErr
}

package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider retries rate-limited and unavailable calls with
// exponential backoff. Auth failures, refused requests and bad replies
// fail on the first attempt; they will not change on a second try.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps p. Each try sees its number through AttemptFrom.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(withAttempt(ctx, attempt), req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == r.config.MaxAttempts {
			return nil, err
		}
		wait, ok := r.wait(attempt, err)
		if !ok {
			return nil, err
		}
		// Sleeping past the deadline would only turn the provider's
		// error into a timeout.
		if deadline, has := ctx.Deadline(); has && time.Until(deadline) < wait {
			return nil, err
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

func (r *RetryProvider) Name() string { return r.inner.Name() }

// wait returns the pause before the next attempt, or false when err is not
// worth another try.
func (r *RetryProvider) wait(attempt int, err error) (time.Duration, bool) {
	var pe *Error
	if !errors.As(err, &pe) || !pe.Transient() {
		return 0, false
	}
	if pe.RetryAfter > 0 {
		if r.config.MaxWait > 0 && pe.RetryAfter > r.config.MaxWait {
			return 0, false
		}
		return pe.RetryAfter, true
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt-1))
	if r.config.MaxWait > 0 {
		wait = math.Min(wait, float64(r.config.MaxWait))
	}
	// ±20% jitter
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(math.Max(wait, 0)), true
}

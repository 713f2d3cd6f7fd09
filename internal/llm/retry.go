package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// retrying retries transient failures with exponential backoff and
// jitter, and gives invalid output one more attempt.
type retrying struct {
	inner   Provider
	cfg     RetryConfig
	timeout time.Duration
	sleep   func(context.Context, time.Duration) error
}

// WithRetry wraps p. timeout, when positive, bounds the whole call
// including waits.
func WithRetry(p Provider, cfg RetryConfig, timeout time.Duration) Provider {
	return &retrying{inner: p, cfg: cfg, timeout: timeout, sleep: sleepCtx}
}

func (r *retrying) Model() string { return r.inner.Model() }

func (r *retrying) Complete(ctx context.Context, req Request) (*Completion, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	reshaped := false
	for attempt := 1; ; attempt++ {
		c, err := r.inner.Complete(ctx, req)
		if err == nil {
			return c, nil
		}

		var invalid *InvalidOutputError
		retry := Transient(err)
		if !retry && !reshaped && errors.As(err, &invalid) {
			retry, reshaped = true, true
		}
		if !retry || attempt >= r.cfg.MaxAttempts {
			return nil, err
		}
		if err := r.sleep(ctx, r.delay(attempt, err)); err != nil {
			return nil, err
		}
	}
}

// delay is the wait before retry number attempt (1-based).
func (r *retrying) delay(attempt int, err error) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	d := float64(r.cfg.InitialWait) * math.Pow(r.cfg.Multiplier, float64(attempt-1))
	d = math.Min(d, float64(r.cfg.MaxWait))
	d *= 0.8 + 0.4*rand.Float64()
	return time.Duration(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

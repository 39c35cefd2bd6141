// Package retry provides the bounded retry policy used for per-attempt
// transport failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/decisionflow/types"
)

// Policy configures exponential backoff with optional jitter.
type Policy struct {
	// MaxRetries is the number of re-executions after the first try
	// (0 means no retry).
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter spreads delays by ±25% so concurrent attempts do not
	// retry in lockstep.
	Jitter bool
	// RetryableOnly limits retries to errors marked retryable via
	// types.IsRetryable. Parse failures never come through here; this
	// guards against retrying non-transient transport errors.
	RetryableOnly bool
	// OnRetry is invoked before each re-execution.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy is tuned for generation API calls inside a batch time
// budget: a single quick retry.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxRetries:    1,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		Multiplier:    2.0,
		Jitter:        true,
		RetryableOnly: true,
	}
}

// Retryer executes a function, retrying per policy.
type Retryer interface {
	Do(ctx context.Context, fn func() error) error
	DoWithResult(ctx context.Context, fn func() (any, error)) (any, error)
}

type backoffRetryer struct {
	policy *Policy
	logger *zap.Logger
}

// NewBackoffRetryer creates an exponential-backoff retryer.
func NewBackoffRetryer(policy *Policy, logger *zap.Logger) Retryer {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = 200 * time.Millisecond
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 2 * time.Second
	}
	if policy.Multiplier < 1.0 {
		policy.Multiplier = 2.0
	}
	return &backoffRetryer{policy: policy, logger: logger}
}

func (r *backoffRetryer) Do(ctx context.Context, fn func() error) error {
	_, err := r.DoWithResult(ctx, func() (any, error) {
		return nil, fn()
	})
	return err
}

func (r *backoffRetryer) DoWithResult(ctx context.Context, fn func() (any, error)) (any, error) {
	var lastErr error
	var result any

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.calculateDelay(attempt)

			r.logger.Debug("retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", r.policy.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)

			if r.policy.OnRetry != nil {
				r.policy.OnRetry(attempt, lastErr, delay)
			}

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		result, lastErr = fn()
		if lastErr == nil {
			if attempt > 0 {
				r.logger.Debug("retry succeeded", zap.Int("attempt", attempt))
			}
			return result, nil
		}

		if !r.isRetryable(lastErr) {
			return nil, lastErr
		}
		if attempt >= r.policy.MaxRetries {
			break
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", r.policy.MaxRetries, lastErr)
}

func (r *backoffRetryer) calculateDelay(attempt int) time.Duration {
	delay := float64(r.policy.InitialDelay) * math.Pow(r.policy.Multiplier, float64(attempt-1))
	if delay > float64(r.policy.MaxDelay) {
		delay = float64(r.policy.MaxDelay)
	}
	if r.policy.Jitter {
		jitter := delay * 0.25
		delay = delay + (rand.Float64()*2-1)*jitter
	}
	if delay < float64(r.policy.InitialDelay) {
		delay = float64(r.policy.InitialDelay)
	}
	return time.Duration(delay)
}

func (r *backoffRetryer) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if !r.policy.RetryableOnly {
		return true
	}
	var te *types.Error
	if errors.As(err, &te) {
		return te.Retryable
	}
	// Unclassified errors from the provider boundary are treated as
	// transient.
	return true
}

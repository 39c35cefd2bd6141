package decision

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/decisionflow/internal/pool"
	"github.com/BaSui01/decisionflow/llm"
	"github.com/BaSui01/decisionflow/llm/retry"
)

// RunnerConfig tunes attempt fan-out.
type RunnerConfig struct {
	// MaxConcurrency caps in-flight generation calls independently of
	// the number of voting rounds; excess attempts queue.
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency"`
	QueueSize      int `json:"queue_size" yaml:"queue_size"`

	// MaxTransportRetries bounds per-attempt retries of transport
	// failures. Parse failures are never retried.
	MaxTransportRetries int           `json:"max_transport_retries" yaml:"max_transport_retries"`
	RetryInitialDelay   time.Duration `json:"retry_initial_delay" yaml:"retry_initial_delay"`

	// RequestsPerSecond rate limits calls to the provider; zero means
	// unlimited.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	RateBurst         int     `json:"rate_burst" yaml:"rate_burst"`

	// DefaultTimeBudget applies when the request does not set one.
	DefaultTimeBudget time.Duration `json:"default_time_budget" yaml:"default_time_budget"`
}

// DefaultRunnerConfig returns defaults sized for generation APIs.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		MaxConcurrency:      8,
		QueueSize:           128,
		MaxTransportRetries: 1,
		RetryInitialDelay:   200 * time.Millisecond,
		DefaultTimeBudget:   30 * time.Second,
	}
}

// Runner dispatches the attempts of one decision batch concurrently
// against the provider. Attempts are symmetric: identified only by index
// and temperature, sharing nothing but the immutable request.
type Runner struct {
	provider llm.Provider
	composer *Composer
	config   RunnerConfig
	pool     *pool.Pool
	retryer  retry.Retryer
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewRunner creates a runner. The pool is shared across Run calls and
// released by Close.
func NewRunner(provider llm.Provider, composer *Composer, config RunnerConfig, logger *zap.Logger) *Runner {
	def := DefaultRunnerConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = def.MaxConcurrency
	}
	if config.QueueSize <= 0 {
		config.QueueSize = def.QueueSize
	}
	if config.MaxTransportRetries < 0 {
		config.MaxTransportRetries = 0
	}
	if config.RetryInitialDelay <= 0 {
		config.RetryInitialDelay = def.RetryInitialDelay
	}
	if config.DefaultTimeBudget <= 0 {
		config.DefaultTimeBudget = def.DefaultTimeBudget
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	retryer := retry.NewBackoffRetryer(&retry.Policy{
		MaxRetries:    config.MaxTransportRetries,
		InitialDelay:  config.RetryInitialDelay,
		MaxDelay:      2 * time.Second,
		Multiplier:    2.0,
		Jitter:        true,
		RetryableOnly: true,
	}, logger)

	return &Runner{
		provider: provider,
		composer: composer,
		config:   config,
		pool:     pool.New(pool.Config{MaxWorkers: config.MaxConcurrency, QueueSize: config.QueueSize}),
		retryer:  retryer,
		limiter:  limiter,
		logger:   logger.With(zap.String("component", "runner")),
	}
}

// Run dispatches exactly req.VotingRounds attempts and blocks until
// every attempt has settled. Attempts not completed when the time budget
// expires are Cancelled; the batch still returns whatever completed.
// One attempt's failure never aborts the batch.
func (r *Runner) Run(ctx context.Context, req *Request) []Attempt {
	budget := req.TimeBudget
	if budget <= 0 {
		budget = r.config.DefaultTimeBudget
	}
	batchCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	n := req.VotingRounds
	attempts := make([]Attempt, n)
	dones := make([]<-chan struct{}, n)

	for i := 0; i < n; i++ {
		temperature := req.temperatureFor(i)
		attempts[i] = Attempt{Index: i, Temperature: temperature, Outcome: OutcomeCancelled}
		prompt := r.composer.Compose(req, temperature, i)

		slot := &attempts[i]
		dones[i] = r.submit(batchCtx, func(taskCtx context.Context) {
			r.executeAttempt(taskCtx, req, prompt, slot)
		})
	}

	// Join every attempt. Workers honor the batch context, so this
	// returns shortly after the budget expires at the latest; attempts
	// the pool dropped keep their Cancelled outcome.
	for _, done := range dones {
		if done != nil {
			<-done
		}
	}

	return attempts
}

// submit queues a task, waiting for queue space instead of failing when
// the pool is saturated. Returns nil when the budget expired first.
func (r *Runner) submit(ctx context.Context, task pool.Task) <-chan struct{} {
	for {
		done, err := r.pool.Submit(ctx, task)
		if err == nil {
			return done
		}
		if err == pool.ErrPoolClosed {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (r *Runner) executeAttempt(ctx context.Context, req *Request, prompt string, a *Attempt) {
	start := time.Now()
	defer func() { a.Elapsed = time.Since(start) }()

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			a.Outcome = OutcomeCancelled
			return
		}
	}

	genReq := &llm.GenerateRequest{
		Model:       req.Model,
		Prompt:      prompt,
		Temperature: a.Temperature,
		Timeout:     time.Until(deadlineOf(ctx)),
	}

	result, err := r.retryer.DoWithResult(ctx, func() (any, error) {
		return r.provider.Generate(ctx, genReq)
	})
	if err != nil {
		if ctx.Err() != nil {
			a.Outcome = OutcomeCancelled
			return
		}
		a.Outcome = OutcomeTransportFailed
		a.Failure = err.Error()
		r.logger.Debug("attempt transport failed",
			zap.Int("attempt", a.Index),
			zap.Error(err),
		)
		return
	}

	resp := result.(*llm.GenerateResponse)
	a.RawText = resp.Text

	decoded := Decode(resp.Text, req.Output)
	a.Outcome = decoded.Outcome
	a.Value = decoded.Value
	a.Reason = decoded.Reason
}

// Close releases the worker pool.
func (r *Runner) Close() {
	r.pool.Close()
}

func deadlineOf(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(30 * time.Second)
}

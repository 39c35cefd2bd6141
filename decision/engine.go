package decision

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/decisionflow/llm"
	"github.com/BaSui01/decisionflow/metrics"
	"github.com/BaSui01/decisionflow/types"
)

const instrumentationName = "github.com/BaSui01/decisionflow/decision"

// State tracks one decide call through its lifecycle. States are local
// to the call; the engine itself holds no per-request state.
type State string

const (
	StatePending     State = "pending"
	StateDispatching State = "dispatching"
	StateCollecting  State = "collecting"
	StateAggregating State = "aggregating"
)

// EngineConfig configures the decision engine.
type EngineConfig struct {
	Runner   RunnerConfig   `json:"runner" yaml:"runner"`
	Composer ComposerConfig `json:"composer" yaml:"composer"`

	// TraceSampleSize bounds the reasoning traces kept on a result.
	TraceSampleSize int `json:"trace_sample_size" yaml:"trace_sample_size"`
}

// DefaultEngineConfig returns engine defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Runner:          DefaultRunnerConfig(),
		Composer:        DefaultComposerConfig(),
		TraceSampleSize: 3,
	}
}

// Engine orchestrates compose → fan-out → decode → aggregate into a
// single Decide call. The generation capability is passed in explicitly;
// there is no process-wide state, and Decide is safe to call from many
// goroutines at once.
type Engine struct {
	provider llm.Provider
	config   EngineConfig
	composer *Composer
	runner   *Runner
	observer Observer
	store    AuditStore
	cache    ResultCache
	metrics  *metrics.Collector
	logger   *zap.Logger
	tracer   oteltrace.Tracer
	closed   atomic.Bool
}

// NewEngine creates a decision engine around a generation provider.
func NewEngine(provider llm.Provider, config EngineConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TraceSampleSize <= 0 {
		config.TraceSampleSize = DefaultEngineConfig().TraceSampleSize
	}
	composer := NewComposer(config.Composer, logger)
	return &Engine{
		provider: provider,
		config:   config,
		composer: composer,
		runner:   NewRunner(provider, composer, config.Runner, logger),
		observer: NopObserver{},
		logger:   logger.With(zap.String("component", "engine")),
		tracer:   otel.Tracer(instrumentationName),
	}
}

// WithObserver sets the observability sink.
func (e *Engine) WithObserver(observer Observer) *Engine {
	if observer != nil {
		e.observer = observer
	}
	return e
}

// WithStore enables best-effort audit persistence.
func (e *Engine) WithStore(store AuditStore) *Engine {
	e.store = store
	return e
}

// WithCache enables the result cache for identical requests.
func (e *Engine) WithCache(cache ResultCache) *Engine {
	e.cache = cache
	return e
}

// WithMetrics records cache and audit store outcomes on a prometheus
// collector. Attempt and decision counters go through the observer; use
// NewMetricsObserver with the same collector for those.
func (e *Engine) WithMetrics(collector *metrics.Collector) *Engine {
	e.metrics = collector
	return e
}

// Decide runs one ensemble decision. It returns an error only for
// request validation failures and catastrophic all-attempts-failed
// conditions; model disagreement and insufficient information surface
// as Result statuses, never as errors.
func (e *Engine) Decide(ctx context.Context, req *Request) (*Result, error) {
	if e.closed.Load() {
		err := types.NewError(types.ErrEngineClosed, "engine is closed")
		return &Result{Status: StatusFailed}, err
	}

	start := time.Now()
	decisionID := uuid.NewString()

	ctx, span := e.tracer.Start(ctx, "decision.decide",
		oteltrace.WithAttributes(
			attribute.String("decision.id", decisionID),
			attribute.String("decision.output_kind", string(req.Output.Kind)),
			attribute.Int("decision.voting_rounds", req.VotingRounds),
		))
	defer span.End()

	// Pending: validate before anything is dispatched.
	e.transition(decisionID, StatePending)
	if err := req.Validate(); err != nil {
		e.logger.Warn("request validation failed",
			zap.String("decision_id", decisionID),
			zap.Error(err),
		)
		result := &Result{
			DecisionID: decisionID,
			Status:     StatusFailed,
			Elapsed:    time.Since(start),
		}
		e.finish(ctx, span, req, result)
		return result, err
	}

	digest := req.Digest()
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, digest); ok {
			hit := *cached
			hit.FromCache = true
			span.SetAttributes(attribute.Bool("decision.cache_hit", true))
			if e.metrics != nil {
				e.metrics.RecordCacheHit()
			}
			// The record was persisted when the result was first
			// computed; only the decision event is replayed.
			e.observer.OnDecision(&hit)
			return &hit, nil
		}
		if e.metrics != nil {
			e.metrics.RecordCacheMiss()
		}
	}

	// Dispatching → Collecting: the runner blocks until every attempt
	// has settled or the budget expired.
	e.transition(decisionID, StateDispatching)
	attempts := e.runner.Run(ctx, req)
	e.transition(decisionID, StateCollecting)

	for _, a := range attempts {
		e.observer.OnAttempt(AttemptEvent{
			DecisionID:  decisionID,
			Index:       a.Index,
			Temperature: a.Temperature,
			Outcome:     a.Outcome,
			Reason:      a.Reason,
			Elapsed:     a.Elapsed,
		})
	}

	e.transition(decisionID, StateAggregating)
	result, err := e.aggregate(decisionID, req, attempts)
	result.Elapsed = time.Since(start)

	e.finish(ctx, span, req, result)
	if err != nil {
		return result, err
	}

	if e.cache != nil && result.Status == StatusResolved {
		e.cache.Set(ctx, digest, result)
	}
	return result, nil
}

func (e *Engine) transition(decisionID string, state State) {
	e.logger.Debug("state transition",
		zap.String("decision_id", decisionID),
		zap.String("state", string(state)),
	)
}

// aggregate reduces a settled batch to a terminal result.
func (e *Engine) aggregate(decisionID string, req *Request, attempts []Attempt) (*Result, error) {
	result := &Result{DecisionID: decisionID}

	usable := 0
	for _, a := range attempts {
		if a.QuorumEligible() {
			usable++
		}
	}
	if usable == 0 {
		// Nothing reached the decoder: every attempt failed in
		// transport or was cancelled.
		result.Status = StatusFailed
		result.AttemptsRejected = len(attempts)
		return result, types.NewError(types.ErrAllAttemptsFailed,
			"no attempt produced a usable response")
	}

	agg := Aggregate(attempts, req.Output, req.AllowUnresolved, req.VotingRounds)
	result.Votes = agg.Distribution
	result.AttemptsUsed = agg.Decoded
	result.AttemptsRejected = len(attempts) - agg.Decoded
	result.Traces = sampleTraces(attempts, e.config.TraceSampleSize)

	if agg.Unresolved || agg.Winner == nil {
		result.Status = StatusUnresolved
		return result, nil
	}

	confidence := Confidence(agg.Distribution, *agg.Winner, agg.Decoded)
	result.Confidence = confidence

	switch {
	case confidence >= req.ConfidenceThreshold:
		result.Status = StatusResolved
		result.Value = agg.Winner
	case !req.AllowUnresolved:
		// The caller explicitly opted out of "no answer".
		result.Status = StatusLowConfidenceResolved
		result.Value = agg.Winner
	default:
		result.Status = StatusUnresolved
	}
	return result, nil
}

// finish emits the terminal observability events and persists the audit
// record. Store failures are logged, never surfaced.
func (e *Engine) finish(ctx context.Context, span oteltrace.Span, req *Request, result *Result) {
	span.SetAttributes(
		attribute.String("decision.status", string(result.Status)),
		attribute.Float64("decision.confidence", result.Confidence),
		attribute.Int("decision.attempts_used", result.AttemptsUsed),
		attribute.Int("decision.attempts_rejected", result.AttemptsRejected),
	)

	e.observer.OnDecision(result)

	if e.store != nil {
		rec := &Record{
			DecisionID:       result.DecisionID,
			RequestDigest:    req.Digest(),
			Status:           result.Status,
			Confidence:       result.Confidence,
			Votes:            result.Votes.Clone(),
			AttemptsUsed:     result.AttemptsUsed,
			AttemptsRejected: result.AttemptsRejected,
			Elapsed:          result.Elapsed,
			CreatedAt:        time.Now(),
		}
		if result.Value != nil {
			rec.ValueKey = result.Value.Key()
		}
		err := e.store.SaveRecord(ctx, rec)
		if e.metrics != nil {
			e.metrics.RecordStoreWrite(err)
		}
		if err != nil {
			e.logger.Warn("audit record write failed",
				zap.String("decision_id", result.DecisionID),
				zap.Error(err),
			)
		}
	}
}

// sampleTraces keeps up to limit reasoning traces from decoded attempts.
func sampleTraces(attempts []Attempt, limit int) []string {
	var traces []string
	for _, a := range attempts {
		if a.Outcome != OutcomeDecoded || a.RawText == "" {
			continue
		}
		traces = append(traces, a.RawText)
		if len(traces) >= limit {
			break
		}
	}
	return traces
}

// Close releases the engine's worker pool. Decide calls after Close
// fail with ErrEngineClosed.
func (e *Engine) Close() {
	if e.closed.Swap(true) {
		return
	}
	e.runner.Close()
}

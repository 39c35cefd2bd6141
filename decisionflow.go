// Package decisionflow provides a top-level convenience entry point for
// building a decision engine with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/decisionflow"
//
//	engine := decisionflow.New(myProvider)
//	result, err := engine.Decide(ctx, &decisionflow.Request{
//	    Instructions: "Is this change backward compatible?",
//	    Output:       decisionflow.BooleanSpec(),
//	    VotingRounds: 5,
//	})
//
// This is a thin wrapper around [decision.NewEngine]; use the decision
// package directly when you need finer control.
package decisionflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/decisionflow/config"
	"github.com/BaSui01/decisionflow/decision"
	"github.com/BaSui01/decisionflow/decision/cache"
	"github.com/BaSui01/decisionflow/decision/store"
	"github.com/BaSui01/decisionflow/llm"
	"github.com/BaSui01/decisionflow/metrics"
	"github.com/BaSui01/decisionflow/telemetry"
)

// Re-exported core types so simple callers only import this package.
type (
	Engine     = decision.Engine
	Request    = decision.Request
	Result     = decision.Result
	OutputSpec = decision.OutputSpec
	Value      = decision.Value
	Status     = decision.Status
)

// Output spec constructors.
var (
	BooleanSpec = decision.BooleanSpec
	IntegerSpec = decision.IntegerSpec
	EnumSpec    = decision.EnumSpec
)

// Temperature schedules.
var (
	FixedTemperature = decision.FixedTemperature
	LinearSpread     = decision.LinearSpread
)

// TelemetryProviders holds the OTel SDK providers created by
// [InitTelemetry]; call Shutdown on process exit.
type TelemetryProviders = telemetry.Providers

// InitTelemetry sets up OTel trace and metric export. Pair it with
// [config.Config.TelemetrySetup] when loading from configuration.
var InitTelemetry = telemetry.Init

// Option configures the engine created by [New].
type Option func(*settings)

type settings struct {
	config    decision.EngineConfig
	logger    *zap.Logger
	observer  decision.Observer
	store     decision.AuditStore
	cache     decision.ResultCache
	collector *metrics.Collector
}

// WithConfig replaces the default engine configuration.
func WithConfig(config decision.EngineConfig) Option {
	return func(s *settings) { s.config = config }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithObserver sets the attempt/decision event sink.
func WithObserver(observer decision.Observer) Option {
	return func(s *settings) { s.observer = observer }
}

// WithStore enables best-effort audit persistence.
func WithStore(store decision.AuditStore) Option {
	return func(s *settings) { s.store = store }
}

// WithCache enables the result cache for identical requests.
func WithCache(cache decision.ResultCache) Option {
	return func(s *settings) { s.cache = cache }
}

// WithMetrics registers prometheus collectors on reg (nil uses the
// default registerer) and wires them into the engine: attempt and
// decision counters via an observer, cache and store counters directly.
func WithMetrics(namespace string, reg prometheus.Registerer) Option {
	return func(s *settings) { s.collector = metrics.NewCollector(namespace, reg, nil) }
}

// New creates a decision engine around a generation provider.
func New(provider llm.Provider, opts ...Option) *Engine {
	s := settings{config: decision.DefaultEngineConfig()}
	for _, opt := range opts {
		opt(&s)
	}
	return build(provider, &s)
}

// NewFromConfig builds an engine from a loaded configuration: logger,
// engine limits, result cache, and audit store all come from cfg.
// Options are applied on top and win over the configuration.
func NewFromConfig(provider llm.Provider, cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := settings{config: cfg.EngineConfig()}
	for _, opt := range opts {
		opt(&s)
	}

	if s.logger == nil {
		logger, err := cfg.Log.BuildLogger()
		if err != nil {
			return nil, err
		}
		s.logger = logger
	}

	if s.cache == nil && cfg.Cache.Enabled {
		var rdb *redis.Client
		if cfg.Redis.Enabled {
			rdb = redis.NewClient(cfg.RedisOptions())
		}
		s.cache = cache.New(cfg.ResultCacheConfig(), rdb, s.logger)
	}

	if s.store == nil && cfg.Database.Enabled {
		db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN())
		if err != nil {
			return nil, err
		}
		gs, err := store.NewGormStore(db, s.logger)
		if err != nil {
			return nil, err
		}
		s.store = gs
	}

	return build(provider, &s), nil
}

func build(provider llm.Provider, s *settings) *Engine {
	engine := decision.NewEngine(provider, s.config, s.logger)

	observer := s.observer
	if s.collector != nil {
		engine = engine.WithMetrics(s.collector)
		mo := decision.NewMetricsObserver(s.collector)
		if observer != nil {
			observer = decision.MultiObserver{observer, mo}
		} else {
			observer = mo
		}
	}
	if observer != nil {
		engine = engine.WithObserver(observer)
	}
	if s.store != nil {
		engine = engine.WithStore(s.store)
	}
	if s.cache != nil {
		engine = engine.WithCache(s.cache)
	}
	return engine
}

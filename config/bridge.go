package config

import (
	"github.com/redis/go-redis/v9"

	"github.com/BaSui01/decisionflow/decision"
	"github.com/BaSui01/decisionflow/decision/cache"
	"github.com/BaSui01/decisionflow/telemetry"
)

// EngineConfig maps the loaded configuration onto the decision engine's
// own config types. The runner's default time budget comes from the
// decision policy section; the composer's tokenizer model follows the
// configured provider model.
func (c *Config) EngineConfig() decision.EngineConfig {
	return decision.EngineConfig{
		Runner: decision.RunnerConfig{
			MaxConcurrency:      c.Runner.MaxConcurrency,
			QueueSize:           c.Runner.QueueSize,
			MaxTransportRetries: c.Runner.MaxTransportRetries,
			RetryInitialDelay:   c.Runner.RetryInitialDelay,
			RequestsPerSecond:   c.Runner.RequestsPerSecond,
			RateBurst:           c.Runner.RateBurst,
			DefaultTimeBudget:   c.Decision.TimeBudget,
		},
		Composer: decision.ComposerConfig{
			ReasoningSteps: c.Composer.ReasoningSteps,
			TokenBudget:    c.Composer.TokenBudget,
			Model:          c.LLM.Model,
		},
		TraceSampleSize: c.Decision.TraceSampleSize,
	}
}

// RequestTemplate returns a request pre-filled with the configured
// decision policy. Callers set Instructions and Output, then adjust any
// knob per call.
func (c *Config) RequestTemplate() decision.Request {
	return decision.Request{
		VotingRounds:        c.Decision.VotingRounds,
		ConfidenceThreshold: c.Decision.ConfidenceThreshold,
		AllowUnresolved:     c.Decision.AllowUnresolved,
		TimeBudget:          c.Decision.TimeBudget,
		Schedule:            decision.LinearSpread(c.Decision.TemperatureLow, c.Decision.TemperatureHigh),
		Model:               c.LLM.Model,
	}
}

// ResultCacheConfig maps cache sizing onto the result cache's config.
func (c *Config) ResultCacheConfig() cache.Config {
	return cache.Config{
		LocalMaxSize: c.Cache.LocalMaxSize,
		LocalTTL:     c.Cache.LocalTTL,
		RedisTTL:     c.Cache.RedisTTL,
	}
}

// RedisOptions builds the client options for the shared cache tier.
func (c *Config) RedisOptions() *redis.Options {
	return &redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		PoolSize: c.Redis.PoolSize,
	}
}

// TelemetrySetup maps the telemetry section onto the OTel init config.
func (c *Config) TelemetrySetup() telemetry.Config {
	return telemetry.Config{
		Enabled:      c.Telemetry.Enabled,
		ServiceName:  c.Telemetry.ServiceName,
		OTLPEndpoint: c.Telemetry.OTLPEndpoint,
		SampleRate:   c.Telemetry.SampleRate,
	}
}

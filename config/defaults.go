package config

import "time"

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	return &Config{
		Decision:  DefaultDecisionConfig(),
		Runner:    DefaultRunnerConfig(),
		Composer:  DefaultComposerConfig(),
		LLM:       DefaultLLMConfig(),
		Database:  DefaultDatabaseConfig(),
		Redis:     DefaultRedisConfig(),
		Cache:     DefaultCacheConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultDecisionConfig returns decision policy defaults.
func DefaultDecisionConfig() DecisionConfig {
	return DecisionConfig{
		VotingRounds:        5,
		ConfidenceThreshold: 0.6,
		AllowUnresolved:     true,
		TimeBudget:          30 * time.Second,
		TraceSampleSize:     3,
		TemperatureLow:      0.2,
		TemperatureHigh:     1.0,
	}
}

// DefaultRunnerConfig returns fan-out defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		MaxConcurrency:      8,
		QueueSize:           128,
		MaxTransportRetries: 1,
		RetryInitialDelay:   200 * time.Millisecond,
	}
}

// DefaultComposerConfig returns prompt composition defaults.
func DefaultComposerConfig() ComposerConfig {
	return ComposerConfig{
		ReasoningSteps: 3,
		TokenBudget:    0,
	}
}

// DefaultLLMConfig returns provider defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider: "openai",
		Model:    "gpt-4",
		Timeout:  2 * time.Minute,
	}
}

// DefaultDatabaseConfig returns audit store defaults.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Enabled: false,
		Driver:  "sqlite",
		Name:    "decisionflow.db",
		Host:    "localhost",
		Port:    5432,
		SSLMode: "disable",
	}
}

// DefaultRedisConfig returns shared cache tier defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:  false,
		Addr:     "localhost:6379",
		DB:       0,
		PoolSize: 10,
	}
}

// DefaultCacheConfig returns result cache defaults.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      true,
		LocalMaxSize: 512,
		LocalTTL:     5 * time.Minute,
		RedisTTL:     time.Hour,
	}
}

// DefaultLogConfig returns logging defaults.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:        "info",
		Format:       "json",
		OutputPaths:  []string{"stdout"},
		EnableCaller: true,
	}
}

// DefaultTelemetryConfig returns telemetry defaults.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "decisionflow",
		SampleRate:   0.1,
	}
}

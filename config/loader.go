// Package config loads decisionflow configuration from defaults, an
// optional YAML file, and environment variable overrides, in that
// priority order.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("DECISIONFLOW").
//	    Load()
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete decisionflow configuration.
type Config struct {
	// Decision holds engine-level decision policy defaults.
	Decision DecisionConfig `yaml:"decision" env:"DECISION"`

	// Runner holds attempt fan-out settings.
	Runner RunnerConfig `yaml:"runner" env:"RUNNER"`

	// Composer holds prompt composition settings.
	Composer ComposerConfig `yaml:"composer" env:"COMPOSER"`

	// LLM holds provider connection settings.
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Database holds the audit store connection.
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Redis holds the shared result cache tier connection.
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Cache holds result cache sizing.
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// Log holds logging settings.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry holds tracing and metrics export settings.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// DecisionConfig sets the decision policy defaults applied when a
// request leaves the knob unset.
type DecisionConfig struct {
	// VotingRounds is the default number of attempts per decision.
	VotingRounds int `yaml:"voting_rounds" env:"VOTING_ROUNDS"`
	// ConfidenceThreshold separates resolved from low-confidence.
	ConfidenceThreshold float64 `yaml:"confidence_threshold" env:"CONFIDENCE_THRESHOLD"`
	// AllowUnresolved permits "no answer" outcomes by default.
	AllowUnresolved bool `yaml:"allow_unresolved" env:"ALLOW_UNRESOLVED"`
	// TimeBudget bounds one whole decision batch.
	TimeBudget time.Duration `yaml:"time_budget" env:"TIME_BUDGET"`
	// TraceSampleSize bounds kept reasoning traces per result.
	TraceSampleSize int `yaml:"trace_sample_size" env:"TRACE_SAMPLE_SIZE"`
	// TemperatureLow / TemperatureHigh span the default schedule.
	TemperatureLow  float64 `yaml:"temperature_low" env:"TEMPERATURE_LOW"`
	TemperatureHigh float64 `yaml:"temperature_high" env:"TEMPERATURE_HIGH"`
}

// RunnerConfig sets attempt fan-out limits.
type RunnerConfig struct {
	MaxConcurrency      int           `yaml:"max_concurrency" env:"MAX_CONCURRENCY"`
	QueueSize           int           `yaml:"queue_size" env:"QUEUE_SIZE"`
	MaxTransportRetries int           `yaml:"max_transport_retries" env:"MAX_TRANSPORT_RETRIES"`
	RetryInitialDelay   time.Duration `yaml:"retry_initial_delay" env:"RETRY_INITIAL_DELAY"`
	RequestsPerSecond   float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	RateBurst           int           `yaml:"rate_burst" env:"RATE_BURST"`
}

// ComposerConfig sets prompt composition knobs.
type ComposerConfig struct {
	// ReasoningSteps is the number of reasoning steps the prompt asks
	// the model to show before concluding.
	ReasoningSteps int `yaml:"reasoning_steps" env:"REASONING_STEPS"`
	// TokenBudget warns when a composed prompt exceeds it; zero disables.
	TokenBudget int `yaml:"token_budget" env:"TOKEN_BUDGET"`
}

// LLMConfig sets provider connection details.
type LLMConfig struct {
	// Provider names the generation backend.
	Provider string `yaml:"provider" env:"PROVIDER"`
	Model    string `yaml:"model" env:"MODEL"`
	APIKey   string `yaml:"api_key" env:"API_KEY"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// DatabaseConfig sets the audit store connection.
type DatabaseConfig struct {
	// Enabled turns audit persistence on.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Driver is one of: postgres, mysql, sqlite.
	Driver   string `yaml:"driver" env:"DRIVER"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	Name     string `yaml:"name" env:"NAME"`
	SSLMode  string `yaml:"ssl_mode" env:"SSL_MODE"`
}

// RedisConfig sets the shared cache tier connection.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	PoolSize int    `yaml:"pool_size" env:"POOL_SIZE"`
}

// CacheConfig sets result cache sizing.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled" env:"ENABLED"`
	LocalMaxSize int           `yaml:"local_max_size" env:"LOCAL_MAX_SIZE"`
	LocalTTL     time.Duration `yaml:"local_ttl" env:"LOCAL_TTL"`
	RedisTTL     time.Duration `yaml:"redis_ttl" env:"REDIS_TTL"`
}

// LogConfig sets logging behavior.
type LogConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is one of: json, console.
	Format       string   `yaml:"format" env:"FORMAT"`
	OutputPaths  []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// TelemetryConfig sets tracing and metrics export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Loader loads configuration with builder-style options.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the default env prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: "DECISIONFLOW",
	}
}

// WithConfigPath sets the YAML file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator appends a validation hook run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves the configuration. Priority: defaults, then YAML file,
// then environment variables.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing file falls back to defaults.
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// MustLoad loads configuration from path, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate checks cross-field invariants.
func (c *Config) Validate() error {
	var errs []string

	if c.Decision.VotingRounds < 1 {
		errs = append(errs, "decision.voting_rounds must be >= 1")
	}
	if c.Decision.ConfidenceThreshold < 0 || c.Decision.ConfidenceThreshold > 1 {
		errs = append(errs, "decision.confidence_threshold must be in [0,1]")
	}
	if c.Decision.TemperatureLow > c.Decision.TemperatureHigh {
		errs = append(errs, "decision.temperature_low must not exceed temperature_high")
	}
	if c.Runner.MaxConcurrency < 1 {
		errs = append(errs, "runner.max_concurrency must be >= 1")
	}
	if c.Database.Enabled {
		switch c.Database.Driver {
		case "postgres", "mysql", "sqlite":
		default:
			errs = append(errs, fmt.Sprintf("database.driver %q is not supported", c.Database.Driver))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DSN returns the database connection string for the configured driver.
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}

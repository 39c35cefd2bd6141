package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BuildLogger constructs a zap logger from the log configuration.
func (c LogConfig) BuildLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}

	var encoderConfig zapcore.EncoderConfig
	switch c.Format {
	case "console":
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	case "json", "":
		encoderConfig = zap.NewProductionEncoderConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", c.Format)
	}

	outputs := c.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         encodingFor(c.Format),
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    !c.EnableCaller,
	}
	return zapCfg.Build()
}

func encodingFor(format string) string {
	if format == "console" {
		return "console"
	}
	return "json"
}

// Package logging builds the zap loggers used by the command line tool.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "info"

// New builds a logger writing to stderr at the given level. Development
// mode uses the console encoder with colour; otherwise output is JSON.
func New(level string, development bool) (*zap.Logger, error) {
	atomicLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var config zap.Config
	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "time"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	config.Level = atomicLevel
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// ParseLevel parses a level name such as "debug" or "WARN". An empty name
// means DefaultLevel.
func ParseLevel(level string) (zap.AtomicLevel, error) {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "" {
		name = DefaultLevel
	}

	var parsed zapcore.Level
	if err := parsed.UnmarshalText([]byte(name)); err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q (use debug, info, warn or error)", level)
	}
	return zap.NewAtomicLevelAt(parsed), nil
}

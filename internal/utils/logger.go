package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogLevel is the level used until --log-level is parsed.
const DefaultLogLevel = "info"

// NewApplicationLogger constructs a zap logger configured for human-readable console output.
// The level is shared so the command line can adjust verbosity after construction.
func NewApplicationLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = level
	config.Encoding = "console"
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.TimeKey = ""
	config.EncoderConfig.NameKey = ""
	config.EncoderConfig.CallerKey = ""
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""
	return config.Build()
}

// ParseLogLevel converts a textual level such as "debug" or "WARN" into a zap level.
func ParseLogLevel(levelName string) (zapcore.Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(levelName))
	if trimmed == "" {
		trimmed = DefaultLogLevel
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(trimmed)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf(invalidLogLevelFormat, levelName)
	}
	return level, nil
}

// LoggerOrNop returns logger, or a no-op logger when logger is nil.
func LoggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Package logging builds the zap logger used across the command.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ValidLevels lists the accepted log level names
var ValidLevels = []string{"debug", "info", "warn", "error"}

// ParseLevel maps a level name to a zap level
func ParseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("log level must be one of: debug, info, warn, error")
}

// New creates a console logger writing to stderr, leaving stdout for results
func New(level string) (*zap.Logger, error) {
	return NewWithWriter(level, os.Stderr)
}

// NewWithWriter creates a console logger writing to w
func NewWithWriter(level string, w io.Writer) (*zap.Logger, error) {
	zapLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		zapLevel,
	)

	return zap.New(core), nil
}

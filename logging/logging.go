package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// TraceLevel indicates a log message's level of criticality
	TraceLevel = iota
	// DebugLevel indicates a log message's level of criticality
	DebugLevel
	// InfoLevel indicates a log message's level of criticality
	InfoLevel
	// WarnLevel indicates a log message's level of criticality
	WarnLevel
	// ErrorLevel indicates a log message's level of criticality
	ErrorLevel
	// FatalLevel indicates a log message's level of criticality
	FatalLevel
)

var (
	level     = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	loggerMu  sync.RWMutex
	logger    *zap.Logger
	buildOnce sync.Once
)

// LogLevelToString translates a log level enum to a string representation
func LogLevelToString(level int) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "TRACE"
	}
}

// StringToLogLevel translates a string representation of a log level to its enum, defaulting to InfoLevel
func StringToLogLevel(name string) int {
	for l := TraceLevel; l <= FatalLevel; l++ {
		if LogLevelToString(l) == name {
			return l
		}
	}
	return InfoLevel
}

// toZapLevel translates a log level enum to a zap level. zap has no trace level, so traces are debug logs.
func toZapLevel(level int) zapcore.Level {
	switch level {
	case TraceLevel, DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLevel changes the minimum level of messages emitted by the process logger
func SetLevel(l int) {
	level.SetLevel(toZapLevel(l))
}

// Logger returns the process-wide logger, building it on first use
func Logger() *zap.Logger {
	buildOnce.Do(func() {
		conf := zap.NewProductionConfig()
		conf.Level = level
		conf.Encoding = "console"
		conf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		l, err := conf.Build()
		if err != nil {
			l = zap.NewNop()
		}
		loggerMu.Lock()
		if logger == nil {
			logger = l
		}
		loggerMu.Unlock()
	})
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// ReplaceLogger swaps the process-wide logger, returning a function which restores the previous one
func ReplaceLogger(l *zap.Logger) func() {
	Logger() // make sure the default has been built, so it cannot overwrite l later
	loggerMu.Lock()
	defer loggerMu.Unlock()
	prev := logger
	logger = l
	return func() {
		loggerMu.Lock()
		defer loggerMu.Unlock()
		logger = prev
	}
}

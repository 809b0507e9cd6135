package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogLevelRoundTrip(t *testing.T) {
	for l := TraceLevel; l <= FatalLevel; l++ {
		require.Equal(t, l, StringToLogLevel(LogLevelToString(l)))
	}
	require.Equal(t, InfoLevel, StringToLogLevel("VERBOSE"))
}

func TestReplaceLogger(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	restore := ReplaceLogger(zap.New(core))
	Logger().Info("ignored")
	Logger().Warn("kept", zap.String("key", "value"))
	restore()
	require.Equal(t, 1, logs.Len())
	require.Equal(t, "kept", logs.All()[0].Message)
	require.NotNil(t, Logger())
}

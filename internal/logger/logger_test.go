package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
		encoding string
	}{
		{level: "debug", expected: zapcore.DebugLevel, encoding: "console"},
		{level: "info", expected: zapcore.InfoLevel, encoding: "json"},
		{level: "WARN", expected: zapcore.WarnLevel, encoding: "json"},
		{level: "error", expected: zapcore.ErrorLevel, encoding: "json"},
		{level: "verbose", expected: zapcore.InfoLevel, encoding: "json"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			config := Config(tt.level)

			assert.Equal(t, tt.expected, config.Level.Level())
			assert.Equal(t, tt.encoding, config.Encoding)
		})
	}
}

func TestNew(t *testing.T) {
	logger, err := New("warn")

	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

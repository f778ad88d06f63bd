package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	logger.Debug("development logger ready")
}

func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestProductionConfigUsesCloudLoggingKeys(t *testing.T) {
	t.Parallel()

	cfg := config(false)
	assert.Equal(t, "ts", cfg.EncoderConfig.TimeKey)
	assert.Equal(t, "severity", cfg.EncoderConfig.LevelKey)
	assert.Equal(t, "message", cfg.EncoderConfig.MessageKey)
	assert.Equal(t, "json", cfg.Encoding)
}

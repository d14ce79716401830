package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelhub/internal/config"
)

func TestNewLoggerOutputs(t *testing.T) {
	app := config.AppConfig{Name: "hostelhub-test", Environment: "test", Version: "0.0.1"}

	cases := []struct {
		name       string
		cfg        config.LoggingConfig
		wantCloser bool
	}{
		{name: "stdout default", cfg: config.LoggingConfig{Level: "info", Output: "stdout"}},
		{name: "stderr", cfg: config.LoggingConfig{Level: "debug", Output: "stderr"}},
		{name: "console format", cfg: config.LoggingConfig{Level: "warn", Format: "console"}},
		{name: "empty config falls back to stdout", cfg: config.LoggingConfig{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger, closer, err := New(tc.cfg, app)
			require.NoError(t, err)
			require.NotNil(t, logger)
			assert.Nil(t, closer)
		})
	}
}

func TestNewLoggerFileOutput(t *testing.T) {
	app := config.AppConfig{Name: "hostelhub-test"}
	logPath := filepath.Join(t.TempDir(), "server.log")

	logger, closer, err := New(config.LoggingConfig{Level: "error", Output: "file", FilePath: logPath}, app)
	require.NoError(t, err)
	require.NotNil(t, closer)
	logger.Error().Msg("boom")
	require.NoError(t, closer.Close())

	info, err := os.Stat(logPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestNewLoggerFileRequiresPath(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Output: "file"}, config.AppConfig{})
	assert.Error(t, err)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, levelFor("debug"))
	assert.Equal(t, zerolog.InfoLevel, levelFor(""))
	assert.Equal(t, zerolog.InfoLevel, levelFor("nonsense"))
	assert.Equal(t, zerolog.WarnLevel, levelFor(" WARN "))
}

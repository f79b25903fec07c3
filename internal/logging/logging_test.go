package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/mlconsole/internal/config"
)

func TestSetup_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mlconsole.log")

	logger, cleanup, err := Setup(config.LogConfig{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)

	logger.Debug().Str("store", "cluster").Msg("poll ok")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"store":"cluster"`)
	assert.Contains(t, string(data), `"message":"poll ok"`)
}

func TestSetup_RespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mlconsole.log")

	logger, cleanup, err := Setup(config.LogConfig{Level: "warn", File: path})
	require.NoError(t, err)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestSetup_InvalidLevel(t *testing.T) {
	_, _, err := Setup(config.LogConfig{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func TestSetup_LokiRequiresURL(t *testing.T) {
	_, _, err := Setup(config.LogConfig{Loki: config.LokiConfig{Enabled: true}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loki url is required")
}

func TestSetup_NoWritersIsNop(t *testing.T) {
	logger, cleanup, err := Setup(config.LogConfig{})
	require.NoError(t, err)
	defer cleanup()
	logger.Info().Msg("dropped")
}

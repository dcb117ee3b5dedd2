package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfigFile(t, `{
			"port": 9090,
			"database_url": "postgres://localhost:5432/pipeline",
			"activity_capacity": 500,
			"verbose": true
		}`)

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Port)
		assert.Equal(t, "postgres://localhost:5432/pipeline", cfg.DatabaseURL)
		assert.Equal(t, 500, cfg.ActivityCapacity)
		assert.True(t, cfg.Verbose)
	})

	t.Run("empty config leaves defaults to the caller", func(t *testing.T) {
		path := writeConfigFile(t, `{}`)

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Zero(t, cfg.Port)
		assert.Empty(t, cfg.DatabaseURL)
		assert.Zero(t, cfg.ActivityCapacity)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := LoadConfig("")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		path := writeConfigFile(t, `{port: 9090`)
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("port out of range", func(t *testing.T) {
		path := writeConfigFile(t, `{"port": 70000}`)
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "port")
	})

	t.Run("negative activity capacity", func(t *testing.T) {
		path := writeConfigFile(t, `{"activity_capacity": -1}`)
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "activity_capacity")
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GENERATION_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "openai", cfg.Generation.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Generation.Model)
	assert.Equal(t, 2000, cfg.Generation.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.Generation.Timeout)
	assert.Empty(t, cfg.Generation.APIKey)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("GENERATION_API_KEY", "sk-test")
	t.Setenv("GENERATION_TIMEOUT", "5s")
	t.Setenv("REDIS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "sk-test", cfg.Generation.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Generation.Timeout)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_FallsBackToOpenAIKey(t *testing.T) {
	t.Setenv("GENERATION_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-legacy")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-legacy", cfg.Generation.APIKey)
}

func TestLoad_RejectsUnknownDrivers(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongo")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("GENERATION_PROVIDER", "llama")
	_, err = Load()
	assert.Error(t, err)
}

func TestInvalidNumbersUseDefaults(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("SESSION_TTL", "forever")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\nSERVER_PORT=9090\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("SERVER_PORT", "7070")
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))
	t.Cleanup(func() { _ = os.Unsetenv("LOG_LEVEL") })

	// Load alone does not read the file.
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)

	LoadEnvFile()
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.Server.Port)
}

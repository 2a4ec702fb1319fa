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
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.Equal(t, 100, cfg.HTTP.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.HTTP.RateLimitWindow)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "tasks.db", cfg.Storage.Path)
	assert.Equal(t, []int64{1, 2, 3}, cfg.Storage.SeedOwners)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.Breaker.MaxFailures)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "orm")
	t.Setenv("DB_PATH", "/tmp/test-tasks.db")
	t.Setenv("SEED_OWNERS", "7,8")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("CACHE_TTL", "90s")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, BackendORM, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/test-tasks.db", cfg.Storage.Path)
	assert.Equal(t, []int64{7, 8}, cfg.Storage.SeedOwners)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
}

func TestLoad_DotenvFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")
	t.Setenv("STORAGE_BACKEND", "sql")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nSTORAGE_BACKEND=orm\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LOG_LEVEL") })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendSQL, cfg.Storage.Backend, "environment wins over the file")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown backend", "STORAGE_BACKEND", "mongo"},
		{"unknown log level", "LOG_LEVEL", "trace"},
		{"unknown log format", "LOG_FORMAT", "xml"},
		{"port out of range", "HTTP_PORT", "70000"},
		{"negative owner", "SEED_OWNERS", "1,-2"},
		{"negative rate limit", "RATE_LIMIT_MAX", "-1"},
		{"not a duration", "SHUTDOWN_TIMEOUT", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

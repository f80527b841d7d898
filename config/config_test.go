package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/civiclens/engine"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, Validate(cfg))
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, SourceDir, cfg.Data.Source())
	assert.True(t, cfg.Data.FallbackEnabled())
	assert.Equal(t, 3, cfg.Data.Retries)
	assert.Equal(t, 30*time.Second, cfg.Data.LoadTimeout)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, engine.MaxInsights, cfg.Engine.InsightLimit)
	assert.Equal(t, "first", cfg.Engine.BubbleJoin)
}

func TestParseMergesWithDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  addr: ":9090"
data:
  base_url: https://example.org/datasets
  synthetic_fallback: false
  load_timeout: 45s
engine:
  anomaly_sigma: 2.5
  bubble_join: sum
log:
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, SourceHTTP, cfg.Data.Source())
	assert.Empty(t, cfg.Data.Dir, "dir does not default when another source is set")
	assert.False(t, cfg.Data.FallbackEnabled())
	assert.Equal(t, 45*time.Second, cfg.Data.LoadTimeout)
	assert.Equal(t, 2.5, cfg.Engine.AnomalySigma)
	assert.Equal(t, engine.MaxInsights, cfg.Engine.InsightLimit)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"insight limit above max", "engine:\n  insight_limit: 9\n"},
		{"negative sigma", "engine:\n  anomaly_sigma: -1\n"},
		{"unknown bubble join", "engine:\n  bubble_join: median\n"},
		{"unknown log level", "log:\n  level: verbose\n"},
		{"unknown log format", "log:\n  format: xml\n"},
		{"negative retries", "data:\n  retries: -2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("server: [unclosed"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestLoad(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		t.Setenv(EnvAddr, "")
		t.Setenv(EnvDataDir, "")
		t.Setenv(EnvRedisURL, "")
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Server.Addr, cfg.Server.Addr)
	})

	t.Run("file and environment", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName),
			[]byte("data:\n  dir: /srv/data\ncache:\n  ttl: 10m\n"), 0o644))

		t.Setenv(EnvAddr, "127.0.0.1:7000")
		t.Setenv(EnvDataDir, "/mnt/data")
		t.Setenv(EnvRedisURL, "redis://localhost:6379/0")

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
		assert.Equal(t, "/mnt/data", cfg.Data.Dir)
		assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
		assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	})

	t.Run("explicit path must exist", func(t *testing.T) {
		_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})
}

func TestApplyEnvIgnoresUnset(t *testing.T) {
	cfg := DefaultConfig()
	ApplyEnv(cfg, func(string) (string, bool) { return "", false })
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestDataSourcePrecedence(t *testing.T) {
	d := DataConfig{Dir: "data", BaseURL: "https://x", SQLitePath: "civic.db"}
	assert.Equal(t, SourceSQLite, d.Source())
	d.SQLitePath = ""
	assert.Equal(t, SourceHTTP, d.Source())
}

func TestLogConfig(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LogConfig{Level: "DEBUG"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogConfig{Level: ""}.SlogLevel())

	var buf bytes.Buffer
	LogConfig{Level: "info", Format: "json"}.NewLogger(&buf).Info("hello", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	LogConfig{Level: "warn", Format: "text"}.NewLogger(&buf).Info("dropped")
	assert.Empty(t, buf.String())
}

func TestEngineOptions(t *testing.T) {
	opts := EngineConfig{AnomalySigma: 3, InsightLimit: 2, BubbleJoin: "sum"}.Options()
	assert.Len(t, opts, 3)
}

// Package config loads civiclens settings from civiclens.yaml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/civiclens/engine"
)

// ConfigFileName is the name of the civiclens configuration file
const ConfigFileName = "civiclens.yaml"

// Environment overrides, applied after the file is merged with defaults.
const (
	EnvAddr     = "CIVICLENS_ADDR"
	EnvDataDir  = "CIVICLENS_DATA_DIR"
	EnvRedisURL = "CIVICLENS_REDIS_URL"
)

// Config holds all civiclens configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Cache  CacheConfig  `yaml:"cache"`
	Engine EngineConfig `yaml:"engine"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// DataConfig selects where datasets come from.
// Precedence: sqlite_path, then base_url, then dir.
type DataConfig struct {
	Dir               string        `yaml:"dir"`
	BaseURL           string        `yaml:"base_url"`
	SQLitePath        string        `yaml:"sqlite_path"`
	SyntheticFallback *bool         `yaml:"synthetic_fallback"`
	SyntheticSeed     uint64        `yaml:"synthetic_seed"`
	LoadTimeout       time.Duration `yaml:"load_timeout"`
	Retries           int           `yaml:"retries"`
}

// CacheConfig holds the Redis read-through cache settings
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// EngineConfig tunes the insight engine
type EngineConfig struct {
	AnomalySigma float64 `yaml:"anomaly_sigma"`
	InsightLimit int     `yaml:"insight_limit"`
	BubbleJoin   string  `yaml:"bubble_join"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Data source names returned by DataConfig.Source.
const (
	SourceSQLite = "sqlite"
	SourceHTTP   = "http"
	SourceDir    = "dir"
)

// ErrConfigNotFound is returned when an explicit config file does not exist
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidLogLevels lists the accepted log levels
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidLogFormats lists the accepted log formats
var ValidLogFormats = []string{"text", "json"}

// Load reads civiclens.yaml from dir, falling back to defaults when the file
// is absent, then applies environment overrides.
func Load(dir string) (*Config, error) {
	cfg, err := LoadFromPath(filepath.Join(dir, ConfigFileName))
	if errors.Is(err, ErrConfigNotFound) {
		cfg = DefaultConfig()
	} else if err != nil {
		return nil, err
	}

	ApplyEnv(cfg, os.LookupEnv)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config text, merges it with defaults and validates it.
func Parse(data []byte) (*Config, error) {
	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())
	if err := Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv
// outside tests.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		cfg.Server.Addr = v
	}
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		cfg.Data.Dir = v
	}
	if v, ok := lookup(EnvRedisURL); ok {
		cfg.Cache.RedisURL = v
	}
}

// Validate checks that config values are valid.
// Returns an error if validation fails.
func Validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr must be set", ErrInvalidConfig)
	}

	if cfg.Data.Dir == "" && cfg.Data.BaseURL == "" && cfg.Data.SQLitePath == "" {
		return fmt.Errorf("%w: one of data.dir, data.base_url or data.sqlite_path must be set",
			ErrInvalidConfig)
	}

	if cfg.Data.Retries < 1 {
		return fmt.Errorf("%w: data.retries must be at least 1, got %d",
			ErrInvalidConfig, cfg.Data.Retries)
	}

	if cfg.Data.LoadTimeout < 0 {
		return fmt.Errorf("%w: data.load_timeout must be non-negative, got %s",
			ErrInvalidConfig, cfg.Data.LoadTimeout)
	}

	if cfg.Engine.AnomalySigma <= 0 {
		return fmt.Errorf("%w: engine.anomaly_sigma must be positive, got %g",
			ErrInvalidConfig, cfg.Engine.AnomalySigma)
	}

	if cfg.Engine.InsightLimit < 1 || cfg.Engine.InsightLimit > engine.MaxInsights {
		return fmt.Errorf("%w: engine.insight_limit must be between 1 and %d, got %d",
			ErrInvalidConfig, engine.MaxInsights, cfg.Engine.InsightLimit)
	}

	if _, err := engine.ParseBubbleJoin(cfg.Engine.BubbleJoin); err != nil {
		return fmt.Errorf("%w: engine.bubble_join: %v", ErrInvalidConfig, err)
	}

	if !slices.Contains(ValidLogLevels, strings.ToLower(cfg.Log.Level)) {
		return fmt.Errorf("%w: log.level must be one of %v, got %q",
			ErrInvalidConfig, ValidLogLevels, cfg.Log.Level)
	}

	if !slices.Contains(ValidLogFormats, strings.ToLower(cfg.Log.Format)) {
		return fmt.Errorf("%w: log.format must be one of %v, got %q",
			ErrInvalidConfig, ValidLogFormats, cfg.Log.Format)
	}

	return nil
}

// ============================================================================
// DERIVED SETTINGS
// ============================================================================

// Source reports which provider the data section selects.
func (d DataConfig) Source() string {
	switch {
	case d.SQLitePath != "":
		return SourceSQLite
	case d.BaseURL != "":
		return SourceHTTP
	default:
		return SourceDir
	}
}

// FallbackEnabled reports whether the synthetic fallback is on (default true).
func (d DataConfig) FallbackEnabled() bool {
	return d.SyntheticFallback == nil || *d.SyntheticFallback
}

// Options converts the engine section to engine options.
func (e EngineConfig) Options() []engine.Option {
	join, _ := engine.ParseBubbleJoin(e.BubbleJoin)
	return []engine.Option{
		engine.WithAnomalySigma(e.AnomalySigma),
		engine.WithInsightLimit(e.InsightLimit),
		engine.WithBubbleJoin(join),
	}
}

// SlogLevel maps the configured level to slog.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a text or JSON slog logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

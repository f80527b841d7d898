package config

import (
	"time"

	"github.com/spektr-org/civiclens/engine"
	"github.com/spektr-org/civiclens/source"
)

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Data: DataConfig{
			Dir:           "data",
			SyntheticSeed: source.DefaultSyntheticSeed,
			LoadTimeout:   source.DefaultLoadTimeout,
			Retries:       source.DefaultAttempts,
		},
		Cache: CacheConfig{
			TTL: source.DefaultCacheTTL,
		},
		Engine: EngineConfig{
			AnomalySigma: engine.DefaultAnomalySigma,
			InsightLimit: engine.MaxInsights,
			BubbleJoin:   engine.JoinFirst.String(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	return &Config{
		Server: mergeServerConfig(loaded.Server, defaults.Server),
		Data:   mergeDataConfig(loaded.Data, defaults.Data),
		Cache:  mergeCacheConfig(loaded.Cache, defaults.Cache),
		Engine: mergeEngineConfig(loaded.Engine, defaults.Engine),
		Log:    mergeLogConfig(loaded.Log, defaults.Log),
	}
}

// or returns loaded unless it is the zero value.
func or[T comparable](loaded, fallback T) T {
	var zero T
	if loaded != zero {
		return loaded
	}
	return fallback
}

func mergeServerConfig(loaded, defaults ServerConfig) ServerConfig {
	return ServerConfig{
		Addr:              or(loaded.Addr, defaults.Addr),
		ReadHeaderTimeout: or(loaded.ReadHeaderTimeout, defaults.ReadHeaderTimeout),
		ShutdownTimeout:   or(loaded.ShutdownTimeout, defaults.ShutdownTimeout),
	}
}

func mergeDataConfig(loaded, defaults DataConfig) DataConfig {
	result := DataConfig{
		Dir:           loaded.Dir,
		BaseURL:       loaded.BaseURL,
		SQLitePath:    loaded.SQLitePath,
		SyntheticSeed: or(loaded.SyntheticSeed, defaults.SyntheticSeed),
		LoadTimeout:   or(loaded.LoadTimeout, defaults.LoadTimeout),
		Retries:       or(loaded.Retries, defaults.Retries),
	}

	// Dir only defaults when no other source is configured
	if result.Dir == "" && result.BaseURL == "" && result.SQLitePath == "" {
		result.Dir = defaults.Dir
	}

	// Pointer keeps an explicit false distinguishable from unset
	result.SyntheticFallback = loaded.SyntheticFallback
	if result.SyntheticFallback == nil {
		result.SyntheticFallback = defaults.SyntheticFallback
	}

	return result
}

func mergeCacheConfig(loaded, defaults CacheConfig) CacheConfig {
	return CacheConfig{
		RedisURL: or(loaded.RedisURL, defaults.RedisURL),
		TTL:      or(loaded.TTL, defaults.TTL),
	}
}

func mergeEngineConfig(loaded, defaults EngineConfig) EngineConfig {
	return EngineConfig{
		AnomalySigma: or(loaded.AnomalySigma, defaults.AnomalySigma),
		InsightLimit: or(loaded.InsightLimit, defaults.InsightLimit),
		BubbleJoin:   or(loaded.BubbleJoin, defaults.BubbleJoin),
	}
}

func mergeLogConfig(loaded, defaults LogConfig) LogConfig {
	return LogConfig{
		Level:  or(loaded.Level, defaults.Level),
		Format: or(loaded.Format, defaults.Format),
	}
}

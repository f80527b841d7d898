package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spektr-org/civiclens/config"
	"github.com/spektr-org/civiclens/source"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "0.3.0"

// app carries global flags and streams shared by every command.
type app struct {
	configPath string
	format     outputFormat
	outFile    string
	dataDir    string
	sqlitePath string
	baseURL    string

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{format: formatJSON, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "civiclens",
		Short: "Civic dashboard analytics over vehicle, outbreak, population and AQI data",
		Long: `civiclens filters four civic datasets (vehicle registrations, disease
outbreaks, population projections and air quality readings) and computes the
dashboard aggregates, chart series, insight cards and data summary.

Data sources, in order of precedence:
  --sqlite    SQLite database filled by 'civiclens import'
  --base-url  HTTP location serving vahan.csv, idsp.csv, ...
  --data-dir  Directory of CSV files (plain or .csv.zst)

Examples:
  civiclens analyze --filter '{"geographical":{"states":["Delhi"]}}' --format text
  civiclens analyze --format csv --out dashboard.csv
  civiclens options --format yaml
  civiclens schema data/aqi.csv
  civiclens import --data-dir data --to civiclens.db
  civiclens serve`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to config file (default: ./civiclens.yaml if present)")
	flags.Var(&a.format, "format", "Output format (json|pretty|yaml|text|csv)")
	flags.StringVarP(&a.outFile, "out", "o", "", "Write output to file instead of stdout")
	flags.StringVar(&a.dataDir, "data-dir", "", "Directory holding the dataset CSV files")
	flags.StringVar(&a.sqlitePath, "sqlite", "", "SQLite database holding the datasets")
	flags.StringVar(&a.baseURL, "base-url", "", "Base URL serving the dataset CSV files")

	root.AddCommand(
		newAnalyzeCmd(a),
		newOptionsCmd(a),
		newSchemaCmd(a),
		newImportCmd(a),
		newCompressCmd(a),
		newServeCmd(a),
		newVersionCmd(a),
	)
	return root
}

// ============================================================================
// SHARED SETUP
// ============================================================================

// loadConfig reads the config file and applies data flags that were set.
func (a *app) loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
		if err == nil {
			config.ApplyEnv(cfg, os.LookupEnv)
		}
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, err
	}

	// Explicit source flags replace the configured source
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "data-dir":
			cfg.Data = sourceOnly(cfg.Data, a.dataDir, "", "")
		case "base-url":
			cfg.Data = sourceOnly(cfg.Data, "", a.baseURL, "")
		case "sqlite":
			cfg.Data = sourceOnly(cfg.Data, "", "", a.sqlitePath)
		}
	})
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func sourceOnly(d config.DataConfig, dir, baseURL, sqlitePath string) config.DataConfig {
	d.Dir, d.BaseURL, d.SQLitePath = dir, baseURL, sqlitePath
	return d
}

// logger writes to stderr so stdout stays machine-readable.
func (a *app) logger(cfg *config.Config) *slog.Logger {
	return cfg.Log.NewLogger(a.stderr)
}

// output returns stdout or the --out file.
func (a *app) output() (io.Writer, func() error, error) {
	if a.outFile == "" {
		return a.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(a.outFile)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}

// emit writes v in a structured format, or calls custom for text and csv.
func (a *app) emit(v any, custom func(w io.Writer, format string) error) error {
	w, closeOut, err := a.output()
	if err != nil {
		return err
	}

	handled, err := writeStructured(w, v, string(a.format))
	if !handled {
		err = custom(w, string(a.format))
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	return err
}

// openProvider builds the configured Provider. The cleanup func releases
// files and connections. Cache metrics go to reg when it is non-nil.
func openProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (source.Provider, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Data.Source() == config.SourceSQLite {
		store, err := source.OpenSQLite(cfg.Data.SQLitePath)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { _ = store.Close() })
		return store, cleanup, nil
	}

	var fetcher source.Fetcher
	if cfg.Data.Source() == config.SourceHTTP {
		hf := source.NewHTTPFetcher(cfg.Data.BaseURL, logger)
		hf.Attempts = cfg.Data.Retries
		fetcher = hf
	} else {
		df, err := source.NewDirFetcher(cfg.Data.Dir)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, df.Close)
		fetcher = df
	}

	client, err := source.NewRedisClient(ctx, cfg.Cache.RedisURL)
	if err != nil {
		logger.Warn("redis cache disabled", "error", err)
	} else if client != nil {
		closers = append(closers, func() { _ = client.Close() })
		fetcher = source.NewRedisCache(client, fetcher,
			source.WithCacheTTL(cfg.Cache.TTL),
			source.WithCacheLogger(logger),
			source.WithCacheMetrics(reg),
		)
	}

	return source.NewCSVProvider(fetcher, logger), cleanup, nil
}

// newLoader wraps provider according to the data section.
func newLoader(cfg *config.Config, provider source.Provider, logger *slog.Logger, observe source.LoadObserver) *source.Loader {
	opts := []source.LoaderOption{
		source.WithLoadTimeout(cfg.Data.LoadTimeout),
		source.WithLoaderLogger(logger),
		source.WithLoadObserver(observe),
	}
	if cfg.Data.FallbackEnabled() {
		opts = append(opts, source.WithFallback(source.SyntheticProvider{Seed: cfg.Data.SyntheticSeed}))
	} else {
		opts = append(opts, source.WithFallback(nil))
	}
	return source.NewLoader(provider, opts...)
}

// ============================================================================
// VERSION
// ============================================================================

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(a.stdout, "civiclens %s\n", version)
			return err
		},
	}
}

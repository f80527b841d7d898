package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/civiclens/config"
	"github.com/spektr-org/civiclens/engine"
)

// ============================================================================
// ANALYZE — One recomputation cycle from the terminal
// ============================================================================

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		filter     string
		filterFile string
		records    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Filter the datasets and print dashboard analytics",
		Long: `Apply a filter spec to the four datasets and print the result.

The filter is the JSON body accepted by POST /api/dashboard:
  {"geographical":{"states":["Delhi"]},"timeRange":{"years":[2023]}}

Formats:
  json, pretty, yaml  full result (filtered records, analytics, insights, summary)
  text                plain-text briefing
  csv                 analytics tables, or filtered records with --records`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}

			spec, err := readFilterSpec(filter, filterFile)
			if err != nil {
				return err
			}

			ds, err := a.loadDatasets(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			logger := a.logger(cfg)
			opts := append(cfg.Engine.Options(), engine.WithLogger(logger))
			result := engine.Execute(ds, spec, opts...)

			return a.emit(result, func(w io.Writer, format string) error {
				if format == formatText {
					return writeText(w, engine.BuildText(result))
				}
				if records {
					return writeTablesCSV(w, engine.DatasetTables(result.Filtered))
				}
				return writeTablesCSV(w, engine.AnalyticsTables(result.Analytics))
			})
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Filter spec as JSON")
	cmd.Flags().StringVar(&filterFile, "filter-file", "", "Read the filter spec from a file (- for stdin)")
	cmd.Flags().BoolVar(&records, "records", false, "With --format csv, print filtered records instead of analytics")
	cmd.MarkFlagsMutuallyExclusive("filter", "filter-file")
	return cmd
}

// readFilterSpec decodes the --filter or --filter-file argument. No filter
// means everything passes.
func readFilterSpec(inline, path string) (engine.FilterSpec, error) {
	var data []byte
	switch {
	case inline != "":
		data = []byte(inline)
	case path == "-":
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return engine.FilterSpec{}, fmt.Errorf("read filter from stdin: %w", err)
		}
		data = b
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return engine.FilterSpec{}, fmt.Errorf("read filter file: %w", err)
		}
		data = b
	}
	return engine.DecodeFilterSpec(data)
}

// loadDatasets runs one load through the Loader so the CLI gets the same
// timeout and synthetic fallback as the server.
func (a *app) loadDatasets(ctx context.Context, cfg *config.Config) (engine.Dataset, error) {
	logger := a.logger(cfg)
	provider, cleanup, err := openProvider(ctx, cfg, logger, nil)
	defer cleanup()
	if err != nil {
		return engine.Dataset{}, err
	}

	loader := newLoader(cfg, provider, logger, nil)
	ds, err := loader.Get(ctx)
	if err != nil {
		return engine.Dataset{}, err
	}
	if info := loader.Info(); info.Synthetic {
		logger.Warn("serving synthetic datasets", "records", info.Records)
	}
	return ds, nil
}

// ============================================================================
// OPTIONS
// ============================================================================

func newOptionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the distinct values of every filter dimension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			ds, err := a.loadDatasets(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			opts := engine.CollectFilterOptions(ds)
			return a.emit(opts, func(w io.Writer, format string) error {
				return writeFilterOptions(w, opts)
			})
		},
	}
}

// writeFilterOptions prints one "dimension: a, b, c" line per filter
// dimension for text and csv formats.
func writeFilterOptions(w io.Writer, opts engine.FilterOptions) error {
	ints := func(vs []int) []string {
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = strconv.Itoa(v)
		}
		return out
	}

	lines := []struct {
		label  string
		values []string
	}{
		{"States", opts.States},
		{"Districts", opts.Districts},
		{"Areas", opts.Areas},
		{"Vehicle classes", opts.VehicleClasses},
		{"Fuel types", opts.FuelTypes},
		{"Diseases", opts.Diseases},
		{"Outbreak statuses", opts.Statuses},
		{"Genders", opts.Genders},
		{"Pollutants", opts.Pollutants},
		{"AQI statuses", opts.AQIStatuses},
		{"Years", ints(opts.Years)},
		{"Months", ints(opts.Months)},
	}

	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%s: %s\n", l.label, strings.Join(l.values, ", "))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/civiclens/config"
	"github.com/spektr-org/civiclens/engine"
	"github.com/spektr-org/civiclens/schema"
	"github.com/spektr-org/civiclens/source"
)

// ============================================================================
// SCHEMA — Built-in catalogue, or discovery over CSV files
// ============================================================================

// fileReport is the discovery report of one file.
type fileReport struct {
	File          string `json:"file" yaml:"file"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
	schema.Report `yaml:",inline"`
}

func newSchemaCmd(a *app) *cobra.Command {
	var (
		sample int
		kind   string
	)

	cmd := &cobra.Command{
		Use:   "schema [file.csv ...]",
		Short: "Print the dataset catalogue or profile CSV files against it",
		Long: `Without arguments, print the four built-in dataset schemas.

With file arguments, profile each CSV (plain or .zst) and report which
dataset it matches, the inferred column types and any missing or unmapped
columns.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				configs := schema.All()
				return a.emit(configs, func(w io.Writer, format string) error {
					return writeCatalogue(w, configs)
				})
			}

			opts := schema.DefaultDiscoverOptions()
			if sample > 0 {
				opts.SampleSize = sample
			}
			if kind != "" {
				k, err := schema.ParseKind(kind)
				if err != nil {
					return err
				}
				opts.Kind = k
			}

			reports := make([]fileReport, 0, len(args))
			var errs []error
			for _, path := range args {
				fr := fileReport{File: path}
				report, err := discoverFile(cmd, path, opts)
				if report != nil {
					fr.Report = *report
				}
				if err != nil {
					fr.Error = err.Error()
					errs = append(errs, fmt.Errorf("%s: %w", path, err))
				}
				reports = append(reports, fr)
			}

			if err := a.emit(reports, func(w io.Writer, format string) error {
				return writeDiscovery(w, reports)
			}); err != nil {
				return err
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().IntVar(&sample, "sample", 0, "Rows inspected per file (default 1000)")
	cmd.Flags().StringVar(&kind, "kind", "", "Check files against this dataset instead of detecting it")
	return cmd
}

// discoverFile reads path through a DirFetcher so compressed files decode.
func discoverFile(cmd *cobra.Command, path string, opts schema.DiscoverOptions) (*schema.Report, error) {
	fetcher, err := source.NewDirFetcher(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	defer fetcher.Close()

	data, err := fetcher.Fetch(cmd.Context(), filepath.Base(path))
	if err != nil {
		return nil, err
	}
	return schema.DiscoverFromCSV(data, opts)
}

func writeCatalogue(w io.Writer, configs []schema.Config) error {
	var b strings.Builder
	for i, c := range configs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%s)\n", c.Name, c.File)
		for _, d := range c.Dimensions {
			fmt.Fprintf(&b, "  dim      %-16s %s\n", d.Key, d.DisplayName)
		}
		for _, m := range c.Measures {
			fmt.Fprintf(&b, "  measure  %-16s %s\n", m.Key, m.DisplayName)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeDiscovery(w io.Writer, reports []fileReport) error {
	var b strings.Builder
	for i, r := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		kind := string(r.Kind)
		if kind == "" {
			kind = "unknown"
		}
		fmt.Fprintf(&b, "%s: %s (%d rows inspected)\n", r.File, kind, r.Rows)
		if r.Error != "" {
			fmt.Fprintf(&b, "  error: %s\n", r.Error)
		}
		for _, c := range r.Columns {
			mark := " "
			if c.Known {
				mark = "*"
			}
			fmt.Fprintf(&b, "  %s %-20s %-7s unique=%d empty=%d\n", mark, c.Header, c.Type, c.Unique, c.EmptyCount)
		}
		if len(r.Missing) > 0 {
			fmt.Fprintf(&b, "  missing: %s\n", strings.Join(r.Missing, ", "))
		}
		if len(r.Unmapped) > 0 {
			fmt.Fprintf(&b, "  unmapped: %s\n", strings.Join(r.Unmapped, ", "))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ============================================================================
// IMPORT — CSV source into SQLite
// ============================================================================

// importResult is printed after a successful import.
type importResult struct {
	Database string            `json:"database" yaml:"database"`
	Records  int               `json:"records" yaml:"records"`
	Report   source.LoadReport `json:"report" yaml:"report"`
	Counts   map[string]int    `json:"counts" yaml:"counts"`
}

func newImportCmd(a *app) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load the CSV datasets into a SQLite database",
		Long: `Read the four CSV datasets from --data-dir or --base-url and replace the
contents of the SQLite database at --to. Point --sqlite (or data.sqlite_path)
at the same file to serve from it afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.Data.Source() == config.SourceSQLite {
				return errors.New("import reads CSV files; set --data-dir or --base-url")
			}
			if target == "" {
				return errors.New("--to is required")
			}

			logger := a.logger(cfg)
			provider, cleanup, err := openProvider(cmd.Context(), cfg, logger, nil)
			defer cleanup()
			if err != nil {
				return err
			}
			csvProvider, ok := provider.(*source.CSVProvider)
			if !ok {
				return fmt.Errorf("import: unexpected provider %T", provider)
			}

			ds, report, err := csvProvider.LoadWithReport(cmd.Context())
			if err != nil {
				return err
			}
			if ds.IsEmpty() {
				return source.ErrNoRecords
			}

			store, err := source.OpenSQLite(target)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Replace(cmd.Context(), ds); err != nil {
				return err
			}
			logger.Info("datasets imported", "database", store.Path(), "records", ds.Len())

			result := importResult{
				Database: store.Path(),
				Records:  ds.Len(),
				Report:   report,
				Counts:   datasetCounts(ds),
			}
			return a.emit(result, func(w io.Writer, format string) error {
				return writeImport(w, result)
			})
		},
	}

	cmd.Flags().StringVar(&target, "to", "civiclens.db", "SQLite database to write")
	return cmd
}

func datasetCounts(ds engine.Dataset) map[string]int {
	return map[string]int{
		string(schema.KindVehicles):   len(ds.Vehicles),
		string(schema.KindOutbreaks):  len(ds.Outbreaks),
		string(schema.KindPopulation): len(ds.Population),
		string(schema.KindAirQuality): len(ds.AirQuality),
	}
}

func writeImport(w io.Writer, r importResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Imported %d records into %s\n", r.Records, r.Database)
	for _, d := range r.Report.Datasets {
		fmt.Fprintf(&b, "  %-12s accepted=%d rejected=%d\n", d.Kind, d.Accepted, d.Rejected)
		for _, s := range d.Samples {
			fmt.Fprintf(&b, "    %s\n", s)
		}
	}
	for _, f := range r.Report.Failed {
		fmt.Fprintf(&b, "  failed: %s\n", f)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ============================================================================
// COMPRESS — zstd copies of CSV files for DirFetcher
// ============================================================================

func newCompressCmd(a *app) *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "compress file.csv [file.csv ...]",
		Short: "Write a .zst copy of each CSV file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				out, before, after, err := compressFile(path, keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s → %s (%d → %d bytes)\n", path, out, before, after)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", true, "Keep the uncompressed file")
	return cmd
}

func compressFile(path string, keep bool) (string, int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, 0, fmt.Errorf("read %s: %w", path, err)
	}
	packed, err := source.Compress(data)
	if err != nil {
		return "", 0, 0, fmt.Errorf("compress %s: %w", path, err)
	}

	out := path + ".zst"
	if err := os.WriteFile(out, packed, 0o644); err != nil {
		return "", 0, 0, fmt.Errorf("write %s: %w", out, err)
	}
	if !keep {
		if err := os.Remove(path); err != nil {
			return "", 0, 0, fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return out, len(data), len(packed), nil
}

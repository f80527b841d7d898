package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/civiclens/engine"
	"github.com/spektr-org/civiclens/schema"
)

// ErrAllFailed is returned when not a single dataset could be loaded.
var ErrAllFailed = errors.New("every dataset failed to load")

// CSVProvider loads the four datasets from CSV files served by a Fetcher.
type CSVProvider struct {
	Fetcher Fetcher
	Logger  *slog.Logger
}

// NewCSVProvider creates a provider reading through fetcher.
func NewCSVProvider(fetcher Fetcher, logger *slog.Logger) *CSVProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVProvider{Fetcher: fetcher, Logger: logger}
}

// Load implements Provider.
func (p *CSVProvider) Load(ctx context.Context) (engine.Dataset, error) {
	ds, _, err := p.LoadWithReport(ctx)
	return ds, err
}

// LoadWithReport fetches and parses the four files in parallel. A file that
// cannot be fetched or parsed yields an empty slice and a warning.
func (p *CSVProvider) LoadWithReport(ctx context.Context) (engine.Dataset, LoadReport, error) {
	start := time.Now()
	kinds := schema.Kinds()
	reports := make([]ParseReport, len(kinds))
	failures := make([]error, len(kinds))

	var ds engine.Dataset
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ds.Vehicles, reports[0], failures[0] = loadKind(ctx, p.Fetcher, schema.KindVehicles, ParseVehicles)
		return nil
	})
	g.Go(func() error {
		ds.Outbreaks, reports[1], failures[1] = loadKind(ctx, p.Fetcher, schema.KindOutbreaks, ParseOutbreaks)
		return nil
	})
	g.Go(func() error {
		ds.Population, reports[2], failures[2] = loadKind(ctx, p.Fetcher, schema.KindPopulation, ParsePopulation)
		return nil
	})
	g.Go(func() error {
		ds.AirQuality, reports[3], failures[3] = loadKind(ctx, p.Fetcher, schema.KindAirQuality, ParseAirQuality)
		return nil
	})
	_ = g.Wait()

	report := LoadReport{Datasets: reports}
	for i, err := range failures {
		if err == nil {
			if reports[i].Rejected > 0 {
				p.Logger.Warn("dataset rows rejected",
					"dataset", kinds[i],
					"accepted", reports[i].Accepted,
					"rejected", reports[i].Rejected,
					"samples", strings.Join(reports[i].Samples, "; "),
				)
			}
			continue
		}
		report.Failed = append(report.Failed, string(kinds[i]))
		p.Logger.Warn("dataset load failed", "dataset", kinds[i], "error", err)
	}

	p.Logger.Info("datasets loaded",
		"vehicles", len(ds.Vehicles),
		"outbreaks", len(ds.Outbreaks),
		"population", len(ds.Population),
		"air_quality", len(ds.AirQuality),
		"failed", len(report.Failed),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if len(report.Failed) == len(kinds) {
		return ds, report, fmt.Errorf("%w: %s", ErrAllFailed, errors.Join(failures...))
	}
	return ds, report, nil
}

// loadKind always returns a non-nil slice so a failed dataset reads as empty.
func loadKind[T any](
	ctx context.Context,
	fetcher Fetcher,
	kind schema.Kind,
	parse func([]byte) ([]T, ParseReport, error),
) ([]T, ParseReport, error) {
	empty := ParseReport{Kind: kind}

	name, err := FileName(kind)
	if err != nil {
		return []T{}, empty, err
	}
	data, err := fetcher.Fetch(ctx, name)
	if err != nil {
		return []T{}, empty, fmt.Errorf("fetch %s: %w", name, err)
	}
	records, report, err := parse(data)
	if err != nil {
		return []T{}, report, fmt.Errorf("parse %s: %w", name, err)
	}
	return records, report, nil
}

// Package source loads the four civic datasets into an engine.Dataset.
//
// A Provider produces a whole bundle. CSVProvider reads raw CSV text through a
// Fetcher (directory, HTTP, Redis read-through cache); SQLiteProvider reads
// tables from an embedded database. Loader wraps any Provider with load-once
// semantics, in-flight de-duplication and a synthetic fallback.
//
// Partial failures never escape a provider: a dataset that cannot be fetched
// or parsed becomes an empty slice and a warning in the log.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/spektr-org/civiclens/engine"
	"github.com/spektr-org/civiclens/schema"
)

var (
	// ErrNotLoaded is returned by Loader.Current before the first load completes.
	ErrNotLoaded = errors.New("datasets not loaded")
	// ErrUnknownDataset is returned for names outside the catalogue.
	ErrUnknownDataset = errors.New("unknown dataset")
	// ErrEmptyContent marks a fetched body too short to be CSV.
	ErrEmptyContent = errors.New("empty or invalid CSV content")
)

// Provider produces a full dataset bundle.
type Provider interface {
	Load(ctx context.Context) (engine.Dataset, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (engine.Dataset, error)

func (f ProviderFunc) Load(ctx context.Context) (engine.Dataset, error) { return f(ctx) }

// Fetcher returns the raw bytes of a named CSV file ("vahan.csv").
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FileName returns the conventional CSV file of a dataset kind.
func FileName(kind schema.Kind) (string, error) {
	cfg, err := schema.For(kind)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownDataset, kind)
	}
	return cfg.File, nil
}

// ============================================================================
// PARSE REPORT
// ============================================================================

// ParseReport counts accepted and rejected rows of one dataset.
type ParseReport struct {
	Kind     schema.Kind `json:"kind" yaml:"kind"`
	Accepted int         `json:"accepted" yaml:"accepted"`
	Rejected int         `json:"rejected" yaml:"rejected"`
	// First few rejection reasons, for logs.
	Samples []string `json:"samples,omitempty" yaml:"samples,omitempty"`
}

const maxReportSamples = 5

func (r *ParseReport) reject(line int, err error) {
	r.Rejected++
	if len(r.Samples) < maxReportSamples {
		r.Samples = append(r.Samples, fmt.Sprintf("line %d: %v", line, err))
	}
}

// LoadReport describes one provider load.
type LoadReport struct {
	Datasets []ParseReport `json:"datasets" yaml:"datasets"`
	Failed   []string      `json:"failed,omitempty" yaml:"failed,omitempty"`
}

package schema

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// DISCOVERY — Explain a CSV file against the dataset catalogue
// ============================================================================
// Inspects raw CSV bytes and reports which record kind they hold, which
// columns are known, what each column looks like, and what is missing.
//
// Pipeline per column:
//   1. Normalise header → key
//   2. Sample values → detect type (number, date, text)
//   3. Match key against the detected kind's columns
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize int  // Max rows to inspect (0 = all). Default: 1000
	Kind       Kind // Skip detection and check against this kind
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// Column types reported by discovery.
const (
	TypeNumber = "number"
	TypeDate   = "date"
	TypeText   = "text"
	TypeEmpty  = "empty"
)

// Report is the outcome of DiscoverFromCSV.
type Report struct {
	Kind      Kind           `json:"kind" yaml:"kind"`
	Rows      int            `json:"rows" yaml:"rows"` // inspected data rows
	Columns   []ColumnReport `json:"columns" yaml:"columns"`
	Missing   []string       `json:"missing,omitempty" yaml:"missing,omitempty"`
	Unmapped  []string       `json:"unmapped,omitempty" yaml:"unmapped,omitempty"`
	Discovery string         `json:"discoveredAt" yaml:"discovered_at"`
}

// ColumnReport describes one CSV column.
type ColumnReport struct {
	Header     string   `json:"header" yaml:"header"`
	Key        string   `json:"key" yaml:"key"`
	Known      bool     `json:"known" yaml:"known"`
	Type       string   `json:"type" yaml:"type"`
	EmptyCount int      `json:"emptyCount" yaml:"empty_count"`
	Unique     int      `json:"unique" yaml:"unique"`
	Samples    []string `json:"samples" yaml:"samples"`
}

// DiscoverFromCSV reads the header and up to SampleSize rows of data.
// A header that matches no kind returns ErrUnknownKind along with the
// per-column report.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Report, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	var rows [][]string
	for opt.SampleSize <= 0 || len(rows) < opt.SampleSize {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, row)
	}

	report := &Report{
		Rows:      len(rows),
		Discovery: time.Now().UTC().Format(time.RFC3339),
	}
	for i, h := range headers {
		report.Columns = append(report.Columns, analyzeColumn(h, i, rows))
	}

	kind := opt.Kind
	var detectErr error
	if kind == "" {
		kind, detectErr = Detect(headers)
	}
	if detectErr != nil {
		return report, detectErr
	}
	report.Kind = kind

	cfg, err := For(kind)
	if err != nil {
		return report, err
	}
	known := make(map[string]bool)
	for _, col := range cfg.Columns() {
		known[col] = true
	}
	for i := range report.Columns {
		c := &report.Columns[i]
		c.Known = known[c.Key]
		if !c.Known {
			report.Unmapped = append(report.Unmapped, c.Header)
		}
	}

	var missing *MissingColumnsError
	if err := Validate(kind, headers); errors.As(err, &missing) {
		report.Missing = missing.Missing
	}
	return report, nil
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

func analyzeColumn(header string, index int, rows [][]string) ColumnReport {
	col := ColumnReport{
		Header: header,
		Key:    NormalizeHeader(header),
	}

	values := make([]string, 0, len(rows))
	uniqueSet := make(map[string]bool)
	for _, row := range rows {
		if index >= len(row) {
			col.EmptyCount++
			continue
		}
		val := strings.TrimSpace(row[index])
		if isNull(val) {
			col.EmptyCount++
			continue
		}
		values = append(values, val)
		uniqueSet[val] = true
	}

	col.Unique = len(uniqueSet)
	col.Samples = collectSamples(uniqueSet, 5)
	col.Type = detectType(values)
	return col
}

func isNull(v string) bool {
	switch v {
	case "", "null", "NULL", "N/A", "n/a", "NA":
		return true
	}
	return false
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// detectType requires 80%+ of non-null values to match for number/date.
func detectType(values []string) string {
	if len(values) == 0 {
		return TypeEmpty
	}

	numCount := 0
	dateCount := 0
	for _, v := range values {
		if isNumeric(v) {
			numCount++
		}
		if isDate(v) {
			dateCount++
		}
	}

	threshold := int(float64(len(values)) * 0.8)
	if threshold == 0 {
		threshold = 1
	}

	if dateCount >= threshold {
		return TypeDate
	}
	if numCount >= threshold {
		return TypeNumber
	}
	return TypeText
}

func isNumeric(s string) bool {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
}

func isDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// collectSamples picks up to maxSamples values, sorted for stable output.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}
	sort.Strings(samples)
	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}

package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// ============================================================================
// SCHEMA — Describes the shape of the four civic datasets
// ============================================================================
// Each record kind has a fixed column layout. Providers use it to map CSV
// headers and SQL columns onto records; the CLI uses it to explain files.
// Column keys are normalised headers (see NormalizeHeader).
// ============================================================================

// Kind identifies one of the four record kinds.
type Kind string

const (
	KindVehicles   Kind = "vehicles"
	KindOutbreaks  Kind = "outbreaks"
	KindPopulation Kind = "population"
	KindAirQuality Kind = "air_quality"
)

// ErrUnknownKind is returned when headers or names match no record kind.
var ErrUnknownKind = errors.New("unknown dataset kind")

// Config describes the complete shape of a dataset.
type Config struct {
	Kind        Kind   `json:"kind" yaml:"kind"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	File        string `json:"file" yaml:"file"`   // conventional CSV file name
	Table       string `json:"table" yaml:"table"` // SQL table name

	Dimensions []DimensionMeta `json:"dimensions" yaml:"dimensions"`
	Measures   []MeasureMeta   `json:"measures" yaml:"measures"`
}

// DimensionMeta describes a string field used for grouping/filtering.
type DimensionMeta struct {
	Key            string `json:"key" yaml:"key"`
	DisplayName    string `json:"displayName" yaml:"display_name"`
	Required       bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Filterable     bool   `json:"filterable" yaml:"filterable"`
	IsTemporal     bool   `json:"isTemporal,omitempty" yaml:"is_temporal,omitempty"`
	TemporalFormat string `json:"temporalFormat,omitempty" yaml:"temporal_format,omitempty"`
}

// MeasureMeta describes a numeric field used for aggregation.
type MeasureMeta struct {
	Key                string `json:"key" yaml:"key"`
	DisplayName        string `json:"displayName" yaml:"display_name"`
	Required           bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Unit               string `json:"unit,omitempty" yaml:"unit,omitempty"`
	DefaultAggregation string `json:"defaultAggregation" yaml:"default_aggregation"`
	Min                *int   `json:"min,omitempty" yaml:"min,omitempty"`
	Max                *int   `json:"max,omitempty" yaml:"max,omitempty"`
}

func bound(v int) *int { return &v }

var catalogue = []Config{
	{
		Kind:        KindVehicles,
		Name:        "Vehicle registrations",
		Description: "Monthly vehicle registrations by class and fuel",
		File:        "vahan.csv",
		Table:       "vehicles",
		Dimensions: []DimensionMeta{
			DefaultDimension("state", "State"),
			DefaultDimension("district", "District"),
			DefaultDimension("vehicle_class", "Vehicle Class"),
			DefaultDimension("fuel", "Fuel"),
		},
		Measures: []MeasureMeta{
			{Key: "year", DisplayName: "Year", Required: true, DefaultAggregation: "none"},
			{Key: "month", DisplayName: "Month", Required: true, DefaultAggregation: "none", Min: bound(1), Max: bound(12)},
			{Key: "value", DisplayName: "Registrations", Required: true, Unit: "vehicles", DefaultAggregation: "sum", Min: bound(0)},
		},
	},
	{
		Kind:        KindOutbreaks,
		Name:        "Disease outbreaks",
		Description: "Reported disease outbreaks with cases and deaths",
		File:        "idsp.csv",
		Table:       "outbreaks",
		Dimensions: []DimensionMeta{
			DefaultDimension("state", "State"),
			DefaultDimension("district", "District"),
			DefaultDimension("disease_illness_name", "Disease"),
			{Key: "outbreak_starting_date", DisplayName: "Outbreak Start", Required: true, Filterable: true, IsTemporal: true, TemporalFormat: "2006-01-02"},
			{Key: "reporting_date", DisplayName: "Reporting Date", Required: true, IsTemporal: true, TemporalFormat: "2006-01-02"},
			DefaultDimension("status", "Status"),
		},
		Measures: []MeasureMeta{
			{Key: "cases", DisplayName: "Cases", Unit: "people", DefaultAggregation: "sum", Min: bound(0)},
			{Key: "deaths", DisplayName: "Deaths", Unit: "people", DefaultAggregation: "sum", Min: bound(0)},
		},
	},
	{
		Kind:        KindPopulation,
		Name:        "Population projections",
		Description: "Projected population by district, gender and year",
		File:        "population_projection.csv",
		Table:       "population",
		Dimensions: []DimensionMeta{
			DefaultDimension("state", "State"),
			DefaultDimension("district", "District"),
			DefaultDimension("gender", "Gender"),
		},
		Measures: []MeasureMeta{
			{Key: "year", DisplayName: "Year", Required: true, DefaultAggregation: "none", Min: bound(1900), Max: bound(2100)},
			{Key: "value", DisplayName: "Population", Required: true, Unit: "people", DefaultAggregation: "sum", Min: bound(0)},
		},
	},
	{
		Kind:        KindAirQuality,
		Name:        "Air quality",
		Description: "AQI readings per monitored area",
		File:        "aqi.csv",
		Table:       "air_quality",
		Dimensions: []DimensionMeta{
			DefaultDimension("state", "State"),
			DefaultDimension("area", "Area"),
			{Key: "date", DisplayName: "Date", Required: true, Filterable: true, IsTemporal: true, TemporalFormat: "2006-01-02"},
			DefaultDimension("air_quality_status", "Air Quality Status"),
			DefaultDimension("prominent_pollutants", "Prominent Pollutants"),
		},
		Measures: []MeasureMeta{
			{Key: "aqi_value", DisplayName: "AQI", Required: true, Unit: "aqi", DefaultAggregation: "avg", Min: bound(0), Max: bound(1000)},
			{Key: "number_of_monitoring_stations", DisplayName: "Monitoring Stations", DefaultAggregation: "sum", Min: bound(0)},
		},
	},
}

// DefaultDimension creates an optional, filterable DimensionMeta.
func DefaultDimension(key, displayName string) DimensionMeta {
	return DimensionMeta{
		Key:         key,
		DisplayName: displayName,
		Filterable:  true,
	}
}

// All returns the schema of every record kind in canonical order.
func All() []Config {
	out := make([]Config, len(catalogue))
	copy(out, catalogue)
	return out
}

// Kinds returns the record kinds in canonical order.
func Kinds() []Kind {
	out := make([]Kind, len(catalogue))
	for i, c := range catalogue {
		out[i] = c.Kind
	}
	return out
}

// For returns the schema of kind.
func For(kind Kind) (Config, error) {
	for _, c := range catalogue {
		if c.Kind == kind {
			return c, nil
		}
	}
	return Config{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// ParseKind accepts a kind name or its conventional file name.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range catalogue {
		if string(c.Kind) == s || c.File == s || c.Table == s {
			return c.Kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// Columns returns dimension keys followed by measure keys.
func (c Config) Columns() []string {
	return append(c.DimensionKeys(), c.MeasureKeys()...)
}

// RequiredColumns returns the columns a row cannot be parsed without.
func (c Config) RequiredColumns() []string {
	var out []string
	for _, d := range c.Dimensions {
		if d.Required {
			out = append(out, d.Key)
		}
	}
	for _, m := range c.Measures {
		if m.Required {
			out = append(out, m.Key)
		}
	}
	return out
}

// ============================================================================
// DETECTION + VALIDATION
// ============================================================================

// MissingColumnsError lists required columns absent from a header row.
type MissingColumnsError struct {
	Kind    Kind
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing required columns %s", e.Kind, strings.Join(e.Missing, ", "))
}

// Validate reports the required columns of kind that headers lack.
func Validate(kind Kind, headers []string) error {
	c, err := For(kind)
	if err != nil {
		return err
	}
	present := headerSet(headers)

	var missing []string
	for _, col := range c.RequiredColumns() {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Kind: kind, Missing: missing}
	}
	return nil
}

// Detect picks the record kind whose required columns are all present and
// which shares the most columns with headers. Ties go to canonical order.
func Detect(headers []string) (Kind, error) {
	present := headerSet(headers)

	type candidate struct {
		kind  Kind
		score int
		order int
	}
	var found []candidate
	for i, c := range catalogue {
		if Validate(c.Kind, headers) != nil {
			continue
		}
		score := 0
		for _, col := range c.Columns() {
			if present[col] {
				score++
			}
		}
		found = append(found, candidate{kind: c.Kind, score: score, order: i})
	}
	if len(found) == 0 {
		return "", fmt.Errorf("%w: headers %v", ErrUnknownKind, headers)
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].score > found[j].score })
	return found[0].kind, nil
}

func headerSet(headers []string) map[string]bool {
	set := make(map[string]bool, len(headers))
	for _, h := range headers {
		set[NormalizeHeader(h)] = true
	}
	return set
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// NormalizeHeader converts "Vehicle Class", "vehicle-class" or
// "vehicleClass" to "vehicle_class".
func NormalizeHeader(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))

	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			prev := rune(s[i-1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
	}

	s = strings.ToLower(result.String())
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t'
	}), "_")
	return s
}

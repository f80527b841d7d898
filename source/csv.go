package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/civiclens/engine"
	"github.com/spektr-org/civiclens/schema"
)

// ============================================================================
// CSV PARSING — Raw bytes → typed records, one fallible parse per row
// ============================================================================
// Headers are normalised ("Vehicle Class" → "vehicle_class") and rows are
// handed to the per-kind parser as a column → cell map. A rejected row is
// counted in the ParseReport and skipped; only an unreadable header or a
// missing required column fails the whole file.
// ============================================================================

// Row is one CSV row keyed by normalised header.
type Row map[string]string

// Get returns the trimmed cell for key.
func (r Row) Get(key string) string { return strings.TrimSpace(r[key]) }

// ParseVehicles parses vahan.csv content.
func ParseVehicles(data []byte) ([]engine.VehicleRecord, ParseReport, error) {
	return parseCSV(schema.KindVehicles, data, ParseVehicleRow)
}

// ParseOutbreaks parses idsp.csv content.
func ParseOutbreaks(data []byte) ([]engine.OutbreakRecord, ParseReport, error) {
	return parseCSV(schema.KindOutbreaks, data, ParseOutbreakRow)
}

// ParsePopulation parses population_projection.csv content.
func ParsePopulation(data []byte) ([]engine.PopulationRecord, ParseReport, error) {
	return parseCSV(schema.KindPopulation, data, ParsePopulationRow)
}

// ParseAirQuality parses aqi.csv content.
func ParseAirQuality(data []byte) ([]engine.AirQualityRecord, ParseReport, error) {
	return parseCSV(schema.KindAirQuality, data, ParseAirQualityRow)
}

func parseCSV[T any](kind schema.Kind, data []byte, parse func(Row) (T, error)) ([]T, ParseReport, error) {
	report := ParseReport{Kind: kind}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, report, fmt.Errorf("%s: read CSV headers: %w", kind, err)
	}
	if err := schema.Validate(kind, headers); err != nil {
		return nil, report, err
	}

	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = schema.NormalizeHeader(h)
	}

	records := make([]T, 0)
	line := 1
	for {
		cells, err := reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			report.reject(line, err)
			continue
		}
		if err != nil {
			return nil, report, fmt.Errorf("%s: read CSV line %d: %w", kind, line, err)
		}
		if isBlank(cells) {
			continue
		}

		row := make(Row, len(keys))
		for i, key := range keys {
			if i < len(cells) {
				row[key] = cells[i]
			}
		}

		rec, err := parse(row)
		if err != nil {
			report.reject(line, err)
			continue
		}
		records = append(records, rec)
		report.Accepted++
	}
	return records, report, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ============================================================================
// ROW PARSERS
// ============================================================================

// RowError explains why a row was rejected.
type RowError struct {
	Field  string
	Reason string
}

func (e *RowError) Error() string { return e.Field + ": " + e.Reason }

func rowErr(field, reason string) error { return &RowError{Field: field, Reason: reason} }

// ParseVehicleRow requires year, month (1–12) and a non-negative value.
func ParseVehicleRow(r Row) (engine.VehicleRecord, error) {
	year, err := requiredInt(r, "year")
	if err != nil {
		return engine.VehicleRecord{}, err
	}
	month, err := requiredInt(r, "month")
	if err != nil {
		return engine.VehicleRecord{}, err
	}
	if month < 1 || month > 12 {
		return engine.VehicleRecord{}, rowErr("month", fmt.Sprintf("%d outside 1..12", month))
	}
	value, err := requiredFloat(r, "value")
	if err != nil {
		return engine.VehicleRecord{}, err
	}
	if value < 0 {
		return engine.VehicleRecord{}, rowErr("value", "negative")
	}

	return engine.VehicleRecord{
		State:        r.Get("state"),
		District:     r.Get("district"),
		VehicleClass: r.Get("vehicle_class"),
		FuelType:     r.Get("fuel"),
		Year:         year,
		Month:        month,
		Count:        value,
	}, nil
}

// ParseOutbreakRow requires both dates with start on or before reporting.
// Missing or negative cases and deaths become 0.
func ParseOutbreakRow(r Row) (engine.OutbreakRecord, error) {
	start, err := requiredDate(r, "outbreak_starting_date")
	if err != nil {
		return engine.OutbreakRecord{}, err
	}
	reported, err := requiredDate(r, "reporting_date")
	if err != nil {
		return engine.OutbreakRecord{}, err
	}
	if start.After(reported) {
		return engine.OutbreakRecord{}, rowErr("outbreak_starting_date", "after reporting_date")
	}

	return engine.OutbreakRecord{
		State:         r.Get("state"),
		District:      r.Get("district"),
		Disease:       r.Get("disease_illness_name"),
		OutbreakStart: start,
		ReportingDate: reported,
		Cases:         clampedInt(r, "cases"),
		Deaths:        clampedInt(r, "deaths"),
		Status:        r.Get("status"),
	}, nil
}

// ParsePopulationRow requires a year in 1900..2100 and a non-negative value.
func ParsePopulationRow(r Row) (engine.PopulationRecord, error) {
	year, err := requiredInt(r, "year")
	if err != nil {
		return engine.PopulationRecord{}, err
	}
	if year < 1900 || year > 2100 {
		return engine.PopulationRecord{}, rowErr("year", fmt.Sprintf("%d outside 1900..2100", year))
	}
	value, err := requiredFloat(r, "value")
	if err != nil {
		return engine.PopulationRecord{}, err
	}
	if value < 0 {
		return engine.PopulationRecord{}, rowErr("value", "negative")
	}

	return engine.PopulationRecord{
		State:    r.Get("state"),
		District: r.Get("district"),
		Gender:   r.Get("gender"),
		Year:     year,
		Count:    value,
	}, nil
}

// ParseAirQualityRow requires a date and an AQI in 0..1000.
// Missing or negative station counts become 0.
func ParseAirQualityRow(r Row) (engine.AirQualityRecord, error) {
	aqi, err := requiredFloat(r, "aqi_value")
	if err != nil {
		return engine.AirQualityRecord{}, err
	}
	if aqi < 0 || aqi > 1000 {
		return engine.AirQualityRecord{}, rowErr("aqi_value", fmt.Sprintf("%g outside 0..1000", aqi))
	}
	date, err := requiredDate(r, "date")
	if err != nil {
		return engine.AirQualityRecord{}, err
	}

	return engine.AirQualityRecord{
		State:        r.Get("state"),
		Area:         r.Get("area"),
		Date:         date,
		AQI:          aqi,
		Status:       r.Get("air_quality_status"),
		Pollutants:   r.Get("prominent_pollutants"),
		StationCount: clampedInt(r, "number_of_monitoring_stations"),
	}, nil
}

// ============================================================================
// CELL HELPERS
// ============================================================================

func cleanNumber(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

func requiredFloat(r Row, key string) (float64, error) {
	cell := r.Get(key)
	if cell == "" {
		return 0, rowErr(key, "missing")
	}
	v, err := strconv.ParseFloat(cleanNumber(cell), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, rowErr(key, fmt.Sprintf("not a number: %q", cell))
	}
	return v, nil
}

// requiredInt accepts integral decimals such as "2023.0".
func requiredInt(r Row, key string) (int, error) {
	v, err := requiredFloat(r, key)
	if err != nil {
		return 0, err
	}
	if v != float64(int(v)) {
		return 0, rowErr(key, fmt.Sprintf("not an integer: %g", v))
	}
	return int(v), nil
}

func clampedInt(r Row, key string) int {
	v, err := strconv.ParseFloat(cleanNumber(r.Get(key)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return int(v)
}

func requiredDate(r Row, key string) (time.Time, error) {
	cell := r.Get(key)
	if cell == "" {
		return time.Time{}, rowErr(key, "missing")
	}
	parsed, err := engine.ParseDate(cell)
	if err != nil {
		return time.Time{}, rowErr(key, err.Error())
	}
	return parsed, nil
}

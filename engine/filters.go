package engine

import (
	"strings"
	"time"
)

// ============================================================================
// FILTERS — Per-dataset predicate evaluation
// ============================================================================
// The FilterSpec is compiled once into lookup sets, then every record kind is
// checked in a single pass. A record passes only if every dimension relevant
// to its kind passes. Records are copied by value into fresh slices; nothing
// in the input bundle is touched.
// ============================================================================

// Sentinels stored by the lenient decoder in place of values of the wrong
// type. They keep the dimension restricted while matching no record.
const (
	InvalidFilterValue  = "\x00invalid"
	InvalidFilterNumber = -1
)

// ApplyFilters returns the records of each dataset that satisfy spec.
// Empty spec = unfiltered copy. Nil collections stay nil.
func ApplyFilters(ds Dataset, spec FilterSpec) Dataset {
	if spec.IsEmpty() {
		return Dataset{
			Vehicles:   keep(ds.Vehicles, nil),
			Outbreaks:  keep(ds.Outbreaks, nil),
			Population: keep(ds.Population, nil),
			AirQuality: keep(ds.AirQuality, nil),
		}
	}

	f := compileFilter(spec)
	return Dataset{
		Vehicles:   keep(ds.Vehicles, f.vehicle),
		Outbreaks:  keep(ds.Outbreaks, f.outbreak),
		Population: keep(ds.Population, f.population),
		AirQuality: keep(ds.AirQuality, f.airQuality),
	}
}

// keep copies the records accepted by pass. A nil pass accepts everything.
func keep[T any](records []T, pass func(T) bool) []T {
	if records == nil {
		return nil
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if pass == nil || pass(r) {
			out = append(out, r)
		}
	}
	return out
}

// ============================================================================
// COMPILED FILTER
// ============================================================================

type compiledFilter struct {
	start, end *time.Time
	badBounds  bool

	years, months intSet

	states, districts, areas stringSet

	vehicleClasses, fuelTypes stringSet
	diseases, statuses        stringSet
	genders                   stringSet
	pollutants, aqiStatuses   stringSet
}

func compileFilter(spec FilterSpec) compiledFilter {
	t, g, c := spec.TimeRange, spec.Geography, spec.Categorical
	return compiledFilter{
		start:          t.Start,
		end:            t.End,
		badBounds:      t.InvalidBounds,
		years:          newIntSet(t.Years),
		months:         newIntSet(t.Months),
		states:         newStringSet(g.States),
		districts:      newStringSet(g.Districts),
		areas:          newStringSet(g.Areas),
		vehicleClasses: newStringSet(c.VehicleClasses),
		fuelTypes:      newStringSet(c.FuelTypes),
		diseases:       newStringSet(c.Diseases),
		statuses:       newStringSet(c.Statuses),
		genders:        newStringSet(c.Genders),
		pollutants:     newStringSet(c.Pollutants),
		aqiStatuses:    newStringSet(c.AQIStatuses),
	}
}

func (f compiledFilter) vehicle(r VehicleRecord) bool {
	return f.years.allows(r.Year) &&
		f.months.allows(r.Month) &&
		f.states.allows(r.State) &&
		f.districts.allows(r.District) &&
		f.vehicleClasses.allows(r.VehicleClass) &&
		f.fuelTypes.allows(r.FuelType)
}

func (f compiledFilter) outbreak(r OutbreakRecord) bool {
	return f.inDateRange(r.OutbreakStart) &&
		f.states.allows(r.State) &&
		f.districts.allows(r.District) &&
		f.diseases.allows(r.Disease) &&
		f.statuses.allows(r.Status)
}

func (f compiledFilter) population(r PopulationRecord) bool {
	return f.years.allows(r.Year) &&
		f.states.allows(r.State) &&
		f.districts.allows(r.District) &&
		f.genders.allows(r.Gender)
}

func (f compiledFilter) airQuality(r AirQualityRecord) bool {
	return f.inDateRange(r.Date) &&
		f.states.allows(r.State) &&
		f.areas.allows(r.Area) &&
		f.aqiStatuses.allows(r.Status) &&
		f.allowsPollutants(r.Pollutants)
}

// inDateRange checks the inclusive bounds. An undated record fails any bound,
// and every record fails an unreadable one.
func (f compiledFilter) inDateRange(d time.Time) bool {
	if f.badBounds {
		return false
	}
	if f.start == nil && f.end == nil {
		return true
	}
	if d.IsZero() {
		return false
	}
	if f.start != nil && d.Before(*f.start) {
		return false
	}
	if f.end != nil && d.After(*f.end) {
		return false
	}
	return true
}

// allowsPollutants matches the whole string or any comma-separated token.
func (f compiledFilter) allowsPollutants(value string) bool {
	if f.pollutants == nil {
		return true
	}
	if f.pollutants.contains(value) {
		return true
	}
	for _, token := range splitPollutants(value) {
		if f.pollutants.contains(token) {
			return true
		}
	}
	return false
}

// splitPollutants returns the trimmed, non-empty comma-separated tokens.
func splitPollutants(value string) []string {
	var tokens []string
	for _, token := range strings.Split(value, ",") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// ============================================================================
// LOOKUP SETS
// ============================================================================

// stringSet is nil when the dimension is unrestricted.
type stringSet map[string]struct{}

func newStringSet(values []string) stringSet {
	if len(values) == 0 {
		return nil
	}
	set := make(stringSet, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func (s stringSet) contains(v string) bool {
	_, ok := s[v]
	return ok
}

func (s stringSet) allows(v string) bool {
	return s == nil || s.contains(v)
}

type intSet map[int]struct{}

func newIntSet(values []int) intSet {
	if len(values) == 0 {
		return nil
	}
	set := make(intSet, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func (s intSet) allows(v int) bool {
	if s == nil {
		return true
	}
	_, ok := s[v]
	return ok
}

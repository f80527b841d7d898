package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// ============================================================================
// AGGREGATORS — Grouping, Aggregation, and Sorting via RecordView
// ============================================================================
// All functions operate on RecordView with zero-copy access to any record kind.
// Grouping produces SubViews (index lists into parent view) in first-seen
// key order, so every group-by sequence is deterministic.
// ============================================================================

// Aggregation modes.
const (
	AggSum   = "sum"
	AggCount = "count"
	AggAvg   = "avg"
	AggMax   = "max"
	AggMin   = "min"
)

// Sort modes. SortNone keeps first-seen order.
const (
	SortNone          = ""
	SortValueDesc     = "value_desc"
	SortValueAsc      = "value_asc"
	SortChronological = "chronological"
	SortLabelAsc      = "label_asc"
)

// Group is one bucket of a group-by: the key, the records that share it,
// and the aggregated value.
type Group struct {
	Key   string
	View  RecordView
	Value float64
	Count int
}

// GroupAndAggregate is the main entry point for the aggregation pipeline.
// Pipeline: group → aggregate → sort.
func GroupAndAggregate(view RecordView, dimension, measure, aggregation, sortBy string) []Group {
	if view == nil || view.Len() == 0 {
		return nil
	}

	groups := groupBySingle(view, dimension)
	for i := range groups {
		aggregateGroup(&groups[i], measure, aggregation)
	}
	SortGroups(groups, sortBy)
	return groups
}

// GroupSum sums measure per distinct value of dimension, first-seen order.
func GroupSum(view RecordView, dimension, measure string) []NamedValue {
	return toNamedValues(GroupAndAggregate(view, dimension, measure, AggSum, SortNone))
}

// GroupCount counts records per distinct value of dimension, first-seen order.
func GroupCount(view RecordView, dimension string) []NamedValue {
	return toNamedValues(GroupAndAggregate(view, dimension, "", AggCount, SortNone))
}

func toNamedValues(groups []Group) []NamedValue {
	out := make([]NamedValue, len(groups))
	for i, g := range groups {
		out[i] = NamedValue{Name: g.Key, Value: g.Value}
	}
	return out
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dimension)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:  key,
			View: newSubView(view, grouped[key]),
		})
	}
	return groups
}

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateGroup(group *Group, measure string, aggregation string) {
	group.Count = group.View.Len()
	if group.Count == 0 {
		return
	}

	switch aggregation {
	case AggCount:
		group.Value = float64(group.Count)
	case AggAvg:
		group.Value = AvgMeasure(group.View, measure)
	case AggMax:
		group.Value = MaxMeasure(group.View, measure)
	case AggMin:
		group.Value = MinMeasure(group.View, measure)
	default:
		group.Value = SumMeasure(group.View, measure)
	}
}

// SumMeasure sums a named measure across a view.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		total += view.Measure(i, measure)
	}
	return total
}

// AvgMeasure computes average of a named measure.
func AvgMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	return SumMeasure(view, measure) / float64(n)
}

// MaxMeasure returns the largest value of a named measure.
func MaxMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	m := math.Inf(-1)
	for i := 0; i < n; i++ {
		if v := view.Measure(i, measure); v > m {
			m = v
		}
	}
	return m
}

// MinMeasure returns the smallest value of a named measure.
func MinMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	m := math.Inf(1)
	for i := 0; i < n; i++ {
		if v := view.Measure(i, measure); v < m {
			m = v
		}
	}
	return m
}

// MeasureValues returns a measure for every record of the view, in order.
func MeasureValues(view RecordView, measure string) []float64 {
	out := make([]float64, view.Len())
	for i := range out {
		out[i] = view.Measure(i, measure)
	}
	return out
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups sorts aggregate groups by the specified sort mode.
// Sorting is stable: equal keys keep their first-seen order.
func SortGroups(groups []Group, sortBy string) {
	switch sortBy {
	case SortValueDesc:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value > groups[j].Value })
	case SortValueAsc:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value < groups[j].Value })
	case SortChronological:
		sort.SliceStable(groups, func(i, j int) bool {
			return parseSortableDate(groups[i].Key) < parseSortableDate(groups[j].Key)
		})
	case SortLabelAsc:
		sort.SliceStable(groups, func(i, j int) bool {
			return strings.ToLower(groups[i].Key) < strings.ToLower(groups[j].Key)
		})
	default:
		// preserve grouping order
	}
}

// parseSortableDate converts "2023-04" to 202304 and "2023" to 202300.
// Unparseable keys sort first.
func parseSortableDate(key string) int {
	if t, err := time.Parse("2006-01", key); err == nil {
		return t.Year()*100 + int(t.Month())
	}
	if t, err := time.Parse("2006", key); err == nil {
		return t.Year() * 100
	}
	return 0
}

// ============================================================================
// CIVIC AGGREGATES
// ============================================================================

// TotalVehicles sums vehicle registration counts.
func TotalVehicles(records []VehicleRecord) float64 {
	return SumMeasure(VehicleView(records), MeasureCount)
}

// TotalCases sums outbreak cases.
func TotalCases(records []OutbreakRecord) float64 {
	return SumMeasure(OutbreakView(records), MeasureCases)
}

// TotalDeaths sums outbreak deaths.
func TotalDeaths(records []OutbreakRecord) float64 {
	return SumMeasure(OutbreakView(records), MeasureDeaths)
}

// AverageAQI is the unrounded mean AQI, 0 when there are no readings.
func AverageAQI(records []AirQualityRecord) float64 {
	return AvgMeasure(AirQualityView(records), MeasureAQI)
}

// TotalPopulation sums population counts.
func TotalPopulation(records []PopulationRecord) float64 {
	return SumMeasure(PopulationView(records), MeasureCount)
}

// VehiclesByClass sums vehicle counts per class.
func VehiclesByClass(records []VehicleRecord) []NamedValue {
	return GroupSum(VehicleView(records), DimVehicleClass, MeasureCount)
}

// AQIByStatus counts AQI readings per status.
func AQIByStatus(records []AirQualityRecord) []NamedValue {
	return GroupCount(AirQualityView(records), DimStatus)
}

// CasesByState sums outbreak cases per state.
func CasesByState(records []OutbreakRecord) []NamedValue {
	return GroupSum(OutbreakView(records), DimState, MeasureCases)
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatPercent renders a share as "12.3%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// FormatRounded renders v rounded to the nearest integer ("275").
func FormatRounded(v float64) string {
	return fmt.Sprintf("%.0f", math.Round(v))
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UniqueValues returns distinct non-empty values for a dimension, first-seen order.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

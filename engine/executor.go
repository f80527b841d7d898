package engine

import (
	"sort"
	"time"
)

// ============================================================================
// EXECUTOR — One recomputation cycle
// ============================================================================
// Entry point: Execute(ds, spec, opts...)
//
// Pipeline:
//   1. Apply filters from FilterSpec → fresh Dataset
//   2. Aggregate → Analytics
//   3. Run the insight rule catalogue → []InsightCard
//   4. Summarise → DataSummary
//   5. Return Result
//
// The engine performs no I/O and never blocks. Each call is independent:
// callers that recompute on every filter change keep the latest result.
// ============================================================================

// Execute filters ds by spec and returns the render-ready Result.
//
// Options:
//   - WithLogger(logger): debug logging of the pipeline
//   - WithAnomalySigma(sigma): deviation multiple for anomaly rules
//   - WithInsightLimit(n): fewer than MaxInsights cards
//   - WithBubbleJoin(join): first-match or summed bubble join
func Execute(ds Dataset, spec FilterSpec, opts ...Option) *Result {
	cfg := applyOptions(opts)
	started := time.Now()

	filtered := ApplyFilters(ds, spec)

	result := &Result{
		Filtered:  filtered,
		Analytics: buildAnalytics(filtered, cfg),
		Insights:  generateInsights(filtered, cfg),
		Summary:   BuildSummary(filtered),
	}

	cfg.Logger.Debug("civiclens recompute",
		"records_in", ds.Len(),
		"records_out", filtered.Len(),
		"insights", len(result.Insights),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return result
}

// ============================================================================
// FILTER OPTIONS
// ============================================================================

// CollectFilterOptions lists the distinct values of every filter dimension
// across ds, sorted ascending. Empty values are skipped.
func CollectFilterOptions(ds Dataset) FilterOptions {
	vehicles := VehicleView(ds.Vehicles)
	outbreaks := OutbreakView(ds.Outbreaks)
	population := PopulationView(ds.Population)
	air := AirQualityView(ds.AirQuality)

	years := make(map[int]struct{})
	months := make(map[int]struct{})
	for _, v := range ds.Vehicles {
		years[v.Year] = struct{}{}
		months[v.Month] = struct{}{}
	}
	for _, p := range ds.Population {
		years[p.Year] = struct{}{}
	}

	return FilterOptions{
		States:         sortedUnion(vehicles, outbreaks, population, air)(DimState),
		Districts:      sortedUnion(vehicles, outbreaks, population)(DimDistrict),
		Areas:          sortedUnion(air)(DimArea),
		VehicleClasses: sortedUnion(vehicles)(DimVehicleClass),
		FuelTypes:      sortedUnion(vehicles)(DimFuel),
		Diseases:       sortedUnion(outbreaks)(DimDisease),
		Statuses:       sortedUnion(outbreaks)(DimStatus),
		Genders:        sortedUnion(population)(DimGender),
		Pollutants:     pollutantTokens(ds.AirQuality),
		AQIStatuses:    sortedUnion(air)(DimStatus),
		Years:          sortedInts(years),
		Months:         sortedInts(months),
	}
}

func sortedUnion(views ...RecordView) func(dimension string) []string {
	return func(dimension string) []string {
		seen := make(map[string]struct{})
		out := make([]string, 0)
		for _, v := range views {
			for _, val := range UniqueValues(v, dimension) {
				if _, ok := seen[val]; ok {
					continue
				}
				seen[val] = struct{}{}
				out = append(out, val)
			}
		}
		sort.Strings(out)
		return out
	}
}

// pollutantTokens splits comma-separated pollutant lists into single names.
func pollutantTokens(records []AirQualityRecord) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range records {
		for _, p := range splitPollutants(r.Pollutants) {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func sortedInts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		if v > 0 {
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// CHART BUILDER — Chart-shape projections of the filtered bundle
// ============================================================================
// Every builder returns a non-nil slice so empty charts serialize as [].
// Category order is first-seen unless a builder says otherwise.
// ============================================================================

// RadarAxes is the number of vehicle classes shown on the radar chart.
const RadarAxes = 6

// BubbleJoin selects how an AQI reading is matched to population and
// outbreak records of the same state.
type BubbleJoin int

const (
	// JoinFirst takes the first matching record.
	JoinFirst BubbleJoin = iota
	// JoinSum adds up every matching record.
	JoinSum
)

func (j BubbleJoin) String() string {
	switch j {
	case JoinSum:
		return "sum"
	default:
		return "first"
	}
}

// ParseBubbleJoin accepts "first" or "sum". Empty means first.
func ParseBubbleJoin(s string) (BubbleJoin, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return JoinFirst, nil
	case "sum":
		return JoinSum, nil
	default:
		return JoinFirst, fmt.Errorf("unknown bubble join %q (want first or sum)", s)
	}
}

// BuildAnalytics computes every scalar, group-by and chart projection.
func BuildAnalytics(ds Dataset, opts ...Option) Analytics {
	cfg := applyOptions(opts)
	return buildAnalytics(ds, cfg)
}

func buildAnalytics(ds Dataset, cfg *config) Analytics {
	return Analytics{
		TotalVehicles:   TotalVehicles(ds.Vehicles),
		TotalCases:      TotalCases(ds.Outbreaks),
		TotalDeaths:     TotalDeaths(ds.Outbreaks),
		AvgAQI:          AverageAQI(ds.AirQuality),
		TotalPopulation: TotalPopulation(ds.Population),

		VehiclesByClass: VehiclesByClass(ds.Vehicles),
		AQIByStatus:     AQIByStatus(ds.AirQuality),
		CasesByState:    CasesByState(ds.Outbreaks),

		DiseaseHeatmap:    BuildDiseaseHeatmap(ds.Outbreaks),
		AQIHeatmap:        BuildAQIHeatmap(ds.AirQuality),
		Bubbles:           BuildBubbles(ds, cfg.BubbleJoin),
		Radar:             BuildRadar(ds.Vehicles),
		BoxPlots:          BuildBoxPlots(ds.AirQuality),
		RegistrationTrend: BuildRegistrationTrend(ds.Vehicles),
		StationScatter:    BuildStationScatter(ds.AirQuality),
	}
}

// ============================================================================
// HEATMAPS
// ============================================================================

const pairSep = "\x1f"

// BuildDiseaseHeatmap sums cases per (district, disease) pair, one cell per
// pair in first-seen order. Repeated outbreaks of a pair collapse into one
// cell rather than one cell per record.
func BuildDiseaseHeatmap(records []OutbreakRecord) []HeatmapCell {
	var cells OrderedSums
	for _, r := range records {
		cells.Add(r.District+pairSep+r.Disease, float64(r.Cases))
	}
	return heatmapCells(cells.Pairs())
}

// BuildAQIHeatmap averages AQI per (area, state) pair. Several readings of
// one station become a single cell holding their mean, not one cell each.
func BuildAQIHeatmap(records []AirQualityRecord) []HeatmapCell {
	var cells OrderedSums
	for _, r := range records {
		cells.Add(r.Area+pairSep+r.State, r.AQI)
	}
	return heatmapCells(cells.Means())
}

func heatmapCells(pairs []NamedValue) []HeatmapCell {
	out := make([]HeatmapCell, len(pairs))
	for i, p := range pairs {
		x, y, _ := strings.Cut(p.Name, pairSep)
		out[i] = HeatmapCell{X: x, Y: y, Value: p.Value}
	}
	return out
}

// ============================================================================
// BUBBLES
// ============================================================================

// BuildBubbles emits one bubble per AQI reading: X=AQI, Y=population and
// Z=deaths of the reading's state. Readings whose state has no positive
// population are dropped.
func BuildBubbles(ds Dataset, join BubbleJoin) []Bubble {
	population := stateLookup(ds.Population, join,
		func(r PopulationRecord) (string, float64) { return r.State, r.Count })
	deaths := stateLookup(ds.Outbreaks, join,
		func(r OutbreakRecord) (string, float64) { return r.State, float64(r.Deaths) })

	out := make([]Bubble, 0, len(ds.AirQuality))
	for _, r := range ds.AirQuality {
		y := population[r.State]
		if y <= 0 {
			continue
		}
		out = append(out, Bubble{X: r.AQI, Y: y, Z: deaths[r.State], Label: r.State})
	}
	return out
}

// stateLookup indexes records by exact state name.
func stateLookup[T any](records []T, join BubbleJoin, field func(T) (string, float64)) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range records {
		state, v := field(r)
		if _, seen := out[state]; seen && join == JoinFirst {
			continue
		}
		out[state] += v
	}
	return out
}

// ============================================================================
// RADAR + BOX PLOTS
// ============================================================================

// BuildRadar takes the first RadarAxes vehicle classes. FullMark is the
// largest value among the chosen axes.
func BuildRadar(records []VehicleRecord) []RadarAxis {
	classes := VehiclesByClass(records)
	if len(classes) > RadarAxes {
		classes = classes[:RadarAxes]
	}

	var fullMark float64
	for _, c := range classes {
		if c.Value > fullMark {
			fullMark = c.Value
		}
	}

	out := make([]RadarAxis, len(classes))
	for i, c := range classes {
		out[i] = RadarAxis{Subject: c.Name, Value: c.Value, FullMark: fullMark}
	}
	return out
}

// BuildBoxPlots groups AQI values by status.
func BuildBoxPlots(records []AirQualityRecord) []BoxGroup {
	view := AirQualityView(records)
	groups := groupBySingle(view, DimStatus)

	out := make([]BoxGroup, 0, len(groups))
	for _, g := range groups {
		values := MeasureValues(g.View, MeasureAQI)
		if len(values) == 0 {
			continue
		}
		out = append(out, BoxGroup{
			Category: g.Key,
			Values:   values,
			Box:      ComputeBoxStats(values),
		})
	}
	return out
}

// ============================================================================
// TREND + SCATTER
// ============================================================================

// BuildRegistrationTrend sums vehicle counts per "YYYY-MM", oldest first.
func BuildRegistrationTrend(records []VehicleRecord) []TrendPoint {
	groups := GroupAndAggregate(VehicleView(records), DimPeriod, MeasureCount, AggSum, SortChronological)

	out := make([]TrendPoint, len(groups))
	for i, g := range groups {
		out[i] = TrendPoint{Period: g.Key, Value: g.Value}
	}
	return out
}

// BuildStationScatter plots monitoring stations against AQI per reading.
func BuildStationScatter(records []AirQualityRecord) []ScatterPoint {
	out := make([]ScatterPoint, len(records))
	for i, r := range records {
		out[i] = ScatterPoint{X: float64(r.StationCount), Y: r.AQI, Label: r.Area}
	}
	return out
}

package engine

import "time"

// ============================================================================
// CIVICLENS ENGINE TYPES — Record model, filter spec, render-ready output
// ============================================================================
// Four fixed record kinds flow through the engine as immutable values.
// The engine never owns provider data: it reads the slices it is handed and
// builds fresh slices for every filtered or aggregated result.
// ============================================================================

// ============================================================================
// RECORDS
// ============================================================================

// VehicleRecord is one row of the vehicle registration dataset.
type VehicleRecord struct {
	State        string  `json:"state" yaml:"state"`
	District     string  `json:"district" yaml:"district"`
	VehicleClass string  `json:"vehicleClass" yaml:"vehicle_class"`
	FuelType     string  `json:"fuelType" yaml:"fuel_type"`
	Year         int     `json:"year" yaml:"year"`
	Month        int     `json:"month" yaml:"month"` // 1–12
	Count        float64 `json:"count" yaml:"count"`
}

// OutbreakRecord is one disease outbreak report.
// Deaths > Cases is tolerated and surfaced as a data-quality anomaly.
type OutbreakRecord struct {
	State         string    `json:"state" yaml:"state"`
	District      string    `json:"district" yaml:"district"`
	Disease       string    `json:"disease" yaml:"disease"`
	OutbreakStart time.Time `json:"outbreakStart" yaml:"outbreak_start"`
	ReportingDate time.Time `json:"reportingDate" yaml:"reporting_date"`
	Cases         int       `json:"cases" yaml:"cases"`
	Deaths        int       `json:"deaths" yaml:"deaths"`
	Status        string    `json:"status" yaml:"status"`
}

// PopulationRecord is one population projection row.
type PopulationRecord struct {
	State    string  `json:"state" yaml:"state"`
	District string  `json:"district" yaml:"district"`
	Gender   string  `json:"gender" yaml:"gender"`
	Year     int     `json:"year" yaml:"year"`
	Count    float64 `json:"count" yaml:"count"`
}

// AirQualityRecord is one AQI reading for an area.
type AirQualityRecord struct {
	State        string    `json:"state" yaml:"state"`
	Area         string    `json:"area" yaml:"area"`
	Date         time.Time `json:"date" yaml:"date"`
	AQI          float64   `json:"aqiValue" yaml:"aqi_value"`
	Status       string    `json:"status" yaml:"status"`
	Pollutants   string    `json:"pollutants" yaml:"pollutants"`
	StationCount int       `json:"stationCount" yaml:"station_count"`
}

// Dataset bundles the four record collections.
// A dataset that failed to load is represented by an empty slice.
type Dataset struct {
	Vehicles   []VehicleRecord    `json:"vehicles" yaml:"vehicles"`
	Outbreaks  []OutbreakRecord   `json:"outbreaks" yaml:"outbreaks"`
	Population []PopulationRecord `json:"population" yaml:"population"`
	AirQuality []AirQualityRecord `json:"airQuality" yaml:"air_quality"`
}

// Len returns the number of records across all four collections.
func (d Dataset) Len() int {
	return len(d.Vehicles) + len(d.Outbreaks) + len(d.Population) + len(d.AirQuality)
}

// IsEmpty reports whether no collection holds a record.
func (d Dataset) IsEmpty() bool { return d.Len() == 0 }

// ============================================================================
// FILTER SPEC
// ============================================================================

// FilterSpec selects records per dataset.
// Each set-valued field: empty = no restriction, non-empty = must be a member.
// All dimensions are AND-combined; a dimension a record kind does not carry
// is ignored for that kind.
type FilterSpec struct {
	TimeRange   TimeRange   `json:"timeRange" yaml:"time_range"`
	Geography   Geography   `json:"geographical" yaml:"geography"`
	Categorical Categorical `json:"categorical" yaml:"categorical"`
}

// TimeRange restricts records by date bounds, years and months.
// Start and End are inclusive and only apply to dated records.
// InvalidBounds marks a date bound that was supplied but unreadable; no
// dated record matches it.
type TimeRange struct {
	Start         *time.Time `json:"startDate,omitempty" yaml:"start,omitempty"`
	End           *time.Time `json:"endDate,omitempty" yaml:"end,omitempty"`
	InvalidBounds bool       `json:"invalidBounds,omitempty" yaml:"invalid_bounds,omitempty"`
	Years         []int      `json:"years" yaml:"years"`
	Months        []int      `json:"months" yaml:"months"`
}

// Geography restricts records by location.
type Geography struct {
	States    []string `json:"states" yaml:"states"`
	Districts []string `json:"districts" yaml:"districts"`
	Areas     []string `json:"areas" yaml:"areas"`
}

// Categorical restricts records by categorical fields.
type Categorical struct {
	VehicleClasses []string `json:"vehicleClasses" yaml:"vehicle_classes"`
	FuelTypes      []string `json:"fuelTypes" yaml:"fuel_types"`
	Diseases       []string `json:"diseases" yaml:"diseases"`
	Statuses       []string `json:"statuses" yaml:"statuses"`
	Genders        []string `json:"genders" yaml:"genders"`
	Pollutants     []string `json:"pollutants" yaml:"pollutants"`
	AQIStatuses    []string `json:"aqiStatuses" yaml:"aqi_statuses"`
}

// IsEmpty returns true if no filter dimension is set.
func (f FilterSpec) IsEmpty() bool {
	t, g, c := f.TimeRange, f.Geography, f.Categorical
	return t.Start == nil && t.End == nil && !t.InvalidBounds &&
		len(t.Years) == 0 && len(t.Months) == 0 &&
		len(g.States) == 0 && len(g.Districts) == 0 && len(g.Areas) == 0 &&
		len(c.VehicleClasses) == 0 && len(c.FuelTypes) == 0 &&
		len(c.Diseases) == 0 && len(c.Statuses) == 0 && len(c.Genders) == 0 &&
		len(c.Pollutants) == 0 && len(c.AQIStatuses) == 0
}

// ============================================================================
// AGGREGATE SHAPES
// ============================================================================

// NamedValue is one {category, value} pair of a group-by aggregate.
type NamedValue struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// HeatmapCell is one cell of a two-category heatmap.
type HeatmapCell struct {
	X     string  `json:"x" yaml:"x"`
	Y     string  `json:"y" yaml:"y"`
	Value float64 `json:"value" yaml:"value"`
}

// Bubble is one point of the AQI × population × deaths bubble chart.
type Bubble struct {
	X     float64 `json:"x" yaml:"x"` // AQI
	Y     float64 `json:"y" yaml:"y"` // matched population
	Z     float64 `json:"z" yaml:"z"` // matched deaths
	Label string  `json:"name" yaml:"name"`
}

// RadarAxis is one spoke of the vehicle class radar chart.
type RadarAxis struct {
	Subject  string  `json:"subject" yaml:"subject"`
	Value    float64 `json:"value" yaml:"value"`
	FullMark float64 `json:"fullMark" yaml:"full_mark"`
}

// BoxGroup holds the AQI values sharing one status, plus their box statistics.
type BoxGroup struct {
	Category string    `json:"category" yaml:"category"`
	Values   []float64 `json:"values" yaml:"values"`
	Box      BoxStats  `json:"box" yaml:"box"`
}

// ScatterPoint is one point of the AQI vs monitoring stations scatter.
type ScatterPoint struct {
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Label string  `json:"label" yaml:"label"`
}

// TrendPoint is one period of a chronological series ("2023-01").
type TrendPoint struct {
	Period string  `json:"period" yaml:"period"`
	Value  float64 `json:"value" yaml:"value"`
}

// Analytics is the full aggregate output for one (dataset, filter) pair.
type Analytics struct {
	TotalVehicles   float64 `json:"totalVehicles" yaml:"total_vehicles"`
	TotalCases      float64 `json:"totalCases" yaml:"total_cases"`
	TotalDeaths     float64 `json:"totalDeaths" yaml:"total_deaths"`
	AvgAQI          float64 `json:"avgAqi" yaml:"avg_aqi"`
	TotalPopulation float64 `json:"totalPopulation" yaml:"total_population"`

	VehiclesByClass []NamedValue `json:"vehicleByClass" yaml:"vehicle_by_class"`
	AQIByStatus     []NamedValue `json:"aqiByStatus" yaml:"aqi_by_status"`
	CasesByState    []NamedValue `json:"diseasesByState" yaml:"diseases_by_state"`

	DiseaseHeatmap    []HeatmapCell  `json:"diseaseHeatmapData" yaml:"disease_heatmap"`
	AQIHeatmap        []HeatmapCell  `json:"aqiHeatmapData" yaml:"aqi_heatmap"`
	Bubbles           []Bubble       `json:"bubbleData" yaml:"bubbles"`
	Radar             []RadarAxis    `json:"radarData" yaml:"radar"`
	BoxPlots          []BoxGroup     `json:"boxPlotData" yaml:"box_plots"`
	RegistrationTrend []TrendPoint   `json:"registrationTrend" yaml:"registration_trend"`
	StationScatter    []ScatterPoint `json:"stationScatter" yaml:"station_scatter"`
}

// ============================================================================
// INSIGHTS + SUMMARY
// ============================================================================

// Insight categories.
const (
	CategoryTrend       = "trend"
	CategoryCorrelation = "correlation"
	CategoryAnomaly     = "anomaly"
	CategoryComparison  = "comparison"
	CategoryAlert       = "alert"
)

// Insight severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// InsightCard is one rule-engine observation.
type InsightCard struct {
	ID            string   `json:"id" yaml:"id"`
	Title         string   `json:"title" yaml:"title"`
	Description   string   `json:"description" yaml:"description"`
	Category      string   `json:"type" yaml:"category"`
	Severity      string   `json:"severity" yaml:"severity"`
	DisplayValue  string   `json:"value,omitempty" yaml:"display_value,omitempty"`
	PercentChange *float64 `json:"change,omitempty" yaml:"percent_change,omitempty"`
}

// DateRange is an inclusive [Start, End] span.
type DateRange struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// KeyMetrics are the headline numbers of a data summary.
type KeyMetrics struct {
	TotalVehicles   float64 `json:"totalVehicles" yaml:"total_vehicles"`
	TotalCases      float64 `json:"totalCases" yaml:"total_cases"`
	AvgAQI          float64 `json:"avgAQI" yaml:"avg_aqi"`
	TotalPopulation float64 `json:"totalPopulation" yaml:"total_population"`
}

// DataSummary describes the filtered bundle as a whole.
type DataSummary struct {
	TotalRecords int          `json:"totalRecords" yaml:"total_records"`
	DateRange    *DateRange   `json:"dateRange" yaml:"date_range"`
	TopStates    []NamedValue `json:"topStates" yaml:"top_states"`
	KeyMetrics   KeyMetrics   `json:"keyMetrics" yaml:"key_metrics"`
	Anomalies    []string     `json:"anomalies" yaml:"anomalies"`
	Trends       []string     `json:"trends" yaml:"trends"`
}

// ============================================================================
// RESULT
// ============================================================================

// Result is the engine's render-ready output bundle.
type Result struct {
	Filtered  Dataset       `json:"filteredData" yaml:"filtered_data"`
	Analytics Analytics     `json:"analytics" yaml:"analytics"`
	Insights  []InsightCard `json:"insights" yaml:"insights"`
	Summary   DataSummary   `json:"dataSummary" yaml:"data_summary"`
}

// FilterOptions lists the selectable values of every filter dimension.
type FilterOptions struct {
	States         []string `json:"states" yaml:"states"`
	Districts      []string `json:"districts" yaml:"districts"`
	Areas          []string `json:"areas" yaml:"areas"`
	VehicleClasses []string `json:"vehicleClasses" yaml:"vehicle_classes"`
	FuelTypes      []string `json:"fuelTypes" yaml:"fuel_types"`
	Diseases       []string `json:"diseases" yaml:"diseases"`
	Statuses       []string `json:"statuses" yaml:"statuses"`
	Genders        []string `json:"genders" yaml:"genders"`
	Pollutants     []string `json:"pollutants" yaml:"pollutants"`
	AQIStatuses    []string `json:"aqiStatuses" yaml:"aqi_statuses"`
	Years          []int    `json:"years" yaml:"years"`
	Months         []int    `json:"months" yaml:"months"`
}

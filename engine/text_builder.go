package engine

import (
	"fmt"
)

// ============================================================================
// TEXT BUILDER — Plain-language digest of a Result
// ============================================================================
// Used by terminal and log consumers that cannot draw charts.
// ============================================================================

// Growth directions.
const (
	DirectionIncreased    = "increased"
	DirectionDecreased    = "decreased"
	DirectionUnchanged    = "unchanged"
	DirectionInsufficient = "insufficient data"
)

// TextData is the digest of one recomputation.
type TextData struct {
	Period    string      `json:"period" yaml:"period"`
	Headline  []TextLine  `json:"headline" yaml:"headline"`
	Growth    *GrowthData `json:"growth,omitempty" yaml:"growth,omitempty"`
	Insights  []string    `json:"insights" yaml:"insights"`
	Anomalies []string    `json:"anomalies" yaml:"anomalies"`
	Trends    []string    `json:"trends" yaml:"trends"`
}

// TextLine is one labelled headline figure.
type TextLine struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// GrowthData compares the earliest and latest registration periods.
type GrowthData struct {
	EarliestValue  float64 `json:"earliestValue" yaml:"earliest_value"`
	LatestValue    float64 `json:"latestValue" yaml:"latest_value"`
	EarliestPeriod string  `json:"earliestPeriod" yaml:"earliest_period"`
	LatestPeriod   string  `json:"latestPeriod" yaml:"latest_period"`
	ChangeAmount   float64 `json:"changeAmount" yaml:"change_amount"`
	ChangePercent  float64 `json:"changePercent" yaml:"change_percent"`
	Direction      string  `json:"direction" yaml:"direction"`
}

// BuildText summarises r in display strings.
func BuildText(r *Result) *TextData {
	a := r.Analytics
	td := &TextData{
		Period: DerivePeriod(r.Summary.DateRange),
		Headline: []TextLine{
			{Label: "Records", Value: FormatInt(r.Summary.TotalRecords)},
			{Label: "Vehicles", Value: FormatInt(int(a.TotalVehicles))},
			{Label: "Cases", Value: FormatInt(int(a.TotalCases))},
			{Label: "Deaths", Value: FormatInt(int(a.TotalDeaths))},
			{Label: "Average AQI", Value: FormatRounded(a.AvgAQI)},
			{Label: "Population", Value: FormatInt(int(a.TotalPopulation))},
		},
		Insights:  make([]string, 0, len(r.Insights)),
		Anomalies: r.Summary.Anomalies,
		Trends:    r.Summary.Trends,
	}

	if len(a.RegistrationTrend) > 0 {
		td.Growth = BuildGrowth(a.RegistrationTrend)
	}

	for _, card := range r.Insights {
		line := fmt.Sprintf("[%s] %s: %s", card.Severity, card.Title, card.Description)
		td.Insights = append(td.Insights, line)
	}
	return td
}

// ============================================================================
// GROWTH BUILDER
// ============================================================================

// BuildGrowth compares the first and last points of a chronological series.
// Fewer than two periods yields DirectionInsufficient.
func BuildGrowth(trend []TrendPoint) *GrowthData {
	if len(trend) == 0 {
		return &GrowthData{Direction: DirectionInsufficient}
	}

	earliest := trend[0]
	latest := trend[len(trend)-1]
	if len(trend) < 2 {
		return &GrowthData{
			EarliestValue:  earliest.Value,
			LatestValue:    earliest.Value,
			EarliestPeriod: earliest.Period,
			LatestPeriod:   earliest.Period,
			Direction:      DirectionInsufficient,
		}
	}

	change := latest.Value - earliest.Value
	percent := ratio(change, earliest.Value) * 100

	direction := DirectionUnchanged
	if percent > 0.5 {
		direction = DirectionIncreased
	} else if percent < -0.5 {
		direction = DirectionDecreased
	}

	return &GrowthData{
		EarliestValue:  earliest.Value,
		LatestValue:    latest.Value,
		EarliestPeriod: earliest.Period,
		LatestPeriod:   latest.Period,
		ChangeAmount:   change,
		ChangePercent:  percent,
		Direction:      direction,
	}
}

// ============================================================================
// PERIOD HELPER
// ============================================================================

// DerivePeriod builds a human-readable period string from a date range.
func DerivePeriod(r *DateRange) string {
	if r == nil {
		return "All time"
	}
	start, end := r.Start.Format("2006-01-02"), r.End.Format("2006-01-02")
	if start == end {
		return start
	}
	return fmt.Sprintf("%s – %s", start, end)
}

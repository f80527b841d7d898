package engine

import (
	"sort"
	"strings"
	"time"
)

// TopStatesLimit is how many states BuildSummary ranks.
const TopStatesLimit = 5

// populationWeight scales population down so it does not swamp vehicle counts
// in the state activity score.
const populationWeight = 0.001

// Summary texts.
const (
	AnomalyExtremeAQI      = "Extreme AQI values detected (>500)"
	AnomalyDeathsExceed    = "Data inconsistency: Deaths exceed cases in some records"
	TrendElectricAdoption  = "Electric vehicle adoption is increasing"
	TrendAirQualityDecline = "Air quality deteriorating in multiple regions"
)

const (
	extremeAQI    = 500.0
	poorAQIShare  = 0.3
	electricToken = "electric"
	poorToken     = "poor"
)

// BuildSummary describes the filtered bundle: record count, date span,
// most active states, headline metrics and free-text flags.
func BuildSummary(ds Dataset) DataSummary {
	return DataSummary{
		TotalRecords: ds.Len(),
		DateRange:    dateRange(ds),
		TopStates:    topStates(ds),
		KeyMetrics: KeyMetrics{
			TotalVehicles:   TotalVehicles(ds.Vehicles),
			TotalCases:      TotalCases(ds.Outbreaks),
			AvgAQI:          AverageAQI(ds.AirQuality),
			TotalPopulation: TotalPopulation(ds.Population),
		},
		Anomalies: anomalyDescriptions(ds),
		Trends:    trendDescriptions(ds),
	}
}

// dateRange spans outbreak start dates and AQI dates. Undated records are skipped.
func dateRange(ds Dataset) *DateRange {
	var r *DateRange
	observe := func(t time.Time) {
		if t.IsZero() {
			return
		}
		if r == nil {
			r = &DateRange{Start: t, End: t}
			return
		}
		if t.Before(r.Start) {
			r.Start = t
		}
		if t.After(r.End) {
			r.End = t
		}
	}
	for _, o := range ds.Outbreaks {
		observe(o.OutbreakStart)
	}
	for _, a := range ds.AirQuality {
		observe(a.Date)
	}
	return r
}

// topStates ranks states by vehicles + 0.001 × population, descending.
// Equal scores keep first-encountered order.
func topStates(ds Dataset) []NamedValue {
	var score OrderedSums
	for _, v := range ds.Vehicles {
		score.Add(v.State, v.Count)
	}
	for _, p := range ds.Population {
		score.Add(p.State, p.Count*populationWeight)
	}

	ranked := score.Pairs()
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Value > ranked[j].Value })
	if len(ranked) > TopStatesLimit {
		ranked = ranked[:TopStatesLimit]
	}
	return ranked
}

func anomalyDescriptions(ds Dataset) []string {
	out := make([]string, 0, 2)

	for _, a := range ds.AirQuality {
		if a.AQI > extremeAQI {
			out = append(out, AnomalyExtremeAQI)
			break
		}
	}
	for _, o := range ds.Outbreaks {
		if o.Deaths > o.Cases {
			out = append(out, AnomalyDeathsExceed)
			break
		}
	}
	return out
}

func trendDescriptions(ds Dataset) []string {
	out := make([]string, 0, 2)

	for _, v := range ds.Vehicles {
		if strings.Contains(strings.ToLower(v.FuelType), electricToken) {
			out = append(out, TrendElectricAdoption)
			break
		}
	}

	if n := len(ds.AirQuality); n > 0 {
		poor := 0
		for _, a := range ds.AirQuality {
			if strings.Contains(strings.ToLower(a.Status), poorToken) {
				poor++
			}
		}
		if float64(poor) > float64(n)*poorAQIShare {
			out = append(out, TrendAirQualityDecline)
		}
	}
	return out
}

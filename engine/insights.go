package engine

import (
	"fmt"
	"math"
)

// ============================================================================
// INSIGHT RULES — Fixed-threshold observations over the filtered bundle
// ============================================================================
// Rules run in catalogue order and each yields at most one card. Catalogue
// order is the output order; the list is cut at the configured limit.
// A rule whose denominator is zero does not fire.
// ============================================================================

// MaxInsights is the most cards GenerateInsights ever returns.
const MaxInsights = 8

// Category keys the share rules look up. Matching is exact.
const (
	FuelElectric      = "Electric"
	ClassMotorcycle   = "Motorcycle"
	GenderFemale      = "Female"
	electricThreshold = 5.0   // % of vehicles
	motorcycleShare   = 60.0  // % of vehicles
	criticalAQI       = 200.0 // mean AQI
	mortalityRate     = 2.0   // deaths per 100 cases
	genderDeviation   = 5.0   // percentage points from parity
	vehicleDensity    = 100.0 // vehicles per 1000 people
)

type insightRule struct {
	id       string
	evaluate func(f *insightFacts) (InsightCard, bool)
}

// insightFacts are the aggregates every rule reads, computed once.
type insightFacts struct {
	vehicles      float64
	byFuel        OrderedSums
	byClass       OrderedSums
	vehicleCounts []float64

	cases, deaths float64

	aqi []float64

	population float64
	byGender   OrderedSums

	sigma float64
}

func collectFacts(ds Dataset, sigma float64) *insightFacts {
	f := &insightFacts{sigma: sigma}

	f.vehicleCounts = make([]float64, len(ds.Vehicles))
	for i, r := range ds.Vehicles {
		f.vehicles += r.Count
		f.byFuel.Add(r.FuelType, r.Count)
		f.byClass.Add(r.VehicleClass, r.Count)
		f.vehicleCounts[i] = r.Count
	}

	f.cases = TotalCases(ds.Outbreaks)
	f.deaths = TotalDeaths(ds.Outbreaks)
	f.aqi = MeasureValues(AirQualityView(ds.AirQuality), MeasureAQI)

	for _, r := range ds.Population {
		f.population += r.Count
		f.byGender.Add(r.Gender, r.Count)
	}
	return f
}

var insightRules = []insightRule{
	{id: "electric-adoption", evaluate: electricAdoption},
	{id: "motorcycle-dominance", evaluate: motorcycleDominance},
	{id: "high-aqi-alert", evaluate: highAQIAlert},
	{id: "health-concern", evaluate: healthConcern},
	{id: "gender-imbalance", evaluate: genderImbalance},
	{id: "high-vehicle-density", evaluate: highVehicleDensity},
	{id: "aqi-anomaly", evaluate: aqiAnomaly},
	{id: "vehicle-anomaly", evaluate: vehicleAnomaly},
}

// GenerateInsights evaluates the rule catalogue against the filtered bundle.
func GenerateInsights(ds Dataset, opts ...Option) []InsightCard {
	return generateInsights(ds, applyOptions(opts))
}

func generateInsights(ds Dataset, cfg *config) []InsightCard {
	facts := collectFacts(ds, cfg.AnomalySigma)

	cards := make([]InsightCard, 0, len(insightRules))
	for _, rule := range insightRules {
		card, ok := rule.evaluate(facts)
		if !ok {
			continue
		}
		card.ID = rule.id
		cards = append(cards, card)
		cfg.Logger.Debug("insight fired", "id", rule.id, "severity", card.Severity)
	}

	limit := cfg.InsightLimit
	if limit <= 0 || limit > MaxInsights {
		limit = MaxInsights
	}
	if len(cards) > limit {
		cards = cards[:limit]
	}
	return cards
}

// ============================================================================
// RULES
// ============================================================================

func electricAdoption(f *insightFacts) (InsightCard, bool) {
	if f.vehicles <= 0 {
		return InsightCard{}, false
	}
	electric, _ := f.byFuel.Get(FuelElectric)
	share := electric / f.vehicles * 100
	if share <= electricThreshold {
		return InsightCard{}, false
	}
	return InsightCard{
		Title:         "Electric Vehicle Adoption Rising",
		Description:   fmt.Sprintf("Electric vehicles represent %s of registrations, indicating strong sustainable transport adoption.", FormatPercent(share)),
		Category:      CategoryTrend,
		Severity:      SeverityMedium,
		DisplayValue:  FormatPercent(share),
		PercentChange: floatPtr(share),
	}, true
}

func motorcycleDominance(f *insightFacts) (InsightCard, bool) {
	if f.vehicles <= 0 {
		return InsightCard{}, false
	}
	motorcycles, _ := f.byClass.Get(ClassMotorcycle)
	share := motorcycles / f.vehicles * 100
	if share <= motorcycleShare {
		return InsightCard{}, false
	}
	return InsightCard{
		Title:         "Two-Wheeler Market Dominance",
		Description:   fmt.Sprintf("Motorcycles account for %s of registrations, suggesting urban mobility preferences.", FormatPercent(share)),
		Category:      CategoryComparison,
		Severity:      SeverityLow,
		DisplayValue:  FormatPercent(share),
		PercentChange: floatPtr(share),
	}, true
}

func highAQIAlert(f *insightFacts) (InsightCard, bool) {
	if len(f.aqi) == 0 {
		return InsightCard{}, false
	}
	avg := Mean(f.aqi)
	if avg <= criticalAQI {
		return InsightCard{}, false
	}
	return InsightCard{
		Title:        "Critical Air Quality Alert",
		Description:  fmt.Sprintf("Average AQI of %s indicates severe air pollution requiring immediate intervention.", FormatRounded(avg)),
		Category:     CategoryAlert,
		Severity:     SeverityHigh,
		DisplayValue: FormatRounded(avg),
	}, true
}

func healthConcern(f *insightFacts) (InsightCard, bool) {
	if f.cases <= 0 {
		return InsightCard{}, false
	}
	rate := f.deaths / f.cases * 100
	if rate <= mortalityRate {
		return InsightCard{}, false
	}
	return InsightCard{
		Title:         "Elevated Health Risk",
		Description:   fmt.Sprintf("Disease mortality rate of %s suggests need for enhanced healthcare response.", FormatPercent(rate)),
		Category:      CategoryAlert,
		Severity:      SeverityHigh,
		DisplayValue:  FormatPercent(rate),
		PercentChange: floatPtr(rate),
	}, true
}

func genderImbalance(f *insightFacts) (InsightCard, bool) {
	if f.population <= 0 {
		return InsightCard{}, false
	}
	female, _ := f.byGender.Get(GenderFemale)
	share := female / f.population * 100
	if math.Abs(share-50) <= genderDeviation {
		return InsightCard{}, false
	}
	return InsightCard{
		Title:         "Gender Distribution Imbalance",
		Description:   fmt.Sprintf("Female population at %s indicates demographic imbalance requiring policy attention.", FormatPercent(share)),
		Category:      CategoryComparison,
		Severity:      SeverityMedium,
		DisplayValue:  FormatPercent(share),
		PercentChange: floatPtr(share),
	}, true
}

func highVehicleDensity(f *insightFacts) (InsightCard, bool) {
	if f.population <= 0 || len(f.vehicleCounts) == 0 {
		return InsightCard{}, false
	}
	perThousand := f.vehicles / f.population * 1000
	if perThousand <= vehicleDensity {
		return InsightCard{}, false
	}
	return InsightCard{
		Title:         "High Vehicle Density",
		Description:   fmt.Sprintf("%s vehicles per 1000 people suggests infrastructure strain and pollution concerns.", FormatRounded(perThousand)),
		Category:      CategoryCorrelation,
		Severity:      SeverityMedium,
		DisplayValue:  FormatRounded(perThousand),
		PercentChange: floatPtr(perThousand),
	}, true
}

func aqiAnomaly(f *insightFacts) (InsightCard, bool) {
	anomalies := DetectAnomalies(f.aqi, f.sigma)
	if len(anomalies) == 0 {
		return InsightCard{}, false
	}
	peak := ComputeStats(anomalies).Max
	return InsightCard{
		Title:        "AQI Anomaly Detected",
		Description:  fmt.Sprintf("Unusual AQI spike of %s detected, %d anomalous readings found.", FormatRounded(peak), len(anomalies)),
		Category:     CategoryAnomaly,
		Severity:     SeverityHigh,
		DisplayValue: FormatRounded(peak),
	}, true
}

func vehicleAnomaly(f *insightFacts) (InsightCard, bool) {
	anomalies := DetectAnomalies(f.vehicleCounts, f.sigma)
	if len(anomalies) == 0 {
		return InsightCard{}, false
	}
	return InsightCard{
		Title:        "Unusual Registration Pattern",
		Description:  fmt.Sprintf("%d districts show abnormal vehicle registration patterns requiring investigation.", len(anomalies)),
		Category:     CategoryAnomaly,
		Severity:     SeverityMedium,
		DisplayValue: fmt.Sprintf("%d", len(anomalies)),
	}, true
}

func floatPtr(v float64) *float64 { return &v }

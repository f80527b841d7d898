package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insightIDs(cards []InsightCard) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

// everyRuleFires trips all eight rules.
func everyRuleFires() Dataset {
	vehicles := make([]VehicleRecord, 0, 10)
	for range 9 {
		vehicles = append(vehicles, VehicleRecord{State: "Delhi", VehicleClass: "Motorcycle", FuelType: "Petrol", Year: 2023, Month: 1, Count: 10})
	}
	vehicles = append(vehicles, VehicleRecord{State: "Delhi", VehicleClass: "Motorcycle", FuelType: "Electric", Year: 2023, Month: 2, Count: 100})

	return Dataset{
		Vehicles:   vehicles,
		Outbreaks:  []OutbreakRecord{{State: "Delhi", Cases: 100, Deaths: 3}},
		Population: []PopulationRecord{{State: "Delhi", Gender: "Female", Count: 100}, {State: "Delhi", Gender: "Male", Count: 900}},
		AirQuality: aqiReadings(250, 250, 250, 250, 250, 250, 250, 250, 250, 1000),
	}
}

func TestCriticalAirQuality(t *testing.T) {
	cards := GenerateInsights(Dataset{AirQuality: aqiReadings(250, 300)})
	require.Len(t, cards, 1)
	assert.Equal(t, "high-aqi-alert", cards[0].ID)
	assert.Equal(t, SeverityHigh, cards[0].Severity)
	assert.Equal(t, CategoryAlert, cards[0].Category)
	assert.Equal(t, "275", cards[0].DisplayValue)

	// strictly above 200
	assert.Empty(t, GenerateInsights(Dataset{AirQuality: aqiReadings(200, 200)}))
	assert.Empty(t, GenerateInsights(Dataset{AirQuality: aqiReadings(150, 200)}))
}

func TestElevatedHealthRisk(t *testing.T) {
	cards := GenerateInsights(Dataset{Outbreaks: []OutbreakRecord{{Cases: 100, Deaths: 3}}})
	require.Len(t, cards, 1)
	assert.Equal(t, "health-concern", cards[0].ID)
	assert.Equal(t, SeverityHigh, cards[0].Severity)
	assert.Equal(t, "3.0%", cards[0].DisplayValue)
	require.NotNil(t, cards[0].PercentChange)
	assert.InDelta(t, 3.0, *cards[0].PercentChange, 1e-9)

	assert.Empty(t, GenerateInsights(Dataset{Outbreaks: []OutbreakRecord{{Cases: 100, Deaths: 1}}}))
	assert.Empty(t, GenerateInsights(Dataset{Outbreaks: []OutbreakRecord{{Cases: 0, Deaths: 4}}}))
}

func TestVehicleShareRules(t *testing.T) {
	ds := Dataset{Vehicles: []VehicleRecord{
		{VehicleClass: "Motor Car", FuelType: "Electric", Count: 6},
		{VehicleClass: "Motor Car", FuelType: "Petrol", Count: 94},
	}}
	assert.Equal(t, []string{"electric-adoption"}, insightIDs(GenerateInsights(ds)))

	ds = Dataset{Vehicles: []VehicleRecord{
		{VehicleClass: "Motorcycle", FuelType: "Petrol", Count: 61},
		{VehicleClass: "Bus", FuelType: "Diesel", Count: 39},
	}}
	cards := GenerateInsights(ds)
	assert.Equal(t, []string{"motorcycle-dominance"}, insightIDs(cards))
	assert.Equal(t, SeverityLow, cards[0].Severity)

	// exactly 5% and exactly 60% do not fire
	ds = Dataset{Vehicles: []VehicleRecord{
		{VehicleClass: "Motorcycle", FuelType: "Electric", Count: 5},
		{VehicleClass: "Motorcycle", FuelType: "Petrol", Count: 55},
		{VehicleClass: "Bus", FuelType: "Diesel", Count: 40},
	}}
	assert.Empty(t, GenerateInsights(ds))
}

func TestPopulationRules(t *testing.T) {
	balanced := []PopulationRecord{{Gender: "Female", Count: 450}, {Gender: "Male", Count: 550}}
	assert.Empty(t, GenerateInsights(Dataset{Population: balanced}))

	skewed := []PopulationRecord{{Gender: "Female", Count: 440}, {Gender: "Male", Count: 560}}
	cards := GenerateInsights(Dataset{Population: skewed})
	assert.Equal(t, []string{"gender-imbalance"}, insightIDs(cards))
	assert.Equal(t, "44.0%", cards[0].DisplayValue)

	dense := Dataset{
		Vehicles:   []VehicleRecord{{VehicleClass: "Motor Car", FuelType: "Petrol", Count: 101}},
		Population: []PopulationRecord{{Gender: "Female", Count: 500}, {Gender: "Male", Count: 500}},
	}
	cards = GenerateInsights(dense)
	assert.Equal(t, []string{"high-vehicle-density"}, insightIDs(cards))
	assert.Equal(t, "101", cards[0].DisplayValue)

	dense.Vehicles[0].Count = 100
	assert.Empty(t, GenerateInsights(dense))
}

func TestZeroDenominatorsSkipSilently(t *testing.T) {
	cards := GenerateInsights(Dataset{})
	assert.NotNil(t, cards)
	assert.Empty(t, cards)

	// vehicles without population, population without vehicles
	assert.NotContains(t, insightIDs(GenerateInsights(Dataset{Vehicles: vehiclesWithCounts(500)})), "high-vehicle-density")
	assert.Empty(t, GenerateInsights(Dataset{Population: []PopulationRecord{{Gender: "Male", Count: 0}}}))
}

func TestInsightsInCatalogueOrder(t *testing.T) {
	cards := GenerateInsights(everyRuleFires())
	assert.Equal(t, []string{
		"electric-adoption",
		"motorcycle-dominance",
		"high-aqi-alert",
		"health-concern",
		"gender-imbalance",
		"high-vehicle-density",
		"aqi-anomaly",
		"vehicle-anomaly",
	}, insightIDs(cards))
	assert.Len(t, cards, MaxInsights)

	assert.Equal(t, "1000", cards[6].DisplayValue)
	assert.Equal(t, "1", cards[7].DisplayValue)
}

func TestInsightOptions(t *testing.T) {
	cards := GenerateInsights(everyRuleFires(), WithInsightLimit(3))
	assert.Equal(t, []string{"electric-adoption", "motorcycle-dominance", "high-aqi-alert"}, insightIDs(cards))

	// out-of-range limits fall back to MaxInsights
	assert.Len(t, GenerateInsights(everyRuleFires(), WithInsightLimit(0)), MaxInsights)
	assert.Len(t, GenerateInsights(everyRuleFires(), WithInsightLimit(20)), MaxInsights)

	cards = GenerateInsights(everyRuleFires(), WithAnomalySigma(10))
	assert.NotContains(t, insightIDs(cards), "aqi-anomaly")
	assert.NotContains(t, insightIDs(cards), "vehicle-anomaly")
	assert.Len(t, cards, 6)
}

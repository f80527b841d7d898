package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryDateRange(t *testing.T) {
	ds := Dataset{
		Outbreaks: []OutbreakRecord{
			{OutbreakStart: day(2023, 1, 10)},
			{OutbreakStart: day(2023, 1, 1)},
			{}, // undated
		},
		AirQuality: []AirQualityRecord{{Date: day(2023, 2, 1)}},
	}

	r := BuildSummary(ds).DateRange
	require.NotNil(t, r)
	assert.Equal(t, day(2023, 1, 1), r.Start)
	assert.Equal(t, day(2023, 2, 1), r.End)

	assert.Nil(t, BuildSummary(Dataset{Outbreaks: []OutbreakRecord{{Cases: 3}}}).DateRange)
}

func TestSummaryOfEmptyBundle(t *testing.T) {
	s := BuildSummary(Dataset{})
	assert.Zero(t, s.TotalRecords)
	assert.Nil(t, s.DateRange)
	assert.Empty(t, s.TopStates)
	assert.Equal(t, KeyMetrics{}, s.KeyMetrics)
	assert.Empty(t, s.Anomalies)
	assert.Empty(t, s.Trends)
}

func TestSummaryTopStates(t *testing.T) {
	s := BuildSummary(fixture())
	assert.Equal(t, 12, s.TotalRecords)
	require.Len(t, s.TopStates, 2)
	assert.Equal(t, "Delhi", s.TopStates[0].Name)
	assert.InDelta(t, 1001, s.TopStates[0].Value, 1e-9) // 1000 vehicles + 0.001 × 1000 people
	assert.Equal(t, "Karnataka", s.TopStates[1].Name)
	assert.InDelta(t, 50.5, s.TopStates[1].Value, 1e-9)

	// Ties keep first-encountered order; only five are ranked
	var vehicles []VehicleRecord
	for _, state := range []string{"A", "B", "C", "D", "E", "F"} {
		vehicles = append(vehicles, VehicleRecord{State: state, Count: 10})
	}
	vehicles = append(vehicles, VehicleRecord{State: "F", Count: 1})

	top := BuildSummary(Dataset{Vehicles: vehicles}).TopStates
	require.Len(t, top, TopStatesLimit)
	assert.Equal(t, "F", top[0].Name)
	assert.Equal(t, []string{"A", "B", "C", "D"}, []string{top[1].Name, top[2].Name, top[3].Name, top[4].Name})
}

func TestSummaryKeyMetrics(t *testing.T) {
	assert.Equal(t, KeyMetrics{
		TotalVehicles:   1050,
		TotalCases:      125,
		AvgAQI:          210,
		TotalPopulation: 1500,
	}, BuildSummary(fixture()).KeyMetrics)
}

func TestSummaryAnomalies(t *testing.T) {
	ds := Dataset{
		AirQuality: aqiReadings(120, 501),
		Outbreaks:  []OutbreakRecord{{Cases: 2, Deaths: 3}, {Cases: 1, Deaths: 5}},
	}
	assert.Equal(t, []string{AnomalyExtremeAQI, AnomalyDeathsExceed}, BuildSummary(ds).Anomalies)

	ds = Dataset{
		AirQuality: aqiReadings(500),
		Outbreaks:  []OutbreakRecord{{Cases: 3, Deaths: 3}},
	}
	assert.Empty(t, BuildSummary(ds).Anomalies)
}

func TestSummaryTrends(t *testing.T) {
	ds := Dataset{
		Vehicles: []VehicleRecord{{FuelType: "ELECTRIC(BOV)", Count: 1}},
		AirQuality: []AirQualityRecord{
			{Status: "Poor"}, {Status: "Very Poor"}, {Status: "Good"},
		},
	}
	assert.Equal(t, []string{TrendElectricAdoption, TrendAirQualityDecline}, BuildSummary(ds).Trends)

	ds = Dataset{
		Vehicles: []VehicleRecord{{FuelType: "Petrol", Count: 1}},
		AirQuality: []AirQualityRecord{
			{Status: "Poor"}, {Status: "Good"}, {Status: "Good"}, {Status: "Moderate"},
		},
	}
	assert.Empty(t, BuildSummary(ds).Trends)
}

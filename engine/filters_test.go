package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFiltersEmptySpecIsPassThrough(t *testing.T) {
	ds := fixture()
	out := ApplyFilters(ds, FilterSpec{})
	assert.Equal(t, ds, out)

	// Fresh slices: the input bundle is never aliased
	out.Vehicles[0].Count = 1
	assert.Equal(t, 700.0, ds.Vehicles[0].Count)
}

func TestApplyFiltersEmptyInput(t *testing.T) {
	spec := FilterSpec{Geography: Geography{States: []string{"Delhi"}}}
	assert.Equal(t, Dataset{}, ApplyFilters(Dataset{}, spec))

	out := ApplyFilters(Dataset{Vehicles: []VehicleRecord{}}, spec)
	assert.NotNil(t, out.Vehicles)
	assert.Empty(t, out.Vehicles)
}

func TestApplyFilters(t *testing.T) {
	ptr := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name                                     string
		spec                                     FilterSpec
		vehicles, outbreaks, population, airQual int
	}{
		{
			name:     "state applies to every kind",
			spec:     FilterSpec{Geography: Geography{States: []string{"Delhi"}}},
			vehicles: 2, outbreaks: 1, population: 2, airQual: 2,
		},
		{
			name:     "years ignore dated kinds",
			spec:     FilterSpec{TimeRange: TimeRange{Years: []int{2022}}},
			vehicles: 1, outbreaks: 3, population: 1, airQual: 3,
		},
		{
			name:     "months only restrict vehicles",
			spec:     FilterSpec{TimeRange: TimeRange{Months: []int{1, 5}}},
			vehicles: 2, outbreaks: 3, population: 3, airQual: 3,
		},
		{
			name: "inclusive date bounds drop undated records",
			spec: FilterSpec{TimeRange: TimeRange{
				Start: ptr(day(2023, 1, 5)),
				End:   ptr(day(2023, 2, 1)),
			}},
			vehicles: 3, outbreaks: 1, population: 3, airQual: 3,
		},
		{
			name:     "only an end bound",
			spec:     FilterSpec{TimeRange: TimeRange{End: ptr(day(2023, 1, 31))}},
			vehicles: 3, outbreaks: 2, population: 3, airQual: 1,
		},
		{
			name:     "fuel type is ignored for outbreaks",
			spec:     FilterSpec{Categorical: Categorical{FuelTypes: []string{"Electric"}}},
			vehicles: 1, outbreaks: 3, population: 3, airQual: 3,
		},
		{
			name:     "pollutant token match",
			spec:     FilterSpec{Categorical: Categorical{Pollutants: []string{"PM10"}}},
			vehicles: 3, outbreaks: 3, population: 3, airQual: 2,
		},
		{
			name:     "pollutant whole string match",
			spec:     FilterSpec{Categorical: Categorical{Pollutants: []string{"PM2.5, PM10"}}},
			vehicles: 3, outbreaks: 3, population: 3, airQual: 1,
		},
		{
			name:     "outbreak status and AQI status are separate",
			spec:     FilterSpec{Categorical: Categorical{Statuses: []string{"Open"}, AQIStatuses: []string{"Poor"}}},
			vehicles: 3, outbreaks: 2, population: 3, airQual: 1,
		},
		{
			name:     "dimensions are AND-combined",
			spec:     FilterSpec{Geography: Geography{States: []string{"Delhi"}}, Categorical: Categorical{Genders: []string{"Male"}, VehicleClasses: []string{"Bus"}}},
			vehicles: 0, outbreaks: 1, population: 1, airQual: 2,
		},
		{
			name:     "areas only restrict AQI",
			spec:     FilterSpec{Geography: Geography{Areas: []string{"Hebbal"}, Districts: []string{"Bengaluru Urban"}}},
			vehicles: 1, outbreaks: 1, population: 1, airQual: 1,
		},
		{
			name:     "invalid value matches nothing",
			spec:     FilterSpec{Categorical: Categorical{FuelTypes: []string{InvalidFilterValue}}},
			vehicles: 0, outbreaks: 3, population: 3, airQual: 3,
		},
		{
			name:     "unreadable date bound matches no dated record",
			spec:     FilterSpec{TimeRange: TimeRange{InvalidBounds: true}},
			vehicles: 3, outbreaks: 0, population: 3, airQual: 0,
		},
		{
			name:     "invalid number matches nothing",
			spec:     FilterSpec{TimeRange: TimeRange{Years: []int{InvalidFilterNumber}}},
			vehicles: 0, outbreaks: 3, population: 0, airQual: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ApplyFilters(fixture(), tt.spec)
			assert.Len(t, out.Vehicles, tt.vehicles, "vehicles")
			assert.Len(t, out.Outbreaks, tt.outbreaks, "outbreaks")
			assert.Len(t, out.Population, tt.population, "population")
			assert.Len(t, out.AirQuality, tt.airQual, "air quality")
		})
	}
}

func TestApplyFiltersKeepsOrder(t *testing.T) {
	out := ApplyFilters(fixture(), FilterSpec{Geography: Geography{States: []string{"Delhi"}}})
	require.Len(t, out.AirQuality, 2)
	assert.Equal(t, "ITO", out.AirQuality[0].Area)
	assert.Equal(t, "Anand Vihar", out.AirQuality[1].Area)
}

func TestPollutantFilterOnUnspacedList(t *testing.T) {
	ds := Dataset{AirQuality: []AirQualityRecord{
		{State: "Delhi", Area: "ITO", Pollutants: "PM2.5,NO2"},
		{State: "Delhi", Area: "Okhla", Pollutants: "PM10"},
	}}

	tests := map[string]int{
		"PM2.5,NO2":  1, // exact string
		"NO2":        1,
		"PM2.5":      1,
		"NO":         0,
		"PM2.5, NO2": 0, // neither the stored string nor a token
	}
	for pollutant, want := range tests {
		spec := FilterSpec{Categorical: Categorical{Pollutants: []string{pollutant}}}
		out := ApplyFilters(ds, spec)
		require.Len(t, out.AirQuality, want, pollutant)
		if want > 0 {
			assert.Equal(t, "ITO", out.AirQuality[0].Area, pollutant)
		}
	}
}

func TestSplitPollutants(t *testing.T) {
	assert.Equal(t, []string{"PM2.5", "PM10"}, splitPollutants(" PM2.5 ,PM10,, "))
	assert.Nil(t, splitPollutants(""))
}

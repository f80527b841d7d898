package source

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/spektr-org/civiclens/engine"
)

// Synthetic bundle sizes.
const (
	SyntheticVehicles   = 500
	SyntheticOutbreaks  = 300
	SyntheticPopulation = 400
	SyntheticAirQuality = 600
)

var (
	syntheticStates     = []string{"Maharashtra", "Delhi", "Karnataka", "Tamil Nadu", "Gujarat"}
	syntheticDistricts  = []string{"Mumbai", "New Delhi", "Bangalore", "Chennai", "Ahmedabad"}
	syntheticClasses    = []string{"Car", "Motorcycle", "Bus", "Truck", "SUV"}
	syntheticFuels      = []string{"Petrol", "Diesel", "CNG", "Electric", "Hybrid"}
	syntheticDiseases   = []string{"COVID-19", "Dengue", "Malaria", "Tuberculosis", "Pneumonia"}
	syntheticStatuses   = []string{"Active", "Controlled", "Resolved"}
	syntheticGenders    = []string{"Male", "Female", "Other"}
	syntheticAQIStatus  = []string{"Good", "Moderate", "Poor", "Very Poor", "Severe"}
	syntheticPollutants = []string{"PM2.5", "PM10", "NO2", "SO2", "CO"}
)

// Synthetic builds the fallback bundle. Categorical fields cycle with the
// row index; values are drawn from a generator seeded with seed, so equal
// seeds give equal bundles.
func Synthetic(seed uint64) engine.Dataset {
	rng := rand.New(rand.NewPCG(seed, seed))
	year := func(i int) int { return 2020 + i%4 }

	ds := engine.Dataset{
		Vehicles:   make([]engine.VehicleRecord, SyntheticVehicles),
		Outbreaks:  make([]engine.OutbreakRecord, SyntheticOutbreaks),
		Population: make([]engine.PopulationRecord, SyntheticPopulation),
		AirQuality: make([]engine.AirQualityRecord, SyntheticAirQuality),
	}

	for i := range ds.Vehicles {
		ds.Vehicles[i] = engine.VehicleRecord{
			State:        syntheticStates[i%5],
			District:     syntheticDistricts[i%5],
			VehicleClass: syntheticClasses[i%5],
			FuelType:     syntheticFuels[i%5],
			Year:         year(i),
			Month:        1 + i%12,
			Count:        float64(rng.IntN(50000) + 1000),
		}
	}

	for i := range ds.Outbreaks {
		month := time.Month(1 + i%12)
		ds.Outbreaks[i] = engine.OutbreakRecord{
			State:         syntheticStates[i%5],
			District:      syntheticDistricts[i%5],
			Disease:       syntheticDiseases[i%5],
			OutbreakStart: time.Date(year(i), month, 1, 0, 0, 0, 0, time.UTC),
			ReportingDate: time.Date(year(i), month, 15, 0, 0, 0, 0, time.UTC),
			Cases:         rng.IntN(1000) + 10,
			Deaths:        rng.IntN(50) + 1,
			Status:        syntheticStatuses[i%3],
		}
	}

	for i := range ds.Population {
		ds.Population[i] = engine.PopulationRecord{
			State:    syntheticStates[i%5],
			District: syntheticDistricts[i%5],
			Gender:   syntheticGenders[i%3],
			Year:     year(i),
			Count:    float64(rng.IntN(1000000) + 10000),
		}
	}

	for i := range ds.AirQuality {
		ds.AirQuality[i] = engine.AirQualityRecord{
			State:        syntheticStates[i%5],
			Area:         syntheticDistricts[i%5],
			Date:         time.Date(year(i), time.Month(1+i%12), 1+i%28, 0, 0, 0, 0, time.UTC),
			AQI:          float64(rng.IntN(500) + 50),
			Status:       syntheticAQIStatus[rng.IntN(len(syntheticAQIStatus))],
			Pollutants:   syntheticPollutants[i%5],
			StationCount: rng.IntN(20) + 1,
		}
	}
	return ds
}

// SyntheticProvider serves Synthetic(Seed).
type SyntheticProvider struct {
	Seed uint64
}

// Load implements Provider.
func (p SyntheticProvider) Load(context.Context) (engine.Dataset, error) {
	return Synthetic(p.Seed), nil
}

package engine

import "time"

// ── Shared fixtures ───────────────────────────────────────────────────────────

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// fixture returns a fresh bundle on every call so tests may mutate it.
func fixture() Dataset {
	return Dataset{
		Vehicles: []VehicleRecord{
			{State: "Delhi", District: "New Delhi", VehicleClass: "Motorcycle", FuelType: "Petrol", Year: 2023, Month: 1, Count: 700},
			{State: "Delhi", District: "New Delhi", VehicleClass: "Motor Car", FuelType: "Electric", Year: 2023, Month: 2, Count: 300},
			{State: "Karnataka", District: "Bengaluru Urban", VehicleClass: "Bus", FuelType: "Diesel", Year: 2022, Month: 5, Count: 50},
		},
		Outbreaks: []OutbreakRecord{
			{State: "Delhi", District: "New Delhi", Disease: "Dengue", OutbreakStart: day(2023, 1, 1), ReportingDate: day(2023, 1, 4), Cases: 100, Deaths: 3, Status: "Open"},
			{State: "Karnataka", District: "Bengaluru Urban", Disease: "Cholera", OutbreakStart: day(2023, 1, 10), ReportingDate: day(2023, 1, 12), Cases: 20, Deaths: 0, Status: "Closed"},
			{State: "Kerala", District: "Kollam", Disease: "Malaria", Cases: 5, Deaths: 0, Status: "Open"},
		},
		Population: []PopulationRecord{
			{State: "Delhi", District: "New Delhi", Gender: "Female", Year: 2023, Count: 400},
			{State: "Delhi", District: "New Delhi", Gender: "Male", Year: 2023, Count: 600},
			{State: "Karnataka", District: "Bengaluru Urban", Gender: "Female", Year: 2022, Count: 500},
		},
		AirQuality: []AirQualityRecord{
			{State: "Delhi", Area: "ITO", Date: day(2023, 2, 1), AQI: 250, Status: "Poor", Pollutants: "PM2.5, PM10", StationCount: 3},
			{State: "Karnataka", Area: "Hebbal", Date: day(2023, 2, 1), AQI: 80, Status: "Satisfactory", Pollutants: "PM10", StationCount: 2},
			{State: "Delhi", Area: "Anand Vihar", Date: day(2023, 1, 15), AQI: 300, Status: "Very Poor", Pollutants: "PM2.5", StationCount: 5},
		},
	}
}

func vehiclesWithCounts(counts ...float64) []VehicleRecord {
	out := make([]VehicleRecord, len(counts))
	for i, c := range counts {
		out[i] = VehicleRecord{State: "Delhi", VehicleClass: "Motor Car", FuelType: "Petrol", Year: 2023, Month: 1, Count: c}
	}
	return out
}

func aqiReadings(values ...float64) []AirQualityRecord {
	out := make([]AirQualityRecord, len(values))
	for i, v := range values {
		out[i] = AirQualityRecord{State: "Delhi", Area: "ITO", Date: day(2023, 2, 1), AQI: v, Status: "Moderate"}
	}
	return out
}

package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ── Test Data ─────────────────────────────────────────────────────────────────

var vahanCSV = []byte("State,District,Vehicle Class,Fuel,Year,Month,Value\n" +
	"Delhi,New Delhi,Motorcycle,Petrol,2023,1,1200\n" +
	"Delhi,New Delhi,Motor Car,Electric,2023,2,340\n" +
	"Karnataka,Bengaluru Urban,Motorcycle,Petrol,2023,1,2100\n")

var idspCSV = []byte("state,district,disease_illness_name,outbreak_starting_date,reporting_date,cases,deaths,status\n" +
	"Kerala,Ernakulam,Dengue,2023-01-01,2023-01-05,40,1,Under Control\n" +
	"Kerala,Kollam,Cholera,2023-01-10,2023-01-12,12,,Under Surveillance\n")

var populationCSV = []byte("state,district,gender,year,value\n" +
	"Delhi,New Delhi,Female,2024,480000\n" +
	"Delhi,New Delhi,Male,2024,520000\n")

var aqiCSV = []byte("state,area,date,aqi_value,air_quality_status,prominent_pollutants,number_of_monitoring_stations\n" +
	"Delhi,Anand Vihar,2023-02-01,412,Severe,\"PM2.5,PM10\",3\n" +
	"Delhi,ITO,2023-02-01,288,Poor,PM10,NA\n")

// ============================================================================
// CATALOGUE
// ============================================================================

type CatalogueSuite struct {
	suite.Suite
}

func TestCatalogueSuite(t *testing.T) {
	suite.Run(t, new(CatalogueSuite))
}

func (s *CatalogueSuite) TestKindsInCanonicalOrder() {
	s.Equal([]Kind{KindVehicles, KindOutbreaks, KindPopulation, KindAirQuality}, Kinds())
	s.Len(All(), 4)
}

func (s *CatalogueSuite) TestFor() {
	s.Run("known kind", func() {
		cfg, err := For(KindAirQuality)
		s.Require().NoError(err)
		s.Equal("aqi.csv", cfg.File)
		s.Equal("air_quality", cfg.Table)
		s.Equal([]string{"date", "aqi_value"}, cfg.RequiredColumns())
	})

	s.Run("unknown kind", func() {
		_, err := For("weather")
		s.Require().Error(err)
		s.True(errors.Is(err, ErrUnknownKind))
	})
}

func (s *CatalogueSuite) TestParseKind() {
	for input, want := range map[string]Kind{
		"vehicles":                  KindVehicles,
		"idsp.csv":                  KindOutbreaks,
		" Population ":              KindPopulation,
		"population_projection.csv": KindPopulation,
		"air_quality":               KindAirQuality,
	} {
		got, err := ParseKind(input)
		s.Require().NoError(err, input)
		s.Equal(want, got, input)
	}

	_, err := ParseKind("traffic")
	s.ErrorIs(err, ErrUnknownKind)
}

func (s *CatalogueSuite) TestColumnsListDimensionsThenMeasures() {
	cfg, err := For(KindPopulation)
	s.Require().NoError(err)
	s.Equal([]string{"state", "district", "gender", "year", "value"}, cfg.Columns())
}

// ============================================================================
// HEADERS
// ============================================================================

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"State", "state"},
		{"  Vehicle Class ", "vehicle_class"},
		{"vehicle-class", "vehicle_class"},
		{"vehicleClass", "vehicle_class"},
		{"AQI  Value", "aqi_value"},
		{"\ufeffstate", "state"},
		{"number_of_monitoring_stations", "number_of_monitoring_stations"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeHeader(tt.in), tt.in)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    Kind
	}{
		{"vehicles", []string{"State", "District", "Vehicle Class", "Fuel", "Year", "Month", "Value"}, KindVehicles},
		{"outbreaks", []string{"state", "disease_illness_name", "outbreak_starting_date", "reporting_date", "cases"}, KindOutbreaks},
		{"population", []string{"state", "district", "gender", "year", "value"}, KindPopulation},
		{"air quality", []string{"State", "Area", "Date", "AQI Value", "Air Quality Status"}, KindAirQuality},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.headers)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("no kind matches", func(t *testing.T) {
		_, err := Detect([]string{"id", "name"})
		assert.ErrorIs(t, err, ErrUnknownKind)
	})
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(KindVehicles, []string{"year", "month", "value"}))

	err := Validate(KindOutbreaks, []string{"state", "outbreak_starting_date"})
	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, KindOutbreaks, missing.Kind)
	assert.Equal(t, []string{"reporting_date"}, missing.Missing)
	assert.Contains(t, err.Error(), "reporting_date")

	assert.ErrorIs(t, Validate("unknown", nil), ErrUnknownKind)
}

// ============================================================================
// DISCOVERY
// ============================================================================

func TestDiscoverFromCSV(t *testing.T) {
	t.Run("vehicles", func(t *testing.T) {
		report, err := DiscoverFromCSV(vahanCSV)
		require.NoError(t, err)
		assert.Equal(t, KindVehicles, report.Kind)
		assert.Equal(t, 3, report.Rows)
		assert.Empty(t, report.Missing)
		assert.Empty(t, report.Unmapped)

		byKey := columnsByKey(report)
		assert.Equal(t, TypeNumber, byKey["value"].Type)
		assert.Equal(t, TypeText, byKey["vehicle_class"].Type)
		assert.Equal(t, []string{"Motor Car", "Motorcycle"}, byKey["vehicle_class"].Samples)
		assert.True(t, byKey["fuel"].Known)
	})

	t.Run("outbreaks with empty cells", func(t *testing.T) {
		report, err := DiscoverFromCSV(idspCSV)
		require.NoError(t, err)
		assert.Equal(t, KindOutbreaks, report.Kind)

		byKey := columnsByKey(report)
		assert.Equal(t, TypeDate, byKey["outbreak_starting_date"].Type)
		assert.Equal(t, 1, byKey["deaths"].EmptyCount)
	})

	t.Run("population", func(t *testing.T) {
		report, err := DiscoverFromCSV(populationCSV)
		require.NoError(t, err)
		assert.Equal(t, KindPopulation, report.Kind)
	})

	t.Run("air quality with quoted pollutants", func(t *testing.T) {
		report, err := DiscoverFromCSV(aqiCSV)
		require.NoError(t, err)
		assert.Equal(t, KindAirQuality, report.Kind)
		byKey := columnsByKey(report)
		assert.Contains(t, byKey["prominent_pollutants"].Samples, "PM2.5,PM10")
		assert.Equal(t, 1, byKey["number_of_monitoring_stations"].EmptyCount)
	})

	t.Run("forced kind reports missing and unmapped", func(t *testing.T) {
		report, err := DiscoverFromCSV(populationCSV, DiscoverOptions{Kind: KindVehicles})
		require.NoError(t, err)
		assert.Equal(t, KindVehicles, report.Kind)
		assert.Equal(t, []string{"month"}, report.Missing)
		assert.Equal(t, []string{"gender"}, report.Unmapped)
	})

	t.Run("sample size caps rows", func(t *testing.T) {
		report, err := DiscoverFromCSV(vahanCSV, DiscoverOptions{SampleSize: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Rows)
	})

	t.Run("unknown headers", func(t *testing.T) {
		report, err := DiscoverFromCSV([]byte("id,name\n1,a\n"))
		assert.ErrorIs(t, err, ErrUnknownKind)
		require.NotNil(t, report)
		assert.Len(t, report.Columns, 2)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := DiscoverFromCSV(nil)
		assert.Error(t, err)
	})
}

func columnsByKey(r *Report) map[string]ColumnReport {
	out := make(map[string]ColumnReport, len(r.Columns))
	for _, c := range r.Columns {
		out[c.Key] = c
	}
	return out
}

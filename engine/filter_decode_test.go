package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFilterSpecEmptyBody(t *testing.T) {
	for _, body := range []string{"", "  \n", "{}", `{"timeRange":null}`} {
		spec, err := DecodeFilterSpec([]byte(body))
		require.NoError(t, err, body)
		assert.True(t, spec.IsEmpty(), body)
	}
}

func TestDecodeFilterSpec(t *testing.T) {
	body := `{
		"timeRange": {"startDate": "2023-01-01", "endDate": "01/02/2023", "years": [2023, "2022"], "months": 3},
		"geographical": {"states": "Delhi", "districts": null, "areas": ["ITO"]},
		"categorical": {"fuelTypes": ["Electric", 7], "aqiStatuses": ["Poor"], "unknown": 1},
		"extra": true
	}`

	spec, err := DecodeFilterSpec([]byte(body))
	require.NoError(t, err)

	require.NotNil(t, spec.TimeRange.Start)
	require.NotNil(t, spec.TimeRange.End)
	assert.Equal(t, day(2023, 1, 1), *spec.TimeRange.Start)
	assert.Equal(t, day(2023, 2, 1), *spec.TimeRange.End)
	assert.Equal(t, []int{2023, 2022}, spec.TimeRange.Years)
	assert.Equal(t, []int{3}, spec.TimeRange.Months)

	assert.Equal(t, []string{"Delhi"}, spec.Geography.States)
	assert.Nil(t, spec.Geography.Districts)
	assert.Equal(t, []string{"ITO"}, spec.Geography.Areas)

	assert.Equal(t, []string{"Electric", InvalidFilterValue}, spec.Categorical.FuelTypes)
	assert.Equal(t, []string{"Poor"}, spec.Categorical.AQIStatuses)
	assert.Nil(t, spec.Categorical.Diseases)
}

func TestDecodeFilterSpecWrongTypes(t *testing.T) {
	spec, err := DecodeFilterSpec([]byte(`{"timeRange":{"years":[2023.5,"x",true],"startDate":5,"endDate":"yesterday"}}`))
	require.NoError(t, err)
	assert.Equal(t, []int{InvalidFilterNumber, InvalidFilterNumber, InvalidFilterNumber}, spec.TimeRange.Years)
	assert.Nil(t, spec.TimeRange.Start)
	assert.Nil(t, spec.TimeRange.End)
	assert.True(t, spec.TimeRange.InvalidBounds)

	// A wrongly typed entry keeps the dimension restricted
	assert.False(t, spec.IsEmpty())
	out := ApplyFilters(fixture(), spec)
	assert.Empty(t, out.Vehicles)
	assert.Empty(t, out.Outbreaks)
	assert.Empty(t, out.AirQuality)
}

func TestDecodeFilterSpecUnreadableDates(t *testing.T) {
	bodies := []string{
		`{"timeRange":{"startDate":123,"endDate":true}}`,
		`{"timeRange":{"startDate":{"day":1}}}`,
		`{"timeRange":{"endDate":"yesterday"}}`,
		`{"timeRange":{"startDate":"2023-01-01","endDate":["2023-02-01"]}}`,
	}
	for _, body := range bodies {
		spec, err := DecodeFilterSpec([]byte(body))
		require.NoError(t, err, body)
		assert.True(t, spec.TimeRange.InvalidBounds, body)
		assert.False(t, spec.IsEmpty(), body)

		out := ApplyFilters(fixture(), spec)
		assert.Empty(t, out.Outbreaks, body)
		assert.Empty(t, out.AirQuality, body)
		assert.Len(t, out.Vehicles, 3, body)
		assert.Len(t, out.Population, 3, body)
	}

	// null and blank dates are simply absent
	spec, err := DecodeFilterSpec([]byte(`{"timeRange":{"startDate":null,"endDate":"  "}}`))
	require.NoError(t, err)
	assert.False(t, spec.TimeRange.InvalidBounds)
	assert.True(t, spec.IsEmpty())
}

func TestDecodeFilterSpecRejectsNonObjects(t *testing.T) {
	for _, body := range []string{`{"geographical":`, `[1,2]`, `"states"`, `42`, `null`} {
		_, err := DecodeFilterSpec([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestParseDate(t *testing.T) {
	tests := map[string]string{
		"2023-03-04":           "2023-03-04",
		"2023-03-04T10:00:00Z": "2023-03-04",
		"04-03-2023":           "2023-03-04",
		"04/03/2023":           "2023-03-04",
		"2023/03/04":           "2023-03-04",
		" 2023-03-04 ":         "2023-03-04",
	}
	for in, want := range tests {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.Format("2006-01-02"), in)
	}

	_, err := ParseDate("March 4")
	assert.Error(t, err)
}

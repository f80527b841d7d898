package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/civiclens/engine"
	"github.com/spektr-org/civiclens/source"
)

func TestOutputFormatSet(t *testing.T) {
	var f outputFormat
	require.NoError(t, f.Set(" YAML "))
	assert.Equal(t, "yaml", f.String())
	assert.Equal(t, "format", f.Type())

	err := f.Set("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json|pretty|yaml|text|csv")
	assert.Equal(t, "yaml", f.String())
}

func TestWriteStructured(t *testing.T) {
	v := map[string]int{"a": 1}

	var buf bytes.Buffer
	handled, err := writeStructured(&buf, v, formatJSON)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "{\"a\":1}\n", buf.String())

	buf.Reset()
	handled, err = writeStructured(&buf, v, formatYAML)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "a: 1\n", buf.String())

	buf.Reset()
	handled, err = writeStructured(&buf, v, formatCSV)
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, buf.String())
}

func TestWriteTablesCSV(t *testing.T) {
	tables := []*engine.TableData{
		engine.BuildGroupTable("Vehicles by class", "Vehicle class", "Registrations", []engine.NamedValue{
			{Name: "Motorcycle", Value: 3},
			{Name: "Bus", Value: 1},
		}),
		engine.BuildGroupTable("Empty", "State", "Cases", nil),
	}

	var buf bytes.Buffer
	require.NoError(t, writeTablesCSV(&buf, tables))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "Vehicles by class", lines[0])
	assert.Equal(t, "Vehicle class,Registrations,Share", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Motorcycle,3,"))
	assert.Equal(t, "Total,4,", lines[4])
	assert.Equal(t, "", lines[5])
	assert.Equal(t, "Empty", lines[6])
	assert.Equal(t, "State,Cases,Share", lines[7])
}

func TestWriteText(t *testing.T) {
	td := &engine.TextData{
		Period:   "Jan 2023 – Feb 2023",
		Headline: []engine.TextLine{{Label: "Vehicles", Value: "1,000"}, {Label: "Avg AQI", Value: "250"}},
		Insights: []string{"Delhi leads registrations"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeText(&buf, td))
	out := buf.String()
	assert.Contains(t, out, "Period: Jan 2023 – Feb 2023")
	assert.Contains(t, out, "  Vehicles  1,000\n")
	assert.Contains(t, out, "  Avg AQI   250\n")
	assert.Contains(t, out, "Insights:\n  - Delhi leads registrations\n")
	assert.NotContains(t, out, "Anomalies:")
}

func TestFmtNum(t *testing.T) {
	assert.Equal(t, "12", fmtNum(12))
	assert.Equal(t, "-3", fmtNum(-3))
	assert.Equal(t, "12.50", fmtNum(12.5))
}

func TestReadFilterSpec(t *testing.T) {
	spec, err := readFilterSpec("", "")
	require.NoError(t, err)
	assert.True(t, spec.IsEmpty())

	spec, err = readFilterSpec(`{"geographical":{"states":["Delhi"]}}`, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Delhi"}, spec.Geography.States)

	path := filepath.Join(t.TempDir(), "filter.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"timeRange":{"years":[2023]}}`), 0o644))
	spec, err = readFilterSpec("", path)
	require.NoError(t, err)
	assert.Equal(t, []int{2023}, spec.TimeRange.Years)

	_, err = readFilterSpec(`{"geographical":`, "")
	assert.Error(t, err)
}

// ============================================================================
// COMMANDS
// ============================================================================

func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"vahan.csv": "State,District,Vehicle Class,Fuel,Year,Month,Value\n" +
			"Delhi,New Delhi,Motorcycle,Petrol,2023,1,700\n" +
			"Karnataka,Bengaluru Urban,Bus,Diesel,2022,5,50\n",
		"idsp.csv": "state,district,disease_illness_name,outbreak_starting_date,reporting_date,cases,deaths,status\n" +
			"Delhi,New Delhi,Dengue,2023-01-01,2023-01-04,100,3,Open\n",
		"population_projection.csv": "state,district,gender,year,value\n" +
			"Delhi,New Delhi,Female,2023,400\n",
		"aqi.csv": "state,area,date,aqi_value,air_quality_status,prominent_pollutants,number_of_monitoring_stations\n" +
			"Delhi,ITO,2023-02-01,250,Poor,PM2.5,3\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

// runCmd executes the root command from an empty working directory so no
// civiclens.yaml is picked up.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("CIVICLENS_DATA_DIR", "")
	t.Setenv("CIVICLENS_REDIS_URL", "")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "civiclens "+version+"\n", out)
}

func TestAnalyzeCommand(t *testing.T) {
	dir := writeDataDir(t)

	out, err := runCmd(t, "analyze", "--data-dir", dir, "--filter", `{"geographical":{"states":["Delhi"]}}`)
	require.NoError(t, err)

	var result engine.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Len(t, result.Filtered.Vehicles, 1)
	assert.Equal(t, 700.0, result.Analytics.TotalVehicles)
	assert.Equal(t, 250.0, result.Analytics.AvgAQI)
}

func TestAnalyzeCommandCSV(t *testing.T) {
	dir := writeDataDir(t)

	out, err := runCmd(t, "analyze", "--data-dir", dir, "--format", "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Vehicles by class\n"))
	assert.Contains(t, out, "Motorcycle,700,")

	out, err = runCmd(t, "analyze", "--data-dir", dir, "--format", "csv", "--records")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Vehicle registrations\n"))
}

func TestAnalyzeCommandRejectsBadFilter(t *testing.T) {
	_, err := runCmd(t, "analyze", "--data-dir", writeDataDir(t), "--filter", "[1]")
	assert.Error(t, err)
}

func TestOptionsCommand(t *testing.T) {
	out, err := runCmd(t, "options", "--data-dir", writeDataDir(t), "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "States: Delhi, Karnataka\n")
	assert.Contains(t, out, "Years: 2022, 2023\n")
}

func TestSchemaCommand(t *testing.T) {
	out, err := runCmd(t, "schema", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "(vahan.csv)")
	assert.Contains(t, out, "(aqi.csv)")

	dir := writeDataDir(t)
	out, err = runCmd(t, "schema", "--format", "text", filepath.Join(dir, "aqi.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "aqi.csv: air_quality")
}

func TestImportThenServeFromSQLite(t *testing.T) {
	dir := writeDataDir(t)
	db := filepath.Join(t.TempDir(), "civiclens.db")

	out, err := runCmd(t, "import", "--data-dir", dir, "--to", db, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 5 records into "+db)

	store, err := source.OpenSQLite(db)
	require.NoError(t, err)
	defer store.Close()
	ds, err := store.Load(t.Context())
	require.NoError(t, err)
	assert.Len(t, ds.Vehicles, 2)
	assert.Len(t, ds.AirQuality, 1)

	out, err = runCmd(t, "analyze", "--sqlite", db)
	require.NoError(t, err)
	var result engine.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 750.0, result.Analytics.TotalVehicles)
}

func TestCompressCommand(t *testing.T) {
	dir := writeDataDir(t)
	path := filepath.Join(dir, "vahan.csv")

	_, err := runCmd(t, "compress", path)
	require.NoError(t, err)
	assert.FileExists(t, path+".zst")

	// The compressed copy alone is enough for analyze
	require.NoError(t, os.Remove(path))
	out, err := runCmd(t, "analyze", "--data-dir", dir)
	require.NoError(t, err)
	var result engine.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 750.0, result.Analytics.TotalVehicles)
}

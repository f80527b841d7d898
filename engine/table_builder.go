package engine

import (
	"fmt"
)

// ============================================================================
// TABLE BUILDER — Tabular renderings of records and group-bys
// ============================================================================
// All functions operate on RecordView with zero-copy access to any record kind.
// Column discovery uses view.DimensionKeys() / view.MeasureKeys().
// ============================================================================

// TableData is a rectangular rendering with optional totals row.
type TableData struct {
	Title   string      `json:"title" yaml:"title"`
	Columns []Column    `json:"columns" yaml:"columns"`
	Rows    [][]string  `json:"rows" yaml:"rows"`
	Total   *TableTotal `json:"total,omitempty" yaml:"total,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
	Type  string `json:"type" yaml:"type"`   // "text", "number"
	Align string `json:"align" yaml:"align"` // "left", "right"
}

// TableTotal is the footer of a table, keyed by column.
type TableTotal struct {
	Label  string            `json:"label" yaml:"label"`
	Values map[string]string `json:"values" yaml:"values"`
}

// Headers returns the column labels.
func (t *TableData) Headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Label
	}
	return out
}

// ============================================================================
// RECORD TABLE — Row per record
// ============================================================================

// BuildRecordTable lists every record of view with all dimensions and measures.
func BuildRecordTable(title string, view RecordView) *TableData {
	if view.Len() == 0 {
		return &TableData{
			Title:   title,
			Columns: []Column{},
			Rows:    [][]string{},
		}
	}

	dimKeys := view.DimensionKeys()
	var measKeys []string
	for _, key := range view.MeasureKeys() {
		if key != MeasureRecords {
			measKeys = append(measKeys, key)
		}
	}

	columns := make([]Column, 0, len(dimKeys)+len(measKeys))
	for _, key := range dimKeys {
		columns = append(columns, Column{Key: key, Label: LabelForKey(key), Type: "text", Align: "left"})
	}
	for _, key := range measKeys {
		columns = append(columns, Column{Key: key, Label: LabelForKey(key), Type: "number", Align: "right"})
	}

	rows := make([][]string, 0, view.Len())
	totals := make([]float64, len(measKeys))
	for i := 0; i < view.Len(); i++ {
		row := make([]string, 0, len(columns))
		for _, key := range dimKeys {
			row = append(row, view.Dimension(i, key))
		}
		for j, key := range measKeys {
			val := view.Measure(i, key)
			row = append(row, formatCell(val))
			totals[j] += val
		}
		rows = append(rows, row)
	}

	footer := &TableTotal{
		Label:  fmt.Sprintf("Total (%d records)", view.Len()),
		Values: make(map[string]string, len(measKeys)),
	}
	for j, key := range measKeys {
		footer.Values[key] = formatCell(totals[j])
	}

	return &TableData{Title: title, Columns: columns, Rows: rows, Total: footer}
}

// ============================================================================
// GROUP TABLE — Row per category
// ============================================================================

// BuildGroupTable renders a group-by sequence with a share-of-total column.
func BuildGroupTable(title, groupLabel, valueLabel string, pairs []NamedValue) *TableData {
	columns := []Column{
		{Key: "group", Label: groupLabel, Type: "text", Align: "left"},
		{Key: "value", Label: valueLabel, Type: "number", Align: "right"},
		{Key: "share", Label: "Share", Type: "number", Align: "right"},
	}
	if len(pairs) == 0 {
		return &TableData{Title: title, Columns: columns, Rows: [][]string{}}
	}

	var total float64
	for _, p := range pairs {
		total += p.Value
	}

	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{
			p.Name,
			formatCell(p.Value),
			FormatPercent(ratio(p.Value, total) * 100),
		})
	}

	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Total: &TableTotal{
			Label:  "Total",
			Values: map[string]string{"value": formatCell(total)},
		},
	}
}

// AnalyticsTables renders the three group-by sequences of a.
func AnalyticsTables(a Analytics) []*TableData {
	return []*TableData{
		BuildGroupTable("Vehicles by class", "Vehicle class", "Registrations", a.VehiclesByClass),
		BuildGroupTable("AQI readings by status", "Status", "Readings", a.AQIByStatus),
		BuildGroupTable("Cases by state", "State", "Cases", a.CasesByState),
	}
}

// DatasetTables renders the four record collections of ds.
func DatasetTables(ds Dataset) []*TableData {
	return []*TableData{
		BuildRecordTable("Vehicle registrations", VehicleView(ds.Vehicles)),
		BuildRecordTable("Disease outbreaks", OutbreakView(ds.Outbreaks)),
		BuildRecordTable("Population projections", PopulationView(ds.Population)),
		BuildRecordTable("Air quality", AirQualityView(ds.AirQuality)),
	}
}

// LabelForKey turns "vehicle_class" into "Vehicle class".
func LabelForKey(key string) string {
	if key == "" {
		return ""
	}
	label := []byte(key)
	for i, c := range label {
		if c == '_' {
			label[i] = ' '
		}
	}
	if label[0] >= 'a' && label[0] <= 'z' {
		label[0] -= 'a' - 'A'
	}
	return string(label)
}

// formatCell prints integral values without decimals.
func formatCell(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/civiclens/engine"
)

// ============================================================================
// OUTPUT FORMATS
// ============================================================================

const (
	formatJSON   = "json"
	formatPretty = "pretty"
	formatYAML   = "yaml"
	formatText   = "text"
	formatCSV    = "csv"
)

var validFormats = []string{formatJSON, formatPretty, formatYAML, formatText, formatCSV}

// outputFormat is a pflag.Value restricted to validFormats.
type outputFormat string

func (f *outputFormat) String() string { return string(*f) }

func (f *outputFormat) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if !slices.Contains(validFormats, s) {
		return fmt.Errorf("must be one of %s", strings.Join(validFormats, "|"))
	}
	*f = outputFormat(s)
	return nil
}

func (f *outputFormat) Type() string { return "format" }

// writeStructured handles the formats every command supports.
// It returns false for text and csv, which are command-specific.
func writeStructured(w io.Writer, v any, format string) (bool, error) {
	switch format {
	case formatJSON, formatPretty:
		return true, writeJSON(w, v, format)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, fmt.Errorf("marshal yaml: %w", err)
		}
		return true, enc.Close()
	}
	return false, nil
}

func writeJSON(w io.Writer, v any, format string) error {
	var out []byte
	var err error

	if format == formatPretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// CSV OUTPUT — Sheets-ready tables, blank line between tables
// ============================================================================

func writeTablesCSV(w io.Writer, tables []*engine.TableData) error {
	cw := csv.NewWriter(w)
	for i, t := range tables {
		if i > 0 {
			_ = cw.Write([]string{})
		}
		_ = cw.Write([]string{t.Title})
		_ = cw.Write(t.Headers())
		for _, row := range t.Rows {
			_ = cw.Write(row)
		}
		if t.Total != nil {
			row := make([]string, len(t.Columns))
			row[0] = t.Total.Label
			for j, c := range t.Columns {
				if v, ok := t.Total.Values[c.Key]; ok {
					row[j] = v
				}
			}
			_ = cw.Write(row)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ============================================================================
// TEXT OUTPUT
// ============================================================================

func writeText(w io.Writer, td *engine.TextData) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Period: %s\n\n", td.Period)

	width := 0
	for _, l := range td.Headline {
		width = max(width, len(l.Label))
	}
	for _, l := range td.Headline {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, l.Label, l.Value)
	}

	if g := td.Growth; g != nil && g.Direction != engine.DirectionInsufficient {
		fmt.Fprintf(&b, "\nRegistrations %s %s%% (%s → %s: %s → %s)\n",
			g.Direction, fmtNum(engine.RoundTo2(g.ChangePercent)),
			g.EarliestPeriod, g.LatestPeriod, fmtNum(g.EarliestValue), fmtNum(g.LatestValue))
	}

	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, l := range lines {
			fmt.Fprintf(&b, "  - %s\n", l)
		}
	}
	section("Insights", td.Insights)
	section("Anomalies", td.Anomalies)
	section("Trends", td.Trends)

	_, err := io.WriteString(w, b.String())
	return err
}

// ============================================================================
// HELPERS
// ============================================================================

func fmtNum(v float64) string {
	// Whole numbers → no decimals, fractional → 2 decimals
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

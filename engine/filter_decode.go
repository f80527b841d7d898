package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"
)

// ============================================================================
// FILTER DECODE — Lenient JSON → FilterSpec
// ============================================================================
// Filter payloads come from UI widgets and are often sloppy. Decoding only
// fails when the body is not a JSON object. Inside it:
//   - a set entry of the wrong type becomes an unmatchable sentinel
//   - a scalar where a list is expected is treated as a one-element list
//   - a date of the wrong type or format sets InvalidBounds
//   - unknown keys are ignored
// ============================================================================

// DateLayouts are the accepted date formats, tried in order.
var DateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
}

// ParseDate tries each of DateLayouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// DecodeFilterSpec parses a JSON filter body.
func DecodeFilterSpec(data []byte) (FilterSpec, error) {
	var spec FilterSpec
	if len(strings.TrimSpace(string(data))) == 0 {
		return spec, nil
	}

	var p fastjson.Parser
	root, err := p.ParseBytes(data)
	if err != nil {
		return spec, fmt.Errorf("decode filter spec: %w", err)
	}
	if root.Type() != fastjson.TypeObject {
		return spec, fmt.Errorf("decode filter spec: want object, got %s", root.Type())
	}

	if t := root.Get("timeRange"); t != nil {
		var startOK, endOK bool
		spec.TimeRange.Start, startOK = decodeDate(t.Get("startDate"))
		spec.TimeRange.End, endOK = decodeDate(t.Get("endDate"))
		spec.TimeRange.InvalidBounds = !startOK || !endOK
		spec.TimeRange.Years = decodeInts(t.Get("years"))
		spec.TimeRange.Months = decodeInts(t.Get("months"))
	}

	if g := root.Get("geographical"); g != nil {
		spec.Geography.States = decodeStrings(g.Get("states"))
		spec.Geography.Districts = decodeStrings(g.Get("districts"))
		spec.Geography.Areas = decodeStrings(g.Get("areas"))
	}

	if c := root.Get("categorical"); c != nil {
		spec.Categorical.VehicleClasses = decodeStrings(c.Get("vehicleClasses"))
		spec.Categorical.FuelTypes = decodeStrings(c.Get("fuelTypes"))
		spec.Categorical.Diseases = decodeStrings(c.Get("diseases"))
		spec.Categorical.Statuses = decodeStrings(c.Get("statuses"))
		spec.Categorical.Genders = decodeStrings(c.Get("genders"))
		spec.Categorical.Pollutants = decodeStrings(c.Get("pollutants"))
		spec.Categorical.AQIStatuses = decodeStrings(c.Get("aqiStatuses"))
	}

	return spec, nil
}

// listItems normalises a value to its entries. Null and missing are empty.
func listItems(v *fastjson.Value) []*fastjson.Value {
	if v == nil {
		return nil
	}
	switch v.Type() {
	case fastjson.TypeNull:
		return nil
	case fastjson.TypeArray:
		items, _ := v.Array()
		return items
	default:
		return []*fastjson.Value{v}
	}
}

func decodeStrings(v *fastjson.Value) []string {
	items := listItems(v)
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type() != fastjson.TypeString {
			out = append(out, InvalidFilterValue)
			continue
		}
		out = append(out, string(item.GetStringBytes()))
	}
	return out
}

func decodeInts(v *fastjson.Value) []int {
	items := listItems(v)
	if len(items) == 0 {
		return nil
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		out = append(out, decodeInt(item))
	}
	return out
}

// decodeInt accepts integral numbers and numeric strings.
func decodeInt(v *fastjson.Value) int {
	switch v.Type() {
	case fastjson.TypeNumber:
		f := v.GetFloat64()
		if f != math.Trunc(f) {
			return InvalidFilterNumber
		}
		return int(f)
	case fastjson.TypeString:
		n, err := strconv.Atoi(strings.TrimSpace(string(v.GetStringBytes())))
		if err != nil {
			return InvalidFilterNumber
		}
		return n
	default:
		return InvalidFilterNumber
	}
}

// decodeDate reports ok=false for a bound that is present but unusable.
// Missing, null and blank values are no bound.
func decodeDate(v *fastjson.Value) (*time.Time, bool) {
	if v == nil || v.Type() == fastjson.TypeNull {
		return nil, true
	}
	if v.Type() != fastjson.TypeString {
		return nil, false
	}
	s := string(v.GetStringBytes())
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

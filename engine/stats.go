package engine

import (
	"math"
	"sort"
)

// ============================================================================
// STATISTICS — Numeric primitives over plain float sequences
// ============================================================================
// Degenerate input never produces NaN or Inf: empty series and zero
// denominators resolve to 0.
// ============================================================================

// DefaultAnomalySigma is the deviation multiple used by the insight rules.
const DefaultAnomalySigma = 2.0

// Stats summarises a numeric series.
type Stats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	StdDev float64 `json:"stdDev" yaml:"std_dev"`
	Count  int     `json:"count" yaml:"count"`
}

// BoxStats are the five-number summary plus outliers beyond 1.5×IQR.
type BoxStats struct {
	Min      float64   `json:"min" yaml:"min"`
	Q1       float64   `json:"q1" yaml:"q1"`
	Median   float64   `json:"median" yaml:"median"`
	Q3       float64   `json:"q3" yaml:"q3"`
	Max      float64   `json:"max" yaml:"max"`
	Outliers []float64 `json:"outliers" yaml:"outliers"`
}

// ComputeStats returns mean, median, min, max, population standard deviation
// and count. Empty input returns the zero Stats.
func ComputeStats(values []float64) Stats {
	n := len(values)
	if n == 0 {
		return Stats{}
	}

	sorted := sortedCopy(values)

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}

	return Stats{
		Mean:   mean,
		Median: median(sorted),
		Min:    sorted[0],
		Max:    sorted[n-1],
		StdDev: math.Sqrt(sq / float64(n)),
		Count:  n,
	}
}

// Correlation returns the Pearson coefficient of x and y.
// Returns 0 for mismatched lengths, empty series or a constant series.
func Correlation(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}

	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}

	fn := float64(n)
	numerator := fn*sumXY - sumX*sumY
	denominator := math.Sqrt((fn*sumX2 - sumX*sumX) * (fn*sumY2 - sumY*sumY))
	if denominator == 0 || math.IsNaN(denominator) {
		return 0
	}

	r := numerator / denominator
	// Float error can push a perfect correlation just past ±1.
	return math.Max(-1, math.Min(1, r))
}

// DetectAnomalies returns the values whose distance from the mean exceeds
// thresholdSigma standard deviations, in input order.
func DetectAnomalies(values []float64, thresholdSigma float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	stats := ComputeStats(values)
	limit := thresholdSigma * stats.StdDev

	var anomalies []float64
	for _, v := range values {
		if math.Abs(v-stats.Mean) > limit {
			anomalies = append(anomalies, v)
		}
	}
	return anomalies
}

// ComputeBoxStats builds the box-plot summary of values.
// Quartiles are taken at indices floor(n/4) and floor(3n/4) of the sorted
// series; Min and Max ignore values outside the 1.5×IQR fences.
func ComputeBoxStats(values []float64) BoxStats {
	n := len(values)
	if n == 0 {
		return BoxStats{}
	}

	sorted := sortedCopy(values)
	q1 := sorted[n/4]
	q3 := sorted[(3*n)/4]
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	box := BoxStats{
		Q1:     q1,
		Median: median(sorted),
		Q3:     q3,
	}

	first := true
	for _, v := range sorted {
		if v < lower || v > upper {
			box.Outliers = append(box.Outliers, v)
			continue
		}
		if first {
			box.Min, box.Max = v, v
			first = false
			continue
		}
		box.Max = v
	}
	return box
}

// Sum adds up values.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Mean returns the arithmetic mean, or 0 for an empty series.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// ratio divides, defining division by zero as 0.
func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

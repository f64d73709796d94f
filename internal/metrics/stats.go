package metrics

import (
	"math"
	"sort"
)

// Mean calculates the arithmetic mean. Returns 0 for empty input.
// Finite inputs always give a finite mean, even when their sum overflows.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	n := float64(len(values))
	if !math.IsInf(sum, 0) {
		return sum / n
	}
	mean := 0.0
	for _, v := range values {
		mean += v / n
	}
	return mean
}

// SaturatingAdd returns a + b, clamped to ±math.MaxFloat64 on overflow.
func SaturatingAdd(a, b float64) float64 {
	sum := a + b
	switch {
	case math.IsInf(sum, 1):
		return math.MaxFloat64
	case math.IsInf(sum, -1):
		return -math.MaxFloat64
	}
	return sum
}

// Sum adds values with SaturatingAdd.
func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum = SaturatingAdd(sum, v)
	}
	return sum
}

// SampleStddev calculates sample standard deviation (n-1 denominator).
// Returns 0 for fewer than 2 values.
func SampleStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sd := sampleStddev(values, mean)
	if !math.IsInf(sd, 0) && !math.IsNaN(sd) {
		return sd
	}

	// Squared deviations overflowed: compute on values scaled into [-1, 1].
	scale := 0.0
	for _, v := range values {
		scale = math.Max(scale, math.Abs(v))
	}
	if scale == 0 || math.IsInf(scale, 0) {
		return 0
	}
	scaled := make([]float64, n)
	for i, v := range values {
		scaled[i] = v / scale
	}
	return scale * sampleStddev(scaled, mean/scale)
}

func sampleStddev(values []float64, mean float64) float64 {
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// CoefficientOfVariation returns stddev / mean, or 0 when mean is 0 or the
// ratio is not a finite number.
func CoefficientOfVariation(values []float64) float64 {
	mean := Mean(values)
	if mean == 0 {
		return 0
	}
	cv := SampleStddev(values, mean) / mean
	if math.IsInf(cv, 0) || math.IsNaN(cv) {
		return 0
	}
	return cv
}

// Percentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is in [0, 1] (0.25 = 25th percentile).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Index for percentile (0-based, continuous)
	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	v := sorted[lower] + frac*(sorted[upper]-sorted[lower])
	if math.IsInf(v, 0) || math.IsNaN(v) {
		// The gap between neighbours overflowed.
		v = sorted[lower]*(1-frac) + sorted[upper]*frac
	}
	return v
}

// Quantile sorts a copy of values and returns Percentile(p).
func Quantile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Percentile(sorted, p)
}

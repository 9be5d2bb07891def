// Package stats computes the descriptive statistics used in cached
// summaries: sample count, mean, unbiased standard deviation, and
// linear-interpolation percentiles.
package stats

import (
	"math"
	"sort"
)

// StatNames lists the statistics Describe emits, in document order.
var StatNames = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Describe computes descriptive statistics over a sample. Returns nil for an
// empty sample. The standard deviation uses the unbiased (n-1) definition
// and is reported as 0 for a single observation.
func Describe(values []float64) map[string]float64 {
	n := len(values)
	if n == 0 {
		return nil
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean := 0.0
	for _, v := range sorted {
		mean += v
	}
	mean /= float64(n)

	std := 0.0
	if n > 1 {
		var ss float64
		for _, v := range sorted {
			d := v - mean
			ss += d * d
		}
		std = math.Sqrt(ss / float64(n-1))
	}

	return map[string]float64{
		"count": float64(n),
		"mean":  mean,
		"std":   std,
		"min":   sorted[0],
		"25%":   Percentile(sorted, 25),
		"50%":   Percentile(sorted, 50),
		"75%":   Percentile(sorted, 75),
		"max":   sorted[n-1],
	}
}

// Percentile returns the p-th percentile (0-100) of an ascending-sorted
// sample using linear interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

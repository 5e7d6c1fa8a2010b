package pipeline

import (
	"math"
	"sort"
)

// Median returns the statistical median. The second return is false for an
// empty input.
func Median(values []float64) (float64, bool) {
	return Quantile(values, 0.5)
}

// Quantile computes the q-quantile with linear interpolation between order
// statistics, matching the semantics the original analysis artifacts were
// produced with.
func Quantile(values []float64, q float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0], true
	}
	if q >= 1 {
		return sorted[len(sorted)-1], true
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo], true
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac, true
}

// Mean returns the arithmetic mean, or 0 for an empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation (n-1 denominator). Inputs
// with fewer than two values have zero variance by definition here.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// RankPercentiles returns the rank-based percentile of each value within the
// full slice, in (0,1]. Ties receive the average of their ranks divided by
// n, so equal values get equal percentiles.
func RankPercentiles(values []float64) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	out := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		// ranks are 1-based; ties share the average rank of their run
		avgRank := float64(i+j+2) / 2
		pct := avgRank / float64(n)
		for k := i; k <= j; k++ {
			out[idx[k]] = pct
		}
		i = j + 1
	}
	return out
}

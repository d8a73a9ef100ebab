package features

import (
	"math"
	"sort"
)

// Window statistics over the available columns of one pivot row. Callers
// handle the empty-window case by zero-filling, so every function here may
// assume len(values) > 0 unless noted.

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// popStd is the population standard deviation; a single-value window is 0.
func popStd(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	m := mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

func maxOf(values []float64) float64 {
	out := values[0]
	for _, v := range values[1:] {
		if v > out {
			out = v
		}
	}
	return out
}

func minOf(values []float64) float64 {
	out := values[0]
	for _, v := range values[1:] {
		if v < out {
			out = v
		}
	}
	return out
}

func sum(values []float64) float64 {
	out := 0.0
	for _, v := range values {
		out += v
	}
	return out
}

// weightedMean decays weights by 0.9 per step back from the most recent
// available day (weight 1.0), normalized by the weight sum.
func weightedMean(values []float64) float64 {
	n := len(values)
	num, den := 0.0, 0.0
	for i, v := range values {
		w := math.Pow(0.9, float64(n-1-i))
		num += v * w
		den += w
	}
	return num / den
}

// diffMean is the mean of first differences; 0 when the window has one value.
func diffMean(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(values); i++ {
		total += values[i] - values[i-1]
	}
	return total / float64(len(values)-1)
}

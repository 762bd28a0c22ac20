package s1_features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Rolling windows use min_periods = 1: the window ending at i covers
// x[max(0, i-k+1) .. i], so early rows use every observation available so far.
// NaN inputs are skipped inside a window; a window with no defined values is NaN.

// window i에서 끝나는 min_periods=1 윈도우의 유효값
func window(x []float64, i, k int, buf []float64) []float64 {
	start := i - k + 1
	if start < 0 {
		start = 0
	}
	buf = buf[:0]
	for _, v := range x[start : i+1] {
		if !math.IsNaN(v) {
			buf = append(buf, v)
		}
	}
	return buf
}

// rollingMean 직전 k개 평균
func rollingMean(x []float64, k int) []float64 {
	out := make([]float64, len(x))
	buf := make([]float64, 0, k)
	for i := range x {
		w := window(x, i, k, buf)
		if len(w) == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Mean(w, nil)
	}
	return out
}

// rollingStd 직전 k개 표본 표준편차 (n-1)
// 관측치 1개면 NaN
func rollingStd(x []float64, k int) []float64 {
	out := make([]float64, len(x))
	buf := make([]float64, 0, k)
	for i := range x {
		w := window(x, i, k, buf)
		if len(w) < 2 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.StdDev(w, nil)
	}
	return out
}

// rollingMin 직전 k개 최솟값
func rollingMin(x []float64, k int) []float64 {
	out := make([]float64, len(x))
	buf := make([]float64, 0, k)
	for i := range x {
		w := window(x, i, k, buf)
		if len(w) == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = floats.Min(w)
	}
	return out
}

// pctChange x[t]/x[t-k] - 1 (t<k 또는 기준값 0이면 NaN)
func pctChange(x []float64, k int) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		if i < k || x[i-k] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = x[i]/x[i-k] - 1
	}
	return out
}

// diff x[t] - x[t-k] (t<k면 NaN)
func diff(x []float64, k int) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		if i < k {
			out[i] = math.NaN()
			continue
		}
		out[i] = x[i] - x[i-k]
	}
	return out
}

// sign -1, 0, 1 (NaN은 0)
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

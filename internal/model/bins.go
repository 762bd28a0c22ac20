package model

import (
	"math"
	"sort"
)

// quantized is the histogram view of a training matrix: per-feature cut points
// and, per feature, the bin index of every row (column-major).
type quantized struct {
	cuts [][]float64
	bins [][]uint16
}

// quantize X의 피처 열마다 최대 maxBins개 구간으로 나눔
func quantize(X [][]float64, nFeatures, maxBins int) *quantized {
	q := &quantized{
		cuts: make([][]float64, nFeatures),
		bins: make([][]uint16, nFeatures),
	}
	col := make([]float64, len(X))
	for f := 0; f < nFeatures; f++ {
		for i, row := range X {
			col[i] = row[f]
		}
		cuts := cutPoints(col, maxBins)
		bins := make([]uint16, len(X))
		for i, v := range col {
			bins[i] = uint16(binOf(cuts, v))
		}
		q.cuts[f] = cuts
		q.bins[f] = bins
	}
	return q
}

// cutPoints 최대 maxBins개 구간을 만드는 오름차순 경계값
// 고유값이 적으면 값 사이 중간점, 많으면 분위수 위치
func cutPoints(values []float64, maxBins int) []float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Float64s(sorted)

	uniq := sorted[:1:1]
	for _, v := range sorted[1:] {
		if v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) == 1 {
		return nil
	}

	if len(uniq) <= maxBins {
		cuts := make([]float64, len(uniq)-1)
		for i := range cuts {
			cuts[i] = uniq[i] + (uniq[i+1]-uniq[i])/2
		}
		return cuts
	}

	n := len(sorted)
	cuts := make([]float64, 0, maxBins-1)
	for i := 1; i < maxBins; i++ {
		c := sorted[i*n/maxBins]
		if c <= sorted[0] {
			continue
		}
		if len(cuts) > 0 && c <= cuts[len(cuts)-1] {
			continue
		}
		cuts = append(cuts, c)
	}
	return cuts
}

// binOf is the number of cuts <= v. x < cuts[b] holds exactly when binOf(x) <= b.
// NaN maps to bin 0 and therefore always goes left.
func binOf(cuts []float64, v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return sort.Search(len(cuts), func(i int) bool { return cuts[i] > v })
}

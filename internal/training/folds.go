package training

import (
	"fmt"
	"sort"
	"time"
)

// Fold is one chronological validation block. Training uses every row dated
// before ValidStart; validation covers ValidStart..ValidEnd inclusive.
type Fold struct {
	Index      int       `json:"index"`
	ValidStart time.Time `json:"valid_start"`
	ValidEnd   time.Time `json:"valid_end"`
}

// ChronologicalFolds 고유 날짜를 k개의 expanding-window 폴드로 분할
// 검증 블록은 n/(k+1)일, 마지막 블록은 마지막 날짜에서 끝남 (purge gap 없음)
func ChronologicalFolds(dates []time.Time, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("cv folds must be >= 2, got %d", k)
	}

	uniq := uniqueDates(dates)
	n := len(uniq)
	if n < k+1 {
		return nil, fmt.Errorf("%d distinct dates is too few for %d folds", n, k)
	}

	size := n / (k + 1)
	folds := make([]Fold, k)
	for i := 0; i < k; i++ {
		start := n - (k-i)*size
		folds[i] = Fold{
			Index:      i,
			ValidStart: uniq[start],
			ValidEnd:   uniq[start+size-1],
		}
	}
	return folds, nil
}

// InTrain d 날짜 행이 이 폴드의 학습 구간인지
func (f Fold) InTrain(d time.Time) bool {
	return d.Before(f.ValidStart)
}

// InValid d 날짜 행이 이 폴드의 검증 구간인지
func (f Fold) InValid(d time.Time) bool {
	return !d.Before(f.ValidStart) && !d.After(f.ValidEnd)
}

func uniqueDates(dates []time.Time) []time.Time {
	sorted := append([]time.Time(nil), dates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var out []time.Time
	for i, d := range sorted {
		if i == 0 || !d.Equal(sorted[i-1]) {
			out = append(out, d)
		}
	}
	return out
}

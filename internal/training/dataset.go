package training

import (
	"fmt"
	"time"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/s1_features"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
)

// Dataset 호라이즌 하나의 필터링된 학습 데이터
type Dataset struct {
	Horizon string
	X       [][]float64 // s1_features.ModelFeatures order
	Y       []bool
	Dates   []time.Time
	Symbols []string

	Total   int                // rows offered
	Dropped map[DropReason]int // rows removed, by first failing rule
}

// Len 사용 가능한 행 수
func (d *Dataset) Len() int {
	return len(d.Y)
}

// PositiveRatio 양성 라벨 비율 (빈 데이터면 0)
func (d *Dataset) PositiveRatio() float64 {
	if len(d.Y) == 0 {
		return 0
	}
	var pos int
	for _, y := range d.Y {
		if y {
			pos++
		}
	}
	return float64(pos) / float64(len(d.Y))
}

// subset 날짜 조건 keep을 만족하는 행의 X, Y
func (d *Dataset) subset(keep func(time.Time) bool) ([][]float64, []bool) {
	var X [][]float64
	var Y []bool
	for i, dt := range d.Dates {
		if keep(dt) {
			X = append(X, d.X[i])
			Y = append(Y, d.Y[i])
		}
	}
	return X, Y
}

// Prepare 호라이즌의 학습 행 선택: 라벨 있는 행 → 공용 적격성 필터
// 결과가 비어도 Dataset은 반환 (ErrInsufficientData와 함께, 제외 건수 보고용)
func Prepare(rows []contracts.FeatureRow, horizon string, cfg *strategyconfig.Config) (*Dataset, error) {
	return prepare(rows, horizon, NewEligibility(cfg))
}

func prepare(rows []contracts.FeatureRow, horizon string, elig *Eligibility) (*Dataset, error) {
	ds := &Dataset{
		Horizon: horizon,
		Total:   len(rows),
		Dropped: make(map[DropReason]int),
	}

	for i := range rows {
		r := &rows[i]
		label := r.Label(horizon)
		if !label.Defined() {
			ds.Dropped[DropUndefinedLabel]++
			continue
		}
		if reason := elig.Check(&r.Features); reason != DropNone {
			ds.Dropped[reason]++
			continue
		}
		ds.X = append(ds.X, s1_features.Vector(&r.Features))
		ds.Y = append(ds.Y, label == contracts.LabelPositive)
		ds.Dates = append(ds.Dates, r.Date)
		ds.Symbols = append(ds.Symbols, r.Symbol)
	}

	if ds.Len() == 0 {
		return ds, fmt.Errorf("horizon %s: no rows after filtering %d: %w", horizon, ds.Total, contracts.ErrInsufficientData)
	}
	return ds, nil
}

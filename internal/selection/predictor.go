package selection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/modelstore"
	"github.com/wonny/aegis-nse/internal/s1_features"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
	"github.com/wonny/aegis-nse/internal/training"
	"github.com/wonny/aegis-nse/pkg/logger"
)

// HorizonRanking.Skipped에 기록되는 생략 사유
const (
	SkipMissingModel = "model not found"
	SkipNoEligible   = "no eligible rows"
)

type loaderFunc func(horizon string) (contracts.Scorer, error)

// Predictor scores the latest snapshot per horizon and keeps the top N
// ⭐ SSOT: S4 예측 랭킹은 여기서만
type Predictor struct {
	cfg    *strategyconfig.Config
	elig   *training.Eligibility
	load   loaderFunc
	logger *logger.Logger
}

// NewPredictor store에서 모델을 읽는 Predictor 생성
func NewPredictor(cfg *strategyconfig.Config, store *modelstore.Store, logger *logger.Logger) *Predictor {
	return newPredictor(cfg, storeLoader(store), logger)
}

func newPredictor(cfg *strategyconfig.Config, load loaderFunc, logger *logger.Logger) *Predictor {
	return &Predictor{
		cfg:    cfg,
		elig:   training.NewEligibility(cfg),
		load:   load,
		logger: logger,
	}
}

// storeLoader 최신 아티팩트 로드, 피처 스키마가 다르면 거부
func storeLoader(store *modelstore.Store) loaderFunc {
	return func(horizon string) (contracts.Scorer, error) {
		a, err := store.Load(horizon)
		if err != nil {
			return nil, err
		}
		if !sameSchema(a.Model.Features, s1_features.ModelFeatures) {
			return nil, fmt.Errorf("horizon %s: model feature schema differs from current schema", horizon)
		}
		return a.Model, nil
	}
}

// Load 호라이즌의 저장된 분류기 (없으면 contracts.ErrMissingModel)
func (p *Predictor) Load(horizon string) (contracts.Scorer, error) {
	return p.load(horizon)
}

// PredictTopN 스냅샷을 학습과 같은 적격성 규칙으로 거른 뒤 확률 상위 n개 반환
// 정렬: 확률 내림차순, 동률은 심볼 오름차순
// 적격 행이 0개면 빈 랭킹 (Skipped 설정)
func (p *Predictor) PredictTopN(ctx context.Context, snapshot []contracts.FeatureRow, horizon string, n int) (*contracts.HorizonRanking, error) {
	if n <= 0 {
		n = p.cfg.Ranking.TopN
	}

	// 1. 모델 로드
	scorer, err := p.Load(horizon)
	if err != nil {
		return nil, err
	}

	ranking := &contracts.HorizonRanking{Horizon: horizon, Date: LatestDate(snapshot)}

	type scored struct {
		row  *contracts.FeatureRow
		prob float64
	}
	candidates := make([]scored, 0, len(snapshot))
	dropped := make(map[training.DropReason]int)
	// 2. 적격성 필터 + 확률 계산
	for i := range snapshot {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := &snapshot[i]
		if reason := p.elig.Check(&row.Features); reason != training.DropNone {
			dropped[reason]++
			continue
		}
		candidates = append(candidates, scored{
			row:  row,
			prob: scorer.PredictProbability(s1_features.Vector(&row.Features)),
		})
	}
	ranking.Eligible = len(candidates)

	if len(candidates) == 0 {
		ranking.Skipped = SkipNoEligible
		ranking.Predictions = []contracts.Prediction{}
		p.logger.WithFields(map[string]interface{}{
			"horizon":  horizon,
			"snapshot": len(snapshot),
			"dropped":  dropped,
		}).Warn("No eligible rows for prediction")
		return ranking, nil
	}

	// 3. 정렬 후 상위 n개
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].prob != candidates[j].prob {
			return candidates[i].prob > candidates[j].prob
		}
		return candidates[i].row.Symbol < candidates[j].row.Symbol
	})

	if n > len(candidates) {
		n = len(candidates)
	}
	ranking.Predictions = make([]contracts.Prediction, n)
	for i, c := range candidates[:n] {
		f := &c.row.Features
		ranking.Predictions[i] = contracts.Prediction{
			Horizon:     horizon,
			Rank:        i + 1,
			Symbol:      c.row.Symbol,
			Date:        c.row.Date,
			Close:       c.row.Close,
			DeliveryPct: f.DeliveryPct,
			FIINetMA5:   f.FIINetMA5,
			DIINetMA5:   f.DIINetMA5,
			Probability: c.prob,
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"horizon":  horizon,
		"eligible": ranking.Eligible,
		"top":      ranking.Predictions[0].Symbol,
		"top_prob": ranking.Predictions[0].Probability,
		"dropped":  dropped,
	}).Info("Ranking completed")

	return ranking, nil
}

// PredictAll 설정된 모든 호라이즌 랭킹
// 랭킹 불가한 호라이즌(모델 없음, 적격 행 없음, 손상된 아티팩트)은 빈 랭킹 + Skipped
// 다른 호라이즌에는 영향 없음, 에러는 취소일 때만
func (p *Predictor) PredictAll(ctx context.Context, snapshot []contracts.FeatureRow, n int) ([]contracts.HorizonRanking, error) {
	out := make([]contracts.HorizonRanking, 0, len(p.cfg.Horizons))
	date := LatestDate(snapshot)

	for _, h := range p.cfg.Horizons {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		ranking, err := p.PredictTopN(ctx, snapshot, h.Name, n)
		switch {
		case err == nil:
			out = append(out, *ranking)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return out, err
		default:
			reason := err.Error()
			if errors.Is(err, contracts.ErrMissingModel) {
				reason = SkipMissingModel
			}
			p.logger.WithError(err).WithField("horizon", h.Name).Warn("Horizon skipped")
			out = append(out, contracts.HorizonRanking{
				Horizon:     h.Name,
				Date:        date,
				Predictions: []contracts.Prediction{},
				Skipped:     reason,
			})
		}
	}
	return out, nil
}

// LatestSnapshot 가장 최근 날짜의 행들
func LatestSnapshot(rows []contracts.FeatureRow) []contracts.FeatureRow {
	latest := LatestDate(rows)
	var out []contracts.FeatureRow
	for _, r := range rows {
		if r.Date.Equal(latest) {
			out = append(out, r)
		}
	}
	return out
}

// LatestDate 행들의 최대 날짜 (비어 있으면 zero time)
func LatestDate(rows []contracts.FeatureRow) time.Time {
	var latest time.Time
	for i, r := range rows {
		if i == 0 || r.Date.After(latest) {
			latest = r.Date
		}
	}
	return latest
}

func sameSchema(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/model"
	"github.com/wonny/aegis-nse/internal/s1_features"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
)

// FoldResult 폴드 하나의 검증 결과
type FoldResult struct {
	Fold
	TrainRows int     `json:"train_rows"`
	ValidRows int     `json:"valid_rows"`
	AUC       float64 `json:"auc"` // NaN when undefined
	Err       error   `json:"-"`
}

// Result 호라이즌 하나의 학습 결과 (모델, CV 점수, 제외 건수)
type Result struct {
	Horizon       string
	Model         *model.Classifier // nil when Err is set
	Rows          int
	PositiveRatio float64
	Dropped       map[DropReason]int

	Folds  []FoldResult
	CVMean float64 // NaN when no fold produced a score
	CVStd  float64 // population std over scored folds

	Importances []model.FeatureImportance
	Duration    time.Duration
	Err         error
}

// Trainer fits one classifier per horizon and scores it with chronological CV
// ⭐ SSOT: 학습 오케스트레이션은 여기서만
type Trainer struct {
	cfg  *strategyconfig.Config
	elig *Eligibility
	log  zerolog.Logger
}

// NewTrainer 새 Trainer 생성
// cfg는 생성 이후 변경 금지
func NewTrainer(cfg *strategyconfig.Config, log zerolog.Logger) *Trainer {
	return &Trainer{
		cfg:  cfg,
		elig: NewEligibility(cfg),
		log:  log.With().Str("component", "training").Logger(),
	}
}

// Train 호라이즌 학습: 데이터 준비 → 시계열 CV → 전체 행으로 최종 모델 학습
// 학습 도중에는 중단 불가, ctx는 폴드 사이에서만 확인
func (t *Trainer) Train(ctx context.Context, rows []contracts.FeatureRow, horizon string) (*Result, error) {
	start := time.Now()
	res := &Result{Horizon: horizon, CVMean: math.NaN(), CVStd: math.NaN()}

	// 1. 라벨 + 적격성 필터
	ds, err := prepare(rows, horizon, t.elig)
	res.Rows = ds.Len()
	res.Dropped = ds.Dropped
	res.PositiveRatio = ds.PositiveRatio()
	if err != nil {
		res.Err = err
		return res, err
	}

	t.log.Info().
		Str("horizon", horizon).
		Int("rows", ds.Len()).
		Int("offered", ds.Total).
		Float64("positive_ratio", res.PositiveRatio).
		Interface("dropped", ds.Dropped).
		Msg("training set prepared")

	// 2. 교차 검증 (실패한 폴드는 NaN, 나머지로 평균)
	if err := t.crossValidate(ctx, ds, res); err != nil {
		res.Err = err
		return res, err
	}

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res, err
	}

	// 3. 최종 모델: 적격 행 전체로 학습
	clf, err := model.Train(ds.X, ds.Y, s1_features.ModelFeatures, t.cfg.Model)
	if err != nil {
		res.Err = fmt.Errorf("horizon %s: %w", horizon, err)
		return res, res.Err
	}
	res.Model = clf
	res.Importances = clf.Importances()
	res.Duration = time.Since(start)

	t.log.Info().
		Str("horizon", horizon).
		Float64("cv_auc_mean", res.CVMean).
		Float64("cv_auc_std", res.CVStd).
		Int("trees", len(clf.Trees)).
		Dur("elapsed", res.Duration).
		Msg("model trained")

	return res, nil
}

// crossValidate res.Folds, res.CVMean, res.CVStd 계산
// 날짜가 부족하면 경고 후 CV 생략, 에러는 취소일 때만 반환
func (t *Trainer) crossValidate(ctx context.Context, ds *Dataset, res *Result) error {
	folds, err := ChronologicalFolds(ds.Dates, t.cfg.Validation.CVFolds)
	if err != nil {
		t.log.Warn().Err(err).Str("horizon", ds.Horizon).Msg("cross-validation skipped")
		return nil
	}

	var scores []float64
	for _, f := range folds {
		if err := ctx.Err(); err != nil {
			return err
		}

		fr := t.runFold(ds, f)
		res.Folds = append(res.Folds, fr)
		if fr.Err != nil {
			t.log.Warn().Err(fr.Err).Str("horizon", ds.Horizon).Int("fold", f.Index).Msg("fold not scored")
			continue
		}
		scores = append(scores, fr.AUC)
	}

	if len(scores) > 0 {
		res.CVMean = stat.Mean(scores, nil)
		res.CVStd = math.Sqrt(stat.PopVariance(scores, nil)) // 모표준편차 (ddof=0)
	}
	return nil
}

// runFold 폴드 하나 학습 후 검증 구간 AUC
func (t *Trainer) runFold(ds *Dataset, f Fold) FoldResult {
	fr := FoldResult{Fold: f, AUC: math.NaN()}

	trainX, trainY := ds.subset(f.InTrain)
	validX, validY := ds.subset(f.InValid)
	fr.TrainRows, fr.ValidRows = len(trainY), len(validY)

	clf, err := model.Train(trainX, trainY, s1_features.ModelFeatures, t.cfg.Model)
	if err != nil {
		fr.Err = fmt.Errorf("fold %d: %w", f.Index, err)
		return fr
	}

	scores := make([]float64, len(validX))
	for i, x := range validX {
		scores[i] = clf.PredictProbability(x)
	}
	fr.AUC, err = model.AUC(scores, validY)
	if err != nil {
		fr.Err = fmt.Errorf("fold %d: %w", f.Index, err)
	}

	t.log.Debug().
		Str("horizon", ds.Horizon).
		Int("fold", f.Index).
		Int("train_rows", fr.TrainRows).
		Int("valid_rows", fr.ValidRows).
		Float64("auc", fr.AUC).
		Msg("fold scored")
	return fr
}

// TrainAll 설정된 모든 호라이즌을 병렬 학습
// 호라이즌 실패는 각 Result에만 기록, 전체 중단은 취소일 때만
func (t *Trainer) TrainAll(ctx context.Context, rows []contracts.FeatureRow) ([]*Result, error) {
	results := make([]*Result, len(t.cfg.Horizons))

	var g errgroup.Group
	for i, h := range t.cfg.Horizons {
		i, h := i, h
		g.Go(func() error {
			res, err := t.Train(ctx, rows, h.Name) // results[i]는 고루틴마다 다른 칸
			results[i] = res
			switch {
			case err == nil:
			case errors.Is(err, contracts.ErrInsufficientData):
				t.log.Warn().Err(err).Str("horizon", h.Name).Msg("horizon skipped")
			default:
				t.log.Error().Err(err).Str("horizon", h.Name).Msg("horizon training failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

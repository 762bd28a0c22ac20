package selection

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/model"
	"github.com/wonny/aegis-nse/internal/modelstore"
	"github.com/wonny/aegis-nse/internal/s1_features"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
	"github.com/wonny/aegis-nse/internal/testutil"
	"github.com/wonny/aegis-nse/internal/training"
	"github.com/wonny/aegis-nse/pkg/logger"
)

// firstFeature scores a row by its returns_1d value
type firstFeature struct{}

func (firstFeature) PredictProbability(v []float64) float64 { return v[0] }

func fakeLoader(available ...string) loaderFunc {
	return func(horizon string) (contracts.Scorer, error) {
		for _, h := range available {
			if h == horizon {
				return firstFeature{}, nil
			}
		}
		return nil, contracts.ErrMissingModel
	}
}

// snapshotRow is an eligible row whose score (returns_1d) is prob
func snapshotRow(symbol string, prob float64) contracts.FeatureRow {
	return contracts.FeatureRow{
		Symbol: symbol,
		Date:   testutil.Start,
		Close:  250,
		Features: contracts.Features{
			Returns1D:    prob,
			AvgVolume20D: 5e5,
			DeliveryPct:  55,
			FIINetMA5:    12,
			DIINetMA5:    -3,
		},
	}
}

func TestPredictTopN(t *testing.T) {
	cfg := strategyconfig.Default()
	p := newPredictor(cfg, fakeLoader("daily"), logger.Nop())

	probs := map[string]float64{"A": 0.9, "B": 0.1, "C": 0.95, "D": 0.4, "E": 0.99}
	var snapshot []contracts.FeatureRow
	for _, sym := range []string{"A", "B", "C", "D", "E"} {
		snapshot = append(snapshot, snapshotRow(sym, probs[sym]))
	}
	// FIINetDelta 0: 0.9 이상의 return에도 guard 미적용

	ranking, err := p.PredictTopN(context.Background(), snapshot, "daily", 3)
	require.NoError(t, err)
	require.Len(t, ranking.Predictions, 3)

	var got []string
	for i, pr := range ranking.Predictions {
		got = append(got, pr.Symbol)
		assert.Equal(t, i+1, pr.Rank)
		assert.Equal(t, "daily", pr.Horizon)
	}
	assert.Equal(t, []string{"E", "C", "A"}, got)
	assert.Equal(t, 0.99, ranking.Predictions[0].Probability)
	assert.Equal(t, 5, ranking.Eligible)
	assert.Equal(t, 55.0, ranking.Predictions[0].DeliveryPct)
	assert.Equal(t, 12.0, ranking.Predictions[0].FIINetMA5)
	assert.Empty(t, ranking.Skipped)
}

func TestPredictTopNTiesBySymbol(t *testing.T) {
	p := newPredictor(strategyconfig.Default(), fakeLoader("daily"), logger.Nop())
	snapshot := []contracts.FeatureRow{
		snapshotRow("ZEEL", 0.5),
		snapshotRow("INFY", 0.5),
		snapshotRow("MARUTI", 0.5),
		snapshotRow("ABB", 0.2),
	}

	ranking, err := p.PredictTopN(context.Background(), snapshot, "daily", 10)
	require.NoError(t, err)
	require.Len(t, ranking.Predictions, 4)

	assert.Equal(t, "INFY", ranking.Predictions[0].Symbol)
	assert.Equal(t, "MARUTI", ranking.Predictions[1].Symbol)
	assert.Equal(t, "ZEEL", ranking.Predictions[2].Symbol)
	assert.Equal(t, "ABB", ranking.Predictions[3].Symbol)
}

func TestPredictTopNAppliesEligibility(t *testing.T) {
	p := newPredictor(strategyconfig.Default(), fakeLoader("daily"), logger.Nop())

	illiquid := snapshotRow("ILLQ", 0.8)
	illiquid.Features.AvgVolume20D = 10
	churn := snapshotRow("CHRN", 0.7)
	churn.Features.VolumeMA20Ratio, churn.Features.DeliveryPct = 5.0, 35
	dumped := snapshotRow("DUMP", 0.06)
	dumped.Features.FIINetDelta = -500

	ranking, err := p.PredictTopN(context.Background(), []contracts.FeatureRow{illiquid, churn, dumped, snapshotRow("OK", 0.3)}, "daily", 0)
	require.NoError(t, err)
	require.Len(t, ranking.Predictions, 1)
	assert.Equal(t, "OK", ranking.Predictions[0].Symbol)
	assert.Equal(t, 1, ranking.Eligible)
}

func TestPredictTopNNoEligibleRows(t *testing.T) {
	p := newPredictor(strategyconfig.Default(), fakeLoader("daily"), logger.Nop())
	row := snapshotRow("A", 0.5)
	row.Features.DeliveryPct = 0

	ranking, err := p.PredictTopN(context.Background(), []contracts.FeatureRow{row}, "daily", 3)
	require.NoError(t, err)
	assert.Empty(t, ranking.Predictions)
	assert.Equal(t, SkipNoEligible, ranking.Skipped)
}

func TestPredictAllIsolatesMissingModel(t *testing.T) {
	cfg := strategyconfig.Default()
	p := newPredictor(cfg, fakeLoader("daily", "monthly"), logger.Nop())
	snapshot := []contracts.FeatureRow{snapshotRow("A", 0.6), snapshotRow("B", 0.4)}

	rankings, err := p.PredictAll(context.Background(), snapshot, 1)
	require.NoError(t, err)
	require.Len(t, rankings, 3)

	assert.Equal(t, "daily", rankings[0].Horizon)
	require.Len(t, rankings[0].Predictions, 1)
	assert.Equal(t, "A", rankings[0].Predictions[0].Symbol)

	assert.Equal(t, "weekly", rankings[1].Horizon)
	assert.Empty(t, rankings[1].Predictions)
	assert.Equal(t, SkipMissingModel, rankings[1].Skipped)
	assert.Equal(t, testutil.Start, rankings[1].Date)

	assert.Equal(t, "monthly", rankings[2].Horizon)
	assert.Len(t, rankings[2].Predictions, 1)
}

func TestPredictAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newPredictor(strategyconfig.Default(), fakeLoader("daily"), logger.Nop())
	_, err := p.PredictAll(ctx, []contracts.FeatureRow{snapshotRow("A", 0.5)}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLatestSnapshot(t *testing.T) {
	d0 := testutil.Start
	d1 := d0.Add(24 * time.Hour)
	rows := []contracts.FeatureRow{
		{Symbol: "A", Date: d0}, {Symbol: "A", Date: d1},
		{Symbol: "B", Date: d0},
		{Symbol: "C", Date: d0}, {Symbol: "C", Date: d1},
	}

	snap := LatestSnapshot(rows)
	require.Len(t, snap, 2)
	assert.Equal(t, "A", snap[0].Symbol)
	assert.Equal(t, "C", snap[1].Symbol)
	assert.True(t, LatestDate(nil).IsZero())
}

func TestStoreLoader(t *testing.T) {
	dir := t.TempDir()
	store := modelstore.New(dir, zerolog.Nop())
	p := NewPredictor(strategyconfig.Default(), store, logger.Nop())

	_, err := p.Load("daily")
	assert.ErrorIs(t, err, contracts.ErrMissingModel)

	params := strategyconfig.Default().Model
	params.NEstimators = 2
	X := [][]float64{make([]float64, len(s1_features.ModelFeatures)), make([]float64, len(s1_features.ModelFeatures))}
	X[1][0] = 1
	clf, err := model.Train(X, []bool{false, true}, s1_features.ModelFeatures, params)
	require.NoError(t, err)
	_, err = store.Save(&modelstore.Artifact{Horizon: "daily", Model: clf})
	require.NoError(t, err)

	scorer, err := p.Load("daily")
	require.NoError(t, err)
	prob := scorer.PredictProbability(X[0])
	assert.True(t, prob > 0 && prob < 1)

	// 다른 스키마로 학습된 모델 거부
	other, err := model.Train([][]float64{{0}, {1}}, []bool{false, true}, []string{"x"}, params)
	require.NoError(t, err)
	_, err = store.Save(&modelstore.Artifact{Horizon: "weekly", Model: other})
	require.NoError(t, err)
	_, err = p.Load("weekly")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, contracts.ErrMissingModel)
}

// 학습 세트와 예측 세트가 같은 필터를 쓰는지 확인: 의심 행은 양쪽 모두에서 빠져야 함
func TestSuspiciousRowExcludedFromTrainingAndRanking(t *testing.T) {
	tests := []struct {
		name        string
		minDelivery float64
		reason      training.DropReason
	}{
		{"delivery floor drops it first", 30, training.DropLowDelivery},
		{"guard drops it", 10, training.DropGuard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := strategyconfig.Default()
			cfg.Universe.MinDeliveryPct = tt.minDelivery

			suspicious := snapshotRow("SUSP", 0.999)
			suspicious.Features.VolumeMA20Ratio = 5.0
			suspicious.Features.DeliveryPct = 20
			require.True(t, training.NewEligibility(cfg).Guard().Suspicious(&suspicious.Features))

			rows := []contracts.FeatureRow{snapshotRow("A", 0.6), snapshotRow("B", 0.3), suspicious}
			for i := range rows {
				rows[i].Labels = map[string]contracts.Label{"daily": contracts.LabelPositive}
			}

			ds, err := training.Prepare(rows, "daily", cfg)
			require.NoError(t, err)
			assert.Equal(t, []string{"A", "B"}, ds.Symbols)
			assert.Equal(t, 1, ds.Dropped[tt.reason])

			p := newPredictor(cfg, fakeLoader("daily"), logger.Nop())
			ranking, err := p.PredictTopN(context.Background(), rows, "daily", 10)
			require.NoError(t, err)
			assert.Equal(t, 2, ranking.Eligible)
			for _, pr := range ranking.Predictions {
				assert.NotEqual(t, "SUSP", pr.Symbol)
			}
			assert.Equal(t, "A", ranking.Predictions[0].Symbol)
		})
	}
}

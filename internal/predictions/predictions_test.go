package predictions

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/model"
	"github.com/wonny/aegis-nse/internal/testutil"
	"github.com/wonny/aegis-nse/internal/training"
)

func TestNewTrainingRun(t *testing.T) {
	at := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

	t.Run("scored", func(t *testing.T) {
		res := &training.Result{
			Horizon:       "daily",
			Rows:          500,
			PositiveRatio: 0.3,
			CVMean:        0.61,
			CVStd:         0.02,
			Folds: []training.FoldResult{
				{AUC: 0.6},
				{AUC: math.NaN()},
			},
			Importances: []model.FeatureImportance{{Feature: "returns_5d", Gain: 2, Share: 1}},
		}

		run := NewTrainingRun(res, "abc", "/models/gbdt_daily_latest.json", at)
		assert.NotEqual(t, [16]byte{}, [16]byte(run.RunID))
		assert.Equal(t, "daily", run.Horizon)
		require.NotNil(t, run.CVAUCMean)
		assert.Equal(t, 0.61, *run.CVAUCMean)
		require.Len(t, run.FoldAUCs, 2)
		assert.Equal(t, 0.6, *run.FoldAUCs[0])
		assert.Nil(t, run.FoldAUCs[1])
		assert.Empty(t, run.Error)
		assert.Equal(t, at, run.TrainedAt)
	})

	t.Run("failed", func(t *testing.T) {
		res := &training.Result{
			Horizon:       "monthly",
			PositiveRatio: math.NaN(),
			CVMean:        math.NaN(),
			CVStd:         math.NaN(),
			Err:           errors.New("insufficient data"),
		}

		run := NewTrainingRun(res, "abc", "", at)
		assert.Nil(t, run.CVAUCMean)
		assert.Nil(t, run.CVAUCStd)
		assert.Equal(t, 0.0, run.PositiveRate)
		assert.Equal(t, "insufficient data", run.Error)
	})

	t.Run("unique ids", func(t *testing.T) {
		res := &training.Result{Horizon: "daily"}
		a := NewTrainingRun(res, "", "", at)
		b := NewTrainingRun(res, "", "", at)
		assert.NotEqual(t, a.RunID, b.RunID)
	})
}

func TestRepository_Predictions(t *testing.T) {
	db := testutil.DB(t)
	repo := NewRepository(db.Pool)
	ctx := context.Background()

	horizon := "it_" + time.Now().Format("150405")
	date := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	defer db.Pool.Exec(ctx, "DELETE FROM ranking.predictions WHERE horizon = $1", horizon)

	_, err := repo.Latest(ctx, horizon)
	assert.ErrorIs(t, err, ErrNotFound)

	ranking := contracts.HorizonRanking{
		Horizon: horizon,
		Date:    date,
		Predictions: []contracts.Prediction{
			{Horizon: horizon, Date: date, Rank: 1, Symbol: "AAA", Close: 10, Probability: 0.9},
			{Horizon: horizon, Date: date, Rank: 2, Symbol: "BBB", Close: 20, Probability: 0.8},
		},
	}
	skipped := contracts.HorizonRanking{Horizon: horizon + "_x", Skipped: "model not found"}

	require.NoError(t, repo.SavePredictions(ctx, []contracts.HorizonRanking{ranking, skipped}))
	// re-saving the same date replaces rows
	ranking.Predictions = ranking.Predictions[:1]
	require.NoError(t, repo.SavePredictions(ctx, []contracts.HorizonRanking{ranking}))

	got, err := repo.Latest(ctx, horizon)
	require.NoError(t, err)
	require.Len(t, got.Predictions, 1)
	assert.Equal(t, "AAA", got.Predictions[0].Symbol)
	assert.Equal(t, 0.9, got.Predictions[0].Probability)
}

func TestRepository_TrainingRuns(t *testing.T) {
	db := testutil.DB(t)
	repo := NewRepository(db.Pool)
	ctx := context.Background()

	horizon := "it_" + time.Now().Format("150405")
	defer db.Pool.Exec(ctx, "DELETE FROM ranking.training_runs WHERE horizon = $1", horizon)

	res := &training.Result{Horizon: horizon, Rows: 10, CVMean: 0.55, CVStd: 0.01,
		Folds: []training.FoldResult{{AUC: 0.55}, {AUC: math.NaN()}}}
	run := NewTrainingRun(res, "hash", "", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, repo.SaveTrainingRun(ctx, run))

	runs, err := repo.TrainingRuns(ctx, horizon, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.RunID, runs[0].RunID)
	require.NotNil(t, runs[0].CVAUCMean)
	assert.InDelta(t, 0.55, *runs[0].CVAUCMean, 1e-12)
	require.Len(t, runs[0].FoldAUCs, 2)
	assert.Nil(t, runs[0].FoldAUCs[1])
	assert.Empty(t, runs[0].ModelPath)
}

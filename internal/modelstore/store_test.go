package modelstore

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/model"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
)

func trainTiny(t *testing.T) *model.Classifier {
	t.Helper()
	p := strategyconfig.Default().Model
	p.NEstimators = 3
	X := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}}
	y := []bool{false, false, false, false, true, true, true, true}
	clf, err := model.Train(X, y, []string{"x"}, p)
	require.NoError(t, err)
	return clf
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, zerolog.Nop())
	clf := trainTiny(t)
	auc := 0.64

	at := time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC)
	path, err := store.Save(&Artifact{Horizon: "daily", TrainedAt: at, Rows: 8, CVAUC: &auc, Model: clf})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gbdt_daily_20240301_163000.json"), path)
	assert.FileExists(t, filepath.Join(dir, "gbdt_daily_latest.json"))

	loaded, err := store.Load("daily")
	require.NoError(t, err)
	assert.Equal(t, "daily", loaded.Horizon)
	assert.True(t, at.Equal(loaded.TrainedAt))
	require.NotNil(t, loaded.CVAUC)
	assert.Equal(t, 0.64, *loaded.CVAUC)
	assert.Equal(t, clf.PredictProbability([]float64{6}), loaded.Model.PredictProbability([]float64{6}))
}

func TestLatestIsReplaced(t *testing.T) {
	store := New(t.TempDir(), zerolog.Nop())
	clf := trainTiny(t)

	first := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.Save(&Artifact{Horizon: "weekly", TrainedAt: first, Rows: 1, Model: clf})
	require.NoError(t, err)
	_, err = store.Save(&Artifact{Horizon: "weekly", TrainedAt: first.Add(24 * time.Hour), Rows: 2, Model: clf})
	require.NoError(t, err)

	loaded, err := store.Load("weekly")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Rows)
	assert.Nil(t, loaded.CVAUC)

	versions, err := store.Versions("weekly")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Contains(t, versions[0], "20240301")
}

func TestLoadMissing(t *testing.T) {
	_, err := New(t.TempDir(), zerolog.Nop()).Load("monthly")
	assert.ErrorIs(t, err, contracts.ErrMissingModel)
}

func TestLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gbdt_daily_latest.json"), []byte(`{"horizon":"daily","model":{}}`), 0o644))

	_, err := New(dir, zerolog.Nop()).Load("daily")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, contracts.ErrMissingModel)
}

func TestSaveNil(t *testing.T) {
	_, err := New(t.TempDir(), zerolog.Nop()).Save(&Artifact{Horizon: "daily"})
	assert.Error(t, err)
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, zerolog.Nop())
	clf := trainTiny(t)

	base := time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		_, err := store.Save(&Artifact{Horizon: "daily", TrainedAt: base.AddDate(0, 0, i), Model: clf})
		require.NoError(t, err)
	}

	removed, err := store.Prune("daily", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	versions, err := store.Versions("daily")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "gbdt_daily_20240303_163000.json", filepath.Base(versions[0]))
	assert.FileExists(t, filepath.Join(dir, "gbdt_daily_latest.json"))

	removed, err = store.Prune("weekly", 2)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSnapshot(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, zerolog.Nop())

	snap, err := strategyconfig.NewSnapshot(strategyconfig.Default(), nil)
	require.NoError(t, err)

	path, err := store.SaveSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "strategy_"+snap.ConfigHash[:12]+".json"), path)

	// 같은 해시는 덮어쓰지 않음
	again := *snap
	again.ConfigYAML = "changed"
	_, err = store.SaveSnapshot(&again)
	require.NoError(t, err)

	got, err := store.LoadSnapshot(snap.ConfigHash)
	require.NoError(t, err)
	assert.Equal(t, snap.ConfigYAML, got.ConfigYAML)
	assert.Equal(t, snap.StrategyID, got.StrategyID)

	_, err = store.LoadSnapshot("deadbeef")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

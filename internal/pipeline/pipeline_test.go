package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/selection"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
	"github.com/wonny/aegis-nse/internal/testutil"
	"github.com/wonny/aegis-nse/pkg/config"
	"github.com/wonny/aegis-nse/pkg/logger"
)

func newTestPipeline(t *testing.T, rows []contracts.PanelRow) (*Pipeline, *config.Config) {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		Env:     "development",
		Workers: 2,
		Paths: config.PathsConfig{
			PanelFile:    filepath.Join(dir, "raw", "panel.csv"),
			ProcessedDir: filepath.Join(dir, "processed"),
			ModelDir:     filepath.Join(dir, "models"),
			OutputDir:    filepath.Join(dir, "outputs"),
		},
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Paths.PanelFile), 0o755))
	testutil.WritePanelCSV(t, cfg.Paths.PanelFile, rows)

	strategy := strategyconfig.Default()
	strategy.Model.NEstimators = 10
	strategy.Model.MaxDepth = 3
	strategy.Model.MaxBins = 32
	strategy.Validation.CVFolds = 2

	p, err := New(cfg, strategy, Deps{}, logger.Nop())
	require.NoError(t, err)
	p.now = func() time.Time { return time.Date(2024, 8, 1, 18, 30, 0, 0, time.UTC) }
	return p, cfg
}

func TestPipeline_PostThenPreMarket(t *testing.T) {
	rows := testutil.RandomRows([]string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF"}, 140, 7)
	p, cfg := newTestPipeline(t, rows)
	ctx := context.Background()

	train, err := p.PostMarket(ctx, RunOptions{})
	require.NoError(t, err)
	require.Len(t, train.Results, 3)
	assert.Len(t, train.Features, len(rows))
	assert.True(t, train.Quality.Passed())
	assert.FileExists(t, train.FeaturesFile)
	assert.Equal(t, cfg.Paths.ProcessedDir, filepath.Dir(train.FeaturesFile))

	for _, res := range train.Results {
		require.NoError(t, res.Err, res.Horizon)
		assert.FileExists(t, train.ModelPaths[res.Horizon])
	}
	require.Len(t, train.Runs, 3)
	assert.Equal(t, p.ConfigHash(), train.Runs[0].ConfigHash)

	snap, err := p.Store().LoadSnapshot(p.ConfigHash())
	require.NoError(t, err)
	assert.Equal(t, p.ConfigHash(), snap.ConfigHash)

	pred, err := p.PreMarket(ctx, RunOptions{TopN: 3})
	require.NoError(t, err)
	assert.Equal(t, testutil.TradingDays(140)[139], pred.Date)
	require.Len(t, pred.Rankings, 3)
	for _, r := range pred.Rankings {
		assert.Empty(t, r.Skipped, r.Horizon)
		assert.NotEmpty(t, r.Predictions)
		assert.LessOrEqual(t, len(r.Predictions), 3)
		for i := 1; i < len(r.Predictions); i++ {
			assert.GreaterOrEqual(t, r.Predictions[i-1].Probability, r.Predictions[i].Probability)
		}
	}
	assert.Equal(t, "predictions_20240801_183000.csv", filepath.Base(pred.OutputFile))
	assert.FileExists(t, pred.OutputFile)
	assert.FileExists(t, pred.WorkbookFile)
}

func TestPipeline_PreMarketWithoutModels(t *testing.T) {
	rows := testutil.RandomRows([]string{"AAA", "BBB"}, 30, 3)
	p, _ := newTestPipeline(t, rows)

	pred, err := p.PreMarket(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Len(t, pred.Rankings, 3)
	for _, r := range pred.Rankings {
		assert.Equal(t, selection.SkipMissingModel, r.Skipped)
		assert.Empty(t, r.Predictions)
	}
	assert.FileExists(t, pred.OutputFile)
}

func TestPipeline_QualityGate(t *testing.T) {
	rows := testutil.RandomRows([]string{"AAA", "BBB"}, 30, 5)
	rows[3].Close = 0
	p, _ := newTestPipeline(t, rows)
	ctx := context.Background()

	_, err := p.Prepare(ctx, RunOptions{})
	assert.ErrorIs(t, err, contracts.ErrQualityFailed)

	prep, err := p.Prepare(ctx, RunOptions{Force: true})
	require.NoError(t, err)
	assert.False(t, prep.Quality.Passed())
	assert.Len(t, prep.Features, len(rows))
}

func TestPipeline_MissingDaysFilled(t *testing.T) {
	rows := testutil.RandomRows([]string{"AAA", "BBB"}, 30, 9)
	// drop BBB's 10th day
	var kept []contracts.PanelRow
	for _, r := range rows {
		if r.Symbol == "BBB" && r.Date.Equal(testutil.TradingDays(30)[9]) {
			continue
		}
		kept = append(kept, r)
	}
	p, _ := newTestPipeline(t, kept)

	prep, err := p.Prepare(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Len(t, prep.Gaps.Incomplete(), 1)
	assert.Len(t, prep.Panel.Rows, 60)
	assert.Len(t, prep.Features, 60)
}

func TestPipeline_RunGuardShared(t *testing.T) {
	rows := testutil.RandomRows([]string{"AAA", "BBB"}, 30, 3)
	p, _ := newTestPipeline(t, rows)
	ctx := context.Background()

	// 다른 루틴(예: 스케줄러 작업)이 실행 중
	release, err := p.acquire()
	require.NoError(t, err)

	_, err = p.PostMarket(ctx, RunOptions{})
	assert.ErrorIs(t, err, contracts.ErrBusy)
	_, err = p.PreMarket(ctx, RunOptions{})
	assert.ErrorIs(t, err, contracts.ErrBusy)

	release()
	_, err = p.PreMarket(ctx, RunOptions{})
	require.NoError(t, err)

	// a finished routine releases the guard
	_, err = p.PreMarket(ctx, RunOptions{})
	require.NoError(t, err)
}

func TestPipeline_MissingPanelFile(t *testing.T) {
	p, _ := newTestPipeline(t, testutil.RandomRows([]string{"AAA"}, 5, 1))

	_, err := p.Prepare(context.Background(), RunOptions{PanelFile: filepath.Join(t.TempDir(), "none.csv")})
	assert.Error(t, err)
}

package pipeline

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/export"
	"github.com/wonny/aegis-nse/internal/selection"
	"github.com/wonny/aegis-nse/pkg/redis"
)

// PredictReport 장 전 루틴 결과
type PredictReport struct {
	Date         time.Time
	Rankings     []contracts.HorizonRanking
	OutputFile   string
	WorkbookFile string
	Duration     time.Duration
}

// PreMarket runs load → features → latest snapshot → predict every horizon →
// CSV/XLSX output, database and cache.
// Horizons without a model are skipped; the run only fails when nothing could be written.
func (p *Pipeline) PreMarket(ctx context.Context, opts RunOptions) (*PredictReport, error) {
	release, err := p.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	defer p.metrics.Time("pre_market", start)

	prep, err := p.Prepare(ctx, opts)
	if err != nil {
		return nil, err
	}

	snapshot := selection.LatestSnapshot(prep.Features)
	rankings, err := p.predictor.PredictAll(ctx, snapshot, opts.TopN)
	if err != nil {
		return nil, err
	}

	rep := &PredictReport{Date: selection.LatestDate(prep.Features), Rankings: rankings}
	for _, r := range rankings {
		p.metrics.RecordEligible(r.Horizon, r.Eligible)
	}

	at := p.now()
	rep.OutputFile, err = export.PredictionsFile(p.cfg.Paths.OutputDir, rankings, at)
	if err != nil {
		p.metrics.RecordError("export")
		return rep, err
	}

	rep.WorkbookFile = strings.TrimSuffix(rep.OutputFile, filepath.Ext(rep.OutputFile)) + ".xlsx"
	if err := export.PredictionsWorkbook(rep.WorkbookFile, rankings); err != nil {
		p.logger.WithError(err).Warn("Failed to write predictions workbook")
		rep.WorkbookFile = ""
	}

	for _, sink := range p.sinks() {
		if err := sink.SavePredictions(ctx, rankings); err != nil {
			p.metrics.RecordError("sink")
			p.logger.WithError(err).Warn("Failed to publish predictions")
		}
	}

	rep.Duration = time.Since(start)
	p.logger.WithFields(map[string]interface{}{
		"date":     rep.Date.Format("2006-01-02"),
		"output":   rep.OutputFile,
		"duration": rep.Duration.String(),
	}).Info("Pre-market routine completed")

	return rep, nil
}

func (p *Pipeline) sinks() []contracts.PredictionSink {
	var out []contracts.PredictionSink
	if p.repo != nil {
		out = append(out, p.repo)
	}
	if p.cache != nil {
		out = append(out, cacheSink{p.cache})
	}
	return out
}

// cacheSink API용으로 호라이즌별 최신 랭킹을 Redis에 보관
type cacheSink struct {
	cache *redis.Cache
}

func (s cacheSink) SavePredictions(ctx context.Context, rankings []contracts.HorizonRanking) error {
	for _, r := range rankings {
		if r.Skipped != "" {
			continue
		}
		err := s.cache.SetAll(ctx, map[string]any{
			redis.RankingKey(r.Horizon):                                  r,
			redis.RankingDateKey(r.Horizon, r.Date.Format("2006-01-02")): r,
		}, redis.TTLDaily)
		if err != nil {
			return err
		}
	}
	return nil
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

package pipeline

import (
	"context"
	"time"

	"github.com/wonny/aegis-nse/internal/export"
	"github.com/wonny/aegis-nse/internal/modelstore"
	"github.com/wonny/aegis-nse/internal/predictions"
	"github.com/wonny/aegis-nse/internal/training"
)

// TrainReport 장 마감 후 루틴 결과
type TrainReport struct {
	*Prepared
	FeaturesFile string
	Results      []*training.Result
	ModelPaths   map[string]string // horizon → saved artifact
	Runs         []predictions.TrainingRun
	Duration     time.Duration
}

// PostMarket runs load → quality → missing days → features + labels → export →
// train every horizon → save models and training runs.
// A horizon that fails to train is reported in its Result; the other horizons still save.
func (p *Pipeline) PostMarket(ctx context.Context, opts RunOptions) (*TrainReport, error) {
	release, err := p.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	defer p.metrics.Time("post_market", start)

	prep, err := p.Prepare(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := p.labels.Generate(ctx, prep.Features, p.strategy.Horizons); err != nil {
		p.metrics.RecordError("labels")
		return nil, err
	}

	rep := &TrainReport{Prepared: prep, ModelPaths: make(map[string]string)}

	path, err := export.FeaturesFile(p.cfg.Paths.ProcessedDir, prep.Features, p.strategy.HorizonNames(), p.now())
	if err != nil {
		p.logger.WithError(err).Warn("Failed to export feature table")
	} else {
		rep.FeaturesFile = path
	}

	results, err := p.trainer.TrainAll(ctx, prep.Features)
	rep.Results = results
	if err != nil {
		return rep, err
	}

	trainedAt := p.now().UTC()
	for _, res := range results {
		for reason, n := range res.Dropped {
			p.metrics.RecordDropped(res.Horizon, string(reason), n)
		}

		var modelPath string
		if res.Err == nil {
			a := &modelstore.Artifact{
				Horizon:    res.Horizon,
				TrainedAt:  trainedAt,
				ConfigHash: p.configHash,
				Rows:       res.Rows,
				CVAUC:      finitePtr(res.CVMean),
				Model:      res.Model,
			}
			modelPath, err = p.store.Save(a)
			if err != nil {
				p.metrics.RecordError("modelstore")
				p.logger.WithError(err).WithField("horizon", res.Horizon).Error("Failed to save model")
				res.Err = err
			} else {
				rep.ModelPaths[res.Horizon] = modelPath
			}
			if a.CVAUC != nil {
				p.metrics.RecordCVAUC(res.Horizon, *a.CVAUC)
			}
		} else {
			p.metrics.RecordError("training")
		}

		run := predictions.NewTrainingRun(res, p.configHash, modelPath, trainedAt)
		rep.Runs = append(rep.Runs, run)
		if p.repo != nil {
			if err := p.repo.SaveTrainingRun(ctx, run); err != nil {
				p.metrics.RecordError("db")
				p.logger.WithError(err).WithField("horizon", res.Horizon).Warn("Failed to save training run")
			}
		}
	}

	if len(rep.ModelPaths) > 0 {
		if _, err := p.store.SaveSnapshot(p.snapshot); err != nil {
			p.logger.WithError(err).Warn("Failed to save strategy snapshot")
		}
	}

	rep.Duration = time.Since(start)
	p.logger.WithFields(map[string]interface{}{
		"rows":     len(prep.Features),
		"models":   len(rep.ModelPaths),
		"horizons": len(results),
		"duration": rep.Duration.String(),
	}).Info("Post-market routine completed")

	return rep, nil
}

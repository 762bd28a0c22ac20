package jobs

import (
	"context"

	"github.com/wonny/aegis-nse/pkg/logger"
)

// Pruner removes old model artifacts
type Pruner interface {
	Prune(horizon string, keep int) (int, error)
}

// ModelPruneJob 오래된 모델 아티팩트 정리
type ModelPruneJob struct {
	store    Pruner
	horizons []string
	keep     int
	schedule string
	logger   *logger.Logger
}

// NewModelPruneJob creates a new model prune job
func NewModelPruneJob(store Pruner, horizons []string, keep int, schedule string, log *logger.Logger) *ModelPruneJob {
	return &ModelPruneJob{
		store:    store,
		horizons: horizons,
		keep:     keep,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ModelPruneJob) Name() string {
	return "model_prune"
}

// Schedule returns the cron schedule
func (j *ModelPruneJob) Schedule() string {
	return j.schedule
}

// Run 모든 호라이즌 정리
func (j *ModelPruneJob) Run(ctx context.Context) error {
	total := 0
	for _, h := range j.horizons {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := j.store.Prune(h, j.keep)
		if err != nil {
			return err
		}
		total += n
	}

	if total > 0 {
		j.logger.WithField("removed", total).Info("Model prune completed")
	}
	return nil
}

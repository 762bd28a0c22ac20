package jobs

import (
	"context"
	"errors"
	"os"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/pipeline"
	"github.com/wonny/aegis-nse/pkg/logger"
)

// Routines is the part of the pipeline the jobs drive
type Routines interface {
	PostMarket(ctx context.Context, opts pipeline.RunOptions) (*pipeline.TrainReport, error)
	PreMarket(ctx context.Context, opts pipeline.RunOptions) (*pipeline.PredictReport, error)
}

// Retryable 실패한 루틴을 재시도할지 판단
// 잘못된 입력(스키마, 품질, 패널 파일 없음)과 취소는 재시도하지 않음
// ErrBusy(API 실행 중)는 재시도 지연 후 다시 시도
func Retryable(err error) bool {
	switch {
	case errors.Is(err, contracts.ErrSchema),
		errors.Is(err, contracts.ErrQualityFailed),
		errors.Is(err, os.ErrNotExist),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// TrainJob 장 마감 후 루틴 (피처, 라벨, 학습)
type TrainJob struct {
	routines Routines
	schedule string
	logger   *logger.Logger
}

// NewTrainJob creates a new post-market training job
func NewTrainJob(r Routines, schedule string, log *logger.Logger) *TrainJob {
	return &TrainJob{routines: r, schedule: schedule, logger: log}
}

// Name returns the job name
func (j *TrainJob) Name() string {
	return "post_market_train"
}

// Schedule returns the cron schedule
func (j *TrainJob) Schedule() string {
	return j.schedule
}

// Run 장 마감 후 루틴 실행
func (j *TrainJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled post-market training")

	rep, err := j.routines.PostMarket(ctx, pipeline.RunOptions{})
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range rep.Results {
		if res.Err != nil {
			failed++
		}
	}
	j.logger.WithFields(map[string]interface{}{
		"models": len(rep.ModelPaths),
		"failed": failed,
	}).Info("Scheduled training completed")

	return nil
}

// PredictJob runs the pre-market routine (latest snapshot → rankings)
type PredictJob struct {
	routines Routines
	schedule string
	logger   *logger.Logger
}

// NewPredictJob creates a new pre-market prediction job
func NewPredictJob(r Routines, schedule string, log *logger.Logger) *PredictJob {
	return &PredictJob{routines: r, schedule: schedule, logger: log}
}

// Name returns the job name
func (j *PredictJob) Name() string {
	return "pre_market_predict"
}

// Schedule returns the cron schedule
func (j *PredictJob) Schedule() string {
	return j.schedule
}

// Run 장 전 루틴 실행
func (j *PredictJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled pre-market prediction")

	rep, err := j.routines.PreMarket(ctx, pipeline.RunOptions{})
	if err != nil {
		return err
	}

	for _, r := range rep.Rankings {
		if top, ok := r.Top(); ok {
			j.logger.WithFields(map[string]interface{}{
				"horizon":     r.Horizon,
				"symbol":      top.Symbol,
				"probability": top.Probability,
			}).Info("Top pick")
		}
	}
	j.logger.WithFields(map[string]interface{}{
		"date":   rep.Date.Format("2006-01-02"),
		"output": rep.OutputFile,
	}).Info("Scheduled prediction completed")

	return nil
}

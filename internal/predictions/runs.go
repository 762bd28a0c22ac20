package predictions

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aegis-nse/internal/model"
	"github.com/wonny/aegis-nse/internal/training"
)

// TrainingRun 호라이즌 학습 1회의 감사 기록
type TrainingRun struct {
	RunID        uuid.UUID                 `json:"run_id"`
	Horizon      string                    `json:"horizon"`
	ConfigHash   string                    `json:"config_hash"`
	ModelPath    string                    `json:"model_path,omitempty"`
	Rows         int                       `json:"rows"`
	PositiveRate float64                   `json:"positive_rate"`
	CVAUCMean    *float64                  `json:"cv_auc_mean"` // nil when CV produced no score
	CVAUCStd     *float64                  `json:"cv_auc_std"`
	FoldAUCs     []*float64                `json:"fold_aucs"` // nil entries for degenerate folds
	Importances  []model.FeatureImportance `json:"importances"`
	Error        string                    `json:"error,omitempty"`
	TrainedAt    time.Time                 `json:"trained_at"`
}

// NewTrainingRun 학습 결과 → 이력 레코드 변환
func NewTrainingRun(res *training.Result, configHash, modelPath string, trainedAt time.Time) TrainingRun {
	run := TrainingRun{
		RunID:        uuid.New(),
		Horizon:      res.Horizon,
		ConfigHash:   configHash,
		ModelPath:    modelPath,
		Rows:         res.Rows,
		PositiveRate: finite(res.PositiveRatio),
		CVAUCMean:    ptr(res.CVMean),
		CVAUCStd:     ptr(res.CVStd),
		Importances:  res.Importances,
		TrainedAt:    trainedAt,
	}
	for _, f := range res.Folds {
		run.FoldAUCs = append(run.FoldAUCs, ptr(f.AUC))
	}
	if res.Err != nil {
		run.Error = res.Err.Error()
	}
	return run
}

// SaveTrainingRun inserts a training run record
func (r *Repository) SaveTrainingRun(ctx context.Context, run TrainingRun) error {
	folds, err := json.Marshal(run.FoldAUCs)
	if err != nil {
		return fmt.Errorf("failed to marshal fold aucs: %w", err)
	}
	importances, err := json.Marshal(run.Importances)
	if err != nil {
		return fmt.Errorf("failed to marshal importances: %w", err)
	}

	query := `
		INSERT INTO ranking.training_runs (
			run_id, horizon, config_hash, model_path, rows_used, positive_rate,
			cv_auc_mean, cv_auc_std, fold_aucs, importances, error, trained_at
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12)
	`

	_, err = r.pool.Exec(ctx, query,
		run.RunID, run.Horizon, run.ConfigHash, run.ModelPath, run.Rows, run.PositiveRate,
		run.CVAUCMean, run.CVAUCStd, folds, importances, run.Error, run.TrainedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save training run: %w", err)
	}

	return nil
}

// TrainingRuns lists the latest runs of a horizon, newest first. An empty horizon lists all.
func (r *Repository) TrainingRuns(ctx context.Context, horizon string, limit int) ([]TrainingRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id, horizon, config_hash, COALESCE(model_path, ''), rows_used,
			COALESCE(positive_rate, 0), cv_auc_mean, cv_auc_std, fold_aucs, importances,
			COALESCE(error, ''), trained_at
		FROM ranking.training_runs
		WHERE $1 = '' OR horizon = $1
		ORDER BY trained_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, horizon, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	defer rows.Close()

	var runs []TrainingRun
	for rows.Next() {
		var run TrainingRun
		var folds, importances []byte
		if err := rows.Scan(
			&run.RunID, &run.Horizon, &run.ConfigHash, &run.ModelPath, &run.Rows,
			&run.PositiveRate, &run.CVAUCMean, &run.CVAUCStd, &folds, &importances,
			&run.Error, &run.TrainedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}
		if len(folds) > 0 {
			if err := json.Unmarshal(folds, &run.FoldAUCs); err != nil {
				return nil, fmt.Errorf("failed to decode fold aucs: %w", err)
			}
		}
		if len(importances) > 0 {
			if err := json.Unmarshal(importances, &run.Importances); err != nil {
				return nil, fmt.Errorf("failed to decode importances: %w", err)
			}
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// ptr NaN/Inf는 nil (SQL NULL, JSON null)
func ptr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

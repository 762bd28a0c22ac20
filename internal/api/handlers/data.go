package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/model"
	"github.com/wonny/aegis-nse/internal/modelstore"
	"github.com/wonny/aegis-nse/internal/predictions"
	"github.com/wonny/aegis-nse/internal/s0_data/quality"
	"github.com/wonny/aegis-nse/pkg/logger"
)

// QualityReader 저장된 품질 스냅샷 조회
type QualityReader interface {
	GetLatest(ctx context.Context) (*contracts.DataQualitySnapshot, error)
}

// RunReader 저장된 학습 이력 조회
type RunReader interface {
	TrainingRuns(ctx context.Context, horizon string, limit int) ([]predictions.TrainingRun, error)
}

// ModelLoader 호라이즌의 서빙 모델 로드
type ModelLoader interface {
	Load(horizon string) (*modelstore.Artifact, error)
}

// DataHandler serves quality snapshots, model metadata and training history
// ⭐ SSOT: 데이터 API 핸들러는 이 구조체에서만
type DataHandler struct {
	quality  QualityReader // nil without database
	runs     RunReader     // nil without database
	models   ModelLoader
	horizons []string
	logger   *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(
	qualityReader QualityReader,
	runs RunReader,
	models ModelLoader,
	horizons []string,
	log *logger.Logger,
) *DataHandler {
	return &DataHandler{
		quality:  qualityReader,
		runs:     runs,
		models:   models,
		horizons: horizons,
		logger:   log,
	}
}

// GetQuality 최신 데이터 품질 스냅샷
// GET /api/data/quality
func (h *DataHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	if h.quality == nil {
		respondError(w, http.StatusServiceUnavailable, "Database not configured")
		return
	}

	snapshot, err := h.quality.GetLatest(r.Context())
	if errors.Is(err, quality.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No quality snapshot yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get quality snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve quality snapshot")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// ModelInfo summarizes a serving artifact
type ModelInfo struct {
	Horizon     string                    `json:"horizon"`
	TrainedAt   time.Time                 `json:"trained_at"`
	ConfigHash  string                    `json:"config_hash"`
	Rows        int                       `json:"rows"`
	CVAUC       *float64                  `json:"cv_auc"`
	Trees       int                       `json:"trees"`
	Importances []model.FeatureImportance `json:"importances"`
}

// GetModels 호라이즌별 서빙 모델 메타데이터
// GET /api/models
func (h *DataHandler) GetModels(w http.ResponseWriter, r *http.Request) {
	out := make([]ModelInfo, 0, len(h.horizons))
	for _, horizon := range h.horizons {
		a, err := h.models.Load(horizon)
		if errors.Is(err, contracts.ErrMissingModel) {
			continue
		}
		if err != nil {
			h.logger.WithError(err).WithField("horizon", horizon).Error("Failed to load model")
			respondError(w, http.StatusInternalServerError, "Failed to load model "+horizon)
			return
		}

		imp := a.Model.Importances()
		if len(imp) > 10 {
			imp = imp[:10]
		}
		out = append(out, ModelInfo{
			Horizon:     a.Horizon,
			TrainedAt:   a.TrainedAt,
			ConfigHash:  a.ConfigHash,
			Rows:        a.Rows,
			CVAUC:       a.CVAUC,
			Trees:       len(a.Model.Trees),
			Importances: imp,
		})
	}

	respondJSON(w, http.StatusOK, out)
}

// GetTrainingRuns 최근 학습 이력
// GET /api/training/runs?horizon=daily&limit=20
func (h *DataHandler) GetTrainingRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "Database not configured")
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			respondError(w, http.StatusBadRequest, "Invalid limit (1-500)")
			return
		}
		limit = n
	}

	runs, err := h.runs.TrainingRuns(r.Context(), r.URL.Query().Get("horizon"), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list training runs")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve training runs")
		return
	}
	if runs == nil {
		runs = []predictions.TrainingRun{}
	}

	respondJSON(w, http.StatusOK, runs)
}

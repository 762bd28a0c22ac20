package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/predictions"
	"github.com/wonny/aegis-nse/pkg/logger"
)

// RankingReader returns the latest stored ranking of a horizon
type RankingReader interface {
	Latest(ctx context.Context, horizon string) (*contracts.HorizonRanking, error)
}

// RankingHandler serves the published top-N rankings
// ⭐ SSOT: 랭킹 API 핸들러는 이 구조체에서만
type RankingHandler struct {
	reader   RankingReader
	horizons []string
	logger   *logger.Logger
}

// NewRankingHandler creates a new ranking handler
func NewRankingHandler(reader RankingReader, horizons []string, log *logger.Logger) *RankingHandler {
	return &RankingHandler{
		reader:   reader,
		horizons: horizons,
		logger:   log,
	}
}

// GetRanking 호라이즌 하나의 최신 랭킹
// GET /api/predictions/{horizon}
func (h *RankingHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	horizon := mux.Vars(r)["horizon"]
	if !h.known(horizon) {
		respondError(w, http.StatusNotFound, "Unknown horizon: "+horizon)
		return
	}

	ranking, err := h.reader.Latest(r.Context(), horizon)
	if errors.Is(err, predictions.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No predictions for horizon "+horizon)
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("horizon", horizon).Error("Failed to get ranking")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve ranking")
		return
	}

	respondJSON(w, http.StatusOK, ranking)
}

// GetAll 랭킹이 있는 모든 호라이즌의 최신 랭킹
// GET /api/predictions
func (h *RankingHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]*contracts.HorizonRanking, len(h.horizons))
	for _, horizon := range h.horizons {
		ranking, err := h.reader.Latest(r.Context(), horizon)
		if errors.Is(err, predictions.ErrNotFound) {
			continue
		}
		if err != nil {
			h.logger.WithError(err).WithField("horizon", horizon).Error("Failed to get ranking")
			respondError(w, http.StatusInternalServerError, "Failed to retrieve rankings")
			return
		}
		out[horizon] = ranking
	}

	respondJSON(w, http.StatusOK, out)
}

func (h *RankingHandler) known(horizon string) bool {
	for _, name := range h.horizons {
		if name == horizon {
			return true
		}
	}
	return false
}

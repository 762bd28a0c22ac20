package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/pipeline"
	"github.com/wonny/aegis-nse/pkg/logger"
)

// Runner executes the scheduled routines.
// Both routines return contracts.ErrBusy while another one holds the run guard.
type Runner interface {
	PostMarket(ctx context.Context, opts pipeline.RunOptions) (*pipeline.TrainReport, error)
	PreMarket(ctx context.Context, opts pipeline.RunOptions) (*pipeline.PredictReport, error)
}

// PipelineHandler triggers routines on demand.
// 동시 실행 차단은 Runner 쪽 잠금에 맡김 (스케줄러와 공유)
type PipelineHandler struct {
	runner Runner
	logger *logger.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(runner Runner, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{runner: runner, logger: log}
}

// RunResponse 루틴 실행 후 반환하는 요약
type RunResponse struct {
	Status   string      `json:"status"`
	Routine  string      `json:"routine"`
	Duration string      `json:"duration"`
	Detail   interface{} `json:"detail,omitempty"`
}

type trainSummary struct {
	Rows    int               `json:"rows"`
	Models  map[string]string `json:"models"`
	Failed  map[string]string `json:"failed,omitempty"`
	Feature string            `json:"features_file,omitempty"`
}

// Run 루틴 즉시 실행 (다른 루틴 실행 중이면 409)
// POST /api/pipeline/{routine}?force=true   routine: train | predict
func (h *PipelineHandler) Run(w http.ResponseWriter, r *http.Request) {
	routine := mux.Vars(r)["routine"]
	if routine != "train" && routine != "predict" {
		respondError(w, http.StatusBadRequest, "Invalid routine (valid: train, predict)")
		return
	}

	opts := pipeline.RunOptions{Force: r.URL.Query().Get("force") == "true"}
	h.logger.WithField("routine", routine).Info("Routine triggered via API")

	var (
		resp RunResponse
		err  error
	)
	resp.Routine = routine

	switch routine {
	case "train":
		var rep *pipeline.TrainReport
		rep, err = h.runner.PostMarket(r.Context(), opts)
		if err == nil {
			sum := trainSummary{Rows: len(rep.Features), Models: rep.ModelPaths, Feature: rep.FeaturesFile}
			for _, res := range rep.Results {
				if res.Err != nil {
					if sum.Failed == nil {
						sum.Failed = make(map[string]string)
					}
					sum.Failed[res.Horizon] = res.Err.Error()
				}
			}
			resp.Duration = rep.Duration.String()
			resp.Detail = sum
		}
	case "predict":
		var rep *pipeline.PredictReport
		rep, err = h.runner.PreMarket(r.Context(), opts)
		if err == nil {
			resp.Duration = rep.Duration.String()
			resp.Detail = rep.Rankings
		}
	}

	switch {
	case errors.Is(err, contracts.ErrBusy):
		respondError(w, http.StatusConflict, "Another routine is running")
		return
	case errors.Is(err, contracts.ErrQualityFailed), errors.Is(err, contracts.ErrSchema):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		h.logger.WithError(err).WithField("routine", routine).Error("Routine failed")
		respondError(w, http.StatusInternalServerError, "Routine failed: "+err.Error())
		return
	}

	resp.Status = "success"
	respondJSON(w, http.StatusOK, resp)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-nse/internal/api"
	"github.com/wonny/aegis-nse/internal/api/handlers"
	"github.com/wonny/aegis-nse/internal/predictions"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                     - Health check (DB 상태 포함)
  GET  /metrics                    - Prometheus metrics
  GET  /api/predictions            - 전체 호라이즌 최신 랭킹
  GET  /api/predictions/{horizon}  - 호라이즌별 최신 랭킹
  GET  /api/data/quality           - 최신 품질 스냅샷 (DB)
  GET  /api/models                 - 서빙 모델 메타데이터
  GET  /api/training/runs          - 학습 이력 (DB)
  POST /api/pipeline/{train|predict}?force=true - 루틴 즉시 실행

--with-scheduler를 주면 같은 프로세스에서 스케줄러도 돌립니다.

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default is PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "스케줄러 함께 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	horizons := a.strategy.HorizonNames()
	repo := a.predictionRepo()

	// optional readers stay untyped nil without a database
	var qualityReader handlers.QualityReader
	var runReader handlers.RunReader
	if repo != nil {
		qualityReader = a.qualityRepo()
		runReader = repo
	}

	h := api.Handlers{
		Ranking:  handlers.NewRankingHandler(predictions.NewReader(a.cache, repo), horizons, a.log),
		Data:     handlers.NewDataHandler(qualityReader, runReader, a.pipeline.Store(), horizons, a.log),
		Pipeline: handlers.NewPipelineHandler(a.pipeline, a.log),
	}
	if a.cfg.MetricsEnabled {
		h.Metrics = a.metrics.Handler()
	}
	if a.db != nil {
		h.DB = a.db
	}

	if apiWithScheduler {
		sched, err := newScheduler(a)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	server := api.New(a.cfg, a.log, api.NewRouter(h, a.log))

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}

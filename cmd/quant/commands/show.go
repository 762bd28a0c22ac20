package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/export"
	"github.com/wonny/aegis-nse/internal/predictions"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "저장된 결과 조회",
	Long: `저장된 랭킹, 모델, 학습 이력을 조회합니다.

Subcommands:
  ranking [horizon]  - 최신 Top-N (캐시 → DB, 둘 다 없으면 최신 CSV)
  models             - 호라이즌별 서빙 모델
  runs [horizon]     - 학습 이력 (DATABASE_URL 필요)

Example:
  go run ./cmd/quant show ranking 5d
  go run ./cmd/quant show models
  go run ./cmd/quant show runs 1d --limit 5`,
}

var (
	showRankingCmd = &cobra.Command{
		Use:   "ranking [horizon]",
		Short: "최신 랭킹",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runShowRanking,
	}

	showModelsCmd = &cobra.Command{
		Use:   "models",
		Short: "서빙 모델 목록",
		RunE:  runShowModels,
	}

	showRunsCmd = &cobra.Command{
		Use:   "runs [horizon]",
		Short: "학습 이력",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runShowRuns,
	}

	showRunsLimit int
)

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.AddCommand(showRankingCmd)
	showCmd.AddCommand(showModelsCmd)
	showCmd.AddCommand(showRunsCmd)

	showRunsCmd.Flags().IntVar(&showRunsLimit, "limit", 10, "조회 건수")
}

// horizonsArg returns the requested horizon or every configured one
func (a *app) horizonsArg(args []string) ([]string, error) {
	if len(args) == 0 {
		return a.strategy.HorizonNames(), nil
	}
	if _, ok := a.strategy.Horizon(args[0]); !ok {
		return nil, fmt.Errorf("unknown horizon %q (configured: %v)", args[0], a.strategy.HorizonNames())
	}
	return args[:1], nil
}

func runShowRanking(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	horizons, err := a.horizonsArg(args)
	if err != nil {
		return err
	}
	if a.cache == nil && a.db == nil {
		return showLatestFile(a.cfg.Paths.OutputDir, horizons)
	}

	reader := predictions.NewReader(a.cache, a.predictionRepo())
	for _, h := range horizons {
		r, err := reader.Latest(ctx, h)
		if errors.Is(err, predictions.ErrNotFound) {
			PrintInfo(fmt.Sprintf("horizon %s: no ranking stored yet", h))
			continue
		}
		if err != nil {
			return err
		}
		PrintRanking(*r)
	}
	return nil
}

// showLatestFile prints the newest predictions CSV when no store is configured
func showLatestFile(dir string, horizons []string) error {
	path, err := export.LatestPredictionsFile(dir)
	if errors.Is(err, export.ErrNoPredictions) {
		PrintInfo("No predictions found. Run 'quant predict' first.")
		return nil
	}
	if err != nil {
		return err
	}

	rankings, err := export.ReadPredictionsFile(path)
	if err != nil {
		return err
	}
	PrintInfo("Latest predictions: " + filepath.Base(path))
	for _, r := range rankings {
		for _, h := range horizons {
			if r.Horizon == h {
				PrintRanking(r)
			}
		}
	}
	return nil
}

func runShowModels(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	store := a.pipeline.Store()
	PrintHeader("Models: " + a.cfg.Paths.ModelDir)

	stale := make(map[string]bool)
	widths := []int{8, 20, 8, 8, 9, 12}
	PrintTableHeader([]string{"Horizon", "Trained", "Rows", "CV AUC", "Versions", "Config"}, widths)
	for _, h := range a.strategy.HorizonNames() {
		versions, err := store.Versions(h)
		if err != nil {
			return err
		}

		art, err := store.Load(h)
		if errors.Is(err, contracts.ErrMissingModel) {
			PrintTableRow([]string{h, "-", "-", "-", fmt.Sprintf("%d", len(versions)), "-"}, widths)
			continue
		}
		if err != nil {
			return err
		}

		auc := "-"
		if art.CVAUC != nil {
			auc = fmt.Sprintf("%.4f", *art.CVAUC)
		}
		config := art.ConfigHash
		if len(config) > 12 {
			config = config[:12]
		}
		if config != "" && art.ConfigHash != a.pipeline.ConfigHash() {
			config += " *"
			stale[art.ConfigHash] = true
		}
		PrintTableRow([]string{
			h,
			art.TrainedAt.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", art.Rows),
			auc,
			fmt.Sprintf("%d", len(versions)),
			config,
		}, widths)
	}
	fmt.Println()
	if len(stale) == 0 {
		return nil
	}
	PrintInfo("* trained with a different strategy config")
	for hash := range stale {
		snap, err := store.LoadSnapshot(hash)
		if err != nil {
			PrintKeyValue(hash[:min(12, len(hash))], "no snapshot", 14)
			continue
		}
		PrintKeyValue(hash[:min(12, len(hash))], fmt.Sprintf("%s %s (%s)", snap.StrategyID, snap.Version, snap.CreatedAt.Format("2006-01-02")), 14)
	}
	return nil
}

func runShowRuns(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	repo := a.predictionRepo()
	if repo == nil {
		return fmt.Errorf("training runs require DATABASE_URL")
	}
	horizons, err := a.horizonsArg(args)
	if err != nil {
		return err
	}

	for _, h := range horizons {
		runs, err := repo.TrainingRuns(ctx, h, showRunsLimit)
		if err != nil {
			return err
		}

		PrintHeader("Training runs: " + h)
		widths := []int{20, 8, 9, 16, 28}
		PrintTableHeader([]string{"Trained", "Rows", "Pos%", "CV AUC", "Model / Error"}, widths)
		for _, run := range runs {
			auc := "-"
			if run.CVAUCMean != nil && run.CVAUCStd != nil {
				auc = fmt.Sprintf("%.4f ± %.4f", *run.CVAUCMean, *run.CVAUCStd)
			}
			detail := "-"
			if run.ModelPath != "" {
				detail = filepath.Base(run.ModelPath)
			}
			if run.Error != "" {
				detail = run.Error
			}
			PrintTableRow([]string{
				run.TrainedAt.Format("2006-01-02 15:04:05"),
				fmt.Sprintf("%d", run.Rows),
				fmt.Sprintf("%.1f", run.PositiveRate*100),
				auc,
				detail,
			}, widths)
		}
	}
	return nil
}

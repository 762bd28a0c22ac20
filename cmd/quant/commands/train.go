package commands

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "포스트마켓 학습 루틴",
	Long: `장 마감 후 루틴: 패널 로드 → 품질 점검 → 누락일 처리 →
피처 + 라벨 → features CSV → 호라이즌별 GBDT 학습(시계열 CV) → 모델 저장.

DATABASE_URL이 설정되어 있으면 학습 이력을 저장합니다.

Example:
  go run ./cmd/quant train
  go run ./cmd/quant train --panel data/raw/panel.csv --force`,
	RunE: runTrain,
}

var trainForce bool

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().BoolVar(&trainForce, "force", false, "품질 이슈가 있어도 계속 진행")
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	rep, err := a.pipeline.PostMarket(ctx, a.runOptions(trainForce, 0))
	if err != nil {
		return err
	}

	PrintHeader("Post-market Training")
	PrintKeyValue("Rows", fmt.Sprintf("%d", len(rep.Features)), 10)
	if rep.FeaturesFile != "" {
		PrintKeyValue("Features", rep.FeaturesFile, 10)
	}
	PrintKeyValue("Duration", rep.Duration.Round(time.Millisecond).String(), 10)
	fmt.Println()

	widths := []int{8, 8, 9, 16, 40}
	PrintTableHeader([]string{"Horizon", "Rows", "Pos%", "CV AUC", "Model"}, widths)
	failed := 0
	for _, res := range rep.Results {
		auc := "-"
		if !math.IsNaN(res.CVMean) {
			auc = fmt.Sprintf("%.4f ± %.4f", res.CVMean, res.CVStd)
		}
		model := rep.ModelPaths[res.Horizon]
		if res.Err != nil {
			failed++
			model = "error: " + res.Err.Error()
		}
		PrintTableRow([]string{
			res.Horizon,
			fmt.Sprintf("%d", res.Rows),
			fmt.Sprintf("%.1f", res.PositiveRatio*100),
			auc,
			model,
		}, widths)
	}
	fmt.Println()

	if failed > 0 {
		PrintWarning(fmt.Sprintf("%d of %d horizons failed to train", failed, len(rep.Results)))
		return nil
	}
	PrintSuccess(fmt.Sprintf("%d models saved", len(rep.ModelPaths)))
	return nil
}

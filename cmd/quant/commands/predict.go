package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "프리마켓 랭킹 루틴",
	Long: `장 시작 전 루틴: 패널 로드 → 피처 → 최신 스냅샷 →
호라이즌별 가드레일 + 유니버스 필터 → 확률 예측 → Top-N.

출력: outputs/predictions/predictions_YYYYMMDD_HHMMSS.csv (+ .xlsx)
DATABASE_URL / REDIS_ENABLED 설정 시 DB와 캐시에도 저장합니다.

Example:
  go run ./cmd/quant predict
  go run ./cmd/quant predict --top 20`,
	RunE: runPredict,
}

var (
	predictTop   int
	predictForce bool
)

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().IntVar(&predictTop, "top", 0, "Top-N (0 = ranking.top_n)")
	predictCmd.Flags().BoolVar(&predictForce, "force", false, "품질 이슈가 있어도 계속 진행")
}

func runPredict(cmd *cobra.Command, args []string) error {
	if predictTop < 0 {
		return fmt.Errorf("--top must be >= 0")
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	rep, err := a.pipeline.PreMarket(ctx, a.runOptions(predictForce, predictTop))
	if err != nil {
		return err
	}

	for _, r := range rep.Rankings {
		PrintRanking(r)
	}
	fmt.Println()
	PrintSuccess("Predictions written to " + rep.OutputFile)
	if rep.WorkbookFile != "" {
		PrintInfo("Workbook: " + rep.WorkbookFile)
	}
	return nil
}

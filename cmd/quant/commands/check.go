package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-nse/internal/contracts"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "데이터 / 모델 준비 상태 확인",
	Long: `루틴 실행 전 준비 상태를 확인합니다.

확인 항목:
- 패널 파일 존재 여부 (PANEL_FILE 또는 --panel)
- 호라이즌별 서빙 모델 존재 여부
- DB / Redis 연결 (설정된 경우)

패널 파일이 없으면 종료 코드 1로 끝납니다.

Daily workflow:
  Evening:  NSE 데이터 병합 → check → quality → train
  Morning:  predict → show ranking

Example:
  go run ./cmd/quant check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	PrintHeader("Data Availability Check")

	path := a.cfg.Paths.PanelFile
	if panelFile != "" {
		path = panelFile
	}
	ready := true
	if info, err := os.Stat(path); err != nil {
		PrintError(fmt.Sprintf("%-12s: %s not found", "Panel", path))
		ready = false
	} else {
		PrintSuccess(fmt.Sprintf("%-12s: %s (%.1f MB, %s)", "Panel", path,
			float64(info.Size())/(1<<20), info.ModTime().Format("2006-01-02 15:04")))
	}

	store := a.pipeline.Store()
	for _, h := range a.strategy.HorizonNames() {
		art, err := store.Load(h)
		switch {
		case errors.Is(err, contracts.ErrMissingModel):
			PrintWarning(fmt.Sprintf("%-12s: no model (run: quant train)", "Model "+h))
		case err != nil:
			PrintError(fmt.Sprintf("%-12s: %v", "Model "+h, err))
		default:
			PrintSuccess(fmt.Sprintf("%-12s: trained %s on %d rows", "Model "+h,
				art.TrainedAt.Format("2006-01-02 15:04"), art.Rows))
		}
	}

	if a.db != nil {
		if st, err := a.db.HealthCheck(ctx); err != nil {
			PrintError(fmt.Sprintf("%-12s: %v", "Database", err))
		} else {
			PrintSuccess(fmt.Sprintf("%-12s: connected in %s (%d/%d conns)", "Database",
				st.ResponseTime.Round(time.Millisecond), st.Stats.TotalConns, st.Stats.MaxConns))
		}
	} else {
		PrintInfo(fmt.Sprintf("%-12s: disabled (DATABASE_URL not set)", "Database"))
	}
	if a.redis.Enabled() {
		if st, err := a.redis.Status(ctx); err != nil {
			PrintError(fmt.Sprintf("%-12s: %v", "Redis", err))
		} else {
			PrintSuccess(fmt.Sprintf("%-12s: %s (%d keys, %d/%d idle conns)", "Redis", st.Addr, st.Keys, st.IdleConns, st.TotalConns))
		}
	} else {
		PrintInfo(fmt.Sprintf("%-12s: disabled", "Redis"))
	}
	PrintSeparator()

	if !ready {
		return fmt.Errorf("panel file missing: merge the NSE downloads into %s", path)
	}
	return nil
}

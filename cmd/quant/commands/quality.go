package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/s0_data"
	"github.com/wonny/aegis-nse/internal/s0_data/gaps"
	"github.com/wonny/aegis-nse/internal/s0_data/quality"
)

// qualityCmd represents the quality command
var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "패널 파일 품질 점검",
	Long: `패널 파일을 읽어 데이터 품질과 누락 거래일을 점검합니다.

확인 항목:
- 필수 컬럼 (date, symbol, OHLC, volume)
- 가격 이상치 (0 이하 종가, high < low)
- Symbol+Date 중복
- 배송률 / FII·DII 컬럼 유무
- 누락 거래일 및 종목별 커버리지

치명적 이슈가 있으면 종료 코드 1로 끝납니다.
DATABASE_URL이 설정되어 있으면 스냅샷을 저장합니다.
--stored [date]는 파일 대신 DB에 저장된 스냅샷을 보여줍니다.

Example:
  go run ./cmd/quant quality
  go run ./cmd/quant quality --panel data/raw/panel.xlsx --symbols
  go run ./cmd/quant quality --stored 2024-03-01`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuality,
}

var (
	qualityShowSymbols bool
	qualityStored      bool
)

func init() {
	rootCmd.AddCommand(qualityCmd)

	qualityCmd.Flags().BoolVar(&qualityShowSymbols, "symbols", false, "누락일이 있는 종목 전체 출력")
	qualityCmd.Flags().BoolVar(&qualityStored, "stored", false, "DB에 저장된 스냅샷 조회 (인자: 날짜)")
}

func runQuality(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if qualityStored {
		return showStoredQuality(ctx, a, args)
	}

	raw, snap, err := a.pipeline.Check(ctx, a.runOptions(false, 0))
	if err != nil {
		return err
	}
	if raw.Skipped > 0 {
		PrintInfo(fmt.Sprintf("%d rows skipped (no symbol/date or non-EQ series)", raw.Skipped))
	}
	PrintQuality(snap)

	if panel, err := raw.Panel(); err == nil {
		printGaps(gaps.Detect(panel), a.strategy.Data.MissingStrategy())
	}

	if !snap.Passed() {
		return fmt.Errorf("%w: %s", contracts.ErrQualityFailed, strings.Join(snap.Issues, "; "))
	}
	return nil
}

func printGaps(rep *gaps.Report, strategy string) {
	PrintHeader("Missing Trading Days")
	if rep.First.IsZero() {
		PrintInfo("empty panel")
		return
	}
	PrintKeyValue("Calendar", fmt.Sprintf("%d days (%s ~ %s)", len(rep.Calendar), rep.First.Format("2006-01-02"), rep.Last.Format("2006-01-02")), 12)
	PrintKeyValue("Strategy", strategy, 12)

	if len(rep.MissingDates) > 0 {
		dates := make([]string, 0, len(rep.MissingDates))
		for _, d := range rep.MissingDates {
			dates = append(dates, d.Format("2006-01-02 Mon"))
		}
		PrintWarning(fmt.Sprintf("%d weekdays absent from every symbol (holidays?)", len(dates)))
		PrintList(dates)
	}

	incomplete := rep.Incomplete()
	if len(incomplete) == 0 {
		PrintSuccess("Every symbol covers the panel calendar")
		return
	}
	PrintWarning(fmt.Sprintf("%d symbols with missing days", len(incomplete)))

	limit := 10
	if qualityShowSymbols || len(incomplete) < limit {
		limit = len(incomplete)
	}
	widths := []int{14, 8, 8, 9}
	PrintTableHeader([]string{"Symbol", "Days", "Missing", "Coverage"}, widths)
	for _, c := range incomplete[:limit] {
		PrintTableRow([]string{
			c.Symbol,
			fmt.Sprintf("%d", c.Days),
			fmt.Sprintf("%d", len(c.Missing)),
			fmt.Sprintf("%.1f%%", c.Coverage()*100),
		}, widths)
	}
	if limit < len(incomplete) {
		PrintInfo(fmt.Sprintf("%d more (use --symbols)", len(incomplete)-limit))
	}
}

func showStoredQuality(ctx context.Context, a *app, args []string) error {
	repo := a.qualityRepo()
	if repo == nil {
		return fmt.Errorf("quality snapshots require DATABASE_URL")
	}

	var (
		snap *contracts.DataQualitySnapshot
		err  error
	)
	if len(args) == 1 {
		date, perr := s0_data.ParseDate(args[0])
		if perr != nil {
			return perr
		}
		snap, err = repo.GetByDate(ctx, date)
	} else {
		snap, err = repo.GetLatest(ctx)
	}
	if errors.Is(err, quality.ErrNotFound) {
		PrintInfo("No quality snapshot stored yet (run: quant quality)")
		return nil
	}
	if err != nil {
		return err
	}

	PrintQuality(snap)
	return nil
}

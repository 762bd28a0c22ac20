package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/s0_data"
)

// Checker runs the panel quality checks before feature computation
// ⭐ SSOT: S0 → S1 품질 검증
type Checker struct {
	log zerolog.Logger
	now func() time.Time
}

// NewChecker creates a quality checker
func NewChecker(log zerolog.Logger) *Checker {
	return &Checker{
		log: log.With().Str("component", "s0_data.quality").Logger(),
		now: time.Now,
	}
}

// Check inspects the loaded rows. Critical findings go to Issues; the rest to Warnings.
// The returned error is only non-nil for a cancelled context.
func (c *Checker) Check(ctx context.Context, raw *s0_data.Raw) (*contracts.DataQualitySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := &contracts.DataQualitySnapshot{
		Source:    raw.Source,
		CheckedAt: c.now().UTC(),
		TotalRows: len(raw.Rows),
		Coverage:  make(map[string]float64),
	}

	if len(raw.Rows) == 0 {
		snap.Issues = append(snap.Issues, "Panel is empty")
		c.report(snap)
		return snap, nil
	}

	present := make(map[string]bool, len(raw.Header))
	for _, h := range raw.Header {
		present[h] = true
	}
	for _, col := range contracts.RequiredColumns {
		if !present[col] {
			snap.Issues = append(snap.Issues, fmt.Sprintf("Missing required column: %s", col))
		}
	}

	// 1. 통계
	symbols := make(map[string]struct{})
	type key struct {
		symbol string
		date   time.Time
	}
	seen := make(map[key]struct{}, len(raw.Rows))
	nonZero := make(map[string]int)
	var duplicates, missingPrice, nonPositiveClose, zeroVolume, badRange int

	for i, r := range raw.Rows {
		symbols[r.Symbol] = struct{}{}
		if i == 0 || r.Date.Before(snap.FirstDate) {
			snap.FirstDate = r.Date
		}
		if i == 0 || r.Date.After(snap.LatestDate) {
			snap.LatestDate = r.Date
		}

		k := key{r.Symbol, r.Date}
		if _, dup := seen[k]; dup {
			duplicates++
		}
		seen[k] = struct{}{}

		if r.Open <= 0 || r.High <= 0 || r.Low <= 0 {
			missingPrice++
		}
		if r.Close <= 0 {
			nonPositiveClose++
		}
		if r.Volume == 0 {
			zeroVolume++
		}
		if r.High < r.Low {
			badRange++
		}

		for _, col := range contracts.OptionalColumns {
			if optional(r, col) != 0 {
				nonZero[col]++
			}
		}
	}
	snap.TotalSymbols = len(symbols)

	// 2. 치명적 이슈
	if missingPrice > 0 {
		snap.Issues = append(snap.Issues, fmt.Sprintf("Found %d rows with missing open/high/low", missingPrice))
	}
	if nonPositiveClose > 0 {
		snap.Issues = append(snap.Issues, fmt.Sprintf("Found %d rows with non-positive close", nonPositiveClose))
	}
	if duplicates > 0 {
		snap.Issues = append(snap.Issues, fmt.Sprintf("Found %d duplicate Symbol+Date entries", duplicates))
	}

	// 3. 경고
	if zeroVolume > 0 {
		snap.Warnings = append(snap.Warnings, fmt.Sprintf("Found %d rows with zero volume", zeroVolume))
	}
	if badRange > 0 {
		snap.Warnings = append(snap.Warnings, fmt.Sprintf("Found %d rows with high < low", badRange))
	}
	if !present[contracts.ColDeliveryPct] {
		snap.Warnings = append(snap.Warnings, "Delivery data not available")
	}
	if !present[contracts.ColFIINet] || !present[contracts.ColDIINet] {
		snap.Warnings = append(snap.Warnings, "FII/DII data not available")
	}

	// 4. 커버리지: 값이 있는 행 비율
	total := float64(len(raw.Rows))
	snap.Coverage["price"] = 1 - float64(nonPositiveClose)/total
	snap.Coverage["volume"] = 1 - float64(zeroVolume)/total
	for _, col := range contracts.OptionalColumns {
		if present[col] {
			snap.Coverage[col] = float64(nonZero[col]) / total
		} else {
			snap.Coverage[col] = 0
		}
	}

	c.report(snap)
	return snap, nil
}

func (c *Checker) report(snap *contracts.DataQualitySnapshot) {
	ev := c.log.Info()
	if !snap.Passed() {
		ev = c.log.Error()
	}
	ev.Int("rows", snap.TotalRows).
		Int("symbols", snap.TotalSymbols).
		Time("latest_date", snap.LatestDate).
		Strs("issues", snap.Issues).
		Strs("warnings", snap.Warnings).
		Bool("passed", snap.Passed()).
		Msg("panel quality checked")
}

func optional(r contracts.PanelRow, col string) float64 {
	switch col {
	case contracts.ColDeliveryPct:
		return r.DeliveryPct
	case contracts.ColOpenInterest:
		return r.OpenInterest
	case contracts.ColFIINet:
		return r.FIINet
	case contracts.ColDIINet:
		return r.DIINet
	case contracts.ColBulkDealFlag:
		return r.BulkDealFlag
	case contracts.ColBlockDealFlag:
		return r.BlockDealFlag
	}
	return 0
}

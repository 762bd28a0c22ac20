package s1_features

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/aegis-nse/internal/contracts"
)

// Computer turns a validated panel into one FeatureRow per panel row
// ⭐ SSOT: 피처 생성 오케스트레이션은 여기서만
type Computer struct {
	price      PriceCalculator
	smartMoney SmartMoneyCalculator
	flow       FlowCalculator
	liquidity  LiquidityCalculator

	workers int
	logger  zerolog.Logger
}

// NewComputer 피처 계산기 생성 (동시에 최대 workers개 종목 처리)
func NewComputer(workers int, logger zerolog.Logger) *Computer {
	if workers < 1 {
		workers = 1
	}
	return &Computer{
		workers: workers,
		logger:  logger.With().Str("component", "s1_features").Logger(),
	}
}

// Compute derives the feature table. Output order equals panel order
// (symbol, date) and the result is deterministic for a given panel.
func (c *Computer) Compute(ctx context.Context, panel *contracts.Panel) ([]contracts.FeatureRow, error) {
	if panel == nil {
		return nil, fmt.Errorf("compute features: %w", &contracts.SchemaError{Column: "*", Reason: "nil panel"})
	}

	start := time.Now()
	spans := panel.Spans()
	market := newMarketFlow(panel.Rows)
	out := make([]contracts.FeatureRow, len(panel.Rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, span := range spans {
		span := span
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c.computeSymbol(panel.Rows[span.Start:span.End], market, out[span.Start:span.End])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compute features: %w", err)
	}

	c.logger.Info().
		Int("rows", len(out)).
		Int("symbols", len(spans)).
		Dur("elapsed", time.Since(start)).
		Msg("features computed")

	return out, nil
}

// computeSymbol 종목 하나의 dst 채우기 (rows와 같은 길이)
// 이 종목의 행과 읽기 전용 시장 테이블만 참조
func (c *Computer) computeSymbol(rows []contracts.PanelRow, market *marketFlow, dst []contracts.FeatureRow) {
	s := newSeries(rows, market)
	feats := make([]contracts.Features, s.len())

	liq := c.price.apply(s, feats)
	c.smartMoney.apply(s, feats)
	c.flow.apply(s, liq, feats)
	c.liquidity.apply(s, liq, feats)

	for i, r := range rows {
		dst[i] = contracts.FeatureRow{
			Symbol:   r.Symbol,
			Date:     r.Date,
			Close:    r.Close,
			Features: feats[i],
		}
	}
}

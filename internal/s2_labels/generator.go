package s2_labels

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
)

// Generator attaches forward-looking binary labels to feature rows
// ⭐ SSOT: 라벨 생성은 여기서만
type Generator struct {
	log zerolog.Logger
}

// NewGenerator 라벨 생성기 생성
func NewGenerator(log zerolog.Logger) *Generator {
	return &Generator{
		log: log.With().Str("component", "s2_labels").Logger(),
	}
}

// Generate 모든 행에 모든 호라이즌 라벨을 한 번에 부여
// rows는 종목별, 날짜 오름차순이어야 함 (피처 계산기 출력 순서)
// label[t] = 1 when close[t+h]/close[t] - 1 >= threshold, 0 otherwise,
// LabelUndefined when t+h lies past the symbol's last row.
func (g *Generator) Generate(ctx context.Context, rows []contracts.FeatureRow, horizons []strategyconfig.Horizon) error {
	for _, h := range horizons {
		if h.Lookahead < 1 {
			return fmt.Errorf("horizon %s: lookahead must be >= 1", h.Name)
		}
	}

	spans := contracts.SpansOf(len(rows), func(i int) string { return rows[i].Symbol })
	if err := checkOrder(rows, spans); err != nil {
		return err
	}

	for i := range rows {
		if rows[i].Labels == nil {
			rows[i].Labels = make(map[string]contracts.Label, len(horizons))
		}
	}

	positives := make(map[string]int, len(horizons))
	defined := make(map[string]int, len(horizons))

	for _, span := range spans {
		if err := ctx.Err(); err != nil {
			return err
		}
		sym := rows[span.Start:span.End]
		for _, h := range horizons {
			fwd := forwardReturns(sym, h.Lookahead)
			for t := range sym {
				l := label(fwd[t], h.ReturnThreshold)
				sym[t].Labels[h.Name] = l
				if l.Defined() {
					defined[h.Name]++
				}
				if l == contracts.LabelPositive {
					positives[h.Name]++
				}
			}
		}
	}

	for _, h := range horizons {
		g.log.Info().
			Str("horizon", h.Name).
			Int("lookahead", h.Lookahead).
			Float64("threshold", h.ReturnThreshold).
			Int("labeled", defined[h.Name]).
			Int("positive", positives[h.Name]).
			Msg("labels generated")
	}

	return nil
}

// ForwardReturn returns close[t+lookahead]/close[t] - 1 for every row (NaN when undefined).
// rows must be grouped by symbol in ascending date order.
func ForwardReturn(rows []contracts.FeatureRow, lookahead int) []float64 {
	out := make([]float64, 0, len(rows))
	for _, span := range contracts.SpansOf(len(rows), func(i int) string { return rows[i].Symbol }) {
		out = append(out, forwardReturns(rows[span.Start:span.End], lookahead)...)
	}
	return out
}

func forwardReturns(sym []contracts.FeatureRow, lookahead int) []float64 {
	out := make([]float64, len(sym))
	for t := range sym {
		if t+lookahead >= len(sym) || sym[t].Close <= 0 {
			out[t] = math.NaN()
			continue
		}
		out[t] = sym[t+lookahead].Close/sym[t].Close - 1
	}
	return out
}

func label(fwd, threshold float64) contracts.Label {
	switch {
	case math.IsNaN(fwd):
		return contracts.LabelUndefined
	case fwd >= threshold:
		return contracts.LabelPositive
	default:
		return contracts.LabelNegative
	}
}

func checkOrder(rows []contracts.FeatureRow, spans []contracts.SymbolSpan) error {
	seen := make(map[string]bool, len(spans))
	for _, span := range spans {
		if seen[span.Symbol] {
			return fmt.Errorf("rows of %s are not contiguous", span.Symbol)
		}
		seen[span.Symbol] = true
		for i := span.Start + 1; i < span.End; i++ {
			if !rows[i-1].Date.Before(rows[i].Date) {
				return fmt.Errorf("rows of %s not in ascending date order at %s", span.Symbol, rows[i].Date.Format("2006-01-02"))
			}
		}
	}
	return nil
}

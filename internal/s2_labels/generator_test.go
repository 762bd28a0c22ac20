package s2_labels

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
	"github.com/wonny/aegis-nse/internal/testutil"
)

func featureRows(symbol string, closes []float64) []contracts.FeatureRow {
	rows := make([]contracts.FeatureRow, len(closes))
	for i, r := range testutil.CloseRows(symbol, closes) {
		rows[i] = contracts.FeatureRow{Symbol: r.Symbol, Date: r.Date, Close: r.Close}
	}
	return rows
}

func TestGenerateThresholds(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      contracts.Label
	}{
		{"low threshold positive", 0.03, contracts.LabelPositive},
		{"high threshold negative", 0.10, contracts.LabelNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := featureRows("A", []float64{100, 100, 100, 100, 100, 106})
			h := strategyconfig.Horizon{Name: "daily", Lookahead: 5, ReturnThreshold: tt.threshold}

			require.NoError(t, NewGenerator(zerolog.Nop()).Generate(context.Background(), rows, []strategyconfig.Horizon{h}))

			assert.Equal(t, tt.want, rows[0].Label("daily"))
			for i := 1; i < len(rows); i++ {
				assert.Equal(t, contracts.LabelUndefined, rows[i].Label("daily"), "row %d", i)
			}
		})
	}
}

func TestGenerateMultipleHorizonsPerSymbol(t *testing.T) {
	rows := append(featureRows("A", []float64{10, 11, 12, 13}), featureRows("B", []float64{50, 40, 30, 20})...)
	horizons := []strategyconfig.Horizon{
		{Name: "h1", Lookahead: 1, ReturnThreshold: 0.05},
		{Name: "h2", Lookahead: 2, ReturnThreshold: 0.0},
	}

	require.NoError(t, NewGenerator(zerolog.Nop()).Generate(context.Background(), rows, horizons))

	// A: 11/10-1 = 0.1, 12/11-1 = 0.09, 13/12-1 = 0.083
	assert.Equal(t, contracts.LabelPositive, rows[0].Label("h1"))
	assert.Equal(t, contracts.LabelPositive, rows[2].Label("h1"))
	assert.Equal(t, contracts.LabelUndefined, rows[3].Label("h1"))
	assert.Equal(t, contracts.LabelUndefined, rows[2].Label("h2"))

	// B는 A의 가격을 참조하지 않음
	assert.Equal(t, contracts.LabelNegative, rows[4].Label("h1"))
	assert.Equal(t, contracts.LabelNegative, rows[5].Label("h2"))
	assert.Equal(t, contracts.LabelUndefined, rows[7].Label("h1"))
}

func TestGenerateRejectsUnsortedRows(t *testing.T) {
	rows := featureRows("A", []float64{1, 2, 3})
	rows[0], rows[2] = rows[2], rows[0]

	err := NewGenerator(zerolog.Nop()).Generate(context.Background(), rows, []strategyconfig.Horizon{{Name: "d", Lookahead: 1}})
	assert.Error(t, err)
}

func TestGenerateRejectsBadLookahead(t *testing.T) {
	rows := featureRows("A", []float64{1, 2, 3})
	err := NewGenerator(zerolog.Nop()).Generate(context.Background(), rows, []strategyconfig.Horizon{{Name: "d", Lookahead: 0}})
	assert.Error(t, err)
}

func TestForwardReturn(t *testing.T) {
	rows := append(featureRows("A", []float64{100, 110, 121}), featureRows("B", []float64{0, 5})...)

	fwd := ForwardReturn(rows, 1)
	require.Len(t, fwd, 5)
	assert.InDelta(t, 0.1, fwd[0], 1e-12)
	assert.InDelta(t, 0.1, fwd[1], 1e-12)
	assert.True(t, math.IsNaN(fwd[2]))
	assert.True(t, math.IsNaN(fwd[3]), "non-positive base close")
	assert.True(t, math.IsNaN(fwd[4]))
}

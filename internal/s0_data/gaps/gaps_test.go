package gaps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
	"github.com/wonny/aegis-nse/internal/testutil"
)

// gappy builds AAA on all 5 days, BBB missing day index 2, and no symbol on day index 3
func gappy(t *testing.T) *contracts.Panel {
	t.Helper()

	days := testutil.TradingDays(5)
	var rows []contracts.PanelRow
	for i, d := range days {
		if i == 3 {
			continue
		}
		rows = append(rows, contracts.PanelRow{
			Symbol: "AAA", Date: d, Open: 10, High: 11, Low: 9, Close: 10 + float64(i), Volume: 100,
			DeliveryPct: 50, FIINet: float64(i * 100), DIINet: -float64(i * 10),
		})
		if i != 2 {
			rows = append(rows, contracts.PanelRow{
				Symbol: "BBB", Date: d, Open: 20, High: 21, Low: 19, Close: 20 + float64(i), Volume: 200 + 10*float64(i),
				DeliveryPct: 60, OpenInterest: 5000, FIINet: float64(i * 100), DIINet: -float64(i * 10),
			})
		}
	}

	p, err := contracts.NewPanel(testutil.FullHeader(), rows)
	require.NoError(t, err)
	return p
}

func TestDetect(t *testing.T) {
	days := testutil.TradingDays(5)
	rep := Detect(gappy(t))

	assert.Equal(t, days[0], rep.First)
	assert.Equal(t, days[4], rep.Last)
	require.Len(t, rep.MissingDates, 1)
	assert.Equal(t, days[3], rep.MissingDates[0])
	assert.Len(t, rep.Calendar, 4)

	require.Len(t, rep.Symbols, 2)
	aaa, bbb := rep.Symbols[0], rep.Symbols[1]
	assert.Equal(t, "AAA", aaa.Symbol)
	assert.Empty(t, aaa.Missing)
	assert.Equal(t, 1.0, aaa.Coverage())

	assert.Equal(t, 3, bbb.Days)
	assert.Equal(t, 4, bbb.Expected)
	require.Len(t, bbb.Missing, 1)
	assert.Equal(t, days[2], bbb.Missing[0])
	assert.InDelta(t, 0.75, bbb.Coverage(), 1e-12)

	incomplete := rep.Incomplete()
	require.Len(t, incomplete, 1)
	assert.Equal(t, "BBB", incomplete[0].Symbol)
}

func TestDetect_Empty(t *testing.T) {
	p, err := contracts.NewPanel(contracts.RequiredColumns, nil)
	require.NoError(t, err)

	rep := Detect(p)
	assert.Empty(t, rep.MissingDates)
	assert.Empty(t, rep.Symbols)
}

func TestApply(t *testing.T) {
	days := testutil.TradingDays(5)

	t.Run("mark_only", func(t *testing.T) {
		p := gappy(t)
		out, err := Apply(p, Detect(p), strategyconfig.MissingMarkOnly)
		require.NoError(t, err)
		assert.Same(t, p, out)
	})

	t.Run("skip", func(t *testing.T) {
		p := gappy(t)
		out, err := Apply(p, Detect(p), strategyconfig.MissingSkip)
		require.NoError(t, err)
		assert.Equal(t, []string{"AAA"}, out.Symbols())
		assert.Len(t, out.Rows, 4)
	})

	t.Run("forward_fill", func(t *testing.T) {
		p := gappy(t)
		out, err := Apply(p, Detect(p), strategyconfig.MissingForwardFill)
		require.NoError(t, err)
		require.Len(t, out.Rows, 8)
		assert.Equal(t, p.Columns, out.Columns)

		// BBB rows: days 0,1,(2 filled),4
		bbb := out.Rows[4:]
		filled := bbb[2]
		assert.Equal(t, "BBB", filled.Symbol)
		assert.Equal(t, days[2], filled.Date)
		assert.Equal(t, 21.0, filled.Close) // day 1 close
		assert.Equal(t, 21.0, filled.Open)
		assert.Equal(t, 210.0, filled.Volume) // day 1 volume carried
		assert.Equal(t, 0.0, filled.BulkDealFlag)
		assert.Equal(t, 60.0, filled.DeliveryPct)
		assert.Equal(t, 5000.0, filled.OpenInterest)
		assert.Equal(t, 200.0, filled.FIINet) // market value from AAA's row
		assert.Equal(t, -20.0, filled.DIINet)

		// market-wide holiday is not filled
		for _, r := range out.Rows {
			assert.False(t, r.Date.Equal(days[3]))
		}
	})

	t.Run("interpolate", func(t *testing.T) {
		p := gappy(t)
		out, err := Apply(p, Detect(p), strategyconfig.MissingInterpolate)
		require.NoError(t, err)
		require.Len(t, out.Rows, 8)

		// BBB close 21 on day 1, 24 on day 4; day 3 is a holiday so day 2 sits halfway
		filled := out.Rows[4:][2]
		assert.Equal(t, days[2], filled.Date)
		assert.InDelta(t, 22.5, filled.Close, 1e-12)
		assert.InDelta(t, 22.5, filled.High, 1e-12)
		assert.InDelta(t, 225.0, filled.Volume, 1e-12) // 210 → 240
		assert.Equal(t, 60.0, filled.DeliveryPct)
		assert.Equal(t, 200.0, filled.FIINet)
	})

	t.Run("unknown", func(t *testing.T) {
		p := gappy(t)
		_, err := Apply(p, Detect(p), "bfill")
		assert.Error(t, err)
	})
}

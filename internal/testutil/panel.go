// Package testutil builds deterministic panels for tests.
package testutil

import (
	"encoding/csv"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-nse/internal/contracts"
)

// Start is the first trading day of generated panels (a Monday)
var Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TradingDays returns n consecutive weekdays beginning at Start
func TradingDays(n int) []time.Time {
	days := make([]time.Time, 0, n)
	for d := Start; len(days) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}

// FullHeader lists every mandatory and optional column
func FullHeader() []string {
	h := append([]string{}, contracts.RequiredColumns...)
	return append(h, contracts.OptionalColumns...)
}

// RandomRows generates a random walk per symbol over days trading days.
// Liquidity and delivery stay well above default eligibility thresholds.
func RandomRows(symbols []string, days int, seed int64) []contracts.PanelRow {
	rng := rand.New(rand.NewSource(seed))
	dates := TradingDays(days)

	fii := make([]float64, days)
	dii := make([]float64, days)
	for i := range dates {
		fii[i] = rng.NormFloat64() * 500
		dii[i] = rng.NormFloat64() * 400
	}

	rows := make([]contracts.PanelRow, 0, len(symbols)*days)
	for _, sym := range symbols {
		price := 100 + rng.Float64()*400
		oi := 1e6 * (1 + rng.Float64())
		for i, d := range dates {
			price *= 1 + rng.NormFloat64()*0.02
			oi *= 1 + rng.NormFloat64()*0.01
			spread := price * (0.005 + rng.Float64()*0.02)
			rows = append(rows, contracts.PanelRow{
				Symbol:       sym,
				Date:         d,
				Open:         price * (1 + rng.NormFloat64()*0.003),
				High:         price + spread/2,
				Low:          price - spread/2,
				Close:        price,
				Volume:       2e5 + rng.Float64()*8e5,
				DeliveryPct:  45 + rng.Float64()*30,
				OpenInterest: oi,
				FIINet:       fii[i],
				DIINet:       dii[i],
			})
		}
	}
	return rows
}

// CloseRows builds rows for one symbol from a close series (high=close+1, low=close-1)
func CloseRows(symbol string, closes []float64) []contracts.PanelRow {
	dates := TradingDays(len(closes))
	rows := make([]contracts.PanelRow, len(closes))
	for i, c := range closes {
		rows[i] = contracts.PanelRow{
			Symbol:      symbol,
			Date:        dates[i],
			Open:        c,
			High:        c + 1,
			Low:         c - 1,
			Close:       c,
			Volume:      1e6,
			DeliveryPct: 50,
		}
	}
	return rows
}

// MustPanel builds a panel with every column present or panics
func MustPanel(rows []contracts.PanelRow) *contracts.Panel {
	p, err := contracts.NewPanel(FullHeader(), rows)
	if err != nil {
		panic(err)
	}
	return p
}

// WritePanelCSV writes rows with every column to path
func WritePanelCSV(t *testing.T, path string, rows []contracts.PanelRow) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write(FullHeader()))
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, r := range rows {
		require.NoError(t, w.Write([]string{
			r.Symbol, r.Date.Format("2006-01-02"),
			num(r.Open), num(r.High), num(r.Low), num(r.Close), num(r.Volume),
			num(r.DeliveryPct), num(r.OpenInterest), num(r.FIINet), num(r.DIINet),
			num(r.BulkDealFlag), num(r.BlockDealFlag),
		}))
	}
	w.Flush()
	require.NoError(t, w.Error())
}

package s0_data

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wonny/aegis-nse/internal/contracts"
)

const sampleCSV = `symbol,date,open,high,low,close,volume,delivery_pct,fii_net,dii_net
INFY,2024-01-02,1500,1520,1490,1510,"1,200,000",55.5,-300,200
INFY,2024-01-01,1490,1505,1480,1500,1000000,50,100,-50
TCS,2024-01-01,3500,3550,3480,3520,500000,,100,-50
`

func TestLoader_ReadCSV(t *testing.T) {
	l := NewLoader(zerolog.Nop())

	raw, err := l.ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, raw.Rows, 3)
	assert.Equal(t, 0, raw.Skipped)

	first := raw.Rows[0]
	assert.Equal(t, "INFY", first.Symbol)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 1200000.0, first.Volume)
	assert.Equal(t, 55.5, first.DeliveryPct)
	assert.Equal(t, -300.0, first.FIINet)

	// empty optional cell defaults to 0
	assert.Equal(t, 0.0, raw.Rows[2].DeliveryPct)

	p, err := raw.Panel()
	require.NoError(t, err)
	assert.Equal(t, "INFY", p.Rows[0].Symbol)
	assert.True(t, p.Rows[0].Date.Before(p.Rows[1].Date))
	assert.True(t, p.Columns.DeliveryPct)
	assert.True(t, p.Columns.FIINet)
	assert.False(t, p.Columns.OpenInterest)
}

func TestLoader_BhavcopyHeaders(t *testing.T) {
	in := `TckrSymb,TradDt,SctySrs,OpnPric,HghPric,LwPric,ClsPric,TtlTradgVol
RELIANCE,2024-01-01,EQ,2500,2520,2490,2510,100
RELIANCE,2024-01-01,BE,2500,2520,2490,2510,100
,2024-01-01,EQ,1,1,1,1,1
`
	raw, err := NewLoader(zerolog.Nop()).ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, raw.Rows, 1)
	assert.Equal(t, 2, raw.Skipped)
	assert.Equal(t, "RELIANCE", raw.Rows[0].Symbol)
	assert.Equal(t, 2510.0, raw.Rows[0].Close)
}

func TestLoader_LastPriceFallback(t *testing.T) {
	in := `symbol,date,open,high,low,last,volume
ABC,2024-01-01,10,11,9,10.5,100
`
	raw, err := NewLoader(zerolog.Nop()).ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, raw.Rows, 1)
	assert.Equal(t, 10.5, raw.Rows[0].Close)
	assert.Contains(t, raw.Header, contracts.ColClose)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		schema bool
	}{
		{"empty", "", true},
		{"missing close", "symbol,date,open,high,low,volume\nA,2024-01-01,1,1,1,1\n", true},
		{"bad date", "symbol,date,open,high,low,close,volume\nA,yesterday,1,1,1,1,1\n", false},
		{"bad number", "symbol,date,open,high,low,close,volume\nA,2024-01-01,x,1,1,1,1\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(zerolog.Nop()).ReadCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Equal(t, tt.schema, errors.Is(err, contracts.ErrSchema))
		})
	}
}

func TestLoader_NonFiniteRejected(t *testing.T) {
	tests := []struct {
		name string
		cell string
	}{
		{"nan", "NaN"},
		{"inf", "Inf"},
		{"negative inf", "-inf"},
		{"overflow", "1e400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := "symbol,date,open,high,low,close,volume\n" +
				"A,2024-01-01,1,1,1,1,1\n" +
				"A,2024-01-02,1,1,1," + tt.cell + ",1\n"

			_, err := NewLoader(zerolog.Nop()).ReadCSV(strings.NewReader(in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 3 column close")
			assert.False(t, errors.Is(err, contracts.ErrSchema))
		})
	}
}

func TestLoader_DuplicateKeyRejected(t *testing.T) {
	in := `symbol,date,open,high,low,close,volume
A,2024-01-01,1,1,1,1,1
A,2024-01-01,2,2,2,2,2
`
	raw, err := NewLoader(zerolog.Nop()).ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	_, err = raw.Panel()
	assert.ErrorIs(t, err, contracts.ErrSchema)
}

func TestLoader_LoadFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	l := NewLoader(zerolog.Nop())

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(dir, "panel.csv")
		require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

		raw, err := l.Load(ctx, path)
		require.NoError(t, err)
		assert.Len(t, raw.Rows, 3)
		assert.Equal(t, path, raw.Source)
	})

	t.Run("xlsx", func(t *testing.T) {
		path := filepath.Join(dir, "panel.xlsx")
		f := excelize.NewFile()
		sheet := f.GetSheetName(0)
		data := [][]interface{}{
			{"Symbol", "Date", "Open", "High", "Low", "Close", "Volume", "Deliv_Per"},
			{"SBIN", "2024-01-01", 600, 610, 595, 605, 2000000, 48.2},
			{"SBIN", "2024-01-02", 605, 615, 600, 612, 1800000, 51},
		}
		for i, row := range data {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		}
		require.NoError(t, f.SaveAs(path))
		require.NoError(t, f.Close())

		raw, err := l.Load(ctx, path)
		require.NoError(t, err)
		require.Len(t, raw.Rows, 2)
		assert.Equal(t, 612.0, raw.Rows[1].Close)
		assert.Equal(t, 48.2, raw.Rows[0].DeliveryPct)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := l.Load(ctx, filepath.Join(dir, "panel.parquet"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := l.Load(ctx, filepath.Join(dir, "nope.csv"))
		assert.Error(t, err)
	})
}

func TestNormalizeColumn(t *testing.T) {
	tests := map[string]string{
		" Symbol ":      contracts.ColSymbol,
		"TckrSymb":      contracts.ColSymbol,
		"Delivery %":    contracts.ColDeliveryPct,
		"DELIV_PER":     contracts.ColDeliveryPct,
		"FII Net":       contracts.ColFIINet,
		"open-interest": contracts.ColOpenInterest,
		"\ufeffdate":    contracts.ColDate,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeColumn(in), in)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-03-05", "05-Mar-2024", "05-03-2024", "05/03/2024", "2024/03/05", "20240305"} {
		got, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}

	_, err := ParseDate("03/2024")
	assert.Error(t, err)
}

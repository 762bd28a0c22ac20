package contracts

import (
	"fmt"
	"sort"
	"time"
)

// Mandatory panel columns. A panel missing any of these cannot be processed.
const (
	ColSymbol = "symbol"
	ColDate   = "date"
	ColOpen   = "open"
	ColHigh   = "high"
	ColLow    = "low"
	ColClose  = "close"
	ColVolume = "volume"
)

// Optional panel columns. Absent columns default to zero.
const (
	ColDeliveryPct   = "delivery_pct"
	ColOpenInterest  = "open_interest"
	ColFIINet        = "fii_net"
	ColDIINet        = "dii_net"
	ColBulkDealFlag  = "bulk_deal_flag"
	ColBlockDealFlag = "block_deal_flag"
)

// RequiredColumns lists the mandatory columns in canonical order
var RequiredColumns = []string{ColSymbol, ColDate, ColOpen, ColHigh, ColLow, ColClose, ColVolume}

// OptionalColumns lists the optional columns in canonical order
var OptionalColumns = []string{ColDeliveryPct, ColOpenInterest, ColFIINet, ColDIINet, ColBulkDealFlag, ColBlockDealFlag}

// PanelRow is one (symbol, date) record of the merged daily panel
// ⭐ SSOT: S0 → S1 패널 레코드
type PanelRow struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`

	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`

	// Optional (0 when the column is absent)
	DeliveryPct   float64 `json:"delivery_pct"`
	OpenInterest  float64 `json:"open_interest"`
	FIINet        float64 `json:"fii_net"` // market-wide, same value for every symbol on a date
	DIINet        float64 `json:"dii_net"` // market-wide, same value for every symbol on a date
	BulkDealFlag  float64 `json:"bulk_deal_flag"`
	BlockDealFlag float64 `json:"block_deal_flag"`
}

// ColumnSet records which optional columns the source actually carried
type ColumnSet struct {
	DeliveryPct   bool `json:"delivery_pct"`
	OpenInterest  bool `json:"open_interest"`
	FIINet        bool `json:"fii_net"`
	DIINet        bool `json:"dii_net"`
	BulkDealFlag  bool `json:"bulk_deal_flag"`
	BlockDealFlag bool `json:"block_deal_flag"`
}

// Has reports whether the named optional column was present
func (c ColumnSet) Has(col string) bool {
	switch col {
	case ColDeliveryPct:
		return c.DeliveryPct
	case ColOpenInterest:
		return c.OpenInterest
	case ColFIINet:
		return c.FIINet
	case ColDIINet:
		return c.DIINet
	case ColBulkDealFlag:
		return c.BulkDealFlag
	case ColBlockDealFlag:
		return c.BlockDealFlag
	}
	return false
}

// Set marks the named optional column as present. Unknown names are ignored.
func (c *ColumnSet) Set(col string) {
	switch col {
	case ColDeliveryPct:
		c.DeliveryPct = true
	case ColOpenInterest:
		c.OpenInterest = true
	case ColFIINet:
		c.FIINet = true
	case ColDIINet:
		c.DIINet = true
	case ColBulkDealFlag:
		c.BulkDealFlag = true
	case ColBlockDealFlag:
		c.BlockDealFlag = true
	}
}

// Panel is a validated, (symbol, date)-sorted set of panel rows.
// Construct it with NewPanel; the rows must not be mutated afterwards.
type Panel struct {
	Rows    []PanelRow
	Columns ColumnSet
}

// SymbolSpan is the half-open index range [Start, End) of one symbol inside Panel.Rows
type SymbolSpan struct {
	Symbol string
	Start  int
	End    int
}

// Len returns the number of rows in the span
func (s SymbolSpan) Len() int {
	return s.End - s.Start
}

// NewPanel validates the presented header, sorts rows by (symbol, date) and rejects
// duplicate keys. header lists the column names the source carried.
func NewPanel(header []string, rows []PanelRow) (*Panel, error) {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, col := range RequiredColumns {
		if !present[col] {
			return nil, &SchemaError{Column: col, Reason: "mandatory column missing"}
		}
	}

	var cols ColumnSet
	for _, col := range OptionalColumns {
		if present[col] {
			cols.Set(col)
		}
	}

	sorted := make([]PanelRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Symbol != sorted[j].Symbol {
			return sorted[i].Symbol < sorted[j].Symbol
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Symbol == sorted[i-1].Symbol && sorted[i].Date.Equal(sorted[i-1].Date) {
			return nil, &SchemaError{
				Column: ColSymbol + "+" + ColDate,
				Reason: fmt.Sprintf("duplicate key (%s, %s)", sorted[i].Symbol, sorted[i].Date.Format("2006-01-02")),
			}
		}
	}

	return &Panel{Rows: sorted, Columns: cols}, nil
}

// Spans partitions the panel into contiguous per-symbol index ranges
func (p *Panel) Spans() []SymbolSpan {
	return SpansOf(len(p.Rows), func(i int) string { return p.Rows[i].Symbol })
}

// Symbols returns the distinct symbols in sorted order
func (p *Panel) Symbols() []string {
	spans := p.Spans()
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Symbol
	}
	return out
}

// DateRange returns the earliest and latest dates in the panel
func (p *Panel) DateRange() (time.Time, time.Time) {
	var minDate, maxDate time.Time
	for i, r := range p.Rows {
		if i == 0 || r.Date.Before(minDate) {
			minDate = r.Date
		}
		if i == 0 || r.Date.After(maxDate) {
			maxDate = r.Date
		}
	}
	return minDate, maxDate
}

// SpansOf groups n symbol-sorted items into contiguous spans
func SpansOf(n int, symbolAt func(i int) string) []SymbolSpan {
	var spans []SymbolSpan
	start := 0
	for i := 1; i <= n; i++ {
		if i == n || symbolAt(i) != symbolAt(start) {
			spans = append(spans, SymbolSpan{Symbol: symbolAt(start), Start: start, End: i})
			start = i
		}
	}
	return spans
}

package s0_data

import (
	"strings"

	"github.com/wonny/aegis-nse/internal/contracts"
)

const (
	colLast   = "last"
	colSeries = "series"
)

// aliases maps normalized source headers to panel column names.
// Covers the UDiFF bhavcopy names and common spreadsheet variants.
var aliases = map[string]string{
	"tckrsymb":         contracts.ColSymbol,
	"trading_symbol":   contracts.ColSymbol,
	"traddt":           contracts.ColDate,
	"timestamp":        contracts.ColDate,
	"trade_date":       contracts.ColDate,
	"opnpric":          contracts.ColOpen,
	"hghpric":          contracts.ColHigh,
	"lwpric":           contracts.ColLow,
	"clspric":          contracts.ColClose,
	"lastpric":         colLast,
	"ttltradgvol":      contracts.ColVolume,
	"tottrdqty":        contracts.ColVolume,
	"sctysrs":          colSeries,
	"deliv_per":        contracts.ColDeliveryPct,
	"delivery_percent": contracts.ColDeliveryPct,
	"delivery":         contracts.ColDeliveryPct,
	"oi":               contracts.ColOpenInterest,
	"open_int":         contracts.ColOpenInterest,
	"fii":              contracts.ColFIINet,
	"dii":              contracts.ColDIINet,
	"bulk_deal":        contracts.ColBulkDealFlag,
	"block_deal":       contracts.ColBlockDealFlag,
}

// NormalizeColumn lower-cases a header, folds separators to '_' and resolves aliases
func NormalizeColumn(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	h = strings.ToLower(h)
	h = strings.NewReplacer(" ", "_", "-", "_", ".", "_", "%", "pct").Replace(h)
	h = strings.Trim(h, "_")
	if a, ok := aliases[h]; ok {
		return a
	}
	return h
}

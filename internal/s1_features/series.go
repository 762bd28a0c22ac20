package s1_features

import (
	"time"

	"github.com/wonny/aegis-nse/internal/contracts"
)

// series 종목 하나의 열 단위 시계열 (오래된 날짜부터)
type series struct {
	symbol string
	dates  []time.Time

	open, high, low, close, volume []float64
	delivery, oi                   []float64
	bulk, block                    []float64
	fii, dii                       []float64
}

func newSeries(rows []contracts.PanelRow, market *marketFlow) *series {
	n := len(rows)
	s := &series{
		dates:    make([]time.Time, n),
		open:     make([]float64, n),
		high:     make([]float64, n),
		low:      make([]float64, n),
		close:    make([]float64, n),
		volume:   make([]float64, n),
		delivery: make([]float64, n),
		oi:       make([]float64, n),
		bulk:     make([]float64, n),
		block:    make([]float64, n),
		fii:      make([]float64, n),
		dii:      make([]float64, n),
	}
	if n > 0 {
		s.symbol = rows[0].Symbol
	}
	for i, r := range rows {
		s.dates[i] = r.Date
		s.open[i] = r.Open
		s.high[i] = r.High
		s.low[i] = r.Low
		s.close[i] = r.Close
		s.volume[i] = r.Volume
		s.delivery[i] = r.DeliveryPct
		s.oi[i] = r.OpenInterest
		s.bulk[i] = r.BulkDealFlag
		s.block[i] = r.BlockDealFlag
		s.fii[i], s.dii[i] = market.at(r.Date)
	}
	return s
}

func (s *series) len() int {
	return len(s.close)
}

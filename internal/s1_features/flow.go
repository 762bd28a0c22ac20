package s1_features

import (
	"time"

	"github.com/wonny/aegis-nse/internal/contracts"
)

// marketFlow is the per-date FII/DII net flow table. Flows are market-wide, so the
// first row seen for a date supplies the value and every symbol on that date reads it.
// Built once per Compute, read-only afterwards.
type marketFlow struct {
	fii map[time.Time]float64
	dii map[time.Time]float64
}

func newMarketFlow(rows []contracts.PanelRow) *marketFlow {
	m := &marketFlow{
		fii: make(map[time.Time]float64),
		dii: make(map[time.Time]float64),
	}
	for _, r := range rows {
		if _, ok := m.fii[r.Date]; ok {
			continue
		}
		m.fii[r.Date] = r.FIINet
		m.dii[r.Date] = r.DIINet
	}
	return m
}

func (m *marketFlow) at(date time.Time) (fii, dii float64) {
	return m.fii[date], m.dii[date]
}

// FlowCalculator 기관/외국인 수급 피처 계산
type FlowCalculator struct{}

func (FlowCalculator) apply(s *series, liq liquidityInputs, out []contracts.Features) {
	fiiDelta := diff(s.fii, 1)
	diiDelta := diff(s.dii, 1)
	fiiMA5 := rollingMean(s.fii, 5)
	fiiMA20 := rollingMean(s.fii, 20)
	diiMA5 := rollingMean(s.dii, 5)
	diiMA20 := rollingMean(s.dii, 20)

	for i := range out {
		f := &out[i]
		f.FIINet = s.fii[i]
		f.DIINet = s.dii[i]
		f.FIINetDelta = fiiDelta[i]
		f.DIINetDelta = diiDelta[i]
		f.FIINetMA5 = fiiMA5[i]
		f.FIINetMA20 = fiiMA20[i]
		f.DIINetMA5 = diiMA5[i]
		f.DIINetMA20 = diiMA20[i]
		f.FIIDIIDivergence = fiiMA5[i] - diiMA5[i]
		f.InstitutionalFlowStrength = (fiiMA5[i] + diiMA5[i]) / (liq.volumeMA5[i]*s.close[i] + 1)
	}
}

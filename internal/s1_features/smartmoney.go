package s1_features

import (
	"math"

	"github.com/wonny/aegis-nse/internal/contracts"
)

// SmartMoneyCalculator 인도율, 미결제약정, 대량거래 피처 계산
type SmartMoneyCalculator struct{}

func (SmartMoneyCalculator) apply(s *series, out []contracts.Features) {
	delMA20 := rollingMean(s.delivery, 20)
	delStd20 := rollingStd(s.delivery, 20)
	delTrend := diff(s.delivery, 5)

	for i := range out {
		f := &out[i]
		f.DeliveryPct = s.delivery[i]
		f.DeliveryZScore20D = (s.delivery[i] - delMA20[i]) / (delStd20[i] + 1)
		f.DeliveryTrend5D = delTrend[i]

		f.OIChangePct = oiChange(s.oi, i)
		f.OIDelta5D = math.NaN()
		if i >= 5 {
			f.OIDelta5D = (s.oi[i] - s.oi[i-5]) / (s.oi[i-5] + 1)
		}

		f.BulkDealFlag = s.bulk[i]
		f.BlockDealFlag = s.block[i]
	}
}

// oiChange 1일 OI 변화율 (이력 없음 또는 비유한값이면 0)
func oiChange(oi []float64, i int) float64 {
	if i == 0 || oi[i-1] <= 0 {
		return 0
	}
	v := oi[i]/oi[i-1] - 1
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// LiquidityCalculator 유동성 지표 + 섹터 placeholder
type LiquidityCalculator struct{}

func (LiquidityCalculator) apply(s *series, liq liquidityInputs, out []contracts.Features) {
	for i := range out {
		f := &out[i]
		f.AvgVolume20D = liq.volumeMA20[i]
		f.SpreadProxy = f.HighLowRange
		f.MarketCapLog = math.Log1p(s.volume[i] * s.close[i])

		// 섹터 매핑 없음: 항상 0
		f.SectorRelativeStrength5D = 0
		f.SectorRelativeStrength20D = 0
	}
}

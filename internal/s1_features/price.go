package s1_features

import (
	"math"

	"github.com/wonny/aegis-nse/internal/contracts"
)

// liquidityInputs 다른 계산기가 재사용하는 중간 시계열
type liquidityInputs struct {
	volumeMA5  []float64
	volumeMA20 []float64
}

// PriceCalculator 수익률/거래량/변동성 피처 계산
// ⭐ SSOT: 가격/거래량 피처 계산은 여기서만
type PriceCalculator struct{}

func (PriceCalculator) apply(s *series, out []contracts.Features) liquidityInputs {
	n := s.len()

	ret1 := pctChange(s.close, 1)
	ret5 := pctChange(s.close, 5)
	ret20 := pctChange(s.close, 20)

	volMA5 := rollingMean(s.volume, 5)
	volMA20 := rollingMean(s.volume, 20)

	typical := make([]float64, n)
	hl := make([]float64, n)
	tr := make([]float64, n)
	obv := make([]float64, n)

	var cum float64
	for i := 0; i < n; i++ {
		typical[i] = (s.high[i] + s.low[i] + s.close[i]) / 3
		hl[i] = s.high[i] - s.low[i]

		tr[i] = hl[i]
		if i > 0 {
			prev := s.close[i-1]
			tr[i] = math.Max(hl[i], math.Max(math.Abs(s.high[i]-prev), math.Abs(s.low[i]-prev)))
		}

		cum += sign(ret1[i]) * s.volume[i]
		obv[i] = cum
	}

	typicalMA5 := rollingMean(typical, 5)
	obvMA20 := rollingMean(obv, 20)
	obvStd20 := rollingStd(obv, 20)
	hlMin7 := rollingMin(hl, 7)
	atr14 := rollingMean(tr, 14)
	closeMA20 := rollingMean(s.close, 20)
	closeStd20 := rollingStd(s.close, 20)

	for i := 0; i < n; i++ {
		f := &out[i]
		f.Returns1D = ret1[i]
		f.Returns5D = ret5[i]
		f.Returns20D = ret20[i]

		f.LogVolume = math.Log1p(s.volume[i])
		f.VolumeMA5 = volMA5[i]
		f.VolumeMA20 = volMA20[i]
		f.VolumeMA5Ratio = s.volume[i] / (volMA5[i] + 1)
		f.VolumeMA20Ratio = s.volume[i] / (volMA20[i] + 1)

		f.HighLowRange = hl[i] / (s.close[i] + 1)
		f.TypicalPrice = typical[i]
		f.TypicalPriceMA5 = typicalMA5[i]
		f.VWAPDeviation = (s.close[i] - typicalMA5[i]) / (typicalMA5[i] + 1)

		f.OBV = obv[i]
		f.OBVNorm = (obv[i] - obvMA20[i]) / (obvStd20[i] + 1)

		if hl[i] == hlMin7[i] {
			f.NR7Flag = 1
		}

		f.TrueRange = tr[i]
		f.ATRNorm = atr14[i] / (s.close[i] + 1)
		f.BBWidthNorm = 2 * closeStd20[i] / (closeMA20[i] + 1)
	}

	return liquidityInputs{volumeMA5: volMA5, volumeMA20: volMA20}
}

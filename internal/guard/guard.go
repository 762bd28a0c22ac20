package guard

import (
	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
)

// Reason 행을 걸러낸 규칙
type Reason string

const (
	ReasonNone Reason = ""

	// ReasonVolumeNoDelivery: 인도 없는 거래량 급증 (작전성 회전매매)
	ReasonVolumeNoDelivery Reason = "volume_spike_low_delivery"

	// ReasonPriceFIISelling: 외국인 순매도 전환 중 가격 급등
	ReasonPriceFIISelling Reason = "price_jump_fii_selling"
)

// Guard flags rows that look like manipulated or distribution-driven moves.
// Pure and stateless; the same Guard must be used for training and prediction.
// ⭐ SSOT: 이상 거래 규칙은 여기서만
type Guard struct {
	cfg strategyconfig.Guardrail
}

// New guardrail 임계값으로 가드 생성
func New(cfg strategyconfig.Guardrail) *Guard {
	return &Guard{cfg: cfg}
}

// Suspicious 규칙 하나라도 걸리면 true
func (g *Guard) Suspicious(f *contracts.Features) bool {
	return g.Reason(f) != ReasonNone
}

// Reason 처음 걸린 규칙, 없으면 ReasonNone
// NaN이 섞인 비교는 false
func (g *Guard) Reason(f *contracts.Features) Reason {
	if f.VolumeMA20Ratio > g.cfg.VolumeRatioMax && f.DeliveryPct < g.cfg.DeliveryPctMin {
		return ReasonVolumeNoDelivery
	}
	if f.Returns1D > g.cfg.Return1DMax && f.FIINetDelta < 0 {
		return ReasonPriceFIISelling
	}
	return ReasonNone
}

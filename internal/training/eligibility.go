package training

import (
	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/guard"
	"github.com/wonny/aegis-nse/internal/s1_features"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
)

// DropReason 학습/예측 대상에서 제외된 사유
type DropReason string

const (
	DropNone             DropReason = ""
	DropUndefinedLabel   DropReason = "undefined_label"
	DropUndefinedFeature DropReason = "undefined_feature"
	DropLowLiquidity     DropReason = "low_liquidity"
	DropLowDelivery      DropReason = "low_delivery"
	DropGuard            DropReason = "guard"
)

// Eligibility is the row filter shared by training and prediction.
// ⭐ SSOT: 학습/예측 필터는 반드시 이 타입 하나로
type Eligibility struct {
	universe strategyconfig.Universe
	guard    *guard.Guard
}

// NewEligibility 전략 설정으로 필터 생성
func NewEligibility(cfg *strategyconfig.Config) *Eligibility {
	return &Eligibility{
		universe: cfg.Universe,
		guard:    guard.New(cfg.Guardrail),
	}
}

// Check 적격이면 DropNone, 아니면 처음 걸린 규칙
// 순서: 피처 미정의 → 유동성 → 인도율 → 이상 거래 가드
func (e *Eligibility) Check(f *contracts.Features) DropReason {
	switch {
	case s1_features.HasUndefined(f):
		return DropUndefinedFeature
	case !(f.AvgVolume20D >= e.universe.MinLiquidity):
		return DropLowLiquidity
	case !(f.DeliveryPct >= e.universe.MinDeliveryPct):
		return DropLowDelivery
	case e.guard.Suspicious(f):
		return DropGuard
	}
	return DropNone
}

// Guard 이상 거래 가드 (사유 보고용)
func (e *Eligibility) Guard() *guard.Guard {
	return e.guard
}

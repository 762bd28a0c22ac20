package s1_features

import (
	"github.com/wonny/aegis-nse/internal/contracts"
)

// Column 피처 이름과 접근자
type Column struct {
	Name string
	Get  func(f *contracts.Features) float64
}

// Columns lists every computed feature in export order
var Columns = []Column{
	{"returns_1d", func(f *contracts.Features) float64 { return f.Returns1D }},
	{"returns_5d", func(f *contracts.Features) float64 { return f.Returns5D }},
	{"returns_20d", func(f *contracts.Features) float64 { return f.Returns20D }},
	{"log_volume", func(f *contracts.Features) float64 { return f.LogVolume }},
	{"volume_ma5", func(f *contracts.Features) float64 { return f.VolumeMA5 }},
	{"volume_ma20", func(f *contracts.Features) float64 { return f.VolumeMA20 }},
	{"volume_ma5_ratio", func(f *contracts.Features) float64 { return f.VolumeMA5Ratio }},
	{"volume_ma20_ratio", func(f *contracts.Features) float64 { return f.VolumeMA20Ratio }},
	{"high_low_range", func(f *contracts.Features) float64 { return f.HighLowRange }},
	{"typical_price", func(f *contracts.Features) float64 { return f.TypicalPrice }},
	{"typical_price_ma5", func(f *contracts.Features) float64 { return f.TypicalPriceMA5 }},
	{"vwap_deviation", func(f *contracts.Features) float64 { return f.VWAPDeviation }},
	{"obv", func(f *contracts.Features) float64 { return f.OBV }},
	{"obv_norm", func(f *contracts.Features) float64 { return f.OBVNorm }},
	{"nr7_flag", func(f *contracts.Features) float64 { return f.NR7Flag }},
	{"true_range", func(f *contracts.Features) float64 { return f.TrueRange }},
	{"atr_norm", func(f *contracts.Features) float64 { return f.ATRNorm }},
	{"bb_width_norm", func(f *contracts.Features) float64 { return f.BBWidthNorm }},
	{"delivery_pct", func(f *contracts.Features) float64 { return f.DeliveryPct }},
	{"delivery_zscore_20d", func(f *contracts.Features) float64 { return f.DeliveryZScore20D }},
	{"delivery_trend_5d", func(f *contracts.Features) float64 { return f.DeliveryTrend5D }},
	{"oi_change_pct", func(f *contracts.Features) float64 { return f.OIChangePct }},
	{"oi_delta_5d", func(f *contracts.Features) float64 { return f.OIDelta5D }},
	{"bulk_deal_flag", func(f *contracts.Features) float64 { return f.BulkDealFlag }},
	{"block_deal_flag", func(f *contracts.Features) float64 { return f.BlockDealFlag }},
	{"fii_net", func(f *contracts.Features) float64 { return f.FIINet }},
	{"dii_net", func(f *contracts.Features) float64 { return f.DIINet }},
	{"fii_net_delta", func(f *contracts.Features) float64 { return f.FIINetDelta }},
	{"dii_net_delta", func(f *contracts.Features) float64 { return f.DIINetDelta }},
	{"fii_net_ma5", func(f *contracts.Features) float64 { return f.FIINetMA5 }},
	{"fii_net_ma20", func(f *contracts.Features) float64 { return f.FIINetMA20 }},
	{"dii_net_ma5", func(f *contracts.Features) float64 { return f.DIINetMA5 }},
	{"dii_net_ma20", func(f *contracts.Features) float64 { return f.DIINetMA20 }},
	{"fii_dii_divergence", func(f *contracts.Features) float64 { return f.FIIDIIDivergence }},
	{"institutional_flow_strength", func(f *contracts.Features) float64 { return f.InstitutionalFlowStrength }},
	{"avg_volume_20d", func(f *contracts.Features) float64 { return f.AvgVolume20D }},
	{"spread_proxy", func(f *contracts.Features) float64 { return f.SpreadProxy }},
	{"market_cap_log", func(f *contracts.Features) float64 { return f.MarketCapLog }},
	{"sector_relative_strength_5d", func(f *contracts.Features) float64 { return f.SectorRelativeStrength5D }},
	{"sector_relative_strength_20d", func(f *contracts.Features) float64 { return f.SectorRelativeStrength20D }},
}

// ModelFeatures is the ordered model input schema.
// ⭐ SSOT: 학습과 예측은 반드시 이 순서를 공유
var ModelFeatures = []string{
	"returns_1d", "returns_5d", "returns_20d",
	"log_volume", "volume_ma5_ratio", "volume_ma20_ratio",
	"high_low_range", "vwap_deviation", "obv_norm", "nr7_flag",
	"atr_norm", "bb_width_norm",
	"delivery_pct", "delivery_zscore_20d", "delivery_trend_5d",
	"oi_change_pct", "oi_delta_5d",
	"bulk_deal_flag", "block_deal_flag",
	"fii_net_delta", "fii_net_ma5", "fii_net_ma20",
	"dii_net_delta", "dii_net_ma5", "dii_net_ma20",
	"fii_dii_divergence", "institutional_flow_strength",
	"avg_volume_20d", "spread_proxy", "market_cap_log",
	"sector_relative_strength_5d", "sector_relative_strength_20d",
}

var (
	byName       = indexColumns()
	modelGetters = resolve(ModelFeatures)
)

func indexColumns() map[string]func(*contracts.Features) float64 {
	m := make(map[string]func(*contracts.Features) float64, len(Columns))
	for _, c := range Columns {
		m[c.Name] = c.Get
	}
	return m
}

func resolve(names []string) []func(*contracts.Features) float64 {
	getters := make([]func(*contracts.Features) float64, len(names))
	for i, name := range names {
		get, ok := byName[name]
		if !ok {
			panic("s1_features: unknown model feature " + name)
		}
		getters[i] = get
	}
	return getters
}

// Value 스키마 이름으로 피처 값 조회
func Value(f *contracts.Features, name string) (float64, bool) {
	get, ok := byName[name]
	if !ok {
		return 0, false
	}
	return get(f), true
}

// Vector ModelFeatures 순서의 모델 입력 벡터
func Vector(f *contracts.Features) []float64 {
	v := make([]float64, len(modelGetters))
	for i, get := range modelGetters {
		v[i] = get(f)
	}
	return v
}

// HasUndefined 모델 피처 중 NaN이 하나라도 있는지
func HasUndefined(f *contracts.Features) bool {
	for _, get := range modelGetters {
		if contracts.IsUndefined(get(f)) {
			return true
		}
	}
	return false
}

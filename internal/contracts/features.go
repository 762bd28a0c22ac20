package contracts

import (
	"math"
	"time"
)

// FeatureRow is the feature vector of one panel row plus its labels
// ⭐ SSOT: S1 → S2/S3 피처 데이터 전달
type FeatureRow struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`

	Features Features         `json:"features"`
	Labels   map[string]Label `json:"labels,omitempty"` // key: horizon name
}

// Label is a forward-looking binary outcome. LabelUndefined marks rows whose forward
// price is not observed; such rows are excluded, never filled.
type Label int8

const (
	LabelUndefined Label = -1
	LabelNegative  Label = 0
	LabelPositive  Label = 1
)

// Defined reports whether the label carries an outcome
func (l Label) Defined() bool {
	return l == LabelNegative || l == LabelPositive
}

// Label returns the label for a horizon, LabelUndefined when unknown
func (r *FeatureRow) Label(horizon string) Label {
	if r.Labels == nil {
		return LabelUndefined
	}
	l, ok := r.Labels[horizon]
	if !ok {
		return LabelUndefined
	}
	return l
}

// Features holds every derived per-row value. NaN means undefined.
type Features struct {
	// Price / volume
	Returns1D       float64 `json:"returns_1d"`
	Returns5D       float64 `json:"returns_5d"`
	Returns20D      float64 `json:"returns_20d"`
	LogVolume       float64 `json:"log_volume"`
	VolumeMA5       float64 `json:"volume_ma5"`
	VolumeMA20      float64 `json:"volume_ma20"`
	VolumeMA5Ratio  float64 `json:"volume_ma5_ratio"`
	VolumeMA20Ratio float64 `json:"volume_ma20_ratio"`
	HighLowRange    float64 `json:"high_low_range"`
	TypicalPrice    float64 `json:"typical_price"`
	TypicalPriceMA5 float64 `json:"typical_price_ma5"`
	VWAPDeviation   float64 `json:"vwap_deviation"`
	OBV             float64 `json:"obv"`
	OBVNorm         float64 `json:"obv_norm"`
	NR7Flag         float64 `json:"nr7_flag"`
	TrueRange       float64 `json:"true_range"`
	ATRNorm         float64 `json:"atr_norm"`
	BBWidthNorm     float64 `json:"bb_width_norm"`

	// Smart money
	DeliveryPct       float64 `json:"delivery_pct"`
	DeliveryZScore20D float64 `json:"delivery_zscore_20d"`
	DeliveryTrend5D   float64 `json:"delivery_trend_5d"`
	OIChangePct       float64 `json:"oi_change_pct"`
	OIDelta5D         float64 `json:"oi_delta_5d"`
	BulkDealFlag      float64 `json:"bulk_deal_flag"`
	BlockDealFlag     float64 `json:"block_deal_flag"`

	// 기관 수급 (FII/DII, market-wide broadcast)
	FIINet                    float64 `json:"fii_net"`
	DIINet                    float64 `json:"dii_net"`
	FIINetDelta               float64 `json:"fii_net_delta"`
	DIINetDelta               float64 `json:"dii_net_delta"`
	FIINetMA5                 float64 `json:"fii_net_ma5"`
	FIINetMA20                float64 `json:"fii_net_ma20"`
	DIINetMA5                 float64 `json:"dii_net_ma5"`
	DIINetMA20                float64 `json:"dii_net_ma20"`
	FIIDIIDivergence          float64 `json:"fii_dii_divergence"`
	InstitutionalFlowStrength float64 `json:"institutional_flow_strength"`

	// Liquidity
	AvgVolume20D float64 `json:"avg_volume_20d"`
	SpreadProxy  float64 `json:"spread_proxy"`
	MarketCapLog float64 `json:"market_cap_log"`

	// Sector (placeholders, always 0)
	SectorRelativeStrength5D  float64 `json:"sector_relative_strength_5d"`
	SectorRelativeStrength20D float64 `json:"sector_relative_strength_20d"`
}

// Undefined is the value of a feature that cannot be computed
func Undefined() float64 {
	return math.NaN()
}

// IsUndefined reports whether v is an undefined feature value
func IsUndefined(v float64) bool {
	return math.IsNaN(v)
}

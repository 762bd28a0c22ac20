package contracts

import "time"

// Prediction is one ranked row of a horizon's top-N output
// ⭐ SSOT: S4 랭킹 결과 전달 (생성 후 변경 금지)
type Prediction struct {
	Horizon     string    `json:"horizon"`
	Rank        int       `json:"rank"` // 1-based ranking
	Symbol      string    `json:"symbol"`
	Date        time.Time `json:"date"`
	Close       float64   `json:"close"`
	DeliveryPct float64   `json:"delivery_pct"`
	FIINetMA5   float64   `json:"fii_net_ma5"`
	DIINetMA5   float64   `json:"dii_net_ma5"`
	Probability float64   `json:"probability"` // P(label = 1), 0.0 ~ 1.0
}

// HorizonRanking is the ranked output of a single horizon.
// Skipped is set (and Predictions empty) when the horizon could not be ranked.
type HorizonRanking struct {
	Horizon     string       `json:"horizon"`
	Date        time.Time    `json:"date"`
	Eligible    int          `json:"eligible"` // rows left after filters
	Predictions []Prediction `json:"predictions"`
	Skipped     string       `json:"skipped,omitempty"`
}

// Top returns the first prediction, false when empty
func (h *HorizonRanking) Top() (Prediction, bool) {
	if len(h.Predictions) == 0 {
		return Prediction{}, false
	}
	return h.Predictions[0], true
}

package contracts

import "context"

// FeatureBuilder derives one feature row per panel row (S1)
// ⭐ SSOT: S1 피처 생성 인터페이스
type FeatureBuilder interface {
	Compute(ctx context.Context, panel *Panel) ([]FeatureRow, error)
}

// Scorer maps a feature vector to P(label = 1)
type Scorer interface {
	PredictProbability(vector []float64) float64
}

// PredictionSink receives ranked predictions (CSV, database, cache)
type PredictionSink interface {
	SavePredictions(ctx context.Context, rankings []HorizonRanking) error
}

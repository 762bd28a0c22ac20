package strategyconfig

import "time"

// Config는 학습/예측 전략의 전체 설정
// Values are immutable once loaded; every component receives the part it needs by value.
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Universe   Universe   `yaml:"universe" json:"universe"`
	Horizons   []Horizon  `yaml:"horizons" json:"horizons"`
	Guardrail  Guardrail  `yaml:"guardrail" json:"guardrail"`
	Ranking    Ranking    `yaml:"ranking" json:"ranking"`
	Model      Model      `yaml:"model" json:"model"`
	Validation Validation `yaml:"validation" json:"validation"`
	Data       Data       `yaml:"data" json:"data"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
	Timezone   string `yaml:"timezone" json:"timezone"`
}

// Universe: liquidity and delivery floors shared by training and prediction
type Universe struct {
	MinLiquidity   float64 `yaml:"min_liquidity" json:"min_liquidity"`       // avg_volume_20d floor
	MinDeliveryPct float64 `yaml:"min_delivery_pct" json:"min_delivery_pct"` // delivery_pct floor
}

// Horizon defines one forward label: lookahead in trading rows and the return threshold
type Horizon struct {
	Name            string  `yaml:"name" json:"name"`
	Lookahead       int     `yaml:"lookahead" json:"lookahead"`
	ReturnThreshold float64 `yaml:"return_threshold" json:"return_threshold"`
}

// Guardrail thresholds of the anomaly guard
type Guardrail struct {
	VolumeRatioMax float64 `yaml:"volume_ratio_max" json:"volume_ratio_max"` // volume_ma20_ratio cutoff
	DeliveryPctMin float64 `yaml:"delivery_pct_min" json:"delivery_pct_min"` // 미확인 거래량 판정
	Return1DMax    float64 `yaml:"return_1d_max" json:"return_1d_max"`       // price pop cutoff
}

// Ranking S4
type Ranking struct {
	TopN int `yaml:"top_n" json:"top_n"`
}

// Model holds gradient boosted tree hyperparameters
type Model struct {
	MaxDepth        int     `yaml:"max_depth" json:"max_depth"`
	LearningRate    float64 `yaml:"learning_rate" json:"learning_rate"`
	NEstimators     int     `yaml:"n_estimators" json:"n_estimators"`
	Subsample       float64 `yaml:"subsample" json:"subsample"`
	ColsampleByTree float64 `yaml:"colsample_bytree" json:"colsample_bytree"`
	Seed            int64   `yaml:"seed" json:"seed"`
	MaxBins         int     `yaml:"max_bins" json:"max_bins"`
	MinChildWeight  float64 `yaml:"min_child_weight" json:"min_child_weight"`
	Lambda          float64 `yaml:"lambda" json:"lambda"`
}

// Validation holds cross-validation settings
type Validation struct {
	CVFolds int `yaml:"cv_folds" json:"cv_folds"`
}

// Missing trading day strategies
const (
	MissingForwardFill = "forward_fill"
	MissingInterpolate = "interpolate"
	MissingSkip        = "skip"
	MissingMarkOnly    = "mark_only"
)

// Data holds panel preprocessing settings
type Data struct {
	MissingDays string `yaml:"missing_days" json:"missing_days"` // 빈 값 = forward_fill
}

// MissingStrategy returns the configured strategy, defaulting to forward_fill
func (d Data) MissingStrategy() string {
	if d.MissingDays == "" {
		return MissingForwardFill
	}
	return d.MissingDays
}

// Horizon returns the named horizon
func (c *Config) Horizon(name string) (Horizon, bool) {
	for _, h := range c.Horizons {
		if h.Name == name {
			return h, true
		}
	}
	return Horizon{}, false
}

// HorizonNames returns horizon names in configured order
func (c *Config) HorizonNames() []string {
	names := make([]string, len(c.Horizons))
	for i, h := range c.Horizons {
		names[i] = h.Name
	}
	return names
}

// Default returns the built-in strategy (NSE daily/weekly/monthly)
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "nse_equity_v1",
			Version:    "1.0.0",
			Timezone:   "Asia/Kolkata",
		},
		Universe: Universe{
			MinLiquidity:   100_000,
			MinDeliveryPct: 30,
		},
		Horizons: []Horizon{
			{Name: "daily", Lookahead: 5, ReturnThreshold: 0.03},
			{Name: "weekly", Lookahead: 20, ReturnThreshold: 0.05},
			{Name: "monthly", Lookahead: 60, ReturnThreshold: 0.08},
		},
		Guardrail: Guardrail{
			VolumeRatioMax: 3.0,
			DeliveryPctMin: 40,
			Return1DMax:    0.05,
		},
		Ranking: Ranking{TopN: 10},
		Model: Model{
			MaxDepth:        6,
			LearningRate:    0.05,
			NEstimators:     200,
			Subsample:       0.8,
			ColsampleByTree: 0.8,
			Seed:            42,
			MaxBins:         256,
			MinChildWeight:  1,
			Lambda:          1,
		},
		Validation: Validation{CVFolds: 5},
		Data:       Data{MissingDays: MissingForwardFill},
	}
}

// Snapshot records the exact strategy a model was trained with
type Snapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	Version    string    `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
}

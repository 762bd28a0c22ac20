package strategyconfig

import (
	"fmt"
	"regexp"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var horizonNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Universe ===
	if cfg.Universe.MinLiquidity < 0 {
		return ValidationError{"universe.min_liquidity", "must be >= 0"}
	}
	if cfg.Universe.MinDeliveryPct < 0 || cfg.Universe.MinDeliveryPct > 100 {
		return ValidationError{"universe.min_delivery_pct", "must be in range [0, 100]"}
	}

	// === Horizons ===
	if len(cfg.Horizons) == 0 {
		return ValidationError{"horizons", "at least one horizon required"}
	}
	seen := make(map[string]bool, len(cfg.Horizons))
	for i, h := range cfg.Horizons {
		field := fmt.Sprintf("horizons[%d]", i)
		if !horizonNamePattern.MatchString(h.Name) {
			return ValidationError{field + ".name", "must match ^[a-z][a-z0-9_]*$"}
		}
		if seen[h.Name] {
			return ValidationError{field + ".name", fmt.Sprintf("duplicate horizon %q", h.Name)}
		}
		seen[h.Name] = true
		if h.Lookahead < 1 {
			return ValidationError{field + ".lookahead", "must be >= 1"}
		}
	}

	// === Guardrail ===
	if cfg.Guardrail.VolumeRatioMax <= 0 {
		return ValidationError{"guardrail.volume_ratio_max", "must be > 0"}
	}
	if cfg.Guardrail.DeliveryPctMin < 0 || cfg.Guardrail.DeliveryPctMin > 100 {
		return ValidationError{"guardrail.delivery_pct_min", "must be in range [0, 100]"}
	}

	// === Ranking ===
	if cfg.Ranking.TopN < 1 {
		return ValidationError{"ranking.top_n", "must be >= 1"}
	}

	// === Model ===
	m := cfg.Model
	if m.MaxDepth < 1 {
		return ValidationError{"model.max_depth", "must be >= 1"}
	}
	if m.LearningRate <= 0 || m.LearningRate > 1 {
		return ValidationError{"model.learning_rate", "must be in range (0, 1]"}
	}
	if m.NEstimators < 1 {
		return ValidationError{"model.n_estimators", "must be >= 1"}
	}
	if err := validateRatio(m.Subsample, "model.subsample"); err != nil {
		return err
	}
	if err := validateRatio(m.ColsampleByTree, "model.colsample_bytree"); err != nil {
		return err
	}
	if m.MaxBins < 2 || m.MaxBins > 65536 {
		return ValidationError{"model.max_bins", "must be in range [2, 65536]"}
	}
	if m.MinChildWeight < 0 {
		return ValidationError{"model.min_child_weight", "must be >= 0"}
	}
	if m.Lambda < 0 {
		return ValidationError{"model.lambda", "must be >= 0"}
	}

	// === Validation ===
	if cfg.Validation.CVFolds < 2 {
		return ValidationError{"validation.cv_folds", "must be >= 2"}
	}

	// === Data ===
	switch cfg.Data.MissingStrategy() {
	case MissingForwardFill, MissingInterpolate, MissingSkip, MissingMarkOnly:
	default:
		return ValidationError{"data.missing_days", "must be one of forward_fill, interpolate, skip, mark_only"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// delivery floor above the guard cutoff makes rule (a) unreachable
	if cfg.Universe.MinDeliveryPct >= cfg.Guardrail.DeliveryPctMin {
		warnings = append(warnings, Warning{
			Code:    "GUARD_DELIVERY_SHADOWED",
			Message: "universe.min_delivery_pct >= guardrail.delivery_pct_min: 거래량 급증 룰이 적용되지 않음",
		})
	}

	for _, h := range cfg.Horizons {
		if h.Lookahead > 250 {
			warnings = append(warnings, Warning{
				Code:    "LONG_HORIZON",
				Message: fmt.Sprintf("horizon %s lookahead=%d > 250: 학습 데이터 손실 큼", h.Name, h.Lookahead),
			})
		}
	}

	if cfg.Model.Subsample == 1 && cfg.Model.ColsampleByTree == 1 {
		warnings = append(warnings, Warning{
			Code:    "NO_SAMPLING",
			Message: "subsample=1 and colsample_bytree=1: random seed has no effect",
		})
	}

	return warnings
}

// validateRatio는 샘플링 비율이 (0, 1] 범위인지 검증
func validateRatio(v float64, field string) error {
	if v <= 0 || v > 1 {
		return ValidationError{field, "must be in range (0, 1]"}
	}
	return nil
}

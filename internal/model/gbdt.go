package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/wonny/aegis-nse/internal/contracts"
	"github.com/wonny/aegis-nse/internal/strategyconfig"
)

// Classifier is a gradient boosted tree ensemble with logistic loss.
// Immutable once trained; safe for concurrent PredictProbability calls.
type Classifier struct {
	Features   []string             `json:"features"`
	Params     strategyconfig.Model `json:"params"`
	BaseMargin float64              `json:"base_margin"`
	Trees      []Tree               `json:"trees"`
	Gain       []float64            `json:"gain"` // total split gain per feature
}

var errInvalidInput = errors.New("invalid training input")

// Train X (행 × len(features))와 이진 라벨 y로 분류기 학습
// 히스토그램 방식: 피처는 한 번만 양자화, 트리는 depth-wise 성장
// 같은 seed면 결과 동일
func Train(X [][]float64, y []bool, features []string, p strategyconfig.Model) (*Classifier, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("train: %w", contracts.ErrInsufficientData)
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("train: %d rows but %d labels: %w", len(X), len(y), errInvalidInput)
	}
	for i, row := range X {
		if len(row) != len(features) {
			return nil, fmt.Errorf("train: row %d has %d values, want %d: %w", i, len(row), len(features), errInvalidInput)
		}
	}
	if err := checkParams(p); err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	// 1. 피처 양자화 (bin 인덱스)
	n, nf := len(X), len(features)
	q := quantize(X, nf, p.MaxBins)

	target := make([]float64, n)
	var positives float64
	for i, v := range y {
		if v {
			target[i] = 1
			positives++
		}
	}

	// 2. 초기 margin = 양성 비율의 log-odds
	base := logit(clamp(positives/float64(n), 1e-6, 1-1e-6))
	margin := make([]float64, n)
	for i := range margin {
		margin[i] = base
	}

	c := &Classifier{
		Features:   append([]string(nil), features...),
		Params:     p,
		BaseMargin: base,
		Trees:      make([]Tree, 0, p.NEstimators),
		Gain:       make([]float64, nf),
	}

	rng := rand.New(rand.NewSource(p.Seed))
	b := &treeBuilder{
		q:              q,
		grad:           make([]float64, n),
		hess:           make([]float64, n),
		gain:           c.Gain,
		maxDepth:       p.MaxDepth,
		lambda:         p.Lambda,
		minChildWeight: p.MinChildWeight,
		learningRate:   p.LearningRate,
	}

	// 3. 부스팅: logistic loss의 gradient/hessian → 트리 하나씩 추가
	for t := 0; t < p.NEstimators; t++ {
		for i := range margin {
			pr := sigmoid(margin[i])
			b.grad[i] = pr - target[i]
			b.hess[i] = math.Max(pr*(1-pr), 1e-16)
		}

		b.features = sample(rng, nf, p.ColsampleByTree)
		tree := b.grow(sample(rng, n, p.Subsample))

		for i := range margin {
			margin[i] += tree.predictBinned(q, i)
		}
		c.Trees = append(c.Trees, tree)
	}

	return c, nil
}

// PredictMargin 원시 log-odds (x는 Features 순서)
func (c *Classifier) PredictMargin(x []float64) float64 {
	m := c.BaseMargin
	for i := range c.Trees {
		m += c.Trees[i].predict(x)
	}
	return m
}

// PredictProbability P(label = 1), 범위 [0, 1]
func (c *Classifier) PredictProbability(x []float64) float64 {
	return sigmoid(c.PredictMargin(x))
}

// FeatureImportance 피처 하나의 gain 기여도
type FeatureImportance struct {
	Feature string  `json:"feature"`
	Gain    float64 `json:"gain"`
	Share   float64 `json:"share"` // gain / total gain
}

// Importances 분할 gain 합계 내림차순 (동률은 이름순)
func (c *Classifier) Importances() []FeatureImportance {
	var total float64
	for _, g := range c.Gain {
		total += g
	}

	out := make([]FeatureImportance, len(c.Features))
	for i, name := range c.Features {
		fi := FeatureImportance{Feature: name}
		if i < len(c.Gain) {
			fi.Gain = c.Gain[i]
		}
		if total > 0 {
			fi.Share = fi.Gain / total
		}
		out[i] = fi
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Gain != out[j].Gain {
			return out[i].Gain > out[j].Gain
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}

func checkParams(p strategyconfig.Model) error {
	switch {
	case p.NEstimators < 1:
		return fmt.Errorf("n_estimators must be >= 1: %w", errInvalidInput)
	case p.MaxDepth < 1:
		return fmt.Errorf("max_depth must be >= 1: %w", errInvalidInput)
	case p.LearningRate <= 0:
		return fmt.Errorf("learning_rate must be > 0: %w", errInvalidInput)
	case p.MaxBins < 2 || p.MaxBins > math.MaxUint16:
		return fmt.Errorf("max_bins must be in [2, %d]: %w", math.MaxUint16, errInvalidInput)
	case p.Subsample <= 0 || p.Subsample > 1:
		return fmt.Errorf("subsample must be in (0, 1]: %w", errInvalidInput)
	case p.ColsampleByTree <= 0 || p.ColsampleByTree > 1:
		return fmt.Errorf("colsample_bytree must be in (0, 1]: %w", errInvalidInput)
	case p.Lambda < 0 || p.MinChildWeight < 0:
		return fmt.Errorf("lambda and min_child_weight must be >= 0: %w", errInvalidInput)
	}
	return nil
}

// sample round(ratio·n)개 (최소 1개) 인덱스를 중복 없이 오름차순으로 추출
func sample(rng *rand.Rand, n int, ratio float64) []int {
	if ratio >= 1 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	k := int(math.Round(ratio * float64(n)))
	if k < 1 {
		k = 1
	}
	idx := rng.Perm(n)[:k]
	sort.Ints(idx)
	return idx
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

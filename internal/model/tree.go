package model

import (
	"math"
)

// Node is one tree node. Feature < 0 marks a leaf carrying Value.
// Internal nodes send x to Left when x < Threshold or x is NaN.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value,omitempty"`

	bin int // split bin, training only
}

// Tree 평탄화된 회귀 트리 (루트는 인덱스 0)
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		v := x[n.Feature]
		if math.IsNaN(v) || v < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// predictBinned 학습용 bin으로 r번째 행 예측 (학습 중 margin 갱신용)
func (t *Tree) predictBinned(q *quantized, r int) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if int(q.bins[n.Feature][r]) <= n.bin {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type split struct {
	feature int
	bin     int
	gain    float64
}

// treeBuilder gradient/hessian 히스토그램으로 깊이 제한 트리 하나를 성장
type treeBuilder struct {
	q        *quantized
	grad     []float64
	hess     []float64
	features []int
	gain     []float64 // accumulated split gain per feature

	maxDepth       int
	lambda         float64
	minChildWeight float64
	learningRate   float64

	nodes []Node

	// 히스토그램 버퍼 (노드마다 재사용)
	hg, hh []float64
	hn     []int
}

func (b *treeBuilder) grow(rows []int) Tree {
	b.nodes = b.nodes[:0]
	b.build(rows, 0)
	nodes := make([]Node, len(b.nodes))
	copy(nodes, b.nodes)
	return Tree{Nodes: nodes}
}

func (b *treeBuilder) build(rows []int, depth int) int {
	var G, H float64
	for _, r := range rows {
		G += b.grad[r]
		H += b.hess[r]
	}

	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1})

	if depth < b.maxDepth && len(rows) >= 2 {
		if s, ok := b.bestSplit(rows, G, H); ok {
			left, right := b.partition(rows, s)
			l := b.build(left, depth+1)
			r := b.build(right, depth+1)

			b.nodes[idx] = Node{
				Feature:   s.feature,
				Threshold: b.q.cuts[s.feature][s.bin],
				Left:      l,
				Right:     r,
				bin:       s.bin,
			}
			b.gain[s.feature] += s.gain
			return idx
		}
	}

	b.nodes[idx].Value = -G / (H + b.lambda) * b.learningRate
	return idx
}

func (b *treeBuilder) bestSplit(rows []int, G, H float64) (split, bool) {
	best := split{gain: 0}
	found := false
	parent := G * G / (H + b.lambda)

	for _, f := range b.features {
		cuts := b.q.cuts[f]
		if len(cuts) == 0 {
			continue
		}
		nb := len(cuts) + 1
		hg, hh, hn := b.histogram(nb)
		bins := b.q.bins[f]
		for _, r := range rows {
			k := bins[r]
			hg[k] += b.grad[r]
			hh[k] += b.hess[r]
			hn[k]++
		}

		var GL, HL float64
		var NL int
		for k := 0; k < nb-1; k++ {
			GL += hg[k]
			HL += hh[k]
			NL += hn[k]
			GR, HR, NR := G-GL, H-HL, len(rows)-NL
			if NL == 0 || NR == 0 {
				continue
			}
			if HL < b.minChildWeight || HR < b.minChildWeight {
				continue
			}
			gain := 0.5 * (GL*GL/(HL+b.lambda) + GR*GR/(HR+b.lambda) - parent)
			if gain > best.gain {
				best = split{feature: f, bin: k, gain: gain}
				found = true
			}
		}
	}
	return best, found
}

func (b *treeBuilder) histogram(nb int) ([]float64, []float64, []int) {
	if cap(b.hg) < nb {
		b.hg = make([]float64, nb)
		b.hh = make([]float64, nb)
		b.hn = make([]int, nb)
	}
	hg, hh, hn := b.hg[:nb], b.hh[:nb], b.hn[:nb]
	for i := range hg {
		hg[i], hh[i], hn[i] = 0, 0, 0
	}
	return hg, hh, hn
}

func (b *treeBuilder) partition(rows []int, s split) (left, right []int) {
	bins := b.q.bins[s.feature]
	left = make([]int, 0, len(rows))
	right = make([]int, 0, len(rows))
	for _, r := range rows {
		if int(bins[r]) <= s.bin {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return left, right
}

package model

import (
	"encoding/json"
	"fmt"
	"io"
)

// Encode 분류기를 JSON으로 기록
func (c *Classifier) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	return enc.Encode(c)
}

// Decode Encode로 저장한 분류기를 읽고 구조 검증
func Decode(r io.Reader) (*Classifier, error) {
	var c Classifier
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode classifier: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("decode classifier: %w", err)
	}
	return &c, nil
}

// validate 피처 범위를 벗어나거나 순환하는 트리를 가진 아티팩트 거부
func (c *Classifier) validate() error {
	if len(c.Features) == 0 {
		return fmt.Errorf("no features")
	}
	if len(c.Trees) == 0 {
		return fmt.Errorf("no trees")
	}
	for t, tree := range c.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d: empty", t)
		}
		for i, n := range tree.Nodes {
			if n.Feature < 0 {
				continue
			}
			if n.Feature >= len(c.Features) {
				return fmt.Errorf("tree %d node %d: feature %d out of range", t, i, n.Feature)
			}
			if n.Left <= i || n.Right <= i || n.Left >= len(tree.Nodes) || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d: bad child index", t, i)
			}
		}
	}
	return nil
}

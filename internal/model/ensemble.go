package model

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
)

// Tree is one regression tree in flattened LightGBM layout: parallel arrays
// indexed by internal node, with negative child references pointing into
// LeafValue as -(ref)-1.
type Tree struct {
	SplitFeature []int     `json:"split_feature"`
	Threshold    []float64 `json:"threshold"`
	LeftChild    []int     `json:"left_child"`
	RightChild   []int     `json:"right_child"`
	LeafValue    []float64 `json:"leaf_value"`
}

func (t *Tree) evaluate(row []float64) float64 {
	if len(t.SplitFeature) == 0 {
		if len(t.LeafValue) > 0 {
			return t.LeafValue[0]
		}
		return 0
	}
	node := 0
	for {
		var next int
		if row[t.SplitFeature[node]] <= t.Threshold[node] {
			next = t.LeftChild[node]
		} else {
			next = t.RightChild[node]
		}
		if next < 0 {
			return t.LeafValue[-next-1]
		}
		node = next
	}
}

// maxFeatureIndex is the highest feature slot any split references.
func (t *Tree) maxFeatureIndex() int {
	maxIx := -1
	for _, f := range t.SplitFeature {
		if f > maxIx {
			maxIx = f
		}
	}
	return maxIx
}

// Ensemble is an additive tree model: prediction = base score + sum of
// per-tree leaf values.
type Ensemble struct {
	FeatureNames []string `json:"feature_names"`
	BaseScore    float64  `json:"base_score"`
	Trees        []Tree   `json:"trees"`
}

// Predict evaluates one feature row.
func (e *Ensemble) Predict(row []float64) float64 {
	out := e.BaseScore
	for i := range e.Trees {
		out += e.Trees[i].evaluate(row)
	}
	return out
}

// NumFeatures is the expected row width: the named schema size when known,
// otherwise derived from the highest split index.
func (e *Ensemble) NumFeatures() int {
	if len(e.FeatureNames) > 0 {
		return len(e.FeatureNames)
	}
	maxIx := -1
	for i := range e.Trees {
		if ix := e.Trees[i].maxFeatureIndex(); ix > maxIx {
			maxIx = ix
		}
	}
	return maxIx + 1
}

func (e *Ensemble) validate() error {
	if len(e.Trees) == 0 {
		return fmt.Errorf("ensemble has no trees")
	}
	for i := range e.Trees {
		t := &e.Trees[i]
		n := len(t.SplitFeature)
		if len(t.Threshold) != n || len(t.LeftChild) != n || len(t.RightChild) != n {
			return fmt.Errorf("tree %d has inconsistent node arrays", i)
		}
		if n > 0 && len(t.LeafValue) == 0 {
			return fmt.Errorf("tree %d has splits but no leaves", i)
		}
	}
	return nil
}

func loadJSONEnsemble(path string) (*Ensemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e Ensemble
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decoding json ensemble: %w", err)
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

func loadGobEnsemble(path string) (*Ensemble, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var e Ensemble
	if err := gob.NewDecoder(f).Decode(&e); err != nil {
		return nil, fmt.Errorf("decoding gob ensemble: %w", err)
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

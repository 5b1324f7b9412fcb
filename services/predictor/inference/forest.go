// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package inference

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/somnuslabs/somnus/services/predictor/datatypes"
)

// =============================================================================
// Forest Artifact
// =============================================================================

// treeNode is one node in a serialized decision tree. Leaves carry
// Feature == -1 and a Class; internal nodes route on
// vector[Feature] <= Threshold to Left, else Right.
type treeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Class     int     `json:"class"`
}

type treeSpec struct {
	Nodes []treeNode `json:"nodes"`
}

type forestFile struct {
	Classes int        `json:"classes"`
	Trees   []treeSpec `json:"trees"`
}

// Forest is the plaintext classifier: an ensemble of decision trees
// evaluated over the scaled feature vector with majority voting.
// Loaded once at startup and read-only afterwards, so it is safe for
// concurrent use.
type Forest struct {
	classes int
	trees   []treeSpec
}

// LoadForest reads and validates a forest artifact. Validation rejects
// empty ensembles, out-of-range feature indices, and dangling child or
// class references so Classify never has to bounds-check per node.
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inference: read forest artifact: %w", err)
	}
	var file forestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("inference: parse forest artifact %s: %w", path, err)
	}
	if file.Classes <= 0 {
		return nil, fmt.Errorf("inference: forest artifact %s declares %d classes", path, file.Classes)
	}
	if len(file.Trees) == 0 {
		return nil, fmt.Errorf("inference: forest artifact %s has no trees", path)
	}
	for ti, tree := range file.Trees {
		if len(tree.Nodes) == 0 {
			return nil, fmt.Errorf("inference: tree %d is empty", ti)
		}
		for ni, node := range tree.Nodes {
			if node.Feature == -1 {
				if node.Class < 0 || node.Class >= file.Classes {
					return nil, fmt.Errorf("inference: tree %d node %d: class %d out of range", ti, ni, node.Class)
				}
				continue
			}
			if node.Feature < 0 || node.Feature >= datatypes.VectorSize {
				return nil, fmt.Errorf("inference: tree %d node %d: feature %d out of range", ti, ni, node.Feature)
			}
			if node.Left < 0 || node.Left >= len(tree.Nodes) ||
				node.Right < 0 || node.Right >= len(tree.Nodes) {
				return nil, fmt.Errorf("inference: tree %d node %d: child index out of range", ti, ni)
			}
		}
		if err := checkAcyclic(tree); err != nil {
			return nil, fmt.Errorf("inference: tree %d: %w", ti, err)
		}
	}
	return &Forest{classes: file.Classes, trees: file.Trees}, nil
}

// checkAcyclic walks from the root and rejects any node reachable from
// its own subtree, so evalTree is guaranteed to terminate. Child
// indices are already known to be in range.
func checkAcyclic(tree treeSpec) error {
	const (
		unvisited = iota
		onPath
		settled
	)
	state := make([]uint8, len(tree.Nodes))
	var walk func(idx int) error
	walk = func(idx int) error {
		switch state[idx] {
		case onPath:
			return fmt.Errorf("node %d is part of a cycle", idx)
		case settled:
			return nil
		}
		state[idx] = onPath
		if node := tree.Nodes[idx]; node.Feature != -1 {
			if err := walk(node.Left); err != nil {
				return err
			}
			if err := walk(node.Right); err != nil {
				return err
			}
		}
		state[idx] = settled
		return nil
	}
	return walk(0)
}

// Classify runs the ensemble over a scaled vector and returns the
// majority-vote class index. Ties break toward the lower index, which
// keeps classification deterministic.
func (f *Forest) Classify(v datatypes.FeatureVector) int {
	votes := make([]int, f.classes)
	for _, tree := range f.trees {
		votes[evalTree(tree, v)]++
	}
	best := 0
	for class, n := range votes {
		if n > votes[best] {
			best = class
		}
	}
	return best
}

func evalTree(tree treeSpec, v datatypes.FeatureVector) int {
	node := tree.Nodes[0]
	for node.Feature != -1 {
		if v[node.Feature] <= node.Threshold {
			node = tree.Nodes[node.Left]
		} else {
			node = tree.Nodes[node.Right]
		}
	}
	return node.Class
}

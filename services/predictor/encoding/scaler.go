// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package encoding

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/somnuslabs/somnus/services/predictor/datatypes"
)

// =============================================================================
// Scaler State
// =============================================================================

// ScalerState holds the per-slot standardization statistics persisted by
// the offline training pipeline.
//
// # Invariants
//
//   - One (mean, std) pair per canonical feature slot, in canonical order.
//   - std != 0 for every slot; a zero-variance slot makes scaling
//     undefined and is rejected at load time.
//
// ScalerState is immutable after LoadScaler returns and is safe for
// unsynchronized concurrent reads.
type ScalerState struct {
	Means [datatypes.VectorSize]float64
	Stds  [datatypes.VectorSize]float64
}

// scalerFile is the JSON artifact layout written by the training tooling.
type scalerFile struct {
	Features []struct {
		Name string  `json:"name"`
		Mean float64 `json:"mean"`
		Std  float64 `json:"std"`
	} `json:"features"`
}

// LoadScaler reads a persisted scaler artifact and validates it against
// the canonical feature list: every slot present, in order, with nonzero
// standard deviation.
func LoadScaler(path string) (*ScalerState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler %s: %w", path, err)
	}
	var file scalerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scaler %s: %w", path, err)
	}
	if len(file.Features) != datatypes.VectorSize {
		return nil, fmt.Errorf("scaler %s has %d features, want %d",
			path, len(file.Features), datatypes.VectorSize)
	}

	state := &ScalerState{}
	for i, entry := range file.Features {
		want := datatypes.CanonicalOrder[i]
		if datatypes.Feature(entry.Name) != want {
			return nil, fmt.Errorf("scaler %s slot %d is %q, want %q", path, i, entry.Name, want)
		}
		if entry.Std == 0 {
			return nil, fmt.Errorf("scaler %s slot %q has zero standard deviation", path, entry.Name)
		}
		state.Means[i] = entry.Mean
		state.Stds[i] = entry.Std
	}
	return state, nil
}

// Transform standardizes a raw feature vector slot by slot:
//
//	scaled[i] = (raw[i] - mean[i]) / std[i]
//
// The zero-std check is repeated here so a hand-constructed ScalerState
// cannot produce Inf/NaN silently.
func (s *ScalerState) Transform(raw datatypes.FeatureVector) (datatypes.FeatureVector, error) {
	var scaled datatypes.FeatureVector
	for i := range raw {
		if s.Stds[i] == 0 {
			return scaled, &datatypes.EncodingError{
				Feature: datatypes.CanonicalOrder[i],
				Reason:  "zero-variance scaler slot",
			}
		}
		scaled[i] = (raw[i] - s.Means[i]) / s.Stds[i]
	}
	return scaled, nil
}

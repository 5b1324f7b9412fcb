// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package encoding

import (
	"github.com/somnuslabs/somnus/services/predictor/datatypes"
)

// Vector assembles validated feature values into the canonical slot
// order. A missing slot is a hard error: the upstream validator already
// guarantees completeness, so a gap here means the caller bypassed
// validation, and defaulting it to zero would silently feed the model an
// out-of-distribution point.
func Vector(values datatypes.FeatureMap) (datatypes.FeatureVector, error) {
	var vec datatypes.FeatureVector
	for i, feature := range datatypes.CanonicalOrder {
		v, ok := values[feature]
		if !ok {
			return vec, &datatypes.EncodingError{
				Feature: feature,
				Reason:  "no value for canonical slot",
			}
		}
		vec[i] = v
	}
	return vec, nil
}

// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package inference

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/somnuslabs/somnus/services/predictor/datatypes"
)

// Wire format for the encrypted-inference sidecar: requests are the
// scaled feature vector as little-endian float64 slots in canonical
// order; responses are a single little-endian int64 class index.

// resultSize is the byte length of a backend response.
const resultSize = 8

// EncodeVector serializes a scaled vector into its wire form.
func EncodeVector(v datatypes.FeatureVector) []byte {
	buf := make([]byte, datatypes.VectorSize*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// DecodeResult parses a backend response into a class index.
func DecodeResult(data []byte) (int, error) {
	if len(data) != resultSize {
		return 0, fmt.Errorf("inference: result must be %d bytes, got %d", resultSize, len(data))
	}
	return int(int64(binary.LittleEndian.Uint64(data))), nil
}

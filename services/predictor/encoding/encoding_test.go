// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package encoding

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somnuslabs/somnus/services/predictor/datatypes"
)

func TestEncodeGender(t *testing.T) {
	for label, want := range map[string]int{"Female": 0, "Male": 1} {
		code, err := EncodeGender(label)
		require.NoError(t, err)
		assert.Equal(t, want, code)
	}

	_, err := EncodeGender("Other")
	var encErr *datatypes.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, datatypes.FeatureGenderEncoded, encErr.Feature)
}

func TestEncodeBMICategory(t *testing.T) {
	want := map[string]int{
		"Normal":        0,
		"Normal Weight": 1,
		"Obese":         2,
		"Overweight":    3,
	}
	for label, code := range want {
		got, err := EncodeBMICategory(label)
		require.NoError(t, err)
		assert.Equal(t, code, got)
	}

	// Case-sensitive: unseen spelling is rejected, never defaulted.
	_, err := EncodeBMICategory("obese")
	var encErr *datatypes.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, datatypes.FeatureBMIEncoded, encErr.Feature)
}

func TestParseBloodPressure(t *testing.T) {
	sys, dia, err := ParseBloodPressure("120/80")
	require.NoError(t, err)
	assert.Equal(t, 120, sys)
	assert.Equal(t, 80, dia)

	sys, dia, err = ParseBloodPressure(" 135 / 88 ")
	require.NoError(t, err)
	assert.Equal(t, 135, sys)
	assert.Equal(t, 88, dia)

	for _, bad := range []string{"", "120", "120/80/60", "abc/80", "120/"} {
		_, _, err := ParseBloodPressure(bad)
		assert.Error(t, err, "input %q should be rejected", bad)
	}
}

func TestNormalize(t *testing.T) {
	raw := datatypes.RawInput{
		"gender":                  "Male",
		"age":                     35,
		"sleep_duration":          7.5,
		"quality_of_sleep":        8,
		"physical_activity_level": 45,
		"stress_level":            4,
		"bmi_category":            "Overweight",
		"blood_pressure":          "120/80",
		"heart_rate":              70,
		"daily_steps":             9000,
	}

	out, err := Normalize(raw)
	require.NoError(t, err)
	assert.Len(t, out, datatypes.VectorSize)
	assert.Equal(t, 1, out[datatypes.FeatureGenderEncoded])
	assert.Equal(t, 3, out[datatypes.FeatureBMIEncoded])
	assert.Equal(t, 120, out[datatypes.FeatureBPSystolic])
	assert.Equal(t, 80, out[datatypes.FeatureBPDiastolic])
	assert.Equal(t, 7.5, out[datatypes.FeatureSleepDuration])
}

func TestNormalize_AbsentFieldsStayAbsent(t *testing.T) {
	out, err := Normalize(datatypes.RawInput{"age": 40})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	_, present := out[datatypes.FeatureGenderEncoded]
	assert.False(t, present)
}

func TestNormalize_UnseenCategoryFailsHard(t *testing.T) {
	_, err := Normalize(datatypes.RawInput{"gender": "Unknown", "age": 40})
	var encErr *datatypes.EncodingError
	require.ErrorAs(t, err, &encErr)
}

func TestVector_CanonicalOrder(t *testing.T) {
	values := datatypes.FeatureMap{}
	for i, f := range datatypes.CanonicalOrder {
		values[f] = float64(i + 1)
	}

	vec, err := Vector(values)
	require.NoError(t, err)
	for i := range vec {
		assert.Equal(t, float64(i+1), vec[i], "slot %d", i)
	}
}

func TestVector_MissingSlotFailsHard(t *testing.T) {
	values := datatypes.FeatureMap{}
	for _, f := range datatypes.CanonicalOrder {
		values[f] = 1
	}
	delete(values, datatypes.FeatureHeartRate)

	_, err := Vector(values)
	var encErr *datatypes.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, datatypes.FeatureHeartRate, encErr.Feature)
}

// writeScaler persists a scaler artifact with the given per-slot means
// and stds, in canonical feature order.
func writeScaler(t *testing.T, means, stds [datatypes.VectorSize]float64) string {
	t.Helper()
	type entry struct {
		Name string  `json:"name"`
		Mean float64 `json:"mean"`
		Std  float64 `json:"std"`
	}
	var file struct {
		Features []entry `json:"features"`
	}
	for i, f := range datatypes.CanonicalOrder {
		file.Features = append(file.Features, entry{Name: string(f), Mean: means[i], Std: stds[i]})
	}
	data, err := json.Marshal(file)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "scaler.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestScaler_Transform(t *testing.T) {
	var means, stds [datatypes.VectorSize]float64
	for i := range means {
		means[i] = 10
		stds[i] = 2
	}
	scaler, err := LoadScaler(writeScaler(t, means, stds))
	require.NoError(t, err)

	var raw datatypes.FeatureVector
	for i := range raw {
		raw[i] = 14
	}
	scaled, err := scaler.Transform(raw)
	require.NoError(t, err)
	for i := range scaled {
		assert.InDelta(t, 2.0, scaled[i], 1e-12, "slot %d", i)
	}
}

func TestLoadScaler_RejectsZeroStd(t *testing.T) {
	var means, stds [datatypes.VectorSize]float64
	for i := range stds {
		stds[i] = 1
	}
	stds[3] = 0

	_, err := LoadScaler(writeScaler(t, means, stds))
	assert.Error(t, err)
}

func TestLoadScaler_RejectsWrongOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaler.json")
	data := []byte(`{"features":[{"name":"Sleep Duration","mean":0,"std":1}]}`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err := LoadScaler(path)
	assert.Error(t, err)
}

// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somnuslabs/somnus/services/predictor/datatypes"
)

func TestCheckRegistry(t *testing.T) {
	require.NoError(t, CheckRegistry(), "registry must cover every canonical feature")
}

func TestValidateParameter_UnknownParameter(t *testing.T) {
	res := ValidateParameter("Shoe Size", 42)
	assert.False(t, res.Valid)
	assert.Equal(t, "Unknown parameter: Shoe Size", res.Message)
}

func TestValidateParameter_TypeCoercion(t *testing.T) {
	// Accepted numeric representations all coerce.
	for _, v := range []any{7.5, float32(7.5), 7, int64(7), "7.5"} {
		res := ValidateParameter(datatypes.FeatureSleepDuration, v)
		assert.True(t, res.Valid, "value %v (%T) should coerce", v, v)
	}

	res := ValidateParameter(datatypes.FeatureSleepDuration, "eight hours")
	assert.False(t, res.Valid)
	assert.Equal(t, "Sleep Duration must be a float", res.Message)
}

func TestValidateParameter_IntTruncation(t *testing.T) {
	res := ValidateParameter(datatypes.FeatureDailySteps, 8000.9)
	require.True(t, res.Valid)
	assert.Equal(t, 8000.0, res.Value)
}

func TestValidateParameter_RangeRejection(t *testing.T) {
	res := ValidateParameter(datatypes.FeatureHeartRate, 250)
	assert.False(t, res.Valid)
	assert.Equal(t, "Heart Rate must be between 40 and 200 bpm", res.Message)

	// Boundary values are accepted.
	assert.True(t, ValidateParameter(datatypes.FeatureHeartRate, 40).Valid)
	assert.True(t, ValidateParameter(datatypes.FeatureHeartRate, 200).Valid)
}

func TestValidateParameter_Warnings(t *testing.T) {
	// In hard range but below the recommended minimum, and below optimal.
	res := ValidateParameter(datatypes.FeatureSleepDuration, 4.5)
	require.True(t, res.Valid)
	assert.Contains(t, res.Warnings, "Sleep Duration is below recommended minimum (5 hours)")
	assert.Contains(t, res.Warnings, "Optimal Sleep Duration is >= 7 hours")

	// Optimal advisory only, no recommended-range warning.
	res = ValidateParameter(datatypes.FeatureSleepDuration, 6.5)
	require.True(t, res.Valid)
	assert.Equal(t, []string{"Optimal Sleep Duration is >= 7 hours"}, res.Warnings)

	// Fully optimal value carries no warnings.
	res = ValidateParameter(datatypes.FeatureSleepDuration, 8)
	require.True(t, res.Valid)
	assert.Empty(t, res.Warnings)
}

func TestValidateParameter_StressAboveMaximum(t *testing.T) {
	res := ValidateParameter(datatypes.FeatureStressLevel, 8)
	require.True(t, res.Valid)
	assert.Contains(t, res.Warnings, "Stress Level is above recommended maximum (7 scale)")
}

func completeInput() map[datatypes.Feature]any {
	return map[datatypes.Feature]any{
		datatypes.FeatureAge:              35,
		datatypes.FeatureSleepDuration:    7.5,
		datatypes.FeatureQualityOfSleep:   8,
		datatypes.FeaturePhysicalActivity: 45,
		datatypes.FeatureStressLevel:      4,
		datatypes.FeatureHeartRate:        70,
		datatypes.FeatureDailySteps:       9000,
		datatypes.FeatureGenderEncoded:    1,
		datatypes.FeatureBMIEncoded:       0,
		datatypes.FeatureBPSystolic:       115,
		datatypes.FeatureBPDiastolic:      75,
	}
}

func TestValidateAll_CompleteInput(t *testing.T) {
	report := ValidateAll(completeInput())
	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
	assert.Len(t, report.Values, datatypes.VectorSize)
	assert.Equal(t, 7.5, report.Values[datatypes.FeatureSleepDuration])
}

func TestValidateAll_MissingParameter(t *testing.T) {
	input := completeInput()
	delete(input, datatypes.FeatureHeartRate)

	report := ValidateAll(input)
	assert.False(t, report.Valid)
	assert.Equal(t, "Missing required parameter: Heart Rate", report.Errors["Heart Rate"])
	// Other fields are still validated and coerced.
	assert.Equal(t, 35.0, report.Values[datatypes.FeatureAge])
}

func TestValidateAll_AggregatesAllErrors(t *testing.T) {
	input := completeInput()
	input[datatypes.FeatureAge] = 150
	input[datatypes.FeatureStressLevel] = "very"
	delete(input, datatypes.FeatureDailySteps)

	report := ValidateAll(input)
	assert.False(t, report.Valid)
	assert.Len(t, report.Errors, 3)
	assert.Equal(t, "Age must be between 18 and 100 years", report.Errors["Age"])
	assert.Equal(t, "Stress Level must be a int", report.Errors["Stress Level"])
	assert.Equal(t, "Missing required parameter: Daily Steps", report.Errors["Daily Steps"])
}

func TestValidateAll_WarningsDoNotInvalidate(t *testing.T) {
	input := completeInput()
	input[datatypes.FeatureStressLevel] = 7
	input[datatypes.FeatureDailySteps] = 5000

	report := ValidateAll(input)
	assert.True(t, report.Valid)
	assert.Contains(t, report.Warnings, "Stress Level")
	assert.Contains(t, report.Warnings, "Daily Steps")
}

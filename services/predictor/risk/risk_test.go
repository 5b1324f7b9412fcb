// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somnuslabs/somnus/services/predictor/datatypes"
)

func healthyFeatures() datatypes.FeatureMap {
	return datatypes.FeatureMap{
		datatypes.FeatureAge:              35,
		datatypes.FeatureSleepDuration:    8,
		datatypes.FeatureQualityOfSleep:   8,
		datatypes.FeaturePhysicalActivity: 45,
		datatypes.FeatureStressLevel:      3,
		datatypes.FeatureHeartRate:        65,
		datatypes.FeatureDailySteps:       10000,
		datatypes.FeatureGenderEncoded:    0,
		datatypes.FeatureBMIEncoded:       0,
		datatypes.FeatureBPSystolic:       115,
		datatypes.FeatureBPDiastolic:      75,
	}
}

func TestAssess_HealthyProfileIsLow(t *testing.T) {
	a := Assess(healthyFeatures())
	assert.Equal(t, 0, a.Score)
	assert.Equal(t, datatypes.RiskLow, a.Level)
	assert.Empty(t, a.Factors)
}

func TestAssess_ElevatedProfile(t *testing.T) {
	features := datatypes.FeatureMap{
		datatypes.FeatureAge:              45,
		datatypes.FeatureGenderEncoded:    1,
		datatypes.FeatureSleepDuration:    6.5,
		datatypes.FeatureQualityOfSleep:   6,
		datatypes.FeaturePhysicalActivity: 45,
		datatypes.FeatureStressLevel:      7,
		datatypes.FeatureBMIEncoded:       2,
		datatypes.FeatureBPSystolic:       135,
		datatypes.FeatureBPDiastolic:      88,
		datatypes.FeatureHeartRate:        75,
		datatypes.FeatureDailySteps:       5000,
	}

	a := Assess(features)
	assert.Equal(t, 6, a.Score)
	assert.Equal(t, datatypes.RiskHigh, a.Level)
	assert.Equal(t, []string{
		"Below optimal sleep duration",
		"Below average sleep quality",
		"Elevated stress level",
		"Elevated BMI",
		"Pre-hypertension",
		"Low daily activity (steps)",
	}, a.Factors)
}

func TestAssess_SevereFindingsScoreDouble(t *testing.T) {
	features := healthyFeatures()
	features[datatypes.FeatureSleepDuration] = 5
	features[datatypes.FeatureQualityOfSleep] = 4
	features[datatypes.FeatureStressLevel] = 9

	a := Assess(features)
	assert.Equal(t, 6, a.Score)
	assert.Equal(t, datatypes.RiskHigh, a.Level)
	assert.Contains(t, a.Factors, "Insufficient sleep duration (<6 hours)")
	assert.Contains(t, a.Factors, "Poor sleep quality")
	assert.Contains(t, a.Factors, "High stress level")
}

func TestAssess_LevelBoundaries(t *testing.T) {
	// Score 2: two single-point findings stay Low.
	features := healthyFeatures()
	features[datatypes.FeatureSleepDuration] = 6.5
	features[datatypes.FeatureQualityOfSleep] = 6
	a := Assess(features)
	require.Equal(t, 2, a.Score)
	assert.Equal(t, datatypes.RiskLow, a.Level)

	// Score 3 crosses into Moderate.
	features[datatypes.FeatureDailySteps] = 4000
	a = Assess(features)
	require.Equal(t, 3, a.Score)
	assert.Equal(t, datatypes.RiskModerate, a.Level)
}

func TestAssess_StepsBoundaryInclusive(t *testing.T) {
	features := healthyFeatures()
	features[datatypes.FeatureDailySteps] = 5000
	a := Assess(features)
	assert.Contains(t, a.Factors, "Low daily activity (steps)")

	features[datatypes.FeatureDailySteps] = 5001
	a = Assess(features)
	assert.NotContains(t, a.Factors, "Low daily activity (steps)")
}

func TestAssess_ScoreMonotonicUnderWorseningFactors(t *testing.T) {
	// Degrading one measurement at a time must never lower the score.
	steps := []struct {
		name    string
		feature datatypes.Feature
		value   float64
	}{
		{"short sleep", datatypes.FeatureSleepDuration, 6.5},
		{"very short sleep", datatypes.FeatureSleepDuration, 5.5},
		{"mediocre sleep quality", datatypes.FeatureQualityOfSleep, 6},
		{"poor sleep quality", datatypes.FeatureQualityOfSleep, 4},
		{"elevated stress", datatypes.FeatureStressLevel, 7},
		{"high stress", datatypes.FeatureStressLevel, 9},
		{"low daily steps", datatypes.FeatureDailySteps, 5000},
		{"overweight", datatypes.FeatureBMIEncoded, 2},
		{"pre-hypertensive systolic", datatypes.FeatureBPSystolic, 135},
		{"pre-hypertensive diastolic", datatypes.FeatureBPDiastolic, 88},
		{"elevated heart rate", datatypes.FeatureHeartRate, 110},
	}

	features := healthyFeatures()
	prev := Assess(features).Score
	for _, step := range steps {
		features[step.feature] = step.value
		score := Assess(features).Score
		assert.GreaterOrEqual(t, score, prev, "score dropped after %s", step.name)
		prev = score
	}
	assert.Equal(t, datatypes.RiskHigh, Assess(features).Level)
}

func TestAssess_Deterministic(t *testing.T) {
	features := healthyFeatures()
	features[datatypes.FeatureStressLevel] = 8
	features[datatypes.FeatureHeartRate] = 110

	first := Assess(features)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Assess(features))
	}
}

func TestRecommend_HealthyProfileHasNone(t *testing.T) {
	assert.Empty(t, Recommend(healthyFeatures()))
}

func TestRecommend_CoversCategories(t *testing.T) {
	features := datatypes.FeatureMap{
		datatypes.FeatureSleepDuration:    6.5,
		datatypes.FeatureQualityOfSleep:   6,
		datatypes.FeatureStressLevel:      7,
		datatypes.FeaturePhysicalActivity: 45,
		datatypes.FeatureDailySteps:       5000,
		datatypes.FeatureBMIEncoded:       2,
		datatypes.FeatureBPSystolic:       135,
		datatypes.FeatureBPDiastolic:      88,
		datatypes.FeatureHeartRate:        75,
	}

	recs := Recommend(features)
	categories := map[string]bool{}
	for _, r := range recs {
		categories[r.Category] = true
	}
	for _, want := range []string{CategorySleep, CategoryMentalHealth, CategoryExercise, CategoryNutrition, CategoryHealth} {
		assert.True(t, categories[want], "expected a %s recommendation", want)
	}
}

func TestRecommend_FixedOrder(t *testing.T) {
	features := healthyFeatures()
	features[datatypes.FeatureSleepDuration] = 6
	features[datatypes.FeatureHeartRate] = 95

	recs := Recommend(features)
	require.Len(t, recs, 2)
	assert.Equal(t, "Increase Sleep Duration", recs[0].Title)
	assert.Equal(t, "Improve Cardiovascular Health", recs[1].Title)
}

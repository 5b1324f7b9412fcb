// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides type definitions shared across the predictor
// service: the canonical feature vocabulary, request/response envelopes for
// the predict API, and the pipeline error taxonomy.
package datatypes

// =============================================================================
// Feature Vocabulary
// =============================================================================

// Feature identifies one slot of the canonical feature vector.
//
// # Description
//
// Feature values are the post-encoding parameter names used at training
// time. The categorical raw inputs (gender, BMI category) and the combined
// blood-pressure string are already resolved into their encoded columns
// at this level.
//
// Valid Values:
//   - "Age", "Sleep Duration", "Quality of Sleep", "Physical Activity Level",
//     "Stress Level", "Heart Rate", "Daily Steps"
//   - "Gender_Encoded", "BMI_Encoded" (label-encoded categoricals)
//   - "BP_Systolic", "BP_Diastolic" (split from the "sys/dia" raw string)
//
// # Limitations
//
//   - Adding a feature requires retraining; the set is frozen per model.
//
// # Assumptions
//
//   - Names match the training pipeline's column names exactly.
type Feature string

const (
	FeatureAge              Feature = "Age"
	FeatureSleepDuration    Feature = "Sleep Duration"
	FeatureQualityOfSleep   Feature = "Quality of Sleep"
	FeaturePhysicalActivity Feature = "Physical Activity Level"
	FeatureStressLevel      Feature = "Stress Level"
	FeatureHeartRate        Feature = "Heart Rate"
	FeatureDailySteps       Feature = "Daily Steps"
	FeatureGenderEncoded    Feature = "Gender_Encoded"
	FeatureBMIEncoded       Feature = "BMI_Encoded"
	FeatureBPSystolic       Feature = "BP_Systolic"
	FeatureBPDiastolic      Feature = "BP_Diastolic"
)

// VectorSize is the number of slots in the canonical feature vector.
const VectorSize = 11

// CanonicalOrder is the fixed slot order of the feature vector.
//
// The order must never vary between training-time and request-time
// encoding, and between the raw and scaled forms. Slot i of a
// FeatureVector always holds CanonicalOrder[i].
var CanonicalOrder = [VectorSize]Feature{
	FeatureAge,
	FeatureSleepDuration,
	FeatureQualityOfSleep,
	FeaturePhysicalActivity,
	FeatureStressLevel,
	FeatureHeartRate,
	FeatureDailySteps,
	FeatureGenderEncoded,
	FeatureBMIEncoded,
	FeatureBPSystolic,
	FeatureBPDiastolic,
}

// SlotIndex returns the canonical slot index for a feature, or -1 if the
// feature is not part of the canonical vector.
func SlotIndex(f Feature) int {
	for i, name := range CanonicalOrder {
		if name == f {
			return i
		}
	}
	return -1
}

// FeatureVector is an ordered sequence of numeric feature slots.
//
// Slot order follows CanonicalOrder. A FeatureVector may hold either raw
// or standardized values; both forms share the same slot layout.
type FeatureVector [VectorSize]float64

// FeatureMap is a named view of validated feature values, keyed by the
// encoded Feature name. It is the unit the validator and encoder exchange.
type FeatureMap map[Feature]float64

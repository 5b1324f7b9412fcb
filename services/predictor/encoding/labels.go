// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package encoding maps validated raw input into the fixed-order numeric
// feature vector and applies the persisted standardization.
//
// Categorical labels are resolved through tables computed once at training
// time (alphabetical label order, the convention of the training
// pipeline's label encoder) and frozen here. An unseen category at request
// time is a hard error: silently inventing an encoding would feed the
// model a value it was never trained on.
package encoding

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/somnuslabs/somnus/services/predictor/datatypes"
)

// =============================================================================
// Frozen Label Tables
// =============================================================================

// genderTable was frozen at training time from the alphabetically ordered
// label set {Female, Male}.
var genderTable = map[string]int{
	"Female": 0,
	"Male":   1,
}

// bmiTable was frozen at training time from the alphabetically ordered
// label set of the BMI Category column.
var bmiTable = map[string]int{
	"Normal":        0,
	"Normal Weight": 1,
	"Obese":         2,
	"Overweight":    3,
}

// EncodeGender resolves a gender label to its frozen integer encoding.
func EncodeGender(label string) (int, error) {
	code, ok := genderTable[label]
	if !ok {
		return 0, &datatypes.EncodingError{
			Feature: datatypes.FeatureGenderEncoded,
			Reason:  fmt.Sprintf("unseen gender label %q", label),
		}
	}
	return code, nil
}

// EncodeBMICategory resolves a BMI-category label to its frozen encoding.
func EncodeBMICategory(label string) (int, error) {
	code, ok := bmiTable[label]
	if !ok {
		return 0, &datatypes.EncodingError{
			Feature: datatypes.FeatureBMIEncoded,
			Reason:  fmt.Sprintf("unseen BMI category %q", label),
		}
	}
	return code, nil
}

// ParseBloodPressure splits a "systolic/diastolic" reading into its two
// integer components. Malformed strings are a hard error.
func ParseBloodPressure(s string) (systolic, diastolic int, err error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, 0, &datatypes.EncodingError{
			Feature: datatypes.FeatureBPSystolic,
			Reason:  fmt.Sprintf("blood pressure %q is not of the form systolic/diastolic", s),
		}
	}
	systolic, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, &datatypes.EncodingError{
			Feature: datatypes.FeatureBPSystolic,
			Reason:  fmt.Sprintf("systolic component %q is not an integer", parts[0]),
		}
	}
	diastolic, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, &datatypes.EncodingError{
			Feature: datatypes.FeatureBPDiastolic,
			Reason:  fmt.Sprintf("diastolic component %q is not an integer", parts[1]),
		}
	}
	return systolic, diastolic, nil
}

// =============================================================================
// Raw-Input Normalization
// =============================================================================

// rawNumericFields maps the raw API field names to their encoded features.
var rawNumericFields = map[string]datatypes.Feature{
	"age":                     datatypes.FeatureAge,
	"sleep_duration":          datatypes.FeatureSleepDuration,
	"quality_of_sleep":        datatypes.FeatureQualityOfSleep,
	"physical_activity_level": datatypes.FeaturePhysicalActivity,
	"stress_level":            datatypes.FeatureStressLevel,
	"heart_rate":              datatypes.FeatureHeartRate,
	"daily_steps":             datatypes.FeatureDailySteps,
}

// Normalize resolves a raw input map into the encoded parameter space:
// categorical labels become their frozen integer codes and the combined
// blood-pressure string becomes its two components. Numeric values pass
// through untouched for the validator to coerce and range-check.
//
// Fields absent from the raw input are simply absent from the output; the
// validator reports them as missing. Unseen categories and malformed
// blood-pressure strings are hard errors.
func Normalize(raw datatypes.RawInput) (map[datatypes.Feature]any, error) {
	out := make(map[datatypes.Feature]any, datatypes.VectorSize)

	for field, feature := range rawNumericFields {
		if v, ok := raw[field]; ok {
			out[feature] = v
		}
	}

	if v, ok := raw["gender"]; ok {
		label, isString := v.(string)
		if !isString {
			return nil, &datatypes.EncodingError{
				Feature: datatypes.FeatureGenderEncoded,
				Reason:  "gender must be a string label",
			}
		}
		code, err := EncodeGender(label)
		if err != nil {
			return nil, err
		}
		out[datatypes.FeatureGenderEncoded] = code
	}

	if v, ok := raw["bmi_category"]; ok {
		label, isString := v.(string)
		if !isString {
			return nil, &datatypes.EncodingError{
				Feature: datatypes.FeatureBMIEncoded,
				Reason:  "bmi_category must be a string label",
			}
		}
		code, err := EncodeBMICategory(label)
		if err != nil {
			return nil, err
		}
		out[datatypes.FeatureBMIEncoded] = code
	}

	if v, ok := raw["blood_pressure"]; ok {
		s, isString := v.(string)
		if !isString {
			return nil, &datatypes.EncodingError{
				Feature: datatypes.FeatureBPSystolic,
				Reason:  "blood_pressure must be a string of the form systolic/diastolic",
			}
		}
		systolic, diastolic, err := ParseBloodPressure(s)
		if err != nil {
			return nil, err
		}
		out[datatypes.FeatureBPSystolic] = systolic
		out[datatypes.FeatureBPDiastolic] = diastolic
	}

	return out, nil
}

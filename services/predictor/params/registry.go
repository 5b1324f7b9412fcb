// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package params holds the static per-feature validation rules and the
// feature validator built on top of them.
//
// The registry is process-wide, read-only state: it is defined once at
// compile time, checked for completeness against the canonical feature
// list at startup, and never mutated afterwards. Any number of concurrent
// requests may read it without synchronization.
package params

import (
	"fmt"

	"github.com/somnuslabs/somnus/services/predictor/datatypes"
)

// ValueType is the numeric type a parameter is coerced to before range
// checks. Integer parameters reject fractional values.
type ValueType int

const (
	TypeInt ValueType = iota
	TypeFloat
)

func (t ValueType) String() string {
	if t == TypeInt {
		return "int"
	}
	return "float"
}

// Bound is an optional threshold. The zero value means "not set"; use
// Limit to construct a set bound (distinguishing a set zero from unset).
type Bound struct {
	Value float64
	Set   bool
}

// Limit returns a set Bound.
func Limit(v float64) Bound { return Bound{Value: v, Set: true} }

// ParameterSpec is the fixed-shape validation record for one feature.
//
// Values outside [Min, Max] are invalid. Values inside the hard range but
// outside [WarningLow, WarningHigh] are valid with a warning; values
// outside [OptimalMin, OptimalMax] are valid with an additional advisory.
// CategoryOptions, when present, names the meaning of each encoded value.
type ParameterSpec struct {
	Name            datatypes.Feature
	Type            ValueType
	Min             float64
	Max             float64
	Unit            string
	Description     string
	WarningLow      Bound
	WarningHigh     Bound
	OptimalMin      Bound
	OptimalMax      Bound
	CategoryOptions map[int]string
}

// Registry is the static table of parameter specs, keyed by encoded
// feature name. Thresholds and units mirror the training pipeline.
var Registry = map[datatypes.Feature]ParameterSpec{
	datatypes.FeatureAge: {
		Name: datatypes.FeatureAge, Type: TypeInt,
		Min: 18, Max: 100, Unit: "years",
		Description: "Patient age in years",
		WarningLow:  Limit(20), WarningHigh: Limit(80),
	},
	datatypes.FeatureSleepDuration: {
		Name: datatypes.FeatureSleepDuration, Type: TypeFloat,
		Min: 0.0, Max: 24.0, Unit: "hours",
		Description: "Average hours of sleep per night",
		WarningLow:  Limit(5.0), WarningHigh: Limit(10.0),
		OptimalMin: Limit(7.0), OptimalMax: Limit(9.0),
	},
	datatypes.FeatureQualityOfSleep: {
		Name: datatypes.FeatureQualityOfSleep, Type: TypeInt,
		Min: 1, Max: 10, Unit: "scale",
		Description: "Sleep quality rating (1-10)",
		WarningLow:  Limit(4),
		OptimalMin:  Limit(7),
	},
	datatypes.FeaturePhysicalActivity: {
		Name: datatypes.FeaturePhysicalActivity, Type: TypeInt,
		Min: 0, Max: 180, Unit: "minutes/day",
		Description: "Daily physical activity in minutes",
		WarningLow:  Limit(30), WarningHigh: Limit(120),
		OptimalMin: Limit(30), OptimalMax: Limit(60),
	},
	datatypes.FeatureStressLevel: {
		Name: datatypes.FeatureStressLevel, Type: TypeInt,
		Min: 1, Max: 10, Unit: "scale",
		Description: "Stress level rating (1-10)",
		WarningHigh: Limit(7),
		OptimalMax:  Limit(5),
	},
	datatypes.FeatureHeartRate: {
		Name: datatypes.FeatureHeartRate, Type: TypeInt,
		Min: 40, Max: 200, Unit: "bpm",
		Description: "Resting heart rate in beats per minute",
		WarningLow:  Limit(50), WarningHigh: Limit(100),
		OptimalMin: Limit(60), OptimalMax: Limit(80),
	},
	datatypes.FeatureDailySteps: {
		Name: datatypes.FeatureDailySteps, Type: TypeInt,
		Min: 0, Max: 50000, Unit: "steps",
		Description: "Number of steps per day",
		WarningLow:  Limit(5000), WarningHigh: Limit(20000),
		OptimalMin: Limit(8000), OptimalMax: Limit(12000),
	},
	datatypes.FeatureGenderEncoded: {
		Name: datatypes.FeatureGenderEncoded, Type: TypeInt,
		Min: 0, Max: 1, Unit: "encoded",
		Description:     "Gender (0: Female, 1: Male)",
		CategoryOptions: map[int]string{0: "Female", 1: "Male"},
	},
	datatypes.FeatureBMIEncoded: {
		Name: datatypes.FeatureBMIEncoded, Type: TypeInt,
		Min: 0, Max: 3, Unit: "encoded",
		Description: "BMI Category",
		CategoryOptions: map[int]string{
			0: "Normal", 1: "Normal Weight", 2: "Obese", 3: "Overweight",
		},
	},
	datatypes.FeatureBPSystolic: {
		Name: datatypes.FeatureBPSystolic, Type: TypeInt,
		Min: 70, Max: 200, Unit: "mmHg",
		Description: "Systolic blood pressure",
		WarningLow:  Limit(90), WarningHigh: Limit(140),
		OptimalMin: Limit(90), OptimalMax: Limit(120),
	},
	datatypes.FeatureBPDiastolic: {
		Name: datatypes.FeatureBPDiastolic, Type: TypeInt,
		Min: 40, Max: 130, Unit: "mmHg",
		Description: "Diastolic blood pressure",
		WarningLow:  Limit(60), WarningHigh: Limit(90),
		OptimalMin: Limit(60), OptimalMax: Limit(80),
	},
}

// CheckRegistry verifies the registry is complete and internally
// consistent against the canonical feature list. Called once at startup;
// a failure here is a programming error, not a runtime condition.
func CheckRegistry() error {
	if len(Registry) != datatypes.VectorSize {
		return fmt.Errorf("registry has %d entries, want %d", len(Registry), datatypes.VectorSize)
	}
	for _, feature := range datatypes.CanonicalOrder {
		spec, ok := Registry[feature]
		if !ok {
			return fmt.Errorf("registry missing spec for %q", feature)
		}
		if spec.Name != feature {
			return fmt.Errorf("registry entry %q names itself %q", feature, spec.Name)
		}
		if spec.Min > spec.Max {
			return fmt.Errorf("registry entry %q has min %v > max %v", feature, spec.Min, spec.Max)
		}
	}
	return nil
}

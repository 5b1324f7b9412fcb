// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package params

import (
	"fmt"
	"math"
	"strconv"

	"github.com/somnuslabs/somnus/services/predictor/datatypes"
)

// =============================================================================
// Single-Parameter Validation
// =============================================================================

// Result is the outcome of validating one parameter.
//
// Valid=false means the value is rejected outright (unknown name, type
// coercion failure, or outside the hard [min,max] range). Warnings are
// advisory only and never make the result invalid. Value holds the
// coerced numeric value when Valid is true.
type Result struct {
	Valid    bool
	Message  string
	Warnings []string
	Value    float64
}

// ValidateParameter checks a single raw value against the registry.
//
// Fields are validated independently; there is no cross-field
// correlation. The checks run in order:
//
//  1. unknown name               -> invalid
//  2. type coercion failure      -> invalid
//  3. outside [Min, Max]         -> invalid with a range message
//  4. outside warning thresholds -> valid, warning appended
//  5. outside optimal range      -> valid, advisory appended
func ValidateParameter(name datatypes.Feature, value any) Result {
	spec, ok := Registry[name]
	if !ok {
		return Result{Message: fmt.Sprintf("Unknown parameter: %s", name)}
	}

	v, err := coerce(value, spec.Type)
	if err != nil {
		return Result{Message: fmt.Sprintf("%s must be a %s", name, spec.Type)}
	}

	if v < spec.Min || v > spec.Max {
		return Result{Message: fmt.Sprintf("%s must be between %s and %s %s",
			name, formatBound(spec.Min), formatBound(spec.Max), spec.Unit)}
	}

	var warnings []string
	if spec.WarningLow.Set && v < spec.WarningLow.Value {
		warnings = append(warnings, fmt.Sprintf("%s is below recommended minimum (%s %s)",
			name, formatBound(spec.WarningLow.Value), spec.Unit))
	}
	if spec.WarningHigh.Set && v > spec.WarningHigh.Value {
		warnings = append(warnings, fmt.Sprintf("%s is above recommended maximum (%s %s)",
			name, formatBound(spec.WarningHigh.Value), spec.Unit))
	}
	if spec.OptimalMin.Set && v < spec.OptimalMin.Value {
		warnings = append(warnings, fmt.Sprintf("Optimal %s is >= %s %s",
			name, formatBound(spec.OptimalMin.Value), spec.Unit))
	}
	if spec.OptimalMax.Set && v > spec.OptimalMax.Value {
		warnings = append(warnings, fmt.Sprintf("Optimal %s is <= %s %s",
			name, formatBound(spec.OptimalMax.Value), spec.Unit))
	}

	return Result{Valid: true, Message: "Valid", Warnings: warnings, Value: v}
}

// =============================================================================
// Whole-Input Validation
// =============================================================================

// Report is the outcome of validating a complete input map.
//
// Valid is true iff Errors is empty. Every registry entry missing from the
// input produces a per-field error. Values holds the coerced numeric value
// for every field that passed its individual checks.
type Report struct {
	Valid    bool
	Errors   map[string]string
	Warnings map[string][]string
	Values   datatypes.FeatureMap
}

// ValidateAll validates every parameter of one encoded input map.
//
// Unknown keys in the input produce per-key errors; missing registry
// entries produce per-field "missing" errors even when the same field
// would also fail a later value check.
func ValidateAll(input map[datatypes.Feature]any) Report {
	report := Report{
		Errors:   map[string]string{},
		Warnings: map[string][]string{},
		Values:   datatypes.FeatureMap{},
	}

	for _, feature := range datatypes.CanonicalOrder {
		if _, ok := input[feature]; !ok {
			report.Errors[string(feature)] = fmt.Sprintf("Missing required parameter: %s", feature)
		}
	}

	for name, value := range input {
		res := ValidateParameter(name, value)
		if !res.Valid {
			report.Errors[string(name)] = res.Message
			continue
		}
		if len(res.Warnings) > 0 {
			report.Warnings[string(name)] = res.Warnings
		}
		report.Values[name] = res.Value
	}

	report.Valid = len(report.Errors) == 0
	return report
}

// =============================================================================
// Helpers
// =============================================================================

// coerce converts a raw JSON/string value into float64. Integer parameters
// truncate fractional parts, matching the training pipeline's casts.
func coerce(value any, t ValueType) (float64, error) {
	var v float64
	switch x := value.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, err
		}
		v = parsed
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
	if t == TypeInt {
		v = math.Trunc(v)
	}
	return v, nil
}

// formatBound renders thresholds without trailing zeros (18, 6.5, 0.5).
func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// =============================================================================
// Inference Mode
// =============================================================================

// InferenceMode records which backend actually produced a result.
//
// Valid Values:
//   - "fhe": the compiled encrypted backend evaluated the circuit
//   - "plaintext": the persisted plaintext classifier was used (fallback)
type InferenceMode string

const (
	ModeFHE       InferenceMode = "fhe"
	ModePlaintext InferenceMode = "plaintext"
)

// =============================================================================
// Request Structures
// =============================================================================

// PredictRequest carries the raw clinical/lifestyle measurements for one
// server-computed prediction.
//
// Numeric fields are pointers so that an absent field is distinguishable
// from a legitimate zero (e.g. daily_steps=0); missing fields are reported
// per parameter by the feature validator, not by the JSON binder. The
// blood_pressure string must be of the form "systolic/diastolic"
// (enforced by the custom "bloodpressure" binding tag and again by the
// encoder for non-HTTP callers).
type PredictRequest struct {
	Gender                string   `json:"gender"`
	Age                   *float64 `json:"age"`
	SleepDuration         *float64 `json:"sleep_duration"`
	QualityOfSleep        *float64 `json:"quality_of_sleep"`
	PhysicalActivityLevel *float64 `json:"physical_activity_level"`
	StressLevel           *float64 `json:"stress_level"`
	BMICategory           string   `json:"bmi_category"`
	BloodPressure         string   `json:"blood_pressure" binding:"omitempty,bloodpressure"`
	HeartRate             *float64 `json:"heart_rate"`
	DailySteps            *float64 `json:"daily_steps"`
}

// RawInput is the untyped view of a predict request: raw parameter values
// keyed by raw field name. String values hold the categorical labels and
// the combined blood-pressure reading; everything else is numeric.
type RawInput map[string]any

// Raw converts the typed request into the RawInput map consumed by the
// dispatcher. Nil numeric fields and empty strings are omitted so the
// validator can report them as missing.
func (r *PredictRequest) Raw() RawInput {
	raw := RawInput{}
	put := func(name string, v *float64) {
		if v != nil {
			raw[name] = *v
		}
	}
	if r.Gender != "" {
		raw["gender"] = r.Gender
	}
	if r.BMICategory != "" {
		raw["bmi_category"] = r.BMICategory
	}
	if r.BloodPressure != "" {
		raw["blood_pressure"] = r.BloodPressure
	}
	put("age", r.Age)
	put("sleep_duration", r.SleepDuration)
	put("quality_of_sleep", r.QualityOfSleep)
	put("physical_activity_level", r.PhysicalActivityLevel)
	put("stress_level", r.StressLevel)
	put("heart_rate", r.HeartRate)
	put("daily_steps", r.DailySteps)
	return raw
}

// =============================================================================
// Result Structures
// =============================================================================

// InferenceResult is the tagged outcome of a server-computed inference.
//
// Mode records which backend produced ClassIndex, so callers can
// distinguish "fell back intentionally" from "encrypted path worked".
// Label is the class index resolved through the frozen label table;
// indices outside the table map to the "Unknown" sentinel.
type InferenceResult struct {
	Mode       InferenceMode `json:"mode"`
	ClassIndex int           `json:"prediction"`
	Label      string        `json:"label"`
	LatencyMs  float64       `json:"latency_ms"`
}

// RiskLevel buckets a risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// RiskAssessment is the rule-based risk summary computed from the raw
// input, independent of the ML backend's outcome.
//
// Factors lists the triggered rule descriptions in rule-evaluation order,
// not severity order.
type RiskAssessment struct {
	Score   int       `json:"risk_score"`
	Level   RiskLevel `json:"risk_level"`
	Factors []string  `json:"risk_factors"`
}

// Recommendation is one advisory record from the fixed catalog.
type Recommendation struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PredictResponse is the JSON envelope for a server-computed prediction.
type PredictResponse struct {
	Prediction      int                 `json:"prediction"`
	Label           string              `json:"label"`
	Interpretation  string              `json:"interpretation"`
	LatencyMs       float64             `json:"latency_ms"`
	Mode            InferenceMode       `json:"mode"`
	Features        FeatureMap          `json:"features"`
	Warnings        map[string][]string `json:"warnings,omitempty"`
	RiskAssessment  RiskAssessment      `json:"risk_assessment"`
	Recommendations []Recommendation    `json:"recommendations"`
}

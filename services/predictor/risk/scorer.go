// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package risk derives a supplementary lifestyle risk assessment and
// personalized recommendations from an encoded feature map.
//
// The assessment is computed independently of the classifier output: it
// reads the same encoded features the model sees and applies a fixed,
// ordered rule set so the same input always produces the same score,
// factor list, and recommendations.
package risk

import (
	"github.com/somnuslabs/somnus/services/predictor/datatypes"
)

// Score thresholds mapping an accumulated score to a risk level.
const (
	highThreshold     = 6
	moderateThreshold = 3
)

// BMI encodings that count as elevated (Obese, Overweight).
func elevatedBMI(code float64) bool {
	return code == 2 || code == 3
}

// Assess scores the encoded features against the fixed rule set and
// returns the accumulated score, its level, and the list of contributing
// factor descriptions in rule order.
//
// Features absent from the map simply skip their rules; Assess never
// fails. Callers validate completeness upstream.
func Assess(features datatypes.FeatureMap) datatypes.RiskAssessment {
	score := 0
	var factors []string

	add := func(points int, factor string) {
		score += points
		factors = append(factors, factor)
	}

	if v, ok := features[datatypes.FeatureSleepDuration]; ok {
		switch {
		case v < 6:
			add(2, "Insufficient sleep duration (<6 hours)")
		case v < 7:
			add(1, "Below optimal sleep duration")
		}
	}
	if v, ok := features[datatypes.FeatureQualityOfSleep]; ok {
		switch {
		case v < 5:
			add(2, "Poor sleep quality")
		case v < 7:
			add(1, "Below average sleep quality")
		}
	}
	if v, ok := features[datatypes.FeatureStressLevel]; ok {
		switch {
		case v > 7:
			add(2, "High stress level")
		case v > 5:
			add(1, "Elevated stress level")
		}
	}
	if v, ok := features[datatypes.FeaturePhysicalActivity]; ok && v < 30 {
		add(1, "Insufficient physical activity")
	}
	if v, ok := features[datatypes.FeatureBMIEncoded]; ok && elevatedBMI(v) {
		add(1, "Elevated BMI")
	}
	sys, hasSys := features[datatypes.FeatureBPSystolic]
	dia, hasDia := features[datatypes.FeatureBPDiastolic]
	if hasSys && hasDia {
		switch {
		case sys > 140 || dia > 90:
			add(2, "Elevated blood pressure")
		case sys > 130 || dia > 85:
			add(1, "Pre-hypertension")
		}
	}
	if v, ok := features[datatypes.FeatureHeartRate]; ok && v > 100 {
		add(1, "Elevated resting heart rate")
	}
	if v, ok := features[datatypes.FeatureDailySteps]; ok && v <= 5000 {
		add(1, "Low daily activity (steps)")
	}

	level := datatypes.RiskLow
	switch {
	case score >= highThreshold:
		level = datatypes.RiskHigh
	case score >= moderateThreshold:
		level = datatypes.RiskModerate
	}

	return datatypes.RiskAssessment{
		Score:   score,
		Level:   level,
		Factors: factors,
	}
}

// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package risk

import (
	"github.com/somnuslabs/somnus/services/predictor/datatypes"
)

// Recommendation categories.
const (
	CategorySleep        = "Sleep"
	CategoryMentalHealth = "Mental Health"
	CategoryExercise     = "Exercise"
	CategoryNutrition    = "Nutrition"
	CategoryHealth       = "Health"
)

// Recommend returns the lifestyle recommendations triggered by the
// encoded features, in fixed rule order. Identical inputs always
// produce the identical list. Absent features skip their rules.
func Recommend(features datatypes.FeatureMap) []datatypes.Recommendation {
	var recs []datatypes.Recommendation

	if v, ok := features[datatypes.FeatureSleepDuration]; ok && v < 7 {
		recs = append(recs, datatypes.Recommendation{
			Category:    CategorySleep,
			Title:       "Increase Sleep Duration",
			Description: "Aim for 7-9 hours of sleep per night for optimal health.",
		})
	}
	if v, ok := features[datatypes.FeatureQualityOfSleep]; ok && v < 7 {
		recs = append(recs, datatypes.Recommendation{
			Category:    CategorySleep,
			Title:       "Improve Sleep Quality",
			Description: "Establish a consistent sleep schedule and create a relaxing bedtime routine.",
		})
	}
	if v, ok := features[datatypes.FeatureStressLevel]; ok && v > 5 {
		recs = append(recs, datatypes.Recommendation{
			Category:    CategoryMentalHealth,
			Title:       "Manage Stress",
			Description: "Practice relaxation techniques like meditation, yoga, or deep breathing exercises.",
		})
	}
	if v, ok := features[datatypes.FeaturePhysicalActivity]; ok && v < 30 {
		recs = append(recs, datatypes.Recommendation{
			Category:    CategoryExercise,
			Title:       "Increase Physical Activity",
			Description: "Aim for at least 30 minutes of moderate exercise daily.",
		})
	}
	if v, ok := features[datatypes.FeatureDailySteps]; ok && v < 8000 {
		recs = append(recs, datatypes.Recommendation{
			Category:    CategoryExercise,
			Title:       "Increase Daily Steps",
			Description: "Target 8,000-10,000 steps per day for better cardiovascular health.",
		})
	}
	if v, ok := features[datatypes.FeatureBMIEncoded]; ok && elevatedBMI(v) {
		recs = append(recs, datatypes.Recommendation{
			Category:    CategoryNutrition,
			Title:       "Weight Management",
			Description: "Consult a healthcare provider about healthy weight management strategies.",
		})
	}
	sys, hasSys := features[datatypes.FeatureBPSystolic]
	dia, hasDia := features[datatypes.FeatureBPDiastolic]
	if (hasSys && sys > 130) || (hasDia && dia > 85) {
		recs = append(recs, datatypes.Recommendation{
			Category:    CategoryHealth,
			Title:       "Monitor Blood Pressure",
			Description: "Consult a healthcare provider about your blood pressure. Reduce sodium intake and increase physical activity.",
		})
	}
	if v, ok := features[datatypes.FeatureHeartRate]; ok && v > 90 {
		recs = append(recs, datatypes.Recommendation{
			Category:    CategoryHealth,
			Title:       "Improve Cardiovascular Health",
			Description: "Regular aerobic exercise can help lower resting heart rate.",
		})
	}

	return recs
}

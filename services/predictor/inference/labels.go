// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package inference

// Target class labels in training order. Class indices produced by
// either backend index into this table.
var targetLabels = []string{"Insomnia", "No Issues", "Sleep Apnea"}

// UnknownLabel is returned for class indices outside the label table.
// Out-of-range indices are surfaced, not clamped.
const UnknownLabel = "Unknown"

// interpretations maps each known label to a short advisory string.
var interpretations = map[string]string{
	"Insomnia":    "Difficulty falling or staying asleep. Consider consulting a sleep specialist.",
	"No Issues":   "No sleep disorder detected. Maintain healthy sleep habits!",
	"Sleep Apnea": "Breathing interruptions during sleep. Medical evaluation recommended.",
}

// Label resolves a class index to its label, or UnknownLabel when the
// index falls outside the table.
func Label(classIndex int) string {
	if classIndex < 0 || classIndex >= len(targetLabels) {
		return UnknownLabel
	}
	return targetLabels[classIndex]
}

// Interpretation returns the advisory text for a label, or "" for
// unknown labels.
func Interpretation(label string) string {
	return interpretations[label]
}

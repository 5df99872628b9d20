package temporal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/2beens/trainingplanner/internal/temporal"
)

func TestRegexClassifier_Pattern(t *testing.T) {
	c := temporal.NewRegexClassifier()

	testCases := []struct {
		name     string
		expected temporal.Pattern
		ok       bool
	}{
		{"Back Squat", temporal.PatternSquat, true},
		{"Leg Press", temporal.PatternSquat, true},
		{"Walking Lunge", temporal.PatternSquat, true},
		{"Romanian Deadlift", temporal.PatternHinge, true},
		{"Glute Bridge", temporal.PatternHinge, true},
		{"Bench Press", temporal.PatternPush, true},
		{"  Overhead PRESS ", temporal.PatternPush, true},
		{"Dips", temporal.PatternPush, true},
		{"Pull-up", temporal.PatternPull, true},
		{"Barbell Row", temporal.PatternPull, true},
		{"Plank", temporal.PatternCore, true},
		{"Ab Crunch", temporal.PatternCore, true},
		{"Farmer Carry", temporal.PatternCarry, true},
		{"Box Jump", temporal.PatternPower, true},
		{"Med Ball Throw", temporal.PatternPower, true},
		{"Bike Intervals", temporal.PatternConditioning, true},
		{"HIIT", temporal.PatternConditioning, true},
		{"Bicep Curl", temporal.PatternUnclassified, false},
		{"", temporal.PatternUnclassified, false},
	}

	for _, tc := range testCases {
		p, ok := c.Pattern(tc.name)
		assert.Equal(t, tc.expected, p, tc.name)
		assert.Equal(t, tc.ok, ok, tc.name)
	}
}

func TestRegexClassifier_Muscles(t *testing.T) {
	c := temporal.NewRegexClassifier()

	assert.Equal(t, []temporal.Muscle{temporal.MuscleChest, temporal.MuscleShoulders}, c.Muscles("Bench Press"))
	assert.Equal(t, []temporal.Muscle{temporal.MuscleBiceps, temporal.MuscleHamstrings}, c.Muscles("Bicep Curl"))
	assert.Equal(t, []temporal.Muscle{temporal.MuscleChest}, c.Muscles("Push-up"))
	assert.Equal(t, []temporal.Muscle{temporal.MuscleGlutes}, c.Muscles("Hip Thrust"))
	assert.Equal(t, []temporal.Muscle{temporal.MuscleCalves}, c.Muscles("Calf Raise"))
	assert.Equal(t, []temporal.Muscle{temporal.MuscleBack}, c.Muscles("Rowing Machine"))
	assert.Nil(t, c.Muscles("yoga flow"))
}

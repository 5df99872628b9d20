package temporal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/trainingplanner/internal/temporal"
	"github.com/2beens/trainingplanner/internal/workout"
)

func session(exercises ...workout.Exercise) temporal.Session {
	return temporal.Session{Workout: workout.Workout{Exercises: exercises}}
}

func ex(name string, sets int, reps string) workout.Exercise {
	return workout.Exercise{Name: name, Sets: sets, Reps: reps}
}

func datedSession(at time.Time, exercises ...workout.Exercise) temporal.Session {
	s := session(exercises...)
	s.Date = &at
	return s
}

// fullBodyWeek returns four sessions covering the fundamental patterns with sets per exercise.
func fullBodyWeek(sets int) []temporal.Session {
	week := make([]temporal.Session, 4)
	for i := range week {
		week[i] = session(
			ex("Back Squat", sets, "5"),
			ex("Romanian Deadlift", sets, "8"),
			ex("Bench Press", sets, "6"),
			ex("Barbell Row", sets, "8-12"),
		)
	}
	return week
}

func upperLower() []temporal.Session {
	return []temporal.Session{
		session(ex("Back Squat", 4, "5"), ex("Bench Press", 4, "5"), ex("Barbell Row", 3, "8"), ex("Plank", 3, "30s")),
		session(ex("Romanian Deadlift", 4, "8"), ex("Overhead Press", 3, "8"), ex("Pull-up", 3, "6-8"), ex("Bicep Curl", 2, "12")),
	}
}

func TestAnalyzer_Micro(t *testing.T) {
	a := temporal.NewAnalyzer(nil)

	m := a.Micro(upperLower())
	assert.Equal(t, 2, m.SessionCount)
	assert.Equal(t, 26, m.TotalVolume)
	assert.Equal(t, map[temporal.Pattern]int{
		temporal.PatternSquat:        1,
		temporal.PatternHinge:        1,
		temporal.PatternPush:         2,
		temporal.PatternPull:         2,
		temporal.PatternCore:         1,
		temporal.PatternCarry:        0,
		temporal.PatternPower:        0,
		temporal.PatternConditioning: 0,
		temporal.PatternUnclassified: 1,
	}, m.PatternDistribution)
	assert.Equal(t, 2, m.MuscleFrequency[temporal.MuscleBack])
	assert.Equal(t, 2, m.MuscleFrequency[temporal.MuscleShoulders])
	assert.Equal(t, 1, m.MuscleFrequency[temporal.MuscleHamstrings])
	assert.Equal(t, 0, m.MuscleFrequency[temporal.MuscleCalves])
	assert.Equal(t, temporal.Variety{UniqueExercises: 8, TotalExercises: 8, VarietyRatio: 1}, m.Variety)

	assert.False(t, m.Recovery.Checked)
	assert.True(t, m.Recovery.Adequate)

	require.Len(t, m.Recommendations, 2)
	assert.Equal(t, "volume", m.Recommendations[0].Type)
	assert.Equal(t, temporal.PriorityMedium, m.Recommendations[0].Priority)
	assert.Equal(t, "data", m.Recommendations[1].Type)
	assert.Equal(t, "1 exercises could not be classified", m.Recommendations[1].Message)
}

func TestAnalyzer_Micro_Imbalances(t *testing.T) {
	a := temporal.NewAnalyzer(nil)

	m := a.Micro([]temporal.Session{
		session(ex("Bench Press", 5, "5"), ex("Overhead Press", 5, "8"), ex("Dips", 5, "10")),
		session(ex("Push-up", 5, "15"), ex("Barbell Row", 5, "10")),
	})

	require.Len(t, m.Recommendations, 3)
	assert.Equal(t, "balance", m.Recommendations[0].Type)
	assert.Equal(t, temporal.PriorityHigh, m.Recommendations[0].Priority)
	assert.Equal(t, "missing_pattern", m.Recommendations[1].Type)
	assert.Equal(t, temporal.PriorityHigh, m.Recommendations[1].Priority)
	assert.Equal(t, "volume", m.Recommendations[2].Type)
}

func TestAnalyzer_Micro_Recovery(t *testing.T) {
	a := temporal.NewAnalyzer(nil)
	monday := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	sessions := upperLower()

	// given out of order on purpose
	tight := a.Micro([]temporal.Session{
		datedSession(monday.Add(24*time.Hour), sessions[1].Exercises...),
		datedSession(monday, sessions[0].Exercises...),
	})
	assert.True(t, tight.Recovery.Checked)
	assert.False(t, tight.Recovery.Adequate)
	assert.Equal(t, []temporal.Muscle{temporal.MuscleBack, temporal.MuscleShoulders}, tight.Recovery.Violations)
	assert.Contains(t, tight.Recommendations, temporal.Recommendation{
		Type:     "recovery",
		Priority: temporal.PriorityMedium,
		Message:  "trained again within 48h: back, shoulders",
	})

	spaced := a.Micro([]temporal.Session{
		datedSession(monday, sessions[0].Exercises...),
		datedSession(monday.Add(72*time.Hour), sessions[1].Exercises...),
	})
	assert.True(t, spaced.Recovery.Checked)
	assert.True(t, spaced.Recovery.Adequate)
	assert.Empty(t, spaced.Recovery.Violations)

	// one undated session disables the check
	partial := a.Micro([]temporal.Session{
		datedSession(monday, sessions[0].Exercises...),
		sessions[1],
	})
	assert.False(t, partial.Recovery.Checked)
}

func TestAnalyzer_Micro_Empty(t *testing.T) {
	m := temporal.NewAnalyzer(nil).Micro(nil)
	assert.Equal(t, 0, m.SessionCount)
	assert.Equal(t, 0.0, m.Variety.VarietyRatio)
	require.Len(t, m.Recommendations, 1)
	assert.Equal(t, "no sessions to analyze", m.Recommendations[0].Message)
}

func TestAnalyzer_Meso(t *testing.T) {
	a := temporal.NewAnalyzer(nil)

	var sessions []temporal.Session
	for _, sets := range []int{3, 4, 5, 2} {
		sessions = append(sessions, fullBodyWeek(sets)...)
	}

	m := a.Meso(sessions)
	assert.True(t, m.Sufficient)
	assert.Equal(t, 4, m.WeekCount)
	assert.Equal(t, 16, m.SessionCount)
	assert.Equal(t, []int{48, 64, 80, 32}, m.VolumeProgression)
	assert.Equal(t, temporal.ShapeUndulating, m.Shape)
	assert.True(t, m.HasDeload)
	assert.True(t, m.PatternCoverage.Complete)
	assert.Empty(t, m.PatternCoverage.Missing)
	assert.Len(t, m.IntensityProgression, 4)
	assert.Empty(t, m.Recommendations)
}

func TestAnalyzer_Meso_FlatWithoutDeload(t *testing.T) {
	a := temporal.NewAnalyzer(nil)

	var sessions []temporal.Session
	for i := 0; i < 4; i++ {
		sessions = append(sessions, fullBodyWeek(3)...)
	}

	m := a.Meso(sessions)
	assert.False(t, m.HasDeload)
	require.Len(t, m.Recommendations, 2)
	assert.Equal(t, "recovery", m.Recommendations[0].Type)
	assert.Equal(t, "progression", m.Recommendations[1].Type)
}

func TestAnalyzer_Meso_MissingPatterns(t *testing.T) {
	a := temporal.NewAnalyzer(nil)

	sessions := make([]temporal.Session, 6)
	for i := range sessions {
		sessions[i] = session(ex("Bench Press", 3+i, "8"), ex("Barbell Row", 3+i, "8"))
	}

	m := a.Meso(sessions)
	assert.Equal(t, 2, m.WeekCount)
	assert.Equal(t, temporal.ShapeInsufficientData, m.Shape)
	assert.Equal(t, []temporal.Pattern{temporal.PatternSquat, temporal.PatternHinge}, m.PatternCoverage.Missing)
	require.NotEmpty(t, m.Recommendations)
	assert.Equal(t, "patterns missing in the mesocycle: squat, hinge", m.Recommendations[0].Message)
}

func TestAnalyzer_Meso_NotEnoughSessions(t *testing.T) {
	m := temporal.NewAnalyzer(nil).Meso(upperLower())
	assert.False(t, m.Sufficient)
	assert.Equal(t, temporal.ShapeInsufficientData, m.Shape)
	assert.Equal(t, 0, m.WeekCount)
	require.Len(t, m.Recommendations, 1)
	assert.Equal(t, "data", m.Recommendations[0].Type)
}

func TestDetectShape(t *testing.T) {
	testCases := []struct {
		volumes  []int
		expected temporal.Shape
	}{
		{nil, temporal.ShapeInsufficientData},
		{[]int{5, 5}, temporal.ShapeInsufficientData},
		{[]int{10, 8, 6, 4}, temporal.ShapeLinearTaper},
		{[]int{10, 8, 8, 6}, temporal.ShapeLinearTaper},
		{[]int{4, 6, 8, 10}, temporal.ShapeAccumulation},
		{[]int{5, 8, 6}, temporal.ShapeUndulating},
		{[]int{6, 6, 6}, temporal.ShapeUndulating},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, temporal.DetectShape(tc.volumes), "%v", tc.volumes)
	}
}

func TestDetectDeload(t *testing.T) {
	assert.False(t, temporal.DetectDeload([]int{10, 5, 3}))
	assert.True(t, temporal.DetectDeload([]int{10, 10, 10, 5}))
	// exactly 60% is not a deload
	assert.False(t, temporal.DetectDeload([]int{10, 10, 10, 6}))
	assert.False(t, temporal.DetectDeload([]int{10, 10, 10, 10}))
}

func TestEstimateIntensity(t *testing.T) {
	assert.Equal(t, temporal.IntensityVeryHigh, temporal.EstimateIntensity([]temporal.Session{session(ex("a", 3, "3-5"))}))
	assert.Equal(t, temporal.IntensityHigh, temporal.EstimateIntensity([]temporal.Session{session(ex("a", 3, "5"), ex("b", 3, "8"))}))
	assert.Equal(t, temporal.IntensityModerate, temporal.EstimateIntensity([]temporal.Session{session(ex("a", 3, "8-12"))}))
	assert.Equal(t, temporal.IntensityLow, temporal.EstimateIntensity([]temporal.Session{session(ex("a", 3, "15"))}))
	// timed work carries no rep target
	assert.Equal(t, temporal.IntensityModerate, temporal.EstimateIntensity([]temporal.Session{session(ex("a", 3, "30s"))}))
}

func TestAnalyzer_Macro(t *testing.T) {
	a := temporal.NewAnalyzer(nil)

	sessions := make([]temporal.Session, 20)
	for i := range sessions {
		sessions[i] = session(ex("Back Squat", 4, "5"), ex("Box Jump", 3, "5"), ex("Bench Press", 4, "8"))
	}

	m := a.Macro(sessions, []string{"Vertical jump", "Strength", "Endurance", "yoga"})
	assert.Equal(t, 2, m.MesocycleCount)
	assert.Equal(t, 20, m.TotalSessions)
	require.Len(t, m.Phases, 2)
	assert.Equal(t, temporal.MesocycleSummary{
		Mesocycle:    1,
		AvgVolume:    11,
		AvgIntensity: temporal.IntensityHigh,
		Focus:        "squat",
	}, m.Phases[0])
	assert.Equal(t, 2, m.Phases[1].Mesocycle)

	assert.Equal(t, []temporal.GoalAlignment{
		{Goal: "Vertical jump", Aligned: true, Note: "power work present"},
		{Goal: "Strength", Aligned: true, Note: "compound movements present"},
		{Goal: "Endurance", Aligned: false, Note: "add more conditioning"},
	}, m.GoalAlignment)
	assert.Equal(t, "low", m.OvertrainingRisk.Risk)
	assert.Equal(t, []string{
		"power and explosiveness expected to improve",
		"lower body strength expected to improve",
	}, m.Predictions)
}

func TestAnalyzer_Macro_OvertrainingRisk(t *testing.T) {
	a := temporal.NewAnalyzer(nil)

	heavy := []temporal.Session{session(ex("Back Squat", 16, "5"), ex("Bench Press", 15, "5"))}
	assert.Equal(t, "high", a.Macro(heavy, nil).OvertrainingRisk.Risk)

	busy := []temporal.Session{session(ex("Back Squat", 13, "5"), ex("Bench Press", 13, "5"))}
	assert.Equal(t, "moderate", a.Macro(busy, nil).OvertrainingRisk.Risk)

	empty := a.Macro(nil, []string{"strength"})
	assert.Equal(t, 0, empty.MesocycleCount)
	assert.Equal(t, "low", empty.OvertrainingRisk.Risk)
	assert.Empty(t, empty.Predictions)
	assert.False(t, empty.GoalAlignment[0].Aligned)
}

type everythingIsPull struct{}

func (everythingIsPull) Pattern(string) (temporal.Pattern, bool) { return temporal.PatternPull, true }
func (everythingIsPull) Muscles(string) []temporal.Muscle { return []temporal.Muscle{temporal.MuscleBack} }

func TestAnalyzer_CustomClassifier(t *testing.T) {
	a := temporal.NewAnalyzer(everythingIsPull{})

	m := a.Micro(upperLower())
	assert.Equal(t, 8, m.PatternDistribution[temporal.PatternPull])
	assert.Equal(t, 0, m.PatternDistribution[temporal.PatternUnclassified])
	assert.Equal(t, 2, m.MuscleFrequency[temporal.MuscleBack])
}

func TestAnalyzer_Analyze(t *testing.T) {
	a := temporal.NewAnalyzer(nil)

	var sessions []temporal.Session
	for _, sets := range []int{3, 3, 4, 4, 2} {
		sessions = append(sessions, fullBodyWeek(sets)...)
	}

	report := a.Analyze(sessions, nil)
	assert.Equal(t, 4, report.Micro.SessionCount)
	assert.Equal(t, 16, report.Meso.SessionCount)
	assert.Equal(t, []int{48, 64, 64, 32}, report.Meso.VolumeProgression)
	assert.True(t, report.Meso.HasDeload)
	assert.Equal(t, 20, report.Macro.TotalSessions)
}

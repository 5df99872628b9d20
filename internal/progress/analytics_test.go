package progress_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/trainingplanner/internal/progress"
	"github.com/2beens/trainingplanner/internal/telemetry/metrics"
)

func TestSlope(t *testing.T) {
	assert.Equal(t, 0.0, progress.Slope(nil))
	assert.Equal(t, 0.0, progress.Slope([]float64{5}))
	assert.Equal(t, 0.0, progress.Slope([]float64{3, 3, 3}))
	assert.InDelta(t, 1.0, progress.Slope([]float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, -2.0, progress.Slope([]float64{9, 7, 5, 3}), 1e-9)
}

// recordWeeks logs one workout and one feedback per entry, advancing the week after each.
func recordWeeks(t *testing.T, tracker *progress.Tracker, athleteID string, volumes []float64, weeks []progress.WeekInput) {
	t.Helper()
	ctx := context.Background()
	for i, in := range weeks {
		if volumes != nil {
			_, err := tracker.RecordWorkout(ctx, athleteID, progress.WorkoutInput{TotalVolume: volumes[i]})
			require.NoError(t, err)
		}
		_, err := tracker.RecordWeeklyFeedback(ctx, athleteID, in)
		require.NoError(t, err)
		_, err = tracker.AdvanceWeek(ctx, athleteID)
		require.NoError(t, err)
	}
}

func TestProgressionTrend(t *testing.T) {
	testCases := []struct {
		name            string
		volumes         []float64
		weeks           []progress.WeekInput
		expectedAction  string
		expectedUrgency string
		fatigueWarning  bool
	}{
		{
			name: "overreaching",
			weeks: []progress.WeekInput{
				{Fatigue: 3, Performance: "excellent"},
				{Fatigue: 5, Performance: "improving"},
				{Fatigue: 7, Performance: "stable"},
				{Fatigue: 9, Performance: "declining"},
			},
			expectedAction:  "reduce_load",
			expectedUrgency: "high",
			fatigueWarning:  true,
		},
		{
			name: "adapting well",
			weeks: []progress.WeekInput{
				{Fatigue: 5, Performance: "stable"},
				{Fatigue: 5, Performance: "improving"},
				{Fatigue: 5, Performance: "excellent"},
			},
			expectedAction:  "increase_load",
			expectedUrgency: "low",
		},
		{
			name:    "volume dropping under fatigue",
			volumes: []float64{3000, 2000, 1000},
			weeks: []progress.WeekInput{
				{Fatigue: 4},
				{Fatigue: 6},
				{Fatigue: 8},
			},
			expectedAction:  "rest",
			expectedUrgency: "medium",
			fatigueWarning:  true,
		},
		{
			name:            "steady",
			weeks:           []progress.WeekInput{{}, {}},
			expectedAction:  "continue",
			expectedUrgency: "low",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tracker, _, athleteID := newTestTracker(t)
			recordWeeks(t, tracker, athleteID, tc.volumes, tc.weeks)

			trend, err := tracker.ProgressionTrend(context.Background(), athleteID, 0)
			require.NoError(t, err)
			require.NotNil(t, trend)
			assert.Equal(t, tc.expectedAction, trend.Recommendation.Action)
			assert.Equal(t, tc.expectedUrgency, trend.Recommendation.Urgency)
			assert.Equal(t, tc.fatigueWarning, trend.Fatigue.Warning)
		})
	}
}

func TestProgressionTrend_Directions(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)
	recordWeeks(t, tracker, athleteID, []float64{1000, 1500, 2000}, []progress.WeekInput{
		{Fatigue: 7, Performance: "improving"},
		{Fatigue: 6, Performance: "stable"},
		{Fatigue: 5, Performance: "declining"},
	})

	trend, err := tracker.ProgressionTrend(context.Background(), athleteID, 3)
	require.NoError(t, err)
	require.NotNil(t, trend)
	assert.Equal(t, "decreasing", trend.Fatigue.Trend)
	assert.Equal(t, "declining", trend.Performance.Trend)
	assert.Equal(t, "increasing", trend.Volume.Trend)
	assert.InDelta(t, 500.0, trend.Volume.Value, 1e-9)
}

func TestProgressionTrend_WindowUsesMostRecentWeeks(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)
	recordWeeks(t, tracker, athleteID, nil, []progress.WeekInput{
		{Fatigue: 9}, {Fatigue: 2}, {Fatigue: 2},
	})

	trend, err := tracker.ProgressionTrend(context.Background(), athleteID, 2)
	require.NoError(t, err)
	require.NotNil(t, trend)
	assert.Equal(t, 0.0, trend.Fatigue.Value)
	assert.Equal(t, "stable", trend.Fatigue.Trend)
}

func TestProgressionTrend_NotEnoughWeeks(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)
	recordWeeks(t, tracker, athleteID, nil, []progress.WeekInput{{}})

	trend, err := tracker.ProgressionTrend(context.Background(), athleteID, 4)
	require.NoError(t, err)
	assert.Nil(t, trend)
}

func TestProgressSummary(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)
	ctx := context.Background()

	recordWeeks(t, tracker, athleteID, []float64{2000, 2500}, []progress.WeekInput{
		{Performance: "excellent", Fatigue: 5, Motivation: 8},
		{Performance: "excellent", Fatigue: 5, Motivation: 8, Notes: "felt strong"},
	})
	_, err := tracker.RecordWorkout(ctx, athleteID, progress.WorkoutInput{
		TotalVolume: 1200,
		AvgRPE:      8,
		PRs:         []progress.PR{{Exercise: "deadlift", Weight: 180}},
	})
	require.NoError(t, err)
	_, err = tracker.RecordWorkout(ctx, athleteID, progress.WorkoutInput{TotalVolume: 800, AvgRPE: 6})
	require.NoError(t, err)

	summary, err := tracker.ProgressSummary(ctx, athleteID)
	require.NoError(t, err)
	assert.Equal(t, "strength block", summary.MacroStatus.Template)
	assert.Equal(t, "3/6", summary.MacroStatus.Week)
	assert.Equal(t, "Accumulation", summary.MacroStatus.Phase)
	assert.Equal(t, 50, summary.MacroStatus.ProgressPercent)
	assert.Equal(t, progress.StatusActive, summary.MacroStatus.Status)

	assert.Equal(t, 3, summary.CurrentWeek.Week)
	assert.Equal(t, 2, summary.CurrentWeek.WorkoutsCompleted)
	assert.Equal(t, 2000.0, summary.CurrentWeek.TotalVolume)
	assert.Equal(t, 7.0, summary.CurrentWeek.AvgRPE)
	assert.Equal(t, []progress.PR{{Exercise: "deadlift", Weight: 180}}, summary.CurrentWeek.PRsThisWeek)

	assert.NotNil(t, summary.Trend)
	assert.Equal(t, 4, summary.TotalWorkouts)
	assert.Equal(t, 2, summary.TotalWeeksTracked)
	assert.Equal(t, map[string]float64{"deadlift": 180}, summary.CurrentPRs)
	assert.Equal(t, 2, summary.Adaptation.ExcellentStreak)
	require.NotNil(t, summary.LastFeedback)
	assert.Equal(t, "felt strong", summary.LastFeedback.Notes)
}

func TestProgressSummary_FreshAthlete(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)

	summary, err := tracker.ProgressSummary(context.Background(), athleteID)
	require.NoError(t, err)
	assert.Equal(t, "1/6", summary.MacroStatus.Week)
	assert.Equal(t, 17, summary.MacroStatus.ProgressPercent)
	assert.Nil(t, summary.Trend)
	assert.Nil(t, summary.LastFeedback)
	assert.Empty(t, summary.CurrentWeek.PRsThisWeek)
}

func TestLastCompletedAt(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)
	ctx := context.Background()

	_, found, err := tracker.LastCompletedAt(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = tracker.LastCompletedAt(ctx, athleteID)
	require.NoError(t, err)
	assert.False(t, found)

	later := trackerNow.Add(-24 * time.Hour)
	earlier := trackerNow.Add(-72 * time.Hour)
	for _, at := range []time.Time{later, earlier} {
		at := at
		_, err := tracker.RecordWorkout(ctx, athleteID, progress.WorkoutInput{CompletedAt: &at})
		require.NoError(t, err)
	}

	last, found, err := tracker.LastCompletedAt(ctx, athleteID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, later, last)
}

func TestDeloadSignals(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)
	ctx := context.Background()

	_, err := tracker.RecordWorkout(ctx, athleteID, progress.WorkoutInput{AvgRPE: 8})
	require.NoError(t, err)
	_, err = tracker.RecordWorkout(ctx, athleteID, progress.WorkoutInput{AvgRPE: 9})
	require.NoError(t, err)
	_, err = tracker.RecordWeeklyFeedback(ctx, athleteID, progress.WeekInput{
		WorkoutsCompleted: 3,
		WorkoutsPlanned:   4,
		HRV:               62,
	})
	require.NoError(t, err)

	_, err = tracker.SkipToDeload(ctx, athleteID)
	require.NoError(t, err)
	_, err = tracker.RecordWeeklyFeedback(ctx, athleteID, progress.WeekInput{})
	require.NoError(t, err)

	week, signals, err := tracker.DeloadSignals(ctx, athleteID)
	require.NoError(t, err)
	assert.Equal(t, 6, week)
	require.Len(t, signals, 2)

	assert.Equal(t, 1, signals[0].WeekNumber)
	assert.Equal(t, "accumulation", signals[0].Phase)
	assert.Equal(t, 8.5, signals[0].AvgRPE)
	require.NotNil(t, signals[0].Compliance)
	assert.Equal(t, 75.0, *signals[0].Compliance)
	assert.Equal(t, 62.0, signals[0].HRV)
	assert.Equal(t, 3, signals[0].CompletedWorkouts)

	assert.Equal(t, 6, signals[1].WeekNumber)
	assert.Equal(t, "deload", signals[1].Phase)
	assert.Equal(t, 0.0, signals[1].AvgRPE)
	assert.Equal(t, 100.0, *signals[1].Compliance)

	_, _, err = tracker.DeloadSignals(ctx, "unknown")
	assert.ErrorIs(t, err, progress.ErrAthleteNotFound)
}

func TestTracker_WeekStats(t *testing.T) {
	tracker := progress.NewTracker(progress.NewMemStore(), metrics.NewTestManager())
	_, err := tracker.WeekStats(context.Background(), "missing")
	assert.ErrorIs(t, err, progress.ErrAthleteNotFound)
}

package progress_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/trainingplanner/internal/progress"
	"github.com/2beens/trainingplanner/internal/telemetry/metrics"
	"github.com/2beens/trainingplanner/internal/workout"
)

var trackerNow = time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)

func testTemplate() progress.Template {
	return progress.Template{
		Name:          "strength block",
		Goal:          "strength",
		DurationWeeks: 6,
		Phases: []progress.TemplatePhase{
			{Name: "Accumulation", Weeks: []int{1, 2, 3}},
			{Name: "Intensification", Weeks: []int{4, 5}},
			{Name: "Deload", Weeks: []int{6}},
		},
	}
}

func newTestTracker(t *testing.T) (*progress.Tracker, *metrics.Manager, string) {
	t.Helper()
	m := metrics.NewTestManager()
	tracker := progress.NewTracker(progress.NewMemStore(), m)
	tracker.SetNow(func() time.Time { return trackerNow })

	athleteID := gofakeit.UUID()
	_, err := tracker.InitializeAthlete(context.Background(), athleteID, testTemplate())
	require.NoError(t, err)
	return tracker, m, athleteID
}

func TestTracker_InitializeAthlete(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)
	ctx := context.Background()

	p, err := tracker.Progress(ctx, athleteID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Version)
	assert.Equal(t, 1, p.MacroPlan.CurrentWeek)
	assert.Equal(t, "Accumulation", p.MacroPlan.CurrentPhase)
	assert.Equal(t, 6, p.MacroPlan.TotalWeeks)
	assert.Equal(t, progress.StatusActive, p.MacroPlan.Status)
	assert.Equal(t, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), p.MacroPlan.StartDate)
	assert.Empty(t, p.WeekHistory)

	// second initialization keeps the existing state
	_, err = tracker.AdvanceWeek(ctx, athleteID)
	require.NoError(t, err)
	other := testTemplate()
	other.Name = "another"
	again, err := tracker.InitializeAthlete(ctx, athleteID, other)
	require.NoError(t, err)
	assert.Equal(t, "strength block", again.MacroPlan.TemplateName)
	assert.Equal(t, 2, again.MacroPlan.CurrentWeek)
}

func TestTracker_InitializeAthlete_InvalidTemplate(t *testing.T) {
	tracker := progress.NewTracker(progress.NewMemStore(), metrics.NewTestManager())

	_, err := tracker.InitializeAthlete(context.Background(), "a1", progress.Template{Name: "empty"})
	assert.ErrorIs(t, err, progress.ErrInvalidTemplate)

	// duration is derived from the phase layout when missing
	p, err := tracker.InitializeAthlete(context.Background(), "a1", progress.Template{
		Phases: []progress.TemplatePhase{{Name: "Base", Weeks: []int{1, 2}}, {Name: "Deload", Weeks: []int{3}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, p.MacroPlan.TotalWeeks)
}

func TestTracker_UnknownAthlete(t *testing.T) {
	tracker := progress.NewTracker(progress.NewMemStore(), metrics.NewTestManager())
	ctx := context.Background()

	_, err := tracker.RecordWeeklyFeedback(ctx, "nobody", progress.WeekInput{})
	assert.ErrorIs(t, err, progress.ErrAthleteNotFound)
	_, err = tracker.AdvanceWeek(ctx, "nobody")
	assert.ErrorIs(t, err, progress.ErrAthleteNotFound)
	_, err = tracker.ProgressSummary(ctx, "nobody")
	assert.ErrorIs(t, err, progress.ErrAthleteNotFound)
}

func TestTracker_RecordWeeklyFeedback_Defaults(t *testing.T) {
	tracker, m, athleteID := newTestTracker(t)

	fb, err := tracker.RecordWeeklyFeedback(context.Background(), athleteID, progress.WeekInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, fb.WeekNumber)
	assert.Equal(t, "Accumulation", fb.Phase)
	assert.Equal(t, trackerNow, fb.Date)
	assert.Equal(t, 5, fb.Fatigue)
	assert.Equal(t, 7, fb.Motivation)
	assert.Equal(t, 5, fb.Stress)
	assert.Equal(t, "good", fb.SleepQuality)
	assert.Equal(t, 7.0, fb.SleepHours)
	assert.Equal(t, "mild", fb.MuscleSoreness)
	assert.Equal(t, progress.PerformanceStable, fb.Performance)
	assert.Equal(t, 1.0, fb.AdherenceRate)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterFeedbackRecorded))

	fb, err = tracker.RecordWeeklyFeedback(context.Background(), athleteID, progress.WeekInput{
		WorkoutsCompleted: 2,
		WorkoutsPlanned:   4,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, fb.AdherenceRate)
}

func TestTracker_AdaptationSignals(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)
	ctx := context.Background()

	steps := []struct {
		in                       progress.WeekInput
		excellent, poor, overrun int
	}{
		{progress.WeekInput{Performance: "excellent", Fatigue: 5, Motivation: 8}, 1, 0, 0},
		{progress.WeekInput{Performance: "excellent", Fatigue: 6, Motivation: 7}, 2, 0, 0},
		{progress.WeekInput{}, 1, 0, 0},
		{progress.WeekInput{Performance: "declining", Fatigue: 9}, 0, 1, 1},
		{progress.WeekInput{Fatigue: 8}, 0, 2, 1},
		{progress.WeekInput{}, 0, 1, 1},
		{progress.WeekInput{}, 0, 0, 1},
		{progress.WeekInput{}, 0, 0, 1},
		{progress.WeekInput{Performance: "excellent", Fatigue: 7, Motivation: 9}, 0, 0, 1},
	}

	for i, step := range steps {
		_, err := tracker.RecordWeeklyFeedback(ctx, athleteID, step.in)
		require.NoError(t, err)

		p, err := tracker.Progress(ctx, athleteID)
		require.NoError(t, err)
		s := p.AdaptationSignals
		assert.Equal(t, step.excellent, s.ConsecutiveExcellentWeeks, "step %d excellent", i)
		assert.Equal(t, step.poor, s.ConsecutivePoorWeeks, "step %d poor", i)
		assert.Equal(t, step.overrun, s.OverreachingFlags, "step %d overreaching", i)
	}
}

func TestTracker_WeekHistoryIsBounded(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)
	ctx := context.Background()

	for i := 1; i <= progress.MaxWeekHistory+3; i++ {
		_, err := tracker.RecordWeeklyFeedback(ctx, athleteID, progress.WeekInput{Notes: fmt.Sprintf("week %d", i)})
		require.NoError(t, err)
	}

	p, err := tracker.Progress(ctx, athleteID)
	require.NoError(t, err)
	require.Len(t, p.WeekHistory, progress.MaxWeekHistory)
	assert.Equal(t, "week 4", p.WeekHistory[0].Notes)
	assert.Equal(t, "week 55", p.WeekHistory[len(p.WeekHistory)-1].Notes)
}

func TestTracker_AdvanceWeek(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)
	ctx := context.Background()

	expected := []struct {
		week    int
		phase   string
		changed bool
	}{
		{2, "Accumulation", false},
		{3, "Accumulation", false},
		{4, "Intensification", true},
		{5, "Intensification", false},
		{6, "Deload", true},
	}
	for _, e := range expected {
		res, err := tracker.AdvanceWeek(ctx, athleteID)
		require.NoError(t, err)
		assert.Equal(t, e.week, res.NewWeek)
		assert.Equal(t, e.phase, res.NewPhase)
		assert.Equal(t, e.changed, res.PhaseChanged, "week %d", e.week)
		assert.Equal(t, progress.StatusActive, res.Status)
	}

	res, err := tracker.AdvanceWeek(ctx, athleteID)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusCompleted, res.Status)
	assert.Equal(t, 6, res.NewWeek)

	_, err = tracker.AdvanceWeek(ctx, athleteID)
	assert.ErrorIs(t, err, progress.ErrPlanCompleted)
	_, err = tracker.SkipToDeload(ctx, athleteID)
	assert.ErrorIs(t, err, progress.ErrPlanCompleted)
	_, err = tracker.ExtendCurrentPhase(ctx, athleteID)
	assert.ErrorIs(t, err, progress.ErrPlanCompleted)

	// feedback is still accepted after completion
	_, err = tracker.RecordWeeklyFeedback(ctx, athleteID, progress.WeekInput{})
	assert.NoError(t, err)
}

func TestTracker_SkipToDeload(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)
	ctx := context.Background()

	_, err := tracker.AdvanceWeek(ctx, athleteID)
	require.NoError(t, err)

	res, err := tracker.SkipToDeload(ctx, athleteID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SkippedFrom)
	assert.Equal(t, 6, res.NewWeek)
	assert.Equal(t, "Deload", res.NewPhase)

	p, err := tracker.Progress(ctx, athleteID)
	require.NoError(t, err)
	assert.Equal(t, 6, p.MacroPlan.CurrentWeek)
	assert.Equal(t, "Deload", p.MacroPlan.CurrentPhase)
	assert.Equal(t, 1, p.AdaptationSignals.PhaseSkips)
	require.NotNil(t, p.AdaptationSignals.LastDeloadWeek)
	assert.Equal(t, 6, *p.AdaptationSignals.LastDeloadWeek)
}

func TestTracker_SkipToDeload_NoDeloadPhase(t *testing.T) {
	tracker := progress.NewTracker(progress.NewMemStore(), metrics.NewTestManager())
	ctx := context.Background()

	_, err := tracker.InitializeAthlete(ctx, "a1", progress.Template{
		Name:          "no rest",
		DurationWeeks: 4,
		Phases:        []progress.TemplatePhase{{Name: "Base", Weeks: []int{1, 2, 3, 4}}},
	})
	require.NoError(t, err)

	_, err = tracker.SkipToDeload(ctx, "a1")
	assert.ErrorIs(t, err, progress.ErrNoDeloadPhase)
}

func TestTracker_ExtendCurrentPhase(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)
	ctx := context.Background()

	res, err := tracker.ExtendCurrentPhase(ctx, athleteID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExtensionsTotal)
	assert.Equal(t, "phase Accumulation extended, repeat week 1", res.Message)

	res, err = tracker.ExtendCurrentPhase(ctx, athleteID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ExtensionsTotal)

	p, err := tracker.Progress(ctx, athleteID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.MacroPlan.CurrentWeek)
}

func TestTracker_RecordWorkout(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)
	ctx := context.Background()

	rec, err := tracker.RecordWorkout(ctx, athleteID, progress.WorkoutInput{
		PRs: []progress.PR{{Exercise: "squat", Weight: 120}},
	})
	require.NoError(t, err)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", rec.ID.String())
	assert.Equal(t, trackerNow, rec.Date)
	assert.Equal(t, 1, rec.Week)
	assert.Equal(t, "Accumulation", rec.Phase)
	assert.Equal(t, workout.TypeStrength, rec.WorkoutType)
	assert.Equal(t, 60, rec.DurationMinutes)
	assert.Equal(t, 7.0, rec.AvgRPE)
	assert.Equal(t, 8.0, rec.MaxRPE)
	assert.Equal(t, 70.0, rec.AvgIntensityPercent)
	assert.Equal(t, "good", rec.PerceivedQuality)
	assert.Equal(t, 7, rec.EnergyLevel)

	_, err = tracker.RecordWorkout(ctx, athleteID, progress.WorkoutInput{
		PRs: []progress.PR{{Exercise: "squat", Weight: 110}, {Exercise: "bench", Weight: 80}},
	})
	require.NoError(t, err)

	p, err := tracker.Progress(ctx, athleteID)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"squat": 120, "bench": 80}, p.KeyMetrics.StrengthPRs)
	assert.Len(t, p.WorkoutHistory, 2)
}

func TestTracker_RecordWorkout_FromWorkout(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)
	completed := trackerNow.Add(-2 * time.Hour)

	rec, err := tracker.RecordWorkout(context.Background(), athleteID, progress.WorkoutInput{
		Type:        "hypertrophy",
		CompletedAt: &completed,
		Workout: &workout.Workout{
			Name: "lower",
			Exercises: []workout.Exercise{
				{Name: "Bike", Type: workout.TypeWarmup, Sets: 1, Reps: "10"},
				{Name: "Squat", Sets: 4, Reps: "5", Weight: 100},
				{Name: "Row", Sets: 3, Reps: "8-12", Weight: 50},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, completed, rec.Date)
	assert.Equal(t, "hypertrophy", rec.WorkoutType)
	assert.Equal(t, 3, rec.ExercisesCount)
	assert.Equal(t, 8, rec.TotalSets)
	assert.Equal(t, 60, rec.TotalReps)
	assert.Equal(t, 3500.0, rec.TotalVolume)
	assert.Equal(t, []string{"Squat", "Row"}, rec.MainExercises)
}

func TestTracker_ConcurrentWorkouts(t *testing.T) {
	tracker, _, athleteID := newTestTracker(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tracker.RecordWorkout(ctx, athleteID, progress.WorkoutInput{TotalVolume: 100})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := tracker.Progress(ctx, athleteID)
	require.NoError(t, err)
	assert.Len(t, p.WorkoutHistory, n)
	assert.Equal(t, int64(n+1), p.Version)
}

func storedProgress() *progress.AthleteProgress {
	return &progress.AthleteProgress{
		AthleteID: "a1",
		Version:   3,
		MacroPlan: progress.MacroPlan{
			CurrentWeek:  1,
			CurrentPhase: "Base",
			TotalWeeks:   4,
			Status:       progress.StatusActive,
			Phases:       []progress.TemplatePhase{{Name: "Base", Weeks: []int{1, 2, 3, 4}}},
		},
		KeyMetrics: progress.KeyMetrics{StrengthPRs: map[string]float64{}},
	}
}

func TestTracker_RetriesOnVersionConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	m := metrics.NewTestManager()
	tracker := progress.NewTracker(store, m)

	store.EXPECT().
		Load(gomock.Any(), "a1").
		DoAndReturn(func(_ context.Context, _ string) (*progress.AthleteProgress, error) {
			return storedProgress(), nil
		}).
		Times(2)
	gomock.InOrder(
		store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(progress.ErrVersionConflict),
		store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *progress.AthleteProgress) error {
			assert.Equal(t, 2, p.MacroPlan.CurrentWeek)
			return nil
		}),
	)

	res, err := tracker.AdvanceWeek(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.NewWeek)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterVersionConflicts))
}

func TestTracker_WithoutMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	tracker := progress.NewTracker(store, nil)
	tracker.SetNow(func() time.Time { return trackerNow })

	store.EXPECT().
		Load(gomock.Any(), "a1").
		DoAndReturn(func(_ context.Context, _ string) (*progress.AthleteProgress, error) {
			return storedProgress(), nil
		}).
		Times(2)
	gomock.InOrder(
		store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(progress.ErrVersionConflict),
		store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil),
	)

	week, err := tracker.RecordWeeklyFeedback(context.Background(), "a1", progress.WeekInput{Fatigue: 6})
	require.NoError(t, err)
	assert.Equal(t, 6, week.Fatigue)
}

func TestTracker_GivesUpAfterRepeatedConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	m := metrics.NewTestManager()
	tracker := progress.NewTracker(store, m)

	store.EXPECT().
		Load(gomock.Any(), "a1").
		DoAndReturn(func(_ context.Context, _ string) (*progress.AthleteProgress, error) {
			return storedProgress(), nil
		}).
		Times(3)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(progress.ErrVersionConflict).Times(3)

	_, err := tracker.ExtendCurrentPhase(context.Background(), "a1")
	require.Error(t, err)
	assert.ErrorIs(t, err, progress.ErrVersionConflict)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterVersionConflicts))
}

func TestTracker_StoreErrorIsNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	tracker := progress.NewTracker(store, metrics.NewTestManager())

	store.EXPECT().Load(gomock.Any(), "a1").Return(storedProgress(), nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	_, err := tracker.RecordWorkout(context.Background(), "a1", progress.WorkoutInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestTracker_InitializeAthlete_LostCreateRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	tracker := progress.NewTracker(store, metrics.NewTestManager())

	existing := storedProgress()
	gomock.InOrder(
		store.EXPECT().Load(gomock.Any(), "a1").Return(nil, progress.ErrAthleteNotFound),
		store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(progress.ErrVersionConflict),
		store.EXPECT().Load(gomock.Any(), "a1").Return(existing, nil),
	)

	p, err := tracker.InitializeAthlete(context.Background(), "a1", testTemplate())
	require.NoError(t, err)
	assert.Same(t, existing, p)
}

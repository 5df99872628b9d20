package progress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/trainingplanner/internal/normalize"
	"github.com/2beens/trainingplanner/internal/telemetry/metrics"
	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
	"github.com/2beens/trainingplanner/internal/workout"
)

var (
	ErrNoDeloadPhase = errors.New("no upcoming deload phase in plan")
	ErrPlanCompleted = errors.New("plan already completed")
)

const maxSaveAttempts = 3

// Tracker records where each athlete is in their plan and what they reported.
// Mutations of one athlete are serialised in-process and guarded by the store version
// across processes.
type Tracker struct {
	store   Store
	locks   *keyedMutex
	metrics *metrics.Manager
	now     func() time.Time
}

// NewTracker builds a tracker over store. A nil metricsManager disables its counters.
func NewTracker(store Store, metricsManager *metrics.Manager) *Tracker {
	return &Tracker{
		store:   store,
		locks:   newKeyedMutex(),
		metrics: metricsManager,
		now:     time.Now,
	}
}

func (t *Tracker) SetNow(now func() time.Time) {
	t.now = now
}

// mutate runs fn on a fresh copy of the athlete's progress and saves it, retrying from a
// new read when another writer got there first.
func (t *Tracker) mutate(ctx context.Context, athleteID string, fn func(p *AthleteProgress) error) (*AthleteProgress, error) {
	unlock := t.locks.Lock(athleteID)
	defer unlock()

	for attempt := 1; ; attempt++ {
		p, err := t.store.Load(ctx, athleteID)
		if err != nil {
			return nil, err
		}
		if err := fn(p); err != nil {
			return nil, err
		}
		p.UpdatedAt = t.now().UTC()

		err = t.store.Save(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrVersionConflict) || attempt >= maxSaveAttempts {
			return nil, fmt.Errorf("save progress: %w", err)
		}

		if t.metrics != nil {
			t.metrics.CounterVersionConflicts.Inc()
		}
		log.Warnf("progress of athlete [%s] changed concurrently, retrying (attempt %d)", athleteID, attempt)
	}
}

// InitializeAthlete starts tracking athleteID on tmpl. An athlete already tracked is
// returned unchanged.
func (t *Tracker) InitializeAthlete(ctx context.Context, athleteID string, tmpl Template) (_ *AthleteProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.initialize")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("athlete", athleteID))

	tmpl = tmpl.withDuration()
	if err := tmpl.validate(); err != nil {
		return nil, err
	}

	unlock := t.locks.Lock(athleteID)
	defer unlock()

	existing, err := t.store.Load(ctx, athleteID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrAthleteNotFound) {
		return nil, err
	}

	now := t.now().UTC()
	p := newAthleteProgress(athleteID, tmpl, now)
	if err := t.store.Save(ctx, p); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			// created by another instance in the meantime
			return t.store.Load(ctx, athleteID)
		}
		return nil, fmt.Errorf("save progress: %w", err)
	}

	log.Debugf("athlete [%s] initialized on template [%s], %d weeks", athleteID, tmpl.Name, tmpl.DurationWeeks)
	return p, nil
}

func newAthleteProgress(athleteID string, tmpl Template, now time.Time) *AthleteProgress {
	phases := make([]TemplatePhase, len(tmpl.Phases))
	for i, ph := range tmpl.Phases {
		phases[i] = TemplatePhase{Name: ph.Name, Weeks: append([]int(nil), ph.Weeks...)}
	}

	return &AthleteProgress{
		AthleteID: athleteID,
		CreatedAt: now,
		UpdatedAt: now,
		MacroPlan: MacroPlan{
			TemplateName: tmpl.Name,
			Goal:         tmpl.Goal,
			StartDate:    time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
			CurrentWeek:  1,
			CurrentPhase: phases[0].Name,
			TotalWeeks:   tmpl.DurationWeeks,
			Status:       StatusActive,
			Phases:       phases,
		},
		WeekHistory:    []WeekFeedback{},
		WorkoutHistory: []WorkoutRecord{},
		KeyMetrics: KeyMetrics{
			StrengthPRs:      map[string]float64{},
			BodyMeasurements: []BodyMeasurement{},
			PerformanceTests: []PerformanceTest{},
		},
	}
}

func (t *Tracker) Progress(ctx context.Context, athleteID string) (*AthleteProgress, error) {
	return t.store.Load(ctx, athleteID)
}

// WeekInput is the athlete's weekly check-in. Zero values fall back to neutral defaults.
type WeekInput struct {
	Fatigue           int      `json:"fatigue"`
	Motivation        int      `json:"motivation"`
	Stress            int      `json:"stress"`
	SleepQuality      string   `json:"sleepQuality"`
	SleepHours        float64  `json:"sleepHours"`
	MuscleSoreness    string   `json:"muscleSoreness"`
	Performance       string   `json:"performance"`
	WorkoutsCompleted int      `json:"workoutsCompleted"`
	WorkoutsPlanned   int      `json:"workoutsPlanned"`
	HRV               float64  `json:"hrv"`
	PRsAchieved       []string `json:"prsAchieved"`
	Notes             string   `json:"notes"`
}

func orDefault[T int | float64 | string](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func (t *Tracker) RecordWeeklyFeedback(ctx context.Context, athleteID string, in WeekInput) (_ *WeekFeedback, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.recordWeeklyFeedback")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("athlete", athleteID))

	var record WeekFeedback
	_, err = t.mutate(ctx, athleteID, func(p *AthleteProgress) error {
		adherence := 1.0
		if in.WorkoutsPlanned > 0 {
			adherence = float64(in.WorkoutsCompleted) / float64(in.WorkoutsPlanned)
		}

		record = WeekFeedback{
			WeekNumber:        p.MacroPlan.CurrentWeek,
			Phase:             p.MacroPlan.CurrentPhase,
			Date:              t.now().UTC(),
			Fatigue:           orDefault(in.Fatigue, 5),
			Motivation:        orDefault(in.Motivation, 7),
			Stress:            orDefault(in.Stress, 5),
			SleepQuality:      orDefault(in.SleepQuality, "good"),
			SleepHours:        orDefault(in.SleepHours, 7),
			MuscleSoreness:    orDefault(in.MuscleSoreness, "mild"),
			Performance:       orDefault(in.Performance, PerformanceStable),
			WorkoutsCompleted: max(0, in.WorkoutsCompleted),
			WorkoutsPlanned:   max(0, in.WorkoutsPlanned),
			AdherenceRate:     adherence,
			HRV:               math.Max(0, in.HRV),
			PRsAchieved:       append([]string{}, in.PRsAchieved...),
			Notes:             in.Notes,
		}

		p.WeekHistory = append(p.WeekHistory, record)
		if len(p.WeekHistory) > MaxWeekHistory {
			p.WeekHistory = p.WeekHistory[len(p.WeekHistory)-MaxWeekHistory:]
		}
		updateAdaptationSignals(&p.AdaptationSignals, record)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if t.metrics != nil {
		t.metrics.CounterFeedbackRecorded.Inc()
	}
	return &record, nil
}

func updateAdaptationSignals(s *AdaptationSignals, w WeekFeedback) {
	switch {
	case w.Performance == PerformanceExcellent && w.Fatigue <= 6 && w.Motivation >= 7:
		s.ConsecutiveExcellentWeeks++
		s.ConsecutivePoorWeeks = 0
	case w.Performance == PerformanceDeclining || w.Fatigue >= 8 || w.Motivation <= 4:
		s.ConsecutivePoorWeeks++
		s.ConsecutiveExcellentWeeks = 0
	default:
		s.ConsecutiveExcellentWeeks = max(0, s.ConsecutiveExcellentWeeks-1)
		s.ConsecutivePoorWeeks = max(0, s.ConsecutivePoorWeeks-1)
	}

	if w.Fatigue >= 8 && w.Performance == PerformanceDeclining {
		s.OverreachingFlags++
	}
}

type AdvanceResult struct {
	Status       Status `json:"status"`
	NewWeek      int    `json:"newWeek"`
	NewPhase     string `json:"newPhase"`
	PhaseChanged bool   `json:"phaseChanged"`
	Message      string `json:"message"`
}

// AdvanceWeek moves the athlete to the next week. Advancing past the last week completes
// the plan; a completed plan cannot be advanced.
func (t *Tracker) AdvanceWeek(ctx context.Context, athleteID string) (_ *AdvanceResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.advanceWeek")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("athlete", athleteID))

	var res AdvanceResult
	_, err = t.mutate(ctx, athleteID, func(p *AthleteProgress) error {
		plan := &p.MacroPlan
		if plan.Status == StatusCompleted {
			return ErrPlanCompleted
		}

		next := plan.CurrentWeek + 1
		if next > plan.TotalWeeks {
			plan.Status = StatusCompleted
			res = AdvanceResult{
				Status:   StatusCompleted,
				NewWeek:  plan.CurrentWeek,
				NewPhase: plan.CurrentPhase,
				Message:  "macro plan completed, time to start a new cycle",
			}
			return nil
		}

		phase := plan.CurrentPhase
		if name, ok := phaseOfWeek(plan.Phases, next); ok {
			phase = name
		}
		changed := phase != plan.CurrentPhase
		plan.CurrentWeek = next
		plan.CurrentPhase = phase

		res = AdvanceResult{
			Status:       plan.Status,
			NewWeek:      next,
			NewPhase:     phase,
			PhaseChanged: changed,
			Message:      fmt.Sprintf("week %d of phase %s", next, phase),
		}
		if changed {
			res.Message = fmt.Sprintf("new phase started: %s", phase)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.PhaseChanged {
		log.Debugf("athlete [%s] entered phase [%s] at week %d", athleteID, res.NewPhase, res.NewWeek)
	} else if res.Status == StatusCompleted {
		log.Debugf("athlete [%s] completed the plan", athleteID)
	}
	return &res, nil
}

type SkipResult struct {
	SkippedFrom int    `json:"skippedFrom"`
	NewWeek     int    `json:"newWeek"`
	NewPhase    string `json:"newPhase"`
	Message     string `json:"message"`
}

// SkipToDeload jumps forward to the first week of the next deload phase.
func (t *Tracker) SkipToDeload(ctx context.Context, athleteID string) (_ *SkipResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.skipToDeload")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("athlete", athleteID))

	var res SkipResult
	_, err = t.mutate(ctx, athleteID, func(p *AthleteProgress) error {
		plan := &p.MacroPlan
		if plan.Status == StatusCompleted {
			return ErrPlanCompleted
		}

		phase, week, ok := nextDeload(plan.Phases, plan.CurrentWeek)
		if !ok {
			return ErrNoDeloadPhase
		}

		res = SkipResult{
			SkippedFrom: plan.CurrentWeek,
			NewWeek:     week,
			NewPhase:    phase,
			Message:     fmt.Sprintf("skipped to deload (week %d) on overreaching signals", week),
		}
		plan.CurrentWeek = week
		plan.CurrentPhase = phase
		p.AdaptationSignals.PhaseSkips++
		p.AdaptationSignals.LastDeloadWeek = &week
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debugf("athlete [%s] skipped from week %d to deload week %d", athleteID, res.SkippedFrom, res.NewWeek)
	return &res, nil
}

// nextDeload finds the earliest deload-phase week at or after the current week.
func nextDeload(phases []TemplatePhase, current int) (string, int, bool) {
	bestPhase, bestWeek := "", 0
	for _, ph := range phases {
		if !IsDeloadPhase(ph.Name) {
			continue
		}
		for _, w := range ph.Weeks {
			if w >= current && (bestWeek == 0 || w < bestWeek) {
				bestPhase, bestWeek = ph.Name, w
			}
		}
	}
	return bestPhase, bestWeek, bestWeek > 0
}

type ExtendResult struct {
	Message         string `json:"message"`
	ExtensionsTotal int    `json:"extensionsTotal"`
}

// ExtendCurrentPhase repeats the current week instead of advancing.
func (t *Tracker) ExtendCurrentPhase(ctx context.Context, athleteID string) (_ *ExtendResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.extendCurrentPhase")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("athlete", athleteID))

	var res ExtendResult
	_, err = t.mutate(ctx, athleteID, func(p *AthleteProgress) error {
		if p.MacroPlan.Status == StatusCompleted {
			return ErrPlanCompleted
		}
		p.AdaptationSignals.PhaseExtensions++
		res = ExtendResult{
			Message:         fmt.Sprintf("phase %s extended, repeat week %d", p.MacroPlan.CurrentPhase, p.MacroPlan.CurrentWeek),
			ExtensionsTotal: p.AdaptationSignals.PhaseExtensions,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// WorkoutInput describes a completed session. When Workout is set, exercise count,
// sets, reps and volume are derived from it unless given explicitly.
type WorkoutInput struct {
	Type            string           `json:"type"`
	DurationMinutes int              `json:"duration"`
	Workout         *workout.Workout `json:"workout,omitempty"`
	ExercisesCount  int              `json:"exercisesCount"`
	TotalSets       int              `json:"totalSets"`
	TotalReps       int              `json:"totalReps"`
	TotalVolume     float64          `json:"totalVolume"`
	AvgRPE          float64          `json:"avgRpe"`
	MaxRPE          float64          `json:"maxRpe"`
	AvgIntensity    float64          `json:"avgIntensity"`
	Quality         string           `json:"quality"`
	Energy          int              `json:"energy"`
	PRs             []PR             `json:"prs"`
	MainExercises   []string         `json:"mainExercises"`
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`
}

func (t *Tracker) RecordWorkout(ctx context.Context, athleteID string, in WorkoutInput) (_ *WorkoutRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.recordWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("athlete", athleteID))

	id := uuid.New()
	date := t.now().UTC()
	if in.CompletedAt != nil {
		date = in.CompletedAt.UTC()
	}
	if in.Workout != nil {
		in = withWorkoutTotals(in, *in.Workout)
	}

	var record WorkoutRecord
	_, err = t.mutate(ctx, athleteID, func(p *AthleteProgress) error {
		record = WorkoutRecord{
			ID:                  id,
			Date:                date,
			Week:                p.MacroPlan.CurrentWeek,
			Phase:               p.MacroPlan.CurrentPhase,
			WorkoutType:         orDefault(in.Type, workout.TypeStrength),
			DurationMinutes:     orDefault(in.DurationMinutes, 60),
			ExercisesCount:      max(0, in.ExercisesCount),
			TotalSets:           max(0, in.TotalSets),
			TotalReps:           max(0, in.TotalReps),
			TotalVolume:         math.Max(0, in.TotalVolume),
			AvgRPE:              orDefault(in.AvgRPE, 7),
			MaxRPE:              orDefault(in.MaxRPE, 8),
			AvgIntensityPercent: orDefault(in.AvgIntensity, 70),
			PerceivedQuality:    orDefault(in.Quality, "good"),
			EnergyLevel:         orDefault(in.Energy, 7),
			PRs:                 append([]PR{}, in.PRs...),
			MainExercises:       append([]string{}, in.MainExercises...),
		}

		p.WorkoutHistory = append(p.WorkoutHistory, record)
		if len(p.WorkoutHistory) > MaxWorkoutHistory {
			p.WorkoutHistory = p.WorkoutHistory[len(p.WorkoutHistory)-MaxWorkoutHistory:]
		}
		updatePRs(p.KeyMetrics.StrengthPRs, in.PRs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func withWorkoutTotals(in WorkoutInput, w workout.Workout) WorkoutInput {
	sets, reps, volume := 0, 0.0, 0.0
	for _, ex := range w.Exercises {
		if ex.Sets <= 0 {
			continue
		}
		r := normalize.RepsEquivalent(ex.Reps) * float64(ex.Sets)
		sets += ex.Sets
		reps += r
		volume += r * ex.Weight
	}

	if in.ExercisesCount == 0 {
		in.ExercisesCount = len(w.Exercises)
	}
	if in.TotalSets == 0 {
		in.TotalSets = sets
	}
	if in.TotalReps == 0 {
		in.TotalReps = int(math.Round(reps))
	}
	if in.TotalVolume == 0 {
		in.TotalVolume = math.Round(volume)
	}
	if len(in.MainExercises) == 0 {
		for _, ex := range w.Exercises {
			if !ex.IsWarmupOrCooldown() {
				in.MainExercises = append(in.MainExercises, ex.Name)
			}
		}
	}
	return in
}

func updatePRs(prs map[string]float64, newPRs []PR) {
	for _, pr := range newPRs {
		if current, ok := prs[pr.Exercise]; !ok || pr.Weight > current {
			prs[pr.Exercise] = pr.Weight
		}
	}
}

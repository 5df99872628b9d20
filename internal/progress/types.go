package progress

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

const (
	// MaxWeekHistory bounds the weekly feedback kept per athlete.
	MaxWeekHistory = 52
	// MaxWorkoutHistory bounds the workout records kept per athlete.
	MaxWorkoutHistory = 500
)

const (
	PerformanceDeclining = "declining"
	PerformanceStable    = "stable"
	PerformanceImproving = "improving"
	PerformanceExcellent = "excellent"
)

type TemplatePhase struct {
	Name  string `json:"name"`
	Weeks []int  `json:"weeks"`
}

type MacroPlan struct {
	TemplateName string          `json:"templateName"`
	Goal         string          `json:"goal"`
	StartDate    time.Time       `json:"startDate"`
	CurrentWeek  int             `json:"currentWeek"`
	CurrentPhase string          `json:"currentPhase"`
	TotalWeeks   int             `json:"totalWeeks"`
	Status       Status          `json:"status"`
	Phases       []TemplatePhase `json:"phases"`
}

type WeekFeedback struct {
	WeekNumber        int       `json:"weekNumber"`
	Phase             string    `json:"phase"`
	Date              time.Time `json:"date"`
	Fatigue           int       `json:"fatigue"`
	Motivation        int       `json:"motivation"`
	Stress            int       `json:"stress"`
	SleepQuality      string    `json:"sleepQuality"`
	SleepHours        float64   `json:"sleepHours"`
	MuscleSoreness    string    `json:"muscleSoreness"`
	Performance       string    `json:"performance"`
	WorkoutsCompleted int       `json:"workoutsCompleted"`
	WorkoutsPlanned   int       `json:"workoutsPlanned"`
	AdherenceRate     float64   `json:"adherenceRate"`
	HRV               float64   `json:"hrv,omitempty"`
	PRsAchieved       []string  `json:"prsAchieved"`
	Notes             string    `json:"notes"`
}

type PR struct {
	Exercise string  `json:"exercise"`
	Weight   float64 `json:"weight"`
}

type WorkoutRecord struct {
	ID                  uuid.UUID `json:"id"`
	Date                time.Time `json:"date"`
	Week                int       `json:"week"`
	Phase               string    `json:"phase"`
	WorkoutType         string    `json:"workoutType"`
	DurationMinutes     int       `json:"durationMinutes"`
	ExercisesCount      int       `json:"exercisesCount"`
	TotalSets           int       `json:"totalSets"`
	TotalReps           int       `json:"totalReps"`
	TotalVolume         float64   `json:"totalVolume"`
	AvgRPE              float64   `json:"avgRpe"`
	MaxRPE              float64   `json:"maxRpe"`
	AvgIntensityPercent float64   `json:"avgIntensityPercent"`
	PerceivedQuality    string    `json:"perceivedQuality"`
	EnergyLevel         int       `json:"energyLevel"`
	PRs                 []PR      `json:"prs"`
	MainExercises       []string  `json:"mainExercises"`
}

type BodyMeasurement struct {
	Date    time.Time `json:"date"`
	Weight  float64   `json:"weight"`
	BodyFat float64   `json:"bodyFat,omitempty"`
}

type PerformanceTest struct {
	Date     time.Time `json:"date"`
	TestName string    `json:"testName"`
	Result   float64   `json:"result"`
}

type KeyMetrics struct {
	StrengthPRs      map[string]float64 `json:"strengthPRs"`
	BodyMeasurements []BodyMeasurement  `json:"bodyMeasurements"`
	PerformanceTests []PerformanceTest  `json:"performanceTests"`
}

type AdaptationSignals struct {
	ConsecutiveExcellentWeeks int  `json:"consecutiveExcellentWeeks"`
	ConsecutivePoorWeeks      int  `json:"consecutivePoorWeeks"`
	OverreachingFlags         int  `json:"overreachingFlags"`
	LastDeloadWeek            *int `json:"lastDeloadWeek"`
	PhaseExtensions           int  `json:"phaseExtensions"`
	PhaseSkips                int  `json:"phaseSkips"`
}

// AthleteProgress is the whole per-athlete document. It is always read and written as
// one unit; Version guards concurrent writers.
type AthleteProgress struct {
	AthleteID         string            `json:"athleteId"`
	Version           int64             `json:"version"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
	MacroPlan         MacroPlan         `json:"macroPlan"`
	WeekHistory       []WeekFeedback    `json:"weekHistory"`
	WorkoutHistory    []WorkoutRecord   `json:"workoutHistory"`
	KeyMetrics        KeyMetrics        `json:"keyMetrics"`
	AdaptationSignals AdaptationSignals `json:"adaptationSignals"`
}

// Clone returns a deep copy.
func (p *AthleteProgress) Clone() *AthleteProgress {
	c := *p

	c.MacroPlan.Phases = make([]TemplatePhase, len(p.MacroPlan.Phases))
	for i, ph := range p.MacroPlan.Phases {
		c.MacroPlan.Phases[i] = TemplatePhase{Name: ph.Name, Weeks: append([]int(nil), ph.Weeks...)}
	}

	c.WeekHistory = make([]WeekFeedback, len(p.WeekHistory))
	for i, w := range p.WeekHistory {
		w.PRsAchieved = append([]string(nil), w.PRsAchieved...)
		c.WeekHistory[i] = w
	}

	c.WorkoutHistory = make([]WorkoutRecord, len(p.WorkoutHistory))
	for i, w := range p.WorkoutHistory {
		w.PRs = append([]PR(nil), w.PRs...)
		w.MainExercises = append([]string(nil), w.MainExercises...)
		c.WorkoutHistory[i] = w
	}

	c.KeyMetrics.StrengthPRs = make(map[string]float64, len(p.KeyMetrics.StrengthPRs))
	for k, v := range p.KeyMetrics.StrengthPRs {
		c.KeyMetrics.StrengthPRs[k] = v
	}
	c.KeyMetrics.BodyMeasurements = append([]BodyMeasurement(nil), p.KeyMetrics.BodyMeasurements...)
	c.KeyMetrics.PerformanceTests = append([]PerformanceTest(nil), p.KeyMetrics.PerformanceTests...)

	if p.AdaptationSignals.LastDeloadWeek != nil {
		w := *p.AdaptationSignals.LastDeloadWeek
		c.AdaptationSignals.LastDeloadWeek = &w
	}

	return &c
}

package load

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
	"github.com/2beens/trainingplanner/internal/workout"
)

//go:generate mockgen -source=$GOFILE -destination=optimizer_mocks_test.go -package=load_test

// HistoryLimit is the number of weeks kept per athlete.
const HistoryLimit = 16

const (
	minPersonalDataPoints = 4
	defaultChronicLoad    = 500.0
	goodFeelingThreshold  = 4
	minGoodWeeks          = 3
)

type historyRepo interface {
	// Push stores rec as the most recent week and keeps at most limit entries.
	Push(ctx context.Context, athleteID string, rec WeeklyLoadRecord, limit int) error
	// List returns the history most-recent-first.
	List(ctx context.Context, athleteID string) ([]WeeklyLoadRecord, error)
}

type PersonalLoadParameters struct {
	MaxWeeklyLoad float64   `json:"maxWeeklyLoad"`
	AvgWeeklyLoad float64   `json:"avgWeeklyLoad"`
	OptimalACWR   float64   `json:"optimalACWR"`
	DataPoints    int       `json:"dataPoints"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

type WeekInput struct {
	Week       int      `json:"week"`
	Load       float64  `json:"load"`
	RPE        *float64 `json:"rpe,omitempty"`
	Compliance *float64 `json:"compliance,omitempty"`
	Feeling    *int     `json:"feeling,omitempty"`
	Sessions   int      `json:"sessions"`
}

type Assessment struct {
	ACWR ACWR       `json:"acwr"`
	Zone ZoneResult `json:"zone"`
}

type LoadSuggestion struct {
	TargetLoad  float64    `json:"targetLoad"`
	Range       Range      `json:"range"`
	TargetACWR  float64    `json:"targetACWR"`
	ChronicLoad float64    `json:"chronicLoad"`
	Phase       string     `json:"phase"`
	Confidence  Confidence `json:"confidence"`
}

type Recommendation struct {
	Priority string `json:"priority"`
	Text     string `json:"text"`
}

type State struct {
	CurrentLoad     float64          `json:"currentLoad"`
	Trend           string           `json:"trend"`
	ACWR            ACWR             `json:"acwr"`
	Zone            ZoneResult       `json:"zone"`
	Fatigue         string           `json:"fatigue"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Optimizer keeps per-athlete weekly load history and derives load targets from it.
type Optimizer struct {
	repo historyRepo
	now  func() time.Time
}

func NewOptimizer(repo historyRepo) *Optimizer {
	return &Optimizer{
		repo: repo,
		now:  time.Now,
	}
}

func (o *Optimizer) RecordWeek(ctx context.Context, athleteID string, in WeekInput) (_ *WeeklyLoadRecord, _ *PersonalLoadParameters, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "load.optimizer.recordWeek")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("athlete", athleteID))

	rec := WeeklyLoadRecord{
		Week:       in.Week,
		Load:       math.Max(0, in.Load),
		RPE:        in.RPE,
		Compliance: in.Compliance,
		Feeling:    in.Feeling,
		Sessions:   in.Sessions,
		RecordedAt: o.now().UTC(),
	}

	if err := o.repo.Push(ctx, athleteID, rec, HistoryLimit); err != nil {
		return nil, nil, fmt.Errorf("push weekly load: %w", err)
	}

	history, err := o.repo.List(ctx, athleteID)
	if err != nil {
		return nil, nil, fmt.Errorf("list load history: %w", err)
	}

	log.Debugf("weekly load recorded for athlete [%s]: %.0f (week %d)", athleteID, rec.Load, rec.Week)
	return &rec, CalculatePersonalParameters(history, o.now()), nil
}

func (o *Optimizer) History(ctx context.Context, athleteID string) ([]WeeklyLoadRecord, *PersonalLoadParameters, error) {
	history, err := o.repo.List(ctx, athleteID)
	if err != nil {
		return nil, nil, fmt.Errorf("list load history: %w", err)
	}
	return history, CalculatePersonalParameters(history, o.now()), nil
}

func (o *Optimizer) Assess(ctx context.Context, athleteID, sport string, currentWeekLoad float64) (*Assessment, error) {
	history, err := o.repo.List(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("list load history: %w", err)
	}
	acwr := ComputeACWR(history, currentWeekLoad)
	return &Assessment{
		ACWR: acwr,
		Zone: ClassifyZone(acwr.Value, TargetsForSport(sport)),
	}, nil
}

var phaseTargetACWR = map[string]float64{
	"deload":           0.6,
	"adattamento":      0.85,
	"accumulo":         1.1,
	"intensificazione": 1.15,
	"peaking":          0.9,
	"realizzazione":    0.7,
}

// PhaseTargetACWR returns the ACWR a phase should aim for (1.0 when unknown).
func PhaseTargetACWR(phase string) float64 {
	if v, ok := phaseTargetACWR[strings.ToLower(strings.TrimSpace(phase))]; ok {
		return v
	}
	return 1.0
}

// SuggestOptimalLoad proposes the weekly load for a phase. readiness <= 0 means unknown.
func (o *Optimizer) SuggestOptimalLoad(ctx context.Context, athleteID, sport, phase string, readiness float64) (*LoadSuggestion, error) {
	history, err := o.repo.List(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("list load history: %w", err)
	}
	return suggestLoad(history, sport, phase, readiness), nil
}

func suggestLoad(history []WeeklyLoadRecord, sport, phase string, readiness float64) *LoadSuggestion {
	chronic := defaultChronicLoad
	if len(history) >= minHistoryWeeks {
		chronic = chronicEWMA(history)
	}

	targetACWR := PhaseTargetACWR(phase)
	if readiness > 0 {
		if readiness < 60 {
			targetACWR *= 0.85
		} else if readiness > 85 {
			targetACWR *= 1.1
		}
	}

	targets := TargetsForSport(sport)
	confidence := ConfidenceLow
	switch {
	case len(history) >= chronicWindow:
		confidence = ConfidenceHigh
	case len(history) >= 2:
		confidence = ConfidenceMedium
	}

	return &LoadSuggestion{
		TargetLoad: math.Round(chronic * targetACWR),
		Range: Range{
			Min: math.Round(chronic * targets.Optimal.Min),
			Max: math.Round(chronic * targets.Optimal.Max),
		},
		TargetACWR:  round2(targetACWR),
		ChronicLoad: math.Round(chronic),
		Phase:       phase,
		Confidence:  confidence,
	}
}

func (o *Optimizer) AnalyzeCurrentState(ctx context.Context, athleteID, sport string, currentWeekLoad float64) (*State, error) {
	history, err := o.repo.List(ctx, athleteID)
	if err != nil {
		return nil, fmt.Errorf("list load history: %w", err)
	}
	return analyzeState(history, CalculatePersonalParameters(history, o.now()), sport, currentWeekLoad), nil
}

func analyzeState(history []WeeklyLoadRecord, params *PersonalLoadParameters, sport string, currentWeekLoad float64) *State {
	acwr := ComputeACWR(history, currentWeekLoad)
	state := &State{
		CurrentLoad:     currentWeekLoad,
		Trend:           "stable",
		ACWR:            acwr,
		Zone:            ClassifyZone(acwr.Value, TargetsForSport(sport)),
		Fatigue:         "normal",
		Recommendations: []Recommendation{},
	}

	if len(history) >= 2 {
		lastWeek := history[0].Load
		change := (currentWeekLoad - lastWeek) / math.Max(1, lastWeek)
		switch {
		case change > 0.15:
			state.Trend = "increasing_fast"
		case change > 0.05:
			state.Trend = "increasing"
		case change < -0.15:
			state.Trend = "decreasing_fast"
		case change < -0.05:
			state.Trend = "decreasing"
		}
	}

	if len(history) >= 3 {
		avgRecent := (history[0].Load + history[1].Load + history[2].Load) / 3
		avgHistoric := avgRecent
		if params != nil {
			avgHistoric = params.AvgWeeklyLoad
		}
		switch {
		case avgRecent > avgHistoric*1.2:
			state.Fatigue = "high"
		case avgRecent > avgHistoric*1.1:
			state.Fatigue = "moderate"
		case avgRecent < avgHistoric*0.7:
			state.Fatigue = "low"
		}
	}

	if state.Zone.Risk == RiskHigh {
		state.Recommendations = append(state.Recommendations, Recommendation{Priority: "critical", Text: state.Zone.Recommendation})
	}
	if state.Fatigue == "high" {
		state.Recommendations = append(state.Recommendations, Recommendation{Priority: "high", Text: "accumulated fatigue is high, consider a deload"})
	}
	if state.Trend == "increasing_fast" {
		state.Recommendations = append(state.Recommendations, Recommendation{Priority: "medium", Text: "load is rising fast, monitor recovery"})
	}

	return state
}

// CalculatePersonalParameters derives per-athlete load parameters from a most-recent-first
// history. It returns nil with fewer than 4 data points.
func CalculatePersonalParameters(history []WeeklyLoadRecord, now time.Time) *PersonalLoadParameters {
	if len(history) < minPersonalDataPoints {
		return nil
	}

	maxLoad, sum := 0.0, 0.0
	for _, h := range history {
		maxLoad = math.Max(maxLoad, h.Load)
		sum += h.Load
	}

	optimalACWR := 1.0
	var goodIdx []int
	for i, h := range history {
		if h.Feeling != nil && *h.Feeling >= goodFeelingThreshold {
			goodIdx = append(goodIdx, i)
		}
	}
	if len(goodIdx) >= minGoodWeeks {
		var acwrs []float64
		for _, i := range goodIdx {
			chronicStart := i + 1
			if chronicStart >= len(history) {
				continue
			}
			chronicEnd := min(chronicStart+chronicWindow, len(history))
			chronicSum := 0.0
			for _, h := range history[chronicStart:chronicEnd] {
				chronicSum += h.Load
			}
			chronic := chronicSum / float64(chronicEnd-chronicStart)
			if chronic > 0 {
				acwrs = append(acwrs, history[i].Load/chronic)
			}
		}
		if len(acwrs) > 0 {
			total := 0.0
			for _, a := range acwrs {
				total += a
			}
			optimalACWR = total / float64(len(acwrs))
		}
	}

	return &PersonalLoadParameters{
		MaxWeeklyLoad: maxLoad,
		AvgWeeklyLoad: math.Round(sum / float64(len(history))),
		OptimalACWR:   round2(optimalACWR),
		DataPoints:    len(history),
		LastUpdated:   now.UTC(),
	}
}

type LoadAction string

const (
	LoadActionReduce   LoadAction = "reduce"
	LoadActionIncrease LoadAction = "increase"
	LoadActionMaintain LoadAction = "maintain"
)

type Optimization struct {
	CurrentLoad      float64         `json:"currentLoad"`
	TargetLoad       float64         `json:"targetLoad"`
	Ratio            float64         `json:"ratio"`
	Action           LoadAction      `json:"action"`
	Amount           int             `json:"amount,omitempty"`
	Options          []string        `json:"options"`
	AdjustmentNeeded bool            `json:"adjustmentNeeded"`
	Adjusted         workout.Workout `json:"adjusted"`
}

const (
	minSetsPerExercise = 2
	maxSetsPerExercise = 6
)

// OptimizeWorkoutForLoad compares a planned session against a target load and, when the
// gap exceeds 20%, returns a copy of the workout with sets scaled toward the target.
// The input workout is not modified.
func OptimizeWorkoutForLoad(w workout.Workout, targetLoad, rpe float64) Optimization {
	if rpe <= 0 {
		rpe = DefaultRPE
	}
	currentLoad := ComputeWorkoutLoad(w, rpe)
	ratio := targetLoad / math.Max(1, currentLoad)

	opt := Optimization{
		CurrentLoad: currentLoad,
		TargetLoad:  targetLoad,
		Ratio:       round2(ratio),
		Action:      LoadActionMaintain,
		Options:     []string{"load already on target"},
		Adjusted:    w.Clone(),
	}

	switch {
	case ratio < 0.8:
		reduction := int(math.Round((1 - ratio) * 100))
		opt.Action = LoadActionReduce
		opt.Amount = reduction
		opt.AdjustmentNeeded = true
		opt.Options = []string{
			fmt.Sprintf("reduce sets by %d%%", int(math.Round(float64(reduction)*0.7))),
			fmt.Sprintf("reduce exercises from %d to %d", len(w.Exercises), max(4, int(math.Round(float64(max(len(w.Exercises), 1))*ratio)))),
			fmt.Sprintf("lower target RPE to %.0f", math.Max(5, rpe-1)),
		}
		scaleSets(&opt.Adjusted, ratio)
	case ratio > 1.2:
		increase := int(math.Round((ratio - 1) * 100))
		opt.Action = LoadActionIncrease
		opt.Amount = increase
		opt.AdjustmentNeeded = true
		opt.Options = []string{
			fmt.Sprintf("increase sets by %d%%", int(math.Round(float64(increase)*0.7))),
			"add 1-2 accessory exercises",
			fmt.Sprintf("raise target RPE to %.0f", math.Min(9, rpe+1)),
		}
		scaleSets(&opt.Adjusted, ratio)
	}

	return opt
}

func scaleSets(w *workout.Workout, ratio float64) {
	for i := range w.Exercises {
		ex := &w.Exercises[i]
		if ex.IsWarmupOrCooldown() || ex.Sets <= 0 {
			continue
		}
		sets := int(math.Round(float64(ex.Sets) * ratio))
		if ratio > 1 {
			ex.Sets = min(sets, max(maxSetsPerExercise, ex.Sets))
		} else {
			ex.Sets = min(ex.Sets, max(minSetsPerExercise, sets))
		}
	}
}

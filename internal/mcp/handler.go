package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/trainingplanner/internal/adaptive"
	"github.com/2beens/trainingplanner/internal/load"
	"github.com/2beens/trainingplanner/internal/macrocycle"
	"github.com/2beens/trainingplanner/internal/periodization"
	"github.com/2beens/trainingplanner/internal/progress"
	"github.com/2beens/trainingplanner/internal/telemetry/metrics"
	"github.com/2beens/trainingplanner/internal/temporal"
	"github.com/2beens/trainingplanner/internal/workout"
)

const maxAnalyzedSessions = 1000

type macroPlanner interface {
	CreatePlan(ctx context.Context, athleteID, sport, eventName string, target time.Time) (*macrocycle.Plan, error)
	CurrentPhase(ctx context.Context, athleteID string, date time.Time) (*macrocycle.PhaseProgress, error)
}

type loadAssessor interface {
	Assess(ctx context.Context, athleteID, sport string, currentWeekLoad float64) (*load.Assessment, error)
}

type weekAdapter interface {
	Adapt(week int, ac adaptive.AthleteContext, fb adaptive.Feedback) (adaptive.Adapted, adaptive.Guidance)
}

type progressReader interface {
	ProgressionTrend(ctx context.Context, athleteID string, weeks int) (*progress.Trend, error)
	ProgressSummary(ctx context.Context, athleteID string) (*progress.Summary, error)
}

// Deps are the planner components exposed as tools.
type Deps struct {
	Macro    macroPlanner
	Load     loadAssessor
	Adapter  weekAdapter
	Progress progressReader
	Analyzer *temporal.Analyzer
	Metrics  *metrics.Manager
}

// Handler turns tool arguments into planner calls and formats the results as JSON text.
// Domain failures come back as IsError results, never as Go errors.
type Handler struct {
	deps Deps
	now  func() time.Time
}

func NewHandler(deps Deps) *Handler {
	if deps.Analyzer == nil {
		deps.Analyzer = temporal.NewAnalyzer(nil)
	}
	return &Handler{
		deps: deps,
		now:  time.Now,
	}
}

func (h *Handler) SetNow(now func() time.Time) {
	h.now = now
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return textResult(string(raw))
}

// MesocycleInput is the input for generate_mesocycle.
type MesocycleInput struct {
	Goal  string `json:"goal" jsonschema:"Training goal: strength, hypertrophy, power, endurance (Italian aliases accepted, e.g. forza)"`
	Sport string `json:"sport,omitempty" jsonschema:"Sport of the athlete (e.g. boxe, calcio)"`
	Level string `json:"level,omitempty" jsonschema:"beginner, intermediate or advanced"`
	Weeks int    `json:"weeks" jsonschema:"Total plan length in weeks (1-156)"`
}

func (h *Handler) GenerateMesocycleTool() func(context.Context, *mcp.CallToolRequest, MesocycleInput) (*mcp.CallToolResult, any, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, in MesocycleInput) (*mcp.CallToolResult, any, error) {
		plan, err := periodization.GeneratePlan(periodization.Profile{
			Goal:  in.Goal,
			Sport: in.Sport,
			Level: in.Level,
		}, in.Weeks)
		if err != nil {
			return errorResult("Error generating plan: " + err.Error()), nil, nil
		}
		if h.deps.Metrics != nil {
			h.deps.Metrics.CounterPlansGenerated.WithLabelValues("mesocycle").Inc()
		}
		return jsonResult(plan), nil, nil
	}
}

// MacroPlanInput is the input for generate_macro_plan.
type MacroPlanInput struct {
	AthleteID  string `json:"athlete_id" jsonschema:"Athlete identifier"`
	Sport      string `json:"sport" jsonschema:"Sport (e.g. boxe, mma, calcio, basket, palestra)"`
	EventName  string `json:"event_name,omitempty" jsonschema:"Name of the target event"`
	TargetDate string `json:"target_date" jsonschema:"Event date (YYYY-MM-DD)"`
}

func (h *Handler) GenerateMacroPlanTool() func(context.Context, *mcp.CallToolRequest, MacroPlanInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in MacroPlanInput) (*mcp.CallToolResult, any, error) {
		if in.AthleteID == "" {
			return errorResult("athlete_id is required"), nil, nil
		}
		target, err := time.Parse(time.DateOnly, in.TargetDate)
		if err != nil {
			return errorResult("Invalid target_date: use YYYY-MM-DD"), nil, nil
		}

		plan, err := h.deps.Macro.CreatePlan(ctx, in.AthleteID, in.Sport, in.EventName, target)
		if err != nil {
			var insufficient *macrocycle.InsufficientTimeError
			if errors.As(err, &insufficient) {
				return errorResult(fmt.Sprintf(
					"Not enough time before the event: %d weeks available, at least %d needed",
					insufficient.AvailableWeeks, insufficient.MinWeeks,
				)), nil, nil
			}
			return errorResult("Error creating macro plan: " + err.Error()), nil, nil
		}
		return jsonResult(plan), nil, nil
	}
}

// CurrentPhaseInput is the input for get_current_phase.
type CurrentPhaseInput struct {
	AthleteID string `json:"athlete_id" jsonschema:"Athlete identifier"`
	Date      string `json:"date,omitempty" jsonschema:"Date to resolve (YYYY-MM-DD), defaults to today"`
}

func (h *Handler) GetCurrentPhaseTool() func(context.Context, *mcp.CallToolRequest, CurrentPhaseInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in CurrentPhaseInput) (*mcp.CallToolResult, any, error) {
		date := h.now()
		if in.Date != "" {
			var err error
			if date, err = time.Parse(time.DateOnly, in.Date); err != nil {
				return errorResult("Invalid date: use YYYY-MM-DD"), nil, nil
			}
		}

		phase, err := h.deps.Macro.CurrentPhase(ctx, in.AthleteID, date)
		if err != nil {
			if errors.Is(err, macrocycle.ErrPlanNotFound) {
				return errorResult("No active macro plan for athlete " + in.AthleteID), nil, nil
			}
			return errorResult("Error resolving phase: " + err.Error()), nil, nil
		}
		if phase == nil {
			return textResult(fmt.Sprintf("Date %s is outside the active macro plan", date.Format(time.DateOnly))), nil, nil
		}
		return jsonResult(phase), nil, nil
	}
}

// ACWRInput is the input for compute_acwr.
type ACWRInput struct {
	AthleteID       string    `json:"athlete_id,omitempty" jsonschema:"Athlete whose stored weekly history is used"`
	Sport           string    `json:"sport,omitempty" jsonschema:"Sport for the risk bands (e.g. boxe, calcio)"`
	CurrentWeekLoad float64   `json:"current_week_load" jsonschema:"Load of the current week"`
	History         []float64 `json:"history,omitempty" jsonschema:"Previous weekly loads, most recent first. When set the stored history is ignored"`
}

func (h *Handler) ComputeACWRTool() func(context.Context, *mcp.CallToolRequest, ACWRInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ACWRInput) (*mcp.CallToolResult, any, error) {
		if in.CurrentWeekLoad < 0 {
			return errorResult("current_week_load must be >= 0"), nil, nil
		}

		if len(in.History) > 0 || in.AthleteID == "" {
			history := make([]load.WeeklyLoadRecord, 0, len(in.History))
			for i, l := range in.History {
				history = append(history, load.WeeklyLoadRecord{Week: len(in.History) - i, Load: l})
			}
			acwr := load.ComputeACWR(history, in.CurrentWeekLoad)
			return jsonResult(load.Assessment{
				ACWR: acwr,
				Zone: load.ClassifyZone(acwr.Value, load.TargetsForSport(in.Sport)),
			}), nil, nil
		}

		assessment, err := h.deps.Load.Assess(ctx, in.AthleteID, in.Sport, in.CurrentWeekLoad)
		if err != nil {
			log.Errorf("mcp compute_acwr for [%s]: %s", in.AthleteID, err)
			return errorResult("Error computing ACWR: " + err.Error()), nil, nil
		}
		return jsonResult(assessment), nil, nil
	}
}

// AdaptWeekInput is the input for adapt_week.
type AdaptWeekInput struct {
	Week       int      `json:"week" jsonschema:"Week number (1-based)"`
	Level      string   `json:"level,omitempty" jsonschema:"beginner, intermediate or advanced"`
	Sport      string   `json:"sport,omitempty" jsonschema:"Sport of the athlete"`
	Goal       string   `json:"goal,omitempty" jsonschema:"Training goal"`
	AvgRPE     float64  `json:"avg_rpe,omitempty" jsonschema:"Average session RPE reported (1-10)"`
	Compliance float64  `json:"compliance,omitempty" jsonschema:"Percentage of planned sessions completed (0-100)"`
	SleepHours float64  `json:"sleep_hours,omitempty" jsonschema:"Average hours of sleep"`
	HRV        float64  `json:"hrv,omitempty" jsonschema:"Heart rate variability"`
	Readiness  float64  `json:"readiness,omitempty" jsonschema:"Readiness score (0-100)"`
	PainAreas  []string `json:"pain_areas,omitempty" jsonschema:"Body areas reporting pain"`
}

// AdaptWeekOutput pairs the scheduled week with its feedback-adjusted version.
type AdaptWeekOutput struct {
	Base     adaptive.BaseParams `json:"base"`
	Adapted  adaptive.Adapted    `json:"adapted"`
	Guidance adaptive.Guidance   `json:"guidance"`
}

func (h *Handler) AdaptWeekTool() func(context.Context, *mcp.CallToolRequest, AdaptWeekInput) (*mcp.CallToolResult, any, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, in AdaptWeekInput) (*mcp.CallToolResult, any, error) {
		if in.Week < 1 {
			return errorResult("week must be >= 1"), nil, nil
		}
		ac := adaptive.AthleteContext{Level: in.Level, Sport: in.Sport, Goal: in.Goal}
		adapted, guidance := h.deps.Adapter.Adapt(in.Week, ac, adaptive.Feedback{
			AvgRPE:     in.AvgRPE,
			Compliance: in.Compliance,
			SleepHours: in.SleepHours,
			HRV:        in.HRV,
			Readiness:  in.Readiness,
			PainAreas:  in.PainAreas,
		})
		return jsonResult(AdaptWeekOutput{
			Base:     adaptive.WeekParameters(in.Week, ac),
			Adapted:  adapted,
			Guidance: guidance,
		}), nil, nil
	}
}

// AthleteInput is the input for the progress read tools.
type AthleteInput struct {
	AthleteID string `json:"athlete_id" jsonschema:"Athlete identifier"`
	Weeks     int    `json:"weeks,omitempty" jsonschema:"Number of recent weeks to consider (trend only)"`
}

func (h *Handler) progressError(athleteID string, err error) *mcp.CallToolResult {
	if errors.Is(err, progress.ErrAthleteNotFound) {
		return errorResult("No progress tracked for athlete " + athleteID)
	}
	return errorResult("Error reading progress: " + err.Error())
}

func (h *Handler) GetProgressionTrendTool() func(context.Context, *mcp.CallToolRequest, AthleteInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in AthleteInput) (*mcp.CallToolResult, any, error) {
		trend, err := h.deps.Progress.ProgressionTrend(ctx, in.AthleteID, in.Weeks)
		if err != nil {
			return h.progressError(in.AthleteID, err), nil, nil
		}
		if trend == nil {
			return textResult("Not enough weekly feedback recorded for a trend (at least 2 weeks needed)"), nil, nil
		}
		return jsonResult(trend), nil, nil
	}
}

func (h *Handler) GetProgressSummaryTool() func(context.Context, *mcp.CallToolRequest, AthleteInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in AthleteInput) (*mcp.CallToolResult, any, error) {
		summary, err := h.deps.Progress.ProgressSummary(ctx, in.AthleteID)
		if err != nil {
			return h.progressError(in.AthleteID, err), nil, nil
		}
		return jsonResult(summary), nil, nil
	}
}

// SessionInput is one workout of the analyzed program.
type SessionInput struct {
	Date      string             `json:"date,omitempty" jsonschema:"Session date (YYYY-MM-DD or RFC3339)"`
	Name      string             `json:"name,omitempty" jsonschema:"Session name"`
	Exercises []workout.Exercise `json:"exercises" jsonschema:"Exercises with sets and reps"`
}

// AnalyzeProgramInput is the input for analyze_program.
type AnalyzeProgramInput struct {
	Sessions []SessionInput `json:"sessions" jsonschema:"Sessions in chronological order"`
	Goals    []string       `json:"goals,omitempty" jsonschema:"Athlete goals (e.g. strength, vertical jump)"`
}

func (h *Handler) AnalyzeProgramTool() func(context.Context, *mcp.CallToolRequest, AnalyzeProgramInput) (*mcp.CallToolResult, any, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, in AnalyzeProgramInput) (*mcp.CallToolResult, any, error) {
		if len(in.Sessions) > maxAnalyzedSessions {
			return errorResult(fmt.Sprintf("Too many sessions: at most %d", maxAnalyzedSessions)), nil, nil
		}

		sessions := make([]temporal.Session, 0, len(in.Sessions))
		for i, s := range in.Sessions {
			session := temporal.Session{Workout: workout.Workout{Name: s.Name, Exercises: s.Exercises}}
			if s.Date != "" {
				date, err := parseSessionDate(s.Date)
				if err != nil {
					return errorResult(fmt.Sprintf("Invalid date for session %d: use YYYY-MM-DD or RFC3339", i+1)), nil, nil
				}
				session.Date = &date
			}
			sessions = append(sessions, session)
		}

		return jsonResult(h.deps.Analyzer.Analyze(sessions, in.Goals)), nil, nil
	}
}

func parseSessionDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

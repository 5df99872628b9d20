package progress

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/trainingplanner/internal/adaptive"
	"github.com/2beens/trainingplanner/internal/macrocycle"
	"github.com/2beens/trainingplanner/internal/periodization"
	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
	"github.com/2beens/trainingplanner/pkg"
)

type activePlanSource interface {
	ActivePlan(ctx context.Context, athleteID string) (*macrocycle.Plan, error)
}

// InitRequest starts tracking an athlete. Exactly one source is used, in this order:
// an explicit template, the athlete's active macro plan, or a generated mesocycle plan.
type InitRequest struct {
	Template      *Template `json:"template,omitempty"`
	FromMacroPlan bool      `json:"fromMacroPlan"`
	Goal          string    `json:"goal"`
	Sport         string    `json:"sport"`
	Level         string    `json:"level"`
	Weeks         int       `json:"weeks"`
}

type Handler struct {
	tracker    *Tracker
	controller *adaptive.Controller
	macroPlans activePlanSource
}

func NewHandler(tracker *Tracker, controller *adaptive.Controller, macroPlans activePlanSource) *Handler {
	return &Handler{
		tracker:    tracker,
		controller: controller,
		macroPlans: macroPlans,
	}
}

func (handler *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.initialize")
	defer span.End()

	athleteID := mux.Vars(r)["athlete"]
	var req InitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("initialize progress, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	tmpl, err := handler.resolveTemplate(ctx, athleteID, req)
	if err != nil {
		handler.writeError(w, err)
		return
	}

	p, err := handler.tracker.InitializeAthlete(ctx, athleteID, tmpl)
	if err != nil {
		handler.writeError(w, err)
		return
	}
	pkg.WriteJSON(w, p, http.StatusCreated)
}

func (handler *Handler) resolveTemplate(ctx context.Context, athleteID string, req InitRequest) (Template, error) {
	switch {
	case req.Template != nil:
		return *req.Template, nil
	case req.FromMacroPlan:
		if handler.macroPlans == nil {
			return Template{}, macrocycle.ErrPlanNotFound
		}
		plan, err := handler.macroPlans.ActivePlan(ctx, athleteID)
		if err != nil {
			return Template{}, err
		}
		return TemplateFromMacroPlan(plan), nil
	default:
		weeks := req.Weeks
		if weeks == 0 {
			weeks = 12
		}
		plan, err := periodization.GeneratePlan(periodization.Profile{
			Goal:  req.Goal,
			Sport: req.Sport,
			Level: req.Level,
		}, weeks)
		if err != nil {
			return Template{}, err
		}
		return TemplateFromMesocyclePlan(plan), nil
	}
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.get")
	defer span.End()

	p, err := handler.tracker.Progress(ctx, mux.Vars(r)["athlete"])
	if err != nil {
		handler.writeError(w, err)
		return
	}
	pkg.WriteJSON(w, p, http.StatusOK)
}

func (handler *Handler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.feedback")
	defer span.End()

	var in WeekInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Errorf("weekly feedback, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	record, err := handler.tracker.RecordWeeklyFeedback(ctx, mux.Vars(r)["athlete"], in)
	if err != nil {
		handler.writeError(w, err)
		return
	}
	pkg.WriteJSON(w, record, http.StatusCreated)
}

func (handler *Handler) HandleWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.workout")
	defer span.End()

	var in WorkoutInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Errorf("record workout, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	record, err := handler.tracker.RecordWorkout(ctx, mux.Vars(r)["athlete"], in)
	if err != nil {
		handler.writeError(w, err)
		return
	}
	pkg.WriteJSON(w, record, http.StatusCreated)
}

func (handler *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.advance")
	defer span.End()

	res, err := handler.tracker.AdvanceWeek(ctx, mux.Vars(r)["athlete"])
	if err != nil {
		handler.writeError(w, err)
		return
	}
	pkg.WriteJSON(w, res, http.StatusOK)
}

func (handler *Handler) HandleSkipToDeload(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.skipToDeload")
	defer span.End()

	res, err := handler.tracker.SkipToDeload(ctx, mux.Vars(r)["athlete"])
	if err != nil {
		handler.writeError(w, err)
		return
	}
	pkg.WriteJSON(w, res, http.StatusOK)
}

func (handler *Handler) HandleExtend(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.extend")
	defer span.End()

	res, err := handler.tracker.ExtendCurrentPhase(ctx, mux.Vars(r)["athlete"])
	if err != nil {
		handler.writeError(w, err)
		return
	}
	pkg.WriteJSON(w, res, http.StatusOK)
}

func (handler *Handler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.trend")
	defer span.End()

	weeks := defaultTrendWeeks
	if weeksParam := r.URL.Query().Get("weeks"); weeksParam != "" {
		var err error
		weeks, err = strconv.Atoi(weeksParam)
		if err != nil || weeks < 2 {
			http.Error(w, "invalid weeks param", http.StatusBadRequest)
			return
		}
	}

	trend, err := handler.tracker.ProgressionTrend(ctx, mux.Vars(r)["athlete"], weeks)
	if err != nil {
		handler.writeError(w, err)
		return
	}
	if trend == nil {
		http.Error(w, "not enough weekly feedback for a trend", http.StatusNotFound)
		return
	}
	pkg.WriteJSON(w, trend, http.StatusOK)
}

func (handler *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.summary")
	defer span.End()

	summary, err := handler.tracker.ProgressSummary(ctx, mux.Vars(r)["athlete"])
	if err != nil {
		handler.writeError(w, err)
		return
	}
	pkg.WriteJSON(w, summary, http.StatusOK)
}

func (handler *Handler) HandleDeloadCheck(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.deloadCheck")
	defer span.End()

	athleteID := mux.Vars(r)["athlete"]
	week, signals, err := handler.tracker.DeloadSignals(ctx, athleteID)
	if err != nil {
		handler.writeError(w, err)
		return
	}

	decision, err := handler.controller.ShouldForceDeload(ctx, athleteID, week, adaptive.Feedback{}, signals)
	if err != nil {
		handler.writeError(w, err)
		return
	}
	pkg.WriteJSON(w, decision, http.StatusOK)
}

func (handler *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAthleteNotFound), errors.Is(err, macrocycle.ErrPlanNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrPlanCompleted), errors.Is(err, ErrVersionConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrNoDeloadPhase):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrInvalidTemplate),
		errors.Is(err, periodization.ErrUnsupportedGoal),
		errors.Is(err, periodization.ErrInvalidWeeks):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("progress request: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

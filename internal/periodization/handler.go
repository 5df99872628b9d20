package periodization

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/trainingplanner/internal/telemetry/metrics"
	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
	"github.com/2beens/trainingplanner/internal/workout"
	"github.com/2beens/trainingplanner/pkg"
)

type PlanRequest struct {
	Profile
	Weeks int `json:"weeks"`
}

type ApplyRequest struct {
	Workout  workout.Workout `json:"workout"`
	WeekPlan WeekPlan        `json:"weekPlan"`
}

type Handler struct {
	metrics *metrics.Manager
}

func NewHandler(metricsManager *metrics.Manager) *Handler {
	return &Handler{
		metrics: metricsManager,
	}
}

func (handler *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.periodization.plan")
	defer span.End()

	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("periodization plan, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	plan, err := GeneratePlan(req.Profile, req.Weeks)
	if err != nil {
		if errors.Is(err, ErrUnsupportedGoal) || errors.Is(err, ErrInvalidWeeks) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("generate plan: %s", err)
		http.Error(w, "failed to generate plan", http.StatusInternalServerError)
		return
	}

	if handler.metrics != nil {
		handler.metrics.CounterPlansGenerated.WithLabelValues("mesocycle").Inc()
	}
	log.Debugf("mesocycle plan generated: goal [%s], level [%s], %d weeks", plan.Goal, plan.Level, plan.TotalWeeks)

	pkg.WriteJSON(w, plan, http.StatusOK)
}

func (handler *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.periodization.apply")
	defer span.End()

	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("periodization apply, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pkg.WriteJSON(w, ApplyPeriodization(req.Workout, req.WeekPlan), http.StatusOK)
}

func (handler *Handler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	goal, err := ParseGoal(mux.Vars(r)["goal"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := Catalog(goal)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pkg.WriteJSON(w, m, http.StatusOK)
}

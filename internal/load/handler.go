package load

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
	"github.com/2beens/trainingplanner/internal/workout"
	"github.com/2beens/trainingplanner/pkg"
)

type RecordWeekResponse struct {
	Record     *WeeklyLoadRecord       `json:"record"`
	Parameters *PersonalLoadParameters `json:"parameters"`
}

type HistoryResponse struct {
	History    []WeeklyLoadRecord      `json:"history"`
	Parameters *PersonalLoadParameters `json:"parameters"`
}

type WorkoutLoadRequest struct {
	Workout workout.Workout `json:"workout"`
	RPE     float64         `json:"rpe"`
}

type OptimizeRequest struct {
	Workout    workout.Workout `json:"workout"`
	TargetLoad float64         `json:"targetLoad"`
	RPE        float64         `json:"rpe"`
}

type Handler struct {
	optimizer *Optimizer
}

func NewHandler(optimizer *Optimizer) *Handler {
	return &Handler{
		optimizer: optimizer,
	}
}

func (handler *Handler) HandleRecordWeek(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.load.recordWeek")
	defer span.End()

	var in WeekInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Errorf("record week, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if in.Week < 1 {
		http.Error(w, "week must be >= 1", http.StatusBadRequest)
		return
	}

	rec, params, err := handler.optimizer.RecordWeek(ctx, mux.Vars(r)["athlete"], in)
	if err != nil {
		log.Errorf("record week: %s", err)
		http.Error(w, "failed to record week", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, RecordWeekResponse{Record: rec, Parameters: params}, http.StatusCreated)
}

func (handler *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.load.history")
	defer span.End()

	history, params, err := handler.optimizer.History(ctx, mux.Vars(r)["athlete"])
	if err != nil {
		log.Errorf("load history: %s", err)
		http.Error(w, "failed to get history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []WeeklyLoadRecord{}
	}
	pkg.WriteJSON(w, HistoryResponse{History: history, Parameters: params}, http.StatusOK)
}

func (handler *Handler) HandleACWR(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.load.acwr")
	defer span.End()

	current, ok := parseNonNegative(r.URL.Query().Get("current"))
	if !ok {
		http.Error(w, "invalid current param", http.StatusBadRequest)
		return
	}

	assessment, err := handler.optimizer.Assess(ctx, mux.Vars(r)["athlete"], r.URL.Query().Get("sport"), current)
	if err != nil {
		log.Errorf("assess acwr: %s", err)
		http.Error(w, "failed to compute acwr", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, assessment, http.StatusOK)
}

func (handler *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.load.state")
	defer span.End()

	current, ok := parseNonNegative(r.URL.Query().Get("current"))
	if !ok {
		http.Error(w, "invalid current param", http.StatusBadRequest)
		return
	}

	state, err := handler.optimizer.AnalyzeCurrentState(ctx, mux.Vars(r)["athlete"], r.URL.Query().Get("sport"), current)
	if err != nil {
		log.Errorf("analyze load state: %s", err)
		http.Error(w, "failed to analyze state", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, state, http.StatusOK)
}

func (handler *Handler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.load.suggest")
	defer span.End()

	readiness := 0.0
	if readinessParam := r.URL.Query().Get("readiness"); readinessParam != "" {
		var ok bool
		readiness, ok = parseNonNegative(readinessParam)
		if !ok || readiness > 100 {
			http.Error(w, "invalid readiness param", http.StatusBadRequest)
			return
		}
	}

	suggestion, err := handler.optimizer.SuggestOptimalLoad(
		ctx,
		mux.Vars(r)["athlete"],
		r.URL.Query().Get("sport"),
		r.URL.Query().Get("phase"),
		readiness,
	)
	if err != nil {
		log.Errorf("suggest load: %s", err)
		http.Error(w, "failed to suggest load", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, suggestion, http.StatusOK)
}

func (handler *Handler) HandleWorkoutLoad(w http.ResponseWriter, r *http.Request) {
	var req WorkoutLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("workout load, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	rpe := req.RPE
	if rpe == 0 {
		rpe = DefaultRPE
	}
	pkg.WriteJSON(w, map[string]float64{"load": ComputeWorkoutLoad(req.Workout, rpe)}, http.StatusOK)
}

func (handler *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("optimize workout, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.TargetLoad <= 0 {
		http.Error(w, "targetLoad must be > 0", http.StatusBadRequest)
		return
	}
	pkg.WriteJSON(w, OptimizeWorkoutForLoad(req.Workout, req.TargetLoad, req.RPE), http.StatusOK)
}

func parseNonNegative(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

package macrocycle

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
	"github.com/2beens/trainingplanner/pkg"
)

type CreatePlanRequest struct {
	Sport      string `json:"sport"`
	EventName  string `json:"eventName"`
	TargetDate string `json:"targetDate"`
}

type InsufficientTimeResponse struct {
	Error          string `json:"error"`
	MinWeeks       int    `json:"minWeeks"`
	AvailableWeeks int    `json:"availableWeeks"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.macro.create")
	defer span.End()

	athleteID := mux.Vars(r)["athlete"]
	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("create macro plan, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	target, err := time.Parse(time.DateOnly, req.TargetDate)
	if err != nil {
		http.Error(w, "invalid target date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	plan, err := handler.service.CreatePlan(ctx, athleteID, req.Sport, req.EventName, target)
	if err != nil {
		var insufficient *InsufficientTimeError
		switch {
		case errors.As(err, &insufficient):
			pkg.WriteJSON(w, InsufficientTimeResponse{
				Error:          insufficient.Error(),
				MinWeeks:       insufficient.MinWeeks,
				AvailableWeeks: insufficient.AvailableWeeks,
			}, http.StatusUnprocessableEntity)
		case errors.Is(err, ErrUnsupportedSport):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrPlanExists):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			log.Errorf("create macro plan for [%s]: %s", athleteID, err)
			http.Error(w, "failed to create plan", http.StatusInternalServerError)
		}
		return
	}

	pkg.WriteJSON(w, plan, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.macro.list")
	defer span.End()

	plans, err := handler.service.Plans(ctx, mux.Vars(r)["athlete"])
	if err != nil {
		log.Errorf("list macro plans: %s", err)
		http.Error(w, "failed to list plans", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, plans, http.StatusOK)
}

func (handler *Handler) HandleActive(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.macro.active")
	defer span.End()

	plan, err := handler.service.ActivePlan(ctx, mux.Vars(r)["athlete"])
	if err != nil {
		handler.writeLookupError(w, err)
		return
	}
	pkg.WriteJSON(w, plan, http.StatusOK)
}

func (handler *Handler) HandleCurrentPhase(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.macro.current")
	defer span.End()

	date := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.Parse(time.DateOnly, d)
		if err != nil {
			http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	progress, err := handler.service.CurrentPhase(ctx, mux.Vars(r)["athlete"], date)
	if err != nil {
		handler.writeLookupError(w, err)
		return
	}
	if progress == nil {
		http.Error(w, "date outside the active plan", http.StatusNotFound)
		return
	}
	pkg.WriteJSON(w, progress, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.macro.delete")
	defer span.End()

	vars := mux.Vars(r)
	if err := handler.service.DeletePlan(ctx, vars["athlete"], vars["id"]); err != nil {
		handler.writeLookupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrPlanNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	log.Errorf("macro plan lookup: %s", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

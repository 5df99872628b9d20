package adaptive

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
	"github.com/2beens/trainingplanner/pkg"
)

type AdaptRequest struct {
	Week     int            `json:"week"`
	Athlete  AthleteContext `json:"athlete"`
	Feedback Feedback       `json:"feedback"`
}

type AdaptResponse struct {
	Base     BaseParams `json:"base"`
	Adapted  Adapted    `json:"adapted"`
	Guidance Guidance   `json:"guidance"`
}

type DeloadCheckRequest struct {
	Week     int          `json:"week"`
	Feedback Feedback     `json:"feedback"`
	History  []WeekSignal `json:"history"`
}

type Handler struct {
	controller *Controller
}

func NewHandler(controller *Controller) *Handler {
	return &Handler{
		controller: controller,
	}
}

func (handler *Handler) HandleAdapt(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.adaptive.adapt")
	defer span.End()

	var req AdaptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("adapt week, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Week < 1 {
		http.Error(w, "week must be >= 1", http.StatusBadRequest)
		return
	}

	adapted, guidance := handler.controller.Adapt(req.Week, req.Athlete, req.Feedback)
	pkg.WriteJSON(w, AdaptResponse{
		Base:     WeekParameters(req.Week, req.Athlete),
		Adapted:  adapted,
		Guidance: guidance,
	}, http.StatusOK)
}

func (handler *Handler) HandleDeloadCheck(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.adaptive.deloadCheck")
	defer span.End()

	athleteID := mux.Vars(r)["athlete"]
	var req DeloadCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("deload check, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	decision, err := handler.controller.ShouldForceDeload(ctx, athleteID, req.Week, req.Feedback, req.History)
	if err != nil {
		log.Errorf("deload check for athlete [%s]: %s", athleteID, err)
		http.Error(w, "failed to check deload", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, decision, http.StatusOK)
}

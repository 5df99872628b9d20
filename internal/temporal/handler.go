package temporal

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
	"github.com/2beens/trainingplanner/pkg"
)

const maxAnalyzedSessions = 1000

type AnalyzeRequest struct {
	Sessions []Session `json:"sessions"`
	Goals    []string  `json:"goals"`
}

type Handler struct {
	analyzer *Analyzer
}

func NewHandler(analyzer *Analyzer) *Handler {
	return &Handler{
		analyzer: analyzer,
	}
}

func (handler *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.temporal.analyze")
	defer span.End()

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("temporal analyze, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Sessions) > maxAnalyzedSessions {
		http.Error(w, "too many sessions", http.StatusRequestEntityTooLarge)
		return
	}
	span.SetAttributes(attribute.Int("sessions", len(req.Sessions)))

	pkg.WriteJSON(w, handler.analyzer.Analyze(req.Sessions, req.Goals), http.StatusOK)
}

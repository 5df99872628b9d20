package adaptive

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/trainingplanner/internal/telemetry/metrics"
	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=deload_mocks_test.go -package=adaptive_test

// UnknownIdle is reported as days since the last workout when no workout was ever logged.
// Such athletes are treated as idle.
const UnknownIdle = 999

const (
	idleDaysThreshold     = 5
	weeksBetweenDeloads   = 4
	highRPEThreshold      = 8.5
	lowComplianceLimit    = 60.0
	hrvDeclineThreshold   = -0.3
	consecutiveSignalSpan = 2
)

// ExecutionLog knows when an athlete last completed a workout.
type ExecutionLog interface {
	LastCompletedAt(ctx context.Context, athleteID string) (time.Time, bool, error)
}

// WeekSignal is the summary of one past training week. Histories are oldest-first.
// A nil Compliance counts as full compliance.
type WeekSignal struct {
	WeekNumber        int      `json:"weekNumber"`
	Phase             string   `json:"phase"`
	AvgRPE            float64  `json:"avgRpe,omitempty"`
	Compliance        *float64 `json:"compliance,omitempty"`
	HRV               float64  `json:"hrv,omitempty"`
	CompletedWorkouts int      `json:"completedWorkouts"`
}

type DeloadDecision struct {
	Force                bool   `json:"force"`
	Reason               string `json:"reason,omitempty"`
	NeedsGradualReturn   bool   `json:"needsGradualReturn"`
	DaysSinceLastWorkout int    `json:"daysSinceLastWorkout"`
}

type Controller struct {
	execLog ExecutionLog
	metrics *metrics.Manager
	now     func() time.Time
}

func NewController(execLog ExecutionLog, metricsManager *metrics.Manager) *Controller {
	return &Controller{
		execLog: execLog,
		metrics: metricsManager,
		now:     time.Now,
	}
}

// SetNow replaces the clock used to compute idle days.
func (c *Controller) SetNow(now func() time.Time) {
	c.now = now
}

// Adapt schedules a week for the athlete and adapts it to the reported feedback.
func (c *Controller) Adapt(week int, ac AthleteContext, fb Feedback) (Adapted, Guidance) {
	adapted := AdaptFromFeedback(WeekParameters(week, ac), fb)
	return adapted, GuidanceFor(adapted)
}

// ShouldForceDeload decides whether the coming week must be a deload.
// An athlete who has not trained for 5 or more days is rested already: the decision is
// then a gradual return and never a forced deload, whatever the history says.
func (c *Controller) ShouldForceDeload(ctx context.Context, athleteID string, weekNumber int, fb Feedback, history []WeekSignal) (_ DeloadDecision, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "adaptive.shouldForceDeload")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("athlete", athleteID),
		attribute.Int("week", weekNumber),
	)

	idleDays, err := c.daysSinceLastWorkout(ctx, athleteID)
	if err != nil {
		return DeloadDecision{}, fmt.Errorf("last completed workout: %w", err)
	}

	decision := evaluateDeload(idleDays, history)
	if decision.Force {
		if c.metrics != nil {
			c.metrics.CounterDeloadsForced.Inc()
		}
		log.Debugf("forced deload for athlete [%s], week %d: %s", athleteID, weekNumber, decision.Reason)
	} else if decision.NeedsGradualReturn {
		log.Debugf("athlete [%s] idle for %d days, gradual return instead of deload", athleteID, idleDays)
	}
	if fb.Readiness > 0 {
		span.SetAttributes(attribute.Float64("readiness", fb.Readiness))
	}

	return decision, nil
}

func (c *Controller) daysSinceLastWorkout(ctx context.Context, athleteID string) (int, error) {
	if c.execLog == nil {
		return UnknownIdle, nil
	}
	last, found, err := c.execLog.LastCompletedAt(ctx, athleteID)
	if err != nil {
		return 0, err
	}
	if !found {
		return UnknownIdle, nil
	}
	days := int(c.now().Sub(last).Hours() / 24)
	return max(0, days), nil
}

func evaluateDeload(idleDays int, history []WeekSignal) DeloadDecision {
	if idleDays >= idleDaysThreshold {
		return DeloadDecision{
			NeedsGradualReturn:   true,
			DaysSinceLastWorkout: idleDays,
		}
	}

	decision := DeloadDecision{DaysSinceLastWorkout: idleDays}

	if weeks := WeeksSinceLastDeload(history); weeks >= weeksBetweenDeloads {
		decision.Force = true
		decision.Reason = fmt.Sprintf("%d weeks without a deload", weeks)
		return decision
	}

	recent := history[max(0, len(history)-consecutiveSignalSpan):]

	highRPE := 0
	for _, w := range recent {
		if w.AvgRPE > highRPEThreshold {
			highRPE++
		}
	}
	if highRPE >= consecutiveSignalSpan {
		decision.Force = true
		decision.Reason = "RPE above 8.5 for 2 consecutive weeks"
		return decision
	}

	lowCompliance, wasTraining := 0, false
	for _, w := range recent {
		compliance := defaultCompliance
		if w.Compliance != nil {
			compliance = *w.Compliance
		}
		if compliance < lowComplianceLimit {
			lowCompliance++
		}
		if w.CompletedWorkouts > 0 {
			wasTraining = true
		}
	}
	if lowCompliance >= consecutiveSignalSpan {
		if wasTraining {
			decision.Force = true
			decision.Reason = "compliance below 60% for 2 weeks while training"
			return decision
		}
		// low compliance without workouts means a break, not overtraining
		decision.NeedsGradualReturn = true
		return decision
	}

	var hrv []float64
	for _, w := range history {
		if w.HRV > 0 {
			hrv = append(hrv, w.HRV)
		}
	}
	if RelativeTrend(hrv) < hrvDeclineThreshold {
		decision.Force = true
		decision.Reason = "HRV steadily declining"
	}

	return decision
}

// WeeksSinceLastDeload counts the weeks after the most recent deload in an oldest-first
// history, or the whole history when there was none.
func WeeksSinceLastDeload(history []WeekSignal) int {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Phase == "deload" {
			return len(history) - 1 - i
		}
	}
	return len(history)
}

// RelativeTrend averages the relative step changes of the last three values.
// Fewer than three values give 0.
func RelativeTrend(values []float64) float64 {
	if len(values) < 3 {
		return 0
	}
	recent := values[len(values)-3:]
	sum, n := 0.0, 0
	for i := 1; i < len(recent); i++ {
		if recent[i-1] == 0 {
			continue
		}
		sum += (recent[i] - recent[i-1]) / recent[i-1]
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

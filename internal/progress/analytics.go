package progress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/2beens/trainingplanner/internal/adaptive"
)

const defaultTrendWeeks = 4

type WeekStats struct {
	Week              int     `json:"week"`
	Phase             string  `json:"phase"`
	WorkoutsCompleted int     `json:"workoutsCompleted"`
	TotalVolume       float64 `json:"totalVolume"`
	AvgRPE            float64 `json:"avgRpe"`
	PRsThisWeek       []PR    `json:"prsThisWeek"`
}

type TrendComponent struct {
	Trend   string  `json:"trend"`
	Value   float64 `json:"value"`
	Warning bool    `json:"warning,omitempty"`
}

type TrendRecommendation struct {
	Action  string `json:"action"`
	Message string `json:"message"`
	Urgency string `json:"urgency"`
}

type Trend struct {
	Fatigue        TrendComponent      `json:"fatigue"`
	Performance    TrendComponent      `json:"performance"`
	Volume         TrendComponent      `json:"volume"`
	Recommendation TrendRecommendation `json:"recommendation"`
}

type MacroStatus struct {
	Template        string `json:"template"`
	Week            string `json:"week"`
	Phase           string `json:"phase"`
	ProgressPercent int    `json:"progressPercent"`
	Status          Status `json:"status"`
}

type AdaptationSummary struct {
	ExcellentStreak   int `json:"excellentStreak"`
	PoorStreak        int `json:"poorStreak"`
	OverreachingFlags int `json:"overreachingFlags"`
	ExtensionsUsed    int `json:"extensionsUsed"`
}

type Summary struct {
	AthleteID         string             `json:"athleteId"`
	MacroStatus       MacroStatus        `json:"macroStatus"`
	CurrentWeek       WeekStats          `json:"currentWeek"`
	Trend             *Trend             `json:"trend"`
	TotalWorkouts     int                `json:"totalWorkouts"`
	TotalWeeksTracked int                `json:"totalWeeksTracked"`
	CurrentPRs        map[string]float64 `json:"currentPRs"`
	Adaptation        AdaptationSummary  `json:"adaptation"`
	LastFeedback      *WeekFeedback      `json:"lastFeedback"`
}

func (t *Tracker) WeekStats(ctx context.Context, athleteID string) (*WeekStats, error) {
	p, err := t.store.Load(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	stats := weekStats(p)
	return &stats, nil
}

func weekStats(p *AthleteProgress) WeekStats {
	stats := WeekStats{
		Week:        p.MacroPlan.CurrentWeek,
		Phase:       p.MacroPlan.CurrentPhase,
		PRsThisWeek: []PR{},
	}

	rpeSum := 0.0
	for _, w := range p.WorkoutHistory {
		if w.Week != stats.Week {
			continue
		}
		stats.WorkoutsCompleted++
		stats.TotalVolume += w.TotalVolume
		rpeSum += w.AvgRPE
		stats.PRsThisWeek = append(stats.PRsThisWeek, w.PRs...)
	}
	if stats.WorkoutsCompleted > 0 {
		stats.AvgRPE = rpeSum / float64(stats.WorkoutsCompleted)
	}
	return stats
}

// ProgressionTrend fits least-squares slopes over the last weeks of feedback.
// It returns nil when fewer than two weeks were recorded.
func (t *Tracker) ProgressionTrend(ctx context.Context, athleteID string, weeks int) (*Trend, error) {
	p, err := t.store.Load(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	return progressionTrend(p, weeks), nil
}

var performanceScore = map[string]float64{
	PerformanceDeclining: 1,
	PerformanceStable:    2,
	PerformanceImproving: 3,
	PerformanceExcellent: 4,
}

func progressionTrend(p *AthleteProgress, weeks int) *Trend {
	if len(p.WeekHistory) < 2 {
		return nil
	}
	if weeks <= 0 {
		weeks = defaultTrendWeeks
	}
	recent := p.WeekHistory[max(0, len(p.WeekHistory)-weeks):]

	fatigue := make([]float64, len(recent))
	performance := make([]float64, len(recent))
	volume := make([]float64, len(recent))
	for i, w := range recent {
		fatigue[i] = float64(w.Fatigue)
		score, ok := performanceScore[w.Performance]
		if !ok {
			score = performanceScore[PerformanceStable]
		}
		performance[i] = score
		for _, wo := range p.WorkoutHistory {
			if wo.Week == w.WeekNumber {
				volume[i] += wo.TotalVolume
			}
		}
	}

	fatigueSlope := Slope(fatigue)
	performanceSlope := Slope(performance)
	volumeSlope := Slope(volume)

	trend := &Trend{
		Fatigue: TrendComponent{
			Trend:   direction(fatigueSlope, 0.5, "increasing", "decreasing"),
			Value:   fatigueSlope,
			Warning: fatigueSlope > 1.5,
		},
		Performance: TrendComponent{
			Trend: direction(performanceSlope, 0.2, "improving", "declining"),
			Value: performanceSlope,
		},
		Volume: TrendComponent{
			Trend: direction(volumeSlope, 0, "increasing", "decreasing"),
			Value: volumeSlope,
		},
		Recommendation: trendRecommendation(fatigueSlope, performanceSlope, volumeSlope),
	}
	return trend
}

func direction(slope, deadband float64, up, down string) string {
	switch {
	case slope > deadband:
		return up
	case slope < -deadband:
		return down
	default:
		return "stable"
	}
}

// Slope is the least-squares slope of values against their index. Fewer than two values give 0.
func Slope(values []float64) float64 {
	n := float64(len(values))
	if len(values) < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	return (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
}

func trendRecommendation(fatigue, performance, volume float64) TrendRecommendation {
	switch {
	case fatigue > 1 && performance < -0.2:
		return TrendRecommendation{
			Action:  "reduce_load",
			Message: "overreaching signals: consider an early deload",
			Urgency: "high",
		}
	case performance > 0.3 && fatigue < 0.5:
		return TrendRecommendation{
			Action:  "increase_load",
			Message: "great adaptation: intensity or volume can go up",
			Urgency: "low",
		}
	case volume < -0.1 && fatigue > 1:
		return TrendRecommendation{
			Action:  "rest",
			Message: "volume dropping while fatigue is high: prioritize recovery",
			Urgency: "medium",
		}
	default:
		return TrendRecommendation{
			Action:  "continue",
			Message: "progression on track: continue as planned",
			Urgency: "low",
		}
	}
}

func (t *Tracker) ProgressSummary(ctx context.Context, athleteID string) (*Summary, error) {
	p, err := t.store.Load(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	plan := p.MacroPlan
	percent := 0
	if plan.TotalWeeks > 0 {
		percent = int(math.Round(float64(plan.CurrentWeek) / float64(plan.TotalWeeks) * 100))
	}

	summary := &Summary{
		AthleteID: athleteID,
		MacroStatus: MacroStatus{
			Template:        plan.TemplateName,
			Week:            fmt.Sprintf("%d/%d", plan.CurrentWeek, plan.TotalWeeks),
			Phase:           plan.CurrentPhase,
			ProgressPercent: percent,
			Status:          plan.Status,
		},
		CurrentWeek:       weekStats(p),
		Trend:             progressionTrend(p, defaultTrendWeeks),
		TotalWorkouts:     len(p.WorkoutHistory),
		TotalWeeksTracked: len(p.WeekHistory),
		CurrentPRs:        p.KeyMetrics.StrengthPRs,
		Adaptation: AdaptationSummary{
			ExcellentStreak:   p.AdaptationSignals.ConsecutiveExcellentWeeks,
			PoorStreak:        p.AdaptationSignals.ConsecutivePoorWeeks,
			OverreachingFlags: p.AdaptationSignals.OverreachingFlags,
			ExtensionsUsed:    p.AdaptationSignals.PhaseExtensions,
		},
	}
	if n := len(p.WeekHistory); n > 0 {
		last := p.WeekHistory[n-1]
		summary.LastFeedback = &last
	}
	return summary, nil
}

// LastCompletedAt reports the most recent workout date. Unknown athletes have no workouts.
func (t *Tracker) LastCompletedAt(ctx context.Context, athleteID string) (time.Time, bool, error) {
	p, err := t.store.Load(ctx, athleteID)
	if errors.Is(err, ErrAthleteNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	var last time.Time
	for _, w := range p.WorkoutHistory {
		if w.Date.After(last) {
			last = w.Date
		}
	}
	return last, !last.IsZero(), nil
}

// DeloadSignals summarises the recorded weeks, oldest first, for the deload check.
// It also returns the athlete's current week.
func (t *Tracker) DeloadSignals(ctx context.Context, athleteID string) (int, []adaptive.WeekSignal, error) {
	p, err := t.store.Load(ctx, athleteID)
	if err != nil {
		return 0, nil, err
	}

	signals := make([]adaptive.WeekSignal, len(p.WeekHistory))
	for i, w := range p.WeekHistory {
		phase := strings.ToLower(w.Phase)
		if IsDeloadPhase(w.Phase) {
			phase = "deload"
		}

		rpeSum, sessions := 0.0, 0
		for _, wo := range p.WorkoutHistory {
			if wo.Week == w.WeekNumber {
				rpeSum += wo.AvgRPE
				sessions++
			}
		}
		avgRPE := 0.0
		if sessions > 0 {
			avgRPE = rpeSum / float64(sessions)
		}

		compliance := w.AdherenceRate * 100
		signals[i] = adaptive.WeekSignal{
			WeekNumber:        w.WeekNumber,
			Phase:             phase,
			AvgRPE:            avgRPE,
			Compliance:        &compliance,
			HRV:               w.HRV,
			CompletedWorkouts: w.WorkoutsCompleted,
		}
	}
	return p.MacroPlan.CurrentWeek, signals, nil
}

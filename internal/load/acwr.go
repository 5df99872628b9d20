package load

import (
	"math"
	"strings"
	"time"
)

const (
	ewmaLambda      = 0.3
	chronicWindow   = 4
	minHistoryWeeks = 3
)

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// WeeklyLoadRecord is one completed training week. Histories hold them most-recent-first.
type WeeklyLoadRecord struct {
	Week       int       `json:"week"`
	Load       float64   `json:"load"`
	RPE        *float64  `json:"rpe,omitempty"`
	Compliance *float64  `json:"compliance,omitempty"`
	Feeling    *int      `json:"feeling,omitempty"`
	Sessions   int       `json:"sessions"`
	RecordedAt time.Time `json:"recordedAt"`
}

type ACWR struct {
	Value       float64    `json:"value"`
	AcuteLoad   float64    `json:"acuteLoad"`
	ChronicLoad float64    `json:"chronicLoad"`
	Confidence  Confidence `json:"confidence"`
	Message     string     `json:"message,omitempty"`
}

// chronicEWMA folds up to chronicWindow most recent weeks, seeded with history[0].
func chronicEWMA(history []WeeklyLoadRecord) float64 {
	if len(history) == 0 {
		return 0
	}
	ewma := history[0].Load
	n := min(len(history), chronicWindow)
	for i := 1; i < n; i++ {
		ewma = ewmaLambda*history[i].Load + (1-ewmaLambda)*ewma
	}
	return ewma
}

// ComputeACWR computes the acute:chronic workload ratio. history must be most-recent-first.
func ComputeACWR(history []WeeklyLoadRecord, currentWeekLoad float64) ACWR {
	if len(history) < minHistoryWeeks {
		return ACWR{
			Value:      1.0,
			AcuteLoad:  currentWeekLoad,
			Confidence: ConfidenceLow,
			Message:    "insufficient history for an accurate ratio",
		}
	}

	chronic := chronicEWMA(history)
	if chronic == 0 {
		return ACWR{
			Value:      1.0,
			AcuteLoad:  currentWeekLoad,
			Confidence: ConfidenceLow,
			Message:    "chronic load is zero",
		}
	}

	confidence := ConfidenceMedium
	if len(history) >= chronicWindow {
		confidence = ConfidenceHigh
	}

	return ACWR{
		Value:       round2(currentWeekLoad / chronic),
		AcuteLoad:   currentWeekLoad,
		ChronicLoad: math.Round(chronic),
		Confidence:  confidence,
	}
}

type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Targets struct {
	Optimal Range `json:"optimal"`
	Danger  Range `json:"danger"`
}

var DefaultTargets = Targets{
	Optimal: Range{Min: 0.8, Max: 1.3},
	Danger:  Range{Min: 0.5, Max: 1.5},
}

var sportTargets = map[string]Targets{
	"boxe":     {Optimal: Range{0.85, 1.25}, Danger: Range{0.6, 1.4}},
	"calcio":   {Optimal: Range{0.8, 1.2}, Danger: Range{0.6, 1.5}},
	"palestra": {Optimal: Range{0.75, 1.35}, Danger: Range{0.5, 1.6}},
	"mma":      {Optimal: Range{0.85, 1.25}, Danger: Range{0.6, 1.4}},
}

func TargetsForSport(sport string) Targets {
	if t, ok := sportTargets[strings.ToLower(strings.TrimSpace(sport))]; ok {
		return t
	}
	return DefaultTargets
}

type Zone string

const (
	ZoneUnderload Zone = "underload"
	ZoneLow       Zone = "low"
	ZoneOptimal   Zone = "optimal"
	ZoneHigh      Zone = "high"
	ZoneDanger    Zone = "danger"
)

type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

type ZoneResult struct {
	Zone           Zone   `json:"zone"`
	Risk           Risk   `json:"risk"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`
}

// ClassifyZone maps an ACWR value onto a risk zone.
// Danger bounds are checked before optimal bounds.
func ClassifyZone(acwr float64, t Targets) ZoneResult {
	switch {
	case acwr < t.Danger.Min:
		return ZoneResult{
			Zone:           ZoneUnderload,
			Risk:           RiskMedium,
			Message:        "load too low, detraining risk",
			Recommendation: "increase volume gradually",
		}
	case acwr > t.Danger.Max:
		return ZoneResult{
			Zone:           ZoneDanger,
			Risk:           RiskHigh,
			Message:        "load too high, injury risk",
			Recommendation: "reduce volume and intensity immediately",
		}
	case acwr < t.Optimal.Min:
		return ZoneResult{
			Zone:           ZoneLow,
			Risk:           RiskLow,
			Message:        "load below the optimal band",
			Recommendation: "load can be increased slightly",
		}
	case acwr > t.Optimal.Max:
		return ZoneResult{
			Zone:           ZoneHigh,
			Risk:           RiskMedium,
			Message:        "load above the optimal band",
			Recommendation: "monitor recovery closely",
		}
	default:
		return ZoneResult{
			Zone:           ZoneOptimal,
			Risk:           RiskLow,
			Message:        "load within the optimal band",
			Recommendation: "keep this level",
		}
	}
}

package adaptive

import (
	"fmt"
	"math"
	"strings"
)

// PhaseRecovery replaces the scheduled phase when readiness is critical.
const PhaseRecovery = "recovery"

const (
	defaultCompliance = 100.0
	defaultSleepHours = 7.0
)

// Feedback is what the athlete reported for the last days. Zero values mean "not reported".
type Feedback struct {
	AvgRPE     float64  `json:"avgRpe,omitempty"`
	Compliance float64  `json:"compliance,omitempty"`
	SleepHours float64  `json:"sleep,omitempty"`
	HRV        float64  `json:"hrv,omitempty"`
	Readiness  float64  `json:"readiness,omitempty"`
	PainAreas  []string `json:"painAreas,omitempty"`
}

type Adapted struct {
	BaseParams
	AvoidAreas  []string `json:"avoidAreas,omitempty"`
	Adjustments []string `json:"adjustments"`
}

// AdaptFromFeedback scales the scheduled week by the reported signals. Rules run in a
// fixed order (RPE, compliance, sleep, HRV, readiness, pain) and multiply on top of each
// other; volume and intensity are rounded only once at the end.
func AdaptFromFeedback(base BaseParams, fb Feedback) Adapted {
	a := Adapted{
		BaseParams:  base,
		Adjustments: []string{},
	}

	if rpe := fb.AvgRPE; rpe > 0 {
		switch {
		case rpe > 8.5:
			a.Volume *= 0.85
			a.Intensity *= 0.95
			a.Adjustments = append(a.Adjustments, fmt.Sprintf("high RPE (%g): volume -15%%, intensity -5%%", rpe))
		case rpe > 8.0 && a.Phase != "intensificazione":
			a.Volume *= 0.92
			a.Adjustments = append(a.Adjustments, fmt.Sprintf("elevated RPE (%g): volume -8%%", rpe))
		case rpe < 5.5 && a.Phase != "deload":
			a.Volume *= 1.08
			a.Intensity *= 1.03
			a.Adjustments = append(a.Adjustments, fmt.Sprintf("low RPE (%g): volume +8%%, intensity +3%%", rpe))
		}
	}

	compliance := fb.Compliance
	if compliance <= 0 {
		compliance = defaultCompliance
	}
	switch {
	case compliance < 70:
		a.Volume *= 0.80
		a.Adjustments = append(a.Adjustments, fmt.Sprintf("low compliance (%g%%): volume -20%%", compliance))
	case compliance < 85:
		a.Volume *= 0.90
		a.Adjustments = append(a.Adjustments, fmt.Sprintf("average compliance (%g%%): volume -10%%", compliance))
	}

	sleep := fb.SleepHours
	if sleep <= 0 {
		sleep = defaultSleepHours
	}
	switch {
	case sleep < 6:
		a.Intensity *= 0.90
		a.Volume *= 0.85
		a.Adjustments = append(a.Adjustments, fmt.Sprintf("poor sleep (%gh): intensity -10%%, volume -15%%", sleep))
	case sleep < 7:
		a.Intensity *= 0.95
		a.Adjustments = append(a.Adjustments, fmt.Sprintf("suboptimal sleep (%gh): intensity -5%%", sleep))
	}

	if hrv := fb.HRV; hrv > 0 {
		switch {
		case hrv < 30:
			a.Volume *= 0.75
			a.Intensity *= 0.85
			a.Adjustments = append(a.Adjustments, fmt.Sprintf("low HRV (%g): volume -25%%, intensity -15%%", hrv))
		case hrv < 50:
			a.Volume *= 0.90
			a.Adjustments = append(a.Adjustments, fmt.Sprintf("below average HRV (%g): volume -10%%", hrv))
		}
	}

	if readiness := fb.Readiness; readiness > 0 {
		switch {
		case readiness < 50:
			a.Volume *= 0.70
			a.Intensity *= 0.80
			a.Phase = PhaseRecovery
			a.Adjustments = append(a.Adjustments, fmt.Sprintf("critical readiness (%g): active recovery session", readiness))
		case readiness < 70:
			a.Volume *= 0.85
			a.Adjustments = append(a.Adjustments, fmt.Sprintf("low readiness (%g): volume -15%%", readiness))
		}
	}

	if len(fb.PainAreas) > 0 {
		a.AvoidAreas = append([]string(nil), fb.PainAreas...)
		a.Adjustments = append(a.Adjustments, fmt.Sprintf("pain reported (%s): avoid exercises stressing these areas", strings.Join(fb.PainAreas, ", ")))
	}

	a.Volume = math.Round(a.Volume)
	a.Intensity = math.Round(a.Intensity)

	return a
}

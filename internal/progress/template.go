package progress

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/trainingplanner/internal/macrocycle"
	"github.com/2beens/trainingplanner/internal/periodization"
)

var ErrInvalidTemplate = errors.New("invalid plan template")

// Template is the week layout an athlete follows: which weeks belong to which phase.
type Template struct {
	Name          string          `json:"name"`
	Goal          string          `json:"goal"`
	DurationWeeks int             `json:"durationWeeks"`
	Phases        []TemplatePhase `json:"phases"`
}

var deloadPhaseKeywords = []string{"deload", "recupero", "consolidamento", "recovery"}

// IsDeloadPhase reports whether a phase name denotes an unloading phase.
func IsDeloadPhase(name string) bool {
	n := strings.ToLower(name)
	for _, k := range deloadPhaseKeywords {
		if strings.Contains(n, k) {
			return true
		}
	}
	return false
}

func (t Template) validate() error {
	if len(t.Phases) == 0 {
		return fmt.Errorf("%w: no phases", ErrInvalidTemplate)
	}
	if t.DurationWeeks < 1 {
		return fmt.Errorf("%w: duration must be >= 1 week", ErrInvalidTemplate)
	}
	if len(t.Phases[0].Weeks) == 0 {
		return fmt.Errorf("%w: first phase %q has no weeks", ErrInvalidTemplate, t.Phases[0].Name)
	}
	return nil
}

// withDuration fills DurationWeeks from the phase layout when it is missing.
func (t Template) withDuration() Template {
	if t.DurationWeeks > 0 {
		return t
	}
	for _, p := range t.Phases {
		for _, w := range p.Weeks {
			t.DurationWeeks = max(t.DurationWeeks, w)
		}
	}
	return t
}

func phaseOfWeek(phases []TemplatePhase, week int) (string, bool) {
	for _, p := range phases {
		for _, w := range p.Weeks {
			if w == week {
				return p.Name, true
			}
		}
	}
	return "", false
}

func weekRange(start, n int) []int {
	weeks := make([]int, n)
	for i := range weeks {
		weeks[i] = start + i
	}
	return weeks
}

// TemplateFromMesocyclePlan lays out a generated mesocycle plan, one template phase per
// phase block.
func TemplateFromMesocyclePlan(plan *periodization.Plan) Template {
	t := Template{
		Name:          fmt.Sprintf("%s %d weeks (%s)", plan.Goal, plan.TotalWeeks, plan.WavePattern),
		Goal:          string(plan.Goal),
		DurationWeeks: plan.TotalWeeks,
	}
	for _, meso := range plan.Mesocycles {
		for _, ph := range meso.Phases {
			t.Phases = append(t.Phases, TemplatePhase{
				Name:  ph.Name,
				Weeks: weekRange(ph.StartWeek, ph.Weeks),
			})
		}
	}
	return t
}

// TemplateFromMacroPlan lays out a calendar macro plan.
func TemplateFromMacroPlan(plan *macrocycle.Plan) Template {
	name := plan.Sport
	if plan.EventName != "" {
		name = plan.EventName
	}
	t := Template{
		Name:          fmt.Sprintf("%s macrocycle", name),
		Goal:          string(plan.Category),
		DurationWeeks: plan.TotalWeeks,
	}
	for _, ph := range plan.Phases {
		t.Phases = append(t.Phases, TemplatePhase{
			Name:  ph.Name,
			Weeks: append([]int(nil), ph.WeekNumbers...),
		})
	}
	return t
}

package macrocycle

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInsufficientTime = errors.New("insufficient time before target date")

// InsufficientTimeError carries the minimum weeks a category needs.
type InsufficientTimeError struct {
	Category       Category
	MinWeeks       int
	AvailableWeeks int
}

func (e *InsufficientTimeError) Error() string {
	return fmt.Sprintf("%s needs at least %d weeks, only %d available", e.Category, e.MinWeeks, e.AvailableWeeks)
}

func (e *InsufficientTimeError) Is(target error) bool {
	return target == ErrInsufficientTime
}

const day = 24 * time.Hour

type Phase struct {
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Weeks       int       `json:"weeks"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Volume      int       `json:"volume"`
	Intensity   int       `json:"intensity"`
	Focus       string    `json:"focus"`
	WeekNumbers []int     `json:"weekNumbers"`
}

type Deload struct {
	Week   int    `json:"week"`
	Phase  string `json:"phase"`
	Reason string `json:"reason"`
}

// Plan is a date-anchored macrocycle. Phases partition weeks 1..TotalWeeks and the
// last phase ends on TargetDate.
type Plan struct {
	ID             string    `json:"id"`
	AthleteID      string    `json:"athleteId"`
	EventName      string    `json:"eventName,omitempty"`
	Sport          string    `json:"sport"`
	Category       Category  `json:"category"`
	TargetDate     time.Time `json:"targetDate"`
	StartDate      time.Time `json:"startDate"`
	TotalWeeks     int       `json:"totalWeeks"`
	AvailableWeeks int       `json:"availableWeeks"`
	Phases         []Phase   `json:"phases"`
	Deloads        []Deload  `json:"deloads"`
	CreatedAt      time.Time `json:"createdAt"`
}

type PhaseProgress struct {
	Phase
	WeekInPhase  int  `json:"weekInPhase"`
	IsDeloadWeek bool `json:"isDeloadWeek"`
	GlobalWeek   int  `json:"globalWeek"`
}

type Planner struct {
	now func() time.Time
}

func NewPlanner(now func() time.Time) *Planner {
	if now == nil {
		now = time.Now
	}
	return &Planner{now: now}
}

// Date truncates t to its UTC calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeeksUntil returns the whole weeks between the calendar days of now and target, never negative.
func WeeksUntil(now, target time.Time) int {
	days := int(Date(target).Sub(Date(now)) / day)
	return max(0, days/7)
}

// GeneratePhasePlan builds the macrocycle leading to target.
// The plan is anchored on target: StartDate = target - 7*TotalWeeks + 1, which is never
// earlier than the day after now. Plans longer than the category maximum start later, so
// CurrentPhase(plan, today) returns nil until StartDate is reached.
func (p *Planner) GeneratePhasePlan(athleteID, sport string, target time.Time) (*Plan, error) {
	category, err := CategoryForSport(sport)
	if err != nil {
		return nil, err
	}
	cfg := categoryConfigs[category]

	now := p.now()
	available := WeeksUntil(now, target)
	if available < cfg.MinTotalWeeks {
		return nil, &InsufficientTimeError{
			Category:       category,
			MinWeeks:       cfg.MinTotalWeeks,
			AvailableWeeks: available,
		}
	}

	totalWeeks := min(available, cfg.MaxTotalWeeks)
	targetDate := Date(target)
	startDate := targetDate.AddDate(0, 0, -7*totalWeeks+1)

	weeks := distributeWeeks(cfg.Phases, totalWeeks)

	plan := &Plan{
		AthleteID:      athleteID,
		Sport:          sport,
		Category:       category,
		TargetDate:     targetDate,
		StartDate:      startDate,
		TotalWeeks:     totalWeeks,
		AvailableWeeks: available,
		Phases:         make([]Phase, 0, len(cfg.Phases)),
		Deloads:        []Deload{},
		CreatedAt:      now.UTC(),
	}

	current := startDate
	weekNumber := 1
	for i, pc := range cfg.Phases {
		end := current.AddDate(0, 0, 7*weeks[i]-1)
		numbers := make([]int, weeks[i])
		for w := range numbers {
			numbers[w] = weekNumber
			weekNumber++
		}
		plan.Phases = append(plan.Phases, Phase{
			Name:        pc.Name,
			Code:        pc.Code,
			Weeks:       weeks[i],
			StartDate:   current,
			EndDate:     end,
			Volume:      pc.Volume,
			Intensity:   pc.Intensity,
			Focus:       pc.Focus,
			WeekNumbers: numbers,
		})
		current = end.AddDate(0, 0, 1)
	}

	for _, phase := range plan.Phases {
		if phase.Code == CodeTaper {
			continue
		}
		for _, wn := range phase.WeekNumbers {
			if wn%cfg.DeloadEvery == 0 {
				plan.Deloads = append(plan.Deloads, Deload{
					Week:   wn,
					Phase:  phase.Name,
					Reason: fmt.Sprintf("scheduled deload every %d weeks", cfg.DeloadEvery),
				})
			}
		}
	}

	return plan, nil
}

// distributeWeeks splits total across phases proportionally to each phase's mean length,
// clamped to its bounds. The last phase takes what is left. When the bounds cannot be
// met, earlier phases give up weeks (never below one) so the sum is always total.
func distributeWeeks(phases []PhaseConfig, total int) []int {
	weeks := make([]int, len(phases))
	if len(phases) == 0 {
		return weeks
	}

	meanTotal := 0.0
	for _, pc := range phases {
		meanTotal += float64(pc.MinWeeks+pc.MaxWeeks) / 2
	}

	last := len(phases) - 1
	used := 0
	for i, pc := range phases[:last] {
		proportion := float64(pc.MinWeeks+pc.MaxWeeks) / 2 / meanTotal
		w := int(math.Round(float64(total) * proportion))
		weeks[i] = max(pc.MinWeeks, min(pc.MaxWeeks, w))
		used += weeks[i]
	}
	weeks[last] = total - used

	lastMin := max(1, phases[last].MinWeeks)
	for weeks[last] < lastMin {
		i := donorPhase(phases[:last], weeks[:last])
		if i < 0 {
			break
		}
		weeks[i]--
		weeks[last]++
	}

	for weeks[last] > phases[last].MaxWeeks {
		i := -1
		for j := range phases[:last] {
			if weeks[j] < phases[j].MaxWeeks {
				i = j
				break
			}
		}
		if i < 0 {
			break
		}
		weeks[i]++
		weeks[last]--
	}

	return weeks
}

// donorPhase picks the phase to shorten: most slack above its minimum first, then the
// longest phase. Ties go to the earliest. Returns -1 when every phase has one week.
func donorPhase(phases []PhaseConfig, weeks []int) int {
	best, bestSlack := -1, 0
	for i, pc := range phases {
		if slack := weeks[i] - pc.MinWeeks; slack > bestSlack {
			best, bestSlack = i, slack
		}
	}
	if best >= 0 {
		return best
	}

	longest := 1
	for i := range phases {
		if weeks[i] > longest {
			best, longest = i, weeks[i]
		}
	}
	return best
}

// CurrentPhase finds the phase containing date, or nil when date is outside the plan.
func CurrentPhase(plan *Plan, date time.Time) *PhaseProgress {
	if plan == nil {
		return nil
	}
	d := Date(date)
	for _, phase := range plan.Phases {
		if d.Before(phase.StartDate) || d.After(phase.EndDate) {
			continue
		}

		weekInPhase := int(d.Sub(phase.StartDate)/day)/7 + 1
		isDeload := false
		if weekInPhase <= len(phase.WeekNumbers) {
			wn := phase.WeekNumbers[weekInPhase-1]
			for _, dl := range plan.Deloads {
				if dl.Week == wn {
					isDeload = true
					break
				}
			}
		}

		return &PhaseProgress{
			Phase:        phase,
			WeekInPhase:  weekInPhase,
			IsDeloadWeek: isDeload,
			GlobalWeek:   GlobalWeek(plan, date),
		}
	}
	return nil
}

// GlobalWeek returns the 1-indexed plan week of date, clamped to [1, TotalWeeks].
func GlobalWeek(plan *Plan, date time.Time) int {
	if plan == nil || len(plan.Phases) == 0 {
		return 1
	}
	days := int(Date(date).Sub(plan.Phases[0].StartDate) / day)
	week := 1
	if days >= 0 {
		week = days/7 + 1
	}
	return max(1, min(week, plan.TotalWeeks))
}

package periodization

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MaxPlanWeeks bounds a single generated plan (three years).
const MaxPlanWeeks = 156

var ErrInvalidWeeks = errors.New("invalid number of weeks")

type WeekParameters struct {
	Intensity        int      `json:"intensity"`
	Reps             int      `json:"reps"`
	SetsPerMuscle    int      `json:"setsPerMuscle"`
	RIR              int      `json:"rir"`
	VolumeMultiplier float64  `json:"volumeMultiplier"`
	Techniques       []string `json:"techniques"`
	PlyoVolume       string   `json:"plyoVolume"`
	VelocityFocus    bool     `json:"velocityFocus"`
}

type WeekPlan struct {
	WeekNumber   int            `json:"weekNumber"`
	Mesocycle    int            `json:"mesocycle"`
	PhaseName    string         `json:"phase"`
	WeekInPhase  int            `json:"weekInPhase"`
	Focus        Focus          `json:"focus"`
	Parameters   WeekParameters `json:"parameters"`
	IsDeload     bool           `json:"isDeload"`
	Notes        []string       `json:"notes"`
	WavePattern  string         `json:"wavePattern,omitempty"`
	WaveModifier WaveModifier   `json:"waveModifier"`
}

type Profile struct {
	Goal  string `json:"goal"`
	Sport string `json:"sport"`
	Level string `json:"level"`
}

type PhaseBlock struct {
	Name      string `json:"name"`
	StartWeek int    `json:"startWeek"`
	Weeks     int    `json:"weeks"`
	Focus     Focus  `json:"focus"`
}

type MesocycleBlock struct {
	Number    int          `json:"number"`
	StartWeek int          `json:"startWeek"`
	Weeks     int          `json:"weeks"`
	Phases    []PhaseBlock `json:"phases"`
}

type Plan struct {
	Goal        Goal             `json:"goal"`
	Sport       string           `json:"sport"`
	Level       Level            `json:"level"`
	TotalWeeks  int              `json:"totalWeeks"`
	WavePattern string           `json:"wavePattern"`
	Mesocycles  []MesocycleBlock `json:"mesocycles"`
	WeeklyPlans []WeekPlan       `json:"weeklyPlans"`
}

func interpolate(start, end, f float64) float64 {
	return start + (end-start)*math.Min(1, math.Max(0, f))
}

// GenerateWeekPlan derives the parameters of one week inside a phase.
// Intensity rises across the phase while reps and RIR fall. WeekNumber is left for the caller.
func GenerateWeekPlan(phase PhaseDefinition, weekInPhase, totalPhaseWeeks int) WeekPlan {
	f := 1.0
	if totalPhaseWeeks > 0 {
		f = float64(weekInPhase) / float64(totalPhaseWeeks)
	}

	techniques := []string{}
	if len(phase.Techniques) > 0 {
		techniques = append(techniques, phase.Techniques...)
	}
	plyo := phase.PlyoVolume
	if plyo == "" {
		plyo = PlyoNormal
	}

	return WeekPlan{
		WeekNumber:  weekInPhase,
		PhaseName:   phase.Name,
		WeekInPhase: weekInPhase,
		Focus:       phase.Focus,
		Parameters: WeekParameters{
			Intensity:        int(math.Round(interpolate(phase.IntensityRange[0], phase.IntensityRange[1], f))),
			Reps:             int(math.Round(interpolate(phase.RepsRange[1], phase.RepsRange[0], f))),
			SetsPerMuscle:    int(math.Round(interpolate(phase.SetsPerMuscleRange[0], phase.SetsPerMuscleRange[1], f*phase.VolumeMultiplier))),
			RIR:              int(math.Round(interpolate(phase.RIRRange[1], phase.RIRRange[0], f))),
			VolumeMultiplier: phase.VolumeMultiplier,
			Techniques:       techniques,
			PlyoVolume:       plyo,
			VelocityFocus:    phase.VelocityFocus,
		},
		IsDeload: phase.Focus == FocusRecovery,
		Notes:    weekNotes(phase, weekInPhase, totalPhaseWeeks),
	}
}

func weekNotes(phase PhaseDefinition, weekInPhase, totalPhaseWeeks int) []string {
	notes := []string{}
	if weekInPhase == 1 {
		notes = append(notes, fmt.Sprintf("start of phase %s", phase.Name))
	}
	if phase.Focus == FocusRecovery {
		notes = append(notes, "deload week, focus on recovery", "prioritize sleep and nutrition")
	}
	if len(phase.Techniques) > 0 {
		notes = append(notes, "special techniques: "+strings.Join(phase.Techniques, ", "))
	}
	if phase.VelocityFocus {
		notes = append(notes, "focus on execution speed")
	}
	if weekInPhase == totalPhaseWeeks && phase.Focus != FocusRecovery {
		notes = append(notes, "last week of phase, maximize intensity")
	}
	return notes
}

// GeneratePlan expands the goal's mesocycle template into exactly totalWeeks week plans.
// The template repeats as needed and the last block is truncated to fit.
// An empty goal means hypertrophy.
func GeneratePlan(profile Profile, totalWeeks int) (*Plan, error) {
	if totalWeeks < 1 || totalWeeks > MaxPlanWeeks {
		return nil, fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidWeeks, totalWeeks, MaxPlanWeeks)
	}

	goal := GoalHypertrophy
	if strings.TrimSpace(profile.Goal) != "" {
		g, err := ParseGoal(profile.Goal)
		if err != nil {
			return nil, err
		}
		goal = g
	}
	template, err := Catalog(goal)
	if err != nil {
		return nil, err
	}

	sport := profile.Sport
	if sport == "" {
		sport = "gym"
	}
	level := ParseLevel(profile.Level)
	wave := SelectWavePattern(level)

	plan := &Plan{
		Goal:        goal,
		Sport:       sport,
		Level:       level,
		TotalWeeks:  totalWeeks,
		WavePattern: wave.Name,
		Mesocycles:  []MesocycleBlock{},
		WeeklyPlans: make([]WeekPlan, 0, totalWeeks),
	}

	currentWeek := 1
	for number := 1; currentWeek <= totalWeeks; number++ {
		maxWeeks := min(template.TotalWeeks(), totalWeeks-currentWeek+1)
		block, weeks := generateMesocycle(template, number, currentWeek, maxWeeks, wave)
		plan.Mesocycles = append(plan.Mesocycles, block)
		plan.WeeklyPlans = append(plan.WeeklyPlans, weeks...)
		currentWeek += len(weeks)
	}

	return plan, nil
}

func generateMesocycle(template Mesocycle, number, startWeek, maxWeeks int, wave WavePattern) (MesocycleBlock, []WeekPlan) {
	block := MesocycleBlock{
		Number:    number,
		StartWeek: startWeek,
		Phases:    []PhaseBlock{},
	}

	var weeks []WeekPlan
	inMeso := 0
	for _, phase := range template.Phases {
		if inMeso >= maxWeeks {
			break
		}
		phaseWeeks := min(phase.Weeks, maxWeeks-inMeso)
		block.Phases = append(block.Phases, PhaseBlock{
			Name:      phase.Name,
			StartWeek: startWeek + inMeso,
			Weeks:     phaseWeeks,
			Focus:     phase.Focus,
		})

		for w := 1; w <= phaseWeeks; w++ {
			wp := GenerateWeekPlan(phase, w, phaseWeeks)
			wp.WeekNumber = startWeek + inMeso
			wp.Mesocycle = number
			wp.WavePattern = wave.Name
			wp.WaveModifier = wave.ModifierForWeek(wp.WeekNumber)
			weeks = append(weeks, wp)
			inMeso++
		}
	}
	block.Weeks = len(weeks)

	return block, weeks
}

package periodization

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedGoal = errors.New("unsupported goal")

type Goal string

const (
	GoalHypertrophy Goal = "hypertrophy"
	GoalStrength    Goal = "strength"
	GoalPower       Goal = "power"
)

var goalAliases = map[string]Goal{
	"hypertrophy": GoalHypertrophy,
	"ipertrofia":  GoalHypertrophy,
	"massa":       GoalHypertrophy,
	"strength":    GoalStrength,
	"forza":       GoalStrength,
	"power":       GoalPower,
	"potenza":     GoalPower,
	"esplosivita": GoalPower,
}

// ParseGoal maps a goal or one of its aliases onto a Goal.
func ParseGoal(s string) (Goal, error) {
	if g, ok := goalAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedGoal, s)
}

type Focus string

const (
	FocusVolumeAccumulation Focus = "volume_accumulation"
	FocusIntensityIncrease  Focus = "intensity_increase"
	FocusMetabolicStress    Focus = "metabolic_stress"
	FocusStrengthBase       Focus = "strength_base"
	FocusIntensityPeak      Focus = "intensity_peak"
	FocusPeakStrength       Focus = "peak_strength"
	FocusStrengthFoundation Focus = "strength_foundation"
	FocusPowerDevelopment   Focus = "power_development"
	FocusSportTransfer      Focus = "sport_transfer"
	FocusRecovery           Focus = "recovery"
)

const (
	PlyoNormal = "normal"
	PlyoLow    = "low"
	PlyoMedium = "medium"
	PlyoHigh   = "high"
)

// PhaseDefinition is one block of a mesocycle template. Ranges are [start, end] bounds.
type PhaseDefinition struct {
	Name               string     `json:"name"`
	Weeks              int        `json:"weeks"`
	VolumeMultiplier   float64    `json:"volumeMultiplier"`
	IntensityRange     [2]float64 `json:"intensityRange"`
	RepsRange          [2]float64 `json:"repsRange"`
	SetsPerMuscleRange [2]float64 `json:"setsPerMuscleRange"`
	RIRRange           [2]float64 `json:"rirRange"`
	Focus              Focus      `json:"focus"`
	Techniques         []string   `json:"techniques,omitempty"`
	PlyoVolume         string     `json:"plyoVolume,omitempty"`
	VelocityFocus      bool       `json:"velocityFocus,omitempty"`
}

type Mesocycle struct {
	Goal   Goal              `json:"goal"`
	Phases []PhaseDefinition `json:"phases"`
}

func (m Mesocycle) TotalWeeks() int {
	total := 0
	for _, p := range m.Phases {
		total += p.Weeks
	}
	return total
}

var catalog = map[Goal]Mesocycle{
	GoalHypertrophy: {
		Goal: GoalHypertrophy,
		Phases: []PhaseDefinition{
			{
				Name: "Accumulation", Weeks: 4, VolumeMultiplier: 1.0,
				IntensityRange: [2]float64{65, 75}, RepsRange: [2]float64{8, 12},
				SetsPerMuscleRange: [2]float64{12, 16}, RIRRange: [2]float64{2, 3},
				Focus: FocusVolumeAccumulation,
			},
			{
				Name: "Intensification", Weeks: 3, VolumeMultiplier: 0.9,
				IntensityRange: [2]float64{70, 80}, RepsRange: [2]float64{6, 10},
				SetsPerMuscleRange: [2]float64{10, 14}, RIRRange: [2]float64{1, 2},
				Focus: FocusIntensityIncrease,
			},
			{
				Name: "Metabolic", Weeks: 2, VolumeMultiplier: 1.1,
				IntensityRange: [2]float64{60, 70}, RepsRange: [2]float64{12, 20},
				SetsPerMuscleRange: [2]float64{14, 20}, RIRRange: [2]float64{1, 2},
				Focus:      FocusMetabolicStress,
				Techniques: []string{"drop_sets", "rest_pause", "supersets"},
			},
			{
				Name: "Deload", Weeks: 1, VolumeMultiplier: 0.5,
				IntensityRange: [2]float64{50, 60}, RepsRange: [2]float64{8, 12},
				SetsPerMuscleRange: [2]float64{6, 8}, RIRRange: [2]float64{4, 5},
				Focus: FocusRecovery,
			},
		},
	},
	GoalStrength: {
		Goal: GoalStrength,
		Phases: []PhaseDefinition{
			{
				Name: "Accumulation", Weeks: 3, VolumeMultiplier: 1.0,
				IntensityRange: [2]float64{70, 80}, RepsRange: [2]float64{5, 8},
				SetsPerMuscleRange: [2]float64{10, 15}, RIRRange: [2]float64{2, 3},
				Focus: FocusStrengthBase,
			},
			{
				Name: "Intensification", Weeks: 3, VolumeMultiplier: 0.85,
				IntensityRange: [2]float64{80, 88}, RepsRange: [2]float64{3, 5},
				SetsPerMuscleRange: [2]float64{8, 12}, RIRRange: [2]float64{1, 2},
				Focus: FocusIntensityPeak,
			},
			{
				Name: "Peaking", Weeks: 2, VolumeMultiplier: 0.6,
				IntensityRange: [2]float64{88, 95}, RepsRange: [2]float64{1, 3},
				SetsPerMuscleRange: [2]float64{5, 8}, RIRRange: [2]float64{0, 1},
				Focus: FocusPeakStrength,
			},
			{
				Name: "Deload", Weeks: 1, VolumeMultiplier: 0.4,
				IntensityRange: [2]float64{50, 65}, RepsRange: [2]float64{5, 8},
				SetsPerMuscleRange: [2]float64{4, 6}, RIRRange: [2]float64{4, 5},
				Focus: FocusRecovery,
			},
		},
	},
	GoalPower: {
		Goal: GoalPower,
		Phases: []PhaseDefinition{
			{
				Name: "Strength Base", Weeks: 3, VolumeMultiplier: 1.0,
				IntensityRange: [2]float64{75, 85}, RepsRange: [2]float64{4, 6},
				SetsPerMuscleRange: [2]float64{10, 12}, RIRRange: [2]float64{2, 3},
				Focus: FocusStrengthFoundation, PlyoVolume: PlyoLow,
			},
			{
				Name: "Power", Weeks: 3, VolumeMultiplier: 0.8,
				IntensityRange: [2]float64{50, 70}, RepsRange: [2]float64{3, 5},
				SetsPerMuscleRange: [2]float64{8, 10}, RIRRange: [2]float64{2, 3},
				Focus: FocusPowerDevelopment, PlyoVolume: PlyoHigh, VelocityFocus: true,
			},
			{
				Name: "Sport Specific", Weeks: 2, VolumeMultiplier: 0.7,
				IntensityRange: [2]float64{60, 75}, RepsRange: [2]float64{3, 5},
				SetsPerMuscleRange: [2]float64{6, 10}, RIRRange: [2]float64{2, 3},
				Focus: FocusSportTransfer, PlyoVolume: PlyoMedium,
			},
			{
				Name: "Deload", Weeks: 1, VolumeMultiplier: 0.4,
				IntensityRange: [2]float64{40, 55}, RepsRange: [2]float64{5, 8},
				SetsPerMuscleRange: [2]float64{4, 6}, RIRRange: [2]float64{4, 5},
				Focus: FocusRecovery,
			},
		},
	},
}

// Catalog returns a copy of the mesocycle template for goal.
func Catalog(goal Goal) (Mesocycle, error) {
	m, ok := catalog[goal]
	if !ok {
		return Mesocycle{}, fmt.Errorf("%w: %q", ErrUnsupportedGoal, goal)
	}

	phases := make([]PhaseDefinition, len(m.Phases))
	for i, p := range m.Phases {
		if p.Techniques != nil {
			p.Techniques = append([]string(nil), p.Techniques...)
		}
		phases[i] = p
	}
	return Mesocycle{Goal: m.Goal, Phases: phases}, nil
}

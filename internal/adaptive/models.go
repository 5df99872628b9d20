package adaptive

import (
	"math"
	"strings"
)

// Model is a fixed weekly progression that repeats in cycles.
type Model struct {
	Key   string
	Name  string
	Weeks []ModelWeek
}

type ModelWeek struct {
	Phase     string
	Volume    float64
	Intensity float64
	RPETarget float64
	Focus     string
}

const (
	ModelLinear4Week      = "linear_4week"
	ModelUndulatingWeekly = "undulating_weekly"
	ModelSport8Week       = "sport_8week"
	ModelBeginner6Week    = "beginner_6week"
)

const (
	cycleProgression  = 0.05
	maxCycleIntensity = 95.0
	maxCycleVolume    = 130.0
)

var models = map[string]Model{
	ModelLinear4Week: {
		Key:  ModelLinear4Week,
		Name: "Linear 4 weeks",
		Weeks: []ModelWeek{
			{Phase: "accumulo", Volume: 100, Intensity: 70, RPETarget: 6.5, Focus: "Base building"},
			{Phase: "accumulo", Volume: 110, Intensity: 75, RPETarget: 7.0, Focus: "Volume increase"},
			{Phase: "intensificazione", Volume: 90, Intensity: 85, RPETarget: 8.0, Focus: "Intensity peak"},
			{Phase: "deload", Volume: 60, Intensity: 65, RPETarget: 5.0, Focus: "Recovery"},
		},
	},
	ModelUndulatingWeekly: {
		Key:  ModelUndulatingWeekly,
		Name: "Weekly undulating",
		Weeks: []ModelWeek{
			{Phase: "accumulo", Volume: 100, Intensity: 70, RPETarget: 7.0, Focus: "Hypertrophy"},
			{Phase: "intensificazione", Volume: 85, Intensity: 85, RPETarget: 8.0, Focus: "Strength"},
			{Phase: "accumulo", Volume: 110, Intensity: 72, RPETarget: 7.0, Focus: "Volume"},
			{Phase: "deload", Volume: 55, Intensity: 60, RPETarget: 5.0, Focus: "Recovery"},
		},
	},
	ModelSport8Week: {
		Key:  ModelSport8Week,
		Name: "Sport 8 weeks",
		Weeks: []ModelWeek{
			{Phase: "gpp", Volume: 100, Intensity: 65, RPETarget: 6.0, Focus: "General conditioning"},
			{Phase: "gpp", Volume: 110, Intensity: 68, RPETarget: 6.5, Focus: "Volume base"},
			{Phase: "forza_base", Volume: 100, Intensity: 75, RPETarget: 7.0, Focus: "Strength introduction"},
			{Phase: "forza_base", Volume: 105, Intensity: 78, RPETarget: 7.5, Focus: "Strength development"},
			{Phase: "potenza", Volume: 85, Intensity: 85, RPETarget: 8.0, Focus: "Power conversion"},
			{Phase: "potenza", Volume: 80, Intensity: 88, RPETarget: 8.5, Focus: "Power peak"},
			{Phase: "specifico", Volume: 75, Intensity: 80, RPETarget: 7.5, Focus: "Sport-specific"},
			{Phase: "taper", Volume: 50, Intensity: 70, RPETarget: 5.5, Focus: "Competition prep"},
		},
	},
	ModelBeginner6Week: {
		Key:  ModelBeginner6Week,
		Name: "Beginner 6 weeks",
		Weeks: []ModelWeek{
			{Phase: "adattamento", Volume: 70, Intensity: 55, RPETarget: 5.0, Focus: "Learn movements"},
			{Phase: "adattamento", Volume: 80, Intensity: 60, RPETarget: 5.5, Focus: "Build habit"},
			{Phase: "accumulo", Volume: 90, Intensity: 65, RPETarget: 6.0, Focus: "Volume intro"},
			{Phase: "accumulo", Volume: 95, Intensity: 68, RPETarget: 6.5, Focus: "Progressive overload"},
			{Phase: "intensificazione", Volume: 85, Intensity: 72, RPETarget: 7.0, Focus: "Intensity intro"},
			{Phase: "deload", Volume: 60, Intensity: 55, RPETarget: 5.0, Focus: "Test & recover"},
		},
	},
}

var (
	sportModelSports = []string{"boxe", "boxing", "calcio", "football", "basket", "basketball", "rugby", "mma"}
	hypertrophyGoals = []string{"ipertrofia", "massa", "hypertrophy", "aesthetic"}
)

type AthleteContext struct {
	Level string `json:"level"`
	Sport string `json:"sport"`
	Goal  string `json:"goal"`
}

// BaseParams are the scheduled parameters of one week before feedback is applied.
// Volume is a percentage of normal volume, intensity a percentage of the theoretical max.
type BaseParams struct {
	Phase             string  `json:"phase"`
	Volume            float64 `json:"volume"`
	Intensity         float64 `json:"intensity"`
	RPETarget         float64 `json:"rpeTarget"`
	Focus             string  `json:"focus"`
	WeekNumber        int     `json:"weekNumber"`
	WeekInCycle       int     `json:"weekInCycle"`
	CycleNumber       int     `json:"cycleNumber"`
	TotalWeeksInCycle int     `json:"totalWeeksInCycle"`
	Model             string  `json:"model"`
	ModelName         string  `json:"modelName"`
}

// SelectModel picks a weekly model: beginners first, then team and combat sports,
// then hypertrophy goals. Everything else gets the linear model.
func SelectModel(ac AthleteContext) string {
	level := strings.ToLower(strings.TrimSpace(ac.Level))
	sport := strings.ToLower(strings.TrimSpace(ac.Sport))
	goal := strings.ToLower(ac.Goal)

	if level == "principiante" || level == "beginner" {
		return ModelBeginner6Week
	}
	for _, s := range sportModelSports {
		if sport == s {
			return ModelSport8Week
		}
	}
	for _, g := range hypertrophyGoals {
		if strings.Contains(goal, g) {
			return ModelUndulatingWeekly
		}
	}
	return ModelLinear4Week
}

// WeekParameters schedules week (1-based) of the model selected for ac. Weeks past the
// model length start a new cycle, each one 5% harder than the previous.
func WeekParameters(week int, ac AthleteContext) BaseParams {
	if week < 1 {
		week = 1
	}
	model := models[SelectModel(ac)]
	total := len(model.Weeks)
	weekInCycle := ((week - 1) % total) + 1
	cycle := (week-1)/total + 1

	mw := model.Weeks[weekInCycle-1]
	p := BaseParams{
		Phase:             mw.Phase,
		Volume:            mw.Volume,
		Intensity:         mw.Intensity,
		RPETarget:         mw.RPETarget,
		Focus:             mw.Focus,
		WeekNumber:        week,
		WeekInCycle:       weekInCycle,
		CycleNumber:       cycle,
		TotalWeeksInCycle: total,
		Model:             model.Key,
		ModelName:         model.Name,
	}

	if cycle > 1 {
		factor := 1 + float64(cycle-1)*cycleProgression
		p.Intensity = math.Min(maxCycleIntensity, p.Intensity*factor)
		p.Volume = math.Min(maxCycleVolume, p.Volume*factor)
	}

	return p
}

package macrocycle

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnsupportedSport = errors.New("unsupported sport")

type Category string

const (
	CategoryCombat    Category = "combat"
	CategoryTeam      Category = "team"
	CategoryEndurance Category = "endurance"
	CategoryFitness   Category = "fitness"
)

// Phase codes shared with the weekly scheduler and the load optimizer.
const (
	CodeAccumulation    = "accumulo"
	CodeIntensification = "intensificazione"
	CodePeaking         = "peaking"
	CodeTaper           = "taper"
)

type PhaseConfig struct {
	Name      string
	Code      string
	MinWeeks  int
	MaxWeeks  int
	Volume    int
	Intensity int
	Focus     string
}

type CategoryConfig struct {
	Phases        []PhaseConfig
	DeloadEvery   int
	MinTotalWeeks int
	MaxTotalWeeks int
}

var categoryConfigs = map[Category]CategoryConfig{
	CategoryCombat: {
		Phases: []PhaseConfig{
			{Name: "Accumulation", Code: CodeAccumulation, MinWeeks: 4, MaxWeeks: 8, Volume: 100, Intensity: 70, Focus: "aerobic base, technical volume, general strength"},
			{Name: "Intensification", Code: CodeIntensification, MinWeeks: 3, MaxWeeks: 6, Volume: 85, Intensity: 85, Focus: "specific power, hard sparring, explosive strength"},
			{Name: "Peaking", Code: CodePeaking, MinWeeks: 2, MaxWeeks: 3, Volume: 70, Intensity: 95, Focus: "technical sharpening, fight simulations, explosiveness"},
			{Name: "Taper", Code: CodeTaper, MinWeeks: 1, MaxWeeks: 2, Volume: 50, Intensity: 80, Focus: "active recovery, maintenance, weight cut"},
		},
		DeloadEvery:   4,
		MinTotalWeeks: 8,
		MaxTotalWeeks: 24,
	},
	CategoryTeam: {
		Phases: []PhaseConfig{
			{Name: "Pre-Season", Code: CodeAccumulation, MinWeeks: 4, MaxWeeks: 6, Volume: 100, Intensity: 65, Focus: "conditioning, aerobic base, injury prevention"},
			{Name: "Build-Up", Code: CodeIntensification, MinWeeks: 3, MaxWeeks: 5, Volume: 90, Intensity: 80, Focus: "strength, power, team tactics"},
			{Name: "Competition", Code: CodePeaking, MinWeeks: 2, MaxWeeks: 4, Volume: 75, Intensity: 90, Focus: "maintenance, match recovery, sharpening"},
			{Name: "Taper", Code: CodeTaper, MinWeeks: 1, MaxWeeks: 1, Volume: 60, Intensity: 75, Focus: "freshness, neural activation"},
		},
		DeloadEvery:   4,
		MinTotalWeeks: 6,
		MaxTotalWeeks: 20,
	},
	CategoryEndurance: {
		Phases: []PhaseConfig{
			{Name: "Base Building", Code: CodeAccumulation, MinWeeks: 6, MaxWeeks: 12, Volume: 100, Intensity: 60, Focus: "aerobic volume, efficiency, economy"},
			{Name: "Build", Code: CodeIntensification, MinWeeks: 4, MaxWeeks: 8, Volume: 90, Intensity: 80, Focus: "threshold, VO2max, specific strength"},
			{Name: "Peak", Code: CodePeaking, MinWeeks: 2, MaxWeeks: 4, Volume: 70, Intensity: 95, Focus: "race simulations, race-specific intensity"},
			{Name: "Taper", Code: CodeTaper, MinWeeks: 1, MaxWeeks: 3, Volume: 40, Intensity: 70, Focus: "supercompensation, recovery, activation"},
		},
		DeloadEvery:   3,
		MinTotalWeeks: 10,
		MaxTotalWeeks: 26,
	},
	CategoryFitness: {
		Phases: []PhaseConfig{
			{Name: "Hypertrophy", Code: CodeAccumulation, MinWeeks: 6, MaxWeeks: 10, Volume: 100, Intensity: 70, Focus: "muscle volume, time under tension, metabolic work"},
			{Name: "Strength", Code: CodeIntensification, MinWeeks: 4, MaxWeeks: 6, Volume: 80, Intensity: 85, Focus: "heavy loads, low reps, CNS"},
			{Name: "Definition", Code: CodePeaking, MinWeeks: 4, MaxWeeks: 8, Volume: 85, Intensity: 75, Focus: "muscle retention, caloric deficit"},
			{Name: "Deload", Code: CodeTaper, MinWeeks: 1, MaxWeeks: 2, Volume: 50, Intensity: 60, Focus: "recovery, supercompensation"},
		},
		DeloadEvery:   4,
		MinTotalWeeks: 8,
		MaxTotalWeeks: 24,
	},
}

var sportCategories = map[string]Category{
	"boxe":       CategoryCombat,
	"boxing":     CategoryCombat,
	"mma":        CategoryCombat,
	"kickboxing": CategoryCombat,
	"muay thai":  CategoryCombat,
	"judo":       CategoryCombat,
	"wrestling":  CategoryCombat,
	"bjj":        CategoryCombat,

	"calcio":     CategoryTeam,
	"football":   CategoryTeam,
	"soccer":     CategoryTeam,
	"basket":     CategoryTeam,
	"basketball": CategoryTeam,
	"rugby":      CategoryTeam,
	"pallavolo":  CategoryTeam,
	"volleyball": CategoryTeam,
	"hockey":     CategoryTeam,

	"ciclismo":  CategoryEndurance,
	"cycling":   CategoryEndurance,
	"running":   CategoryEndurance,
	"corsa":     CategoryEndurance,
	"triathlon": CategoryEndurance,
	"nuoto":     CategoryEndurance,
	"swimming":  CategoryEndurance,
	"maratona":  CategoryEndurance,
	"marathon":  CategoryEndurance,

	"fitness":      CategoryFitness,
	"palestra":     CategoryFitness,
	"gym":          CategoryFitness,
	"bodybuilding": CategoryFitness,
	"powerlifting": CategoryFitness,
	"crossfit":     CategoryFitness,
}

func CategoryForSport(sport string) (Category, error) {
	if c, ok := sportCategories[strings.ToLower(strings.TrimSpace(sport))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedSport, sport)
}

func ConfigFor(c Category) (CategoryConfig, bool) {
	cfg, ok := categoryConfigs[c]
	return cfg, ok
}

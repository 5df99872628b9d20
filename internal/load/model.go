package load

import (
	"math"
	"strings"

	"github.com/2beens/trainingplanner/internal/normalize"
	"github.com/2beens/trainingplanner/internal/workout"
)

// DefaultRPE is assumed when a session RPE is not reported.
const DefaultRPE = 7.0

const (
	defaultLoadFactor    = 1.0
	defaultRPEMultiplier = 0.85
	loadScale            = 10.0
)

var loadFactors = map[string]float64{
	workout.TypeStrength:     1.5,
	workout.TypeHypertrophy:  1.2,
	workout.TypeConditioning: 0.8,
}

var rpeMultipliers = map[int]float64{
	1: 0.5, 2: 0.55, 3: 0.6, 4: 0.7, 5: 0.75,
	6: 0.8, 7: 0.85, 8: 0.9, 9: 0.95, 10: 1.0,
}

func LoadFactor(exerciseType string) float64 {
	if f, ok := loadFactors[strings.ToLower(exerciseType)]; ok {
		return f
	}
	return defaultLoadFactor
}

func RPEMultiplier(rpe float64) float64 {
	if m, ok := rpeMultipliers[int(math.Round(rpe))]; ok {
		return m
	}
	return defaultRPEMultiplier
}

// ComputeWorkoutLoad returns the normalized training load of one session:
// sum(sets * repsEquivalent * loadFactor * rpeMultiplier) * 10, rounded.
// A non-positive rpe means "not reported" and DefaultRPE is used.
// Exercises without a positive set count contribute nothing.
func ComputeWorkoutLoad(w workout.Workout, rpe float64) float64 {
	if rpe <= 0 {
		rpe = DefaultRPE
	}
	rpeMultiplier := RPEMultiplier(rpe)

	total := 0.0
	for _, ex := range w.Exercises {
		if ex.Sets <= 0 {
			continue
		}
		total += float64(ex.Sets) * normalize.RepsEquivalent(ex.Reps) * LoadFactor(ex.Type) * rpeMultiplier
	}

	return math.Round(total * loadScale)
}

func WeeklyLoad(sessionLoads []float64) float64 {
	total := 0.0
	for _, l := range sessionLoads {
		if l > 0 {
			total += l
		}
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

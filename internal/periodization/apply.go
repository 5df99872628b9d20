package periodization

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/2beens/trainingplanner/internal/normalize"
	"github.com/2beens/trainingplanner/internal/workout"
)

const (
	defaultSets = 3
	minSets     = 2
)

// ApplyPeriodization returns a copy of w prescribed for the given week.
// Warmup and cooldown exercises are copied unchanged.
func ApplyPeriodization(w workout.Workout, wp WeekPlan) workout.Workout {
	out := w.Clone()
	params := wp.Parameters

	for i := range out.Exercises {
		ex := &out.Exercises[i]
		if ex.IsWarmupOrCooldown() {
			continue
		}

		ex.Reps = adjustReps(ex.Reps, params.Reps)

		rir := params.RIR
		ex.RIR = &rir
		ex.TargetIntensity = fmt.Sprintf("%d%% 1RM", params.Intensity)

		if len(params.Techniques) > 0 {
			ex.Techniques = append([]string(nil), params.Techniques...)
		}

		if params.VolumeMultiplier != 1.0 {
			sets := ex.Sets
			if sets <= 0 {
				sets = defaultSets
			}
			ex.Sets = max(minSets, int(math.Round(float64(sets)*params.VolumeMultiplier)))
		}
	}

	out.Periodization = &workout.Periodization{
		WeekNumber:       wp.WeekNumber,
		Phase:            wp.PhaseName,
		Focus:            string(wp.Focus),
		Intensity:        params.Intensity,
		TargetReps:       params.Reps,
		RIR:              params.RIR,
		VolumeMultiplier: params.VolumeMultiplier,
		IsDeload:         wp.IsDeload,
		Notes:            append([]string(nil), wp.Notes...),
	}

	return out
}

// adjustReps shifts a "min-max" range so its midpoint lands on target, keeping its width.
// A plain number is replaced by target. Anything else is left alone.
func adjustReps(reps string, target int) string {
	spec := normalize.ParseReps(reps)
	switch spec.Kind {
	case normalize.RepKindRange:
		diff := float64(target) - float64(spec.Min+spec.Max)/2
		lo := max(1, int(math.Round(float64(spec.Min)+diff)))
		hi := max(lo+1, int(math.Round(float64(spec.Max)+diff)))
		return fmt.Sprintf("%d-%d", lo, hi)
	case normalize.RepKindFixed:
		if _, err := strconv.Atoi(strings.TrimSpace(reps)); err == nil {
			return strconv.Itoa(target)
		}
	}
	return reps
}

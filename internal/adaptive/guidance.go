package adaptive

import "math"

// Guidance translates abstract volume and intensity percentages into prescriptions.
type Guidance struct {
	CompoundSets     int    `json:"compoundSets"`
	AccessorySets    int    `json:"accessorySets"`
	ConditioningSets int    `json:"conditioningSets"`
	MainReps         string `json:"mainReps"`
	RPE              string `json:"rpe"`
	Tempo            string `json:"tempo"`
}

func isUnloadingPhase(phase string) bool {
	return phase == "deload" || phase == "taper"
}

// VolumeToSets maps volume 100 to 4 compound, 3 accessory and 4 conditioning sets.
func VolumeToSets(volume float64, phase string) (compound, accessory, conditioning int) {
	factor := volume / 100
	compound = clampInt(int(math.Round(4*factor)), 2, 6)
	accessory = clampInt(int(math.Round(3*factor)), 1, 5)
	conditioning = clampInt(int(math.Round(4*factor)), 2, 8)

	if isUnloadingPhase(phase) {
		compound = min(3, compound)
		accessory = min(2, accessory)
		conditioning = min(2, conditioning)
	}
	return compound, accessory, conditioning
}

// IntensityToReps maps intensity (% of max) to a main rep range, RPE band and tempo.
func IntensityToReps(intensity float64, phase string) (reps, rpe, tempo string) {
	if isUnloadingPhase(phase) {
		return "8-10 reps (50-60% of normal load)", "RPE 5 max", "fluid, no strain"
	}

	switch {
	case intensity >= 90:
		return "1-3 reps", "RPE 9-10", "controlled, no forced tempo"
	case intensity >= 85:
		return "3-5 reps", "RPE 8-9", "2-0-X (explosive concentric)"
	case intensity >= 75:
		return "5-8 reps", "RPE 7-8", "2-1-2 (controlled)"
	case intensity >= 65:
		return "8-12 reps", "RPE 6-7", "3-1-2 (time under tension)"
	default:
		return "12-15+ reps", "RPE 5-6", "2-0-2 (light)"
	}
}

func GuidanceFor(a Adapted) Guidance {
	var g Guidance
	g.CompoundSets, g.AccessorySets, g.ConditioningSets = VolumeToSets(a.Volume, a.Phase)
	g.MainReps, g.RPE, g.Tempo = IntensityToReps(a.Intensity, a.Phase)
	return g
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

package periodization

import "strings"

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// ParseLevel normalises a level, defaulting to intermediate.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner", "principiante":
		return LevelBeginner
	case "advanced", "avanzato":
		return LevelAdvanced
	default:
		return LevelIntermediate
	}
}

type WaveModifier struct {
	Volume    float64 `json:"volume"`
	Intensity float64 `json:"intensity"`
}

type WavePattern struct {
	Name      string         `json:"name"`
	Label     string         `json:"label"`
	Modifiers []WaveModifier `json:"modifiers"`
}

// ModifierForWeek cycles the pattern by 1-indexed plan week.
func (p WavePattern) ModifierForWeek(week int) WaveModifier {
	if len(p.Modifiers) == 0 || week < 1 {
		return WaveModifier{Volume: 1, Intensity: 1}
	}
	return p.Modifiers[(week-1)%len(p.Modifiers)]
}

var (
	waveLinear = WavePattern{
		Name:  "linear",
		Label: "Linear Progression",
		Modifiers: []WaveModifier{
			{Volume: 1.0, Intensity: 1.0},
			{Volume: 1.05, Intensity: 1.02},
			{Volume: 1.1, Intensity: 1.04},
			{Volume: 0.6, Intensity: 0.85},
		},
	}
	waveUndulating = WavePattern{
		Name:  "undulating",
		Label: "Undulating",
		Modifiers: []WaveModifier{
			{Volume: 1.0, Intensity: 0.95},
			{Volume: 0.85, Intensity: 1.05},
			{Volume: 1.05, Intensity: 1.0},
			{Volume: 0.5, Intensity: 0.8},
		},
	}
	waveStep = WavePattern{
		Name:  "step",
		Label: "Step Loading",
		Modifiers: []WaveModifier{
			{Volume: 1.0, Intensity: 1.0},
			{Volume: 1.08, Intensity: 1.03},
			{Volume: 0.95, Intensity: 0.98},
			{Volume: 1.1, Intensity: 1.05},
			{Volume: 0.5, Intensity: 0.8},
		},
	}
)

func SelectWavePattern(level Level) WavePattern {
	switch level {
	case LevelIntermediate:
		return waveUndulating
	case LevelAdvanced:
		return waveStep
	default:
		return waveLinear
	}
}

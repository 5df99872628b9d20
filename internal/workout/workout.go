package workout

import "strings"

const (
	TypeStrength     = "strength"
	TypeHypertrophy  = "hypertrophy"
	TypeConditioning = "conditioning"
	TypeWarmup       = "warmup"
	TypeCooldown     = "cooldown"
)

type Exercise struct {
	Name            string   `json:"name"`
	Type            string   `json:"type,omitempty"`
	Sets            int      `json:"sets"`
	Reps            string   `json:"reps"`
	Rest            string   `json:"rest,omitempty"`
	Weight          float64  `json:"weight,omitempty"`
	RIR             *int     `json:"rir,omitempty"`
	TargetIntensity string   `json:"targetIntensity,omitempty"`
	Techniques      []string `json:"techniques,omitempty"`
}

// IsWarmupOrCooldown reports whether the exercise must be left alone by periodization.
func (e Exercise) IsWarmupOrCooldown() bool {
	t := strings.ToLower(e.Type)
	return t == TypeWarmup || t == TypeCooldown
}

// Periodization describes which week plan was applied to a workout.
type Periodization struct {
	WeekNumber       int      `json:"weekNumber"`
	Phase            string   `json:"phase"`
	Focus            string   `json:"focus"`
	Intensity        int      `json:"intensity"`
	TargetReps       int      `json:"targetReps"`
	RIR              int      `json:"rir"`
	VolumeMultiplier float64  `json:"volumeMultiplier"`
	IsDeload         bool     `json:"isDeload"`
	Notes            []string `json:"notes,omitempty"`
}

type Workout struct {
	Name          string         `json:"name"`
	Exercises     []Exercise     `json:"exercises"`
	Periodization *Periodization `json:"periodization,omitempty"`
}

// Clone returns a deep copy.
func (w Workout) Clone() Workout {
	c := Workout{Name: w.Name}
	if w.Exercises != nil {
		c.Exercises = make([]Exercise, len(w.Exercises))
		for i, ex := range w.Exercises {
			c.Exercises[i] = ex.clone()
		}
	}
	if w.Periodization != nil {
		p := *w.Periodization
		if p.Notes != nil {
			p.Notes = append([]string(nil), p.Notes...)
		}
		c.Periodization = &p
	}
	return c
}

func (e Exercise) clone() Exercise {
	c := e
	if e.RIR != nil {
		rir := *e.RIR
		c.RIR = &rir
	}
	if e.Techniques != nil {
		c.Techniques = append([]string(nil), e.Techniques...)
	}
	return c
}

// TotalSets sums sets of all non warmup/cooldown exercises.
func (w Workout) TotalSets() int {
	total := 0
	for _, ex := range w.Exercises {
		if ex.IsWarmupOrCooldown() || ex.Sets <= 0 {
			continue
		}
		total += ex.Sets
	}
	return total
}

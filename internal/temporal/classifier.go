package temporal

import (
	"regexp"
	"strings"
)

type Pattern string

const (
	PatternSquat        Pattern = "squat"
	PatternHinge        Pattern = "hinge"
	PatternPush         Pattern = "push"
	PatternPull         Pattern = "pull"
	PatternCore         Pattern = "core"
	PatternCarry        Pattern = "carry"
	PatternPower        Pattern = "power"
	PatternConditioning Pattern = "conditioning"
	PatternUnclassified Pattern = "unclassified"
)

// Patterns lists the movement patterns in priority order.
var Patterns = []Pattern{
	PatternSquat, PatternHinge, PatternPush, PatternPull,
	PatternCore, PatternCarry, PatternPower, PatternConditioning,
}

// fundamentalPatterns must all appear in a balanced mesocycle.
var fundamentalPatterns = []Pattern{PatternSquat, PatternHinge, PatternPush, PatternPull}

type Muscle string

const (
	MuscleChest      Muscle = "chest"
	MuscleBack       Muscle = "back"
	MuscleShoulders  Muscle = "shoulders"
	MuscleBiceps     Muscle = "biceps"
	MuscleTriceps    Muscle = "triceps"
	MuscleQuadriceps Muscle = "quadriceps"
	MuscleHamstrings Muscle = "hamstrings"
	MuscleGlutes     Muscle = "glutes"
	MuscleCalves     Muscle = "calves"
	MuscleCore       Muscle = "core"
)

var Muscles = []Muscle{
	MuscleChest, MuscleBack, MuscleShoulders, MuscleBiceps, MuscleTriceps,
	MuscleQuadriceps, MuscleHamstrings, MuscleGlutes, MuscleCalves, MuscleCore,
}

// Classifier maps exercise names to movement patterns and muscle groups.
// Name matching is approximate; a name it cannot place reports false.
type Classifier interface {
	Pattern(name string) (Pattern, bool)
	Muscles(name string) []Muscle
}

type patternRule struct {
	pattern Pattern
	re      *regexp.Regexp
}

type muscleRule struct {
	muscle Muscle
	re     *regexp.Regexp
}

// RegexClassifier matches exercise names against keyword expressions.
// The first pattern rule that matches wins; every matching muscle rule counts.
type RegexClassifier struct {
	patterns []patternRule
	muscles  []muscleRule
}

func NewRegexClassifier() *RegexClassifier {
	return &RegexClassifier{
		patterns: []patternRule{
			{PatternSquat, regexp.MustCompile(`squat|leg.*press|lunge`)},
			{PatternHinge, regexp.MustCompile(`deadlift|rdl|hinge|bridge|nordic`)},
			{PatternPush, regexp.MustCompile(`push|press|bench|dip`)},
			{PatternPull, regexp.MustCompile(`pull|row|lat|chin`)},
			{PatternCore, regexp.MustCompile(`core|plank|crunch|twist|pallof`)},
			{PatternCarry, regexp.MustCompile(`carry|walk|farmer`)},
			{PatternPower, regexp.MustCompile(`jump|throw|plyo|explosive`)},
			{PatternConditioning, regexp.MustCompile(`run|bike|hiit|circuit`)},
		},
		muscles: []muscleRule{
			{MuscleChest, regexp.MustCompile(`bench|push.*up|fly|chest`)},
			{MuscleBack, regexp.MustCompile(`row|pull|lat|chin|back`)},
			{MuscleShoulders, regexp.MustCompile(`press|lateral|shoulder|delt`)},
			{MuscleBiceps, regexp.MustCompile(`curl|bicep`)},
			{MuscleTriceps, regexp.MustCompile(`extension|tricep|dip`)},
			{MuscleQuadriceps, regexp.MustCompile(`squat|leg.*press|lunge|quad`)},
			{MuscleHamstrings, regexp.MustCompile(`deadlift|rdl|curl|nordic|hamstring`)},
			{MuscleGlutes, regexp.MustCompile(`glute|bridge|hip.*thrust`)},
			{MuscleCalves, regexp.MustCompile(`calf|raise`)},
			{MuscleCore, regexp.MustCompile(`core|plank|crunch|twist`)},
		},
	}
}

func (c *RegexClassifier) Pattern(name string) (Pattern, bool) {
	n := normalizeName(name)
	for _, rule := range c.patterns {
		if rule.re.MatchString(n) {
			return rule.pattern, true
		}
	}
	return PatternUnclassified, false
}

func (c *RegexClassifier) Muscles(name string) []Muscle {
	n := normalizeName(name)
	var hit []Muscle
	for _, rule := range c.muscles {
		if rule.re.MatchString(n) {
			hit = append(hit, rule.muscle)
		}
	}
	return hit
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

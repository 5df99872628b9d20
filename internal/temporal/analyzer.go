package temporal

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/2beens/trainingplanner/internal/normalize"
	"github.com/2beens/trainingplanner/internal/workout"
)

const (
	sessionsPerWeek      = 4
	sessionsPerMesocycle = 16
	minMesoSessions      = 4
	minRecoveryGap       = 48 * time.Hour
	lowWeeklyVolume      = 40
	flatVolumeTolerance  = 3
)

// Session is one executed or planned workout. Date is optional; without dates on every
// session the recovery check cannot run.
type Session struct {
	Date *time.Time `json:"date,omitempty"`
	workout.Workout
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var priorityRank = map[Priority]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}

type Recommendation struct {
	Type     string   `json:"type"`
	Priority Priority `json:"priority"`
	Message  string   `json:"message"`
}

type RecoveryCheck struct {
	Checked    bool     `json:"checked"`
	Adequate   bool     `json:"adequate"`
	Violations []Muscle `json:"violations,omitempty"`
	Note       string   `json:"note,omitempty"`
}

type Variety struct {
	UniqueExercises int     `json:"uniqueExercises"`
	TotalExercises  int     `json:"totalExercises"`
	VarietyRatio    float64 `json:"varietyRatio"`
}

type MicroAnalysis struct {
	SessionCount        int              `json:"sessionCount"`
	TotalVolume         int              `json:"totalVolume"`
	PatternDistribution map[Pattern]int  `json:"patternDistribution"`
	MuscleFrequency     map[Muscle]int   `json:"muscleFrequency"`
	Recovery            RecoveryCheck    `json:"recovery"`
	Variety             Variety          `json:"variety"`
	Recommendations     []Recommendation `json:"recommendations"`
}

type Shape string

const (
	ShapeInsufficientData Shape = "insufficient_data"
	ShapeLinearTaper      Shape = "linear_taper"
	ShapeAccumulation     Shape = "accumulation"
	ShapeUndulating       Shape = "undulating"
)

type IntensityLevel string

const (
	IntensityVeryHigh IntensityLevel = "very_high"
	IntensityHigh     IntensityLevel = "high"
	IntensityModerate IntensityLevel = "moderate"
	IntensityLow      IntensityLevel = "low"
)

type PatternCoverage struct {
	Patterns map[Pattern]int `json:"patterns"`
	Missing  []Pattern       `json:"missing"`
	Complete bool            `json:"complete"`
}

type MesoAnalysis struct {
	Sufficient           bool             `json:"sufficient"`
	WeekCount            int              `json:"weekCount"`
	SessionCount         int              `json:"sessionCount"`
	VolumeProgression    []int            `json:"volumeProgression"`
	IntensityProgression []IntensityLevel `json:"intensityProgression"`
	Shape                Shape            `json:"shape"`
	PatternCoverage      PatternCoverage  `json:"patternCoverage"`
	HasDeload            bool             `json:"hasDeload"`
	Recommendations      []Recommendation `json:"recommendations"`
}

type MesocycleSummary struct {
	Mesocycle    int            `json:"mesocycle"`
	AvgVolume    int            `json:"avgVolume"`
	AvgIntensity IntensityLevel `json:"avgIntensity"`
	Focus        string         `json:"focus"`
}

type GoalAlignment struct {
	Goal    string `json:"goal"`
	Aligned bool   `json:"aligned"`
	Note    string `json:"note"`
}

type RiskAssessment struct {
	Risk string `json:"risk"`
	Note string `json:"note"`
}

type MacroAnalysis struct {
	MesocycleCount   int                `json:"mesocycleCount"`
	TotalSessions    int                `json:"totalSessions"`
	Phases           []MesocycleSummary `json:"phases"`
	GoalAlignment    []GoalAlignment    `json:"goalAlignment"`
	OvertrainingRisk RiskAssessment     `json:"overtrainingRisk"`
	Predictions      []string           `json:"predictions"`
}

// Report audits one program at the three grains: the last week, the last mesocycle and
// the whole history.
type Report struct {
	Micro MicroAnalysis `json:"micro"`
	Meso  MesoAnalysis  `json:"meso"`
	Macro MacroAnalysis `json:"macro"`
}

// Analyzer audits sequences of workouts, oldest first. Everything it returns is advisory.
type Analyzer struct {
	classifier Classifier
}

func NewAnalyzer(classifier Classifier) *Analyzer {
	if classifier == nil {
		classifier = NewRegexClassifier()
	}
	return &Analyzer{
		classifier: classifier,
	}
}

func (a *Analyzer) Analyze(sessions []Session, goals []string) Report {
	return Report{
		Micro: a.Micro(lastN(sessions, sessionsPerWeek)),
		Meso:  a.Meso(lastN(sessions, sessionsPerMesocycle)),
		Macro: a.Macro(sessions, goals),
	}
}

func lastN(sessions []Session, n int) []Session {
	return sessions[max(0, len(sessions)-n):]
}

// Micro audits about one week of sessions.
func (a *Analyzer) Micro(sessions []Session) MicroAnalysis {
	analysis := MicroAnalysis{
		SessionCount:        len(sessions),
		TotalVolume:         totalSets(sessions),
		PatternDistribution: a.patternDistribution(sessions),
		MuscleFrequency:     a.muscleFrequency(sessions),
		Recovery:            a.recoveryCheck(sessions),
		Variety:             variety(sessions),
		Recommendations:     []Recommendation{},
	}
	if len(sessions) == 0 {
		analysis.Recommendations = append(analysis.Recommendations, Recommendation{
			Type:     "data",
			Priority: PriorityLow,
			Message:  "no sessions to analyze",
		})
		return analysis
	}

	patterns := analysis.PatternDistribution
	if float64(patterns[PatternPush]) > float64(patterns[PatternPull])*1.5 {
		analysis.Recommendations = append(analysis.Recommendations, Recommendation{
			Type:     "balance",
			Priority: PriorityHigh,
			Message:  "add more pulling work to balance the pushing",
		})
	}
	if patterns[PatternHinge] == 0 {
		analysis.Recommendations = append(analysis.Recommendations, Recommendation{
			Type:     "missing_pattern",
			Priority: PriorityHigh,
			Message:  "no hinge work (deadlift, RDL, bridge): risk of imbalances",
		})
	}
	if analysis.TotalVolume < lowWeeklyVolume {
		analysis.Recommendations = append(analysis.Recommendations, Recommendation{
			Type:     "volume",
			Priority: PriorityMedium,
			Message:  "low weekly volume: consider more sets if the goal is hypertrophy or strength",
		})
	}
	if len(analysis.Recovery.Violations) > 0 {
		analysis.Recommendations = append(analysis.Recommendations, Recommendation{
			Type:     "recovery",
			Priority: PriorityMedium,
			Message:  fmt.Sprintf("trained again within 48h: %s", joinMuscles(analysis.Recovery.Violations)),
		})
	}
	if n := patterns[PatternUnclassified]; n > 0 {
		analysis.Recommendations = append(analysis.Recommendations, Recommendation{
			Type:     "data",
			Priority: PriorityLow,
			Message:  fmt.Sprintf("%d exercises could not be classified", n),
		})
	}

	sortRecommendations(analysis.Recommendations)
	return analysis
}

// Meso audits about four weeks of sessions, split into weeks of four sessions.
func (a *Analyzer) Meso(sessions []Session) MesoAnalysis {
	analysis := MesoAnalysis{
		SessionCount:         len(sessions),
		VolumeProgression:    []int{},
		IntensityProgression: []IntensityLevel{},
		Shape:                ShapeInsufficientData,
		Recommendations:      []Recommendation{},
	}
	if len(sessions) < minMesoSessions {
		analysis.Recommendations = append(analysis.Recommendations, Recommendation{
			Type:     "data",
			Priority: PriorityLow,
			Message:  fmt.Sprintf("need at least %d sessions for a mesocycle analysis", minMesoSessions),
		})
		return analysis
	}
	analysis.Sufficient = true

	weeks := chunk(sessions, sessionsPerWeek)
	analysis.WeekCount = len(weeks)
	for _, w := range weeks {
		analysis.VolumeProgression = append(analysis.VolumeProgression, totalSets(w))
		analysis.IntensityProgression = append(analysis.IntensityProgression, EstimateIntensity(w))
	}
	analysis.Shape = DetectShape(analysis.VolumeProgression)
	analysis.HasDeload = DetectDeload(analysis.VolumeProgression)
	analysis.PatternCoverage = a.patternCoverage(sessions)

	if !analysis.HasDeload && analysis.WeekCount >= 4 {
		analysis.Recommendations = append(analysis.Recommendations, Recommendation{
			Type:     "recovery",
			Priority: PriorityHigh,
			Message:  "plan a deload week every 4-6 weeks",
		})
	}
	if !analysis.PatternCoverage.Complete {
		missing := make([]string, len(analysis.PatternCoverage.Missing))
		for i, p := range analysis.PatternCoverage.Missing {
			missing[i] = string(p)
		}
		analysis.Recommendations = append(analysis.Recommendations, Recommendation{
			Type:     "missing_pattern",
			Priority: PriorityHigh,
			Message:  fmt.Sprintf("patterns missing in the mesocycle: %s", strings.Join(missing, ", ")),
		})
	}
	if isFlat(analysis.VolumeProgression) {
		analysis.Recommendations = append(analysis.Recommendations, Recommendation{
			Type:     "progression",
			Priority: PriorityMedium,
			Message:  "volume is flat: progress it to keep driving adaptation",
		})
	}

	sortRecommendations(analysis.Recommendations)
	return analysis
}

var (
	powerGoalRegex     = regexp.MustCompile(`jump|vertical|explosive|salto`)
	strengthGoalRegex  = regexp.MustCompile(`strength|force|forza`)
	enduranceGoalRegex = regexp.MustCompile(`endurance|stamina|resistenza`)
)

// Macro audits a long history, split into mesocycles of 16 sessions.
func (a *Analyzer) Macro(sessions []Session, goals []string) MacroAnalysis {
	mesocycles := chunk(sessions, sessionsPerMesocycle)
	analysis := MacroAnalysis{
		MesocycleCount: len(mesocycles),
		TotalSessions:  len(sessions),
		Phases:         make([]MesocycleSummary, len(mesocycles)),
		GoalAlignment:  []GoalAlignment{},
		Predictions:    []string{},
	}
	for i, m := range mesocycles {
		analysis.Phases[i] = MesocycleSummary{
			Mesocycle:    i + 1,
			AvgVolume:    avgVolume(m),
			AvgIntensity: EstimateIntensity(m),
			Focus:        a.focus(m),
		}
	}

	patterns := a.patternDistribution(sessions)
	n := float64(len(sessions))

	for _, goal := range goals {
		g := strings.ToLower(goal)
		switch {
		case powerGoalRegex.MatchString(g):
			aligned := patterns[PatternPower] > 0 && patterns[PatternSquat] > 0
			analysis.GoalAlignment = append(analysis.GoalAlignment, GoalAlignment{
				Goal:    goal,
				Aligned: aligned,
				Note:    pick(aligned, "power work present", "more power and plyometric work needed"),
			})
		case strengthGoalRegex.MatchString(g):
			compound := patterns[PatternSquat] + patterns[PatternHinge] + patterns[PatternPush] + patterns[PatternPull]
			aligned := float64(compound) > n
			analysis.GoalAlignment = append(analysis.GoalAlignment, GoalAlignment{
				Goal:    goal,
				Aligned: aligned,
				Note:    pick(aligned, "compound movements present", "more compound movements needed"),
			})
		case enduranceGoalRegex.MatchString(g):
			aligned := patterns[PatternConditioning] > 0
			analysis.GoalAlignment = append(analysis.GoalAlignment, GoalAlignment{
				Goal:    goal,
				Aligned: aligned,
				Note:    pick(aligned, "conditioning present", "add more conditioning"),
			})
		}
	}

	switch v := avgVolume(sessions); {
	case v > 30:
		analysis.OvertrainingRisk = RiskAssessment{Risk: "high", Note: "very high volume: consider a deload"}
	case v > 25:
		analysis.OvertrainingRisk = RiskAssessment{Risk: "moderate", Note: "high volume: monitor recovery"}
	default:
		analysis.OvertrainingRisk = RiskAssessment{Risk: "low", Note: "volume is appropriate"}
	}

	if float64(patterns[PatternPower]) > n*0.3 {
		analysis.Predictions = append(analysis.Predictions, "power and explosiveness expected to improve")
	}
	if float64(patterns[PatternSquat]+patterns[PatternHinge]) > n*0.5 {
		analysis.Predictions = append(analysis.Predictions, "lower body strength expected to improve")
	}
	if float64(patterns[PatternConditioning]) > n*0.2 {
		analysis.Predictions = append(analysis.Predictions, "aerobic capacity expected to improve")
	}

	return analysis
}

// DetectShape classifies a sequence of weekly volumes by which direction dominates.
func DetectShape(volumes []int) Shape {
	if len(volumes) < 3 {
		return ShapeInsufficientData
	}
	increasing, decreasing := 0, 0
	for i := 1; i < len(volumes); i++ {
		switch {
		case volumes[i] > volumes[i-1]:
			increasing++
		case volumes[i] < volumes[i-1]:
			decreasing++
		}
	}
	switch {
	case decreasing > increasing*2:
		return ShapeLinearTaper
	case increasing > decreasing*2:
		return ShapeAccumulation
	default:
		return ShapeUndulating
	}
}

// DetectDeload reports whether the last of at least four weeks dropped below 60% of the
// week before.
func DetectDeload(volumes []int) bool {
	if len(volumes) < 4 {
		return false
	}
	last, previous := volumes[len(volumes)-1], volumes[len(volumes)-2]
	return float64(last) < float64(previous)*0.6
}

// EstimateIntensity uses the average target reps as an intensity proxy: fewer reps, heavier work.
func EstimateIntensity(sessions []Session) IntensityLevel {
	total, count := 0.0, 0
	for _, s := range sessions {
		for _, ex := range s.Exercises {
			if reps, ok := normalize.ParseReps(ex.Reps).Target(); ok && reps > 0 {
				total += reps
				count++
			}
		}
	}
	avg := 10.0
	if count > 0 {
		avg = total / float64(count)
	}

	switch {
	case avg <= 5:
		return IntensityVeryHigh
	case avg <= 8:
		return IntensityHigh
	case avg <= 12:
		return IntensityModerate
	default:
		return IntensityLow
	}
}

func (a *Analyzer) patternDistribution(sessions []Session) map[Pattern]int {
	dist := make(map[Pattern]int, len(Patterns)+1)
	for _, p := range Patterns {
		dist[p] = 0
	}
	dist[PatternUnclassified] = 0

	for _, s := range sessions {
		for _, ex := range s.Exercises {
			p, ok := a.classifier.Pattern(ex.Name)
			if !ok {
				p = PatternUnclassified
			}
			dist[p]++
		}
	}
	return dist
}

func (a *Analyzer) patternCoverage(sessions []Session) PatternCoverage {
	patterns := a.patternDistribution(sessions)
	missing := []Pattern{}
	for _, p := range fundamentalPatterns {
		if patterns[p] == 0 {
			missing = append(missing, p)
		}
	}
	return PatternCoverage{
		Patterns: patterns,
		Missing:  missing,
		Complete: len(missing) == 0,
	}
}

// muscleFrequency counts the sessions touching each muscle group.
func (a *Analyzer) muscleFrequency(sessions []Session) map[Muscle]int {
	freq := make(map[Muscle]int, len(Muscles))
	for _, m := range Muscles {
		freq[m] = 0
	}
	for _, s := range sessions {
		for m := range a.sessionMuscles(s) {
			freq[m]++
		}
	}
	return freq
}

func (a *Analyzer) sessionMuscles(s Session) map[Muscle]struct{} {
	hit := make(map[Muscle]struct{})
	for _, ex := range s.Exercises {
		for _, m := range a.classifier.Muscles(ex.Name) {
			hit[m] = struct{}{}
		}
	}
	return hit
}

func (a *Analyzer) recoveryCheck(sessions []Session) RecoveryCheck {
	if len(sessions) == 0 {
		return RecoveryCheck{Adequate: true, Note: "no sessions"}
	}
	for _, s := range sessions {
		if s.Date == nil {
			return RecoveryCheck{Adequate: true, Note: "session dates needed for a recovery check"}
		}
	}

	dated := append([]Session(nil), sessions...)
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].Date.Before(*dated[j].Date)
	})

	lastHit := make(map[Muscle]time.Time)
	violated := make(map[Muscle]bool)
	for _, s := range dated {
		for m := range a.sessionMuscles(s) {
			if prev, ok := lastHit[m]; ok && s.Date.Sub(prev) < minRecoveryGap {
				violated[m] = true
			}
			lastHit[m] = *s.Date
		}
	}

	check := RecoveryCheck{Checked: true, Adequate: len(violated) == 0}
	for _, m := range Muscles {
		if violated[m] {
			check.Violations = append(check.Violations, m)
		}
	}
	return check
}

func (a *Analyzer) focus(sessions []Session) string {
	patterns := a.patternDistribution(sessions)
	best, bestCount := "general", 0
	for _, p := range Patterns {
		if patterns[p] > bestCount {
			best, bestCount = string(p), patterns[p]
		}
	}
	return best
}

func variety(sessions []Session) Variety {
	unique := make(map[string]struct{})
	total := 0
	for _, s := range sessions {
		for _, ex := range s.Exercises {
			unique[normalizeName(ex.Name)] = struct{}{}
			total++
		}
	}
	v := Variety{UniqueExercises: len(unique), TotalExercises: total}
	if total > 0 {
		v.VarietyRatio = math.Round(float64(len(unique))/float64(total)*100) / 100
	}
	return v
}

func totalSets(sessions []Session) int {
	total := 0
	for _, s := range sessions {
		for _, ex := range s.Exercises {
			total += max(0, ex.Sets)
		}
	}
	return total
}

func avgVolume(sessions []Session) int {
	if len(sessions) == 0 {
		return 0
	}
	return int(math.Round(float64(totalSets(sessions)) / float64(len(sessions))))
}

func chunk(sessions []Session, size int) [][]Session {
	var chunks [][]Session
	for i := 0; i < len(sessions); i += size {
		chunks = append(chunks, sessions[i:min(i+size, len(sessions))])
	}
	return chunks
}

func isFlat(volumes []int) bool {
	for _, v := range volumes {
		if abs(v-volumes[0]) >= flatVolumeTolerance {
			return false
		}
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

func joinMuscles(muscles []Muscle) string {
	names := make([]string, len(muscles))
	for i, m := range muscles {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func sortRecommendations(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return priorityRank[recs[i].Priority] < priorityRank[recs[j].Priority]
	})
}

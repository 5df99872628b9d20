package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultRepsEquivalent is used when a reps string cannot be understood.
const DefaultRepsEquivalent = 10.0

// EffortRepsEquivalent is the flat value given to open-ended efforts (AMRAP, EMOM, circuits).
const EffortRepsEquivalent = 15.0

type RepKind string

const (
	RepKindFixed   RepKind = "fixed"
	RepKindRange   RepKind = "range"
	RepKindTimed   RepKind = "timed"
	RepKindEffort  RepKind = "effort"
	RepKindUnknown RepKind = "unknown"
)

// RepSpec is the parsed form of a prescription like "8-12", "30s", "3min" or "AMRAP".
type RepSpec struct {
	Kind    RepKind `json:"kind"`
	Min     int     `json:"min,omitempty"`
	Max     int     `json:"max,omitempty"`
	Seconds int     `json:"seconds,omitempty"`
	Keyword string  `json:"keyword,omitempty"`
	Raw     string  `json:"raw"`
}

var (
	rangeRegex   = regexp.MustCompile(`(\d+)\s*[-–]\s*(\d+)`)
	secondsRegex = regexp.MustCompile(`(\d+)\s*(seconds?|secs?|s)\b`)
	minutesRegex = regexp.MustCompile(`(\d+)\s*(minutes?|mins?|m)\b`)
	fixedRegex   = regexp.MustCompile(`^(\d+)`)
	effortWords  = []string{"amrap", "emom", "circuit"}
)

func ParseReps(s string) RepSpec {
	raw := s
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RepSpec{Kind: RepKindUnknown, Raw: raw}
	}

	if m := rangeRegex.FindStringSubmatch(s); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		return RepSpec{Kind: RepKindRange, Min: lo, Max: hi, Raw: raw}
	}

	if m := secondsRegex.FindStringSubmatch(s); m != nil {
		secs, _ := strconv.Atoi(m[1])
		return RepSpec{Kind: RepKindTimed, Seconds: secs, Raw: raw}
	}

	if m := minutesRegex.FindStringSubmatch(s); m != nil {
		mins, _ := strconv.Atoi(m[1])
		return RepSpec{Kind: RepKindTimed, Seconds: mins * 60, Raw: raw}
	}

	for _, word := range effortWords {
		if strings.Contains(s, word) {
			return RepSpec{Kind: RepKindEffort, Keyword: word, Raw: raw}
		}
	}

	if m := fixedRegex.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n > 0 {
			return RepSpec{Kind: RepKindFixed, Min: n, Max: n, Raw: raw}
		}
	}

	return RepSpec{Kind: RepKindUnknown, Raw: raw}
}

// Equivalent converts the rep prescription into a single "reps equivalent" number used by load models.
// Timed work counts one rep per 4 seconds.
func (r RepSpec) Equivalent() float64 {
	switch r.Kind {
	case RepKindFixed:
		return float64(r.Min)
	case RepKindRange:
		return float64(r.Min+r.Max) / 2
	case RepKindTimed:
		return float64(r.Seconds) / 4
	case RepKindEffort:
		return EffortRepsEquivalent
	default:
		return DefaultRepsEquivalent
	}
}

// Target returns the midpoint for ranges and the value itself for fixed reps.
func (r RepSpec) Target() (float64, bool) {
	switch r.Kind {
	case RepKindFixed:
		return float64(r.Min), true
	case RepKindRange:
		return float64(r.Min+r.Max) / 2, true
	default:
		return 0, false
	}
}

func RepsEquivalent(s string) float64 {
	return ParseReps(s).Equivalent()
}

package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DefaultRest = 90 * time.Second

var (
	restSecondsRegex = regexp.MustCompile(`(\d+)\s*s(?:ec)?`)
	restMinutesRegex = regexp.MustCompile(`(\d+)\s*min`)
	restColonRegex   = regexp.MustCompile(`(\d+):(\d+)`)
	restNumberRegex  = regexp.MustCompile(`(\d+)`)
)

// ParseRest understands "90s", "90sec", "2min", "1:30" and bare numbers (seconds).
// Anything else yields DefaultRest.
func ParseRest(s string) time.Duration {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultRest
	}

	if m := restColonRegex.FindStringSubmatch(s); m != nil {
		mins, _ := strconv.Atoi(m[1])
		secs, _ := strconv.Atoi(m[2])
		return time.Duration(mins)*time.Minute + time.Duration(secs)*time.Second
	}
	if m := restMinutesRegex.FindStringSubmatch(s); m != nil {
		mins, _ := strconv.Atoi(m[1])
		return time.Duration(mins) * time.Minute
	}
	if m := restSecondsRegex.FindStringSubmatch(s); m != nil {
		secs, _ := strconv.Atoi(m[1])
		return time.Duration(secs) * time.Second
	}
	if m := restNumberRegex.FindStringSubmatch(s); m != nil {
		secs, _ := strconv.Atoi(m[1])
		return time.Duration(secs) * time.Second
	}

	return DefaultRest
}

func RestSeconds(s string) int {
	return int(ParseRest(s) / time.Second)
}

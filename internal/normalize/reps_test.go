package normalize_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/2beens/trainingplanner/internal/normalize"
)

func TestParseReps(t *testing.T) {
	testCases := []struct {
		name       string
		in         string
		kind       normalize.RepKind
		equivalent float64
	}{
		{name: "range", in: "8-12", kind: normalize.RepKindRange, equivalent: 10},
		{name: "range with spaces", in: "6 - 9", kind: normalize.RepKindRange, equivalent: 7.5},
		{name: "seconds", in: "30s", kind: normalize.RepKindTimed, equivalent: 7.5},
		{name: "seconds long", in: "40 sec", kind: normalize.RepKindTimed, equivalent: 10},
		{name: "minutes", in: "3min", kind: normalize.RepKindTimed, equivalent: 45},
		{name: "amrap", in: "AMRAP", kind: normalize.RepKindEffort, equivalent: 15},
		{name: "emom", in: "emom x10", kind: normalize.RepKindEffort, equivalent: 15},
		{name: "circuit", in: "Circuit", kind: normalize.RepKindEffort, equivalent: 15},
		{name: "fixed", in: "5", kind: normalize.RepKindFixed, equivalent: 5},
		{name: "fixed with suffix", in: "12 reps", kind: normalize.RepKindFixed, equivalent: 12},
		{name: "zero", in: "0", kind: normalize.RepKindUnknown, equivalent: 10},
		{name: "empty", in: "", kind: normalize.RepKindUnknown, equivalent: 10},
		{name: "garbage", in: "to failure", kind: normalize.RepKindUnknown, equivalent: 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec := normalize.ParseReps(tc.in)
			assert.Equal(t, tc.kind, spec.Kind)
			assert.InDelta(t, tc.equivalent, spec.Equivalent(), 0.0001)
			assert.InDelta(t, tc.equivalent, normalize.RepsEquivalent(tc.in), 0.0001)
		})
	}
}

func TestRepSpec_Target(t *testing.T) {
	target, ok := normalize.ParseReps("8-12").Target()
	assert.True(t, ok)
	assert.Equal(t, 10.0, target)

	target, ok = normalize.ParseReps("6").Target()
	assert.True(t, ok)
	assert.Equal(t, 6.0, target)

	_, ok = normalize.ParseReps("30s").Target()
	assert.False(t, ok)
}

func TestParseRest(t *testing.T) {
	assert.Equal(t, 90*time.Second, normalize.ParseRest("90s"))
	assert.Equal(t, 45*time.Second, normalize.ParseRest("45sec"))
	assert.Equal(t, 2*time.Minute, normalize.ParseRest("2min"))
	assert.Equal(t, 2*time.Minute, normalize.ParseRest("2 min"))
	assert.Equal(t, 90*time.Second, normalize.ParseRest("1:30"))
	assert.Equal(t, 60*time.Second, normalize.ParseRest("60"))
	assert.Equal(t, normalize.DefaultRest, normalize.ParseRest(""))
	assert.Equal(t, normalize.DefaultRest, normalize.ParseRest("as needed"))
	assert.Equal(t, 120, normalize.RestSeconds("2min"))
}

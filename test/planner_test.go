//go:build integration_test || all_tests

package test

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/trainingplanner/internal/load"
	"github.com/2beens/trainingplanner/internal/macrocycle"
	"github.com/2beens/trainingplanner/internal/progress"
)

func targetInWeeks(weeks int) string {
	return time.Now().AddDate(0, 0, 7*weeks).Format(time.DateOnly)
}

func (s *PlannerTestSuite) TestWritesRequireCoachToken() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	body := fmt.Sprintf(`{"sport":"boxe","targetDate":%q}`, targetInWeeks(12))
	status, _ := s.do(ctx, http.MethodPost, "/macro/"+gofakeit.UUID()+"/plans", body, false)
	assert.Equal(t, http.StatusUnauthorized, status)

	// compute-only endpoints are open
	status, _ = s.do(ctx, http.MethodPost, "/periodization/plan", `{"goal":"hypertrophy","weeks":6}`, false)
	assert.Equal(t, http.StatusOK, status)
}

func (s *PlannerTestSuite) TestMacroPlanLifecycle() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()
	athleteID := gofakeit.UUID()

	var plan macrocycle.Plan
	s.doJSON(ctx, http.MethodPost, "/macro/"+athleteID+"/plans",
		fmt.Sprintf(`{"sport":"boxe","eventName":%q,"targetDate":%q}`, gofakeit.Company(), targetInWeeks(12)),
		http.StatusCreated, &plan)
	require.NotEmpty(t, plan.ID)
	assert.Equal(t, macrocycle.CategoryCombat, plan.Category)

	var count int
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT count(*) FROM macro_plan WHERE athlete_id = $1`, athleteID).Scan(&count))
	assert.Equal(t, 1, count)

	var active macrocycle.Plan
	s.doJSON(ctx, http.MethodGet, "/macro/"+athleteID+"/plans/active", "", http.StatusOK, &active)
	assert.Equal(t, plan.ID, active.ID)

	var current macrocycle.PhaseProgress
	tomorrow := time.Now().AddDate(0, 0, 1).Format(time.DateOnly)
	s.doJSON(ctx, http.MethodGet, "/macro/"+athleteID+"/plans/active/current?date="+tomorrow, "", http.StatusOK, &current)
	assert.Equal(t, 1, current.GlobalWeek)
	assert.Equal(t, plan.Phases[0].Name, current.Name)

	var insufficient macrocycle.InsufficientTimeResponse
	s.doJSON(ctx, http.MethodPost, "/macro/"+athleteID+"/plans",
		fmt.Sprintf(`{"sport":"boxe","targetDate":%q}`, targetInWeeks(3)),
		http.StatusUnprocessableEntity, &insufficient)
	assert.Equal(t, 8, insufficient.MinWeeks)

	s.doJSON(ctx, http.MethodDelete, "/macro/"+athleteID+"/plans/"+plan.ID, "", http.StatusNoContent, nil)
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT count(*) FROM macro_plan WHERE athlete_id = $1`, athleteID).Scan(&count))
	assert.Equal(t, 0, count)

	status, _ := s.do(ctx, http.MethodGet, "/macro/"+athleteID+"/plans/active", "", false)
	assert.Equal(t, http.StatusNotFound, status)
}

func (s *PlannerTestSuite) TestProgressFromMacroPlan() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()
	athleteID := gofakeit.UUID()

	s.doJSON(ctx, http.MethodPost, "/macro/"+athleteID+"/plans",
		fmt.Sprintf(`{"sport":"calcio","targetDate":%q}`, targetInWeeks(10)),
		http.StatusCreated, nil)

	var initialized progress.AthleteProgress
	s.doJSON(ctx, http.MethodPost, "/progress/"+athleteID, `{"fromMacroPlan":true}`, http.StatusCreated, &initialized)
	assert.Equal(t, 1, initialized.MacroPlan.CurrentWeek)
	assert.Equal(t, 10, initialized.MacroPlan.TotalWeeks)

	s.doJSON(ctx, http.MethodPost, "/progress/"+athleteID+"/feedback",
		`{"fatigue":4,"motivation":8,"performance":"excellent","workoutsCompleted":4,"workoutsPlanned":4}`,
		http.StatusCreated, nil)
	s.doJSON(ctx, http.MethodPost, "/progress/"+athleteID+"/advance", "", http.StatusOK, nil)

	var summary progress.Summary
	s.doJSON(ctx, http.MethodGet, "/progress/"+athleteID+"/summary", "", http.StatusOK, &summary)
	assert.Equal(t, "2/10", summary.MacroStatus.Week)
	assert.Equal(t, 1, summary.TotalWeeksTracked)
	assert.Equal(t, 1, summary.Adaptation.ExcellentStreak)

	var version int64
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT version FROM athlete_progress WHERE athlete_id = $1`, athleteID).Scan(&version))
	assert.Equal(t, int64(3), version)
}

func (s *PlannerTestSuite) TestLoadHistoryInRedis() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()
	athleteID := gofakeit.UUID()

	for week := 1; week <= 4; week++ {
		s.doJSON(ctx, http.MethodPost, "/load/"+athleteID+"/weeks",
			fmt.Sprintf(`{"week":%d,"load":500,"sessions":4}`, week),
			http.StatusCreated, nil)
	}

	stored, err := s.redisClient.LLen(ctx, load.HistoryKey(athleteID)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored)

	var assessment load.Assessment
	s.doJSON(ctx, http.MethodGet, "/load/"+athleteID+"/acwr?current=550&sport=boxe", "", http.StatusOK, &assessment)
	assert.Equal(t, 1.1, assessment.ACWR.Value)
	assert.Equal(t, load.ZoneOptimal, assessment.Zone.Zone)
}

func (s *PlannerTestSuite) TestMCPOverHTTP() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	client := mcp.NewClient(&mcp.Implementation{Name: "planner-e2e", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: serverEndpoint + "/mcp",
		HTTPClient: &http.Client{
			Transport: &coachTokenTransport{base: http.DefaultTransport},
		},
	}, nil)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, session.Close())
	}()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Len(t, names, 8)
	assert.Contains(t, names, "generate_macro_plan")

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "generate_mesocycle",
		Arguments: map[string]any{"goal": "ipertrofia", "weeks": 8},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
}

package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "training-planner"
	serverVersion = "1.0.0"
)

// NewServer builds the planner MCP server.
// Served over stdio by cmd/planner_mcp and mounted at /mcp by the HTTP service.
func NewServer(h *Handler) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "generate_mesocycle",
		Description: "Generates a periodized plan for a goal (strength, hypertrophy, power, endurance): mesocycles, phases and per-week intensity, reps, sets, RIR and deload weeks. Args: goal, weeks; optional: sport, level.",
	}, h.GenerateMesocycleTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "generate_macro_plan",
		Description: "Creates and stores a macrocycle that counts back from an event date (e.g. a fight or season start): phases with dates and scheduled deload weeks. Fails when there are fewer weeks than the sport needs.",
	}, h.GenerateMacroPlanTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_current_phase",
		Description: "Returns the phase of the athlete's active macro plan on a date (today by default): phase name, week in phase, global week and whether it is a deload week.",
	}, h.GetCurrentPhaseTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "compute_acwr",
		Description: "Computes the acute:chronic workload ratio for the current week load, from the athlete's stored weekly history or from an explicit history, and classifies the injury-risk zone for the sport.",
	}, h.ComputeACWRTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "adapt_week",
		Description: "Adapts a scheduled training week from athlete feedback (RPE, compliance, sleep, HRV, readiness, pain). Returns scheduled and adapted volume and intensity plus concrete set/rep guidance.",
	}, h.AdaptWeekTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_progression_trend",
		Description: "Returns fatigue and performance trends over the athlete's recent weeks with a load recommendation (increase, reduce, rest or continue).",
	}, h.GetProgressionTrendTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_progress_summary",
		Description: "Returns the athlete's plan progress: current phase and week, completion percentage, current week stats and adaptation signals.",
	}, h.GetProgressSummaryTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "analyze_program",
		Description: "Analyzes a list of sessions at micro (last week), meso (last 4 weeks) and macro level: movement-pattern balance, recovery gaps, volume shape, deloads, goal alignment and overtraining risk.",
	}, h.AnalyzeProgramTool())

	return s
}

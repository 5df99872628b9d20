package macrocycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
	"github.com/2beens/trainingplanner/pkg"
)

var (
	ErrPlanNotFound = errors.New("macro plan not found")
	ErrPlanExists   = errors.New("macro plan already exists")
)

type PlanRepo struct {
	db *pgxpool.Pool
}

func NewPlanRepo(db *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{
		db: db,
	}
}

func (r *PlanRepo) Save(ctx context.Context, plan *Plan) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.macro.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", plan.ID))

	phasesJson, err := json.Marshal(plan.Phases)
	if err != nil {
		return fmt.Errorf("marshal phases: %w", err)
	}
	deloadsJson, err := json.Marshal(plan.Deloads)
	if err != nil {
		return fmt.Errorf("marshal deloads: %w", err)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO macro_plan
				(id, athlete_id, event_name, sport, category, target_date, start_date, total_weeks, available_weeks, phases, deloads, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`,
		plan.ID, plan.AthleteID, plan.EventName, plan.Sport, string(plan.Category), plan.TargetDate, plan.StartDate,
		plan.TotalWeeks, plan.AvailableWeeks, phasesJson, deloadsJson, plan.CreatedAt,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrPlanExists
		}
		return fmt.Errorf("insert macro plan: %w", err)
	}
	return nil
}

func (r *PlanRepo) List(ctx context.Context, athleteID string) (_ []Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.macro.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("athlete", athleteID))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, athlete_id, event_name, sport, category, target_date, start_date, total_weeks, available_weeks, phases, deloads, created_at
			FROM macro_plan
			WHERE athlete_id = $1
			ORDER BY target_date, created_at;`,
		athleteID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return plans, nil
}

func (r *PlanRepo) Delete(ctx context.Context, athleteID, planID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.macro.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `DELETE FROM macro_plan WHERE athlete_id = $1 AND id = $2;`, athleteID, planID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func scanPlan(rows pgx.Rows) (*Plan, error) {
	var (
		p           Plan
		category    string
		phasesJson  []byte
		deloadsJson []byte
		targetDate  time.Time
		startDate   time.Time
	)
	if err := rows.Scan(
		&p.ID, &p.AthleteID, &p.EventName, &p.Sport, &category, &targetDate, &startDate,
		&p.TotalWeeks, &p.AvailableWeeks, &phasesJson, &deloadsJson, &p.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	if err := json.Unmarshal(phasesJson, &p.Phases); err != nil {
		return nil, fmt.Errorf("unmarshal phases: %w", err)
	}
	if err := json.Unmarshal(deloadsJson, &p.Deloads); err != nil {
		return nil, fmt.Errorf("unmarshal deloads: %w", err)
	}

	p.Category = Category(category)
	p.TargetDate = Date(targetDate)
	p.StartDate = Date(startDate)
	return &p, nil
}

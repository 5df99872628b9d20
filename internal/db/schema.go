package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS macro_plan
(
    id              VARCHAR PRIMARY KEY,
    athlete_id      VARCHAR     NOT NULL,
    event_name      VARCHAR     NOT NULL DEFAULT '',
    sport           VARCHAR     NOT NULL,
    category        VARCHAR     NOT NULL,
    target_date     DATE        NOT NULL,
    start_date      DATE        NOT NULL,
    total_weeks     INTEGER     NOT NULL,
    available_weeks INTEGER     NOT NULL,
    phases          JSONB       NOT NULL,
    deloads         JSONB       NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ix_macro_plan_athlete ON macro_plan (athlete_id, target_date);

CREATE TABLE IF NOT EXISTS athlete_progress
(
    athlete_id VARCHAR PRIMARY KEY,
    version    BIGINT      NOT NULL,
    document   JSONB       NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
`

// Migrate creates the planner tables when they are missing.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

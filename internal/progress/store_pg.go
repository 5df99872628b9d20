package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
)

// PgStore keeps one row per athlete: the JSONB document plus a version column.
type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{
		db: db,
	}
}

func (s *PgStore) Load(ctx context.Context, athleteID string) (_ *AthleteProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("athlete", athleteID))

	var (
		version int64
		raw     []byte
	)
	err = s.db.QueryRow(
		ctx,
		`SELECT version, document FROM athlete_progress WHERE athlete_id = $1;`,
		athleteID,
	).Scan(&version, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAthleteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select progress: %w", err)
	}

	return decodeDocument(raw, version)
}

func (s *PgStore) Save(ctx context.Context, p *AthleteProgress) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("athlete", p.AthleteID),
		attribute.Int64("version", p.Version),
	)

	raw, err := encodeDocument(p)
	if err != nil {
		return err
	}

	var query string
	var args []any
	if p.Version == 0 {
		query = `INSERT INTO athlete_progress (athlete_id, version, document, created_at, updated_at)
				VALUES ($1, 1, $2, $3, $4)
				ON CONFLICT (athlete_id) DO NOTHING;`
		args = []any{p.AthleteID, raw, p.CreatedAt, p.UpdatedAt}
	} else {
		query = `UPDATE athlete_progress
				SET version = version + 1, document = $1, updated_at = $2
				WHERE athlete_id = $3 AND version = $4;`
		args = []any{raw, p.UpdatedAt, p.AthleteID, p.Version}
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	p.Version++
	return nil
}

// encodeDocument marshals p as it will look once saved, i.e. with the next version.
func encodeDocument(p *AthleteProgress) ([]byte, error) {
	doc := *p
	doc.Version = p.Version + 1
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal progress: %w", err)
	}
	return raw, nil
}

func decodeDocument(raw []byte, version int64) (*AthleteProgress, error) {
	var p AthleteProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal progress: %w", err)
	}
	p.Version = version
	if p.KeyMetrics.StrengthPRs == nil {
		p.KeyMetrics.StrengthPRs = map[string]float64{}
	}
	return &p, nil
}

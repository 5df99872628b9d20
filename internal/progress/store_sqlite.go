package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite"

	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS athlete_progress
(
    athlete_id TEXT PRIMARY KEY,
    version    INTEGER NOT NULL,
    document   TEXT    NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);`

// OpenSQLite opens (or creates) the database file at path in WAL mode and makes sure the
// progress table exists.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite has a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create progress table: %w", err)
	}
	return db, nil
}

// SQLiteStore is the embedded alternative to PgStore, with the same row layout.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db: db,
	}
}

func (s *SQLiteStore) Load(ctx context.Context, athleteID string) (_ *AthleteProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.sqlite.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("athlete", athleteID))

	var (
		version int64
		raw     string
	)
	err = s.db.QueryRowContext(
		ctx,
		"SELECT version, document FROM athlete_progress WHERE athlete_id = ?",
		athleteID,
	).Scan(&version, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAthleteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select progress: %w", err)
	}

	return decodeDocument([]byte(raw), version)
}

func (s *SQLiteStore) Save(ctx context.Context, p *AthleteProgress) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.sqlite.save")
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

	var res sql.Result
	if p.Version == 0 {
		res, err = s.db.ExecContext(
			ctx,
			`INSERT INTO athlete_progress (athlete_id, version, document, created_at, updated_at)
				VALUES (?, 1, ?, ?, ?)
				ON CONFLICT (athlete_id) DO NOTHING`,
			p.AthleteID, string(raw), p.CreatedAt, p.UpdatedAt,
		)
	} else {
		res, err = s.db.ExecContext(
			ctx,
			`UPDATE athlete_progress
				SET version = version + 1, document = ?, updated_at = ?
				WHERE athlete_id = ? AND version = ?`,
			string(raw), p.UpdatedAt, p.AthleteID, p.Version,
		)
	}
	if err != nil {
		return fmt.Errorf("write progress: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}

	p.Version++
	return nil
}

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `CREATE TABLE IF NOT EXISTS moderation_log (
	id          BIGSERIAL PRIMARY KEY,
	comment_id  BIGINT      NOT NULL,
	action      TEXT        NOT NULL,
	thread_id   TEXT        NOT NULL DEFAULT '',
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresRecorder appends entries to the moderation_log table.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

// EnsureSchema creates the moderation_log table when missing.
func (p *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create moderation_log: %w", err)
	}
	return nil
}

func (p *PostgresRecorder) Record(ctx context.Context, e Entry) error {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	const q = `INSERT INTO moderation_log (comment_id, action, thread_id, recorded_at) VALUES ($1, $2, $3, $4)`
	if _, err := p.pool.Exec(ctx, q, e.CommentID, e.Action, e.ThreadID, e.RecordedAt); err != nil {
		return fmt.Errorf("insert moderation_log: %w", err)
	}
	return nil
}

func (p *PostgresRecorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	const q = `SELECT comment_id, action, thread_id, recorded_at
	           FROM moderation_log
	           ORDER BY id DESC
	           LIMIT $1`
	rows, err := p.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query moderation_log: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.CommentID, &e.Action, &e.ThreadID, &e.RecordedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan moderation_log: %w", err)
	}
	return entries, nil
}

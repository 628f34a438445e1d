package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tradewire/internal/application/port"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS audit_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  details TEXT NOT NULL,
  ts_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_events(ts_ms);
CREATE INDEX IF NOT EXISTS idx_audit_type ON audit_events(event_type);
`)
	return err
}

func (r *Repo) LogEvent(ctx context.Context, eventType, details string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, event_type, details, ts_ms) VALUES ($1, $2, $3, $4)`,
		id, eventType, details, time.Now().UnixMilli())
	if err != nil {
		return "", err
	}
	return id, nil
}

// Recent returns up to limit events, newest first.
func (r *Repo) Recent(ctx context.Context, limit int) ([]port.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_type, details, ts_ms FROM audit_events ORDER BY ts_ms DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []port.AuditEvent
	for rows.Next() {
		var e port.AuditEvent
		if err := rows.Scan(&e.ID, &e.Type, &e.Details, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

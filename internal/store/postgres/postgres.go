package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/workany/launcher/internal/store"
)

// DB implements store.Store for PostgreSQL via the pgx stdlib driver.
// Used when the same API schema is hosted instead of the desktop sqlite file.

type DB struct {
	db *sql.DB
}

func New(dsn string) (*DB, error) {
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{db: d}, nil
}

func (p *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_migrations(
			version BIGINT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sidecar_history(
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			pid INTEGER NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			stopped_at TIMESTAMPTZ NULL,
			running BOOLEAN NOT NULL,
			exit_err TEXT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sidecar_history_name ON sidecar_history(name);`,
	}
	for _, q := range stmts {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (p *DB) Close() error { return p.db.Close() }

func (p *DB) AppliedVersions(ctx context.Context) (map[int64]bool, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT version FROM schema_migrations;`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	applied := make(map[int64]bool)
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (p *DB) ApplyMigration(ctx context.Context, version int64, description, sqlText string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, sqlText); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations(version, description, applied_at) VALUES($1, $2, $3);`,
		version, description, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *DB) RecordStart(ctx context.Context, rec store.Record) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO sidecar_history(name, pid, started_at, stopped_at, running, exit_err)
		VALUES($1, $2, $3, NULL, true, NULL);`,
		rec.Name, rec.PID, rec.StartedAt.UTC())
	return err
}

func (p *DB) RecordStop(ctx context.Context, name string, stoppedAt time.Time, exitErr string) error {
	var errCol sql.NullString
	if exitErr != "" {
		errCol = sql.NullString{String: exitErr, Valid: true}
	}
	_, err := p.db.ExecContext(ctx, `
		UPDATE sidecar_history
		SET running=false, stopped_at=$1, exit_err=$2
		WHERE id = (SELECT id FROM sidecar_history WHERE name=$3 AND running=true ORDER BY started_at DESC LIMIT 1);`,
		stoppedAt.UTC(), errCol, name)
	return err
}

func (p *DB) History(ctx context.Context, name string, limit int) ([]store.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT name, pid, started_at, stopped_at, running, exit_err
		FROM sidecar_history
		WHERE name=$1
		ORDER BY started_at DESC
		LIMIT $2;`, name, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []store.Record
	for rows.Next() {
		var rec store.Record
		var stopped sql.NullTime
		var exitErr sql.NullString
		if err := rows.Scan(&rec.Name, &rec.PID, &rec.StartedAt, &stopped, &rec.Running, &exitErr); err != nil {
			return nil, err
		}
		if stopped.Valid {
			rec.StoppedAt = stopped.Time
		}
		if exitErr.Valid {
			rec.ExitErr = exitErr.String
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

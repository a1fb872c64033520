package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/workany/launcher/internal/store"
)

// DB implements store.Store for SQLite (modernc.org/sqlite driver, CGO-free).
// DSN is a filesystem path to the SQLite database file. Use ":memory:" for in-memory.

type DB struct {
	db *sql.DB
}

// New opens a SQLite database at path.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// SQLite works best with a single connection; it also keeps an
	// in-memory database on one connection instead of one per pool slot.
	d.SetMaxOpenConns(1)
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	_, _ = d.Exec("PRAGMA foreign_keys=ON;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_migrations(
			version INTEGER PRIMARY KEY NOT NULL,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sidecar_history(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			pid INTEGER NOT NULL,
			started_at TIMESTAMP NOT NULL,
			stopped_at TIMESTAMP NULL,
			running BOOLEAN NOT NULL,
			exit_err TEXT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sidecar_history_name ON sidecar_history(name);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Close() error { return s.db.Close() }

func (s *DB) AppliedVersions(ctx context.Context) (map[int64]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM schema_migrations;`)
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

func (s *DB) ApplyMigration(ctx context.Context, version int64, description, sqlText string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, sqlText); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations(version, description, applied_at) VALUES(?, ?, ?);`,
		version, description, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *DB) RecordStart(ctx context.Context, rec store.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sidecar_history(name, pid, started_at, stopped_at, running, exit_err)
		VALUES(?, ?, ?, NULL, 1, NULL);`,
		rec.Name, rec.PID, rec.StartedAt.UTC())
	return err
}

func (s *DB) RecordStop(ctx context.Context, name string, stoppedAt time.Time, exitErr string) error {
	var errCol sql.NullString
	if exitErr != "" {
		errCol = sql.NullString{String: exitErr, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE sidecar_history
		SET running=0, stopped_at=?, exit_err=?
		WHERE id = (SELECT id FROM sidecar_history WHERE name=? AND running=1 ORDER BY started_at DESC LIMIT 1);`,
		stoppedAt.UTC(), errCol, name)
	return err
}

func (s *DB) History(ctx context.Context, name string, limit int) ([]store.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, pid, started_at, stopped_at, running, exit_err
		FROM sidecar_history
		WHERE name=?
		ORDER BY started_at DESC
		LIMIT ?;`, name, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]store.Record, error) {
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

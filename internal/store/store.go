package store

import (
	"context"
	"time"
)

// Record is one sidecar lifecycle row persisted for history.
type Record struct {
	Name      string
	PID       int
	StartedAt time.Time
	StoppedAt time.Time
	Running   bool
	ExitErr   string
}

// Store is the persistence interface behind the launcher's local datastore:
// the applied-migration ledger plus best-effort sidecar run history.
type Store interface {
	// EnsureSchema creates the launcher's own tables if missing.
	EnsureSchema(ctx context.Context) error
	// AppliedVersions returns the set of migration versions already applied.
	AppliedVersions(ctx context.Context) (map[int64]bool, error)
	// ApplyMigration executes sqlText and records version in the same
	// transaction, so a migration is either applied and recorded or neither.
	ApplyMigration(ctx context.Context, version int64, description, sqlText string) error
	// RecordStart inserts a running history row for the named sidecar.
	RecordStart(ctx context.Context, rec Record) error
	// RecordStop closes the latest running row for the named sidecar.
	RecordStop(ctx context.Context, name string, stoppedAt time.Time, exitErr string) error
	// History returns the most recent runs for the named sidecar.
	History(ctx context.Context, name string, limit int) ([]Record, error)
	Close() error
}

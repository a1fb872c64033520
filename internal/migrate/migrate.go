package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/workany/launcher/internal/store"
)

// Migration is one versioned, idempotent schema change. Versions must be
// positive and unique within a registry; the SQL is applied verbatim and is
// expected to be safe against an already-migrated store ("if not exists").
type Migration struct {
	Version     int64
	Description string
	SQL         string
}

// Registry is a declarative, ordered set of migrations. The launcher only
// applies it once at startup; it never interprets the SQL beyond ordering.
type Registry struct {
	migrations []Migration
}

func NewRegistry(ms ...Migration) *Registry {
	r := &Registry{}
	r.migrations = append(r.migrations, ms...)
	return r
}

// Add appends a migration. Validation happens in Apply so a registry can be
// assembled in any source order.
func (r *Registry) Add(m Migration) { r.migrations = append(r.migrations, m) }

func (r *Registry) Len() int { return len(r.migrations) }

// sorted returns the migrations in ascending version order and validates
// versions are positive and unique.
func (r *Registry) sorted() ([]Migration, error) {
	out := make([]Migration, len(r.migrations))
	copy(out, r.migrations)
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	seen := make(map[int64]string, len(out))
	for _, m := range out {
		if m.Version <= 0 {
			return nil, fmt.Errorf("migration %q: version must be positive, got %d", m.Description, m.Version)
		}
		if prev, dup := seen[m.Version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d (%q and %q)", m.Version, prev, m.Description)
		}
		seen[m.Version] = m.Description
	}
	return out, nil
}

// Apply runs every unapplied migration in ascending version order, each in
// its own transaction, recording the version as it goes. Re-running against
// an already-migrated store is a no-op. The first failure stops the run and
// is returned; already-applied versions stay applied.
func (r *Registry) Apply(ctx context.Context, st store.Store, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	ms, err := r.sorted()
	if err != nil {
		return err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	applied, err := st.AppliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("read applied versions: %w", err)
	}
	for _, m := range ms {
		if applied[m.Version] {
			continue
		}
		if err := st.ApplyMigration(ctx, m.Version, m.Description, m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		log.Info("applied migration", "version", m.Version, "description", m.Description)
	}
	return nil
}

package migrate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/workany/launcher/internal/store"
	"github.com/workany/launcher/internal/store/sqlite"
)

// fakeStore records migration application order without a real database.
type fakeStore struct {
	applied map[int64]bool
	order   []int64
	failOn  int64
}

func newFakeStore() *fakeStore { return &fakeStore{applied: make(map[int64]bool)} }

func (f *fakeStore) EnsureSchema(context.Context) error { return nil }

func (f *fakeStore) AppliedVersions(context.Context) (map[int64]bool, error) {
	out := make(map[int64]bool, len(f.applied))
	for k, v := range f.applied {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) ApplyMigration(_ context.Context, version int64, _ string, _ string) error {
	if f.failOn != 0 && version == f.failOn {
		return errors.New("injected failure")
	}
	f.applied[version] = true
	f.order = append(f.order, version)
	return nil
}

func (f *fakeStore) RecordStart(context.Context, store.Record) error { return nil }
func (f *fakeStore) RecordStop(context.Context, string, time.Time, string) error {
	return nil
}
func (f *fakeStore) History(context.Context, string, int) ([]store.Record, error) {
	return nil, nil
}
func (f *fakeStore) Close() error { return nil }

func TestApplyOutOfOrderSourceAscendingVersions(t *testing.T) {
	r := NewRegistry(
		Migration{Version: 3, Description: "third", SQL: "c"},
		Migration{Version: 1, Description: "first", SQL: "a"},
		Migration{Version: 2, Description: "second", SQL: "b"},
	)
	st := newFakeStore()
	if err := r.Apply(context.Background(), st, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := []int64{1, 2, 3}
	if len(st.order) != len(want) {
		t.Fatalf("applied %v, want %v", st.order, want)
	}
	for i, v := range want {
		if st.order[i] != v {
			t.Fatalf("applied order %v, want ascending %v", st.order, want)
		}
	}
}

func TestApplySkipsAlreadyApplied(t *testing.T) {
	r := NewRegistry(
		Migration{Version: 1, Description: "first", SQL: "a"},
		Migration{Version: 2, Description: "second", SQL: "b"},
	)
	st := newFakeStore()
	st.applied[1] = true
	if err := r.Apply(context.Background(), st, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(st.order) != 1 || st.order[0] != 2 {
		t.Fatalf("expected only version 2 applied, got %v", st.order)
	}
}

func TestApplyStopsOnFailureKeepingPriorVersions(t *testing.T) {
	r := NewRegistry(
		Migration{Version: 1, Description: "first", SQL: "a"},
		Migration{Version: 2, Description: "second", SQL: "b"},
		Migration{Version: 3, Description: "third", SQL: "c"},
	)
	st := newFakeStore()
	st.failOn = 2
	if err := r.Apply(context.Background(), st, nil); err == nil {
		t.Fatalf("expected failure from version 2")
	}
	if !st.applied[1] || st.applied[2] || st.applied[3] {
		t.Fatalf("unexpected applied set: %v", st.applied)
	}
}

func TestApplyRejectsDuplicateAndNonPositiveVersions(t *testing.T) {
	r := NewRegistry(
		Migration{Version: 1, Description: "a", SQL: "x"},
		Migration{Version: 1, Description: "b", SQL: "y"},
	)
	if err := r.Apply(context.Background(), newFakeStore(), nil); err == nil {
		t.Fatalf("duplicate versions accepted")
	}
	r = NewRegistry(Migration{Version: 0, Description: "zero", SQL: "x"})
	if err := r.Apply(context.Background(), newFakeStore(), nil); err == nil {
		t.Fatalf("non-positive version accepted")
	}
}

func TestDefaultRegistryAppliesTwiceAgainstSQLite(t *testing.T) {
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	reg := Default()
	if err := reg.Apply(ctx, st, nil); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	applied, err := st.AppliedVersions(ctx)
	if err != nil {
		t.Fatalf("AppliedVersions: %v", err)
	}
	if len(applied) != reg.Len() {
		t.Fatalf("applied %d versions, want %d", len(applied), reg.Len())
	}
	// Second run must be a no-op rather than re-executing non-reentrant SQL
	// like ALTER TABLE ADD COLUMN.
	if err := reg.Apply(ctx, st, nil); err != nil {
		t.Fatalf("second Apply not idempotent: %v", err)
	}
}

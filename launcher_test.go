package launcher

import (
	"context"
	"log/slog"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 2620 {
		t.Fatalf("default service port: %d", cfg.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestFacadeDevModeLifecycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DevMode = true
	cfg.Sidecar.Command = ""

	l := New(cfg, slog.Default())
	ctx := context.Background()
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if st := l.Status(); !st.DevMode {
		t.Fatalf("status does not report dev mode: %+v", st)
	}
	l.Shutdown(ctx)
	l.Shutdown(ctx)
}

func TestOpenStoreRejectsEmptyDSN(t *testing.T) {
	if _, err := OpenStore(""); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestApplyMigrationsAgainstSQLite(t *testing.T) {
	st, err := OpenStore("sqlite://:memory:")
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer func() { _ = st.Close() }()
	if err := ApplyMigrations(context.Background(), st, slog.Default()); err != nil {
		t.Fatalf("ApplyMigrations: %v", err)
	}
}

package supervisor

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/workany/launcher/internal/config"
	"github.com/workany/launcher/internal/portreap"
	"github.com/workany/launcher/internal/sidecar"
	"github.com/workany/launcher/internal/store/sqlite"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests require sh/sleep on Unix-like systems")
	}
}

type countFinder struct {
	mu    sync.Mutex
	calls int
}

func (c *countFinder) PIDsOnPort(int) ([]int, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return nil, nil
}

func (c *countFinder) Describe() string { return "count" }

func (c *countFinder) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func testConfig(command string) *config.Config {
	cfg := config.Default()
	cfg.Sidecar.Command = command
	cfg.GraceTimeout = 2 * time.Second
	return cfg
}

func fastReaper(f portreap.Finder) *portreap.Reaper {
	return portreap.New(slog.Default(), portreap.WithFinder(f), portreap.WithSettle(time.Millisecond))
}

func TestStartSpawnFailureLeavesRegistryEmpty(t *testing.T) {
	cf := &countFinder{}
	s := New(testConfig("definitely-not-a-real-binary-xyz"), slog.Default(), WithReaper(fastReaper(cf)))
	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("expected fatal spawn failure")
	}
	st := s.Status()
	if st.Running || st.PID != 0 {
		t.Fatalf("registry should be empty after spawn failure: %+v", st)
	}
	if cf.count() != 1 {
		t.Fatalf("proactive reap should have run once, got %d", cf.count())
	}
}

func TestStartThenShutdown(t *testing.T) {
	requireUnix(t)
	cf := &countFinder{}
	s := New(testConfig("sleep 5"), slog.Default(), WithReaper(fastReaper(cf)))
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	st := s.Status()
	if st.State != StateRunning || !st.Running || st.PID <= 0 {
		t.Fatalf("unexpected status after start: %+v", st)
	}

	s.Shutdown(ctx)
	st = s.Status()
	if st.State != StateDone {
		t.Fatalf("state after shutdown: %v", st.State)
	}
	if st.Running {
		t.Fatalf("sidecar still reported running after shutdown")
	}
	// One proactive reap plus one fallback sweep.
	if cf.count() != 2 {
		t.Fatalf("expected 2 reaps, got %d", cf.count())
	}
}

func TestShutdownTwiceIsIdempotent(t *testing.T) {
	requireUnix(t)
	cf := &countFinder{}
	s := New(testConfig("sleep 5"), slog.Default(), WithReaper(fastReaper(cf)))
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Shutdown(ctx)
	// Second exit event: must not double-terminate and must not fail.
	s.Shutdown(ctx)
	if st := s.Status(); st.State != StateDone {
		t.Fatalf("state after double shutdown: %v", st.State)
	}
	if cf.count() != 3 {
		t.Fatalf("expected 3 reaps (1 proactive + 2 sweeps), got %d", cf.count())
	}
}

func TestShutdownWithoutStart(t *testing.T) {
	cf := &countFinder{}
	s := New(testConfig("sleep 5"), slog.Default(), WithReaper(fastReaper(cf)))
	s.Shutdown(context.Background())
	if cf.count() != 1 {
		t.Fatalf("fallback sweep should run even with no handle, got %d reaps", cf.count())
	}
}

func TestDevModeBypassesSupervision(t *testing.T) {
	cf := &countFinder{}
	cfg := testConfig("")
	cfg.DevMode = true
	cfg.Sidecar.Command = ""
	launched := false
	s := New(cfg, slog.Default(),
		WithReaper(fastReaper(cf)),
		WithLaunch(func(sidecar.Spec, []string) (*sidecar.Handle, <-chan sidecar.Event, error) {
			launched = true
			return nil, nil, nil
		}))
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start in dev mode: %v", err)
	}
	s.Shutdown(ctx)
	if launched {
		t.Fatalf("dev mode spawned a sidecar")
	}
	if cf.count() != 0 {
		t.Fatalf("dev mode reaped the port %d times", cf.count())
	}
	if st := s.Status(); st.Port != cfg.DevPort {
		t.Fatalf("dev mode should report the dev port, got %d", st.Port)
	}
}

func TestHistoryRecordsStartAndStop(t *testing.T) {
	requireUnix(t)
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()
	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	cfg := testConfig("sleep 5")
	s := New(cfg, slog.Default(), WithReaper(fastReaper(&countFinder{})), WithStore(db))
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	recs, err := db.History(ctx, cfg.Sidecar.Name, 10)
	if err != nil || len(recs) != 1 || !recs[0].Running {
		t.Fatalf("start not recorded: %v %+v", err, recs)
	}

	s.Shutdown(ctx)
	// The stop record is written by the router's termination callback.
	deadline := time.Now().Add(3 * time.Second)
	for {
		recs, err = db.History(ctx, cfg.Sidecar.Name, 10)
		if err == nil && len(recs) == 1 && !recs[0].Running {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("stop not recorded: %v %+v", err, recs)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

package portreap

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type fakeFinder struct {
	pids []int
	err  error
}

func (f fakeFinder) PIDsOnPort(int) ([]int, error) { return f.pids, f.err }
func (f fakeFinder) Describe() string              { return "fake" }

func newTestReaper(f Finder, kill func(int) error) *Reaper {
	return New(slog.Default(), WithFinder(f), WithKill(kill), WithSettle(time.Millisecond))
}

func TestReapKillsEveryPID(t *testing.T) {
	var killed []int
	r := newTestReaper(fakeFinder{pids: []int{101, 102, 103}}, func(pid int) error {
		killed = append(killed, pid)
		return nil
	})
	r.Reap(context.Background(), 2620)
	if len(killed) != 3 || killed[0] != 101 || killed[2] != 103 {
		t.Fatalf("unexpected kill list: %v", killed)
	}
}

func TestReapNothingBoundIsNotAnError(t *testing.T) {
	called := false
	r := newTestReaper(fakeFinder{}, func(int) error {
		called = true
		return nil
	})
	r.Reap(context.Background(), 2620)
	if called {
		t.Fatalf("kill invoked with no PIDs found")
	}
}

func TestReapSwallowsFinderAndKillErrors(t *testing.T) {
	r := newTestReaper(fakeFinder{err: errors.New("lsof missing")}, func(int) error {
		return errors.New("no such process")
	})
	// Must not panic or propagate anything.
	r.Reap(context.Background(), 2620)

	r = newTestReaper(fakeFinder{pids: []int{55}}, func(int) error {
		return errors.New("already dead")
	})
	r.Reap(context.Background(), 2620)
}

func TestReapAlwaysSettles(t *testing.T) {
	settle := 30 * time.Millisecond
	r := New(slog.Default(), WithFinder(fakeFinder{}), WithKill(func(int) error { return nil }), WithSettle(settle))
	start := time.Now()
	r.Reap(context.Background(), 2620)
	if elapsed := time.Since(start); elapsed < settle {
		t.Fatalf("settle interval skipped: %v < %v", elapsed, settle)
	}
}

func TestReapSettleHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := New(slog.Default(), WithFinder(fakeFinder{}), WithKill(func(int) error { return nil }), WithSettle(time.Minute))
	done := make(chan struct{})
	go func() {
		r.Reap(ctx, 2620)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Reap did not return promptly with canceled context")
	}
}

func TestChainFallsThrough(t *testing.T) {
	c := Chain{
		fakeFinder{err: errors.New("denied")},
		fakeFinder{pids: []int{7}},
	}
	pids, err := c.PIDsOnPort(2620)
	if err != nil {
		t.Fatalf("chain returned error despite fallback success: %v", err)
	}
	if len(pids) != 1 || pids[0] != 7 {
		t.Fatalf("unexpected pids: %v", pids)
	}
}

func TestChainKeepsLastError(t *testing.T) {
	sentinel := errors.New("netstat failed")
	c := Chain{fakeFinder{err: errors.New("first")}, fakeFinder{err: sentinel}}
	pids, err := c.PIDsOnPort(2620)
	if pids != nil {
		t.Fatalf("expected no pids, got %v", pids)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected last error, got %v", err)
	}
}

func TestParseLsofOutput(t *testing.T) {
	out := []byte("1234\n5678\n\n  910 \nnot-a-pid\n")
	pids := parseLsofOutput(out)
	if len(pids) != 3 || pids[0] != 1234 || pids[1] != 5678 || pids[2] != 910 {
		t.Fatalf("unexpected pids: %v", pids)
	}
}

func TestParseNetstatOutput(t *testing.T) {
	out := []byte(`
  Proto  Local Address          Foreign Address        State           PID
  TCP    0.0.0.0:2620           0.0.0.0:0              LISTENING       4321
  TCP    0.0.0.0:8080           0.0.0.0:0              LISTENING       999
  TCP    127.0.0.1:2620         127.0.0.1:52100        ESTABLISHED     4321
  TCP    [::]:2620              [::]:0                 LISTENING       4322
`)
	pids := parseNetstatOutput(out, 2620)
	if len(pids) != 2 || pids[0] != 4321 || pids[1] != 4322 {
		t.Fatalf("unexpected pids: %v", pids)
	}
}

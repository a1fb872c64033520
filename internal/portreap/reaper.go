package portreap

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/workany/launcher/internal/metrics"
)

// DefaultSettle is how long Reap waits after killing for the OS to release
// the socket.
const DefaultSettle = 500 * time.Millisecond

// Reaper forcibly frees a TCP port by terminating whatever holds it.
// Reap is best-effort: discovery and kill failures are logged, never
// returned. Callers invoke it both before spawning the sidecar and as a
// fallback sweep during shutdown.
type Reaper struct {
	finder Finder
	kill   func(pid int) error
	settle time.Duration
	log    *slog.Logger
}

type Option func(*Reaper)

// WithFinder replaces the default finder chain.
func WithFinder(f Finder) Option { return func(r *Reaper) { r.finder = f } }

// WithKill replaces the platform force-kill, for tests.
func WithKill(fn func(pid int) error) Option { return func(r *Reaper) { r.kill = fn } }

// WithSettle overrides the settle interval.
func WithSettle(d time.Duration) Option { return func(r *Reaper) { r.settle = d } }

func New(log *slog.Logger, opts ...Option) *Reaper {
	if log == nil {
		log = slog.Default()
	}
	r := &Reaper{
		finder: Chain{SocketFinder{}, CommandFinder{}},
		kill:   forceKill,
		settle: DefaultSettle,
		log:    log,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Reap kills every process bound to port, then waits the settle interval
// regardless of whether anything was found. It never fails from the
// caller's perspective. The settle-then-spawn gap is an inherent TOCTOU
// window; an unrelated process can rebind the port in between.
func (r *Reaper) Reap(ctx context.Context, port int) {
	pids, err := r.finder.PIDsOnPort(port)
	if err != nil {
		r.log.Warn("port discovery failed", "port", port, "finder", r.finder.Describe(), "error", err)
	}
	self := os.Getpid()
	for _, pid := range pids {
		if pid == self {
			r.log.Warn("skipping own pid bound to port", "port", port, "pid", pid)
			continue
		}
		r.log.Info("killing existing process on port", "port", port, "pid", pid)
		if err := r.kill(pid); err != nil {
			// Already-dead processes are not an error worth surfacing.
			r.log.Warn("kill failed", "port", port, "pid", pid, "error", err)
			continue
		}
		metrics.IncReaped()
	}
	// Give the OS a moment to release the port.
	select {
	case <-time.After(r.settle):
	case <-ctx.Done():
	}
}

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/workany/launcher/internal/config"
	"github.com/workany/launcher/internal/env"
	"github.com/workany/launcher/internal/metrics"
	"github.com/workany/launcher/internal/portreap"
	"github.com/workany/launcher/internal/sidecar"
	"github.com/workany/launcher/internal/store"
)

// State is the shutdown state machine: running, then shutting-down once an
// exit event arrives, then done (terminal).
type State string

const (
	StateIdle         State = "idle"
	StateRunning      State = "running"
	StateShuttingDown State = "shutting_down"
	StateDone         State = "done"
)

type launchFunc func(sidecar.Spec, []string) (*sidecar.Handle, <-chan sidecar.Event, error)

// Supervisor owns the sidecar lifecycle: clear the port, spawn the service,
// route its output in the background, hold the handle, and tear everything
// down exactly once on exit.
type Supervisor struct {
	cfg    *config.Config
	log    *slog.Logger
	reg    *sidecar.Registry
	reaper *portreap.Reaper
	env    *env.Env
	launch launchFunc
	st     store.Store // optional history sink

	mu    sync.Mutex
	state State
}

type Option func(*Supervisor)

// WithReaper replaces the default port reaper.
func WithReaper(r *portreap.Reaper) Option { return func(s *Supervisor) { s.reaper = r } }

// WithStore attaches a history sink. Recording is best-effort.
func WithStore(st store.Store) Option { return func(s *Supervisor) { s.st = st } }

// WithLaunch replaces the spawn function, for tests.
func WithLaunch(fn launchFunc) Option { return func(s *Supervisor) { s.launch = fn } }

func New(cfg *config.Config, log *slog.Logger, opts ...Option) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	s := &Supervisor{
		cfg:    cfg,
		log:    log,
		reg:    sidecar.NewRegistry(),
		reaper: portreap.New(log),
		env:    env.New(),
		launch: sidecar.Launch,
		state:  StateIdle,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start clears the service port, spawns the sidecar, stores its handle and
// begins routing its output on a background goroutine. It returns once the
// handle is stored, so an exit event can never observe an empty registry
// for a sidecar that was actually spawned. A spawn failure is returned to
// the caller and aborts application startup; the registry stays empty.
//
// In dev mode nothing is reaped or spawned: an externally managed service
// instance is assumed to be listening on the dev port.
func (s *Supervisor) Start(ctx context.Context) error {
	if s.cfg.DevMode {
		s.setState(StateRunning)
		s.log.Info("dev mode: sidecar disabled, using external service", "port", s.cfg.DevPort)
		return nil
	}

	// Kill any stale process occupying the service port before spawning.
	s.reaper.Reap(ctx, s.cfg.Port)

	spec := s.cfg.Sidecar
	spec.Log = s.cfg.Log
	merged := s.env.Merge(append(append([]string{}, spec.Env...),
		"PORT="+strconv.Itoa(s.cfg.Port),
		"NODE_ENV="+s.cfg.Mode,
	))

	h, events, err := s.launch(spec, merged)
	if err != nil {
		metrics.IncSpawnFailure()
		return fmt.Errorf("launch sidecar: %w", err)
	}
	s.reg.Store(h)
	s.setState(StateRunning)
	metrics.IncSidecarStart()
	metrics.SetSidecarUp(true)
	s.recordStart(ctx, h)

	router := sidecar.NewRouter(s.log.With("sidecar", spec.Name))
	outW, errW, _ := spec.Log.ProcessWriters(spec.Name)
	router.MirrorTo(outW, errW)
	router.OnTerminated(func(status sidecar.ExitStatus) {
		metrics.IncSidecarStop()
		metrics.SetSidecarUp(false)
		s.recordStop(spec.Name, status)
	})
	go router.Run(events)

	s.log.Info("sidecar started", "name", spec.Name, "pid", h.PID(), "port", s.cfg.Port)
	return nil
}

// Shutdown terminates the sidecar and sweeps the port. Every step is
// best-effort: a termination failure is logged, never raised, and the
// fallback reap runs regardless of whether a handle was found. Running it
// twice is safe: Take returns nothing the second time and Reap is
// idempotent.
func (s *Supervisor) Shutdown(ctx context.Context) {
	s.setState(StateShuttingDown)
	defer s.setState(StateDone)

	if s.cfg.DevMode {
		return
	}

	if h := s.reg.Take(); h != nil {
		s.log.Info("stopping sidecar", "name", h.Name(), "pid", h.PID())
		if err := h.Terminate(s.cfg.GraceTimeout); err != nil {
			s.log.Error("sidecar termination failed", "error", err)
		}
	}
	// Fallback sweep: guards against handles whose process silently
	// survived termination.
	s.reaper.Reap(ctx, s.cfg.Port)
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Status is the readiness snapshot the GUI shell polls.
type Status struct {
	State     State               `json:"state"`
	DevMode   bool                `json:"dev_mode"`
	Port      int                 `json:"port"`
	Mode      string              `json:"mode"`
	Running   bool                `json:"running"`
	PID       int                 `json:"pid,omitempty"`
	StartedAt time.Time           `json:"started_at,omitempty"`
	Exit      *sidecar.ExitStatus `json:"exit,omitempty"`
}

func (s *Supervisor) Status() Status {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	st := Status{
		State:   state,
		DevMode: s.cfg.DevMode,
		Port:    s.cfg.ServicePort(),
		Mode:    s.cfg.Mode,
	}
	if h := s.reg.Current(); h != nil {
		exit, exited := h.Status()
		st.Running = !exited
		st.PID = h.PID()
		st.StartedAt = h.StartedAt()
		if exited {
			st.Exit = &exit
		}
	}
	return st
}

func (s *Supervisor) recordStart(ctx context.Context, h *sidecar.Handle) {
	if s.st == nil {
		return
	}
	rec := store.Record{Name: h.Name(), PID: h.PID(), StartedAt: h.StartedAt(), Running: true}
	if err := s.st.RecordStart(ctx, rec); err != nil {
		s.log.Warn("history record start failed", "error", err)
	}
}

func (s *Supervisor) recordStop(name string, status sidecar.ExitStatus) {
	if s.st == nil {
		return
	}
	exitErr := ""
	if status.Code != 0 || status.Signal != "" {
		exitErr = status.String()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.st.RecordStop(ctx, name, time.Now(), exitErr); err != nil {
		s.log.Warn("history record stop failed", "error", err)
	}
}

package launcher

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/workany/launcher/internal/config"
	"github.com/workany/launcher/internal/metrics"
	"github.com/workany/launcher/internal/migrate"
	"github.com/workany/launcher/internal/portreap"
	iapi "github.com/workany/launcher/internal/server"
	"github.com/workany/launcher/internal/sidecar"
	"github.com/workany/launcher/internal/store"
	"github.com/workany/launcher/internal/store/factory"
	"github.com/workany/launcher/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = config.Config

type Spec = sidecar.Spec

type Status = supervisor.Status

type ExitStatus = sidecar.ExitStatus

type Store = store.Store

type Option = supervisor.Option

// Launcher is a thin facade over internal/supervisor.Supervisor.
// It provides a stable public API for embedding.

type Launcher struct{ inner *supervisor.Supervisor }

func New(cfg *Config, log *slog.Logger, opts ...Option) *Launcher {
	return &Launcher{inner: supervisor.New(cfg, log, opts...)}
}

func (l *Launcher) Start(ctx context.Context) error { return l.inner.Start(ctx) }
func (l *Launcher) Shutdown(ctx context.Context)    { l.inner.Shutdown(ctx) }
func (l *Launcher) Status() Status                  { return l.inner.Status() }

// WithStore attaches a history store to the launcher.
func WithStore(st Store) Option { return supervisor.WithStore(st) }

func DefaultConfig() *Config { return config.Default() }

func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// OpenStore opens a history store from a DSN. Supported schemes are
// postgres:// and sqlite:// (a bare path also means sqlite).
func OpenStore(dsn string) (Store, error) { return factory.NewFromDSN(dsn) }

// ApplyMigrations brings the store's service schema up to date.
func ApplyMigrations(ctx context.Context, st Store, log *slog.Logger) error {
	return migrate.Default().Apply(ctx, st, log)
}

// ReapPort kills whatever is listening on port. Best effort; it never
// fails the caller.
func ReapPort(ctx context.Context, log *slog.Logger, port int) {
	portreap.New(log).Reap(ctx, port)
}

// NewHTTPServer starts the localhost control server for the given launcher.
func NewHTTPServer(addr, basePath string, l *Launcher, onShutdown func()) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, l.inner, onShutdown)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

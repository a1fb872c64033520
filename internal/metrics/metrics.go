package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	reapedProcesses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "workany",
			Subsystem: "launcher",
			Name:      "reaped_processes_total",
			Help:      "Number of processes force-killed to free the service port.",
		},
	)
	sidecarStarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "workany",
			Subsystem: "launcher",
			Name:      "sidecar_starts_total",
			Help:      "Number of successful sidecar spawns.",
		},
	)
	sidecarStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "workany",
			Subsystem: "launcher",
			Name:      "sidecar_stops_total",
			Help:      "Number of observed sidecar terminations.",
		},
	)
	spawnFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "workany",
			Subsystem: "launcher",
			Name:      "sidecar_spawn_failures_total",
			Help:      "Number of failed sidecar spawn attempts.",
		},
	)
	sidecarUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "workany",
			Subsystem: "launcher",
			Name:      "sidecar_up",
			Help:      "1 while a sidecar handle is held, 0 otherwise.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{reapedProcesses, sidecarStarts, sidecarStops, spawnFailures, sidecarUp}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncReaped() {
	if regOK.Load() {
		reapedProcesses.Inc()
	}
}

func IncSidecarStart() {
	if regOK.Load() {
		sidecarStarts.Inc()
	}
}

func IncSidecarStop() {
	if regOK.Load() {
		sidecarStops.Inc()
	}
}

func IncSpawnFailure() {
	if regOK.Load() {
		spawnFailures.Inc()
	}
}

func SetSidecarUp(up bool) {
	if regOK.Load() {
		if up {
			sidecarUp.Set(1)
		} else {
			sidecarUp.Set(0)
		}
	}
}

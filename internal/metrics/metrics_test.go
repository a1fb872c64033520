package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second Register: %v", err)
	}
}

func TestHelpersRecordAfterRegister(t *testing.T) {
	_ = Register(prometheus.NewRegistry())

	before := counterValue(t, reapedProcesses)
	IncReaped()
	if got := counterValue(t, reapedProcesses); got != before+1 {
		t.Fatalf("reaped counter: got %v want %v", got, before+1)
	}

	before = counterValue(t, spawnFailures)
	IncSpawnFailure()
	if got := counterValue(t, spawnFailures); got != before+1 {
		t.Fatalf("spawn failure counter: got %v want %v", got, before+1)
	}

	SetSidecarUp(true)
	if got := gaugeValue(t, sidecarUp); got != 1 {
		t.Fatalf("sidecar_up: got %v want 1", got)
	}
	SetSidecarUp(false)
	if got := gaugeValue(t, sidecarUp); got != 0 {
		t.Fatalf("sidecar_up: got %v want 0", got)
	}
}

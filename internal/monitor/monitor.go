// Package monitor maintains the backend connectivity flag via a periodic
// liveness probe. It runs alongside the orchestrator without touching its
// state; the flag is read-only input to presentation and to /readyz.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/floodwatch/opsconsole/internal/domain"
	"github.com/floodwatch/opsconsole/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Prober performs one idempotent health call against the backend.
// Implemented by the inference client.
type Prober interface {
	Health(ctx context.Context) (domain.ServiceHealth, error)
}

// Monitor probes the backend on a fixed interval and exposes a
// Connected/Disconnected flag.
type Monitor struct {
	prober       Prober
	clock        clockwork.Clock
	interval     time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger
	metrics      *observability.Metrics

	connected atomic.Bool
}

// New creates a Monitor. The clock is injected so tests can drive the probe
// schedule deterministically.
func New(prober Prober, clock clockwork.Clock, interval, probeTimeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Monitor {
	return &Monitor{
		prober:       prober,
		clock:        clock,
		interval:     interval,
		probeTimeout: probeTimeout,
		logger:       logger,
		metrics:      metrics,
	}
}

// Run probes immediately, then on every tick, until the context is cancelled.
// The ticker is stopped on exit, so no orphaned probe fires after teardown.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("connectivity monitor started", "interval", m.interval)
	m.probe(ctx)

	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("connectivity monitor stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			m.probe(ctx)
		}
	}
}

// Connected reports whether the last probe succeeded.
func (m *Monitor) Connected() bool {
	return m.connected.Load()
}

// CheckReadiness returns nil while the backend is reachable, or an error
// describing why the console is not ready to serve operations.
func (m *Monitor) CheckReadiness(_ context.Context) error {
	if !m.connected.Load() {
		return errors.New("inference backend is unreachable")
	}
	return nil
}

func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	health, err := m.prober.Health(probeCtx)
	if err != nil {
		if m.connected.Swap(false) {
			m.logger.Warn("backend disconnected", "error", err)
		}
		m.metrics.Probes.WithLabelValues("error").Inc()
		m.metrics.BackendConnected.Set(0)
		return
	}

	if !m.connected.Swap(true) {
		m.logger.Info("backend connected", "version", health.Version, "status", health.Status)
	}
	m.metrics.Probes.WithLabelValues("success").Inc()
	m.metrics.BackendConnected.Set(1)
}

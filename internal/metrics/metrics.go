// Package metrics exposes registry occupancy and lifecycle-event counters.
// It wires an OpenTelemetry meter to the Prometheus exporter bridge rather
// than calling promauto directly, so instrumentation code only ever talks
// to the otel/metric API and the Prometheus wire format stays an
// implementation detail of the exporter.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"alm/internal/registry"
)

// Metrics holds the instruments this package publishes: three observable
// gauges mirroring the registry's live counters, and three counters for
// lifecycle activity the registry itself doesn't track.
type Metrics struct {
	registry *prometheus.Registry

	appsGauge  metric.Int64ObservableGauge
	libsGauge  metric.Int64ObservableGauge
	tasksGauge metric.Int64ObservableGauge

	appCreates  metric.Int64Counter
	appCleanups metric.Int64Counter
	scanTicks   metric.Int64Counter
}

// New builds a dedicated Prometheus registry, bridges it to an OTel
// MeterProvider, and registers a callback that reads reg's counters under
// its lock whenever a scrape happens.
func New(reg *registry.Registry) (*Metrics, error) {
	promReg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(promReg))
	if err != nil {
		return nil, fmt.Errorf("metrics: build exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("alm")

	m := &Metrics{registry: promReg}

	if m.appsGauge, err = meter.Int64ObservableGauge("alm_registered_apps"); err != nil {
		return nil, err
	}
	if m.libsGauge, err = meter.Int64ObservableGauge("alm_registered_libs"); err != nil {
		return nil, err
	}
	if m.tasksGauge, err = meter.Int64ObservableGauge("alm_registered_tasks"); err != nil {
		return nil, err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		reg.Lock()
		defer reg.Unlock()
		o.ObserveInt64(m.appsGauge, int64(reg.CoreApps+reg.ExternalApps))
		o.ObserveInt64(m.libsGauge, int64(reg.RegisteredLibs))
		o.ObserveInt64(m.tasksGauge, int64(reg.RegisteredTasks))
		return nil
	}, m.appsGauge, m.libsGauge, m.tasksGauge)
	if err != nil {
		return nil, fmt.Errorf("metrics: register callback: %w", err)
	}

	if m.appCreates, err = meter.Int64Counter("alm_app_creates_total"); err != nil {
		return nil, err
	}
	if m.appCleanups, err = meter.Int64Counter("alm_app_cleanups_total"); err != nil {
		return nil, err
	}
	if m.scanTicks, err = meter.Int64Counter("alm_scan_ticks_total"); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) RecordAppCreate(ctx context.Context)  { m.appCreates.Add(ctx, 1) }
func (m *Metrics) RecordAppCleanup(ctx context.Context) { m.appCleanups.Add(ctx, 1) }
func (m *Metrics) RecordScanTick(ctx context.Context)   { m.scanTicks.Add(ctx, 1) }

// Handler serves the Prometheus text exposition format for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

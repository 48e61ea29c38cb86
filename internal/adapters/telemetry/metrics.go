package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Metrics = (*Metrics)(nil)

// Attribute keys of the orchestrator metrics.
var (
	AttrFrom   = attribute.Key("from")
	AttrTo     = attribute.Key("to")
	AttrKind   = attribute.Key("kind")
	AttrStatus = attribute.Key("status")
)

// Metrics records orchestration counters through an OpenTelemetry meter exported in the
// Prometheus text format.
type Metrics struct {
	provider *sdkmetric.MeterProvider
	handler  http.Handler

	transitions metric.Int64Counter
	graphs      metric.Int64Counter
	nodes       metric.Int64Counter
	groups      metric.Int64Counter
}

// NewMetrics creates the meter provider backed by a private Prometheus registry.
func NewMetrics(ctx context.Context, serviceName string) (*Metrics, error) {
	if serviceName == "" {
		serviceName = "forge"
	}

	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrMetricsInitFailed.Error())
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrMetricsInitFailed.Error())
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	m := &Metrics{
		provider: provider,
		handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}),
	}
	if err := m.register(provider.Meter(InstrumentationName)); err != nil {
		_ = provider.Shutdown(ctx)
		return nil, zerr.Wrap(err, domain.ErrMetricsInitFailed.Error())
	}
	return m, nil
}

func (m *Metrics) register(meter metric.Meter) error {
	var err error
	if m.transitions, err = meter.Int64Counter("forge_task_transitions",
		metric.WithDescription("Build task status changes.")); err != nil {
		return err
	}
	if m.graphs, err = meter.Int64Counter("forge_graphs_built",
		metric.WithDescription("Task graphs built for trigger requests.")); err != nil {
		return err
	}
	if m.nodes, err = meter.Int64Counter("forge_graph_nodes",
		metric.WithDescription("Resolved graph nodes by kind.")); err != nil {
		return err
	}
	if m.groups, err = meter.Int64Counter("forge_group_status_changes",
		metric.WithDescription("Build set aggregate status changes.")); err != nil {
		return err
	}
	return nil
}

// Handler serves the collected metrics.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

// TaskTransitioned counts a task status change.
func (m *Metrics) TaskTransitioned(ctx context.Context, from, to domain.BuildStatus) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		AttrFrom.String(string(from)),
		AttrTo.String(string(to)),
	))
}

// GraphBuilt counts a built task graph and how its nodes were resolved.
func (m *Metrics) GraphBuilt(ctx context.Context, created, inFlight, reused int) {
	m.graphs.Add(ctx, 1)
	m.nodes.Add(ctx, int64(created), metric.WithAttributes(AttrKind.String(domain.NodeBuild.String())))
	m.nodes.Add(ctx, int64(inFlight), metric.WithAttributes(AttrKind.String(domain.NodeInFlight.String())))
	m.nodes.Add(ctx, int64(reused), metric.WithAttributes(AttrKind.String(domain.NodeReused.String())))
}

// GroupStatusChanged counts a build set aggregate change.
func (m *Metrics) GroupStatusChanged(ctx context.Context, status domain.BuildStatus) {
	m.groups.Add(ctx, 1, metric.WithAttributes(AttrStatus.String(string(status))))
}

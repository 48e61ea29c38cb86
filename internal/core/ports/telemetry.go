package ports

import (
	"context"

	"go.trai.ch/forge/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan records the revisions a graph is about to build on the span in ctx.
	EmitPlan(ctx context.Context, revisions []string)
}

// Span represents a unit of work.
type Span interface {
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	Attributes map[string]any
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithAttribute sets an attribute when the span starts.
func WithAttribute(key string, value any) SpanOption {
	return func(c *SpanConfig) {
		if c.Attributes == nil {
			c.Attributes = make(map[string]any)
		}
		c.Attributes[key] = value
	}
}

// Metrics records orchestration counters.
type Metrics interface {
	// TaskTransitioned counts a task status change.
	TaskTransitioned(ctx context.Context, from, to domain.BuildStatus)
	// GraphBuilt counts a built task graph and how its nodes were resolved.
	GraphBuilt(ctx context.Context, created, inFlight, reused int)
	// GroupStatusChanged counts a build set aggregate change.
	GroupStatusChanged(ctx context.Context, status domain.BuildStatus)
}

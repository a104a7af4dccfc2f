package workflow

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "ai-workflow-hub/backend/internal/workflow"

// Node visit outcomes.
const (
	outcomeCompleted = "completed"
	outcomeSkipped   = "skipped"
	outcomeFailed    = "failed"
)

type instruments struct {
	tracer  trace.Tracer
	runs    metric.Int64Counter
	visits  metric.Int64Counter
	latency metric.Float64Histogram
}

func newInstruments() *instruments {
	meter := otel.Meter(instrumentationName)
	in := &instruments{tracer: otel.Tracer(instrumentationName)}

	var err error
	if in.runs, err = meter.Int64Counter("workflow.runs",
		metric.WithDescription("Workflow runs by terminal status"),
	); err != nil {
		otel.Handle(err)
	}
	if in.visits, err = meter.Int64Counter("workflow.node.visits",
		metric.WithDescription("Node visits by outcome"),
	); err != nil {
		otel.Handle(err)
	}
	if in.latency, err = meter.Float64Histogram("workflow.capability.duration",
		metric.WithDescription("Capability invocation latency"),
		metric.WithUnit("s"),
	); err != nil {
		otel.Handle(err)
	}
	return in
}

func (in *instruments) run(ctx context.Context, status string) {
	in.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (in *instruments) visit(ctx context.Context, outcome string) {
	in.visits.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (in *instruments) invoked(ctx context.Context, operationType string, started time.Time, err error) {
	in.latency.Record(ctx, time.Since(started).Seconds(), metric.WithAttributes(
		attribute.String("operation_type", operationType),
		attribute.Bool("error", err != nil),
	))
}

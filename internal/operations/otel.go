package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"liheapcli/internal/infrastructure"
)

// OperationTracer wraps stage execution in spans and records stage metrics
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer. Nil arguments disable the matching signal.
func NewOperationTracer(tracer trace.Tracer, metrics *infrastructure.PipelineMetrics) *OperationTracer {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(infrastructure.MeterName)
	}
	return &OperationTracer{tracer: tracer, metrics: metrics}
}

// Metrics returns the pipeline metrics, which may be nil
func (t *OperationTracer) Metrics() *infrastructure.PipelineMetrics {
	return t.metrics
}

// TraceOperation creates the root span of one pipeline run
func (t *OperationTracer) TraceOperation(ctx context.Context, runID string, stepIDs []string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.StringSlice("run.stages", stepIDs),
		),
	)
}

// TraceStage creates a span for one stage attempt
func (t *OperationTracer) TraceStage(ctx context.Context, runID, stageID string, attempt int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.stage."+stageID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("stage.id", stageID),
			attribute.Int("stage.attempt", attempt),
		),
	)
}

// RecordStage ends a stage span and records its duration under status
func (t *OperationTracer) RecordStage(ctx context.Context, span trace.Span, stageID string, status StepStatus, d time.Duration, err error) {
	span.SetAttributes(
		attribute.String("stage.status", string(status)),
		attribute.Float64("stage.duration_seconds", d.Seconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
	t.metrics.RecordStage(ctx, stageID, string(status), d)
}

// RecordOperation ends the root span
func (t *OperationTracer) RecordOperation(span trace.Span, status OperationStatusValue, d time.Duration, err error) {
	span.SetAttributes(
		attribute.String("run.status", string(status)),
		attribute.Float64("run.duration_seconds", d.Seconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

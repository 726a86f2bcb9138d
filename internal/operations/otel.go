package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"qcsuite/internal/infrastructure"
)

const (
	TracerName = "qcsuite.pipeline"
)

// Tracer provides OpenTelemetry instrumentation for pipeline runs. A nil
// *Tracer is valid and records nothing.
type Tracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewTracer creates a pipeline tracer from initialized providers
func NewTracer(providers *infrastructure.OTelProviders) (*Tracer, error) {
	if providers == nil {
		return nil, nil
	}
	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	tracer := providers.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(TracerName)
	}
	return &Tracer{tracer: tracer, metrics: metrics}, nil
}

// Metrics returns the pipeline instruments, nil for a nil tracer
func (t *Tracer) Metrics() *infrastructure.PipelineMetrics {
	if t == nil {
		return nil
	}
	return t.metrics
}

// TracePipeline starts the span covering a whole run
func (t *Tracer) TracePipeline(ctx context.Context, pipeline, runID string, opts RunOptions) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	ctx, span := t.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.name", pipeline),
			attribute.String("pipeline.run_id", runID),
			attribute.String("pipeline.tag", opts.Tag),
			attribute.String("pipeline.domain", opts.Domain),
		),
	)
	t.metrics.RunsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline", pipeline),
	))
	return ctx, span
}

// TraceStep starts the span of one step execution
func (t *Tracer) TraceStep(ctx context.Context, step Step, domain string) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	ctx, span := t.tracer.Start(ctx, "pipeline.step."+step.Name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("step.name", step.Name),
			attribute.String("step.func", step.FuncName),
			attribute.String("step.run_mode", string(step.RunMode)),
			attribute.String("step.domain", domain),
		),
	)
	t.metrics.StepRunsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", step.Name),
	))
	return ctx, span
}

// RecordStepCompletion closes out a step span with its outcome
func (t *Tracer) RecordStepCompletion(ctx context.Context, span trace.Span, timing StepTiming) {
	if t == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("step", timing.Step),
		attribute.String("status", string(timing.Status)),
	)
	t.metrics.StepDuration.Record(ctx, timing.Duration.Seconds(), attrs)

	span.SetAttributes(
		attribute.String("step.status", string(timing.Status)),
		attribute.Float64("step.duration_seconds", timing.Duration.Seconds()),
	)

	switch timing.Status {
	case StepStatusFailed:
		t.metrics.StepFailures.Add(ctx, 1, attrs)
		if timing.Err != nil {
			span.RecordError(timing.Err)
		}
		span.SetStatus(codes.Error, "step execution failed")
	case StepStatusSkipped:
		t.metrics.StepSkips.Add(ctx, 1, attrs)
		span.SetStatus(codes.Ok, "step skipped")
	default:
		span.SetStatus(codes.Ok, "step completed successfully")
	}

	infrastructure.AddSpanEvent(ctx, "step.completed", map[string]string{
		"step":     timing.Step,
		"domain":   timing.Domain,
		"status":   string(timing.Status),
		"duration": timing.Duration.String(),
	})
}

// RecordPipelineCompletion closes out the run span
func (t *Tracer) RecordPipelineCompletion(ctx context.Context, span trace.Span, summary *Summary, duration time.Duration) {
	if t == nil {
		return
	}
	status := "success"
	switch {
	case summary.Cancelled:
		status = "cancelled"
		t.metrics.Cancellations.Add(ctx, 1)
	case summary.Failed():
		status = "failed"
	}
	t.metrics.RunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("pipeline", summary.Pipeline),
		attribute.String("status", status),
	))

	span.SetAttributes(
		attribute.String("pipeline.status", status),
		attribute.Int("pipeline.step_runs", len(summary.Timings)),
		attribute.Int("pipeline.failures", len(summary.Failures())),
	)
	if status == "success" {
		span.SetStatus(codes.Ok, "pipeline completed successfully")
	} else {
		span.SetStatus(codes.Error, fmt.Sprintf("pipeline finished with status: %s", status))
	}
}

// RecordFlagged adds to the flagged-values counter
func (t *Tracer) RecordFlagged(ctx context.Context, tool string, n int) {
	if t == nil || n == 0 {
		return
	}
	t.metrics.FlaggedValues.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("tool", tool),
	))
}

package operations

import (
	"context"
	"log/slog"
	"time"
)

// logPipelineStart logs the start of a pipeline run
func (p *Pipeline) logPipelineStart(ctx context.Context, steps int, opts RunOptions) {
	p.logger.InfoContext(ctx, "pipeline_start",
		slog.String("pipeline", p.Name),
		slog.Int("steps", steps),
		slog.String("tag", opts.Tag),
		slog.String("domain", opts.Domain),
		slog.Int("domains", len(p.cfg.Domains)))
}

// logPipelineComplete logs the end of a pipeline run
func (p *Pipeline) logPipelineComplete(ctx context.Context, summary *Summary) {
	level := slog.LevelInfo
	if summary.Failed() || summary.Cancelled {
		level = slog.LevelWarn
	}
	p.logger.Log(ctx, level, "pipeline_complete",
		slog.String("pipeline", p.Name),
		slog.Duration("duration", summary.Total),
		slog.Int("step_runs", len(summary.Timings)),
		slog.Int("failures", len(summary.Failures())),
		slog.Int("skipped", len(summary.Skipped())),
		slog.Bool("cancelled", summary.Cancelled))
}

// logStepStart logs the start of a step execution
func logStepStart(ctx context.Context, logger *slog.Logger, step Step, domain string) {
	logger.InfoContext(ctx, "step_start",
		slog.String("step", step.Name),
		slog.String("func", step.FuncName),
		slog.String("domain", domain),
		slog.String("run_mode", string(step.RunMode)))
}

// logStepComplete logs the completion of a step execution
func logStepComplete(ctx context.Context, logger *slog.Logger, step Step, domain string, duration time.Duration) {
	logger.InfoContext(ctx, "step_complete",
		slog.String("step", step.Name),
		slog.String("domain", domain),
		slog.Duration("duration", duration))
}

// logStepError logs a step error
func logStepError(ctx context.Context, logger *slog.Logger, step Step, domain string, duration time.Duration, err error) {
	errorMsg := "unknown error"
	if err != nil {
		errorMsg = err.Error()
	}
	logger.ErrorContext(ctx, "step_error",
		slog.String("step", step.Name),
		slog.String("domain", domain),
		slog.Duration("elapsed", duration),
		slog.String("error", errorMsg))
}

// logStepSkipped logs a step skipped for a missing input
func logStepSkipped(ctx context.Context, logger *slog.Logger, step Step, domain, input string) {
	logger.WarnContext(ctx, "step_skipped",
		slog.String("step", step.Name),
		slog.String("domain", domain),
		slog.String("input_path", input),
		slog.String("reason", "input path not found"))
}

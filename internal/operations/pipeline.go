package operations

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"qcsuite/internal/config"
	"qcsuite/internal/infrastructure"
)

// RunOptions select what a pipeline run executes
type RunOptions struct {
	// Tag keeps only steps carrying this tag, in their original order
	Tag string
	// Domain is required by single_domain steps
	Domain string
	// DryRun prints the plan and executes nothing
	DryRun bool
}

// Pipeline is an ordered list of steps bound to a configuration
type Pipeline struct {
	Name        string
	Description string
	Steps       []Step

	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
	tracer *Tracer
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger; per-step file logs tee from it
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithOutput sets the writer receiving console progress lines
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) {
		if w != nil {
			p.out = w
		}
	}
}

// WithTracer enables spans and metrics for runs
func WithTracer(t *Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

// NewPipeline creates an empty pipeline
func NewPipeline(name string, cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		Name:   name,
		cfg:    cfg,
		logger: slog.Default(),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the configuration the pipeline runs against
func (p *Pipeline) Config() *config.Config {
	return p.cfg
}

func (p *Pipeline) prepare(step Step) Step {
	if step.InputKey == "" {
		step.InputKey = DefaultInputKey
	}
	if step.RunMode == "" {
		step.RunMode = RunModeDomain
	}
	if step.LogFilename == "" && step.FuncName != "" {
		step.LogFilename = step.FuncName + ".log"
	}
	for _, w := range step.Validate() {
		p.logger.Warn("step_config_warning",
			slog.String("pipeline", p.Name),
			slog.String("warning", w))
	}
	return step
}

// AddStep appends a step, applying input key and run mode defaults
func (p *Pipeline) AddStep(step Step) {
	p.Steps = append(p.Steps, p.prepare(step))
}

// InsertStep places a step at index, shifting later steps down
func (p *Pipeline) InsertStep(index int, step Step) error {
	if index < 0 || index > len(p.Steps) {
		return fmt.Errorf("insert index %d out of range [0, %d]", index, len(p.Steps))
	}
	step = p.prepare(step)
	p.Steps = append(p.Steps, Step{})
	copy(p.Steps[index+1:], p.Steps[index:])
	p.Steps[index] = step
	return nil
}

// Validate reports structural problems that prevent a run
func (p *Pipeline) Validate() error {
	if p.cfg == nil {
		return NewConfigurationError("", fmt.Sprintf("pipeline %q has no configuration", p.Name))
	}
	if len(p.Steps) == 0 {
		return NewValidationError("", fmt.Sprintf("pipeline %q has no steps", p.Name))
	}
	var errs ErrorList
	for _, s := range p.Steps {
		if s.Func == nil {
			errs.Add(NewValidationError(s.Name, "step has no function"))
		}
	}
	return errs.Err()
}

// FilterSteps returns the steps carrying tag, or all steps for an empty tag
func (p *Pipeline) FilterSteps(tag string) []Step {
	if tag == "" {
		return p.Steps
	}
	var out []Step
	for _, s := range p.Steps {
		if s.HasTag(tag) {
			out = append(out, s)
		}
	}
	return out
}

// Run executes the selected steps. Step failures are recorded in the
// summary and do not stop the run; the returned error is non-nil only for
// validation failures and cancellation.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	ctx = infrastructure.EnsureRunID(ctx)
	summary := &Summary{Pipeline: p.Name, RunID: infrastructure.GetRunID(ctx)}

	steps := p.FilterSteps(opts.Tag)
	if len(steps) == 0 {
		return summary, NewValidationError("", fmt.Sprintf("no steps in pipeline %q match tag %q", p.Name, opts.Tag))
	}

	if opts.DryRun {
		p.printPlan(steps, opts)
		return summary, nil
	}

	ctx, span := p.tracer.TracePipeline(ctx, p.Name, summary.RunID, opts)
	defer span.End()

	p.logPipelineStart(ctx, len(steps), opts)
	start := time.Now()

	var cancelErr error
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			cancelErr = NewCancellationError(step.Name, err)
			break
		}

		fmt.Fprintf(p.out, "\n[%d/%d] ▶ %s\n", i+1, len(steps), step.Name)
		stepStart := time.Now()
		before := len(summary.Failures())

		switch step.RunMode {
		case RunModeGlobal:
			summary.record(p.runGlobal(ctx, step))
		case RunModeCustom:
			summary.record(p.runCustom(ctx, step))
		case RunModeSingleDomain:
			if opts.Domain == "" {
				err := NewValidationError(step.Name, "single_domain mode requires a domain")
				fmt.Fprintf(p.out, "   ✖ %s requires --domain\n", step.Name)
				p.logger.ErrorContext(ctx, "step_error",
					slog.String("step", step.Name),
					slog.String("error", err.Error()))
				summary.record(StepTiming{Step: step.Name, Status: StepStatusFailed, Err: err})
				continue
			}
			summary.record(p.runDomain(ctx, step, opts.Domain))
		default:
			for _, domain := range p.cfg.Domains {
				if err := ctx.Err(); err != nil {
					cancelErr = NewCancellationError(step.Name, err)
					break
				}
				summary.record(p.runDomain(ctx, step, domain))
			}
		}

		elapsed := time.Since(stepStart)
		if failed := len(summary.Failures()) - before; failed > 0 {
			fmt.Fprintf(p.out, "[%d/%d] ✖ %s finished with %d failure(s) after %.2fs\n", i+1, len(steps), step.Name, failed, elapsed.Seconds())
		} else {
			fmt.Fprintf(p.out, "[%d/%d] ✔ Finished %s in %.2fs\n", i+1, len(steps), step.Name, elapsed.Seconds())
		}
		if cancelErr != nil {
			break
		}
	}
	if cancelErr == nil && ctx.Err() != nil {
		cancelErr = NewCancellationError("", ctx.Err())
	}

	summary.Total = time.Since(start)
	summary.Cancelled = cancelErr != nil
	p.tracer.RecordPipelineCompletion(ctx, span, summary, summary.Total)
	p.logPipelineComplete(ctx, summary)

	if cancelErr != nil {
		return summary, cancelErr
	}
	return summary, nil
}

// runDomain executes step for one domain
func (p *Pipeline) runDomain(ctx context.Context, step Step, domain string) StepTiming {
	if !p.hasDomain(domain) {
		err := NewValidationError(step.Name, fmt.Sprintf("domain %q is not configured", domain))
		fmt.Fprintf(p.out, "   ✖ domain %q not found\n", domain)
		return StepTiming{Step: step.Name, Domain: domain, Status: StepStatusFailed, Err: err}
	}
	if err := p.cfg.EnsureDomainDirectories(domain); err != nil {
		fmt.Fprintf(p.out, "   ✖ %v\n", err)
		return StepTiming{Step: step.Name, Domain: domain, Status: StepStatusFailed, Err: NewExecutionError(step.Name, domain, err)}
	}

	paths := p.cfg.DomainPaths(domain)
	input := paths.Get(step.InputKey)
	if input == "" {
		input = p.cfg.GlobalPaths().Get(step.InputKey)
	}
	in := StepInput{
		Domain:     domain,
		InputPath:  input,
		OutputPath: config.OutputPath(paths, step.OutputFilename),
		Paths:      paths,
		Config:     p.cfg,
	}
	logPath := filepath.Join(paths.Get(config.KeyQCLogs), fmt.Sprintf("%s_%s.log", step.logBase(), domain))
	return p.execute(ctx, step, domain, in, logPath, step.CheckExists)
}

// runGlobal executes step once against the global path map
func (p *Pipeline) runGlobal(ctx context.Context, step Step) StepTiming {
	paths := p.cfg.GlobalPaths()
	in := StepInput{
		InputPath:  paths.Get(step.InputKey),
		OutputPath: config.OutputPath(paths, step.OutputFilename),
		Paths:      paths,
		Config:     p.cfg,
	}
	logPath := filepath.Join(paths.Get(config.KeyQCLogs), step.logBase()+".log")
	return p.execute(ctx, step, "", in, logPath, step.CheckExists)
}

// runCustom executes step once with only config and logger
func (p *Pipeline) runCustom(ctx context.Context, step Step) StepTiming {
	logPath := filepath.Join(p.cfg.GlobalPaths().Get(config.KeyQCLogs), step.logBase()+".log")
	return p.execute(ctx, step, "", StepInput{Config: p.cfg}, logPath, false)
}

func (p *Pipeline) execute(ctx context.Context, step Step, domain string, in StepInput, logPath string, checkExists bool) StepTiming {
	start := time.Now()
	ctx, span := p.tracer.TraceStep(ctx, step, domain)
	defer span.End()

	timing := StepTiming{Step: step.Name, Domain: domain}

	if checkExists && !pathExists(in.InputPath) {
		logStepSkipped(ctx, p.logger, step, domain, in.InputPath)
		fmt.Fprintf(p.out, "   ⚠ Input path not found: %s (skipped)\n", in.InputPath)
		timing.Status = StepStatusSkipped
		timing.Err = NewInputMissingError(step.Name, domain, in.InputPath)
		timing.Duration = time.Since(start)
		p.tracer.RecordStepCompletion(ctx, span, timing)
		return timing
	}

	logger := p.logger
	teeLogger, closer, err := infrastructure.NewTeeLogger(p.logger, logPath)
	if err != nil {
		p.logger.WarnContext(ctx, "step_log_unavailable",
			slog.String("path", logPath),
			slog.String("error", err.Error()))
	} else {
		logger = teeLogger
		defer closer.Close()
	}
	logger = logger.With(slog.String("step", step.Name))
	if domain != "" {
		logger = logger.With(slog.String("domain", domain))
	}
	in.Logger = logger

	logStepStart(ctx, logger, step, domain)
	err = CallStep(ctx, step.Func, in)
	timing.Duration = time.Since(start)

	if err != nil {
		logStepError(ctx, logger, step, domain, timing.Duration, err)
		fmt.Fprintf(p.out, "   ✖ Error in %s%s after %.2fs: %v\n", step.Name, domainSuffix(domain), timing.Duration.Seconds(), err)
		timing.Status = StepStatusFailed
		timing.Err = NewExecutionError(step.Name, domain, err)
	} else {
		logStepComplete(ctx, logger, step, domain, timing.Duration)
		if domain != "" {
			fmt.Fprintf(p.out, "   ✔ Completed %s for %s\n", step.Name, domain)
		}
		timing.Status = StepStatusCompleted
	}
	p.tracer.RecordStepCompletion(ctx, span, timing)
	return timing
}

// CallStep runs fn, converting a panic into an error. The stack goes to
// the step log only.
func CallStep(ctx context.Context, fn StepFunc, in StepInput) (err error) {
	defer func() {
		if r := recover(); r != nil {
			in.Log().ErrorContext(ctx, "step_panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, in)
}

func (p *Pipeline) hasDomain(domain string) bool {
	for _, d := range p.cfg.Domains {
		if d == domain {
			return true
		}
	}
	return false
}

func pathExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// printPlan writes what a run would execute
func (p *Pipeline) printPlan(steps []Step, opts RunOptions) {
	fmt.Fprintf(p.out, "Dry run: pipeline %s (%d steps)\n", p.Name, len(steps))
	if p.Description != "" {
		fmt.Fprintf(p.out, "  %s\n", p.Description)
	}
	for i, s := range steps {
		var domains string
		switch s.RunMode {
		case RunModeGlobal, RunModeCustom:
			domains = "-"
		case RunModeSingleDomain:
			domains = opts.Domain
			if domains == "" {
				domains = "(requires --domain)"
			}
		default:
			domains = strings.Join(p.cfg.Domains, ", ")
		}
		tags := strings.Join(s.Tags, ", ")
		if tags == "" {
			tags = "-"
		}
		fmt.Fprintf(p.out, "[%d/%d] %s\n", i+1, len(steps), s.Name)
		fmt.Fprintf(p.out, "    func: %s  mode: %s  input: %s\n", s.FuncName, s.RunMode, s.InputKey)
		fmt.Fprintf(p.out, "    domains: %s  tags: %s\n", domains, tags)
	}
}

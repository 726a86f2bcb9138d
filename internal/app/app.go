package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"qcsuite/internal/config"
	"qcsuite/internal/infrastructure"
	"qcsuite/internal/operations"
	"qcsuite/internal/registry"
	"qcsuite/internal/tools"
	"qcsuite/internal/validators"
)

const AppName = "qcsuite"

// App holds everything a command needs. Build it with New or Load and
// release it with Close.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Validators *registry.Registry[validators.Factory]
	Tools      *registry.Registry[operations.StepFunc]
	Catalog    *tools.Catalog
	Telemetry  *infrastructure.OTelProviders
	Tracer     *operations.Tracer

	out        io.Writer
	ownsLogger bool
	started    time.Time
	runtime    *infrastructure.RuntimeMetrics
}

// Option customizes an App
type Option func(*App)

// WithLogger uses logger instead of initializing one from the configuration
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.Logger = logger
	}
}

// WithOutput sets the writer for console progress, stdout by default
func WithOutput(w io.Writer) Option {
	return func(a *App) {
		a.out = w
	}
}

// Load reads the configuration at path and builds the App
func Load(path string, opts ...Option) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, operations.NewConfigurationError("", err.Error())
	}
	return New(cfg, opts...)
}

// New wires logging, telemetry and the registries for cfg
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil configuration")
	}
	a := &App{Config: cfg, out: os.Stdout, started: time.Now()}
	for _, opt := range opts {
		opt(a)
	}

	if a.Logger == nil {
		logger, err := infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.Logger = logger
		a.ownsLogger = true
	}

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.Telemetry = providers

	tracer, err := operations.NewTracer(providers)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline tracer: %w", err)
	}
	a.Tracer = tracer

	a.runtime, err = infrastructure.NewRuntimeMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}

	a.Validators = registry.New[validators.Factory]()
	validators.Register(a.Validators, cfg.DictionaryChecker.Plugins)

	a.Catalog = tools.NewCatalog(tools.Deps{Validators: a.Validators, Tracer: tracer})
	a.Tools = registry.New[operations.StepFunc]()
	a.Catalog.Register(a.Tools)

	a.Logger.Info("app_initialized",
		slog.String("app", AppName),
		slog.String("version", config.AppVersion),
		slog.String("config", cfg.Source()),
		slog.Any("domains", cfg.Domains),
		slog.Int("pipelines", len(cfg.Pipelines)),
		slog.Int("tools", len(a.Tools.List(tools.RegistryType))),
		slog.Int("validators", len(a.Validators.List(validators.RegistryType))),
		slog.Bool("telemetry", cfg.Telemetry.Enabled))
	return a, nil
}

func (a *App) pipelineOptions() []operations.Option {
	return []operations.Option{
		operations.WithLogger(a.Logger),
		operations.WithOutput(a.out),
		operations.WithTracer(a.Tracer),
	}
}

// Pipelines builds every configured pipeline against the tool registry
func (a *App) Pipelines() (map[string]*operations.Pipeline, error) {
	return operations.BuildPipelines(a.Config, tools.RegistryLookup{Registry: a.Tools}, a.pipelineOptions()...)
}

// RunPipeline builds and runs the named pipeline. An empty name selects
// default_pipeline.
func (a *App) RunPipeline(ctx context.Context, name string, opts operations.RunOptions) (*operations.Summary, error) {
	if name == "" {
		name = a.Config.DefaultPipeline
	}
	if name == "" {
		return nil, operations.NewConfigurationError("", "no pipeline given and no default_pipeline configured")
	}
	p, err := operations.BuildPipeline(a.Config, tools.RegistryLookup{Registry: a.Tools}, name, a.pipelineOptions()...)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, opts)
}

// ToolRequest selects what a single tool invocation reads and writes.
// Empty fields fall back to the tool's input key and the qc_output directory.
type ToolRequest struct {
	Domain string
	Input  string
	Output string
}

// RunTool runs one catalog tool outside any pipeline. Domain tools without
// a domain run for every configured domain; failures, panics included, are
// collected and the remaining domains still run.
func (a *App) RunTool(ctx context.Context, name string, req ToolRequest) error {
	tool, ok := a.Catalog.Get(name)
	if !ok {
		return operations.NewConfigurationError(name, fmt.Sprintf("unknown tool %q", name))
	}
	// Pipelines and single runs resolve the same registered implementation
	fn, ok := a.Tools.Get(tools.RegistryType, name)
	if !ok {
		return operations.NewConfigurationError(name, fmt.Sprintf("tool %q is not registered", name))
	}

	domains := []string{""}
	switch {
	case req.Domain != "":
		if !a.hasDomain(req.Domain) {
			return operations.NewValidationError(name, fmt.Sprintf("domain %q is not configured", req.Domain))
		}
		domains = []string{req.Domain}
	case tool.RunMode == operations.RunModeSingleDomain:
		return operations.NewValidationError(name, "single_domain mode requires a domain")
	case tool.RunMode == operations.RunModeDomain:
		if len(a.Config.Domains) == 0 {
			return operations.NewValidationError(name, "no domains configured")
		}
		domains = a.Config.Domains
	}

	ctx = infrastructure.EnsureRunID(ctx)
	var errs operations.ErrorList
	for _, domain := range domains {
		if err := ctx.Err(); err != nil {
			return operations.NewCancellationError(name, err)
		}
		in := a.toolInput(tool, domain, req)
		start := time.Now()
		in.Logger.InfoContext(ctx, "tool_start",
			slog.String("input", in.InputPath),
			slog.String("output", in.OutputPath))
		if err := operations.CallStep(ctx, fn, in); err != nil {
			in.Logger.ErrorContext(ctx, "tool_failed",
				slog.Duration("duration", time.Since(start)),
				slog.String("error", err.Error()))
			fmt.Fprintf(a.out, "✖ %s%s: %v\n", name, forDomain(domain), err)
			errs.Add(operations.NewExecutionError(name, domain, err))
			continue
		}
		in.Logger.InfoContext(ctx, "tool_complete", slog.Duration("duration", time.Since(start)))
		fmt.Fprintf(a.out, "✔ %s%s in %.2fs\n", name, forDomain(domain), time.Since(start).Seconds())
	}
	return errs.Err()
}

func (a *App) toolInput(tool tools.Tool, domain string, req ToolRequest) operations.StepInput {
	global := a.Config.GlobalPaths()
	paths := global
	logger := a.Logger.With(slog.String("tool", tool.Name))
	if domain != "" {
		paths = a.Config.DomainPaths(domain)
		logger = logger.With(slog.String("domain", domain))
	}

	input := req.Input
	if input == "" && tool.InputKey != "" {
		if input = paths.Get(tool.InputKey); input == "" {
			input = global.Get(tool.InputKey)
		}
	}
	output := req.Output
	if output == "" {
		output = config.OutputPath(paths, "")
	}
	return operations.StepInput{
		Domain:     domain,
		InputPath:  input,
		OutputPath: output,
		Paths:      paths,
		Config:     a.Config,
		Logger:     logger,
	}
}

func (a *App) hasDomain(domain string) bool {
	for _, d := range a.Config.Domains {
		if d == domain {
			return true
		}
	}
	return false
}

func forDomain(domain string) string {
	if domain == "" {
		return ""
	}
	return " for " + domain
}

// Close records process stats, flushes telemetry (writing the metrics
// textfile when enabled) and closes the log file the App opened.
func (a *App) Close(ctx context.Context) error {
	stats := a.runtime.Collect(ctx, a.started)
	a.Logger.Info("process_stats",
		slog.Duration("uptime", stats.Uptime),
		slog.Uint64("heap_bytes", stats.HeapBytes),
		slog.Uint64("total_alloc_bytes", stats.TotalAlloc),
		slog.Int("goroutines", stats.Goroutines),
		slog.Any("gc_cycles", stats.GCCycles))

	var errs []error
	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.ownsLogger {
		if err := infrastructure.CloseLogFile(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

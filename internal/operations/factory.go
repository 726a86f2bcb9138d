package operations

import (
	"fmt"
	"sort"
	"strings"

	"qcsuite/internal/config"
)

// StepLookup resolves a tool name to its step function
type StepLookup interface {
	Lookup(name string) (StepFunc, bool)
}

// BuildPipelines constructs every pipeline defined in cfg. References to
// other pipelines, written as {ref: name} or a bare string, are expanded in
// place. Unknown tool names, unknown references, bad run modes and reference
// cycles are configuration errors.
func BuildPipelines(cfg *config.Config, tools StepLookup, opts ...Option) (map[string]*Pipeline, error) {
	if cfg == nil {
		return nil, NewConfigurationError("", "no configuration")
	}
	b := &builder{cfg: cfg, tools: tools, resolved: make(map[string][]Step)}

	names := cfg.PipelineNames()
	var errs ErrorList
	pipelines := make(map[string]*Pipeline, len(names))
	for _, name := range names {
		steps, err := b.resolve(name, nil)
		if err != nil {
			errs.Add(asConfigError(err))
			continue
		}
		p := NewPipeline(name, cfg, opts...)
		p.Description = cfg.Pipelines[name].Description
		for _, s := range steps {
			p.AddStep(s)
		}
		pipelines[name] = p
	}
	if errs.HasErrors() {
		return nil, &errs
	}
	return pipelines, nil
}

// BuildPipeline constructs a single named pipeline
func BuildPipeline(cfg *config.Config, tools StepLookup, name string, opts ...Option) (*Pipeline, error) {
	if _, ok := cfg.Pipelines[name]; !ok {
		return nil, NewConfigurationError("", fmt.Sprintf("unknown pipeline %q (available: %s)", name, strings.Join(cfg.PipelineNames(), ", ")))
	}
	b := &builder{cfg: cfg, tools: tools, resolved: make(map[string][]Step)}
	steps, err := b.resolve(name, nil)
	if err != nil {
		return nil, asConfigError(err)
	}
	p := NewPipeline(name, cfg, opts...)
	p.Description = cfg.Pipelines[name].Description
	for _, s := range steps {
		p.AddStep(s)
	}
	return p, nil
}

type builder struct {
	cfg      *config.Config
	tools    StepLookup
	resolved map[string][]Step
}

// resolve expands a pipeline definition; stack holds the reference chain
func (b *builder) resolve(name string, stack []string) ([]Step, error) {
	for _, s := range stack {
		if s == name {
			return nil, NewConfigurationError("", fmt.Sprintf("pipeline reference cycle: %s -> %s", strings.Join(stack, " -> "), name))
		}
	}
	if steps, ok := b.resolved[name]; ok {
		return steps, nil
	}
	def, ok := b.cfg.Pipelines[name]
	if !ok {
		return nil, NewConfigurationError("", fmt.Sprintf("unknown pipeline reference %q", name))
	}
	stack = append(stack, name)

	var steps []Step
	for i, item := range def.Steps {
		if item.IsRef() {
			included, err := b.resolve(item.Ref, stack)
			if err != nil {
				return nil, err
			}
			steps = append(steps, included...)
			continue
		}
		step, err := b.step(item)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q item %d: %w", name, i+1, err)
		}
		steps = append(steps, step)
	}
	b.resolved[name] = steps
	return steps, nil
}

func (b *builder) step(def config.StepDef) (Step, error) {
	name := def.Name
	if name == "" {
		name = def.Func
	}
	if def.Func == "" {
		return Step{}, NewConfigurationError(name, "step has no func")
	}
	fn, ok := b.tools.Lookup(def.Func)
	if !ok {
		return Step{}, NewConfigurationError(name, fmt.Sprintf("unknown func %q", def.Func))
	}
	mode, err := ParseRunMode(def.RunMode)
	if err != nil {
		return Step{}, NewConfigurationError(name, err.Error())
	}
	logFile := def.LogFilename
	if logFile == "" {
		logFile = def.Func + ".log"
	}
	return Step{
		Name:           name,
		LogFilename:    logFile,
		Func:           fn,
		FuncName:       def.Func,
		InputKey:       def.InputKey,
		OutputFilename: def.OutputFilename,
		CheckExists:    def.CheckExists,
		RunMode:        mode,
		Tags:           append([]string(nil), def.Tags...),
	}, nil
}

func asConfigError(err error) *OperationError {
	if op, ok := err.(*OperationError); ok && op.Type == ErrorTypeConfiguration {
		return op
	}
	return &OperationError{Type: ErrorTypeConfiguration, Message: "invalid pipeline definition", Cause: err}
}

// FuncMap adapts a plain map to StepLookup
type FuncMap map[string]StepFunc

// Lookup implements StepLookup
func (m FuncMap) Lookup(name string) (StepFunc, bool) {
	fn, ok := m[name]
	return fn, ok
}

// Names returns the registered names in sorted order
func (m FuncMap) Names() []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

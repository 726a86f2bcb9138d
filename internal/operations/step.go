package operations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"qcsuite/internal/config"
)

// RunMode selects how a step is scheduled across domains
type RunMode string

const (
	// RunModeDomain runs the step once per configured domain
	RunModeDomain RunMode = "domain"
	// RunModeSingleDomain runs the step for the domain named in RunOptions
	RunModeSingleDomain RunMode = "single_domain"
	// RunModeGlobal runs the step once against the global path map
	RunModeGlobal RunMode = "global"
	// RunModeCustom runs the step once with only config and logger
	RunModeCustom RunMode = "custom"
)

// ParseRunMode validates a run mode name; empty means RunModeDomain
func ParseRunMode(s string) (RunMode, error) {
	switch RunMode(strings.TrimSpace(s)) {
	case "", RunModeDomain:
		return RunModeDomain, nil
	case RunModeSingleDomain:
		return RunModeSingleDomain, nil
	case RunModeGlobal:
		return RunModeGlobal, nil
	case RunModeCustom:
		return RunModeCustom, nil
	}
	return "", fmt.Errorf("unknown run mode %q", s)
}

// StepInput is everything a tool receives for one invocation. Custom-mode
// steps get only Config and Logger.
type StepInput struct {
	Domain     string
	InputPath  string
	OutputPath string
	Paths      config.DomainPaths
	Config     *config.Config
	Logger     *slog.Logger
}

// Log returns the input's logger, falling back to the default logger
func (in StepInput) Log() *slog.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return slog.Default()
}

// StepFunc is the single contract every tool implements
type StepFunc func(ctx context.Context, in StepInput) error

// DefaultInputKey is used when a step does not name one
const DefaultInputKey = config.KeyRawData

// Step is one entry of a pipeline
type Step struct {
	Name           string
	LogFilename    string
	Func           StepFunc
	FuncName       string
	InputKey       string
	OutputFilename string
	CheckExists    bool
	RunMode        RunMode
	Tags           []string
}

// HasTag reports whether the step carries tag
func (s Step) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Validate returns non-blocking warnings about mode and input key
// combinations that are probably mistakes.
func (s Step) Validate() []string {
	var warnings []string
	key := s.InputKey
	switch s.RunMode {
	case RunModeDomain, "":
		if config.IsGlobalInput(key) {
			warnings = append(warnings, fmt.Sprintf("step %q uses domain mode with global input_key %q", s.Name, key))
		}
	case RunModeSingleDomain:
		if !config.IsDomainScopedInput(key) {
			warnings = append(warnings, fmt.Sprintf("step %q uses single_domain mode with possible mismatch input_key %q", s.Name, key))
		}
	case RunModeGlobal:
		if config.IsDomainScopedInput(key) {
			warnings = append(warnings, fmt.Sprintf("step %q uses global mode with domain-level input_key %q", s.Name, key))
		}
	case RunModeCustom:
		warnings = append(warnings, fmt.Sprintf("step %q uses custom mode; the function must resolve its own inputs", s.Name))
	}
	return warnings
}

// logBase is the log file name without its .log suffix
func (s Step) logBase() string {
	name := s.LogFilename
	if name == "" {
		name = s.FuncName
	}
	if name == "" {
		name = s.Name
	}
	return strings.TrimSuffix(name, ".log")
}

// StepStatus is the outcome of one step execution
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

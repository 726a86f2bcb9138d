package config

import (
	"fmt"
)

// PipelineDef is a named pipeline definition. In YAML it is either a bare
// list of steps or a mapping with description and steps.
type PipelineDef struct {
	Description string    `yaml:"description"`
	Steps       []StepDef `yaml:"steps" validate:"dive"`
}

// UnmarshalYAML accepts both the list and the mapping form
func (p *PipelineDef) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var steps []StepDef
	if err := unmarshal(&steps); err == nil {
		p.Steps = steps
		return nil
	}

	var full struct {
		Description string    `yaml:"description"`
		Steps       []StepDef `yaml:"steps"`
	}
	if err := unmarshal(&full); err != nil {
		return fmt.Errorf("pipeline must be a list of steps or {description, steps}: %w", err)
	}
	p.Description = full.Description
	p.Steps = full.Steps
	return nil
}

// StepDef is one item of a pipeline definition: either a step with a
// function reference, or a reference to another pipeline whose steps are
// copied in place.
type StepDef struct {
	Ref            string   `yaml:"ref"`
	Name           string   `yaml:"name"`
	Func           string   `yaml:"func" validate:"required_without=Ref"`
	LogFilename    string   `yaml:"log_filename"`
	InputKey       string   `yaml:"input_key"`
	OutputFilename string   `yaml:"output_filename"`
	CheckExists    bool     `yaml:"check_exists"`
	RunMode        string   `yaml:"run_mode" validate:"omitempty,oneof=domain single_domain global custom"`
	Tags           []string `yaml:"tags"`
}

// IsRef reports whether the item includes another pipeline
func (s StepDef) IsRef() bool {
	return s.Ref != ""
}

// UnmarshalYAML accepts a bare string as a pipeline reference
func (s *StepDef) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var ref string
	if err := unmarshal(&ref); err == nil {
		*s = StepDef{Ref: ref}
		return nil
	}

	type plain StepDef
	var v plain
	if err := unmarshal(&v); err != nil {
		return err
	}
	*s = StepDef(v)
	return nil
}

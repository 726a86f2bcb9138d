package validators

import (
	"errors"
	"fmt"

	"qcsuite/internal/registry"
)

// RegistryType is the registry namespace holding validator factories
const RegistryType = "validator"

// ErrNoValidator is returned when no factory is registered for a kind
var ErrNoValidator = errors.New("no validator registered")

// Builtins returns the built-in factories keyed by kind name
func Builtins() map[string]Factory {
	return map[string]Factory{
		KindNumeric.String(): func(opts Options) (Validator, error) { return NewNumericValidator(opts) },
		KindText.String():    func(opts Options) (Validator, error) { return NewTextValidator(opts) },
		KindDate.String():    func(opts Options) (Validator, error) { return NewDateValidator(opts) },
	}
}

var builtinDescriptions = map[string]string{
	"numeric": "range check, or IQR/STD outliers when no range is declared",
	"text":    "rare categorical values",
	"date":    "strict date format conformance",
}

// Register installs the built-in factories. Per-validator overrides, keyed
// by kind name, are merged over the options passed at build time.
func Register(reg *registry.Registry[Factory], overrides map[string]map[string]interface{}) {
	for _, name := range []string{"numeric", "text", "date"} {
		factory := Builtins()[name]
		if extra := overrides[name]; len(extra) > 0 {
			factory = withOverrides(factory, extra)
		}
		reg.Register(RegistryType, name, factory, map[string]string{
			"description": builtinDescriptions[name],
			"builtin":     "true",
		})
	}
}

func withOverrides(f Factory, extra map[string]interface{}) Factory {
	return func(opts Options) (Validator, error) {
		return f(opts.Merge(extra))
	}
}

// Build looks up the factory for kind and constructs a validator
func Build(reg *registry.Registry[Factory], kind Kind, opts Options) (Validator, error) {
	factory, ok := reg.Get(RegistryType, kind.String())
	if !ok {
		return nil, fmt.Errorf("%w for type %s", ErrNoValidator, kind)
	}
	v, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("build %s validator: %w", kind, err)
	}
	return v, nil
}

package tools

import (
	"sort"

	"qcsuite/internal/config"
	"qcsuite/internal/operations"
	"qcsuite/internal/registry"
	"qcsuite/internal/validators"
)

// RegistryType is the registry namespace holding step functions
const RegistryType = "tool"

// Tool categories
const (
	CategoryChecker     = "checker"
	CategoryValidator   = "validator"
	CategoryTransformer = "transformer"
	CategoryEnhancement = "enhancement"
	CategoryAutomation  = "automation"
)

// Tool describes one catalog entry
type Tool struct {
	Name        string
	Description string
	Category    string
	// RunMode is the mode the tool is written for
	RunMode operations.RunMode
	// InputKey is the path key read when no input is given
	InputKey string
	Func     operations.StepFunc
}

// Deps are the shared services tools draw on
type Deps struct {
	Validators *registry.Registry[validators.Factory]
	Tracer     *operations.Tracer
}

// Catalog maps tool names to tools
type Catalog struct {
	tools map[string]Tool
}

// NewCatalog builds the full catalog bound to deps
func NewCatalog(deps Deps) *Catalog {
	ts := &toolset{deps: deps}
	c := &Catalog{tools: make(map[string]Tool)}
	for _, t := range []Tool{
		{Name: "dictionary_driven_checker", InputKey: config.KeyRawData, Category: CategoryChecker, RunMode: operations.RunModeDomain, Func: ts.dictionaryDrivenChecker,
			Description: "Validates dataset values against the domain dictionary (ranges, outliers, rare values, date formats)"},
		{Name: "dictionary_cleaner", InputKey: config.KeyDictionary, Category: CategoryTransformer, RunMode: operations.RunModeDomain, Func: ts.dictionaryCleaner,
			Description: "Normalizes dictionary types and expected values"},
		{Name: "dictionary_validator", InputKey: config.KeyRawData, Category: CategoryValidator, RunMode: operations.RunModeDomain, Func: ts.dictionaryValidator,
			Description: "Compares dataset columns with dictionary variables"},
		{Name: "score_totals_checker", InputKey: config.KeyRawData, Category: CategoryChecker, RunMode: operations.RunModeDomain, Func: ts.scoreTotalsChecker,
			Description: "Checks that score totals equal the sum of their components"},
		{Name: "feature_change_checker", InputKey: config.KeyMergedData, Category: CategoryChecker, RunMode: operations.RunModeDomain, Func: ts.featureChangeChecker,
			Description: "Tracks a feature between consecutive visits of each subject"},
		{Name: "release_consistency_checker", InputKey: config.KeyMergedData, Category: CategoryChecker, RunMode: operations.RunModeDomain, Func: ts.releaseConsistencyChecker,
			Description: "Compares the previous release with the current merged data"},
		{Name: "data_content_comparer", Category: CategoryChecker, RunMode: operations.RunModeGlobal, Func: ts.dataContentComparer,
			Description: "Compares two arbitrary datasets by id columns"},
		{Name: "medvisit_integrity_validator", InputKey: config.KeyMergedData, Category: CategoryValidator, RunMode: operations.RunModeDomain, Func: ts.medVisitIntegrityValidator,
			Description: "Lists Med_ID/Visit_ID combinations missing from either release"},
		{Name: "date_format_standardizer", InputKey: config.KeyRawData, Category: CategoryTransformer, RunMode: operations.RunModeDomain, Func: ts.dateFormatStandardizer,
			Description: "Rewrites date columns to the target format"},
		{Name: "supplement_prepper", InputKey: config.KeyRHQInputs, Category: CategoryEnhancement, RunMode: operations.RunModeGlobal, Func: ts.supplementPrepper,
			Description: "Merges raw supplement sheets into dictionary entries"},
		{Name: "supplement_splitter", InputKey: config.KeyQCOutput, Category: CategoryEnhancement, RunMode: operations.RunModeGlobal, Func: ts.supplementSplitter,
			Description: "Partitions the prepped supplement across domain dictionaries"},
		{Name: "dictionary_supplementer", InputKey: config.KeyQCOutput, Category: CategoryEnhancement, RunMode: operations.RunModeDomain, Func: ts.dictionarySupplementer,
			Description: "Adds supplement variables to the domain dictionary"},
		{Name: "form_autofiller", InputKey: config.KeyRHQInputs, Category: CategoryAutomation, RunMode: operations.RunModeGlobal, Func: ts.formAutofiller,
			Description: "Fills address forms in the browser from an address sheet"},
	} {
		c.tools[t.Name] = t
	}
	return c
}

// Lookup implements operations.StepLookup
func (c *Catalog) Lookup(name string) (operations.StepFunc, bool) {
	t, ok := c.tools[name]
	if !ok {
		return nil, false
	}
	return t.Func, true
}

// Get returns the named tool
func (c *Catalog) Get(name string) (Tool, bool) {
	t, ok := c.tools[name]
	return t, ok
}

// Names returns the tool names in sorted order
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tools returns every tool sorted by name
func (c *Catalog) Tools() []Tool {
	out := make([]Tool, 0, len(c.tools))
	for _, name := range c.Names() {
		out = append(out, c.tools[name])
	}
	return out
}

// Register installs every tool into reg under RegistryType
func (c *Catalog) Register(reg *registry.Registry[operations.StepFunc]) {
	for _, t := range c.Tools() {
		reg.Register(RegistryType, t.Name, t.Func, map[string]string{
			"description": t.Description,
			"category":    t.Category,
			"run_mode":    string(t.RunMode),
			"input_key":   t.InputKey,
		})
	}
}

// RegistryLookup resolves step functions from a registry
type RegistryLookup struct {
	Registry *registry.Registry[operations.StepFunc]
}

// Lookup implements operations.StepLookup
func (l RegistryLookup) Lookup(name string) (operations.StepFunc, bool) {
	return l.Registry.Get(RegistryType, name)
}

type toolset struct {
	deps Deps
}

package dictionary

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"qcsuite/internal/dataset"
	"qcsuite/internal/exporter"
	"qcsuite/internal/files"
	"qcsuite/internal/validators"
)

// Canonical header names used when a dictionary is written
const (
	ColumnVariable    = "Main Variable"
	ColumnType        = "Type"
	ColumnValue       = "Value"
	ColumnDescription = "Description"
)

// Header aliases, in lookup order
var (
	VariableAliases    = []string{"Main Variable", "Variable", "Variable Name"}
	TypeAliases        = []string{"Type", "Value Type", "Data Type"}
	ValueAliases       = []string{"Value", "Expected Values", "Values"}
	DescriptionAliases = []string{"Description", "Label"}
)

// File name patterns tried when locating a domain dictionary
const (
	CleanedPattern = "*cleaned*"
	ReleasePattern = "*release*"
)

// ErrMissingColumn is returned when a required dictionary header is absent
var ErrMissingColumn = errors.New("dictionary column missing")

// Entry describes one variable
type Entry struct {
	Variable    string
	Type        string
	Value       string
	Description string
	// Extra holds the remaining columns keyed by header
	Extra map[string]string
}

// Kind resolves the declared type to a validator kind
func (e Entry) Kind() (validators.Kind, bool) {
	return validators.ParseKind(e.Type)
}

// Constraint parses the expected values for the entry's kind
func (e Entry) Constraint() validators.Constraint {
	kind, _ := e.Kind()
	return validators.ParseConstraint(kind, e.Value)
}

// Dictionary is an ordered list of entries
type Dictionary struct {
	Entries []Entry
	// ExtraColumns lists non-standard headers in file order
	ExtraColumns []string
	Source       string
}

// Load reads a dictionary from a CSV or Excel file
func Load(path string) (*Dictionary, error) {
	table, err := dataset.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	d, err := FromTable(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.Source = path
	return d, nil
}

// FromTable builds a dictionary from a loaded table. Rows with a blank
// variable name are dropped.
func FromTable(table *dataset.Table) (*Dictionary, error) {
	varCol := findColumn(table, VariableAliases)
	if varCol < 0 {
		return nil, fmt.Errorf("%w: one of %s", ErrMissingColumn, strings.Join(VariableAliases, ", "))
	}
	typeCol := findColumn(table, TypeAliases)
	if typeCol < 0 {
		return nil, fmt.Errorf("%w: one of %s", ErrMissingColumn, strings.Join(TypeAliases, ", "))
	}
	valueCol := findColumn(table, ValueAliases)
	descCol := findColumn(table, DescriptionAliases)

	known := map[int]bool{varCol: true, typeCol: true, valueCol: true, descCol: true}
	d := &Dictionary{}
	for i, c := range table.Columns {
		if !known[i] {
			d.ExtraColumns = append(d.ExtraColumns, c)
		}
	}

	for row := 0; row < table.Len(); row++ {
		variable := strings.TrimSpace(table.Value(row, varCol))
		if variable == "" {
			continue
		}
		e := Entry{
			Variable:    variable,
			Type:        strings.TrimSpace(table.Value(row, typeCol)),
			Value:       strings.TrimSpace(table.Value(row, valueCol)),
			Description: strings.TrimSpace(table.Value(row, descCol)),
		}
		if len(d.ExtraColumns) > 0 {
			e.Extra = make(map[string]string, len(d.ExtraColumns))
			for _, c := range d.ExtraColumns {
				e.Extra[c] = table.Value(row, table.Column(c))
			}
		}
		d.Entries = append(d.Entries, e)
	}
	return d, nil
}

func findColumn(table *dataset.Table, aliases []string) int {
	for _, a := range aliases {
		if i := table.Column(a); i >= 0 {
			return i
		}
	}
	return -1
}

// Len returns the number of entries
func (d *Dictionary) Len() int {
	return len(d.Entries)
}

// Variables returns variable names in dictionary order
func (d *Dictionary) Variables() []string {
	out := make([]string, len(d.Entries))
	for i, e := range d.Entries {
		out[i] = e.Variable
	}
	return out
}

// Lookup returns the first entry for variable, matched exactly and then by
// folded key.
func (d *Dictionary) Lookup(variable string) (Entry, bool) {
	for _, e := range d.Entries {
		if e.Variable == variable {
			return e, true
		}
	}
	key := dataset.FoldKey(variable)
	for _, e := range d.Entries {
		if dataset.FoldKey(e.Variable) == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Duplicates returns variables declared more than once, in first-seen order
func (d *Dictionary) Duplicates() []string {
	seen := make(map[string]int, len(d.Entries))
	var dups []string
	for _, e := range d.Entries {
		seen[e.Variable]++
		if seen[e.Variable] == 2 {
			dups = append(dups, e.Variable)
		}
	}
	return dups
}

// Append adds an entry. Extra columns new to the dictionary are added in
// sorted order.
func (d *Dictionary) Append(e Entry) {
	var added []string
	for c := range e.Extra {
		if !contains(d.ExtraColumns, c) {
			added = append(added, c)
		}
	}
	sort.Strings(added)
	d.ExtraColumns = append(d.ExtraColumns, added...)
	d.Entries = append(d.Entries, e)
}

// Headers returns the column headers used by Records
func (d *Dictionary) Headers() []string {
	headers := []string{ColumnVariable, ColumnType, ColumnValue, ColumnDescription}
	return append(headers, d.ExtraColumns...)
}

// Records renders the entries as rows matching Headers
func (d *Dictionary) Records() [][]string {
	records := make([][]string, len(d.Entries))
	for i, e := range d.Entries {
		row := []string{e.Variable, e.Type, e.Value, e.Description}
		for _, c := range d.ExtraColumns {
			row = append(row, e.Extra[c])
		}
		records[i] = row
	}
	return records
}

// Save writes the dictionary as CSV or Excel depending on the extension
func (d *Dictionary) Save(path string) error {
	if err := exporter.WriteReport(path, d.Headers(), d.Records()); err != nil {
		return fmt.Errorf("save dictionary: %w", err)
	}
	return nil
}

// Find locates the dictionary in dir: a cleaned dictionary first, then a
// release dictionary, then any data file.
func Find(discovery *files.Discovery, dir string) (path string, fallback bool, err error) {
	if p, err := discovery.FindMatchingFile(dir, CleanedPattern); err == nil {
		return p, false, nil
	}
	if p, err := discovery.FindMatchingFile(dir, ReleasePattern); err == nil {
		return p, true, nil
	}
	p, err := discovery.FindFirstDataFile(dir)
	if err != nil {
		return "", false, fmt.Errorf("no dictionary in %s: %w", dir, err)
	}
	return p, true, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

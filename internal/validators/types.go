package validators

import (
	"fmt"
	"strconv"
	"strings"

	"qcsuite/internal/dataset"
)

// FlaggedValue is a single reported validation failure: one cell, one reason
type FlaggedValue struct {
	SubjectID string
	VisitID   string
	Column    string
	Value     string
	Method    string
}

// Record renders the flag as a report row
func (f FlaggedValue) Record() []string {
	return []string{f.SubjectID, f.VisitID, f.Column, f.Value, f.Method}
}

// Validator checks one column of a table
type Validator interface {
	Validate(table *dataset.Table, column string, c Constraint) ([]FlaggedValue, error)
}

// Factory builds a configured validator
type Factory func(opts Options) (Validator, error)

// Options are keyword overrides passed to a Factory
type Options map[string]interface{}

// Merge returns a copy of o with overrides applied on top
func (o Options) Merge(overrides map[string]interface{}) Options {
	out := make(Options, len(o)+len(overrides))
	for k, v := range o {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Float reads a numeric option
func (o Options) Float(key string, def float64) (float64, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("option %s: %w", key, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("option %s: unsupported type %T", key, v)
}

// Int reads an integer option
func (o Options) Int(key string, def int) (int, error) {
	f, err := o.Float(key, float64(def))
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// String reads a string option
func (o Options) String(key, def string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Strings reads a string list option
func (o Options) Strings(key string, def []string) []string {
	v, ok := o[key]
	if !ok || v == nil {
		return def
	}
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return strings.Split(list, ",")
	}
	return def
}

// DefaultIDColumns identify the subject and visit of a row
var DefaultIDColumns = []string{"Med_ID", "Visit_ID"}

// idReader resolves identifier cells for flagged rows
type idReader struct {
	columns []string
}

func newIDReader(opts Options) idReader {
	return idReader{columns: opts.Strings("id_columns", DefaultIDColumns)}
}

func (r idReader) flag(table *dataset.Table, row int, column, value, method string) FlaggedValue {
	f := FlaggedValue{Column: column, Value: value, Method: method}
	if len(r.columns) > 0 {
		f.SubjectID = strings.TrimSpace(table.Get(row, r.columns[0]))
	}
	if len(r.columns) > 1 {
		f.VisitID = strings.TrimSpace(table.Get(row, r.columns[1]))
	}
	return f
}

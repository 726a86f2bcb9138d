package compare

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"qcsuite/internal/dataset"
)

// Options control how two tables are aligned
type Options struct {
	// Keys identify a row in both tables
	Keys []string
	// Columns restricts the comparison; empty means every shared column
	Columns []string
	// MissingCodes are treated as blank on both sides
	MissingCodes []string
	// OldOnly limits rows and columns to those present in the old table
	OldOnly bool
}

// Change is one differing cell
type Change struct {
	Key    []string
	Column string
	Old    string
	New    string
}

// TypeDrift records a column whose inferred type differs between tables
type TypeDrift struct {
	Column  string
	OldType string
	NewType string
}

// ColumnSummary counts changes in a single column
type ColumnSummary struct {
	Column  string
	Changed int
}

// Result is the outcome of comparing an old table with a new one
type Result struct {
	Keys           []string
	ColumnsAdded   []string
	ColumnsRemoved []string
	RowsAdded      [][]string
	RowsRemoved    [][]string
	Changes        []Change
	TypeDrift      []TypeDrift
	DuplicateKeys  map[string][]string
	ComparedRows   int
	ComparedCols   []string
}

// Identical reports whether the tables matched on every axis compared
func (r *Result) Identical() bool {
	return len(r.ColumnsAdded) == 0 && len(r.ColumnsRemoved) == 0 &&
		len(r.RowsAdded) == 0 && len(r.RowsRemoved) == 0 && len(r.Changes) == 0
}

// ColumnSummaries returns change counts per column, most changed first
func (r *Result) ColumnSummaries() []ColumnSummary {
	counts := make(map[string]int)
	for _, c := range r.Changes {
		counts[c.Column]++
	}
	out := make([]ColumnSummary, 0, len(counts))
	for col, n := range counts {
		out = append(out, ColumnSummary{Column: col, Changed: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Changed != out[j].Changed {
			return out[i].Changed > out[j].Changed
		}
		return out[i].Column < out[j].Column
	})
	return out
}

// ChangedRowKeys returns the distinct keys of rows with at least one change
func (r *Result) ChangedRowKeys() [][]string {
	seen := make(map[string]bool)
	var keys [][]string
	for _, c := range r.Changes {
		k := strings.Join(c.Key, "\x1f")
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, c.Key)
	}
	return keys
}

// Compare aligns the old (before) and new (after) tables by key columns and reports the differences
func Compare(before, after *dataset.Table, opts Options) (*Result, error) {
	if len(opts.Keys) == 0 {
		return nil, fmt.Errorf("no key columns given")
	}
	oldKeys, err := keyIndexes(before, opts.Keys, "old")
	if err != nil {
		return nil, err
	}
	newKeys, err := keyIndexes(after, opts.Keys, "new")
	if err != nil {
		return nil, err
	}

	res := &Result{Keys: opts.Keys, DuplicateKeys: make(map[string][]string)}
	res.ColumnsAdded, res.ColumnsRemoved = diffColumns(before, after, opts.Keys)
	if opts.OldOnly {
		res.ColumnsAdded = nil
	}
	res.ComparedCols = comparedColumns(before, after, opts)

	missing := make(map[string]bool, len(opts.MissingCodes))
	for _, code := range opts.MissingCodes {
		missing[dataset.CanonicalValue(code)] = true
	}

	oldRows := indexRows(before, oldKeys, "old", res)
	newRows := indexRows(after, newKeys, "new", res)

	for _, k := range oldRows.order {
		oi := oldRows.rows[k]
		ni, ok := newRows.rows[k]
		if !ok {
			res.RowsRemoved = append(res.RowsRemoved, keyValues(before, oi, oldKeys))
			continue
		}
		res.ComparedRows++
		key := keyValues(before, oi, oldKeys)
		for _, col := range res.ComparedCols {
			ov := normalize(before.Get(oi, col), missing)
			nv := normalize(after.Get(ni, col), missing)
			if ov != nv {
				res.Changes = append(res.Changes, Change{
					Key:    key,
					Column: col,
					Old:    strings.TrimSpace(before.Get(oi, col)),
					New:    strings.TrimSpace(after.Get(ni, col)),
				})
			}
		}
	}
	if !opts.OldOnly {
		for _, k := range newRows.order {
			if _, ok := oldRows.rows[k]; !ok {
				res.RowsAdded = append(res.RowsAdded, keyValues(after, newRows.rows[k], newKeys))
			}
		}
	}

	for _, col := range res.ComparedCols {
		ot := InferType(before.ColumnValues(col), opts.MissingCodes)
		nt := InferType(after.ColumnValues(col), opts.MissingCodes)
		if ot != nt && ot != TypeEmpty && nt != TypeEmpty {
			res.TypeDrift = append(res.TypeDrift, TypeDrift{Column: col, OldType: ot, NewType: nt})
		}
	}
	return res, nil
}

func keyIndexes(t *dataset.Table, keys []string, side string) ([]int, error) {
	idx := make([]int, len(keys))
	for i, k := range keys {
		c := t.Column(k)
		if c < 0 {
			return nil, fmt.Errorf("key column %q missing from %s dataset", k, side)
		}
		idx[i] = c
	}
	return idx, nil
}

type rowIndex struct {
	rows  map[string]int
	order []string
}

// indexRows maps composite keys to row numbers; later duplicates are recorded and ignored
func indexRows(t *dataset.Table, keys []int, side string, res *Result) rowIndex {
	idx := rowIndex{rows: make(map[string]int, t.Len())}
	for row := 0; row < t.Len(); row++ {
		k := t.Key(row, keys)
		if _, dup := idx.rows[k]; dup {
			res.DuplicateKeys[side] = append(res.DuplicateKeys[side], strings.ReplaceAll(k, "\x1f", "|"))
			continue
		}
		idx.rows[k] = row
		idx.order = append(idx.order, k)
	}
	return idx
}

func keyValues(t *dataset.Table, row int, keys []int) []string {
	out := make([]string, len(keys))
	for i, c := range keys {
		out[i] = dataset.NormalizeID(t.Value(row, c))
	}
	return out
}

func diffColumns(before, after *dataset.Table, keys []string) (added, removed []string) {
	for _, c := range after.Columns {
		if !before.HasColumn(c) && !isKey(c, keys) {
			added = append(added, c)
		}
	}
	for _, c := range before.Columns {
		if !after.HasColumn(c) && !isKey(c, keys) {
			removed = append(removed, c)
		}
	}
	return added, removed
}

func comparedColumns(before, after *dataset.Table, opts Options) []string {
	candidates := opts.Columns
	if len(candidates) == 0 {
		candidates = before.Columns
	}
	var cols []string
	for _, c := range candidates {
		if isKey(c, opts.Keys) {
			continue
		}
		if before.HasColumn(c) && after.HasColumn(c) {
			cols = append(cols, before.ColumnName(c))
		}
	}
	return cols
}

func isKey(column string, keys []string) bool {
	fk := dataset.FoldKey(column)
	for _, k := range keys {
		if dataset.FoldKey(k) == fk {
			return true
		}
	}
	return false
}

// normalize maps a cell to the form used for equality
func normalize(s string, missing map[string]bool) string {
	v := dataset.CanonicalValue(s)
	if missing[v] {
		return ""
	}
	return v
}

// Inferred column types
const (
	TypeEmpty   = "empty"
	TypeInteger = "integer"
	TypeFloat   = "float"
	TypeText    = "text"
)

// InferType classifies a column by its non-blank values
func InferType(values []string, missingCodes []string) string {
	missing := make(map[string]bool, len(missingCodes))
	for _, code := range missingCodes {
		missing[dataset.CanonicalValue(code)] = true
	}
	typ := TypeEmpty
	for _, v := range values {
		v = dataset.CanonicalValue(v)
		if v == "" || missing[v] {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		switch {
		case err != nil:
			return TypeText
		case f == float64(int64(f)):
			if typ == TypeEmpty {
				typ = TypeInteger
			}
		default:
			typ = TypeFloat
		}
	}
	return typ
}

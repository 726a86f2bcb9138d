package dataset

import (
	"fmt"
)

// Table is a header row plus data rows of string cells
type Table struct {
	Columns []string
	Rows    [][]string

	exact  map[string]int
	folded map[string]int
}

// New builds a table, padding short rows to the header width
func New(columns []string, rows [][]string) *Table {
	t := &Table{Columns: columns, Rows: rows}
	for i, row := range t.Rows {
		if len(row) < len(columns) {
			padded := make([]string, len(columns))
			copy(padded, row)
			t.Rows[i] = padded
		}
	}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.exact = make(map[string]int, len(t.Columns))
	t.folded = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, ok := t.exact[c]; !ok {
			t.exact[c] = i
		}
		key := FoldKey(c)
		if _, ok := t.folded[key]; !ok {
			t.folded[key] = i
		}
	}
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the index of the named column, or -1. An exact header match
// wins; otherwise names are compared by FoldKey.
func (t *Table) Column(name string) int {
	if t.exact == nil {
		t.reindex()
	}
	if i, ok := t.exact[name]; ok {
		return i
	}
	if i, ok := t.exact[NormalizeHeader(name)]; ok {
		return i
	}
	if i, ok := t.folded[FoldKey(name)]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether the named column exists
func (t *Table) HasColumn(name string) bool {
	return t.Column(name) >= 0
}

// ColumnName returns the header actually used for name, or "" if absent
func (t *Table) ColumnName(name string) string {
	if i := t.Column(name); i >= 0 {
		return t.Columns[i]
	}
	return ""
}

// Value returns the cell at row and column index, "" when out of range
func (t *Table) Value(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// Get returns the cell at row in the named column, "" when absent
func (t *Table) Get(row int, name string) string {
	return t.Value(row, t.Column(name))
}

// ColumnValues returns a copy of the named column, or nil if it does not exist
func (t *Table) ColumnValues(name string) []string {
	col := t.Column(name)
	if col < 0 {
		return nil
	}
	values := make([]string, len(t.Rows))
	for i := range t.Rows {
		values[i] = t.Value(i, col)
	}
	return values
}

// Set replaces a single cell
func (t *Table) Set(row, col int, value string) error {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Columns) {
		return fmt.Errorf("cell (%d, %d) out of range", row, col)
	}
	for len(t.Rows[row]) <= col {
		t.Rows[row] = append(t.Rows[row], "")
	}
	t.Rows[row][col] = value
	return nil
}

// AppendRow adds a row, padded or truncated to the header width
func (t *Table) AppendRow(values ...string) {
	row := make([]string, len(t.Columns))
	copy(row, values)
	t.Rows = append(t.Rows, row)
}

// AddColumn appends a column; values shorter than the table are padded with ""
func (t *Table) AddColumn(name string, values []string) {
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		t.Rows[i] = append(t.Rows[i], v)
	}
	t.reindex()
}

// Records returns the data rows, the shape writers expect
func (t *Table) Records() [][]string {
	return t.Rows
}

// Key joins the values of the given columns for row, used for composite IDs
func (t *Table) Key(row int, columns []int) string {
	key := ""
	for i, c := range columns {
		if i > 0 {
			key += "\x1f"
		}
		key += NormalizeID(t.Value(row, c))
	}
	return key
}

package validators

import (
	"fmt"
	"strings"

	"qcsuite/internal/dataset"
)

// Text defaults
const (
	DefaultRareThreshold = 2
	ReasonRareValue      = "Rare Value"
)

// TextValidator flags categorical values that occur fewer than
// RareThreshold times in a column.
type TextValidator struct {
	RareThreshold int

	ids idReader
}

// NewTextValidator builds a validator from options: rare_threshold and id_columns
func NewTextValidator(opts Options) (*TextValidator, error) {
	n, err := opts.Int("rare_threshold", DefaultRareThreshold)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("rare_threshold must be at least 1, got %d", n)
	}
	return &TextValidator{RareThreshold: n, ids: newIDReader(opts)}, nil
}

// Validate implements Validator. Values are compared after trimming
// surrounding whitespace; columns with a single distinct value are skipped.
func (v *TextValidator) Validate(table *dataset.Table, column string, _ Constraint) ([]FlaggedValue, error) {
	col := table.Column(column)
	if col < 0 {
		return nil, nil
	}

	counts := make(map[string]int)
	for row := 0; row < table.Len(); row++ {
		s := strings.TrimSpace(table.Value(row, col))
		if IsMissingLike(s) {
			continue
		}
		counts[s]++
	}
	if len(counts) <= 1 {
		return nil, nil
	}

	name := table.Columns[col]
	var flags []FlaggedValue
	for row := 0; row < table.Len(); row++ {
		s := strings.TrimSpace(table.Value(row, col))
		n, ok := counts[s]
		if !ok || n >= v.RareThreshold {
			continue
		}
		method := fmt.Sprintf("%s (count: %d)", ReasonRareValue, n)
		flags = append(flags, v.ids.flag(table, row, name, s, method))
	}
	return flags, nil
}

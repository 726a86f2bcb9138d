package validators

import (
	"strings"
	"time"

	"qcsuite/internal/dataset"
)

// Date defaults
const (
	DefaultDateFormat        = "%m/%Y"
	ReasonDateFormatMismatch = "Date Format Mismatch"
)

// DateValidator flags values that do not parse under one format. Numeric
// fields may omit their leading zero. A value that is a valid date in some
// other format is still flagged.
type DateValidator struct {
	Format string

	layout string
	ids    idReader
}

// NewDateValidator builds a validator from options: date_format and id_columns
func NewDateValidator(opts Options) (*DateValidator, error) {
	format := opts.String("date_format", DefaultDateFormat)
	layout, err := StrftimeToParseLayout(format)
	if err != nil {
		return nil, err
	}
	return &DateValidator{Format: format, layout: layout, ids: newIDReader(opts)}, nil
}

// Validate implements Validator. A DateFormat on the constraint overrides
// the configured format for this column.
func (v *DateValidator) Validate(table *dataset.Table, column string, c Constraint) ([]FlaggedValue, error) {
	col := table.Column(column)
	if col < 0 {
		return nil, nil
	}

	layout := v.layout
	if c.DateFormat != "" && c.DateFormat != v.Format {
		l, err := StrftimeToParseLayout(c.DateFormat)
		if err != nil {
			return nil, err
		}
		layout = l
	}

	name := table.Columns[col]
	var flags []FlaggedValue
	for row := 0; row < table.Len(); row++ {
		s := strings.TrimSpace(table.Value(row, col))
		if IsMissingLike(s) {
			continue
		}
		if _, err := time.Parse(layout, s); err != nil {
			flags = append(flags, v.ids.flag(table, row, name, s, ReasonDateFormatMismatch))
		}
	}
	return flags, nil
}

// ParseDate parses s under a strftime format
func ParseDate(format, s string) (time.Time, error) {
	layout, err := StrftimeToParseLayout(format)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(layout, strings.TrimSpace(s))
}

// FormatDate renders t under a strftime format
func FormatDate(format string, t time.Time) (string, error) {
	layout, err := StrftimeToLayout(format)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}

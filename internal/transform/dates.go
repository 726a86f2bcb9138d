package transform

import (
	"fmt"
	"strings"
	"time"

	"qcsuite/internal/dataset"
	"qcsuite/internal/validators"
)

// KnownDateLayouts are tried in order when reading a date cell
var KnownDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006/1/2",
	"1-2-2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"1/2/06",
	"20060102",
	"1/2006",
	"2006-01",
}

// ParseKnownDate parses s against KnownDateLayouts
func ParseKnownDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range KnownDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateColumns returns the headers containing "date", case-insensitively
func DateColumns(t *dataset.Table) []string {
	var cols []string
	for _, c := range t.Columns {
		if strings.Contains(strings.ToLower(c), "date") {
			cols = append(cols, c)
		}
	}
	return cols
}

// DateStats reports per-run counts of the standardizer
type DateStats struct {
	Columns     []string
	Converted   int
	Unparseable int
}

// StandardizeDates rewrites every parseable cell of the date columns in
// place using the strftime target format. Missing-like and unparseable
// cells are left unchanged.
func StandardizeDates(t *dataset.Table, targetFormat string) (DateStats, error) {
	layout, err := validators.StrftimeToLayout(targetFormat)
	if err != nil {
		return DateStats{}, fmt.Errorf("target format: %w", err)
	}

	stats := DateStats{Columns: DateColumns(t)}
	for _, name := range stats.Columns {
		col := t.Column(name)
		for row := 0; row < t.Len(); row++ {
			raw := t.Value(row, col)
			if validators.IsMissingLike(raw) {
				continue
			}
			parsed, ok := ParseKnownDate(raw)
			if !ok {
				stats.Unparseable++
				continue
			}
			formatted := parsed.Format(layout)
			if formatted != raw {
				if err := t.Set(row, col, formatted); err != nil {
					return stats, err
				}
				stats.Converted++
			}
		}
	}
	return stats, nil
}

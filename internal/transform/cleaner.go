package transform

import (
	"regexp"
	"sort"
	"strings"

	"qcsuite/internal/dictionary"
	"qcsuite/internal/exporter"
	"qcsuite/internal/validators"
)

// CleanStats counts the edits made by CleanDictionary
type CleanStats struct {
	TypesChanged  int
	ValuesChanged int
	RowsDropped   int
}

// CleanDictionary returns a cleaned copy of d. Types are mapped to their
// canonical names, unknown types become text, expected values are
// normalized per type and rows without a variable name are dropped.
func CleanDictionary(d *dictionary.Dictionary) (*dictionary.Dictionary, CleanStats) {
	var stats CleanStats
	out := &dictionary.Dictionary{
		ExtraColumns: append([]string{}, d.ExtraColumns...),
		Source:       d.Source,
	}
	for _, e := range d.Entries {
		e.Variable = strings.TrimSpace(e.Variable)
		if e.Variable == "" {
			stats.RowsDropped++
			continue
		}

		typ := NormalizeType(e.Type)
		if typ != e.Type {
			stats.TypesChanged++
		}
		e.Type = typ

		value := NormalizeValue(typ, e.Value)
		if value != e.Value {
			stats.ValuesChanged++
		}
		e.Value = value
		e.Description = strings.TrimSpace(e.Description)
		out.Entries = append(out.Entries, e)
	}
	return out, stats
}

// NormalizeType maps a declared type to its canonical name, text when unknown
func NormalizeType(declared string) string {
	if t, ok := validators.CanonicalType(declared); ok {
		return t
	}
	return validators.TypeText
}

var categorySeparators = regexp.MustCompile(`[,|;]`)

// NormalizeValue cleans an expected-values cell for a canonical type
func NormalizeValue(typ, raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return value
	}
	switch typ {
	case validators.TypeNumeric:
		return normalizeNumeric(value)
	case validators.TypeCategorical:
		return normalizeCategories(value)
	case validators.TypeDate:
		return normalizeDateRange(value)
	}
	return value
}

// normalizeNumeric rewrites a single range such as {0-100} as 0-100
func normalizeNumeric(value string) string {
	ranges := validators.ParseRanges(value)
	if len(ranges) != 1 {
		return value
	}
	r := ranges[0]
	return exporter.FormatFloat(r.Min) + "-" + exporter.FormatFloat(r.Max)
}

func normalizeCategories(value string) string {
	seen := make(map[string]bool)
	var items []string
	for _, item := range categorySeparators.Split(value, -1) {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		items = append(items, item)
	}
	sort.Strings(items)
	return strings.Join(items, ", ")
}

// normalizeDateRange spaces a start-end pair as "start - end". Values with
// more than one hyphen are ambiguous and kept as-is.
func normalizeDateRange(value string) string {
	if strings.Count(value, "-") != 1 {
		return value
	}
	parts := strings.SplitN(value, "-", 2)
	start, end := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if start == "" || end == "" {
		return value
	}
	return start + " - " + end
}

package supplements

import (
	"math"
	"strconv"
	"strings"

	"qcsuite/internal/dataset"
	"qcsuite/internal/dictionary"
	"qcsuite/internal/validators"
)

// Source columns of a raw supplement sheet
const (
	SourceVariable = "variable"
	SourceNotes    = "notes"
	SourceMin      = "min"
	SourceMax      = "max"
)

// Extra columns written for prepped entries
const (
	ColumnMissing = "Missing/Unit of Measure"
	ColumnLevel   = "Level of quality check"
	ColumnVisits  = "Visits"
	ColumnNotes   = "Notes"

	LevelSupplement = "Supplement"
	ValueNumeric    = "Numeric"
)

// PrepFilePattern matches the raw supplement sheets in an input directory
const PrepFilePattern = "*supplement*"

// Prep merges raw supplement tables into one dictionary of numeric
// variables. Each row's min and max become a {min-max} range when both are
// present, otherwise the value is "Numeric". Rows without a variable and
// repeats of a variable already seen are skipped.
func Prep(tables []*dataset.Table, missingCode string) *dictionary.Dictionary {
	d := &dictionary.Dictionary{
		ExtraColumns: []string{ColumnMissing, ColumnLevel, ColumnVisits, ColumnNotes},
	}
	seen := make(map[string]bool)
	for _, t := range tables {
		for row := 0; row < t.Len(); row++ {
			variable := strings.TrimSpace(t.Get(row, SourceVariable))
			if variable == "" || strings.EqualFold(variable, "nan") || seen[variable] {
				continue
			}
			seen[variable] = true
			d.Entries = append(d.Entries, dictionary.Entry{
				Variable:    variable,
				Type:        validators.TypeNumeric,
				Value:       rangeValue(t.Get(row, SourceMin), t.Get(row, SourceMax)),
				Description: strings.TrimSpace(t.Get(row, SourceNotes)),
				Extra: map[string]string{
					ColumnMissing: missingCode,
					ColumnLevel:   LevelSupplement,
					ColumnVisits:  "",
					ColumnNotes:   "",
				},
			})
		}
	}
	return d
}

// rangeValue truncates both bounds to integers
func rangeValue(minRaw, maxRaw string) string {
	lo, okLo := truncated(minRaw)
	hi, okHi := truncated(maxRaw)
	if !okLo || !okHi {
		return ValueNumeric
	}
	return "{" + strconv.FormatInt(lo, 10) + "-" + strconv.FormatInt(hi, 10) + "}"
}

func truncated(s string) (int64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

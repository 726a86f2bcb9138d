package checkers

import (
	"fmt"

	"qcsuite/internal/compare"
	"qcsuite/internal/dataset"
	"qcsuite/internal/exporter"
)

// Release comparison modes
const (
	ReleaseModeStandard = "standard"
	ReleaseModeOldOnly  = "old_only"
)

// Column change kinds in the release summary
const (
	ColumnAdded       = "Added"
	ColumnRemoved     = "Removed"
	ColumnValueChange = "Values Changed"
	ColumnTypeChange  = "Type Changed"
)

// CheckRelease compares the previous release with the current one by id
// columns. In old_only mode rows and columns introduced by the new release
// are ignored.
func CheckRelease(previous, current *dataset.Table, mode string, idColumns, missingCodes []string) (*compare.Result, error) {
	switch mode {
	case "", ReleaseModeStandard, ReleaseModeOldOnly:
	default:
		return nil, fmt.Errorf("unknown release comparison mode %q", mode)
	}
	return compare.Compare(previous, current, compare.Options{
		Keys:         idColumns,
		MissingCodes: missingCodes,
		OldOnly:      mode == ReleaseModeOldOnly,
	})
}

// ChangedRowsReport lists every differing cell, one row per cell
func ChangedRowsReport(res *compare.Result) ([]string, [][]string) {
	headers := append(append([]string{}, res.Keys...), "Column", "Old Value", "New Value")
	records := make([][]string, 0, len(res.Changes))
	for _, c := range res.Changes {
		row := append(append([]string{}, c.Key...), c.Column, c.Old, c.New)
		records = append(records, row)
	}
	return headers, records
}

// ColumnChangesReport summarizes structural and value changes per column
func ColumnChangesReport(res *compare.Result) ([]string, [][]string) {
	headers := []string{"Column", "Change", "Detail"}
	var records [][]string
	for _, c := range res.ColumnsAdded {
		records = append(records, []string{c, ColumnAdded, ""})
	}
	for _, c := range res.ColumnsRemoved {
		records = append(records, []string{c, ColumnRemoved, ""})
	}
	for _, s := range res.ColumnSummaries() {
		records = append(records, []string{s.Column, ColumnValueChange, exporter.FormatInt(s.Changed) + " rows"})
	}
	for _, d := range res.TypeDrift {
		records = append(records, []string{d.Column, ColumnTypeChange, d.OldType + " -> " + d.NewType})
	}
	return headers, records
}

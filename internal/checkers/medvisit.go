package checkers

import (
	"qcsuite/internal/compare"
	"qcsuite/internal/dataset"
	"qcsuite/internal/exporter"
)

// Sheet names of the integrity workbook
const (
	SheetMissingInNew = "Missing in New"
	SheetMissingInOld = "Missing in Old"
)

// IDAliases maps alternate identifier headers to their standard names
var IDAliases = map[string]string{
	"Med ID":   "Med_ID",
	"MedID":    "Med_ID",
	"Visit":    "Visit_ID",
	"Visit ID": "Visit_ID",
}

// StandardizeIDColumns renames alias headers in place unless the standard
// name is already present.
func StandardizeIDColumns(t *dataset.Table, aliases map[string]string) {
	columns := append([]string{}, t.Columns...)
	renamed := false
	for i, c := range columns {
		std, ok := aliases[dataset.NormalizeHeader(c)]
		if !ok || (t.Column(std) >= 0 && t.Column(std) != i) {
			continue
		}
		if c != std {
			columns[i] = std
			renamed = true
		}
	}
	if renamed {
		*t = *dataset.New(columns, t.Rows)
	}
}

// IDIntegrity lists the id combinations present in only one release
type IDIntegrity struct {
	Columns      []string
	MissingInNew [][]string
	MissingInOld [][]string
}

// MissingIDCombos compares the id combinations of two releases
func MissingIDCombos(previous, current *dataset.Table, idColumns []string) (*IDIntegrity, error) {
	res, err := compare.Compare(previous, current, compare.Options{Keys: idColumns, Columns: idColumns})
	if err != nil {
		return nil, err
	}
	return &IDIntegrity{
		Columns:      idColumns,
		MissingInNew: res.RowsRemoved,
		MissingInOld: res.RowsAdded,
	}, nil
}

// Sheets returns the workbook layout of the integrity report
func (r *IDIntegrity) Sheets() []exporter.Sheet {
	return []exporter.Sheet{
		{Name: SheetMissingInNew, Headers: r.Columns, Records: r.MissingInNew},
		{Name: SheetMissingInOld, Headers: r.Columns, Records: r.MissingInOld},
	}
}

package autofill

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"qcsuite/internal/dataset"
)

// Input columns
const (
	ColumnMedID = "Med_ID"
	ColumnPanel = "Panel"
)

// AddressFields lists the input columns entered for each address block and
// the form control each one fills
var AddressFields = []Field{
	{Column: "Street", Control: "street"},
	{Column: "City", Control: "city"},
	{Column: "State", Control: "state"},
	{Column: "Zip", Control: "zip"},
	{Column: "Country", Control: "country"},
	{Column: "From Year", Control: "fromYear"},
	{Column: "To Year", Control: "toYear"},
}

// Field maps an input column onto a form control
type Field struct {
	Column  string
	Control string
}

// Block is one address entered into a panel, control name → value
type Block map[string]string

// Subject is everything entered into one Med_ID's form
type Subject struct {
	MedID string
	// Panels holds the blocks of each expansion panel by panel index
	Panels [][]Block
}

// Blocks returns the number of address blocks across all panels
func (s Subject) Blocks() int {
	n := 0
	for _, p := range s.Panels {
		n += len(p)
	}
	return n
}

// GroupByMedID groups address rows by subject, in first-seen order. A
// missing Panel column puts every block on panel 0. When only is set, other
// subjects are left out.
func GroupByMedID(t *dataset.Table, only string) ([]Subject, error) {
	medCol := t.Column(ColumnMedID)
	if medCol < 0 {
		return nil, fmt.Errorf("address data has no %s column", ColumnMedID)
	}
	panelCol := t.Column(ColumnPanel)
	only = dataset.NormalizeID(only)

	index := make(map[string]int)
	var subjects []Subject
	for row := 0; row < t.Len(); row++ {
		id := dataset.NormalizeID(t.Value(row, medCol))
		if id == "" || (only != "" && id != only) {
			continue
		}

		panel := 0
		if panelCol >= 0 {
			if raw := strings.TrimSpace(t.Value(row, panelCol)); raw != "" {
				p, err := strconv.Atoi(dataset.NormalizeID(raw))
				if err != nil || p < 0 {
					return nil, fmt.Errorf("row %d: invalid panel %q", row+2, raw)
				}
				panel = p
			}
		}

		block := Block{}
		for _, f := range AddressFields {
			if v := strings.TrimSpace(t.Get(row, f.Column)); v != "" {
				block[f.Control] = v
			}
		}
		if len(block) == 0 {
			continue
		}

		i, ok := index[id]
		if !ok {
			i = len(subjects)
			index[id] = i
			subjects = append(subjects, Subject{MedID: id})
		}
		for len(subjects[i].Panels) <= panel {
			subjects[i].Panels = append(subjects[i].Panels, nil)
		}
		subjects[i].Panels[panel] = append(subjects[i].Panels[panel], block)
	}
	return subjects, nil
}

// sortedControls returns a block's control names in a stable order
func sortedControls(b Block) []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

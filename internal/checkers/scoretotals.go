package checkers

import (
	"math"
	"sort"
	"strings"

	"qcsuite/internal/dataset"
	"qcsuite/internal/exporter"
	"qcsuite/internal/validators"
)

// Score total statuses
const (
	StatusMatch      = "Match"
	StatusMismatch   = "Mismatch"
	StatusIncomplete = "Incomplete"
)

// TotalSuffix marks a column holding the sum of its prefix's components
const TotalSuffix = "_Total"

// TotalSpec names a total column and the components that should add up to it
type TotalSpec struct {
	Total      string
	Components []string
}

// DetectTotals finds every <prefix>_Total column and pairs it with the other
// <prefix>_* columns.
func DetectTotals(t *dataset.Table) []TotalSpec {
	var specs []TotalSpec
	for _, col := range t.Columns {
		if !strings.HasSuffix(strings.ToLower(col), strings.ToLower(TotalSuffix)) {
			continue
		}
		prefix := col[:len(col)-len(TotalSuffix)] + "_"
		spec := TotalSpec{Total: col}
		for _, other := range t.Columns {
			if other != col && strings.HasPrefix(strings.ToLower(other), strings.ToLower(prefix)) {
				spec.Components = append(spec.Components, other)
			}
		}
		if len(spec.Components) > 0 {
			specs = append(specs, spec)
		}
	}
	return specs
}

// TotalsFromConfig builds specs from a total → components mapping, sorted by total
func TotalsFromConfig(mapping map[string][]string) []TotalSpec {
	specs := make([]TotalSpec, 0, len(mapping))
	for total, components := range mapping {
		specs = append(specs, TotalSpec{Total: total, Components: components})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Total < specs[j].Total })
	return specs
}

// TotalResult is the outcome for one row and one total column
type TotalResult struct {
	SubjectID  string
	VisitID    string
	Total      string
	Expected   string
	Calculated string
	Difference string
	Status     string
}

// Record renders the result as a report row
func (r TotalResult) Record() []string {
	return []string{r.SubjectID, r.VisitID, r.Total, r.Expected, r.Calculated, r.Difference, r.Status}
}

// TotalsHeaders returns the score totals report header
func TotalsHeaders(idColumns []string) []string {
	ids := ReportHeaders(idColumns)[:2]
	return append(ids, "Total Column", "Expected Total", "Calculated Total", "Difference", "Status")
}

// CheckScoreTotals sums the components of each spec per row and compares
// the result with the recorded total. A row whose total or any component
// is missing or non-numeric is Incomplete. Specs naming columns absent from
// the table are ignored.
func CheckScoreTotals(t *dataset.Table, specs []TotalSpec, tolerance float64, idColumns []string) []TotalResult {
	ids := ReportHeaders(idColumns)[:2]
	var results []TotalResult
	for _, spec := range specs {
		totalCol := t.Column(spec.Total)
		if totalCol < 0 {
			continue
		}
		components := make([]int, 0, len(spec.Components))
		for _, c := range spec.Components {
			if i := t.Column(c); i >= 0 {
				components = append(components, i)
			}
		}
		if len(components) == 0 {
			continue
		}

		for row := 0; row < t.Len(); row++ {
			res := TotalResult{
				SubjectID: strings.TrimSpace(t.Get(row, ids[0])),
				VisitID:   strings.TrimSpace(t.Get(row, ids[1])),
				Total:     t.Columns[totalCol],
				Expected:  strings.TrimSpace(t.Value(row, totalCol)),
			}
			expected, okTotal := numericCell(res.Expected)
			sum, okParts := 0.0, true
			for _, c := range components {
				v, ok := numericCell(t.Value(row, c))
				if !ok {
					okParts = false
					continue
				}
				sum += v
			}

			switch {
			case !okTotal || !okParts:
				res.Status = StatusIncomplete
				if okParts {
					res.Calculated = exporter.FormatFloat(sum)
				}
			default:
				diff := sum - expected
				res.Calculated = exporter.FormatFloat(sum)
				res.Difference = exporter.FormatFloat(diff)
				res.Status = StatusMatch
				if math.Abs(diff) > tolerance {
					res.Status = StatusMismatch
				}
			}
			results = append(results, res)
		}
	}
	return results
}

// CountStatus tallies results by status
func CountStatus(results []TotalResult) map[string]int {
	counts := make(map[string]int, 3)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

func numericCell(s string) (float64, bool) {
	if validators.IsMissingLike(s) {
		return 0, false
	}
	v, err := parseFloat(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

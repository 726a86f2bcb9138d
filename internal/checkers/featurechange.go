package checkers

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"qcsuite/internal/dataset"
	"qcsuite/internal/exporter"
	"qcsuite/internal/validators"
)

// Change categories
const (
	ChangeIncrease = "Increase"
	ChangeDecrease = "Decrease"
	ChangeNone     = "No Change"
	ChangeMissing  = "Missing"
	ChangeChanged  = "Changed"
)

// ErrFeatureNotFound is returned when the tracked feature is not a dataset column
var ErrFeatureNotFound = errors.New("feature not found in dataset")

// FeatureChange is the transition of a feature between two consecutive visits
type FeatureChange struct {
	SubjectID string
	FromVisit string
	ToVisit   string
	Before    string
	After     string
	Change    string
}

// Record renders the change as a report row
func (c FeatureChange) Record() []string {
	return []string{c.SubjectID, c.FromVisit, c.ToVisit, c.Before, c.After, c.Change}
}

// FeatureChangeHeaders returns the feature change report header
func FeatureChangeHeaders(feature string, idColumns []string) []string {
	ids := ReportHeaders(idColumns)
	return []string{ids[0], "From " + ids[1], "To " + ids[1], feature + " (before)", feature + " (after)", "Change"}
}

// CheckFeatureChanges groups rows by subject, orders each subject's visits
// numerically and compares the feature between consecutive visits. With
// categorize the change is a category, otherwise the numeric difference.
func CheckFeatureChanges(t *dataset.Table, feature string, categorize bool, idColumns []string) ([]FeatureChange, error) {
	featureCol := t.Column(feature)
	if featureCol < 0 {
		return nil, fmt.Errorf("%w: %s", ErrFeatureNotFound, feature)
	}
	ids := ReportHeaders(idColumns)[:2]
	subjectCol, visitCol := t.Column(ids[0]), t.Column(ids[1])
	if subjectCol < 0 || visitCol < 0 {
		return nil, fmt.Errorf("id columns %s and %s are required", ids[0], ids[1])
	}

	bySubject := make(map[string][]int)
	var subjects []string
	for row := 0; row < t.Len(); row++ {
		id := dataset.NormalizeID(t.Value(row, subjectCol))
		if id == "" {
			continue
		}
		if _, ok := bySubject[id]; !ok {
			subjects = append(subjects, id)
		}
		bySubject[id] = append(bySubject[id], row)
	}
	sort.SliceStable(subjects, func(i, j int) bool { return lessNumeric(subjects[i], subjects[j]) })

	var changes []FeatureChange
	for _, id := range subjects {
		rows := bySubject[id]
		sort.SliceStable(rows, func(i, j int) bool {
			return lessNumeric(t.Value(rows[i], visitCol), t.Value(rows[j], visitCol))
		})
		for i := 1; i < len(rows); i++ {
			prev, cur := rows[i-1], rows[i]
			c := FeatureChange{
				SubjectID: id,
				FromVisit: dataset.NormalizeID(t.Value(prev, visitCol)),
				ToVisit:   dataset.NormalizeID(t.Value(cur, visitCol)),
				Before:    strings.TrimSpace(t.Value(prev, featureCol)),
				After:     strings.TrimSpace(t.Value(cur, featureCol)),
			}
			c.Change = describeChange(c.Before, c.After, categorize)
			changes = append(changes, c)
		}
	}
	return changes, nil
}

func describeChange(before, after string, categorize bool) string {
	if validators.IsMissingLike(before) || validators.IsMissingLike(after) {
		if categorize {
			return ChangeMissing
		}
		return ""
	}
	b, errB := parseFloat(before)
	a, errA := parseFloat(after)
	if errA != nil || errB != nil {
		if !categorize {
			return ""
		}
		if before == after {
			return ChangeNone
		}
		return ChangeChanged
	}
	diff := a - b
	if !categorize {
		return exporter.FormatFloat(diff)
	}
	switch {
	case diff > 0:
		return ChangeIncrease
	case diff < 0:
		return ChangeDecrease
	default:
		return ChangeNone
	}
}

// lessNumeric orders numeric strings by value and everything else lexically after them
func lessNumeric(a, b string) bool {
	fa, errA := parseFloat(a)
	fb, errB := parseFloat(b)
	switch {
	case errA == nil && errB == nil:
		return fa < fb
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

package supplements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcsuite/internal/dataset"
	"qcsuite/internal/dictionary"
)

func dict(vars ...string) *dictionary.Dictionary {
	d := &dictionary.Dictionary{}
	for _, v := range vars {
		d.Entries = append(d.Entries, dictionary.Entry{Variable: v, Type: "numeric"})
	}
	return d
}

func TestPrep(t *testing.T) {
	first := dataset.New(
		[]string{"Variable", "Notes", "Min", "Max"},
		[][]string{
			{"HbA1c", "Glycated hemoglobin", "4.2", "14.9"},
			{"LDL", "", "", "300"},
			{"", "orphan", "1", "2"},
		})
	second := dataset.New(
		[]string{"variable", "notes", "min", "max"},
		[][]string{
			{"HbA1c", "duplicate", "0", "1"},
			{"Glucose", "fasting", "-10", "500"},
		})

	d := Prep([]*dataset.Table{first, second}, "-9999")
	require.Len(t, d.Entries, 3)

	assert.Equal(t, "HbA1c", d.Entries[0].Variable)
	assert.Equal(t, "{4-14}", d.Entries[0].Value)
	assert.Equal(t, "Glycated hemoglobin", d.Entries[0].Description)
	assert.Equal(t, "numeric", d.Entries[0].Type)
	assert.Equal(t, ValueNumeric, d.Entries[1].Value)
	assert.Equal(t, "{-10-500}", d.Entries[2].Value)
	assert.Equal(t, "-9999", d.Entries[2].Extra[ColumnMissing])
	assert.Equal(t, LevelSupplement, d.Entries[2].Extra[ColumnLevel])

	assert.Equal(t, []string{"Main Variable", "Type", "Value", "Description", ColumnMissing, ColumnLevel, ColumnVisits, ColumnNotes}, d.Headers())
}

func TestSplitByDomainIsPartition(t *testing.T) {
	supplement := dict("A", "B", "C", "D", "E")
	domains := []string{"Clinical", "Biomarkers", "Imaging"}
	dictionaries := map[string]*dictionary.Dictionary{
		"Clinical":   dict("A", "C"),
		"Biomarkers": dict("C", "D"),
	}

	split := SplitByDomain(supplement, domains, dictionaries)

	assert.Equal(t, []string{"Clinical", "Biomarkers"}, split.Order)
	assert.Equal(t, []string{"A", "C"}, split.Domains["Clinical"].Variables())
	assert.Equal(t, []string{"D"}, split.Domains["Biomarkers"].Variables())
	assert.Equal(t, []string{"B", "E"}, split.Leftover.Variables())
	assert.NotContains(t, split.Domains, "Imaging")

	// every variable lands in exactly one bucket
	seen := make(map[string]int)
	for _, d := range split.Domains {
		for _, v := range d.Variables() {
			seen[v]++
		}
	}
	for _, v := range split.Leftover.Variables() {
		seen[v]++
	}
	for _, v := range supplement.Variables() {
		assert.Equal(t, 1, seen[v], v)
	}
	assert.Equal(t, supplement.Len(), split.Len())
}

func TestSupplement(t *testing.T) {
	base := &dictionary.Dictionary{Entries: []dictionary.Entry{
		{Variable: "Age", Type: "numeric", Value: "5"},
		{Variable: "BMI", Type: "numeric", Value: "{10-60}"},
	}}
	supplement := &dictionary.Dictionary{Entries: []dictionary.Entry{
		{Variable: "Age", Type: "numeric", Value: "5.0"},
		{Variable: "BMI", Type: "numeric", Value: "{10-70}"},
		{Variable: "LDL", Type: "numeric", Value: "{0-300}", Extra: map[string]string{ColumnLevel: LevelSupplement}},
	}}

	out, res := Supplement(base, supplement, false)
	assert.Equal(t, []string{"LDL"}, res.Added)
	assert.Empty(t, res.Updated)
	assert.Equal(t, "{10-60}", out.Entries[1].Value)
	assert.Equal(t, []string{ColumnLevel}, out.ExtraColumns)
	assert.Len(t, base.Entries, 2)

	out, res = Supplement(base, supplement, true)
	assert.Equal(t, []ValueUpdate{{Variable: "BMI", Old: "{10-60}", New: "{10-70}"}}, res.Updated)
	assert.Equal(t, "5", out.Entries[0].Value)
	assert.Equal(t, "{10-70}", out.Entries[1].Value)
	assert.Equal(t, "{10-60}", base.Entries[1].Value)
}

package checkers

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcsuite/internal/config"
	"qcsuite/internal/dataset"
	"qcsuite/internal/dictionary"
	"qcsuite/internal/registry"
	"qcsuite/internal/validators"
)

func validatorRegistry(t *testing.T) *registry.Registry[validators.Factory] {
	t.Helper()
	reg := registry.New[validators.Factory]()
	validators.Register(reg, nil)
	return reg
}

func clinicalTable() *dataset.Table {
	return dataset.New(
		[]string{"Med_ID", "Visit_ID", "Age", "Sex"},
		[][]string{
			{"1", "1", "40", "M"},
			{"2", "1", "150", "F"},
			{"3", "1", "-9999", "M"},
			{"4", "1", "55", "F"},
			{"5", "1", "61", "X"},
		})
}

func clinicalDictionary() *dictionary.Dictionary {
	return &dictionary.Dictionary{Entries: []dictionary.Entry{
		{Variable: "Age", Type: "Numeric", Value: "{0-100}"},
		{Variable: "Sex", Type: "Categorical", Value: "M, F"},
		{Variable: "Notes", Type: "blob"},
		{Variable: "Weight", Type: "numeric"},
	}}
}

func TestDictionaryChecker(t *testing.T) {
	checker := NewDictionaryChecker(validatorRegistry(t), validators.Options{}, nil)

	flags, stats, err := checker.Check(context.Background(), clinicalTable(), clinicalDictionary())
	require.NoError(t, err)

	assert.Equal(t, []validators.FlaggedValue{
		{SubjectID: "2", VisitID: "1", Column: "Age", Value: "150", Method: validators.ReasonOutsideRange},
		{SubjectID: "5", VisitID: "1", Column: "Sex", Value: "X", Method: "Rare Value (count: 1)"},
	}, flags)
	assert.Equal(t, CheckStats{Checked: 2, Skipped: 2, Flagged: 2}, stats)
}

func TestDictionaryCheckerIQRWithoutRange(t *testing.T) {
	values := []string{"1", "2", "3", "4", "5", "100", "2", "3", "4", "5"}
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{fmt.Sprint(i + 1), "1", v}
	}
	table := dataset.New([]string{"Med_ID", "Visit_ID", "numeric_outliers"}, rows)
	dict := &dictionary.Dictionary{Entries: []dictionary.Entry{
		{Variable: "numeric_outliers", Type: "numeric"},
	}}

	checker := NewDictionaryChecker(validatorRegistry(t), validators.Options{}, nil)
	flags, stats, err := checker.Check(context.Background(), table, dict)
	require.NoError(t, err)

	require.Len(t, flags, 1)
	assert.Equal(t, "6", flags[0].SubjectID)
	assert.Equal(t, "100", flags[0].Value)
	assert.Equal(t, "numeric_outliers", flags[0].Column)
	assert.True(t, strings.HasPrefix(flags[0].Method, validators.ReasonIQR), flags[0].Method)
	assert.Equal(t, CheckStats{Checked: 1, Flagged: 1}, stats)
}

type panicValidator struct{}

func (panicValidator) Validate(*dataset.Table, string, validators.Constraint) ([]validators.FlaggedValue, error) {
	panic("boom")
}

func TestDictionaryCheckerRecoversPerColumn(t *testing.T) {
	reg := validatorRegistry(t)
	reg.Register(validators.RegistryType, "text", func(validators.Options) (validators.Validator, error) {
		return panicValidator{}, nil
	}, nil)

	checker := NewDictionaryChecker(reg, validators.Options{}, nil)
	flags, stats, err := checker.Check(context.Background(), clinicalTable(), clinicalDictionary())
	require.NoError(t, err)

	assert.Len(t, flags, 1)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Checked)
}

func TestDictionaryCheckerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := NewDictionaryChecker(validatorRegistry(t), validators.Options{}, nil)
	_, _, err := checker.Check(ctx, clinicalTable(), clinicalDictionary())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportHeaders(t *testing.T) {
	assert.Equal(t, []string{"Med_ID", "Visit_ID", "Column", "Value", "Method"}, ReportHeaders(nil))
	assert.Equal(t, []string{"Subject", "Visit_ID", "Column", "Value", "Method"}, ReportHeaders([]string{"Subject"}))
	assert.Equal(t, []string{"A", "B", "Column", "Value", "Method"}, ReportHeaders([]string{"A", "B"}))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg, err := config.Parse([]byte("dictionary_checker:\n  outlier_method: STD\n  std_threshold: 2.5\n"))
	require.NoError(t, err)

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, "STD", opts["outlier_method"])
	assert.Equal(t, 2.5, opts["std_threshold"])
	assert.Equal(t, []string{"Med_ID", "Visit_ID"}, opts["id_columns"])
}

func TestScoreTotals(t *testing.T) {
	table := dataset.New(
		[]string{"Med_ID", "Visit_ID", "MMSE_Q1", "MMSE_Q2", "MMSE_Total", "Other"},
		[][]string{
			{"1", "1", "2", "3", "5", "x"},
			{"2", "1", "2", "3", "6", "x"},
			{"3", "1", "2", "", "2", "x"},
			{"4", "1", "2.5", "0.5", "3.0000000001", "x"},
		})

	specs := DetectTotals(table)
	require.Equal(t, []TotalSpec{{Total: "MMSE_Total", Components: []string{"MMSE_Q1", "MMSE_Q2"}}}, specs)

	results := CheckScoreTotals(table, specs, 1e-6, nil)
	require.Len(t, results, 4)
	assert.Equal(t, StatusMatch, results[0].Status)
	assert.Equal(t, StatusMismatch, results[1].Status)
	assert.Equal(t, "-1", results[1].Difference)
	assert.Equal(t, StatusIncomplete, results[2].Status)
	assert.Equal(t, StatusMatch, results[3].Status)

	assert.Equal(t, map[string]int{StatusMatch: 2, StatusMismatch: 1, StatusIncomplete: 1}, CountStatus(results))
	assert.Equal(t, []string{"2", "1", "MMSE_Total", "6", "5", "-1", StatusMismatch}, results[1].Record())
}

func TestTotalsFromConfig(t *testing.T) {
	specs := TotalsFromConfig(map[string][]string{"B": {"b1"}, "A": {"a1", "a2"}})
	assert.Equal(t, "A", specs[0].Total)
	assert.Equal(t, "B", specs[1].Total)
}

func TestFeatureChanges(t *testing.T) {
	table := dataset.New(
		[]string{"Med_ID", "Visit_ID", "CDX_Cog"},
		[][]string{
			{"1", "10", "1"},
			{"1", "2", "0"},
			{"2", "1", "1"},
			{"2", "2", "1"},
			{"2", "3", "NA"},
			{"1", "3", "0"},
		})

	changes, err := CheckFeatureChanges(table, "CDX_Cog", true, nil)
	require.NoError(t, err)
	require.Len(t, changes, 4)

	assert.Equal(t, FeatureChange{SubjectID: "1", FromVisit: "2", ToVisit: "3", Before: "0", After: "0", Change: ChangeNone}, changes[0])
	assert.Equal(t, ChangeIncrease, changes[1].Change)
	assert.Equal(t, "10", changes[1].ToVisit)
	assert.Equal(t, ChangeNone, changes[2].Change)
	assert.Equal(t, ChangeMissing, changes[3].Change)

	raw, err := CheckFeatureChanges(table, "CDX_Cog", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "1", raw[1].Change)
	assert.Equal(t, "", raw[3].Change)
}

func TestFeatureChangesMissingFeature(t *testing.T) {
	_, err := CheckFeatureChanges(clinicalTable(), "NonExistent", true, nil)
	assert.ErrorIs(t, err, ErrFeatureNotFound)
}

func TestCheckRelease(t *testing.T) {
	old := dataset.New([]string{"Med_ID", "Visit_ID", "Value_A", "Old_Col"},
		[][]string{{"1", "1", "10", "1"}, {"1", "2", "20", "2"}})
	next := dataset.New([]string{"Med_ID", "Visit_ID", "Value_A", "New_Col"},
		[][]string{{"1", "1", "10", "4"}, {"1", "2", "25", "5"}})

	res, err := CheckRelease(old, next, ReleaseModeStandard, []string{"Med_ID", "Visit_ID"}, []string{"-9999"})
	require.NoError(t, err)

	headers, records := ChangedRowsReport(res)
	assert.Equal(t, []string{"Med_ID", "Visit_ID", "Column", "Old Value", "New Value"}, headers)
	assert.Equal(t, [][]string{{"1", "2", "Value_A", "20", "25"}}, records)

	_, summary := ColumnChangesReport(res)
	assert.Equal(t, [][]string{
		{"New_Col", ColumnAdded, ""},
		{"Old_Col", ColumnRemoved, ""},
		{"Value_A", ColumnValueChange, "1 rows"},
	}, summary)

	_, err = CheckRelease(old, next, "sideways", []string{"Med_ID"}, nil)
	assert.Error(t, err)
}

func TestCompareColumns(t *testing.T) {
	cmp := CompareColumns(
		[]string{"Med_ID", "age", "Sex", "Extra"},
		[]string{"Med_ID", "Age", "Sex", "Weight"},
	)
	assert.Equal(t, []string{"Med_ID", "Sex"}, cmp.InBoth)
	assert.Equal(t, []string{"Extra", "age"}, cmp.OnlyInDataset)
	assert.Equal(t, []string{"Age", "Weight"}, cmp.OnlyInDictionary)
	assert.Equal(t, [][2]string{{"age", "Age"}}, cmp.CaseMismatches)
	assert.False(t, cmp.Consistent())
	assert.Len(t, cmp.Records(), 7)
}

func TestMissingIDCombos(t *testing.T) {
	old := dataset.New([]string{"Med_ID", "Visit_ID"}, [][]string{{"1", "1"}, {"1", "2"}, {"2", "1"}})
	next := dataset.New([]string{"Med ID", "Visit"}, [][]string{{"1", "1"}, {"2", "1.0"}, {"3", "1"}})
	StandardizeIDColumns(next, IDAliases)
	assert.Equal(t, []string{"Med_ID", "Visit_ID"}, next.Columns)

	res, err := MissingIDCombos(old, next, []string{"Med_ID", "Visit_ID"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}}, res.MissingInNew)
	assert.Equal(t, [][]string{{"3", "1"}}, res.MissingInOld)

	sheets := res.Sheets()
	require.Len(t, sheets, 2)
	assert.Equal(t, SheetMissingInNew, sheets[0].Name)
	assert.Equal(t, SheetMissingInOld, sheets[1].Name)
}

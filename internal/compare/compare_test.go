package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcsuite/internal/dataset"
)

func releases() (*dataset.Table, *dataset.Table) {
	old := dataset.New(
		[]string{"Med_ID", "Visit_ID", "Value_A", "Old_Col"},
		[][]string{
			{"1", "1", "10", "1"},
			{"1", "2", "20", "2"},
			{"2", "1", "30", "3"},
		})
	next := dataset.New(
		[]string{"Med_ID", "Visit_ID", "Value_A", "New_Col"},
		[][]string{
			{"1", "1", "10.0", "4"},
			{"1", "2", "25", "5"},
			{"3", "1", "30", "6"},
		})
	return old, next
}

func TestCompare(t *testing.T) {
	old, next := releases()
	res, err := Compare(old, next, Options{Keys: []string{"Med_ID", "Visit_ID"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"New_Col"}, res.ColumnsAdded)
	assert.Equal(t, []string{"Old_Col"}, res.ColumnsRemoved)
	assert.Equal(t, [][]string{{"2", "1"}}, res.RowsRemoved)
	assert.Equal(t, [][]string{{"3", "1"}}, res.RowsAdded)
	assert.Equal(t, 2, res.ComparedRows)

	require.Len(t, res.Changes, 1)
	assert.Equal(t, Change{Key: []string{"1", "2"}, Column: "Value_A", Old: "20", New: "25"}, res.Changes[0])
	assert.False(t, res.Identical())
	assert.Equal(t, []ColumnSummary{{Column: "Value_A", Changed: 1}}, res.ColumnSummaries())
}

func TestCompareOldOnly(t *testing.T) {
	old, next := releases()
	res, err := Compare(old, next, Options{Keys: []string{"Med_ID", "Visit_ID"}, OldOnly: true})
	require.NoError(t, err)

	assert.Empty(t, res.ColumnsAdded)
	assert.Empty(t, res.RowsAdded)
	assert.Len(t, res.RowsRemoved, 1)
}

func TestCompareMissingCodes(t *testing.T) {
	old := dataset.New([]string{"Med_ID", "X"}, [][]string{{"1", "-9999"}, {"2", "5"}})
	next := dataset.New([]string{"Med_ID", "X"}, [][]string{{"1", ""}, {"2", "5"}})

	res, err := Compare(old, next, Options{Keys: []string{"Med_ID"}, MissingCodes: []string{"-9999"}})
	require.NoError(t, err)
	assert.True(t, res.Identical())

	res, err = Compare(old, next, Options{Keys: []string{"Med_ID"}})
	require.NoError(t, err)
	assert.Len(t, res.Changes, 1)
}

func TestCompareDuplicatesAndDrift(t *testing.T) {
	old := dataset.New([]string{"Med_ID", "Score"}, [][]string{{"1", "1"}, {"1", "2"}, {"2", "3"}})
	next := dataset.New([]string{"Med_ID", "Score"}, [][]string{{"1", "1"}, {"2", "high"}})

	res, err := Compare(old, next, Options{Keys: []string{"Med_ID"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"1"}, res.DuplicateKeys["old"])
	require.Len(t, res.TypeDrift, 1)
	assert.Equal(t, TypeDrift{Column: "Score", OldType: TypeInteger, NewType: TypeText}, res.TypeDrift[0])
	assert.Equal(t, [][]string{{"2"}}, res.ChangedRowKeys())
}

func TestCompareMissingKey(t *testing.T) {
	old := dataset.New([]string{"Med_ID"}, nil)
	next := dataset.New([]string{"Other"}, nil)

	_, err := Compare(old, next, Options{Keys: []string{"Med_ID"}})
	assert.ErrorContains(t, err, "missing from new dataset")

	_, err = Compare(old, next, Options{})
	assert.Error(t, err)
}

func TestInferType(t *testing.T) {
	tests := []struct {
		values []string
		want   string
	}{
		{[]string{"", " "}, TypeEmpty},
		{[]string{"1", "2.0"}, TypeInteger},
		{[]string{"1", "2.5"}, TypeFloat},
		{[]string{"1", "x"}, TypeText},
		{[]string{"-9999", ""}, TypeEmpty},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferType(tt.values, []string{"-9999"}), tt.values)
	}
}

package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "data.csv", []byte("\xEF\xBB\xBF Med_ID ,Visit_ID,Score  Total\n1,1,10\n2,1\n\n,,\n"))

	table, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Med_ID", "Visit_ID", "Score Total"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "10", table.Get(0, "Score Total"))
	assert.Equal(t, "", table.Get(1, "Score Total"), "short rows are padded")
}

func TestLoadLatin1Fallback(t *testing.T) {
	// 0xE9 is é in Latin-1 and invalid as UTF-8
	path := writeFile(t, "latin.csv", []byte("Name\nCaf\xE9\n"))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Café", table.Get(0, "Name"))
}

func TestLoadTSV(t *testing.T) {
	path := writeFile(t, "data.tsv", []byte("a\tb\n1\t2\n"))
	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2", table.Get(0, "b"))
}

func TestLoadExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Main Variable", "Type", "Value"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"age", "numeric", "{0-120}"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Main Variable", "Type", "Value"}, table.Columns)
	assert.Equal(t, "{0-120}", table.Get(0, "Value"))

	sheets, err := SheetNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1"}, sheets)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "data.parquet", []byte("x")))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestColumnMatching(t *testing.T) {
	table := New([]string{"Med_ID", "Visit_ID", "Total Score", "Café Visits"}, [][]string{{"1", "2", "3", "4"}})

	tests := []struct {
		name string
		want int
	}{
		{"Med_ID", 0},
		{" Med_ID ", 0},
		{"med id", 0},
		{"visit-id", 1},
		{"total_score", 2},
		{"cafe visits", 3},
		{"missing", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, table.Column(tt.name), tt.name)
	}
	assert.Equal(t, "Total Score", table.ColumnName("TOTAL score"))
	assert.Nil(t, table.ColumnValues("missing"))
}

func TestTableMutation(t *testing.T) {
	table := New([]string{"a"}, [][]string{{"1"}, {"2"}})
	table.AddColumn("b", []string{"x"})
	assert.Equal(t, []string{"1", "x"}, table.Rows[0])
	assert.Equal(t, []string{"2", ""}, table.Rows[1])

	require.NoError(t, table.Set(1, 1, "y"))
	assert.Equal(t, "y", table.Get(1, "b"))
	assert.Error(t, table.Set(5, 0, "z"))

	table.AppendRow("3")
	assert.Equal(t, []string{"3", ""}, table.Rows[2])
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "12", NormalizeID(" 12.0 "))
	assert.Equal(t, "A-1", NormalizeID("A-1"))
	assert.Equal(t, "5", CanonicalValue("5.0"))
	assert.Equal(t, "abc", CanonicalValue(" abc "))
}

func TestKey(t *testing.T) {
	table := New([]string{"Med_ID", "Visit_ID"}, [][]string{{"1.0", "2"}, {"1", "2.0"}})
	cols := []int{0, 1}
	assert.Equal(t, table.Key(0, cols), table.Key(1, cols))
}

package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, mod time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

func TestDiscovery(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, dir, "b_release.csv", now.Add(-2*time.Hour))
	touch(t, dir, "a_cleaned.xlsx", now.Add(-time.Hour))
	touch(t, dir, "~$a_cleaned.xlsx", now)
	touch(t, dir, "notes.md", now)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0755))

	d := NewDiscovery("")

	found, err := d.FindDataFiles(dir)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "a_cleaned.xlsx", found[0].Name)
	assert.Equal(t, "b_release.csv", found[1].Name)

	first, err := d.FindFirstDataFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a_cleaned.xlsx"), first)

	match, err := d.FindMatchingFile(dir, "*RELEASE*")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b_release.csv"), match)

	latest, err := d.FindLatestDataFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a_cleaned.xlsx"), latest)

	_, err = d.FindMatchingFile(dir, "*supplement*")
	assert.ErrorIs(t, err, ErrNoDataFile)
}

func TestFindFirstDataFileAcceptsFile(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, dir, "data.tsv", time.Now())

	got, err := NewDiscovery("").FindFirstDataFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestDiscoveryRelativeToBase(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "domains", "Clinical"), 0755))
	touch(t, filepath.Join(base, "domains", "Clinical"), "clinical.csv", time.Now())

	got, err := NewDiscovery(base).FindFirstDataFile(filepath.Join("domains", "Clinical"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "domains", "Clinical", "clinical.csv"), got)
}

func TestDiscoveryMissingDirectory(t *testing.T) {
	d := NewDiscovery("")
	_, err := d.FindFirstDataFile(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrNoDataFile)

	empty := t.TempDir()
	_, err = d.FindFirstDataFile(empty)
	assert.ErrorIs(t, err, ErrNoDataFile)
}

func TestGetLatestFile(t *testing.T) {
	_, ok := GetLatestFile(nil)
	assert.False(t, ok)

	now := time.Now()
	latest, ok := GetLatestFile([]FileInfo{
		{Name: "old", ModTime: now.Add(-time.Hour)},
		{Name: "new", ModTime: now},
	})
	require.True(t, ok)
	assert.Equal(t, "new", latest.Name)
}

func TestFileValidator(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()
	csv := touch(t, dir, "data.csv", time.Now())
	md := touch(t, dir, "notes.md", time.Now())
	lock := touch(t, dir, "~$book.xlsx", time.Now())

	assert.NoError(t, v.ValidateInputDirectory(dir, "*.csv"))
	assert.NoError(t, v.ValidateInputDirectory(dir, "*.parquet"))
	assert.Error(t, v.ValidateInputDirectory(filepath.Join(dir, "missing"), ""))
	assert.Error(t, v.ValidateInputDirectory(csv, ""))

	assert.NoError(t, v.ValidateDataFile(csv))
	assert.Error(t, v.ValidateDataFile(md))
	assert.Error(t, v.ValidateDataFile(lock))
	assert.Error(t, v.ValidateFile(dir))
	assert.Error(t, v.ValidateFile(filepath.Join(dir, "missing.csv")))

	out := filepath.Join(dir, "out", "nested")
	require.NoError(t, v.ValidateOutputDirectory(out))
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries, "write probe is removed")
	assert.True(t, Exists(out))
}

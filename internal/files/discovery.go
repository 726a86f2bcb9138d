package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"qcsuite/internal/dataset"
)

// ErrNoDataFile is returned when a directory holds no loadable data file
var ErrNoDataFile = errors.New("no data file found")

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance. Relative directories
// passed to its methods are resolved against basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindDataFiles lists CSV, TSV, TXT and Excel files in dir sorted by name.
// Office lock files (~$name.xlsx) are ignored.
func (d *Discovery) FindDataFiles(dir string) ([]FileInfo, error) {
	return d.FindFilesByPattern(dir, "*")
}

// FindFilesByPattern lists data files in dir whose name matches a glob
// pattern, compared case-insensitively, sorted by name.
func (d *Discovery) FindFilesByPattern(dir, pattern string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}
	pattern = strings.ToLower(pattern)
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "~$") || !dataset.IsDataFile(name) {
			continue
		}
		if ok, _ := filepath.Match(pattern, strings.ToLower(name)); !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// FindFirstDataFile returns path itself when it names a file, otherwise the
// first data file in the directory.
func (d *Discovery) FindFirstDataFile(path string) (string, error) {
	full := d.resolve(path)
	info, err := os.Stat(full)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNoDataFile, full, err)
	}
	if !info.IsDir() {
		return full, nil
	}
	files, err := d.FindDataFiles(full)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoDataFile, full)
	}
	return files[0].Path, nil
}

// FindMatchingFile returns the first data file in dir matching pattern
func (d *Discovery) FindMatchingFile(dir, pattern string) (string, error) {
	files, err := d.FindFilesByPattern(dir, pattern)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w matching %s in %s", ErrNoDataFile, pattern, d.resolve(dir))
	}
	return files[0].Path, nil
}

// FindLatestDataFile returns the most recently modified data file in dir
func (d *Discovery) FindLatestDataFile(dir string) (string, error) {
	files, err := d.FindDataFiles(dir)
	if err != nil {
		return "", err
	}
	latest, ok := GetLatestFile(files)
	if !ok {
		return "", fmt.Errorf("%w in %s", ErrNoDataFile, d.resolve(dir))
	}
	return latest.Path, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}

	return latest, true
}

// Exists reports whether path exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

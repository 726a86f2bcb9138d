package tools

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"qcsuite/internal/config"
	"qcsuite/internal/dataset"
	"qcsuite/internal/dictionary"
	"qcsuite/internal/exporter"
	"qcsuite/internal/files"
	"qcsuite/internal/operations"
)

var discovery = files.NewDiscovery("")

// loadInput loads the dataset at path, or the first data file when path is a directory
func loadInput(in operations.StepInput, path, what string) (*dataset.Table, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("no %s path configured", what)
	}
	file, err := discovery.FindFirstDataFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("locate %s: %w", what, err)
	}
	table, err := dataset.Load(file)
	if err != nil {
		return nil, "", fmt.Errorf("load %s %s: %w", what, file, err)
	}
	in.Log().Info("dataset_loaded",
		slog.String("role", what),
		slog.String("path", file),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)))
	return table, file, nil
}

// loadPreviousRelease loads the old_data input. A directory holding several
// releases resolves to the most recently modified data file.
func loadPreviousRelease(in operations.StepInput) (*dataset.Table, error) {
	path := in.Paths.Get(config.KeyOldData)
	if path == "" {
		return nil, fmt.Errorf("no previous release path configured")
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		latest, err := discovery.FindLatestDataFile(path)
		if err != nil {
			return nil, fmt.Errorf("locate previous release: %w", err)
		}
		path = latest
	}
	table, _, err := loadInput(in, path, "previous release")
	return table, err
}

// loadDictionary finds and loads the domain dictionary
func loadDictionary(in operations.StepInput) (*dictionary.Dictionary, error) {
	dir := in.Paths.Get(config.KeyDictionary)
	if dir == "" {
		return nil, fmt.Errorf("no dictionary path configured")
	}
	path, fallback, err := dictionary.Find(discovery, dir)
	if err != nil {
		return nil, err
	}
	if fallback {
		in.Log().Warn("cleaned_dictionary_not_found",
			slog.String("directory", dir),
			slog.String("using", path))
	}
	d, err := dictionary.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load dictionary %s: %w", path, err)
	}
	if dups := d.Duplicates(); len(dups) > 0 {
		in.Log().Warn("duplicate_dictionary_variables",
			slog.String("path", path),
			slog.Any("variables", dups))
	}
	return d, nil
}

// outputFile returns the step's output path. A configured output filename
// is used as-is; otherwise name is placed in the output directory,
// prefixed with the domain when there is one.
func outputFile(in operations.StepInput, name string) (string, error) {
	out := in.OutputPath
	if out == "" {
		out = config.OutputPath(in.Paths, "")
	}
	if out == "" && in.Config != nil {
		out = in.Config.GlobalPaths().Get(config.KeyQCOutput)
	}
	if out == "" {
		return "", fmt.Errorf("no output path configured")
	}
	if filepath.Ext(out) != "" {
		return out, nil
	}
	return filepath.Join(out, domainFile(in.Domain, name)), nil
}

// outputDir returns the directory a multi-file tool writes into
func outputDir(in operations.StepInput) (string, error) {
	path, err := outputFile(in, "x")
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

func domainFile(domain, name string) string {
	if domain == "" {
		return name
	}
	return domain + "_" + name
}

// writeReport writes a report and logs where it went
func writeReport(in operations.StepInput, path string, headers []string, records [][]string) error {
	if err := exporter.WriteReport(path, headers, records); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	in.Log().Info("report_written",
		slog.String("path", path),
		slog.Int("rows", len(records)))
	return nil
}

// splitInputs splits a comma-separated input path
func splitInputs(path string) []string {
	var out []string
	for _, p := range strings.Split(path, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func requireConfig(in operations.StepInput) (*config.Config, error) {
	if in.Config == nil {
		return nil, fmt.Errorf("tool requires configuration")
	}
	return in.Config, nil
}

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"qcsuite/internal/config"
	"qcsuite/internal/dictionary"
	"qcsuite/internal/operations"
	"qcsuite/internal/transform"
)

// cleanedSuffix names the cleaner's output; dictionary.Find picks it up
const cleanedSuffix = "dictionary_cleaned.csv"

func (ts *toolset) dictionaryCleaner(ctx context.Context, in operations.StepInput) error {
	dir := in.Paths.Get(config.KeyDictionary)
	source, err := rawDictionary(dir, in.InputPath)
	if err != nil {
		return err
	}
	d, err := dictionary.Load(source)
	if err != nil {
		return fmt.Errorf("load dictionary %s: %w", source, err)
	}

	cleaned, stats := transform.CleanDictionary(d)
	in.Log().Info("dictionary_cleaned",
		slog.String("source", source),
		slog.Int("entries", cleaned.Len()),
		slog.Int("types_changed", stats.TypesChanged),
		slog.Int("values_changed", stats.ValuesChanged),
		slog.Int("rows_dropped", stats.RowsDropped))

	out := in.OutputPath
	if filepath.Ext(out) == "" {
		out = filepath.Join(filepath.Dir(source), domainFile(in.Domain, cleanedSuffix))
	}
	if err := cleaned.Save(out); err != nil {
		return err
	}
	in.Log().Info("report_written", slog.String("path", out), slog.Int("rows", cleaned.Len()))
	return nil
}

// rawDictionary picks the uncleaned dictionary: a release dictionary first,
// then any data file in dir that is not already a cleaned one. Without a
// dictionary directory the step input is used.
func rawDictionary(dir, input string) (string, error) {
	if dir == "" {
		if input == "" {
			return "", fmt.Errorf("no dictionary path configured")
		}
		return discovery.FindFirstDataFile(input)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return dir, nil
	}
	if p, err := discovery.FindMatchingFile(dir, dictionary.ReleasePattern); err == nil {
		return p, nil
	}
	candidates, err := discovery.FindDataFiles(dir)
	if err != nil {
		return "", err
	}
	for _, c := range candidates {
		if !strings.Contains(strings.ToLower(c.Name), "cleaned") {
			return c.Path, nil
		}
	}
	return "", fmt.Errorf("no uncleaned dictionary in %s", dir)
}

func (ts *toolset) dateFormatStandardizer(ctx context.Context, in operations.StepInput) error {
	cfg, err := requireConfig(in)
	if err != nil {
		return err
	}
	data, _, err := loadInput(in, in.InputPath, "dataset")
	if err != nil {
		return err
	}

	target := cfg.Tools.DateStandardizer.TargetFormat
	stats, err := transform.StandardizeDates(data, target)
	if err != nil {
		return err
	}
	in.Log().Info("dates_standardized",
		slog.String("target_format", target),
		slog.Any("columns", stats.Columns),
		slog.Int("converted", stats.Converted),
		slog.Int("unparseable", stats.Unparseable))
	if len(stats.Columns) == 0 {
		in.Log().Warn("no_date_columns")
	}

	out, err := outputFile(in, "dates_standardized.csv")
	if err != nil {
		return err
	}
	return writeReport(in, out, data.Columns, data.Records())
}

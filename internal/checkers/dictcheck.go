package checkers

import (
	"context"
	"fmt"
	"log/slog"

	"qcsuite/internal/config"
	"qcsuite/internal/dataset"
	"qcsuite/internal/dictionary"
	"qcsuite/internal/registry"
	"qcsuite/internal/validators"
)

// Report columns following the two identifier columns
const (
	ReportColumn = "Column"
	ReportValue  = "Value"
	ReportMethod = "Method"
)

// ReportHeaders returns the flagged-value report header for the given id columns
func ReportHeaders(idColumns []string) []string {
	ids := idColumns
	if len(ids) < 2 {
		ids = append(append([]string{}, ids...), validators.DefaultIDColumns[len(ids):]...)
	}
	return []string{ids[0], ids[1], ReportColumn, ReportValue, ReportMethod}
}

// FlagRecords renders flags as report rows
func FlagRecords(flags []validators.FlaggedValue) [][]string {
	records := make([][]string, len(flags))
	for i, f := range flags {
		records[i] = f.Record()
	}
	return records
}

// OptionsFromConfig turns the dictionary_checker settings into validator options
func OptionsFromConfig(cfg *config.Config) validators.Options {
	dc := cfg.DictionaryChecker
	return validators.Options{
		"outlier_method": dc.OutlierMethod,
		"std_threshold":  dc.STDThreshold,
		"rare_threshold": dc.RareThreshold,
		"date_format":    dc.DateFormat,
		"min_range":      dc.MinRange,
		"id_columns":     cfg.IDColumns,
	}
}

// DictionaryChecker validates every dictionary variable present in a dataset
type DictionaryChecker struct {
	registry *registry.Registry[validators.Factory]
	opts     validators.Options
	logger   *slog.Logger

	built map[validators.Kind]validators.Validator
}

// NewDictionaryChecker creates a checker resolving validators from reg
func NewDictionaryChecker(reg *registry.Registry[validators.Factory], opts validators.Options, logger *slog.Logger) *DictionaryChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &DictionaryChecker{
		registry: reg,
		opts:     opts,
		logger:   logger,
		built:    make(map[validators.Kind]validators.Validator),
	}
}

// CheckStats counts what happened during a check
type CheckStats struct {
	Checked int
	Skipped int
	Failed  int
	Flagged int
}

// Check runs the validator for each entry's declared type. Entries with an
// unknown type, no registered validator or no matching dataset column are
// skipped. A failing column is logged and the check moves on.
func (c *DictionaryChecker) Check(ctx context.Context, data *dataset.Table, dict *dictionary.Dictionary) ([]validators.FlaggedValue, CheckStats, error) {
	var (
		flags []validators.FlaggedValue
		stats CheckStats
	)
	for _, entry := range dict.Entries {
		if err := ctx.Err(); err != nil {
			return flags, stats, err
		}

		kind, ok := entry.Kind()
		if !ok {
			c.logger.InfoContext(ctx, "unknown_variable_type",
				slog.String("variable", entry.Variable),
				slog.String("type", entry.Type))
			stats.Skipped++
			continue
		}
		if !data.HasColumn(entry.Variable) {
			c.logger.DebugContext(ctx, "variable_not_in_dataset",
				slog.String("variable", entry.Variable))
			stats.Skipped++
			continue
		}

		v, err := c.validator(kind)
		if err != nil {
			c.logger.InfoContext(ctx, "validator_unavailable",
				slog.String("variable", entry.Variable),
				slog.String("kind", kind.String()),
				slog.String("error", err.Error()))
			stats.Skipped++
			continue
		}

		found, err := runValidator(v, data, entry)
		if err != nil {
			c.logger.ErrorContext(ctx, "column_validation_failed",
				slog.String("variable", entry.Variable),
				slog.String("kind", kind.String()),
				slog.String("error", err.Error()))
			stats.Failed++
			continue
		}
		stats.Checked++
		stats.Flagged += len(found)
		flags = append(flags, found...)
	}
	return flags, stats, nil
}

func (c *DictionaryChecker) validator(kind validators.Kind) (validators.Validator, error) {
	if v, ok := c.built[kind]; ok {
		return v, nil
	}
	v, err := validators.Build(c.registry, kind, c.opts)
	if err != nil {
		return nil, err
	}
	c.built[kind] = v
	return v, nil
}

// runValidator isolates a single column so a panic cannot abort the check
func runValidator(v validators.Validator, data *dataset.Table, entry dictionary.Entry) (flags []validators.FlaggedValue, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator panic: %v", r)
		}
	}()
	return v.Validate(data, entry.Variable, entry.Constraint())
}

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"qcsuite/internal/checkers"
	"qcsuite/internal/config"
	"qcsuite/internal/exporter"
	"qcsuite/internal/operations"
)

func (ts *toolset) dictionaryDrivenChecker(ctx context.Context, in operations.StepInput) error {
	cfg, err := requireConfig(in)
	if err != nil {
		return err
	}
	data, _, err := loadInput(in, in.InputPath, "dataset")
	if err != nil {
		return err
	}
	dict, err := loadDictionary(in)
	if err != nil {
		return err
	}
	if ts.deps.Validators == nil {
		return fmt.Errorf("no validator registry available")
	}

	checker := checkers.NewDictionaryChecker(ts.deps.Validators, checkers.OptionsFromConfig(cfg), in.Log())
	flags, stats, err := checker.Check(ctx, data, dict)
	if err != nil {
		return err
	}
	ts.deps.Tracer.RecordFlagged(ctx, "dictionary_driven_checker", len(flags))

	out, err := outputFile(in, "dictionary_check.csv")
	if err != nil {
		return err
	}
	in.Log().Info("dictionary_check_complete",
		slog.Int("variables_checked", stats.Checked),
		slog.Int("variables_skipped", stats.Skipped),
		slog.Int("variables_failed", stats.Failed),
		slog.Int("flagged", len(flags)))
	return writeReport(in, out, checkers.ReportHeaders(cfg.IDColumns), checkers.FlagRecords(flags))
}

func (ts *toolset) dictionaryValidator(ctx context.Context, in operations.StepInput) error {
	data, _, err := loadInput(in, in.InputPath, "dataset")
	if err != nil {
		return err
	}
	dict, err := loadDictionary(in)
	if err != nil {
		return err
	}

	cmp := checkers.CompareColumns(data.Columns, dict.Variables())
	in.Log().Info("dictionary_columns_compared",
		slog.Int("in_both", len(cmp.InBoth)),
		slog.Int("only_in_dataset", len(cmp.OnlyInDataset)),
		slog.Int("only_in_dictionary", len(cmp.OnlyInDictionary)),
		slog.Int("case_mismatches", len(cmp.CaseMismatches)))
	if len(cmp.OnlyInDataset) > 0 {
		in.Log().Warn("columns_missing_from_dictionary", slog.Any("columns", cmp.OnlyInDataset))
	}
	ts.deps.Tracer.RecordFlagged(ctx, "dictionary_validator", len(cmp.OnlyInDataset)+len(cmp.OnlyInDictionary))

	out, err := outputFile(in, "dictionary_validation.csv")
	if err != nil {
		return err
	}
	return writeReport(in, out, checkers.ColumnComparisonHeaders, cmp.Records())
}

func (ts *toolset) scoreTotalsChecker(ctx context.Context, in operations.StepInput) error {
	cfg, err := requireConfig(in)
	if err != nil {
		return err
	}
	data, _, err := loadInput(in, in.InputPath, "dataset")
	if err != nil {
		return err
	}

	settings := cfg.Tools.ScoreTotals
	specs := checkers.TotalsFromConfig(settings.Totals)
	if len(specs) == 0 {
		specs = checkers.DetectTotals(data)
	}
	if len(specs) == 0 {
		in.Log().Warn("no_total_columns", slog.String("suffix", checkers.TotalSuffix))
	}

	results := checkers.CheckScoreTotals(data, specs, settings.Tolerance, cfg.IDColumns)
	counts := checkers.CountStatus(results)
	in.Log().Info("score_totals_checked",
		slog.Int("totals", len(specs)),
		slog.Int("match", counts[checkers.StatusMatch]),
		slog.Int("mismatch", counts[checkers.StatusMismatch]),
		slog.Int("incomplete", counts[checkers.StatusIncomplete]))
	ts.deps.Tracer.RecordFlagged(ctx, "score_totals_checker", counts[checkers.StatusMismatch])

	records := make([][]string, len(results))
	for i, r := range results {
		records[i] = r.Record()
	}
	out, err := outputFile(in, "score_totals.csv")
	if err != nil {
		return err
	}
	return writeReport(in, out, checkers.TotalsHeaders(cfg.IDColumns), records)
}

func (ts *toolset) featureChangeChecker(ctx context.Context, in operations.StepInput) error {
	cfg, err := requireConfig(in)
	if err != nil {
		return err
	}
	merged, qcOutput := in.Paths.Get(config.KeyMergedData), in.Paths.Get(config.KeyQCOutput)
	if merged == "" || qcOutput == "" {
		return fmt.Errorf("required paths %s and %s must be provided", config.KeyMergedData, config.KeyQCOutput)
	}
	data, _, err := loadInput(in, merged, "merged dataset")
	if err != nil {
		return err
	}

	settings := cfg.Tools.FeatureChange
	changes, err := checkers.CheckFeatureChanges(data, settings.Feature, settings.Categorize, cfg.IDColumns)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	records := make([][]string, len(changes))
	for i, c := range changes {
		counts[c.Change]++
		records[i] = c.Record()
	}
	in.Log().Info("feature_changes_checked",
		slog.String("feature", settings.Feature),
		slog.Int("transitions", len(changes)),
		slog.Any("by_change", counts))
	ts.deps.Tracer.RecordFlagged(ctx, "feature_change_checker", counts[checkers.ChangeDecrease])

	out := in.OutputPath
	if filepath.Ext(out) == "" {
		out = filepath.Join(qcOutput, domainFile(in.Domain, settings.Feature+"_changes.csv"))
	}
	return writeReport(in, out, checkers.FeatureChangeHeaders(settings.Feature, cfg.IDColumns), records)
}

func (ts *toolset) releaseConsistencyChecker(ctx context.Context, in operations.StepInput) error {
	cfg, err := requireConfig(in)
	if err != nil {
		return err
	}
	previous, err := loadPreviousRelease(in)
	if err != nil {
		return err
	}
	current, _, err := loadInput(in, in.Paths.Get(config.KeyMergedData), "current release")
	if err != nil {
		return err
	}

	settings := cfg.Tools.ReleaseConsistency
	res, err := checkers.CheckRelease(previous, current, settings.Mode, cfg.IDColumns, settings.MissingCodes)
	if err != nil {
		return err
	}
	in.Log().Info("release_compared",
		slog.String("mode", settings.Mode),
		slog.Int("rows_compared", res.ComparedRows),
		slog.Int("cells_changed", len(res.Changes)),
		slog.Int("rows_added", len(res.RowsAdded)),
		slog.Int("rows_removed", len(res.RowsRemoved)),
		slog.Int("columns_added", len(res.ColumnsAdded)),
		slog.Int("columns_removed", len(res.ColumnsRemoved)))
	for side, keys := range res.DuplicateKeys {
		in.Log().Warn("duplicate_keys", slog.String("release", side), slog.Int("count", len(keys)))
	}
	ts.deps.Tracer.RecordFlagged(ctx, "release_consistency_checker", len(res.Changes))

	dir, err := outputDir(in)
	if err != nil {
		return err
	}
	headers, records := checkers.ChangedRowsReport(res)
	if err := writeReport(in, filepath.Join(dir, domainFile(in.Domain, "changed_rows.csv")), headers, records); err != nil {
		return err
	}
	headers, records = checkers.ColumnChangesReport(res)
	return writeReport(in, filepath.Join(dir, domainFile(in.Domain, "column_changes.csv")), headers, records)
}

func (ts *toolset) dataContentComparer(ctx context.Context, in operations.StepInput) error {
	cfg, err := requireConfig(in)
	if err != nil {
		return err
	}
	inputs := splitInputs(in.InputPath)
	if len(inputs) != 2 {
		return fmt.Errorf("data content comparer needs two inputs separated by a comma, got %q", in.InputPath)
	}
	previous, _, err := loadInput(in, inputs[0], "first dataset")
	if err != nil {
		return err
	}
	current, _, err := loadInput(in, inputs[1], "second dataset")
	if err != nil {
		return err
	}

	res, err := checkers.CheckRelease(previous, current, checkers.ReleaseModeStandard, cfg.IDColumns, cfg.Tools.ReleaseConsistency.MissingCodes)
	if err != nil {
		return err
	}
	ts.deps.Tracer.RecordFlagged(ctx, "data_content_comparer", len(res.Changes))

	changeHeaders, changeRecords := checkers.ChangedRowsReport(res)
	columnHeaders, columnRecords := checkers.ColumnChangesReport(res)
	sheets := []exporter.Sheet{
		{Name: "Summary", Headers: []string{"Metric", "Value"}, Records: [][]string{
			{"Rows compared", exporter.FormatInt(res.ComparedRows)},
			{"Cells changed", exporter.FormatInt(len(res.Changes))},
			{"Rows only in first", exporter.FormatInt(len(res.RowsRemoved))},
			{"Rows only in second", exporter.FormatInt(len(res.RowsAdded))},
		}},
		{Name: "Changes", Headers: changeHeaders, Records: changeRecords},
		{Name: "Columns", Headers: columnHeaders, Records: columnRecords},
		{Name: "Only In First", Headers: res.Keys, Records: res.RowsRemoved},
		{Name: "Only In Second", Headers: res.Keys, Records: res.RowsAdded},
	}

	out, err := outputFile(in, "data_comparison.xlsx")
	if err != nil {
		return err
	}
	if !exporter.IsExcelPath(out) {
		return writeReport(in, out, changeHeaders, changeRecords)
	}
	if err := exporter.WriteExcel(out, sheets); err != nil {
		return fmt.Errorf("write comparison %s: %w", out, err)
	}
	in.Log().Info("report_written", slog.String("path", out), slog.Int("rows", len(changeRecords)))
	return nil
}

func (ts *toolset) medVisitIntegrityValidator(ctx context.Context, in operations.StepInput) error {
	cfg, err := requireConfig(in)
	if err != nil {
		return err
	}
	previous, err := loadPreviousRelease(in)
	if err != nil {
		return err
	}
	currentPath := in.Paths.Get(config.KeyMergedData)
	if currentPath == "" {
		currentPath = in.InputPath
	}
	current, _, err := loadInput(in, currentPath, "current release")
	if err != nil {
		return err
	}
	checkers.StandardizeIDColumns(previous, checkers.IDAliases)
	checkers.StandardizeIDColumns(current, checkers.IDAliases)

	res, err := checkers.MissingIDCombos(previous, current, cfg.IDColumns)
	if err != nil {
		return err
	}
	in.Log().Info("id_combos_compared",
		slog.Int("missing_in_new", len(res.MissingInNew)),
		slog.Int("missing_in_old", len(res.MissingInOld)))
	ts.deps.Tracer.RecordFlagged(ctx, "medvisit_integrity_validator", len(res.MissingInNew)+len(res.MissingInOld))

	out, err := outputFile(in, "medvisit_integrity.xlsx")
	if err != nil {
		return err
	}
	if !exporter.IsExcelPath(out) {
		out = out[:len(out)-len(filepath.Ext(out))] + ".xlsx"
	}
	if err := exporter.WriteExcel(out, res.Sheets()); err != nil {
		return fmt.Errorf("write integrity report %s: %w", out, err)
	}
	in.Log().Info("report_written", slog.String("path", out))
	return nil
}

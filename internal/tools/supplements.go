package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"qcsuite/internal/config"
	"qcsuite/internal/dataset"
	"qcsuite/internal/dictionary"
	"qcsuite/internal/files"
	"qcsuite/internal/operations"
	"qcsuite/internal/supplements"
)

// File names shared by the supplement tools
const (
	preppedFile       = "supplement_prepped.csv"
	preppedPattern    = "*prepped*"
	domainSupplement  = "supplement.csv"
	supplementPattern = "%s_supplement*"
)

func (ts *toolset) supplementPrepper(ctx context.Context, in operations.StepInput) error {
	cfg, err := requireConfig(in)
	if err != nil {
		return err
	}
	if in.InputPath == "" {
		return fmt.Errorf("no supplement input directory configured")
	}

	sources, err := discovery.FindFilesByPattern(in.InputPath, supplements.PrepFilePattern)
	if err == nil && len(sources) == 0 {
		sources, err = discovery.FindDataFiles(in.InputPath)
	}
	if err != nil {
		return fmt.Errorf("list supplement files: %w", err)
	}
	if len(sources) == 0 {
		return fmt.Errorf("%w in %s", files.ErrNoDataFile, in.InputPath)
	}

	tables := make([]*dataset.Table, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := dataset.Load(src.Path)
		if err != nil {
			return fmt.Errorf("load supplement %s: %w", src.Path, err)
		}
		in.Log().Info("supplement_loaded", slog.String("path", src.Path), slog.Int("rows", t.Len()))
		tables = append(tables, t)
	}

	prepped := supplements.Prep(tables, cfg.Tools.Supplements.MissingCode)
	in.Log().Info("supplement_prepped",
		slog.Int("files", len(tables)),
		slog.Int("variables", prepped.Len()))

	out, err := outputFile(in, preppedFile)
	if err != nil {
		return err
	}
	if err := prepped.Save(out); err != nil {
		return err
	}
	in.Log().Info("report_written", slog.String("path", out), slog.Int("rows", prepped.Len()))
	return nil
}

func (ts *toolset) supplementSplitter(ctx context.Context, in operations.StepInput) error {
	cfg, err := requireConfig(in)
	if err != nil {
		return err
	}
	source, err := findPrepped(cfg, in.InputPath)
	if err != nil {
		return err
	}
	supplement, err := dictionary.Load(source)
	if err != nil {
		return fmt.Errorf("load supplement %s: %w", source, err)
	}

	dicts := make(map[string]*dictionary.Dictionary, len(cfg.Domains))
	for _, domain := range cfg.Domains {
		dir := cfg.DomainPaths(domain).Get(config.KeyDictionary)
		path, _, err := dictionary.Find(discovery, dir)
		if err != nil {
			in.Log().Warn("domain_dictionary_missing",
				slog.String("domain", domain),
				slog.String("error", err.Error()))
			continue
		}
		d, err := dictionary.Load(path)
		if err != nil {
			return fmt.Errorf("load %s dictionary: %w", domain, err)
		}
		dicts[domain] = d
	}

	split := supplements.SplitByDomain(supplement, cfg.Domains, dicts)
	dir, err := outputDir(in)
	if err != nil {
		return err
	}
	for _, domain := range split.Order {
		d := split.Domains[domain]
		path := filepath.Join(dir, domainFile(domain, domainSupplement))
		if err := d.Save(path); err != nil {
			return err
		}
		in.Log().Info("domain_supplement_written",
			slog.String("domain", domain),
			slog.String("path", path),
			slog.Int("variables", d.Len()))
	}

	leftover := cfg.Tools.Supplements.LeftoverName
	if leftover == "" {
		leftover = supplements.DefaultLeftoverName
	}
	path := filepath.Join(dir, domainFile(leftover, domainSupplement))
	if err := split.Leftover.Save(path); err != nil {
		return err
	}
	in.Log().Info("leftover_supplement_written",
		slog.String("path", path),
		slog.Int("variables", split.Leftover.Len()))
	return nil
}

// findPrepped locates the prepped supplement: the input itself when it is a
// file, else a prepped file in the input directory or the global output.
func findPrepped(cfg *config.Config, input string) (string, error) {
	if input != "" {
		if info, err := os.Stat(input); err == nil && !info.IsDir() {
			return input, nil
		}
	}
	for _, dir := range []string{input, cfg.GlobalPaths().Get(config.KeyQCOutput)} {
		if dir == "" {
			continue
		}
		if p, err := discovery.FindMatchingFile(dir, preppedPattern); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: no prepped supplement found", files.ErrNoDataFile)
}

func (ts *toolset) dictionarySupplementer(ctx context.Context, in operations.StepInput) error {
	cfg, err := requireConfig(in)
	if err != nil {
		return err
	}
	dict, err := loadDictionary(in)
	if err != nil {
		return err
	}

	pattern := fmt.Sprintf(supplementPattern, in.Domain)
	var source string
	for _, dir := range []string{in.InputPath, cfg.GlobalPaths().Get(config.KeyQCOutput)} {
		if dir == "" {
			continue
		}
		if p, err := discovery.FindMatchingFile(dir, pattern); err == nil {
			source = p
			break
		}
	}
	if source == "" {
		return fmt.Errorf("%w: no %s file", files.ErrNoDataFile, pattern)
	}
	supplement, err := dictionary.Load(source)
	if err != nil {
		return fmt.Errorf("load supplement %s: %w", source, err)
	}

	update := cfg.Tools.Supplements.UpdateExisting
	merged, res := supplements.Supplement(dict, supplement, update)
	in.Log().Info("dictionary_supplemented",
		slog.String("supplement", source),
		slog.Int("added", len(res.Added)),
		slog.Int("updated", len(res.Updated)),
		slog.Bool("update_existing", update))
	if len(res.Added) > 0 {
		in.Log().Info("variables_added", slog.Any("variables", res.Added))
	}
	for _, u := range res.Updated {
		in.Log().Info("variable_updated",
			slog.String("variable", u.Variable),
			slog.String("old_value", u.Old),
			slog.String("new_value", u.New))
	}

	out, err := outputFile(in, "dictionary_supplemented.csv")
	if err != nil {
		return err
	}
	if err := merged.Save(out); err != nil {
		return err
	}
	in.Log().Info("report_written", slog.String("path", out), slog.Int("rows", merged.Len()))
	return nil
}

package tools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcsuite/internal/config"
	"qcsuite/internal/dataset"
	"qcsuite/internal/operations"
	"qcsuite/internal/registry"
	"qcsuite/internal/validators"
)

func testConfig(t *testing.T, extra string) *config.Config {
	t.Helper()
	root := t.TempDir()
	yaml := fmt.Sprintf("paths:\n  project_root: %s\ndomains: [Clinical, Biomarkers]\n%s", root, extra)
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func testCatalog() *Catalog {
	reg := registry.New[validators.Factory]()
	validators.Register(reg, nil)
	return NewCatalog(Deps{Validators: reg})
}

// domainInput builds the input a domain-mode step receives
func domainInput(cfg *config.Config, domain, inputKey string) operations.StepInput {
	paths := cfg.DomainPaths(domain)
	return operations.StepInput{
		Domain:     domain,
		InputPath:  paths.Get(inputKey),
		OutputPath: config.OutputPath(paths, ""),
		Paths:      paths,
		Config:     cfg,
		Logger:     quietLogger(),
	}
}

func run(t *testing.T, c *Catalog, name string, in operations.StepInput) error {
	t.Helper()
	fn, ok := c.Lookup(name)
	require.True(t, ok, name)
	return fn(context.Background(), in)
}

func loadReport(t *testing.T, path string) *dataset.Table {
	t.Helper()
	table, err := dataset.Load(path)
	require.NoError(t, err)
	return table
}

const clinicalData = `Med_ID,Visit_ID,Age,Sex,MMSE_Q1,MMSE_Q2,MMSE_Total,CDX_Cog
1,1,40,M,2,3,5,0
1,2,41,M,2,3,6,1
2,1,150,F,1,1,2,1
3,1,55,F,1,,1,0
4,1,61,X,0,0,0,1
`

const clinicalDictionary = `Main Variable,Type,Value,Description
Med_ID,numeric,,Subject
Age,Integer,{0-100},Age in years
Sex,category,"M, F",Sex
Unlisted,blob,,Something
`

func setupClinical(t *testing.T, cfg *config.Config) config.DomainPaths {
	t.Helper()
	paths := cfg.DomainPaths("Clinical")
	writeFile(t, filepath.Join(paths.Get(config.KeyRawData), "clinical.csv"), clinicalData)
	writeFile(t, filepath.Join(paths.Get(config.KeyMergedData), "clinical_merged.csv"), clinicalData)
	writeFile(t, filepath.Join(paths.Get(config.KeyDictionary), "Clinical_release.csv"), clinicalDictionary)
	return paths
}

func TestCatalog(t *testing.T) {
	c := testCatalog()
	assert.Len(t, c.Names(), 13)

	tool, ok := c.Get("supplement_splitter")
	require.True(t, ok)
	assert.Equal(t, operations.RunModeGlobal, tool.RunMode)

	_, ok = c.Lookup("nope")
	assert.False(t, ok)

	reg := registry.New[operations.StepFunc]()
	c.Register(reg)
	assert.Equal(t, 13, reg.Count())
	assert.Equal(t, CategoryAutomation, reg.Metadata(RegistryType, "form_autofiller")["category"])

	fn, ok := RegistryLookup{Registry: reg}.Lookup("dictionary_cleaner")
	assert.True(t, ok)
	assert.NotNil(t, fn)
}

func TestDictionaryCleanerThenChecker(t *testing.T) {
	cfg := testConfig(t, "")
	paths := setupClinical(t, cfg)
	c := testCatalog()

	require.NoError(t, run(t, c, "dictionary_cleaner", domainInput(cfg, "Clinical", config.KeyDictionary)))
	cleaned := filepath.Join(paths.Get(config.KeyDictionary), "Clinical_dictionary_cleaned.csv")
	dict := loadReport(t, cleaned)
	assert.Equal(t, "numeric", dict.Get(1, "Type"))
	assert.Equal(t, "0-100", dict.Get(1, "Value"))
	assert.Equal(t, "F, M", dict.Get(2, "Value"))
	assert.Equal(t, "text", dict.Get(3, "Type"))

	require.NoError(t, run(t, c, "dictionary_driven_checker", domainInput(cfg, "Clinical", config.KeyRawData)))
	report := loadReport(t, filepath.Join(paths.Get(config.KeyQCOutput), "Clinical_dictionary_check.csv"))
	assert.Equal(t, []string{"Med_ID", "Visit_ID", "Column", "Value", "Method"}, report.Columns)
	assert.Equal(t, [][]string{
		{"2", "1", "Age", "150", validators.ReasonOutsideRange},
		{"4", "1", "Sex", "X", "Rare Value (count: 1)"},
	}, report.Rows)
}

func TestDictionaryDrivenCheckerMissingDictionary(t *testing.T) {
	cfg := testConfig(t, "")
	paths := cfg.DomainPaths("Clinical")
	writeFile(t, filepath.Join(paths.Get(config.KeyRawData), "clinical.csv"), clinicalData)

	err := run(t, testCatalog(), "dictionary_driven_checker", domainInput(cfg, "Clinical", config.KeyRawData))
	assert.Error(t, err)
}

func TestDictionaryValidatorTool(t *testing.T) {
	cfg := testConfig(t, "")
	paths := setupClinical(t, cfg)

	require.NoError(t, run(t, testCatalog(), "dictionary_validator", domainInput(cfg, "Clinical", config.KeyRawData)))
	report := loadReport(t, filepath.Join(paths.Get(config.KeyQCOutput), "Clinical_dictionary_validation.csv"))
	assert.Equal(t, []string{"Category", "Dataset Column", "Dictionary Variable"}, report.Columns)
	assert.Equal(t, []string{"In Both", "Age", "Age"}, report.Rows[0])
}

func TestScoreTotalsTool(t *testing.T) {
	cfg := testConfig(t, "")
	paths := setupClinical(t, cfg)

	require.NoError(t, run(t, testCatalog(), "score_totals_checker", domainInput(cfg, "Clinical", config.KeyRawData)))
	report := loadReport(t, filepath.Join(paths.Get(config.KeyQCOutput), "Clinical_score_totals.csv"))
	statuses := report.ColumnValues("Status")
	assert.Equal(t, []string{"Match", "Mismatch", "Match", "Incomplete", "Match"}, statuses)
}

func TestFeatureChangeTool(t *testing.T) {
	cfg := testConfig(t, "")
	paths := setupClinical(t, cfg)

	require.NoError(t, run(t, testCatalog(), "feature_change_checker", domainInput(cfg, "Clinical", config.KeyMergedData)))
	report := loadReport(t, filepath.Join(paths.Get(config.KeyQCOutput), "Clinical_CDX_Cog_changes.csv"))
	require.Equal(t, 1, report.Len())
	assert.Equal(t, "Increase", report.Get(0, "Change"))

	in := domainInput(cfg, "Clinical", config.KeyMergedData)
	in.Paths = config.DomainPaths{}
	assert.ErrorContains(t, run(t, testCatalog(), "feature_change_checker", in), "must be provided")
}

func TestReleaseConsistencyTool(t *testing.T) {
	cfg := testConfig(t, "")
	paths := setupClinical(t, cfg)
	old := strings.Replace(clinicalData, "1,2,41,M", "1,2,42,M", 1)
	writeFile(t, filepath.Join(paths.Get(config.KeyOldData), "clinical_r5.csv"), old)

	require.NoError(t, run(t, testCatalog(), "release_consistency_checker", domainInput(cfg, "Clinical", config.KeyMergedData)))
	changed := loadReport(t, filepath.Join(paths.Get(config.KeyQCOutput), "Clinical_changed_rows.csv"))
	assert.Equal(t, [][]string{{"1", "2", "Age", "42", "41"}}, changed.Rows)

	summary := loadReport(t, filepath.Join(paths.Get(config.KeyQCOutput), "Clinical_column_changes.csv"))
	assert.Equal(t, [][]string{{"Age", "Values Changed", "1 rows"}}, summary.Rows)
}

func TestReleaseConsistencyUsesLatestPreviousRelease(t *testing.T) {
	cfg := testConfig(t, "")
	paths := setupClinical(t, cfg)
	oldDir := paths.Get(config.KeyOldData)

	stale := filepath.Join(oldDir, "a_clinical_r4.csv")
	writeFile(t, stale, strings.Replace(clinicalData, "1,2,41,M", "1,2,30,M", 1))
	require.NoError(t, os.Chtimes(stale, time.Now().Add(-48*time.Hour), time.Now().Add(-48*time.Hour)))
	writeFile(t, filepath.Join(oldDir, "b_clinical_r5.csv"), strings.Replace(clinicalData, "1,2,41,M", "1,2,42,M", 1))

	require.NoError(t, run(t, testCatalog(), "release_consistency_checker", domainInput(cfg, "Clinical", config.KeyMergedData)))
	changed := loadReport(t, filepath.Join(paths.Get(config.KeyQCOutput), "Clinical_changed_rows.csv"))
	assert.Equal(t, [][]string{{"1", "2", "Age", "42", "41"}}, changed.Rows)
}

func TestDataContentComparerNeedsTwoInputs(t *testing.T) {
	cfg := testConfig(t, "")
	in := operations.StepInput{InputPath: "only-one.csv", Config: cfg, Logger: quietLogger()}
	assert.ErrorContains(t, run(t, testCatalog(), "data_content_comparer", in), "two inputs")
}

func TestDataContentComparer(t *testing.T) {
	cfg := testConfig(t, "")
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")
	writeFile(t, a, "Med_ID,Visit_ID,X\n1,1,5\n2,1,6\n")
	writeFile(t, b, "Med_ID,Visit_ID,X\n1,1,5\n2,1,7\n3,1,1\n")

	out := filepath.Join(dir, "out", "comparison.xlsx")
	in := operations.StepInput{InputPath: a + "," + b, OutputPath: out, Config: cfg, Logger: quietLogger()}
	require.NoError(t, run(t, testCatalog(), "data_content_comparer", in))

	sheets, err := dataset.SheetNames(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"Summary", "Changes", "Columns", "Only In First", "Only In Second"}, sheets)
}

func TestMedVisitIntegrityTool(t *testing.T) {
	cfg := testConfig(t, "")
	paths := setupClinical(t, cfg)
	writeFile(t, filepath.Join(paths.Get(config.KeyOldData), "clinical_r5.csv"), "Med ID,Visit\n1,1\n9,9\n")

	require.NoError(t, run(t, testCatalog(), "medvisit_integrity_validator", domainInput(cfg, "Clinical", config.KeyMergedData)))
	out := filepath.Join(paths.Get(config.KeyQCOutput), "Clinical_medvisit_integrity.xlsx")
	sheets, err := dataset.SheetNames(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"Missing in New", "Missing in Old"}, sheets)

	missingInNew, err := dataset.LoadExcel(out, "Missing in New")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"9", "9"}}, missingInNew.Rows)
}

func TestDateFormatStandardizerTool(t *testing.T) {
	cfg := testConfig(t, "tools:\n  date_standardizer:\n    target_format: \"%m/%d/%Y\"\n")
	paths := cfg.DomainPaths("Clinical")
	writeFile(t, filepath.Join(paths.Get(config.KeyRawData), "visits.csv"), "Med_ID,Visit_Date\n1,2021-03-07\n2,unknown\n")

	require.NoError(t, run(t, testCatalog(), "date_format_standardizer", domainInput(cfg, "Clinical", config.KeyRawData)))
	report := loadReport(t, filepath.Join(paths.Get(config.KeyQCOutput), "Clinical_dates_standardized.csv"))
	assert.Equal(t, []string{"03/07/2021", "unknown"}, report.ColumnValues("Visit_Date"))
}

func TestSupplementFlow(t *testing.T) {
	cfg := testConfig(t, "tools:\n  supplements:\n    update_existing: true\n")
	setupClinical(t, cfg)
	c := testCatalog()
	global := cfg.GlobalPaths()

	raw := t.TempDir()
	writeFile(t, filepath.Join(raw, "lab_supplement.csv"), "variable,notes,min,max\nAge,Age at visit,18,90\nLDL,Cholesterol,0,300\n")

	prepIn := operations.StepInput{
		InputPath:  raw,
		OutputPath: global.Get(config.KeyQCOutput),
		Paths:      global,
		Config:     cfg,
		Logger:     quietLogger(),
	}
	require.NoError(t, run(t, c, "supplement_prepper", prepIn))
	prepped := loadReport(t, filepath.Join(global.Get(config.KeyQCOutput), "supplement_prepped.csv"))
	assert.Equal(t, []string{"Age", "LDL"}, prepped.ColumnValues("Main Variable"))

	splitIn := prepIn
	splitIn.InputPath = ""
	require.NoError(t, run(t, c, "supplement_splitter", splitIn))
	clinical := loadReport(t, filepath.Join(global.Get(config.KeyQCOutput), "Clinical_supplement.csv"))
	assert.Equal(t, []string{"Age"}, clinical.ColumnValues("Main Variable"))
	leftover := loadReport(t, filepath.Join(global.Get(config.KeyQCOutput), "Leftover_supplement.csv"))
	assert.Equal(t, []string{"LDL"}, leftover.ColumnValues("Main Variable"))

	require.NoError(t, run(t, c, "dictionary_supplementer", domainInput(cfg, "Clinical", config.KeyQCOutput)))
	merged := loadReport(t, filepath.Join(cfg.DomainPaths("Clinical").Get(config.KeyQCOutput), "Clinical_dictionary_supplemented.csv"))
	age := merged.Column("Value")
	assert.Equal(t, "{18-90}", merged.Value(1, age))
}

func TestBuildPipelineFromCatalog(t *testing.T) {
	cfg := testConfig(t, `pipelines:
  qc:
    description: clean then check
    steps:
      - name: Clean
        func: dictionary_cleaner
        input_key: dictionary
      - name: Check
        func: dictionary_driven_checker
        input_key: raw_data
`)
	setupClinical(t, cfg)

	pipeline, err := operations.BuildPipeline(cfg, testCatalog(), "qc", operations.WithLogger(quietLogger()), operations.WithOutput(io.Discard))
	require.NoError(t, err)

	summary, err := pipeline.Run(context.Background(), operations.RunOptions{Domain: "Clinical"})
	require.NoError(t, err)

	// Biomarkers has no data so both of its runs fail; Clinical succeeds
	for _, timing := range summary.Timings {
		if timing.Domain == "Clinical" {
			assert.Equal(t, operations.StepStatusCompleted, timing.Status, timing.Step)
		}
	}
	assert.True(t, summary.Failed())
}

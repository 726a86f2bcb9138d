package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qcsuite/internal/config"
	"qcsuite/internal/operations"
	"qcsuite/internal/tools"
	"qcsuite/internal/validators"
)

const pipelines = `pipelines:
  validate:
    description: column checks
    steps:
      - name: Validate
        func: dictionary_validator
        input_key: raw_data
        tags: [fast]
  all:
    - validate
    - name: Totals
      func: score_totals_checker
      input_key: raw_data
`

func newTestApp(t *testing.T, extra string) (*App, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	yaml := fmt.Sprintf("paths:\n  project_root: %s\ndomains: [Clinical, Biomarkers]\n%s", root, extra)
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)

	var out bytes.Buffer
	a, err := New(cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithOutput(&out))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a, &out
}

func writeClinical(t *testing.T, cfg *config.Config) config.DomainPaths {
	t.Helper()
	paths := cfg.DomainPaths("Clinical")
	files := map[string]string{
		filepath.Join(paths.Get(config.KeyRawData), "clinical.csv"):            "Med_ID,Visit_ID,Age,Q_A,Q_B,Q_Total\n1,1,40,1,2,3\n2,1,50,1,1,3\n",
		filepath.Join(paths.Get(config.KeyDictionary), "Clinical_release.csv"): "Main Variable,Type,Value\nAge,numeric,{0-100}\nWeight,numeric,\n",
	}
	for path, content := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return paths
}

func TestNew(t *testing.T) {
	a, _ := newTestApp(t, "")

	assert.Len(t, a.Tools.List(tools.RegistryType), len(a.Catalog.Names()))
	assert.Equal(t, []string{"numeric", "text", "date"}, a.Validators.List(validators.RegistryType))
	assert.NotNil(t, a.Telemetry)
	assert.NotNil(t, a.Tracer)
}

func TestNewNilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestLoadMissingConfig(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	var opErr *operations.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, operations.ErrorTypeConfiguration, opErr.Type)
}

func TestPipelines(t *testing.T) {
	a, _ := newTestApp(t, pipelines)

	built, err := a.Pipelines()
	require.NoError(t, err)
	require.Contains(t, built, "all")
	assert.Len(t, built["all"].Steps, 2)
}

func TestRunPipelineNeedsName(t *testing.T) {
	a, _ := newTestApp(t, pipelines)

	_, err := a.RunPipeline(context.Background(), "", operations.RunOptions{})
	var opErr *operations.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, operations.ErrorTypeConfiguration, opErr.Type)

	_, err = a.RunPipeline(context.Background(), "missing", operations.RunOptions{})
	assert.Error(t, err)
}

func TestRunPipeline(t *testing.T) {
	a, out := newTestApp(t, pipelines+"default_pipeline: all\n")
	paths := writeClinical(t, a.Config)

	summary, err := a.RunPipeline(context.Background(), "", operations.RunOptions{Tag: "fast"})
	require.NoError(t, err)
	assert.Equal(t, "all", summary.Pipeline)

	var clinical []operations.StepTiming
	for _, timing := range summary.Timings {
		if timing.Domain == "Clinical" {
			clinical = append(clinical, timing)
		}
	}
	require.Len(t, clinical, 1)
	assert.Equal(t, operations.StepStatusCompleted, clinical[0].Status)
	assert.FileExists(t, filepath.Join(paths.Get(config.KeyQCOutput), "Clinical_dictionary_validation.csv"))
	assert.Contains(t, out.String(), "Validate")
}

func TestRunPipelineDryRun(t *testing.T) {
	a, out := newTestApp(t, pipelines)

	summary, err := a.RunPipeline(context.Background(), "all", operations.RunOptions{DryRun: true})
	require.NoError(t, err)
	assert.Empty(t, summary.Timings)
	assert.Contains(t, out.String(), "Totals")
}

func TestRunToolUnknown(t *testing.T) {
	a, _ := newTestApp(t, "")

	err := a.RunTool(context.Background(), "nope", ToolRequest{})
	var opErr *operations.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, operations.ErrorTypeConfiguration, opErr.Type)
}

func TestRunToolUnknownDomain(t *testing.T) {
	a, _ := newTestApp(t, "")

	err := a.RunTool(context.Background(), "dictionary_validator", ToolRequest{Domain: "Imaging"})
	var opErr *operations.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, operations.ErrorTypeValidation, opErr.Type)
}

func TestRunToolSingleDomain(t *testing.T) {
	a, out := newTestApp(t, "")
	paths := writeClinical(t, a.Config)

	require.NoError(t, a.RunTool(context.Background(), "score_totals_checker", ToolRequest{Domain: "Clinical"}))
	assert.FileExists(t, filepath.Join(paths.Get(config.KeyQCOutput), "Clinical_score_totals.csv"))
	assert.Contains(t, out.String(), "✔ score_totals_checker for Clinical")
}

func TestRunToolAllDomainsCollectsFailures(t *testing.T) {
	a, _ := newTestApp(t, "")
	writeClinical(t, a.Config)

	err := a.RunTool(context.Background(), "dictionary_validator", ToolRequest{})
	require.Error(t, err)

	var list *operations.ErrorList
	require.True(t, errors.As(err, &list))
	require.Len(t, list.Errors, 1)
	assert.Equal(t, "Biomarkers", list.Errors[0].Domain)
}

func TestRunToolExplicitPaths(t *testing.T) {
	a, _ := newTestApp(t, "")
	dir := t.TempDir()
	input := filepath.Join(dir, "scores.csv")
	require.NoError(t, os.WriteFile(input, []byte("Med_ID,Visit_ID,A_1,A_2,A_Total\n1,1,1,1,3\n"), 0644))
	output := filepath.Join(dir, "reports", "totals.csv")

	require.NoError(t, a.RunTool(context.Background(), "score_totals_checker", ToolRequest{Domain: "Clinical", Input: input, Output: output}))
	assert.FileExists(t, output)
}

func TestRunToolRecoversPanic(t *testing.T) {
	a, out := newTestApp(t, "")
	calls := 0
	a.Tools.Register(tools.RegistryType, "score_totals_checker", func(ctx context.Context, in operations.StepInput) error {
		calls++
		if in.Domain == "Clinical" {
			panic("index out of range")
		}
		return nil
	}, nil)

	var err error
	require.NotPanics(t, func() {
		err = a.RunTool(context.Background(), "score_totals_checker", ToolRequest{})
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)

	var list *operations.ErrorList
	require.True(t, errors.As(err, &list))
	require.Len(t, list.Errors, 1)
	assert.Equal(t, "Clinical", list.Errors[0].Domain)
	assert.Contains(t, err.Error(), "panic: index out of range")
	assert.Contains(t, out.String(), "✖ score_totals_checker for Clinical")
	assert.NotContains(t, out.String(), "goroutine")
}

func TestRunToolCancelled(t *testing.T) {
	a, _ := newTestApp(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.RunTool(ctx, "dictionary_validator", ToolRequest{})
	var opErr *operations.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, operations.ErrorTypeCancellation, opErr.Type)
}

func TestCloseWritesMetricsTextfile(t *testing.T) {
	dir := t.TempDir()
	yaml := fmt.Sprintf(`paths:
  project_root: %s
domains: [Clinical]
telemetry:
  enabled: true
  trace_file: %s
  metrics_file: %s
`, dir, filepath.Join(dir, "traces.json"), filepath.Join(dir, "qcsuite.prom"))
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)

	a, err := New(cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithOutput(io.Discard))
	require.NoError(t, err)
	require.NoError(t, a.Close(context.Background()))

	prom, err := os.ReadFile(filepath.Join(dir, "qcsuite.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "process_heap_bytes")
}

package operations

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTools() FuncMap {
	noop := func(ctx context.Context, in StepInput) error { return nil }
	return FuncMap{
		"dictionary_cleaner":        noop,
		"dictionary_driven_checker": noop,
		"score_totals_checker":      noop,
	}
}

const pipelinesYAML = `
default_pipeline: full
pipelines:
  prep:
    - name: Clean dictionaries
      func: dictionary_cleaner
      input_key: dictionary
      tags: [prep]
  qc:
    description: Validation checks
    steps:
      - func: dictionary_driven_checker
        output_filename: flagged.csv
        log_filename: ddc
        tags: [qc]
      - name: Totals
        func: score_totals_checker
        run_mode: single_domain
        check_exists: true
  full:
    - prep
    - ref: qc
    - name: Final totals
      func: score_totals_checker
      run_mode: global
`

func names(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Name
	}
	return out
}

func TestBuildPipelines(t *testing.T) {
	cfg := testConfig(t, pipelinesYAML)

	pipelines, err := BuildPipelines(cfg, testTools(), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.Len(t, pipelines, 3)

	full := pipelines["full"]
	assert.Equal(t, []string{"Clean dictionaries", "dictionary_driven_checker", "Totals", "Final totals"}, names(full.Steps))

	qc := pipelines["qc"]
	assert.Equal(t, "Validation checks", qc.Description)

	ddc := qc.Steps[0]
	assert.Equal(t, "dictionary_driven_checker", ddc.FuncName)
	assert.Equal(t, "ddc", ddc.LogFilename)
	assert.Equal(t, "flagged.csv", ddc.OutputFilename)
	assert.Equal(t, DefaultInputKey, ddc.InputKey)
	assert.Equal(t, RunModeDomain, ddc.RunMode)
	assert.Equal(t, "ddc", ddc.logBase())

	totals := qc.Steps[1]
	assert.Equal(t, RunModeSingleDomain, totals.RunMode)
	assert.True(t, totals.CheckExists)
	assert.Equal(t, "score_totals_checker.log", totals.LogFilename)

	assert.Equal(t, "dictionary", pipelines["prep"].Steps[0].InputKey)
	assert.Equal(t, RunModeGlobal, full.Steps[3].RunMode)
}

func TestBuildPipelineByName(t *testing.T) {
	cfg := testConfig(t, pipelinesYAML)

	p, err := BuildPipeline(cfg, testTools(), "full", WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Len(t, p.Steps, 4)

	_, err = BuildPipeline(cfg, testTools(), "nightly")
	assert.True(t, IsConfigurationError(err))
}

func TestBuildPipelinesErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown func",
			yaml: "pipelines:\n  p:\n    - func: no_such_tool\n",
			want: "no_such_tool",
		},
		{
			name: "unknown ref",
			yaml: "pipelines:\n  p:\n    - ref: missing\n",
			want: "missing",
		},
		{
			name: "direct cycle",
			yaml: "pipelines:\n  a:\n    - b\n  b:\n    - a\n",
			want: "cycle",
		},
		{
			name: "self reference",
			yaml: "pipelines:\n  a:\n    - func: dictionary_cleaner\n    - ref: a\n",
			want: "cycle",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, tt.yaml)
			_, err := BuildPipelines(cfg, testTools(), WithLogger(quietLogger()))
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.want)

			var list *ErrorList
			require.True(t, errors.As(err, &list))
			assert.True(t, list.HasErrors())
		})
	}
}

func TestFuncMapNames(t *testing.T) {
	assert.Equal(t, []string{"dictionary_cleaner", "dictionary_driven_checker", "score_totals_checker"}, testTools().Names())
}

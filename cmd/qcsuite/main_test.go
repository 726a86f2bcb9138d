package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`paths:
  project_root: %s
domains: [Clinical]
logging:
  output: console
  level: error
pipelines:
  validate:
    description: column checks
    steps:
      - name: Validate
        func: dictionary_validator
        input_key: raw_data
`, dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListTools(t *testing.T) {
	out, err := runRoot(t, "--config", writeConfig(t), "list", "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "dictionary_driven_checker")
	assert.Contains(t, out, "form_autofiller")
	assert.NotContains(t, out, "Pipelines:")
}

func TestListAll(t *testing.T) {
	out, err := runRoot(t, "--config", writeConfig(t), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Pipelines:")
	assert.Contains(t, out, "validate")
	assert.Contains(t, out, "Tools:")
}

func TestListRejectsUnknownKind(t *testing.T) {
	_, err := runRoot(t, "--config", writeConfig(t), "list", "widgets")
	assert.Error(t, err)
}

func TestRunDryRun(t *testing.T) {
	out, err := runRoot(t, "--config", writeConfig(t), "run", "validate", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run: pipeline validate")
}

func TestExitCodes(t *testing.T) {
	cfg := writeConfig(t)
	ctx := context.Background()

	assert.Equal(t, exitOK, execute(ctx, []string{"--config", cfg, "run", "validate"}))
	assert.Equal(t, exitStepFailure, execute(ctx, []string{"--config", cfg, "run", "validate", "--strict"}))
	assert.Equal(t, exitError, execute(ctx, []string{"--config", cfg, "run", "missing"}))
	assert.Equal(t, exitError, execute(ctx, []string{"--config", filepath.Join(t.TempDir(), "absent.yaml"), "list"}))
	assert.Equal(t, exitError, execute(ctx, []string{"--config", cfg, "tool", "nope"}))
	assert.Equal(t, exitStepFailure, execute(ctx, []string{"--config", cfg, "tool", "dictionary_validator"}))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Equal(t, exitInterrupted, execute(cancelled, []string{"--config", cfg, "tool", "dictionary_validator"}))
}

func TestToolNames(t *testing.T) {
	assert.Equal(t, []string{
		"dictionary_cleaner",
		"dictionary_driven_checker",
		"dictionary_supplementer",
		"dictionary_validator",
	}, toolNames("dictionary_"))
}

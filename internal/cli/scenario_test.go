package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

const passingScenario = `name: one_page
description: Adding one page leaves two.
flow:
  - action: create_pages
    args:
      pages:
        - counts: 8
    expect: success
assertions:
  - type: row_count
    table: pages
    count: 2
`

const failingScenario = `name: wrong_count
description: Asserts a page count that cannot hold.
flow:
  - action: create_pages
    args:
      pages:
        - counts: 8
assertions:
  - type: row_count
    table: pages
    count: 5
`

func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestScenarioRun_MissingArgs(t *testing.T) {
	_, err := execute(t, "scenario", "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestScenarioRun_NonExistentDir(t *testing.T) {
	_, err := execute(t, "scenario", "run", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestScenarioRun_EmptyDir(t *testing.T) {
	out := mustExecute(t, "scenario", "run", t.TempDir())
	assert.Contains(t, out, "No scenarios found")
}

func TestScenarioRun_EmptyDirJSON(t *testing.T) {
	res := decodeData[ScenarioRunResult](t, mustExecute(t, "--format", "json", "scenario", "run", t.TempDir()))
	assert.Equal(t, 0, res.Total)
	assert.Empty(t, res.Scenarios)
}

func TestScenarioRun_HarnessScenarios(t *testing.T) {
	out := mustExecute(t, "scenario", "run", harnessScenarios)
	assert.Contains(t, out, "✓ delete_page_undo")
	assert.Contains(t, out, "✓ shape_redistribute")
	assert.Contains(t, out, "3 passed, 0 failed, 3 total")
}

func TestScenarioRun_Filter(t *testing.T) {
	res := decodeData[ScenarioRunResult](t, mustExecute(t, "--format", "json", "scenario", "run", harnessScenarios, "--filter", "delete_*"))
	require.Len(t, res.Scenarios, 1)
	assert.Equal(t, "delete_page_undo", res.Scenarios[0].Name)
	assert.True(t, res.Scenarios[0].Pass)
}

func TestScenarioRun_Failure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "wrong_count.yaml", failingScenario)

	out, err := execute(t, "scenario", "run", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_count")
	assert.Contains(t, out, "row_count")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestScenarioRun_LoadError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\nflow:\n  - action: fly\n")

	out, err := execute(t, "scenario", "run", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "load error")
}

func TestScenarioRun_UpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "one_page.yaml", passingScenario)

	out := mustExecute(t, "scenario", "run", dir, "--update")
	assert.Contains(t, out, "✓ one_page (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "one_page.golden"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(golden), `{"scenario_name":"one_page","trace":[`), string(golden))

	out = mustExecute(t, "scenario", "run", dir)
	assert.Contains(t, out, "✓ one_page")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "one_page.golden"), []byte("{}"), 0644))
	out, err = execute(t, "scenario", "run", dir)
	require.Error(t, err)
	assert.Contains(t, out, "golden file mismatch")
}

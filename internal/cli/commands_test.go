package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/drillstore/internal/engine"
	"github.com/roach88/drillstore/internal/ir"
)

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "show.db")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeWithStderr(t, args...)
	return out, err
}

func executeWithStderr(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	require.NoError(t, err, out)
	return out
}

func decodeData[T any](t *testing.T, out string) T {
	t.Helper()
	var resp struct {
		Status string    `json:"status"`
		Data   T         `json:"data"`
		Error  *CLIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status, out)
	return resp.Data
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drillstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestInit(t *testing.T) {
	db := tempDB(t)

	got := decodeData[InitOutput](t, mustExecute(t, "--db", db, "--format", "json", "init"))
	assert.Equal(t, db, got.Path)
	assert.Equal(t, int64(0), got.FirstPageID)
	assert.Equal(t, int64(500), got.GroupLimit)

	// Running it again leaves the document alone.
	again := decodeData[InitOutput](t, mustExecute(t, "--db", db, "--format", "json", "init"))
	assert.Equal(t, got, again)
}

func TestInit_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	fromFile := filepath.Join(dir, "from-file.db")
	cfg := writeConfig(t, "database:\n  path: "+fromFile+"\nhistory:\n  group_limit: 7\n")

	got := decodeData[InitOutput](t, mustExecute(t, "--config", cfg, "--format", "json", "init"))
	assert.Equal(t, fromFile, got.Path)
	assert.Equal(t, int64(7), got.GroupLimit)

	// --db wins over the file.
	fromFlag := filepath.Join(dir, "from-flag.db")
	got = decodeData[InitOutput](t, mustExecute(t, "--config", cfg, "--db", fromFlag, "--format", "json", "init"))
	assert.Equal(t, fromFlag, got.Path)
}

func TestInit_BadConfig(t *testing.T) {
	cfg := writeConfig(t, "logging:\n  level: loud\n")

	_, err := execute(t, "--config", cfg, "init")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestPageCommands(t *testing.T) {
	db := tempDB(t)

	added := decodeData[[]ir.Page](t, mustExecute(t, "--db", db, "--format", "json", "page", "add", "--counts", "16"))
	require.Len(t, added, 1)
	first := added[0].ID

	mustExecute(t, "--db", db, "page", "add", "--counts", "8", "--after", "1", "--subset")

	text := mustExecute(t, "--db", db, "page", "list")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "1 "), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2 "), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "2A"), lines[2])
	assert.Contains(t, lines[2], "subset")

	mustExecute(t, "--db", db, "page", "update", "2", "--counts", "12", "--subset=false")

	type listed struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Counts int64  `json:"counts"`
	}
	pages := decodeData[[]listed](t, mustExecute(t, "--db", db, "--format", "json", "page", "list"))
	require.Len(t, pages, 3)
	assert.Equal(t, "3", pages[2].Name)
	assert.Equal(t, int64(12), pages[2].Counts)

	out := mustExecute(t, "--db", db, "page", "delete", "1")
	assert.Contains(t, out, "deleted 1 page(s)")

	pages = decodeData[[]listed](t, mustExecute(t, "--db", db, "--format", "json", "page", "list"))
	require.Len(t, pages, 2)
	assert.Equal(t, int64(0), pages[0].ID)
	assert.Equal(t, int64(2), pages[1].ID)
	assert.NotEqual(t, first, pages[1].ID)
}

func TestPageAdd_UnknownPredecessor(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, "--db", db, "page", "add", "--counts", "8", "--after", "99")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, engine.IsNotFound(err))
	assert.Contains(t, out, "Error [NOT_FOUND]")
}

func TestPageDelete_InvalidID(t *testing.T) {
	_, err := execute(t, "--db", tempDB(t), "page", "delete", "first")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid id "first"`)
}

func TestMarcherCommands(t *testing.T) {
	db := tempDB(t)
	cfg := writeConfig(t, "defaults:\n  x: 5\n  y: 7\n")

	mustExecute(t, "--db", db, "page", "add", "--counts", "16")
	mustExecute(t, "--db", db, "--config", cfg, "marcher", "add", "--section", "Trumpet", "--prefix", "T", "--order", "1", "--name", "Ana")

	out := mustExecute(t, "--db", db, "marcher", "list")
	assert.Contains(t, out, "T1")
	assert.Contains(t, out, "Trumpet Ana")

	type dumped struct {
		Tables map[string][]map[string]any `json:"tables"`
	}
	dump := decodeData[dumped](t, mustExecute(t, "--db", db, "--format", "json", "dump"))
	placements := dump.Tables[ir.TableMarcherPages]
	require.Len(t, placements, 2)
	for _, p := range placements {
		assert.Equal(t, 5.0, p["x"])
		assert.Equal(t, 7.0, p["y"])
	}

	out = mustExecute(t, "--db", db, "marcher", "delete", "1")
	assert.Contains(t, out, "deleted 1 marcher(s)")
	assert.Empty(t, mustExecute(t, "--db", db, "marcher", "list"))
}

func TestMarcherAdd_RequiresSection(t *testing.T) {
	_, err := execute(t, "--db", tempDB(t), "marcher", "add", "--prefix", "T")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "section")
}

func TestShapeCommands(t *testing.T) {
	db := tempDB(t)
	mustExecute(t, "--db", db, "page", "add", "--counts", "16")
	mustExecute(t, "--db", db, "marcher", "add", "--section", "Brass", "--prefix", "X", "--order", "1")
	mustExecute(t, "--db", db, "marcher", "add", "--section", "Brass", "--prefix", "Y", "--order", "1")

	sps := decodeData[[]ir.ShapePage](t, mustExecute(t, "--db", db, "--format", "json",
		"shape", "add", "--page", "1", "--path", "M 0 0 L 30 0", "--marchers", "1,2"))
	require.Len(t, sps, 1)
	assert.Equal(t, int64(1), sps[0].PageID)

	out := mustExecute(t, "--db", db, "shape", "list", "--page", "1")
	assert.Contains(t, out, `path="M 0 0 L 30 0"`)
	assert.Empty(t, strings.TrimSpace(mustExecute(t, "--db", db, "shape", "list", "--page", "0")))

	_, err := execute(t, "--db", db, "shape", "add", "--page", "1", "--path", "Z Z")
	require.Error(t, err)
	assert.True(t, engine.IsInvalidArgument(err))
}

func TestUndoRedo(t *testing.T) {
	db := tempDB(t)

	out := mustExecute(t, "--db", db, "undo")
	assert.Contains(t, out, "nothing to undo")

	mustExecute(t, "--db", db, "page", "add", "--counts", "16")

	out = mustExecute(t, "--db", db, "undo")
	assert.Contains(t, out, "undo group 1")
	assert.Contains(t, out, "pages")
	assert.Len(t, decodeData[[]ir.Page](t, mustExecute(t, "--db", db, "--format", "json", "page", "list")), 1)

	resp := decodeData[engine.HistoryResponse](t, mustExecute(t, "--db", db, "--format", "json", "redo"))
	assert.Equal(t, int64(1), resp.Group)
	assert.Positive(t, resp.Count)
	assert.Len(t, decodeData[[]ir.Page](t, mustExecute(t, "--db", db, "--format", "json", "page", "list")), 2)
}

func TestHistory(t *testing.T) {
	db := tempDB(t)
	mustExecute(t, "--db", db, "page", "add", "--counts", "16")
	mustExecute(t, "--db", db, "marcher", "add", "--section", "Brass", "--prefix", "X", "--order", "1")
	mustExecute(t, "--db", db, "undo")

	h := decodeData[HistoryOutput](t, mustExecute(t, "--db", db, "--format", "json", "history"))
	assert.Equal(t, 1, h.Stats.UndoGroups)
	assert.Equal(t, 1, h.Stats.RedoGroups)
	require.Len(t, h.Undo, 1)
	assert.True(t, strings.HasPrefix(h.Undo[0].Action, "create-pages:"), h.Undo[0].Action)
	require.Len(t, h.Redo, 1)
	assert.Contains(t, h.Redo[0].Tables, ir.TableMarcherPages)

	out := mustExecute(t, "--db", db, "history")
	assert.Contains(t, out, "undo: 1 step(s), redo: 1 step(s), limit 500")
	assert.Contains(t, out, "undo 1 create-pages")
}

func TestDump_HashesSurviveUndo(t *testing.T) {
	db := tempDB(t)
	mustExecute(t, "--db", db, "marcher", "add", "--section", "Brass", "--prefix", "X", "--order", "1")

	before := decodeData[DumpOutput](t, mustExecute(t, "--db", db, "--format", "json", "dump", "--hashes"))
	assert.Empty(t, before.Tables)

	mustExecute(t, "--db", db, "page", "add", "--counts", "16")
	changed := decodeData[DumpOutput](t, mustExecute(t, "--db", db, "--format", "json", "dump", "--hashes"))
	assert.NotEqual(t, before.Hashes[ir.TablePages], changed.Hashes[ir.TablePages])

	mustExecute(t, "--db", db, "undo")
	after := decodeData[DumpOutput](t, mustExecute(t, "--db", db, "--format", "json", "dump", "--hashes"))
	assert.Equal(t, before.Hashes, after.Hashes)

	text := mustExecute(t, "--db", db, "dump")
	assert.Contains(t, text, ir.TableMarchers+" "+after.Hashes[ir.TableMarchers])
	assert.Contains(t, text, `"drill_prefix":"X"`)
}

func TestMetricsFlag(t *testing.T) {
	db := tempDB(t)

	_, stderr, err := executeWithStderr(t, "--db", db, "--metrics", "page", "add", "--counts", "4")
	require.NoError(t, err)
	assert.Contains(t, stderr, `drillstore_actions_total{action="create-pages",outcome="ok"} 1`)
	assert.Contains(t, stderr, "drillstore_undo_groups 1")
}

func TestVerboseLogsToStderr(t *testing.T) {
	db := tempDB(t)

	out, stderr, err := executeWithStderr(t, "--db", db, "-v", "--format", "json", "init")
	require.NoError(t, err)
	assert.Contains(t, stderr, "opening database")
	decodeData[InitOutput](t, out)
}

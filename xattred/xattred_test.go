package xattred

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sokinpui/xattred/cli"
	"github.com/sokinpui/xattred/internal/attr"
	"github.com/sokinpui/xattred/internal/config"
	"github.com/sokinpui/xattred/internal/source"
	"github.com/sokinpui/xattred/internal/state"
)

// newTestApp builds an App on the in-memory backend with real files on disk
// so path resolution works.
func newTestApp(t *testing.T, files ...string) (*App, *attr.Memory, []string) {
	t.Helper()
	dir := t.TempDir()

	paths := make([]string, 0, len(files))
	for _, name := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
		paths = append(paths, p)
	}

	mem := attr.NewMemory()
	mgr, err := state.NewAt(filepath.Join(dir, "history.yaml"))
	require.NoError(t, err)

	app := &App{
		cfg:     &cli.Config{Files: paths},
		conf:    config.Default(),
		backend: mem,
		state:   mgr,
		source:  source.New(),
		log:     zap.NewNop(),
	}
	return app, mem, paths
}

func TestEditFlow(t *testing.T) {
	app, mem, paths := newTestApp(t, "doc")
	path := paths[0]
	require.NoError(t, mem.Set(path, "user.keep", `"same"`))
	require.NoError(t, mem.Set(path, "user.drop", `"old"`))
	require.NoError(t, mem.Set(path, "user.change", `"v1"`))

	ctx, err := app.BeginEdit()
	require.NoError(t, err)

	staged, err := os.ReadFile(ctx.TempPath)
	require.NoError(t, err)
	want := "# file: " + path + "\nuser.keep=\"same\"\nuser.drop=\"old\"\nuser.change=\"v1\"\n"
	assert.Equal(t, want, string(staged))

	edited := "# file: " + path + "\nuser.keep=\"same\"\nuser.change=\"v2\"\nuser.new=\"added\"\n"
	require.NoError(t, os.WriteFile(ctx.TempPath, []byte(edited), 0644))

	summary, err := app.CompleteEdit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, summary.Modified)
	assert.Empty(t, summary.Failed)

	_, err = mem.Lookup(path, "user.drop")
	assert.True(t, attr.IsNotFound(err), "deleted line removes the attribute")

	v, err := mem.Lookup(path, "user.change")
	require.NoError(t, err)
	assert.Equal(t, `"v2"`, v)

	v, err = mem.Lookup(path, "user.new")
	require.NoError(t, err)
	assert.Equal(t, `"added"`, v)

	_, err = os.Stat(ctx.TempPath)
	assert.True(t, os.IsNotExist(err), "staged file is cleaned up")

	saves := app.state.PeekRevert()
	require.Len(t, saves, 1)
	assert.Equal(t, path, saves[0].Path)
	assert.Contains(t, saves[0].Before, `user.drop="old"`)
	assert.Contains(t, saves[0].After, `user.new="added"`)
}

func TestEditNoChanges(t *testing.T) {
	app, mem, paths := newTestApp(t, "doc")
	require.NoError(t, mem.Set(paths[0], "user.a", `"1"`))

	ctx, err := app.BeginEdit()
	require.NoError(t, err)

	summary, err := app.CompleteEdit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "No changes.", summary.Message)
	assert.Empty(t, summary.Modified)

	_, err = os.Stat(ctx.TempPath)
	assert.True(t, os.IsNotExist(err))
	assert.Nil(t, app.state.PeekRevert(), "an untouched buffer records no history")
}

func TestEditMalformedKeepsStagedFile(t *testing.T) {
	app, mem, paths := newTestApp(t, "doc")
	path := paths[0]
	require.NoError(t, mem.Set(path, "user.a", `"1"`))

	ctx, err := app.BeginEdit()
	require.NoError(t, err)
	defer os.Remove(ctx.TempPath)

	require.NoError(t, os.WriteFile(ctx.TempPath, []byte("user.orphan=\"1\"\n# file: "+path+"\n"), 0644))

	_, err = app.CompleteEdit(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ctx.TempPath, "the error points at the kept file")

	_, statErr := os.Stat(ctx.TempPath)
	assert.NoError(t, statErr, "the edit is not lost")

	v, err := mem.Lookup(path, "user.a")
	require.NoError(t, err)
	assert.Equal(t, `"1"`, v, "a rejected save leaves attributes alone")
}

func TestEditSkipsDeletedBlocks(t *testing.T) {
	app, mem, paths := newTestApp(t, "one", "two")
	require.NoError(t, mem.Set(paths[0], "user.a", `"1"`))
	require.NoError(t, mem.Set(paths[1], "user.b", `"2"`))

	ctx, err := app.BeginEdit()
	require.NoError(t, err)

	// Keep only the first block, with a change.
	edited := "# file: " + paths[0] + "\nuser.a=\"9\"\n"
	require.NoError(t, os.WriteFile(ctx.TempPath, []byte(edited), 0644))

	summary, err := app.CompleteEdit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{paths[0]}, summary.Modified)
	assert.Equal(t, []string{paths[1]}, summary.Skipped)

	v, err := mem.Lookup(paths[1], "user.b")
	require.NoError(t, err)
	assert.Equal(t, `"2"`, v, "a skipped file keeps its attributes")
}

func TestEditNovelBlockIsRestored(t *testing.T) {
	app, mem, paths := newTestApp(t, "one", "extra")
	require.NoError(t, mem.Set(paths[0], "user.a", `"1"`))

	// Edit only the first file; the user hand-writes a block for the second.
	app.cfg.Files = paths[:1]

	ctx, err := app.BeginEdit()
	require.NoError(t, err)

	edited := "# file: " + paths[0] + "\nuser.a=\"1\"\n# file: " + paths[1] + "\nuser.extra=\"new\"\n"
	require.NoError(t, os.WriteFile(ctx.TempPath, []byte(edited), 0644))

	summary, err := app.CompleteEdit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{paths[1]}, summary.Modified)
	assert.Equal(t, []string{paths[0]}, summary.Unchanged)

	v, err := mem.Lookup(paths[1], "user.extra")
	require.NoError(t, err)
	assert.Equal(t, `"new"`, v)
}

func TestExecuteRevertAndRedo(t *testing.T) {
	app, mem, paths := newTestApp(t, "doc")
	path := paths[0]
	require.NoError(t, mem.Set(path, "user.a", `"1"`))

	_, err := app.applyText("# file: " + path + "\nuser.a=\"2\"\nuser.b=\"extra\"\n")
	require.NoError(t, err)

	v, _ := mem.Lookup(path, "user.a")
	require.Equal(t, `"2"`, v)

	app.cfg.Revert = true
	summary, err := app.Execute()
	require.NoError(t, err)
	assert.Equal(t, []string{path}, summary.Modified)
	assert.Equal(t, "Reverted last save.", summary.Message)

	v, err = mem.Lookup(path, "user.a")
	require.NoError(t, err)
	assert.Equal(t, `"1"`, v)
	_, err = mem.Lookup(path, "user.b")
	assert.True(t, attr.IsNotFound(err), "revert removes attributes the save added")

	app.cfg.Revert = false
	app.cfg.Redo = true
	summary, err = app.Execute()
	require.NoError(t, err)
	assert.Equal(t, "Redid last save.", summary.Message)

	v, err = mem.Lookup(path, "user.a")
	require.NoError(t, err)
	assert.Equal(t, `"2"`, v)
	v, err = mem.Lookup(path, "user.b")
	require.NoError(t, err)
	assert.Equal(t, `"extra"`, v)
}

func TestRevertWithEmptyHistory(t *testing.T) {
	app, _, _ := newTestApp(t, "doc")
	app.cfg.Revert = true

	summary, err := app.Execute()
	require.NoError(t, err)
	assert.Equal(t, "No save to revert.", summary.Message)
}

func TestApplyTextDryRun(t *testing.T) {
	app, mem, paths := newTestApp(t, "doc")
	path := paths[0]
	require.NoError(t, mem.Set(path, "user.a", `"1"`))

	app.cfg.DryRun = true
	app.recorder = attr.NewRecorder(mem)
	app.backend = app.recorder

	summary, err := app.applyText("# file: " + path + "\nuser.a=\"2\"\n")
	require.NoError(t, err)
	require.Len(t, summary.Operations, 1)
	assert.Contains(t, summary.Operations[0], "restore 1 attribute(s)")

	v, err := mem.Lookup(path, "user.a")
	require.NoError(t, err)
	assert.Equal(t, `"1"`, v, "a dry run never mutates")
	assert.Nil(t, app.state.PeekRevert(), "a dry run records no history")
}

func TestApplyTextMalformed(t *testing.T) {
	app, _, _ := newTestApp(t, "doc")

	_, err := app.applyText("user.orphan=\"1\"\n")
	require.Error(t, err)
}

func TestApplyTextUnfences(t *testing.T) {
	app, mem, paths := newTestApp(t, "doc")
	path := paths[0]

	content := "Attributes to restore:\n\n```\n# file: " + path + "\nuser.a=\"1\"\n```\n"
	summary, err := app.applyText(content)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, summary.Modified)

	v, err := mem.Lookup(path, "user.a")
	require.NoError(t, err)
	assert.Equal(t, `"1"`, v)
}

func TestExecuteRecoversPanics(t *testing.T) {
	app, _, _ := newTestApp(t, "doc")
	app.backend = nil // force a nil dereference inside the flow
	app.cfg.Print = true

	_, err := app.Execute()
	require.Error(t, err)

	var detailed *DetailedError
	require.ErrorAs(t, err, &detailed)
	assert.NotEmpty(t, detailed.Stack)
}

package session

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/xattred/internal/attr"
	"github.com/sokinpui/xattred/internal/dump"
)

func newTestSession() *Session {
	return New(dump.Record{
		Path: "/data/report.pdf",
		Attrs: []dump.Entry{
			{Name: "user.author", Value: `"ann"`},
			{Name: "user.rating", Value: `"5"`},
		},
	})
}

func restoreOps(rec *attr.Recorder) []attr.Op {
	var ops []attr.Op
	for _, op := range rec.Ops {
		if op.Kind == attr.OpRestore {
			ops = append(ops, op)
		}
	}
	return ops
}

func removeOps(rec *attr.Recorder) []attr.Op {
	var ops []attr.Op
	for _, op := range rec.Ops {
		if op.Kind == attr.OpRemove {
			ops = append(ops, op)
		}
	}
	return ops
}

func TestReconcileRemovesDeletedAttributes(t *testing.T) {
	s := newTestSession()
	rec := attr.NewRecorder(nil)

	res, err := s.Reconcile("# file: /data/report.pdf\nuser.author=\"ann\"\n", rec)
	require.NoError(t, err)

	removes := removeOps(rec)
	require.Len(t, removes, 1)
	assert.Equal(t, "/data/report.pdf", removes[0].Path)
	assert.Equal(t, "user.rating", removes[0].Name)

	restores := restoreOps(rec)
	require.Len(t, restores, 1)
	assert.Contains(t, restores[0].DumpText, "user.author=\"ann\"\n")
	assert.NotContains(t, restores[0].DumpText, "user.rating")

	assert.Equal(t, []string{"user.rating"}, res.Removed)
	assert.Equal(t, 1, res.Restored)
	assert.True(t, res.Changed)
}

func TestReconcileValueChangeIsNotRemoval(t *testing.T) {
	s := New(dump.Record{
		Path:  "/data/a",
		Attrs: []dump.Entry{{Name: "user.a", Value: `"1"`}},
	})
	rec := attr.NewRecorder(nil)

	res, err := s.Reconcile("# file: /data/a\nuser.a=\"2\"\n", rec)
	require.NoError(t, err)

	assert.Empty(t, removeOps(rec))
	restores := restoreOps(rec)
	require.Len(t, restores, 1)
	assert.Contains(t, restores[0].DumpText, "user.a=\"2\"\n")

	assert.Empty(t, res.Removed)
	assert.True(t, res.Changed)
}

func TestReconcileUnchangedStillRestores(t *testing.T) {
	s := newTestSession()
	rec := attr.NewRecorder(nil)

	// Same attributes, reordered. Order is display-only, so nothing changed.
	res, err := s.Reconcile("# file: /data/report.pdf\nuser.rating=\"5\"\nuser.author=\"ann\"\n", rec)
	require.NoError(t, err)

	assert.Empty(t, removeOps(rec))
	require.Len(t, restoreOps(rec), 1)
	assert.False(t, res.Changed)
	assert.Equal(t, 2, res.Restored)
}

func TestReconcileMalformedIssuesNoCalls(t *testing.T) {
	s := newTestSession()
	rec := attr.NewRecorder(nil)

	_, err := s.Reconcile("user.orphan=\"1\"\n# file: /data/report.pdf\n", rec)
	require.Error(t, err)
	assert.True(t, dump.IsMalformed(err))
	assert.Empty(t, rec.Ops, "a rejected save must not touch the backend")
	assert.False(t, s.Closed(), "the edit is not lost; the session stays open")

	// A corrected retry on the same session succeeds.
	_, err = s.Reconcile("# file: /data/report.pdf\nuser.author=\"ann\"\nuser.rating=\"5\"\n", rec)
	require.NoError(t, err)
	require.Len(t, restoreOps(rec), 1)
}

func TestReconcileRequiresSingleBlock(t *testing.T) {
	s := newTestSession()
	rec := attr.NewRecorder(nil)

	text := "# file: /data/report.pdf\nuser.author=\"ann\"\n# file: /data/other\nuser.x=\"1\"\n"
	_, err := s.Reconcile(text, rec)
	require.Error(t, err)
	assert.True(t, dump.IsMalformed(err))
	assert.Contains(t, err.Error(), "found 2")
	assert.Empty(t, rec.Ops)
	assert.False(t, s.Closed())

	// An empty edit (no header at all) is rejected the same way.
	_, err = s.Reconcile("\n\n", rec)
	require.Error(t, err)
	assert.True(t, dump.IsMalformed(err))
	assert.Contains(t, err.Error(), "found 0")
}

func TestReconcileConsumesSession(t *testing.T) {
	s := newTestSession()
	rec := attr.NewRecorder(nil)

	_, err := s.Reconcile("# file: /data/report.pdf\nuser.author=\"ann\"\nuser.rating=\"5\"\n", rec)
	require.NoError(t, err)
	assert.True(t, s.Closed())

	_, err = s.Reconcile("# file: /data/report.pdf\nuser.author=\"ann\"\n", rec)
	assert.ErrorIs(t, err, ErrSessionClosed)
	require.Len(t, rec.Ops, 1, "a closed session issues no further calls")
}

func TestReconcileAfterClose(t *testing.T) {
	s := newTestSession()
	s.Close()

	rec := attr.NewRecorder(nil)
	_, err := s.Reconcile("# file: /data/report.pdf\nuser.author=\"ann\"\n", rec)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Empty(t, rec.Ops)
}

func TestReconcileHeaderPathCannotRedirect(t *testing.T) {
	s := newTestSession()
	rec := attr.NewRecorder(nil)

	_, err := s.Reconcile("# file: /etc/passwd\nuser.author=\"ann\"\nuser.rating=\"5\"\n", rec)
	require.NoError(t, err)

	restores := restoreOps(rec)
	require.Len(t, restores, 1)
	assert.True(t, strings.HasPrefix(restores[0].DumpText, "# file: /data/report.pdf\n"))
}

// failAfter wraps a recorder and fails the remove of one named attribute.
type failAfter struct {
	*attr.Recorder
	failName string
}

func (f *failAfter) Remove(path, name string) error {
	if name == f.failName {
		return &attr.ExternalToolError{Op: "remove", Path: path, Name: name, Err: errors.New("exit status 1")}
	}
	return f.Recorder.Remove(path, name)
}

func TestReconcileAbortsOnRemoveFailure(t *testing.T) {
	s := New(dump.Record{
		Path: "/data/a",
		Attrs: []dump.Entry{
			{Name: "user.a", Value: `"1"`},
			{Name: "user.b", Value: `"2"`},
			{Name: "user.c", Value: `"3"`},
		},
	})
	be := &failAfter{Recorder: attr.NewRecorder(nil), failName: "user.b"}

	res, err := s.Reconcile("# file: /data/a\nuser.c=\"3\"\n", be)
	require.Error(t, err)
	var te *attr.ExternalToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "user.b", te.Name)

	// user.a was removed before the failure and stays removed; the restore
	// never ran.
	assert.Equal(t, []string{"user.a"}, res.Removed)
	require.Len(t, be.Ops, 1)
	assert.Equal(t, attr.OpRemove, be.Ops[0].Kind)
	assert.Empty(t, restoreOps(be.Recorder))

	assert.True(t, s.Closed(), "a partially applied save consumes the session")
}

// failRestore records nothing and fails the bulk restore.
type failRestore struct {
	*attr.Recorder
}

func (f *failRestore) Restore(dumpText string) error {
	return &attr.ExternalToolError{Op: "restore", Err: errors.New("exit status 1")}
}

func TestReconcileSurfacesRestoreFailure(t *testing.T) {
	s := New(dump.Record{
		Path:  "/data/a",
		Attrs: []dump.Entry{{Name: "user.a", Value: `"1"`}},
	})
	be := &failRestore{Recorder: attr.NewRecorder(nil)}

	res, err := s.Reconcile("# file: /data/a\nuser.a=\"2\"\n", be)
	require.Error(t, err)
	var te *attr.ExternalToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "restore", te.Op)
	assert.Zero(t, res.Restored)
	assert.True(t, s.Closed())
}

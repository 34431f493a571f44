// Package session implements the edit-reconciliation step: it remembers the
// attribute set a file had when editing began and, given the edited text,
// issues the removals and the bulk restore that make the file match.
package session

import (
	"errors"
	"fmt"

	"github.com/sokinpui/xattred/internal/attr"
	"github.com/sokinpui/xattred/internal/dump"
)

// ErrSessionClosed reports a Reconcile or Close on a session that was already
// consumed by an earlier save or cancel.
var ErrSessionClosed = errors.New("edit session already closed")

// Session is one in-progress edit of one file's attributes. It is created
// from the snapshot taken when editing starts and consumed by the save (or
// cancel) that ends it.
type Session struct {
	Path     string
	Original []dump.Entry

	closed bool
}

// New starts a session from the record returned by the backend when editing
// began.
func New(rec dump.Record) *Session {
	return &Session{Path: rec.Path, Original: rec.Attrs}
}

// Closed reports whether the session has been consumed.
func (s *Session) Closed() bool { return s.closed }

// Close cancels the session without touching the file. Closing twice is
// harmless.
func (s *Session) Close() { s.closed = true }

// Result describes what a save did to the file.
type Result struct {
	Removed  []string // attribute names removed, in original dump order
	Restored int      // attributes written by the bulk restore
	Changed  bool     // false when the edited set equals the original set
}

// Reconcile parses the edited text and converges the file onto it: every
// original attribute whose name is absent from the edited block is removed,
// then the whole edited block is applied with one restore call. The restore
// carries the session's own path, so an edited header line cannot redirect
// the save to another file.
//
// A parse failure issues no backend calls and leaves the session open for a
// corrected retry. Once any backend call has been made the session is
// consumed, even on failure; attributes removed before a failing call stay
// removed.
func (s *Session) Reconcile(editedText string, be attr.Backend) (Result, error) {
	if s.closed {
		return Result{}, ErrSessionClosed
	}

	d, err := dump.Parse(editedText)
	if err != nil {
		return Result{}, err
	}
	if len(d) != 1 {
		return Result{}, &dump.MalformedDumpError{
			Reason: fmt.Sprintf("expected exactly one file block, found %d", len(d)),
		}
	}
	edited := d[0]

	s.closed = true

	var res Result
	for _, orig := range s.Original {
		if edited.Has(orig.Name) {
			continue
		}
		if err := be.Remove(s.Path, orig.Name); err != nil {
			return res, err
		}
		res.Removed = append(res.Removed, orig.Name)
	}

	block := dump.Record{Path: s.Path, Attrs: edited.Attrs}
	if err := be.Restore(block.String()); err != nil {
		return res, err
	}
	res.Restored = len(edited.Attrs)

	original := dump.Record{Path: s.Path, Attrs: s.Original}
	res.Changed = len(res.Removed) > 0 || !original.SameAttrs(edited)
	return res, nil
}

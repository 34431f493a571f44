// Package attr abstracts the facility that actually reads and writes
// extended attributes. The rest of the program speaks to a Backend and never
// touches the filesystem directly, so the same reconciliation logic runs
// against syscalls, the getfattr/setfattr tools, or an in-process store.
package attr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sokinpui/xattred/internal/dump"
)

// Backend is the attribute-manipulation collaborator. Values crossing this
// interface are raw dump tokens; backends that need real bytes decode and
// encode them with the dump package.
type Backend interface {
	// Get returns one record per named path, in argument order. Paths
	// without attributes yield a record with an empty attribute list.
	Get(paths []string) (dump.Dump, error)
	// Lookup returns the value token of a single attribute. A missing
	// attribute reports ErrAttrNotFound, distinguishable from tool failure.
	Lookup(path, name string) (string, error)
	// Set writes one attribute.
	Set(path, name, value string) error
	// Remove deletes one attribute.
	Remove(path, name string) error
	// Restore applies a full dump in one call: every attribute of every
	// record is created or updated. Restoring identical content twice is a
	// no-op. Restore never removes attributes.
	Restore(dumpText string) error
}

// ErrAttrNotFound reports a query for an attribute the file does not carry.
var ErrAttrNotFound = errors.New("no such attribute")

// IsNotFound returns a boolean indicating whether the error reports a
// missing attribute.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAttrNotFound)
}

// ExternalToolError reports a failed attribute operation together with the
// identity of the operation that failed.
type ExternalToolError struct {
	Op     string // operation kind, e.g. "getfattr" or "set"
	Path   string
	Name   string
	Err    error
	Detail string // tool stderr, when one ran
}

func (e *ExternalToolError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}
	if e.Name != "" {
		b.WriteString(" " + e.Name)
	}
	b.WriteString(": " + e.Err.Error())
	if d := strings.TrimSpace(e.Detail); d != "" {
		b.WriteString(": " + d)
	}
	return b.String()
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// OpKind names a mutating backend call.
type OpKind string

const (
	OpSet     OpKind = "set"
	OpRemove  OpKind = "remove"
	OpRestore OpKind = "restore"
)

// Op is one recorded backend call, kept so dry runs and tests can report
// what a save would have issued.
type Op struct {
	Kind     OpKind
	Path     string
	Name     string
	Value    string
	DumpText string
}

func (o Op) String() string {
	switch o.Kind {
	case OpSet:
		return fmt.Sprintf("set %s=%s on %s", o.Name, o.Value, o.Path)
	case OpRemove:
		return fmt.Sprintf("remove %s from %s", o.Name, o.Path)
	case OpRestore:
		d, err := dump.Parse(o.DumpText)
		if err != nil {
			return "restore (unparsable dump)"
		}
		n := 0
		for _, rec := range d {
			n += len(rec.Attrs)
		}
		return fmt.Sprintf("restore %d attribute(s) to %s", n, strings.Join(d.Paths(), ", "))
	default:
		return string(o.Kind)
	}
}

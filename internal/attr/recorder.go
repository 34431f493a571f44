package attr

import (
	"fmt"

	"github.com/sokinpui/xattred/internal/dump"
)

// Recorder forwards reads to an inner backend and records mutating calls
// instead of issuing them. It implements dry runs and lets tests assert the
// exact call sequence the reconciler produced.
type Recorder struct {
	Backend Backend // serves Get and Lookup; may be nil when reads don't matter
	Ops     []Op
}

// NewRecorder wraps a backend. A nil backend answers reads with empty
// records.
func NewRecorder(inner Backend) *Recorder {
	return &Recorder{Backend: inner}
}

// Calls renders the recorded operations for display.
func (r *Recorder) Calls() []string {
	calls := make([]string, len(r.Ops))
	for i, op := range r.Ops {
		calls[i] = op.String()
	}
	return calls
}

func (r *Recorder) Get(paths []string) (dump.Dump, error) {
	if r.Backend == nil {
		d := make(dump.Dump, 0, len(paths))
		for _, path := range paths {
			d = append(d, dump.Record{Path: path})
		}
		return d, nil
	}
	return r.Backend.Get(paths)
}

func (r *Recorder) Lookup(path, name string) (string, error) {
	if r.Backend == nil {
		return "", fmt.Errorf("%s %s: %w", path, name, ErrAttrNotFound)
	}
	return r.Backend.Lookup(path, name)
}

func (r *Recorder) Set(path, name, value string) error {
	r.Ops = append(r.Ops, Op{Kind: OpSet, Path: path, Name: name, Value: value})
	return nil
}

func (r *Recorder) Remove(path, name string) error {
	r.Ops = append(r.Ops, Op{Kind: OpRemove, Path: path, Name: name})
	return nil
}

func (r *Recorder) Restore(dumpText string) error {
	r.Ops = append(r.Ops, Op{Kind: OpRestore, DumpText: dumpText})
	return nil
}

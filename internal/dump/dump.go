// Package dump implements the getfattr/setfattr dump text format: parsing
// dump text into per-file attribute records, serializing records back to the
// identical text, and classifying the encoding of raw attribute values.
package dump

import (
	"strings"
)

// Entry is a single extended attribute as it appears in a dump: the value is
// the raw encoded token from the attribute line, never the decoded bytes.
type Entry struct {
	Name  string
	Value string
}

// Record is the attribute set of one file, in dump order.
type Record struct {
	Path  string
	Attrs []Entry
}

// Find returns the value of the named attribute.
func (r Record) Find(name string) (string, bool) {
	for _, e := range r.Attrs {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

// Has reports whether the record contains the named attribute.
func (r Record) Has(name string) bool {
	_, ok := r.Find(name)
	return ok
}

// SameAttrs reports whether two records carry the same attribute set,
// ignoring order. Line order in a dump is preserved for round-trip fidelity
// but carries no meaning, so this is the comparison that decides whether an
// edit changed anything.
func (r Record) SameAttrs(o Record) bool {
	if len(r.Attrs) != len(o.Attrs) {
		return false
	}
	for _, e := range r.Attrs {
		v, ok := o.Find(e.Name)
		if !ok || v != e.Value {
			return false
		}
	}
	return true
}

// String serializes the record as a single-file dump block: a `# file:`
// header line followed by one name=value line per attribute, values emitted
// verbatim. Parse(r.String()) yields r again for any record whose names are
// free of '=' and whose values are free of newlines.
func (r Record) String() string {
	var b strings.Builder
	b.WriteString(headerPrefix)
	b.WriteString(r.Path)
	b.WriteByte('\n')
	for _, e := range r.Attrs {
		b.WriteString(e.Name)
		b.WriteByte('=')
		b.WriteString(e.Value)
		b.WriteByte('\n')
	}
	return b.String()
}

// Dump is an ordered sequence of per-file records, one per `# file:` header.
type Dump []Record

// Find returns the record for the given path.
func (d Dump) Find(path string) (Record, bool) {
	for _, r := range d {
		if r.Path == path {
			return r, true
		}
	}
	return Record{}, false
}

// Paths returns the record paths in dump order.
func (d Dump) Paths() []string {
	paths := make([]string, len(d))
	for i, r := range d {
		paths[i] = r.Path
	}
	return paths
}

// String serializes the dump as concatenated single-file blocks.
func (d Dump) String() string {
	var b strings.Builder
	for _, r := range d {
		b.WriteString(r.String())
	}
	return b.String()
}

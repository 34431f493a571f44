package attr

import (
	"fmt"

	"github.com/sokinpui/xattred/internal/dump"
)

// Memory is an in-process attribute store. It backs the tests and serves
// library consumers that want reconciliation semantics without touching a
// real filesystem. Every path implicitly exists with an empty attribute set.
type Memory struct {
	files map[string]*memFile
}

type memFile struct {
	order []string
	data  map[string][]byte
}

// NewMemory creates an empty in-process backend.
func NewMemory() *Memory {
	return &Memory{files: make(map[string]*memFile)}
}

func (m *Memory) file(path string) *memFile {
	f, ok := m.files[path]
	if !ok {
		f = &memFile{data: make(map[string][]byte)}
		m.files[path] = f
	}
	return f
}

func (m *Memory) Get(paths []string) (dump.Dump, error) {
	d := make(dump.Dump, 0, len(paths))
	for _, path := range paths {
		rec := dump.Record{Path: path}
		if f, ok := m.files[path]; ok {
			for _, name := range f.order {
				rec.Attrs = append(rec.Attrs, dump.Entry{Name: name, Value: dump.EncodeValue(f.data[name])})
			}
		}
		d = append(d, rec)
	}
	return d, nil
}

func (m *Memory) Lookup(path, name string) (string, error) {
	if f, ok := m.files[path]; ok {
		if data, ok := f.data[name]; ok {
			return dump.EncodeValue(data), nil
		}
	}
	return "", fmt.Errorf("%s %s: %w", path, name, ErrAttrNotFound)
}

func (m *Memory) Set(path, name, value string) error {
	data, err := dump.DecodeValue(value)
	if err != nil {
		return fmt.Errorf("set %s on %s: %w", name, path, err)
	}
	f := m.file(path)
	if _, ok := f.data[name]; !ok {
		f.order = append(f.order, name)
	}
	f.data[name] = data
	return nil
}

func (m *Memory) Remove(path, name string) error {
	f, ok := m.files[path]
	if !ok {
		return fmt.Errorf("%s %s: %w", path, name, ErrAttrNotFound)
	}
	if _, ok := f.data[name]; !ok {
		return fmt.Errorf("%s %s: %w", path, name, ErrAttrNotFound)
	}
	delete(f.data, name)
	for i, n := range f.order {
		if n == name {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) Restore(dumpText string) error {
	d, err := dump.Parse(dumpText)
	if err != nil {
		return err
	}
	for _, rec := range d {
		for _, e := range rec.Attrs {
			if err := m.Set(rec.Path, e.Name, e.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

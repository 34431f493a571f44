package attr

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/pkg/xattr"
	"go.uber.org/zap"

	"github.com/sokinpui/xattred/internal/dump"
)

// Syscall reads and writes attributes directly through the xattr syscalls.
// Symlinks are followed, matching the default behavior of the getfattr and
// setfattr tools.
type Syscall struct {
	match *regexp.Regexp // nil selects every attribute
	log   *zap.Logger
}

// NewSyscall creates the syscall backend. A nil match pattern selects every
// attribute the caller may list.
func NewSyscall(match *regexp.Regexp, log *zap.Logger) *Syscall {
	if log == nil {
		log = zap.NewNop()
	}
	return &Syscall{match: match, log: log}
}

func (s *Syscall) Get(paths []string) (dump.Dump, error) {
	d := make(dump.Dump, 0, len(paths))
	for _, path := range paths {
		names, err := xattr.List(path)
		if err != nil {
			// A filesystem without xattr support holds no attributes; that
			// is an empty record, not a failure.
			if !isUnsupported(err) {
				return nil, wrapSyscall("list", path, "", err)
			}
			names = nil
		}
		rec := dump.Record{Path: path}
		for _, name := range names {
			if s.match != nil && !s.match.MatchString(name) {
				continue
			}
			data, err := xattr.Get(path, name)
			if err != nil {
				if isNoAttr(err) {
					// Removed between list and get.
					continue
				}
				return nil, wrapSyscall("get", path, name, err)
			}
			rec.Attrs = append(rec.Attrs, dump.Entry{Name: name, Value: dump.EncodeValue(data)})
		}
		s.log.Debug("listed attributes", zap.String("path", path), zap.Int("count", len(rec.Attrs)))
		d = append(d, rec)
	}
	return d, nil
}

func (s *Syscall) Lookup(path, name string) (string, error) {
	data, err := xattr.Get(path, name)
	if err != nil {
		if isNoAttr(err) {
			return "", fmt.Errorf("%s %s: %w", path, name, ErrAttrNotFound)
		}
		return "", wrapSyscall("get", path, name, err)
	}
	return dump.EncodeValue(data), nil
}

func (s *Syscall) Set(path, name, value string) error {
	data, err := dump.DecodeValue(value)
	if err != nil {
		return fmt.Errorf("set %s on %s: %w", name, path, err)
	}
	if err := xattr.Set(path, name, data); err != nil {
		return wrapSyscall("set", path, name, err)
	}
	s.log.Debug("set attribute", zap.String("path", path), zap.String("name", name))
	return nil
}

func (s *Syscall) Remove(path, name string) error {
	if err := xattr.Remove(path, name); err != nil {
		if isNoAttr(err) {
			return fmt.Errorf("%s %s: %w", path, name, ErrAttrNotFound)
		}
		return wrapSyscall("remove", path, name, err)
	}
	s.log.Debug("removed attribute", zap.String("path", path), zap.String("name", name))
	return nil
}

func (s *Syscall) Restore(dumpText string) error {
	d, err := dump.Parse(dumpText)
	if err != nil {
		return err
	}
	for _, rec := range d {
		for _, e := range rec.Attrs {
			if err := s.Set(rec.Path, e.Name, e.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// wrapSyscall strips the xattr library's own wrapper so the operation
// identity lives in one place.
func wrapSyscall(op, path, name string, err error) error {
	var xe *xattr.Error
	if errors.As(err, &xe) {
		err = xe.Err
	}
	return &ExternalToolError{Op: op, Path: path, Name: name, Err: err}
}

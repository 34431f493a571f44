package attr

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/sokinpui/xattred/internal/dump"
)

// Tools shells out to the getfattr and setfattr utilities instead of making
// syscalls. The tool locations come from configuration so packaged or
// non-PATH installs work.
type Tools struct {
	getPath string
	setPath string
	match   string // handed to getfattr -m verbatim; empty means tool default
	log     *zap.Logger
}

// NewTools creates the tool-based backend. Empty tool paths fall back to
// looking the standard names up on PATH.
func NewTools(getPath, setPath, match string, log *zap.Logger) *Tools {
	if getPath == "" {
		getPath = "getfattr"
	}
	if setPath == "" {
		setPath = "setfattr"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Tools{getPath: getPath, setPath: setPath, match: match, log: log}
}

func getArgs(match string, paths []string) []string {
	args := []string{"--absolute-names", "-d"}
	if match != "" {
		args = append(args, "-m", match)
	}
	return append(args, paths...)
}

func lookupArgs(name, path string) []string {
	return []string{"--absolute-names", "-n", name, path}
}

func setArgs(name, value, path string) []string {
	return []string{"-n", name, "-v", value, path}
}

func removeArgs(name, path string) []string {
	return []string{"-x", name, path}
}

func restoreArgs(file string) []string {
	return []string{"--restore=" + file}
}

func (t *Tools) Get(paths []string) (dump.Dump, error) {
	out, err := t.run(t.getPath, "getfattr", "", "", getArgs(t.match, paths))
	if err != nil {
		return nil, err
	}
	parsed, err := dump.Parse(out)
	if err != nil {
		return nil, fmt.Errorf("parse getfattr output: %w", err)
	}
	// getfattr omits files without matching attributes; hand back one record
	// per requested path regardless, in request order.
	d := make(dump.Dump, 0, len(paths))
	for _, path := range paths {
		if rec, ok := parsed.Find(path); ok {
			d = append(d, rec)
		} else {
			d = append(d, dump.Record{Path: path})
		}
	}
	return d, nil
}

func (t *Tools) Lookup(path, name string) (string, error) {
	out, err := t.run(t.getPath, "getfattr", path, name, lookupArgs(name, path))
	if err != nil {
		var te *ExternalToolError
		if errors.As(err, &te) && strings.Contains(te.Detail, "No such attribute") {
			return "", fmt.Errorf("%s %s: %w", path, name, ErrAttrNotFound)
		}
		return "", err
	}
	parsed, err := dump.Parse(out)
	if err != nil {
		return "", fmt.Errorf("parse getfattr output: %w", err)
	}
	if rec, ok := parsed.Find(path); ok {
		if v, ok := rec.Find(name); ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s %s: %w", path, name, ErrAttrNotFound)
}

func (t *Tools) Set(path, name, value string) error {
	_, err := t.run(t.setPath, "setfattr", path, name, setArgs(name, value, path))
	return err
}

func (t *Tools) Remove(path, name string) error {
	_, err := t.run(t.setPath, "setfattr", path, name, removeArgs(name, path))
	return err
}

// Restore stages the dump text in a transient file for setfattr --restore.
// The file exists only for the duration of the call and is removed on every
// exit path.
func (t *Tools) Restore(dumpText string) error {
	tmp, err := os.CreateTemp("", "xattred-restore-")
	if err != nil {
		return fmt.Errorf("failed to stage restore file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(dumpText); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to stage restore file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to stage restore file: %w", err)
	}

	_, err = t.run(t.setPath, "setfattr", "", "", restoreArgs(tmp.Name()))
	return err
}

func (t *Tools) run(bin, op, path, name string, args []string) (string, error) {
	cmd := exec.Command(bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	t.log.Debug("running attribute tool", zap.String("bin", bin), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		return "", &ExternalToolError{Op: op, Path: path, Name: name, Err: err, Detail: stderr.String()}
	}
	return stdout.String(), nil
}

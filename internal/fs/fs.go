package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

// Absolutize resolves every path to absolute form and verifies it exists.
// Attribute dumps always carry absolute paths, so resolution happens once,
// up front, before any session starts.
func Absolutize(paths []string) ([]string, error) {
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("could not resolve %s: %w", p, err)
		}
		if _, err := os.Stat(a); err != nil {
			return nil, err
		}
		abs = append(abs, a)
	}
	return abs, nil
}

// StateDir returns the directory holding edit history, creating it if
// needed. XDG_STATE_HOME is honored, with ~/.local/state as the fallback.
func StateDir() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not locate home directory: %w", err)
		}
		base = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(base, "xattred")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create state directory: %w", err)
	}
	return dir, nil
}

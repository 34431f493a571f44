package xattred

import (
	"fmt"

	"github.com/sokinpui/xattred/cli"
	"github.com/sokinpui/xattred/internal/fs"
)

// Config for using xattred as a library.
type Config struct {
	// Backend selects how attributes are read and written: "syscall"
	// (default) or "tools".
	Backend string
	// Match filters attribute names. Use '-' for all namespaces.
	Match string
	// DryRun records the operations instead of issuing them.
	DryRun bool
}

// Dump returns the serialized attribute dump of the given files.
func Dump(paths []string, config Config) (string, error) {
	app, err := New(&cli.Config{
		Backend: config.Backend,
		Match:   config.Match,
		DryRun:  config.DryRun,
	})
	if err != nil {
		return "", fmt.Errorf("failed to initialize xattred app: %w", err)
	}

	abs, err := fs.Absolutize(paths)
	if err != nil {
		return "", err
	}
	d, err := app.backend.Get(abs)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// Apply parses the given dump text and applies it to the files it names.
// It returns a summary of the operations in a map.
func Apply(content string, config Config) (map[string][]string, error) {
	app, err := New(&cli.Config{
		Backend: config.Backend,
		Match:   config.Match,
		DryRun:  config.DryRun,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize xattred app: %w", err)
	}

	summary, err := app.applyText(content)
	if err != nil {
		return nil, err
	}

	result := map[string][]string{
		"Modified":   summary.Modified,
		"Unchanged":  summary.Unchanged,
		"Failed":     summary.Failed,
		"Operations": summary.Operations,
	}
	return result, nil
}

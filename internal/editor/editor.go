// Package editor opens the dump text in the user's editor and reports when
// editing is done, either by running a child editor on the controlling
// terminal or by opening a buffer inside the Neovim instance that spawned
// this process.
package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Resolve returns the editor command line to use: explicit configuration
// first, then $VISUAL, then $EDITOR, then vi.
func Resolve(configured string) []string {
	for _, candidate := range []string{configured, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if fields := strings.Fields(candidate); len(fields) > 0 {
			return fields
		}
	}
	return []string{"vi"}
}

// Command builds the command that opens path in the user's editor, attached
// to the terminal.
func Command(configured, path string) *exec.Cmd {
	argv := Resolve(configured)
	cmd := exec.Command(argv[0], append(argv[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

// Edit blocks until the user's editor exits.
func Edit(configured, path string) error {
	cmd := Command(configured, path)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %s failed: %w", cmd.Path, err)
	}
	return nil
}

package xattred_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/xattred/xattred"
)

func TestLibraryInterface(t *testing.T) {
	// Keep config and history inside the test sandbox.
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_STATE_HOME", tempDir)
	t.Setenv("XATTRED_CONFIG", "")

	samplePath := filepath.Join(tempDir, "sample.txt")
	require.NoError(t, os.WriteFile(samplePath, []byte("hello"), 0644))

	t.Run("Dump", func(t *testing.T) {
		out, err := xattred.Dump([]string{samplePath}, xattred.Config{})
		require.NoError(t, err)
		assert.Contains(t, out, "# file: "+samplePath+"\n")
	})

	t.Run("Dump missing file", func(t *testing.T) {
		_, err := xattred.Dump([]string{filepath.Join(tempDir, "absent")}, xattred.Config{})
		assert.Error(t, err)
	})

	t.Run("Apply dry run", func(t *testing.T) {
		content := "# file: " + samplePath + "\nuser.note=\"hi\"\n"
		result, err := xattred.Apply(content, xattred.Config{DryRun: true})
		require.NoError(t, err)

		assert.Equal(t, []string{samplePath}, result["Modified"])
		require.Len(t, result["Operations"], 1)
		assert.Contains(t, result["Operations"][0], samplePath)
	})

	t.Run("Apply malformed", func(t *testing.T) {
		_, err := xattred.Apply("user.orphan=\"1\"\n", xattred.Config{DryRun: true})
		assert.Error(t, err)
	})
}

package cli

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// everything fn wrote. Tests using it cannot run in parallel.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

// resetFlags restores the package level flag variables after the test.
func resetFlags(t *testing.T) {
	t.Helper()

	oldCfg, oldRoot, oldLevel := cfgFile, rootFlag, levelFlag
	oldInc, oldJSON, oldVerbose, oldQuiet := incrementalFlag, jsonFlag, verbose, quietFlag
	t.Cleanup(func() {
		cfgFile, rootFlag, levelFlag = oldCfg, oldRoot, oldLevel
		incrementalFlag, jsonFlag, verbose, quietFlag = oldInc, oldJSON, oldVerbose, oldQuiet
	})
}

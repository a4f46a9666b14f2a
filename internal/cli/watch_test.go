package cli

// Test Plan for the watch command output:
// - writeWatchReport prints a timestamped all-clear line when the
//   triggered run found nothing
// - writeWatchReport lists the issues of the triggered run

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvp-joe/phpscan/internal/analyzer"
	"github.com/mvp-joe/phpscan/internal/issue"
)

func TestWriteWatchReport_NoIssues(t *testing.T) {
	t.Parallel()

	rep := &analyzer.Report{FilesAnalyzed: 1, FilesReused: 1}

	var buf bytes.Buffer
	writeWatchReport(&buf, rep)

	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] ✓ 2 files checked, no issues\n$`, buf.String())
}

func TestWriteWatchReport_Issues(t *testing.T) {
	t.Parallel()

	rep := &analyzer.Report{
		FilesAnalyzed: 1,
		Issues: []issue.Issue{
			issue.NewError("func-call", "Function foo not found.", "src/a.php", 3, 1),
		},
	}

	var buf bytes.Buffer
	writeWatchReport(&buf, rep)

	out := buf.String()
	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] ✗ 1 file checked, 1 issue:\n`, out)
	assert.Contains(t, out, "  src/a.php:3:1: error: Function foo not found.\n")
}

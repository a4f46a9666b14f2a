package cli

// Test Plan for the analyze command:
// - writeTextReport prints issue lines, tips and the summary
// - writeTextReport on a clean report prints the checkmark summary
// - writeJSONReport emits the machine readable shape with a non-null
//   issues array
// - plural formats singular and plural counts
// - runAnalyze end to end: a project with an unknown function call
//   prints the issue and exits non-zero via errIssuesFound
// - runAnalyze end to end: a clean project returns nil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/phpscan/internal/analyzer"
	"github.com/mvp-joe/phpscan/internal/issue"
)

func TestWriteTextReport_CleanProject(t *testing.T) {
	t.Parallel()

	rep := &analyzer.Report{
		Level:       2,
		FilesTotal:  3,
		FilesReused: 1,
		Duration:    1234 * time.Millisecond,
	}

	var buf bytes.Buffer
	writeTextReport(&buf, rep)

	assert.Equal(t, "✓ No errors found (level 2, 3 files, 1 from cache, 1.2s)\n", buf.String())
}

func TestWriteTextReport_IssuesAndSummary(t *testing.T) {
	t.Parallel()

	issues := []issue.Issue{
		issue.NewError("func-call", "Function foo not found.", "src/a.php", 4, 1).
			WithIdentifier("function.notFound").
			WithTip("Did you mean foo_bar?"),
		issue.NewWarning("var-undef", "Variable $x might not be defined.", "src/b.php", 9, 5).
			WithIdentifier("variable.maybeUndefined"),
	}
	rep := &analyzer.Report{
		Level:         1,
		Issues:        issues,
		FilesTotal:    2,
		FilesAnalyzed: 2,
		IssuesIgnored: 3,
		Duration:      2 * time.Second,
	}

	var buf bytes.Buffer
	writeTextReport(&buf, rep)

	want := `src/a.php:4:1: error: Function foo not found. [function.notFound]
  tip: Did you mean foo_bar?
src/b.php:9:5: warning: Variable $x might not be defined. [variable.maybeUndefined]

✗ Found 1 error and 1 warning (level 1, 2 files, 0 from cache, 2.0s)
  3 issues ignored by configuration
`
	assert.Equal(t, want, buf.String())
}

func TestWriteJSONReport(t *testing.T) {
	t.Parallel()

	rep := &analyzer.Report{
		RunID:         "run-1",
		Level:         0,
		FilesTotal:    5,
		FilesAnalyzed: 4,
		FilesReused:   1,
		Issues: []issue.Issue{
			issue.NewError("func-call", "Function foo not found.", "a.php", 2, 1),
		},
		Duration: 1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	require.NoError(t, writeJSONReport(&buf, rep))

	var got jsonReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 5, got.FilesTotal)
	assert.Equal(t, 4, got.FilesAnalyzed)
	assert.Equal(t, 1, got.FilesReused)
	assert.Equal(t, 1, got.Errors)
	assert.Equal(t, 0, got.Warnings)
	assert.Equal(t, int64(1500), got.DurationMS)
	require.Len(t, got.Issues, 1)
	assert.Equal(t, "a.php", got.Issues[0].File)
}

func TestWriteJSONReport_EmptyIssuesIsArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeJSONReport(&buf, &analyzer.Report{}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	// Test: consumers get [] rather than null.
	issues, ok := got["issues"].([]any)
	require.True(t, ok)
	assert.Empty(t, issues)
}

func TestPlural(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1 error", plural(1, "error"))
	assert.Equal(t, "2 errors", plural(2, "error"))
	assert.Equal(t, "0 issues", plural(0, "issue"))
}

func TestRunAnalyze_ProjectWithErrors(t *testing.T) {
	// Note: Cannot use t.Parallel() because the test manipulates
	// os.Stdout and the package level flags.
	resetFlags(t)

	dir := t.TempDir()
	php := "<?php\nmissing_fn();\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.php"), []byte(php), 0o644))

	rootFlag = dir
	jsonFlag = true
	quietFlag = true

	var runErr error
	out := captureStdout(t, func() {
		runErr = runAnalyze(analyzeCmd, nil)
	})

	require.ErrorIs(t, runErr, errIssuesFound)

	var got jsonReport
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1, got.Errors)
	require.Len(t, got.Issues, 1)
	assert.Equal(t, "app.php", got.Issues[0].File)
	assert.Equal(t, 2, got.Issues[0].Line)
	assert.Equal(t, "Function missing_fn not found.", got.Issues[0].Message)
}

func TestRunAnalyze_CleanProject(t *testing.T) {
	resetFlags(t)

	dir := t.TempDir()
	php := "<?php\nfunction greet() {\n}\ngreet();\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.php"), []byte(php), 0o644))

	rootFlag = dir
	quietFlag = true

	var runErr error
	out := captureStdout(t, func() {
		runErr = runAnalyze(analyzeCmd, nil)
	})

	require.NoError(t, runErr)
	assert.Contains(t, out, "✓ No errors found")
}

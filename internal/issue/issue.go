// Package issue defines the diagnostic model shared by all checks and the
// ordering contract consumers rely on for deterministic output.
package issue

import "sort"

// Severity classifies an issue as an error or a warning.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Issue is a single diagnostic finding with a precise source location.
// Line and Column are 1-based.
type Issue struct {
	CheckID    string   `json:"check_id"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Column     int      `json:"column"`
	Identifier string   `json:"identifier,omitempty"`
	Tip        string   `json:"tip,omitempty"`
}

// NewError creates an error-severity issue.
func NewError(checkID, message, file string, line, column int) Issue {
	return Issue{
		CheckID:  checkID,
		Severity: SeverityError,
		Message:  message,
		File:     file,
		Line:     line,
		Column:   column,
	}
}

// NewWarning creates a warning-severity issue.
func NewWarning(checkID, message, file string, line, column int) Issue {
	return Issue{
		CheckID:  checkID,
		Severity: SeverityWarning,
		Message:  message,
		File:     file,
		Line:     line,
		Column:   column,
	}
}

// WithIdentifier sets the machine-readable identifier and returns the issue.
func (i Issue) WithIdentifier(id string) Issue {
	i.Identifier = id
	return i
}

// WithTip sets the fix tip and returns the issue.
func (i Issue) WithTip(tip string) Issue {
	i.Tip = tip
	return i
}

// Collection accumulates issues and provides the canonical
// (file, line, column) ordering.
type Collection struct {
	issues []Issue
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Add appends a single issue.
func (c *Collection) Add(i Issue) {
	c.issues = append(c.issues, i)
}

// Extend appends all given issues.
func (c *Collection) Extend(issues []Issue) {
	c.issues = append(c.issues, issues...)
}

// Issues returns the accumulated issues in their current order.
func (c *Collection) Issues() []Issue {
	return c.issues
}

// Len returns the number of accumulated issues.
func (c *Collection) Len() int {
	return len(c.issues)
}

// ErrorCount returns the number of error-severity issues.
func (c *Collection) ErrorCount() int {
	n := 0
	for _, i := range c.issues {
		if i.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-severity issues.
func (c *Collection) WarningCount() int {
	n := 0
	for _, i := range c.issues {
		if i.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// Sort orders issues by (file, line, column) for deterministic output.
func (c *Collection) Sort() {
	Sort(c.issues)
}

// Sort orders a slice of issues by (file, line, column).
func Sort(issues []Issue) {
	sort.SliceStable(issues, func(a, b int) bool {
		if issues[a].File != issues[b].File {
			return issues[a].File < issues[b].File
		}
		if issues[a].Line != issues[b].Line {
			return issues[a].Line < issues[b].Line
		}
		return issues[a].Column < issues[b].Column
	})
}

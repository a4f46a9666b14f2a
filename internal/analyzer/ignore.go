package analyzer

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/phpscan/internal/config"
	"github.com/mvp-joe/phpscan/internal/issue"
)

// IgnoreFilter drops issues matching the configured ignore rules.
// Within one rule every set field must match; a rule with an unset
// field does not constrain on it.
type IgnoreFilter struct {
	rules []compiledRule
}

type compiledRule struct {
	message    *regexp.Regexp
	identifier string
	path       glob.Glob
}

// NewIgnoreFilter compiles the configured rules. Rules are expected to
// have passed config validation, so compile errors are still reported
// but should not occur.
func NewIgnoreFilter(rules []config.IgnoreRule) (*IgnoreFilter, error) {
	f := &IgnoreFilter{}

	for i, rule := range rules {
		var cr compiledRule

		if rule.Message != "" {
			re, err := regexp.Compile(rule.Message)
			if err != nil {
				return nil, fmt.Errorf("ignore_errors[%d]: invalid message pattern: %w", i, err)
			}
			cr.message = re
		}
		cr.identifier = rule.Identifier
		if rule.Path != "" {
			g, err := glob.Compile(rule.Path, '/')
			if err != nil {
				return nil, fmt.Errorf("ignore_errors[%d]: invalid path pattern: %w", i, err)
			}
			cr.path = g
		}

		if cr.message == nil && cr.identifier == "" && cr.path == nil {
			return nil, fmt.Errorf("ignore_errors[%d]: rule has no conditions", i)
		}

		f.rules = append(f.rules, cr)
	}

	return f, nil
}

// Apply returns the issues that no rule matches, preserving order,
// along with the number dropped.
func (f *IgnoreFilter) Apply(issues []issue.Issue) (kept []issue.Issue, dropped int) {
	if len(f.rules) == 0 {
		return issues, 0
	}

	kept = make([]issue.Issue, 0, len(issues))
	for _, iss := range issues {
		if f.Matches(iss) {
			dropped++
			continue
		}
		kept = append(kept, iss)
	}
	return kept, dropped
}

// Matches reports whether any rule matches the issue.
func (f *IgnoreFilter) Matches(iss issue.Issue) bool {
	for _, rule := range f.rules {
		if rule.matches(iss) {
			return true
		}
	}
	return false
}

func (r compiledRule) matches(iss issue.Issue) bool {
	if r.message != nil && !r.message.MatchString(iss.Message) {
		return false
	}
	if r.identifier != "" && r.identifier != iss.Identifier {
		return false
	}
	if r.path != nil && !r.path.Match(filepath.ToSlash(iss.File)) {
		return false
	}
	return true
}

package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/phpscan/internal/checks"
)

var (
	// ErrInvalidLevel indicates an unparseable analysis level.
	ErrInvalidLevel = errors.New("invalid level")

	// ErrNoPaths indicates an empty paths list.
	ErrNoPaths = errors.New("no paths configured")

	// ErrInvalidPattern indicates a glob pattern that does not compile.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrInvalidIgnoreRule indicates a malformed ignore_errors entry.
	ErrInvalidIgnoreRule = errors.New("invalid ignore rule")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := checks.ParseLevel(cfg.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidLevel, err))
	}

	if len(cfg.Paths) == 0 {
		errs = append(errs, ErrNoPaths)
	}

	for _, pattern := range cfg.Excludes {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: exclude %q: %v", ErrInvalidPattern, pattern, err))
		}
	}

	for i, rule := range cfg.IgnoreErrors {
		if err := validateIgnoreRule(rule); err != nil {
			errs = append(errs, fmt.Errorf("ignore_errors[%d]: %w", i, err))
		}
	}

	return joinErrors(errs)
}

func validateIgnoreRule(rule IgnoreRule) error {
	if rule.Message == "" && rule.Identifier == "" && rule.Path == "" {
		return fmt.Errorf("%w: message, identifier or path required", ErrInvalidIgnoreRule)
	}
	if rule.Message != "" {
		if _, err := regexp.Compile(rule.Message); err != nil {
			return fmt.Errorf("%w: message regex: %v", ErrInvalidIgnoreRule, err)
		}
	}
	if rule.Path != "" {
		if _, err := glob.Compile(rule.Path, '/'); err != nil {
			return fmt.Errorf("%w: path glob: %v", ErrInvalidIgnoreRule, err)
		}
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear
// formatting.
func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

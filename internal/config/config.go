// Package config loads the phpscan configuration from phpscan.yml with
// environment variable overrides.
package config

import "path/filepath"

// Config is the complete phpscan configuration.
type Config struct {
	// Level is the analysis strictness, "0" through "9" or "max".
	Level string `yaml:"level" mapstructure:"level"`

	// Paths are the files and directories to analyze, relative to the
	// project root.
	Paths []string `yaml:"paths" mapstructure:"paths"`

	// Excludes are glob patterns for paths that are never analyzed.
	Excludes []string `yaml:"excludes" mapstructure:"excludes"`

	Autoload AutoloadConfig `yaml:"autoload" mapstructure:"autoload"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`

	// IgnoreErrors drops matching issues after analysis.
	IgnoreErrors []IgnoreRule `yaml:"ignore_errors" mapstructure:"ignore_errors"`
}

// AutoloadConfig controls how project symbols are discovered.
type AutoloadConfig struct {
	// Composer is the composer.json location, relative to the project
	// root.
	Composer string `yaml:"composer" mapstructure:"composer"`

	// Dev includes the autoload-dev section.
	Dev bool `yaml:"dev" mapstructure:"dev"`
}

// CacheConfig controls the persistent symbol cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Dir is the cache directory, relative to the project root unless
	// absolute.
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// IgnoreRule matches issues to drop. Empty fields match everything, so at
// least one must be set.
type IgnoreRule struct {
	// Message is a regular expression matched against the issue message.
	Message string `yaml:"message" mapstructure:"message"`

	// Identifier matches the issue identifier exactly.
	Identifier string `yaml:"identifier" mapstructure:"identifier"`

	// Path is a glob matched against the issue's file path.
	Path string `yaml:"path" mapstructure:"path"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Level:    "0",
		Paths:    []string{"."},
		Excludes: []string{"vendor/**", "node_modules/**", ".git/**"},
		Autoload: AutoloadConfig{
			Composer: "composer.json",
			Dev:      true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     filepath.Join(".phpscan", "cache"),
		},
	}
}

// CacheDir resolves the cache directory against the project root.
func (c *Config) CacheDir(rootDir string) string {
	if filepath.IsAbs(c.Cache.Dir) {
		return c.Cache.Dir
	}
	return filepath.Join(rootDir, c.Cache.Dir)
}

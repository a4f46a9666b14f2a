// Package composer parses composer.json manifests and generated Composer
// autoload artifacts into PSR-4 namespace mappings.
package composer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Manifest is a parsed composer.json file. Only the autoload sections are
// retained; everything else in the manifest is ignored.
type Manifest struct {
	Autoload    Autoload `json:"autoload"`
	AutoloadDev Autoload `json:"autoload-dev"`
}

// Autoload is the autoload or autoload-dev section of a manifest.
type Autoload struct {
	Psr4 map[string]PathList `json:"psr-4"`
}

// PathList accepts both forms composer allows for a PSR-4 value: a single
// directory string or an array of directory strings.
type PathList []string

func (p *PathList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*p = PathList{single}
		return nil
	}

	var multiple []string
	if err := json.Unmarshal(data, &multiple); err != nil {
		return err
	}
	*p = PathList(multiple)
	return nil
}

// Psr4Mapping maps a namespace prefix to the base directories its classes
// live under. Directories keep their declaration order.
type Psr4Mapping struct {
	NamespacePrefix string
	Directories     []string
}

// ParseError reports a manifest that exists but cannot be decoded. Callers
// treat it as "no autoload data available" and continue.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads and decodes a composer.json file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read composer manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &m, nil
}

// FindInDirectory walks upward from dir looking for a composer.json. At each
// level a nested libs/composer.json is probed before the top-level one, since
// monorepos often keep the main autoload there. A manifest that declares
// autoload data wins over one that does not; if no level has one with
// autoload, the first manifest found is returned anyway.
func FindInDirectory(dir string) (string, bool) {
	current := dir
	if abs, err := filepath.Abs(dir); err == nil {
		current = abs
	}

	for {
		candidates := []string{
			filepath.Join(current, "libs", "composer.json"),
			filepath.Join(current, "composer.json"),
		}

		for _, path := range candidates {
			if !fileExists(path) {
				continue
			}
			if m, err := Load(path); err == nil && m.HasAutoload() {
				return path, true
			}
		}

		for _, path := range candidates {
			if fileExists(path) {
				return path, true
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// Psr4Mappings resolves the manifest's PSR-4 declarations against baseDir.
// Dev mappings are appended after production ones when includeDev is set.
// Mappings are sorted by namespace prefix for deterministic output.
func (m *Manifest) Psr4Mappings(baseDir string, includeDev bool) []Psr4Mapping {
	mappings := appendMappings(nil, m.Autoload.Psr4, baseDir)
	if includeDev {
		mappings = appendMappings(mappings, m.AutoloadDev.Psr4, baseDir)
	}

	sort.SliceStable(mappings, func(i, j int) bool {
		return mappings[i].NamespacePrefix < mappings[j].NamespacePrefix
	})
	return mappings
}

// HasAutoload reports whether the manifest declares any production PSR-4
// mapping.
func (m *Manifest) HasAutoload() bool {
	return len(m.Autoload.Psr4) > 0
}

func appendMappings(mappings []Psr4Mapping, psr4 map[string]PathList, baseDir string) []Psr4Mapping {
	for prefix, paths := range psr4 {
		dirs := make([]string, 0, len(paths))
		for _, p := range paths {
			dirs = append(dirs, filepath.Join(baseDir, p))
		}
		mappings = append(mappings, Psr4Mapping{
			NamespacePrefix: prefix,
			Directories:     dirs,
		})
	}
	return mappings
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

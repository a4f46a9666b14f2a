// Package analyzer orchestrates a full analysis run: it discovers PHP
// files, builds the project-wide symbol table, fans the files out to a
// worker pool running the configured checks, and persists fingerprints
// and issues so later runs can skip unchanged files.
package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Discovery finds the PHP files under the configured paths, honoring
// exclude patterns. All returned paths are relative to the root
// directory.
type Discovery struct {
	rootDir  string
	paths    []string
	excludes []compiledPattern
}

// NewDiscovery creates a discovery instance for rootDir. Paths are
// the configured analysis roots, relative to rootDir unless absolute.
// Excludes are glob patterns matched against slash-separated relative
// paths.
func NewDiscovery(rootDir string, paths, excludes []string) (*Discovery, error) {
	d := &Discovery{
		rootDir: rootDir,
		paths:   paths,
	}

	for _, pattern := range excludes {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		d.excludes = append(d.excludes, compiledPattern{pattern: pattern, glob: g})
	}

	return d, nil
}

// PHPFiles walks the configured paths and returns every PHP file that
// is not excluded, as sorted root-relative paths.
func (d *Discovery) PHPFiles() ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, p := range d.paths {
		base := p
		if !filepath.IsAbs(base) {
			base = filepath.Join(d.rootDir, p)
		}

		info, err := os.Stat(base)
		if err != nil {
			return nil, fmt.Errorf("cannot analyze path %s: %w", p, err)
		}

		if !info.IsDir() {
			rel, err := d.relPath(base)
			if err != nil {
				return nil, err
			}
			if isPHPFile(rel) && !d.Excluded(rel) && !seen[rel] {
				seen[rel] = true
				files = append(files, rel)
			}
			continue
		}

		err = filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			rel, err := d.relPath(path)
			if err != nil {
				return err
			}

			if info.IsDir() {
				if d.shouldSkipDir(filepath.ToSlash(rel)) {
					return filepath.SkipDir
				}
				return nil
			}

			if !isPHPFile(rel) || d.Excluded(rel) || seen[rel] {
				return nil
			}
			seen[rel] = true
			files = append(files, rel)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Matches reports whether a root-relative path is a PHP file inside
// the configured analysis paths and not excluded. Used to filter
// filesystem events in watch mode.
func (d *Discovery) Matches(rel string) bool {
	if !isPHPFile(rel) || d.Excluded(rel) {
		return false
	}
	for _, p := range d.paths {
		if p == "." {
			return true
		}
		base := p
		if filepath.IsAbs(base) {
			var err error
			base, err = filepath.Rel(d.rootDir, base)
			if err != nil {
				continue
			}
		}
		base = filepath.Clean(base)
		if rel == base || strings.HasPrefix(filepath.ToSlash(rel), filepath.ToSlash(base)+"/") {
			return true
		}
	}
	return false
}

// Excluded reports whether a root-relative path matches any exclude
// pattern.
func (d *Discovery) Excluded(rel string) bool {
	slashed := filepath.ToSlash(rel)

	if isInternalDir(slashed) {
		return true
	}

	return d.matchesAnyPattern(slashed)
}

func (d *Discovery) relPath(path string) (string, error) {
	rel, err := filepath.Rel(d.rootDir, path)
	if err != nil {
		return "", fmt.Errorf("failed to get relative path for %s: %w", path, err)
	}
	return rel, nil
}

// shouldSkipDir checks whether a whole directory can be skipped while
// walking. A directory matching pattern "vendor/**" is skipped via the
// "/**" suffix probe.
func (d *Discovery) shouldSkipDir(slashed string) bool {
	if slashed == "." {
		return false
	}
	if isInternalDir(slashed) {
		return true
	}
	return d.matchesAnyPattern(slashed + "/**")
}

func (d *Discovery) matchesAnyPattern(slashed string) bool {
	for _, cp := range d.excludes {
		if cp.glob.Match(slashed) {
			return true
		}
	}

	// A root-level file has no slash, so "**/*.php" style patterns
	// never match it. Retry those patterns with the **/ prefix
	// stripped, which is what users expect.
	if !strings.Contains(slashed, "/") {
		for _, cp := range d.excludes {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if g, err := glob.Compile(simplified, '/'); err == nil && g.Match(slashed) {
					return true
				}
			}
		}
	}

	return false
}

// isInternalDir reports whether the path sits inside a directory this
// tool owns and should never analyze.
func isInternalDir(slashed string) bool {
	for _, dir := range []string{".phpscan", ".phpscan-cache"} {
		if slashed == dir || strings.HasPrefix(slashed, dir+"/") {
			return true
		}
	}
	return false
}

func isPHPFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".php")
}

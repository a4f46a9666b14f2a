package composer

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Patterns for the generated PHP arrays Composer writes under
// vendor/composer. Class names appear as single-quoted array keys with
// doubled backslashes; PSR-4 values are array(...) lists of $vendorDir
// concatenations.
var (
	classmapKeyRe  = regexp.MustCompile(`'([^']+)'\s*=>`)
	psr4EntryRe    = regexp.MustCompile(`'([^']+)'\s*=>\s*array\(([^)]+)\)`)
	vendorPathRe   = regexp.MustCompile(`\$vendorDir\s*\.\s*'([^']+)'`)
	classmapProbes = []string{
		filepath.Join("vendor", "composer", "autoload_classmap.php"),
		filepath.Join("libs", "vendor", "composer", "autoload_classmap.php"),
	}
)

// ClassmapScanner reads class names out of Composer's generated
// autoload_classmap.php without executing it.
type ClassmapScanner struct {
	classmapPath string
}

// FindClassmap walks upward from dir looking for autoload_classmap.php in
// the usual vendor locations. When a level has more than one, the largest
// file wins since it covers the most packages.
func FindClassmap(dir string) (*ClassmapScanner, bool) {
	current := dir
	if abs, err := filepath.Abs(dir); err == nil {
		current = abs
	}

	for {
		best := ""
		var bestSize int64 = -1
		for _, probe := range classmapProbes {
			path := filepath.Join(current, probe)
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			if info.Size() > bestSize {
				best, bestSize = path, info.Size()
			}
		}
		if best != "" {
			return &ClassmapScanner{classmapPath: best}, true
		}

		parent := filepath.Dir(current)
		if parent == current {
			return nil, false
		}
		current = parent
	}
}

// Classes extracts every fully-qualified class name from the classmap.
// Unreadable files yield an empty list.
func (s *ClassmapScanner) Classes() []string {
	content, err := os.ReadFile(s.classmapPath)
	if err != nil {
		return nil
	}

	var classes []string
	for _, match := range classmapKeyRe.FindAllSubmatch(content, -1) {
		name := strings.ReplaceAll(string(match[1]), `\\`, `\`)
		classes = append(classes, name)
	}
	return classes
}

// Path returns the classmap file location, used for cache freshness checks.
func (s *ClassmapScanner) Path() string {
	return s.classmapPath
}

// VendorPsr4Scanner reads namespace mappings out of Composer's generated
// autoload_psr4.php.
type VendorPsr4Scanner struct {
	psr4Path  string
	vendorDir string
}

// FindVendorPsr4 walks upward from dir looking for autoload_psr4.php in the
// usual vendor locations, preferring the largest file found at a level.
func FindVendorPsr4(dir string) (*VendorPsr4Scanner, bool) {
	current := dir
	if abs, err := filepath.Abs(dir); err == nil {
		current = abs
	}

	probes := []struct{ psr4, vendor string }{
		{filepath.Join("vendor", "composer", "autoload_psr4.php"), "vendor"},
		{filepath.Join("libs", "vendor", "composer", "autoload_psr4.php"), filepath.Join("libs", "vendor")},
	}

	for {
		var best *VendorPsr4Scanner
		var bestSize int64 = -1
		for _, probe := range probes {
			path := filepath.Join(current, probe.psr4)
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			if info.Size() > bestSize {
				best = &VendorPsr4Scanner{
					psr4Path:  path,
					vendorDir: filepath.Join(current, probe.vendor),
				}
				bestSize = info.Size()
			}
		}
		if best != nil {
			return best, true
		}

		parent := filepath.Dir(current)
		if parent == current {
			return nil, false
		}
		current = parent
	}
}

// Mappings extracts namespace prefix to directory mappings, keeping only
// directories that exist on disk.
func (s *VendorPsr4Scanner) Mappings() []Psr4Mapping {
	content, err := os.ReadFile(s.psr4Path)
	if err != nil {
		return nil
	}

	var mappings []Psr4Mapping
	for _, entry := range psr4EntryRe.FindAllSubmatch(content, -1) {
		prefix := strings.ReplaceAll(string(entry[1]), `\\`, `\`)

		var dirs []string
		for _, pathMatch := range vendorPathRe.FindAllSubmatch(entry[2], -1) {
			rel := strings.TrimPrefix(string(pathMatch[1]), "/")
			full := filepath.Join(s.vendorDir, filepath.FromSlash(rel))
			if dirExists(full) {
				dirs = append(dirs, full)
			}
		}
		if len(dirs) > 0 {
			mappings = append(mappings, Psr4Mapping{NamespacePrefix: prefix, Directories: dirs})
		}
	}
	return mappings
}

// VendorDir returns the vendor directory root, used for cache freshness
// checks.
func (s *VendorPsr4Scanner) VendorDir() string {
	return s.vendorDir
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

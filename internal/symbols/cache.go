package symbols

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// cacheVersion is bumped whenever the on-disk format or the set of
	// collected symbols changes in a way older caches cannot satisfy.
	cacheVersion = 2

	cacheDirName  = ".phpscan-cache"
	cacheFileName = "vendor-symbols.json"
)

// cachedClass is the serialized form of a vendor class. Method entries keep
// names only, so restored classes answer method-existence queries but not
// signature queries. Static properties are not serialized at all.
type cachedClass struct {
	ShortName  string   `json:"short_name"`
	FullName   string   `json:"full_name"`
	Kind       int      `json:"kind"`
	Parent     string   `json:"parent,omitempty"`
	Interfaces []string `json:"interfaces"`
	Traits     []string `json:"traits"`
	Methods    []string `json:"methods"`
}

type cachedSymbols struct {
	Version       int                    `json:"version"`
	VendorMtime   int64                  `json:"vendor_mtime"`
	ClassmapMtime int64                  `json:"classmap_mtime"`
	Classes       map[string]cachedClass `json:"classes"`
}

// Cache persists vendor symbol tables between runs so unchanged dependency
// trees never get rescanned. Entries are validated against the vendor
// directory and classmap modification times on load.
type Cache struct {
	dir    string
	logger *slog.Logger
}

// NewCache returns a cache rooted at dir. A nil logger discards debug output.
func NewCache(dir string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{dir: dir, logger: logger}
}

// ForProject returns the cache for a project directory, stored under its
// .phpscan-cache subdirectory.
func ForProject(projectDir string, logger *slog.Logger) *Cache {
	return NewCache(filepath.Join(projectDir, cacheDirName), logger)
}

// FilePath returns the location of the cache file.
func (c *Cache) FilePath() string {
	return filepath.Join(c.dir, cacheFileName)
}

// Load restores the vendor symbol table if the cache file exists, matches the
// current format version, and both the vendor directory and the classmap are
// unchanged since the cache was written. Any mismatch is a silent miss.
func (c *Cache) Load(vendorDir, classmapPath string) (*Table, bool) {
	path := c.FilePath()
	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Debug("vendor cache not readable", "path", path, "error", err)
		return nil, false
	}

	var cached cachedSymbols
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Debug("vendor cache corrupt", "path", path, "error", err)
		return nil, false
	}

	if cached.Version != cacheVersion {
		c.logger.Debug("vendor cache version mismatch",
			"have", cached.Version, "want", cacheVersion)
		return nil, false
	}
	if cached.VendorMtime != modTimeUnix(vendorDir) {
		c.logger.Debug("vendor directory changed since cache write", "dir", vendorDir)
		return nil, false
	}
	if cached.ClassmapMtime != modTimeUnix(classmapPath) {
		c.logger.Debug("classmap changed since cache write", "path", classmapPath)
		return nil, false
	}

	table := NewTable()
	for _, entry := range cached.Classes {
		table.RegisterClass(restoreClass(entry))
	}
	c.logger.Debug("vendor cache hit", "classes", len(cached.Classes))
	return table, true
}

// Save writes the vendor portion of a symbol table to disk. The write goes
// through a temp file and a rename so a crash never leaves a torn cache.
func (c *Cache) Save(table *Table, vendorDir, classmapPath string) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	cached := cachedSymbols{
		Version:       cacheVersion,
		VendorMtime:   modTimeUnix(vendorDir),
		ClassmapMtime: modTimeUnix(classmapPath),
		Classes:       make(map[string]cachedClass),
	}
	for _, class := range table.AllClasses() {
		cached.Classes[class.FullName] = freezeClass(class)
	}

	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vendor cache: %w", err)
	}

	path := c.FilePath()
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary cache file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary cache file: %w", err)
	}

	c.logger.Debug("vendor cache saved", "path", path, "classes", len(cached.Classes))
	return nil
}

// Clear removes the cache file. A missing file is not an error.
func (c *Cache) Clear() error {
	err := os.Remove(c.FilePath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

func freezeClass(class *ClassInfo) cachedClass {
	entry := cachedClass{
		ShortName:  class.Name,
		FullName:   class.FullName,
		Kind:       int(class.Kind),
		Parent:     class.Parent,
		Interfaces: class.Interfaces,
		Traits:     class.Traits,
		Methods:    class.MethodNames(),
	}
	if entry.Interfaces == nil {
		entry.Interfaces = []string{}
	}
	if entry.Traits == nil {
		entry.Traits = []string{}
	}
	return entry
}

func restoreClass(entry cachedClass) *ClassInfo {
	class := NewClassInfo(entry.ShortName, entry.FullName)
	if entry.Kind >= int(KindClass) && entry.Kind <= int(KindEnum) {
		class.Kind = ClassKind(entry.Kind)
	}
	class.Parent = entry.Parent
	class.Interfaces = entry.Interfaces
	class.Traits = entry.Traits
	for _, name := range entry.Methods {
		class.AddMethod(MethodInfo{Name: name})
	}
	// Method names survive the round trip, so restored classes answer method
	// queries definitively. Static properties do not, and stay unknown.
	class.MarkMethodsKnown()
	return class
}

// modTimeUnix returns a path's modification time in unix seconds, or 0 when
// the path cannot be stat'd. A vanished vendor tree then reads as changed.
func modTimeUnix(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().Unix()
}

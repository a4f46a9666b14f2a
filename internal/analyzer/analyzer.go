package analyzer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maypok86/otter"

	"github.com/mvp-joe/phpscan/internal/checks"
	"github.com/mvp-joe/phpscan/internal/composer"
	"github.com/mvp-joe/phpscan/internal/config"
	"github.com/mvp-joe/phpscan/internal/includes"
	"github.com/mvp-joe/phpscan/internal/issue"
	"github.com/mvp-joe/phpscan/internal/phpast"
	"github.com/mvp-joe/phpscan/internal/storage"
	"github.com/mvp-joe/phpscan/internal/symbols"
)

// resultCacheCapacity bounds the in-memory per-file result cache.
const resultCacheCapacity = 8192

// Options configures an Analyzer.
type Options struct {
	// RootDir is the project root. Defaults to the current directory.
	RootDir string

	// Config is the loaded configuration. Defaults to config.Default().
	Config *config.Config

	// Level is the analysis level, 0 through checks.MaxLevel.
	Level int

	// Incremental reuses stored issues for files whose content is
	// unchanged since the last recorded run at the same level.
	Incremental bool

	Logger   *slog.Logger
	Progress Progress
}

// Report summarizes one analysis run.
type Report struct {
	RunID         string
	Level         int
	Issues        []issue.Issue
	FilesTotal    int
	FilesAnalyzed int
	FilesReused   int
	IssuesIgnored int
	Duration      time.Duration
}

// ErrorCount returns the number of error-severity issues in the report.
func (r *Report) ErrorCount() int {
	n := 0
	for _, iss := range r.Issues {
		if iss.Severity == issue.SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-severity issues.
func (r *Report) WarningCount() int {
	return len(r.Issues) - r.ErrorCount()
}

// Analyzer runs the configured checks over a project. It owns the
// project state database and the in-memory result cache, so a single
// instance should be reused across runs and closed when done.
type Analyzer struct {
	rootDir     string
	cfg         *config.Config
	level       int
	incremental bool
	logger      *slog.Logger
	progress    Progress
	registry    *checks.Registry
	discovery   *Discovery
	ignore      *IgnoreFilter

	db       *sql.DB
	files    *storage.FileStore
	issues   *storage.IssueStore
	runs     *storage.RunStore
	detector *ChangeDetector

	results otter.Cache[string, []issue.Issue]

	mu          sync.Mutex
	vendorOnce  sync.Once
	vendorTable *symbols.Table
	projectSyms map[string]*symbols.FileSymbols
	ambientSyms map[string]*symbols.FileSymbols
	table       *symbols.Table
	tableStamp  string
}

// New creates an Analyzer. When caching is enabled the project state
// database is opened under the configured cache directory.
func New(opts Options) (*Analyzer, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	rootDir := opts.RootDir
	if rootDir == "" {
		rootDir = "."
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	progress := opts.Progress
	if progress == nil {
		progress = nopProgress{}
	}

	discovery, err := NewDiscovery(rootDir, cfg.Paths, cfg.Excludes)
	if err != nil {
		return nil, err
	}
	ignore, err := NewIgnoreFilter(cfg.IgnoreErrors)
	if err != nil {
		return nil, err
	}
	results, err := otter.MustBuilder[string, []issue.Issue](resultCacheCapacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build result cache: %w", err)
	}

	a := &Analyzer{
		rootDir:     rootDir,
		cfg:         cfg,
		level:       opts.Level,
		incremental: opts.Incremental,
		logger:      logger,
		progress:    progress,
		registry:    checks.DefaultRegistry(),
		discovery:   discovery,
		ignore:      ignore,
		results:     results,
	}

	if cfg.Cache.Enabled {
		dir := cfg.CacheDir(rootDir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		db, err := storage.Open(filepath.Join(dir, storage.DBFileName))
		if err != nil {
			return nil, err
		}
		a.db = db
		a.files = storage.NewFileStore(db)
		a.issues = storage.NewIssueStore(db)
		a.runs = storage.NewRunStore(db)
		a.detector = NewChangeDetector(rootDir, a.files, discovery)
	}

	return a, nil
}

// Close releases the result cache and the state database.
func (a *Analyzer) Close() error {
	a.results.Close()
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Level returns the analysis level this instance runs at.
func (a *Analyzer) Level() int {
	return a.level
}

// Table returns the symbol table assembled by the most recent run, or
// nil before the first run.
func (a *Analyzer) Table() *symbols.Table {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.table
}

// Run analyzes the whole project.
func (a *Analyzer) Run(ctx context.Context) (*Report, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runLocked(ctx)
}

func (a *Analyzer) runLocked(ctx context.Context) (*Report, error) {
	started := time.Now()
	runID := uuid.NewString()

	rels, err := a.discovery.PHPFiles()
	if err != nil {
		return nil, err
	}
	a.logger.Info("starting analysis", "run_id", runID, "level", a.level, "files", len(rels))

	unchanged := map[string]bool{}
	var deleted []string
	if a.incremental && a.detector != nil {
		unchanged, deleted, err = a.incrementalBaseline(ctx)
		if err != nil {
			return nil, err
		}
	}

	items, err := a.parseAll(ctx, rels)
	if err != nil {
		return nil, err
	}
	defer closeItems(items)

	a.projectSyms = make(map[string]*symbols.FileSymbols, len(items))
	for _, item := range items {
		a.projectSyms[item.rel] = item.syms
	}
	a.ambientSyms = make(map[string]*symbols.FileSymbols)
	a.collectAutoloadDirs()
	a.expandIncludes(seedFiles(items))

	table := a.assembleTable()
	a.table = table
	a.tableStamp = table.Fingerprint()

	perFile, analyzed, err := a.checkAll(ctx, items, table, unchanged)
	if err != nil {
		return nil, err
	}

	found := 0
	for _, list := range perFile {
		found += len(list)
	}

	if a.db != nil {
		if err := a.persist(items, perFile, deleted, runID, analyzed, found, started); err != nil {
			a.logger.Warn("failed to persist analysis state", "error", err)
		}
	}

	report := a.buildReport(runID, started, perFile, len(rels), analyzed, len(items))
	a.logger.Info("analysis finished",
		"run_id", runID,
		"issues", len(report.Issues),
		"analyzed", report.FilesAnalyzed,
		"reused", report.FilesReused,
		"elapsed", report.Duration)
	return report, nil
}

// RunPaths re-analyzes only the given files, which may be absolute or
// root-relative. Files that no longer exist are dropped from the
// project state. The first call falls back to a full run so that the
// project symbols exist.
func (a *Analyzer) RunPaths(ctx context.Context, paths []string) (*Report, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.projectSyms == nil {
		return a.runLocked(ctx)
	}

	started := time.Now()
	runID := uuid.NewString()

	var changed, deleted []string
	for _, path := range paths {
		rel := path
		if filepath.IsAbs(path) {
			r, err := filepath.Rel(a.rootDir, path)
			if err != nil {
				continue
			}
			rel = r
		}
		if !a.discovery.Matches(rel) {
			continue
		}
		if _, err := os.Stat(filepath.Join(a.rootDir, rel)); err != nil {
			if os.IsNotExist(err) {
				deleted = append(deleted, rel)
			}
			continue
		}
		changed = append(changed, rel)
	}
	sort.Strings(changed)
	sort.Strings(deleted)

	for _, rel := range deleted {
		delete(a.projectSyms, rel)
		if a.files != nil {
			if err := a.files.DeleteFile(rel); err != nil {
				a.logger.Warn("failed to drop deleted file", "path", rel, "error", err)
			}
		}
	}

	items := make([]*parsedFile, 0, len(changed))
	for _, rel := range changed {
		item, err := a.parseOne(rel)
		if err != nil {
			a.logger.Warn("skipping unreadable file", "path", rel, "error", err)
			continue
		}
		items = append(items, item)
	}
	defer closeItems(items)

	for _, item := range items {
		a.projectSyms[item.rel] = item.syms
	}
	a.expandIncludes(seedFiles(items))

	table := a.assembleTable()
	a.table = table
	a.tableStamp = table.Fingerprint()

	perFile := make(map[string][]issue.Issue, len(items))
	analyzed := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, reused := a.checkFile(item, table, false)
		perFile[item.rel] = found
		if !reused {
			analyzed++
		}
	}

	if a.db != nil && len(items) > 0 {
		found := 0
		for _, list := range perFile {
			found += len(list)
		}
		if err := a.persist(items, perFile, nil, runID, analyzed, found, started); err != nil {
			a.logger.Warn("failed to persist analysis state", "error", err)
		}
	}

	return a.buildReport(runID, started, perFile, len(a.projectSyms), analyzed, len(items)), nil
}

// incrementalBaseline returns the files whose stored issues can be
// reused and the fingerprints of files that vanished. Reuse requires a
// previous run at the same level; otherwise everything is re-analyzed.
func (a *Analyzer) incrementalBaseline(ctx context.Context) (map[string]bool, []string, error) {
	unchanged := map[string]bool{}

	last, err := a.runs.LastRun()
	if err != nil {
		return nil, nil, err
	}
	if last == nil || last.Level != a.level {
		a.logger.Debug("incremental reuse disabled", "reason", "no previous run at this level")
		return unchanged, nil, nil
	}

	changes, err := a.detector.DetectChanges(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	for _, rel := range changes.Unchanged {
		unchanged[rel] = true
	}
	a.logger.Debug("change detection complete",
		"added", len(changes.Added),
		"modified", len(changes.Modified),
		"deleted", len(changes.Deleted),
		"unchanged", len(changes.Unchanged))
	return unchanged, changes.Deleted, nil
}

// parsedFile carries one file through the pipeline. The parse tree
// stays open until the run ends.
type parsedFile struct {
	rel   string
	file  *phpast.File
	syms  *symbols.FileSymbols
	hash  string
	size  int64
	mtime time.Time
}

func closeItems(items []*parsedFile) {
	for _, item := range items {
		item.file.Close()
	}
}

func seedFiles(items []*parsedFile) []*phpast.File {
	files := make([]*phpast.File, 0, len(items))
	for _, item := range items {
		files = append(files, item.file)
	}
	return files
}

// parseAll reads, hashes, parses and collects symbols from every file
// using a worker pool. Unreadable files are logged and skipped.
func (a *Analyzer) parseAll(ctx context.Context, rels []string) ([]*parsedFile, error) {
	if len(rels) == 0 {
		return nil, nil
	}

	numWorkers := min(runtime.GOMAXPROCS(0), len(rels))
	if numWorkers < 1 {
		numWorkers = 1
	}

	workCh := make(chan string, len(rels))
	for _, rel := range rels {
		workCh <- rel
	}
	close(workCh)

	type parseResult struct {
		item *parsedFile
		rel  string
		err  error
	}
	resultCh := make(chan parseResult, len(rels))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rel := range workCh {
				if err := ctx.Err(); err != nil {
					resultCh <- parseResult{rel: rel, err: err}
					continue
				}
				item, err := a.parseOne(rel)
				resultCh <- parseResult{item: item, rel: rel, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var items []*parsedFile
	for res := range resultCh {
		if res.err != nil {
			if ctx.Err() == nil {
				a.logger.Warn("skipping unreadable file", "path", res.rel, "error", res.err)
			}
			continue
		}
		items = append(items, res.item)
	}
	if err := ctx.Err(); err != nil {
		closeItems(items)
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool { return items[i].rel < items[j].rel })
	return items, nil
}

// parseOne loads a single file from disk. The parsed file is labeled
// with its root-relative path so issues and fingerprints agree.
func (a *Analyzer) parseOne(rel string) (*parsedFile, error) {
	abs := filepath.Join(a.rootDir, rel)
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	file, err := phpast.Parse(rel, content)
	if err != nil {
		return nil, err
	}

	return &parsedFile{
		rel:   rel,
		file:  file,
		syms:  symbols.Collect(file),
		hash:  hashBytes(content),
		size:  info.Size(),
		mtime: info.ModTime(),
	}, nil
}

// collectAutoloadDirs records symbols from the composer PSR-4
// directories that fall outside the analyzed set. Those files feed the
// symbol table but are never checked.
func (a *Analyzer) collectAutoloadDirs() {
	manifestPath := a.cfg.Autoload.Composer
	if manifestPath == "" {
		return
	}
	if !filepath.IsAbs(manifestPath) {
		manifestPath = filepath.Join(a.rootDir, manifestPath)
	}

	manifest, err := composer.Load(manifestPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			a.logger.Warn("failed to load composer manifest", "path", manifestPath, "error", err)
		}
		return
	}

	for _, mapping := range manifest.Psr4Mappings(filepath.Dir(manifestPath), a.cfg.Autoload.Dev) {
		for _, dir := range mapping.Directories {
			a.collectAmbientDir(dir)
		}
	}
}

// collectAmbientDir parses every PHP file under dir that is not already
// part of the analyzed set and records its symbols. Unreadable entries
// are skipped.
func (a *Analyzer) collectAmbientDir(dir string) {
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || !isPHPFile(path) {
			return nil
		}
		rel, rerr := filepath.Rel(a.rootDir, path)
		if rerr != nil {
			rel = path
		}
		if _, ok := a.projectSyms[rel]; ok {
			return nil
		}
		if _, ok := a.ambientSyms[rel]; ok {
			return nil
		}
		file, perr := phpast.ParseFile(path)
		if perr != nil {
			return nil
		}
		a.ambientSyms[rel] = symbols.Collect(file)
		file.Close()
		return nil
	})
}

// expandIncludes follows include statements from the seed files and
// records symbols from any target outside the analyzed set.
func (a *Analyzer) expandIncludes(seeds []*phpast.File) {
	if len(seeds) == 0 {
		return
	}

	g := includes.NewGraphAt(a.rootDir)
	discovered := g.Expand(seeds, func(path string) (*phpast.File, error) {
		abs := path
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(a.rootDir, path)
		}
		content, err := os.ReadFile(abs)
		if err != nil {
			return nil, err
		}
		file, err := phpast.Parse(path, content)
		if err != nil {
			return nil, err
		}
		if _, ok := a.projectSyms[path]; !ok {
			if _, ok := a.ambientSyms[path]; !ok {
				a.ambientSyms[path] = symbols.Collect(file)
			}
		}
		return file, nil
	})
	if len(discovered) > 0 {
		a.logger.Debug("include expansion added files", "count", len(discovered))
	}
}

// assembleTable builds the run's symbol table. Registration order is
// builtins, vendor, ambient, then analyzed files, so the most specific
// definition wins on FQN collision.
func (a *Analyzer) assembleTable() *symbols.Table {
	table := symbols.NewTable()
	symbols.RegisterBuiltins(table)

	a.ensureVendorTable()
	if a.vendorTable != nil {
		table.Merge(a.vendorTable)
	}

	symbols.AddTo(table, sortedSyms(a.ambientSyms))
	symbols.AddTo(table, sortedSyms(a.projectSyms))
	return table
}

func sortedSyms(m map[string]*symbols.FileSymbols) []*symbols.FileSymbols {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*symbols.FileSymbols, 0, len(m))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func (a *Analyzer) ensureVendorTable() {
	a.vendorOnce.Do(func() {
		started := time.Now()
		a.vendorTable = a.buildVendorTable()
		if a.vendorTable != nil {
			stats := a.vendorTable.Stats()
			a.logger.Debug("vendor symbols ready", "classes", stats.Classes, "elapsed", time.Since(started))
		}
	})
}

// buildVendorTable scans the composer vendor tree for class symbols.
// Results are cached on disk, keyed by the vendor directory and
// classmap modification times.
func (a *Analyzer) buildVendorTable() *symbols.Table {
	psr4, havePsr4 := composer.FindVendorPsr4(a.rootDir)
	classmap, haveClassmap := composer.FindClassmap(a.rootDir)
	if !havePsr4 && !haveClassmap {
		return nil
	}

	var vendorDir, classmapPath string
	if havePsr4 {
		vendorDir = psr4.VendorDir()
	}
	if haveClassmap {
		classmapPath = classmap.Path()
	}

	var cache *symbols.Cache
	if a.cfg.Cache.Enabled {
		cache = symbols.NewCache(a.cfg.CacheDir(a.rootDir), a.logger)
		if table, ok := cache.Load(vendorDir, classmapPath); ok {
			return table
		}
	}

	table := symbols.NewTable()
	if havePsr4 {
		for _, mapping := range psr4.Mappings() {
			for _, dir := range mapping.Directories {
				a.scanVendorDir(dir, table)
			}
		}
	}
	if haveClassmap {
		for _, fqn := range classmap.Classes() {
			if _, exists := table.Class(fqn); !exists {
				table.RegisterClass(symbols.ClassFromFQN(fqn))
			}
		}
	}

	if cache != nil {
		if err := cache.Save(table, vendorDir, classmapPath); err != nil {
			a.logger.Warn("failed to write vendor symbol cache", "error", err)
		}
	}
	return table
}

// scanVendorDir registers class declarations found under dir. Only
// classes are kept: the on-disk cache stores classes alone, and warm
// and cold runs must answer lookups identically.
func (a *Analyzer) scanVendorDir(dir string, table *symbols.Table) {
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || !isPHPFile(path) {
			return nil
		}
		file, perr := phpast.ParseFile(path)
		if perr != nil {
			return nil
		}
		for _, class := range symbols.Collect(file).Classes {
			table.RegisterClass(class)
		}
		file.Close()
		return nil
	})
}

// checkAll runs the enabled checks over every parsed file in parallel.
// Results for files with unchanged content come from the in-memory
// cache or, on incremental runs, from storage.
func (a *Analyzer) checkAll(ctx context.Context, items []*parsedFile, table *symbols.Table, unchanged map[string]bool) (map[string][]issue.Issue, int, error) {
	perFile := make(map[string][]issue.Issue, len(items))
	if len(items) == 0 {
		return perFile, 0, nil
	}

	a.progress.OnAnalysisStart(len(items))
	defer a.progress.OnAnalysisComplete()

	numWorkers := min(runtime.GOMAXPROCS(0), len(items))
	if numWorkers < 1 {
		numWorkers = 1
	}

	workCh := make(chan *parsedFile, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	type checkResult struct {
		rel    string
		issues []issue.Issue
		reused bool
		err    error
	}
	resultCh := make(chan checkResult, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				if err := ctx.Err(); err != nil {
					resultCh <- checkResult{rel: item.rel, err: err}
					continue
				}
				found, reused := a.checkFile(item, table, unchanged[item.rel])
				resultCh <- checkResult{rel: item.rel, issues: found, reused: reused}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	analyzed := 0
	for res := range resultCh {
		if res.err != nil {
			continue
		}
		perFile[res.rel] = res.issues
		if !res.reused {
			analyzed++
		}
		a.progress.OnFileAnalyzed(res.rel)
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	return perFile, analyzed, nil
}

// checkFile returns the raw issues for one file, consulting the result
// cache and stored issues before running the checks. Ignore rules are
// applied later, at report assembly, so cached entries stay rule
// independent.
func (a *Analyzer) checkFile(item *parsedFile, table *symbols.Table, unchanged bool) ([]issue.Issue, bool) {
	key := a.resultKey(item.rel, item.hash)
	if cached, ok := a.results.Get(key); ok {
		return cached, true
	}

	if unchanged && a.issues != nil {
		stored, err := a.issues.IssuesForFile(item.rel)
		if err == nil {
			a.results.Set(key, stored)
			return stored, true
		}
		a.logger.Warn("failed to load stored issues", "path", item.rel, "error", err)
	}

	found := a.registry.RunFile(item.file, table, a.level, a.logger)
	a.results.Set(key, found)
	return found, false
}

// resultKey identifies one file's analysis result. The symbol table
// stamp invalidates entries when any declaration visible to checks
// changes, not just the file's own content.
func (a *Analyzer) resultKey(rel, hash string) string {
	return rel + "@" + hash + "@" + strconv.Itoa(a.level) + "@" + a.tableStamp
}

// persist writes fingerprints, per-file issues and the run record.
// Fingerprints go first: replacing one cascades a delete of the file's
// stored issues.
func (a *Analyzer) persist(items []*parsedFile, perFile map[string][]issue.Issue, deleted []string, runID string, analyzed, found int, started time.Time) error {
	now := time.Now().UTC()

	records := make([]*storage.FileRecord, 0, len(items))
	for _, item := range items {
		records = append(records, &storage.FileRecord{
			Path:         item.rel,
			Hash:         item.hash,
			SizeBytes:    item.size,
			LastModified: item.mtime,
			AnalyzedAt:   now,
		})
	}
	if err := a.files.UpsertFiles(records); err != nil {
		return err
	}

	for _, item := range items {
		if err := a.issues.ReplaceFileIssues(item.rel, runID, perFile[item.rel]); err != nil {
			return err
		}
	}

	for _, rel := range deleted {
		if err := a.files.DeleteFile(rel); err != nil {
			return err
		}
	}

	return a.runs.RecordRun(&storage.RunRecord{
		ID:            runID,
		StartedAt:     started.UTC(),
		FinishedAt:    time.Now().UTC(),
		Level:         a.level,
		FilesAnalyzed: analyzed,
		IssuesFound:   found,
	})
}

// buildReport filters, sorts and counts the collected issues.
func (a *Analyzer) buildReport(runID string, started time.Time, perFile map[string][]issue.Issue, total, analyzed, checked int) *Report {
	var all []issue.Issue
	for _, list := range perFile {
		all = append(all, list...)
	}
	kept, dropped := a.ignore.Apply(all)
	issue.Sort(kept)

	return &Report{
		RunID:         runID,
		Level:         a.level,
		Issues:        kept,
		FilesTotal:    total,
		FilesAnalyzed: analyzed,
		FilesReused:   checked - analyzed,
		IssuesIgnored: dropped,
		Duration:      time.Since(started),
	}
}

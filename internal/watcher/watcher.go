// Package watcher re-analyzes files as they change on disk. Filesystem
// events are debounced so a burst of writes, as editors and code
// generators produce, triggers a single analysis pass.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mvp-joe/phpscan/internal/analyzer"
)

const defaultDebounce = 500 * time.Millisecond

// Runner is the analysis entry point the watcher drives. The analyzer
// decides which of the reported paths are actually worth analyzing.
type Runner interface {
	RunPaths(ctx context.Context, paths []string) (*analyzer.Report, error)
}

// Options configures a Watcher.
type Options struct {
	// RootDir is the directory tree to watch.
	RootDir string

	// Runner receives the batched change paths.
	Runner Runner

	// OnReport is called with the result of each triggered analysis.
	OnReport func(*analyzer.Report)

	// Debounce is the quiet period before a batch is analyzed.
	// Defaults to 500ms.
	Debounce time.Duration

	Logger *slog.Logger
}

// Watcher watches a directory tree and feeds changed PHP files to a
// Runner after a debounce interval.
type Watcher struct {
	rootDir  string
	runner   Runner
	onReport func(*analyzer.Report)
	debounce time.Duration
	logger   *slog.Logger

	fsw    *fsnotify.Watcher
	ctx    context.Context
	cancel context.CancelFunc

	pendingMu sync.Mutex
	pending   map[string]bool

	timerMu sync.Mutex
	timer   *time.Timer

	stopOnce sync.Once
	doneCh   chan struct{}
}

// New creates a watcher over rootDir. Directories are registered
// recursively; trees the analyzer never looks at, like VCS metadata and
// dependency directories, are left unwatched.
func New(opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		rootDir:  opts.RootDir,
		runner:   opts.Runner,
		onReport: opts.OnReport,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		fsw:      fsw,
		pending:  make(map[string]bool),
		doneCh:   make(chan struct{}),
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}

	if err := w.watchTree(opts.RootDir); err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// Start begins processing filesystem events until Stop is called or the
// context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)
	go w.watch()
}

// Stop shuts the watcher down and waits for the event loop to exit.
// Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.doneCh
		} else {
			close(w.doneCh)
		}
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) watch() {
	defer close(w.doneCh)

	runCh := make(chan struct{}, 1)

	for {
		select {
		case <-w.ctx.Done():
			w.stopTimer()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			// New directories join the watch so files created inside
			// them later still produce events.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !skipDir(filepath.Base(event.Name)) {
						if err := w.watchTree(event.Name); err != nil {
							w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
						}
					}
				}
			}

			if !relevantEvent(event) {
				continue
			}

			w.pendingMu.Lock()
			w.pending[event.Name] = true
			w.pendingMu.Unlock()

			w.resetTimer(runCh)

		case <-runCh:
			w.flush()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// flush hands the accumulated batch to the runner.
func (w *Watcher) flush() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	w.logger.Debug("analyzing changed files", "count", len(paths))

	report, err := w.runner.RunPaths(w.ctx, paths)
	if err != nil {
		if w.ctx.Err() == nil {
			w.logger.Warn("analysis of changed files failed", "error", err)
		}
		return
	}
	if w.onReport != nil {
		w.onReport(report)
	}
}

func (w *Watcher) resetTimer(runCh chan struct{}) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		if !w.timer.Stop() {
			select {
			case <-w.timer.C:
			default:
			}
		}
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case runCh <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// watchTree registers every directory under root, skipping trees that
// cannot hold analyzable files. Unreadable subdirectories are logged
// and skipped; an unreadable root fails.
func (w *Watcher) watchTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			w.logger.Warn("cannot access directory", "path", path, "error", err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && skipDir(info.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// relevantEvent keeps writes, creates and removes of PHP files. Chmod
// noise and editor artifacts with other extensions are dropped here;
// precise path filtering happens in the analyzer.
func relevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".php")
}

// skipDir excludes dot-directories and dependency trees from watching.
func skipDir(name string) bool {
	if strings.HasPrefix(name, ".") && name != "." {
		return true
	}
	return name == "vendor" || name == "node_modules"
}

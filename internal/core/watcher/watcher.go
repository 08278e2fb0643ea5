// # internal/core/watcher/watcher.go
package watcher

import (
	"crypto/sha256"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pathres/internal/shared/observability"
	"pathres/internal/shared/util"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Options configures a Watcher. Zero Extensions means Rust sources only.
type Options struct {
	Debounce     time.Duration
	ExcludeDirs  []string
	ExcludeFiles []string
	Extensions   []string
	// FileNames are watched regardless of extension, such as pathres.toml.
	FileNames []string
	// Limiter throttles change batches; a batch that is not allowed waits
	// for the next debounce tick. Nil disables throttling.
	Limiter *util.Limiter
}

// Watcher reports batches of changed source files. A write that leaves the
// content unchanged is not reported.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	debounce     time.Duration
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	extFilters   map[string]bool
	nameFilters  map[string]bool
	limiter      *util.Limiter
	onChange     func([]string)
	callbackMu   sync.Mutex

	pending   map[string]time.Time
	hashes    map[string][sha256.Size]byte
	pendingMu sync.Mutex
	timer     *time.Timer
	closed    bool
}

func NewWatcher(opts Options, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}

	excludeDirs, err := compileAll(opts.ExcludeDirs)
	if err != nil {
		return nil, err
	}
	excludeFiles, err := compileAll(opts.ExcludeFiles)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".rs"}
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Watcher{
		fsWatcher:    fsw,
		debounce:     debounce,
		excludeDirs:  excludeDirs,
		excludeFiles: excludeFiles,
		extFilters:   lowerSet(exts),
		nameFilters:  lowerSet(opts.FileNames),
		limiter:      opts.Limiter,
		onChange:     onChange,
		pending:      make(map[string]time.Time),
		hashes:       make(map[string][sha256.Size]byte),
	}, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func lowerSet(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out[v] = true
		}
	}
	return out
}

// Watch adds every directory under paths and starts the event loop.
func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if err := w.watchRecursive(path, false); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

// watchRecursive adds the directories under root. Existing files are
// fingerprinted, or scheduled as changes when enqueue is set.
func (w *Watcher) watchRecursive(root string, enqueue bool) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != root && w.shouldExcludeDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}
		if w.shouldExcludeFile(path) {
			return nil
		}
		if enqueue {
			w.scheduleChange(path)
		} else if sum, ok := fingerprint(path); ok {
			w.pendingMu.Lock()
			w.hashes[path] = sum
			w.pendingMu.Unlock()
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.shouldExcludeDir(event.Name) {
						if err := w.watchRecursive(event.Name, true); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						}
					}
					continue
				}
			}

			if w.shouldExcludeFile(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = time.Now()
	w.armLocked(w.debounce)
}

func (w *Watcher) armLocked(after time.Duration) {
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(after, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	if w.limiter != nil && !w.limiter.Allow() {
		delay := max(w.debounce, w.limiter.Delay())
		slog.Debug("change batch throttled", "pending", len(w.pending), "retry_in", delay)
		w.armLocked(delay)
		w.pendingMu.Unlock()
		return
	}
	candidates := util.SortedStringKeys(w.pending)
	w.pending = make(map[string]time.Time)

	paths := make([]string, 0, len(candidates))
	for _, path := range candidates {
		sum, ok := fingerprint(path)
		if !ok {
			// Removed or unreadable: always a change.
			delete(w.hashes, path)
			paths = append(paths, path)
			continue
		}
		if prev, seen := w.hashes[path]; seen && prev == sum {
			continue
		}
		w.hashes[path] = sum
		paths = append(paths, path)
	}
	w.pendingMu.Unlock()

	if len(paths) > 0 {
		w.callbackMu.Lock()
		defer w.callbackMu.Unlock()
		w.onChange(paths)
	}
}

func fingerprint(path string) ([sha256.Size]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [sha256.Size]byte{}, false
	}
	return sha256.Sum256(data), true
}

// shouldExcludeDir matches the exclude patterns against the directory name
// and its slash-separated path.
func (w *Watcher) shouldExcludeDir(path string) bool {
	base := filepath.Base(path)
	slashed := filepath.ToSlash(path)
	for _, g := range w.excludeDirs {
		if g.Match(base) || g.Match(slashed) {
			return true
		}
	}
	return false
}

func (w *Watcher) shouldExcludeFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))

	if !w.nameFilters[base] && !w.extFilters[strings.ToLower(filepath.Ext(base))] {
		return true
	}
	for _, g := range w.excludeFiles {
		if g.Match(base) || g.Match(filepath.ToSlash(path)) {
			return true
		}
	}
	return false
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

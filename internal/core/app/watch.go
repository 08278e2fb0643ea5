package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"

	"pathres/internal/core/config"
	"pathres/internal/core/watcher"
	"pathres/internal/shared/util"
)

// StartWatcher reloads the workspace whenever a source file under one of
// its roots changes.
func (a *App) StartWatcher() error {
	w, err := watcher.NewWatcher(watcher.Options{
		Debounce:     a.Config.Watch.Debounce,
		ExcludeDirs:  a.Config.Exclude.Dirs,
		ExcludeFiles: a.Config.Exclude.Files,
		Limiter:      util.NewLimiter(a.Config.Watch.ReloadRate, a.Config.Watch.ReloadBurst),
	}, a.HandleChanges)
	if err != nil {
		return err
	}
	a.activeWatcher = w
	return w.Watch(WatchRoots(a.Paths))
}

// StopWatcher closes the watcher started by StartWatcher.
func (a *App) StopWatcher() error {
	if a.activeWatcher == nil {
		return nil
	}
	err := a.activeWatcher.Close()
	a.activeWatcher = nil
	return err
}

// HandleChanges reloads after the watcher reported paths.
func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))
	if _, err := a.Load(context.Background()); err != nil {
		slog.Warn("reload incomplete", "error", err)
	}
}

// WatchRoots returns the workspace root and every crate directory outside
// it, without nested duplicates.
func WatchRoots(paths config.ResolvedPaths) []string {
	candidates := []string{paths.Root}
	for _, c := range paths.Crates {
		candidates = append(candidates, filepath.Dir(c.Root))
	}
	sort.Strings(candidates)

	var roots []string
	for _, c := range candidates {
		covered := false
		for _, r := range roots {
			if util.HasPathPrefix(filepath.ToSlash(c), filepath.ToSlash(r)) {
				covered = true
				break
			}
		}
		if !covered {
			roots = append(roots, c)
		}
	}
	return roots
}

// Package app wires the workspace loader, the snapshot builder and the
// resolver together and keeps them current while files change.
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pathres/internal/core/config"
	"pathres/internal/core/errors"
	"pathres/internal/core/watcher"
	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/engine/resolver"
	"pathres/internal/shared/observability"
	"pathres/internal/shared/util"
)

// Update describes a completed load.
type Update struct {
	SnapshotID uuid.UUID
	Files      int
	Decls      int
	References int
	Changed    []string
	Structural bool
	Duration   time.Duration
	// Err aggregates the files that failed to load; the snapshot is usable
	// without them.
	Err error
}

type App struct {
	Config  *config.Config
	Paths   config.ResolvedPaths
	Parser  *parser.Parser
	Tracker *graph.Tracker
	Cache   *resolver.Cache

	loader    *Loader
	std       *parser.Crate
	buildOpts graph.BuildOptions

	mu       sync.RWMutex
	resolver *resolver.Resolver
	last     Update

	updateMu sync.RWMutex
	onUpdate func(Update)

	activeWatcher *watcher.Watcher
}

// New prepares an app for the workspace configured by cfg; cwd anchors
// relative paths. Nothing is loaded until Load.
func New(cfg *config.Config, cwd string) (*App, error) {
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "resolve workspace paths")
	}
	p := parser.NewParser()
	loader, err := NewLoader(p, paths.Root, cfg.Exclude.Dirs, cfg.Exclude.Files)
	if err != nil {
		return nil, err
	}
	a := &App{
		Config:    cfg,
		Paths:     paths,
		Parser:    p,
		Tracker:   graph.NewTracker(),
		Cache:     resolver.NewCache(cfg.Resolve.CacheCapacity),
		loader:    loader,
		buildOpts: graph.BuildOptions{Prelude: cfg.Workspace.Prelude},
	}
	if cfg.StdEnabled() {
		if a.std, err = StdCrate(p); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

func (a *App) emitUpdate(update Update) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

// CurrentUpdate returns the outcome of the latest load.
func (a *App) CurrentUpdate() Update {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Load reads the workspace and publishes a new snapshot. Files that fail
// to load are reported in the error while the rest of the workspace is
// published; a nil update means nothing was published.
func (a *App) Load(ctx context.Context) (*Update, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Load")
	defer span.End()

	start := time.Now()
	ws, loadErr := a.loader.Load(ctx, a.Paths.Crates)
	if ws == nil {
		return nil, loadErr
	}
	crates := ws.Crates
	if a.std != nil {
		crates = append(crates, a.std)
	}
	snap := graph.Build(crates, a.buildOpts)
	r := resolver.New(snap, resolver.Options{Cache: a.Cache, Tracker: a.Tracker, Logger: slog.Default()})

	update := Update{
		SnapshotID: snap.ID,
		Files:      len(ws.Files),
		Decls:      snap.Len(),
		References: len(snap.References()),
		Changed:    ws.Changed,
		Structural: ws.Structural,
		Err:        loadErr,
	}

	// Queries hold the read lock, so none of them observes the new
	// generations together with the old snapshot.
	a.mu.Lock()
	a.Tracker.Write(func(w *graph.Writer) {
		for _, path := range ws.Changed {
			w.TouchFile(path)
		}
		if ws.Structural {
			w.TouchStructure()
		}
	})
	if ws.Structural && a.resolver != nil {
		a.Cache.InvalidateAll()
		slog.Debug("resolution cache invalidated", "snapshot", snap.ID)
	}
	a.resolver = r
	update.Duration = time.Since(start)
	a.last = update
	a.mu.Unlock()

	kind := "local"
	if ws.Structural {
		kind = "structural"
	}
	observability.WorkspaceReloadsTotal.WithLabelValues(kind).Inc()
	observability.SnapshotDecls.Set(float64(update.Decls))
	observability.SnapshotReferences.Set(float64(update.References))

	slog.Info("workspace loaded",
		"snapshot", snap.ID,
		"files", update.Files,
		"changed", len(update.Changed),
		"structural", update.Structural,
		"decls", update.Decls,
		"duration", update.Duration,
		"heap_mb", util.HeapAllocMB(),
	)
	if loadErr != nil {
		slog.Warn("some files failed to load", "error", loadErr)
	}
	a.emitUpdate(update)
	return &update, loadErr
}

// Query runs fn against the current resolver. A reload waits for running
// queries.
func (a *App) Query(fn func(r *resolver.Resolver) error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.resolver == nil {
		return errors.New(errors.CodeNotFound, "workspace not loaded")
	}
	return fn(a.resolver)
}

// Edit runs fn against the current resolver inside a write action of the
// tracker; generators such as setters require one.
func (a *App) Edit(fn func(w *graph.Writer, r *resolver.Resolver) error) error {
	return a.Query(func(r *resolver.Resolver) error {
		var err error
		a.Tracker.Write(func(w *graph.Writer) {
			err = fn(w, r)
		})
		return err
	})
}

// UpdateConfig applies a changed configuration and reloads from scratch.
func (a *App) UpdateConfig(ctx context.Context, cfg *config.Config, cwd string) error {
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "resolve workspace paths")
	}
	loader, err := NewLoader(a.Parser, paths.Root, cfg.Exclude.Dirs, cfg.Exclude.Files)
	if err != nil {
		return err
	}
	var std *parser.Crate
	if cfg.StdEnabled() {
		if std, err = StdCrate(a.Parser); err != nil {
			return err
		}
	}

	a.mu.Lock()
	a.Config = cfg
	a.Paths = paths
	a.loader = loader
	a.std = std
	a.buildOpts = graph.BuildOptions{Prelude: cfg.Workspace.Prelude}
	a.mu.Unlock()

	_, err = a.Load(ctx)
	return err
}

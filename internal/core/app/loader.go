package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gobwas/glob"
	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"

	"pathres/internal/core/config"
	"pathres/internal/core/errors"
	"pathres/internal/engine/parser"
	"pathres/internal/shared/observability"
)

// Loader reads crate sources from disk, following `mod name;` items to
// name.rs or name/mod.rs. It remembers the previous load: a file whose
// content and module are unchanged keeps its syntax tree, and with it the
// cached resolutions of its references.
type Loader struct {
	parser       *parser.Parser
	root         string
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob

	mu    sync.Mutex
	files map[string]*loadedFile
	roots map[string]parser.NodeID
}

type loadedFile struct {
	hash      uint64
	structure uint64
	module    parser.NodeID
	file      *parser.File
}

// Workspace is the outcome of one load.
type Workspace struct {
	Crates []*parser.Crate
	// Files are the loaded source files, sorted.
	Files []string
	// Changed lists files added, removed or edited since the previous load.
	Changed []string
	// Structural reports a change of any declaration, including a file
	// being added or removed.
	Structural bool
}

// NewLoader creates a loader; exclude patterns apply to paths below root.
func NewLoader(p *parser.Parser, root string, excludeDirs, excludeFiles []string) (*Loader, error) {
	dirs, err := compileGlobs(excludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	files, err := compileGlobs(excludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}
	return &Loader{
		parser:       p,
		root:         root,
		excludeDirs:  dirs,
		excludeFiles: files,
		files:        make(map[string]*loadedFile),
		roots:        make(map[string]parser.NodeID),
	}, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid %s pattern %q", label, p))
		}
		out = append(out, g)
	}
	return out, nil
}

// Load reads every crate. Files that cannot be read or parsed are reported
// in the returned error, which aggregates all of them; the workspace is
// still returned with those modules left empty. Only cancellation yields a
// nil workspace.
func (l *Loader) Load(ctx context.Context, crates []config.ResolvedCrate) (*Workspace, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Loader.Load")
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	run := &loadRun{
		l:     l,
		ctx:   ctx,
		seen:  make(map[string]*loadedFile),
		fresh: make(map[string]bool),
		roots: make(map[string]parser.NodeID),
	}
	ws := &Workspace{}
	for _, c := range crates {
		module, ok := l.roots[c.Root]
		if !ok {
			module = parser.NextNodeID()
		}
		run.refs = nil
		lf, _ := run.file(c.Root, module, filepath.Dir(c.Root))
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if lf == nil {
			continue
		}
		run.roots[c.Root] = module
		root := &parser.Item{
			ID:    module,
			Kind:  parser.ItemMod,
			Name:  c.Name,
			Vis:   parser.Visibility{Kind: parser.VisPublic},
			Items: lf.file.Items,
		}
		ws.Crates = append(ws.Crates, &parser.Crate{Name: c.Name, Edition: c.Edition, Root: root, References: run.refs})
	}

	for path, lf := range run.seen {
		ws.Files = append(ws.Files, path)
		prev, ok := l.files[path]
		if !ok || prev.hash != lf.hash {
			ws.Changed = append(ws.Changed, path)
		}
		if !ok || prev.structure != lf.structure {
			ws.Structural = true
		}
	}
	for path := range l.files {
		if _, ok := run.seen[path]; !ok {
			ws.Changed = append(ws.Changed, path)
			ws.Structural = true
		}
	}
	sort.Strings(ws.Files)
	sort.Strings(ws.Changed)

	l.files = run.seen
	l.roots = run.roots
	span.SetAttributes(attribute.Int("files", len(ws.Files)), attribute.Int("changed", len(ws.Changed)))
	return ws, run.errs.ErrorOrNil()
}

// Forget drops the remembered files so the next load parses everything.
func (l *Loader) Forget() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files = make(map[string]*loadedFile)
}

type loadRun struct {
	l     *Loader
	ctx   context.Context
	seen  map[string]*loadedFile
	fresh map[string]bool
	roots map[string]parser.NodeID
	refs  []*parser.Path
	errs  *multierror.Error
}

func (r *loadRun) fail(err error) {
	r.errs = multierror.Append(r.errs, err)
}

// modRef is a `mod name;` item and the directory its file and submodules
// live in.
type modRef struct {
	item *parser.Item
	dir  string
}

// moduleFiles lists the out-of-line modules of items; inline modules open a
// subdirectory.
func moduleFiles(items []*parser.Item, dir string) []modRef {
	var out []modRef
	for _, it := range items {
		if it.Kind != parser.ItemMod {
			continue
		}
		sub := filepath.Join(dir, it.Name)
		if it.External {
			out = append(out, modRef{item: it, dir: sub})
			continue
		}
		out = append(out, moduleFiles(it.Items, sub)...)
	}
	return out
}

// file loads path as the body of module; dir is where its submodules live.
// The second result reports whether a new syntax tree was produced.
func (r *loadRun) file(path string, module parser.NodeID, dir string) (*loadedFile, bool) {
	if lf, ok := r.seen[path]; ok {
		return lf, r.fresh[path]
	}
	if r.ctx.Err() != nil {
		return nil, false
	}
	if r.l.excluded(path) {
		slog.Debug("skipping excluded module file", "path", path)
		return nil, false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		r.fail(errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "read module file"), errors.CtxPath, path))
		return nil, false
	}
	hash := xxhash.Sum64(content)

	prev := r.l.files[path]
	lf := prev
	if prev == nil || prev.hash != hash || prev.module != module {
		if lf = r.parse(path, content, hash, module, prev); lf == nil {
			return nil, false
		}
	}
	fresh := lf != prev
	r.seen[path] = lf
	r.fresh[path] = fresh

	for {
		refs := moduleFiles(lf.file.Items, dir)
		children := make([]*loadedFile, len(refs))
		stale := false
		for i, ref := range refs {
			child, childFresh := r.module(ref)
			children[i] = child
			if childFresh || (child == nil && len(ref.item.Items) > 0) {
				stale = true
			}
		}
		if fresh {
			for i, ref := range refs {
				ref.item.Items = nil
				if children[i] != nil {
					ref.item.Items = children[i].file.Items
				}
			}
			break
		}
		if !stale {
			break
		}
		// The reused tree may be held by an older snapshot; parse again
		// rather than attach the changed submodule to it.
		if lf = r.parse(path, content, hash, module, prev); lf == nil {
			return nil, false
		}
		fresh = true
		r.seen[path] = lf
		r.fresh[path] = true
	}
	r.refs = append(r.refs, lf.file.References...)
	return lf, fresh
}

func (r *loadRun) module(ref modRef) (*loadedFile, bool) {
	for _, candidate := range []string{ref.dir + ".rs", filepath.Join(ref.dir, "mod.rs")} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return r.file(candidate, ref.item.ID, ref.dir)
		}
	}
	err := errors.New(errors.CodeNotFound, fmt.Sprintf("file for module %q not found", ref.item.Name))
	err = errors.AddContext(err, errors.CtxPath, ref.dir+".rs")
	r.fail(errors.AddContext(err, errors.CtxLocation, ref.item.Location))
	return nil, false
}

// parse produces a new tree for path. Out-of-line module items keep the
// node ids they had in prev so their already loaded files stay attached
// to the right module.
func (r *loadRun) parse(path string, content []byte, hash uint64, module parser.NodeID, prev *loadedFile) *loadedFile {
	start := time.Now()
	file, err := r.l.parser.ParseModule(path, content, module)
	observability.ParsingDuration.WithLabelValues("rust").Observe(time.Since(start).Seconds())
	if err != nil {
		r.fail(err)
		return nil
	}
	if len(file.Errors) > 0 {
		slog.Warn("syntax errors in module file", "path", path, "count", len(file.Errors), "first", file.Errors[0])
	}
	if len(file.Unsupported) > 0 {
		slog.Debug("unsupported path forms", "path", path, "count", len(file.Unsupported))
	}
	if prev != nil {
		ids := make(map[string]parser.NodeID)
		for _, ref := range moduleFiles(prev.file.Items, "") {
			ids[ref.dir] = ref.item.ID
		}
		for _, ref := range moduleFiles(file.Items, "") {
			if id, ok := ids[ref.dir]; ok {
				ref.item.ID = id
			}
		}
	}
	return &loadedFile{hash: hash, structure: structureDigest(file.Items), module: module, file: file}
}

// excluded matches the file patterns against the file name and the dir
// patterns against every directory between the workspace root and the file.
func (l *Loader) excluded(path string) bool {
	base := filepath.Base(path)
	for _, g := range l.excludeFiles {
		if g.Match(base) {
			return true
		}
	}
	rel, err := filepath.Rel(l.root, filepath.Dir(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	for _, name := range strings.Split(filepath.ToSlash(rel), "/") {
		for _, g := range l.excludeDirs {
			if g.Match(name) {
				return true
			}
		}
	}
	return false
}

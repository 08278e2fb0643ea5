// Package resolver maps references to the declarations they denote and
// computes the generic substitution that applies at each use site.
package resolver

import (
	"log/slog"
	"sync"
	"time"

	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/engine/types"
	"pathres/internal/shared/observability"
)

// Options configures a Resolver. Every field is optional.
type Options struct {
	// Cache may be shared by resolvers of successive snapshots; entries are
	// guarded by the tracker's signatures.
	Cache     *Cache
	Tracker   *graph.Tracker
	Inference InferenceResults
	Logger    *slog.Logger
}

// Resolver answers resolution queries over one immutable snapshot. It is
// safe for concurrent use.
type Resolver struct {
	graph     *graph.Snapshot
	cache     *Cache
	tracker   *graph.Tracker
	inference InferenceResults
	logger    *slog.Logger

	implTys   sync.Map // graph.DeclID -> types.Ty
	fnOnceOut graph.DeclID
}

func New(g *graph.Snapshot, opts Options) *Resolver {
	r := &Resolver{
		graph:     g,
		cache:     opts.Cache,
		tracker:   opts.Tracker,
		inference: opts.Inference,
		logger:    opts.Logger,
	}
	if r.cache == nil {
		r.cache = NewCache(DefaultCacheCapacity)
	}
	if r.tracker == nil {
		r.tracker = graph.NewTracker()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.fnOnceOut = r.findFnOnceOutput()
	return r
}

// Snapshot returns the snapshot the resolver reads.
func (r *Resolver) Snapshot() *graph.Snapshot { return r.graph }

func (r *Resolver) signature(path *parser.Path) graph.Signature {
	return r.tracker.Signature(path.Location.File)
}

// Resolve returns every declaration path may denote in its required
// namespace, each instantiated independently and tagged with visibility.
// An empty result means the reference is unresolved.
func (r *Resolver) Resolve(path *parser.Path) []Resolved {
	if path == nil {
		return nil
	}
	start := time.Now()
	defer func() {
		observability.ResolveDuration.Observe(time.Since(start).Seconds())
	}()

	if res, ok := r.fromInference(path); ok {
		return freshenAll(res)
	}
	res := r.cache.GetOrCompute(path, r.signature(path), func() []Resolved {
		out := r.resolveWith(path, newWalk())
		observability.CandidatesPerResolve.Observe(float64(len(out)))
		return out
	})
	return freshenAll(res)
}

func (r *Resolver) fromInference(path *parser.Path) ([]Resolved, bool) {
	if r.inference == nil || path.Context != parser.CtxExpr || path.Parent() != nil {
		return nil, false
	}
	return r.inference.ResolvedPath(path)
}

// ResolvePublicOnly keeps the results of Resolve reachable through public
// paths.
func (r *Resolver) ResolvePublicOnly(path *parser.Path) []Resolved {
	var out []Resolved
	for _, res := range r.Resolve(path) {
		if res.IsPublic {
			out = append(out, res)
		}
	}
	return out
}

// MultiResolve returns the declarations of every result.
func (r *Resolver) MultiResolve(path *parser.Path) []graph.DeclID {
	res := r.Resolve(path)
	out := make([]graph.DeclID, len(res))
	for i, x := range res {
		out[i] = x.Decl
	}
	return out
}

// AdvancedResolve returns the single result of path with its substitution
// and associated types. Ambiguous and unresolved paths yield false.
func (r *Resolver) AdvancedResolve(path *parser.Path) (BoundElement, bool) {
	res := r.Resolve(path)
	if len(res) != 1 {
		return BoundElement{}, false
	}
	return res[0].BoundElement, true
}

// ResolveDecl is AdvancedResolve without the instantiation.
func (r *Resolver) ResolveDecl(path *parser.Path) (graph.DeclID, bool) {
	b, ok := r.AdvancedResolve(path)
	return b.Decl, ok
}

// DeepResolve resolves path, expands `Self` inside an impl to the impl's
// self type, and chases type aliases.
func (r *Resolver) DeepResolve(path *parser.Path) (BoundElement, bool) {
	b, ok := r.AdvancedResolve(path)
	if !ok {
		return BoundElement{}, false
	}
	d := r.graph.Decl(b.Decl)
	if d.Kind == graph.KindImpl && path.Name == "Self" && d.Item != nil {
		if tp, isPath := parser.SkipParens(d.Item.SelfType).(parser.TypePath); isPath {
			if self, found := r.AdvancedResolve(tp.Path); found {
				b = self
				d = r.graph.Decl(b.Decl)
			}
		}
	}
	if d.Kind == graph.KindTypeAlias {
		return r.ChaseAlias(b)
	}
	return b, true
}

func (r *Resolver) advancedResolveWith(path *parser.Path, w *walk) (BoundElement, bool) {
	res := r.resolveWith(path, w)
	if len(res) != 1 {
		return BoundElement{}, false
	}
	return res[0].BoundElement, true
}

// resolveWith is the uncached pipeline: collect, keep the required
// namespace, instantiate each candidate on its own and tag visibility. A
// current cache entry is reused but nothing computed here is stored, since
// the walk may have cut a recursive lookup short.
func (r *Resolver) resolveWith(path *parser.Path, w *walk) []Resolved {
	if res, ok := r.cache.lookup(path, r.signature(path)); ok {
		return res
	}
	want := requiredNamespaces(path)
	from := r.moduleOf(path)
	qualPublic := true
	if path.Qualifier != nil {
		qualPublic = r.qualifierPublic(path.Qualifier, w)
	}

	var out []Resolved
	seen := make(map[graph.DeclID]bool)
	for _, e := range r.collect(path, w) {
		if e.Namespaces&want == 0 || seen[e.Decl] {
			continue
		}
		seen[e.Decl] = true
		b := r.instantiate(BoundElement{Decl: e.Decl, Subst: e.Subst}, path, w)
		out = append(out, Resolved{BoundElement: b, IsPublic: r.isPublic(e, path, from, qualPublic)})
	}
	return out
}

func (r *Resolver) qualifierPublic(q *parser.Path, w *walk) bool {
	for _, res := range r.resolveWith(q, w) {
		if res.IsPublic {
			return true
		}
	}
	return false
}

// isPublic decides reachability of one candidate from the reference's
// module. Unqualified names walk module boundaries from the defining module
// up to the common ancestor; qualified names only check the last hop since
// the qualifier was checked on its own.
func (r *Resolver) isPublic(e ScopeEntry, path *parser.Path, from graph.DeclID, qualPublic bool) bool {
	if from == types.NoDef {
		return r.graph.Decl(e.Decl).Vis.Kind == parser.VisPublic
	}
	if path.Qualifier != nil || path.QSelf != nil {
		return qualPublic && r.entryVisible(e, from)
	}
	if e.Via != nil {
		return r.entryVisible(e, from) && r.graph.ModulesReachable(e.Via.Scope.Module, from)
	}
	return r.graph.IsReachableFrom(e.Decl, from)
}

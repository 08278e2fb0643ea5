package resolver

import (
	"log/slog"

	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/shared/observability"
)

// ChaseAlias follows type aliases from b to their final target, composing
// substitutions on the way. It stops early, returning the last element
// reached, when an alias's right-hand side does not resolve or is a bare
// generic parameter. A chain that revisits a declaration is cyclic and
// yields false.
func (r *Resolver) ChaseAlias(b BoundElement) (BoundElement, bool) {
	return r.chase(b, newWalk())
}

func (r *Resolver) chase(b BoundElement, w *walk) (BoundElement, bool) {
	base := b
	visited := map[graph.DeclID]bool{b.Decl: true}
	for {
		d := r.graph.Decl(base.Decl)
		if d == nil || d.Kind != graph.KindTypeAlias || d.Item == nil {
			return base, true
		}
		rhs, ok := parser.SkipParens(d.Item.AliasType).(parser.TypePath)
		if !ok {
			return base, true
		}
		next, ok := r.advancedResolveWith(rhs.Path, w)
		if !ok {
			return base, true
		}
		if visited[next.Decl] {
			observability.CyclicAliases.Inc()
			r.logger.Debug("cyclic type alias", slog.String("alias", r.graph.QualifiedName(b.Decl)))
			return BoundElement{}, false
		}
		visited[next.Decl] = true
		if r.graph.Decl(next.Decl).Kind == graph.KindTypeParam {
			return base, true
		}
		base = next.Substitute(base.Subst)
	}
}

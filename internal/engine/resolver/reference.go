package resolver

import (
	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/engine/types"
)

// IsReferenceTo reports whether path denotes target. Expression paths to
// functions and constants are first checked against the raw candidates so
// that the common negative answer needs no instantiation.
func (r *Resolver) IsReferenceTo(path *parser.Path, target graph.DeclID) bool {
	td := r.graph.Decl(target)
	if td == nil {
		return false
	}
	if !requiredNamespaces(path).Intersects(td.Namespaces()) {
		return false
	}

	if td.IsAbstractable() {
		// Trait and impl members are never named by `use` or bare paths.
		if graph.IsImplOrTrait(td.Owner) && (path.Context == parser.CtxUse || path.Qualifier == nil) {
			return false
		}
		if td.Kind != graph.KindTypeAlias && path.Context == parser.CtxExpr && path.Parent() == nil {
			raw := r.Collect(path)
			switch o := td.Owner.(type) {
			case graph.OwnerFree, graph.OwnerForeign:
				return containsDecl(raw, target)
			case graph.OwnerImpl:
				if o.Inherent {
					return containsDecl(raw, target)
				}
				if len(raw) == 1 && raw[0].Decl == target {
					return true
				}
				super := r.superItem(td)
				if super == types.NoDef || !(containsDecl(raw, target) || containsDecl(raw, super)) {
					return false
				}
			case graph.OwnerTrait:
				if !containsDecl(raw, target) {
					return false
				}
			}
		}
	}
	got, ok := r.ResolveDecl(path)
	return ok && got == target
}

// superItem is the trait item a trait impl member implements.
func (r *Resolver) superItem(member *graph.Decl) graph.DeclID {
	o, ok := member.Owner.(graph.OwnerImpl)
	if !ok || o.Inherent {
		return types.NoDef
	}
	impl := r.graph.Decl(o.Impl)
	if impl.Item == nil || impl.Item.Trait == nil {
		return types.NoDef
	}
	trait, ok := r.ResolveDecl(impl.Item.Trait)
	if !ok {
		return types.NoDef
	}
	for _, id := range r.graph.Members(trait, member.Name) {
		if r.graph.Decl(id).Kind == member.Kind {
			return id
		}
	}
	return types.NoDef
}

func containsDecl(entries []ScopeEntry, id graph.DeclID) bool {
	for _, e := range entries {
		if e.Decl == id {
			return true
		}
	}
	return false
}

package resolver

import (
	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/engine/types"
)

// BindAssociatedTypes collects the associated type bindings path writes for
// a trait: `Iterator<Item = u8>` binds `Item`, and callable sugar
// `Fn(A) -> R` binds `FnOnce::Output` to R or to unit when no return type
// is written. Bindings naming no associated type of the trait or its
// supertraits are dropped.
func (r *Resolver) BindAssociatedTypes(trait graph.DeclID, path *parser.Path) map[graph.DeclID]types.Ty {
	d := r.graph.Decl(trait)
	if d == nil || d.Kind != graph.KindTrait {
		return nil
	}
	return r.bindAssociatedTypes(d, path, newWalk())
}

func (r *Resolver) bindAssociatedTypes(trait *graph.Decl, path *parser.Path, w *walk) map[graph.DeclID]types.Ty {
	sc := r.scopeOf(path)
	out := make(map[graph.DeclID]types.Ty)
	if path.TypeArgs != nil {
		for _, b := range path.TypeArgs.Bindings {
			id, ok := r.findAssocType(trait.ID, b.Name, make(map[graph.DeclID]bool), w)
			if !ok {
				continue
			}
			out[id] = r.lowerType(b.Type, sc, w)
		}
	}
	if path.FnSugar != nil {
		if output := r.fnOnceOut; output != types.NoDef {
			var ret types.Ty = types.Unit
			if path.RetType != nil {
				ret = r.lowerType(path.RetType, sc, w)
			}
			out[output] = ret
		}
	}
	return out
}

// findAssocType looks for an associated type named name in trait and,
// breadth first, in its supertraits. The visited set stops supertrait
// cycles.
func (r *Resolver) findAssocType(trait graph.DeclID, name string, visited map[graph.DeclID]bool, w *walk) (graph.DeclID, bool) {
	queue := []graph.DeclID{trait}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		var hits []graph.DeclID
		for _, id := range r.graph.Members(cur, name) {
			if r.graph.Decl(id).Kind == graph.KindTypeAlias {
				hits = append(hits, id)
			}
		}
		if len(hits) == 1 {
			return hits[0], true
		}
		if len(hits) > 1 {
			return types.NoDef, false
		}
		d := r.graph.Decl(cur)
		if d.Item == nil {
			continue
		}
		for _, sp := range d.Item.Supertraits {
			for _, st := range r.resolveBoundTraits(sp, w) {
				queue = append(queue, st.Decl)
			}
		}
	}
	return types.NoDef, false
}

// findFnOnceOutput finds `FnOnce::Output` among the prelude traits.
func (r *Resolver) findFnOnceOutput() graph.DeclID {
	w := newWalk()
	for _, mod := range r.graph.PreludeModules() {
		for _, e := range r.lookupScope(r.graph.ModuleScope(mod), "FnOnce", graph.NsTypes, w) {
			if r.graph.Decl(e.Decl).Kind != graph.KindTrait {
				continue
			}
			for _, m := range r.graph.Members(e.Decl, "Output") {
				if r.graph.Decl(m).Kind == graph.KindTypeAlias {
					return m
				}
			}
		}
	}
	return types.NoDef
}

package resolver

import (
	"pathres/internal/engine/graph"
	"pathres/internal/engine/types"
)

// implSelfTy lowers the self type of an impl once per resolver.
func (r *Resolver) implSelfTy(impl graph.DeclID, w *walk) types.Ty {
	if v, ok := r.implTys.Load(impl); ok {
		return v.(types.Ty)
	}
	d := r.graph.Decl(impl)
	if d == nil || d.Item == nil {
		return types.TyUnknown{}
	}
	if w.visiting[impl] {
		return types.TyUnknown{}
	}
	w.visiting[impl] = true
	defer delete(w.visiting, impl)
	ty := r.lowerType(d.Item.SelfType, d.Scope, w)
	if !types.IsUnknown(ty) {
		r.implTys.Store(impl, ty)
	}
	return ty
}

// typeMembers finds associated items named name of the impls whose self
// type matches ty. Inherent impl members shadow trait impl members.
func (r *Resolver) typeMembers(ty types.Ty, qual types.Substitution, name string, w *walk) []ScopeEntry {
	if types.IsUnknown(ty) {
		return nil
	}
	var inherent, fromTraits []ScopeEntry
	for _, impl := range r.graph.Impls() {
		d := r.graph.Decl(impl)
		if d.Item != nil && d.Item.Negative {
			continue
		}
		params := make(map[graph.DeclID]bool, len(d.TypeParams))
		for _, p := range d.TypeParams {
			params[p] = true
		}
		bound := make(map[graph.DeclID]types.Ty)
		if !unify(r.implSelfTy(impl, w), ty, params, bound) {
			continue
		}
		implSubst := r.implSubst(d, bound, qual)

		members := r.graph.Members(impl, name)
		if d.Item.Trait == nil {
			for _, id := range members {
				inherent = append(inherent, r.entriesFor(name, id, graph.NsAll, implSubst, nil)...)
			}
			continue
		}
		for _, id := range members {
			fromTraits = append(fromTraits, r.entriesFor(name, id, graph.NsAll, implSubst, nil)...)
		}
		if len(members) > 0 {
			continue
		}
		// Provided trait items the impl does not override.
		for _, trait := range r.resolveBoundTraits(d.Item.Trait, w) {
			trait = trait.Substitute(implSubst)
			trait.Subst = trait.Subst.Then(selfSubst(ty))
			fromTraits = append(fromTraits, r.traitMembers(trait, name, make(map[graph.DeclID]bool), w)...)
		}
	}
	if len(inherent) > 0 {
		return inherent
	}
	return fromTraits
}

// implSubst turns unification bindings into a substitution over the impl's
// parameters. A binding keeps the origin of the qualifier argument it came
// from; unbound parameters become unknown.
func (r *Resolver) implSubst(impl *graph.Decl, bound map[graph.DeclID]types.Ty, qual types.Substitution) types.Substitution {
	if len(impl.TypeParams) == 0 {
		return types.Substitution{}
	}
	ts := make(map[types.DefID]types.TypeArg, len(impl.TypeParams))
	for _, p := range impl.TypeParams {
		t, ok := bound[p]
		if !ok {
			ts[p] = types.UnknownArg()
			continue
		}
		ts[p] = types.TypeArg{Origin: originOf(t, qual), Ty: t}
	}
	return types.NewSubstitution(ts, nil, nil)
}

func originOf(t types.Ty, qual types.Substitution) types.Origin {
	for _, p := range qual.TypeParams() {
		if a, _ := qual.Type(p); types.Equal(a.Ty, t) {
			return a.Origin
		}
	}
	switch t.(type) {
	case types.TyInfer:
		return types.OriginInferred
	case types.TyUnknown:
		return types.OriginUnknown
	default:
		return types.OriginExplicit
	}
}

func loose(t types.Ty) bool {
	switch t.(type) {
	case types.TyInfer, types.TyUnknown:
		return true
	}
	return false
}

// unify matches an impl self type against a concrete type, binding the
// impl's parameters. Unknown and inference types match anything.
func unify(pattern, target types.Ty, params map[graph.DeclID]bool, out map[graph.DeclID]types.Ty) bool {
	if p, ok := pattern.(types.TyParam); ok && params[p.Param] {
		if prev, seen := out[p.Param]; seen {
			if loose(prev) {
				out[p.Param] = target
				return true
			}
			return loose(target) || types.Equal(prev, target)
		}
		out[p.Param] = target
		return true
	}
	if loose(pattern) || loose(target) {
		return true
	}
	switch p := pattern.(type) {
	case types.TyParam:
		t, ok := target.(types.TyParam)
		return ok && t.Param == p.Param
	case types.TyPrimitive:
		t, ok := target.(types.TyPrimitive)
		return ok && t.Name == p.Name
	case types.TyNever:
		_, ok := target.(types.TyNever)
		return ok
	case types.TyAdt:
		t, ok := target.(types.TyAdt)
		return ok && t.Def == p.Def && unifyList(p.Args, t.Args, params, out)
	case types.TyTraitObject:
		t, ok := target.(types.TyTraitObject)
		return ok && t.Def == p.Def && unifyList(p.Args, t.Args, params, out)
	case types.TyTuple:
		t, ok := target.(types.TyTuple)
		return ok && unifyList(p.Elems, t.Elems, params, out)
	case types.TyRef:
		t, ok := target.(types.TyRef)
		return ok && t.Mut == p.Mut && unify(p.Inner, t.Inner, params, out)
	case types.TySlice:
		t, ok := target.(types.TySlice)
		return ok && unify(p.Elem, t.Elem, params, out)
	case types.TyArray:
		t, ok := target.(types.TyArray)
		return ok && unify(p.Elem, t.Elem, params, out)
	case types.TyPtr:
		t, ok := target.(types.TyPtr)
		return ok && t.Mut == p.Mut && unify(p.Inner, t.Inner, params, out)
	case types.TyFnPtr:
		t, ok := target.(types.TyFnPtr)
		return ok && unifyList(p.Inputs, t.Inputs, params, out) && unify(p.Output, t.Output, params, out)
	default:
		return false
	}
}

func unifyList(ps, ts []types.Ty, params map[graph.DeclID]bool, out map[graph.DeclID]types.Ty) bool {
	if len(ps) != len(ts) {
		return false
	}
	for i := range ps {
		if !unify(ps[i], ts[i], params, out) {
			return false
		}
	}
	return true
}

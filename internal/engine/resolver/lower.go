package resolver

import (
	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/engine/types"
)

// LowerType converts a syntactic type written in scope sc to a semantic
// type. Paths inside the type resolve from their own position.
func (r *Resolver) LowerType(ref parser.TypeRef, sc *graph.Scope) types.Ty {
	return r.lowerType(ref, sc, newWalk())
}

func (r *Resolver) lowerType(ref parser.TypeRef, sc *graph.Scope, w *walk) types.Ty {
	switch t := ref.(type) {
	case nil:
		return types.TyUnknown{}
	case parser.TypePath:
		return r.lowerPath(t.Path, w)
	case parser.TypeTuple:
		elems := make([]types.Ty, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = r.lowerType(e, sc, w)
		}
		return types.TyTuple{Elems: elems}
	case parser.TypeReference:
		return types.TyRef{Mut: t.Mut, Region: r.lifetime(t.Lifetime, sc), Inner: r.lowerType(t.Inner, sc, w)}
	case parser.TypeSlice:
		return types.TySlice{Elem: r.lowerType(t.Elem, sc, w)}
	case parser.TypeArray:
		return types.TyArray{
			Elem: r.lowerType(t.Elem, sc, w),
			Len:  r.evalConst(t.Len, types.TyPrimitive{Name: "usize"}, w),
		}
	case parser.TypePointer:
		return types.TyPtr{Mut: t.Mut, Inner: r.lowerType(t.Inner, sc, w)}
	case parser.TypeFnPtr:
		fn := types.TyFnPtr{Inputs: make([]types.Ty, len(t.Inputs)), Output: types.Unit}
		for i, in := range t.Inputs {
			fn.Inputs[i] = r.lowerType(in, sc, w)
		}
		if t.Output != nil {
			fn.Output = r.lowerType(t.Output, sc, w)
		}
		return fn
	case parser.TypeNever:
		return types.TyNever{}
	case parser.TypeInfer:
		return types.TyInfer{Var: types.NewInferVar(types.NoDef, "_")}
	case parser.TypeParen:
		return r.lowerType(t.Inner, sc, w)
	case parser.TypeDyn:
		for _, b := range t.Bounds {
			for _, trait := range r.resolveBoundTraits(b, w) {
				return r.traitObject(trait)
			}
		}
		return types.TyUnknown{}
	default:
		return types.TyUnknown{}
	}
}

// lifetime resolves a lifetime name written in sc.
func (r *Resolver) lifetime(name string, sc *graph.Scope) types.Region {
	switch name {
	case "":
		return types.ReUnknown{}
	case "'static":
		return types.ReStatic{}
	case "'_":
		return types.ReUnknown{}
	}
	for cur := sc; cur != nil; cur = cur.Parent {
		for _, id := range cur.Lookup(name) {
			if d := r.graph.Decl(id); d.Kind == graph.KindLifetimeParam {
				return types.ReEarlyBound{Param: id, Name: name}
			}
		}
	}
	return types.ReUnknown{}
}

// lowerPath resolves a type path and converts the single result to a type.
// Unresolved and ambiguous paths lower to the unknown type.
func (r *Resolver) lowerPath(path *parser.Path, w *walk) types.Ty {
	if !w.enter() {
		return types.TyUnknown{}
	}
	defer w.leave()
	res := r.resolveWith(path, w)
	if len(res) != 1 {
		return types.TyUnknown{}
	}
	return r.boundTy(res[0].BoundElement, path.Name == "Self", w)
}

// boundTy is the type a bound type-namespace declaration denotes.
func (r *Resolver) boundTy(b BoundElement, selfRef bool, w *walk) types.Ty {
	d := r.graph.Decl(b.Decl)
	if d == nil {
		return types.TyUnknown{}
	}
	switch d.Kind {
	case graph.KindPrimitive:
		return types.TyPrimitive{Name: d.Name}
	case graph.KindStruct, graph.KindEnum:
		return types.TyAdt{Def: d.ID, Name: d.Name, Args: r.typeArgs(d, b.Subst)}
	case graph.KindTypeParam:
		return types.TyParam{Param: d.ID, Name: d.Name}
	case graph.KindTrait:
		if selfRef {
			return types.SelfTy
		}
		return r.traitObject(b)
	case graph.KindTypeAlias:
		return r.underlyingTy(b, w)
	case graph.KindImpl:
		return r.implSelfTy(d.ID, w)
	default:
		return types.TyUnknown{}
	}
}

// typeArgs orders the type arguments of d like its parameters.
func (r *Resolver) typeArgs(d *graph.Decl, s types.Substitution) []types.Ty {
	if len(d.TypeParams) == 0 {
		return nil
	}
	args := make([]types.Ty, len(d.TypeParams))
	for i, pid := range d.TypeParams {
		if a, ok := s.Type(pid); ok {
			args[i] = a.Ty
		} else {
			args[i] = types.TyParam{Param: pid, Name: r.graph.Decl(pid).Name}
		}
	}
	return args
}

func (r *Resolver) traitObject(b BoundElement) types.Ty {
	d := r.graph.Decl(b.Decl)
	return types.TyTraitObject{Def: d.ID, Name: d.Name, Args: r.typeArgs(d, b.Subst)}
}

// UnderlyingType is the type an alias-bound element stands for: the alias
// chain is chased and the final right-hand side is lowered under the
// accumulated substitution.
func (r *Resolver) UnderlyingType(b BoundElement) types.Ty {
	return r.underlyingTy(b, newWalk())
}

func (r *Resolver) underlyingTy(b BoundElement, w *walk) types.Ty {
	if w.visiting[b.Decl] {
		return types.TyUnknown{}
	}
	w.visiting[b.Decl] = true
	defer delete(w.visiting, b.Decl)

	chased, ok := r.chase(b, w)
	if !ok {
		return types.TyUnknown{}
	}
	d := r.graph.Decl(chased.Decl)
	if d == nil {
		return types.TyUnknown{}
	}
	if d.Kind != graph.KindTypeAlias {
		return r.boundTy(chased, false, w)
	}
	if d.Item == nil || d.Item.AliasType == nil {
		return types.TyUnknown{}
	}
	return chased.Subst.ApplyTy(r.lowerType(d.Item.AliasType, d.Scope, w))
}

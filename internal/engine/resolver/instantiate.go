package resolver

import (
	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/engine/types"
	"pathres/internal/shared/observability"
)

// inferenceAllowed reports whether generic arguments at path are optional:
// the path of an expression, or the direct qualifier of one
// (`Foo::bar()` can stand for `Foo::<u8>::bar::<u16>()`).
func inferenceAllowed(path *parser.Path) bool {
	if path.Context != parser.CtxExpr {
		return false
	}
	parent := path.Parent()
	return parent == nil || parent.Parent() == nil
}

// Instantiate computes the substitution path implies for the declaration
// of base and composes it after base's own substitution. The result maps
// every generic parameter of the declaration.
func (r *Resolver) Instantiate(base BoundElement, path *parser.Path) BoundElement {
	return r.instantiate(base, path, newWalk())
}

func (r *Resolver) instantiate(base BoundElement, path *parser.Path, w *walk) BoundElement {
	d := r.graph.Decl(base.Decl)
	if d == nil || !d.IsGeneric() || d.Kind == graph.KindImpl || path.Name == "Self" {
		return base
	}
	sc := r.scopeOf(path)
	optional := inferenceAllowed(path)
	args := path.TypeArgs

	var typeArgs []types.Ty
	explicit := false
	switch {
	case args != nil:
		explicit = true
		for _, t := range args.Types {
			typeArgs = append(typeArgs, r.lowerType(t, sc, w))
		}
	case path.FnSugar != nil:
		explicit = true
		elems := make([]types.Ty, len(path.FnSugar.Inputs))
		for i, in := range path.FnSugar.Inputs {
			elems[i] = r.lowerType(in, sc, w)
		}
		typeArgs = []types.Ty{types.TyTuple{Elems: elems}}
	}
	if len(typeArgs) > len(d.TypeParams) {
		observability.MalformedArguments.Inc()
	}

	ts := make(map[types.DefID]types.TypeArg, len(d.TypeParams))
	for i, pid := range d.TypeParams {
		switch {
		case i < len(typeArgs):
			ts[pid] = types.Concrete(typeArgs[i])
		case optional && !explicit:
			ts[pid] = types.InferredArg(types.NewInferVar(pid, r.graph.Decl(pid).Name))
		default:
			ts[pid] = r.defaultArg(pid, path, ts, w)
		}
	}

	rs := make(map[types.DefID]types.Region, len(d.LifetimeParams))
	var lifetimes []string
	if args != nil {
		lifetimes = args.Lifetimes
	}
	if len(lifetimes) > len(d.LifetimeParams) {
		observability.MalformedArguments.Inc()
	}
	for i, pid := range d.LifetimeParams {
		switch {
		case len(lifetimes) == 0:
			rs[pid] = types.ReEarlyBound{Param: pid, Name: r.graph.Decl(pid).Name}
		case i < len(lifetimes):
			rs[pid] = r.lifetime(lifetimes[i], sc)
		default:
			rs[pid] = types.ReUnknown{}
		}
	}

	cs := make(map[types.DefID]types.ConstArg, len(d.ConstParams))
	var consts []parser.ConstExpr
	if args != nil {
		consts = args.Consts
	}
	if len(consts) > len(d.ConstParams) {
		observability.MalformedArguments.Inc()
	}
	partial := types.NewSubstitution(ts, rs, nil)
	for i, pid := range d.ConstParams {
		p := r.graph.Decl(pid)
		expected := partial.ApplyTy(r.lowerType(p.Param.ConstType, p.DeclScope, w))
		switch {
		case i < len(consts):
			cs[pid] = types.ConstArg{Origin: types.OriginExplicit, Const: r.evalConst(consts[i], expected, w)}
		case optional && !explicit:
			cs[pid] = types.ConstArg{Origin: types.OriginInferred, Const: types.CtInfer{Var: types.NewInferVar(pid, p.Name)}}
		case p.Param.ConstDefault != nil:
			cs[pid] = types.ConstArg{Origin: types.OriginDefault, Const: r.evalConst(p.Param.ConstDefault, expected, w)}
		default:
			cs[pid] = types.ConstArg{Origin: types.OriginUnknown, Const: types.CtUnknown{}}
		}
	}

	out := BoundElement{
		Decl:  base.Decl,
		Subst: base.Subst.Then(types.NewSubstitution(ts, rs, cs)),
		Assoc: base.Assoc,
	}
	if d.Kind == graph.KindTrait {
		if assoc := r.bindAssociatedTypes(d, path, w); len(assoc) > 0 {
			merged := make(map[graph.DeclID]types.Ty, len(assoc)+len(base.Assoc))
			for k, v := range base.Assoc {
				merged[k] = v
			}
			for k, v := range assoc {
				merged[k] = v
			}
			out.Assoc = merged
		}
	}
	return out
}

// defaultArg lowers the declared default of a type parameter and
// substitutes the parameters already bound before it. In trait bound
// position `Self` inside the default is the bound's subject type.
func (r *Resolver) defaultArg(pid graph.DeclID, path *parser.Path, earlier map[types.DefID]types.TypeArg, w *walk) types.TypeArg {
	p := r.graph.Decl(pid)
	if p.Param == nil || p.Param.Default == nil || w.visiting[pid] {
		return types.UnknownArg()
	}
	w.visiting[pid] = true
	defer delete(w.visiting, pid)

	ty := r.lowerType(p.Param.Default, p.DeclScope, w)
	ty = types.NewSubstitution(earlier, nil, nil).ApplyTy(ty)
	if path.Context == parser.CtxTraitBound && path.Parent() == nil {
		var self types.Ty = types.TyUnknown{}
		if path.BoundSelf != nil {
			self = r.lowerType(path.BoundSelf, r.scopeOf(path), w)
		}
		ty = selfSubst(self).ApplyTy(ty)
	}
	return types.Defaulted(ty)
}

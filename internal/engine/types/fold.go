package types

// Folder rewrites types bottom-up. A hook returning true replaces the node
// and stops descent into it; nil hooks leave nodes unchanged.
type Folder struct {
	Ty     func(Ty) (Ty, bool)
	Region func(Region) (Region, bool)
	Const  func(Const) (Const, bool)
}

func (f Folder) FoldTy(t Ty) Ty {
	if t == nil {
		return nil
	}
	if f.Ty != nil {
		if nt, ok := f.Ty(t); ok {
			return nt
		}
	}
	switch t := t.(type) {
	case TyTuple:
		return TyTuple{Elems: f.foldList(t.Elems)}
	case TyAdt:
		return TyAdt{Def: t.Def, Name: t.Name, Args: f.foldList(t.Args)}
	case TyTraitObject:
		return TyTraitObject{Def: t.Def, Name: t.Name, Args: f.foldList(t.Args)}
	case TyRef:
		return TyRef{Mut: t.Mut, Region: f.FoldRegion(t.Region), Inner: f.FoldTy(t.Inner)}
	case TySlice:
		return TySlice{Elem: f.FoldTy(t.Elem)}
	case TyPtr:
		return TyPtr{Mut: t.Mut, Inner: f.FoldTy(t.Inner)}
	case TyFnPtr:
		return TyFnPtr{Inputs: f.foldList(t.Inputs), Output: f.FoldTy(t.Output)}
	case TyArray:
		return TyArray{Elem: f.FoldTy(t.Elem), Len: f.FoldConst(t.Len)}
	default:
		return t
	}
}

func (f Folder) FoldRegion(r Region) Region {
	if r == nil || f.Region == nil {
		return r
	}
	if nr, ok := f.Region(r); ok {
		return nr
	}
	return r
}

func (f Folder) FoldConst(c Const) Const {
	if c == nil || f.Const == nil {
		return c
	}
	if nc, ok := f.Const(c); ok {
		return nc
	}
	return c
}

func (f Folder) foldList(ts []Ty) []Ty {
	if ts == nil {
		return nil
	}
	out := make([]Ty, len(ts))
	for i, t := range ts {
		out[i] = f.FoldTy(t)
	}
	return out
}

// Visit calls fn on t and all of its component types, outermost first.
func Visit(t Ty, fn func(Ty)) {
	if t == nil {
		return
	}
	fn(t)
	switch t := t.(type) {
	case TyTuple:
		for _, e := range t.Elems {
			Visit(e, fn)
		}
	case TyAdt:
		for _, a := range t.Args {
			Visit(a, fn)
		}
	case TyTraitObject:
		for _, a := range t.Args {
			Visit(a, fn)
		}
	case TyRef:
		Visit(t.Inner, fn)
	case TySlice:
		Visit(t.Elem, fn)
	case TyPtr:
		Visit(t.Inner, fn)
	case TyFnPtr:
		for _, in := range t.Inputs {
			Visit(in, fn)
		}
		Visit(t.Output, fn)
	case TyArray:
		Visit(t.Elem, fn)
	}
}

// HasInfer reports whether t mentions an inference placeholder.
func HasInfer(t Ty) bool {
	found := false
	Visit(t, func(x Ty) {
		if _, ok := x.(TyInfer); ok {
			found = true
		}
	})
	return found
}

// Equal compares types structurally. Inference variables compare by id.
func Equal(a, b Ty) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case TyUnknown:
		_, ok := b.(TyUnknown)
		return ok
	case TyNever:
		_, ok := b.(TyNever)
		return ok
	case TyPrimitive:
		bb, ok := b.(TyPrimitive)
		return ok && a.Name == bb.Name
	case TyTuple:
		bb, ok := b.(TyTuple)
		return ok && equalList(a.Elems, bb.Elems)
	case TyAdt:
		bb, ok := b.(TyAdt)
		return ok && a.Def == bb.Def && equalList(a.Args, bb.Args)
	case TyTraitObject:
		bb, ok := b.(TyTraitObject)
		return ok && a.Def == bb.Def && equalList(a.Args, bb.Args)
	case TyParam:
		bb, ok := b.(TyParam)
		return ok && a.Param == bb.Param
	case TyInfer:
		bb, ok := b.(TyInfer)
		return ok && a.Var.ID == bb.Var.ID
	case TyRef:
		bb, ok := b.(TyRef)
		return ok && a.Mut == bb.Mut && RegionEqual(a.Region, bb.Region) && Equal(a.Inner, bb.Inner)
	case TySlice:
		bb, ok := b.(TySlice)
		return ok && Equal(a.Elem, bb.Elem)
	case TyPtr:
		bb, ok := b.(TyPtr)
		return ok && a.Mut == bb.Mut && Equal(a.Inner, bb.Inner)
	case TyFnPtr:
		bb, ok := b.(TyFnPtr)
		return ok && equalList(a.Inputs, bb.Inputs) && Equal(a.Output, bb.Output)
	case TyArray:
		bb, ok := b.(TyArray)
		return ok && Equal(a.Elem, bb.Elem) && ConstEqual(a.Len, bb.Len)
	}
	return false
}

func equalList(a, b []Ty) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func RegionEqual(a, b Region) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case ReEarlyBound:
		bb, ok := b.(ReEarlyBound)
		return ok && a.Param == bb.Param
	case ReStatic:
		_, ok := b.(ReStatic)
		return ok
	case ReUnknown:
		_, ok := b.(ReUnknown)
		return ok
	}
	return false
}

func ConstEqual(a, b Const) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case CtInt:
		bb, ok := b.(CtInt)
		return ok && a.Value == bb.Value
	case CtBool:
		bb, ok := b.(CtBool)
		return ok && a.Value == bb.Value
	case CtParam:
		bb, ok := b.(CtParam)
		return ok && a.Param == bb.Param
	case CtUnknown:
		_, ok := b.(CtUnknown)
		return ok
	case CtInfer:
		bb, ok := b.(CtInfer)
		return ok && a.Var.ID == bb.Var.ID
	}
	return false
}

// Package types holds the semantic side of resolution: types, regions,
// constants, inference placeholders and the substitutions that map generic
// parameters to them. Every value here is immutable once built.
package types

import (
	"strconv"
	"strings"
)

// DefID identifies a declaration in the declaration graph.
type DefID int32

// NoDef is the zero declaration id; no real declaration uses it.
const NoDef DefID = 0

// SelfParam is the parameter id of the implicit `Self` type parameter of
// traits. It never collides with graph-allocated ids, which are positive.
const SelfParam DefID = -1

// Ty is a semantic type.
type Ty interface {
	String() string
	isTy()
}

type TyUnknown struct{}

type TyNever struct{}

type TyPrimitive struct {
	Name string
}

// TyTuple with no elements is the unit type.
type TyTuple struct {
	Elems []Ty
}

// TyAdt is a struct, enum or union applied to arguments ordered like the
// declaration's type parameters.
type TyAdt struct {
	Def  DefID
	Name string
	Args []Ty
}

// TyParam is an unsubstituted generic type parameter.
type TyParam struct {
	Param DefID
	Name  string
}

// TyInfer is an inference placeholder left for a later, context-aware pass.
type TyInfer struct {
	Var InferVar
}

type TyRef struct {
	Mut    bool
	Region Region
	Inner  Ty
}

type TySlice struct {
	Elem Ty
}

type TyArray struct {
	Elem Ty
	Len  Const
}

type TyPtr struct {
	Mut   bool
	Inner Ty
}

// TyFnPtr is `fn(A, B) -> R`.
type TyFnPtr struct {
	Inputs []Ty
	Output Ty
}

// TyTraitObject is a trait named in type position (`dyn Trait<A>`).
type TyTraitObject struct {
	Def  DefID
	Name string
	Args []Ty
}

func (TyUnknown) isTy()     {}
func (TyNever) isTy()       {}
func (TyPrimitive) isTy()   {}
func (TyTuple) isTy()       {}
func (TyAdt) isTy()         {}
func (TyParam) isTy()       {}
func (TyInfer) isTy()       {}
func (TyRef) isTy()         {}
func (TySlice) isTy()       {}
func (TyArray) isTy()       {}
func (TyPtr) isTy()         {}
func (TyFnPtr) isTy()       {}
func (TyTraitObject) isTy() {}

// Unit is the empty tuple.
var Unit Ty = TyTuple{}

// SelfTy is the `Self` parameter of a trait.
var SelfTy Ty = TyParam{Param: SelfParam, Name: "Self"}

func IsUnit(t Ty) bool {
	tup, ok := t.(TyTuple)
	return ok && len(tup.Elems) == 0
}

func IsUnknown(t Ty) bool {
	_, ok := t.(TyUnknown)
	return t == nil || ok
}

func (TyUnknown) String() string       { return "{unknown}" }
func (TyNever) String() string         { return "!" }
func (t TyPrimitive) String() string   { return t.Name }
func (t TyParam) String() string       { return t.Name }
func (t TyInfer) String() string       { return t.Var.String() }
func (t TySlice) String() string       { return "[" + tyString(t.Elem) + "]" }
func (t TyArray) String() string       { return "[" + tyString(t.Elem) + "; " + constString(t.Len) + "]" }
func (t TyAdt) String() string         { return t.Name + argsString(t.Args) }
func (t TyTraitObject) String() string { return "dyn " + t.Name + argsString(t.Args) }

func (t TyPtr) String() string {
	if t.Mut {
		return "*mut " + tyString(t.Inner)
	}
	return "*const " + tyString(t.Inner)
}

func (t TyFnPtr) String() string {
	parts := make([]string, len(t.Inputs))
	for i, in := range t.Inputs {
		parts[i] = tyString(in)
	}
	s := "fn(" + strings.Join(parts, ", ") + ")"
	if t.Output != nil && !IsUnit(t.Output) {
		s += " -> " + tyString(t.Output)
	}
	return s
}

func (t TyTuple) String() string {
	switch len(t.Elems) {
	case 0:
		return "()"
	case 1:
		return "(" + tyString(t.Elems[0]) + ",)"
	}
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = tyString(e)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (t TyRef) String() string {
	var b strings.Builder
	b.WriteByte('&')
	if t.Region != nil {
		if r := t.Region.String(); r != "'_" {
			b.WriteString(r)
			b.WriteByte(' ')
		}
	}
	if t.Mut {
		b.WriteString("mut ")
	}
	b.WriteString(tyString(t.Inner))
	return b.String()
}

func argsString(args []Ty) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = tyString(a)
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func tyString(t Ty) string {
	if t == nil {
		return TyUnknown{}.String()
	}
	return t.String()
}

func constString(c Const) string {
	if c == nil {
		return CtUnknown{}.String()
	}
	return c.String()
}

// Region is a lifetime value.
type Region interface {
	String() string
	isRegion()
}

// ReEarlyBound is a named lifetime parameter of a declaration.
type ReEarlyBound struct {
	Param DefID
	Name  string
}

type ReStatic struct{}

type ReUnknown struct{}

func (ReEarlyBound) isRegion() {}
func (ReStatic) isRegion()     {}
func (ReUnknown) isRegion()    {}

func (r ReEarlyBound) String() string { return r.Name }
func (ReStatic) String() string       { return "'static" }
func (ReUnknown) String() string      { return "'_" }

// Const is a constant generic argument.
type Const interface {
	String() string
	isConst()
}

type CtInt struct {
	Value int64
}

type CtBool struct {
	Value bool
}

type CtParam struct {
	Param DefID
	Name  string
}

type CtUnknown struct{}

type CtInfer struct {
	Var InferVar
}

func (CtInt) isConst()     {}
func (CtBool) isConst()    {}
func (CtParam) isConst()   {}
func (CtUnknown) isConst() {}
func (CtInfer) isConst()   {}

func (c CtInt) String() string   { return strconv.FormatInt(c.Value, 10) }
func (c CtBool) String() string  { return strconv.FormatBool(c.Value) }
func (c CtParam) String() string { return c.Name }
func (CtUnknown) String() string { return "{unknown}" }
func (c CtInfer) String() string { return c.Var.String() }

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

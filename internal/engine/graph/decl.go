package graph

import (
	"strings"

	"pathres/internal/engine/parser"
	"pathres/internal/engine/types"
)

// DeclID identifies a declaration of the graph. Ids start at 1.
type DeclID = types.DefID

// DeclKind classifies declarations.
type DeclKind uint8

const (
	KindMod DeclKind = iota + 1
	KindStruct
	KindEnum
	KindVariant
	KindTrait
	KindFn
	KindTypeAlias
	KindConst
	KindStatic
	KindTypeParam
	KindLifetimeParam
	KindConstParam
	KindImpl
	KindMacro
	KindPrimitive
)

func (k DeclKind) String() string {
	switch k {
	case KindMod:
		return "mod"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindVariant:
		return "variant"
	case KindTrait:
		return "trait"
	case KindFn:
		return "fn"
	case KindTypeAlias:
		return "type"
	case KindConst:
		return "const"
	case KindStatic:
		return "static"
	case KindTypeParam:
		return "type parameter"
	case KindLifetimeParam:
		return "lifetime parameter"
	case KindConstParam:
		return "const parameter"
	case KindImpl:
		return "impl"
	case KindMacro:
		return "macro"
	case KindPrimitive:
		return "primitive"
	default:
		return "invalid"
	}
}

// Namespaces is a set of the disjoint name categories.
type Namespaces uint8

const (
	NsTypes Namespaces = 1 << iota
	NsValues
	NsMacros
	NsLifetimes
)

// NsAll is every namespace, used by `use` paths.
const NsAll = NsTypes | NsValues | NsMacros | NsLifetimes

func (n Namespaces) Has(o Namespaces) bool        { return n&o == o }
func (n Namespaces) Intersects(o Namespaces) bool { return n&o != 0 }

// Each calls fn once per namespace contained in n.
func (n Namespaces) Each(fn func(Namespaces)) {
	for _, ns := range []Namespaces{NsTypes, NsValues, NsMacros, NsLifetimes} {
		if n&ns != 0 {
			fn(ns)
		}
	}
}

func (n Namespaces) String() string {
	if n == 0 {
		return "none"
	}
	var parts []string
	n.Each(func(ns Namespaces) {
		switch ns {
		case NsTypes:
			parts = append(parts, "types")
		case NsValues:
			parts = append(parts, "values")
		case NsMacros:
			parts = append(parts, "macros")
		case NsLifetimes:
			parts = append(parts, "lifetimes")
		}
	})
	return strings.Join(parts, "|")
}

// Owner says what an abstractable item (fn, const, static, type alias)
// belongs to. The set of implementations is closed.
type Owner interface {
	isOwner()
}

// OwnerFree is a module-level item.
type OwnerFree struct{}

// OwnerForeign is an item of an `extern` block.
type OwnerForeign struct{}

// OwnerImpl is an impl member.
type OwnerImpl struct {
	Impl     DeclID
	Inherent bool
}

// OwnerTrait is a trait member.
type OwnerTrait struct {
	Trait DeclID
}

func (OwnerFree) isOwner()    {}
func (OwnerForeign) isOwner() {}
func (OwnerImpl) isOwner()    {}
func (OwnerTrait) isOwner()   {}

// IsImplOrTrait reports owners that are impls or traits.
func IsImplOrTrait(o Owner) bool {
	switch o.(type) {
	case OwnerImpl, OwnerTrait:
		return true
	case OwnerFree, OwnerForeign, nil:
		return false
	default:
		panic("graph: unknown owner kind")
	}
}

// Decl is a named item of the symbol table.
type Decl struct {
	ID    DeclID
	Name  string
	Kind  DeclKind
	Vis   parser.Visibility
	Crate string
	// Module is the nearest enclosing module; for a module it is the parent
	// module and for a crate root NoDef.
	Module DeclID
	// Parent is the syntactic container: module, trait, impl, enum, or the
	// generic declaration a parameter belongs to.
	Parent DeclID
	Owner  Owner
	// Item is the syntax of the declaration; nil for parameters and
	// primitives.
	Item  *parser.Item
	Param *parser.GenericParam
	// Index is the position of a parameter among parameters of its kind.
	Index          int
	TypeParams     []DeclID
	LifetimeParams []DeclID
	ConstParams    []DeclID
	// Members lists trait and impl items and enum variants.
	Members []DeclID
	// Scope is the scope this declaration opens, if any.
	Scope *Scope
	// DeclScope is the scope the declaration is written in.
	DeclScope *Scope
}

// Namespaces returns the namespaces the declaration's name occupies.
func (d *Decl) Namespaces() Namespaces {
	switch d.Kind {
	case KindMod, KindEnum, KindTrait, KindTypeAlias, KindTypeParam, KindPrimitive:
		return NsTypes
	case KindStruct, KindVariant:
		if d.Item != nil && d.Item.Shape != parser.ShapeNamed {
			return NsTypes | NsValues
		}
		return NsTypes
	case KindFn, KindConst, KindStatic, KindConstParam:
		return NsValues
	case KindMacro:
		return NsMacros
	case KindLifetimeParam:
		return NsLifetimes
	default:
		return 0
	}
}

// IsGeneric reports declarations that can carry generic parameters.
func (d *Decl) IsGeneric() bool {
	switch d.Kind {
	case KindStruct, KindEnum, KindTrait, KindFn, KindTypeAlias, KindImpl:
		return true
	}
	return false
}

// IsAdt reports structs and enums.
func (d *Decl) IsAdt() bool {
	return d.Kind == KindStruct || d.Kind == KindEnum
}

// IsAbstractable reports items that may be owned by a trait or impl.
func (d *Decl) IsAbstractable() bool {
	switch d.Kind {
	case KindFn, KindConst, KindStatic, KindTypeAlias:
		return true
	}
	return false
}

func (d *Decl) String() string {
	return d.Kind.String() + " " + d.Name
}

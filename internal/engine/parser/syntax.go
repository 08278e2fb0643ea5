package parser

import (
	"sync/atomic"
)

// NodeID identifies an item or block of the syntax tree. Paths point at the
// innermost enclosing node through Path.Owner.
type NodeID int32

var nodeSeq atomic.Int32

// NextNodeID allocates a process-unique node id.
func NextNodeID() NodeID {
	return NodeID(nodeSeq.Add(1))
}

// PathContext is the syntactic position a path appears in.
type PathContext uint8

const (
	CtxType PathContext = iota
	CtxExpr
	CtxTraitBound
	CtxUse
	CtxMacro
)

func (c PathContext) String() string {
	switch c {
	case CtxType:
		return "type"
	case CtxExpr:
		return "expr"
	case CtxTraitBound:
		return "bound"
	case CtxUse:
		return "use"
	case CtxMacro:
		return "macro"
	default:
		return "invalid"
	}
}

// Path is a reference: a possibly qualified name use site. It is built once
// by an extractor and never changed after Finish.
type Path struct {
	Name      string
	Qualifier *Path
	// Global marks a leading `::`.
	Global   bool
	TypeArgs *TypeArgList
	// FnSugar holds the parenthesised inputs of `Fn(A, B) -> R`.
	FnSugar *FnSugar
	// QSelf is the `<T as Trait>` prefix; only a first segment has one.
	QSelf   *QSelf
	RetType TypeRef
	Context PathContext
	Owner   NodeID
	// BoundSelf is the subject type when the path is a trait bound
	// (`T: Trait` or `where X: Trait`).
	BoundSelf TypeRef
	Location  Location

	parent *Path
}

// QSelf is the bracketed self type of `<T as Trait>::Name` or `<T>::Name`.
// Trait is nil in the second form.
type QSelf struct {
	Type  TypeRef
	Trait *Path
}

type FnSugar struct {
	Inputs []TypeRef
}

// TypeArgList is an angle-bracket argument list.
type TypeArgList struct {
	Types     []TypeRef
	Lifetimes []string
	Consts    []ConstExpr
	Bindings  []AssocBinding
}

// AssocBinding is `Name = Type` inside an argument list.
type AssocBinding struct {
	Name string
	Type TypeRef
}

type Location struct {
	File   string
	Line   int
	Column int
}

// Parent returns the path this path qualifies, or nil for an outermost path.
func (p *Path) Parent() *Path { return p.parent }

// Finish links every qualifier to its parent and propagates owner and
// location. It returns p for chaining.
func (p *Path) Finish() *Path {
	for cur := p; cur.Qualifier != nil; cur = cur.Qualifier {
		q := cur.Qualifier
		q.parent = cur
		q.Owner = cur.Owner
		q.Context = cur.Context
		if q.Location.File == "" {
			q.Location = cur.Location
		}
	}
	return p
}

// Root returns the outermost path of the chain p belongs to.
func (p *Path) Root() *Path {
	cur := p
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// Segments returns the qualifier chain outer-first, ending with p.
func (p *Path) Segments() []*Path {
	var out []*Path
	for cur := p; cur != nil; cur = cur.Qualifier {
		out = append(out, cur)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// IsKeywordSegment reports `crate`, `self`, `super` and `Self`.
func (p *Path) IsKeywordSegment() bool {
	switch p.Name {
	case "crate", "self", "super", "Self":
		return true
	}
	return false
}

// HasSelfType reports whether the chain starts with `Self`.
func (p *Path) HasSelfType() bool {
	segs := p.Segments()
	return len(segs) > 0 && segs[0].Name == "Self"
}

// PathOf builds an unparameterised path from segments, outermost first. A
// leading empty segment spells a global path (`::a::b`).
func PathOf(ctx PathContext, owner NodeID, segments ...string) *Path {
	global := false
	if len(segments) > 0 && segments[0] == "" {
		global = true
		segments = segments[1:]
	}
	var cur *Path
	for i, seg := range segments {
		cur = &Path{Name: seg, Qualifier: cur, Context: ctx, Owner: owner, Global: global && i == 0}
	}
	if cur == nil {
		return nil
	}
	return cur.Finish()
}

// TypeRef is a syntactic type expression.
type TypeRef interface {
	String() string
	isTypeRef()
}

type TypePath struct {
	Path *Path
}

type TypeTuple struct {
	Elems []TypeRef
}

// TypeReference is `&'a mut T`.
type TypeReference struct {
	Mut      bool
	Lifetime string
	Inner    TypeRef
}

type TypeSlice struct {
	Elem TypeRef
}

type TypeArray struct {
	Elem TypeRef
	Len  ConstExpr
}

type TypeNever struct{}

// TypeInfer is `_`.
type TypeInfer struct{}

type TypeParen struct {
	Inner TypeRef
}

// TypeDyn is `dyn Trait` or `impl Trait`, with any `+ 'a` lifetime
// bounds kept for rendering.
type TypeDyn struct {
	Impl      bool
	Bounds    []*Path
	Lifetimes []string
}

// TypePointer is `*const T` or `*mut T`.
type TypePointer struct {
	Mut   bool
	Inner TypeRef
}

// TypeFnPtr is `for<'a> fn(A, B) -> R`. Output is nil for the unit return.
type TypeFnPtr struct {
	Lifetimes []string
	Inputs    []TypeRef
	Output    TypeRef
}

func (TypePath) isTypeRef()      {}
func (TypeTuple) isTypeRef()     {}
func (TypeReference) isTypeRef() {}
func (TypeSlice) isTypeRef()     {}
func (TypeArray) isTypeRef()     {}
func (TypeNever) isTypeRef()     {}
func (TypeInfer) isTypeRef()     {}
func (TypeParen) isTypeRef()     {}
func (TypeDyn) isTypeRef()       {}
func (TypePointer) isTypeRef()   {}
func (TypeFnPtr) isTypeRef()     {}

// SkipParens unwraps redundant parentheses.
func SkipParens(t TypeRef) TypeRef {
	for {
		p, ok := t.(TypeParen)
		if !ok {
			return t
		}
		t = p.Inner
	}
}

// ConstExpr is a constant expression in generic argument or const position.
type ConstExpr interface {
	String() string
	isConstExpr()
}

type LitInt struct {
	Value  int64
	Suffix string
}

type LitBool struct {
	Value bool
}

type ConstPath struct {
	Path *Path
}

type ConstUnary struct {
	Op      string
	Operand ConstExpr
}

type ConstBinary struct {
	Op          string
	Left, Right ConstExpr
}

// ConstBlock is `{ expr }` in argument position.
type ConstBlock struct {
	Expr ConstExpr
}

func (LitInt) isConstExpr()      {}
func (LitBool) isConstExpr()     {}
func (ConstPath) isConstExpr()   {}
func (ConstUnary) isConstExpr()  {}
func (ConstBinary) isConstExpr() {}
func (ConstBlock) isConstExpr()  {}

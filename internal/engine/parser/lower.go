package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Lowering builds the syntax model field by field from tree-sitter nodes.
// Nothing here records references; the extractor walks the lowered
// result for that.

func (c *ExtractionContext) unsupported(n *sitter.Node) {
	c.File.Unsupported = append(c.File.Unsupported, c.Location(n))
}

// namedChildren skips comments, which tree-sitter attaches anywhere.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "line_comment", "block_comment", "attribute_item":
			continue
		}
		out = append(out, child)
	}
	return out
}

func identText(ctx *ExtractionContext, n *sitter.Node) string {
	return strings.TrimPrefix(ctx.Text(n), "r#")
}

// lowerPath builds a path from a path-shaped node. Nodes that are not
// paths are recorded as unsupported and yield nil.
func lowerPath(ctx *ExtractionContext, n *sitter.Node, pc PathContext) *Path {
	if n == nil {
		return nil
	}
	p := pathSegment(ctx, n, pc)
	if p == nil {
		ctx.unsupported(n)
		return nil
	}
	return p.Finish()
}

// pathSegment returns the last segment of the path n spells, with its
// qualifiers linked through Qualifier.
func pathSegment(ctx *ExtractionContext, n *sitter.Node, pc PathContext) *Path {
	if n == nil {
		return nil
	}
	seg := func(name string) *Path {
		return &Path{Name: name, Context: pc, Owner: ctx.Owner, Location: ctx.Location(n)}
	}
	switch n.Kind() {
	case "identifier", "type_identifier", "primitive_type", "self", "super", "crate":
		return seg(identText(ctx, n))
	case "scoped_identifier", "scoped_type_identifier", "scoped_type_identifier_in_expression_position":
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil
		}
		s := seg(identText(ctx, name))
		switch q := n.ChildByFieldName("path"); {
		case q == nil:
			s.Global = true
		case q.Kind() == "bracketed_type":
			if s.QSelf = lowerQSelf(ctx, q); s.QSelf == nil {
				return nil
			}
		default:
			if s.Qualifier = pathSegment(ctx, q, pc); s.Qualifier == nil {
				return nil
			}
		}
		return s
	case "generic_type", "generic_type_with_turbofish", "generic_function":
		field := "type"
		if n.Kind() == "generic_function" {
			field = "function"
		}
		s := pathSegment(ctx, n.ChildByFieldName(field), pc)
		if s == nil {
			return nil
		}
		s.TypeArgs = lowerTypeArgs(ctx, n.ChildByFieldName("type_arguments"))
		return s
	case "function_type":
		s := pathSegment(ctx, n.ChildByFieldName("trait"), pc)
		if s == nil {
			return nil
		}
		s.FnSugar = &FnSugar{Inputs: lowerParams(ctx, n.ChildByFieldName("parameters"))}
		if ret := n.ChildByFieldName("return_type"); ret != nil {
			s.RetType = lowerType(ctx, ret)
		}
		return s
	case "higher_ranked_trait_bound":
		return pathSegment(ctx, n.ChildByFieldName("type"), pc)
	}
	return nil
}

// lowerQSelf reads the `<T as Trait>` of a bracketed_type node.
func lowerQSelf(ctx *ExtractionContext, n *sitter.Node) *QSelf {
	kids := namedChildren(n)
	if len(kids) != 1 {
		return nil
	}
	inner := kids[0]
	if inner.Kind() != "qualified_type" {
		return &QSelf{Type: lowerType(ctx, inner)}
	}
	q := &QSelf{Type: lowerType(ctx, inner.ChildByFieldName("type"))}
	trait := lowerPath(ctx, inner.ChildByFieldName("alias"), CtxTraitBound)
	if trait == nil {
		return nil
	}
	trait.BoundSelf = q.Type
	q.Trait = trait
	return q
}

func lowerTypeArgs(ctx *ExtractionContext, n *sitter.Node) *TypeArgList {
	args := &TypeArgList{}
	for _, a := range namedChildren(n) {
		switch a.Kind() {
		case "lifetime":
			args.Lifetimes = append(args.Lifetimes, ctx.Text(a))
		case "type_binding":
			args.Bindings = append(args.Bindings, AssocBinding{
				Name: identText(ctx, a.ChildByFieldName("name")),
				Type: lowerType(ctx, a.ChildByFieldName("type")),
			})
		case "integer_literal", "boolean_literal", "negative_literal", "block",
			"string_literal", "raw_string_literal", "char_literal", "float_literal":
			if c, ok := lowerConst(ctx, a); ok {
				args.Consts = append(args.Consts, c)
			} else {
				ctx.unsupported(a)
			}
		case "trait_bounds":
			// `Assoc: Bound` constraints name no argument.
		default:
			args.Types = append(args.Types, lowerType(ctx, a))
		}
	}
	return args
}

// lowerParams reads the inputs of `fn(A, B)` and `Fn(A, B)`.
func lowerParams(ctx *ExtractionContext, n *sitter.Node) []TypeRef {
	var out []TypeRef
	for _, p := range namedChildren(n) {
		switch p.Kind() {
		case "parameter":
			out = append(out, lowerType(ctx, p.ChildByFieldName("type")))
		case "self_parameter", "variadic_parameter":
		default:
			out = append(out, lowerType(ctx, p))
		}
	}
	return out
}

// lowerType builds a type from a type node. Forms without a model
// variant, such as macros in type position, become `_` and are recorded
// as unsupported.
func lowerType(ctx *ExtractionContext, n *sitter.Node) TypeRef {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "type_identifier":
		if ctx.Text(n) == "_" {
			return TypeInfer{}
		}
		if p := lowerPath(ctx, n, CtxType); p != nil {
			return TypePath{Path: p}
		}
		return TypeInfer{}
	case "primitive_type", "scoped_type_identifier", "generic_type", "identifier", "scoped_identifier":
		if p := lowerPath(ctx, n, CtxType); p != nil {
			return TypePath{Path: p}
		}
		return TypeInfer{}
	case "function_type":
		if n.ChildByFieldName("trait") != nil {
			if p := lowerPath(ctx, n, CtxType); p != nil {
				return TypePath{Path: p}
			}
			return TypeInfer{}
		}
		return lowerFnPtr(ctx, n)
	case "reference_type":
		ref := TypeReference{Inner: lowerType(ctx, n.ChildByFieldName("type"))}
		for _, c := range namedChildren(n) {
			switch c.Kind() {
			case "lifetime":
				ref.Lifetime = ctx.Text(c)
			case "mutable_specifier":
				ref.Mut = true
			}
		}
		return ref
	case "pointer_type":
		ptr := TypePointer{Inner: lowerType(ctx, n.ChildByFieldName("type"))}
		for _, c := range namedChildren(n) {
			if c.Kind() == "mutable_specifier" {
				ptr.Mut = true
			}
		}
		return ptr
	case "tuple_type":
		var elems []TypeRef
		for _, c := range namedChildren(n) {
			elems = append(elems, lowerType(ctx, c))
		}
		if len(elems) == 1 && !HasToken(n, ",") {
			return TypeParen{Inner: elems[0]}
		}
		return TypeTuple{Elems: elems}
	case "unit_type":
		return TypeTuple{}
	case "array_type":
		elem := lowerType(ctx, n.ChildByFieldName("element"))
		length := n.ChildByFieldName("length")
		if length == nil {
			return TypeSlice{Elem: elem}
		}
		c, ok := lowerConst(ctx, length)
		if !ok {
			ctx.unsupported(length)
			return TypeInfer{}
		}
		return TypeArray{Elem: elem, Len: c}
	case "never_type":
		return TypeNever{}
	case "dynamic_type", "abstract_type", "bounded_type":
		return lowerTraitObject(ctx, n)
	}
	ctx.unsupported(n)
	return TypeInfer{}
}

func lowerFnPtr(ctx *ExtractionContext, n *sitter.Node) TypeRef {
	fn := TypeFnPtr{Inputs: lowerParams(ctx, n.ChildByFieldName("parameters"))}
	for _, c := range namedChildren(n) {
		if c.Kind() != "for_lifetimes" {
			continue
		}
		for _, lt := range namedChildren(c) {
			fn.Lifetimes = append(fn.Lifetimes, ctx.Text(lt))
		}
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		fn.Output = lowerType(ctx, ret)
	}
	return fn
}

// lowerTraitObject flattens `dyn A + B + 'a`, `impl A + Send` and bare
// `A + 'a` into one TypeDyn.
func lowerTraitObject(ctx *ExtractionContext, n *sitter.Node) TypeRef {
	dyn := TypeDyn{}
	var walk func(b *sitter.Node)
	walk = func(b *sitter.Node) {
		if b == nil {
			return
		}
		switch b.Kind() {
		case "bounded_type":
			for _, c := range namedChildren(b) {
				walk(c)
			}
		case "dynamic_type":
			walk(b.ChildByFieldName("trait"))
		case "abstract_type":
			dyn.Impl = true
			walk(b.ChildByFieldName("trait"))
		case "lifetime":
			dyn.Lifetimes = append(dyn.Lifetimes, ctx.Text(b))
		case "removed_trait_bound", "use_bounds":
		default:
			if p := lowerPath(ctx, b, CtxTraitBound); p != nil {
				dyn.Bounds = append(dyn.Bounds, p)
			}
		}
	}
	walk(n)
	if len(dyn.Bounds) == 0 {
		return TypeInfer{}
	}
	return dyn
}

// lowerConst builds a constant from an expression node. It reports false
// for anything beyond literals, paths, operators and blocks.
func lowerConst(ctx *ExtractionContext, n *sitter.Node) (ConstExpr, bool) {
	if n == nil {
		return nil, false
	}
	switch n.Kind() {
	case "integer_literal":
		c, err := parseIntLiteral(ctx.Text(n))
		return c, err == nil
	case "boolean_literal":
		return LitBool{Value: ctx.Text(n) == "true"}, true
	case "negative_literal":
		kids := namedChildren(n)
		if len(kids) != 1 {
			return nil, false
		}
		operand, ok := lowerConst(ctx, kids[0])
		return ConstUnary{Op: "-", Operand: operand}, ok
	case "unary_expression":
		kids := namedChildren(n)
		if n.ChildCount() == 0 || len(kids) != 1 {
			return nil, false
		}
		op := n.Child(0).Kind()
		if op != "-" && op != "!" {
			return nil, false
		}
		operand, ok := lowerConst(ctx, kids[0])
		return ConstUnary{Op: op, Operand: operand}, ok
	case "binary_expression":
		left, lok := lowerConst(ctx, n.ChildByFieldName("left"))
		right, rok := lowerConst(ctx, n.ChildByFieldName("right"))
		op := ctx.Field(n, "operator")
		if _, known := binaryPrec[op]; !known {
			return nil, false
		}
		return ConstBinary{Op: op, Left: left, Right: right}, lok && rok
	case "parenthesized_expression":
		kids := namedChildren(n)
		if len(kids) != 1 {
			return nil, false
		}
		return lowerConst(ctx, kids[0])
	case "block":
		kids := namedChildren(n)
		if len(kids) != 1 {
			return nil, false
		}
		inner, ok := lowerConst(ctx, kids[0])
		return ConstBlock{Expr: inner}, ok
	case "identifier", "type_identifier", "scoped_identifier", "self", "crate", "super":
		p := pathSegment(ctx, n, CtxExpr)
		if p == nil {
			return nil, false
		}
		return ConstPath{Path: p.Finish()}, true
	}
	return nil, false
}

package parser

import (
	"slices"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// RustExtractor turns a tree-sitter-rust syntax tree into items and
// references. Paths, types and constants are lowered node by node; every
// path keeps the position of the node it was built from.
type RustExtractor struct {
	body *ExtractorEngine
}

func NewRustExtractor() *RustExtractor {
	e := &RustExtractor{}
	e.body = NewExtractorEngine(map[string]NodeHandler{
		"block":                    e.handleBlock,
		"let_declaration":          e.handleLet,
		"scoped_identifier":        e.handleExprPath,
		"generic_function":         e.handleGenericFn,
		"call_expression":          e.handleCall,
		"struct_expression":        e.handleStructExpr,
		"tuple_struct_pattern":     e.handlePattern,
		"struct_pattern":           e.handlePattern,
		"macro_invocation":         e.handleMacro,
		"type_cast_expression":     e.handleCast,
		"field_expression":         e.handleField,
		"closure_expression":       e.handleClosure,
		"function_item":            e.handleBodyItem,
		"struct_item":              e.handleBodyItem,
		"enum_item":                e.handleBodyItem,
		"union_item":               e.handleBodyItem,
		"trait_item":               e.handleBodyItem,
		"impl_item":                e.handleBodyItem,
		"type_item":                e.handleBodyItem,
		"const_item":               e.handleBodyItem,
		"static_item":              e.handleBodyItem,
		"use_declaration":          e.handleBodyItem,
		"mod_item":                 e.handleBodyItem,
		"macro_definition":         e.handleBodyItem,
		"extern_crate_declaration": e.handleBodyItem,
	})
	return e
}

// Extract reads the items of one file. Top-level items are owned by module.
func (e *RustExtractor) Extract(root *sitter.Node, source []byte, filePath string, module NodeID) *File {
	file := &File{Path: filePath, Module: module}
	ctx := &ExtractionContext{Source: source, File: file, Owner: module}
	ctx.collectErrors(root)
	file.Items = e.items(ctx, root, false)
	return file
}

func (e *RustExtractor) items(ctx *ExtractionContext, list *sitter.Node, foreign bool) []*Item {
	if list == nil {
		return nil
	}
	var out []*Item
	for i := uint(0); i < list.NamedChildCount(); i++ {
		child := list.NamedChild(i)
		switch child.Kind() {
		case "foreign_mod_item":
			out = append(out, e.items(ctx, child.ChildByFieldName("body"), true)...)
		case "macro_invocation":
			e.macroRef(ctx, child)
		default:
			if it := e.item(ctx, child); it != nil {
				it.Foreign = foreign
				out = append(out, it)
			}
		}
	}
	return out
}

func (e *RustExtractor) item(ctx *ExtractionContext, n *sitter.Node) *Item {
	it := &Item{ID: NextNodeID(), Vis: e.visibility(ctx, n), Location: ctx.Location(n)}
	if name := n.ChildByFieldName("name"); name != nil {
		it.Name = ctx.Text(name)
		it.Location = ctx.Location(name)
	}
	outer := ctx.Owner

	switch n.Kind() {
	case "mod_item":
		it.Kind = ItemMod
		body := n.ChildByFieldName("body")
		if body == nil {
			it.External = true
			return it
		}
		ctx.Owner = it.ID
		it.Items = e.items(ctx, body, false)
	case "struct_item", "union_item":
		it.Kind = ItemStruct
		ctx.Owner = it.ID
		e.generics(ctx, n, it)
		it.Shape, it.Fields = e.fields(ctx, n.ChildByFieldName("body"))
	case "enum_item":
		it.Kind = ItemEnum
		ctx.Owner = it.ID
		e.generics(ctx, n, it)
		if body := n.ChildByFieldName("body"); body != nil {
			for i := uint(0); i < body.NamedChildCount(); i++ {
				v := body.NamedChild(i)
				if v.Kind() != "enum_variant" {
					continue
				}
				variant := &Item{
					ID:       NextNodeID(),
					Kind:     ItemVariant,
					Name:     ctx.Field(v, "name"),
					Vis:      Visibility{Kind: VisPublic},
					Location: ctx.Location(v),
				}
				variant.Shape, variant.Fields = e.fields(ctx, v.ChildByFieldName("body"))
				it.Items = append(it.Items, variant)
			}
		}
	case "trait_item":
		it.Kind = ItemTrait
		ctx.Owner = it.ID
		e.generics(ctx, n, it)
		self := TypePath{Path: PathOf(CtxType, it.ID, "Self")}
		it.Supertraits = e.bounds(ctx, n.ChildByFieldName("bounds"), self)
		it.Items = e.items(ctx, n.ChildByFieldName("body"), false)
	case "impl_item":
		it.Kind = ItemImpl
		it.Name = ""
		ctx.Owner = it.ID
		e.generics(ctx, n, it)
		it.SelfType = e.typeRef(ctx, n.ChildByFieldName("type"))
		if trait := n.ChildByFieldName("trait"); trait != nil {
			it.Trait = e.path(ctx, trait, CtxTraitBound)
			if it.Trait != nil {
				it.Trait.BoundSelf = it.SelfType
			}
			it.Negative = HasToken(n, "!")
		}
		it.Items = e.items(ctx, n.ChildByFieldName("body"), false)
	case "function_item", "function_signature_item":
		it.Kind = ItemFn
		ctx.Owner = it.ID
		e.generics(ctx, n, it)
		if params := n.ChildByFieldName("parameters"); params != nil {
			for i := uint(0); i < params.NamedChildCount(); i++ {
				p := params.NamedChild(i)
				if p.Kind() == "parameter" {
					it.Inputs = append(it.Inputs, e.typeRef(ctx, p.ChildByFieldName("type")))
				}
			}
		}
		if ret := n.ChildByFieldName("return_type"); ret != nil {
			it.Output = e.typeRef(ctx, ret)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			it.Blocks = append(it.Blocks, e.block(ctx, body))
		}
	case "type_item":
		it.Kind = ItemTypeAlias
		ctx.Owner = it.ID
		e.generics(ctx, n, it)
		it.AliasType = e.typeRef(ctx, n.ChildByFieldName("type"))
	case "associated_type":
		it.Kind = ItemTypeAlias
		ctx.Owner = it.ID
		e.generics(ctx, n, it)
		self := TypePath{Path: PathOf(CtxType, it.ID, "Self", it.Name)}
		it.AliasBounds = e.bounds(ctx, n.ChildByFieldName("bounds"), self)
		if def := n.ChildByFieldName("default_type"); def != nil {
			it.AliasType = e.typeRef(ctx, def)
		}
	case "const_item", "static_item":
		it.Kind = ItemConst
		if n.Kind() == "static_item" {
			it.Kind = ItemStatic
		}
		it.ConstType = e.typeRef(ctx, n.ChildByFieldName("type"))
		if v := n.ChildByFieldName("value"); v != nil {
			if c, ok := lowerConst(ctx, v); ok {
				it.ConstValue = c
			}
			e.scanExpr(ctx, v)
		}
	case "macro_definition":
		it.Kind = ItemMacro
	case "use_declaration":
		it.Kind = ItemUse
		e.useTree(ctx, n.ChildByFieldName("argument"), nil, it)
	case "extern_crate_declaration":
		it.Kind = ItemExternCrate
		p := PathOf(CtxUse, ctx.Owner, "", it.Name)
		p.Location = it.Location
		it.Uses = []UseItem{{Path: p, Alias: ctx.Field(n, "alias")}}
		it.Name = ""
	default:
		return nil
	}
	ctx.Owner = outer
	return it
}

func (e *RustExtractor) visibility(ctx *ExtractionContext, n *sitter.Node) Visibility {
	var vis *sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if child := n.NamedChild(i); child.Kind() == "visibility_modifier" {
			vis = child
			break
		}
	}
	return e.parseVisibility(ctx, vis)
}

func (e *RustExtractor) parseVisibility(ctx *ExtractionContext, vis *sitter.Node) Visibility {
	if vis == nil {
		return Visibility{}
	}
	text := strings.Join(strings.Fields(ctx.Text(vis)), "")
	switch text {
	case "pub":
		return Visibility{Kind: VisPublic}
	case "pub(crate)", "crate":
		return Visibility{Kind: VisCrate}
	case "pub(super)":
		return Visibility{Kind: VisSuper}
	case "pub(self)":
		return Visibility{}
	}
	if strings.HasPrefix(text, "pub(in") {
		kids := namedChildren(vis)
		if len(kids) > 0 {
			if segs, ok := useSegments(ctx, kids[len(kids)-1]); ok {
				p := PathOf(CtxUse, ctx.Owner, segs...)
				stampPath(p, ctx.Location(vis))
				return Visibility{Kind: VisRestricted, In: p}
			}
		}
	}
	return Visibility{}
}

// fields reads a struct or variant body.
func (e *RustExtractor) fields(ctx *ExtractionContext, body *sitter.Node) (Shape, []Field) {
	if body == nil {
		return ShapeUnit, nil
	}
	var out []Field
	switch body.Kind() {
	case "field_declaration_list":
		for i := uint(0); i < body.NamedChildCount(); i++ {
			f := body.NamedChild(i)
			if f.Kind() != "field_declaration" {
				continue
			}
			out = append(out, Field{
				Name: ctx.Field(f, "name"),
				Type: e.typeRef(ctx, f.ChildByFieldName("type")),
				Vis:  e.visibility(ctx, f),
			})
		}
		return ShapeNamed, out
	case "ordered_field_declaration_list":
		vis := Visibility{}
		for i := uint(0); i < body.NamedChildCount(); i++ {
			f := body.NamedChild(i)
			if f.Kind() == "visibility_modifier" {
				vis = e.parseVisibility(ctx, f)
				continue
			}
			if f.Kind() == "attribute_item" {
				continue
			}
			out = append(out, Field{Name: strconv.Itoa(len(out)), Type: e.typeRef(ctx, f), Vis: vis})
			vis = Visibility{}
		}
		return ShapeTuple, out
	}
	return ShapeUnit, nil
}

// generics reads type_parameters and where_clause of a generic item; ctx.Owner
// is already the item.
func (e *RustExtractor) generics(ctx *ExtractionContext, n *sitter.Node, it *Item) {
	g := &Generics{}
	if params := n.ChildByFieldName("type_parameters"); params != nil {
		for i := uint(0); i < params.NamedChildCount(); i++ {
			if p, ok := e.genericParam(ctx, params.NamedChild(i)); ok {
				g.Params = append(g.Params, p)
			}
		}
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		where := n.NamedChild(i)
		if where.Kind() != "where_clause" {
			continue
		}
		for j := uint(0); j < where.NamedChildCount(); j++ {
			pred := where.NamedChild(j)
			left := pred.ChildByFieldName("left")
			if pred.Kind() != "where_predicate" || left == nil || left.Kind() == "lifetime" {
				continue
			}
			subject := e.typeRef(ctx, left)
			g.Where = append(g.Where, WherePred{Subject: subject, Bounds: e.bounds(ctx, pred.ChildByFieldName("bounds"), subject)})
		}
	}
	if len(g.Params) > 0 || len(g.Where) > 0 {
		it.Generics = g
	}
}

func (e *RustExtractor) genericParam(ctx *ExtractionContext, n *sitter.Node) (GenericParam, bool) {
	p := GenericParam{ID: NextNodeID()}
	subject := func() TypeRef {
		return TypePath{Path: PathOf(CtxType, ctx.Owner, p.Name)}
	}
	switch n.Kind() {
	case "lifetime":
		p.Kind, p.Name = ParamLifetime, ctx.Text(n)
	case "lifetime_parameter":
		p.Kind, p.Name = ParamLifetime, ctx.Field(n, "name")
	case "type_identifier":
		p.Kind, p.Name = ParamType, ctx.Text(n)
	case "constrained_type_parameter":
		left := n.ChildByFieldName("left")
		if left != nil && left.Kind() == "lifetime" {
			p.Kind, p.Name = ParamLifetime, ctx.Text(left)
			break
		}
		p.Kind, p.Name = ParamType, ctx.Text(left)
		p.Bounds = e.bounds(ctx, n.ChildByFieldName("bounds"), subject())
	case "optional_type_parameter":
		name := n.ChildByFieldName("name")
		if name != nil && name.Kind() == "constrained_type_parameter" {
			inner, _ := e.genericParam(ctx, name)
			p.Kind, p.Name, p.Bounds = inner.Kind, inner.Name, inner.Bounds
		} else {
			p.Kind, p.Name = ParamType, ctx.Text(name)
		}
		p.Default = e.typeRef(ctx, n.ChildByFieldName("default_type"))
	case "type_parameter":
		p.Kind, p.Name = ParamType, ctx.Field(n, "name")
		p.Bounds = e.bounds(ctx, n.ChildByFieldName("bounds"), subject())
		if def := n.ChildByFieldName("default_type"); def != nil {
			p.Default = e.typeRef(ctx, def)
		}
	case "const_parameter":
		p.Kind, p.Name = ParamConst, ctx.Field(n, "name")
		p.ConstType = e.typeRef(ctx, n.ChildByFieldName("type"))
		if v := n.ChildByFieldName("value"); v != nil {
			if c, ok := lowerConst(ctx, v); ok {
				p.ConstDefault = c
			} else {
				ctx.unsupported(v)
			}
		}
	default:
		return GenericParam{}, false
	}
	return p, p.Name != ""
}

// bounds reads `Trait + Other<T> + 'a + ?Sized`, keeping the trait paths.
func (e *RustExtractor) bounds(ctx *ExtractionContext, n *sitter.Node, subject TypeRef) []*Path {
	if n == nil {
		return nil
	}
	var out []*Path
	for i := uint(0); i < n.NamedChildCount(); i++ {
		b := n.NamedChild(i)
		switch b.Kind() {
		case "lifetime", "removed_trait_bound":
			continue
		case "higher_ranked_trait_bound":
			b = b.ChildByFieldName("type")
		}
		if b == nil {
			continue
		}
		if p := e.path(ctx, b, CtxTraitBound); p != nil {
			p.BoundSelf = subject
			out = append(out, p)
		}
	}
	return out
}

// useTree flattens a use tree under prefix into it.Uses. A leading ""
// segment marks a global path.
func (e *RustExtractor) useTree(ctx *ExtractionContext, n *sitter.Node, prefix []string, it *Item) {
	if n == nil {
		return
	}
	join := func(rest []string) []string {
		switch {
		case len(prefix) == 0:
			return rest
		case len(rest) == 1 && rest[0] == "self":
			return prefix
		case len(rest) > 0 && rest[0] == "":
			rest = rest[1:]
		}
		return append(slices.Clone(prefix), rest...)
	}
	add := func(segs []string, alias string, glob bool, at *sitter.Node) {
		if len(segs) == 0 || (len(segs) == 1 && segs[0] == "") {
			return
		}
		p := PathOf(CtxUse, ctx.Owner, segs...)
		stampPath(p, ctx.Location(at))
		it.Uses = append(it.Uses, UseItem{Path: p, Alias: alias, Glob: glob})
		ctx.File.References = append(ctx.File.References, p)
	}
	segments := func(path *sitter.Node) ([]string, bool) {
		if path == nil {
			if strings.HasPrefix(strings.TrimSpace(ctx.Text(n)), "::") {
				return []string{""}, true
			}
			return nil, true
		}
		segs, ok := useSegments(ctx, path)
		if !ok {
			ctx.unsupported(path)
		}
		return segs, ok
	}

	switch n.Kind() {
	case "use_as_clause":
		if segs, ok := segments(n.ChildByFieldName("path")); ok {
			add(join(segs), identText(ctx, n.ChildByFieldName("alias")), false, n)
		}
	case "use_wildcard":
		var path *sitter.Node
		if kids := namedChildren(n); len(kids) > 0 {
			path = kids[0]
		}
		if segs, ok := segments(path); ok {
			add(join(segs), "", true, n)
		}
	case "scoped_use_list":
		segs, ok := segments(n.ChildByFieldName("path"))
		if !ok {
			return
		}
		base := join(segs)
		for _, child := range namedChildren(n.ChildByFieldName("list")) {
			e.useTree(ctx, child, base, it)
		}
	case "use_list":
		for _, child := range namedChildren(n) {
			e.useTree(ctx, child, prefix, it)
		}
	case "self":
		// `use a::{self}` imports a itself.
		if len(prefix) > 0 {
			add(prefix, "", false, n)
		}
	default:
		segs, ok := useSegments(ctx, n)
		if !ok {
			ctx.unsupported(n)
			return
		}
		add(join(segs), "", false, n)
	}
}

// useSegments reads a plain `a::b::c` path; generic arguments cannot occur
// in use trees or visibility paths.
func useSegments(ctx *ExtractionContext, n *sitter.Node) ([]string, bool) {
	if n == nil {
		return nil, false
	}
	switch n.Kind() {
	case "identifier", "self", "super", "crate":
		return []string{identText(ctx, n)}, true
	case "scoped_identifier":
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil, false
		}
		head := []string{""}
		if q := n.ChildByFieldName("path"); q != nil {
			var ok bool
			if head, ok = useSegments(ctx, q); !ok {
				return nil, false
			}
		}
		return append(head, identText(ctx, name)), true
	}
	return nil, false
}

// path lowers a path node and records it with the paths nested in its
// arguments; failures are recorded and yield nil.
func (e *RustExtractor) path(ctx *ExtractionContext, n *sitter.Node, pc PathContext) *Path {
	p := lowerPath(ctx, n, pc)
	if p == nil {
		return nil
	}
	ctx.File.References = append(ctx.File.References, p)
	for cur := p; cur != nil; cur = cur.Qualifier {
		visitArgs(cur, func(inner *Path) {
			ctx.File.References = append(ctx.File.References, inner)
		})
	}
	return p
}

// typeRef lowers a type node and records every path in it.
func (e *RustExtractor) typeRef(ctx *ExtractionContext, n *sitter.Node) TypeRef {
	if n == nil {
		return nil
	}
	t := lowerType(ctx, n)
	VisitTypePaths(t, func(p *Path) {
		ctx.File.References = append(ctx.File.References, p)
	})
	return t
}

// block reads a function body block; nested blocks and items become
// children of the returned block.
func (e *RustExtractor) block(ctx *ExtractionContext, n *sitter.Node) *Block {
	blk := &Block{ID: NextNodeID()}
	outerOwner, outerBlock := ctx.Owner, ctx.Block
	ctx.Owner, ctx.Block = blk.ID, blk
	e.body.WalkChildren(ctx, n)
	ctx.Owner, ctx.Block = outerOwner, outerBlock
	return blk
}

func (e *RustExtractor) scanExpr(ctx *ExtractionContext, n *sitter.Node) {
	e.body.Walk(ctx, n)
}

func (e *RustExtractor) handleBlock(ctx *ExtractionContext, n *sitter.Node) bool {
	if ctx.Block == nil {
		// A block in a const initializer outside any body.
		e.body.WalkChildren(ctx, n)
		return true
	}
	parent := ctx.Block
	parent.Blocks = append(parent.Blocks, e.block(ctx, n))
	return true
}

func (e *RustExtractor) handleBodyItem(ctx *ExtractionContext, n *sitter.Node) bool {
	if it := e.item(ctx, n); it != nil && ctx.Block != nil {
		ctx.Block.Items = append(ctx.Block.Items, it)
	}
	return true
}

func (e *RustExtractor) handleLet(ctx *ExtractionContext, n *sitter.Node) bool {
	e.scanExpr(ctx, n.ChildByFieldName("pattern"))
	e.typeRef(ctx, n.ChildByFieldName("type"))
	e.scanExpr(ctx, n.ChildByFieldName("value"))
	e.scanExpr(ctx, n.ChildByFieldName("alternative"))
	return true
}

func (e *RustExtractor) handleExprPath(ctx *ExtractionContext, n *sitter.Node) bool {
	e.path(ctx, n, CtxExpr)
	return true
}

// handleGenericFn covers `f::<T>` and `x.m::<T>`; a method has no path,
// only its type arguments are read.
func (e *RustExtractor) handleGenericFn(ctx *ExtractionContext, n *sitter.Node) bool {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "field_expression" {
		e.path(ctx, n, CtxExpr)
		return true
	}
	e.scanExpr(ctx, fn)
	if args := n.ChildByFieldName("type_arguments"); args != nil {
		for i := uint(0); i < args.NamedChildCount(); i++ {
			switch arg := args.NamedChild(i); arg.Kind() {
			case "lifetime", "integer_literal", "boolean_literal", "negative_literal", "block", "type_binding":
			default:
				e.typeRef(ctx, arg)
			}
		}
	}
	return true
}

func (e *RustExtractor) handleCall(ctx *ExtractionContext, n *sitter.Node) bool {
	fn := n.ChildByFieldName("function")
	if fn != nil && fn.Kind() == "identifier" {
		e.path(ctx, fn, CtxExpr)
	} else {
		e.scanExpr(ctx, fn)
	}
	e.scanExpr(ctx, n.ChildByFieldName("arguments"))
	return true
}

func (e *RustExtractor) handleStructExpr(ctx *ExtractionContext, n *sitter.Node) bool {
	if name := n.ChildByFieldName("name"); name != nil {
		e.path(ctx, name, CtxType)
	}
	e.scanExpr(ctx, n.ChildByFieldName("body"))
	return true
}

func (e *RustExtractor) handlePattern(ctx *ExtractionContext, n *sitter.Node) bool {
	if ty := n.ChildByFieldName("type"); ty != nil {
		pc := CtxExpr
		if n.Kind() == "struct_pattern" {
			pc = CtxType
		}
		e.path(ctx, ty, pc)
	}
	ty := n.ChildByFieldName("type")
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if child := n.NamedChild(i); !sameNode(child, ty) {
			e.scanExpr(ctx, child)
		}
	}
	return true
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

func (e *RustExtractor) handleMacro(ctx *ExtractionContext, n *sitter.Node) bool {
	e.macroRef(ctx, n)
	return true
}

func (e *RustExtractor) macroRef(ctx *ExtractionContext, n *sitter.Node) {
	if m := n.ChildByFieldName("macro"); m != nil {
		e.path(ctx, m, CtxMacro)
	}
}

func (e *RustExtractor) handleCast(ctx *ExtractionContext, n *sitter.Node) bool {
	e.scanExpr(ctx, n.ChildByFieldName("value"))
	e.typeRef(ctx, n.ChildByFieldName("type"))
	return true
}

// handleField skips the field name, which is not a path.
func (e *RustExtractor) handleField(ctx *ExtractionContext, n *sitter.Node) bool {
	e.scanExpr(ctx, n.ChildByFieldName("value"))
	return true
}

func (e *RustExtractor) handleClosure(ctx *ExtractionContext, n *sitter.Node) bool {
	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.NamedChildCount(); i++ {
			if p := params.NamedChild(i); p.Kind() == "parameter" {
				e.typeRef(ctx, p.ChildByFieldName("type"))
			}
		}
	}
	e.typeRef(ctx, n.ChildByFieldName("return_type"))
	e.scanExpr(ctx, n.ChildByFieldName("body"))
	return true
}

// stampPath sets loc on every path of the chain and its arguments.
func stampPath(p *Path, loc Location) {
	for cur := p; cur != nil; cur = cur.Qualifier {
		cur.Location = loc
		visitArgs(cur, func(inner *Path) { stampPath(inner, loc) })
	}
}

// VisitTypePaths calls fn for every outermost path in t, including paths
// nested in type arguments.
func VisitTypePaths(t TypeRef, fn func(*Path)) {
	switch t := t.(type) {
	case TypePath:
		fn(t.Path)
		for cur := t.Path; cur != nil; cur = cur.Qualifier {
			visitArgs(cur, func(inner *Path) { fn(inner) })
		}
	case TypeTuple:
		for _, e := range t.Elems {
			VisitTypePaths(e, fn)
		}
	case TypeReference:
		VisitTypePaths(t.Inner, fn)
	case TypeSlice:
		VisitTypePaths(t.Elem, fn)
	case TypeArray:
		VisitTypePaths(t.Elem, fn)
	case TypeParen:
		VisitTypePaths(t.Inner, fn)
	case TypePointer:
		VisitTypePaths(t.Inner, fn)
	case TypeFnPtr:
		for _, in := range t.Inputs {
			VisitTypePaths(in, fn)
		}
		VisitTypePaths(t.Output, fn)
	case TypeDyn:
		for _, b := range t.Bounds {
			VisitTypePaths(TypePath{Path: b}, fn)
		}
	}
}

// visitArgs calls fn for the outermost paths of one segment's arguments.
func visitArgs(seg *Path, fn func(*Path)) {
	var nested []TypeRef
	if seg.TypeArgs != nil {
		nested = append(nested, seg.TypeArgs.Types...)
		for _, b := range seg.TypeArgs.Bindings {
			nested = append(nested, b.Type)
		}
	}
	if seg.FnSugar != nil {
		nested = append(nested, seg.FnSugar.Inputs...)
	}
	if seg.RetType != nil {
		nested = append(nested, seg.RetType)
	}
	if seg.QSelf != nil {
		nested = append(nested, seg.QSelf.Type)
		if seg.QSelf.Trait != nil {
			nested = append(nested, TypePath{Path: seg.QSelf.Trait})
		}
	}
	for _, t := range nested {
		VisitTypePaths(t, fn)
	}
}

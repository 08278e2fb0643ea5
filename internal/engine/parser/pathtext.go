package parser

import (
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Path text typed by a user, e.g. on the command line, is wrapped in a
// minimal item and parsed like any source file, so it reaches the same
// lowering as extracted code. Results carry no location.

var fragmentPool = NewParserPool(RustLanguage)

// ParsePath parses the text of one path, e.g. `a::B::<u8>::c` or
// `Fn(u8) -> bool`. Expression and macro paths need turbofish generics;
// the other contexts read the text in type position.
func ParsePath(src string, ctx PathContext, owner NodeID) (*Path, error) {
	var out *Path
	switch ctx {
	case CtxExpr, CtxMacro:
		err := parseFragment("fn __f() { ", src, "; }", owner, func(c *ExtractionContext, item *sitter.Node) error {
			stmts := namedChildren(item.ChildByFieldName("body"))
			if len(stmts) != 1 || stmts[0].Kind() != "expression_statement" {
				return fmt.Errorf("%q is not a single expression", src)
			}
			expr := namedChildren(stmts[0])
			if len(expr) != 1 {
				return fmt.Errorf("%q is not a single expression", src)
			}
			out = lowerPath(c, expr[0], ctx)
			return nil
		})
		if err != nil {
			return nil, err
		}
	case CtxUse:
		err := parseFragment("use ", src, ";", owner, func(c *ExtractionContext, item *sitter.Node) error {
			segs, ok := useSegments(c, item.ChildByFieldName("argument"))
			if !ok {
				return fmt.Errorf("%q is not a simple use path", src)
			}
			out = PathOf(CtxUse, owner, segs...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	default:
		err := parseFragment("type __T = ", src, ";", owner, func(c *ExtractionContext, item *sitter.Node) error {
			out = lowerPath(c, item.ChildByFieldName("type"), ctx)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if out == nil {
		return nil, fmt.Errorf("%q is not a path", src)
	}
	stampPath(out, Location{})
	return out, nil
}

// ParseType parses the text of one type.
func ParseType(src string, owner NodeID) (TypeRef, error) {
	var out TypeRef
	err := parseFragment("type __T = ", src, ";", owner, func(c *ExtractionContext, item *sitter.Node) error {
		out = lowerType(c, item.ChildByFieldName("type"))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%q is not a type", src)
	}
	VisitTypePaths(out, func(p *Path) { stampPath(p, Location{}) })
	return out, nil
}

// ParseConst parses a const generic argument or default: a literal, a
// negated literal, a path, an operator expression or a braced expression.
func ParseConst(src string, owner NodeID) (ConstExpr, error) {
	var out ConstExpr
	err := parseFragment("const __C: () = ", src, ";", owner, func(c *ExtractionContext, item *sitter.Node) error {
		e, ok := lowerConst(c, item.ChildByFieldName("value"))
		if !ok {
			return fmt.Errorf("%q is not a constant expression", src)
		}
		out = e
		return nil
	})
	return out, err
}

// parseFragment parses prefix+src+suffix, which must form exactly one item
// without syntax errors, and hands that item to lower. Anything lowering
// could not express fails the parse.
func parseFragment(prefix, src, suffix string, owner NodeID, lower func(*ExtractionContext, *sitter.Node) error) error {
	if strings.TrimSpace(src) == "" {
		return fmt.Errorf("empty input")
	}
	source := []byte(prefix + src + suffix)

	sp := fragmentPool.Get()
	defer fragmentPool.Put(sp)
	tree := sp.Parse(source, nil)
	if tree == nil {
		return fmt.Errorf("parse %q failed", src)
	}
	defer tree.Close()

	root := tree.RootNode()
	ctx := &ExtractionContext{Source: source, File: &File{}, Owner: owner}
	ctx.collectErrors(root)
	if len(ctx.File.Errors) > 0 || root.HasError() {
		col := 0
		if len(ctx.File.Errors) > 0 {
			col = max(ctx.File.Errors[0].Column-len(prefix), 1)
		}
		return fmt.Errorf("syntax error in %q at offset %d", src, col)
	}
	items := namedChildren(root)
	if len(items) != 1 {
		return fmt.Errorf("%q spans more than one item", src)
	}
	if err := lower(ctx, items[0]); err != nil {
		return err
	}
	if len(ctx.File.Unsupported) > 0 {
		return fmt.Errorf("unsupported syntax in %q at offset %d", src, max(ctx.File.Unsupported[0].Column-len(prefix), 1))
	}
	return nil
}

var binaryPrec = map[string]int{
	"||": 1, "&&": 2,
	"==": 3, "!=": 3, "<": 3, ">": 3, "<=": 3, ">=": 3,
	"|": 4, "^": 5, "&": 6,
	"<<": 7, ">>": 7,
	"+": 8, "-": 8,
	"*": 9, "/": 9, "%": 9,
}

var intSuffixes = []string{"i128", "u128", "isize", "usize", "i16", "i32", "i64", "u16", "u32", "u64", "i8", "u8"}

func parseIntLiteral(text string) (ConstExpr, error) {
	digits, suffix := text, ""
	for _, s := range intSuffixes {
		if strings.HasSuffix(text, s) && len(text) > len(s) {
			digits, suffix = strings.TrimSuffix(text, s), s
			break
		}
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(digits, "_", ""), 0, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer literal %q", text)
	}
	return LitInt{Value: v, Suffix: suffix}, nil
}

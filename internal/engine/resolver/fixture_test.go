package resolver

import (
	"strings"
	"testing"

	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
)

var (
	pub  = parser.Visibility{Kind: parser.VisPublic}
	priv = parser.Visibility{}
)

func newItem(kind parser.ItemKind, name string, vis parser.Visibility, children ...*parser.Item) *parser.Item {
	return &parser.Item{ID: parser.NextNodeID(), Kind: kind, Name: name, Vis: vis, Items: children}
}

func mustPath(t testing.TB, src string, ctx parser.PathContext, owner parser.NodeID) *parser.Path {
	t.Helper()
	p, err := parser.ParsePath(src, ctx, owner)
	if err != nil {
		t.Fatalf("path %q: %v", src, err)
	}
	return p
}

func mustType(t testing.TB, src string, owner parser.NodeID) parser.TypeRef {
	t.Helper()
	ty, err := parser.ParseType(src, owner)
	if err != nil {
		t.Fatalf("type %q: %v", src, err)
	}
	return ty
}

// cutTopLevel splits s at the first sep outside angle brackets.
func cutTopLevel(s, sep string) (string, string, bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		}
		if depth == 0 && strings.HasPrefix(s[i:], sep) {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(sep):]), true
		}
	}
	return strings.TrimSpace(s), "", false
}

// withGenerics attaches parameters written the way they appear in source:
// "T", "T = u8", "T: Add + Copy", "'a", "const N: usize = 4".
func withGenerics(t testing.TB, it *parser.Item, specs ...string) *parser.Item {
	t.Helper()
	g := &parser.Generics{}
	for _, spec := range specs {
		decl, def, hasDefault := cutTopLevel(spec, " = ")
		p := parser.GenericParam{ID: parser.NextNodeID()}
		switch {
		case strings.HasPrefix(decl, "'"):
			p.Kind, p.Name = parser.ParamLifetime, decl
		case strings.HasPrefix(decl, "const "):
			name, ty, _ := strings.Cut(strings.TrimPrefix(decl, "const "), ":")
			p.Kind, p.Name = parser.ParamConst, strings.TrimSpace(name)
			p.ConstType = mustType(t, ty, it.ID)
			if hasDefault {
				c, err := parser.ParseConst(def, it.ID)
				if err != nil {
					t.Fatalf("const default %q: %v", def, err)
				}
				p.ConstDefault = c
			}
		default:
			name, bounds, hasBounds := cutTopLevel(decl, ":")
			p.Kind, p.Name = parser.ParamType, name
			if hasBounds {
				for _, b := range strings.Split(bounds, "+") {
					bp := mustPath(t, strings.TrimSpace(b), parser.CtxTraitBound, it.ID)
					bp.BoundSelf = parser.TypePath{Path: parser.PathOf(parser.CtxType, it.ID, name)}
					p.Bounds = append(p.Bounds, bp)
				}
			}
			if hasDefault {
				p.Default = mustType(t, def, it.ID)
			}
		}
		g.Params = append(g.Params, p)
	}
	it.Generics = g
	return it
}

func structItem(t testing.TB, name string, vis parser.Visibility, generics ...string) *parser.Item {
	return withGenerics(t, newItem(parser.ItemStruct, name, vis), generics...)
}

func fnItem(t testing.TB, name string, vis parser.Visibility, generics ...string) *parser.Item {
	return withGenerics(t, newItem(parser.ItemFn, name, vis), generics...)
}

func aliasItem(t testing.TB, name, rhs string, generics ...string) *parser.Item {
	it := withGenerics(t, newItem(parser.ItemTypeAlias, name, pub), generics...)
	if rhs != "" {
		it.AliasType = mustType(t, rhs, it.ID)
	}
	return it
}

func traitItem(t testing.TB, name string, supertraits []string, generics []string, members ...*parser.Item) *parser.Item {
	it := withGenerics(t, newItem(parser.ItemTrait, name, pub, members...), generics...)
	for _, s := range supertraits {
		sp := mustPath(t, s, parser.CtxTraitBound, it.ID)
		sp.BoundSelf = parser.TypePath{Path: parser.PathOf(parser.CtxType, it.ID, "Self")}
		it.Supertraits = append(it.Supertraits, sp)
	}
	return it
}

// implItem builds `impl<generics> trait for self { members }`; an empty
// trait makes an inherent impl.
func implItem(t testing.TB, self, trait string, generics []string, members ...*parser.Item) *parser.Item {
	it := withGenerics(t, newItem(parser.ItemImpl, "", priv, members...), generics...)
	it.SelfType = mustType(t, self, it.ID)
	if trait != "" {
		it.Trait = mustPath(t, trait, parser.CtxTraitBound, it.ID)
		it.Trait.BoundSelf = it.SelfType
	}
	return it
}

// useItem adds `use path;`, `use path as alias;` or `use path::*;` to mod.
func useItem(t testing.TB, mod *parser.Item, vis parser.Visibility, path, alias string) *parser.Item {
	u := newItem(parser.ItemUse, "", vis)
	src, glob := strings.CutSuffix(path, "::*")
	u.Uses = []parser.UseItem{{Path: mustPath(t, src, parser.CtxUse, mod.ID), Alias: alias, Glob: glob}}
	mod.Items = append(mod.Items, u)
	return u
}

func crateOf(name string, items ...*parser.Item) *parser.Crate {
	return &parser.Crate{Name: name, Edition: "2021", Root: parser.NewModule(name, pub, items...)}
}

// stdCrate is a small standard library:
//
//	pub mod vec { pub struct Vec<T>; impl<T> Vec<T> { pub fn new() -> Vec<T>; } }
//	pub mod option { pub enum Option<T> { Some, None } }
//	pub mod ops {
//	    pub trait FnOnce<Args> { type Output; }
//	    pub trait FnMut<Args>: FnOnce<Args> {}
//	    pub trait Fn<Args>: FnMut<Args> {}
//	    pub trait Add<Rhs = Self> { type Output; }
//	}
//	pub mod prelude { pub mod v1 { pub use crate::vec::Vec; ... } }
func stdCrate(t testing.TB) *parser.Crate {
	newFn := fnItem(t, "new", pub)
	vecImpl := implItem(t, "Vec<T>", "", []string{"T"}, newFn)
	newFn.Output = mustType(t, "Vec<T>", newFn.ID)
	vec := parser.NewModule("vec", pub, structItem(t, "Vec", pub, "T"), vecImpl)

	option := withGenerics(t, newItem(parser.ItemEnum, "Option", pub,
		newItem(parser.ItemVariant, "Some", pub),
		newItem(parser.ItemVariant, "None", pub),
	), "T")
	option.Items[0].Shape = parser.ShapeTuple
	option.Items[1].Shape = parser.ShapeUnit
	optionMod := parser.NewModule("option", pub, option)

	ops := parser.NewModule("ops", pub,
		traitItem(t, "FnOnce", nil, []string{"Args"}, aliasItem(t, "Output", "")),
		traitItem(t, "FnMut", []string{"FnOnce<Args>"}, []string{"Args"}),
		traitItem(t, "Fn", []string{"FnMut<Args>"}, []string{"Args"}),
		traitItem(t, "Add", nil, []string{"Rhs = Self"}, aliasItem(t, "Output", "")),
	)

	v1 := parser.NewModule("v1", pub)
	for _, p := range []string{"crate::vec::Vec", "crate::option::Option", "crate::ops::FnOnce", "crate::ops::FnMut", "crate::ops::Fn"} {
		useItem(t, v1, pub, p, "")
	}
	prelude := parser.NewModule("prelude", pub, v1)
	return crateOf("std", vec, optionMod, ops, prelude)
}

func build(crates ...*parser.Crate) (*graph.Snapshot, *Resolver) {
	g := graph.Build(crates, graph.BuildOptions{Prelude: []string{"std::prelude::v1"}})
	return g, New(g, Options{})
}

func declOf(t testing.TB, g *graph.Snapshot, node parser.NodeID) graph.DeclID {
	t.Helper()
	id, ok := g.DeclOf(node)
	if !ok {
		t.Fatalf("no declaration for node %d", node)
	}
	return id
}

func paramOf(t testing.TB, g *graph.Snapshot, it *parser.Item, i int) graph.DeclID {
	t.Helper()
	return declOf(t, g, it.Generics.Params[i].ID)
}

func resolveOne(t testing.TB, r *Resolver, p *parser.Path) Resolved {
	t.Helper()
	res := r.Resolve(p)
	if len(res) != 1 {
		t.Fatalf("resolve %q: expected one result, got %d", p.Text(), len(res))
	}
	return res[0]
}

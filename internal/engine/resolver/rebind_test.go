package resolver

import (
	"testing"

	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
)

// reexportCrate:
//
//	mod bar1 {
//	    pub mod bar2 { pub mod bar3 {
//	        pub mod bar4 { pub fn foo() {} pub fn old() {} pub fn renamed() {} }
//	        pub mod baz { pub fn foo() {} }
//	    } }
//	    pub use self::bar2::bar3;
//	}
//	mod other { pub struct Thing; }
func reexportCrate(t *testing.T) (*parser.Crate, *parser.Item) {
	bar4 := parser.NewModule("bar4", pub, fnItem(t, "foo", pub), fnItem(t, "old", pub), fnItem(t, "renamed", pub))
	baz := parser.NewModule("baz", pub, fnItem(t, "foo", pub))
	bar3 := parser.NewModule("bar3", pub, bar4, baz)
	bar1 := parser.NewModule("bar1", priv, parser.NewModule("bar2", pub, bar3))
	useItem(t, bar1, pub, "self::bar2::bar3", "")
	main := fnItem(t, "main", priv)
	other := parser.NewModule("other", priv, structItem(t, "Thing", pub))
	return crateOf("app", bar1, other, main), main
}

func TestRebind(t *testing.T) {
	c, main := reexportCrate(t)
	g, r := build(stdCrate(t), c)
	baz, _ := g.ModuleByPath("app", "bar1", "bar2", "bar3", "baz")

	tests := []struct {
		name   string
		src    string
		ctx    parser.PathContext
		target graph.DeclID
		want   string
	}{
		{
			name:   "reuses re-exported prefix",
			src:    "bar1::bar3::bar4::foo",
			ctx:    parser.CtxExpr,
			target: lookup(t, g, "app", "bar1", "bar2", "bar3", "baz", "foo"),
			want:   "bar1::bar3::baz::foo",
		},
		{
			name:   "same module renames last segment",
			src:    "bar1::bar3::bar4::old",
			ctx:    parser.CtxExpr,
			target: lookup(t, g, "app", "bar1", "bar2", "bar3", "bar4", "renamed"),
			want:   "bar1::bar3::bar4::renamed",
		},
		{
			name:   "module target keeps prefix",
			src:    "bar1::bar3::bar4::foo",
			ctx:    parser.CtxExpr,
			target: baz,
			want:   "bar1::bar3::baz",
		},
		{
			name:   "no resolvable ancestor prefix falls back to full path",
			src:    "bar1::bar3::bar4::foo",
			ctx:    parser.CtxExpr,
			target: lookup(t, g, "app", "other", "Thing"),
			want:   "other::Thing",
		},
		{
			name:   "other crate",
			src:    "Vec",
			ctx:    parser.CtxType,
			target: lookup(t, g, "std", "option", "Option"),
			want:   "std::option::Option",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Rebind(mustPath(t, tt.src, tt.ctx, main.ID), tt.target)
			if !ok {
				t.Fatal("expected a replacement")
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRebind_RelativeToReferenceModule(t *testing.T) {
	inner := fnItem(t, "inner", priv)
	target := structItem(t, "Target", pub)
	c := crateOf("app",
		parser.NewModule("a", pub, inner),
		parser.NewModule("b", pub, parser.NewModule("c", pub, target)),
	)
	g, r := build(c)

	got, ok := r.Rebind(mustPath(t, "Missing", parser.CtxType, inner.ID), declOf(t, g, target.ID))
	if !ok || got != "crate::b::c::Target" {
		t.Fatalf("expected crate-relative path, got %q", got)
	}
	if _, ok := r.Rebind(mustPath(t, "u8", parser.CtxType, inner.ID), mustPrimitive(t, g, "u8")); ok {
		t.Fatal("primitives cannot be rebound")
	}
}

func mustPrimitive(t *testing.T, g *graph.Snapshot, name string) graph.DeclID {
	t.Helper()
	id, ok := g.Primitive(name)
	if !ok {
		t.Fatalf("no primitive %s", name)
	}
	return id
}

func TestReplacePrefix(t *testing.T) {
	tests := []struct {
		full, mod, short string
		want             string
		ok               bool
	}{
		{"a::b::c", "a::b", "x", "x::c", true},
		{"a::b", "a::b", "x", "x", true},
		{"a::bc::d", "a::b", "x", "", false},
		{"c", "self", "self", "self::c", true},
	}
	for _, tt := range tests {
		got, ok := replacePrefix(tt.full, tt.mod, tt.short)
		if got != tt.want || ok != tt.ok {
			t.Errorf("replacePrefix(%q, %q, %q) = %q, %v", tt.full, tt.mod, tt.short, got, ok)
		}
	}
}

// # internal/engine/graph/snapshot_test.go
package graph

import (
	"testing"

	"pathres/internal/engine/parser"
)

var pub = parser.Visibility{Kind: parser.VisPublic}

func item(kind parser.ItemKind, name string, vis parser.Visibility, children ...*parser.Item) *parser.Item {
	return &parser.Item{ID: parser.NextNodeID(), Kind: kind, Name: name, Vis: vis, Items: children}
}

// app:
//
//	mod a { pub mod b { pub struct S; pub(crate) fn f() {} } struct Hidden; }
//	pub mod c { pub(super) struct T; }
//	fn main() {}
func sampleCrate() *parser.Crate {
	b := parser.NewModule("b", pub,
		item(parser.ItemStruct, "S", pub),
		item(parser.ItemFn, "f", parser.Visibility{Kind: parser.VisCrate}),
	)
	a := parser.NewModule("a", parser.Visibility{}, b, item(parser.ItemStruct, "Hidden", parser.Visibility{}))
	c := parser.NewModule("c", pub, item(parser.ItemStruct, "T", parser.Visibility{Kind: parser.VisSuper}))
	root := parser.NewModule("", pub, a, c, item(parser.ItemFn, "main", parser.Visibility{}))
	return &parser.Crate{Name: "app", Root: root}
}

func lookupOne(t *testing.T, g *Snapshot, crate string, path ...string) DeclID {
	t.Helper()
	mod, ok := g.ModuleByPath(crate, path[:len(path)-1]...)
	if !ok {
		t.Fatalf("module %v not found", path[:len(path)-1])
	}
	ids := g.ModuleScope(mod).Lookup(path[len(path)-1])
	if len(ids) != 1 {
		t.Fatalf("expected one decl for %v, got %d", path, len(ids))
	}
	return ids[0]
}

func TestBuild_DeterministicIDs(t *testing.T) {
	crate := sampleCrate()
	g1 := Build([]*parser.Crate{crate}, BuildOptions{})
	g2 := Build([]*parser.Crate{crate}, BuildOptions{})

	if g1.ID == g2.ID {
		t.Fatal("expected distinct snapshot ids")
	}
	if g1.Len() != g2.Len() {
		t.Fatalf("decl count differs: %d vs %d", g1.Len(), g2.Len())
	}
	s1 := lookupOne(t, g1, "app", "a", "b", "S")
	s2 := lookupOne(t, g2, "app", "a", "b", "S")
	if s1 != s2 {
		t.Fatalf("expected stable id for S, got %d and %d", s1, s2)
	}
}

func TestBuild_QualifiedName(t *testing.T) {
	g := Build([]*parser.Crate{sampleCrate()}, BuildOptions{})
	s := lookupOne(t, g, "app", "a", "b", "S")
	if got := g.QualifiedName(s); got != "app::a::b::S" {
		t.Fatalf("unexpected qualified name %q", got)
	}
	if got := g.ModulePath(g.Decl(s).Module); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected module path %v", got)
	}
}

func TestBuild_Primitives(t *testing.T) {
	g := Build(nil, BuildOptions{})
	id, ok := g.Primitive("u8")
	if !ok {
		t.Fatal("expected u8 primitive")
	}
	if g.Decl(id).Namespaces() != NsTypes {
		t.Fatalf("expected primitive in types namespace, got %s", g.Decl(id).Namespaces())
	}
}

func TestVisibility(t *testing.T) {
	g := Build([]*parser.Crate{sampleCrate()}, BuildOptions{})
	root, _ := g.ModuleByPath("app")
	modA, _ := g.ModuleByPath("app", "a")
	modB, _ := g.ModuleByPath("app", "a", "b")
	modC, _ := g.ModuleByPath("app", "c")

	s := lookupOne(t, g, "app", "a", "b", "S")
	hidden := lookupOne(t, g, "app", "a", "Hidden")
	f := lookupOne(t, g, "app", "a", "b", "f")
	superT := lookupOne(t, g, "app", "c", "T")

	tests := []struct {
		name string
		id   DeclID
		from DeclID
		want bool
	}{
		{"public item through private module from root", s, root, true},
		{"public item through private module from sibling", s, modC, true},
		{"private item from sibling module", hidden, modC, false},
		{"private item from own module", hidden, modA, true},
		{"private item from child module", hidden, modB, true},
		{"private item from root", hidden, root, false},
		{"crate item from anywhere in crate", f, root, true},
		{"pub(super) from parent", superT, root, true},
		{"pub(super) from inside", superT, modC, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.IsReachableFrom(tt.id, tt.from); got != tt.want {
				t.Errorf("IsReachableFrom = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTracker_WriteAccess(t *testing.T) {
	tr := NewTracker()
	var escaped *Writer
	tr.Write(func(w *Writer) {
		w.TouchFile("a.rs")
		w.TouchStructure()
		escaped = w
	})

	sig := tr.Signature("a.rs")
	if sig.Local != 1 || sig.Global != 1 {
		t.Fatalf("unexpected signature %+v", sig)
	}
	if other := tr.Signature("b.rs"); other.Local != 0 {
		t.Fatalf("expected untouched file to keep generation 0, got %d", other.Local)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when bumping outside a write action")
		}
	}()
	escaped.TouchStructure()
}

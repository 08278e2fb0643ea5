package resolver

import (
	"testing"

	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
)

func TestIsReferenceTo(t *testing.T) {
	traitM := fnItem(t, "m", pub)
	implM := fnItem(t, "m", pub)
	own := fnItem(t, "own", pub)
	free := fnItem(t, "free", pub)
	main := fnItem(t, "main", priv)
	g, r := build(crateOf("app",
		traitItem(t, "Tr", nil, nil, traitM),
		structItem(t, "S", pub),
		implItem(t, "S", "Tr", nil, implM),
		implItem(t, "S", "", nil, own),
		free, main,
	))
	id := func(it *parser.Item) graph.DeclID { return declOf(t, g, it.ID) }

	tests := []struct {
		src    string
		ctx    parser.PathContext
		target graph.DeclID
		want   bool
	}{
		{"S::m", parser.CtxExpr, id(implM), true},
		{"S::m", parser.CtxExpr, id(traitM), false},
		{"Tr::m", parser.CtxExpr, id(traitM), true},
		{"Tr::m", parser.CtxExpr, id(implM), false},
		{"m", parser.CtxExpr, id(implM), false},
		{"S::own", parser.CtxExpr, id(own), true},
		{"free", parser.CtxExpr, id(free), true},
		{"self::free", parser.CtxUse, id(free), true},
		{"free", parser.CtxType, id(free), false},
		{"S::own", parser.CtxExpr, id(free), false},
	}
	for _, tt := range tests {
		p := mustPath(t, tt.src, tt.ctx, main.ID)
		if got := r.IsReferenceTo(p, tt.target); got != tt.want {
			t.Errorf("IsReferenceTo(%s [%s], %s) = %v", tt.src, tt.ctx, g.QualifiedName(tt.target), got)
		}
	}
}

func TestSuperItem(t *testing.T) {
	traitM := fnItem(t, "m", pub)
	implM := fnItem(t, "m", pub)
	own := fnItem(t, "own", pub)
	g, r := build(crateOf("app",
		traitItem(t, "Tr", nil, nil, traitM),
		structItem(t, "S", pub),
		implItem(t, "S", "Tr", nil, implM),
		implItem(t, "S", "", nil, own),
	))
	if got := r.superItem(g.Decl(declOf(t, g, implM.ID))); got != declOf(t, g, traitM.ID) {
		t.Fatalf("expected the trait item, got %d", got)
	}
	if got := r.superItem(g.Decl(declOf(t, g, own.ID))); got != graph.DeclID(0) {
		t.Fatal("inherent members have no super item")
	}
}

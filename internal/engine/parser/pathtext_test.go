package parser

import "testing"

func TestParsePath_RoundTrip(t *testing.T) {
	tests := []struct {
		src  string
		ctx  PathContext
		want string
	}{
		{"a::b::c", CtxType, "a::b::c"},
		{"::std::vec::Vec", CtxType, "::std::vec::Vec"},
		{"Vec<u8>", CtxType, "Vec<u8>"},
		{"HashMap<String, Vec<Vec<u8>>>", CtxType, "HashMap<String, Vec<Vec<u8>>>"},
		{"Foo::<u8>::bar::<u16>", CtxExpr, "Foo::<u8>::bar::<u16>"},
		{"Fn(u8, &'a mut str) -> bool", CtxTraitBound, "Fn(u8, &'a mut str) -> bool"},
		{"Iterator<Item = (u8,)>", CtxTraitBound, "Iterator<Item = (u8,)>"},
		{"Ref<'a, 'static, T>", CtxType, "Ref<'a, 'static, T>"},
		{"Arr<[u8; 4], 3>", CtxType, "Arr<[u8; 4], 3>"},
		{"Arr<{ -1 }>", CtxType, "Arr<{ -1 }>"},
		{"Arr<{ N + 1 }>", CtxType, "Arr<{ N + 1 }>"},
		{"Box<dyn Fn() + Send>", CtxType, "Box<dyn Fn() + Send>"},
		{"r#type::Thing", CtxType, "type::Thing"},
		{"<T as Iterator>::Item", CtxType, "<T as Iterator>::Item"},
		{"<Vec<u8>>::new", CtxExpr, "<Vec<u8>>::new"},
		{"Box<dyn Error + 'static>", CtxType, "Box<dyn Error + 'static>"},
		{"Handler<for<'a> fn(&'a u8) -> bool>", CtxType, "Handler<for<'a> fn(&'a u8) -> bool>"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p, err := ParsePath(tt.src, tt.ctx, 7)
			if err != nil {
				t.Fatalf("parse %q: %v", tt.src, err)
			}
			if got := p.Text(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParsePath_LinksQualifiers(t *testing.T) {
	p, err := ParsePath("crate::a::B::<u8>::c", CtxExpr, 42)
	if err != nil {
		t.Fatal(err)
	}
	segs := p.Segments()
	if len(segs) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(segs))
	}
	for i, s := range segs {
		if s.Owner != 42 || s.Context != CtxExpr {
			t.Fatalf("segment %d: owner %d ctx %s", i, s.Owner, s.Context)
		}
		if i < len(segs)-1 && s.Parent() != segs[i+1] {
			t.Fatalf("segment %d not linked to its parent", i)
		}
	}
	if segs[2].TypeArgs == nil || len(segs[2].TypeArgs.Types) != 1 {
		t.Fatal("expected turbofish on B")
	}
	inner := segs[2].TypeArgs.Types[0].(TypePath).Path
	if inner.Context != CtxType {
		t.Fatalf("nested path should be a type path, got %s", inner.Context)
	}
}

func TestParsePath_ExprNeedsTurbofish(t *testing.T) {
	if _, err := ParsePath("Vec<u8>::new", CtxExpr, 1); err == nil {
		t.Fatal("expected error for generic args without turbofish in expression")
	}
}

func TestParsePath_Errors(t *testing.T) {
	for _, src := range []string{"", "a::", "a<b", "a::<>>", "a $ b", "Fn(u8"} {
		if _, err := ParsePath(src, CtxType, 1); err == nil {
			t.Errorf("expected error for %q", src)
		}
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"*const Foo", "*const Foo"},
		{"*mut [u8]", "*mut [u8]"},
		{"for<'a> fn(&'a u8)", "for<'a> fn(&'a u8)"},
		{"fn(u8, char) -> bool", "fn(u8, char) -> bool"},
		{"&'static (dyn Error + Send)", "&'static (dyn Error + Send)"},
		{"impl Iterator<Item = u8>", "impl Iterator<Item = u8>"},
		{"<T as Deref>::Target", "<T as Deref>::Target"},
	}
	for _, tt := range tests {
		ty, err := ParseType(tt.src, 1)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.src, err)
		}
		if got := ty.String(); got != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.src, tt.want, got)
		}
	}
}

func TestParseType_QualifiedSelfBindsTrait(t *testing.T) {
	ty, err := ParseType("<T as Iterator>::Item", 3)
	if err != nil {
		t.Fatal(err)
	}
	p := ty.(TypePath).Path
	if p.QSelf == nil || p.QSelf.Trait == nil {
		t.Fatalf("expected a qualified self on %q", p.Text())
	}
	if got := p.QSelf.Trait.Text(); got != "Iterator" {
		t.Fatalf("expected trait Iterator, got %q", got)
	}
	if p.QSelf.Trait.BoundSelf == nil || p.QSelf.Trait.BoundSelf.String() != "T" {
		t.Fatal("expected the trait path to carry T as its self type")
	}
	if p.QSelf.Trait.Context != CtxTraitBound {
		t.Fatalf("expected trait bound context, got %s", p.QSelf.Trait.Context)
	}

	var seen []string
	VisitTypePaths(ty, func(p *Path) { seen = append(seen, p.Text()) })
	if len(seen) != 3 {
		t.Fatalf("expected the path, T and Iterator, got %v", seen)
	}
}

func TestParseConst(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"3", "3"},
		{"3usize", "3usize"},
		{"1_000", "1000"},
		{"0x10", "16"},
		{"-N", "-N"},
		{"1 + 2 * 3", "1 + 2 * 3"},
		{"{ 1 << 4 }", "{ 1 << 4 }"},
		{"8 >> 1", "8 >> 1"},
		{"N >= 2", "N >= 2"},
	}
	for _, tt := range tests {
		c, err := ParseConst(tt.src, 1)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.src, err)
		}
		if got := c.String(); got != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.src, tt.want, got)
		}
	}
}

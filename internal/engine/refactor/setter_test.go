package refactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathres/internal/core/errors"
	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/engine/resolver"
	"pathres/internal/engine/types"
)

var pub = parser.Visibility{Kind: parser.VisPublic}

type fixture struct {
	g       *graph.Snapshot
	r       *resolver.Resolver
	tracker *graph.Tracker
	point   *parser.Item
}

// newFixture builds
//
//	pub struct Wrapper<U>;
//	pub struct Point<'a, T> { x: T, inner: Wrapper<T>, name: &'a str, tag: Missing, empty }
//	pub struct Pair(u8, u8);
func newFixture(t *testing.T) fixture {
	t.Helper()
	wrapper := &parser.Item{ID: parser.NextNodeID(), Kind: parser.ItemStruct, Name: "Wrapper", Vis: pub}
	wrapper.Generics = &parser.Generics{Params: []parser.GenericParam{{ID: parser.NextNodeID(), Kind: parser.ParamType, Name: "U"}}}

	point := &parser.Item{ID: parser.NextNodeID(), Kind: parser.ItemStruct, Name: "Point", Vis: pub}
	point.Generics = &parser.Generics{Params: []parser.GenericParam{
		{ID: parser.NextNodeID(), Kind: parser.ParamLifetime, Name: "'a"},
		{ID: parser.NextNodeID(), Kind: parser.ParamType, Name: "T"},
	}}
	field := func(name, src string) parser.Field {
		f := parser.Field{Name: name, Vis: pub}
		if src != "" {
			ty, err := parser.ParseType(src, point.ID)
			require.NoError(t, err)
			f.Type = ty
		}
		return f
	}
	point.Fields = []parser.Field{
		field("x", "T"),
		field("inner", "Wrapper<T>"),
		field("name", "&'a str"),
		field("tag", "Missing"),
		field("empty", ""),
	}

	pair := &parser.Item{ID: parser.NextNodeID(), Kind: parser.ItemStruct, Name: "Pair", Vis: pub, Shape: parser.ShapeTuple}

	crate := &parser.Crate{Name: "demo", Edition: "2021", Root: parser.NewModule("demo", pub, wrapper, point, pair)}
	tracker := graph.NewTracker()
	g := graph.Build([]*parser.Crate{crate}, graph.BuildOptions{})
	return fixture{g: g, r: resolver.New(g, resolver.Options{Tracker: tracker}), tracker: tracker, point: point}
}

func (f fixture) decl(t *testing.T, node parser.NodeID) graph.DeclID {
	t.Helper()
	id, ok := f.g.DeclOf(node)
	require.True(t, ok)
	return id
}

func TestGenerateSetters_SubstitutesFieldTypes(t *testing.T) {
	f := newFixture(t)
	pointID := f.decl(t, f.point.ID)
	tParam := f.decl(t, f.point.Generics.Params[1].ID)
	subst := types.NewSubstitution(map[types.DefID]types.TypeArg{
		tParam: types.Concrete(types.TyPrimitive{Name: "i32"}),
	}, nil, nil)

	var setters []Setter
	var err error
	f.tracker.Write(func(w *graph.Writer) {
		setters, err = GenerateSetters(f.tracker, f.r, pointID, subst, []string{"x", "inner", "name", "tag", "empty"})
	})
	require.NoError(t, err)

	got := map[string]string{}
	for _, s := range setters {
		got[s.Method] = Render(s.Type)
	}
	assert.Equal(t, map[string]string{
		"set_x":     "i32",
		"set_inner": "Wrapper<i32>",
		"set_name":  "&'a str",
		"set_tag":   "_",
		"set_empty": "()",
	}, got)
	assert.Equal(t, "pub fn set_x(&mut self, x: i32) {\n    self.x = x;\n}", setters[0].Text)
}

func TestGenerateSetters_RequiresWriteAction(t *testing.T) {
	f := newFixture(t)
	_, err := GenerateSetters(f.tracker, f.r, f.decl(t, f.point.ID), types.Substitution{}, []string{"x"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeWriteAccess))
}

func TestGenerateSetters_Rejects(t *testing.T) {
	f := newFixture(t)
	pair := f.g.ModuleScope(f.g.CrateRoot(f.decl(t, f.point.ID))).Lookup("Pair")
	require.Len(t, pair, 1)

	tests := []struct {
		name   string
		target graph.DeclID
		fields []string
		code   errors.ErrorCode
	}{
		{name: "tuple struct", target: pair[0], fields: []string{"0"}, code: errors.CodeNotSupported},
		{name: "unknown field", target: f.decl(t, f.point.ID), fields: []string{"z"}, code: errors.CodeNotFound},
		{name: "not a struct", target: f.decl(t, f.point.Generics.Params[1].ID), code: errors.CodeValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			f.tracker.Write(func(*graph.Writer) {
				_, err = GenerateSetters(f.tracker, f.r, tt.target, types.Substitution{}, tt.fields)
			})
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestImplBlock(t *testing.T) {
	f := newFixture(t)
	pointID := f.decl(t, f.point.ID)
	var setters []Setter
	f.tracker.Write(func(*graph.Writer) {
		var err error
		setters, err = GenerateSetters(f.tracker, f.r, pointID, types.Substitution{}, []string{"x", "empty"})
		require.NoError(t, err)
	})

	want := "impl<'a, T> Point<'a, T> {\n" +
		"    pub fn set_x(&mut self, x: T) {\n" +
		"        self.x = x;\n" +
		"    }\n" +
		"\n" +
		"    pub fn set_empty(&mut self, empty: ()) {\n" +
		"        self.empty = empty;\n" +
		"    }\n" +
		"}\n"
	assert.Equal(t, want, ImplBlock(f.g.Decl(pointID), setters))
}

func TestRender(t *testing.T) {
	tests := []struct {
		ty   types.Ty
		want string
	}{
		{types.TyUnknown{}, "_"},
		{types.TyTuple{Elems: []types.Ty{types.TyPrimitive{Name: "u8"}}}, "(u8,)"},
		{types.TyRef{Mut: true, Region: types.ReUnknown{}, Inner: types.TySlice{Elem: types.TyPrimitive{Name: "u8"}}}, "&mut [u8]"},
		{types.TyRef{Region: types.ReStatic{}, Inner: types.TyPrimitive{Name: "str"}}, "&'static str"},
		{types.TyArray{Elem: types.TyNever{}, Len: types.CtUnknown{}}, "[!; _]"},
		{types.TyArray{Elem: types.TyPrimitive{Name: "u8"}, Len: types.CtInt{Value: 4}}, "[u8; 4]"},
	}
	for _, tt := range tests {
		if got := Render(tt.ty); got != tt.want {
			t.Errorf("Render(%v) = %q, want %q", tt.ty, got, tt.want)
		}
	}
}

// # internal/engine/parser/rust_test.go
package parser

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `
use std::collections::HashMap;
use crate::{self as root, shapes::{Circle, Square as Sq}, util::*};
pub(crate) use super::Thing;
extern crate alloc as heap;

pub mod shapes {
    pub struct Circle { pub radius: f64, center: (f64, f64) }
    pub struct Square(pub f64);
    pub enum Shape<T = f64> { Round(Circle), Flat { side: T }, Empty }
}

mod util;

pub trait Area: Clone {
    type Output;
    fn area(&self) -> Self::Output;
}

impl<T: Copy + Default, const N: usize> Area for [T; N] where T: Clone {
    type Output = T;
    fn area(&self) -> T { T::default() }
}

pub fn build<'a>(names: &'a [String]) -> Vec<&'a str> {
    struct Local;
    let mut out: Vec<&str> = Vec::with_capacity(names.len());
    for n in names {
        out.push(n.as_str());
    }
    if out.is_empty() {
        let _x = Option::<u8>::None;
    }
    println!("{}", out.len());
    out
}

extern "C" {
    fn abs(x: i32) -> i32;
}
`

func parseSample(t *testing.T) *File {
	t.Helper()
	file, err := NewParser().ParseFile("src/lib.rs", []byte(sampleSource))
	require.NoError(t, err)
	require.Empty(t, file.Errors)
	return file
}

func findItem(items []*Item, kind ItemKind, name string) *Item {
	for _, it := range items {
		if it.Kind == kind && it.Name == name {
			return it
		}
	}
	return nil
}

func TestRustExtractor_Items(t *testing.T) {
	file := parseSample(t)

	shapes := findItem(file.Items, ItemMod, "shapes")
	require.NotNil(t, shapes)
	assert.Equal(t, VisPublic, shapes.Vis.Kind)

	circle := findItem(shapes.Items, ItemStruct, "Circle")
	require.NotNil(t, circle)
	assert.Equal(t, ShapeNamed, circle.Shape)
	require.Len(t, circle.Fields, 2)
	assert.Equal(t, "radius", circle.Fields[0].Name)
	assert.Equal(t, VisPublic, circle.Fields[0].Vis.Kind)
	assert.Equal(t, "(f64, f64)", circle.Fields[1].Type.String())

	square := findItem(shapes.Items, ItemStruct, "Square")
	require.NotNil(t, square)
	assert.Equal(t, ShapeTuple, square.Shape)
	require.Len(t, square.Fields, 1)
	assert.Equal(t, "0", square.Fields[0].Name)

	shape := findItem(shapes.Items, ItemEnum, "Shape")
	require.NotNil(t, shape)
	require.NotNil(t, shape.Generics)
	require.Len(t, shape.Generics.Params, 1)
	assert.Equal(t, "f64", shape.Generics.Params[0].Default.String())
	var shapesOf []Shape
	for _, v := range shape.Items {
		shapesOf = append(shapesOf, v.Shape)
	}
	assert.Equal(t, []Shape{ShapeTuple, ShapeNamed, ShapeUnit}, shapesOf)

	util := findItem(file.Items, ItemMod, "util")
	require.NotNil(t, util)
	assert.True(t, util.External)

	abs := findItem(file.Items, ItemFn, "abs")
	require.NotNil(t, abs)
	assert.True(t, abs.Foreign)
}

func TestRustExtractor_TraitsAndImpls(t *testing.T) {
	file := parseSample(t)

	area := findItem(file.Items, ItemTrait, "Area")
	require.NotNil(t, area)
	require.Len(t, area.Supertraits, 1)
	assert.Equal(t, "Clone", area.Supertraits[0].Text())
	assert.Equal(t, "Self", area.Supertraits[0].BoundSelf.String())
	require.NotNil(t, findItem(area.Items, ItemTypeAlias, "Output"))
	method := findItem(area.Items, ItemFn, "area")
	require.NotNil(t, method)
	assert.Equal(t, "Self::Output", method.Output.String())
	assert.Equal(t, method.ID, method.Output.(TypePath).Path.Owner)

	var impl *Item
	for _, it := range file.Items {
		if it.Kind == ItemImpl {
			impl = it
		}
	}
	require.NotNil(t, impl)
	require.NotNil(t, impl.Trait)
	assert.Equal(t, "Area", impl.Trait.Text())
	assert.Equal(t, CtxTraitBound, impl.Trait.Context)
	assert.Equal(t, "[T; N]", impl.SelfType.String())
	assert.Equal(t, impl.SelfType, impl.Trait.BoundSelf)

	require.NotNil(t, impl.Generics)
	params := impl.Generics.Params
	require.Len(t, params, 2)
	assert.Equal(t, ParamType, params[0].Kind)
	var bounds []string
	for _, b := range params[0].Bounds {
		bounds = append(bounds, b.Text())
		assert.Equal(t, "T", b.BoundSelf.String())
	}
	assert.Equal(t, []string{"Copy", "Default"}, bounds)
	assert.Equal(t, ParamConst, params[1].Kind)
	assert.Equal(t, "usize", params[1].ConstType.String())
	require.Len(t, impl.Generics.Where, 1)
	assert.Equal(t, "T", impl.Generics.Where[0].Subject.String())

	alias := findItem(impl.Items, ItemTypeAlias, "Output")
	require.NotNil(t, alias)
	assert.Equal(t, "T", alias.AliasType.String())
}

func TestRustExtractor_Uses(t *testing.T) {
	file := parseSample(t)

	var got []string
	for _, it := range file.Items {
		if it.Kind != ItemUse && it.Kind != ItemExternCrate {
			continue
		}
		for _, u := range it.Uses {
			s := u.Path.Text()
			if u.Glob {
				s += "::*"
			}
			if u.Alias != "" {
				s += " as " + u.Alias
			}
			got = append(got, s)
		}
	}
	assert.Equal(t, []string{
		"std::collections::HashMap",
		"crate as root",
		"crate::shapes::Circle",
		"crate::shapes::Square as Sq",
		"crate::util::*",
		"super::Thing",
		"::alloc as heap",
	}, got)

	var reexport *Item
	for _, it := range file.Items {
		if it.Kind == ItemUse && it.Vis.Kind == VisCrate {
			reexport = it
		}
	}
	require.NotNil(t, reexport)
	assert.Equal(t, CtxUse, reexport.Uses[0].Path.Context)
}

func TestRustExtractor_FunctionBodies(t *testing.T) {
	file := parseSample(t)

	build := findItem(file.Items, ItemFn, "build")
	require.NotNil(t, build)
	require.Len(t, build.Blocks, 1)
	body := build.Blocks[0]
	require.NotNil(t, findItem(body.Items, ItemStruct, "Local"))
	assert.NotEmpty(t, body.Blocks, "loop and if bodies open nested blocks")
	require.Len(t, build.Inputs, 1)
	assert.Equal(t, "&'a [String]", build.Inputs[0].String())

	byText := map[string]*Path{}
	for _, ref := range file.References {
		byText[ref.Text()] = ref
	}
	withCap := byText["Vec::with_capacity"]
	require.NotNil(t, withCap)
	assert.Equal(t, CtxExpr, withCap.Context)
	assert.Equal(t, body.ID, withCap.Owner)
	assert.Equal(t, Location{File: "src/lib.rs", Line: 27, Column: 30}, withCap.Location)

	turbofish := byText["Option::<u8>::None"]
	require.NotNil(t, turbofish)
	assert.NotEqual(t, body.ID, turbofish.Owner, "the if block owns the reference")
	require.NotNil(t, turbofish.Qualifier.TypeArgs)

	macro := byText["println"]
	require.NotNil(t, macro)
	assert.Equal(t, CtxMacro, macro.Context)

	for _, text := range []string{"String", "str", "Vec<&str>", "std::collections::HashMap"} {
		assert.Contains(t, byText, text)
	}
}

func TestRustExtractor_ReferencesCollectedOnce(t *testing.T) {
	file := parseSample(t)
	seen := map[*Path]bool{}
	for _, ref := range file.References {
		assert.False(t, seen[ref], "reference %s collected twice", ref.Text())
		seen[ref] = true
	}
}

func TestRustExtractor_SyntaxErrors(t *testing.T) {
	file, err := NewParser().ParseFile("broken.rs", []byte("pub struct Broken {\n    a: u8,\n\nfn ok() {}\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, file.Errors)
}

func TestRustExtractor_Visibility(t *testing.T) {
	src := `
pub(super) fn a() {}
pub(in crate::outer) fn b() {}
pub(self) fn c() {}
fn d() {}
`
	file, err := NewParser().ParseFile("vis.rs", []byte(src))
	require.NoError(t, err)

	kinds := map[string]VisKind{}
	for _, it := range file.Items {
		kinds[it.Name] = it.Vis.Kind
	}
	assert.Equal(t, map[string]VisKind{"a": VisSuper, "b": VisRestricted, "c": VisPrivate, "d": VisPrivate}, kinds)
	b := findItem(file.Items, ItemFn, "b")
	assert.Equal(t, "crate::outer", b.Vis.In.Text())
}

func TestParser_RejectsNonRust(t *testing.T) {
	_, err := NewParser().ParseFile("main.go", []byte("package main"))
	assert.Error(t, err)
}

func TestParser_ParseModuleKeepsModuleID(t *testing.T) {
	module := NextNodeID()
	file, err := NewParser().ParseModule("src/util.rs", []byte("pub type Id = u32;"), module)
	require.NoError(t, err)
	assert.Equal(t, module, file.Module)
	alias := findItem(file.Items, ItemTypeAlias, "Id")
	require.NotNil(t, alias)

	var owners []int
	for _, ref := range file.References {
		owners = append(owners, int(ref.Owner))
	}
	sort.Ints(owners)
	assert.Equal(t, []int{int(alias.ID)}, owners)
}

func TestRustExtractor_PointerAndTraitObjectTypes(t *testing.T) {
	src := `pub type BoxErr = Box<dyn Error + 'static>;
pub type Ptr = *const Foo;
pub type Item<T> = <T as Iterator>::Item;
pub type Cb = for<'a> fn(&'a u8);
fn f(x: Box<dyn Error + 'static>) {}
`
	file, err := NewParser().ParseFile("types.rs", []byte(src))
	require.NoError(t, err)
	assert.Empty(t, file.Unsupported)

	aliases := map[string]string{}
	for _, it := range file.Items {
		if it.Kind == ItemTypeAlias {
			aliases[it.Name] = it.AliasType.String()
		}
	}
	assert.Equal(t, map[string]string{
		"BoxErr": "Box<dyn Error + 'static>",
		"Ptr":    "*const Foo",
		"Item":   "<T as Iterator>::Item",
		"Cb":     "for<'a> fn(&'a u8)",
	}, aliases)

	f := findItem(file.Items, ItemFn, "f")
	require.NotNil(t, f)
	require.Len(t, f.Inputs, 1)
	assert.Equal(t, "Box<dyn Error + 'static>", f.Inputs[0].String())

	locs := map[string][]Location{}
	for _, ref := range file.References {
		locs[ref.Text()] = append(locs[ref.Text()], ref.Location)
	}
	for _, name := range []string{"Box<dyn Error + 'static>", "Error", "Foo", "T", "Iterator", "u8", "<T as Iterator>::Item"} {
		assert.NotEmpty(t, locs[name], "expected a reference to %s", name)
	}
	assert.Equal(t, []Location{
		{File: "types.rs", Line: 1, Column: 23},
		{File: "types.rs", Line: 5, Column: 16},
	}, locs["Error"], "nested paths keep their own position")
	assert.Equal(t, []Location{{File: "types.rs", Line: 2, Column: 23}}, locs["Foo"])
}

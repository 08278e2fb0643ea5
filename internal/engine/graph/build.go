package graph

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"pathres/internal/engine/parser"
	"pathres/internal/engine/types"
)

// DefaultPrimitives are the builtin scalar type names.
var DefaultPrimitives = []string{
	"bool", "char", "str",
	"i8", "i16", "i32", "i64", "i128", "isize",
	"u8", "u16", "u32", "u64", "u128", "usize",
	"f32", "f64",
}

// BuildOptions tunes snapshot construction.
type BuildOptions struct {
	// Prelude lists module paths like `std::prelude::v1` whose items are in
	// scope everywhere.
	Prelude    []string
	Primitives []string
}

// Build creates a snapshot from parsed crates. Declaration ids are assigned
// deterministically: crates in name order, items in source order. Two builds
// of structurally equal crates therefore agree on every id.
func Build(crates []*parser.Crate, opts BuildOptions) *Snapshot {
	g := &Snapshot{
		ID:         uuid.New(),
		decls:      []*Decl{nil},
		crates:     make(map[string]*CrateInfo),
		scopes:     make(map[parser.NodeID]*Scope),
		byNode:     make(map[parser.NodeID]DeclID),
		primitives: make(map[string]DeclID),
		macros:     make(map[string]map[string][]DeclID),
		byName:     make(map[string][]DeclID),
	}

	sorted := append([]*parser.Crate(nil), crates...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	b := &builder{g: g}
	for _, c := range sorted {
		if c == nil || c.Root == nil {
			continue
		}
		if _, dup := g.crates[c.Name]; dup {
			continue
		}
		b.crate = c.Name
		g.macros[c.Name] = make(map[string][]DeclID)
		root := b.module(c.Root, types.NoDef, nil)
		g.crates[c.Name] = &CrateInfo{Name: c.Name, Edition: c.Edition, Root: root, References: c.References}
		g.crateNames = append(g.crateNames, c.Name)
	}

	prims := opts.Primitives
	if prims == nil {
		prims = DefaultPrimitives
	}
	for _, name := range prims {
		g.primitives[name] = b.add(&Decl{Name: name, Kind: KindPrimitive, Vis: parser.Visibility{Kind: parser.VisPublic}})
	}

	for _, p := range opts.Prelude {
		segs := strings.Split(p, "::")
		if len(segs) == 0 {
			continue
		}
		if mod, ok := g.ModuleByPath(segs[0], segs[1:]...); ok {
			g.prelude = append(g.prelude, mod)
		}
	}
	return g
}

type builder struct {
	g     *Snapshot
	crate string
}

func (b *builder) add(d *Decl) DeclID {
	d.ID = DeclID(len(b.g.decls))
	if d.Crate == "" {
		d.Crate = b.crate
	}
	b.g.decls = append(b.g.decls, d)
	if d.Item != nil {
		b.g.byNode[d.Item.ID] = d.ID
	}
	if d.Param != nil {
		b.g.byNode[d.Param.ID] = d.ID
	}
	if d.Name != "" && d.Kind != KindPrimitive {
		b.g.byName[d.Name] = append(b.g.byName[d.Name], d.ID)
	}
	return d.ID
}

func (b *builder) module(it *parser.Item, parent DeclID, declScope *Scope) DeclID {
	name := it.Name
	if parent == types.NoDef {
		name = b.crate
	}
	id := b.add(&Decl{
		Name:      name,
		Kind:      KindMod,
		Vis:       it.Vis,
		Module:    parent,
		Parent:    parent,
		Item:      it,
		DeclScope: declScope,
	})
	if parent == types.NoDef {
		b.g.decls[id].Vis = parser.Visibility{Kind: parser.VisPublic}
	}
	sc := newScope(ScopeModule, nil, id, id, it.ID)
	b.g.decls[id].Scope = sc
	b.g.scopes[it.ID] = sc
	if declScope != nil {
		declScope.declare(it.Name, id)
	}
	for _, child := range it.Items {
		b.item(child, sc, id, id, OwnerFree{})
	}
	return id
}

// item adds a declaration written in sc. Members of traits and impls are
// not declared by name in sc; they are reachable only through their
// container.
func (b *builder) item(it *parser.Item, sc *Scope, module, container DeclID, owner Owner) DeclID {
	if it.Foreign {
		if _, free := owner.(OwnerFree); free {
			owner = OwnerForeign{}
		}
	}
	member := IsImplOrTrait(owner)

	switch it.Kind {
	case parser.ItemMod:
		return b.module(it, module, sc)
	case parser.ItemUse, parser.ItemExternCrate:
		for _, u := range it.Uses {
			sc.Imports = append(sc.Imports, Import{Path: u.Path, Alias: u.Alias, Glob: u.Glob, Vis: it.Vis, Scope: sc})
		}
		return types.NoDef
	}

	d := &Decl{
		Name:      it.Name,
		Vis:       it.Vis,
		Module:    module,
		Parent:    container,
		Item:      it,
		DeclScope: sc,
	}
	switch it.Kind {
	case parser.ItemStruct:
		d.Kind = KindStruct
	case parser.ItemEnum:
		d.Kind = KindEnum
	case parser.ItemVariant:
		d.Kind = KindVariant
	case parser.ItemTrait:
		d.Kind = KindTrait
	case parser.ItemFn:
		d.Kind = KindFn
	case parser.ItemTypeAlias:
		d.Kind = KindTypeAlias
	case parser.ItemConst:
		d.Kind = KindConst
	case parser.ItemStatic:
		d.Kind = KindStatic
	case parser.ItemImpl:
		d.Kind = KindImpl
		d.Name = ""
	case parser.ItemMacro:
		d.Kind = KindMacro
	default:
		return types.NoDef
	}
	if d.IsAbstractable() {
		d.Owner = owner
	}
	id := b.add(d)

	if !member && d.Kind != KindImpl && d.Kind != KindVariant {
		sc.declare(it.Name, id)
	}
	if d.Kind == KindMacro {
		b.g.macros[b.crate][it.Name] = append(b.g.macros[b.crate][it.Name], id)
	}

	switch d.Kind {
	case KindImpl:
		inner := b.generics(d, ScopeImpl, sc, module)
		b.g.impls = append(b.g.impls, id)
		inherent := it.Trait == nil
		for _, m := range it.Items {
			if mid := b.item(m, inner, module, id, OwnerImpl{Impl: id, Inherent: inherent}); mid != types.NoDef {
				d.Members = append(d.Members, mid)
			}
		}
	case KindTrait:
		inner := b.generics(d, ScopeTrait, sc, module)
		for _, m := range it.Items {
			if mid := b.item(m, inner, module, id, OwnerTrait{Trait: id}); mid != types.NoDef {
				d.Members = append(d.Members, mid)
			}
		}
	case KindEnum:
		inner := b.generics(d, ScopeGenerics, sc, module)
		for _, v := range it.Items {
			if vid := b.item(v, inner, module, id, OwnerFree{}); vid != types.NoDef {
				b.g.decls[vid].Vis = parser.Visibility{Kind: parser.VisPublic}
				d.Members = append(d.Members, vid)
			}
		}
	case KindStruct, KindTypeAlias:
		b.generics(d, ScopeGenerics, sc, module)
	case KindFn:
		inner := b.generics(d, ScopeGenerics, sc, module)
		for _, child := range it.Items {
			b.item(child, inner, module, id, OwnerFree{})
		}
		for _, blk := range it.Blocks {
			b.block(blk, inner, module)
		}
	}
	return id
}

func (b *builder) block(blk *parser.Block, parent *Scope, module DeclID) {
	sc := newScope(ScopeBlock, parent, types.NoDef, module, blk.ID)
	b.g.scopes[blk.ID] = sc
	for _, it := range blk.Items {
		b.item(it, sc, module, module, OwnerFree{})
	}
	for _, nested := range blk.Blocks {
		b.block(nested, sc, module)
	}
}

// generics opens the scope of a generic item and declares its parameters.
func (b *builder) generics(d *Decl, kind ScopeKind, parent *Scope, module DeclID) *Scope {
	sc := newScope(kind, parent, d.ID, module, d.Item.ID)
	d.Scope = sc
	b.g.scopes[d.Item.ID] = sc
	if d.Item.Generics == nil {
		return sc
	}
	for i := range d.Item.Generics.Params {
		gp := &d.Item.Generics.Params[i]
		p := &Decl{
			Name:      gp.Name,
			Module:    module,
			Parent:    d.ID,
			Param:     gp,
			DeclScope: sc,
		}
		switch gp.Kind {
		case parser.ParamType:
			p.Kind = KindTypeParam
			p.Index = len(d.TypeParams)
		case parser.ParamLifetime:
			p.Kind = KindLifetimeParam
			p.Index = len(d.LifetimeParams)
		case parser.ParamConst:
			p.Kind = KindConstParam
			p.Index = len(d.ConstParams)
		}
		pid := b.add(p)
		switch p.Kind {
		case KindTypeParam:
			d.TypeParams = append(d.TypeParams, pid)
		case KindLifetimeParam:
			d.LifetimeParams = append(d.LifetimeParams, pid)
		case KindConstParam:
			d.ConstParams = append(d.ConstParams, pid)
		}
		sc.declare(gp.Name, pid)
	}
	return sc
}

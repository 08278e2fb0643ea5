package graph

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"pathres/internal/engine/parser"
	"pathres/internal/engine/types"
)

// CrateInfo describes one crate of a snapshot.
type CrateInfo struct {
	Name       string
	Edition    string
	Root       DeclID
	References []*parser.Path
}

// Snapshot is an immutable symbol table built from parsed crates. Any number
// of goroutines may read it concurrently.
type Snapshot struct {
	ID uuid.UUID

	decls      []*Decl
	crates     map[string]*CrateInfo
	crateNames []string
	scopes     map[parser.NodeID]*Scope
	byNode     map[parser.NodeID]DeclID
	impls      []DeclID
	primitives map[string]DeclID
	prelude    []DeclID
	macros     map[string]map[string][]DeclID
	byName     map[string][]DeclID
}

// Decl returns the declaration with the given id, or nil.
func (g *Snapshot) Decl(id DeclID) *Decl {
	if id <= types.NoDef || int(id) >= len(g.decls) {
		return nil
	}
	return g.decls[id]
}

// Len returns the number of declarations.
func (g *Snapshot) Len() int { return len(g.decls) - 1 }

// Crate returns the named crate.
func (g *Snapshot) Crate(name string) (*CrateInfo, bool) {
	c, ok := g.crates[name]
	return c, ok
}

// CrateNames returns crate names in sorted order.
func (g *Snapshot) CrateNames() []string {
	return append([]string(nil), g.crateNames...)
}

// ScopeOf returns the scope opened by the syntax node, used to map a
// reference's owner to its lexical environment.
func (g *Snapshot) ScopeOf(node parser.NodeID) *Scope {
	return g.scopes[node]
}

// DeclOf returns the declaration created for an item or generic parameter
// node.
func (g *Snapshot) DeclOf(node parser.NodeID) (DeclID, bool) {
	id, ok := g.byNode[node]
	return id, ok
}

// Impls returns every impl block in the snapshot.
func (g *Snapshot) Impls() []DeclID { return g.impls }

// Primitive returns the builtin primitive type of that name.
func (g *Snapshot) Primitive(name string) (DeclID, bool) {
	id, ok := g.primitives[name]
	return id, ok
}

// PreludeModules returns the modules whose public items are implicitly in
// scope everywhere.
func (g *Snapshot) PreludeModules() []DeclID { return g.prelude }

// Macros returns macro_rules definitions named name anywhere in the crate.
func (g *Snapshot) Macros(crate, name string) []DeclID {
	return g.macros[crate][name]
}

// FindByName returns all named declarations with that name, in id order.
func (g *Snapshot) FindByName(name string) []DeclID {
	return g.byName[name]
}

// ModuleScope returns the scope of a module declaration.
func (g *Snapshot) ModuleScope(mod DeclID) *Scope {
	d := g.Decl(mod)
	if d == nil || d.Kind != KindMod {
		return nil
	}
	return d.Scope
}

// ParentModule returns the parent of a module, or NoDef for crate roots.
func (g *Snapshot) ParentModule(mod DeclID) DeclID {
	d := g.Decl(mod)
	if d == nil {
		return types.NoDef
	}
	return d.Module
}

// CrateRoot returns the root module of the crate a declaration lives in.
func (g *Snapshot) CrateRoot(id DeclID) DeclID {
	d := g.Decl(id)
	if d == nil {
		return types.NoDef
	}
	if c, ok := g.crates[d.Crate]; ok {
		return c.Root
	}
	return types.NoDef
}

// ModulePath returns the names from the crate root (exclusive) down to mod
// (inclusive).
func (g *Snapshot) ModulePath(mod DeclID) []string {
	var out []string
	for cur := g.Decl(mod); cur != nil && cur.Module != types.NoDef; cur = g.Decl(cur.Module) {
		out = append(out, cur.Name)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// QualifiedName renders `crate::a::b::Item` for module-level declarations
// and `crate::a::Trait::item` for members.
func (g *Snapshot) QualifiedName(id DeclID) string {
	d := g.Decl(id)
	if d == nil {
		return ""
	}
	if d.Kind == KindPrimitive {
		return d.Name
	}
	var segs []string
	if d.Kind == KindMod {
		segs = append([]string{d.Crate}, g.ModulePath(id)...)
		return strings.Join(segs, "::")
	}
	segs = append([]string{d.Crate}, g.ModulePath(d.Module)...)
	if d.Parent != d.Module {
		if p := g.Decl(d.Parent); p != nil {
			name := p.Name
			if p.Kind == KindImpl && p.Item != nil && p.Item.SelfType != nil {
				name = "<" + p.Item.SelfType.String() + ">"
			}
			segs = append(segs, name)
		}
	}
	segs = append(segs, d.Name)
	return strings.Join(segs, "::")
}

// ModuleByPath finds a module of crate by its names below the root.
func (g *Snapshot) ModuleByPath(crate string, names ...string) (DeclID, bool) {
	c, ok := g.crates[crate]
	if !ok {
		return types.NoDef, false
	}
	cur := c.Root
	for _, name := range names {
		next := types.NoDef
		for _, id := range g.Decl(cur).Scope.Lookup(name) {
			if g.Decl(id).Kind == KindMod {
				next = id
				break
			}
		}
		if next == types.NoDef {
			return types.NoDef, false
		}
		cur = next
	}
	return cur, true
}

// Members returns the member declarations of a trait, impl or enum named
// name.
func (g *Snapshot) Members(container DeclID, name string) []DeclID {
	d := g.Decl(container)
	if d == nil {
		return nil
	}
	var out []DeclID
	for _, id := range d.Members {
		if g.decls[id].Name == name {
			out = append(out, id)
		}
	}
	return out
}

// References returns every reference of every crate, sorted by location.
func (g *Snapshot) References() []*parser.Path {
	var out []*parser.Path
	for _, name := range g.crateNames {
		out = append(out, g.crates[name].References...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Location, out[j].Location
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return out
}

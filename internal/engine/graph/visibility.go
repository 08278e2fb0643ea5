package graph

import (
	"pathres/internal/engine/parser"
	"pathres/internal/engine/types"
)

// IsAncestorModule reports whether anc is mod or one of its parents.
func (g *Snapshot) IsAncestorModule(anc, mod DeclID) bool {
	for cur := mod; cur != types.NoDef; cur = g.ParentModule(cur) {
		if cur == anc {
			return true
		}
	}
	return false
}

// VisibilityAllows reports whether an item with visibility vis, living in
// module home, may be named from module from.
func (g *Snapshot) VisibilityAllows(vis parser.Visibility, home, from DeclID) bool {
	switch vis.Kind {
	case parser.VisPublic:
		return true
	case parser.VisCrate:
		return g.CrateRoot(home) == g.CrateRoot(from)
	case parser.VisSuper:
		parent := g.ParentModule(home)
		if parent == types.NoDef {
			parent = home
		}
		return g.IsAncestorModule(parent, from)
	case parser.VisRestricted:
		target, ok := g.restrictedModule(vis.In, home)
		if !ok {
			return false
		}
		return g.IsAncestorModule(target, from)
	default:
		return g.IsAncestorModule(home, from)
	}
}

// restrictedModule resolves the module of `pub(in path)`. Only module
// segments, `crate`, `self` and `super` are meaningful there.
func (g *Snapshot) restrictedModule(p *parser.Path, home DeclID) (DeclID, bool) {
	if p == nil {
		return types.NoDef, false
	}
	cur := home
	for i, seg := range p.Segments() {
		switch {
		case seg.Name == "crate" && i == 0:
			cur = g.CrateRoot(home)
		case seg.Name == "self" && i == 0:
		case seg.Name == "super":
			cur = g.ParentModule(cur)
			if cur == types.NoDef {
				return types.NoDef, false
			}
		default:
			next := types.NoDef
			for _, id := range g.Decl(cur).Scope.Lookup(seg.Name) {
				if g.Decl(id).Kind == KindMod {
					next = id
				}
			}
			if next == types.NoDef {
				return types.NoDef, false
			}
			cur = next
		}
	}
	return cur, true
}

// effectiveVisibility is the visibility that governs access to d. Trait
// members and trait impl members follow their trait, variants their enum.
func (g *Snapshot) effectiveVisibility(d *Decl) parser.Visibility {
	switch o := d.Owner.(type) {
	case OwnerTrait:
		return g.Decl(o.Trait).Vis
	case OwnerImpl:
		if !o.Inherent {
			return parser.Visibility{Kind: parser.VisPublic}
		}
	}
	if d.Kind == KindVariant {
		return g.Decl(d.Parent).Vis
	}
	return d.Vis
}

// IsVisibleFrom reports whether the declaration itself may be named from
// module from, ignoring the modules that contain it.
func (g *Snapshot) IsVisibleFrom(id, from DeclID) bool {
	d := g.Decl(id)
	if d == nil {
		return false
	}
	switch d.Kind {
	case KindPrimitive:
		return true
	case KindTypeParam, KindLifetimeParam, KindConstParam:
		return g.IsAncestorModule(d.Module, from)
	}
	home := d.Module
	if home == types.NoDef {
		return true
	}
	return g.VisibilityAllows(g.effectiveVisibility(d), home, from)
}

// IsReachableFrom walks module boundaries from the defining module up to the
// first common ancestor with from and checks every module on the way.
func (g *Snapshot) IsReachableFrom(id, from DeclID) bool {
	if !g.IsVisibleFrom(id, from) {
		return false
	}
	return g.ModulesReachable(g.Decl(id).Module, from)
}

// ModulesReachable checks that every module from mod up to the common
// ancestor with from is visible from from.
func (g *Snapshot) ModulesReachable(mod, from DeclID) bool {
	for cur := mod; cur != types.NoDef && !g.IsAncestorModule(cur, from); cur = g.ParentModule(cur) {
		if !g.IsVisibleFrom(cur, from) {
			return false
		}
	}
	return true
}

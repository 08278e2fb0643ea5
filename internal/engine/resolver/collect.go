package resolver

import (
	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/engine/types"
)

// requiredNamespaces is the namespace a path must resolve in. Qualifiers
// always name types (modules, types, traits); `use` paths import every
// namespace at once.
func requiredNamespaces(path *parser.Path) graph.Namespaces {
	if path.Parent() != nil {
		return graph.NsTypes
	}
	switch path.Context {
	case parser.CtxExpr:
		return graph.NsValues
	case parser.CtxUse:
		return graph.NsAll
	case parser.CtxMacro:
		return graph.NsMacros
	default:
		return graph.NsTypes
	}
}

// Collect enumerates every declaration the path's name may denote, one
// entry per occupied namespace. No filtering by the required namespace
// happens here.
func (r *Resolver) Collect(path *parser.Path) []ScopeEntry {
	return r.collect(path, newWalk())
}

func (r *Resolver) collect(path *parser.Path, w *walk) []ScopeEntry {
	if path == nil || !w.enter() {
		return nil
	}
	defer w.leave()
	switch {
	case path.Qualifier != nil:
		return r.collectQualified(path, w)
	case path.QSelf != nil:
		return r.collectQSelf(path, w)
	}
	return r.collectUnqualified(path, w)
}

func (r *Resolver) scopeOf(path *parser.Path) *graph.Scope {
	return r.graph.ScopeOf(path.Owner)
}

func (r *Resolver) moduleOf(path *parser.Path) graph.DeclID {
	if sc := r.scopeOf(path); sc != nil {
		return sc.Module
	}
	return types.NoDef
}

// entriesFor splits one declaration into entries for each namespace in
// want it occupies.
func (r *Resolver) entriesFor(name string, id graph.DeclID, want graph.Namespaces, subst types.Substitution, via *graph.Import) []ScopeEntry {
	d := r.graph.Decl(id)
	if d == nil {
		return nil
	}
	var out []ScopeEntry
	(d.Namespaces() & want).Each(func(ns graph.Namespaces) {
		out = append(out, ScopeEntry{Name: name, Decl: id, Namespaces: ns, Subst: subst, Via: via})
	})
	return out
}

func occupied(entries []ScopeEntry) graph.Namespaces {
	var ns graph.Namespaces
	for _, e := range entries {
		ns |= e.Namespaces
	}
	return ns
}

func (r *Resolver) collectUnqualified(path *parser.Path, w *walk) []ScopeEntry {
	sc := r.scopeOf(path)
	name := path.Name

	// 1. Path keywords.
	switch name {
	case "crate":
		if sc == nil {
			return nil
		}
		return r.entriesFor(name, r.graph.CrateRoot(sc.Module), graph.NsTypes, types.Substitution{}, nil)
	case "self":
		if sc == nil || (path.Context == parser.CtxExpr && path.Parent() == nil) {
			return nil
		}
		return r.entriesFor(name, sc.Module, graph.NsTypes, types.Substitution{}, nil)
	case "super":
		if sc == nil {
			return nil
		}
		parent := r.graph.ParentModule(sc.Module)
		if parent == types.NoDef {
			return nil
		}
		return r.entriesFor(name, parent, graph.NsTypes, types.Substitution{}, nil)
	case "Self":
		if sc == nil {
			return nil
		}
		if self := sc.Self(); self != types.NoDef {
			return []ScopeEntry{{Name: name, Decl: self, Namespaces: graph.NsTypes}}
		}
		return nil
	}

	// 2. `::name` names an extern crate, or the crate root on 2015.
	if path.Global {
		if sc != nil && r.edition(sc.Module) == "2015" {
			return r.lookupScope(r.graph.ModuleScope(r.graph.CrateRoot(sc.Module)), name, graph.NsAll, w)
		}
		if c, ok := r.graph.Crate(name); ok {
			return r.entriesFor(name, c.Root, graph.NsTypes, types.Substitution{}, nil)
		}
		return nil
	}

	// 3. Lexical scopes, innermost first. A namespace found in one scope is
	// shadowed for every outer scope.
	var out []ScopeEntry
	missing := graph.NsAll
	for cur := sc; cur != nil && missing != 0; cur = cur.Parent {
		found := r.lookupScope(cur, name, missing, w)
		out = append(out, found...)
		missing &^= occupied(found)
	}

	// 4. Extern crates.
	if missing.Has(graph.NsTypes) {
		if c, ok := r.graph.Crate(name); ok {
			out = append(out, r.entriesFor(name, c.Root, graph.NsTypes, types.Substitution{}, nil)...)
			missing &^= graph.NsTypes
		}
	}

	// 5. Macros defined anywhere in the crate.
	if missing.Has(graph.NsMacros) && sc != nil {
		crate := r.graph.Decl(sc.Module).Crate
		for _, id := range r.graph.Macros(crate, name) {
			out = append(out, r.entriesFor(name, id, graph.NsMacros, types.Substitution{}, nil)...)
		}
		if len(r.graph.Macros(crate, name)) > 0 {
			missing &^= graph.NsMacros
		}
	}

	// 6. Prelude.
	if missing != 0 {
		for _, mod := range r.graph.PreludeModules() {
			found := r.lookupScope(r.graph.ModuleScope(mod), name, missing, w)
			out = append(out, found...)
			missing &^= occupied(found)
		}
	}

	// 7. Builtin primitives.
	if missing.Has(graph.NsTypes) {
		if id, ok := r.graph.Primitive(name); ok {
			out = append(out, r.entriesFor(name, id, graph.NsTypes, types.Substitution{}, nil)...)
		}
	}
	return out
}

func (r *Resolver) edition(mod graph.DeclID) string {
	d := r.graph.Decl(mod)
	if d == nil {
		return ""
	}
	if c, ok := r.graph.Crate(d.Crate); ok {
		return c.Edition
	}
	return ""
}

// lookupScope finds name among the declarations and imports written
// directly in sc. Declared items shadow named imports, and both shadow glob
// imports; several globs providing the same namespace are all returned.
func (r *Resolver) lookupScope(sc *graph.Scope, name string, want graph.Namespaces, w *walk) []ScopeEntry {
	if sc == nil || want == 0 {
		return nil
	}
	var out []ScopeEntry
	for _, id := range sc.Lookup(name) {
		out = append(out, r.entriesFor(name, id, want, types.Substitution{}, nil)...)
	}
	declared := occupied(out)

	var named []ScopeEntry
	for i := range sc.Imports {
		imp := &sc.Imports[i]
		if imp.Glob || imp.Name() != name {
			continue
		}
		named = append(named, r.importEntries(imp, name, want&^declared, w)...)
	}
	out = append(out, named...)

	rest := want &^ declared &^ occupied(named)
	if rest == 0 {
		return out
	}
	type declNs struct {
		decl graph.DeclID
		ns   graph.Namespaces
	}
	seen := make(map[declNs]bool)
	for i := range sc.Imports {
		imp := &sc.Imports[i]
		if !imp.Glob {
			continue
		}
		for _, e := range r.globEntries(imp, name, rest, w) {
			key := declNs{e.Decl, e.Namespaces}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, e)
		}
	}
	return out
}

// importEntries resolves a named import. The entries carry the imported
// name (which differs from the target's for `as` renames).
func (r *Resolver) importEntries(imp *graph.Import, name string, want graph.Namespaces, w *walk) []ScopeEntry {
	if want == 0 {
		return nil
	}
	key := importKey{imp: imp, name: name}
	if w.imports[key] {
		return nil
	}
	w.imports[key] = true
	defer delete(w.imports, key)

	var out []ScopeEntry
	for _, e := range r.collect(imp.Path, w) {
		if e.Namespaces&want == 0 {
			continue
		}
		out = append(out, ScopeEntry{Name: name, Decl: e.Decl, Namespaces: e.Namespaces, Subst: e.Subst, Via: imp})
	}
	return out
}

// globEntries looks name up inside the module or enum a glob import names.
// Only items the importing module can see come through.
func (r *Resolver) globEntries(imp *graph.Import, name string, want graph.Namespaces, w *walk) []ScopeEntry {
	key := importKey{imp: imp, name: name}
	if w.imports[key] {
		return nil
	}
	w.imports[key] = true
	defer delete(w.imports, key)

	importer := imp.Scope.Module
	var out []ScopeEntry
	for _, target := range r.collect(imp.Path, w) {
		if !target.Namespaces.Has(graph.NsTypes) {
			continue
		}
		d := r.graph.Decl(target.Decl)
		var found []ScopeEntry
		switch d.Kind {
		case graph.KindMod:
			found = r.lookupScope(d.Scope, name, want, w)
		case graph.KindEnum:
			for _, id := range r.graph.Members(d.ID, name) {
				found = append(found, r.entriesFor(name, id, want, types.Substitution{}, nil)...)
			}
		}
		for _, e := range found {
			if !r.entryVisible(e, importer) {
				continue
			}
			out = append(out, ScopeEntry{Name: name, Decl: e.Decl, Namespaces: e.Namespaces, Subst: e.Subst, Via: imp})
		}
	}
	return out
}

// entryVisible checks the last hop of an entry: the import it came
// through, or the declaration itself.
func (r *Resolver) entryVisible(e ScopeEntry, from graph.DeclID) bool {
	if e.Via != nil {
		return r.graph.VisibilityAllows(e.Via.Vis, e.Via.Scope.Module, from)
	}
	return r.graph.IsVisibleFrom(e.Decl, from)
}

// collectQualified resolves the qualifier in the types namespace and looks
// the name up inside each of its targets.
func (r *Resolver) collectQualified(path *parser.Path, w *walk) []ScopeEntry {
	return r.membersOf(r.resolveQualifier(path.Qualifier, w), path.Name, w)
}

// collectQSelf looks the name up in `<T as Trait>` with Self bound to T,
// or in the type itself for `<T>`.
func (r *Resolver) collectQSelf(path *parser.Path, w *walk) []ScopeEntry {
	q := path.QSelf
	if q.Trait == nil {
		if tp, ok := parser.SkipParens(q.Type).(parser.TypePath); ok {
			return r.membersOf(r.resolveQualifier(tp.Path, w), path.Name, w)
		}
		return r.typeMembers(r.lowerType(q.Type, r.scopeOf(path), w), types.Substitution{}, path.Name, w)
	}
	self := selfSubst(r.lowerType(q.Type, r.scopeOf(path), w))
	var out []ScopeEntry
	visited := make(map[graph.DeclID]bool)
	for _, trait := range r.resolveBoundTraits(q.Trait, w) {
		trait.Subst = trait.Subst.Then(self)
		out = append(out, r.traitMembers(trait, path.Name, visited, w)...)
	}
	return out
}

// membersOf looks name up inside each resolved qualifier.
func (r *Resolver) membersOf(quals []BoundElement, name string, w *walk) []ScopeEntry {
	var out []ScopeEntry
	for _, q := range quals {
		d := r.graph.Decl(q.Decl)
		var found []ScopeEntry
		switch {
		case name == "self":
			found = []ScopeEntry{{Name: name, Decl: q.Decl, Namespaces: graph.NsTypes, Subst: q.Subst}}
		case name == "super":
			if d.Kind == graph.KindMod {
				if parent := r.graph.ParentModule(d.ID); parent != types.NoDef {
					found = r.entriesFor(name, parent, graph.NsTypes, types.Substitution{}, nil)
				}
			}
		case d.Kind == graph.KindMod:
			found = r.lookupScope(d.Scope, name, graph.NsAll, w)
		case d.Kind == graph.KindEnum:
			for _, id := range r.graph.Members(d.ID, name) {
				found = append(found, r.entriesFor(name, id, graph.NsAll, q.Subst, nil)...)
			}
			if len(found) == 0 {
				found = r.typeMembers(r.boundTy(q, false, w), q.Subst, name, w)
			}
		case d.Kind == graph.KindTrait:
			found = r.traitMembers(q, name, make(map[graph.DeclID]bool), w)
		case d.Kind == graph.KindImpl:
			for _, id := range r.graph.Members(d.ID, name) {
				found = append(found, r.entriesFor(name, id, graph.NsAll, types.Substitution{}, nil)...)
			}
			if len(found) == 0 {
				found = r.typeMembers(r.implSelfTy(d.ID, w), types.Substitution{}, name, w)
			}
		case d.Kind == graph.KindTypeParam:
			found = r.paramMembers(d, name, w)
		default:
			found = r.typeMembers(r.boundTy(q, false, w), q.Subst, name, w)
		}
		out = append(out, found...)
	}
	return out
}

// resolveQualifier instantiates each type-namespace candidate of a
// qualifier so its arguments flow into the member lookup.
func (r *Resolver) resolveQualifier(q *parser.Path, w *walk) []BoundElement {
	var out []BoundElement
	seen := make(map[graph.DeclID]bool)
	for _, e := range r.collect(q, w) {
		if !e.Namespaces.Has(graph.NsTypes) || seen[e.Decl] {
			continue
		}
		seen[e.Decl] = true
		out = append(out, r.instantiate(BoundElement{Decl: e.Decl, Subst: e.Subst}, q, w))
	}
	return out
}

// traitMembers finds name among a trait's items and, failing that, among
// its supertraits.
func (r *Resolver) traitMembers(trait BoundElement, name string, visited map[graph.DeclID]bool, w *walk) []ScopeEntry {
	if visited[trait.Decl] {
		return nil
	}
	visited[trait.Decl] = true
	var out []ScopeEntry
	for _, id := range r.graph.Members(trait.Decl, name) {
		out = append(out, r.entriesFor(name, id, graph.NsAll, trait.Subst, nil)...)
	}
	if len(out) > 0 {
		return out
	}
	d := r.graph.Decl(trait.Decl)
	if d.Item == nil {
		return nil
	}
	for _, sp := range d.Item.Supertraits {
		for _, st := range r.resolveBoundTraits(sp, w) {
			out = append(out, r.traitMembers(st.Substitute(trait.Subst), name, visited, w)...)
		}
	}
	return out
}

// resolveBoundTraits resolves a bound path to the traits it names.
func (r *Resolver) resolveBoundTraits(p *parser.Path, w *walk) []BoundElement {
	var out []BoundElement
	for _, res := range r.resolveWith(p, w) {
		if d := r.graph.Decl(res.Decl); d != nil && d.Kind == graph.KindTrait {
			out = append(out, res.BoundElement)
		}
	}
	return out
}

// paramMembers looks name up in the traits bounding a type parameter,
// both inline (`T: Trait`) and in where clauses of the declaring item.
func (r *Resolver) paramMembers(param *graph.Decl, name string, w *walk) []ScopeEntry {
	var bounds []*parser.Path
	if param.Param != nil {
		bounds = append(bounds, param.Param.Bounds...)
	}
	if owner := r.graph.Decl(param.Parent); owner != nil && owner.Item != nil && owner.Item.Generics != nil {
		for _, pred := range owner.Item.Generics.Where {
			if tp, ok := parser.SkipParens(pred.Subject).(parser.TypePath); ok && tp.Path.Qualifier == nil && tp.Path.Name == param.Name {
				bounds = append(bounds, pred.Bounds...)
			}
		}
	}
	self := selfSubst(types.TyParam{Param: param.ID, Name: param.Name})
	var out []ScopeEntry
	visited := make(map[graph.DeclID]bool)
	for _, b := range bounds {
		for _, trait := range r.resolveBoundTraits(b, w) {
			trait.Subst = trait.Subst.Then(self)
			out = append(out, r.traitMembers(trait, name, visited, w)...)
		}
	}
	return out
}

// selfSubst binds the implicit `Self` parameter of traits.
func selfSubst(self types.Ty) types.Substitution {
	return types.NewSubstitution(map[types.DefID]types.TypeArg{types.SelfParam: types.Concrete(self)}, nil, nil)
}

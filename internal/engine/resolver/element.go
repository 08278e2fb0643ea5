package resolver

import (
	"pathres/internal/engine/graph"
	"pathres/internal/engine/types"
)

// ScopeEntry is a raw candidate found by the collector.
type ScopeEntry struct {
	Name       string
	Decl       graph.DeclID
	Namespaces graph.Namespaces
	// Subst carries what the path prefix already fixed, e.g. the impl
	// parameters of `Foo::<u8>::bar`.
	Subst types.Substitution
	// Via is the import the entry was reached through, if any.
	Via *graph.Import
}

// BoundElement is a declaration together with the instantiation computed
// for one use site.
type BoundElement struct {
	Decl  graph.DeclID
	Subst types.Substitution
	// Assoc maps associated type declarations to their bound types.
	Assoc map[graph.DeclID]types.Ty
}

// Valid reports whether b names a declaration.
func (b BoundElement) Valid() bool {
	return b.Decl != types.NoDef
}

// Substitute rewrites the values of b's substitution and associated types
// with s.
func (b BoundElement) Substitute(s types.Substitution) BoundElement {
	if s.IsEmpty() {
		return b
	}
	out := BoundElement{Decl: b.Decl, Subst: b.Subst.MapValues(s.Folder())}
	if len(b.Assoc) > 0 {
		out.Assoc = make(map[graph.DeclID]types.Ty, len(b.Assoc))
		for k, v := range b.Assoc {
			out.Assoc[k] = s.ApplyTy(v)
		}
	}
	return out
}

// freshen gives b private inference placeholders.
func (b BoundElement) freshen() BoundElement {
	fr := types.NewFreshener()
	out := BoundElement{Decl: b.Decl, Subst: b.Subst.Freshen(fr)}
	if len(b.Assoc) > 0 {
		out.Assoc = make(map[graph.DeclID]types.Ty, len(b.Assoc))
		f := fr.Folder()
		for k, v := range b.Assoc {
			out.Assoc[k] = f.FoldTy(v)
		}
	}
	return out
}

// Resolved is a bound candidate tagged with whether it is reachable
// through a public path from the reference.
type Resolved struct {
	BoundElement
	IsPublic bool
}

func freshenAll(rs []Resolved) []Resolved {
	if len(rs) == 0 {
		return rs
	}
	out := make([]Resolved, len(rs))
	for i, r := range rs {
		out[i] = Resolved{BoundElement: r.BoundElement.freshen(), IsPublic: r.IsPublic}
	}
	return out
}

// maxDepth bounds nested resolution (qualifiers of qualifiers, type
// arguments of type arguments) independent of the visited sets.
const maxDepth = 64

type importKey struct {
	imp  *graph.Import
	name string
}

// walk is the state threaded through one top-level query. Lookups that
// would re-enter a glob import or an alias already on the stack stop there.
type walk struct {
	depth    int
	imports  map[importKey]bool
	visiting map[graph.DeclID]bool
}

func newWalk() *walk {
	return &walk{
		imports:  make(map[importKey]bool),
		visiting: make(map[graph.DeclID]bool),
	}
}

func (w *walk) enter() bool {
	if w.depth >= maxDepth {
		return false
	}
	w.depth++
	return true
}

func (w *walk) leave() { w.depth-- }

package graph

import (
	"pathres/internal/engine/parser"
	"pathres/internal/engine/types"
)

// ScopeKind classifies lexical scopes.
type ScopeKind uint8

const (
	ScopeModule ScopeKind = iota + 1
	// ScopeGenerics holds the generic parameters of an item.
	ScopeGenerics
	// ScopeImpl and ScopeTrait additionally bind `Self`.
	ScopeImpl
	ScopeTrait
	ScopeBlock
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeGenerics:
		return "generics"
	case ScopeImpl:
		return "impl"
	case ScopeTrait:
		return "trait"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Import is a single `use` binding.
type Import struct {
	Path  *parser.Path
	Alias string
	Glob  bool
	Vis   parser.Visibility
	// Scope is where the import is written; its path resolves from there.
	Scope *Scope
}

// Name is the name the import binds. Empty for globs and `_` aliases.
func (i Import) Name() string {
	if i.Glob || i.Alias == "_" {
		return ""
	}
	if i.Alias != "" {
		return i.Alias
	}
	if i.Path.Name == "self" && i.Path.Qualifier != nil {
		return i.Path.Qualifier.Name
	}
	return i.Path.Name
}

// Scope is a lexical scope. Scopes form a tree through Parent; module scopes
// have no parent because names of an outer module are not visible inside.
type Scope struct {
	Kind   ScopeKind
	Parent *Scope
	// Decl is the module, item or impl that opens the scope; NoDef for blocks.
	Decl DeclID
	// Module is the enclosing module, Decl itself for module scopes.
	Module  DeclID
	Node    parser.NodeID
	names   map[string][]DeclID
	Imports []Import
}

func newScope(kind ScopeKind, parent *Scope, decl, module DeclID, node parser.NodeID) *Scope {
	return &Scope{
		Kind:   kind,
		Parent: parent,
		Decl:   decl,
		Module: module,
		Node:   node,
		names:  make(map[string][]DeclID),
	}
}

// Lookup returns the declarations written directly in this scope under name.
func (s *Scope) Lookup(name string) []DeclID {
	return s.names[name]
}

// Names returns the names declared directly in the scope.
func (s *Scope) Names() []string {
	out := make([]string, 0, len(s.names))
	for name := range s.names {
		out = append(out, name)
	}
	return out
}

func (s *Scope) declare(name string, id DeclID) {
	if name == "" || name == "_" {
		return
	}
	s.names[name] = append(s.names[name], id)
}

// Self returns the impl or trait declaration binding `Self` for this scope
// chain, or NoDef.
func (s *Scope) Self() DeclID {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == ScopeImpl || cur.Kind == ScopeTrait {
			return cur.Decl
		}
	}
	return types.NoDef
}

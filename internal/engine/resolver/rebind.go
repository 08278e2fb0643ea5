package resolver

import (
	"strings"

	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/engine/types"
)

// Rebind computes replacement text for path so that it denotes target. A
// target in the module the reference already points into only renames the
// last segment. Otherwise the target's path relative to the reference's
// module is shortened with the longest prefix of the original reference
// that resolves to a module containing the target, so a reference written
// through a re-export keeps using it. The boolean is false when target does
// not exist.
func (r *Resolver) Rebind(path *parser.Path, target graph.DeclID) (string, bool) {
	td := r.graph.Decl(target)
	if td == nil || td.Kind == graph.KindPrimitive {
		return "", false
	}
	from := r.moduleOf(path)

	if td.Kind != graph.KindMod {
		if cur, ok := r.ResolveDecl(path); ok && cur != target {
			if cd := r.graph.Decl(cur); cd.Module == td.Module && cd.Parent == td.Parent {
				return renameLast(path, td.Name), true
			}
		}
	}

	full := r.relativePath(target, from)
	targetMod := td.Module
	if td.Kind == graph.KindMod {
		targetMod = td.ID
	}
	for prefix := path; prefix != nil; prefix = prefix.Qualifier {
		mod, ok := r.ResolveDecl(prefix)
		if !ok || r.graph.Decl(mod).Kind != graph.KindMod || !r.graph.IsAncestorModule(mod, targetMod) {
			continue
		}
		modPath := r.relativePath(mod, from)
		if replaced, ok := replacePrefix(full, modPath, prefix.Text()); ok {
			return replaced, true
		}
		break
	}
	return full, true
}

// relativePath renders the path of id as written from module from:
// relative for items below from, `crate::` for other items of the same
// crate and the crate name for other crates.
func (r *Resolver) relativePath(id graph.DeclID, from graph.DeclID) string {
	d := r.graph.Decl(id)
	var segs []string
	mod := d.Module
	if d.Kind == graph.KindMod {
		mod = id
	}
	modPath := r.graph.ModulePath(mod)
	fromDecl := r.graph.Decl(from)
	switch {
	case fromDecl != nil && fromDecl.Crate == d.Crate && r.graph.IsAncestorModule(from, mod):
		segs = append(segs, modPath[len(r.graph.ModulePath(from)):]...)
	case fromDecl != nil && fromDecl.Crate == d.Crate:
		segs = append(segs, "crate")
		segs = append(segs, modPath...)
	default:
		segs = append(segs, d.Crate)
		segs = append(segs, modPath...)
	}
	if d.Kind != graph.KindMod {
		if d.Parent != d.Module && d.Parent != types.NoDef {
			if p := r.graph.Decl(d.Parent); p.Kind == graph.KindEnum || p.Kind == graph.KindTrait {
				segs = append(segs, p.Name)
			}
		}
		segs = append(segs, d.Name)
	}
	if len(segs) == 0 {
		return "self"
	}
	return strings.Join(segs, "::")
}

// replacePrefix swaps a leading module path for the text that already
// denotes it, on segment boundaries only.
func replacePrefix(full, modPath, short string) (string, bool) {
	if full == modPath {
		return short, true
	}
	if modPath == "self" {
		return short + "::" + full, true
	}
	if strings.HasPrefix(full, modPath+"::") {
		return short + full[len(modPath):], true
	}
	return "", false
}

// renameLast rewrites only the final segment name of path.
func renameLast(path *parser.Path, name string) string {
	renamed := *path
	renamed.Name = name
	return renamed.Text()
}

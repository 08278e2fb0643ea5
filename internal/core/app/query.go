package app

import (
	"fmt"
	"sort"
	"strings"

	"pathres/internal/core/errors"
	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/engine/resolver"
	"pathres/internal/engine/types"
)

// ReferenceAt returns the outermost reference whose location is file,
// line and column.
func ReferenceAt(snap *graph.Snapshot, file string, line, column int) (*parser.Path, error) {
	for _, ref := range snap.References() {
		loc := ref.Location
		if loc.File == file && loc.Line == line && loc.Column == column {
			return ref.Root(), nil
		}
	}
	err := errors.New(errors.CodeNotFound, "no reference at location")
	return nil, errors.AddContext(err, errors.CtxLocation, fmt.Sprintf("%s:%d:%d", file, line, column))
}

// ParseReference parses text as a reference written at the top level of
// the module named by modulePath, such as "my_crate::shapes".
func ParseReference(snap *graph.Snapshot, text, modulePath string, ctx parser.PathContext) (*parser.Path, error) {
	mod, err := ModuleNamed(snap, modulePath)
	if err != nil {
		return nil, err
	}
	path, err := parser.ParsePath(text, ctx, snap.Decl(mod).Item.ID)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeMalformedArguments, "parse reference"), errors.CtxPath, text)
	}
	return path, nil
}

// ModuleNamed finds a module by its `::` separated path, starting with the
// crate name.
func ModuleNamed(snap *graph.Snapshot, modulePath string) (graph.DeclID, error) {
	parts := strings.Split(strings.TrimSpace(modulePath), "::")
	mod, ok := snap.ModuleByPath(parts[0], parts[1:]...)
	if !ok {
		err := errors.New(errors.CodeNotFound, "module not found")
		return types.NoDef, errors.AddContext(err, errors.CtxModule, modulePath)
	}
	return mod, nil
}

// DeclByQualifiedName finds the declarations printed as name, e.g.
// "std::vec::Vec".
func DeclByQualifiedName(snap *graph.Snapshot, name string) []graph.DeclID {
	short := name
	if i := strings.LastIndex(name, "::"); i >= 0 {
		short = name[i+2:]
	}
	var out []graph.DeclID
	for _, id := range snap.FindByName(short) {
		if snap.QualifiedName(id) == name {
			out = append(out, id)
		}
	}
	return out
}

// Describe renders a bound element with its parameters named, for example
// `std::vec::Vec [T = i32]`.
func Describe(snap *graph.Snapshot, b resolver.BoundElement) string {
	var sb strings.Builder
	sb.WriteString(snap.QualifiedName(b.Decl))
	var parts []string
	for _, p := range b.Subst.RegionParams() {
		r, _ := b.Subst.Region(p)
		if r != nil {
			parts = append(parts, paramName(snap, p)+" = "+r.String())
		}
	}
	for _, p := range b.Subst.TypeParams() {
		arg, _ := b.Subst.Type(p)
		if arg.Ty != nil {
			parts = append(parts, paramName(snap, p)+" = "+arg.Ty.String())
		}
	}
	for _, p := range b.Subst.ConstParams() {
		arg, _ := b.Subst.Const(p)
		if arg.Const != nil {
			parts = append(parts, paramName(snap, p)+" = "+arg.Const.String())
		}
	}
	assoc := make([]graph.DeclID, 0, len(b.Assoc))
	for id := range b.Assoc {
		assoc = append(assoc, id)
	}
	sort.Slice(assoc, func(i, j int) bool { return assoc[i] < assoc[j] })
	for _, id := range assoc {
		if ty := b.Assoc[id]; ty != nil {
			parts = append(parts, paramName(snap, id)+" = "+ty.String())
		}
	}
	if len(parts) > 0 {
		sb.WriteString(" [" + strings.Join(parts, ", ") + "]")
	}
	return sb.String()
}

func paramName(snap *graph.Snapshot, id graph.DeclID) string {
	if id == types.SelfParam {
		return "Self"
	}
	if d := snap.Decl(id); d != nil {
		return d.Name
	}
	return fmt.Sprintf("#%d", id)
}

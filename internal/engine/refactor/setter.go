// Package refactor renders source edits from resolved declarations.
package refactor

import (
	"fmt"
	"strings"

	"pathres/internal/core/errors"
	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/engine/resolver"
	"pathres/internal/engine/types"
)

// Setter is one generated method.
type Setter struct {
	Field  string
	Method string
	Type   types.Ty
	Text   string
}

// GenerateSetters renders a `set_<field>` method for each named field of a
// struct with named fields. Field types are lowered in the struct's scope and
// substituted with subst; a field without a type takes unit. Generation is
// an edit and must run inside a write action of tracker.
func GenerateSetters(tracker *graph.Tracker, r *resolver.Resolver, structID graph.DeclID, subst types.Substitution, fields []string) ([]Setter, error) {
	if tracker == nil || !tracker.InWrite() {
		return nil, errors.New(errors.CodeWriteAccess, "setter generation requires a write action")
	}
	d := r.Snapshot().Decl(structID)
	if d == nil || d.Kind != graph.KindStruct || d.Item == nil {
		return nil, errors.New(errors.CodeValidationError, "setters can only be generated for structs")
	}
	if d.Item.Shape != parser.ShapeNamed {
		err := errors.New(errors.CodeNotSupported, "setters need named fields")
		return nil, errors.AddContext(err, errors.CtxSymbol, d.Name)
	}

	byName := make(map[string]parser.Field, len(d.Item.Fields))
	for _, f := range d.Item.Fields {
		byName[f.Name] = f
	}
	out := make([]Setter, 0, len(fields))
	for _, name := range fields {
		f, ok := byName[name]
		if !ok {
			err := errors.New(errors.CodeNotFound, fmt.Sprintf("struct %s has no field %s", d.Name, name))
			return nil, errors.AddContext(err, errors.CtxSymbol, name)
		}
		var ty types.Ty = types.TyTuple{}
		if f.Type != nil {
			ty = subst.ApplyTy(r.LowerType(f.Type, d.Scope))
		}
		method := "set_" + f.Name
		out = append(out, Setter{
			Field:  f.Name,
			Method: method,
			Type:   ty,
			Text: fmt.Sprintf("pub fn %s(&mut self, %s: %s) {\n    self.%s = %s;\n}",
				method, f.Name, Render(ty), f.Name, f.Name),
		})
	}
	return out, nil
}

// ImplBlock wraps setters in an inherent impl of the struct carrying the
// struct's own generic parameters.
func ImplBlock(d *graph.Decl, setters []Setter) string {
	var params, args []string
	if d.Item != nil && d.Item.Generics != nil {
		for _, p := range d.Item.Generics.Params {
			args = append(args, p.Name)
			switch {
			case p.Kind == parser.ParamConst && p.ConstType != nil:
				params = append(params, "const "+p.Name+": "+p.ConstType.String())
			default:
				params = append(params, p.Name)
			}
		}
	}
	var b strings.Builder
	b.WriteString("impl")
	if len(params) > 0 {
		b.WriteString("<" + strings.Join(params, ", ") + ">")
	}
	b.WriteString(" " + d.Name)
	if len(args) > 0 {
		b.WriteString("<" + strings.Join(args, ", ") + ">")
	}
	b.WriteString(" {\n")
	for i, s := range setters {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, line := range strings.Split(s.Text, "\n") {
			b.WriteString("    " + line + "\n")
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// Render prints a type so that it can be inserted into source: unknown and
// inference types become `_`.
func Render(t types.Ty) string {
	switch t := t.(type) {
	case nil, types.TyUnknown, types.TyInfer:
		return "_"
	case types.TyNever:
		return "!"
	case types.TyPrimitive:
		return t.Name
	case types.TyParam:
		return t.Name
	case types.TyAdt:
		return t.Name + renderArgs(t.Args)
	case types.TyTraitObject:
		return "dyn " + t.Name + renderArgs(t.Args)
	case types.TyTuple:
		switch len(t.Elems) {
		case 0:
			return "()"
		case 1:
			return "(" + Render(t.Elems[0]) + ",)"
		}
		return "(" + joinRendered(t.Elems) + ")"
	case types.TyRef:
		var b strings.Builder
		b.WriteByte('&')
		switch r := t.Region.(type) {
		case types.ReEarlyBound, types.ReStatic:
			b.WriteString(r.String() + " ")
		}
		if t.Mut {
			b.WriteString("mut ")
		}
		b.WriteString(Render(t.Inner))
		return b.String()
	case types.TySlice:
		return "[" + Render(t.Elem) + "]"
	case types.TyArray:
		return "[" + Render(t.Elem) + "; " + renderConst(t.Len) + "]"
	case types.TyPtr:
		if t.Mut {
			return "*mut " + Render(t.Inner)
		}
		return "*const " + Render(t.Inner)
	case types.TyFnPtr:
		s := "fn(" + joinRendered(t.Inputs) + ")"
		if !types.IsUnit(t.Output) {
			s += " -> " + Render(t.Output)
		}
		return s
	default:
		return t.String()
	}
}

func renderArgs(args []types.Ty) string {
	if len(args) == 0 {
		return ""
	}
	return "<" + joinRendered(args) + ">"
}

func joinRendered(ts []types.Ty) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = Render(t)
	}
	return strings.Join(parts, ", ")
}

func renderConst(c types.Const) string {
	switch c := c.(type) {
	case types.CtInt, types.CtBool, types.CtParam:
		return c.String()
	default:
		return "_"
	}
}

package parser

import (
	"strconv"
	"strings"
)

// Text renders the path the way it would be written at its use site.
func (p *Path) Text() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	p.writeText(&b)
	return b.String()
}

func (p *Path) String() string { return p.Text() }

func (p *Path) writeText(b *strings.Builder) {
	switch {
	case p.Qualifier != nil:
		p.Qualifier.writeText(b)
		b.WriteString("::")
	case p.QSelf != nil:
		b.WriteByte('<')
		b.WriteString(p.QSelf.Type.String())
		if p.QSelf.Trait != nil {
			b.WriteString(" as ")
			b.WriteString(p.QSelf.Trait.Text())
		}
		b.WriteString(">::")
	case p.Global:
		b.WriteString("::")
	}
	b.WriteString(p.Name)
	if p.TypeArgs != nil {
		if p.Context == CtxExpr {
			b.WriteString("::")
		}
		b.WriteString(p.TypeArgs.String())
	}
	if p.FnSugar != nil {
		b.WriteByte('(')
		b.WriteString(joinTypes(p.FnSugar.Inputs))
		b.WriteByte(')')
		if p.RetType != nil {
			b.WriteString(" -> ")
			b.WriteString(p.RetType.String())
		}
	}
}

func (l *TypeArgList) String() string {
	parts := make([]string, 0, len(l.Lifetimes)+len(l.Types)+len(l.Consts)+len(l.Bindings))
	parts = append(parts, l.Lifetimes...)
	for _, t := range l.Types {
		parts = append(parts, t.String())
	}
	for _, c := range l.Consts {
		parts = append(parts, c.String())
	}
	for _, bnd := range l.Bindings {
		parts = append(parts, bnd.Name+" = "+bnd.Type.String())
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func joinTypes(ts []TypeRef) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		if t == nil {
			parts[i] = "_"
			continue
		}
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func (t TypePath) String() string { return t.Path.Text() }
func (TypeNever) String() string  { return "!" }
func (TypeInfer) String() string  { return "_" }
func (t TypeParen) String() string {
	return "(" + t.Inner.String() + ")"
}
func (t TypeSlice) String() string { return "[" + t.Elem.String() + "]" }
func (t TypeArray) String() string {
	return "[" + t.Elem.String() + "; " + t.Len.String() + "]"
}

func (t TypeTuple) String() string {
	if len(t.Elems) == 1 {
		return "(" + t.Elems[0].String() + ",)"
	}
	return "(" + joinTypes(t.Elems) + ")"
}

func (t TypeReference) String() string {
	var b strings.Builder
	b.WriteByte('&')
	if t.Lifetime != "" {
		b.WriteString(t.Lifetime)
		b.WriteByte(' ')
	}
	if t.Mut {
		b.WriteString("mut ")
	}
	b.WriteString(t.Inner.String())
	return b.String()
}

func (t TypeDyn) String() string {
	kw := "dyn "
	if t.Impl {
		kw = "impl "
	}
	parts := make([]string, 0, len(t.Bounds)+len(t.Lifetimes))
	for _, bnd := range t.Bounds {
		parts = append(parts, bnd.Text())
	}
	parts = append(parts, t.Lifetimes...)
	return kw + strings.Join(parts, " + ")
}

func (t TypePointer) String() string {
	if t.Mut {
		return "*mut " + t.Inner.String()
	}
	return "*const " + t.Inner.String()
}

func (t TypeFnPtr) String() string {
	var b strings.Builder
	if len(t.Lifetimes) > 0 {
		b.WriteString("for<" + strings.Join(t.Lifetimes, ", ") + "> ")
	}
	b.WriteString("fn(" + joinTypes(t.Inputs) + ")")
	if t.Output != nil {
		b.WriteString(" -> " + t.Output.String())
	}
	return b.String()
}

func (c LitInt) String() string  { return strconv.FormatInt(c.Value, 10) + c.Suffix }
func (c LitBool) String() string { return strconv.FormatBool(c.Value) }
func (c ConstPath) String() string {
	return c.Path.Text()
}
func (c ConstUnary) String() string  { return c.Op + c.Operand.String() }
func (c ConstBinary) String() string { return c.Left.String() + " " + c.Op + " " + c.Right.String() }
func (c ConstBlock) String() string  { return "{ " + c.Expr.String() + " }" }

package app

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"pathres/internal/engine/parser"
)

// structureDigest hashes the declarations of a file: everything a
// resolution can depend on except function bodies and source positions.
// Items declared inside bodies count, since they open names.
func structureDigest(items []*parser.Item) uint64 {
	d := xxhash.New()
	w := digestWriter{d: d}
	for _, it := range items {
		w.item(it)
	}
	return d.Sum64()
}

type digestWriter struct {
	d *xxhash.Digest
}

func (w digestWriter) str(parts ...string) {
	for _, s := range parts {
		_, _ = w.d.WriteString(s)
		_, _ = w.d.Write([]byte{0})
	}
}

func (w digestWriter) ty(t parser.TypeRef) {
	if t == nil {
		w.str("-")
		return
	}
	w.str(t.String())
}

func (w digestWriter) paths(ps []*parser.Path) {
	w.str(strconv.Itoa(len(ps)))
	for _, p := range ps {
		w.str(p.Text())
	}
}

func (w digestWriter) vis(v parser.Visibility) {
	w.str(strconv.Itoa(int(v.Kind)), v.In.Text())
}

func (w digestWriter) item(it *parser.Item) {
	w.str("{", it.Kind.String(), it.Name, strconv.FormatBool(it.Foreign), strconv.FormatBool(it.External))
	w.vis(it.Vis)
	if g := it.Generics; g != nil {
		for _, p := range g.Params {
			w.str(strconv.Itoa(int(p.Kind)), p.Name)
			w.ty(p.Default)
			w.ty(p.ConstType)
			if p.ConstDefault != nil {
				w.str(p.ConstDefault.String())
			}
			w.paths(p.Bounds)
		}
		for _, pred := range g.Where {
			w.ty(pred.Subject)
			w.paths(pred.Bounds)
		}
	}
	w.str(strconv.Itoa(int(it.Shape)))
	for _, f := range it.Fields {
		w.str(f.Name)
		w.vis(f.Vis)
		w.ty(f.Type)
	}
	w.ty(it.AliasType)
	w.paths(it.AliasBounds)
	w.ty(it.ConstType)
	if it.ConstValue != nil {
		w.str(it.ConstValue.String())
	}
	w.ty(it.SelfType)
	if it.Trait != nil {
		w.str(it.Trait.Text(), strconv.FormatBool(it.Negative))
	}
	w.paths(it.Supertraits)
	for _, u := range it.Uses {
		w.str(u.Path.Text(), u.Alias, strconv.FormatBool(u.Glob))
	}
	for _, in := range it.Inputs {
		w.ty(in)
	}
	w.ty(it.Output)
	for _, child := range it.Items {
		w.item(child)
	}
	for _, b := range it.Blocks {
		w.block(b)
	}
	w.str("}")
}

func (w digestWriter) block(b *parser.Block) {
	w.str("[")
	for _, it := range b.Items {
		w.item(it)
	}
	for _, nested := range b.Blocks {
		w.block(nested)
	}
	w.str("]")
}

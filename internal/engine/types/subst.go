package types

import (
	"sort"
	"strings"
)

// Origin records how a substitution value was chosen at the use site.
type Origin uint8

const (
	// OriginExplicit: written by the user (`Vec<u8>`).
	OriginExplicit Origin = iota
	// OriginDefault: taken from the parameter's declared default.
	OriginDefault
	// OriginUnknown: nothing was written and no default exists.
	OriginUnknown
	// OriginInferred: an inference placeholder awaiting a later pass.
	OriginInferred
)

func (o Origin) String() string {
	switch o {
	case OriginExplicit:
		return "explicit"
	case OriginDefault:
		return "default"
	case OriginUnknown:
		return "unknown"
	case OriginInferred:
		return "inferred"
	default:
		return "invalid"
	}
}

// TypeArg is the value a type parameter maps to.
type TypeArg struct {
	Origin Origin
	Ty     Ty
}

func Concrete(t Ty) TypeArg  { return TypeArg{Origin: OriginExplicit, Ty: t} }
func Defaulted(t Ty) TypeArg { return TypeArg{Origin: OriginDefault, Ty: t} }
func UnknownArg() TypeArg    { return TypeArg{Origin: OriginUnknown, Ty: TyUnknown{}} }

func InferredArg(v InferVar) TypeArg {
	return TypeArg{Origin: OriginInferred, Ty: TyInfer{Var: v}}
}

// ConstArg is the value a const parameter maps to.
type ConstArg struct {
	Origin Origin
	Const  Const
}

// Substitution maps a declaration's generic parameters (type, lifetime and
// const) to values. It is immutable; every operation returns a new value.
type Substitution struct {
	types   map[DefID]TypeArg
	regions map[DefID]Region
	consts  map[DefID]ConstArg
}

// EmptySubst maps nothing.
var EmptySubst = Substitution{}

func NewSubstitution(ts map[DefID]TypeArg, rs map[DefID]Region, cs map[DefID]ConstArg) Substitution {
	s := Substitution{}
	if len(ts) > 0 {
		s.types = make(map[DefID]TypeArg, len(ts))
		for k, v := range ts {
			s.types[k] = v
		}
	}
	if len(rs) > 0 {
		s.regions = make(map[DefID]Region, len(rs))
		for k, v := range rs {
			s.regions[k] = v
		}
	}
	if len(cs) > 0 {
		s.consts = make(map[DefID]ConstArg, len(cs))
		for k, v := range cs {
			s.consts[k] = v
		}
	}
	return s
}

func (s Substitution) Type(p DefID) (TypeArg, bool) {
	v, ok := s.types[p]
	return v, ok
}

func (s Substitution) Region(p DefID) (Region, bool) {
	v, ok := s.regions[p]
	return v, ok
}

func (s Substitution) Const(p DefID) (ConstArg, bool) {
	v, ok := s.consts[p]
	return v, ok
}

func (s Substitution) IsEmpty() bool {
	return len(s.types) == 0 && len(s.regions) == 0 && len(s.consts) == 0
}

func (s Substitution) Len() int {
	return len(s.types) + len(s.regions) + len(s.consts)
}

func (s Substitution) TypeParams() []DefID   { return sortedKeys(s.types) }
func (s Substitution) RegionParams() []DefID { return sortedKeys(s.regions) }
func (s Substitution) ConstParams() []DefID  { return sortedKeys(s.consts) }

func sortedKeys[V any](m map[DefID]V) []DefID {
	keys := make([]DefID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Folder substitutes parameters of s inside any type, region or constant.
func (s Substitution) Folder() Folder {
	return Folder{
		Ty: func(t Ty) (Ty, bool) {
			if p, ok := t.(TyParam); ok {
				if v, ok := s.types[p.Param]; ok {
					return v.Ty, true
				}
			}
			return nil, false
		},
		Region: func(r Region) (Region, bool) {
			if p, ok := r.(ReEarlyBound); ok {
				if v, ok := s.regions[p.Param]; ok {
					return v, true
				}
			}
			return nil, false
		},
		Const: func(c Const) (Const, bool) {
			if p, ok := c.(CtParam); ok {
				if v, ok := s.consts[p.Param]; ok {
					return v.Const, true
				}
			}
			return nil, false
		},
	}
}

func (s Substitution) ApplyTy(t Ty) Ty {
	if s.IsEmpty() {
		return t
	}
	return s.Folder().FoldTy(t)
}

func (s Substitution) ApplyRegion(r Region) Region {
	if s.IsEmpty() {
		return r
	}
	return s.Folder().FoldRegion(r)
}

func (s Substitution) ApplyConst(c Const) Const {
	if s.IsEmpty() {
		return c
	}
	return s.Folder().FoldConst(c)
}

// Then composes s with next: the result behaves like applying s and then
// next. Values of s are rewritten by next; parameters only next knows about
// are carried over unchanged.
func (s Substitution) Then(next Substitution) Substitution {
	if next.IsEmpty() {
		return s
	}
	if s.IsEmpty() {
		return next
	}
	out := Substitution{
		types:   make(map[DefID]TypeArg, len(s.types)+len(next.types)),
		regions: make(map[DefID]Region, len(s.regions)+len(next.regions)),
		consts:  make(map[DefID]ConstArg, len(s.consts)+len(next.consts)),
	}
	f := next.Folder()
	for p, v := range s.types {
		out.types[p] = TypeArg{Origin: v.Origin, Ty: f.FoldTy(v.Ty)}
	}
	for p, v := range next.types {
		if _, ok := out.types[p]; !ok {
			out.types[p] = v
		}
	}
	for p, v := range s.regions {
		out.regions[p] = f.FoldRegion(v)
	}
	for p, v := range next.regions {
		if _, ok := out.regions[p]; !ok {
			out.regions[p] = v
		}
	}
	for p, v := range s.consts {
		out.consts[p] = ConstArg{Origin: v.Origin, Const: f.FoldConst(v.Const)}
	}
	for p, v := range next.consts {
		if _, ok := out.consts[p]; !ok {
			out.consts[p] = v
		}
	}
	return out
}

// MapValues rewrites every value of s with f and keeps the domain.
func (s Substitution) MapValues(f Folder) Substitution {
	if s.IsEmpty() {
		return s
	}
	out := Substitution{}
	if len(s.types) > 0 {
		out.types = make(map[DefID]TypeArg, len(s.types))
		for p, v := range s.types {
			out.types[p] = TypeArg{Origin: v.Origin, Ty: f.FoldTy(v.Ty)}
		}
	}
	if len(s.regions) > 0 {
		out.regions = make(map[DefID]Region, len(s.regions))
		for p, v := range s.regions {
			out.regions[p] = f.FoldRegion(v)
		}
	}
	if len(s.consts) > 0 {
		out.consts = make(map[DefID]ConstArg, len(s.consts))
		for p, v := range s.consts {
			out.consts[p] = ConstArg{Origin: v.Origin, Const: f.FoldConst(v.Const)}
		}
	}
	return out
}

// Freshen gives every inference placeholder in s a new identity, keeping
// shared placeholders shared within the copy.
func (s Substitution) Freshen(fr *Freshener) Substitution {
	return s.MapValues(fr.Folder())
}

// Equal compares domains and values.
func (s Substitution) Equal(o Substitution) bool {
	if len(s.types) != len(o.types) || len(s.regions) != len(o.regions) || len(s.consts) != len(o.consts) {
		return false
	}
	for p, v := range s.types {
		ov, ok := o.types[p]
		if !ok || ov.Origin != v.Origin || !Equal(v.Ty, ov.Ty) {
			return false
		}
	}
	for p, v := range s.regions {
		ov, ok := o.regions[p]
		if !ok || !RegionEqual(v, ov) {
			return false
		}
	}
	for p, v := range s.consts {
		ov, ok := o.consts[p]
		if !ok || ov.Origin != v.Origin || !ConstEqual(v.Const, ov.Const) {
			return false
		}
	}
	return true
}

func (s Substitution) String() string {
	parts := make([]string, 0, s.Len())
	for _, p := range s.RegionParams() {
		parts = append(parts, paramLabel(p)+" => "+s.regions[p].String())
	}
	for _, p := range s.TypeParams() {
		parts = append(parts, paramLabel(p)+" => "+tyString(s.types[p].Ty))
	}
	for _, p := range s.ConstParams() {
		parts = append(parts, paramLabel(p)+" => "+constString(s.consts[p].Const))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func paramLabel(p DefID) string {
	if p == SelfParam {
		return "Self"
	}
	return "#" + itoa(int64(p))
}

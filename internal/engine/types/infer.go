package types

import (
	"fmt"
	"sync/atomic"
)

var inferSeq atomic.Uint64

// InferVar is an inference placeholder. It carries no mutable state: a
// consumer that needs a private copy asks for a fresh id with the same origin.
type InferVar struct {
	ID     uint64
	Origin DefID
	Name   string
}

// NewInferVar allocates a placeholder for the parameter origin.
func NewInferVar(origin DefID, name string) InferVar {
	return InferVar{ID: inferSeq.Add(1), Origin: origin, Name: name}
}

// Fresh returns a copy of v with a new identity.
func (v InferVar) Fresh() InferVar {
	return NewInferVar(v.Origin, v.Name)
}

func (v InferVar) String() string {
	if v.Name == "" {
		return fmt.Sprintf("?%d", v.ID)
	}
	return fmt.Sprintf("?%s#%d", v.Name, v.ID)
}

// Freshener renames inference variables consistently: every occurrence of
// one old id maps to the same new id.
type Freshener struct {
	seen map[uint64]InferVar
}

func NewFreshener() *Freshener {
	return &Freshener{seen: make(map[uint64]InferVar)}
}

func (f *Freshener) Var(v InferVar) InferVar {
	if nv, ok := f.seen[v.ID]; ok {
		return nv
	}
	nv := v.Fresh()
	f.seen[v.ID] = nv
	return nv
}

func (f *Freshener) Folder() Folder {
	return Folder{
		Ty: func(t Ty) (Ty, bool) {
			if inf, ok := t.(TyInfer); ok {
				return TyInfer{Var: f.Var(inf.Var)}, true
			}
			return nil, false
		},
		Const: func(c Const) (Const, bool) {
			if inf, ok := c.(CtInfer); ok {
				return CtInfer{Var: f.Var(inf.Var)}, true
			}
			return nil, false
		},
	}
}

// FreshenTy replaces every inference variable in t with a fresh one.
func FreshenTy(t Ty) Ty {
	return NewFreshener().Folder().FoldTy(t)
}

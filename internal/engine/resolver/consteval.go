package resolver

import (
	"math"
	"math/big"

	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/engine/types"
)

type intRange struct {
	min, max *big.Int
}

func bitsRange(bits uint, signed bool) intRange {
	one := big.NewInt(1)
	if signed {
		max := new(big.Int).Sub(new(big.Int).Lsh(one, bits-1), one)
		min := new(big.Int).Neg(new(big.Int).Lsh(one, bits-1))
		return intRange{min: min, max: max}
	}
	return intRange{min: big.NewInt(0), max: new(big.Int).Sub(new(big.Int).Lsh(one, bits), one)}
}

var intRanges = map[string]intRange{
	"i8": bitsRange(8, true), "i16": bitsRange(16, true), "i32": bitsRange(32, true),
	"i64": bitsRange(64, true), "i128": bitsRange(128, true), "isize": bitsRange(64, true),
	"u8": bitsRange(8, false), "u16": bitsRange(16, false), "u32": bitsRange(32, false),
	"u64": bitsRange(64, false), "u128": bitsRange(128, false), "usize": bitsRange(64, false),
}

// constValue is an intermediate evaluation result: an integer, a boolean,
// a const parameter, or nothing.
type constValue struct {
	kind  byte // 'i', 'b', 'p', 0
	i     *big.Int
	b     bool
	param types.CtParam
}

// evalConst evaluates a const argument against the parameter's declared
// type. Values that overflow the type, mistyped values and anything not
// computable at this level evaluate to unknown.
func (r *Resolver) evalConst(e parser.ConstExpr, expected types.Ty, w *walk) types.Const {
	v := r.evalValue(e, expected, w)
	switch v.kind {
	case 'p':
		return v.param
	case 'b':
		if prim, ok := expected.(types.TyPrimitive); ok && prim.Name != "bool" {
			return types.CtUnknown{}
		}
		return types.CtBool{Value: v.b}
	case 'i':
		if prim, ok := expected.(types.TyPrimitive); ok {
			rng, isInt := intRanges[prim.Name]
			if !isInt || v.i.Cmp(rng.min) < 0 || v.i.Cmp(rng.max) > 0 {
				return types.CtUnknown{}
			}
		}
		if !v.i.IsInt64() {
			return types.CtUnknown{}
		}
		return types.CtInt{Value: v.i.Int64()}
	default:
		return types.CtUnknown{}
	}
}

func (r *Resolver) evalValue(e parser.ConstExpr, expected types.Ty, w *walk) constValue {
	switch x := e.(type) {
	case parser.LitInt:
		if x.Suffix != "" {
			if _, ok := intRanges[x.Suffix]; !ok {
				return constValue{}
			}
		}
		return constValue{kind: 'i', i: big.NewInt(x.Value)}
	case parser.LitBool:
		return constValue{kind: 'b', b: x.Value}
	case parser.ConstBlock:
		return r.evalValue(x.Expr, expected, w)
	case parser.ConstPath:
		return r.evalPath(x.Path, expected, w)
	case parser.ConstUnary:
		v := r.evalValue(x.Operand, expected, w)
		switch {
		case x.Op == "-" && v.kind == 'i':
			return constValue{kind: 'i', i: new(big.Int).Neg(v.i)}
		case x.Op == "!" && v.kind == 'b':
			return constValue{kind: 'b', b: !v.b}
		case x.Op == "!" && v.kind == 'i':
			return constValue{kind: 'i', i: new(big.Int).Not(v.i)}
		}
		return constValue{}
	case parser.ConstBinary:
		return evalBinary(x.Op, r.evalValue(x.Left, expected, w), r.evalValue(x.Right, expected, w))
	default:
		return constValue{}
	}
}

// evalPath evaluates a named constant: a const generic parameter stays
// symbolic, a `const` item is evaluated from its initializer.
func (r *Resolver) evalPath(p *parser.Path, expected types.Ty, w *walk) constValue {
	if !w.enter() {
		return constValue{}
	}
	defer w.leave()
	res := r.resolveWith(p, w)
	if len(res) != 1 {
		return constValue{}
	}
	d := r.graph.Decl(res[0].Decl)
	switch d.Kind {
	case graph.KindConstParam:
		return constValue{kind: 'p', param: types.CtParam{Param: d.ID, Name: d.Name}}
	case graph.KindConst:
		if d.Item == nil || d.Item.ConstValue == nil || w.visiting[d.ID] {
			return constValue{}
		}
		w.visiting[d.ID] = true
		defer delete(w.visiting, d.ID)
		return r.evalValue(d.Item.ConstValue, expected, w)
	}
	return constValue{}
}

func evalBinary(op string, a, b constValue) constValue {
	if a.kind == 'b' && b.kind == 'b' {
		switch op {
		case "&&":
			return constValue{kind: 'b', b: a.b && b.b}
		case "||":
			return constValue{kind: 'b', b: a.b || b.b}
		case "==":
			return constValue{kind: 'b', b: a.b == b.b}
		case "!=":
			return constValue{kind: 'b', b: a.b != b.b}
		}
		return constValue{}
	}
	if a.kind != 'i' || b.kind != 'i' {
		return constValue{}
	}
	x, y := a.i, b.i
	out := new(big.Int)
	switch op {
	case "+":
		out.Add(x, y)
	case "-":
		out.Sub(x, y)
	case "*":
		out.Mul(x, y)
	case "/":
		if y.Sign() == 0 {
			return constValue{}
		}
		out.Quo(x, y)
	case "%":
		if y.Sign() == 0 {
			return constValue{}
		}
		out.Rem(x, y)
	case "&":
		out.And(x, y)
	case "|":
		out.Or(x, y)
	case "^":
		out.Xor(x, y)
	case "<<", ">>":
		if y.Sign() < 0 || y.Cmp(big.NewInt(math.MaxUint8)) > 0 {
			return constValue{}
		}
		if op == "<<" {
			out.Lsh(x, uint(y.Uint64()))
		} else {
			out.Rsh(x, uint(y.Uint64()))
		}
	case "==":
		return constValue{kind: 'b', b: x.Cmp(y) == 0}
	case "!=":
		return constValue{kind: 'b', b: x.Cmp(y) != 0}
	case "<":
		return constValue{kind: 'b', b: x.Cmp(y) < 0}
	case "<=":
		return constValue{kind: 'b', b: x.Cmp(y) <= 0}
	case ">":
		return constValue{kind: 'b', b: x.Cmp(y) > 0}
	case ">=":
		return constValue{kind: 'b', b: x.Cmp(y) >= 0}
	default:
		return constValue{}
	}
	return constValue{kind: 'i', i: out}
}

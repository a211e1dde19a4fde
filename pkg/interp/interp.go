// Package interp is the reference evaluator of an Expr on (x, y) state
// (§4.3 C3). It defines ground truth for the DSL's semantics: the JIT
// backend (pkg/jit) must agree with it bit-for-bit (§4.6 correctness
// contract), and the equivalence classifier (pkg/bank) fingerprints
// expressions by running them here.
//
// Grounded on the teacher's pkg/cpu/exec.go: a switch-dispatch executor
// over a small mutable register struct, one case per operator.
package interp

import (
	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/ops"
)

// State holds the two variables an expression reads and writes.
type State struct {
	X, Y expr.NumT
}

// Get reads a variable.
func (s *State) Get(v expr.Var) expr.NumT {
	if v == expr.X {
		return s.X
	}
	return s.Y
}

// Set writes a variable.
func (s *State) Set(v expr.Var, n expr.NumT) {
	if v == expr.X {
		s.X = n
	} else {
		s.Y = n
	}
}

const bitWidth = 64

// Eval evaluates e against s, mutating s for any assign/incdec nodes
// encountered (including as non-root subexpressions), and returns the
// expression's value.
func Eval(s *State, e *expr.Expr) expr.NumT {
	switch e.Kind {
	case expr.KLit:
		return e.Lit
	case expr.KVar:
		return s.Get(e.V)
	case expr.KUnary:
		return evalUnary(s, e)
	case expr.KBinary:
		return evalBinary(s, e)
	case expr.KIncDec:
		return evalIncDec(s, e)
	case expr.KAssign:
		return evalAssign(s, e)
	default:
		panic("interp: unknown Kind")
	}
}

func evalUnary(s *State, e *expr.Expr) expr.NumT {
	v := Eval(s, e.A)
	switch e.Op {
	case ops.Neg:
		return -v
	case ops.BitNot:
		return ^v
	case ops.LogNot:
		if v == 0 {
			return 1
		}
		return 0
	default:
		panic("interp: unknown unary op")
	}
}

func evalIncDec(s *State, e *expr.Expr) expr.NumT {
	old := s.Get(e.V)
	next := old + expr.NumT(ops.IncDecDelta(e.Op))
	s.Set(e.V, next)
	if ops.IsPrefixIncDec(e.Op) {
		return next
	}
	return old
}

func evalAssign(s *State, e *expr.Expr) expr.NumT {
	old := s.Get(e.V)
	rhs := Eval(s, e.B)
	var result expr.NumT
	if e.Op == ops.Assign {
		result = rhs
	} else {
		result = combine(e.Op, old, rhs)
	}
	s.Set(e.V, result)
	return result
}

func evalBinary(s *State, e *expr.Expr) expr.NumT {
	switch e.Op {
	case ops.LogAnd:
		l := Eval(s, e.A)
		if l == 0 {
			return 0
		}
		r := Eval(s, e.B)
		if r != 0 {
			return 1
		}
		return 0
	case ops.LogOr:
		l := Eval(s, e.A)
		if l != 0 {
			return 1
		}
		r := Eval(s, e.B)
		if r != 0 {
			return 1
		}
		return 0
	}
	l := Eval(s, e.A)
	r := Eval(s, e.B)
	return binOp(e.Op, l, r)
}

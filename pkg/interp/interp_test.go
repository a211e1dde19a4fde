package interp

import (
	"math"
	"testing"

	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/ops"
)

func eval(x, y expr.NumT, e *expr.Expr) expr.NumT {
	s := State{X: x, Y: y}
	return Eval(&s, e)
}

func TestEvalArithmetic(t *testing.T) {
	add := expr.NewBinary(ops.Add, expr.NewVar(expr.X), expr.NewVar(expr.Y))
	if got := eval(3, 4, add); got != 7 {
		t.Errorf("x+y: got %d want 7", got)
	}
}

func TestEvalDivModByZero(t *testing.T) {
	divZero := expr.NewBinary(ops.Div, expr.NewVar(expr.X), expr.NewLit(0))
	if got := eval(5, 0, divZero); got != 0 {
		t.Errorf("x/0: got %d want 0", got)
	}
	modZero := expr.NewBinary(ops.Mod, expr.NewVar(expr.X), expr.NewLit(0))
	if got := eval(5, 0, modZero); got != 0 {
		t.Errorf("x%%0: got %d want 0", got)
	}
}

func TestEvalDivOverflowTrap(t *testing.T) {
	e := expr.NewBinary(ops.Div, expr.NewLit(math.MinInt64), expr.NewLit(-1))
	if got := eval(0, 0, e); got != math.MinInt64 {
		t.Errorf("MinInt64/-1: got %d want MinInt64", got)
	}
	m := expr.NewBinary(ops.Mod, expr.NewLit(math.MinInt64), expr.NewLit(-1))
	if got := eval(0, 0, m); got != 0 {
		t.Errorf("MinInt64%%-1: got %d want 0", got)
	}
}

func TestEvalShiftMasksCount(t *testing.T) {
	// shift by 64 should behave like shift by 0 (mod 64).
	e := expr.NewBinary(ops.Shl, expr.NewLit(1), expr.NewLit(64))
	if got := eval(0, 0, e); got != 1 {
		t.Errorf("1<<64: got %d want 1", got)
	}
}

func TestEvalPowNegativeExponent(t *testing.T) {
	base2 := expr.NewBinary(ops.Pow, expr.NewLit(2), expr.NewLit(-1))
	if got := eval(0, 0, base2); got != 0 {
		t.Errorf("2**-1: got %d want 0", got)
	}
	baseNeg1Even := expr.NewBinary(ops.Pow, expr.NewLit(-1), expr.NewLit(-2))
	if got := eval(0, 0, baseNeg1Even); got != 1 {
		t.Errorf("(-1)**-2: got %d want 1", got)
	}
	baseNeg1Odd := expr.NewBinary(ops.Pow, expr.NewLit(-1), expr.NewLit(-3))
	if got := eval(0, 0, baseNeg1Odd); got != -1 {
		t.Errorf("(-1)**-3: got %d want -1", got)
	}
}

func TestEvalShortCircuit(t *testing.T) {
	// x && (++y) must not touch y when x == 0.
	e := expr.NewBinary(ops.LogAnd, expr.NewVar(expr.X), expr.NewIncDec(ops.PreInc, expr.Y))
	s := State{X: 0, Y: 10}
	if got := Eval(&s, e); got != 0 {
		t.Errorf("0 && ...: got %d want 0", got)
	}
	if s.Y != 10 {
		t.Errorf("short-circuited && evaluated its right side: y = %d want 10", s.Y)
	}

	or := expr.NewBinary(ops.LogOr, expr.NewVar(expr.X), expr.NewIncDec(ops.PreInc, expr.Y))
	s2 := State{X: 1, Y: 10}
	if got := Eval(&s2, or); got != 1 {
		t.Errorf("1 || ...: got %d want 1", got)
	}
	if s2.Y != 10 {
		t.Errorf("short-circuited || evaluated its right side: y = %d want 10", s2.Y)
	}
}

func TestEvalIncDecPrePost(t *testing.T) {
	pre := expr.NewIncDec(ops.PreInc, expr.X)
	s := State{X: 5}
	if got := Eval(&s, pre); got != 6 || s.X != 6 {
		t.Errorf("++x: got %d, x=%d; want 6, x=6", got, s.X)
	}

	post := expr.NewIncDec(ops.PostInc, expr.X)
	s2 := State{X: 5}
	if got := Eval(&s2, post); got != 5 || s2.X != 6 {
		t.Errorf("x++: got %d, x=%d; want 5, x=6", got, s2.X)
	}
}

func TestEvalCompoundAssign(t *testing.T) {
	e := expr.NewAssign(ops.AddAssign, expr.X, expr.NewLit(3))
	s := State{X: 10}
	if got := Eval(&s, e); got != 13 || s.X != 13 {
		t.Errorf("x+=3: got %d, x=%d; want 13, x=13", got, s.X)
	}
}

func TestEvalNestedAssignSideEffect(t *testing.T) {
	// x = (y = 5) + 1
	inner := expr.NewAssign(ops.Assign, expr.Y, expr.NewLit(5))
	outer := expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.Add, inner, expr.NewLit(1)))
	s := State{}
	if got := Eval(&s, outer); got != 6 || s.X != 6 || s.Y != 5 {
		t.Errorf("got %d, x=%d y=%d; want 6, x=6 y=5", got, s.X, s.Y)
	}
}

package expr

import (
	"testing"

	"github.com/rucin93/exprsearch/pkg/ops"
)

func TestPrintBasic(t *testing.T) {
	tests := []struct {
		e    *Expr
		want string
	}{
		{NewVar(X), "x"},
		{NewLit(5), "5"},
		{NewBinary(ops.Add, NewVar(X), NewVar(Y)), "x+y"},
		{NewUnary(ops.Neg, NewVar(X)), "-x"},
		{NewIncDec(ops.PreInc, X), "++x"},
		{NewIncDec(ops.PostDec, Y), "y--"},
		{NewAssign(ops.Assign, X, NewLit(1)), "x=1"},
		{NewAssign(ops.AddAssign, Y, NewVar(X)), "y+=x"},
	}
	for _, tc := range tests {
		got := Print(tc.e)
		if got != tc.want {
			t.Errorf("Print(%+v): got %q want %q", tc.e, got, tc.want)
		}
	}
}

func TestPrintPrecedenceParens(t *testing.T) {
	// (x+y)*2 needs parens; x+y*2 does not.
	mulOfSum := NewBinary(ops.Mul, NewBinary(ops.Add, NewVar(X), NewVar(Y)), NewLit(2))
	if got, want := Print(mulOfSum), "(x+y)*2"; got != want {
		t.Errorf("got %q want %q", got, want)
	}

	sumOfProd := NewBinary(ops.Add, NewVar(X), NewBinary(ops.Mul, NewVar(Y), NewLit(2)))
	if got, want := Print(sumOfProd), "x+y*2"; got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestPrintPowRightAssoc(t *testing.T) {
	// x**(y**2) prints without parens (native right-assoc); (x**y)**2 needs them.
	rightNest := NewBinary(ops.Pow, NewVar(X), NewBinary(ops.Pow, NewVar(Y), NewLit(2)))
	if got, want := Print(rightNest), "x**y**2"; got != want {
		t.Errorf("got %q want %q", got, want)
	}
	leftNest := NewBinary(ops.Pow, NewBinary(ops.Pow, NewVar(X), NewVar(Y)), NewLit(2))
	if got, want := Print(leftNest), "(x**y)**2"; got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestPrintHazardForcesParens(t *testing.T) {
	// x + (++y) would maximal-munch re-tokenize as "x+++y" without parens.
	e := NewBinary(ops.Add, NewVar(X), NewIncDec(ops.PreInc, Y))
	got := Print(e)
	if got != "x+(++y)" {
		t.Errorf("got %q want %q", got, "x+(++y)")
	}

	if _, ok := PrintStrict(e); ok {
		t.Error("PrintStrict should refuse a construction that needs a hazard paren")
	}

	// double unary minus: -(-x), hazard would otherwise produce "--x".
	neg2 := NewUnary(ops.Neg, NewUnary(ops.Neg, NewVar(X)))
	if got, want := Print(neg2), "-(-x)"; got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestPrintStrictSucceedsWithoutHazard(t *testing.T) {
	e := NewBinary(ops.Add, NewVar(X), NewVar(Y))
	s, ok := PrintStrict(e)
	if !ok || s != "x+y" {
		t.Errorf("got (%q, %v) want (\"x+y\", true)", s, ok)
	}
}

func TestLengthMatchesPrintedString(t *testing.T) {
	e := NewBinary(ops.Mul, NewBinary(ops.Add, NewVar(X), NewVar(Y)), NewLit(2))
	n, ok := Length(e, true)
	if !ok || n != len(Print(e)) {
		t.Errorf("Length mismatch: got (%d,%v) want (%d,true)", n, ok, len(Print(e)))
	}
}

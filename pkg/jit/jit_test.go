package jit

import (
	"math"
	"runtime"
	"testing"

	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/interp"
	"github.com/rucin93/exprsearch/pkg/ops"
)

func skipUnlessNative(t *testing.T) {
	t.Helper()
	if runtime.GOARCH != "amd64" && runtime.GOARCH != "arm64" {
		t.Skipf("no native jit backend for %s", runtime.GOARCH)
	}
}

// runBoth evaluates sx/sy through both the interpreter and the compiled
// program from the same starting state and asserts they agree — the
// correctness contract the JIT backends are built to (§4.6).
func runBoth(t *testing.T, sx, sy *expr.Expr, x0, y0 expr.NumT) {
	t.Helper()
	s := &interp.State{X: x0, Y: y0}
	if sx != nil {
		interp.Eval(s, sx)
	}
	if sy != nil {
		interp.Eval(s, sy)
	}

	prog, err := Compile(sx, sy)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer prog.Close()

	gotX, gotY := prog.Run(x0, y0)
	if gotX != s.X || gotY != s.Y {
		t.Errorf("x0=%d y0=%d: jit=(%d,%d) interp=(%d,%d)", x0, y0, gotX, gotY, s.X, s.Y)
	}
}

func x() *expr.Expr { return expr.NewVar(expr.X) }
func y() *expr.Expr { return expr.NewVar(expr.Y) }
func lit(n expr.NumT) *expr.Expr { return expr.NewLit(n) }

func TestJITArithmeticMatchesInterp(t *testing.T) {
	skipUnlessNative(t)
	cases := []struct {
		name string
		sx   *expr.Expr
	}{
		{"add", expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.Add, x(), y()))},
		{"sub", expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.Sub, x(), y()))},
		{"mul", expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.Mul, x(), y()))},
		{"bitor", expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.BitOr, x(), y()))},
		{"bitxor", expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.BitXor, x(), y()))},
		{"bitand", expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.BitAnd, x(), y()))},
		{"shl", expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.Shl, x(), y()))},
		{"shr", expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.Shr, x(), y()))},
		{"eq", expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.Eq, x(), y()))},
		{"lt", expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.Lt, x(), y()))},
		{"ge", expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.Ge, x(), y()))},
		{"neg", expr.NewAssign(ops.Assign, expr.X, expr.NewUnary(ops.Neg, x()))},
		{"bitnot", expr.NewAssign(ops.Assign, expr.X, expr.NewUnary(ops.BitNot, x()))},
		{"lognot", expr.NewAssign(ops.Assign, expr.X, expr.NewUnary(ops.LogNot, x()))},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for _, x0 := range []expr.NumT{-4, -1, 0, 1, 3, 7} {
				for _, y0 := range []expr.NumT{-3, 0, 2, 5} {
					runBoth(t, c.sx, nil, x0, y0)
				}
			}
		})
	}
}

func TestJITDivModByZero(t *testing.T) {
	skipUnlessNative(t)
	divExpr := expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.Div, x(), y()))
	modExpr := expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.Mod, x(), y()))
	for _, x0 := range []expr.NumT{-5, 0, 7} {
		runBoth(t, divExpr, nil, x0, 0)
		runBoth(t, modExpr, nil, x0, 0)
	}
}

func TestJITDivOverflowTrap(t *testing.T) {
	skipUnlessNative(t)
	divExpr := expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.Div, x(), y()))
	modExpr := expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.Mod, x(), y()))
	runBoth(t, divExpr, nil, math.MinInt64, -1)
	runBoth(t, modExpr, nil, math.MinInt64, -1)
}

func TestJITPowNegativeExponent(t *testing.T) {
	skipUnlessNative(t)
	powExpr := expr.NewAssign(ops.Assign, expr.X, expr.NewBinary(ops.Pow, x(), y()))
	for _, x0 := range []expr.NumT{-3, -1, 0, 1, 2, 4} {
		for _, y0 := range []expr.NumT{-3, -2, -1, 0, 1, 2, 5} {
			runBoth(t, powExpr, nil, x0, y0)
		}
	}
}

func TestJITShortCircuit(t *testing.T) {
	skipUnlessNative(t)
	// x = (x && (y = 99)); x never touches y when x starts at 0.
	andExpr := expr.NewAssign(ops.Assign, expr.X,
		expr.NewBinary(ops.LogAnd, x(), expr.NewAssign(ops.Assign, expr.Y, lit(99))))
	orExpr := expr.NewAssign(ops.Assign, expr.X,
		expr.NewBinary(ops.LogOr, x(), expr.NewAssign(ops.Assign, expr.Y, lit(99))))
	for _, x0 := range []expr.NumT{0, 1, -1} {
		runBoth(t, andExpr, nil, x0, 5)
		runBoth(t, orExpr, nil, x0, 5)
	}
}

func TestJITAssignAndCompoundAssign(t *testing.T) {
	skipUnlessNative(t)
	compound := expr.NewAssign(ops.AddAssign, expr.X, y())
	runBoth(t, compound, nil, 10, -3)

	nested := expr.NewAssign(ops.Assign, expr.X,
		expr.NewBinary(ops.Add, expr.NewAssign(ops.Assign, expr.Y, lit(5)), lit(1)))
	runBoth(t, nested, nil, 0, 0)
}

func TestJITIncDecPrePost(t *testing.T) {
	skipUnlessNative(t)
	pre := expr.NewAssign(ops.Assign, expr.Y, expr.NewIncDec(ops.PreInc, expr.X))
	post := expr.NewAssign(ops.Assign, expr.Y, expr.NewIncDec(ops.PostDec, expr.X))
	runBoth(t, pre, nil, 4, 0)
	runBoth(t, post, nil, 4, 0)
}

func TestJITTwoStatements(t *testing.T) {
	skipUnlessNative(t)
	sx := expr.NewAssign(ops.AddAssign, expr.X, lit(2))
	sy := expr.NewIncDec(ops.PreDec, expr.Y)
	runBoth(t, sx, sy, 3, 8)
}

func TestJITUnsupportedArchReturnsErr(t *testing.T) {
	if runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64" {
		t.Skip("native backend present on this arch")
	}
	_, err := Compile(expr.NewAssign(ops.Assign, expr.X, lit(1)), nil)
	if err != ErrUnsupportedArch {
		t.Fatalf("want ErrUnsupportedArch, got %v", err)
	}
}

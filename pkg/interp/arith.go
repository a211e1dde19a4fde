package interp

import (
	"math"

	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/ops"
)

// binOp evaluates a non-short-circuit binary operator. Integer arithmetic
// wraps on overflow (Go's signed integer ops already do this per the Go
// spec), division/modulo by zero yield 0, and INT_MIN / -1 yields INT_MIN
// (§4.3).
func binOp(op ops.OpKind, l, r expr.NumT) expr.NumT {
	switch op {
	case ops.Add:
		return l + r
	case ops.Sub:
		return l - r
	case ops.Mul:
		return l * r
	case ops.Div:
		return divWrap(l, r)
	case ops.Mod:
		return modWrap(l, r)
	case ops.Pow:
		return pow(l, r)
	case ops.BitOr:
		return l | r
	case ops.BitXor:
		return l ^ r
	case ops.BitAnd:
		return l & r
	case ops.Shl:
		return l << shiftCount(r)
	case ops.Shr:
		return l >> shiftCount(r)
	case ops.Eq:
		return boolNum(l == r)
	case ops.Ne:
		return boolNum(l != r)
	case ops.Lt:
		return boolNum(l < r)
	case ops.Gt:
		return boolNum(l > r)
	case ops.Le:
		return boolNum(l <= r)
	case ops.Ge:
		return boolNum(l >= r)
	default:
		panic("interp: unknown binary op")
	}
}

// combine applies a compound-assign operator's underlying binary op to the
// old value and the rhs value.
func combine(op ops.OpKind, old, rhs expr.NumT) expr.NumT {
	switch op {
	case ops.AddAssign:
		return binOp(ops.Add, old, rhs)
	case ops.SubAssign:
		return binOp(ops.Sub, old, rhs)
	case ops.MulAssign:
		return binOp(ops.Mul, old, rhs)
	case ops.DivAssign:
		return binOp(ops.Div, old, rhs)
	case ops.ModAssign:
		return binOp(ops.Mod, old, rhs)
	case ops.OrAssign:
		return binOp(ops.BitOr, old, rhs)
	case ops.XorAssign:
		return binOp(ops.BitXor, old, rhs)
	case ops.AndAssign:
		return binOp(ops.BitAnd, old, rhs)
	case ops.ShlAssign:
		return binOp(ops.Shl, old, rhs)
	case ops.ShrAssign:
		return binOp(ops.Shr, old, rhs)
	default:
		panic("interp: unknown compound-assign op")
	}
}

func boolNum(b bool) expr.NumT {
	if b {
		return 1
	}
	return 0
}

// shiftCount reduces a shift amount modulo the NumT bit width (§4.3).
func shiftCount(r expr.NumT) uint {
	return uint(r) & (bitWidth - 1)
}

// divWrap implements a/0 = 0 and MinInt64/-1 = MinInt64 (§4.3).
func divWrap(l, r expr.NumT) expr.NumT {
	if r == 0 {
		return 0
	}
	if l == math.MinInt64 && r == -1 {
		return math.MinInt64
	}
	return l / r
}

// modWrap implements a%0 = 0 with the same MinInt64/-1 guard as divWrap
// (the Go runtime's modulo on that pair would otherwise share division's
// overflow trap).
func modWrap(l, r expr.NumT) expr.NumT {
	if r == 0 {
		return 0
	}
	if l == math.MinInt64 && r == -1 {
		return 0
	}
	return l % r
}

// pow implements "**", resolving the Open Question in §9 / DESIGN.md: for
// a negative exponent, the result is 0 unless |base| == 1, in which case it
// follows the sign of base raised to that (even/odd) exponent. Non-negative
// exponents are evaluated by repeated wrapping multiplication, bounded by
// the exponent's absolute value as the iteration count (§4.6).
func pow(base, exp expr.NumT) expr.NumT {
	if exp < 0 {
		switch base {
		case 1:
			return 1
		case -1:
			if exp%2 == 0 {
				return 1
			}
			return -1
		default:
			return 0
		}
	}
	result := expr.NumT(1)
	for i := expr.NumT(0); i < exp; i++ {
		result *= base
	}
	return result
}

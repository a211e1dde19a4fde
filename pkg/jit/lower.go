package jit

import "github.com/rucin93/exprsearch/pkg/ops"

// underlyingBinOp maps a compound-assign operator to the binary operator it
// applies, mirroring pkg/interp/arith.go's combine dispatch — both backends
// lower a compound assign by evaluating this operator against the old and
// rhs values.
func underlyingBinOp(op ops.OpKind) ops.OpKind {
	switch op {
	case ops.AddAssign:
		return ops.Add
	case ops.SubAssign:
		return ops.Sub
	case ops.MulAssign:
		return ops.Mul
	case ops.DivAssign:
		return ops.Div
	case ops.ModAssign:
		return ops.Mod
	case ops.OrAssign:
		return ops.BitOr
	case ops.XorAssign:
		return ops.BitXor
	case ops.AndAssign:
		return ops.BitAnd
	case ops.ShlAssign:
		return ops.Shl
	case ops.ShrAssign:
		return ops.Shr
	default:
		panic("jit: unknown compound-assign op")
	}
}

//go:build !amd64 && !arm64

package jit

import "github.com/rucin93/exprsearch/pkg/expr"

// assemble has no native backend on this architecture; Compile always fails
// with ErrUnsupportedArch and callers fall back to pkg/interp.
func assemble(sx, sy *expr.Expr) ([]byte, error) {
	return nil, ErrUnsupportedArch
}

// nativeCall is never invoked: assemble always errors first, so Compile
// never reaches newExecMem on this architecture. It exists only so the
// package's exported surface stays identical across GOARCH.
func nativeCall(mem *execMem) Func {
	return func(x, y expr.NumT) (expr.NumT, expr.NumT) { return x, y }
}

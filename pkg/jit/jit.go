// Package jit compiles a statement pair to native machine code (§4.6 C6):
// x86_64 (SysV) and aarch64 (AAPCS64) backends, selected at compile time by
// GOARCH build tags, with a stub backend for every other architecture that
// always reports unsupported so callers fall back to pkg/interp.
//
// Grounded on other_examples' launix-de-memcp scm-jit_amd64.go: raw
// byte-buffer code emission, a fixed two-register return convention
// (RAX/RBX here, X0/X1 on arm64), and a generated function called through a
// small assembly trampoline rather than cast directly (Go's own calling
// convention is not the target ISA's C ABI).
package jit

import (
	"errors"

	"github.com/rucin93/exprsearch/pkg/expr"
)

// ErrUnsupportedArch is returned by Compile on architectures with no native
// backend; callers should fall back to pkg/interp.
var ErrUnsupportedArch = errors.New("jit: unsupported architecture")

// Func runs a compiled statement pair starting from (x, y) and returns the
// resulting (x, y).
type Func func(x, y expr.NumT) (expr.NumT, expr.NumT)

// Program owns the executable memory backing a compiled Func. Call Close
// when done with it; a leaked Program leaks an mmap'd page.
type Program struct {
	mem *execMem
	run Func
}

// Run invokes the compiled code.
func (p *Program) Run(x, y expr.NumT) (expr.NumT, expr.NumT) { return p.run(x, y) }

// Close releases the executable memory.
func (p *Program) Close() error { return p.mem.Close() }

// Compile lowers the statement pair (sx executed first, then sy, both
// against shared (x, y) state) to native code for the running GOARCH. sx or
// sy may be nil to mean "no statement" (the variable is left unchanged).
func Compile(sx, sy *expr.Expr) (*Program, error) {
	code, err := assemble(sx, sy)
	if err != nil {
		return nil, err
	}
	mem, err := newExecMem(code)
	if err != nil {
		return nil, err
	}
	return &Program{mem: mem, run: nativeCall(mem)}, nil
}

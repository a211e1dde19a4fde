//go:build amd64

package jit

import (
	"errors"
	"math"
	"unsafe"

	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/ops"
)

// SysV GPR encodings used by the ModRM/REX bytes below. Only the eight
// legacy registers are used, so no REX.R/REX.B extension bits are ever
// needed alongside REX.W.
const (
	regAX = 0
	regCX = 1
	regDX = 2
	regBX = 3
	regSP = 4
	regBP = 5
	regSI = 6
	regDI = 7
)

const (
	slotX int8 = -8
	slotY int8 = -16
)

func modrmRR(regField, rmField int) byte { return 0xC0 | byte(regField)<<3 | byte(rmField) }
func modrmRBP(regField int) byte         { return 0x40 | byte(regField)<<3 | 5 }

func (b *buffer) pushReg(r int) { b.emit(0x50 + byte(r)) }
func (b *buffer) popReg(r int)  { b.emit(0x58 + byte(r)) }

func (b *buffer) movRegImm64(r int, v int64) {
	b.emit(0x48, 0xB8+byte(r))
	b.emitU64LE(uint64(v))
}

func (b *buffer) movRegReg(dst, src int) { b.emit(0x48, 0x89, modrmRR(src, dst)) }
func (b *buffer) movRegMemRBP(dst int, disp int8) {
	b.emit(0x48, 0x8B, modrmRBP(dst), byte(disp))
}
func (b *buffer) movMemRBPReg(disp int8, src int) {
	b.emit(0x48, 0x89, modrmRBP(src), byte(disp))
}

func (b *buffer) addRR(dst, src int)  { b.emit(0x48, 0x01, modrmRR(src, dst)) }
func (b *buffer) subRR(dst, src int)  { b.emit(0x48, 0x29, modrmRR(src, dst)) }
func (b *buffer) imulRR(dst, src int) { b.emit(0x48, 0x0F, 0xAF, modrmRR(dst, src)) }
func (b *buffer) orRR(dst, src int)   { b.emit(0x48, 0x09, modrmRR(src, dst)) }
func (b *buffer) xorRR(dst, src int)  { b.emit(0x48, 0x31, modrmRR(src, dst)) }
func (b *buffer) andRR(dst, src int)  { b.emit(0x48, 0x21, modrmRR(src, dst)) }
func (b *buffer) cmpRR(a, c int)      { b.emit(0x48, 0x39, modrmRR(c, a)) }
func (b *buffer) testRR(r int)        { b.emit(0x48, 0x85, modrmRR(r, r)) }
func (b *buffer) negR(r int)          { b.emit(0x48, 0xF7, 0xD8|byte(r)) }
func (b *buffer) notR(r int)          { b.emit(0x48, 0xF7, 0xD0|byte(r)) }
func (b *buffer) addImm8(r int, imm8 byte) { b.emit(0x48, 0x83, 0xC0|byte(r), imm8) }
func (b *buffer) subImm8(r int, imm8 byte) { b.emit(0x48, 0x83, 0xE8|byte(r), imm8) }
func (b *buffer) andImm8(r int, imm8 byte) { b.emit(0x48, 0x83, 0xE0|byte(r), imm8) }
func (b *buffer) shlCL(r int)         { b.emit(0x48, 0xD3, 0xE0|byte(r)) }
func (b *buffer) sarCL(r int)         { b.emit(0x48, 0xD3, 0xF8|byte(r)) }
func (b *buffer) cqo()                { b.emit(0x48, 0x99) }
func (b *buffer) idivR(r int)         { b.emit(0x48, 0xF7, 0xF8|byte(r)) }
func (b *buffer) setcc(code byte)     { b.emit(0x0F, code, 0xC0) }
func (b *buffer) movzxRaxAl()         { b.emit(0x48, 0x0F, 0xB6, 0xC0) }
func (b *buffer) ret()                { b.emit(0xC3) }

func (b *buffer) jmpRel32() int {
	b.emit(0xE9, 0, 0, 0, 0)
	return b.pos() - 4
}
func (b *buffer) jccRel32(cc byte) int {
	b.emit(0x0F, cc, 0, 0, 0, 0)
	return b.pos() - 4
}

func patchRel32(code []byte, at, target int) {
	rel := int32(target - (at + 4))
	putU32LE(code, at, uint32(rel))
}

const (
	ccJE  = 0x84
	ccJNE = 0x85
	ccJL  = 0x8C
	ccJGE = 0x8D
	ccJLE = 0x8E
	ccJG  = 0x8F
)

const (
	setE  = 0x94
	setNE = 0x95
	setL  = 0x9C
	setGE = 0x9D
	setLE = 0x9E
	setG  = 0x9F
)

func slotOf(v expr.Var) int8 {
	if v == expr.X {
		return slotX
	}
	return slotY
}

// assemble lowers the statement pair to SysV-callable x86_64 machine code.
// Calling convention: RDI=x, RSI=y on entry; RAX=x_final, RBX=y_final on
// return (mirroring the scm-jit RAX/RBX dual-return convention).
func assemble(sx, sy *expr.Expr) ([]byte, error) {
	b := &buffer{}
	b.emit(0x55)                   // push rbp
	b.emit(0x48, 0x89, 0xE5)       // mov rbp, rsp
	b.emit(0x48, 0x83, 0xEC, 0x20) // sub rsp, 0x20
	b.movMemRBPReg(slotX, regDI)
	b.movMemRBPReg(slotY, regSI)

	var err error
	if sx != nil {
		if err = compileStatement(b, sx); err != nil {
			return nil, err
		}
	}
	if sy != nil {
		if err = compileStatement(b, sy); err != nil {
			return nil, err
		}
	}

	b.movRegMemRBP(regAX, slotX)
	b.movRegMemRBP(regBX, slotY)
	b.emit(0x48, 0x89, 0xEC) // mov rsp, rbp
	b.emit(0x5D)             // pop rbp
	b.ret()
	return b.code, nil
}

func compileStatement(b *buffer, e *expr.Expr) error {
	return compileExpr(b, e)
}

// compileExpr emits a post-order stack-machine evaluation of e: every node
// leaves exactly one pushed value on entry to its parent.
func compileExpr(b *buffer, e *expr.Expr) error {
	switch e.Kind {
	case expr.KLit:
		b.movRegImm64(regAX, int64(e.Lit))
		b.pushReg(regAX)
	case expr.KVar:
		b.movRegMemRBP(regAX, slotOf(e.V))
		b.pushReg(regAX)
	case expr.KUnary:
		return compileUnary(b, e)
	case expr.KBinary:
		return compileBinary(b, e)
	case expr.KIncDec:
		compileIncDec(b, e)
	case expr.KAssign:
		return compileAssign(b, e)
	default:
		return errors.New("jit: unknown Kind")
	}
	return nil
}

func compileUnary(b *buffer, e *expr.Expr) error {
	if err := compileExpr(b, e.A); err != nil {
		return err
	}
	b.popReg(regAX)
	switch e.Op {
	case ops.Neg:
		b.negR(regAX)
	case ops.BitNot:
		b.notR(regAX)
	case ops.LogNot:
		b.testRR(regAX)
		b.setcc(setE)
		b.movzxRaxAl()
	default:
		return errors.New("jit: unsupported unary op")
	}
	b.pushReg(regAX)
	return nil
}

func compileIncDec(b *buffer, e *expr.Expr) {
	disp := slotOf(e.V)
	b.movRegMemRBP(regAX, disp) // old
	b.movRegReg(regCX, regAX)   // copy
	if ops.IncDecDelta(e.Op) > 0 {
		b.addImm8(regCX, 1)
	} else {
		b.subImm8(regCX, 1)
	}
	b.movMemRBPReg(disp, regCX) // store new
	if ops.IsPrefixIncDec(e.Op) {
		b.pushReg(regCX)
	} else {
		b.pushReg(regAX)
	}
}

func compileBinary(b *buffer, e *expr.Expr) error {
	switch e.Op {
	case ops.LogAnd:
		return compileLogical(b, e, false)
	case ops.LogOr:
		return compileLogical(b, e, true)
	case ops.Pow:
		return compilePow(b, e)
	}
	if err := compileExpr(b, e.A); err != nil {
		return err
	}
	if err := compileExpr(b, e.B); err != nil {
		return err
	}
	b.popReg(regBX)
	b.popReg(regAX)
	if err := emitBinOp(b, e.Op); err != nil {
		return err
	}
	b.pushReg(regAX)
	return nil
}

// compileLogical handles && (shortOnNonZero=false) and || (shortOnNonZero
// =true): the right operand is only compiled when short-circuiting does
// not already decide the result.
func compileLogical(b *buffer, e *expr.Expr, shortOnNonZero bool) error {
	if err := compileExpr(b, e.A); err != nil {
		return err
	}
	b.popReg(regAX)
	b.testRR(regAX)
	shortcut := newLabel()
	cc := ccJE
	if shortOnNonZero {
		cc = ccJNE
	}
	at := b.jccRel32(byte(cc))
	b.use(shortcut, at, patchRel32)

	if err := compileExpr(b, e.B); err != nil {
		return err
	}
	b.popReg(regAX)
	b.testRR(regAX)
	b.setcc(setNE)
	b.movzxRaxAl()
	done := newLabel()
	at = b.jmpRel32()
	b.use(done, at, patchRel32)

	b.bind(shortcut)
	result := int64(0)
	if shortOnNonZero {
		result = 1
	}
	b.movRegImm64(regAX, result)

	b.bind(done)
	b.pushReg(regAX)
	return nil
}

func compilePow(b *buffer, e *expr.Expr) error {
	if err := compileExpr(b, e.A); err != nil {
		return err
	}
	if err := compileExpr(b, e.B); err != nil {
		return err
	}
	b.popReg(regBX) // exponent
	b.popReg(regAX) // base

	neg := newLabel()
	done := newLabel()
	loopTop := newLabel()
	loopDone := newLabel()

	return finishPow(b, neg, done, loopTop, loopDone)
}

func finishPow(b *buffer, neg, done, loopTop, loopDone *label) error {
	// cmp rbx, 0 ; jl neg
	b.cmpImm8(regBX, 0)
	at := b.jccRel32(byte(ccJL))
	b.use(neg, at, patchRel32)

	// non-negative path: rdx = 1; rcx = rbx; loop rdx *= rax, rcx--
	b.movRegImm64(regDX, 1)
	b.movRegReg(regCX, regBX)
	b.bind(loopTop)
	b.testRR(regCX)
	at = b.jccRel32(byte(ccJE))
	b.use(loopDone, at, patchRel32)
	b.imulRR(regDX, regAX)
	b.subImm8(regCX, 1)
	at = b.jmpRel32()
	b.use(loopTop, at, patchRel32)
	b.bind(loopDone)
	b.movRegReg(regAX, regDX)
	at = b.jmpRel32()
	b.use(done, at, patchRel32)

	b.bind(neg)
	b.movRegImm64(regCX, 1)
	b.cmpRR(regAX, regCX)
	ccNeq1 := newLabel()
	at = b.jccRel32(byte(ccJNE))
	b.use(ccNeq1, at, patchRel32)
	b.movRegImm64(regAX, 1)
	at = b.jmpRel32()
	b.use(done, at, patchRel32)

	b.bind(ccNeq1)
	b.movRegImm64(regCX, -1)
	b.cmpRR(regAX, regCX)
	ccDefault := newLabel()
	at = b.jccRel32(byte(ccJNE))
	b.use(ccDefault, at, patchRel32)

	b.movRegImm64(regCX, 1)
	b.andRR(regBX, regCX)
	b.testRR(regBX)
	even := newLabel()
	at = b.jccRel32(byte(ccJE))
	b.use(even, at, patchRel32)
	b.movRegImm64(regAX, -1)
	at = b.jmpRel32()
	b.use(done, at, patchRel32)

	b.bind(even)
	b.movRegImm64(regAX, 1)
	at = b.jmpRel32()
	b.use(done, at, patchRel32)

	b.bind(ccDefault)
	b.movRegImm64(regAX, 0)

	b.bind(done)
	b.pushReg(regAX)
	return nil
}

func (b *buffer) cmpImm8(r int, imm8 byte) { b.emit(0x48, 0x83, 0xF8|byte(r), imm8) }

func compileAssign(b *buffer, e *expr.Expr) error {
	disp := slotOf(e.V)
	if e.Op != ops.Assign {
		// old value is read before the rhs runs, as pkg/interp's evalAssign does
		b.movRegMemRBP(regAX, disp)
		b.pushReg(regAX)
	}
	if err := compileExpr(b, e.B); err != nil {
		return err
	}
	b.popReg(regAX) // rhs
	if e.Op == ops.Assign {
		b.movMemRBPReg(disp, regAX)
		b.pushReg(regAX)
		return nil
	}
	b.movRegReg(regBX, regAX) // right = rhs
	b.popReg(regAX)           // left = old
	under := underlyingBinOp(e.Op)
	if err := emitBinOp(b, under); err != nil {
		return err
	}
	b.movMemRBPReg(disp, regAX)
	b.pushReg(regAX)
	return nil
}

// emitBinOp assumes left in RAX, right in RBX, and leaves the result in RAX.
func emitBinOp(b *buffer, op ops.OpKind) error {
	switch op {
	case ops.Add:
		b.addRR(regAX, regBX)
	case ops.Sub:
		b.subRR(regAX, regBX)
	case ops.Mul:
		b.imulRR(regAX, regBX)
	case ops.Div:
		emitDivMod(b, false)
	case ops.Mod:
		emitDivMod(b, true)
	case ops.BitOr:
		b.orRR(regAX, regBX)
	case ops.BitXor:
		b.xorRR(regAX, regBX)
	case ops.BitAnd:
		b.andRR(regAX, regBX)
	case ops.Shl:
		b.movRegReg(regCX, regBX)
		b.andImm8(regCX, 0x3F)
		b.shlCL(regAX)
	case ops.Shr:
		b.movRegReg(regCX, regBX)
		b.andImm8(regCX, 0x3F)
		b.sarCL(regAX)
	case ops.Eq:
		emitCompare(b, setE)
	case ops.Ne:
		emitCompare(b, setNE)
	case ops.Lt:
		emitCompare(b, setL)
	case ops.Gt:
		emitCompare(b, setG)
	case ops.Le:
		emitCompare(b, setLE)
	case ops.Ge:
		emitCompare(b, setGE)
	default:
		return errors.New("jit: unsupported binary op")
	}
	return nil
}

func emitCompare(b *buffer, setOp byte) {
	b.cmpRR(regAX, regBX)
	b.setcc(setOp)
	b.movzxRaxAl()
}

// emitDivMod assumes RAX=dividend, RBX=divisor, and matches pkg/interp's
// divWrap/modWrap: division by zero yields 0, and MinInt64/-1 yields
// MinInt64 (0 for the modulo case) instead of trapping.
func emitDivMod(b *buffer, wantRemainder bool) {
	zero := newLabel()
	noOverflow := newLabel()
	done := newLabel()

	b.testRR(regBX)
	at := b.jccRel32(byte(ccJE))
	b.use(zero, at, patchRel32)

	b.movRegImm64(regCX, math.MinInt64)
	b.cmpRR(regAX, regCX)
	at = b.jccRel32(byte(ccJNE))
	b.use(noOverflow, at, patchRel32)

	b.movRegImm64(regCX, -1)
	b.cmpRR(regBX, regCX)
	at = b.jccRel32(byte(ccJNE))
	b.use(noOverflow, at, patchRel32)

	if wantRemainder {
		b.movRegImm64(regAX, 0)
	}
	at = b.jmpRel32()
	b.use(done, at, patchRel32)

	b.bind(noOverflow)
	b.cqo()
	b.idivR(regBX)
	if wantRemainder {
		b.movRegReg(regAX, regDX)
	}
	at = b.jmpRel32()
	b.use(done, at, patchRel32)

	b.bind(zero)
	b.movRegImm64(regAX, 0)

	b.bind(done)
}

func nativeCall(mem *execMem) Func {
	addr := uintptr(unsafe.Pointer(&mem.data[0]))
	return func(x, y expr.NumT) (expr.NumT, expr.NumT) {
		rx, ry := callAMD64(addr, int64(x), int64(y))
		return expr.NumT(rx), expr.NumT(ry)
	}
}

// callAMD64 is implemented in call_amd64.s: it bridges Go's calling
// convention to the SysV convention the generated code expects.
func callAMD64(code uintptr, x, y int64) (int64, int64)

//go:build arm64

package jit

import (
	"errors"
	"math"
	"unsafe"

	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/ops"
)

// AAPCS64 GPR numbering. X0/X1 carry the incoming x/y and the final x/y on
// return; the rest are free scratch for the lifetime of this leaf function,
// since nothing outside call_arm64.s's trampoline is relying on any
// callee-saved register surviving the call.
const (
	rA  = 0  // primary accumulator ("rax")
	rB  = 1  // secondary operand ("rbx")
	rC  = 2  // scratch ("rcx")
	rD  = 3  // scratch ("rdx")
	rZR = 31 // XZR in data-processing operand position
	rFP = 19 // frame base, snapshotted from SP in the prologue
)

const (
	slotX = -8
	slotY = -16
)

func slotOf(v expr.Var) int {
	if v == expr.X {
		return slotX
	}
	return slotY
}

func imm9(v int) uint32  { return uint32(v) & 0x1FF }
func imm12(v int) uint32 { return uint32(v) & 0xFFF }

func movz(rd int, imm16 uint16, hw uint32) uint32 {
	return 0xD2800000 | hw<<21 | uint32(imm16)<<5 | uint32(rd)
}
func movk(rd int, imm16 uint16, hw uint32) uint32 {
	return 0xF2800000 | hw<<21 | uint32(imm16)<<5 | uint32(rd)
}

func (b *buffer) movRegImm64(rd int, v int64) {
	u := uint64(v)
	b.emitU32LE(movz(rd, uint16(u), 0))
	b.emitU32LE(movk(rd, uint16(u>>16), 1))
	b.emitU32LE(movk(rd, uint16(u>>32), 2))
	b.emitU32LE(movk(rd, uint16(u>>48), 3))
}

func (b *buffer) movRegReg(rd, rm int) { b.emitU32LE(0xAA0003E0 | uint32(rm)<<16 | uint32(rd)) }

func (b *buffer) addRR(rd, rn, rm int) { b.emitU32LE(0x8B000000 | uint32(rm)<<16 | uint32(rn)<<5 | uint32(rd)) }
func (b *buffer) subRR(rd, rn, rm int) { b.emitU32LE(0xCB000000 | uint32(rm)<<16 | uint32(rn)<<5 | uint32(rd)) }
func (b *buffer) mulRR(rd, rn, rm int) { b.emitU32LE(0x9B007C00 | uint32(rm)<<16 | uint32(rn)<<5 | uint32(rd)) }
func (b *buffer) sdivRR(rd, rn, rm int) {
	b.emitU32LE(0x9AC00C00 | uint32(rm)<<16 | uint32(rn)<<5 | uint32(rd))
}
func (b *buffer) msubRR(rd, rn, rm, ra int) {
	b.emitU32LE(0x9B008000 | uint32(rm)<<16 | uint32(ra)<<10 | uint32(rn)<<5 | uint32(rd))
}
func (b *buffer) andRR(rd, rn, rm int) { b.emitU32LE(0x8A000000 | uint32(rm)<<16 | uint32(rn)<<5 | uint32(rd)) }
func (b *buffer) orrRR(rd, rn, rm int) { b.emitU32LE(0xAA000000 | uint32(rm)<<16 | uint32(rn)<<5 | uint32(rd)) }
func (b *buffer) eorRR(rd, rn, rm int) { b.emitU32LE(0xCA000000 | uint32(rm)<<16 | uint32(rn)<<5 | uint32(rd)) }

// mvnR computes rd = ^rm (ORN rd, XZR, rm).
func (b *buffer) mvnR(rd, rm int) { b.emitU32LE(0xAA2003E0 | uint32(rm)<<16 | uint32(rd)) }

// lslvRR/asrvRR shift by the register value modulo 64: AAPCS64 variable
// shifts mask the shift amount to the operand width in hardware, same as
// the count the interpreter's shiftCount already computes.
func (b *buffer) lslvRR(rd, rn, rm int) {
	b.emitU32LE(0x9AC02000 | uint32(rm)<<16 | uint32(rn)<<5 | uint32(rd))
}
func (b *buffer) asrvRR(rd, rn, rm int) {
	b.emitU32LE(0x9AC02800 | uint32(rm)<<16 | uint32(rn)<<5 | uint32(rd))
}

// cmpRR sets flags from rn-rm (SUBS XZR, rn, rm); rm may be rZR for a
// compare-to-zero.
func (b *buffer) cmpRR(rn, rm int) { b.emitU32LE(0xEB00001F | uint32(rm)<<16 | uint32(rn)<<5) }

func (b *buffer) addImm(rd, rn int, v int) { b.emitU32LE(0x91000000 | imm12(v)<<10 | uint32(rn)<<5 | uint32(rd)) }
func (b *buffer) subImm(rd, rn int, v int) { b.emitU32LE(0xD1000000 | imm12(v)<<10 | uint32(rn)<<5 | uint32(rd)) }

// pushReg/popReg pre/post-index on SP by 16 bytes, keeping SP 16-byte
// aligned throughout even though only the low 8 bytes of each slot hold a
// live value.
func (b *buffer) pushReg(rt int) { b.emitU32LE(0xF8000C00 | imm9(-16)<<12 | 31<<5 | uint32(rt)) }
func (b *buffer) popReg(rt int)  { b.emitU32LE(0xF8400400 | imm9(16)<<12 | 31<<5 | uint32(rt)) }

func (b *buffer) sturX(rt, rn, disp int) { b.emitU32LE(0xF8000000 | imm9(disp)<<12 | uint32(rn)<<5 | uint32(rt)) }
func (b *buffer) ldurX(rt, rn, disp int) { b.emitU32LE(0xF8400000 | imm9(disp)<<12 | uint32(rn)<<5 | uint32(rt)) }

const (
	ccEQ byte = 0x0
	ccNE byte = 0x1
	ccGE byte = 0xA
	ccLT byte = 0xB
	ccGT byte = 0xC
	ccLE byte = 0xD
)

func (b *buffer) bCond(cond byte) int {
	at := b.pos()
	b.emitU32LE(0x54000000 | uint32(cond))
	return at
}
func (b *buffer) bUncond() int {
	at := b.pos()
	b.emitU32LE(0x14000000)
	return at
}

func patchBCond(code []byte, at, target int) {
	delta := uint32((target - at) / 4)
	word := getU32LE(code, at)
	word = word&^(uint32(0x7FFFF)<<5) | (delta&0x7FFFF)<<5
	putU32LE(code, at, word)
}
func patchB(code []byte, at, target int) {
	delta := uint32((target - at) / 4)
	word := getU32LE(code, at)
	word = word&^uint32(0x3FFFFFF) | delta&0x3FFFFFF
	putU32LE(code, at, word)
}

// setFromCond materializes the flags set by a preceding cmpRR into a 0/1
// value in rA, mirroring the amd64 backend's setcc+movzx sequence without
// needing CSET's encoding.
func (b *buffer) setFromCond(cond byte) {
	trueL := newLabel()
	doneL := newLabel()
	at := b.bCond(cond)
	b.use(trueL, at, patchBCond)
	b.movRegImm64(rA, 0)
	at = b.bUncond()
	b.use(doneL, at, patchB)
	b.bind(trueL)
	b.movRegImm64(rA, 1)
	b.bind(doneL)
}

// assemble lowers the statement pair to AAPCS64-callable aarch64 machine
// code. Calling convention: X0=x, X1=y on entry; X0=x_final, X1=y_final on
// return, matching the amd64 backend's RAX/RBX dual-return shape.
func assemble(sx, sy *expr.Expr) ([]byte, error) {
	b := &buffer{}
	b.addImm(rFP, 31, 0) // mov x19, sp (snapshot, before any push)
	b.subImm(31, 31, 32) // sub sp, sp, #32: reserve slotX/slotY below x19, so the
	// first stack-machine pushReg (which pre-decrements sp by 16 from
	// whatever sp currently is) lands at x19-48 or lower and never
	// collides with the x19-8/x19-16 slots sturX is about to fill.
	b.sturX(0, rFP, slotX)
	b.sturX(1, rFP, slotY)

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

	b.ldurX(0, rFP, slotX)
	b.ldurX(1, rFP, slotY)
	b.addImm(31, rFP, 0) // mov sp, x19: discards any unbalanced push left by a statement's net result
	b.emitU32LE(0xD65F03C0) // ret
	return b.code, nil
}

func compileStatement(b *buffer, e *expr.Expr) error {
	return compileExpr(b, e)
}

func compileExpr(b *buffer, e *expr.Expr) error {
	switch e.Kind {
	case expr.KLit:
		b.movRegImm64(rA, int64(e.Lit))
		b.pushReg(rA)
	case expr.KVar:
		b.ldurX(rA, rFP, slotOf(e.V))
		b.pushReg(rA)
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
	b.popReg(rA)
	switch e.Op {
	case ops.Neg:
		b.subRR(rA, rZR, rA)
	case ops.BitNot:
		b.mvnR(rA, rA)
	case ops.LogNot:
		b.cmpRR(rA, rZR)
		b.setFromCond(ccEQ)
	default:
		return errors.New("jit: unsupported unary op")
	}
	b.pushReg(rA)
	return nil
}

func compileIncDec(b *buffer, e *expr.Expr) {
	disp := slotOf(e.V)
	b.ldurX(rA, rFP, disp) // old
	b.movRegReg(rC, rA)    // copy
	if ops.IncDecDelta(e.Op) > 0 {
		b.addImm(rC, rC, 1)
	} else {
		b.subImm(rC, rC, 1)
	}
	b.sturX(rC, rFP, disp) // store new
	if ops.IsPrefixIncDec(e.Op) {
		b.pushReg(rC)
	} else {
		b.pushReg(rA)
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
	b.popReg(rB)
	b.popReg(rA)
	if err := emitBinOp(b, e.Op); err != nil {
		return err
	}
	b.pushReg(rA)
	return nil
}

func compileLogical(b *buffer, e *expr.Expr, shortOnNonZero bool) error {
	if err := compileExpr(b, e.A); err != nil {
		return err
	}
	b.popReg(rA)
	b.cmpRR(rA, rZR)
	shortcut := newLabel()
	cond := ccEQ
	if shortOnNonZero {
		cond = ccNE
	}
	at := b.bCond(cond)
	b.use(shortcut, at, patchBCond)

	if err := compileExpr(b, e.B); err != nil {
		return err
	}
	b.popReg(rA)
	b.cmpRR(rA, rZR)
	b.setFromCond(ccNE)
	done := newLabel()
	at = b.bUncond()
	b.use(done, at, patchB)

	b.bind(shortcut)
	result := int64(0)
	if shortOnNonZero {
		result = 1
	}
	b.movRegImm64(rA, result)

	b.bind(done)
	b.pushReg(rA)
	return nil
}

func compilePow(b *buffer, e *expr.Expr) error {
	if err := compileExpr(b, e.A); err != nil {
		return err
	}
	if err := compileExpr(b, e.B); err != nil {
		return err
	}
	b.popReg(rB) // exponent
	b.popReg(rA) // base
	return finishPow(b)
}

// finishPow mirrors pkg/interp/arith.go's pow(): base 1 and -1 are handled
// by parity of the exponent, negative exponents otherwise collapse to 0,
// and non-negative exponents run an explicit multiply loop since both
// operands are only known at run time.
func finishPow(b *buffer) error {
	neg := newLabel()
	done := newLabel()
	loopTop := newLabel()
	loopDone := newLabel()

	b.movRegImm64(rC, 0)
	b.cmpRR(rB, rC)
	at := b.bCond(ccLT)
	b.use(neg, at, patchBCond)

	b.movRegImm64(rD, 1)
	b.movRegReg(rC, rB)
	b.bind(loopTop)
	b.cmpRR(rC, rZR)
	at = b.bCond(ccEQ)
	b.use(loopDone, at, patchBCond)
	b.mulRR(rD, rD, rA)
	b.subImm(rC, rC, 1)
	at = b.bUncond()
	b.use(loopTop, at, patchB)
	b.bind(loopDone)
	b.movRegReg(rA, rD)
	at = b.bUncond()
	b.use(done, at, patchB)

	b.bind(neg)
	b.movRegImm64(rC, 1)
	b.cmpRR(rA, rC)
	ccNeq1 := newLabel()
	at = b.bCond(ccNE)
	b.use(ccNeq1, at, patchBCond)
	b.movRegImm64(rA, 1)
	at = b.bUncond()
	b.use(done, at, patchB)

	b.bind(ccNeq1)
	b.movRegImm64(rC, -1)
	b.cmpRR(rA, rC)
	ccDefault := newLabel()
	at = b.bCond(ccNE)
	b.use(ccDefault, at, patchBCond)

	b.movRegImm64(rC, 1)
	b.andRR(rB, rB, rC)
	b.cmpRR(rB, rZR)
	even := newLabel()
	at = b.bCond(ccEQ)
	b.use(even, at, patchBCond)
	b.movRegImm64(rA, -1)
	at = b.bUncond()
	b.use(done, at, patchB)

	b.bind(even)
	b.movRegImm64(rA, 1)
	at = b.bUncond()
	b.use(done, at, patchB)

	b.bind(ccDefault)
	b.movRegImm64(rA, 0)

	b.bind(done)
	b.pushReg(rA)
	return nil
}

func compileAssign(b *buffer, e *expr.Expr) error {
	disp := slotOf(e.V)
	if e.Op != ops.Assign {
		// old value is read before the rhs runs, as pkg/interp's evalAssign does
		b.ldurX(rA, rFP, disp)
		b.pushReg(rA)
	}
	if err := compileExpr(b, e.B); err != nil {
		return err
	}
	b.popReg(rA) // rhs
	if e.Op == ops.Assign {
		b.sturX(rA, rFP, disp)
		b.pushReg(rA)
		return nil
	}
	b.movRegReg(rB, rA) // right = rhs
	b.popReg(rA)        // left = old
	under := underlyingBinOp(e.Op)
	if err := emitBinOp(b, under); err != nil {
		return err
	}
	b.sturX(rA, rFP, disp)
	b.pushReg(rA)
	return nil
}

// emitBinOp assumes left in rA, right in rB, and leaves the result in rA.
func emitBinOp(b *buffer, op ops.OpKind) error {
	switch op {
	case ops.Add:
		b.addRR(rA, rA, rB)
	case ops.Sub:
		b.subRR(rA, rA, rB)
	case ops.Mul:
		b.mulRR(rA, rA, rB)
	case ops.Div:
		emitDivMod(b, false)
	case ops.Mod:
		emitDivMod(b, true)
	case ops.BitOr:
		b.orrRR(rA, rA, rB)
	case ops.BitXor:
		b.eorRR(rA, rA, rB)
	case ops.BitAnd:
		b.andRR(rA, rA, rB)
	case ops.Shl:
		b.lslvRR(rA, rA, rB)
	case ops.Shr:
		b.asrvRR(rA, rA, rB)
	case ops.Eq:
		b.cmpRR(rA, rB)
		b.setFromCond(ccEQ)
	case ops.Ne:
		b.cmpRR(rA, rB)
		b.setFromCond(ccNE)
	case ops.Lt:
		b.cmpRR(rA, rB)
		b.setFromCond(ccLT)
	case ops.Gt:
		b.cmpRR(rA, rB)
		b.setFromCond(ccGT)
	case ops.Le:
		b.cmpRR(rA, rB)
		b.setFromCond(ccLE)
	case ops.Ge:
		b.cmpRR(rA, rB)
		b.setFromCond(ccGE)
	default:
		return errors.New("jit: unsupported binary op")
	}
	return nil
}

// emitDivMod assumes rA=dividend, rB=divisor, and matches pkg/interp's
// divWrap/modWrap: division by zero yields 0, and MinInt64/-1 yields
// MinInt64 (0 for the modulo case) instead of trapping (aarch64's SDIV
// already returns 0 for a zero divisor, but not the MinInt64/-1 case, so
// both are still checked explicitly for parity with the interpreter).
func emitDivMod(b *buffer, wantRemainder bool) {
	zero := newLabel()
	noOverflow := newLabel()
	done := newLabel()

	b.cmpRR(rB, rZR)
	at := b.bCond(ccEQ)
	b.use(zero, at, patchBCond)

	b.movRegImm64(rC, math.MinInt64)
	b.cmpRR(rA, rC)
	at = b.bCond(ccNE)
	b.use(noOverflow, at, patchBCond)

	b.movRegImm64(rC, -1)
	b.cmpRR(rB, rC)
	at = b.bCond(ccNE)
	b.use(noOverflow, at, patchBCond)

	if wantRemainder {
		b.movRegImm64(rA, 0)
	}
	at = b.bUncond()
	b.use(done, at, patchB)

	b.bind(noOverflow)
	b.sdivRR(rD, rA, rB)
	if wantRemainder {
		b.msubRR(rA, rD, rB, rA)
	} else {
		b.movRegReg(rA, rD)
	}
	at = b.bUncond()
	b.use(done, at, patchB)

	b.bind(zero)
	b.movRegImm64(rA, 0)

	b.bind(done)
}

func nativeCall(mem *execMem) Func {
	addr := uintptr(unsafe.Pointer(&mem.data[0]))
	return func(x, y expr.NumT) (expr.NumT, expr.NumT) {
		rx, ry := callARM64(addr, int64(x), int64(y))
		return expr.NumT(rx), expr.NumT(ry)
	}
}

// callARM64 is implemented in call_arm64.s: it bridges Go's calling
// convention to the AAPCS64 convention the generated code expects.
func callARM64(code uintptr, x, y int64) (int64, int64)

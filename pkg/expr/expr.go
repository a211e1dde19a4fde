// Package expr defines the tagged-variant expression tree (§3 Expr) used
// throughout the engine: literals, variables, unary/binary operators,
// inc/dec, and assignment, plus the minimal-parenthesization printer.
//
// Nodes are immutable once constructed (§3 "Lifecycle") and are held by
// value inside banks; traversal is by structural dispatch on Kind, not by
// virtual methods (§9 "Tagged variant Expr").
package expr

import "github.com/rucin93/exprsearch/pkg/ops"

// NumT is the machine numeric type (§3). All arithmetic wraps on overflow;
// the interpreter and the JIT backend must agree on this width bit-for-bit.
type NumT = int64

// Var identifies one of the two mutable variables.
type Var uint8

const (
	X Var = iota
	Y
)

func (v Var) String() string {
	if v == X {
		return "x"
	}
	return "y"
}

// Kind tags the variant held by an Expr node.
type Kind uint8

const (
	KLit Kind = iota
	KVar
	KUnary
	KBinary
	KIncDec
	KAssign
)

// Expr is the tagged-variant expression tree node. Only the fields that
// apply to Kind are meaningful; callers dispatch on Kind, never on which
// fields happen to be non-zero.
type Expr struct {
	Kind Kind

	Lit NumT   // KLit
	V   Var    // KVar, KIncDec target, KAssign target
	Op  ops.OpKind // KUnary, KBinary, KIncDec, KAssign

	A *Expr // KUnary operand; KBinary left
	B *Expr // KBinary right; KAssign rhs
}

// NewLit builds a literal node.
func NewLit(n NumT) *Expr {
	return &Expr{Kind: KLit, Lit: n}
}

// NewVar builds a variable-reference node.
func NewVar(v Var) *Expr {
	return &Expr{Kind: KVar, V: v}
}

// NewUnary builds a unary-prefix node. op must be one of ops.Neg, ops.BitNot,
// ops.LogNot.
func NewUnary(op ops.OpKind, child *Expr) *Expr {
	if ops.Get(op).Arity != 1 || ops.Get(op).SideEffect {
		panic("expr: NewUnary requires a side-effect-free unary operator")
	}
	return &Expr{Kind: KUnary, Op: op, A: child}
}

// NewBinary builds a binary node. op must be one of the non-assign binary
// operators.
func NewBinary(op ops.OpKind, left, right *Expr) *Expr {
	if ops.Get(op).Arity != 2 || ops.Get(op).SideEffect {
		panic("expr: NewBinary requires a side-effect-free binary operator")
	}
	return &Expr{Kind: KBinary, Op: op, A: left, B: right}
}

// NewIncDec builds an inc/dec node. Invariant (1) of §3: the operand of
// inc/dec is always a Var — enforced here structurally by taking a Var
// directly rather than a generic *Expr, so there is no invalid state to
// reject at construction time.
func NewIncDec(op ops.OpKind, v Var) *Expr {
	info := ops.Get(op)
	if !info.SideEffect || !info.LvalueRequired || info.Arity != 1 {
		panic("expr: NewIncDec requires an inc/dec operator")
	}
	return &Expr{Kind: KIncDec, Op: op, V: v}
}

// NewAssign builds an assignment node. Invariant (1) of §3: the left
// operand of assign is always a Var — enforced structurally the same way
// as NewIncDec.
func NewAssign(op ops.OpKind, v Var, rhs *Expr) *Expr {
	info := ops.Get(op)
	if !info.SideEffect || !info.LvalueRequired || info.Arity != 2 {
		panic("expr: NewAssign requires an assign operator")
	}
	return &Expr{Kind: KAssign, Op: op, V: v, B: rhs}
}

// HasSideEffect reports whether the root operator of e mutates a variable.
func (e *Expr) HasSideEffect() bool {
	switch e.Kind {
	case KIncDec, KAssign:
		return true
	default:
		return false
	}
}

// Target returns the variable a statement root writes, and ok=false if e is
// not a statement (§3 "Statement").
func (e *Expr) Target() (v Var, ok bool) {
	switch e.Kind {
	case KIncDec, KAssign:
		return e.V, true
	default:
		return 0, false
	}
}

// precedenceOf returns the precedence of e's root for parenthesization
// purposes. Leaves never need parens, so they report a precedence higher
// than any operator's.
const leafPrecedence = 1 << 30

func precedenceOf(e *Expr) int {
	switch e.Kind {
	case KLit, KVar:
		return leafPrecedence
	default:
		return ops.Get(e.Op).Precedence
	}
}

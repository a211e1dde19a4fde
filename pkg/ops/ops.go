// Package ops defines the operator vocabulary of the expression DSL: kind,
// arity, precedence, associativity, and side-effect/lvalue metadata for
// every operator the generator and printer need to agree on.
package ops

// OpKind is a compact identifier for one operator. Like the teacher's
// instruction OpCode, it is its own enum rather than a raw token — several
// operators share surface glyphs in other contexts (e.g. "-" is both binary
// subtraction and unary negation) but are always distinct OpKinds here.
type OpKind uint8

// Associativity of a binary or assign operator.
type Associativity uint8

const (
	LeftAssoc Associativity = iota
	RightAssoc
)

const (
	// === Binary ===
	Add OpKind = iota
	Sub
	Mul
	Div
	Mod
	Pow
	BitOr
	BitXor
	BitAnd
	Shl
	Shr
	Eq
	Ne
	Lt
	Gt
	Le
	Ge
	LogOr
	LogAnd

	// === Unary prefix ===
	Neg
	BitNot
	LogNot

	// === Inc/dec ===
	PreInc
	PreDec
	PostInc
	PostDec

	// === Assign ===
	Assign
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	ModAssign
	OrAssign
	XorAssign
	AndAssign
	ShlAssign
	ShrAssign

	opKindCount
)

// Info holds static metadata for one operator.
type Info struct {
	Kind            OpKind
	Glyph           string
	Precedence      int // higher binds tighter
	Assoc           Associativity
	SideEffect      bool // true for assign and inc/dec
	LvalueRequired  bool // true when the left operand (or sole operand) must be a Var
	Arity           int  // 1 (unary/incdec) or 2 (binary/assign)
}

// catalog maps each OpKind to its Info. Populated by init, mirroring the
// teacher's Catalog [OpCodeCount]Info table-over-enum shape.
var catalog [opKindCount]Info

func reg(k OpKind, glyph string, prec int, assoc Associativity, sideEffect, lvalue bool, arity int) {
	catalog[k] = Info{
		Kind:           k,
		Glyph:          glyph,
		Precedence:     prec,
		Assoc:          assoc,
		SideEffect:     sideEffect,
		LvalueRequired: lvalue,
		Arity:          arity,
	}
}

// Precedence tiers, highest binds tightest. ** sits above * per §4.1.
const (
	precAssign = 1
	precLogOr  = 2
	precLogAnd = 3
	precBitOr  = 4
	precBitXor = 5
	precBitAnd = 6
	precEq     = 7
	precRel    = 8
	precShift  = 9
	precAdd    = 10
	precMul    = 11
	precPow    = 12
	precUnary  = 13
	precIncDec = 14
)

func init() {
	reg(Add, "+", precAdd, LeftAssoc, false, false, 2)
	reg(Sub, "-", precAdd, LeftAssoc, false, false, 2)
	reg(Mul, "*", precMul, LeftAssoc, false, false, 2)
	reg(Div, "/", precMul, LeftAssoc, false, false, 2)
	reg(Mod, "%", precMul, LeftAssoc, false, false, 2)
	reg(Pow, "**", precPow, RightAssoc, false, false, 2)
	reg(BitOr, "|", precBitOr, LeftAssoc, false, false, 2)
	reg(BitXor, "^", precBitXor, LeftAssoc, false, false, 2)
	reg(BitAnd, "&", precBitAnd, LeftAssoc, false, false, 2)
	reg(Shl, "<<", precShift, LeftAssoc, false, false, 2)
	reg(Shr, ">>", precShift, LeftAssoc, false, false, 2)
	reg(Eq, "==", precEq, LeftAssoc, false, false, 2)
	reg(Ne, "!=", precEq, LeftAssoc, false, false, 2)
	reg(Lt, "<", precRel, LeftAssoc, false, false, 2)
	reg(Gt, ">", precRel, LeftAssoc, false, false, 2)
	reg(Le, "<=", precRel, LeftAssoc, false, false, 2)
	reg(Ge, ">=", precRel, LeftAssoc, false, false, 2)
	reg(LogOr, "||", precLogOr, LeftAssoc, false, false, 2)
	reg(LogAnd, "&&", precLogAnd, LeftAssoc, false, false, 2)

	reg(Neg, "-", precUnary, RightAssoc, false, false, 1)
	reg(BitNot, "~", precUnary, RightAssoc, false, false, 1)
	reg(LogNot, "!", precUnary, RightAssoc, false, false, 1)

	reg(PreInc, "++", precIncDec, RightAssoc, true, true, 1)
	reg(PreDec, "--", precIncDec, RightAssoc, true, true, 1)
	reg(PostInc, "++", precIncDec, LeftAssoc, true, true, 1)
	reg(PostDec, "--", precIncDec, LeftAssoc, true, true, 1)

	reg(Assign, "=", precAssign, RightAssoc, true, true, 2)
	reg(AddAssign, "+=", precAssign, RightAssoc, true, true, 2)
	reg(SubAssign, "-=", precAssign, RightAssoc, true, true, 2)
	reg(MulAssign, "*=", precAssign, RightAssoc, true, true, 2)
	reg(DivAssign, "/=", precAssign, RightAssoc, true, true, 2)
	reg(ModAssign, "%=", precAssign, RightAssoc, true, true, 2)
	reg(OrAssign, "|=", precAssign, RightAssoc, true, true, 2)
	reg(XorAssign, "^=", precAssign, RightAssoc, true, true, 2)
	reg(AndAssign, "&=", precAssign, RightAssoc, true, true, 2)
	reg(ShlAssign, "<<=", precAssign, RightAssoc, true, true, 2)
	reg(ShrAssign, ">>=", precAssign, RightAssoc, true, true, 2)
}

// Get returns the metadata for an operator.
func Get(k OpKind) Info {
	return catalog[k]
}

// GlyphLen returns the character length of the operator's printed glyph.
func GlyphLen(k OpKind) int {
	return len(catalog[k].Glyph)
}

// Config enables/disables operator subsets. A nil slice means "none enabled".
type Config struct {
	Binary []OpKind
	Unary  []OpKind
	Assign []OpKind
	IncDec []OpKind
}

// DefaultConfig enables every operator defined above.
func DefaultConfig() Config {
	return Config{
		Binary: []OpKind{Add, Sub, Mul, Div, Mod, Pow, BitOr, BitXor, BitAnd, Shl, Shr, Eq, Ne, Lt, Gt, Le, Ge, LogOr, LogAnd},
		Unary:  []OpKind{Neg, BitNot, LogNot},
		Assign: []OpKind{Assign, AddAssign, SubAssign, MulAssign, DivAssign, ModAssign, OrAssign, XorAssign, AndAssign, ShlAssign, ShrAssign},
		IncDec: []OpKind{PreInc, PreDec, PostInc, PostDec},
	}
}

// OpsBinary returns the enabled binary operator subset, honoring §4.1.
func (c Config) OpsBinary() []OpKind { return c.Binary }

// OpsUnary returns the enabled unary-prefix operator subset.
func (c Config) OpsUnary() []OpKind { return c.Unary }

// OpsAssign returns the enabled assign operator subset.
func (c Config) OpsAssign() []OpKind { return c.Assign }

// OpsIncDec returns the enabled inc/dec operator subset.
func (c Config) OpsIncDec() []OpKind { return c.IncDec }

// Empty reports whether the configuration has no usable operator at all —
// a configuration error per §7(a).
func (c Config) Empty() bool {
	return len(c.Binary) == 0 && len(c.Unary) == 0 && len(c.Assign) == 0 && len(c.IncDec) == 0
}

// IsPrefixIncDec reports whether the inc/dec kind prints before its operand.
func IsPrefixIncDec(k OpKind) bool {
	return k == PreInc || k == PreDec
}

// IncDecDelta returns +1 for increment kinds, -1 for decrement kinds.
func IncDecDelta(k OpKind) int64 {
	if k == PreInc || k == PostInc {
		return 1
	}
	return -1
}

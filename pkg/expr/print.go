package expr

import "github.com/rucin93/exprsearch/pkg/ops"

// Print renders e in minimal-parenthesization form (§4.2), adding
// parentheses freely wherever precedence or token-adjacency requires them.
func Print(e *Expr) string {
	s, _ := printWith(e, true)
	return s
}

// PrintStrict renders e the same way but reports ok=false instead of
// inserting a parenthesis — used by the generator when USE_PARENS is
// false (§4.2): "enumeration skips constructions whose minimal print
// would require parentheses."
func PrintStrict(e *Expr) (string, bool) {
	return printWith(e, false)
}

// Length is the sole cost measure (§3): the character count the canonical
// printer would emit for e under the given parenthesization policy.
func Length(e *Expr, allowParens bool) (int, bool) {
	var s string
	var ok bool
	if allowParens {
		s, ok = Print(e), true
	} else {
		s, ok = PrintStrict(e)
	}
	if !ok {
		return 0, false
	}
	return len(s), true
}

func paren(s string) string { return "(" + s + ")" }

// hazard reports whether concatenating text ending in last and text
// starting with first could be re-tokenized as a longer operator glyph
// than intended (maximal-munch ambiguity, e.g. "a+++y" for a + (++y)).
// Only '+' and '-' can ever start a subexpression's print in this grammar
// (via unary Neg or prefix inc/dec), so those are the only hazard chars.
func hazard(last, first byte) bool {
	return (last == '+' && first == '+') || (last == '-' && first == '-')
}

func lastByte(s string) byte {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

func firstByte(s string) byte {
	if len(s) == 0 {
		return 0
	}
	return s[0]
}

// needsParensPrecedence implements §4.2's rule: a child is parenthesized
// iff omitting parentheses would change parse (strictly lower precedence
// than its parent, or equal precedence on the non-associative side).
func needsParensPrecedence(child *Expr, parent ops.Info, isRight bool) bool {
	cp := precedenceOf(child)
	if cp < parent.Precedence {
		return true
	}
	if cp == parent.Precedence {
		if isRight && parent.Assoc == ops.LeftAssoc {
			return true
		}
		if !isRight && parent.Assoc == ops.RightAssoc {
			return true
		}
	}
	return false
}

// printChild prints child in the context of parent operator, adding a
// precedence-forced parenthesis if required. Hazard-forced parens (token
// adjacency) are handled by the caller once it has both fragments in hand.
func printChild(child *Expr, parent ops.Info, isRight, allowParens bool) (string, bool) {
	s, ok := printWith(child, allowParens)
	if !ok {
		return "", false
	}
	if needsParensPrecedence(child, parent, isRight) {
		if !allowParens {
			return "", false
		}
		s = paren(s)
	}
	return s, true
}

func printWith(e *Expr, allowParens bool) (string, bool) {
	switch e.Kind {
	case KLit:
		return formatLit(e.Lit), true
	case KVar:
		return e.V.String(), true
	case KUnary:
		return printUnary(e, allowParens)
	case KBinary:
		return printBinary(e, allowParens)
	case KIncDec:
		return printIncDec(e), true
	case KAssign:
		return printAssign(e, allowParens)
	default:
		panic("expr: unknown Kind")
	}
}

func printUnary(e *Expr, allowParens bool) (string, bool) {
	info := ops.Get(e.Op)
	cs, ok := printChild(e.A, info, true, allowParens)
	if !ok {
		return "", false
	}
	if hazard(lastByte(info.Glyph), firstByte(cs)) {
		if !allowParens {
			return "", false
		}
		cs = paren(cs)
	}
	return info.Glyph + cs, true
}

func printBinary(e *Expr, allowParens bool) (string, bool) {
	info := ops.Get(e.Op)
	ls, ok := printChild(e.A, info, false, allowParens)
	if !ok {
		return "", false
	}
	rs, ok := printChild(e.B, info, true, allowParens)
	if !ok {
		return "", false
	}
	if hazard(lastByte(ls), firstByte(info.Glyph)) {
		if !allowParens {
			return "", false
		}
		ls = paren(ls)
	}
	if hazard(lastByte(info.Glyph), firstByte(rs)) {
		if !allowParens {
			return "", false
		}
		rs = paren(rs)
	}
	return ls + info.Glyph + rs, true
}

func printIncDec(e *Expr) string {
	info := ops.Get(e.Op)
	if ops.IsPrefixIncDec(e.Op) {
		return info.Glyph + e.V.String()
	}
	return e.V.String() + info.Glyph
}

func printAssign(e *Expr, allowParens bool) (string, bool) {
	info := ops.Get(e.Op)
	rs, ok := printChild(e.B, info, true, allowParens)
	if !ok {
		return "", false
	}
	if hazard(lastByte(info.Glyph), firstByte(rs)) {
		if !allowParens {
			return "", false
		}
		rs = paren(rs)
	}
	return e.V.String() + info.Glyph + rs, true
}

// formatLit prints an integer literal in decimal, with a leading '-' for a
// negative value. The generator places each configured literal at the
// length of this printed form, so multi-digit and negative literals become
// leaves of that length.
func formatLit(n NumT) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [24]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Package bank builds the length-indexed expression and statement banks
// (§4.4/§4.5 C4+C5): a classifier that collapses observationally equivalent
// expressions onto one representative per class, and a generator that grows
// ExprBank[L]/StmtBank[L] from length 1 up to the cached length bound.
//
// Grounded on the teacher's pkg/search/fingerprint.go (a fixed probe-state
// vector hashed into an equivalence key) and enumerator.go/pruner.go (the
// length-indexed, shorter-survivors-only construction order).
package bank

import (
	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/interp"
)

// probeLo/probeHi bound the fixed 9x9 probe grid D = {-4..4} x {-4..4}
// (§4.4): large enough in practice to separate genuinely different
// expressions, never proven complete.
const (
	probeLo = -4
	probeHi = 4
	probeN  = probeHi - probeLo + 1
	ProbeCount = probeN * probeN
)

// probePoint is one (x, y) sample in the fixed canonical probe order.
type probePoint struct{ X, Y expr.NumT }

// probeDomain is computed once: x varies in the outer loop, y in the inner
// loop, both ascending, giving a stable canonical order independent of map
// iteration or goroutine scheduling.
var probeDomain = buildProbeDomain()

func buildProbeDomain() [ProbeCount]probePoint {
	var d [ProbeCount]probePoint
	i := 0
	for x := expr.NumT(probeLo); x <= probeHi; x++ {
		for y := expr.NumT(probeLo); y <= probeHi; y++ {
			d[i] = probePoint{X: x, Y: y}
			i++
		}
	}
	return d
}

// Fingerprint is the observational-equivalence key of a plain expression
// (§4.4): its value at every probe point, evaluated from a fresh state each
// time so the expression's own side effects never leak between probes.
type Fingerprint [ProbeCount]expr.NumT

// ComputeFingerprint computes e's value fingerprint.
func ComputeFingerprint(e *expr.Expr) Fingerprint {
	var fp Fingerprint
	for i, p := range probeDomain {
		s := interp.State{X: p.X, Y: p.Y}
		fp[i] = interp.Eval(&s, e)
	}
	return fp
}

// IsConstant reports whether fp is the same value at every probe point —
// the PRUNE_CONST_EXPR test (§4.5): an expression whose value never
// depends on x or y within the probe domain.
func (fp Fingerprint) IsConstant() bool {
	for i := 1; i < ProbeCount; i++ {
		if fp[i] != fp[0] {
			return false
		}
	}
	return true
}

// StmtFingerprint is the observational-equivalence key of a statement
// (§3 "Statement"): its value AND the resulting (x, y) state at every probe
// point, since two statements with the same value but different mutation
// are not interchangeable as statements.
type StmtFingerprint struct {
	Value  [ProbeCount]expr.NumT
	XAfter [ProbeCount]expr.NumT
	YAfter [ProbeCount]expr.NumT
}

// ComputeStmtFingerprint evaluates e (whose root must be a statement) at
// every probe point and records both its value and the post-state.
func ComputeStmtFingerprint(e *expr.Expr) StmtFingerprint {
	var fp StmtFingerprint
	for i, p := range probeDomain {
		s := interp.State{X: p.X, Y: p.Y}
		fp.Value[i] = interp.Eval(&s, e)
		fp.XAfter[i] = s.X
		fp.YAfter[i] = s.Y
	}
	return fp
}

// IsNoOp reports whether the statement's target variable is unchanged at
// every probe point — the rejection rule for "no-op" statement candidates
// such as "x += 0" (§4.5, §9 Open Question resolved in DESIGN.md: the
// candidate is still rejected as a no-op even though its rhs is a literal
// zero, since the generator only looks at observed behavior, not syntax).
func (fp StmtFingerprint) IsNoOp(target expr.Var) bool {
	after := fp.XAfter
	if target == expr.Y {
		after = fp.YAfter
	}
	for i, p := range probeDomain {
		want := p.X
		if target == expr.Y {
			want = p.Y
		}
		if after[i] != want {
			return false
		}
	}
	return true
}

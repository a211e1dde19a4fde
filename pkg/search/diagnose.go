package search

import (
	"fmt"

	"github.com/rucin93/exprsearch/pkg/bank"
	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/interp"
)

// Diagnosis is the result of inspecting one statement pair outside a full
// batch search, the way the teacher's target/verify commands
// let an operator inspect one candidate sequence by hand.
type Diagnosis struct {
	PrintSx string
	PrintSy string
	LengthX int
	LengthY int
	// PairFingerprint is sy's statement fingerprint evaluated after sx has
	// already run at each probe point, the same post-sx state the search
	// driver's match loop feeds it.
	PairFingerprint bank.StmtFingerprint
}

// Diagnose returns sx's and sy's canonical prints and their printed lengths,
// and the fingerprint the pair would be classified under inside a
// real search run (sy evaluated immediately after sx at every probe point).
func Diagnose(sx, sy *expr.Expr, useParens bool) (Diagnosis, error) {
	if sx == nil || !sx.HasSideEffect() {
		return Diagnosis{}, fmt.Errorf("search: diagnose requires a statement for sx")
	}
	if sy == nil || !sy.HasSideEffect() {
		return Diagnosis{}, fmt.Errorf("search: diagnose requires a statement for sy")
	}

	lx, ok := expr.Length(sx, useParens)
	if !ok {
		return Diagnosis{}, fmt.Errorf("search: sx has no valid printed length")
	}
	ly, ok := expr.Length(sy, useParens)
	if !ok {
		return Diagnosis{}, fmt.Errorf("search: sy has no valid printed length")
	}

	return Diagnosis{
		PrintSx:         expr.Print(sx),
		PrintSy:         expr.Print(sy),
		LengthX:         lx,
		LengthY:         ly,
		PairFingerprint: pairFingerprint(sx, sy),
	}, nil
}

// pairFingerprint evaluates sx then sy at every probe point bank.Fingerprint
// uses, so a diagnosed pair can be compared against the same equivalence
// classes the search driver and its banks use.
func pairFingerprint(sx, sy *expr.Expr) bank.StmtFingerprint {
	var fp bank.StmtFingerprint
	for i := 0; i < bank.ProbeCount; i++ {
		x, y := probeCoords(i)
		s := interp.State{X: x, Y: y}
		interp.Eval(&s, sx)
		fp.Value[i] = interp.Eval(&s, sy)
		fp.XAfter[i] = s.X
		fp.YAfter[i] = s.Y
	}
	return fp
}

// probeCoords reproduces the bank package's fixed 9x9 probe domain order
// (x outer, y inner, both ascending over -4..4) without depending on its
// unexported domain slice.
func probeCoords(i int) (x, y expr.NumT) {
	const lo, n = -4, 9
	return expr.NumT(lo + i/n), expr.NumT(lo + i%n)
}

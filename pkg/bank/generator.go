package bank

import (
	"errors"
	"runtime"
	"sync"

	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/ops"
)

// Config controls bank construction (§4.5, §7 knobs LITERALS/USE_PARENS/
// PRUNE_CONST_EXPR/MAX_CACHE_LENGTH).
type Config struct {
	Ops            ops.Config
	Literals       []expr.NumT
	UseParens      bool
	PruneConstExpr bool
	MaxLength      int
	Workers        int // 0 selects runtime.GOMAXPROCS(0)
}

// Bank holds the length-indexed banks built by Build: the general
// expression bank (§4.4 ExprBank) and the two statement banks, one per
// target variable (§3 "Statement", §4.5 StmtBank).
type Bank struct {
	MaxLength int
	Expr      map[int][]*expr.Expr
	StmtX     map[int][]*expr.Expr
	StmtY     map[int][]*expr.Expr
}

// ExprLen returns the representatives of length L (nil if none).
func (b *Bank) ExprLen(L int) []*expr.Expr { return b.Expr[L] }

// StmtLen returns the statement representatives of length L that target v.
func (b *Bank) StmtLen(v expr.Var, L int) []*expr.Expr {
	if v == expr.X {
		return b.StmtX[L]
	}
	return b.StmtY[L]
}

var errEmptyOps = errors.New("bank: operator configuration is empty")

// Build grows Bank from length 1 to cfg.MaxLength (§4.5): leaves, then
// unary, then binary, then assign/inc-dec, each length built only from
// already-committed shorter representatives. Within one length, candidate
// printing (the real-length check) is computed by a worker pool (propose
// phase); fingerprinting and classifier admission are then done sequentially
// in the same fixed order the candidates were proposed in, so the resulting banks are
// reproducible regardless of how goroutines were scheduled (§4.5 "given the
// same configuration, the bank is reproducible run to run").
func Build(cfg Config) (*Bank, error) {
	if cfg.Ops.Empty() {
		return nil, errEmptyOps
	}
	if cfg.MaxLength < 1 {
		return nil, errors.New("bank: MaxLength must be >= 1")
	}

	literalsByLen := groupLiteralsByLength(cfg.Literals, cfg.UseParens)

	b := &Bank{
		MaxLength: cfg.MaxLength,
		Expr:      make(map[int][]*expr.Expr),
		StmtX:     make(map[int][]*expr.Expr),
		StmtY:     make(map[int][]*expr.Expr),
	}

	exprClass := newClassifier[Fingerprint]()
	stmtClassX := newClassifier[StmtFingerprint]()
	stmtClassY := newClassifier[StmtFingerprint]()

	for L := 1; L <= cfg.MaxLength; L++ {
		jobs := proposeLength(b, cfg, L, literalsByLen)
		commitLength(b, cfg, L, jobs, exprClass, stmtClassX, stmtClassY)
	}
	return b, nil
}

// groupLiteralsByLength precomputes each configured literal's printed
// length once, since it never depends on L.
func groupLiteralsByLength(lits []expr.NumT, useParens bool) map[int][]expr.NumT {
	out := make(map[int][]expr.NumT)
	for _, v := range lits {
		n, ok := expr.Length(expr.NewLit(v), useParens)
		if !ok {
			continue
		}
		out[n] = append(out[n], v)
	}
	return out
}

// proposeLength builds every structurally-feasible candidate of length L
// (leaves, unary, binary, assign, inc/dec, in that fixed order) and
// resolves each one's actual printed length concurrently, returning only
// the ones whose real length equals L, in proposal order.
func proposeLength(b *Bank, cfg Config, L int, literalsByLen map[int][]expr.NumT) []*expr.Expr {
	var candidates []*expr.Expr

	if L == 1 {
		candidates = append(candidates, expr.NewVar(expr.X), expr.NewVar(expr.Y))
	}
	for _, v := range literalsByLen[L] {
		candidates = append(candidates, expr.NewLit(v))
	}

	for _, op := range cfg.Ops.OpsUnary() {
		g := ops.GlyphLen(op)
		for childLen := 1; childLen <= L-g; childLen++ {
			for _, child := range b.Expr[childLen] {
				candidates = append(candidates, expr.NewUnary(op, child))
			}
		}
	}

	for _, op := range cfg.Ops.OpsBinary() {
		g := ops.GlyphLen(op)
		for la := 1; la <= L-g-1; la++ {
			maxLb := L - g - la
			for lb := 1; lb <= maxLb; lb++ {
				lefts := b.Expr[la]
				rights := b.Expr[lb]
				for _, left := range lefts {
					for _, right := range rights {
						candidates = append(candidates, expr.NewBinary(op, left, right))
					}
				}
			}
		}
	}

	for _, op := range cfg.Ops.OpsAssign() {
		g := ops.GlyphLen(op)
		for _, v := range [2]expr.Var{expr.X, expr.Y} {
			for rhsLen := 1; rhsLen <= L-1-g; rhsLen++ {
				for _, rhs := range b.Expr[rhsLen] {
					candidates = append(candidates, expr.NewAssign(op, v, rhs))
				}
			}
		}
	}

	if L == 3 {
		for _, op := range cfg.Ops.OpsIncDec() {
			for _, v := range [2]expr.Var{expr.X, expr.Y} {
				candidates = append(candidates, expr.NewIncDec(op, v))
			}
		}
	}

	return filterByRealLength(candidates, L, cfg.UseParens, cfg.Workers)
}

// filterByRealLength resolves each candidate's real printed length
// concurrently (parentheses can make it longer than its structural length)
// and keeps the ones matching target, in original order. numWorkers <= 0
// selects runtime.GOMAXPROCS(0), honoring Config.Workers (§6 "Workers").
func filterByRealLength(candidates []*expr.Expr, target int, useParens bool, numWorkers int) []*expr.Expr {
	if len(candidates) == 0 {
		return nil
	}
	keep := make([]bool, len(candidates))

	workers := numWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}
	if workers < 1 {
		workers = 1
	}

	idx := make(chan int, len(candidates))
	for i := range candidates {
		idx <- i
	}
	close(idx)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				n, ok := expr.Length(candidates[i], useParens)
				keep[i] = ok && n == target
			}
		}()
	}
	wg.Wait()

	out := make([]*expr.Expr, 0, len(candidates))
	for i, k := range keep {
		if k {
			out = append(out, candidates[i])
		}
	}
	return out
}

// commitLength replays the proposed candidates sequentially, admitting each
// survivor into the general expression classifier and, independently, any
// statement root into the matching target-variable statement classifier.
//
// The two admissions are deliberately independent: an assign/inc-dec node's
// VALUE fingerprint always equals its rhs's (evaluating "x=y" yields
// exactly y's value at every probe), so it routinely collides with an
// already-admitted plain subexpression and is rejected as a reusable
// subexpression. That rejection must not also suppress it as a statement —
// a statement is judged by its own fingerprint, value plus post-state,
// which very rarely collides with a pure expression's.
func commitLength(b *Bank, cfg Config, L int, jobs []*expr.Expr, exprClass *classifier[Fingerprint], stmtClassX, stmtClassY *classifier[StmtFingerprint]) {
	for _, cand := range jobs {
		fp := ComputeFingerprint(cand)
		pruned := cfg.PruneConstExpr && cand.Kind != expr.KLit && fp.IsConstant()
		if !pruned && exprClass.admit(fp) {
			b.Expr[L] = append(b.Expr[L], cand)
		}

		if !cand.HasSideEffect() {
			continue
		}
		target, _ := cand.Target()
		sfp := ComputeStmtFingerprint(cand)
		if sfp.IsNoOp(target) {
			continue
		}
		sc := stmtClassX
		if target == expr.Y {
			sc = stmtClassY
		}
		if !sc.admit(sfp) {
			continue
		}
		if target == expr.X {
			b.StmtX[L] = append(b.StmtX[L], cand)
		} else {
			b.StmtY[L] = append(b.StmtY[L], cand)
		}
	}
}

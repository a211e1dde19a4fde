package search

import (
	"github.com/rucin93/exprsearch/pkg/bank"
	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/ops"
)

// dfsSession carries the transient, call-local equivalence classifiers used
// to extend a bank past its cached length bound (§4.7 Phase 2: "statements
// beyond the cache bound are enumerated by depth-first search ... not stored
// globally; they are tested in-place and discarded. Equivalence pruning
// still applies locally, within the scope of one such search call.").
//
// It reuses the bank package's own probe-based fingerprints so local pruning
// collapses the same equivalence classes the cached banks do, just without
// ever writing the result back into *bank.Bank.
type dfsSession struct {
	b   *bank.Bank
	cfg dfsConfig

	literalsByLen map[int][]expr.NumT

	exprSeen map[bank.Fingerprint]struct{}
	stmtSeen map[expr.Var]map[bank.StmtFingerprint]struct{}
	exprMemo map[int][]*expr.Expr
	stmtMemo map[expr.Var]map[int][]*expr.Expr
}

// dfsConfig is the subset of search.Config a DFS extension needs.
type dfsConfig struct {
	Ops            ops.Config
	Literals       []expr.NumT
	UseParens      bool
	PruneConstExpr bool
	MaxCacheLength int
}

func newDFSSession(b *bank.Bank, cfg dfsConfig) *dfsSession {
	return &dfsSession{
		b:             b,
		cfg:           cfg,
		literalsByLen: groupLiteralsByLength(cfg.Literals, cfg.UseParens),
		exprSeen:      make(map[bank.Fingerprint]struct{}),
		stmtSeen: map[expr.Var]map[bank.StmtFingerprint]struct{}{
			expr.X: make(map[bank.StmtFingerprint]struct{}),
			expr.Y: make(map[bank.StmtFingerprint]struct{}),
		},
		exprMemo: make(map[int][]*expr.Expr),
		stmtMemo: map[expr.Var]map[int][]*expr.Expr{
			expr.X: make(map[int][]*expr.Expr),
			expr.Y: make(map[int][]*expr.Expr),
		},
	}
}

// groupLiteralsByLength buckets each configured literal by its printed
// length, the same grouping pkg/bank applies when it builds its leaves.
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

// statements returns every distinct statement of length L targeting v:
// the cached bank's representatives when L is within the cache bound, and a
// freshly depth-first-enumerated, locally-deduplicated set otherwise. Each
// (v, L) past the cache bound is only ever enumerated once per session and
// memoized, so calling it again for the same length (as happens once per Lx
// while collecting tasks) returns the same set instead of finding every
// candidate already claimed by the session's dedup state and coming back
// empty.
func (d *dfsSession) statements(v expr.Var, L int) []*expr.Expr {
	if L <= d.cfg.MaxCacheLength {
		return d.b.StmtLen(v, L)
	}
	if cached, ok := d.stmtMemo[v][L]; ok {
		return cached
	}

	var out []*expr.Expr
	for _, op := range d.cfg.Ops.OpsAssign() {
		g := ops.GlyphLen(op)
		for rhsLen := 1; rhsLen <= L-1-g; rhsLen++ {
			for _, rhs := range d.exprsOfLen(rhsLen) {
				cand := expr.NewAssign(op, v, rhs)
				out = append(out, d.admitStmt(cand, L)...)
			}
		}
	}
	if L == 3 {
		for _, op := range d.cfg.Ops.OpsIncDec() {
			cand := expr.NewIncDec(op, v)
			out = append(out, d.admitStmt(cand, L)...)
		}
	}
	d.stmtMemo[v][L] = out
	return out
}

// admitStmt keeps cand only if its printed length is exactly L, it is not a
// no-op, and its statement fingerprint is new within this session.
func (d *dfsSession) admitStmt(cand *expr.Expr, L int) []*expr.Expr {
	if n, ok := expr.Length(cand, d.cfg.UseParens); !ok || n != L {
		return nil
	}
	target, _ := cand.Target()
	sfp := bank.ComputeStmtFingerprint(cand)
	if sfp.IsNoOp(target) {
		return nil
	}
	seen := d.stmtSeen[target]
	if _, ok := seen[sfp]; ok {
		return nil
	}
	seen[sfp] = struct{}{}
	return []*expr.Expr{cand}
}

// exprsOfLen returns the distinct plain expressions of length L: the cached
// bank's representatives within the cache bound, and otherwise fresh unary
// and binary nodes built recursively (memoized per session). Past the cache
// bound no literal leaves and no assign/inc-dec subexpressions are built.
func (d *dfsSession) exprsOfLen(L int) []*expr.Expr {
	if L <= d.cfg.MaxCacheLength {
		return d.b.ExprLen(L)
	}
	if cached, ok := d.exprMemo[L]; ok {
		return cached
	}

	var out []*expr.Expr
	for _, op := range d.cfg.Ops.OpsUnary() {
		g := ops.GlyphLen(op)
		for childLen := 1; childLen <= L-g; childLen++ {
			for _, child := range d.exprsOfLen(childLen) {
				out = append(out, d.admitExpr(expr.NewUnary(op, child), L)...)
			}
		}
	}
	for _, op := range d.cfg.Ops.OpsBinary() {
		g := ops.GlyphLen(op)
		for la := 1; la <= L-g-1; la++ {
			maxLb := L - g - la
			for lb := 1; lb <= maxLb; lb++ {
				for _, left := range d.exprsOfLen(la) {
					for _, right := range d.exprsOfLen(lb) {
						out = append(out, d.admitExpr(expr.NewBinary(op, left, right), L)...)
					}
				}
			}
		}
	}

	d.exprMemo[L] = out
	return out
}

// admitExpr keeps cand only if its printed length is exactly L, it is not
// pruned as a constant, and its value fingerprint is new within this
// session.
func (d *dfsSession) admitExpr(cand *expr.Expr, L int) []*expr.Expr {
	n, ok := expr.Length(cand, d.cfg.UseParens)
	if !ok || n != L {
		return nil
	}
	fp := bank.ComputeFingerprint(cand)
	if d.cfg.PruneConstExpr && fp.IsConstant() {
		return nil
	}
	if _, ok := d.exprSeen[fp]; ok {
		return nil
	}
	d.exprSeen[fp] = struct{}{}
	return []*expr.Expr{cand}
}

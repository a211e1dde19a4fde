package search

import (
	"io"

	"github.com/rucin93/exprsearch/pkg/bank"
	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/result"
)

// Run validates cfg, builds the expression/statement banks, collects every
// (Sx, Sy-candidates) task across both search phases, and drains them
// through a WorkerPool, returning the table of accepted solutions.
//
// Grounded on the teacher's pkg/search/search.go Run: build once, collect
// tasks once, hand them to a WorkerPool.
func Run(cfg Config, newMatcher MatcherFactory, out io.Writer) (*result.Table, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	b, err := bank.Build(bank.Config{
		Ops:            cfg.Ops,
		Literals:       cfg.Literals,
		UseParens:      cfg.UseParens,
		PruneConstExpr: cfg.PruneConstExpr,
		MaxLength:      cfg.MaxCacheLength,
		Workers:        cfg.NumWorkers,
	})
	if err != nil {
		return nil, err
	}

	tasks := collectTasks(b, cfg)

	table := result.NewTable(out)
	wp := NewWorkerPool(cfg.NumWorkers, table)
	wp.RunTasks(tasks, cfg, newMatcher)
	return table, nil
}

// collectTasks builds one SearchTask per cached x-statement, unifying both
// search phases (§4.7 C7): Sx is always drawn from the cache (Lx ranges only
// up to MaxCacheLength, since the cache never holds anything past that), and
// for each Lx the y-side candidate list merges every Ly from 1 up to
// MaxLength-Lx — bank lookups where Ly stays within the cache bound (Phase 1)
// and DFS-extended statements where it doesn't (Phase 2).
func collectTasks(b *bank.Bank, cfg Config) []SearchTask {
	maxLx := cfg.MaxCacheLength
	if cfg.MaxLength-1 < maxLx {
		maxLx = cfg.MaxLength - 1
	}

	dfs := newDFSSession(b, dfsConfig{
		Ops:            cfg.Ops,
		Literals:       cfg.Literals,
		UseParens:      cfg.UseParens,
		PruneConstExpr: cfg.PruneConstExpr,
		MaxCacheLength: cfg.MaxCacheLength,
	})

	var tasks []SearchTask
	for lx := 1; lx <= maxLx; lx++ {
		sxs := b.StmtLen(expr.X, lx)
		if len(sxs) == 0 {
			continue
		}

		var syCandidates []*expr.Expr
		for ly := 1; ly <= cfg.MaxLength-lx; ly++ {
			syCandidates = append(syCandidates, dfs.statements(expr.Y, ly)...)
		}
		if len(syCandidates) == 0 {
			continue
		}

		for _, sx := range sxs {
			tasks = append(tasks, SearchTask{Sx: sx, SyCandidates: syCandidates})
		}
	}
	return tasks
}

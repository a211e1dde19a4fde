package search

import (
	"testing"

	"github.com/rucin93/exprsearch/pkg/bank"
	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/ops"
)

func TestDFSStatementsWithinCacheDelegatesToBank(t *testing.T) {
	b, err := bank.Build(bank.Config{
		Ops:            ops.DefaultConfig(),
		Literals:       []expr.NumT{0, 1},
		UseParens:      true,
		PruneConstExpr: true,
		MaxLength:      4,
	})
	if err != nil {
		t.Fatalf("bank.Build: %v", err)
	}

	d := newDFSSession(b, dfsConfig{
		Ops: ops.DefaultConfig(), Literals: []expr.NumT{0, 1},
		UseParens: true, PruneConstExpr: true, MaxCacheLength: 4,
	})

	got := d.statements(expr.X, 3)
	want := b.StmtLen(expr.X, 3)
	if len(got) != len(want) {
		t.Fatalf("within cache bound: got %d statements, want %d", len(got), len(want))
	}
}

func TestDFSStatementsBeyondCacheAreDistinct(t *testing.T) {
	b, err := bank.Build(bank.Config{
		Ops:            ops.DefaultConfig(),
		Literals:       []expr.NumT{0, 1},
		UseParens:      true,
		PruneConstExpr: true,
		MaxLength:      3,
	})
	if err != nil {
		t.Fatalf("bank.Build: %v", err)
	}

	d := newDFSSession(b, dfsConfig{
		Ops: ops.DefaultConfig(), Literals: []expr.NumT{0, 1},
		UseParens: true, PruneConstExpr: true, MaxCacheLength: 3,
	})

	stmts := d.statements(expr.Y, 4)
	if len(stmts) == 0 {
		t.Fatal("expected DFS to extend at least one statement of length 4")
	}

	seen := make(map[bank.StmtFingerprint]bool)
	for _, s := range stmts {
		n, ok := expr.Length(s, true)
		if !ok || n != 4 {
			t.Errorf("statement %q has length %d, want 4", expr.Print(s), n)
		}
		fp := bank.ComputeStmtFingerprint(s)
		if seen[fp] {
			t.Errorf("duplicate statement fingerprint for %q", expr.Print(s))
		}
		seen[fp] = true
	}
}

func TestDFSStatementsMemoizedAcrossCalls(t *testing.T) {
	b, _ := bank.Build(bank.Config{
		Ops: ops.DefaultConfig(), Literals: []expr.NumT{0, 1},
		UseParens: true, PruneConstExpr: true, MaxLength: 3,
	})
	d := newDFSSession(b, dfsConfig{
		Ops: ops.DefaultConfig(), Literals: []expr.NumT{0, 1},
		UseParens: true, PruneConstExpr: true, MaxCacheLength: 3,
	})

	first := d.statements(expr.Y, 4)
	second := d.statements(expr.Y, 4)
	if len(first) != len(second) {
		t.Fatalf("repeated calls diverged: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("index %d: pointer differs between calls", i)
		}
	}
}

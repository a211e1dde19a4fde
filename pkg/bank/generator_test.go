package bank

import (
	"testing"

	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/ops"
)

func printAll(es []*expr.Expr) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = expr.Print(e)
	}
	return out
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

func TestBuildLeaves(t *testing.T) {
	cfg := Config{
		Ops:       ops.DefaultConfig(),
		Literals:  []expr.NumT{0, 1},
		UseParens: true,
		MaxLength: 1,
	}
	b, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := printAll(b.ExprLen(1))
	for _, want := range []string{"x", "y", "0", "1"} {
		if !contains(got, want) {
			t.Errorf("ExprLen(1) = %v, missing %q", got, want)
		}
	}
	if len(got) != 4 {
		t.Errorf("ExprLen(1) length = %d, want 4: %v", len(got), got)
	}
}

func TestBuildRejectsEmptyOps(t *testing.T) {
	_, err := Build(Config{MaxLength: 1})
	if err == nil {
		t.Error("Build with empty operator config should error")
	}
}

func TestBuildBinaryCombination(t *testing.T) {
	cfg := Config{
		Ops: ops.Config{
			Binary: []ops.OpKind{ops.Add, ops.Mul},
		},
		Literals:  nil,
		UseParens: true,
		MaxLength: 3,
	}
	b, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := printAll(b.ExprLen(3))
	// "y+x" and "y*x" are observationally equivalent to "x+y"/"x*y" (both
	// operators are commutative) and collapse onto whichever form the
	// generator proposes first; only the canonical forms survive.
	for _, want := range []string{"x+x", "x+y", "y+y", "x*x", "x*y", "y*y"} {
		if !contains(got, want) {
			t.Errorf("ExprLen(3) = %v, missing %q", got, want)
		}
	}
	if contains(got, "y+x") || contains(got, "y*x") {
		t.Errorf("ExprLen(3) = %v, expected the commuted duplicates to be collapsed", got)
	}
}

func TestBuildUniqueFingerprints(t *testing.T) {
	cfg := Config{
		Ops:       ops.DefaultConfig(),
		Literals:  []expr.NumT{0, 1, 2},
		UseParens: true,
		MaxLength: 4,
	}
	b, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for L := 1; L <= cfg.MaxLength; L++ {
		seen := make(map[Fingerprint]string)
		for _, e := range b.ExprLen(L) {
			fp := ComputeFingerprint(e)
			if prior, ok := seen[fp]; ok {
				t.Errorf("length %d: %q and %q share a fingerprint", L, prior, expr.Print(e))
			}
			seen[fp] = expr.Print(e)
		}
	}
}

func TestStmtBankExcludesNoOp(t *testing.T) {
	cfg := Config{
		Ops: ops.Config{
			Assign: []ops.OpKind{ops.Assign, ops.AddAssign},
		},
		Literals:  []expr.NumT{0},
		UseParens: true,
		MaxLength: 4,
	}
	b, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, bad := range []string{"x+=0", "y+=0"} {
		for L := 1; L <= cfg.MaxLength; L++ {
			if contains(printAll(b.StmtLen(expr.X, L)), bad) || contains(printAll(b.StmtLen(expr.Y, L)), bad) {
				t.Errorf("no-op statement %q should have been excluded from the statement bank", bad)
			}
		}
	}
	found := false
	for L := 1; L <= cfg.MaxLength; L++ {
		if contains(printAll(b.StmtLen(expr.X, L)), "x=0") {
			found = true
		}
	}
	if !found {
		t.Error("x=0 should be a valid (non-no-op) statement")
	}
}

func TestBuildDeterministic(t *testing.T) {
	cfg := Config{
		Ops:       ops.DefaultConfig(),
		Literals:  []expr.NumT{0, 1, 2},
		UseParens: true,
		MaxLength: 4,
	}
	b1, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b2, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for L := 1; L <= cfg.MaxLength; L++ {
		g1 := printAll(b1.ExprLen(L))
		g2 := printAll(b2.ExprLen(L))
		if len(g1) != len(g2) {
			t.Fatalf("length %d: run1 has %d entries, run2 has %d", L, len(g1), len(g2))
		}
		for i := range g1 {
			if g1[i] != g2[i] {
				t.Errorf("length %d entry %d: run1=%q run2=%q", L, i, g1[i], g2[i])
			}
		}
	}
}

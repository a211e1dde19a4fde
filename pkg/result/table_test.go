package result

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/ops"
)

func TestSolutionString(t *testing.T) {
	sx := expr.NewAssign(ops.AddAssign, expr.X, expr.NewVar(expr.Y))
	sy := expr.NewIncDec(ops.PostInc, expr.Y)
	sol := Solution{X0: 1, Y0: 0, Sx: sx, Sy: sy}

	want := "x=1, y=0 : x+=y; y++"
	if got := sol.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSolutionStringNilStatement(t *testing.T) {
	sol := Solution{X0: 2, Y0: 3, Sx: nil, Sy: nil}
	if got := sol.String(); !strings.HasPrefix(got, "x=2, y=3 : ;") {
		t.Errorf("String() = %q, want a prefix of %q", got, "x=2, y=3 : ;")
	}
}

func TestTableAddEmitsAndRecords(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf)

	sx := expr.NewAssign(ops.Assign, expr.X, expr.NewLit(1))
	sy := expr.NewAssign(ops.Assign, expr.Y, expr.NewLit(2))
	table.Add(Solution{X0: 0, Y0: 0, Sx: sx, Sy: sy})

	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", table.Len())
	}
	if got := buf.String(); !strings.Contains(got, "x=1") || !strings.Contains(got, "y=2") {
		t.Errorf("emitted line %q missing expected statements", got)
	}

	sols := table.Solutions()
	if len(sols) != 1 || sols[0].X0 != 0 {
		t.Errorf("Solutions() = %+v, want one solution with X0=0", sols)
	}
}

func TestTableAddConcurrentSafe(t *testing.T) {
	table := NewTable(&bytes.Buffer{})
	sx := expr.NewIncDec(ops.PostInc, expr.X)
	sy := expr.NewIncDec(ops.PostInc, expr.Y)

	var wg sync.WaitGroup
	const n = 100
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			table.Add(Solution{X0: expr.NumT(i), Y0: 0, Sx: sx, Sy: sy})
		}(i)
	}
	wg.Wait()

	if table.Len() != n {
		t.Errorf("Len() = %d, want %d", table.Len(), n)
	}
}

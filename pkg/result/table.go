// Package result is the solution sink (§6 "Output"): one synchronized line
// per accepted (x0, y0, Sx, Sy) tuple, plus an in-memory record of every
// solution found so far for callers that need the full set (tests, §8
// determinism checks).
//
// Grounded on the teacher's own Table: a mutex-guarded slice with Add/Len
// accessors. checkpoint.go's gob persistence is dropped — persistence of
// search state across runs is an explicit non-goal here.
package result

import (
	"fmt"
	"io"
	"sync"

	"github.com/rucin93/exprsearch/pkg/expr"
)

// Solution is one accepted candidate tuple.
type Solution struct {
	X0, Y0 expr.NumT
	Sx, Sy *expr.Expr
}

// String renders a solution in the canonical output line shape of §6:
// "x=<x0>, y=<y0> : <print(Sx)>; <print(Sy)>".
func (s Solution) String() string {
	return fmt.Sprintf("x=%d, y=%d : %s; %s", s.X0, s.Y0, printStmt(s.Sx), printStmt(s.Sy))
}

func printStmt(e *expr.Expr) string {
	if e == nil {
		return ""
	}
	return expr.Print(e)
}

// Table stores accepted solutions and emits each one to its writer the
// moment it is added, under a single lock (§5 "Solution output: a single
// lock around the emitter") so concurrent workers never interleave a line.
type Table struct {
	mu        sync.Mutex
	out       io.Writer
	solutions []Solution
}

// NewTable creates an empty table that emits to w.
func NewTable(w io.Writer) *Table {
	return &Table{out: w}
}

// Add records s and writes its canonical line to the table's writer.
func (t *Table) Add(s Solution) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.solutions = append(t.solutions, s)
	fmt.Fprintln(t.out, s.String())
}

// Solutions returns a copy of every solution recorded so far.
func (t *Table) Solutions() []Solution {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Solution, len(t.solutions))
	copy(out, t.solutions)
	return out
}

// Len returns the number of solutions recorded so far.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.solutions)
}

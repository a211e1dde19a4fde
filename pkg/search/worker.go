package search

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/interp"
	"github.com/rucin93/exprsearch/pkg/jit"
	"github.com/rucin93/exprsearch/pkg/result"
)

// SearchTask pairs one cached x-statement with every y-statement candidate
// it may be combined with (§4.7: Sx always comes from the cache in both
// phases; SyCandidates holds bank-cached statements for Phase 1 lengths and
// DFS-extended ones for Phase 2 lengths, already merged at collection time).
type SearchTask struct {
	Sx           *expr.Expr
	SyCandidates []*expr.Expr
}

// WorkerPool distributes SearchTasks across worker goroutines, grounded on
// the teacher's pkg/search/worker.go WorkerPool/RunTasks shape (ticker
// progress reporter, atomic counters, WaitGroup fan-out).
type WorkerPool struct {
	NumWorkers int
	Results    *result.Table

	checked   atomic.Int64
	found     atomic.Int64
	completed atomic.Int64

	jitWarnOnce sync.Once
}

// NewWorkerPool creates a pool with the given number of workers (0 selects
// runtime.NumCPU()) writing accepted solutions to results.
func NewWorkerPool(numWorkers int, results *result.Table) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{NumWorkers: numWorkers, Results: results}
}

// Stats returns search statistics.
func (wp *WorkerPool) Stats() (checked, found int64) {
	return wp.checked.Load(), wp.found.Load()
}

// RunTasks distributes tasks across wp.NumWorkers goroutines (or runs them
// inline, in order, if cfg.UseMultithread is false — §6 "USE_MULTITHREAD").
func (wp *WorkerPool) RunTasks(tasks []SearchTask, cfg Config, newMatcher MatcherFactory) {
	if !cfg.UseMultithread {
		for _, task := range tasks {
			wp.processTask(task, cfg, newMatcher)
			wp.completed.Add(1)
		}
		return
	}

	totalTasks := int64(len(tasks))
	ch := make(chan SearchTask, len(tasks))
	for _, t := range tasks {
		ch <- t
	}
	close(ch)

	done := make(chan struct{})
	startTime := time.Now()
	if cfg.Verbose {
		go func() {
			ticker := time.NewTicker(10 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					comp := wp.completed.Load()
					checked := wp.checked.Load()
					found := wp.found.Load()
					elapsed := time.Since(startTime).Round(time.Second)
					pct := float64(comp) / float64(totalTasks) * 100
					fmt.Printf("  [%s] %d/%d tasks (%.1f%%) | %d found | %d checked\n",
						elapsed, comp, totalTasks, pct, found, checked)
				}
			}
		}()
	}

	var wg sync.WaitGroup
	for i := 0; i < wp.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range ch {
				wp.processTask(task, cfg, newMatcher)
				wp.completed.Add(1)
			}
		}()
	}
	wg.Wait()
	close(done)
}

// processTask runs every (x0, y0, Sx, Sy) tuple the task describes.
func (wp *WorkerPool) processTask(task SearchTask, cfg Config, newMatcher MatcherFactory) {
	for x0 := cfg.InitXMin; x0 <= cfg.InitXMax; x0++ {
		for y0 := cfg.InitYMin; y0 <= cfg.InitYMax; y0++ {
			for _, sy := range task.SyCandidates {
				wp.checked.Add(1)
				if !wp.runTuple(task.Sx, sy, x0, y0, cfg, newMatcher) {
					continue
				}
				wp.found.Add(1)
				wp.Results.Add(result.Solution{X0: x0, Y0: y0, Sx: task.Sx, Sy: sy})
			}
		}
	}
}

// runTuple executes the iterative x/y evaluation of §4.7's match loop,
// compiling (sx, sy) once with the JIT backend when enabled and falling
// back to the interpreter per tuple on any JIT failure (§7(b)).
func (wp *WorkerPool) runTuple(sx, sy *expr.Expr, x0, y0 expr.NumT, cfg Config, newMatcher MatcherFactory) bool {
	var prog *jit.Program
	if cfg.UseJIT {
		p, err := jit.Compile(sx, sy)
		if err != nil {
			wp.jitWarnOnce.Do(func() {
				fmt.Printf("warning: JIT unavailable (%v), falling back to the interpreter\n", err)
			})
		} else {
			prog = p
			defer prog.Close()
		}
	}

	m := newMatcher()
	x, y := x0, y0
	st := &interp.State{X: x0, Y: y0}
	for i := range cfg.Answer {
		if prog != nil {
			x, y = prog.Run(x, y)
		} else {
			interp.Eval(st, sx)
			interp.Eval(st, sy)
			x, y = st.X, st.Y
		}
		if !m.MatchOne(i, y) {
			return false
		}
	}
	return m.MatchFinal(sx, sy)
}

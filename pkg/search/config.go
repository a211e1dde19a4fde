// Package search is the two-phase parallel search driver (§4.7 C7): Phase 1
// pairs statements out of the cached banks built by pkg/bank; Phase 2
// extends one side of the pair by DFS past the cache bound. Both phases
// feed candidate tuples through a user-supplied Matcher and emit accepted
// solutions through pkg/result.
//
// Grounded on the teacher's pkg/search/search.go (Config/Run shape) and
// pkg/search/worker.go (WorkerPool/SearchTask/RunTasks).
package search

import (
	"errors"

	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/ops"
)

// Config holds search configuration (§6 "Configuration").
type Config struct {
	Answer []expr.NumT // target sequence S; only its length drives iteration count

	InitXMin, InitXMax expr.NumT
	InitYMin, InitYMax expr.NumT

	MaxLength      int
	MaxCacheLength int

	Literals []expr.NumT
	Ops      ops.Config

	UseParens      bool
	PruneConstExpr bool
	UseJIT         bool
	UseMultithread bool

	NumWorkers int // 0 selects runtime.NumCPU()
	Verbose    bool
}

// Configuration errors (§7(a)): reported once at start-up, fatal.
var (
	ErrEmptyOperatorConfig   = errors.New("search: operator configuration is empty")
	ErrInvertedInitRange     = errors.New("search: an init range is inverted")
	ErrCacheExceedsMaxLength = errors.New("search: MAX_CACHE_LENGTH exceeds MAX_LENGTH")
)

func (c Config) validate() error {
	if c.Ops.Empty() {
		return ErrEmptyOperatorConfig
	}
	if c.InitXMin > c.InitXMax || c.InitYMin > c.InitYMax {
		return ErrInvertedInitRange
	}
	if c.MaxCacheLength > c.MaxLength {
		return ErrCacheExceedsMaxLength
	}
	return nil
}

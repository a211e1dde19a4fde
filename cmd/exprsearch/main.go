package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rucin93/exprsearch/pkg/bank"
	"github.com/rucin93/exprsearch/pkg/expr"
	"github.com/rucin93/exprsearch/pkg/ops"
	"github.com/rucin93/exprsearch/pkg/search"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "exprsearch",
		Short: "Expression search — find statement pairs reproducing a target sequence",
	}

	// search command
	var answerStr string
	var literalsStr string
	var configPath string
	var initXMin, initXMax, initYMin, initYMax int64
	var maxLength, maxCacheLength int
	var useParens, pruneConstExpr, useJIT, useMultithread, verbose bool
	var numWorkers int

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search for statement pairs matching a target sequence under the mod-2 example matcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			var answerOverride, literalsOverride string
			if cmd.Flags().Changed("answer") {
				answerOverride = answerStr
			}
			if cmd.Flags().Changed("literals") {
				literalsOverride = literalsStr
			}
			answer, literals, err := loadTargetAndLiterals(configPath, answerOverride, literalsOverride)
			if err != nil {
				return err
			}
			if len(literals) == 0 {
				literals, _ = parseInts(literalsStr)
			}
			if len(answer) == 0 {
				return fmt.Errorf("no target sequence given: pass --answer or --config")
			}

			cfg := search.Config{
				Answer:         answer,
				InitXMin:       expr.NumT(initXMin),
				InitXMax:       expr.NumT(initXMax),
				InitYMin:       expr.NumT(initYMin),
				InitYMax:       expr.NumT(initYMax),
				MaxLength:      maxLength,
				MaxCacheLength: maxCacheLength,
				Literals:       literals,
				Ops:            ops.DefaultConfig(),
				UseParens:      useParens,
				PruneConstExpr: pruneConstExpr,
				UseJIT:         useJIT,
				UseMultithread: useMultithread,
				NumWorkers:     numWorkers,
				Verbose:        verbose,
			}

			fmt.Printf("Expression Search\n")
			fmt.Printf("  Target length: %d\n", len(answer))
			fmt.Printf("  Max length: %d (cache: %d)\n", maxLength, maxCacheLength)
			fmt.Printf("  Init x: [%d, %d]  Init y: [%d, %d]\n", initXMin, initXMax, initYMin, initYMax)
			if useJIT {
				fmt.Printf("  Mode: JIT\n")
			} else {
				fmt.Printf("  Mode: interpreter\n")
			}
			fmt.Println()

			table, err := search.Run(cfg, search.NewModMatcherFactory(answer), os.Stdout)
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d solutions\n", table.Len())
			return nil
		},
	}
	searchCmd.Flags().StringVar(&answerStr, "answer", "", "Target sequence, comma-separated (e.g. 1,0,1,1)")
	searchCmd.Flags().StringVar(&literalsStr, "literals", "0,1,2", "Allowed literal values, comma-separated")
	searchCmd.Flags().StringVar(&configPath, "config", "", "JSON file with \"answer\" and \"literals\" arrays")
	searchCmd.Flags().Int64Var(&initXMin, "init-x-min", 0, "Minimum initial x")
	searchCmd.Flags().Int64Var(&initXMax, "init-x-max", 0, "Maximum initial x")
	searchCmd.Flags().Int64Var(&initYMin, "init-y-min", 0, "Minimum initial y")
	searchCmd.Flags().Int64Var(&initYMax, "init-y-max", 0, "Maximum initial y")
	searchCmd.Flags().IntVar(&maxLength, "max-length", 6, "Maximum total statement length (Phase 2 bound)")
	searchCmd.Flags().IntVar(&maxCacheLength, "max-cache-length", 4, "Maximum cached statement length (Phase 1 bound)")
	searchCmd.Flags().BoolVar(&useParens, "use-parens", true, "Allow parenthesized subexpressions when counting length")
	searchCmd.Flags().BoolVar(&pruneConstExpr, "prune-const", true, "Prune expressions whose value never depends on x or y")
	searchCmd.Flags().BoolVar(&useJIT, "jit", true, "Compile candidate statement pairs to native code")
	searchCmd.Flags().BoolVar(&useMultithread, "multithread", true, "Run tasks across multiple worker goroutines")
	searchCmd.Flags().IntVar(&numWorkers, "workers", 0, "Number of workers (0 = NumCPU)")
	searchCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print periodic progress")

	// diagnose command
	var diagLx, diagLy, diagIx, diagIy int
	var diagLiteralsStr string

	diagnoseCmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Inspect one statement pair picked from a generated bank by length and index",
		RunE: func(cmd *cobra.Command, args []string) error {
			literals, err := parseInts(diagLiteralsStr)
			if err != nil {
				return fmt.Errorf("invalid --literals: %w", err)
			}

			maxLen := diagLx
			if diagLy > maxLen {
				maxLen = diagLy
			}
			b, err := bank.Build(bank.Config{
				Ops:            ops.DefaultConfig(),
				Literals:       literals,
				UseParens:      true,
				PruneConstExpr: true,
				MaxLength:      maxLen,
			})
			if err != nil {
				return err
			}

			sxCandidates := b.StmtLen(expr.X, diagLx)
			if diagIx < 0 || diagIx >= len(sxCandidates) {
				return fmt.Errorf("index-x %d out of range (x-StmtBank[%d] has %d entries)", diagIx, diagLx, len(sxCandidates))
			}
			syCandidates := b.StmtLen(expr.Y, diagLy)
			if diagIy < 0 || diagIy >= len(syCandidates) {
				return fmt.Errorf("index-y %d out of range (y-StmtBank[%d] has %d entries)", diagIy, diagLy, len(syCandidates))
			}

			d, err := search.Diagnose(sxCandidates[diagIx], syCandidates[diagIy], true)
			if err != nil {
				return err
			}

			fmt.Printf("Sx: %s (length %d)\n", d.PrintSx, d.LengthX)
			fmt.Printf("Sy: %s (length %d)\n", d.PrintSy, d.LengthY)
			fmt.Printf("Fingerprint (value at first probe): %d\n", d.PairFingerprint.Value[0])
			return nil
		},
	}
	diagnoseCmd.Flags().IntVar(&diagLx, "length-x", 1, "Length of the x-statement to pick")
	diagnoseCmd.Flags().IntVar(&diagLy, "length-y", 1, "Length of the y-statement to pick")
	diagnoseCmd.Flags().IntVar(&diagIx, "index-x", 0, "Index into x-StmtBank[length-x]")
	diagnoseCmd.Flags().IntVar(&diagIy, "index-y", 0, "Index into y-StmtBank[length-y]")
	diagnoseCmd.Flags().StringVar(&diagLiteralsStr, "literals", "0,1,2", "Allowed literal values, comma-separated")

	rootCmd.AddCommand(searchCmd, diagnoseCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// targetConfig is the free-form JSON input §6 reserves for the answer
// sequence and literal set, the same way the teacher treats rule files as
// data rather than flags.
type targetConfig struct {
	Answer   []int64 `json:"answer"`
	Literals []int64 `json:"literals"`
}

// loadTargetAndLiterals merges an optional JSON config file with the
// --answer/--literals flags, flags taking precedence when both are set.
func loadTargetAndLiterals(configPath, answerStr, literalsStr string) ([]expr.NumT, []expr.NumT, error) {
	var answer, literals []expr.NumT

	if configPath != "" {
		f, err := os.Open(configPath)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		var tc targetConfig
		if err := json.NewDecoder(f).Decode(&tc); err != nil {
			return nil, nil, fmt.Errorf("parsing %s: %w", configPath, err)
		}
		answer, literals = fromInt64(tc.Answer), fromInt64(tc.Literals)
	}

	if answerStr != "" {
		v, err := parseInts(answerStr)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --answer: %w", err)
		}
		answer = v
	}
	if literalsStr != "" {
		v, err := parseInts(literalsStr)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --literals: %w", err)
		}
		literals = v
	}

	return answer, literals, nil
}

func parseInts(s string) ([]expr.NumT, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]expr.NumT, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		out = append(out, expr.NumT(n))
	}
	return out, nil
}

func fromInt64(v []int64) []expr.NumT {
	out := make([]expr.NumT, len(v))
	for i, n := range v {
		out[i] = expr.NumT(n)
	}
	return out
}

package search

import "github.com/rucin93/exprsearch/pkg/expr"

// Matcher is the external, user-pluggable predicate (§6 "Match predicate").
// A fresh Matcher is created per candidate tuple (x0, y0, Sx, Sy), so it may
// hold mutable state across MatchOne calls within one run.
type Matcher interface {
	// MatchOne is called once per step i with the y-statement's output; it
	// returns false to abort the tuple immediately.
	MatchOne(i int, output expr.NumT) bool
	// MatchFinal is the final gate, called only if every step matched.
	MatchFinal(sx, sy *expr.Expr) bool
}

// MatcherFactory builds a fresh Matcher for one candidate tuple.
type MatcherFactory func() Matcher

// ModMatcher implements §8 scenario 4: 1 - (output mod 2) == ANSWER[i].
// It never rejects on MatchFinal; every field of the predicate lives in
// MatchOne.
type ModMatcher struct {
	answer []expr.NumT
}

// NewModMatcherFactory returns a MatcherFactory producing ModMatchers bound
// to answer, ready to pass to Run.
func NewModMatcherFactory(answer []expr.NumT) MatcherFactory {
	return func() Matcher {
		return &ModMatcher{answer: answer}
	}
}

func (m *ModMatcher) MatchOne(i int, output expr.NumT) bool {
	mod := output % 2
	if mod < 0 {
		mod += 2
	}
	return 1-mod == m.answer[i]
}

func (m *ModMatcher) MatchFinal(sx, sy *expr.Expr) bool { return true }

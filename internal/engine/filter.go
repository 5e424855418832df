package engine

import (
	"fmt"

	"github.com/Knetic/govaluate"

	"github.com/contactkeval/option-analytics/internal/chain"
	"github.com/contactkeval/option-analytics/internal/logger"
)

// QuoteFilter evaluates a configurable boolean expression against each
// quote, e.g. "volume >= 10 && openInterest > 0". It runs after the
// moneyness filter, so the expression may reference moneyness too.
//
// An empty expression keeps everything. A runtime evaluation error keeps
// the quote (filtering is a refinement, never a reason to lose data) and
// is logged at Debug.
type QuoteFilter struct {
	expr *govaluate.EvaluableExpression
}

// NewQuoteFilter compiles the expression. Compilation errors are fatal for
// the pipeline's construction; runtime errors are not.
func NewQuoteFilter(expression string) (*QuoteFilter, error) {
	if expression == "" {
		return &QuoteFilter{}, nil
	}
	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid quote filter %q: %w", expression, err)
	}
	return &QuoteFilter{expr: expr}, nil
}

// Keep reports whether the quote passes the filter.
func (f *QuoteFilter) Keep(q chain.Quote) bool {
	if f == nil || f.expr == nil {
		return true
	}

	params := map[string]any{
		"strike":       q.Strike,
		"bid":          q.Bid,
		"ask":          q.Ask,
		"lastPrice":    q.LastPrice,
		"volume":       float64(q.Volume),
		"openInterest": float64(q.OpenInterest),
		"moneyness":    0.0,
	}
	if q.Moneyness != nil {
		params["moneyness"] = *q.Moneyness
	}

	result, err := f.expr.Evaluate(params)
	if err != nil {
		logger.Debugf("quote filter error for %s: %v", q.ContractSymbol, err)
		return true
	}

	keep, ok := result.(bool)
	if !ok {
		logger.Debugf("quote filter returned non-boolean for %s", q.ContractSymbol)
		return true
	}
	return keep
}

// apply filters a slice, preserving order.
func (f *QuoteFilter) apply(quotes []chain.Quote) []chain.Quote {
	if f == nil || f.expr == nil {
		return quotes
	}
	out := quotes[:0:0]
	for _, q := range quotes {
		if f.Keep(q) {
			out = append(out, q)
		}
	}
	return out
}

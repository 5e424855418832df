package engine

import (
	"errors"
	"sync"

	"github.com/contactkeval/option-analytics/internal/chain"
	"github.com/contactkeval/option-analytics/internal/logger"
	"github.com/contactkeval/option-analytics/internal/pricing"
)

// annotator derives the per-quote analytics fields: mid price, implied
// volatility at the bid/mid/ask price points, and delta.
//
// Quotes are independent of one another, so annotation fans out across a
// bounded worker pool. Workers write only to their own index of the shared
// slice; the memo map is the one shared structure and is mutex-guarded.
// The memo lives for a single invocation only — market inputs change every
// call, so caching across invocations would serve stale values.
type annotator struct {
	rate    float64
	workers int

	mu   sync.Mutex
	memo map[solveKey]solveResult
}

// solveKey is the exact input tuple of one solver call. Identical tuples
// recur within an invocation (e.g. equal bid/ask quotes), so memoizing on
// the full tuple is safe and cheap.
type solveKey struct {
	price  float64
	spot   float64
	strike float64
	years  float64
	rate   float64
	isCall bool
}

type solveResult struct {
	vol float64
	err error
}

func newAnnotator(rate float64, workers int) *annotator {
	if workers < 1 {
		workers = 1
	}
	return &annotator{
		rate:    rate,
		workers: workers,
		memo:    make(map[solveKey]solveResult),
	}
}

// annotate computes the derived fields for every quote in place.
// Completion order across workers is irrelevant; the assembler re-sorts.
func (a *annotator) annotate(quotes []chain.Quote, spot, years float64) {
	if len(quotes) == 0 {
		return
	}

	idx := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < a.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				a.annotateQuote(&quotes[i], spot, years)
			}
		}()
	}

	for i := range quotes {
		idx <- i
	}
	close(idx)
	wg.Wait()
}

func (a *annotator) annotateQuote(q *chain.Quote, spot, years float64) {
	isCall := q.Kind == chain.Call

	// Mid exists only when both sides are quoted. A nil mid marks
	// "cannot compute", distinct from a legitimately zero price.
	if q.Bid > 0 && q.Ask > 0 {
		mid := (q.Bid + q.Ask) / 2
		q.MidPrice = &mid
	}

	if q.Bid > 0 {
		q.ImpliedVolatilityBid = a.solve(q.Bid, spot, q.Strike, years, isCall, q.ContractSymbol, "bid")
	}
	if q.MidPrice != nil {
		q.ImpliedVolatilityMid = a.solve(*q.MidPrice, spot, q.Strike, years, isCall, q.ContractSymbol, "mid")
	}
	if q.Ask > 0 {
		q.ImpliedVolatilityAsk = a.solve(q.Ask, spot, q.Strike, years, isCall, q.ContractSymbol, "ask")
	}

	// Delta volatility source: mid-implied first, provider-supplied as
	// fallback. With neither, delta stays null.
	vol := q.ImpliedVolatilityMid
	if vol == nil {
		vol = q.ImpliedVolatility
	}
	if vol == nil {
		return
	}

	delta, err := pricing.Delta(isCall, spot, q.Strike, years, a.rate, *vol)
	if err != nil {
		logger.Debugf("delta failed for %s: %v", q.ContractSymbol, err)
		return
	}
	q.Delta = &delta
}

// solve runs the root-finder through the invocation memo. A solver failure
// nulls the one affected field and never discards the quote.
func (a *annotator) solve(target, spot, strike, years float64, isCall bool, symbol, point string) *float64 {
	key := solveKey{
		price:  target,
		spot:   spot,
		strike: strike,
		years:  years,
		rate:   a.rate,
		isCall: isCall,
	}

	a.mu.Lock()
	res, ok := a.memo[key]
	a.mu.Unlock()

	if !ok {
		res.vol, res.err = pricing.SolveImpliedVol(target, spot, strike, years, a.rate, isCall)
		a.mu.Lock()
		a.memo[key] = res
		a.mu.Unlock()
	}

	if res.err != nil {
		if errors.Is(res.err, pricing.ErrNoConvergence) {
			logger.Debugf("iv %s did not converge for %s", point, symbol)
		} else {
			logger.Tracef("iv %s unsolvable for %s: %v", point, symbol, res.err)
		}
		return nil
	}

	vol := res.vol
	return &vol
}

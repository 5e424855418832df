package engine

import "github.com/contactkeval/option-analytics/internal/chain"

// filterByMoneyness retains the quotes whose strike-to-spot ratio lies
// inside [min, max], both bounds inclusive, and sets Moneyness on every
// survivor. The same rule applies to calls and puts; input order is
// preserved (the assembler enforces the final strike ordering).
//
// The spot is validated by the caller before any chain is processed, so a
// non-positive spot cannot reach this point.
func filterByMoneyness(quotes []chain.Quote, spot, min, max float64) []chain.Quote {
	out := quotes[:0:0]
	for _, q := range quotes {
		m := q.Strike / spot
		if m < min || m > max {
			continue
		}
		moneyness := m
		q.Moneyness = &moneyness
		out = append(out, q)
	}
	return out
}

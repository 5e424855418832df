package data

import (
	"testing"
	"time"
)

var testNow = time.Date(2024, time.June, 3, 15, 0, 0, 0, time.UTC)

func TestSyntheticDeterminism(t *testing.T) {
	a := NewSyntheticProvider(42, testNow)
	b := NewSyntheticProvider(42, testNow)

	spotA, err := a.GetSpot("SPY")
	if err != nil {
		t.Fatalf("GetSpot: %v", err)
	}
	spotB, _ := b.GetSpot("SPY")
	if spotA != spotB {
		t.Fatalf("same seed produced different spots: %+v vs %+v", spotA, spotB)
	}

	exps, err := a.GetExpirations("SPY")
	if err != nil {
		t.Fatalf("GetExpirations: %v", err)
	}
	if len(exps) == 0 {
		t.Fatalf("expected a non-empty expiration calendar")
	}

	callsA, putsA, err := a.GetChain("SPY", exps[3])
	if err != nil {
		t.Fatalf("GetChain: %v", err)
	}
	callsB, putsB, _ := b.GetChain("SPY", exps[3])

	if len(callsA) == 0 || len(putsA) == 0 {
		t.Fatalf("expected quotes on both sides, got %d calls %d puts", len(callsA), len(putsA))
	}
	if len(callsA) != len(callsB) || len(putsA) != len(putsB) {
		t.Fatalf("same seed produced different chain sizes")
	}
	for i := range callsA {
		if callsA[i].ContractSymbol != callsB[i].ContractSymbol || callsA[i].Bid != callsB[i].Bid {
			t.Fatalf("same seed produced different quotes at %d", i)
		}
	}
}

func TestSyntheticChainSanity(t *testing.T) {
	prov := NewSyntheticProvider(7, testNow)

	spot, err := prov.GetSpot("SPY")
	if err != nil {
		t.Fatalf("GetSpot: %v", err)
	}
	exps, err := prov.GetExpirations("SPY")
	if err != nil {
		t.Fatalf("GetExpirations: %v", err)
	}

	for _, exp := range exps {
		if exp.Weekday() != time.Friday {
			t.Fatalf("expected Friday expirations, got %s", exp.Weekday())
		}
		if !exp.After(testNow.Truncate(24 * time.Hour).Add(-24 * time.Hour)) {
			t.Fatalf("expiration %s not in the future", exp)
		}
	}

	calls, puts, err := prov.GetChain("SPY", exps[5])
	if err != nil {
		t.Fatalf("GetChain: %v", err)
	}

	for _, q := range append(calls, puts...) {
		if q.Strike <= 0 {
			t.Fatalf("non-positive strike: %+v", q)
		}
		if q.Bid >= q.Ask {
			t.Fatalf("crossed market on %s: bid=%f ask=%f", q.ContractSymbol, q.Bid, q.Ask)
		}
		if q.ImpliedVolatility == nil || *q.ImpliedVolatility <= 0 {
			t.Fatalf("synthetic quotes carry a provider volatility: %+v", q)
		}
	}

	// The grid must span past the moneyness band on both sides.
	minStrike, maxStrike := calls[0].Strike, calls[0].Strike
	for _, q := range calls {
		if q.Strike < minStrike {
			minStrike = q.Strike
		}
		if q.Strike > maxStrike {
			maxStrike = q.Strike
		}
	}
	if minStrike > spot.Price*0.85 || maxStrike < spot.Price*1.15 {
		t.Fatalf("strike grid [%f, %f] does not cover the band around %f",
			minStrike, maxStrike, spot.Price)
	}
}

func TestSyntheticVolatilityIndex(t *testing.T) {
	prov := NewSyntheticProvider(1, testNow)
	vix, err := prov.GetVolatilityIndex()
	if err != nil {
		t.Fatalf("GetVolatilityIndex: %v", err)
	}
	if vix.Price <= 0 || vix.PreviousClose <= 0 {
		t.Fatalf("expected positive index values, got %+v", vix)
	}
	if !vix.Timestamp.Equal(testNow) {
		t.Fatalf("expected anchored timestamp, got %s", vix.Timestamp)
	}
}

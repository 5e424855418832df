package engine

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/contactkeval/option-analytics/internal/chain"
	"github.com/contactkeval/option-analytics/internal/data"
	"github.com/contactkeval/option-analytics/internal/pricing"
)

// stubProvider serves a fixed snapshot so engine behavior is fully
// deterministic in tests.
type stubProvider struct {
	spot        data.Snapshot
	vix         data.Snapshot
	expirations []time.Time
	calls       []chain.Quote
	puts        []chain.Quote
}

func (s *stubProvider) Secondary() data.Provider { return nil }

func (s *stubProvider) GetSpot(ticker string) (data.Snapshot, error) { return s.spot, nil }

func (s *stubProvider) GetVolatilityIndex() (data.Snapshot, error) { return s.vix, nil }

func (s *stubProvider) GetExpirations(ticker string) ([]time.Time, error) {
	return s.expirations, nil
}

func (s *stubProvider) GetChain(ticker string, expiry time.Time) ([]chain.Quote, []chain.Quote, error) {
	// Fresh copies per call; the engine owns what it receives.
	calls := append([]chain.Quote(nil), s.calls...)
	puts := append([]chain.Quote(nil), s.puts...)
	return calls, puts, nil
}

func fairQuote(symbol string, kind chain.OptionKind, spot, strike, years, vol float64) chain.Quote {
	fair := pricing.Price(kind == chain.Call, spot, strike, years, 0.03, vol)
	if fair < 0.05 {
		fair = 0.05
	}
	return chain.Quote{
		ContractSymbol: symbol,
		Strike:         strike,
		Bid:            fair * 0.98,
		Ask:            fair * 1.02,
		LastPrice:      fair,
		Volume:         100,
		OpenInterest:   500,
		Kind:           kind,
	}
}

func newStub(now time.Time) *stubProvider {
	spot := 100.0
	expiry := now.AddDate(0, 0, 14)
	years := 14.0 / 365.25

	var calls, puts []chain.Quote
	// Strikes straddle the moneyness band; 80 and 120 must be filtered.
	for _, k := range []float64{80, 120, 115, 100, 85} {
		calls = append(calls, fairQuote("C", chain.Call, spot, k, years, 0.22))
		puts = append(puts, fairQuote("P", chain.Put, spot, k, years, 0.22))
	}

	return &stubProvider{
		spot:        data.Snapshot{Price: spot, PreviousClose: 98, Timestamp: now},
		vix:         data.Snapshot{Price: 20, PreviousClose: 25, Timestamp: now},
		expirations: []time.Time{expiry, now.AddDate(0, 0, 28), now.AddDate(0, 0, 42), now.AddDate(0, 0, 63)},
		calls:       calls,
		puts:        puts,
	}
}

func TestEngineRun(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	eng, err := New(&Config{}, newStub(now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := eng.Run("spy", now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Ticker != "SPY" {
		t.Fatalf("expected ticker SPY, got %s", res.Ticker)
	}
	if res.Stock.PercentChange != 2.04 {
		t.Fatalf("stock percentChange: expected 2.04, got %f", res.Stock.PercentChange)
	}
	if res.VolatilityIndex.PercentChange != -20.0 {
		t.Fatalf("vix percentChange: expected -20, got %f", res.VolatilityIndex.PercentChange)
	}

	if len(res.ExpirationDates) != 4 {
		t.Fatalf("expected 4 buckets, got %d", len(res.ExpirationDates))
	}
	for i, label := range chain.Tenors() {
		if res.ExpirationDates[i].ExpirationLabel != label {
			t.Fatalf("bucket %d: expected label %s, got %s",
				i, label, res.ExpirationDates[i].ExpirationLabel)
		}
	}

	for _, bucket := range res.ExpirationDates {
		if bucket.DaysToExpiration < 0 {
			t.Fatalf("bucket %s: negative daysToExpiration", bucket.Expiration)
		}
		for _, side := range [][]chain.Quote{bucket.Calls, bucket.Puts} {
			if len(side) != 3 {
				t.Fatalf("bucket %s: expected 3 quotes per side, got %d", bucket.Expiration, len(side))
			}
			for i, q := range side {
				if q.Moneyness == nil || *q.Moneyness < 0.85 || *q.Moneyness > 1.15 {
					t.Fatalf("bucket %s: quote outside moneyness band: %v", bucket.Expiration, q.Moneyness)
				}
				if i > 0 && side[i-1].Strike > q.Strike {
					t.Fatalf("bucket %s: strikes not ascending", bucket.Expiration)
				}
				if q.ImpliedVolatilityMid == nil {
					t.Fatalf("bucket %s: solvable quote missing mid IV", bucket.Expiration)
				}
				if q.Delta == nil {
					t.Fatalf("bucket %s: solvable quote missing delta", bucket.Expiration)
				}
				if q.Kind == chain.Call && (*q.Delta < 0 || *q.Delta > 1) {
					t.Fatalf("call delta out of range: %f", *q.Delta)
				}
				if q.Kind == chain.Put && (*q.Delta < -1 || *q.Delta > 0) {
					t.Fatalf("put delta out of range: %f", *q.Delta)
				}
			}
		}
	}
}

// Byte-identical input yields byte-identical output: the passed-in "now"
// is the pipeline's only time source.
func TestEngineRunIdempotent(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	eng, err := New(&Config{}, newStub(now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := eng.Run("SPY", now)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := eng.Run("SPY", now)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("two runs over identical input differ")
	}
}

func TestEngineRunNoExpirations(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	stub := newStub(now)
	stub.expirations = nil

	eng, err := New(&Config{}, stub)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := eng.Run("SPY", now)
	if !errors.Is(err, ErrInputUnavailable) {
		t.Fatalf("expected ErrInputUnavailable, got %v", err)
	}
	if res != nil {
		t.Fatalf("expected no partial result, got %+v", res)
	}
}

func TestEngineRunBadSpot(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	stub := newStub(now)
	stub.spot = data.Snapshot{}

	eng, err := New(&Config{}, stub)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := eng.Run("SPY", now); !errors.Is(err, ErrInputUnavailable) {
		t.Fatalf("expected ErrInputUnavailable, got %v", err)
	}
}

func TestEngineRunInvalidTicker(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	eng, err := New(&Config{}, newStub(now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := eng.Run("SP Y", now); !errors.Is(err, chain.ErrInvalidTicker) {
		t.Fatalf("expected ErrInvalidTicker, got %v", err)
	}
}

// Unquoted contracts survive filtering with null analytics, never dropped.
func TestEngineRunKeepsUnquoted(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	stub := newStub(now)
	stub.calls = append(stub.calls, chain.Quote{
		ContractSymbol: "DEAD",
		Strike:         105,
		LastPrice:      2.50,
		Kind:           chain.Call,
	})

	eng, err := New(&Config{}, stub)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := eng.Run("SPY", now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	found := false
	for _, q := range res.ExpirationDates[0].Calls {
		if q.ContractSymbol != "DEAD" {
			continue
		}
		found = true
		if q.MidPrice != nil || q.ImpliedVolatilityBid != nil ||
			q.ImpliedVolatilityMid != nil || q.ImpliedVolatilityAsk != nil || q.Delta != nil {
			t.Fatalf("unquoted contract must keep null analytics: %+v", q)
		}
	}
	if !found {
		t.Fatalf("unquoted contract was dropped from its bucket")
	}
}

func TestEngineRunQuoteFilter(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	stub := newStub(now)
	stub.calls = append(stub.calls, chain.Quote{
		ContractSymbol: "THIN",
		Strike:         105,
		Bid:            1,
		Ask:            2,
		Volume:         1,
		Kind:           chain.Call,
	})

	eng, err := New(&Config{QuoteFilter: "volume >= 10"}, stub)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := eng.Run("SPY", now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, bucket := range res.ExpirationDates {
		for _, q := range bucket.Calls {
			if q.ContractSymbol == "THIN" {
				t.Fatalf("quote filter failed to drop thin contract")
			}
		}
	}
}

package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/contactkeval/option-analytics/internal/chain"
	"github.com/contactkeval/option-analytics/internal/data"
	"github.com/contactkeval/option-analytics/internal/logger"
)

// ErrInputUnavailable is the one fatal error class of the pipeline: the
// provider produced no expiration dates, no usable spot price or no usable
// volatility index reading. Everything else degrades locally to null
// fields and never aborts a computation.
var ErrInputUnavailable = errors.New("market input unavailable")

// Engine runs the analytics pipeline against a data provider.
type Engine struct {
	cfg    *Config
	prov   data.Provider
	filter *QuoteFilter
}

// New builds an Engine, filling config defaults and compiling the optional
// quote filter expression.
func New(cfg *Config, prov data.Provider) (*Engine, error) {
	cfg.fillDefaults()

	filter, err := NewQuoteFilter(cfg.QuoteFilter)
	if err != nil {
		return nil, err
	}

	return &Engine{cfg: cfg, prov: prov, filter: filter}, nil
}

// Run executes one full computation for the ticker, anchored at now.
//
// The result is assembled fresh from the provider's snapshot and is not
// mutated afterwards; running twice over identical input yields identical
// output because now is the only time source.
func (e *Engine) Run(ticker string, now time.Time) (*chain.CalculationResult, error) {
	start := time.Now()

	symbol, err := chain.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	logger.Infof("event=run_start ticker=%s now=%s", symbol, now.UTC().Format(time.RFC3339))

	spot, err := e.fetchSnapshot(symbol)
	if err != nil {
		return nil, err
	}
	vix, err := e.fetchVolatilityIndex()
	if err != nil {
		return nil, err
	}

	expirations, err := e.prov.GetExpirations(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: expirations for %s: %v", ErrInputUnavailable, symbol, err)
	}

	selections, err := SelectExpirations(expirations, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputUnavailable, err)
	}

	ann := newAnnotator(e.cfg.RiskFreeRate, e.cfg.Workers)

	var buckets []chain.ExpirationBucket
	for _, sel := range selections {
		bucket, err := e.buildBucket(symbol, sel, spot.Price, now, ann)
		if err != nil {
			// A single bad tenor degrades to omission, not failure.
			logger.Errorf("tenor %s (%s) skipped: %v",
				sel.Label, sel.Date.Format("2006-01-02"), err)
			continue
		}
		buckets = append(buckets, bucket)
	}

	result := &chain.CalculationResult{
		Ticker:          symbol,
		Stock:           toSnapshot(spot),
		VolatilityIndex: toSnapshot(vix),
		ExpirationDates: buckets,
	}

	logger.Infof("event=run_done ticker=%s buckets=%d quotes=%d elapsed=%s",
		symbol, len(result.ExpirationDates), result.TotalQuotes(), time.Since(start))

	return result, nil
}

// fetchSnapshot retrieves and validates the underlying's spot snapshot.
func (e *Engine) fetchSnapshot(symbol string) (data.Snapshot, error) {
	snap, err := e.prov.GetSpot(symbol)
	if err != nil {
		return data.Snapshot{}, fmt.Errorf("%w: spot for %s: %v", ErrInputUnavailable, symbol, err)
	}
	if snap.Price <= 0 {
		return data.Snapshot{}, fmt.Errorf("%w: non-positive spot for %s", ErrInputUnavailable, symbol)
	}
	return snap, nil
}

func (e *Engine) fetchVolatilityIndex() (data.Snapshot, error) {
	snap, err := e.prov.GetVolatilityIndex()
	if err != nil {
		return data.Snapshot{}, fmt.Errorf("%w: volatility index: %v", ErrInputUnavailable, err)
	}
	if snap.Price <= 0 {
		return data.Snapshot{}, fmt.Errorf("%w: non-positive volatility index", ErrInputUnavailable)
	}
	return snap, nil
}

// buildBucket fetches, filters, annotates and sorts one tenor's chain.
func (e *Engine) buildBucket(
	symbol string,
	sel TenorSelection,
	spot float64,
	now time.Time,
	ann *annotator,
) (chain.ExpirationBucket, error) {

	calls, puts, err := e.prov.GetChain(symbol, sel.Date)
	if err != nil {
		return chain.ExpirationBucket{}, fmt.Errorf("chain fetch: %w", err)
	}

	rawCount := len(calls) + len(puts)

	calls = e.filter.apply(filterByMoneyness(calls, spot, e.cfg.MinMoneyness, e.cfg.MaxMoneyness))
	puts = e.filter.apply(filterByMoneyness(puts, spot, e.cfg.MinMoneyness, e.cfg.MaxMoneyness))

	years := yearsToExpiry(sel.Date, now)
	ann.annotate(calls, spot, years)
	ann.annotate(puts, spot, years)

	sortByStrike(calls)
	sortByStrike(puts)

	logger.Debugf("tenor %s: %d/%d quotes retained", sel.Label, len(calls)+len(puts), rawCount)

	return chain.ExpirationBucket{
		Expiration:       sel.Date.Format("2006-01-02"),
		ExpirationLabel:  sel.Label,
		DaysToExpiration: sel.DaysToExpiration,
		Calls:            calls,
		Puts:             puts,
	}, nil
}

func sortByStrike(quotes []chain.Quote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].Strike < quotes[j].Strike
	})
}

// yearsToExpiry converts the expiry date to year-fraction from now,
// floored at one day so same-day expirations stay solvable downstream.
func yearsToExpiry(expiry, now time.Time) float64 {
	years := expiry.Sub(now).Hours() / 24 / 365.25
	return math.Max(years, 1/365.25)
}

// toSnapshot attaches the derived percent change to a provider snapshot.
func toSnapshot(s data.Snapshot) chain.Snapshot {
	return chain.Snapshot{
		Price:         s.Price,
		PreviousClose: s.PreviousClose,
		PercentChange: percentChange(s.Price, s.PreviousClose),
		Timestamp:     s.Timestamp,
	}
}

// percentChange returns (current-previous)/previous*100, rounded to two
// decimals. A zero previous close yields zero rather than infinity.
func percentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return math.Round((current-previous)/previous*100*100) / 100
}

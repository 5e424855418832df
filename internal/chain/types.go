// Package chain defines the data model shared across the analytics pipeline:
// option quotes, expiration buckets, market snapshots and the final
// calculation result.
//
// All derived fields are pointers. A nil pointer means "could not be
// computed", which is distinct from a legitimate zero value (e.g. a quote
// with no bid has MidPrice == nil, never a zero mid).
//
// Nothing in this package is mutated after the assembler has produced a
// CalculationResult.
package chain

import "time"

// OptionKind distinguishes calls from puts.
type OptionKind string

const (
	Call OptionKind = "call"
	Put  OptionKind = "put"
)

// Tenor labels the fixed target expiration buckets.
type Tenor string

const (
	Tenor2W Tenor = "2w"
	Tenor1M Tenor = "1m"
	Tenor6W Tenor = "6w"
	Tenor2M Tenor = "2m"
)

// Tenors returns the bucket labels in their fixed output order.
func Tenors() []Tenor {
	return []Tenor{Tenor2W, Tenor1M, Tenor6W, Tenor2M}
}

// TargetDays returns the tenor's target offset in calendar days.
func (t Tenor) TargetDays() int {
	switch t {
	case Tenor2W:
		return 14
	case Tenor1M:
		return 30
	case Tenor6W:
		return 42
	case Tenor2M:
		return 60
	}
	return 0
}

// Quote is a single option contract observation.
//
// The market fields come straight from the data provider.
// ImpliedVolatility is the provider-supplied volatility and is passed
// through untouched; the engine never recomputes it. Everything below it
// is derived by the pipeline.
type Quote struct {
	ContractSymbol string     `json:"contractSymbol"`
	Strike         float64    `json:"strike"`
	Bid            float64    `json:"bid"`
	Ask            float64    `json:"ask"`
	LastPrice      float64    `json:"lastPrice"`
	LastTradeDate  time.Time  `json:"lastTradeDate"`
	Volume         int64      `json:"volume"`
	OpenInterest   int64      `json:"openInterest"`
	Kind           OptionKind `json:"kind"`

	ImpliedVolatility *float64 `json:"impliedVolatility"`

	MidPrice             *float64 `json:"midPrice"`
	Moneyness            *float64 `json:"moneyness"`
	ImpliedVolatilityBid *float64 `json:"impliedVolatilityBid"`
	ImpliedVolatilityMid *float64 `json:"impliedVolatilityMid"`
	ImpliedVolatilityAsk *float64 `json:"impliedVolatilityAsk"`
	Delta                *float64 `json:"delta"`
}

// ExpirationBucket groups annotated quotes for one selected tenor.
// Calls and puts are sorted ascending by strike.
//
// Two buckets may share the same calendar date when the available
// expirations are sparse; buckets are keyed by label, not date.
type ExpirationBucket struct {
	Expiration       string  `json:"expiration"` // YYYY-MM-DD
	ExpirationLabel  Tenor   `json:"expirationLabel"`
	DaysToExpiration int     `json:"daysToExpiration"`
	Calls            []Quote `json:"calls"`
	Puts             []Quote `json:"puts"`
}

// Snapshot carries one price observation with its previous close.
// PercentChange is computed by the engine, not supplied by the provider.
type Snapshot struct {
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previousClose"`
	PercentChange float64   `json:"percentChange"`
	Timestamp     time.Time `json:"timestamp"`
}

// CalculationResult is the full output of one pipeline invocation.
// ExpirationDates follows the fixed tenor order {2w, 1m, 6w, 2m};
// a label with no eligible date is omitted rather than emitted empty.
type CalculationResult struct {
	Ticker          string             `json:"ticker"`
	Stock           Snapshot           `json:"stock"`
	VolatilityIndex Snapshot           `json:"volatilityIndex"`
	ExpirationDates []ExpirationBucket `json:"expirationDates"`
}

// TotalQuotes counts the quotes across all buckets. Used for logging.
func (r *CalculationResult) TotalQuotes() int {
	n := 0
	for _, b := range r.ExpirationDates {
		n += len(b.Calls) + len(b.Puts)
	}
	return n
}

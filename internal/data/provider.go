// Package data provides market data provider implementations.
//
// A Provider supplies everything one analytics computation consumes: the
// underlying's spot snapshot, the volatility index snapshot, the list of
// available expiration dates and the raw option chain per expiration.
// Providers are read-only collaborators; the engine never writes through
// them and treats every returned value as a fresh snapshot.
package data

import (
	"time"

	"github.com/contactkeval/option-analytics/internal/chain"
)

// Snapshot is one price observation as delivered by a provider.
// PercentChange is deliberately absent; the engine derives it.
type Snapshot struct {
	Price         float64
	PreviousClose float64
	Timestamp     time.Time
}

// Provider supplies market data for one underlying.
type Provider interface {
	// Secondary returns an optional fallback provider, or nil.
	Secondary() Provider

	// GetSpot returns the current spot snapshot for the ticker.
	GetSpot(ticker string) (Snapshot, error)

	// GetVolatilityIndex returns the volatility index snapshot.
	GetVolatilityIndex() (Snapshot, error)

	// GetExpirations returns every available option expiration date for
	// the ticker, as calendar dates (midnight UTC).
	GetExpirations(ticker string) ([]time.Time, error)

	// GetChain returns the raw option quotes for one expiration date,
	// split into calls and puts. Provider-supplied implied volatility is
	// carried on each quote when the source has one; all derived fields
	// are left nil.
	GetChain(ticker string, expiry time.Time) (calls, puts []chain.Quote, err error)
}

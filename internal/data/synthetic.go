package data

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/contactkeval/option-analytics/internal/chain"
	"github.com/contactkeval/option-analytics/internal/pricing"
)

// synthDataProvider implements Provider generating synthetic data.
//
// Chains are priced through the Black-Scholes primitive with a mild
// volatility smile, so downstream solves recover sensible values. All
// output is deterministic for a given seed, which makes the provider
// usable both as a no-credentials demo mode and as a test fixture.
type synthDataProvider struct {
	seed      int64
	now       time.Time
	secondary Provider
}

// NewSyntheticProvider returns a deterministic provider seeded with seed.
// now anchors the generated expiration calendar.
func NewSyntheticProvider(seed int64, now time.Time) Provider {
	return &synthDataProvider{seed: seed, now: now.UTC()}
}

func (synthDataProv *synthDataProvider) Secondary() Provider {
	return synthDataProv.secondary
}

func (synthDataProv *synthDataProvider) rng(salt string) *rand.Rand {
	h := synthDataProv.seed
	for _, c := range salt {
		h = h*31 + int64(c)
	}
	return rand.New(rand.NewSource(h))
}

func (synthDataProv *synthDataProvider) GetSpot(ticker string) (Snapshot, error) {
	if synthDataProv.secondary != nil {
		return synthDataProv.secondary.GetSpot(ticker)
	}
	rng := synthDataProv.rng("spot:" + ticker)
	price := 100.0 + 400.0*rng.Float64()
	prev := price * (1 + rng.NormFloat64()*0.01)
	return Snapshot{
		Price:         math.Round(price*100) / 100,
		PreviousClose: math.Round(prev*100) / 100,
		Timestamp:     synthDataProv.now,
	}, nil
}

func (synthDataProv *synthDataProvider) GetVolatilityIndex() (Snapshot, error) {
	if synthDataProv.secondary != nil {
		return synthDataProv.secondary.GetVolatilityIndex()
	}
	rng := synthDataProv.rng("vix")
	vix := 12.0 + 20.0*rng.Float64()
	prev := vix * (1 + rng.NormFloat64()*0.03)
	return Snapshot{
		Price:         math.Round(vix*100) / 100,
		PreviousClose: math.Round(prev*100) / 100,
		Timestamp:     synthDataProv.now,
	}, nil
}

// GetExpirations generates a weekly Friday calendar covering the next
// twelve weeks, which is dense enough for every tenor target.
func (synthDataProv *synthDataProvider) GetExpirations(ticker string) ([]time.Time, error) {
	if synthDataProv.secondary != nil {
		return synthDataProv.secondary.GetExpirations(ticker)
	}

	day := synthDataProv.now.Truncate(24 * time.Hour)
	for day.Weekday() != time.Friday {
		day = day.AddDate(0, 0, 1)
	}

	var out []time.Time
	for i := 0; i < 12; i++ {
		out = append(out, day.AddDate(0, 0, 7*i))
	}
	return out, nil
}

// GetChain generates quotes on a strike grid spanning well past the
// moneyness band, priced with a smile so implied volatility varies by
// strike the way a real chain's does.
func (synthDataProv *synthDataProvider) GetChain(ticker string, expiry time.Time) (calls, puts []chain.Quote, err error) {
	if synthDataProv.secondary != nil {
		return synthDataProv.secondary.GetChain(ticker, expiry)
	}

	spot, err := synthDataProv.GetSpot(ticker)
	if err != nil {
		return nil, nil, err
	}

	years := expiry.Sub(synthDataProv.now).Hours() / 24 / 365.25
	if years <= 0 {
		return nil, nil, fmt.Errorf("expiry %s not after now", expiry.Format("2006-01-02"))
	}

	rng := synthDataProv.rng("chain:" + ticker + expiry.Format("20060102"))
	step := math.Max(1, math.Round(spot.Price/100))

	for k := math.Round(spot.Price*0.75/step) * step; k <= spot.Price*1.25; k += step {
		moneyness := k / spot.Price
		smile := 0.20 + 0.25*(moneyness-1)*(moneyness-1)

		for _, kind := range []chain.OptionKind{chain.Call, chain.Put} {
			fair := pricing.Price(kind == chain.Call, spot.Price, k, years, 0.03, smile)
			if fair < 0.02 {
				fair = 0.02
			}
			// A half-spread of at least one cent keeps bid < ask even
			// after rounding to cents.
			spread := math.Max(0.01, fair*0.03)
			iv := smile

			calls, puts = appendQuote(calls, puts, chain.Quote{
				ContractSymbol:    synthSymbol(ticker, expiry, kind, k),
				Strike:            k,
				Bid:               math.Round((fair-spread)*100) / 100,
				Ask:               math.Round((fair+spread)*100) / 100,
				LastPrice:         math.Round(fair*100) / 100,
				LastTradeDate:     synthDataProv.now.Add(-time.Duration(rng.Intn(48)) * time.Hour),
				Volume:            int64(rng.Intn(5000)),
				OpenInterest:      int64(rng.Intn(20000)),
				Kind:              kind,
				ImpliedVolatility: &iv,
			})
		}
	}

	return calls, puts, nil
}

func appendQuote(calls, puts []chain.Quote, q chain.Quote) ([]chain.Quote, []chain.Quote) {
	if q.Kind == chain.Call {
		return append(calls, q), puts
	}
	return calls, append(puts, q)
}

// synthSymbol builds an OCC-like contract symbol:
// <root><YYMMDD><C|P><strike*1000 padded to 8 digits>.
func synthSymbol(ticker string, expiry time.Time, kind chain.OptionKind, strike float64) string {
	letter := "C"
	if kind == chain.Put {
		letter = "P"
	}
	return fmt.Sprintf("%s%s%s%08d",
		ticker, expiry.Format("060102"), letter, int(math.Round(strike*1000)))
}

// Package pricing implements the Black-Scholes closed form for European
// options together with the root-finder that inverts it for implied
// volatility.
//
// All functions are pure and operate on float64. Failures are reported as
// typed errors (see impliedvol.go); nothing in this package panics on bad
// market data.
package pricing

import "math"

const sqrt2Pi = 2.5066282746310002

// Price calculates the Black-Scholes price of a European option.
//
// Parameters:
//   - isCall: true for call option, false for put option
//   - S: spot price of the underlying asset
//   - K: strike price of the option
//   - T: time to expiry in years
//   - r: risk-free interest rate (annual)
//   - sigma: volatility of the underlying asset (annual, as a decimal)
//
// If time to expiry or volatility is zero or negative the option has no
// remaining optionality and the intrinsic value is returned instead.
func Price(
	isCall bool,
	S float64, // spot
	K float64, // strike
	T float64, // time to expiry in years
	r float64, // risk-free rate
	sigma float64, // volatility
) float64 {

	if T <= 0 || sigma <= 0 {
		if isCall {
			return math.Max(0, S-K)
		}
		return math.Max(0, K-S)
	}

	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	d2 := d1 - sigma*math.Sqrt(T)

	if isCall {
		return S*normCDF(d1) - K*math.Exp(-r*T)*normCDF(d2)
	}
	return K*math.Exp(-r*T)*normCDF(-d2) - S*normCDF(-d1)
}

// Vega calculates the sensitivity of the option price to changes in
// volatility. Calls and puts share the same vega.
//
// Returns 0 if T or sigma is non-positive.
func Vega(
	S float64,
	K float64,
	T float64,
	r float64,
	sigma float64,
) float64 {

	if T <= 0 || sigma <= 0 {
		return 0
	}

	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	return S * normPDF(d1) * math.Sqrt(T)
}

// Delta calculates the analytic Black-Scholes delta: N(d1) for calls,
// N(d1)-1 for puts. Call deltas lie in [0,1], put deltas in [-1,0].
//
// Inputs are validated the same way as the implied volatility solver;
// invalid inputs yield ErrInvalidInput.
func Delta(
	isCall bool,
	S float64,
	K float64,
	T float64,
	r float64,
	sigma float64,
) (float64, error) {

	if S <= 0 || K <= 0 || T <= timeEpsilon || sigma <= 0 || sigma > volMax {
		return 0, ErrInvalidInput
	}

	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))

	if isCall {
		return normCDF(d1), nil
	}
	return normCDF(d1) - 1, nil
}

// normPDF is the standard normal probability density at x.
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / sqrt2Pi
}

// normCDF is the standard normal cumulative distribution at x,
// computed via the error function.
func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

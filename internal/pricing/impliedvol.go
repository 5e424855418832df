package pricing

import (
	"errors"
	"math"
)

// Typed failure modes of the root-finder. Callers detect the category with
// errors.Is; none of these ever crosses a package boundary as a panic.
var (
	// ErrInvalidInput marks a precondition violation: non-positive target
	// price, spot or strike, or a degenerate (same-day) time to expiry.
	ErrInvalidInput = errors.New("invalid solver input")

	// ErrOutOfBounds marks a target price that no non-negative volatility
	// can reproduce: below intrinsic value or above the value of the
	// underlying itself.
	ErrOutOfBounds = errors.New("target price outside arbitrage bounds")

	// ErrNoConvergence marks an exhausted iteration budget.
	ErrNoConvergence = errors.New("implied volatility did not converge")
)

const (
	timeEpsilon = 1e-6 // years; below this the expiry is degenerate
	volMin      = 1e-4
	volMax      = 5.0
	solveTol    = 1e-4 // absolute price error
	maxIter     = 100
)

// SolveImpliedVol finds the volatility at which the Black-Scholes price of
// the option equals target.
//
// The solver runs Newton-Raphson seeded at 20% volatility and falls back to
// bisection on [volMin, volMax] whenever a Newton step leaves the bracket or
// vega collapses. Convergence means the repriced option is within solveTol
// of target; the iteration count is capped at maxIter so a bad input can
// never stall a computation.
func SolveImpliedVol(
	target float64,
	S float64,
	K float64,
	T float64,
	r float64,
	isCall bool,
) (float64, error) {

	if target <= 0 || S <= 0 || K <= 0 || T <= timeEpsilon {
		return 0, ErrInvalidInput
	}

	// No-arbitrage bounds: the option is worth at least its discounted
	// intrinsic value and never more than the asset backing it.
	var intrinsic, upper float64
	if isCall {
		intrinsic = math.Max(0, S-K*math.Exp(-r*T))
		upper = S
	} else {
		intrinsic = math.Max(0, K*math.Exp(-r*T)-S)
		upper = K * math.Exp(-r*T)
	}
	if target < intrinsic-solveTol || target > upper+solveTol {
		return 0, ErrOutOfBounds
	}

	lo, hi := volMin, volMax
	sigma := 0.20

	for i := 0; i < maxIter; i++ {
		price := Price(isCall, S, K, T, r, sigma)
		diff := price - target

		if math.Abs(diff) < solveTol {
			return sigma, nil
		}

		// Price is monotone in volatility, so every evaluation
		// tightens the bisection bracket.
		if diff > 0 {
			hi = sigma
		} else {
			lo = sigma
		}

		next := sigma
		if vega := Vega(S, K, T, r, sigma); vega > 1e-8 {
			next = sigma - diff/vega
		}

		// Newton left the bracket or made no progress: bisect.
		if next <= lo || next >= hi {
			next = 0.5 * (lo + hi)
		}
		sigma = next
	}

	return 0, ErrNoConvergence
}

// Package engine implements the options analytics pipeline: tenor
// selection, moneyness filtering, per-quote implied volatility and delta
// annotation, and assembly of the final calculation result.
//
// One Engine.Run call is one complete, stateless computation. Nothing is
// shared or cached across invocations; the only time source is the "now"
// instant passed in explicitly, which makes runs over identical input
// byte-identical.
package engine

import "runtime"

// Config holds the policy knobs of one pipeline. All constants the
// calculation depends on live here rather than in package globals, so a
// computation is fully described by (Config, input snapshot, now).
type Config struct {
	Ticker       string  `json:"ticker,omitempty"`         // default underlying, e.g. "SPY"
	RiskFreeRate float64 `json:"risk_free_rate,omitempty"` // annual rate used for every solve
	MinMoneyness float64 `json:"min_moneyness,omitempty"`  // lower strike/spot bound, inclusive
	MaxMoneyness float64 `json:"max_moneyness,omitempty"`  // upper strike/spot bound, inclusive
	QuoteFilter  string  `json:"quote_filter,omitempty"`   // optional expression, e.g. "volume >= 10"
	Workers      int     `json:"workers,omitempty"`        // annotation fan-out width
	OutputDir    string  `json:"output_dir,omitempty"`     // report directory for one-shot runs
	Verbosity    int     `json:"verbosity,omitempty"`      // 0=errors,1=info,2=debug,3=trace
}

// fillDefaults resolves zero values to the pipeline's standing policy.
func (cfg *Config) fillDefaults() {
	if cfg.Ticker == "" {
		cfg.Ticker = "SPY"
	}
	if cfg.RiskFreeRate == 0 {
		cfg.RiskFreeRate = 0.03
	}
	if cfg.MinMoneyness == 0 {
		cfg.MinMoneyness = 0.85
	}
	if cfg.MaxMoneyness == 0 {
		cfg.MaxMoneyness = 1.15
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "out"
	}
}

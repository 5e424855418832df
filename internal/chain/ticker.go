package chain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTicker indicates a ticker symbol that failed validation.
// Callers detect it with errors.Is rather than string matching.
var ErrInvalidTicker = errors.New("invalid ticker symbol")

// NormalizeTicker trims and uppercases a ticker symbol and rejects anything
// that is not alphanumeric plus '.', '-' or a leading '^' (index symbols
// such as ^VIX).
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTicker)
	}

	for i, c := range t {
		if c == '^' && i == 0 {
			continue
		}
		if c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '.' || c == '-' {
			continue
		}
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}

	return t, nil
}

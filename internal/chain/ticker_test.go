package chain

import (
	"errors"
	"testing"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"spy", "SPY"},
		{" aapl ", "AAPL"},
		{"^vix", "^VIX"},
		{"brk.b", "BRK.B"},
		{"bf-b", "BF-B"},
	}

	for _, test := range tests {
		actual, err := NormalizeTicker(test.in)
		if err != nil {
			t.Fatalf("NormalizeTicker(%q): %v", test.in, err)
		}
		if actual != test.expected {
			t.Fatalf("NormalizeTicker(%q): expected %q, got %q", test.in, test.expected, actual)
		}
	}
}

func TestNormalizeTickerInvalid(t *testing.T) {
	for _, in := range []string{"", "   ", "SP Y", "SPY;DROP", "A^B"} {
		_, err := NormalizeTicker(in)
		if !errors.Is(err, ErrInvalidTicker) {
			t.Fatalf("NormalizeTicker(%q): expected ErrInvalidTicker, got %v", in, err)
		}
	}
}

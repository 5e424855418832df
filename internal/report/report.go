// Package report writes one-shot calculation results to disk: the full
// JSON result and a flattened per-quote CSV for spreadsheet work.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/contactkeval/option-analytics/internal/chain"
)

// WriteJSON writes the full result as indented JSON to result.json.
func WriteJSON(res *chain.CalculationResult, outdir string) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, "result.json"), b, 0644)
}

// WriteCSV writes every quote of every bucket to quotes.csv, one row per
// contract, calls and puts interleaved per bucket in strike order.
func WriteCSV(res *chain.CalculationResult, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, "quotes.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	headers := []string{
		"expiration", "label", "days_to_expiration", "kind", "contract_symbol",
		"strike", "bid", "ask", "last_price", "last_trade_date", "volume", "open_interest",
		"mid_price", "moneyness", "iv_provider", "iv_bid", "iv_mid", "iv_ask", "delta",
	}
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, bucket := range res.ExpirationDates {
		for _, q := range bucket.Calls {
			if err := w.Write(quoteRow(bucket, q)); err != nil {
				return err
			}
		}
		for _, q := range bucket.Puts {
			if err := w.Write(quoteRow(bucket, q)); err != nil {
				return err
			}
		}
	}
	return nil
}

func quoteRow(bucket chain.ExpirationBucket, q chain.Quote) []string {
	return []string{
		bucket.Expiration,
		string(bucket.ExpirationLabel),
		fmt.Sprintf("%d", bucket.DaysToExpiration),
		string(q.Kind),
		q.ContractSymbol,
		fmt.Sprintf("%.2f", q.Strike),
		fmt.Sprintf("%.2f", q.Bid),
		fmt.Sprintf("%.2f", q.Ask),
		fmt.Sprintf("%.2f", q.LastPrice),
		q.LastTradeDate.UTC().Format(time.RFC3339),
		fmt.Sprintf("%d", q.Volume),
		fmt.Sprintf("%d", q.OpenInterest),
		fmtPtr(q.MidPrice, "%.4f"),
		fmtPtr(q.Moneyness, "%.4f"),
		fmtPtr(q.ImpliedVolatility, "%.4f"),
		fmtPtr(q.ImpliedVolatilityBid, "%.4f"),
		fmtPtr(q.ImpliedVolatilityMid, "%.4f"),
		fmtPtr(q.ImpliedVolatilityAsk, "%.4f"),
		fmtPtr(q.Delta, "%.4f"),
	}
}

// fmtPtr renders a nullable field; nil becomes the empty cell.
func fmtPtr(v *float64, format string) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf(format, *v)
}

// Yahoo-backed Provider implementation. Retrieves spot quotes, the VIX
// reading, option expirations and raw option chains via the public Yahoo
// Finance HTTP endpoints.
//
// Design notes:
//   - Raw net/http calls, no SDK
//   - Rate-limit retries on 429, fallback to a secondary provider is the
//     caller's concern (Secondary() exposes it)
//   - Logging is intentionally verbose at Debug/Trace levels for diagnostics
package data

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/contactkeval/option-analytics/internal/chain"
	"github.com/contactkeval/option-analytics/internal/logger"
)

// vixSymbol is the volatility index quoted alongside every computation.
const vixSymbol = "^VIX"

// yahooDataProvider implements the Provider interface against Yahoo Finance.
type yahooDataProvider struct {
	// Client is the HTTP client used to make API requests.
	Client *http.Client

	// BaseURL is the root endpoint (e.g. https://query2.finance.yahoo.com).
	// Overridable for tests and self-hosted mirrors.
	BaseURL string

	// secondary is an optional fallback provider.
	secondary Provider
}

// yahooQuote models one entry of the v7 quote endpoint response.
type yahooQuote struct {
	Symbol                     string  `json:"symbol"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
	RegularMarketTime          int64   `json:"regularMarketTime"`
}

type yahooQuoteResp struct {
	QuoteResponse struct {
		Result []yahooQuote `json:"result"`
	} `json:"quoteResponse"`
}

// yahooContract models one option contract in the chain response.
type yahooContract struct {
	ContractSymbol    string  `json:"contractSymbol"`
	Strike            float64 `json:"strike"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	LastPrice         float64 `json:"lastPrice"`
	LastTradeDate     int64   `json:"lastTradeDate"`
	Volume            int64   `json:"volume"`
	OpenInterest      int64   `json:"openInterest"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
}

type yahooChainResp struct {
	OptionChain struct {
		Result []struct {
			ExpirationDates []int64 `json:"expirationDates"`
			Options         []struct {
				Calls []yahooContract `json:"calls"`
				Puts  []yahooContract `json:"puts"`
			} `json:"options"`
		} `json:"result"`
	} `json:"optionChain"`
}

// NewYahooProvider constructs a Yahoo-backed data provider.
//
// baseURL may be empty, in which case the public endpoint is used.
func NewYahooProvider(baseURL string) Provider {
	if baseURL == "" {
		baseURL = "https://query2.finance.yahoo.com"
	}
	return &yahooDataProvider{
		Client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				DisableCompression:    false, // keep gzip auto-decompression
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		BaseURL: baseURL,
	}
}

// Secondary returns the configured secondary Provider, if any.
func (yahooDataProv *yahooDataProvider) Secondary() Provider {
	return yahooDataProv.secondary
}

// GetSpot returns the current spot snapshot for the ticker.
//
// The price field fallback order matches the upstream quote payload:
// regularMarketPrice first, previous close as a last resort.
func (yahooDataProv *yahooDataProvider) GetSpot(ticker string) (Snapshot, error) {
	logger.Debugf("spot request: %s", ticker)

	u, err := url.Parse(yahooDataProv.BaseURL + "/v7/finance/quote")
	if err != nil {
		return Snapshot{}, err
	}
	query := u.Query()
	query.Set("symbols", ticker)
	u.RawQuery = query.Encode()

	var body yahooQuoteResp
	if err := yahooDataProv.getJSON(u.String(), &body); err != nil {
		return Snapshot{}, fmt.Errorf("spot quote for %s: %w", ticker, err)
	}

	if len(body.QuoteResponse.Result) == 0 {
		return Snapshot{}, fmt.Errorf("no quote returned for %s", ticker)
	}
	q := body.QuoteResponse.Result[0]

	price := q.RegularMarketPrice
	if price <= 0 {
		price = q.RegularMarketPreviousClose
	}
	if price <= 0 {
		return Snapshot{}, fmt.Errorf("no usable price for %s", ticker)
	}

	ts := time.Unix(q.RegularMarketTime, 0).UTC()
	if q.RegularMarketTime == 0 {
		ts = time.Now().UTC()
	}

	logger.Tracef("spot resolved %s price=%.2f prev=%.2f", ticker, price, q.RegularMarketPreviousClose)

	return Snapshot{
		Price:         price,
		PreviousClose: q.RegularMarketPreviousClose,
		Timestamp:     ts,
	}, nil
}

// GetVolatilityIndex returns the VIX snapshot.
func (yahooDataProv *yahooDataProvider) GetVolatilityIndex() (Snapshot, error) {
	return yahooDataProv.GetSpot(vixSymbol)
}

// GetExpirations returns every available option expiration date for the
// ticker as midnight-UTC calendar dates.
func (yahooDataProv *yahooDataProvider) GetExpirations(ticker string) ([]time.Time, error) {
	logger.Debugf("expirations request: %s", ticker)

	var body yahooChainResp
	u := fmt.Sprintf("%s/v7/finance/options/%s", yahooDataProv.BaseURL, url.PathEscape(ticker))
	if err := yahooDataProv.getJSON(u, &body); err != nil {
		return nil, fmt.Errorf("expirations for %s: %w", ticker, err)
	}

	if len(body.OptionChain.Result) == 0 {
		return nil, nil
	}

	var out []time.Time
	for _, epoch := range body.OptionChain.Result[0].ExpirationDates {
		out = append(out, time.Unix(epoch, 0).UTC().Truncate(24*time.Hour))
	}

	logger.Tracef("received %d expirations for %s", len(out), ticker)
	return out, nil
}

// GetChain returns the raw option quotes for one expiration date.
func (yahooDataProv *yahooDataProvider) GetChain(ticker string, expiry time.Time) (calls, puts []chain.Quote, err error) {
	logger.Debugf("chain request: %s expiry=%s", ticker, expiry.Format("2006-01-02"))

	u, err := url.Parse(fmt.Sprintf("%s/v7/finance/options/%s", yahooDataProv.BaseURL, url.PathEscape(ticker)))
	if err != nil {
		return nil, nil, err
	}
	query := u.Query()
	query.Set("date", fmt.Sprintf("%d", expiry.Unix()))
	u.RawQuery = query.Encode()

	var body yahooChainResp
	if err := yahooDataProv.getJSON(u.String(), &body); err != nil {
		return nil, nil, fmt.Errorf("chain for %s %s: %w", ticker, expiry.Format("2006-01-02"), err)
	}

	if len(body.OptionChain.Result) == 0 || len(body.OptionChain.Result[0].Options) == 0 {
		return nil, nil, nil
	}
	chains := body.OptionChain.Result[0].Options[0]

	for _, c := range chains.Calls {
		calls = append(calls, contractToQuote(c, chain.Call))
	}
	for _, p := range chains.Puts {
		puts = append(puts, contractToQuote(p, chain.Put))
	}

	logger.Tracef("received %d calls, %d puts for %s %s",
		len(calls), len(puts), ticker, expiry.Format("2006-01-02"))
	return calls, puts, nil
}

// contractToQuote maps a raw upstream contract into the shared Quote model.
// Derived fields stay nil; a provider volatility of zero means "absent".
func contractToQuote(c yahooContract, kind chain.OptionKind) chain.Quote {
	q := chain.Quote{
		ContractSymbol: c.ContractSymbol,
		Strike:         c.Strike,
		Bid:            c.Bid,
		Ask:            c.Ask,
		LastPrice:      c.LastPrice,
		LastTradeDate:  time.Unix(c.LastTradeDate, 0).UTC(),
		Volume:         c.Volume,
		OpenInterest:   c.OpenInterest,
		Kind:           kind,
	}
	if c.ImpliedVolatility > 0 {
		iv := c.ImpliedVolatility
		q.ImpliedVolatility = &iv
	}
	return q
}

// getJSON performs a GET with rate-limit handling and decodes the JSON body.
func (yahooDataProv *yahooDataProvider) getJSON(reqURL string, out any) error {
	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "option-analytics/1.0")

	resp, err := yahooDataProv.processGetRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return fmt.Errorf("empty response body")
	}

	if resp.StatusCode != http.StatusOK {
		logger.Errorf("yahoo API error status=%d url=%s", resp.StatusCode, reqURL)
		return fmt.Errorf("yahoo returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// processGetRequest executes the request, sleeping through per-minute rate
// limits (429) until a terminal response arrives.
func (yahooDataProv *yahooDataProvider) processGetRequest(req *http.Request) (*http.Response, error) {
	for {
		resp, err := yahooDataProv.Client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 400 {
			return resp, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()

			// Sleep until the next minute boundary
			now := time.Now()
			sleepDuration := time.Until(
				now.Truncate(time.Minute).Add(time.Minute),
			)

			logger.Infof("rate limit hit, sleeping for %s", sleepDuration)
			time.Sleep(sleepDuration)
			continue
		}

		return resp, nil
	}
}

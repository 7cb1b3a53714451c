// Package pricefeed calls the external price-feed API that quotes crypto
// assets in fiat currencies. It is consumed only by the rate service, which
// treats every failure here as non-fatal.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// retryBackoff is the wait schedule between retryable attempts.
var retryBackoff = []time.Duration{
	500 * time.Millisecond,
	1 * time.Second,
	2 * time.Second,
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.PriceFeed against an HTTP price API.
// The API returns rates nested by asset then fiat currency:
//
//	{"data": {"SUI": {"NGN": 5234.75}}}
type Client struct {
	baseURL    string
	httpClient HTTPClient
	maxRetries int
	log        zerolog.Logger
}

// NewClient creates a price-feed client. maxRetries bounds the extra
// attempts made on 5xx and network errors; 4xx responses never retry.
func NewClient(baseURL string, httpClient HTTPClient, maxRetries int, log zerolog.Logger) *Client {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if maxRetries > len(retryBackoff) {
		maxRetries = len(retryBackoff)
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		log:        log,
	}
}

// NewHTTPClient builds the default underlying http.Client with a bounded
// request timeout and a separate connect timeout.
func NewHTTPClient(requestTimeout, connectTimeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		},
	}
}

type feedResponse struct {
	Data map[string]map[string]json.Number `json:"data"`
}

// FetchRate fetches the fiat price of one unit of asset.
func (c *Client) FetchRate(ctx context.Context, asset, fiat string) (decimal.Decimal, error) {
	reqURL := fmt.Sprintf("%s/v1/prices?%s", c.baseURL, url.Values{
		"assets":     {asset},
		"currencies": {fiat},
	}.Encode())

	var lastErr error
	for attempt := 0; ; attempt++ {
		rate, retryable, err := c.fetchOnce(ctx, reqURL, asset, fiat)
		if err == nil {
			return rate, nil
		}
		lastErr = err

		if !retryable || attempt >= c.maxRetries {
			return decimal.Zero, lastErr
		}

		c.log.Warn().Err(err).
			Str("asset", asset).
			Str("fiat", fiat).
			Int("attempt", attempt+1).
			Msg("price feed fetch failed, retrying")

		select {
		case <-ctx.Done():
			return decimal.Zero, ctx.Err()
		case <-time.After(retryBackoff[attempt]):
		}
	}
}

// fetchOnce performs a single request. retryable is true for network errors
// and 5xx statuses only.
func (c *Client) fetchOnce(ctx context.Context, reqURL, asset, fiat string) (decimal.Decimal, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("build price feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, true, fmt.Errorf("price feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return decimal.Zero, true, fmt.Errorf("price feed returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, false, fmt.Errorf("price feed returned %d", resp.StatusCode)
	}

	var body feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, false, fmt.Errorf("decode price feed response: %w", err)
	}

	quotes, ok := body.Data[asset]
	if !ok {
		return decimal.Zero, false, fmt.Errorf("price feed response missing asset %s", asset)
	}
	raw, ok := quotes[fiat]
	if !ok {
		return decimal.Zero, false, fmt.Errorf("price feed response missing %s quote for %s", fiat, asset)
	}

	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse price feed rate %q: %w", raw.String(), err)
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false, fmt.Errorf("price feed returned non-positive rate %s", rate)
	}
	return rate, false, nil
}

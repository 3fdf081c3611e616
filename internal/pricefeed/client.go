// Package pricefeed wraps the external market-data endpoint behind a small
// time-boxed cache, shielding the rest of the system from the provider's
// rate limits. Failures propagate to the caller; nothing in this package
// substitutes a hardcoded price.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Quote is the current price of one symbol in USD.
type Quote struct {
	Symbol    string  `json:"symbol"`
	PriceUSD  float64 `json:"price_usd"`
	Change24h float64 `json:"change_24h"`
	FetchedAt time.Time `json:"fetched_at"`
}

// symbolIDs maps platform symbols to provider coin ids.
var symbolIDs = map[string]string{
	"BTC": "bitcoin",
}

// Client fetches and caches prices. The clock is injectable so cache
// freshness can be tested without sleeping.
type Client struct {
	baseURL string
	http    *http.Client
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger

	mu    sync.RWMutex
	cache map[string]Quote
}

func NewClient(baseURL string, ttl time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		ttl:     ttl,
		now:     time.Now,
		log:     log,
		cache:   make(map[string]Quote),
	}
}

// WithClock replaces the client's clock. Test hook.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// Price returns the current quote for one symbol, hitting the network only
// when the cached value is older than the freshness window.
func (c *Client) Price(ctx context.Context, symbol string) (Quote, error) {
	quotes, err := c.Prices(ctx, []string{symbol})
	if err != nil {
		return Quote{}, err
	}
	return quotes[symbol], nil
}

// Prices returns quotes for the given symbols. Symbols with a fresh cached
// quote are served from the cache; the rest are fetched in one request.
func (c *Client) Prices(ctx context.Context, symbols []string) (map[string]Quote, error) {
	result := make(map[string]Quote, len(symbols))
	var stale []string

	c.mu.RLock()
	for _, s := range symbols {
		q, ok := c.cache[s]
		if ok && c.now().Sub(q.FetchedAt) < c.ttl {
			result[s] = q
		} else {
			stale = append(stale, s)
		}
	}
	c.mu.RUnlock()

	if len(stale) == 0 {
		return result, nil
	}

	fetched, err := c.fetch(ctx, stale)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for s, q := range fetched {
		c.cache[s] = q
		result[s] = q
	}
	c.mu.Unlock()

	return result, nil
}

// providerEntry is one coin object in the provider response.
type providerEntry struct {
	USD          *float64 `json:"usd"`
	USD24hChange float64  `json:"usd_24h_change"`
}

func (c *Client) fetch(ctx context.Context, symbols []string) (map[string]Quote, error) {
	ids := make([]string, 0, len(symbols))
	for _, s := range symbols {
		id, ok := symbolIDs[s]
		if !ok {
			return nil, fmt.Errorf("price feed: unknown symbol %q", s)
		}
		ids = append(ids, id)
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		c.baseURL, url.QueryEscape(strings.Join(ids, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("price feed: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price feed: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price feed: unexpected status %d", resp.StatusCode)
	}

	var body map[string]providerEntry
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("price feed: decode response: %w", err)
	}

	fetchedAt := c.now()
	quotes := make(map[string]Quote, len(symbols))
	for i, s := range symbols {
		entry, ok := body[ids[i]]
		if !ok || entry.USD == nil {
			return nil, fmt.Errorf("price feed: missing price for %s", s)
		}
		price := *entry.USD
		if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			return nil, fmt.Errorf("price feed: invalid price %v for %s", price, s)
		}
		quotes[s] = Quote{
			Symbol:    s,
			PriceUSD:  price,
			Change24h: entry.USD24hChange,
			FetchedAt: fetchedAt,
		}
	}

	c.log.Debug("fetched prices from provider", zap.Strings("symbols", symbols))
	return quotes, nil
}

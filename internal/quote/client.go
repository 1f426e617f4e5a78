// Package quote implements the external quote lookup boundary: given a
// symbol it returns a current price and display name, or reports that
// the symbol is unknown.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"brokerage/types"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var ErrSymbolNotFound = errors.New("symbol not found in quote source")

// Client fetches quotes over HTTP with a bounded timeout, caching
// results in redis for a short TTL.
type Client struct {
	baseURL string
	httpc   *http.Client
	cache   *redis.Client
	ttl     time.Duration
	log     zerolog.Logger
}

// NewClient creates a quote client. cache may be nil to disable caching.
func NewClient(baseURL string, timeout time.Duration, cache *redis.Client, ttl time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		cache:   cache,
		ttl:     ttl,
		log:     log,
	}
}

// Lookup returns the current quote for symbol.
func (c *Client) Lookup(ctx context.Context, symbol string) (*types.Quote, error) {
	if q, ok := c.cached(ctx, symbol); ok {
		return q, nil
	}

	endpoint := fmt.Sprintf("%s/quote?symbol=%s", c.baseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrSymbolNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote lookup: unexpected status %d", resp.StatusCode)
	}

	var q types.Quote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return nil, fmt.Errorf("quote lookup: decode: %w", err)
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	if q.Price.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("quote lookup: non-positive price %s for %s", q.Price, q.Symbol)
	}

	c.store(ctx, &q)
	return &q, nil
}

func (c *Client) cached(ctx context.Context, symbol string) (*types.Quote, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, err := c.cache.Get(ctx, cacheKey(symbol)).Result()
	if err != nil {
		return nil, false
	}
	var q types.Quote
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, false
	}
	return &q, true
}

func (c *Client) store(ctx context.Context, q *types.Quote) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, cacheKey(q.Symbol), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("symbol", q.Symbol).Msg("failed to cache quote")
	}
}

func cacheKey(symbol string) string {
	return "quote:" + symbol
}

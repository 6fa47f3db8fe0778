// Package coingecko provides a client for the CoinGecko simple-price API,
// the sole source for the crypto segment.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yangbongclub/marketdesk/internal/clients/httpx"
	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/models"
)

// ProviderName is the adapter registry name for this client.
const ProviderName = "coingecko"

const (
	DefaultBaseURL   = "https://api.coingecko.com"
	DefaultTimeout   = 5 * time.Second
	DefaultRateLimit = 2 // requests per second

	simplePricePath = "/api/v3/simple/price"
)

// coin maps a display symbol to its CoinGecko id.
type coin struct {
	Symbol string
	ID     string
}

// coins are the tracked cryptocurrencies, in display order.
var coins = []coin{
	{Symbol: "BTC", ID: "bitcoin"},
	{Symbol: "ETH", ID: "ethereum"},
	{Symbol: "XRP", ID: "ripple"},
}

// Client implements the CoinGecko simple-price API.
type Client struct {
	baseURL    string
	httpClient *httpx.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient = httpx.New(timeout)
	}
}

// NewClient creates a new CoinGecko client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: httpx.New(DefaultTimeout),
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:     common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the adapter registry name.
func (c *Client) Name() string { return ProviderName }

// Fetch retrieves USD prices and 24h change for all tracked coins in one
// batched call. Response shape: {"bitcoin":{"usd":42000,"usd_24h_change":1.2},...}
func (c *Client) Fetch(ctx context.Context, segment string) ([]models.RawRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	ids := make([]string, 0, len(coins))
	for _, cn := range coins {
		ids = append(ids, cn.ID)
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, simplePricePath, params.Encode())

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Int("coins", len(ids)).Msg("CoinGecko price request")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, models.NewTransientError(ProviderName, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		if models.RetryableStatus(resp.StatusCode) {
			return nil, models.NewTransientError(ProviderName, resp.StatusCode, string(b), nil)
		}
		return nil, models.NewPermanentError(ProviderName, resp.StatusCode, string(b), nil)
	}

	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, models.NewPermanentError(ProviderName, resp.StatusCode, "malformed price response", err)
	}

	records := make([]models.RawRecord, 0, len(coins))
	for _, cn := range coins {
		prices, ok := payload[cn.ID]
		if !ok {
			c.logger.Warn().Str("coin", cn.ID).Msg("CoinGecko response missing coin")
			continue
		}
		rec := models.RawRecord{
			"symbol": cn.Symbol,
			"name":   cn.Symbol,
			"price":  prices["usd"],
		}
		if change, ok := prices["usd_24h_change"]; ok {
			rec["changeRate"] = change
		}
		records = append(records, rec)
	}
	return records, nil
}

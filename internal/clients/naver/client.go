// Package naver scrapes KR index quotes from Naver Finance pages. It is the
// unauthenticated fallback behind the KIS API: no keys, but the markup
// shifts without notice, so value extraction runs a cascade of strategies.
package naver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/yangbongclub/marketdesk/internal/clients/httpx"
	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/models"
)

// ProviderName is the adapter registry name for this client.
const ProviderName = "naver"

const (
	DefaultBaseURL   = "https://finance.naver.com"
	DefaultTimeout   = 6 * time.Second
	DefaultRateLimit = 2 // requests per second

	// maxBodySize caps the page read; index pages are well under this.
	maxBodySize = 2 << 20
)

// indexPage maps an index symbol to its Naver page code.
type indexPage struct {
	Symbol string
	Code   string
}

// krIndexPages are the index pages this client scrapes.
var krIndexPages = []indexPage{
	{Symbol: "KOSPI", Code: "KOSPI"},
	{Symbol: "KOSDAQ", Code: "KOSDAQ"},
	{Symbol: "KOSPI200", Code: "KPI200"},
}

// Client scrapes index values from Naver Finance.
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
		c.httpClient.UserAgent = httpx.BrowserUserAgent
	}
}

// NewClient creates a new Naver Finance scrape client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: httpx.New(DefaultTimeout),
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:     common.NewSilentLogger(),
	}
	c.httpClient.UserAgent = httpx.BrowserUserAgent

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the adapter registry name.
func (c *Client) Name() string { return ProviderName }

// Fetch scrapes all KR index pages. Indices whose page cannot be parsed are
// skipped; the fetch only fails when every page fails.
func (c *Client) Fetch(ctx context.Context, segment string) ([]models.RawRecord, error) {
	records := make([]models.RawRecord, 0, len(krIndexPages))
	var lastErr error

	for _, page := range krIndexPages {
		rec, err := c.fetchIndex(ctx, page)
		if err != nil {
			c.logger.Warn().Err(err).Str("symbol", page.Symbol).Msg("Naver index fetch failed")
			lastErr = err
			continue
		}
		if rec == nil {
			c.logger.Warn().Str("symbol", page.Symbol).Msg("Naver page yielded no plausible price")
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return records, nil
}

func (c *Client) fetchIndex(ctx context.Context, page indexPage) (models.RawRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/sise/sise_index.naver?code=%s", c.baseURL, page.Code)
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, models.NewTransientError(ProviderName, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if models.RetryableStatus(resp.StatusCode) {
			return nil, models.NewTransientError(ProviderName, resp.StatusCode, "index page fetch failed", nil)
		}
		return nil, models.NewPermanentError(ProviderName, resp.StatusCode, "index page fetch failed", nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, models.NewTransientError(ProviderName, 0, "body read failed", err)
	}

	ext := ExtractIndex(string(body), page.Symbol)
	if ext == nil {
		return nil, nil
	}

	rec := models.RawRecord{
		"symbol": page.Symbol,
		"name":   page.Symbol,
		"price":  ext.Price,
	}
	if ext.ChangeRate != 0 {
		rec["changeRate"] = ext.ChangeRate
	}
	return rec, nil
}

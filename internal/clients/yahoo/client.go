// Package yahoo provides a client for the Yahoo Finance v7 quote API,
// covering US index and commodity futures quotes in a single batched call.
package yahoo

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
const ProviderName = "yahoo"

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 5 * time.Second
	DefaultRateLimit = 2 // requests per second

	quotePath = "/v7/finance/quote"
)

// symbolSet maps display symbols to Yahoo tickers for one segment.
// Batched into one request per segment; the quote endpoint rate-limits
// aggressively, so one comma-joined call beats three.
type symbolSet map[string]string

var segmentSymbols = map[string]symbolSet{
	models.SegmentUS: {
		"DJI":  "^DJI",
		"IXIC": "^IXIC",
		"GSPC": "^GSPC",
	},
	models.SegmentCommodity: {
		"GOLD":   "GC=F",
		"OIL":    "CL=F",
		"COPPER": "HG=F",
	},
}

// Client implements the Yahoo Finance quote API.
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

// NewClient creates a new Yahoo Finance client.
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

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol        string  `json:"symbol"`
			ShortName     string  `json:"shortName"`
			Price         float64 `json:"regularMarketPrice"`
			Change        float64 `json:"regularMarketChange"`
			ChangePercent float64 `json:"regularMarketChangePercent"`
			Time          int64   `json:"regularMarketTime"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// Fetch retrieves quotes for the segment's symbol set in one batched call.
func (c *Client) Fetch(ctx context.Context, segment string) ([]models.RawRecord, error) {
	symbols, ok := segmentSymbols[strings.ToUpper(segment)]
	if !ok {
		return nil, models.NewPermanentError(ProviderName, 0, fmt.Sprintf("segment %s not served", segment), nil)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	tickers := make([]string, 0, len(symbols))
	bySymbol := make(map[string]string, len(symbols)) // yahoo ticker -> display symbol
	for display, ticker := range symbols {
		tickers = append(tickers, ticker)
		bySymbol[ticker] = display
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(tickers, ","))
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, quotePath, params.Encode())

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("segment", segment).Int("symbols", len(tickers)).Msg("Yahoo quote request")

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

	var qr quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, models.NewPermanentError(ProviderName, resp.StatusCode, "malformed quote response", err)
	}
	if qr.QuoteResponse.Error != nil {
		return nil, models.NewPermanentError(ProviderName, resp.StatusCode, qr.QuoteResponse.Error.Description, nil)
	}

	records := make([]models.RawRecord, 0, len(qr.QuoteResponse.Result))
	for _, q := range qr.QuoteResponse.Result {
		display, ok := bySymbol[q.Symbol]
		if !ok {
			continue
		}
		name := q.ShortName
		if name == "" {
			name = display
		}
		records = append(records, models.RawRecord{
			"symbol":     display,
			"name":       name,
			"price":      q.Price,
			"change":     q.Change,
			"changeRate": q.ChangePercent,
			"time":       q.Time,
		})
	}
	return records, nil
}

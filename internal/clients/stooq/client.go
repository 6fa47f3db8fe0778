// Package stooq provides a client for Stooq's lightweight CSV quote
// endpoint, the last-resort fallback when Yahoo is down or rate-limited.
package stooq

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yangbongclub/marketdesk/internal/clients/httpx"
	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/models"
)

// ProviderName is the adapter registry name for this client.
const ProviderName = "stooq"

const (
	DefaultBaseURL = "https://stooq.com"
	DefaultTimeout = 5 * time.Second
)

// segmentSymbols maps display symbols to Stooq tickers per segment.
var segmentSymbols = map[string]map[string]string{
	models.SegmentUS: {
		"DJI":  "US.DJI",
		"IXIC": "US.IXIC",
		"GSPC": "US.SP500",
	},
	models.SegmentCommodity: {
		"GOLD":   "GC.F",
		"OIL":    "CL.F",
		"COPPER": "HG.F",
	},
}

// Client implements the Stooq CSV quote endpoint. One request per symbol:
// the endpoint has no batch form, but responses are a handful of bytes.
type Client struct {
	baseURL    string
	httpClient *httpx.Client
	logger     *common.Logger
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

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient = httpx.New(timeout)
	}
}

// NewClient creates a new Stooq client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: httpx.New(DefaultTimeout),
		logger:     common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the adapter registry name.
func (c *Client) Name() string { return ProviderName }

// Fetch retrieves last-trade prices for the segment's symbols. Symbols that
// fail are skipped; the fetch only fails when every symbol fails.
func (c *Client) Fetch(ctx context.Context, segment string) ([]models.RawRecord, error) {
	symbols, ok := segmentSymbols[strings.ToUpper(segment)]
	if !ok {
		return nil, models.NewPermanentError(ProviderName, 0, fmt.Sprintf("segment %s not served", segment), nil)
	}

	records := make([]models.RawRecord, 0, len(symbols))
	var lastErr error

	for display, ticker := range symbols {
		price, err := c.fetchLast(ctx, ticker)
		if err != nil {
			c.logger.Warn().Err(err).Str("symbol", display).Msg("Stooq quote failed")
			lastErr = err
			continue
		}
		records = append(records, models.RawRecord{
			"symbol": display,
			"name":   display,
			"last":   price,
		})
	}

	if len(records) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return records, nil
}

// fetchLast queries /q/l/?s=SYM&f=l1, which answers with a single number.
func (c *Client) fetchLast(ctx context.Context, ticker string) (float64, error) {
	reqURL := fmt.Sprintf("%s/q/l/?s=%s&f=l1", c.baseURL, strings.ToLower(ticker))
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return 0, models.NewTransientError(ProviderName, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if models.RetryableStatus(resp.StatusCode) {
			return 0, models.NewTransientError(ProviderName, resp.StatusCode, "quote fetch failed", nil)
		}
		return 0, models.NewPermanentError(ProviderName, resp.StatusCode, "quote fetch failed", nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	if err != nil {
		return 0, models.NewTransientError(ProviderName, 0, "body read failed", err)
	}

	text := strings.TrimSpace(string(body))
	price, err := strconv.ParseFloat(text, 64)
	if err != nil {
		// "N/D" means the symbol is unknown or the market is closed with no
		// last trade, a data condition, not a transport failure.
		return 0, models.NewPermanentError(ProviderName, resp.StatusCode, fmt.Sprintf("unparseable quote %q", text), nil)
	}
	return price, nil
}

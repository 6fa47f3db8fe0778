// Package kis provides a client for the Korea Investment & Securities
// open API, the authenticated primary source for KR index quotes.
package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/models"
)

// ProviderName is the adapter registry name for this client.
const ProviderName = "kis"

const (
	DefaultBaseURL   = "https://openapi.koreainvestment.com:9443"
	DefaultTimeout   = 8 * time.Second
	DefaultRateLimit = 5 // requests per second

	// indexChartPath is the index-series endpoint; the plain index
	// quote endpoint 404s for indices, only the chart variant answers.
	indexChartPath = "/uapi/domestic-stock/v1/quotations/inquire-daily-indexchartprice"

	// indexTrID is the transaction ID for domestic index chart queries.
	indexTrID = "FHKUP03500100"
)

// IndexCode pairs the KIS market division with the index instrument code.
type IndexCode struct {
	Symbol    string
	MarketDiv string // "U" KOSPI board, "J" KOSDAQ board
	Code      string
}

// KRIndices are the domestic indices this client serves.
var KRIndices = []IndexCode{
	{Symbol: "KOSPI", MarketDiv: "U", Code: "0001"},
	{Symbol: "KOSDAQ", MarketDiv: "J", Code: "1001"},
	{Symbol: "KOSPI200", MarketDiv: "U", Code: "2001"},
}

// Client implements the KIS index quote API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *TokenManager
	logger     *common.Logger
	limiter    *rate.Limiter
	appKey     string
	appSecret  string
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
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new KIS client.
func NewClient(appKey, appSecret string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		appKey:    appKey,
		appSecret: appSecret,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.tokens = NewTokenManager(c.baseURL, appKey, appSecret, c.httpClient, c.logger)
	return c
}

// Name returns the adapter registry name.
func (c *Client) Name() string { return ProviderName }

// Configured reports whether credentials are present. An unconfigured client
// fails permanently so the orchestrator moves on without retries.
func (c *Client) Configured() bool {
	return c.appKey != "" && c.appSecret != ""
}

// indexResponse is the subset of the chart payload we read.
type indexResponse struct {
	RtCd   string `json:"rt_cd"`
	Msg    string `json:"msg1"`
	Output struct {
		Price      string `json:"bstp_nmix_prpr"`      // current index value
		Change     string `json:"bstp_nmix_prdy_vrss"` // change vs previous day
		ChangeRate string `json:"bstp_nmix_prdy_ctrt"` // change rate (%)
	} `json:"output1"`
}

// Fetch retrieves all KR indices. Satisfies interfaces.ProviderAdapter for
// the KR segment; segment is accepted for interface symmetry.
func (c *Client) Fetch(ctx context.Context, segment string) ([]models.RawRecord, error) {
	if !c.Configured() {
		return nil, models.NewPermanentError(ProviderName, 0, "app key/secret not configured", nil)
	}

	records := make([]models.RawRecord, 0, len(KRIndices))
	var lastErr error
	for _, idx := range KRIndices {
		rec, err := c.fetchIndex(ctx, idx)
		if err != nil {
			c.logger.Warn().Err(err).Str("symbol", idx.Symbol).Msg("KIS index fetch failed")
			lastErr = err
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return records, nil
}

func (c *Client) fetchIndex(ctx context.Context, idx IndexCode) (models.RawRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	token, err := c.tokens.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.doIndexRequest(ctx, idx, token)
	if err != nil {
		return nil, err
	}

	// One transparent re-auth: a 401 means the token died early.
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		token, err = c.tokens.ForceRefresh(ctx)
		if err != nil {
			return nil, err
		}
		resp, err = c.doIndexRequest(ctx, idx, token)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		if models.RetryableStatus(resp.StatusCode) {
			return nil, models.NewTransientError(ProviderName, resp.StatusCode, string(b), nil)
		}
		return nil, models.NewPermanentError(ProviderName, resp.StatusCode, string(b), nil)
	}

	var ir indexResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return nil, models.NewPermanentError(ProviderName, resp.StatusCode, "malformed index response", err)
	}
	if ir.RtCd != "0" && ir.RtCd != "" {
		return nil, models.NewPermanentError(ProviderName, resp.StatusCode, fmt.Sprintf("rt_cd=%s msg=%s", ir.RtCd, ir.Msg), nil)
	}

	rec := models.RawRecord{
		"symbol": idx.Symbol,
		"name":   idx.Symbol,
		"price":  ir.Output.Price,
	}
	if v, err := strconv.ParseFloat(ir.Output.Change, 64); err == nil {
		rec["change"] = v
	}
	if v, err := strconv.ParseFloat(ir.Output.ChangeRate, 64); err == nil {
		rec["changeRate"] = v
	}
	return rec, nil
}

func (c *Client) doIndexRequest(ctx context.Context, idx IndexCode, token string) (*http.Response, error) {
	params := url.Values{}
	params.Set("FID_COND_MRKT_DIV_CODE", idx.MarketDiv)
	params.Set("FID_INPUT_ISCD", idx.Code)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, indexChartPath, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("authorization", "Bearer "+token)
	req.Header.Set("appkey", c.appKey)
	req.Header.Set("appsecret", c.appSecret)
	req.Header.Set("tr_id", indexTrID)
	req.Header.Set("custtype", "P")

	c.logger.Debug().Str("symbol", idx.Symbol).Msg("KIS API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewTransientError(ProviderName, 0, "request failed", err)
	}
	return resp, nil
}

package kis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/models"
)

// tokenExpirySlack refreshes the token slightly before the upstream expiry
// so in-flight requests never carry a token that dies mid-request.
const tokenExpirySlack = 30 * time.Second

// TokenManager owns the process-wide KIS access token. Refresh is
// single-flight: when several requests race on an expired token only one
// re-authentication hits the token endpoint.
type TokenManager struct {
	baseURL    string
	appKey     string
	appSecret  string
	httpClient *http.Client
	logger     *common.Logger
	now        func() time.Time

	mu     sync.RWMutex
	token  string
	expiry time.Time

	group singleflight.Group
}

// NewTokenManager creates a token manager for the given credentials.
func NewTokenManager(baseURL, appKey, appSecret string, httpClient *http.Client, logger *common.Logger) *TokenManager {
	return &TokenManager{
		baseURL:    baseURL,
		appKey:     appKey,
		appSecret:  appSecret,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// GetValidToken returns a cached token, refreshing it when missing or within
// the expiry slack.
func (tm *TokenManager) GetValidToken(ctx context.Context) (string, error) {
	tm.mu.RLock()
	token, expiry := tm.token, tm.expiry
	tm.mu.RUnlock()

	if token != "" && tm.now().Before(expiry.Add(-tokenExpirySlack)) {
		return token, nil
	}
	return tm.refresh(ctx)
}

// ForceRefresh discards the cached token and fetches a new one. Used after a
// 401 response when the upstream invalidated the token early.
func (tm *TokenManager) ForceRefresh(ctx context.Context) (string, error) {
	tm.mu.Lock()
	tm.token = ""
	tm.mu.Unlock()
	return tm.refresh(ctx)
}

func (tm *TokenManager) refresh(ctx context.Context) (string, error) {
	v, err, _ := tm.group.Do("token", func() (interface{}, error) {
		// Another caller may have refreshed while we waited on the group.
		tm.mu.RLock()
		token, expiry := tm.token, tm.expiry
		tm.mu.RUnlock()
		if token != "" && tm.now().Before(expiry.Add(-tokenExpirySlack)) {
			return token, nil
		}

		body, _ := json.Marshal(map[string]string{
			"grant_type": "client_credentials",
			"appkey":     tm.appKey,
			"appsecret":  tm.appSecret,
		})

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, tm.baseURL+"/oauth2/tokenP", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("failed to create token request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := tm.httpClient.Do(req)
		if err != nil {
			return "", models.NewTransientError(ProviderName, 0, "token request failed", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
			if models.RetryableStatus(resp.StatusCode) {
				return "", models.NewTransientError(ProviderName, resp.StatusCode, string(b), nil)
			}
			return "", models.NewPermanentError(ProviderName, resp.StatusCode, string(b), nil)
		}

		var tr tokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			return "", models.NewPermanentError(ProviderName, resp.StatusCode, "malformed token response", err)
		}
		if tr.AccessToken == "" {
			return "", models.NewPermanentError(ProviderName, resp.StatusCode, "empty access token", nil)
		}

		expiresIn := tr.ExpiresIn
		if expiresIn <= 0 {
			expiresIn = 900
		}

		tm.mu.Lock()
		tm.token = tr.AccessToken
		tm.expiry = tm.now().Add(time.Duration(expiresIn) * time.Second)
		tm.mu.Unlock()

		tm.logger.Debug().Int("ttl_seconds", expiresIn).Msg("KIS token refreshed")
		return tr.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Package interfaces defines service contracts for marketdesk
package interfaces

import (
	"context"

	"github.com/yangbongclub/marketdesk/internal/models"
)

// ProviderAdapter is a single upstream integration capable of fetching raw
// quote records for a segment. Adapters own their request construction,
// authentication, retry policy and rate limiting; the orchestrator only sees
// the records or a typed *models.ProviderError.
type ProviderAdapter interface {
	// Name returns the adapter's registry name (e.g. "kis", "naver").
	Name() string

	// Fetch retrieves raw records for the segment. An empty slice with a nil
	// error means the upstream answered but had nothing usable.
	Fetch(ctx context.Context, segment string) ([]models.RawRecord, error)
}

// FeedClient retrieves news articles from RSS upstreams.
type FeedClient interface {
	// FetchCategory retrieves up to limit articles for a news category.
	FetchCategory(ctx context.Context, category string, limit int) ([]*models.NewsItem, error)
}

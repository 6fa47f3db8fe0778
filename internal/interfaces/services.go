package interfaces

import (
	"context"

	"github.com/yangbongclub/marketdesk/internal/models"
)

// MarketService is the public entry point for segment quote queries.
type MarketService interface {
	// GetSegment returns quote data for a segment. With bypassCache false a
	// fresh cached snapshot is served directly; otherwise the provider
	// fallback chain runs and the result is cached. Total provider failure
	// degrades to stale cache, then to an explicit empty result, never an
	// error.
	GetSegment(ctx context.Context, segment string, bypassCache bool) *models.SegmentResult

	// GetAll returns every segment's result. Per-segment failures are
	// isolated; one segment's outage never blanks the others.
	GetAll(ctx context.Context, bypassCache bool) []*models.SegmentResult

	// Refresh performs a live fetch for a segment and persists the snapshot.
	// Used by the background scheduler; shares the facade's write path.
	Refresh(ctx context.Context, segment string) error
}

// NewsService aggregates, stores and serves news articles.
type NewsService interface {
	// List returns a page of articles for a category, refetching feeds when
	// the stored set is older than the refresh TTL.
	List(ctx context.Context, category string, limit int, cursor string) (*models.NewsPage, error)

	// Hot returns the highest-scored recent articles for a category.
	Hot(ctx context.Context, category string, limit int) ([]*models.NewsItem, error)

	// Get returns one article and counts the view.
	Get(ctx context.Context, id string) (*models.NewsItem, error)

	// Search finds stored articles matching the query.
	Search(ctx context.Context, query string, categories []string) ([]*models.NewsItem, error)

	// Refresh force-fetches all categories. Used by the scheduler.
	Refresh(ctx context.Context) error
}

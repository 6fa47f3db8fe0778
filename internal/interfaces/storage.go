package interfaces

import (
	"context"
	"time"

	"github.com/yangbongclub/marketdesk/internal/models"
)

// SnapshotStore persists per-segment quote snapshots with TTL semantics.
// Implementations must replace snapshots atomically so concurrent readers
// never observe a torn write.
type SnapshotStore interface {
	// Load returns the stored snapshot for segment, or nil when none exists
	// or storage is unreadable (corrupt data is a cache miss, not an error).
	Load(ctx context.Context, segment string) *models.SegmentSnapshot

	// Save atomically replaces the segment's snapshot. Failures are logged
	// and swallowed; a cache write must never fail the request that
	// produced the data.
	Save(ctx context.Context, segment string, items []models.QuoteRecord, meta models.SnapshotMeta)

	// TTL returns the freshness window for snapshots in this store.
	TTL() time.Duration
}

// NewsStore persists aggregated news articles.
type NewsStore interface {
	// Upsert inserts items that are not already stored, keyed by ID.
	// Returns the number of newly inserted articles.
	Upsert(ctx context.Context, items []*models.NewsItem) (int, error)

	// ListByCategory returns articles for a category, newest first.
	ListByCategory(ctx context.Context, category string, limit int) ([]*models.NewsItem, error)

	// Get returns one article by ID, or nil when absent.
	Get(ctx context.Context, id string) (*models.NewsItem, error)

	// IncrementViews bumps an article's view counter.
	IncrementViews(ctx context.Context, id string) error

	// Search returns articles whose title or summary contains the query.
	Search(ctx context.Context, query string, categories []string, limit int) ([]*models.NewsItem, error)

	// Close releases the underlying database.
	Close() error
}

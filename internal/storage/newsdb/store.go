// Package newsdb provides BadgerHold-based storage for aggregated news
// articles. Articles are keyed by the deterministic link-derived ID, which
// makes repeated feed polls idempotent.
package newsdb

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/timshannon/badgerhold/v4"

	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/interfaces"
	"github.com/yangbongclub/marketdesk/internal/models"
)

// Store wraps a BadgerHold database of news articles.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore creates a news store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create news store path %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open news database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("News store opened")

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// Upsert inserts articles not already stored, keyed by ID. Existing
// articles keep their view counters; re-fetching is a no-op for them.
func (s *Store) Upsert(_ context.Context, items []*models.NewsItem) (int, error) {
	added := 0
	for _, item := range items {
		if item == nil || item.ID == "" {
			continue
		}
		err := s.db.Insert(item.ID, item)
		if err == badgerhold.ErrKeyExists {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("failed to insert article %s: %w", item.ID, err)
		}
		added++
	}
	if added > 0 {
		s.logger.Debug().Int("added", added).Msg("News articles stored")
	}
	return added, nil
}

// ListByCategory returns articles for a category, newest first.
func (s *Store) ListByCategory(_ context.Context, category string, limit int) ([]*models.NewsItem, error) {
	var items []*models.NewsItem
	query := badgerhold.Where("Category").Eq(strings.ToLower(category)).Index("Category").
		SortBy("PublishedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.db.Find(&items, query); err != nil && err != badgerhold.ErrNotFound {
		return nil, fmt.Errorf("failed to list %s articles: %w", category, err)
	}
	return items, nil
}

// Get returns one article by ID, or nil when absent.
func (s *Store) Get(_ context.Context, id string) (*models.NewsItem, error) {
	var item models.NewsItem
	err := s.db.Get(id, &item)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article %s: %w", id, err)
	}
	return &item, nil
}

// IncrementViews bumps an article's view counter.
func (s *Store) IncrementViews(_ context.Context, id string) error {
	var item models.NewsItem
	err := s.db.Get(id, &item)
	if err == badgerhold.ErrNotFound {
		return fmt.Errorf("article '%s' not found", id)
	}
	if err != nil {
		return fmt.Errorf("failed to get article %s: %w", id, err)
	}
	item.Views++
	if err := s.db.Update(id, &item); err != nil {
		return fmt.Errorf("failed to update article %s: %w", id, err)
	}
	return nil
}

// Search returns articles whose title or summary contains the query,
// newest first. Matching is case-insensitive substring; the store holds at
// most a few thousand recent articles, a scan is fine.
func (s *Store) Search(_ context.Context, query string, categories []string, limit int) ([]*models.NewsItem, error) {
	var all []*models.NewsItem
	if err := s.db.Find(&all, nil); err != nil && err != badgerhold.ErrNotFound {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}

	catSet := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		catSet[strings.ToLower(c)] = struct{}{}
	}

	q := strings.ToLower(strings.TrimSpace(query))
	matched := make([]*models.NewsItem, 0)
	for _, item := range all {
		if len(catSet) > 0 {
			if _, ok := catSet[item.Category]; !ok {
				continue
			}
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(item.Title), q) &&
			!strings.Contains(strings.ToLower(item.Summary), q) {
			continue
		}
		matched = append(matched, item)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].PublishedAt.After(matched[j].PublishedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Close closes the news database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure Store implements NewsStore
var _ interfaces.NewsStore = (*Store)(nil)

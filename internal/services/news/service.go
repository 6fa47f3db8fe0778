// Package news aggregates RSS articles into the local store and serves
// paginated, scored listings from it.
package news

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/interfaces"
	"github.com/yangbongclub/marketdesk/internal/models"
)

const (
	// DefaultPageSize is the listing page size when the caller doesn't ask.
	DefaultPageSize = 20

	// MaxPageSize caps a single listing page.
	MaxPageSize = 100

	// listFetchDepth is how many stored articles a paginated listing walks.
	// Cursors deeper than this fall off the end of the page sequence.
	listFetchDepth = 300
)

// Service implements interfaces.NewsService on top of a feed client and a
// news store. Fetched articles are upserted by link-derived ID so repeated
// polling is idempotent; listings are served from the store.
type Service struct {
	feeds      interfaces.FeedClient
	store      interfaces.NewsStore
	logger     *common.Logger
	refreshTTL time.Duration
	fetchLimit int
	now        func() time.Time

	mu          sync.Mutex
	lastRefresh map[string]time.Time
}

// ServiceOption configures the service
type ServiceOption func(*Service)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRefreshTTL sets how long a category's stored articles stay fresh
// before a listing triggers a refetch.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithFetchLimit caps how many articles one refresh pulls per category.
func WithFetchLimit(limit int) ServiceOption {
	return func(s *Service) {
		if limit > 0 {
			s.fetchLimit = limit
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a news service.
func NewService(feeds interfaces.FeedClient, store interfaces.NewsStore, opts ...ServiceOption) *Service {
	s := &Service{
		feeds:       feeds,
		store:       store,
		logger:      common.NewSilentLogger(),
		refreshTTL:  common.FreshnessNews,
		fetchLimit:  50,
		now:         time.Now,
		lastRefresh: make(map[string]time.Time),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// List returns one page of a category's articles, newest first. When the
// category hasn't been refreshed within the TTL the feeds are refetched
// first; a failed refetch degrades to whatever the store already holds.
func (s *Service) List(ctx context.Context, category string, limit int, cursor string) (*models.NewsPage, error) {
	category = canonicalCategory(category)
	if category == "" {
		return nil, fmt.Errorf("unknown news category")
	}
	limit = clampLimit(limit)

	if s.needsRefresh(category) {
		if err := s.refreshCategory(ctx, category); err != nil {
			s.logger.Warn().Err(err).Str("category", category).Msg("News refresh failed, serving stored articles")
		}
	}

	stored, err := s.store.ListByCategory(ctx, category, listFetchDepth)
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}

	start := 0
	if cursor != "" {
		for i, item := range stored {
			if item.ID == cursor {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	if end > len(stored) {
		end = len(stored)
	}
	page := stored[start:end]

	next := ""
	if end < len(stored) && len(page) > 0 {
		next = page[len(page)-1].ID
	}

	return &models.NewsPage{
		OK:         true,
		Category:   category,
		Items:      page,
		NextCursor: next,
	}, nil
}

// Hot returns the top-scored articles for a category, score then recency.
func (s *Service) Hot(ctx context.Context, category string, limit int) ([]*models.NewsItem, error) {
	category = canonicalCategory(category)
	if category == "" {
		return nil, fmt.Errorf("unknown news category")
	}
	limit = clampLimit(limit)

	if s.needsRefresh(category) {
		if err := s.refreshCategory(ctx, category); err != nil {
			s.logger.Warn().Err(err).Str("category", category).Msg("News refresh failed, serving stored articles")
		}
	}

	stored, err := s.store.ListByCategory(ctx, category, listFetchDepth)
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}

	sort.SliceStable(stored, func(i, j int) bool {
		if stored[i].Score != stored[j].Score {
			return stored[i].Score > stored[j].Score
		}
		return stored[i].PublishedAt.After(stored[j].PublishedAt)
	})

	if len(stored) > limit {
		stored = stored[:limit]
	}
	return stored, nil
}

// Get returns one article and records the view.
func (s *Service) Get(ctx context.Context, id string) (*models.NewsItem, error) {
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get news: %w", err)
	}
	if item == nil {
		return nil, nil
	}

	if err := s.store.IncrementViews(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("id", id).Msg("Failed to count article view")
	} else {
		item.Views++
	}
	return item, nil
}

// Search finds stored articles matching the query across categories.
func (s *Service) Search(ctx context.Context, query string, categories []string) ([]*models.NewsItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.NewsItem{}, nil
	}

	canonical := make([]string, 0, len(categories))
	for _, cat := range categories {
		if c := canonicalCategory(cat); c != "" {
			canonical = append(canonical, c)
		}
	}

	items, err := s.store.Search(ctx, query, canonical, MaxPageSize)
	if err != nil {
		return nil, fmt.Errorf("search news: %w", err)
	}
	return items, nil
}

// Refresh force-fetches every category. Feed failures are isolated per
// category; the scheduler gets the last error for visibility.
func (s *Service) Refresh(ctx context.Context) error {
	var lastErr error
	for _, category := range models.NewsCategories {
		if err := s.refreshCategory(ctx, category); err != nil {
			s.logger.Warn().Err(err).Str("category", category).Msg("Scheduled news refresh failed")
			lastErr = err
		}
	}
	return lastErr
}

func (s *Service) needsRefresh(category string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastRefresh[category]
	return !ok || s.now().Sub(last) >= s.refreshTTL
}

func (s *Service) refreshCategory(ctx context.Context, category string) error {
	fetched, err := s.feeds.FetchCategory(ctx, category, s.fetchLimit)
	if err != nil {
		return err
	}

	now := s.now()
	for _, item := range fetched {
		item.Score = Score(item, now)
	}

	inserted, err := s.store.Upsert(ctx, fetched)
	if err != nil {
		return fmt.Errorf("store news: %w", err)
	}

	s.mu.Lock()
	s.lastRefresh[category] = now
	s.mu.Unlock()

	s.logger.Debug().
		Str("category", category).
		Int("fetched", len(fetched)).
		Int("inserted", inserted).
		Msg("News refreshed")
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

func canonicalCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case models.NewsCategoryKR, "korea":
		return models.NewsCategoryKR
	case models.NewsCategoryUS, "usa":
		return models.NewsCategoryUS
	case models.NewsCategoryCrypto, "coin":
		return models.NewsCategoryCrypto
	case "":
		return models.NewsCategoryKR
	default:
		return ""
	}
}

var _ interfaces.NewsService = (*Service)(nil)

package news

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/interfaces"
	"github.com/yangbongclub/marketdesk/internal/models"
)

// fakeFeeds scripts the feed client.
type fakeFeeds struct {
	items   map[string][]*models.NewsItem
	err     error
	fetches int
}

func (f *fakeFeeds) FetchCategory(ctx context.Context, category string, limit int) ([]*models.NewsItem, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.items[category], nil
}

// fakeStore is an in-memory NewsStore.
type fakeStore struct {
	items map[string]*models.NewsItem
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[string]*models.NewsItem)}
}

func (f *fakeStore) Upsert(_ context.Context, items []*models.NewsItem) (int, error) {
	added := 0
	for _, item := range items {
		if _, ok := f.items[item.ID]; ok {
			continue
		}
		cp := *item
		f.items[item.ID] = &cp
		added++
	}
	return added, nil
}

func (f *fakeStore) ListByCategory(_ context.Context, category string, limit int) ([]*models.NewsItem, error) {
	var out []*models.NewsItem
	for _, item := range f.items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*models.NewsItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (f *fakeStore) IncrementViews(_ context.Context, id string) error {
	item, ok := f.items[id]
	if !ok {
		return fmt.Errorf("article '%s' not found", id)
	}
	item.Views++
	return nil
}

func (f *fakeStore) Search(_ context.Context, query string, categories []string, limit int) ([]*models.NewsItem, error) {
	q := strings.ToLower(query)
	var out []*models.NewsItem
	for _, item := range f.items {
		if len(categories) > 0 {
			found := false
			for _, c := range categories {
				if c == item.Category {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		if strings.Contains(strings.ToLower(item.Title), q) || strings.Contains(strings.ToLower(item.Summary), q) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeStore) Close() error { return nil }

var _ interfaces.NewsStore = (*fakeStore)(nil)
var _ interfaces.FeedClient = (*fakeFeeds)(nil)

func feedItems(category string, n int, base time.Time) []*models.NewsItem {
	items := make([]*models.NewsItem, 0, n)
	for i := 0; i < n; i++ {
		link := fmt.Sprintf("https://example.com/%s/%d", category, i)
		items = append(items, &models.NewsItem{
			ID:          models.NewsID(link),
			Title:       fmt.Sprintf("주식 기사 %d", i),
			Link:        link,
			Source:      "한국경제",
			Category:    category,
			PublishedAt: base.Add(-time.Duration(i) * time.Minute),
			FetchedAt:   base,
		})
	}
	return items
}

func TestList_RefetchGatedByTTL(t *testing.T) {
	now := time.Now()
	feeds := &fakeFeeds{items: map[string][]*models.NewsItem{
		"kr": feedItems("kr", 3, now),
	}}
	store := newFakeStore()

	clock := now
	svc := NewService(feeds, store,
		WithRefreshTTL(5*time.Minute),
		WithClock(func() time.Time { return clock }),
	)

	page, err := svc.List(context.Background(), "kr", 10, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !page.OK || len(page.Items) != 3 {
		t.Fatalf("page: %+v", page)
	}
	if feeds.fetches != 1 {
		t.Fatalf("first list should fetch, got %d fetches", feeds.fetches)
	}

	// Within the TTL: served from the store, no refetch.
	clock = now.Add(2 * time.Minute)
	if _, err := svc.List(context.Background(), "kr", 10, ""); err != nil {
		t.Fatal(err)
	}
	if feeds.fetches != 1 {
		t.Fatalf("list within TTL must not refetch, got %d fetches", feeds.fetches)
	}

	// Past the TTL: refetch.
	clock = now.Add(6 * time.Minute)
	if _, err := svc.List(context.Background(), "kr", 10, ""); err != nil {
		t.Fatal(err)
	}
	if feeds.fetches != 2 {
		t.Fatalf("list past TTL must refetch, got %d fetches", feeds.fetches)
	}
}

func TestList_FailedRefetchServesStored(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	store.Upsert(context.Background(), feedItems("kr", 2, now))

	feeds := &fakeFeeds{err: fmt.Errorf("feed down")}
	svc := NewService(feeds, store, WithLogger(common.NewSilentLogger()))

	page, err := svc.List(context.Background(), "kr", 10, "")
	if err != nil {
		t.Fatalf("List must degrade, got error: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected stored articles, got %d", len(page.Items))
	}
}

func TestList_CursorPagination(t *testing.T) {
	now := time.Now()
	feeds := &fakeFeeds{items: map[string][]*models.NewsItem{
		"kr": feedItems("kr", 5, now),
	}}
	svc := NewService(feeds, newFakeStore())

	first, err := svc.List(context.Background(), "kr", 2, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Items) != 2 || first.NextCursor == "" {
		t.Fatalf("first page: %+v", first)
	}

	second, err := svc.List(context.Background(), "kr", 2, first.NextCursor)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Items) != 2 {
		t.Fatalf("second page: %+v", second)
	}
	if second.Items[0].ID == first.Items[0].ID || second.Items[0].ID == first.Items[1].ID {
		t.Errorf("pages overlap")
	}

	third, err := svc.List(context.Background(), "kr", 2, second.NextCursor)
	if err != nil {
		t.Fatal(err)
	}
	if len(third.Items) != 1 || third.NextCursor != "" {
		t.Fatalf("final page: items=%d cursor=%q", len(third.Items), third.NextCursor)
	}
}

func TestList_UnknownCategoryRejected(t *testing.T) {
	svc := NewService(&fakeFeeds{}, newFakeStore())
	if _, err := svc.List(context.Background(), "sports", 10, ""); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestHot_OrdersByScoreThenRecency(t *testing.T) {
	now := time.Now()
	items := feedItems("kr", 3, now)
	items[0].Title = "광고 이벤트"            // spam, scores 0
	items[2].Title = "코스피 신고가"
	items[2].Thumbnail = "https://example.com/t.jpg" // outscores its siblings
	feeds := &fakeFeeds{items: map[string][]*models.NewsItem{"kr": items}}

	svc := NewService(feeds, newFakeStore(), WithClock(func() time.Time { return now }))

	hot, err := svc.Hot(context.Background(), "kr", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hot) != 2 {
		t.Fatalf("got %d items", len(hot))
	}
	if hot[0].ID != items[2].ID {
		t.Errorf("highest-scored article should lead, got %q", hot[0].Title)
	}
	if hot[0].Score < hot[1].Score {
		t.Errorf("score order violated: %d < %d", hot[0].Score, hot[1].Score)
	}
}

func TestGet_CountsView(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	items := feedItems("kr", 1, now)
	store.Upsert(context.Background(), items)

	svc := NewService(&fakeFeeds{}, store)

	got, err := svc.Get(context.Background(), items[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Views != 1 {
		t.Fatalf("first read: %+v", got)
	}

	got, err = svc.Get(context.Background(), items[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Views != 2 {
		t.Fatalf("second read views: %d", got.Views)
	}
}

func TestGet_MissingReturnsNil(t *testing.T) {
	svc := NewService(&fakeFeeds{}, newFakeStore())
	got, err := svc.Get(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("got %+v, %v", got, err)
	}
}

func TestSearch_EmptyQueryIsEmptyResult(t *testing.T) {
	svc := NewService(&fakeFeeds{}, newFakeStore())
	items, err := svc.Search(context.Background(), "   ", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d items", len(items))
	}
}

func TestRefresh_IsolatesCategoryFailures(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	feeds := &fakeFeeds{items: map[string][]*models.NewsItem{
		"kr": feedItems("kr", 2, now),
		// us and crypto return nothing but no error either
	}}
	svc := NewService(feeds, store, WithLogger(common.NewSilentLogger()))

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if feeds.fetches != len(models.NewsCategories) {
		t.Fatalf("fetches: got %d, want %d", feeds.fetches, len(models.NewsCategories))
	}
	stored, _ := store.ListByCategory(context.Background(), "kr", 0)
	if len(stored) != 2 {
		t.Fatalf("stored kr articles: %d", len(stored))
	}
}

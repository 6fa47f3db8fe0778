package newsdb

import (
	"context"
	"testing"
	"time"

	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func article(link, title, category string, published time.Time) *models.NewsItem {
	return &models.NewsItem{
		ID:          models.NewsID(link),
		Title:       title,
		Link:        link,
		Source:      "테스트경제",
		Category:    category,
		PublishedAt: published,
		FetchedAt:   time.Now(),
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	items := []*models.NewsItem{
		article("https://example.com/a", "코스피 상승", "kr", time.Now()),
		article("https://example.com/b", "코스닥 하락", "kr", time.Now()),
	}

	added, err := store.Upsert(ctx, items)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if added != 2 {
		t.Fatalf("first upsert: added %d, want 2", added)
	}

	// Same links again: nothing new.
	added, err = store.Upsert(ctx, items)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if added != 0 {
		t.Fatalf("second upsert: added %d, want 0", added)
	}

	stored, err := store.ListByCategory(ctx, "kr", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored: got %d articles", len(stored))
	}
}

// Re-fetching an article must not reset its view counter.
func TestUpsert_PreservesViews(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item := article("https://example.com/views", "금리 인상", "kr", time.Now())
	if _, err := store.Upsert(ctx, []*models.NewsItem{item}); err != nil {
		t.Fatal(err)
	}
	if err := store.IncrementViews(ctx, item.ID); err != nil {
		t.Fatal(err)
	}

	refetched := article("https://example.com/views", "금리 인상", "kr", time.Now())
	if _, err := store.Upsert(ctx, []*models.NewsItem{refetched}); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Views != 1 {
		t.Fatalf("views: got %d, want 1", got.Views)
	}
}

func TestListByCategory_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	items := []*models.NewsItem{
		article("https://example.com/1", "oldest", "us", base),
		article("https://example.com/2", "middle", "us", base.Add(10*time.Minute)),
		article("https://example.com/3", "newest", "us", base.Add(20*time.Minute)),
		article("https://example.com/4", "other category", "kr", base.Add(30*time.Minute)),
	}
	if _, err := store.Upsert(ctx, items); err != nil {
		t.Fatal(err)
	}

	got, err := store.ListByCategory(ctx, "us", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d articles", len(got))
	}
	if got[0].Title != "newest" || got[1].Title != "middle" {
		t.Errorf("order wrong: %q, %q", got[0].Title, got[1].Title)
	}
}

func TestGet_MissingReturnsNil(t *testing.T) {
	store := newTestStore(t)
	got, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestIncrementViews_MissingArticle(t *testing.T) {
	store := newTestStore(t)
	if err := store.IncrementViews(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for missing article")
	}
}

func TestSearch_MatchesTitleAndSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := article("https://example.com/btc", "Bitcoin breaks 50k", "crypto", time.Now())
	b := article("https://example.com/eth", "Altcoin news", "crypto", time.Now().Add(-time.Minute))
	b.Summary = "Ethereum and bitcoin both rallied today"
	c := article("https://example.com/kr", "코스피 마감", "kr", time.Now())
	if _, err := store.Upsert(ctx, []*models.NewsItem{a, b, c}); err != nil {
		t.Fatal(err)
	}

	got, err := store.Search(ctx, "bitcoin", nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2", len(got))
	}
	if got[0].ID != a.ID {
		t.Errorf("newest match first, got %q", got[0].Title)
	}

	// Category filter narrows results.
	got, err = store.Search(ctx, "코스피", []string{"kr"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != c.ID {
		t.Fatalf("category-filtered search: %+v", got)
	}
}

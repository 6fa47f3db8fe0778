package news

import (
	"strings"
	"testing"
	"time"

	"github.com/yangbongclub/marketdesk/internal/models"
)

func TestScore_RelevantRecentArticle(t *testing.T) {
	now := time.Now()
	item := &models.NewsItem{
		Title:       "코스피 장중 2500 돌파",
		Source:      "한국경제",
		Summary:     strings.Repeat("증시 요약 ", 12),
		Thumbnail:   "https://example.com/t.jpg",
		PublishedAt: now.Add(-2 * time.Hour),
	}
	got := Score(item, now)
	// keyword 5 + source 5 + summary 3 + recency 5 + thumbnail 2
	if got != 20 {
		t.Fatalf("score: got %d, want 20", got)
	}
}

func TestScore_SpamPenaltyFloorsAtZero(t *testing.T) {
	now := time.Now()
	item := &models.NewsItem{
		Title:       "에어드롭 이벤트 안내",
		Source:      "unknown",
		PublishedAt: now.Add(-48 * time.Hour),
	}
	if got := Score(item, now); got != 0 {
		t.Fatalf("score: got %d, want 0", got)
	}
}

func TestScore_KeywordMatchIsCaseInsensitive(t *testing.T) {
	now := time.Now()
	item := &models.NewsItem{
		Title:       "NASDAQ rallies on Fed pause",
		PublishedAt: now.Add(-3 * time.Hour),
	}
	if got := Score(item, now); got < 10 {
		t.Fatalf("score: got %d, want at least keyword+recency", got)
	}
}

func TestScore_StaleArticleLosesRecencyBonus(t *testing.T) {
	now := time.Now()
	fresh := &models.NewsItem{Title: "stock market update", PublishedAt: now.Add(-time.Hour)}
	stale := &models.NewsItem{Title: "stock market update", PublishedAt: now.Add(-30 * time.Hour)}

	if Score(fresh, now) <= Score(stale, now) {
		t.Fatalf("fresh %d should outscore stale %d", Score(fresh, now), Score(stale, now))
	}
}

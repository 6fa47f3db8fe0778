package models

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// News categories.
const (
	NewsCategoryKR     = "kr"
	NewsCategoryUS     = "us"
	NewsCategoryCrypto = "crypto"
)

// NewsCategories lists all known news categories.
var NewsCategories = []string{NewsCategoryKR, NewsCategoryUS, NewsCategoryCrypto}

// NewsItem represents a single aggregated news article.
// ID is derived from Link so re-fetching the same article across polling
// cycles is idempotent: the store upserts by ID and never duplicates.
type NewsItem struct {
	ID          string    `json:"id" badgerhold:"key"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Category    string    `json:"category" badgerholdIndex:"Category"`
	PublishedAt time.Time `json:"publishedAt"`
	FetchedAt   time.Time `json:"fetchedAt"`
	Views       int       `json:"views"`
	Score       int       `json:"score"`
}

// NewsID derives the deterministic article ID from its link.
func NewsID(link string) string {
	sum := sha1.Sum([]byte(link))
	return hex.EncodeToString(sum[:])
}

// NewsPage is one page of a cursor-paginated news listing.
type NewsPage struct {
	OK         bool        `json:"ok"`
	Category   string      `json:"category"`
	Items      []*NewsItem `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// Package feeds provides an RSS client aggregating market news from
// Google News searches and crypto publisher feeds.
package feeds

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/yangbongclub/marketdesk/internal/common"
	"github.com/yangbongclub/marketdesk/internal/models"
)

// DefaultTimeout bounds a single feed fetch.
const DefaultTimeout = 8 * time.Second

// feedSource is one RSS upstream contributing to a category.
type feedSource struct {
	URL        string
	SourceHint string // used when the feed doesn't name the publisher
}

// categoryFeeds lists the upstream feeds per news category. Google News
// search feeds take a when:12h window so a polling cycle only sees recent
// articles; publisher feeds are already recency-ordered.
var categoryFeeds = map[string][]feedSource{
	models.NewsCategoryKR: {
		{URL: googleNewsURL("증권 OR 코스피 OR 주식 when:12h", "ko", "KR", "KR:ko"), SourceHint: "Google News(ko)"},
	},
	models.NewsCategoryUS: {
		{URL: googleNewsURL("stock market OR nasdaq OR s&p500 when:12h", "en-US", "US", "US:en"), SourceHint: "Google News(en)"},
	},
	models.NewsCategoryCrypto: {
		{URL: "https://www.coindesk.com/arc/outboundfeeds/rss/?outputType=xml", SourceHint: "CoinDesk"},
		{URL: "https://cointelegraph.com/rss", SourceHint: "Cointelegraph"},
	},
}

func googleNewsURL(query, hl, gl, ceid string) string {
	return fmt.Sprintf("https://news.google.com/rss/search?q=%s&hl=%s&gl=%s&ceid=%s",
		url.QueryEscape(query), hl, gl, ceid)
}

// Client fetches and parses RSS feeds into news items.
type Client struct {
	parser *gofeed.Parser
	logger *common.Logger
	now    func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new RSS feed client.
func NewClient(opts ...ClientOption) *Client {
	parser := gofeed.NewParser()
	parser.UserAgent = "marketdesk/1.0"

	c := &Client{
		parser: parser,
		logger: common.NewSilentLogger(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchCategory retrieves up to limit articles for a category. Feeds are
// tried in order; one broken feed doesn't blank the category.
func (c *Client) FetchCategory(ctx context.Context, category string, limit int) ([]*models.NewsItem, error) {
	category = strings.ToLower(category)
	sources, ok := categoryFeeds[category]
	if !ok {
		return nil, fmt.Errorf("unknown news category %q", category)
	}

	items := make([]*models.NewsItem, 0, limit)
	var lastErr error

	for _, src := range sources {
		if len(items) >= limit {
			break
		}
		fetched, err := c.fetchFeed(ctx, src, category, limit-len(items))
		if err != nil {
			c.logger.Warn().Err(err).Str("feed", src.URL).Msg("Feed fetch failed")
			lastErr = err
			continue
		}
		items = append(items, fetched...)
	}

	if len(items) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return items, nil
}

func (c *Client) fetchFeed(ctx context.Context, src feedSource, category string, limit int) ([]*models.NewsItem, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	feed, err := c.parser.ParseURLWithContext(src.URL, fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	now := c.now()
	items := make([]*models.NewsItem, 0, limit)
	for _, entry := range feed.Items {
		if len(items) >= limit {
			break
		}
		if entry.Link == "" {
			continue
		}

		published := now
		if entry.PublishedParsed != nil {
			published = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			published = *entry.UpdatedParsed
		}

		thumbnail := ""
		if entry.Image != nil {
			thumbnail = entry.Image.URL
		}

		items = append(items, &models.NewsItem{
			ID:          models.NewsID(entry.Link),
			Title:       strings.TrimSpace(entry.Title),
			Link:        entry.Link,
			Source:      sourceName(entry, src.SourceHint),
			Summary:     strings.TrimSpace(entry.Description),
			Thumbnail:   thumbnail,
			Category:    category,
			PublishedAt: published,
			FetchedAt:   now,
		})
	}
	return items, nil
}

// sourceName prefers the <dc:creator> or feed-declared publisher; Google
// News feeds carry the outlet there, publisher feeds fall back to the hint.
func sourceName(entry *gofeed.Item, hint string) string {
	if len(entry.Authors) > 0 && entry.Authors[0].Name != "" {
		return entry.Authors[0].Name
	}
	if entry.Custom != nil {
		if s, ok := entry.Custom["source"]; ok && s != "" {
			return s
		}
	}
	return hint
}

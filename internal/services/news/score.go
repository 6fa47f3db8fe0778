package news

import (
	"regexp"
	"strings"
	"time"

	"github.com/yangbongclub/marketdesk/internal/models"
)

// scoreKeywords are the market topics that make an article relevant.
var scoreKeywords = []string{
	"주식", "증시", "코스피", "코스닥", "비트코인", "ETF", "경제", "금리", "환율", "AI", "블록체인",
	"stock", "market", "nasdaq", "bitcoin", "crypto", "fed", "inflation",
}

// trustedSources get a credibility bump.
var trustedSources = []string{
	"한국경제", "매일경제", "이데일리", "조선비즈", "이투데이", "머니투데이", "서울경제",
	"Reuters", "Bloomberg", "CoinDesk",
}

// spamRe flags promotional/advertorial noise that should sink an article.
var spamRe = regexp.MustCompile(`이벤트|협찬|P2E|에어드롭|쿠폰|공동구매|giveaway|airdrop|sponsored`)

// Score rates an article for the hot-news ranking. Heuristic, additive:
// topical keywords, trusted source, a real summary, recency and a
// thumbnail all help; promotional markers hurt. Floor is zero.
func Score(item *models.NewsItem, now time.Time) int {
	score := 0
	title := item.Title
	summary := item.Summary
	combined := strings.ToLower(title + " " + summary)

	for _, kw := range scoreKeywords {
		if strings.Contains(combined, strings.ToLower(kw)) {
			score += 5
			break
		}
	}

	for _, src := range trustedSources {
		if strings.Contains(item.Source, src) {
			score += 5
			break
		}
	}

	if n := len([]rune(summary)); n >= 50 && n <= 200 {
		score += 3
	}

	if !item.PublishedAt.IsZero() && now.Sub(item.PublishedAt) < 24*time.Hour {
		score += 5
	}

	if item.Thumbnail != "" {
		score += 2
	}

	if spamRe.MatchString(title + summary) {
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	return score
}

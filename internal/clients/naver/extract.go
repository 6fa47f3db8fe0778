package naver

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extraction is a parsed index value plucked from a scraped page.
type Extraction struct {
	Price      float64
	ChangeRate float64
}

// plausibleRange bounds what an index value can be. A number outside the
// range is a mis-parse (volume, market cap, a date), not a price.
type plausibleRange struct {
	min, max float64
}

var indexRanges = map[string]plausibleRange{
	"KOSPI":    {2000, 5000},
	"KOSDAQ":   {500, 1500},
	"KOSPI200": {300, 1000},
}

var defaultRange = plausibleRange{200, 10000}

// domSelectors are the known locations of the current index value. Naver
// has moved it between these over the years; try them in order.
var domSelectors = []string{
	"#now_value",
	"strong#now_value",
	"em#nowVal",
	"em#_nowVal",
	".num .num",
	".num_sise",
}

var (
	embeddedNowRe  = regexp.MustCompile(`"now"\s*:\s*([0-9.\-]+)`)
	embeddedRateRe = regexp.MustCompile(`"changeRate"\s*:\s*([0-9.\-]+)`)
	percentRe      = regexp.MustCompile(`([+\-]?\d+(?:\.\d+)?)\s*%`)
	numberRe       = regexp.MustCompile(`[\d,]+\.?\d*`)
)

// keywordPatterns locate an index value by proximity to its label when the
// DOM strategies miss. KOSPI must not match KOSPI200.
var keywordPatterns = map[string]*regexp.Regexp{
	"KOSPI":    regexp.MustCompile(`(?i)(?:코스피|KOSPI)(?:[^20]|$)[^0-9]{0,500}?([\d,]{1,10}\.?\d*)`),
	"KOSDAQ":   regexp.MustCompile(`(?i)(?:코스닥|KOSDAQ)[^0-9]{0,500}?([\d,]{1,10}\.?\d*)`),
	"KOSPI200": regexp.MustCompile(`(?i)(?:코스피\s*200|KOSPI\s*200|KPI200)[^0-9]{0,500}?([\d,]{1,10}\.?\d*)`),
}

// ExtractIndex pulls an index value out of a Naver Finance page, trying
// strategies in order until one yields a plausible number:
//
//  1. known DOM selectors for the current-value element
//  2. embedded script data ("now"/"changeRate")
//  3. label-proximity regex for the specific index
//  4. plausible-range sweep over every number on the page
//
// Returns nil when no strategy produces a value inside the index's range.
func ExtractIndex(html, symbol string) *Extraction {
	bounds, ok := indexRanges[symbol]
	if !ok {
		bounds = defaultRange
	}

	if ext := extractFromDOM(html, bounds); ext != nil {
		return ext
	}
	if ext := extractFromEmbedded(html, bounds); ext != nil {
		return ext
	}
	if ext := extractByKeyword(html, symbol, bounds); ext != nil {
		return ext
	}
	return extractBySweep(html, bounds)
}

func extractFromDOM(html string, bounds plausibleRange) *Extraction {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	for _, sel := range domSelectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		v, ok := parseNumber(text)
		if !ok || !bounds.contains(v) {
			continue
		}
		ext := &Extraction{Price: v}
		if m := percentRe.FindStringSubmatch(html); m != nil {
			if rate, err := strconv.ParseFloat(m[1], 64); err == nil {
				ext.ChangeRate = rate
			}
		}
		return ext
	}
	return nil
}

func extractFromEmbedded(html string, bounds plausibleRange) *Extraction {
	mNow := embeddedNowRe.FindStringSubmatch(html)
	if mNow == nil {
		return nil
	}
	v, err := strconv.ParseFloat(mNow[1], 64)
	if err != nil || !bounds.contains(v) {
		return nil
	}
	ext := &Extraction{Price: v}
	if mRate := embeddedRateRe.FindStringSubmatch(html); mRate != nil {
		if rate, err := strconv.ParseFloat(mRate[1], 64); err == nil {
			ext.ChangeRate = rate
		}
	}
	return ext
}

func extractByKeyword(html, symbol string, bounds plausibleRange) *Extraction {
	re, ok := keywordPatterns[symbol]
	if !ok {
		return nil
	}
	for _, m := range re.FindAllStringSubmatch(html, -1) {
		if v, ok := parseNumber(m[1]); ok && bounds.contains(v) {
			return &Extraction{Price: v}
		}
	}
	return nil
}

// extractBySweep is the last resort: collect every in-range number on the
// page and prefer values with a decimal part; index levels are quoted to
// two decimals, while volumes and counts are integers.
func extractBySweep(html string, bounds plausibleRange) *Extraction {
	var inRange []float64
	for _, s := range numberRe.FindAllString(html, -1) {
		if v, ok := parseNumber(s); ok && bounds.contains(v) {
			inRange = append(inRange, v)
		}
	}
	if len(inRange) == 0 {
		return nil
	}

	var decimals []float64
	for _, v := range inRange {
		if v != float64(int64(v)) {
			decimals = append(decimals, v)
		}
	}
	if len(decimals) > 0 {
		sort.Float64s(decimals)
		return &Extraction{Price: decimals[len(decimals)-1]}
	}

	sort.Float64s(inRange)
	return &Extraction{Price: inRange[len(inRange)/2]}
}

func (r plausibleRange) contains(v float64) bool {
	return v >= r.min && v <= r.max
}

func parseNumber(s string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

package market

import (
	"strings"

	"github.com/yangbongclub/marketdesk/internal/models"
)

// priceKeys is the ordered list of keys a provider may store the price
// under; first present wins.
var priceKeys = []string{"price", "close", "now", "last", "trade_price"}

// symbolAliases maps provider and localized display names to canonical
// symbols. Lookup is case-insensitive on the trimmed, upper-cased form.
var symbolAliases = map[string][]string{
	"KOSPI":    {"코스피", "KS11"},
	"KOSDAQ":   {"코스닥"},
	"KOSPI200": {"코스피200", "KPI200"},
	"DJI":      {"DOW", "다우", "DJI@DJI", "^DJI"},
	"IXIC":     {"NASDAQ", "나스닥", "NAS@IXIC", "^IXIC"},
	"GSPC":     {"SPX", "S&P500", "SNP", "S&P", "^GSPC"},
}

// aliasReverse is the flattened alias -> canonical lookup.
var aliasReverse = buildAliasReverse()

func buildAliasReverse() map[string]string {
	rev := make(map[string]string, len(symbolAliases)*4)
	for canonical, aliases := range symbolAliases {
		rev[canonical] = canonical
		for _, a := range aliases {
			rev[normSymbol(a)] = canonical
		}
	}
	return rev
}

func normSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Canonicalize resolves a provider symbol or localized display name to the
// canonical symbol. Unknown names pass through upper-cased.
func Canonicalize(s string) string {
	k := normSymbol(s)
	if canonical, ok := aliasReverse[k]; ok {
		return canonical
	}
	return k
}

// Normalize maps an arbitrary provider record into the canonical quote
// shape. It never fails: missing fields default, invalid prices become nil.
func Normalize(raw models.RawRecord) models.QuoteRecord {
	symbol := Canonicalize(stringField(raw, "symbol", "code"))
	name := stringField(raw, "name")
	if name == "" {
		name = symbol
	}

	rec := models.QuoteRecord{
		Symbol: symbol,
		Name:   name,
	}

	// First candidate key present wins, valid or not. A provider that
	// sent a broken price doesn't get a second chance from a stray field.
	for _, key := range priceKeys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if IsValidPrice(v) {
			f, _ := toFloat(v)
			rec.Price = models.Float64Ptr(f)
		}
		break
	}

	// Change figures are only meaningful alongside a usable price.
	if rec.Price != nil {
		if v, ok := toFloat(raw["change"]); ok {
			rec.Change = v
		}
	}
	if v, ok := floatField(raw, "changeRate", "rate"); ok {
		rec.ChangeRate = v
	}
	if v, ok := toFloat(raw["time"]); ok && v > 0 {
		rec.Time = int64(v)
	}

	return rec
}

// NormalizeAll maps a raw batch, dropping records that normalize to no
// usable price.
func NormalizeAll(raws []models.RawRecord) []models.QuoteRecord {
	out := make([]models.QuoteRecord, 0, len(raws))
	for _, raw := range raws {
		rec := Normalize(raw)
		if rec.HasValidPrice() {
			out = append(out, rec)
		}
	}
	return out
}

func stringField(raw models.RawRecord, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func floatField(raw models.RawRecord, keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if f, ok := toFloat(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

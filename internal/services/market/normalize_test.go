package market

import (
	"reflect"
	"testing"

	"github.com/yangbongclub/marketdesk/internal/models"
)

func TestCanonicalize_Aliases(t *testing.T) {
	cases := map[string]string{
		"코스피":     "KOSPI",
		"코스닥":     "KOSDAQ",
		"KPI200":  "KOSPI200",
		"다우":      "DJI",
		"^DJI":    "DJI",
		"NASDAQ":  "IXIC",
		"나스닥":     "IXIC",
		"S&P500":  "GSPC",
		"^GSPC":   "GSPC",
		"kospi":   "KOSPI",
		" kospi ": "KOSPI",
		"BTC":     "BTC", // unknown passes through upper-cased
		"btc":     "BTC",
	}
	for in, want := range cases {
		if got := Canonicalize(in); got != want {
			t.Errorf("Canonicalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize_PriceKeyOrder(t *testing.T) {
	raw := models.RawRecord{
		"symbol": "KOSPI",
		"close":  1000.0,
		"price":  2500.5,
		"last":   3000.0,
	}
	rec := Normalize(raw)
	if rec.Price == nil || *rec.Price != 2500.5 {
		t.Fatalf("expected price key to win, got %+v", rec.Price)
	}
}

// The first present price key decides the outcome even when it holds a
// broken value and a later key holds a valid one.
func TestNormalize_FirstPresentKeyWins(t *testing.T) {
	raw := models.RawRecord{
		"symbol": "KOSPI",
		"price":  "garbage",
		"close":  2500.5,
	}
	rec := Normalize(raw)
	if rec.Price != nil {
		t.Fatalf("expected nil price, got %v", *rec.Price)
	}
}

func TestNormalize_ChangeRequiresValidPrice(t *testing.T) {
	raw := models.RawRecord{
		"symbol": "KOSDAQ",
		"price":  -5.0,
		"change": 12.3,
	}
	rec := Normalize(raw)
	if rec.Price != nil {
		t.Fatalf("expected invalid price to be rejected")
	}
	if rec.Change != 0 {
		t.Errorf("change should be zeroed without valid price, got %v", rec.Change)
	}
}

func TestNormalize_Fields(t *testing.T) {
	raw := models.RawRecord{
		"symbol":     "다우",
		"price":      "34,521.09",
		"change":     120.5,
		"changeRate": 0.35,
		"time":       float64(1700000000),
	}
	rec := Normalize(raw)
	if rec.Symbol != "DJI" {
		t.Errorf("symbol: got %q", rec.Symbol)
	}
	if rec.Name != "DJI" {
		t.Errorf("name should default to symbol, got %q", rec.Name)
	}
	if rec.Price == nil || *rec.Price != 34521.09 {
		t.Errorf("price: got %v", rec.Price)
	}
	if rec.Change != 120.5 || rec.ChangeRate != 0.35 {
		t.Errorf("change figures: got %v / %v", rec.Change, rec.ChangeRate)
	}
	if rec.Time != 1700000000 {
		t.Errorf("time: got %d", rec.Time)
	}
}

// Normalization is deterministic and idempotent in effect: the same raw
// record always yields the same canonical record.
func TestNormalize_Deterministic(t *testing.T) {
	raw := models.RawRecord{
		"symbol":     "코스피",
		"now":        "2,500.58",
		"changeRate": 1.2,
	}
	first := Normalize(raw)
	for i := 0; i < 5; i++ {
		again := Normalize(raw)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("normalization not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestNormalizeAll_DropsPricelessRecords(t *testing.T) {
	raws := []models.RawRecord{
		{"symbol": "KOSPI", "price": 2500.5},
		{"symbol": "KOSDAQ", "price": "garbage"},
		{"symbol": "KOSPI200", "price": 334.5},
		{"symbol": "EMPTY"},
	}
	out := NormalizeAll(raws)
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].Symbol != "KOSPI" || out[1].Symbol != "KOSPI200" {
		t.Errorf("unexpected survivors: %+v", out)
	}
}

package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yangbongclub/marketdesk/internal/models"
)

func TestFetch_USSegment(t *testing.T) {
	var gotSymbols string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v7/finance/quote" {
			t.Errorf("path: %s", r.URL.Path)
		}
		gotSymbols = r.URL.Query().Get("symbols")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"quoteResponse":{"result":[
			{"symbol":"^DJI","shortName":"Dow Jones Industrial Average","regularMarketPrice":34521.09,"regularMarketChange":120.5,"regularMarketChangePercent":0.35,"regularMarketTime":1700000000},
			{"symbol":"^IXIC","shortName":"NASDAQ Composite","regularMarketPrice":14321.77,"regularMarketChange":-45.2,"regularMarketChangePercent":-0.31,"regularMarketTime":1700000000},
			{"symbol":"^GSPC","shortName":"S&P 500","regularMarketPrice":4511.23,"regularMarketChange":10.1,"regularMarketChangePercent":0.22,"regularMarketTime":1700000000}
		],"error":null}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	records, err := client.Fetch(context.Background(), "US")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records: got %d", len(records))
	}

	for _, ticker := range []string{"^DJI", "^IXIC", "^GSPC"} {
		if !strings.Contains(gotSymbols, ticker) {
			t.Errorf("request missing %s, got %q", ticker, gotSymbols)
		}
	}

	byDisplay := map[string]models.RawRecord{}
	for _, rec := range records {
		byDisplay[rec["symbol"].(string)] = rec
	}
	dji := byDisplay["DJI"]
	if dji == nil {
		t.Fatal("no DJI record")
	}
	if dji["price"] != 34521.09 || dji["name"] != "Dow Jones Industrial Average" {
		t.Errorf("DJI record: %+v", dji)
	}
}

func TestFetch_UnservedSegmentIsPermanent(t *testing.T) {
	client := NewClient(WithBaseURL("http://127.0.0.1:0"))
	_, err := client.Fetch(context.Background(), "KR")
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *models.ProviderError
	if !errors.As(err, &pe) || pe.Transient {
		t.Fatalf("expected permanent provider error, got %v", err)
	}
}

func TestFetch_RateLimitedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Fetch(context.Background(), "US")
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *models.ProviderError
	if !errors.As(err, &pe) || !pe.Transient || pe.StatusCode != 429 {
		t.Fatalf("expected transient 429, got %v", err)
	}
}

func TestFetch_MalformedBodyIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>upstream error page</html>`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Fetch(context.Background(), "US")
	var pe *models.ProviderError
	if !errors.As(err, &pe) || pe.Transient {
		t.Fatalf("expected permanent provider error, got %v", err)
	}
}

func TestFetch_APIErrorIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteResponse":{"result":[],"error":{"code":"Bad Request","description":"invalid symbols"}}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Fetch(context.Background(), "COMMODITY")
	var pe *models.ProviderError
	if !errors.As(err, &pe) || pe.Transient {
		t.Fatalf("expected permanent provider error, got %v", err)
	}
}

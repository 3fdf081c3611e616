package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestPriceCacheFreshness(t *testing.T) {
	var calls int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if !strings.Contains(r.URL.RawQuery, "ids=bitcoin") {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"bitcoin":{"usd":64000.5,"usd_24h_change":1.2}}`))
	})

	fakeNow := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := NewClient(srv.URL, time.Minute, zap.NewNop()).
		WithClock(func() time.Time { return fakeNow })
	ctx := context.Background()

	first, err := client.Price(ctx, "BTC")
	if err != nil {
		t.Fatalf("first Price failed: %v", err)
	}
	if first.PriceUSD != 64000.5 {
		t.Errorf("expected 64000.5, got %v", first.PriceUSD)
	}

	// Within the freshness window: identical price, no second call.
	fakeNow = fakeNow.Add(30 * time.Second)
	second, err := client.Price(ctx, "BTC")
	if err != nil {
		t.Fatalf("second Price failed: %v", err)
	}
	if second.PriceUSD != first.PriceUSD {
		t.Errorf("cached price changed: %v vs %v", second.PriceUSD, first.PriceUSD)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected one upstream call, got %d", n)
	}

	// Past the window: a new call goes out.
	fakeNow = fakeNow.Add(time.Minute)
	if _, err := client.Price(ctx, "BTC"); err != nil {
		t.Fatalf("third Price failed: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("expected two upstream calls, got %d", n)
	}
}

func TestPriceUpstreamErrorPropagates(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	client := NewClient(srv.URL, time.Minute, zap.NewNop())
	if _, err := client.Price(context.Background(), "BTC"); err == nil {
		t.Fatal("expected an error from a failing upstream, got nil")
	}
}

func TestPriceMalformedShapeRejected(t *testing.T) {
	cases := map[string]string{
		"null price":   `{"bitcoin":{"usd":null}}`,
		"missing coin": `{}`,
		"zero price":   `{"bitcoin":{"usd":0}}`,
		"not json":     `<html>rate limited</html>`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})
			client := NewClient(srv.URL, time.Minute, zap.NewNop())
			if _, err := client.Price(context.Background(), "BTC"); err == nil {
				t.Fatal("expected a validation error, got nil")
			}
		})
	}
}

func TestPriceUnknownSymbol(t *testing.T) {
	client := NewClient("http://localhost:0", time.Minute, zap.NewNop())
	if _, err := client.Price(context.Background(), "DOGE"); err == nil {
		t.Fatal("expected an error for an unmapped symbol, got nil")
	}
}

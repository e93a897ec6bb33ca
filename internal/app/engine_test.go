package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abelbrown/nexus/internal/config"
	"github.com/abelbrown/nexus/internal/model"
	"github.com/abelbrown/nexus/internal/otel"
)

func TestAdaptersWithoutSearchKey(t *testing.T) {
	e, err := New(config.DefaultConfig(), Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Close()

	if got := e.Dispatcher.Route(model.CategoryCrypto); len(got) != 1 || got[0] != "cryptocompare" {
		t.Errorf("crypto route = %v", got)
	}
	if got := e.Dispatcher.Route(model.CategoryTechnology); len(got) != 1 || got[0] != "hackernews" {
		t.Errorf("technology route = %v", got)
	}
	if got := e.Dispatcher.Route(model.CategoryPolitics); len(got) != 0 {
		t.Errorf("politics should have no route without a key, got %v", got)
	}
	if e.Controller.Category() != model.CategoryAll {
		t.Errorf("initial category = %s", e.Controller.Category())
	}
}

func TestAdaptersWithSearchKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sources.Search.APIKey = "test-key"

	e, err := New(cfg, Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Close()

	want := []string{"cryptocompare", "search:gemini"}
	got := e.Dispatcher.Route(model.CategoryDeFi)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("defi route = %v, want %v", got, want)
	}
	if got := e.Dispatcher.Route(model.CategoryWorld); len(got) != 1 || got[0] != "search:gemini" {
		t.Errorf("world route = %v", got)
	}
}

func TestAdaptersRSSVariant(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sources.MarketNews.Provider = config.MarketNewsRSS
	cfg.Sources.MarketNews.FeedURL = "https://example.com/feed.xml"

	got := Adapters(cfg)
	if got.Market == nil || got.Market.Name() != "rss" {
		t.Fatalf("expected rss market adapter, got %v", got.Market)
	}
	if got.Search != nil {
		t.Error("search slot should be empty without a key")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sources.MarketNews.Provider = "bogus"
	if _, err := New(cfg, Options{}); err == nil {
		t.Error("expected error for unknown provider")
	}

	cfg = config.DefaultConfig()
	cfg.Feed.InitialCategory = "weather"
	if _, err := New(cfg, Options{}); err == nil {
		t.Error("expected error for unknown initial category")
	}
}

// syncBuffer is a goroutine-safe bytes.Buffer for the event log.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestEngineRunsEndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/data/v2/news/":
			w.Write([]byte(`{"Data":[
				{"id":"1","title":"China weighs stablecoin rules","body":"Draft rules","url":"https://example.com/1","published_on":1700000000,"source_info":{"name":"CoinDesk"}},
				{"id":"2","title":"ETH gas falls","body":"Cheap blocks","url":"https://example.com/2","published_on":1700000100,"source_info":{"name":"The Block"}}
			]}`))
		case "/api/v3/simple/price":
			w.Write([]byte(`{
				"bitcoin":{"usd":64000,"usd_24h_change":1},
				"ethereum":{"usd":3000,"usd_24h_change":-1},
				"solana":{"usd":150,"usd_24h_change":0},
				"ripple":{"usd":0.5,"usd_24h_change":2}
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	cfg := config.DefaultConfig()
	cfg.Feed.InitialCategory = "crypto"
	cfg.Feed.FetchTimeoutSec = 5
	cfg.Sources.MarketNews.Endpoint = upstream.URL
	cfg.Market.Endpoint = upstream.URL
	cfg.Market.MinIntervalSec = 0

	var events syncBuffer
	e, err := New(cfg, Options{EventLog: &events, RingSize: 64})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := make(chan model.Snapshot, 16)
	unsubscribe := e.Store.Subscribe(func(s model.Snapshot) {
		if s.Category == model.CategoryCrypto && len(s.Items) > 0 {
			select {
			case got <- s:
			default:
			}
		}
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)

	var snap model.Snapshot
	select {
	case snap = <-got:
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("timed out waiting for the first crypto snapshot")
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(e.Market.Prices()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	e.Wait()
	e.Close()

	if len(snap.Items) != 2 || snap.Items[0].ID != "cc-1" {
		t.Errorf("unexpected snapshot items %+v", snap.Items)
	}
	if n := len(e.Market.Prices()); n != 4 {
		t.Errorf("expected 4 prices, got %d", n)
	}
	if e.Ring.Stats()[otel.KindFetchComplete] == 0 {
		t.Error("expected a fetch.complete event in the ring")
	}
	log := events.String()
	for _, kind := range []otel.EventKind{otel.KindStartup, otel.KindShutdown, otel.KindRefresh} {
		if !strings.Contains(log, `"kind":"`+string(kind)+`"`) {
			t.Errorf("event log missing %s", kind)
		}
	}
}

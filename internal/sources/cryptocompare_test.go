package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/nexus/internal/model"
)

func ccServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/v2/news/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("lang") != "EN" {
			t.Errorf("expected lang=EN, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCryptoCompareFetch(t *testing.T) {
	body := `{"Type":100,"Message":"News list successfully returned","Data":[
		{"id":"101","title":"Bitcoin tops record","body":"It&#39;s a &quot;big&quot; day <b>for</b> BTC","url":"https://example.com/btc","published_on":1700000000,"source_info":{"name":"CoinDesk"}},
		{"id":202,"title":"Ether upgrade ships","body":"","url":"https://example.com/eth","published_on":1700000100,"source_info":{"name":"The Block"}}
	]}`
	server := ccServer(t, body)

	cc := NewCryptoCompare(server.URL, 5*time.Second, nil)
	items, err := cc.Fetch(context.Background(), model.CategoryDeFi, 3)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.ID != "cc-101" {
		t.Errorf("expected cc-101, got %s", first.ID)
	}
	if first.Summary != `It's a "big" day for BTC` {
		t.Errorf("unexpected summary %q", first.Summary)
	}
	if first.Source != "CoinDesk" {
		t.Errorf("unexpected source %q", first.Source)
	}
	if first.Category != model.CategoryDeFi {
		t.Errorf("category should follow the request, got %s", first.Category)
	}
	if first.Sentiment != model.SentimentNeutral {
		t.Errorf("expected neutral sentiment, got %s", first.Sentiment)
	}
	if want := time.Unix(1700000000, 0).Local().Format("15:04"); first.Time != want {
		t.Errorf("expected time %s, got %s", want, first.Time)
	}

	if items[1].ID != "cc-202" {
		t.Errorf("numeric ids should be accepted, got %s", items[1].ID)
	}
	if items[1].Summary != noSummary {
		t.Errorf("empty body should fall back, got %q", items[1].Summary)
	}
}

func TestCryptoCompareIDsStableAcrossFetches(t *testing.T) {
	body := `{"Data":[{"id":"7","title":"Stable","body":"b","published_on":1}]}`
	server := ccServer(t, body)
	cc := NewCryptoCompare(server.URL, 5*time.Second, nil)

	a, _ := cc.Fetch(context.Background(), model.CategoryCrypto, 1)
	b, _ := cc.Fetch(context.Background(), model.CategoryCrypto, 2)
	if len(a) != 1 || len(b) != 1 || a[0].ID != b[0].ID {
		t.Fatalf("ids differ across fetches: %v vs %v", a, b)
	}
}

func TestCryptoCompareDropsMalformedRecords(t *testing.T) {
	body := `{"Data":[
		{"id":"1","title":"ok","body":"x"},
		{"id":"","title":"no id"},
		{"id":"3","title":"   "},
		{"id":"4","title":"also ok"}
	]}`
	server := ccServer(t, body)

	items, err := NewCryptoCompare(server.URL, 5*time.Second, nil).Fetch(context.Background(), model.CategoryCrypto, 1)
	if err != nil {
		t.Fatalf("malformed records must not fail the batch: %v", err)
	}
	if len(items) != 2 || items[0].ID != "cc-1" || items[1].ID != "cc-4" {
		t.Errorf("unexpected items %+v", items)
	}
}

func TestCryptoCompareCapsBatch(t *testing.T) {
	var records []string
	for i := 0; i < 40; i++ {
		records = append(records, fmt.Sprintf(`{"id":"%d","title":"t%d","body":"b"}`, i, i))
	}
	server := ccServer(t, `{"Data":[`+strings.Join(records, ",")+`]}`)

	items, err := NewCryptoCompare(server.URL, 5*time.Second, nil).Fetch(context.Background(), model.CategoryCrypto, 1)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != maxBatch {
		t.Errorf("expected %d items, got %d", maxBatch, len(items))
	}
}

func TestCryptoCompareErrorEnvelope(t *testing.T) {
	server := ccServer(t, `{"Response":"Error","Message":"rate limit","Data":{}}`)

	_, err := NewCryptoCompare(server.URL, 5*time.Second, nil).Fetch(context.Background(), model.CategoryCrypto, 1)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Op != "decode" {
		t.Errorf("expected decode op, got %s", te.Op)
	}
}

func TestCryptoCompareHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewCryptoCompare(server.URL, 5*time.Second, nil).Fetch(context.Background(), model.CategoryCrypto, 1)
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "status" {
		t.Fatalf("expected status TransportError, got %v", err)
	}
}

func TestCryptoCompareUnreachable(t *testing.T) {
	_, err := NewCryptoCompare("http://localhost:99999", time.Second, nil).Fetch(context.Background(), model.CategoryCrypto, 1)
	if err == nil {
		t.Error("expected error for unreachable endpoint")
	}
}

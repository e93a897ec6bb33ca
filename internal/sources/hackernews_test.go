package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abelbrown/nexus/internal/model"
)

func TestHackerNewsFetch(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/v0/news/1.json" {
			t.Errorf("page argument must not change the path, got %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"id":1,"title":"Show HN: a thing","domain":"thing.dev","time_ago":"3 hours ago","url":"https://thing.dev"},
			{"id":2,"title":"Ask HN: why?","time_ago":"1 hour ago","url":"item?id=2"},
			{"id":0,"title":"broken"}
		]`))
	}))
	defer server.Close()

	hn := NewHackerNews(server.URL, 5*time.Second, nil)
	items, err := hn.Fetch(context.Background(), model.CategoryTechnology, 4)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	if items[0].ID != "hn-1" {
		t.Errorf("expected hn-1, got %s", items[0].ID)
	}
	if items[0].Summary != "Trending on HackerNews. Source: thing.dev" {
		t.Errorf("unexpected summary %q", items[0].Summary)
	}
	if items[0].Time != "3 hours ago" {
		t.Errorf("expected upstream time string, got %q", items[0].Time)
	}
	if items[1].Summary != "Trending on HackerNews." {
		t.Errorf("domainless summary should be bare, got %q", items[1].Summary)
	}
	for _, it := range items {
		if it.Source != "HackerNews" || it.Category != model.CategoryTechnology {
			t.Errorf("unexpected source/category on %+v", it)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 request, got %d", hits.Load())
	}
}

func TestHackerNewsBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer server.Close()

	if _, err := NewHackerNews(server.URL, 5*time.Second, nil).Fetch(context.Background(), model.CategoryTechnology, 1); err == nil {
		t.Error("expected decode error")
	}
}

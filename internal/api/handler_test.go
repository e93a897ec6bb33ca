package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"github.com/abelbrown/nexus/internal/model"
)

type fakeControls struct {
	category  model.Category
	live      bool
	busy      map[model.Category]bool
	refreshed []model.Category
	loadMores []model.Category
}

func (f *fakeControls) Category() model.Category { return f.category }

func (f *fakeControls) SetCategory(c model.Category) bool {
	f.category = c
	return f.RefreshCategory(c)
}

func (f *fakeControls) RefreshCategory(c model.Category) bool {
	if f.busy[c] {
		return false
	}
	f.refreshed = append(f.refreshed, c)
	return true
}

func (f *fakeControls) LoadMoreCategory(c model.Category) bool {
	if f.busy[c] {
		return false
	}
	f.loadMores = append(f.loadMores, c)
	return true
}

func (f *fakeControls) Toggle() bool                   { f.live = !f.live; return f.live }
func (f *fakeControls) Live() bool                     { return f.live }
func (f *fakeControls) InFlight(c model.Category) bool { return f.busy[c] }

type fakeSnapshots map[model.Category]model.Snapshot

func (f fakeSnapshots) Snapshot(c model.Category) model.Snapshot {
	snap, ok := f[c]
	if !ok {
		return model.Snapshot{Category: c}
	}
	return snap
}

type fakeTicker struct {
	prices  []model.CryptoPrice
	updated time.Time
	err     error
}

func (f *fakeTicker) Prices() []model.CryptoPrice { return f.prices }
func (f *fakeTicker) LastUpdated() time.Time      { return f.updated }
func (f *fakeTicker) LastError() error            { return f.err }

func newTestRouter(ctrl Controls, feed Snapshots, market Ticker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(ctrl, feed, market, nil), nil)
}

func do(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func cryptoFeed() fakeSnapshots {
	return fakeSnapshots{
		model.CategoryCrypto: {
			Category: model.CategoryCrypto,
			Items: []model.NewsItem{
				{ID: "cc-1", Title: "China bans mining again", Category: model.CategoryCrypto},
				{ID: "cc-2", Title: "Bitcoin steady", Category: model.CategoryCrypto},
				{ID: "cc-3", Title: "Tokyo exchange lists SOL", Category: model.CategoryCrypto},
			},
			Page:       1,
			Generation: 4,
			UpdatedAt:  time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
		},
	}
}

func TestGetFeed_ReturnsSnapshot(t *testing.T) {
	r := newTestRouter(&fakeControls{}, cryptoFeed(), nil)

	w := do(r, "GET", "/feed/crypto")
	assert.Equal(t, http.StatusOK, w.Code)

	var res FeedResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "Crypto", res.Category)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 3, len(res.Items))
	assert.Equal(t, "cc-1", res.Items[0].ID)
	assert.Equal(t, uint64(4), res.Generation)
	assert.Equal(t, "2026-10-15T09:30:00Z", res.UpdatedAt)
}

func TestGetFeed_Paging(t *testing.T) {
	r := newTestRouter(&fakeControls{}, cryptoFeed(), nil)

	w := do(r, "GET", "/feed/CRYPTO?limit=1&offset=1")
	var res FeedResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, len(res.Items))
	assert.Equal(t, "cc-2", res.Items[0].ID)
	assert.Equal(t, 1, res.Limit)
	assert.Equal(t, 1, res.Offset)

	w = do(r, "GET", "/feed/crypto?offset=10")
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 0, len(res.Items))
	assert.Equal(t, 3, res.Total)
}

func TestGetFeed_DefaultLimit(t *testing.T) {
	r := newTestRouter(&fakeControls{}, fakeSnapshots{}, nil)

	w := do(r, "GET", "/feed/tech?limit=abc")
	var res FeedResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 50, res.Limit)
	assert.Equal(t, "Technology", res.Category)
	assert.Equal(t, 0, len(res.Items))
}

func TestGetFeed_InvalidCategory(t *testing.T) {
	r := newTestRouter(&fakeControls{}, fakeSnapshots{}, nil)

	w := do(r, "GET", "/feed/weather")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostRefresh(t *testing.T) {
	ctrl := &fakeControls{category: model.CategoryAll}
	r := newTestRouter(ctrl, fakeSnapshots{}, nil)

	w := do(r, "POST", "/feed/world/refresh")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []model.Category{model.CategoryWorld}, ctrl.refreshed)
	assert.Equal(t, model.CategoryAll, ctrl.category)
}

func TestPostRefresh_InFlight(t *testing.T) {
	ctrl := &fakeControls{busy: map[model.Category]bool{model.CategoryWorld: true}}
	r := newTestRouter(ctrl, fakeSnapshots{}, nil)

	w := do(r, "POST", "/feed/world/refresh")
	assert.Equal(t, http.StatusConflict, w.Code)

	var res TriggerResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, false, res.Started)
}

func TestPostLoadMore(t *testing.T) {
	ctrl := &fakeControls{}
	r := newTestRouter(ctrl, cryptoFeed(), nil)

	w := do(r, "POST", "/feed/crypto/more")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []model.Category{model.CategoryCrypto}, ctrl.loadMores)
}

func TestPostLoadMore_AfterEmptyPage(t *testing.T) {
	ctrl := &fakeControls{}
	feed := fakeSnapshots{model.CategoryDeFi: {Category: model.CategoryDeFi, Items: []model.NewsItem{{ID: "d1"}}, Page: 2, Exhausted: true}}
	r := newTestRouter(ctrl, feed, nil)

	w := do(r, "POST", "/feed/defi/more")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []model.Category{model.CategoryDeFi}, ctrl.loadMores)
}

func TestPostLoadMore_InFlight(t *testing.T) {
	ctrl := &fakeControls{busy: map[model.Category]bool{model.CategoryDeFi: true}}
	r := newTestRouter(ctrl, fakeSnapshots{}, nil)

	w := do(r, "POST", "/feed/defi/more")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, len(ctrl.loadMores))
}

func TestPutCategory(t *testing.T) {
	ctrl := &fakeControls{category: model.CategoryAll}
	r := newTestRouter(ctrl, fakeSnapshots{}, nil)

	w := do(r, "PUT", "/category/tradfi")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, model.CategoryTradFi, ctrl.category)
}

func TestToggleLiveAndStatus(t *testing.T) {
	ctrl := &fakeControls{
		category: model.CategoryCrypto,
		live:     true,
		busy:     map[model.Category]bool{model.CategoryCrypto: true},
	}
	r := newTestRouter(ctrl, fakeSnapshots{}, nil)

	w := do(r, "POST", "/live/toggle")
	var live LiveResponse
	json.Unmarshal(w.Body.Bytes(), &live)
	assert.Equal(t, false, live.Live)

	w = do(r, "GET", "/status")
	var status StatusResponse
	json.Unmarshal(w.Body.Bytes(), &status)
	assert.Equal(t, "Crypto", status.Category)
	assert.Equal(t, false, status.Live)
	assert.Equal(t, []string{"Crypto"}, status.InFlight)
}

func TestGetMarket(t *testing.T) {
	market := &fakeTicker{
		prices:  []model.CryptoPrice{{ID: "bitcoin", Symbol: "BTC", Price: 64000, Change24h: 1.2}},
		updated: time.Now().Add(-2 * time.Minute),
		err:     errors.New("HTTP 429"),
	}
	r := newTestRouter(&fakeControls{}, fakeSnapshots{}, market)

	w := do(r, "GET", "/market")
	assert.Equal(t, http.StatusOK, w.Code)

	var res MarketResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, len(res.Prices))
	assert.Equal(t, "BTC", res.Prices[0].Symbol)
	assert.Equal(t, "2 minutes ago", res.UpdatedAgo)
	assert.Equal(t, "HTTP 429", res.Error)
}

func TestGetMarket_Disabled(t *testing.T) {
	r := newTestRouter(&fakeControls{}, fakeSnapshots{}, nil)

	w := do(r, "GET", "/market")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetItemLocation(t *testing.T) {
	r := newTestRouter(&fakeControls{}, cryptoFeed(), nil)

	w := do(r, "GET", "/feed/crypto/items/cc-1/location")
	assert.Equal(t, http.StatusOK, w.Code)

	var res LocationResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "cc-1", res.ItemID)
	if res.Point == nil {
		t.Fatal("expected a point for a China headline")
	}
	assert.Equal(t, "CHINA", res.Point.Label)
}

func TestGetItemLocation_NoMatch(t *testing.T) {
	r := newTestRouter(&fakeControls{}, cryptoFeed(), nil)

	w := do(r, "GET", "/feed/crypto/items/cc-2/location")
	assert.Equal(t, http.StatusOK, w.Code)

	var res LocationResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, true, res.Point == nil)
}

func TestGetItemLocation_NotFound(t *testing.T) {
	r := newTestRouter(&fakeControls{}, cryptoFeed(), nil)

	w := do(r, "GET", "/feed/crypto/items/missing/location")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLocations(t *testing.T) {
	r := newTestRouter(&fakeControls{}, cryptoFeed(), nil)

	w := do(r, "GET", "/locations/crypto")
	var res LocationsResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 2, len(res.Points))
	assert.Equal(t, "CHINA", res.Points["cc-1"].Label)
	assert.Equal(t, "TOKYO", res.Points["cc-3"].Label)
}

func TestGetHealth(t *testing.T) {
	r := newTestRouter(&fakeControls{live: true}, fakeSnapshots{}, nil)

	w := do(r, "GET", "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	var res map[string]any
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "healthy", res["status"])
	assert.Equal(t, true, res["live"])
}

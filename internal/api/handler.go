// Package api serves the feed engine as JSON over HTTP.
//
// Handlers never block on the network: refresh and load-more requests are
// handed to the controller and answered immediately. Callers poll the feed
// endpoint for the result.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/abelbrown/nexus/internal/geo"
	"github.com/abelbrown/nexus/internal/logging"
	"github.com/abelbrown/nexus/internal/model"
)

// Controls is the controller surface the handlers drive.
type Controls interface {
	Category() model.Category
	SetCategory(c model.Category) bool
	RefreshCategory(c model.Category) bool
	LoadMoreCategory(c model.Category) bool
	Toggle() bool
	Live() bool
	InFlight(c model.Category) bool
}

// Snapshots reads held feed state.
type Snapshots interface {
	Snapshot(c model.Category) model.Snapshot
}

// Ticker reads the held market prices.
type Ticker interface {
	Prices() []model.CryptoPrice
	LastUpdated() time.Time
	LastError() error
}

type Handler struct {
	ctrl   Controls
	feed   Snapshots
	market Ticker
	logger *log.Logger
}

// NewHandler creates a Handler. market and logger may be nil.
func NewHandler(ctrl Controls, feed Snapshots, market Ticker, logger *log.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{ctrl: ctrl, feed: feed, market: market, logger: logger}
}

func (h *Handler) GetFeed(c *gin.Context) {
	cat, ok := h.category(c)
	if !ok {
		return
	}

	snap := h.feed.Snapshot(cat)
	limit := getQueryLimit(c)
	offset := getQueryOffset(c)

	items := []model.NewsItem{}
	if offset < len(snap.Items) {
		end := offset + limit
		if end > len(snap.Items) {
			end = len(snap.Items)
		}
		items = snap.Items[offset:end]
	}

	res := FeedResponse{
		Category:    string(cat),
		Items:       items,
		Total:       len(snap.Items),
		Limit:       limit,
		Offset:      offset,
		Page:        snap.Page,
		Generation:  snap.Generation,
		Loading:     snap.Loading,
		LoadingMore: snap.LoadingMore,
		Exhausted:   snap.Exhausted,
	}
	if !snap.UpdatedAt.IsZero() {
		res.UpdatedAt = snap.UpdatedAt.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) PostRefresh(c *gin.Context) {
	cat, ok := h.category(c)
	if !ok {
		return
	}
	h.triggered(c, cat, h.ctrl.RefreshCategory(cat))
}

func (h *Handler) PostLoadMore(c *gin.Context) {
	cat, ok := h.category(c)
	if !ok {
		return
	}
	// An empty page may be a transient outage, so Exhausted never blocks
	// the next request; only the in-flight guard does.
	h.triggered(c, cat, h.ctrl.LoadMoreCategory(cat))
}

func (h *Handler) PutCategory(c *gin.Context) {
	cat, ok := h.category(c)
	if !ok {
		return
	}
	h.logger.Info("category selected over http", "category", cat)
	h.triggered(c, cat, h.ctrl.SetCategory(cat))
}

func (h *Handler) PostToggleLive(c *gin.Context) {
	live := h.ctrl.Toggle()
	h.logger.Info("polling toggled over http", "live", live)
	c.JSON(http.StatusOK, LiveResponse{Live: live})
}

func (h *Handler) GetStatus(c *gin.Context) {
	res := StatusResponse{
		Category: string(h.ctrl.Category()),
		Live:     h.ctrl.Live(),
		InFlight: []string{},
	}
	for _, cat := range append(model.Categories(), model.CategoryAll) {
		if h.ctrl.InFlight(cat) {
			res.InFlight = append(res.InFlight, string(cat))
		}
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetMarket(c *gin.Context) {
	if h.market == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Market ticker disabled"})
		return
	}

	res := MarketResponse{Prices: h.market.Prices()}
	if res.Prices == nil {
		res.Prices = []model.CryptoPrice{}
	}
	if at := h.market.LastUpdated(); !at.IsZero() {
		res.UpdatedAt = at.Format(time.RFC3339)
		res.UpdatedAgo = humanize.Time(at)
	}
	if err := h.market.LastError(); err != nil {
		res.Error = err.Error()
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetItemLocation(c *gin.Context) {
	cat, ok := h.category(c)
	if !ok {
		return
	}

	id := c.Param("id")
	item, found := h.feed.Snapshot(cat).Find(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	res := LocationResponse{ItemID: id}
	if p, ok := geo.ExtractItem(item); ok {
		res.Point = &p
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetLocations(c *gin.Context) {
	cat, ok := h.category(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, LocationsResponse{
		Category: string(cat),
		Points:   geo.Locate(h.feed.Snapshot(cat).Items),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"live":   h.ctrl.Live(),
	})
}

// category parses the :category path parameter, answering 400 on failure.
func (h *Handler) category(c *gin.Context) (model.Category, bool) {
	raw := c.Param("category")
	cat, err := model.ParseCategory(raw)
	if err != nil {
		h.logger.Warn("invalid category", "category", raw, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return "", false
	}
	return cat, true
}

// triggered answers 202 when an operation started and 409 when the
// in-flight guard dropped it.
func (h *Handler) triggered(c *gin.Context, cat model.Category, started bool) {
	status := http.StatusAccepted
	if !started {
		status = http.StatusConflict
	}
	c.JSON(status, TriggerResponse{Category: string(cat), Started: started})
}

func getQueryInt(name string, defaultValue int, c *gin.Context) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		logging.Warn("invalid query parameter, using default", "param", name, "value", raw, "error", err)
		return defaultValue
	}
	return v
}

func getQueryLimit(c *gin.Context) int {
	const (
		defaultLimit = 50
		maxLimit     = 200
	)

	limit := getQueryInt("limit", defaultLimit, c)
	if limit < 1 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func getQueryOffset(c *gin.Context) int {
	offset := getQueryInt("offset", 0, c)
	if offset < 0 {
		return 0
	}
	return offset
}

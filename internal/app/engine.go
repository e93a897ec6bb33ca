// Package app assembles the feed engine from configuration. Both commands
// build the same Engine and differ only in the display surface they put on
// top of it.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/abelbrown/nexus/internal/config"
	"github.com/abelbrown/nexus/internal/coord"
	"github.com/abelbrown/nexus/internal/dispatch"
	"github.com/abelbrown/nexus/internal/feed"
	"github.com/abelbrown/nexus/internal/logging"
	"github.com/abelbrown/nexus/internal/market"
	"github.com/abelbrown/nexus/internal/model"
	"github.com/abelbrown/nexus/internal/otel"
	"github.com/abelbrown/nexus/internal/sources"
)

// DefaultRingSize is the number of recent events kept for display.
const DefaultRingSize = 256

// Options configure New. Zero values are usable.
type Options struct {
	EventLog io.Writer // JSONL event sink, discarded when nil
	RingSize int
}

// Engine is the wired feed engine.
type Engine struct {
	Config     *config.Config
	Dispatcher *dispatch.Dispatcher
	Store      *feed.Store
	Aggregator *feed.Aggregator
	Controller *coord.Controller
	Market     *market.Refresher
	Events     *otel.Logger
	Ring       *otel.RingBuffer
}

// New validates cfg and builds the engine. Nothing runs until Start.
func New(cfg *config.Config, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	initial, err := model.ParseCategory(cfg.Feed.InitialCategory)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if opts.RingSize <= 0 {
		opts.RingSize = DefaultRingSize
	}
	if opts.EventLog == nil {
		opts.EventLog = io.Discard
	}
	events := otel.NewLogger(opts.EventLog)
	ring := otel.NewRingBuffer(opts.RingSize)
	events.SetRingBuffer(ring)

	dispatcher := dispatch.New(Adapters(cfg), logging.Component("dispatch"), events)
	store := feed.NewStore()
	aggregator := feed.NewAggregator(dispatcher, store, feed.Options{
		KeepPriorOnEmpty: cfg.Feed.KeepPriorOnEmpty,
		Logger:           logging.Component("feed"),
		Events:           events,
	})
	controller := coord.NewController(aggregator, coord.Options{
		Interval: cfg.PollInterval(),
		Category: initial,
		Logger:   logging.Component("coord"),
		Events:   events,
	})

	prices := market.NewCoinGecko(cfg.Market.Endpoint, cfg.FetchTimeout(),
		time.Duration(cfg.Market.MinIntervalSec)*time.Second)
	refresher := market.NewRefresher(prices, cfg.MarketInterval(), logging.Component("market"), events)

	return &Engine{
		Config:     cfg,
		Dispatcher: dispatcher,
		Store:      store,
		Aggregator: aggregator,
		Controller: controller,
		Market:     refresher,
		Events:     events,
		Ring:       ring,
	}, nil
}

// Adapters builds the provider set cfg describes. The search slot stays
// empty without an API key, which removes it from every route.
func Adapters(cfg *config.Config) dispatch.Adapters {
	timeout := cfg.FetchTimeout()

	var a dispatch.Adapters
	switch cfg.Sources.MarketNews.Provider {
	case config.MarketNewsRSS:
		a.Market = sources.NewRSS(cfg.Sources.MarketNews.FeedName, cfg.Sources.MarketNews.FeedURL,
			timeout, logging.Component("rss"))
	default:
		a.Market = sources.NewCryptoCompare(cfg.Sources.MarketNews.Endpoint, timeout,
			logging.Component("cryptocompare"))
	}
	a.Aggregator = sources.NewHackerNews(cfg.Sources.HackerNews.Endpoint, timeout,
		logging.Component("hackernews"))

	if cfg.HasSearchKey() {
		s := cfg.Sources.Search
		gen := sources.NewGemini(s.APIKey, s.Model, s.Endpoint, cfg.SearchTimeout(), logging.Component("gemini"))
		a.Search = sources.NewSearch(gen, s.Limit, s.RequestsPerMinute, logging.Component("search"))
	}
	return a
}

// Start runs the controller and the market refresher until ctx is done.
func (e *Engine) Start(ctx context.Context) {
	e.Events.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindStartup,
		Comp:  "app",
		Msg:   fmt.Sprintf("routes politics=%v category=%s", e.Dispatcher.Route(model.CategoryPolitics), e.Controller.Category()),
	})
	e.Controller.Start(ctx)
	e.Market.Start(ctx)
}

// Wait blocks until every background goroutine has exited. Call after
// cancelling the context passed to Start.
func (e *Engine) Wait() {
	e.Controller.Wait()
	e.Market.Wait()
}

// Close flushes the event log.
func (e *Engine) Close() {
	e.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "app"})
	e.Events.Close()
}

// OpenEventLog opens ~/.nexus/logs/nexus.events.jsonl for appending.
func OpenEventLog() (*os.File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	dir := filepath.Join(home, ".nexus", "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return os.OpenFile(filepath.Join(dir, "nexus.events.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

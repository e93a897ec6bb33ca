// Package coord drives the feed in the background: an immediate refresh on
// start, periodic refreshes while live, and user-triggered refresh and
// load-more requests.
// Uses context cancellation as the ONLY stop mechanism.
package coord

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/nexus/internal/logging"
	"github.com/abelbrown/nexus/internal/model"
	"github.com/abelbrown/nexus/internal/otel"
)

// DefaultPollInterval is the time between live refreshes.
const DefaultPollInterval = 60 * time.Second

const comp = "coord"

// feeder is the aggregator surface the controller drives (interface for testing).
type feeder interface {
	Refresh(ctx context.Context, c model.Category) (model.Snapshot, bool)
	LoadMore(ctx context.Context, c model.Category) (int, bool)
}

type op string

const (
	opRefresh  op = "refresh"
	opLoadMore op = "loadmore"
)

// Options configure a Controller. Zero values are usable.
type Options struct {
	Interval time.Duration  // poll interval, DefaultPollInterval if zero
	Category model.Category // initial category, CategoryAll if empty
	Logger   *log.Logger
	Events   *otel.Logger
}

// Controller owns the LIVE/PAUSED state and the current category. It starts
// LIVE and only changes state when told to.
//
// At most one refresh or load-more runs per category at a time. Triggers
// that arrive while one is in flight are dropped, not queued. Operations
// run in their own goroutines and are never cancelled by a category change
// or a pause.
type Controller struct {
	feed     feeder
	interval time.Duration
	logger   *log.Logger
	events   *otel.Logger

	mu       sync.Mutex
	ctx      context.Context
	live     bool
	category model.Category
	inflight map[model.Category]op

	liveCh chan struct{} // wakes the poll loop on state change
	wg     sync.WaitGroup
}

// NewController creates a controller over feed.
func NewController(feed feeder, opts Options) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Category == "" {
		opts.Category = model.CategoryAll
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Controller{
		feed:     feed,
		interval: opts.Interval,
		logger:   opts.Logger,
		events:   opts.Events,
		ctx:      context.Background(),
		live:     true,
		category: opts.Category,
		inflight: make(map[model.Category]op),
		liveCh:   make(chan struct{}, 1),
	}
}

// Start refreshes the current category immediately, then every interval
// while LIVE. Call with a cancellable context.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	c.RefreshNow()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.poll(ctx)
	}()
}

// Wait blocks until the poll loop and every in-flight operation exit.
// Call after canceling the context passed to Start.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// poll ticks only while LIVE. The ticker is stopped on pause and recreated
// on resume, so a resume waits a full interval before the next refresh.
func (c *Controller) poll(ctx context.Context) {
	var ticker *time.Ticker
	var tick <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	apply := func() {
		live := c.Live()
		switch {
		case live && ticker == nil:
			ticker = time.NewTicker(c.interval)
			tick = ticker.C
		case !live && ticker != nil:
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
	apply()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.liveCh:
			apply()
		case <-tick:
			c.trigger(opRefresh, c.Category())
		}
	}
}

// Live reports whether periodic polling is on.
func (c *Controller) Live() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// Toggle flips LIVE/PAUSED and returns the new state.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	c.live = !c.live
	live := c.live
	c.mu.Unlock()

	c.liveChanged(live)
	return live
}

// SetLive sets LIVE (true) or PAUSED (false).
func (c *Controller) SetLive(live bool) {
	c.mu.Lock()
	changed := c.live != live
	c.live = live
	c.mu.Unlock()

	if changed {
		c.liveChanged(live)
	}
}

func (c *Controller) liveChanged(live bool) {
	select {
	case c.liveCh <- struct{}{}:
	default:
	}

	state := "paused"
	if live {
		state = "live"
	}
	c.logger.Info("polling state changed", "state", state)
	c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindLive, Comp: comp, Msg: state})
}

// Category returns the current category.
func (c *Controller) Category() model.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.category
}

// SetCategory switches the current category and refreshes it whether LIVE
// or PAUSED. It reports whether the refresh was started.
func (c *Controller) SetCategory(cat model.Category) bool {
	c.mu.Lock()
	c.category = cat
	c.mu.Unlock()

	c.logger.Debug("category selected", "category", cat)
	return c.trigger(opRefresh, cat)
}

// RefreshNow refreshes the current category. Honored while PAUSED.
func (c *Controller) RefreshNow() bool {
	return c.trigger(opRefresh, c.Category())
}

// LoadMore requests the next page of the current category.
func (c *Controller) LoadMore() bool {
	return c.trigger(opLoadMore, c.Category())
}

// RefreshCategory refreshes cat without changing the current category.
func (c *Controller) RefreshCategory(cat model.Category) bool {
	return c.trigger(opRefresh, cat)
}

// LoadMoreCategory requests the next page of cat.
func (c *Controller) LoadMoreCategory(cat model.Category) bool {
	return c.trigger(opLoadMore, cat)
}

// InFlight reports whether an operation is running for cat.
func (c *Controller) InFlight(cat model.Category) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.inflight[cat]
	return busy
}

// trigger starts o for cat unless one is already in flight for it.
func (c *Controller) trigger(o op, cat model.Category) bool {
	c.mu.Lock()
	ctx := c.ctx
	if ctx.Err() != nil {
		c.mu.Unlock()
		return false
	}
	if running, busy := c.inflight[cat]; busy {
		c.mu.Unlock()
		c.logger.Debug("trigger dropped", "op", o, "category", cat, "running", running)
		c.events.Emit(otel.Event{
			Level:    otel.LevelDebug,
			Kind:     otel.KindDropped,
			Comp:     comp,
			Category: string(cat),
			Msg:      string(o),
			Extra:    map[string]any{"running": string(running)},
		})
		return false
	}
	c.inflight[cat] = o
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.inflight, cat)
			c.mu.Unlock()
		}()

		switch o {
		case opRefresh:
			c.feed.Refresh(ctx, cat)
		case opLoadMore:
			c.feed.LoadMore(ctx, cat)
		}
	}()
	return true
}

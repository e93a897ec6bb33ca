package market

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/nexus/internal/logging"
	"github.com/abelbrown/nexus/internal/model"
	"github.com/abelbrown/nexus/internal/otel"
)

// DefaultInterval is the time between ticker refreshes.
const DefaultInterval = 60 * time.Second

const comp = "market"

// Listener receives a copy of the ticker after each successful refresh.
type Listener func([]model.CryptoPrice)

// Refresher polls a Provider and holds the last good ticker. A failed
// refresh leaves the held list untouched.
type Refresher struct {
	provider Provider
	interval time.Duration
	logger   *log.Logger
	events   *otel.Logger

	mu          sync.RWMutex
	prices      []model.CryptoPrice
	lastErr     error
	lastUpdated time.Time
	listeners   map[int]Listener
	nextID      int

	wg sync.WaitGroup
}

// NewRefresher creates a refresher. interval <= 0 uses DefaultInterval.
// logger and events may be nil.
func NewRefresher(p Provider, interval time.Duration, logger *log.Logger, events *otel.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Refresher{
		provider:  p,
		interval:  interval,
		logger:    logger,
		events:    events,
		listeners: make(map[int]Listener),
	}
}

// Start refreshes immediately, then every interval until ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		r.Refresh(ctx)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Refresh(ctx)
			}
		}
	}()
}

// Wait blocks until the background goroutine exits.
func (r *Refresher) Wait() {
	r.wg.Wait()
}

// Refresh fetches once. On failure the previous ticker is kept and the error
// is recorded; it is also returned for callers that care.
func (r *Refresher) Refresh(ctx context.Context) error {
	start := time.Now()
	prices, err := r.provider.Prices(ctx)
	if err != nil {
		r.mu.Lock()
		r.lastErr = err
		held := len(r.prices)
		r.mu.Unlock()

		r.logger.Warn("market refresh failed, holding last good", "err", err, "held", held)
		r.events.Emit(otel.Event{
			Level: otel.LevelWarn,
			Kind:  otel.KindMarketHold,
			Comp:  comp,
			Count: held,
			Err:   err.Error(),
			Dur:   time.Since(start),
		})
		return err
	}

	r.mu.Lock()
	r.prices = append([]model.CryptoPrice(nil), prices...)
	r.lastErr = nil
	r.lastUpdated = time.Now()
	ls := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		ls = append(ls, l)
	}
	r.mu.Unlock()

	r.logger.Debug("market refreshed", "count", len(prices))
	r.events.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindMarketRefresh,
		Comp:  comp,
		Count: len(prices),
		Dur:   time.Since(start),
	})

	for _, l := range ls {
		l(append([]model.CryptoPrice(nil), prices...))
	}
	return nil
}

// Prices returns a copy of the held ticker. Empty until the first success.
func (r *Refresher) Prices() []model.CryptoPrice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.CryptoPrice(nil), r.prices...)
}

// LastError returns the error of the most recent refresh, nil if it worked.
func (r *Refresher) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// LastUpdated returns when the held ticker was fetched.
func (r *Refresher) LastUpdated() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastUpdated
}

// Subscribe registers l and returns a function that removes it.
func (r *Refresher) Subscribe(l Listener) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = l
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

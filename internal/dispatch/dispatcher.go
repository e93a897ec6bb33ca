// Package dispatch routes a (category, page) request to an ordered chain of
// source adapters and returns the first non-empty result.
package dispatch

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/nexus/internal/logging"
	"github.com/abelbrown/nexus/internal/model"
	"github.com/abelbrown/nexus/internal/otel"
	"github.com/abelbrown/nexus/internal/sources"
)

const comp = "dispatch"

// Adapters are the three provider slots of the routing table.
type Adapters struct {
	Market     sources.Adapter // A: crypto/market news
	Aggregator sources.Adapter // B: link aggregator
	Search     sources.Adapter // F: general search fallback
}

// Dispatcher is safe for concurrent use. The routing table is built once at
// construction and never modified.
type Dispatcher struct {
	routes map[model.Category][]sources.Adapter
	logger *log.Logger
	events *otel.Logger
}

// New builds the fixed routing table. Nil slots are left out of every chain.
// events may be nil.
func New(a Adapters, logger *log.Logger, events *otel.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Discard()
	}

	chain := func(adapters ...sources.Adapter) []sources.Adapter {
		out := make([]sources.Adapter, 0, len(adapters))
		for _, ad := range adapters {
			if ad != nil {
				out = append(out, ad)
			}
		}
		return out
	}

	return &Dispatcher{
		routes: map[model.Category][]sources.Adapter{
			model.CategoryCrypto:     chain(a.Market, a.Search),
			model.CategoryDeFi:       chain(a.Market, a.Search),
			model.CategoryTechnology: chain(a.Aggregator, a.Search),
			model.CategoryPolitics:   chain(a.Search),
			model.CategoryTradFi:     chain(a.Search),
			model.CategorySports:     chain(a.Search),
			model.CategoryWorld:      chain(a.Search),
		},
		logger: logger,
		events: events,
	}
}

// Route returns the adapter names tried for category, in order. The
// composite category has no route.
func (d *Dispatcher) Route(category model.Category) []string {
	chain := d.routes[category]
	names := make([]string, len(chain))
	for i, a := range chain {
		names[i] = a.Name()
	}
	return names
}

// Fetch runs the waterfall for category. Each adapter is awaited to
// completion before the next is tried, and an empty result counts as a
// failure. Errors never reach the caller: when nothing in the chain yields
// items the result is empty and exhausted is true.
func (d *Dispatcher) Fetch(ctx context.Context, category model.Category, page int) (items []model.NewsItem, exhausted bool) {
	chain := d.routes[category]
	if len(chain) == 0 {
		d.logger.Debug("no route", "category", category)
		return nil, true
	}

	for i, adapter := range chain {
		if ctx.Err() != nil {
			return nil, false
		}
		if i > 0 {
			d.logger.Info("falling back", "category", category, "page", page, "adapter", adapter.Name())
			d.events.Emit(otel.Event{
				Level:    otel.LevelInfo,
				Kind:     otel.KindFallback,
				Comp:     comp,
				Category: string(category),
				Adapter:  adapter.Name(),
				Page:     page,
			})
		}

		items, ok := d.try(ctx, adapter, category, page)
		if ok {
			return items, false
		}
	}
	return nil, true
}

func (d *Dispatcher) try(ctx context.Context, adapter sources.Adapter, category model.Category, page int) ([]model.NewsItem, bool) {
	ev := otel.Event{
		Comp:     comp,
		Category: string(category),
		Adapter:  adapter.Name(),
		Page:     page,
	}
	ev.Level, ev.Kind = otel.LevelDebug, otel.KindFetchStart
	d.events.Emit(ev)

	start := time.Now()
	items, err := adapter.Fetch(ctx, category, page)
	ev.Dur = time.Since(start)

	switch {
	case err != nil:
		d.logger.Warn("adapter failed", "adapter", adapter.Name(), "category", category, "page", page, "err", err)
		ev.Level, ev.Kind, ev.Err = otel.LevelWarn, otel.KindFetchError, err.Error()
		d.events.Emit(ev)
		return nil, false
	case len(items) == 0:
		d.logger.Warn("adapter returned nothing", "adapter", adapter.Name(), "category", category, "page", page)
		ev.Level, ev.Kind = otel.LevelWarn, otel.KindAdapterEmpty
		d.events.Emit(ev)
		return nil, false
	}

	d.logger.Debug("adapter ok", "adapter", adapter.Name(), "category", category, "page", page, "count", len(items), "dur", ev.Dur)
	ev.Level, ev.Kind, ev.Count = otel.LevelInfo, otel.KindFetchComplete, len(items)
	d.events.Emit(ev)
	return items, true
}

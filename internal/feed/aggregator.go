package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/nexus/internal/logging"
	"github.com/abelbrown/nexus/internal/model"
	"github.com/abelbrown/nexus/internal/otel"
)

const comp = "feed"

// Fetcher returns items for one concrete category and page. It never fails;
// exhausted reports that no provider had anything.
type Fetcher interface {
	Fetch(ctx context.Context, category model.Category, page int) (items []model.NewsItem, exhausted bool)
}

// Options configure an Aggregator. Zero values are usable.
type Options struct {
	// KeepPriorOnEmpty leaves the current snapshot in place when a refresh
	// comes back empty. By default an empty refresh clears the category.
	KeepPriorOnEmpty bool

	// Rand drives the composite shuffle. Seeded from the clock when nil.
	Rand *rand.Rand

	Logger *log.Logger
	Events *otel.Logger
}

// Aggregator turns refresh and load-more requests into store transitions.
// Safe for concurrent use; overlapping requests are resolved by generation.
type Aggregator struct {
	fetcher   Fetcher
	store     *Store
	keepPrior bool
	logger    *log.Logger
	events    *otel.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewAggregator creates an aggregator writing into store.
func NewAggregator(fetcher Fetcher, store *Store, opts Options) *Aggregator {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Aggregator{
		fetcher:   fetcher,
		store:     store,
		keepPrior: opts.KeepPriorOnEmpty,
		logger:    opts.Logger,
		events:    opts.Events,
		rand:      opts.Rand,
	}
}

// Store returns the underlying state container.
func (a *Aggregator) Store() *Store {
	return a.store
}

// Snapshot returns a copy of c's current snapshot.
func (a *Aggregator) Snapshot(c model.Category) model.Snapshot {
	return a.store.Snapshot(c)
}

// Refresh fetches page 1 of c and replaces its snapshot. It reports false
// when a newer refresh made the response stale and it was discarded.
func (a *Aggregator) Refresh(ctx context.Context, c model.Category) (model.Snapshot, bool) {
	gen := a.store.beginRefresh(c)
	start := time.Now()

	items, exhausted := a.fetch(ctx, c, 1)

	snap, applied := a.store.commitRefresh(c, gen, items, exhausted, a.keepPrior)
	if !applied {
		a.stale(c, gen, 1)
		return snap, false
	}

	a.logger.Info("refreshed", "category", c, "items", len(items), "dur", time.Since(start))
	a.events.Emit(otel.Event{
		Level:      otel.LevelInfo,
		Kind:       otel.KindRefresh,
		Comp:       comp,
		Category:   string(c),
		Page:       1,
		Generation: snap.Generation,
		Count:      len(items),
		Dur:        time.Since(start),
	})
	return snap, true
}

// LoadMore fetches the page after c's current one and appends the items
// not already present. The page advances even when every item was a
// duplicate. It returns the number of items added, or false when the
// response was discarded because a refresh replaced the snapshot meanwhile.
func (a *Aggregator) LoadMore(ctx context.Context, c model.Category) (int, bool) {
	gen, next := a.store.beginLoadMore(c)
	start := time.Now()

	items, exhausted := a.fetch(ctx, c, next)

	added, applied := a.store.commitLoadMore(c, gen, next, items, exhausted)
	if !applied {
		a.stale(c, gen, next)
		return 0, false
	}

	a.logger.Info("loaded more", "category", c, "page", next, "fetched", len(items), "added", added)
	a.events.Emit(otel.Event{
		Level:      otel.LevelInfo,
		Kind:       otel.KindLoadMore,
		Comp:       comp,
		Category:   string(c),
		Page:       next,
		Generation: gen,
		Count:      added,
		Dur:        time.Since(start),
		Extra:      map[string]any{"fetched": len(items)},
	})
	return added, true
}

// fetch resolves one page of c. The composite category fans out to its
// legs concurrently, concatenates them in leg order and shuffles.
func (a *Aggregator) fetch(ctx context.Context, c model.Category, page int) ([]model.NewsItem, bool) {
	if !c.Composite() {
		return a.fetcher.Fetch(ctx, c, page)
	}

	legs := model.AllLegs()
	results := make([][]model.NewsItem, len(legs))
	exhausted := make([]bool, len(legs))

	var g errgroup.Group
	for i, leg := range legs {
		g.Go(func() error {
			results[i], exhausted[i] = a.fetcher.Fetch(ctx, leg, page)
			return nil // legs never fail the group; an empty leg contributes nothing
		})
	}
	_ = g.Wait()

	var merged []model.NewsItem
	allExhausted := true
	for i := range legs {
		merged = append(merged, results[i]...)
		allExhausted = allExhausted && exhausted[i]
	}

	a.shuffle(merged)
	return merged, allExhausted
}

// shuffle permutes items uniformly in place.
func (a *Aggregator) shuffle(items []model.NewsItem) {
	a.randMu.Lock()
	defer a.randMu.Unlock()
	for i := len(items) - 1; i > 0; i-- {
		j := a.rand.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

func (a *Aggregator) stale(c model.Category, gen uint64, page int) {
	a.logger.Debug("discarding stale response", "category", c, "gen", gen, "page", page)
	a.events.Emit(otel.Event{
		Level:      otel.LevelDebug,
		Kind:       otel.KindStale,
		Comp:       comp,
		Category:   string(c),
		Page:       page,
		Generation: gen,
	})
}

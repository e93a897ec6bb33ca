// Package feed holds per-category item snapshots and the aggregator that
// fills them from the dispatcher.
package feed

import (
	"sync"
	"time"

	"github.com/abelbrown/nexus/internal/model"
)

// Listener receives a copy of a category's snapshot after every transition.
// It is called outside the store lock and must not block for long.
type Listener func(model.Snapshot)

// categoryState is the mutable record behind a published snapshot.
type categoryState struct {
	snap        model.Snapshot
	seen        map[string]bool
	refreshing  int
	loadingMore int
}

// Store is the feed state container. Items change only through Replace and
// Append; everything else is bookkeeping for progress flags and generations.
type Store struct {
	mu        sync.Mutex
	states    map[model.Category]*categoryState
	listeners map[int]Listener
	nextID    int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		states:    make(map[model.Category]*categoryState),
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Snapshot returns a copy of the current snapshot for c. Categories never
// fetched have page 0 and no items.
func (s *Store) Snapshot(c model.Category) model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(c).snap.Clone()
}

// Generation returns c's current generation.
func (s *Store) Generation(c model.Category) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(c).snap.Generation
}

// Replace swaps c's items for items at page, dropping repeated ids within
// the batch. It advances the generation.
func (s *Store) Replace(c model.Category, items []model.NewsItem, page int, exhausted bool) model.Snapshot {
	s.mu.Lock()
	st := s.state(c)
	s.replaceLocked(st, items, page, exhausted)
	snap := st.snap.Clone()
	s.mu.Unlock()

	s.notify(snap)
	return snap
}

// Append adds the items whose ids are not yet present, in order, and sets
// the page to page even when nothing was added. It returns the number of
// items added.
func (s *Store) Append(c model.Category, items []model.NewsItem, page int, exhausted bool) int {
	s.mu.Lock()
	st := s.state(c)
	added := s.appendLocked(st, items, page, exhausted)
	snap := st.snap.Clone()
	s.mu.Unlock()

	s.notify(snap)
	return added
}

// beginRefresh marks a refresh in flight and returns the generation the
// response must match to be applied.
func (s *Store) beginRefresh(c model.Category) uint64 {
	s.mu.Lock()
	st := s.state(c)
	st.refreshing++
	st.snap.Generation++
	st.snap.Loading = true
	gen := st.snap.Generation
	snap := st.snap.Clone()
	s.mu.Unlock()

	s.notify(snap)
	return gen
}

// beginLoadMore marks a load-more in flight and returns the generation and
// the page to request.
func (s *Store) beginLoadMore(c model.Category) (gen uint64, next int) {
	s.mu.Lock()
	st := s.state(c)
	st.loadingMore++
	st.snap.LoadingMore = true
	gen, next = st.snap.Generation, st.snap.Page+1
	snap := st.snap.Clone()
	s.mu.Unlock()

	s.notify(snap)
	return gen, next
}

// commitRefresh applies a refresh response if gen is still current. An
// empty response is ignored when keepPrior is set.
func (s *Store) commitRefresh(c model.Category, gen uint64, items []model.NewsItem, exhausted, keepPrior bool) (model.Snapshot, bool) {
	s.mu.Lock()
	st := s.state(c)
	st.refreshing--
	st.snap.Loading = st.refreshing > 0

	applied := st.snap.Generation == gen
	if applied && !(keepPrior && len(items) == 0) {
		s.replaceLocked(st, items, 1, exhausted)
	}
	snap := st.snap.Clone()
	s.mu.Unlock()

	s.notify(snap)
	return snap, applied
}

// commitLoadMore applies a load-more response if gen is still current.
func (s *Store) commitLoadMore(c model.Category, gen uint64, page int, items []model.NewsItem, exhausted bool) (added int, applied bool) {
	s.mu.Lock()
	st := s.state(c)
	st.loadingMore--
	st.snap.LoadingMore = st.loadingMore > 0

	applied = st.snap.Generation == gen
	if applied {
		added = s.appendLocked(st, items, page, exhausted)
	}
	snap := st.snap.Clone()
	s.mu.Unlock()

	s.notify(snap)
	return added, applied
}

func (s *Store) state(c model.Category) *categoryState {
	st, ok := s.states[c]
	if !ok {
		st = &categoryState{
			snap: model.Snapshot{Category: c},
			seen: make(map[string]bool),
		}
		s.states[c] = st
	}
	return st
}

func (s *Store) replaceLocked(st *categoryState, items []model.NewsItem, page int, exhausted bool) {
	st.seen = make(map[string]bool, len(items))
	kept := make([]model.NewsItem, 0, len(items))
	for _, it := range items {
		if st.seen[it.ID] {
			continue
		}
		st.seen[it.ID] = true
		kept = append(kept, it)
	}
	st.snap.Items = kept
	st.snap.Page = page
	st.snap.Exhausted = exhausted
	st.snap.Generation++
	st.snap.UpdatedAt = time.Now()
}

func (s *Store) appendLocked(st *categoryState, items []model.NewsItem, page int, exhausted bool) int {
	added := 0
	for _, it := range items {
		if st.seen[it.ID] {
			continue
		}
		st.seen[it.ID] = true
		st.snap.Items = append(st.snap.Items, it)
		added++
	}
	st.snap.Page = page
	st.snap.Exhausted = exhausted
	st.snap.UpdatedAt = time.Now()
	return added
}

func (s *Store) notify(snap model.Snapshot) {
	s.mu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()

	for _, l := range ls {
		l(snap.Clone())
	}
}

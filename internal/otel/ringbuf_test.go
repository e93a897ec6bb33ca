package otel

import (
	"sync"
	"testing"
)

func TestWrapAround(t *testing.T) {
	r := NewRingBuffer(4)
	for i := 0; i < 8; i++ {
		r.Push(Event{Kind: KindFetchStart, Count: i})
	}

	got := r.Last(10)
	if len(got) != 4 {
		t.Fatalf("expected 4 events, got %d", len(got))
	}
	// Oldest evicted: 4, 5, 6, 7 remain.
	for i, e := range got {
		if e.Count != i+4 {
			t.Errorf("got[%d].Count=%d, want %d", i, e.Count, i+4)
		}
	}
}

func TestLastPartial(t *testing.T) {
	r := NewRingBuffer(8)
	for i := 0; i < 5; i++ {
		r.Push(Event{Kind: KindFetchStart, Count: i})
	}
	got := r.Last(2)
	if len(got) != 2 || got[0].Count != 3 || got[1].Count != 4 {
		t.Errorf("unexpected tail %+v", got)
	}
	if r.Last(0) != nil {
		t.Error("Last(0) should be nil")
	}
}

func TestLastMatchingSevere(t *testing.T) {
	r := NewRingBuffer(16)
	r.Push(Event{Kind: KindRefresh, Level: LevelInfo, Count: 1})
	r.Push(Event{Kind: KindFallback, Level: LevelWarn, Count: 2})
	r.Push(Event{Kind: KindRefresh, Level: LevelInfo, Count: 3})
	r.Push(Event{Kind: KindFetchError, Level: LevelError, Count: 4})

	got := r.LastMatching(5, Event.Severe)
	if len(got) != 2 {
		t.Fatalf("expected 2 severe events, got %d", len(got))
	}
	if got[0].Count != 2 || got[1].Count != 4 {
		t.Errorf("unexpected order %+v", got)
	}
}

func TestPushCopiesExtra(t *testing.T) {
	r := NewRingBuffer(2)
	extra := map[string]any{"k": 1}
	r.Push(Event{Kind: KindStale, Extra: extra})
	extra["k"] = 2

	if r.Last(1)[0].Extra["k"] != 1 {
		t.Error("ring should hold its own copy of Extra")
	}
}

func TestStats(t *testing.T) {
	r := NewRingBuffer(3)
	r.Push(Event{Kind: KindRefresh})
	r.Push(Event{Kind: KindRefresh})
	r.Push(Event{Kind: KindLoadMore})
	r.Push(Event{Kind: KindLoadMore}) // evicts the first refresh

	s := r.Stats()
	if s[KindRefresh] != 1 || s[KindLoadMore] != 2 {
		t.Errorf("unexpected stats %v", s)
	}
	if r.Len() != 3 {
		t.Errorf("expected len 3, got %d", r.Len())
	}
}

func TestConcurrentPush(t *testing.T) {
	r := NewRingBuffer(64)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Push(Event{Kind: KindFetchStart})
				_ = r.Last(5)
			}
		}()
	}
	wg.Wait()
	if r.Len() != 64 {
		t.Errorf("expected full buffer, got %d", r.Len())
	}
}

// Package otel records structured engine events.
//
// Events are typed structs serialized as JSONL lines. The Logger writes them
// asynchronously through a buffered channel drained by one goroutine. An
// optional RingBuffer keeps the most recent events in memory for display
// surfaces (the alerts panel reads it).
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Adapter events
	KindFetchStart    EventKind = "fetch.start"
	KindFetchComplete EventKind = "fetch.complete"
	KindFetchError    EventKind = "fetch.error"
	KindAdapterEmpty  EventKind = "adapter.empty"

	// Dispatcher events
	KindFallback EventKind = "dispatch.fallback"

	// Feed events
	KindRefresh  EventKind = "feed.refresh"
	KindLoadMore EventKind = "feed.loadmore"
	KindStale    EventKind = "feed.stale"
	KindDropped  EventKind = "feed.dropped" // trigger dropped by the in-flight guard
	KindLive     EventKind = "feed.live"

	// Market events
	KindMarketRefresh EventKind = "market.refresh"
	KindMarketHold    EventKind = "market.hold"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
)

// Event is the universal record. Every field except Kind and Time is
// optional. Serialized as a single JSONL line.
type Event struct {
	Time       time.Time      `json:"t"`
	Level      Level          `json:"level,omitempty"`
	Kind       EventKind      `json:"kind"`
	Comp       string         `json:"comp,omitempty"` // "dispatch", "feed", "coord", "market"
	SessionID  string         `json:"session_id,omitempty"`
	Category   string         `json:"category,omitempty"`
	Adapter    string         `json:"adapter,omitempty"`
	Page       int            `json:"page,omitempty"`
	Generation uint64         `json:"gen,omitempty"`
	Dur        time.Duration  `json:"-"`
	DurMs      float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Count      int            `json:"count,omitempty"`
	Err        string         `json:"err,omitempty"`
	Msg        string         `json:"msg,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}

// Severe reports whether the event is a warning or an error.
func (e Event) Severe() bool {
	return e.Level == LevelWarn || e.Level == LevelError
}

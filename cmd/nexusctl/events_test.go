package main

import (
	"bytes"
	"strings"
	"testing"
)

const sampleLog = `{"t":"2026-10-15T09:00:00Z","level":"debug","kind":"fetch.start","comp":"dispatch","session_id":"s1","category":"Crypto","adapter":"cryptocompare","page":1}
{"t":"2026-10-15T09:00:01Z","level":"warn","kind":"fetch.error","comp":"dispatch","session_id":"s1","category":"Crypto","adapter":"cryptocompare","page":1,"dur_ms":120,"err":"HTTP 503"}
{"t":"2026-10-15T09:00:01Z","level":"info","kind":"dispatch.fallback","comp":"dispatch","session_id":"s1","category":"Crypto","adapter":"search:gemini","page":1}
not json
{"t":"2026-10-15T09:00:03Z","level":"info","kind":"fetch.complete","comp":"dispatch","session_id":"s1","category":"Crypto","adapter":"search:gemini","page":1,"dur_ms":2000,"count":10}
{"t":"2026-10-15T09:00:03Z","level":"info","kind":"feed.refresh","comp":"feed","session_id":"s1","category":"Crypto","page":1,"gen":2,"count":10}
{"t":"2026-10-15T09:01:00Z","level":"warn","kind":"market.hold","comp":"market","session_id":"s2","err":"HTTP 429"}
`

func TestReadTailLinesKeepsLastMatching(t *testing.T) {
	lines := readTailLines(strings.NewReader(sampleLog), 2, func(ev eventRecord) bool {
		return strings.HasPrefix(ev.Kind, "fetch")
	})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].ev.Kind != "fetch.error" || lines[1].ev.Kind != "fetch.complete" {
		t.Errorf("unexpected kinds %s, %s", lines[0].ev.Kind, lines[1].ev.Kind)
	}
	if !bytes.Contains(lines[1].raw, []byte(`"count":10`)) {
		t.Errorf("raw line not preserved: %s", lines[1].raw)
	}
}

func TestEventFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter eventFilter
		want   int
	}{
		{"all", eventFilter{}, 6},
		{"warn and above", eventFilter{level: "warn"}, 2},
		{"kind prefix", eventFilter{kind: "feed"}, 1},
		{"category case-insensitive", eventFilter{category: "crypto"}, 5},
		{"adapter", eventFilter{adapter: "search:gemini"}, 2},
		{"component", eventFilter{comp: "market"}, 1},
	}
	for _, tt := range tests {
		got := readTailLines(strings.NewReader(sampleLog), 100, tt.filter.match)
		if len(got) != tt.want {
			t.Errorf("%s: expected %d lines, got %d", tt.name, tt.want, len(got))
		}
	}
}

func TestFormatEvent(t *testing.T) {
	lines := readTailLines(strings.NewReader(sampleLog), 100, eventFilter{kind: "fetch.error"}.match)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	out := formatEvent(lines[0].ev)
	for _, want := range []string{"WARN", "fetch.error", "Crypto/1", "via=cryptocompare", "(120ms)", "err=HTTP 503"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted line missing %q: %s", want, out)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := summarize(strings.NewReader(sampleLog))

	if s.events != 6 {
		t.Errorf("expected 6 events, got %d", s.events)
	}
	if len(s.sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(s.sessions))
	}

	cc := s.adapters["cryptocompare"]
	if cc == nil || cc.errors != 1 || cc.complete != 0 || cc.lastErr != "HTTP 503" {
		t.Errorf("unexpected cryptocompare stats %+v", cc)
	}
	search := s.adapters["search:gemini"]
	if search == nil || search.complete != 1 || search.avgMs() != 2000 {
		t.Errorf("unexpected search stats %+v", search)
	}
	if s.fallbacks["Crypto"] != 1 {
		t.Errorf("expected 1 crypto fallback, got %d", s.fallbacks["Crypto"])
	}
	if s.refreshes != 1 || s.holds != 1 {
		t.Errorf("expected 1 refresh and 1 hold, got %d and %d", s.refreshes, s.holds)
	}

	var out bytes.Buffer
	printSummary(&out, s)
	for _, want := range []string{"Sessions:              2", "cryptocompare", "Crypto", "1 refresh, 0 load-more", "0 refresh, 1 held"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}
}

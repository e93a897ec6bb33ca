package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
)

type adapterStats struct {
	name      string
	complete  int
	errors    int
	empty     int
	totalMs   float64
	timed     int
	lastErr   string
	lastErrAt time.Time
}

func (a *adapterStats) avgMs() float64 {
	if a.timed == 0 {
		return 0
	}
	return a.totalMs / float64(a.timed)
}

type eventSummary struct {
	events    int
	sessions  map[string]bool
	adapters  map[string]*adapterStats
	fallbacks map[string]int // by category
	refreshes int
	loadMores int
	stale     int
	dropped   int
	prices    int
	holds     int
	first     time.Time
	last      time.Time
}

// summarize folds a JSONL event stream into per-adapter and per-subsystem
// counters. Unparseable lines are skipped.
func summarize(r io.Reader) eventSummary {
	s := eventSummary{
		sessions:  make(map[string]bool),
		adapters:  make(map[string]*adapterStats),
		fallbacks: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	for scanner.Scan() {
		var ev eventRecord
		if json.Unmarshal(scanner.Bytes(), &ev) != nil {
			continue
		}
		s.events++
		if ev.SessionID != "" {
			s.sessions[ev.SessionID] = true
		}
		if s.first.IsZero() || ev.Time.Before(s.first) {
			s.first = ev.Time
		}
		if ev.Time.After(s.last) {
			s.last = ev.Time
		}

		switch ev.Kind {
		case "fetch.complete", "fetch.error", "adapter.empty":
			a := s.adapter(ev.Adapter)
			switch ev.Kind {
			case "fetch.complete":
				a.complete++
			case "fetch.error":
				a.errors++
				if !ev.Time.Before(a.lastErrAt) {
					a.lastErr, a.lastErrAt = ev.Err, ev.Time
				}
			case "adapter.empty":
				a.empty++
			}
			if ev.DurMs > 0 {
				a.totalMs += ev.DurMs
				a.timed++
			}
		case "dispatch.fallback":
			s.fallbacks[ev.Category]++
		case "feed.refresh":
			s.refreshes++
		case "feed.loadmore":
			s.loadMores++
		case "feed.stale":
			s.stale++
		case "feed.dropped":
			s.dropped++
		case "market.refresh":
			s.prices++
		case "market.hold":
			s.holds++
		}
	}
	return s
}

func (s *eventSummary) adapter(name string) *adapterStats {
	if name == "" {
		name = "?"
	}
	a, ok := s.adapters[name]
	if !ok {
		a = &adapterStats{name: name}
		s.adapters[name] = a
	}
	return a
}

func printSummary(w io.Writer, s eventSummary) {
	fmt.Fprintf(w, "Events:                %s\n", humanize.Comma(int64(s.events)))
	fmt.Fprintf(w, "Sessions:              %d\n", len(s.sessions))
	if !s.last.IsZero() {
		fmt.Fprintf(w, "Span:                  %s .. %s\n", s.first.Format(time.RFC3339), s.last.Format(time.RFC3339))
		fmt.Fprintf(w, "Last event:            %s\n", humanize.Time(s.last))
	}

	names := make([]string, 0, len(s.adapters))
	for name := range s.adapters {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "\nAdapters (%d):\n", len(names))
	for _, name := range names {
		a := s.adapters[name]
		fmt.Fprintf(w, "  %-22s %5d ok %5d err %5d empty  avg %.0fms\n",
			a.name, a.complete, a.errors, a.empty, a.avgMs())
		if a.lastErr != "" {
			fmt.Fprintf(w, "  %-22s last error %s: %s\n", "", humanize.Time(a.lastErrAt), a.lastErr)
		}
	}

	cats := make([]string, 0, len(s.fallbacks))
	for c := range s.fallbacks {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	fmt.Fprintf(w, "\nFallbacks:\n")
	if len(cats) == 0 {
		fmt.Fprintf(w, "  none\n")
	}
	for _, c := range cats {
		fmt.Fprintf(w, "  %-22s %d\n", c, s.fallbacks[c])
	}

	fmt.Fprintf(w, "\nFeed:                  %d refresh, %d load-more, %d stale, %d dropped\n",
		s.refreshes, s.loadMores, s.stale, s.dropped)
	fmt.Fprintf(w, "Market:                %d refresh, %d held\n", s.prices, s.holds)
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	f := openEventLog()
	defer f.Close()

	printSummary(os.Stdout, summarize(f))
}

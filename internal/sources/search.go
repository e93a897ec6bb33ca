package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/abelbrown/nexus/internal/model"
)

const (
	// RecordDelimiter separates headline records in a search response.
	RecordDelimiter = "|||"

	// FieldDelimiter separates fields within a record.
	FieldDelimiter = "|"

	// DefaultSearchLimit is K, the most headlines one search call returns.
	DefaultSearchLimit = 10
)

// Generator answers a free-text prompt. Implementations wrap a search-capable
// language model.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Search is the general fallback provider: given a topic it asks a
// Generator for up to Limit headlines. Pages are folded into the prompt, so
// results are not idempotent across pages.
type Search struct {
	gen     Generator
	limit   int
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewSearch creates the fallback adapter. requestsPerMinute <= 0 disables
// pacing.
func NewSearch(gen Generator, limit, requestsPerMinute int, logger *log.Logger) *Search {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	return &Search{
		gen:     gen,
		limit:   limit,
		limiter: limiter,
		logger:  orDiscard(logger),
	}
}

func (s *Search) Name() string {
	return "search:" + s.gen.Name()
}

func (s *Search) Fetch(ctx context.Context, category model.Category, page int) ([]model.NewsItem, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Adapter: s.Name(), Op: "request", Err: err}
	}

	text, err := s.gen.Generate(ctx, BuildPrompt(category, page, s.limit))
	if err != nil {
		return nil, &TransportError{Adapter: s.Name(), Op: "generate", Err: err}
	}

	items, dropped := ParseHeadlines(text, category)
	if dropped > 0 {
		s.logger.Debug("dropped malformed records", "adapter", s.Name(), "count", dropped)
	}
	if len(items) > s.limit {
		items = items[:s.limit]
	}
	return items, nil
}

// BuildPrompt asks for delimited headlines about topic. Later pages ask the
// model to skip what earlier pages would have returned.
func BuildPrompt(topic model.Category, page, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search for the absolute latest %d news headlines about %s.\n", limit, topic)
	if page > 1 {
		fmt.Fprintf(&b, "This is page %d of results: skip the %d most recent headlines and return the ones after them.\n",
			page, (page-1)*limit)
	}
	fmt.Fprintf(&b, "Format strictly as list separated by %q.\n", RecordDelimiter)
	b.WriteString("Pattern: Title | Source | TimeAgo | Brief Snippet (do not generate a summary, use the lead text).\n")
	b.WriteString("Example: Senate passes new bill | AP News | 10m ago | The legislation aims to curb inflation...\n")
	b.WriteString("Do not use markdown.")
	return b.String()
}

// ParseHeadlines splits a delimited search response into items. Records
// with fewer than four fields or an empty title are dropped and counted.
// Repeated headlines within one response collapse to the first.
func ParseHeadlines(text string, category model.Category) (items []model.NewsItem, dropped int) {
	seen := make(map[string]bool)
	for _, record := range strings.Split(text, RecordDelimiter) {
		if strings.TrimSpace(record) == "" {
			continue
		}
		parts := strings.Split(record, FieldDelimiter)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) < 4 || parts[0] == "" {
			dropped++
			continue
		}

		id := headlineID(category, parts[0], parts[1])
		if seen[id] {
			continue
		}
		seen[id] = true

		items = append(items, model.NewsItem{
			ID:        id,
			Title:     parts[0],
			Source:    parts[1],
			Time:      parts[2],
			Summary:   parts[3],
			Category:  category,
			Sentiment: model.SentimentNeutral,
		})
	}
	return items, dropped
}

// headlineID derives the id from content so the same headline keeps its id
// across refreshes and pages.
func headlineID(category model.Category, title, source string) string {
	key := strings.ToLower(string(category) + "|" + title + "|" + source)
	return "gen-" + hashString(key)
}

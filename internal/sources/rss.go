package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mmcdole/gofeed"

	"github.com/abelbrown/nexus/internal/model"
)

// RSS serves a market-news batch from any RSS or Atom feed. It is an
// alternative to CryptoCompare for the Crypto and DeFi routes.
type RSS struct {
	name   string
	url    string
	client *http.Client
	logger *log.Logger
}

// NewRSS creates a feed adapter. name is used as the item source when the
// feed carries no title.
func NewRSS(name, url string, timeout time.Duration, logger *log.Logger) *RSS {
	return &RSS{
		name:   name,
		url:    url,
		client: newClient(timeout),
		logger: orDiscard(logger),
	}
}

func (r *RSS) Name() string {
	return "rss"
}

func (r *RSS) Fetch(ctx context.Context, category model.Category, page int) ([]model.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, &TransportError{Adapter: r.Name(), Op: "request", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &TransportError{Adapter: r.Name(), Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Adapter: r.Name(), Op: "status", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, &TransportError{Adapter: r.Name(), Op: "decode", Err: err}
	}

	source := r.name
	if feed.Title != "" {
		source = feed.Title
	}

	entries := feed.Items
	if len(entries) > maxBatch {
		entries = entries[:maxBatch]
	}

	items := make([]model.NewsItem, 0, len(entries))
	for _, e := range entries {
		item, err := convertFeedItem(e, source, category)
		if err != nil {
			r.logger.Debug("dropping record", "adapter", r.Name(), "err", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// convertFeedItem normalizes one feed entry. The id prefers the GUID, then
// the link, then the title, so it is stable across refetches.
func convertFeedItem(e *gofeed.Item, source string, category model.Category) (model.NewsItem, error) {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		return model.NewsItem{}, malformed("entry has no title")
	}

	key := e.GUID
	if key == "" {
		key = e.Link
	}
	if key == "" {
		key = title
	}

	summary := plainText(e.Description)
	if summary == "" && e.Content != "" {
		summary = truncate(plainText(e.Content), 500)
	}
	if summary == "" {
		summary = noSummary
	}

	var published time.Time
	if e.PublishedParsed != nil {
		published = *e.PublishedParsed
	} else if e.UpdatedParsed != nil {
		published = *e.UpdatedParsed
	}

	return model.NewsItem{
		ID:        "rss-" + hashString(key),
		Title:     title,
		Summary:   summary,
		Source:    source,
		Time:      clockTime(published),
		URL:       e.Link,
		Category:  category,
		Sentiment: model.SentimentNeutral,
	}, nil
}

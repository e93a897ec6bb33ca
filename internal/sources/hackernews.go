package sources

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/nexus/internal/model"
)

// DefaultHackerNewsEndpoint is the HNPWA mirror of the HN front page.
const DefaultHackerNewsEndpoint = "https://api.hnpwa.com"

// HackerNews is the link-aggregator provider. It always serves the first
// front page; page is ignored so repeated calls are idempotent refreshes.
type HackerNews struct {
	endpoint string
	client   *http.Client
	logger   *log.Logger
}

type hnStory struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Domain  string `json:"domain"`
	TimeAgo string `json:"time_ago"`
	URL     string `json:"url"`
}

// NewHackerNews creates the adapter. Empty endpoint uses HNPWA.
func NewHackerNews(endpoint string, timeout time.Duration, logger *log.Logger) *HackerNews {
	if endpoint == "" {
		endpoint = DefaultHackerNewsEndpoint
	}
	return &HackerNews{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   newClient(timeout),
		logger:   orDiscard(logger),
	}
}

func (h *HackerNews) Name() string {
	return "hackernews"
}

func (h *HackerNews) Fetch(ctx context.Context, category model.Category, page int) ([]model.NewsItem, error) {
	var stories []hnStory
	if err := getJSON(ctx, h.client, h.Name(), h.endpoint+"/v0/news/1.json", &stories); err != nil {
		return nil, err
	}
	if len(stories) > maxBatch {
		stories = stories[:maxBatch]
	}

	items := make([]model.NewsItem, 0, len(stories))
	for _, s := range stories {
		if s.ID == 0 || strings.TrimSpace(s.Title) == "" {
			h.logger.Debug("dropping record", "adapter", h.Name(), "err", malformed("story %d missing id or title", s.ID))
			continue
		}

		summary := "Trending on HackerNews."
		if s.Domain != "" {
			summary += " Source: " + s.Domain
		}

		items = append(items, model.NewsItem{
			ID:        "hn-" + strconv.FormatInt(s.ID, 10),
			Title:     strings.TrimSpace(s.Title),
			Summary:   summary,
			Source:    "HackerNews",
			Time:      s.TimeAgo,
			URL:       s.URL,
			Category:  model.CategoryTechnology,
			Sentiment: model.SentimentNeutral,
		})
	}
	return items, nil
}

package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/nexus/internal/model"
)

// DefaultCryptoCompareEndpoint is the public market-news API.
const DefaultCryptoCompareEndpoint = "https://min-api.cryptocompare.com"

// CryptoCompare is the dedicated market-news provider. It serves one fixed
// batch of the latest stories regardless of page.
type CryptoCompare struct {
	endpoint string
	client   *http.Client
	logger   *log.Logger
}

// ccResponse is the news envelope. Data is an array on success and an
// object when the API reports an error, so it is decoded lazily.
type ccResponse struct {
	Response string          `json:"Response"`
	Message  string          `json:"Message"`
	Data     json.RawMessage `json:"Data"`
}

type ccArticle struct {
	ID          flexID `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	URL         string `json:"url"`
	PublishedOn int64  `json:"published_on"`
	SourceInfo  struct {
		Name string `json:"name"`
	} `json:"source_info"`
	Source string `json:"source"`
}

// flexID accepts ids encoded as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// NewCryptoCompare creates the adapter. Empty endpoint uses the public API.
func NewCryptoCompare(endpoint string, timeout time.Duration, logger *log.Logger) *CryptoCompare {
	if endpoint == "" {
		endpoint = DefaultCryptoCompareEndpoint
	}
	return &CryptoCompare{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   newClient(timeout),
		logger:   orDiscard(logger),
	}
}

func (c *CryptoCompare) Name() string {
	return "cryptocompare"
}

func (c *CryptoCompare) Fetch(ctx context.Context, category model.Category, page int) ([]model.NewsItem, error) {
	url := c.endpoint + "/data/v2/news/?lang=EN"

	var resp ccResponse
	if err := getJSON(ctx, c.client, c.Name(), url, &resp); err != nil {
		return nil, err
	}

	data := bytes.TrimSpace(resp.Data)
	if len(data) == 0 || data[0] != '[' {
		return nil, &TransportError{
			Adapter: c.Name(),
			Op:      "decode",
			Err:     fmt.Errorf("malformed payload: response=%q message=%q", resp.Response, resp.Message),
		}
	}

	var articles []ccArticle
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, &TransportError{Adapter: c.Name(), Op: "decode", Err: err}
	}
	if len(articles) > maxBatch {
		articles = articles[:maxBatch]
	}

	items := make([]model.NewsItem, 0, len(articles))
	for _, a := range articles {
		item, err := c.convert(a, category)
		if err != nil {
			c.logger.Debug("dropping record", "adapter", c.Name(), "err", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *CryptoCompare) convert(a ccArticle, category model.Category) (model.NewsItem, error) {
	if a.ID == "" {
		return model.NewsItem{}, malformed("missing id")
	}
	title := strings.TrimSpace(a.Title)
	if title == "" {
		return model.NewsItem{}, malformed("article %s has no title", a.ID)
	}

	summary := plainText(a.Body)
	if summary == "" {
		summary = noSummary
	}

	source := a.SourceInfo.Name
	if source == "" {
		source = a.Source
	}

	var published time.Time
	if a.PublishedOn > 0 {
		published = time.Unix(a.PublishedOn, 0)
	}

	return model.NewsItem{
		ID:        "cc-" + string(a.ID),
		Title:     title,
		Summary:   summary,
		Source:    source,
		Time:      clockTime(published),
		URL:       a.URL,
		Category:  category,
		Sentiment: model.SentimentNeutral,
	}, nil
}

package model

import "time"

// Sentiment is an optional tone tag on an item. Adapters currently always
// emit SentimentNeutral.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// NewsItem is one feed entry.
//
// ID is stable across repeated fetches of the same upstream record; dedup
// depends on it.
type NewsItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Source    string    `json:"source"`
	Time      string    `json:"time"` // display-formatted
	URL       string    `json:"url,omitempty"`
	Category  Category  `json:"category"`
	Sentiment Sentiment `json:"sentiment,omitempty"`
}

// Text is the string the geo extractor scans.
func (n NewsItem) Text() string {
	return n.Title + " " + n.Summary
}

// MapDataPoint is a resolved geographic focal point.
type MapDataPoint struct {
	ID        string  `json:"id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Label     string  `json:"label"`
	Intensity float64 `json:"intensity"`
}

// CryptoPrice is one ticker entry.
type CryptoPrice struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
}

// Snapshot is the ordered item list currently held for a category plus its
// paging cursor and progress flags.
type Snapshot struct {
	Category    Category   `json:"category"`
	Items       []NewsItem `json:"items"`
	Page        int        `json:"page"`
	Generation  uint64     `json:"generation"`
	Loading     bool       `json:"loading"`
	LoadingMore bool       `json:"loadingMore"`
	Exhausted   bool       `json:"exhausted"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Clone returns a copy whose Items slice does not alias s.
func (s Snapshot) Clone() Snapshot {
	if s.Items != nil {
		items := make([]NewsItem, len(s.Items))
		copy(items, s.Items)
		s.Items = items
	}
	return s
}

// Find returns the item with the given id.
func (s Snapshot) Find(id string) (NewsItem, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return NewsItem{}, false
}

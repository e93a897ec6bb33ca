// Package geo resolves a coarse map point for a feed item by keyword lookup.
//
// Matching is deliberately dumb: the uppercased text is scanned for each
// keyword of a fixed ordered table and the first one present as a substring
// wins. "US" therefore also matches "BUSINESS"; that is accepted.
package geo

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/abelbrown/nexus/internal/model"
)

// Keyword is one entry of the lookup table.
type Keyword struct {
	Name string
	Lat  float64
	Lng  float64
}

// keywords is scanned in order. Order decides ties; do not sort.
var keywords = []Keyword{
	{"CHINA", 35.8617, 104.1954},
	{"US", 37.0902, -95.7129},
	{"USA", 37.0902, -95.7129},
	{"UK", 55.3781, -3.4360},
	{"LONDON", 51.5074, -0.1278},
	{"EU", 54.5260, 15.2551},
	{"RUSSIA", 61.5240, 105.3188},
	{"JAPAN", 36.2048, 138.2529},
	{"TOKYO", 35.6762, 139.6503},
	{"INDIA", 20.5937, 78.9629},
	{"BRAZIL", -14.2350, -51.9253},
	{"GERMANY", 51.1657, 10.4515},
	{"FRANCE", 46.2276, 2.2137},
	{"AUSTRALIA", -25.2744, 133.7751},
	{"DUBAI", 25.2048, 55.2708},
	{"NY", 40.7128, -74.0060},
	{"YORK", 40.7128, -74.0060},
	{"CALIFORNIA", 36.7783, -119.4179},
	{"BEIJING", 39.9042, 116.4074},
	{"SHANGHAI", 31.2304, 121.4737},
	{"SINGAPORE", 1.3521, 103.8198},
	{"HONG KONG", 22.3193, 114.1694},
}

// Keywords returns a copy of the lookup table in scan order.
func Keywords() []Keyword {
	out := make([]Keyword, len(keywords))
	copy(out, keywords)
	return out
}

// Match returns the first table keyword contained in text.
func Match(text string) (Keyword, bool) {
	upper := strings.ToUpper(text)
	for _, k := range keywords {
		if strings.Contains(upper, k.Name) {
			return k, true
		}
	}
	return Keyword{}, false
}

// Extract returns a map point for text, or false when no keyword matches.
// Every call mints a fresh point id.
func Extract(text string) (model.MapDataPoint, bool) {
	k, ok := Match(text)
	if !ok {
		return model.MapDataPoint{}, false
	}
	return model.MapDataPoint{
		ID:        "loc-" + uuid.NewString(),
		Lat:       k.Lat,
		Lng:       k.Lng,
		Label:     k.Name,
		Intensity: 1,
	}, true
}

// ExtractItem runs Extract over the item's title and summary.
func ExtractItem(item model.NewsItem) (model.MapDataPoint, bool) {
	return Extract(item.Text())
}

// Locate resolves one point per item, keyed by item id. Items without a
// match are absent from the result.
func Locate(items []model.NewsItem) map[string]model.MapDataPoint {
	points := make(map[string]model.MapDataPoint, len(items))
	for _, it := range items {
		if p, ok := ExtractItem(it); ok {
			points[it.ID] = p
		}
	}
	return points
}

// Selection holds the single active point for the currently open item.
type Selection struct {
	mu     sync.RWMutex
	itemID string
	point  *model.MapDataPoint
}

// Select makes item the open item and replaces the active point. When
// nothing matches, the active point is cleared.
func (s *Selection) Select(item model.NewsItem) (model.MapDataPoint, bool) {
	p, ok := ExtractItem(item)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemID = item.ID
	if !ok {
		s.point = nil
		return model.MapDataPoint{}, false
	}
	s.point = &p
	return p, true
}

// Current returns the active point, if any.
func (s *Selection) Current() (model.MapDataPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.point == nil {
		return model.MapDataPoint{}, false
	}
	return *s.point, true
}

// ItemID returns the id of the open item ("" before the first Select).
func (s *Selection) ItemID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemID
}

// Markers returns the active point as a zero-or-one element slice.
func (s *Selection) Markers() []model.MapDataPoint {
	if p, ok := s.Current(); ok {
		return []model.MapDataPoint{p}
	}
	return nil
}

package api

import "github.com/abelbrown/nexus/internal/model"

type FeedResponse struct {
	Category    string           `json:"category"`
	Items       []model.NewsItem `json:"items"`
	Total       int              `json:"total"`
	Limit       int              `json:"limit"`
	Offset      int              `json:"offset"`
	Page        int              `json:"page"`
	Generation  uint64           `json:"generation"`
	Loading     bool             `json:"loading"`
	LoadingMore bool             `json:"loading_more"`
	Exhausted   bool             `json:"exhausted"`
	UpdatedAt   string           `json:"updated_at,omitempty"`
}

type TriggerResponse struct {
	Category string `json:"category"`
	Started  bool   `json:"started"`
}

type StatusResponse struct {
	Category string   `json:"category"`
	Live     bool     `json:"live"`
	InFlight []string `json:"in_flight"`
}

type LiveResponse struct {
	Live bool `json:"live"`
}

type MarketResponse struct {
	Prices     []model.CryptoPrice `json:"prices"`
	UpdatedAt  string              `json:"updated_at,omitempty"`
	UpdatedAgo string              `json:"updated_ago,omitempty"`
	Error      string              `json:"error,omitempty"`
}

type LocationResponse struct {
	ItemID string              `json:"item_id"`
	Point  *model.MapDataPoint `json:"point"`
}

type LocationsResponse struct {
	Category string                        `json:"category"`
	Points   map[string]model.MapDataPoint `json:"points"`
}

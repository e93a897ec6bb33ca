// Package market keeps the crypto price ticker current.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/nexus/internal/model"
)

// DefaultCoinGeckoEndpoint is the public CoinGecko API.
const DefaultCoinGeckoEndpoint = "https://api.coingecko.com"

// Provider returns the current ticker list.
type Provider interface {
	Prices(ctx context.Context) ([]model.CryptoPrice, error)
}

// coin maps a CoinGecko id onto a ticker entry.
type coin struct {
	geckoID string
	id      string
	symbol  string
}

// tickerCoins is the fixed ticker, in display order.
var tickerCoins = []coin{
	{"bitcoin", "btc", "BTC"},
	{"ethereum", "eth", "ETH"},
	{"solana", "sol", "SOL"},
	{"ripple", "xrp", "XRP"},
}

// CoinGecko implements Provider against the simple/price endpoint.
type CoinGecko struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewCoinGecko creates the provider. Requests are spaced at least
// minInterval apart; the free tier rejects bursts.
func NewCoinGecko(endpoint string, timeout, minInterval time.Duration) *CoinGecko {
	if endpoint == "" {
		endpoint = DefaultCoinGeckoEndpoint
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &CoinGecko{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Prices fetches the ticker. Every coin must be present; a partial response
// fails the whole call.
func (g *CoinGecko) Prices(ctx context.Context) ([]model.CryptoPrice, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("coingecko: rate limit wait: %w", err)
	}

	ids := make([]string, len(tickerCoins))
	for i, c := range tickerCoins {
		ids[i] = c.geckoID
	}
	url := fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		g.endpoint, strings.Join(ids, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("coingecko: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko: HTTP %d", resp.StatusCode)
	}

	var body map[string]struct {
		USD       *float64 `json:"usd"`
		Change24h float64  `json:"usd_24h_change"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("coingecko: failed to parse response: %w", err)
	}

	prices := make([]model.CryptoPrice, 0, len(tickerCoins))
	for _, c := range tickerCoins {
		q, ok := body[c.geckoID]
		if !ok || q.USD == nil {
			return nil, fmt.Errorf("coingecko: missing price for %s", c.symbol)
		}
		prices = append(prices, model.CryptoPrice{
			ID:        c.id,
			Symbol:    c.symbol,
			Price:     *q.USD,
			Change24h: q.Change24h,
		})
	}
	return prices, nil
}

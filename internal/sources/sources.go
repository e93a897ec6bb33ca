// Package sources converts upstream provider responses into normalized
// feed items.
//
// Each provider family is one Adapter variant. Adapters either return the
// records they could normalize or fail with a *TransportError; records that
// fail validation are dropped individually and never fail the batch. An
// adapter may legitimately return zero items without an error; deciding what
// that means is the dispatcher's job.
package sources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"github.com/abelbrown/nexus/internal/logging"
	"github.com/abelbrown/nexus/internal/model"
)

// userAgent is sent on every outbound request.
const userAgent = "Nexus/2.0 (+https://github.com/abelbrown/nexus)"

// maxBatch caps fixed-batch providers.
const maxBatch = 15

// noSummary is used when a provider gives no body text.
const noSummary = "No summary available."

// Adapter is the capability every upstream provider implements.
type Adapter interface {
	// Name identifies the adapter in logs and events.
	Name() string

	// Fetch returns normalized items for category. Providers that serve a
	// fixed batch ignore page.
	Fetch(ctx context.Context, category model.Category, page int) ([]model.NewsItem, error)
}

var (
	// ErrEmptyResult marks an adapter call that succeeded with nothing.
	ErrEmptyResult = errors.New("empty result")

	// ErrMalformedRecord marks a single record that failed validation.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrNotConfigured is returned by adapters missing credentials.
	ErrNotConfigured = errors.New("adapter not configured")
)

// TransportError is a network, status or decode failure from an adapter.
type TransportError struct {
	Adapter string
	Op      string // "request", "fetch", "status", "decode", "generate"
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Adapter, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// malformed wraps ErrMalformedRecord with the reason.
func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, fmt.Sprintf(format, args...))
}

// newClient returns an HTTP client with the given timeout. The transport
// layer bounds hung calls; the engine imposes no timeout of its own.
func newClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return logging.Discard()
	}
	return l
}

// getJSON performs a GET and decodes the JSON body into v.
func getJSON(ctx context.Context, client *http.Client, adapter, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &TransportError{Adapter: adapter, Op: "request", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return &TransportError{Adapter: adapter, Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &TransportError{Adapter: adapter, Op: "status", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &TransportError{Adapter: adapter, Op: "decode", Err: err}
	}
	return nil
}

// plainText strips markup and decodes entities, collapsing whitespace.
func plainText(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// hashString creates a short stable hash for use in ids.
func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:8])
}

// truncate shortens s to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// clockTime formats a publish time the way the feed displays it.
func clockTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("15:04")
}

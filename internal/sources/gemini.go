package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultGeminiEndpoint is the Generative Language API base URL.
const DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com"

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini implements Generator with the google_search tool enabled so answers
// are grounded in current results.
type Gemini struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	logger   *log.Logger
}

// NewGemini creates a Gemini generator.
func NewGemini(apiKey, model, endpoint string, timeout time.Duration, logger *log.Logger) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	if endpoint == "" {
		endpoint = DefaultGeminiEndpoint
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Gemini{
		apiKey:   apiKey,
		model:    model,
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   orDiscard(logger),
	}
}

func (g *Gemini) Name() string {
	return "gemini"
}

func (g *Gemini) Available() bool {
	return g.apiKey != ""
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if !g.Available() {
		return "", ErrNotConfigured
	}

	body := map[string]any{
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": prompt}},
			},
		},
		"tools": []map[string]any{
			{"google_search": map[string]any{}},
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.endpoint, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	g.logger.Debug("Gemini request starting", "model", g.model)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		g.logger.Error("Gemini API error", "status", resp.StatusCode, "body", truncate(string(respBody), 300))
		return "", fmt.Errorf("API error (status %d)", resp.StatusCode)
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Candidates) == 0 {
		return "", nil
	}

	// Grounded answers may arrive split across several parts.
	var text strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	g.logger.Debug("Gemini response",
		"model", g.model,
		"content_length", text.Len(),
		"finish_reason", result.Candidates[0].FinishReason)

	return text.String(), nil
}

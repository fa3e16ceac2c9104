// Package search wraps a remote web-search API (Bocha-compatible) behind the
// narrow contract the tool-calling and agent layers need.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/promptlab-ai/promptlab/internal/domain"
)

// Result is one ranked hit from the web-search provider
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Summary string `json:"summary,omitempty"`
	URL     string `json:"url"`
}

const (
	defaultCount = 5
	maxCount     = 20
)

// Config holds the settings for constructing a Client
type Config struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// Client calls the web-search provider
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a search Client. An empty API key produces a client whose
// Search fails with a not-configured error; SearchFormatted degrades politely.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:     cfg.APIKey,
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether the provider credentials are present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type searchRequest struct {
	Query     string `json:"query"`
	Freshness string `json:"freshness"`
	Summary   bool   `json:"summary"`
	Count     int    `json:"count"`
}

type searchResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		WebPages struct {
			Value []struct {
				Name    string `json:"name"`
				Snippet string `json:"snippet"`
				Summary string `json:"summary"`
				URL     string `json:"url"`
			} `json:"value"`
		} `json:"webPages"`
	} `json:"data"`
}

// Search returns the provider's ranked results for query. count is clamped to
// the provider maximum; zero means the default page size.
func (c *Client) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if !c.Configured() {
		return nil, domain.ErrSearchNotConfigured
	}
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if count <= 0 {
		count = defaultCount
	}
	if count > maxCount {
		count = maxCount
	}

	payload, err := json.Marshal(searchRequest{
		Query:     query,
		Freshness: "noLimit",
		Summary:   true,
		Count:     count,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.NewTimeoutError("web search timed out", err)
		}
		return nil, domain.NewRemoteCallError("web search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewRemoteCallError(fmt.Sprintf("web search returned HTTP %d", resp.StatusCode), nil)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.NewRemoteCallError("web search returned malformed payload", err)
	}
	if body.Code != 200 {
		msg := body.Message
		if msg == "" {
			msg = "unknown provider error"
		}
		return nil, domain.NewRemoteCallError("web search failed: "+msg, nil)
	}

	results := make([]Result, 0, len(body.Data.WebPages.Value))
	for _, v := range body.Data.WebPages.Value {
		results = append(results, Result{
			Title:   v.Name,
			Snippet: v.Snippet,
			Summary: v.Summary,
			URL:     v.URL,
		})
	}
	return results, nil
}

// SearchFormatted runs a search and renders the results for an LLM context.
// Failures degrade to a bracketed notice string so a failed search can be
// folded into an agent observation instead of aborting the run.
func (c *Client) SearchFormatted(ctx context.Context, query string) string {
	results, err := c.Search(ctx, query, defaultCount)
	if err != nil {
		return fmt.Sprintf("[web search unavailable: %v]", err)
	}
	return FormatResults(results)
}

// FormatResults renders ranked results as numbered context entries
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return "No relevant results found."
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		text := r.Summary
		if text == "" {
			text = r.Snippet
		}
		fmt.Fprintf(&sb, "[%d] %s\n%s\nSource: %s", i+1, r.Title, text, r.URL)
	}
	return sb.String()
}

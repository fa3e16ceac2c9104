// Package ingest turns external sources (URLs, uploads) into plain text ready
// for chunking.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/promptlab-ai/promptlab/internal/domain"
)

const (
	// TruncationMarker is appended when fetched content exceeds the cap.
	TruncationMarker = "\n\n[content truncated]"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

var (
	blankLines = regexp.MustCompile(`\n{3,}`)
	runSpaces  = regexp.MustCompile(`[ \t]+`)
)

// FetchResult is a fetched, text-reduced page. CharCount is the length of the
// full extracted text before any cap was applied; Truncated reports whether
// Text was cut at the cap.
type FetchResult struct {
	URL       string `json:"url"`
	Text      string `json:"content"`
	CharCount int    `json:"char_count"`
	Truncated bool   `json:"truncated"`
}

// Fetcher retrieves web pages and reduces them to plain text
type Fetcher struct {
	httpClient *http.Client
	maxChars   int
}

// NewFetcher creates a Fetcher capping extracted text at maxChars runes
func NewFetcher(timeout time.Duration, maxChars int) *Fetcher {
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	if maxChars <= 0 {
		maxChars = 80000
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxChars:   maxChars,
	}
}

// Fetch downloads url and reduces its HTML to plain text
func (f *Fetcher) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	if strings.TrimSpace(url) == "" {
		return nil, domain.NewValidationError("url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewValidationError("invalid url: " + err.Error())
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.NewTimeoutError("page fetch timed out", err)
		}
		return nil, domain.NewRemoteCallError("page fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewRemoteCallError(fmt.Sprintf("page fetch returned HTTP %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewRemoteCallError("failed to read page body", err)
	}

	text, err := HTMLToText(string(body))
	if err != nil {
		return nil, err
	}

	truncated := false
	runes := []rune(text)
	if len(runes) > f.maxChars {
		text = string(runes[:f.maxChars]) + TruncationMarker
		truncated = true
	}

	return &FetchResult{
		URL:       url,
		Text:      text,
		CharCount: len(runes),
		Truncated: truncated,
	}, nil
}

// HTMLToText reduces an HTML document to whitespace-normalized plain text.
// Script, style, and noscript subtrees are dropped entirely.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", domain.NewRemoteCallError("failed to parse HTML", err)
	}

	doc.Find("script, style, noscript").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	// Block-level boundaries become line breaks so headings and paragraphs
	// do not run together when the subtree text is flattened.
	root.Find("p, div, br, li, tr, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml("\n")
	})

	text := root.Text()
	text = runSpaces.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text), nil
}

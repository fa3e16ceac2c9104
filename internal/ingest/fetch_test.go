package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/promptlab-ai/promptlab/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToText(t *testing.T) {
	html := `<html><head><title>t</title><style>body{color:red}</style></head>
<body>
<script>alert("nope")</script>
<h1>Heading</h1>
<p>First   paragraph.</p>
<p>Second paragraph.</p>
<noscript>enable js</noscript>
</body></html>`

	text, err := HTMLToText(html)

	require.NoError(t, err)
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "enable js")
	// Block elements stay on separate lines
	assert.Contains(t, text, "Heading\n")
	assert.Contains(t, text, "First paragraph.")
	assert.Contains(t, text, "Second paragraph.")
	assert.Less(t, strings.Index(text, "Heading"), strings.Index(text, "First"))
}

func TestHTMLToText_CollapsesBlankLines(t *testing.T) {
	html := `<body><p>one</p><div></div><div></div><div></div><p>two</p></body>`

	text, err := HTMLToText(html)

	require.NoError(t, err)
	assert.NotContains(t, text, "\n\n\n")
	assert.Contains(t, text, "one")
	assert.Contains(t, text, "two")
}

func TestHTMLToText_PlainText(t *testing.T) {
	text, err := HTMLToText("just plain words")

	require.NoError(t, err)
	assert.Equal(t, "just plain words", text)
}

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<html><body><p>hello from the page</p></body></html>"))
	}))
	t.Cleanup(srv.Close)

	fetcher := NewFetcher(5*time.Second, 0)
	result, err := fetcher.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "hello from the page", result.Text)
	assert.Equal(t, len([]rune(result.Text)), result.CharCount)
	assert.False(t, result.Truncated)
}

func TestFetcher_Fetch_Truncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<body><p>" + strings.Repeat("x", 500) + "</p></body>"))
	}))
	t.Cleanup(srv.Close)

	fetcher := NewFetcher(5*time.Second, 100)
	result, err := fetcher.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.True(t, strings.HasSuffix(result.Text, TruncationMarker))
	assert.Equal(t, 500, result.CharCount)
}

func TestFetcher_Fetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	fetcher := NewFetcher(5*time.Second, 0)
	_, err := fetcher.Fetch(context.Background(), srv.URL)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeRemoteCallFailure, domainErr.Code)
	assert.Contains(t, domainErr.Message, "404")
}

func TestFetcher_Fetch_EmptyURL(t *testing.T) {
	fetcher := NewFetcher(time.Second, 0)

	_, err := fetcher.Fetch(context.Background(), "  ")

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

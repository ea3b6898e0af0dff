// Package ingest resolves display metadata for URLs users add to their
// reading queue. Resolution is best effort: the queue accepts the URL even
// when the fetch or extraction fails.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
)

const (
	maxBodyBytes  = 2 << 20 // 2 MiB of page content is plenty for metadata
	maxExcerptLen = 280
)

type Metadata struct {
	Title   string
	Excerpt string
}

type Resolver struct {
	httpClient *http.Client
	userAgent  string
}

func NewResolver(httpClient *http.Client, userAgent string) *Resolver {
	return &Resolver{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Run fetches the URL and extracts a title and short excerpt. HTML pages go
// through readability; URLs that turn out to be RSS/Atom feeds resolve via
// the channel metadata instead.
func (r *Resolver) Run(ctx context.Context, rawURL string) (Metadata, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return Metadata{}, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Metadata{}, fmt.Errorf("unexpected status %d fetching URL", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if isFeedContent(resp.Header.Get("Content-Type"), body) {
		return metadataFromFeed(body)
	}

	return metadataFromHTML(body, pageURL)
}

func isFeedContent(contentType string, body []byte) bool {
	if strings.Contains(contentType, "xml") {
		return true
	}
	head := strings.TrimSpace(string(body[:min(len(body), 256)]))
	return strings.HasPrefix(head, "<?xml") || strings.HasPrefix(head, "<rss") || strings.HasPrefix(head, "<feed")
}

func metadataFromFeed(body []byte) (Metadata, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to parse feed: %w", err)
	}

	return Metadata{
		Title:   strings.TrimSpace(parsed.Title),
		Excerpt: truncate(strings.TrimSpace(parsed.Description)),
	}, nil
}

func metadataFromHTML(body []byte, pageURL *url.URL) (Metadata, error) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to extract content: %w", err)
	}

	excerpt := strings.TrimSpace(article.Excerpt)
	if excerpt == "" {
		excerpt = strings.TrimSpace(article.TextContent)
	}

	return Metadata{
		Title:   strings.TrimSpace(article.Title),
		Excerpt: truncate(excerpt),
	}, nil
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxExcerptLen {
		return s
	}
	return string(runes[:maxExcerptLen-1]) + "…"
}

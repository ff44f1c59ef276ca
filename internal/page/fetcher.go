package page

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// MaxBodySize is the largest page the fetcher accepts.
const MaxBodySize = 10 * 1024 * 1024

// Fetcher downloads pages and produces snapshots.
type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets a custom HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// NewFetcher creates a fetcher with a 30 second timeout.
func NewFetcher(logger *zap.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch downloads pageURL and returns its snapshot.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (Snapshot, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil || parsedURL.Host == "" || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		return Snapshot{}, fmt.Errorf("invalid page url %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to create request: %w", err)
	}
	// Some sites block clients that do not look like a browser.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("failed to fetch page: status %d", resp.StatusCode)
	}
	if resp.ContentLength > MaxBodySize {
		return Snapshot{}, fmt.Errorf("page too large: %d bytes", resp.ContentLength)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read page: %w", err)
	}
	if len(body) > MaxBodySize {
		return Snapshot{}, fmt.Errorf("page exceeds %d bytes", MaxBodySize)
	}

	snap := Snapshot{URL: resp.Request.URL.String(), HTML: string(body)}

	article, err := readability.FromReader(bytes.NewReader(body), resp.Request.URL)
	if err != nil {
		f.logger.Debug("Readability failed, page has no title", zap.String("url", pageURL), zap.Error(err))
		return snap, nil
	}
	snap.Title = article.Title
	snap.SiteName = article.SiteName
	return snap, nil
}

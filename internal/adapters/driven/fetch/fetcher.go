// Package fetch provides an HTTP page fetcher adapter.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pagelens/pagelens-cli/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.PageFetcher = (*Fetcher)(nil)

// Default configuration values.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "pagelens/0.1 (+https://github.com/pagelens/pagelens-cli)"

	// maxBodyBytes caps how much of a page is read.
	maxBodyBytes = 8 << 20
)

// Config holds configuration for the fetcher.
type Config struct {
	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// RequestsPerSecond throttles outgoing requests (default: 2).
	RequestsPerSecond float64
}

// Fetcher retrieves page bytes over HTTP, with local file support for
// pre-downloaded documents.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		userAgent: cfg.UserAgent,
	}
}

// Fetch downloads the document at url and returns its body and the final
// URL after redirects. Paths and file:// URLs read from disk.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	if path, ok := localPath(url); ok {
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("read local file: %w", err)
		}
		return body, url, nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	return body, resp.Request.URL.String(), nil
}

// localPath maps plain paths and file:// URLs to a filesystem path.
func localPath(url string) (string, bool) {
	if strings.HasPrefix(url, "file://") {
		return strings.TrimPrefix(url, "file://"), true
	}
	if !strings.Contains(url, "://") {
		if _, err := os.Stat(url); err == nil {
			return url, true
		}
	}
	return "", false
}

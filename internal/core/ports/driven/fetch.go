package driven

import "context"

// PageFetcher retrieves the raw bytes of a web document.
type PageFetcher interface {
	// Fetch downloads the document at url and returns its body together
	// with the final URL after redirects.
	Fetch(ctx context.Context, url string) (body []byte, finalURL string, err error)
}

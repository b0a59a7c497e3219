// Package fetcher fetches web pages to verify link targets before they are
// inserted into a document.
package fetcher

import (
	"context"
	"errors"
	"time"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves a URL and reports how it answered.
	Fetch(ctx context.Context, url string) (Result, error)

	// Type returns a string identifying the fetcher type.
	Type() string
}

// Result describes a fetched page.
type Result struct {
	URL         string
	FinalURL    string // after redirects
	StatusCode  int
	ContentType string
	Title       string
	FetchedAt   time.Time
}

// OK reports whether the page answered with a 2xx or 3xx status.
func (r Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}

// ErrBadStatus is returned by Check when the page answers with a status
// outside 2xx and 3xx.
var ErrBadStatus = errors.New("bad status")

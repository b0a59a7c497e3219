package fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/quill/internal/logger"
	"github.com/jmylchreest/quill/pkg/links"
)

// StaticConfig holds configuration for the static fetcher.
type StaticConfig struct {
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int
	Headers     map[string]string
}

// DefaultStaticConfig returns sensible defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		UserAgent:   defaultUserAgent,
		Timeout:     10 * time.Second,
		MaxBodySize: 512 * 1024,
	}
}

const defaultUserAgent = "Mozilla/5.0 (compatible; quill-linkcheck/1.0)"

// StaticFetcher uses Colly for plain HTTP fetching. It implements Fetcher
// and links.Checker.
type StaticFetcher struct {
	config StaticConfig
}

var (
	_ Fetcher       = (*StaticFetcher)(nil)
	_ links.Checker = (*StaticFetcher)(nil)
)

// NewStatic creates a new static fetcher.
func NewStatic(cfg StaticConfig) *StaticFetcher {
	def := DefaultStaticConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = def.MaxBodySize
	}
	return &StaticFetcher{config: cfg}
}

// Fetch retrieves targetURL. Any HTTP status is a result, not an error;
// errors are transport failures and cancellation.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{URL: targetURL}, err
	}

	timeout := f.config.Timeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := f.visit(targetURL, timeout)
		done <- outcome{res, err}
	}()

	select {
	case <-ctx.Done():
		return Result{URL: targetURL}, ctx.Err()
	case o := <-done:
		return o.res, o.err
	}
}

func (f *StaticFetcher) visit(targetURL string, timeout time.Duration) (Result, error) {
	result := Result{URL: targetURL, FetchedAt: time.Now()}

	c := colly.NewCollector(colly.UserAgent(f.config.UserAgent))
	c.SetRequestTimeout(timeout)
	c.MaxBodySize = f.config.MaxBodySize
	c.ParseHTTPErrorResponse = true

	if len(f.config.Headers) > 0 {
		c.OnRequest(func(r *colly.Request) {
			for k, v := range f.config.Headers {
				r.Headers.Set(k, v)
			}
		})
	}

	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.FinalURL = r.Request.URL.String()
		result.ContentType = r.Headers.Get("Content-Type")
		if strings.Contains(result.ContentType, "html") {
			result.Title = pageTitle(r.Body)
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		fetchErr = fmt.Errorf("fetch error: %w", err)
	})

	if err := c.Visit(targetURL); err != nil {
		return result, fmt.Errorf("failed to visit URL: %w", err)
	}
	if fetchErr != nil {
		return result, fetchErr
	}

	logger.Debug("static fetch complete",
		"url", targetURL,
		"status", result.StatusCode,
		"final_url", result.FinalURL)
	return result, nil
}

// Check reports whether targetURL answers with a 2xx or 3xx status.
func (f *StaticFetcher) Check(ctx context.Context, targetURL string) error {
	res, err := f.Fetch(ctx, targetURL)
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("%w: %s answered %d", ErrBadStatus, targetURL, res.StatusCode)
	}
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}

func pageTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}

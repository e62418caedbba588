package audit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"
)

// MaxBodySize caps how much of a page is read
const MaxBodySize = 5 << 20

// Fetcher downloads published pages and times them
type Fetcher struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
}

// Timing holds the request timings of one fetch
type Timing struct {
	TTFB         time.Duration // Time to First Byte
	DownloadTime time.Duration
}

// Page is a fetched document
type Page struct {
	StatusCode  int
	ContentType string
	Body        []byte
	FinalURL    string // after redirects
	Timing      Timing
}

// NewFetcher creates a fetcher with a per-request timeout
func NewFetcher(userAgent string, timeout time.Duration) *Fetcher {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		headers:   make(map[string]string),
	}
}

// SetHeader adds a header sent with every request
func (f *Fetcher) SetHeader(name, value string) {
	f.headers[name] = value
}

// Get fetches url, recording time to first byte and total download time
func (f *Fetcher) Get(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	for name, value := range f.headers {
		req.Header.Set(name, value)
	}

	var firstByte time.Time
	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() { firstByte = time.Now() },
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	page := &Page{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		FinalURL:    resp.Request.URL.String(),
	}
	if !firstByte.IsZero() {
		page.Timing.TTFB = firstByte.Sub(start)
	}
	page.Timing.DownloadTime = time.Since(start)
	return page, nil
}

// Close releases idle connections
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}

// Package scrapers implements the per-source job scraping contract.
// Each source is a SiteScraper variant; the ingestion orchestrator is
// written against the interface only.
package scrapers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	httpTimeout = 15 * time.Second
	// Browser-like UA; job boards answer bots with an empty shell.
	userAgent = "Mozilla/5.0"
)

// PageFetcher fetches a single page and returns its raw HTML.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// SiteScraper is the capability set every source must implement.
//
// The Parse* methods are independent, side-effect-free projections over a
// fetched detail page: each returns its field or the zero value when the
// source page does not expose it. A failure in one never blocks the others.
type SiteScraper interface {
	Source() string

	// FetchListingURLs enumerates candidate detail-page URLs per location,
	// capped at the configured quota per location. A location that cannot
	// be reached yields an empty slice and a log line, never an error that
	// aborts the other locations.
	FetchListingURLs(ctx context.Context, role string, locations []string) map[string][]string

	ParseTitle(doc *goquery.Document) string
	ParseCompany(doc *goquery.Document) string
	ParseLocation(doc *goquery.Document) string
	ParseDescription(doc *goquery.Document) string
	// ParsePostedAt returns (zero, false) when the page has no posted-date
	// element at all.
	ParsePostedAt(doc *goquery.Document) (time.Time, bool)
	ParseRequiredExperience(doc *goquery.Document) *int
}

// HTTPFetcher is the default PageFetcher backed by a shared http.Client.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: httpTimeout}}
}

func (f *HTTPFetcher) FetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned %d", url, resp.StatusCode)
	}

	return string(body), nil
}

package scrapers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// fakeFetcher serves canned HTML per URL substring and records requests.
type fakeFetcher struct {
	pages    map[string]string // URL substring → HTML
	requests []string
}

func (f *fakeFetcher) FetchPage(_ context.Context, url string) (string, error) {
	f.requests = append(f.requests, url)
	for substr, html := range f.pages {
		if strings.Contains(url, substr) {
			return html, nil
		}
	}
	return "", errors.New("no canned page for " + url)
}

const listingPageHTML = `<html><body>
<ul class="jobs-search__results-list">
  <li><a href="https://in.linkedin.com/jobs/view/backend-engineer-1001?refId=abc&trk=guest">Backend Engineer</a></li>
  <li><a href="https://in.linkedin.com/jobs/view/platform-engineer-1002?refId=def">Platform Engineer</a></li>
  <li><a href="https://in.linkedin.com/jobs/view/sre-1003?refId=ghi">SRE</a></li>
</ul>
</body></html>`

const detailPageHTML = `<html><body>
<h1 class="top-card-layout__title">Senior Backend Engineer</h1>
<a class="topcard__org-name-link" href="#"> Initech </a>
<span class="topcard__flavor--bullet">Bengaluru, India</span>
<time class="aside-job-card__listdate">3 days ago</time>
<div class="description__text description__text--rich">
  Build distributed ingestion pipelines. Requires 5+ years of Go experience.
</div>
</body></html>`

func detailDoc(t *testing.T) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(detailPageHTML))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

// Scenario: role "Software Engineer", location "Bengaluru, India", listing
// page with 3 candidates and quota 1 → exactly one URL.
func TestFetchListingURLs_QuotaShortCircuits(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"jobs/search": listingPageHTML}}
	s := NewLinkedInScraper(fetcher, 1)

	got := s.FetchListingURLs(context.Background(), "Software Engineer", []string{"Bengaluru, India"})

	urls := got["Bengaluru, India"]
	if len(urls) != 1 {
		t.Fatalf("quota 1 yielded %d urls: %v", len(urls), urls)
	}
	if want := "https://www.linkedin.com/jobs/view/backend-engineer-1001"; urls[0] != want {
		t.Errorf("url = %q, want %q", urls[0], want)
	}
}

func TestFetchListingURLs_CollectsUpToQuota(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"jobs/search": listingPageHTML}}
	s := NewLinkedInScraper(fetcher, 10)

	got := s.FetchListingURLs(context.Background(), "Software Engineer", []string{"Bengaluru, India"})
	if len(got["Bengaluru, India"]) != 3 {
		t.Errorf("expected all 3 candidates, got %v", got["Bengaluru, India"])
	}
}

// One unreachable location must not abort the others.
func TestFetchListingURLs_FailedLocationDoesNotAbortOthers(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"geoId=105214831": listingPageHTML}}
	s := NewLinkedInScraper(fetcher, 10)

	got := s.FetchListingURLs(context.Background(), "Software Engineer",
		[]string{"New York, United States", "Bengaluru, India"})

	if len(got["New York, United States"]) != 0 {
		t.Errorf("unreachable location should yield no urls, got %v", got["New York, United States"])
	}
	if len(got["Bengaluru, India"]) != 3 {
		t.Errorf("reachable location should still be scraped, got %v", got["Bengaluru, India"])
	}
}

func TestFetchListingURLs_UnknownLocation(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"jobs/search": listingPageHTML}}
	s := NewLinkedInScraper(fetcher, 10)

	got := s.FetchListingURLs(context.Background(), "Software Engineer", []string{"Atlantis"})
	if len(got["Atlantis"]) != 0 {
		t.Errorf("unknown location should yield no urls, got %v", got["Atlantis"])
	}
	if len(fetcher.requests) != 0 {
		t.Errorf("no page should be fetched for an unknown location, got %v", fetcher.requests)
	}
}

func TestParseDetailProjections(t *testing.T) {
	s := NewLinkedInScraper(nil, 1)
	doc := detailDoc(t)

	if got := s.ParseTitle(doc); got != "Senior Backend Engineer" {
		t.Errorf("ParseTitle = %q", got)
	}
	if got := s.ParseCompany(doc); got != "Initech" {
		t.Errorf("ParseCompany = %q", got)
	}
	if got := s.ParseLocation(doc); got != "Bengaluru, India" {
		t.Errorf("ParseLocation = %q", got)
	}
	if got := s.ParseDescription(doc); !strings.Contains(got, "distributed ingestion pipelines") {
		t.Errorf("ParseDescription = %q", got)
	}
	if exp := s.ParseRequiredExperience(doc); exp == nil || *exp != 5 {
		t.Errorf("ParseRequiredExperience = %v, want 5", exp)
	}
	if _, ok := s.ParsePostedAt(doc); !ok {
		t.Error("ParsePostedAt should find the time element")
	}
}

// Each projection returns its zero value on a page missing that field,
// independently of the others.
func TestParseDetailProjections_MissingFields(t *testing.T) {
	s := NewLinkedInScraper(nil, 1)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><p>nothing here</p></body></html>"))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	if got := s.ParseTitle(doc); got != "" {
		t.Errorf("ParseTitle on empty page = %q", got)
	}
	if got := s.ParseCompany(doc); got != "" {
		t.Errorf("ParseCompany on empty page = %q", got)
	}
	if exp := s.ParseRequiredExperience(doc); exp != nil {
		t.Errorf("ParseRequiredExperience on empty page = %v", exp)
	}
	if _, ok := s.ParsePostedAt(doc); ok {
		t.Error("ParsePostedAt on empty page should report absence")
	}
}

func TestCanonicalJobURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://in.linkedin.com/jobs/view/backend-1001?refId=x&trk=y", "https://www.linkedin.com/jobs/view/backend-1001"},
		{"https://www.linkedin.com/jobs/view/sre-1003/", "https://www.linkedin.com/jobs/view/sre-1003"},
		{"", ""},
	}
	for _, c := range cases {
		if got := canonicalJobURL(c.in); got != c.want {
			t.Errorf("canonicalJobURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

package scrapers

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/remoteradar/remote-radar/internal/config"
)

const linkedInSource = "LinkedIn"

// LinkedInScraper scrapes the LinkedIn guest job search pages. Guest pages
// are served without login and carry the full listing markup.
type LinkedInScraper struct {
	fetcher PageFetcher
	quota   int // max candidate URLs collected per location
}

func NewLinkedInScraper(fetcher PageFetcher, quota int) *LinkedInScraper {
	return &LinkedInScraper{fetcher: fetcher, quota: quota}
}

func (s *LinkedInScraper) Source() string { return linkedInSource }

// FetchListingURLs enumerates candidate job URLs for one role across the
// given locations. Enumeration short-circuits once the per-location quota is
// reached. A location whose listing page cannot be fetched or parsed yields
// an empty slice; the remaining locations still run.
func (s *LinkedInScraper) FetchListingURLs(ctx context.Context, role string, locations []string) map[string][]string {
	out := make(map[string][]string, len(locations))
	for _, location := range locations {
		urls, err := s.listingURLsForLocation(ctx, role, location)
		if err != nil {
			log.Printf("[linkedin] listing fetch failed for %q / %q: %v", role, location, err)
			out[location] = nil
			continue
		}
		out[location] = urls
	}
	return out
}

func (s *LinkedInScraper) listingURLsForLocation(ctx context.Context, role, location string) ([]string, error) {
	geoID, err := geoIDForLocation(location)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("keywords", role)
	params.Set("geoId", strconv.FormatInt(geoID, 10))
	params.Set("f_WT", "2") // remote-friendly listings
	params.Set("position", "1")
	params.Set("pageNum", "0")
	searchURL := "https://www.linkedin.com/jobs/search/?" + params.Encode()

	html, err := s.fetcher.FetchPage(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	var urls []string
	doc.Find("ul.jobs-search__results-list li").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		href, ok := card.Find("a[href]").First().Attr("href")
		if !ok {
			return true
		}
		jobURL := canonicalJobURL(href)
		if jobURL == "" {
			return true
		}
		urls = append(urls, jobURL)
		return len(urls) < s.quota
	})

	return urls, nil
}

// canonicalJobURL strips query parameters and tracking noise so the same
// posting always maps to the same key.
func canonicalJobURL(href string) string {
	u, err := url.Parse(href)
	if err != nil || u.Path == "" {
		return ""
	}
	return "https://www.linkedin.com" + strings.TrimSuffix(u.Path, "/")
}

func geoIDForLocation(location string) (int64, error) {
	city, country, ok := strings.Cut(location, ", ")
	if !ok {
		return 0, fmt.Errorf("location %q is not in \"City, Country\" form", location)
	}
	cities, ok := config.LinkedInGeoIDs[country]
	if !ok {
		return 0, fmt.Errorf("no geoId table for country %q", country)
	}
	id, ok := cities[city]
	if !ok {
		return 0, fmt.Errorf("no geoId for city %q in %q", city, country)
	}
	return id, nil
}

// Detail-page projections. Each returns its zero value when the element is
// missing, independently of the others.

func (s *LinkedInScraper) ParseTitle(doc *goquery.Document) string {
	return cleanText(doc.Find("h1.top-card-layout__title").First().Text())
}

func (s *LinkedInScraper) ParseCompany(doc *goquery.Document) string {
	return cleanText(doc.Find("a.topcard__org-name-link").First().Text())
}

func (s *LinkedInScraper) ParseLocation(doc *goquery.Document) string {
	return cleanText(doc.Find("span.topcard__flavor--bullet").First().Text())
}

func (s *LinkedInScraper) ParseDescription(doc *goquery.Document) string {
	return cleanText(doc.Find("div.description__text.description__text--rich").First().Text())
}

func (s *LinkedInScraper) ParsePostedAt(doc *goquery.Document) (time.Time, bool) {
	elem := doc.Find("time.aside-job-card__listdate--new").First()
	if elem.Length() == 0 {
		elem = doc.Find("time.aside-job-card__listdate").First()
	}
	if elem.Length() == 0 {
		elem = doc.Find("span.posted-time-ago__text").First()
	}
	if elem.Length() == 0 {
		return time.Time{}, false
	}
	return GetPostedDate(cleanText(elem.Text()), time.Now()), true
}

var experienceRe = regexp.MustCompile(`(\d{1,2})\s*\+?\s*years?`)

// ParseRequiredExperience scans the description text for a "N+ years"
// mention. LinkedIn has no structured experience field, so nil is common.
func (s *LinkedInScraper) ParseRequiredExperience(doc *goquery.Document) *int {
	m := experienceRe.FindStringSubmatch(strings.ToLower(s.ParseDescription(doc)))
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

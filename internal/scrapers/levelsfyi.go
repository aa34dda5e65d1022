package scrapers

import (
	"context"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LevelsFyi fetches salary pages from levels.fyi as supplementary context
// for extraction. Postings frequently omit compensation; the page for
// (company, role, city) often carries it.
type LevelsFyi struct {
	fetcher PageFetcher
}

func NewLevelsFyi(fetcher PageFetcher) *LevelsFyi {
	return &LevelsFyi{fetcher: fetcher}
}

// FetchSalaryPage returns the text content of the levels.fyi salary page
// for a company, role and "City, Country" location. Best-effort: any
// failure, including an unknown company slug, yields an empty string and a
// log line. Salary enrichment must never block job extraction.
func (l *LevelsFyi) FetchSalaryPage(ctx context.Context, company, role, location string) string {
	if company == "" || role == "" {
		return ""
	}

	pageURL := salaryPageURL(company, role, location)
	html, err := l.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		log.Printf("[levels.fyi] fetch failed for %s: %v", pageURL, err)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Printf("[levels.fyi] parse failed for %s: %v", pageURL, err)
		return ""
	}
	return cleanText(doc.Find("body").Text())
}

// salaryPageURL builds the levels.fyi path from dash-lowercased slugs. The
// location keeps only the city part of "City, Country".
func salaryPageURL(company, role, location string) string {
	city, _, _ := strings.Cut(location, ",")
	return "https://www.levels.fyi/companies/" + slug(company) +
		"/salaries/" + slug(role) +
		"/locations/" + slug(city)
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

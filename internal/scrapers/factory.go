package scrapers

import "fmt"

// ForSource returns the scraper variant for a curated source name.
func ForSource(source string, fetcher PageFetcher, quota int) (SiteScraper, error) {
	switch source {
	case linkedInSource:
		return NewLinkedInScraper(fetcher, quota), nil
	}
	return nil, fmt.Errorf("no scraper implemented for source %q", source)
}

// All returns one scraper per implemented source. New sources are added
// here and in config.Sources.
func All(fetcher PageFetcher, quota int) []SiteScraper {
	return []SiteScraper{
		NewLinkedInScraper(fetcher, quota),
	}
}

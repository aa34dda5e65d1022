// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the caller exits.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration. It is built once in main and
// passed by reference into the services, with no global mutable state.
type Config struct {
	Port        string
	DatabaseURL string

	GeminiAPIKey string
	GroqAPIKey   string

	ScrapeIntervalHours    int // how often the ingestion cron fires
	LifecycleIntervalHours int // how often the mark-inactive + purge sweep fires
	JobTTLDays             int // posted_at older than this → inactive
	URLsPerLocation        int // cap on candidate listing URLs per location
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	cfg := &Config{
		Port:                   port,
		DatabaseURL:            dbURL,
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GroqAPIKey:             os.Getenv("GROQ_API_KEY"),
		ScrapeIntervalHours:    6,
		LifecycleIntervalHours: 24,
		JobTTLDays:             7,
		URLsPerLocation:        10,
	}

	var err error
	if cfg.ScrapeIntervalHours, err = intEnv("SCRAPE_INTERVAL_HOURS", cfg.ScrapeIntervalHours); err != nil {
		return nil, err
	}
	if cfg.LifecycleIntervalHours, err = intEnv("LIFECYCLE_INTERVAL_HOURS", cfg.LifecycleIntervalHours); err != nil {
		return nil, err
	}
	if cfg.JobTTLDays, err = intEnv("JOB_TTL_DAYS", cfg.JobTTLDays); err != nil {
		return nil, err
	}
	if cfg.URLsPerLocation, err = intEnv("URLS_PER_LOCATION", cfg.URLsPerLocation); err != nil {
		return nil, err
	}

	return cfg, nil
}

func intEnv(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, s)
	}
	return v, nil
}

// Roles are the curated job-title categories the scrapers cover.
// Please keep the list sorted alphabetically.
var Roles = []string{
	"Software Engineer",
}

// Sources are the job sites a SiteScraper variant exists for. The string
// must match the scraper's Source() exactly.
var Sources = []string{
	"LinkedIn",
}

// LinkedInGeoIDs maps country → city → LinkedIn geoId used when building
// listing search URLs. Locations are normalized as "City, Country".
var LinkedInGeoIDs = map[string]map[string]int64{
	"India": {
		"Bengaluru": 105214831,
		"Hyderabad": 105556991,
	},
	"United States": {
		"San Francisco Bay Area": 90000084,
		"New York":               105080838,
	},
}

// Locations returns the normalized "City, Country" list covered by scraping.
func Locations() []string {
	var out []string
	for country, cities := range LinkedInGeoIDs {
		for city := range cities {
			out = append(out, city+", "+country)
		}
	}
	return out
}

// LocationsByCountry returns country → list of cities, for the /rls endpoint.
func LocationsByCountry() map[string][]string {
	out := make(map[string][]string, len(LinkedInGeoIDs))
	for country, cities := range LinkedInGeoIDs {
		for city := range cities {
			out[country] = append(out[country], city)
		}
	}
	return out
}

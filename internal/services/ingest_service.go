package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/remoteradar/remote-radar/internal/dtos"
	"github.com/remoteradar/remote-radar/internal/models"
	"github.com/remoteradar/remote-radar/internal/scrapers"
)

// jobExtractor is the slice of LLMService the orchestrator needs.
type jobExtractor interface {
	ExtractJob(ctx context.Context, pageText, levelsText, source string) (*dtos.JobExtraction, error)
}

// salarySource provides supplementary compensation context for postings
// that carry none. Best-effort: an empty string means no data.
type salarySource interface {
	FetchSalaryPage(ctx context.Context, company, role, location string) string
}

// jobStore is the slice of JobService the orchestrator needs.
type jobStore interface {
	UpsertBatch(ctx context.Context, jobs []models.Job) ([]models.Job, error)
	MarkInactive(ctx context.Context, now time.Time) (int64, error)
	PurgeInactive(ctx context.Context) ([]string, error)
}

// docIndexer is the slice of IndexService the orchestrator needs.
type docIndexer interface {
	Add(ctx context.Context, docs []string, ids []string) error
	Delete(ctx context.Context, ids []string) error
}

// IngestService runs the scrape → extract → persist → index cycle. It is
// the only writer to the store and the index while a run is in flight;
// persistence always completes for a batch before indexing begins, so the
// index can lag the store by at most one run.
type IngestService struct {
	scrapers  []scrapers.SiteScraper
	fetcher   scrapers.PageFetcher
	extractor jobExtractor
	salaries  salarySource
	store     jobStore
	index     docIndexer
	roles     []string
	locations []string

	runMu   sync.Mutex // no two ingestion runs may overlap
	sweepMu sync.Mutex // likewise for lifecycle sweeps
}

func NewIngestService(
	siteScrapers []scrapers.SiteScraper,
	fetcher scrapers.PageFetcher,
	extractor jobExtractor,
	salaries salarySource,
	store jobStore,
	index docIndexer,
	roles, locations []string,
) *IngestService {
	return &IngestService{
		scrapers:  siteScrapers,
		fetcher:   fetcher,
		extractor: extractor,
		salaries:  salaries,
		store:     store,
		index:     index,
		roles:     roles,
		locations: locations,
	}
}

// RunOnce executes one full ingestion cycle over every (source, role) pair.
// Nothing inside the cycle is fatal: fetch failures yield placeholder
// records, extraction failures yield source-only records, and persistence
// conflicts skip the batch. Errors are logged, never propagated.
func (s *IngestService) RunOnce(ctx context.Context) {
	if !s.runMu.TryLock() {
		log.Println("[ingest] previous run still in flight, skipping trigger")
		return
	}
	defer s.runMu.Unlock()

	runID := uuid.NewString()[:8]
	start := time.Now()
	log.Printf("[ingest %s] cycle started: %d scraper(s) × %d role(s)", runID, len(s.scrapers), len(s.roles))

	for _, sc := range s.scrapers {
		for _, role := range s.roles {
			s.runSourceRole(ctx, runID, sc, role)
		}
	}

	log.Printf("[ingest %s] cycle complete in %s", runID, time.Since(start).Round(time.Millisecond))
}

func (s *IngestService) runSourceRole(ctx context.Context, runID string, sc scrapers.SiteScraper, role string) {
	urlsByLocation := sc.FetchListingURLs(ctx, role, s.locations)

	// The same canonical URL can surface under several locations (remote
	// listings especially). One row per URL per batch: Postgres rejects an
	// upsert that touches the same key twice.
	seen := make(map[string]struct{})

	var batch []models.Job
	for location, urls := range urlsByLocation {
		for _, jobURL := range urls {
			if _, dup := seen[jobURL]; dup {
				continue
			}
			seen[jobURL] = struct{}{}
			job, err := s.scrapeJob(ctx, sc, role, location, jobURL)
			if err != nil {
				// Broken internal invariant: abort this job only.
				log.Printf("[ingest %s] skipping job: %v", runID, err)
				continue
			}
			batch = append(batch, *job)
		}
	}
	if len(batch) == 0 {
		log.Printf("[ingest %s] %s/%s produced no jobs", runID, sc.Source(), role)
		return
	}

	// Persist first, index second: the index must never hold a URL the
	// store does not.
	persisted, err := s.store.UpsertBatch(ctx, batch)
	if err != nil {
		log.Printf("[ingest %s] persist failed for %s/%s, batch dropped: %v", runID, sc.Source(), role, err)
		return
	}

	docs := make([]string, 0, len(persisted))
	ids := make([]string, 0, len(persisted))
	for _, j := range persisted {
		docs = append(docs, j.Title+" "+j.Description)
		ids = append(ids, j.URL)
	}
	if err := s.index.Add(ctx, docs, ids); err != nil {
		// Non-fatal: these jobs stay unsearchable until the next run.
		log.Printf("[ingest %s] index add failed for %s/%s: %v", runID, sc.Source(), role, err)
	}

	log.Printf("[ingest %s] %s/%s: scraped=%d persisted=%d", runID, sc.Source(), role, len(batch), len(persisted))
}

// scrapeJob fetches one detail page and assembles the Job record from the
// scraper's structural projections plus the LLM extraction. A failed page
// fetch yields a placeholder carrying only the URL and provenance, so the
// job stays visible for retries instead of vanishing silently.
func (s *IngestService) scrapeJob(ctx context.Context, sc scrapers.SiteScraper, role, location, jobURL string) (*models.Job, error) {
	if jobURL == "" {
		return nil, errors.New("candidate listing with empty URL")
	}

	html, err := s.fetcher.FetchPage(ctx, jobURL)
	if err != nil {
		log.Printf("[ingest] fetch failed for %s: %v", jobURL, err)
		return &models.Job{URL: jobURL, Role: role, Source: sc.Source(), IsActive: true}, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", jobURL, err)
	}

	job := &models.Job{
		URL:                jobURL,
		Title:              sc.ParseTitle(doc),
		Company:            sc.ParseCompany(doc),
		Location:           sc.ParseLocation(doc),
		Role:               role,
		Source:             sc.Source(),
		Description:        sc.ParseDescription(doc),
		RequiredExperience: sc.ParseRequiredExperience(doc),
		SalaryCurrency:     "USD",
		IsActive:           true,
	}
	if job.Location == "" {
		job.Location = location
	}
	if postedAt, ok := sc.ParsePostedAt(doc); ok {
		job.PostedAt = postedAt
	} else {
		// No posted-date element at all: treat as fresh so the lifecycle
		// sweep gives it a full TTL.
		job.PostedAt = time.Now()
	}

	levelsText := s.salaries.FetchSalaryPage(ctx, job.Company, role, job.Location)

	ext, err := s.extractor.ExtractJob(ctx, doc.Text(), levelsText, sc.Source())
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", jobURL, err)
	}
	if ext != nil {
		if ext.Description != "" {
			job.Description = ext.Description
		}
		if ext.RequiredExperience != nil {
			job.RequiredExperience = ext.RequiredExperience
		}
		job.SalaryMin = ext.SalaryMin
		job.SalaryMax = ext.SalaryMax
		if ext.SalaryCurrency != "" {
			job.SalaryCurrency = ext.SalaryCurrency
		}
		job.SalaryFromLevels = ext.SalaryFromLevels
		job.Remote = ext.Remote
	}
	return job, nil
}

// RunLifecycle executes one mark-inactive + purge sweep. Purged URLs are
// removed from the index after the rows are gone from the store.
func (s *IngestService) RunLifecycle(ctx context.Context) {
	if !s.sweepMu.TryLock() {
		log.Println("[lifecycle] previous sweep still in flight, skipping trigger")
		return
	}
	defer s.sweepMu.Unlock()

	marked, err := s.store.MarkInactive(ctx, time.Now())
	if err != nil {
		log.Printf("[lifecycle] mark inactive failed: %v", err)
		return
	}
	log.Printf("[lifecycle] %d jobs marked inactive", marked)

	urls, err := s.store.PurgeInactive(ctx)
	if err != nil {
		log.Printf("[lifecycle] purge failed: %v", err)
		return
	}
	if len(urls) == 0 {
		return
	}
	if err := s.index.Delete(ctx, urls); err != nil {
		log.Printf("[lifecycle] index delete failed for %d urls: %v", len(urls), err)
	}
	log.Printf("[lifecycle] %d jobs purged", len(urls))
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/remoteradar/remote-radar/internal/dtos"
	"github.com/remoteradar/remote-radar/internal/models"
	"github.com/remoteradar/remote-radar/internal/scrapers"
)

// fakeSiteScraper serves scripted candidate URLs and projects fields out
// of minimal HTML fixtures.
type fakeSiteScraper struct {
	listings map[string][]string
}

func (s *fakeSiteScraper) Source() string { return "FakeBoard" }

func (s *fakeSiteScraper) FetchListingURLs(context.Context, string, []string) map[string][]string {
	return s.listings
}

func (s *fakeSiteScraper) ParseTitle(doc *goquery.Document) string {
	return doc.Find("h1").Text()
}
func (s *fakeSiteScraper) ParseCompany(doc *goquery.Document) string {
	return doc.Find("h4").Text()
}
func (s *fakeSiteScraper) ParseLocation(*goquery.Document) string    { return "" }
func (s *fakeSiteScraper) ParseDescription(doc *goquery.Document) string {
	return doc.Find("p").Text()
}
func (s *fakeSiteScraper) ParsePostedAt(*goquery.Document) (time.Time, bool) {
	return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), true
}
func (s *fakeSiteScraper) ParseRequiredExperience(*goquery.Document) *int { return nil }

// fakePageFetcher serves canned pages and fails for URLs it does not know.
type fakePageFetcher struct {
	pages map[string]string
}

func (f *fakePageFetcher) FetchPage(_ context.Context, url string) (string, error) {
	html, ok := f.pages[url]
	if !ok {
		return "", errors.New("unreachable: " + url)
	}
	return html, nil
}

type fakeExtractor struct {
	ext        *dtos.JobExtraction
	calls      int
	levelsSeen []string
}

func (f *fakeExtractor) ExtractJob(_ context.Context, _ string, levelsText, _ string) (*dtos.JobExtraction, error) {
	f.calls++
	f.levelsSeen = append(f.levelsSeen, levelsText)
	return f.ext, nil
}

// fakeSalarySource serves canned levels.fyi text per company and records
// lookups.
type fakeSalarySource struct {
	pages   map[string]string // company → page text
	lookups []string
}

func (f *fakeSalarySource) FetchSalaryPage(_ context.Context, company, _, _ string) string {
	f.lookups = append(f.lookups, company)
	return f.pages[company]
}

// fakeJobStore mimics the real store's title filtering and records the
// operation order shared with fakeIndexer.
type fakeJobStore struct {
	ops      *[]string
	upserted [][]models.Job
	purged   []string
	marked   int64
}

func (f *fakeJobStore) UpsertBatch(_ context.Context, jobs []models.Job) ([]models.Job, error) {
	*f.ops = append(*f.ops, "persist")
	f.upserted = append(f.upserted, jobs)
	var titled []models.Job
	for _, j := range jobs {
		if j.Title != "" {
			titled = append(titled, j)
		}
	}
	return titled, nil
}

func (f *fakeJobStore) MarkInactive(context.Context, time.Time) (int64, error) {
	*f.ops = append(*f.ops, "mark")
	return f.marked, nil
}

func (f *fakeJobStore) PurgeInactive(context.Context) ([]string, error) {
	*f.ops = append(*f.ops, "purge")
	return f.purged, nil
}

type fakeIndexer struct {
	ops     *[]string
	added   []string
	deleted []string
}

func (f *fakeIndexer) Add(_ context.Context, _ []string, ids []string) error {
	*f.ops = append(*f.ops, "index")
	f.added = append(f.added, ids...)
	return nil
}

func (f *fakeIndexer) Delete(_ context.Context, ids []string) error {
	*f.ops = append(*f.ops, "index-delete")
	f.deleted = append(f.deleted, ids...)
	return nil
}

type ingestFixture struct {
	ingest    *IngestService
	store     *fakeJobStore
	index     *fakeIndexer
	extractor *fakeExtractor
	salaries  *fakeSalarySource
}

func newIngestFixture(pages map[string]string, listings map[string][]string) ingestFixture {
	ops := &[]string{}
	store := &fakeJobStore{ops: ops}
	index := &fakeIndexer{ops: ops}
	extractor := &fakeExtractor{}
	salaries := &fakeSalarySource{}
	ingest := NewIngestService(
		[]scrapers.SiteScraper{&fakeSiteScraper{listings: listings}},
		&fakePageFetcher{pages: pages},
		extractor,
		salaries,
		store,
		index,
		[]string{"Software Engineer"},
		[]string{"Bengaluru, India"},
	)
	return ingestFixture{ingest: ingest, store: store, index: index, extractor: extractor, salaries: salaries}
}

func TestRunOnce_PersistsThenIndexes(t *testing.T) {
	pages := map[string]string{
		"https://fake/jobs/1": "<html><body><h1>Backend Engineer</h1><h4>Initech</h4><p>Build things.</p></body></html>",
	}
	fx := newIngestFixture(pages, map[string][]string{
		"Bengaluru, India": {"https://fake/jobs/1"},
	})

	fx.ingest.RunOnce(context.Background())

	ops := *fx.store.ops
	if len(ops) != 2 || ops[0] != "persist" || ops[1] != "index" {
		t.Fatalf("expected persist before index, got %v", ops)
	}
	if len(fx.index.added) != 1 || fx.index.added[0] != "https://fake/jobs/1" {
		t.Errorf("indexed ids = %v", fx.index.added)
	}
}

// A dead detail page yields a placeholder record carrying the URL: the job
// reaches the persist step instead of vanishing, but is never indexed
// because it has no title.
func TestRunOnce_FetchFailureYieldsPlaceholder(t *testing.T) {
	pages := map[string]string{
		"https://fake/jobs/1": "<html><body><h1>Backend Engineer</h1><p>d</p></body></html>",
	}
	fx := newIngestFixture(pages, map[string][]string{
		"Bengaluru, India": {"https://fake/jobs/1", "https://fake/jobs/dead"},
	})

	fx.ingest.RunOnce(context.Background())

	if len(fx.store.upserted) != 1 {
		t.Fatalf("expected one batch, got %d", len(fx.store.upserted))
	}
	batch := fx.store.upserted[0]
	if len(batch) != 2 {
		t.Fatalf("expected 2 records (1 parsed + 1 placeholder), got %d", len(batch))
	}
	var placeholder *models.Job
	for i := range batch {
		if batch[i].URL == "https://fake/jobs/dead" {
			placeholder = &batch[i]
		}
	}
	if placeholder == nil {
		t.Fatal("placeholder for the dead URL is missing from the batch")
	}
	if placeholder.Title != "" || placeholder.Description != "" {
		t.Errorf("placeholder should have null fields, got %+v", placeholder)
	}
	if placeholder.Source != "FakeBoard" {
		t.Errorf("placeholder should keep provenance, got %q", placeholder.Source)
	}
	for _, id := range fx.index.added {
		if id == "https://fake/jobs/dead" {
			t.Error("titleless placeholder must not be indexed")
		}
	}
}

// An empty candidate URL is a broken invariant: that job is skipped, the
// run continues.
func TestRunOnce_EmptyURLSkipped(t *testing.T) {
	pages := map[string]string{
		"https://fake/jobs/1": "<html><body><h1>Backend Engineer</h1><p>d</p></body></html>",
	}
	fx := newIngestFixture(pages, map[string][]string{
		"Bengaluru, India": {"", "https://fake/jobs/1"},
	})

	fx.ingest.RunOnce(context.Background())

	if len(fx.store.upserted) != 1 || len(fx.store.upserted[0]) != 1 {
		t.Fatalf("expected exactly the valid job to be persisted, got %v", fx.store.upserted)
	}
}

// The same canonical URL listed under two locations yields exactly one
// record in the batch; a repeated key would abort the whole upsert.
func TestRunOnce_DuplicateURLAcrossLocationsDeduped(t *testing.T) {
	pages := map[string]string{
		"https://fake/jobs/1": "<html><body><h1>Backend Engineer</h1><p>d</p></body></html>",
	}
	fx := newIngestFixture(pages, map[string][]string{
		"Bengaluru, India": {"https://fake/jobs/1"},
		"Hyderabad, India": {"https://fake/jobs/1"},
	})

	fx.ingest.RunOnce(context.Background())

	if len(fx.store.upserted) != 1 {
		t.Fatalf("expected one batch, got %d", len(fx.store.upserted))
	}
	if got := len(fx.store.upserted[0]); got != 1 {
		t.Fatalf("expected 1 deduped record, got %d", got)
	}
}

// The levels.fyi salary page for the scraped company reaches the extractor
// alongside the posting text.
func TestRunOnce_SalaryPageReachesExtractor(t *testing.T) {
	pages := map[string]string{
		"https://fake/jobs/1": "<html><body><h1>Backend Engineer</h1><h4>Initech</h4><p>d</p></body></html>",
	}
	fx := newIngestFixture(pages, map[string][]string{
		"Bengaluru, India": {"https://fake/jobs/1"},
	})
	fx.salaries.pages = map[string]string{"Initech": "Initech pays 120000 median"}

	fx.ingest.RunOnce(context.Background())

	if len(fx.salaries.lookups) != 1 || fx.salaries.lookups[0] != "Initech" {
		t.Fatalf("salary lookups = %v, want one for Initech", fx.salaries.lookups)
	}
	if len(fx.extractor.levelsSeen) != 1 || fx.extractor.levelsSeen[0] != "Initech pays 120000 median" {
		t.Errorf("extractor saw levels text %v", fx.extractor.levelsSeen)
	}
}

// The extraction's structured remainder overrides the scraped projections
// where present.
func TestRunOnce_ExtractionMergedIntoJob(t *testing.T) {
	pages := map[string]string{
		"https://fake/jobs/1": "<html><body><h1>Backend Engineer</h1><p>raw text</p></body></html>",
	}
	fx := newIngestFixture(pages, map[string][]string{
		"Bengaluru, India": {"https://fake/jobs/1"},
	})
	fx.extractor.ext = &dtos.JobExtraction{
		Description:    "<b>formatted</b>",
		SalaryMin:      intp(90000),
		SalaryMax:      intp(120000),
		SalaryCurrency: "EUR",
		Remote:         true,
	}

	fx.ingest.RunOnce(context.Background())

	job := fx.store.upserted[0][0]
	if job.Description != "<b>formatted</b>" {
		t.Errorf("description = %q, want extracted HTML", job.Description)
	}
	if job.SalaryMin == nil || *job.SalaryMin != 90000 || job.SalaryCurrency != "EUR" {
		t.Errorf("salary not merged: %+v", job)
	}
	if !job.Remote {
		t.Error("remote flag not merged")
	}
	if job.Title != "Backend Engineer" {
		t.Errorf("scraped title should survive, got %q", job.Title)
	}
}

func TestRunLifecycle_PurgedURLsLeaveTheIndex(t *testing.T) {
	ops := &[]string{}
	store := &fakeJobStore{ops: ops, marked: 2, purged: []string{"https://fake/jobs/old"}}
	index := &fakeIndexer{ops: ops}
	ingest := NewIngestService(nil, nil, &fakeExtractor{}, &fakeSalarySource{}, store, index, nil, nil)

	ingest.RunLifecycle(context.Background())

	wantOps := []string{"mark", "purge", "index-delete"}
	if len(*ops) != len(wantOps) {
		t.Fatalf("ops = %v, want %v", *ops, wantOps)
	}
	for i, w := range wantOps {
		if (*ops)[i] != w {
			t.Fatalf("ops = %v, want %v", *ops, wantOps)
		}
	}
	if len(index.deleted) != 1 || index.deleted[0] != "https://fake/jobs/old" {
		t.Errorf("index deletions = %v", index.deleted)
	}
}

func TestRunLifecycle_NothingPurgedSkipsIndexDelete(t *testing.T) {
	ops := &[]string{}
	store := &fakeJobStore{ops: ops}
	index := &fakeIndexer{ops: ops}
	ingest := NewIngestService(nil, nil, &fakeExtractor{}, &fakeSalarySource{}, store, index, nil, nil)

	ingest.RunLifecycle(context.Background())

	if len(index.deleted) != 0 {
		t.Errorf("no deletions expected, got %v", index.deleted)
	}
}

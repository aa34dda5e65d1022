// Package scheduler wires the cron triggers for ingestion runs and the
// daily lifecycle sweep.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/remoteradar/remote-radar/internal/services"
)

// Scheduler wraps robfig/cron around the ingestion service. Triggers are
// fire-and-forget: the ingestion service logs its own failures and never
// propagates them here.
type Scheduler struct {
	cron       *cron.Cron
	ingest     *services.IngestService
	scrapeSpec string
	sweepSpec  string
}

// New creates a Scheduler firing ingestion every scrapeHours hours and the
// lifecycle sweep every sweepHours hours.
func New(ingest *services.IngestService, scrapeHours, sweepHours int) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		ingest:     ingest,
		scrapeSpec: fmt.Sprintf("@every %dh", scrapeHours),
		sweepSpec:  fmt.Sprintf("@every %dh", sweepHours),
	}
}

// Start registers both triggers and runs one eager ingestion so the feed is
// populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.scrapeSpec, func() { s.ingest.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("register scrape trigger: %w", err)
	}
	if _, err := s.cron.AddFunc(s.sweepSpec, func() { s.ingest.RunLifecycle(ctx) }); err != nil {
		return fmt.Errorf("register lifecycle trigger: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] started: scrape %s, lifecycle %s", s.scrapeSpec, s.sweepSpec)

	go s.ingest.RunOnce(ctx)
	return nil
}

// Stop shuts the scheduler down; running jobs finish their current cycle.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] stopped")
}

package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/remoteradar/remote-radar/internal/dtos"
	"github.com/remoteradar/remote-radar/internal/models"
)

// upsertColumns are the fields refreshed when a known URL is rescraped.
// is_active is deliberately absent: a row that aged out stays inactive until
// the purge sweep removes it; rescraping never resurrects it.
var upsertColumns = []string{
	"title", "company", "location", "role", "source", "description",
	"required_experience", "salary_min", "salary_max", "salary_currency",
	"salary_from_levels", "remote", "posted_at", "updated_at",
}

// JobService is the relational store for Job rows, keyed by unique URL,
// with the active → inactive → purged lifecycle.
type JobService struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewJobService(db *gorm.DB, ttlDays int) *JobService {
	return &JobService{db: db, ttl: time.Duration(ttlDays) * 24 * time.Hour}
}

// UpsertBatch persists every record with a non-empty title in one
// transaction. URL collisions update the existing row instead of
// duplicating it. On failure the transaction is rolled back and the error
// reported; callers continue with the next batch.
func (s *JobService) UpsertBatch(ctx context.Context, jobs []models.Job) ([]models.Job, error) {
	titled := make([]models.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.Title == "" {
			continue
		}
		titled = append(titled, j)
	}
	if len(titled) == 0 {
		return nil, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "url"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).Create(&titled).Error
	})
	if err != nil {
		return nil, fmt.Errorf("upsert batch of %d jobs: %w", len(titled), err)
	}
	return titled, nil
}

// GetByURL returns the job stored under a URL.
func (s *JobService) GetByURL(ctx context.Context, url string) (*models.Job, error) {
	var job models.Job
	if err := s.db.WithContext(ctx).Where("url = ?", url).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// Expired reports whether a posting aged past the inactivity threshold.
// The comparison is strict: a job exactly at the boundary is still active.
func (s *JobService) Expired(postedAt, now time.Time) bool {
	return postedAt.Before(now.Add(-s.ttl))
}

// MarkInactive flips is_active off for every job older than the TTL.
func (s *JobService) MarkInactive(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("is_active = ? AND posted_at < ?", true, now.Add(-s.ttl)).
		Update("is_active", false)
	if res.Error != nil {
		return 0, fmt.Errorf("mark inactive: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// PurgeInactive permanently deletes all inactive rows and returns their
// URLs so the caller can drop the matching index documents.
func (s *JobService) PurgeInactive(ctx context.Context) ([]string, error) {
	var urls []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Job{}).
			Where("is_active = ?", false).
			Pluck("url", &urls).Error; err != nil {
			return err
		}
		if len(urls) == 0 {
			return nil
		}
		return tx.Where("is_active = ?", false).Delete(&models.Job{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("purge inactive: %w", err)
	}
	if len(urls) > 0 {
		log.Printf("[store] purged %d inactive jobs", len(urls))
	}
	return urls, nil
}

// FindActive returns active jobs, optionally restricted to a URL set, with
// the relational filters applied. Ordering is left to the caller; the
// ranking engine owns sort semantics.
//
// A tightened experience filter never matches a job with unknown
// required_experience: null is treated as maximal distance from the bound.
func (s *JobService) FindActive(ctx context.Context, urls []string, p dtos.SearchParams) ([]models.Job, error) {
	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	if urls != nil {
		q = q.Where("url IN ?", urls)
	}
	if p.Location != "" {
		q = q.Where("location = ?", p.Location)
	}
	if p.Source != "" {
		q = q.Where("source = ?", p.Source)
	}
	if p.Role != "" {
		q = q.Where("role = ?", p.Role)
	}
	if p.Remote {
		q = q.Where("remote = ?", true)
	}
	if p.ExperienceYears != nil {
		q = q.Where("required_experience IS NOT NULL AND required_experience <= ?", *p.ExperienceYears)
	}

	var jobs []models.Job
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("find active jobs: %w", err)
	}
	return jobs, nil
}

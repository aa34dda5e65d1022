package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// Job is the unit of retrieval. URL is the stable identity: it uniquely keys
// the row here and the document in the relevance index.
type Job struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	URL     string `gorm:"uniqueIndex;not null" json:"url"`
	Title   string `gorm:"not null" json:"title"`
	Company string `json:"company"`
	// Normalized as "City, Country"
	Location    string `gorm:"index" json:"location"`
	Role        string `gorm:"not null" json:"role"`
	Source      string `gorm:"not null" json:"source"`
	Description string `gorm:"type:text" json:"description"`

	RequiredExperience *int   `json:"required_experience"`
	SalaryMin          *int   `json:"salary_min"`
	SalaryMax          *int   `json:"salary_max"`
	SalaryCurrency     string `gorm:"default:'USD'" json:"salary_currency"`
	SalaryFromLevels   bool   `json:"salary_from_levels_fyi"`
	Remote             bool   `json:"remote"`

	PostedAt time.Time `json:"posted_at"`
	IsActive bool      `gorm:"default:true" json:"is_active"`
}

// JobDocument is the relevance-index side of a Job: the embedded
// title+description text, keyed by the same URL. Membership here is a
// derived projection of the jobs table, eventually consistent within one
// ingestion run.
type JobDocument struct {
	URL       string          `gorm:"primaryKey"`
	Content   string          `gorm:"type:text"`
	Embedding pgvector.Vector `gorm:"type:vector(768)"`
	UpdatedAt time.Time
}

// User is owned by the user subsystem; this service reads it only to resolve
// a resume text blob and the role→keywords interest profile.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	FullName string `json:"full_name"`

	ExperienceYears *int           `json:"experience_years"`
	PreferredRoles  pq.StringArray `gorm:"type:text[]" json:"preferred_roles"`

	ResumeText string `gorm:"type:text" json:"-"`
	// role → ranked keyword list, produced by the extraction engine
	ResumeKeywords datatypes.JSON `gorm:"type:jsonb" json:"resume_keywords"`
}

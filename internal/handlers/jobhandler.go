package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/remoteradar/remote-radar/internal/config"
	"github.com/remoteradar/remote-radar/internal/dtos"
	"github.com/remoteradar/remote-radar/internal/models"
	"github.com/remoteradar/remote-radar/internal/services"
)

// Consumer-side slices of the services the handlers call.
type llmEngine interface {
	ExtractResumeKeywords(ctx context.Context, resumeText string, roles []string) (map[string][]string, error)
	GenerateCoverLetter(ctx context.Context, resumeData, jobDescription, company, name string) (string, error)
}

type jobGetter interface {
	GetByURL(ctx context.Context, url string) (*models.Job, error)
}

type ranker interface {
	SearchJobs(ctx context.Context, p dtos.SearchParams) (map[string][]models.Job, error)
	RecommendJobs(ctx context.Context, profile map[string][]string, p dtos.SearchParams) (map[string][]models.Job, error)
}

type userDirectory interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	InterestProfile(user *models.User) (map[string][]string, error)
	SaveInterestProfile(ctx context.Context, userID uint, profile map[string][]string) error
}

// JobHandler exposes the retrieval and generation endpoints.
type JobHandler struct {
	llm     llmEngine
	jobs    jobGetter
	ranking ranker
	users   userDirectory
}

func NewJobHandler(llm llmEngine, jobs jobGetter, ranking ranker, users userDirectory) *JobHandler {
	return &JobHandler{llm: llm, jobs: jobs, ranking: ranking, users: users}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetJob is GET /jobs?url=
func (h *JobHandler) GetJob(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}
	job, err := h.jobs.GetByURL(c.Request.Context(), url)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No job stored under " + url})
		return
	}
	c.JSON(http.StatusOK, job)
}

// SearchJobs is GET /jobs/search. Returns role → ranked job list.
func (h *JobHandler) SearchJobs(c *gin.Context) {
	var params dtos.SearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return
	}

	results, err := h.ranking.SearchJobs(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

// RecommendedJobs is GET /jobs/recommended. Returns role → ranked job list
// from the caller's interest profile.
func (h *JobHandler) RecommendedJobs(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}

	profile, err := h.users.InterestProfile(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Profile decode failed: " + err.Error()})
		return
	}

	params := dtos.SearchParams{
		Role: c.Query("role"),
		Sort: dtos.SortMode(c.Query("sort")),
	}
	results, err := h.ranking.RecommendJobs(c.Request.Context(), profile, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Recommendation failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

// RefreshKeywords is POST /profile/keywords: re-derives the interest
// profile from the stored resume across the curated roles.
func (h *JobHandler) RefreshKeywords(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}
	if user.ResumeText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No resume on file"})
		return
	}

	profile, err := h.llm.ExtractResumeKeywords(c.Request.Context(), user.ResumeText, config.Roles)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Keyword extraction failed: " + err.Error()})
		return
	}
	// A non-empty resume yielding nothing means the backends were exhausted
	// or the output was unusable. Keep the stored profile instead of
	// clobbering it with an empty one.
	if len(profile) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Keyword extraction returned nothing, existing profile left unchanged"})
		return
	}
	if err := h.users.SaveInterestProfile(c.Request.Context(), user.ID, profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Profile save failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// CoverLetter is POST /cover-letter. The one path where rate-limit
// exhaustion surfaces to the caller as 429 instead of an empty result.
func (h *JobHandler) CoverLetter(c *gin.Context) {
	var req dtos.CoverLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	user, ok := h.resolveUser(c)
	if !ok {
		return
	}

	job, err := h.jobs.GetByURL(c.Request.Context(), req.URL)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No job stored under " + req.URL})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	letter, err := h.llm.GenerateCoverLetter(
		c.Request.Context(), user.ResumeText, job.Description, job.Company, user.FullName)
	if err != nil {
		if errors.Is(err, services.ErrRateLimited) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "All model backends are rate limited, try again later"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Generation failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cover_letter": letter})
}

// RolesLocationsSources is GET /rls: the curated vocabulary the scrapers
// and filters operate over.
func RolesLocationsSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"roles":     config.Roles,
		"locations": config.LocationsByCountry(),
		"sources":   config.Sources,
	})
}

// resolveUser maps the identity injected by the auth layer to a user row.
// Authentication itself is owned by the user subsystem; this service only
// consumes the resolved identity header.
func (h *JobHandler) resolveUser(c *gin.Context) (*models.User, bool) {
	email := c.GetHeader("X-User-Email")
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing identity"})
		return nil, false
	}
	u, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
		return nil, false
	}
	return u, true
}

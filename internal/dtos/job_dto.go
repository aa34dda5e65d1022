package dtos

// JobExtraction is the fixed schema the extraction engine expects back from
// a model backend. Keys mirror the prompt contract exactly.
type JobExtraction struct {
	Description        string `json:"description"`
	RequiredExperience *int   `json:"required_experience"`
	SalaryMin          *int   `json:"salary_min"`
	SalaryMax          *int   `json:"salary_max"`
	SalaryCurrency     string `json:"salary_currency"`
	SalaryFromLevels   bool   `json:"salary_from_levels_fyi"`
	Remote             bool   `json:"remote"`
}

// SortMode selects the ordering applied after filtering.
type SortMode string

const (
	SortRelevance      SortMode = "relevance"
	SortIncExperience  SortMode = "inc_experience"
	SortDescExperience SortMode = "desc_experience"
	SortSalary         SortMode = "salary"
)

// SearchParams are the filters shared by the search endpoint.
type SearchParams struct {
	Query           string   `form:"search_query"`
	Location        string   `form:"location"`
	Source          string   `form:"source"`
	Role            string   `form:"role"`
	Remote          bool     `form:"remote"`
	ExperienceYears *int     `form:"experience_years"`
	Sort            SortMode `form:"sort"`
}

// CoverLetterRequest is the user-facing generation request.
type CoverLetterRequest struct {
	URL string `json:"url" binding:"required"`
}

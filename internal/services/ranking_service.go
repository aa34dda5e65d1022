package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/remoteradar/remote-radar/internal/dtos"
	"github.com/remoteradar/remote-radar/internal/models"
)

// FallbackRoleKey groups recommendations when the user has no keyword
// profile and recommend mode degrades to "all active jobs".
const FallbackRoleKey = "NULL"

// Candidate URLs pulled from the index per search / per recommended role.
const (
	searchCandidates    = 5
	recommendCandidates = 100
)

type rankingStore interface {
	FindActive(ctx context.Context, urls []string, p dtos.SearchParams) ([]models.Job, error)
}

type indexQuerier interface {
	Query(ctx context.Context, queryTexts []string, n int) ([][]string, error)
}

// RankingService answers search and recommendation queries by merging
// vector-similarity order from the index with the store's relational
// filters and the requested sort mode.
type RankingService struct {
	store rankingStore
	index indexQuerier
}

func NewRankingService(store rankingStore, index indexQuerier) *RankingService {
	return &RankingService{store: store, index: index}
}

// SearchJobs returns active jobs grouped by role. With a free-text query the
// candidate set comes from the index, ranked by similarity to
// "role + query"; without one, all active jobs that pass the filters.
func (s *RankingService) SearchJobs(ctx context.Context, p dtos.SearchParams) (map[string][]models.Job, error) {
	var jobs []models.Job

	if p.Query != "" {
		queryText := strings.TrimSpace(p.Role + " " + p.Query)
		ids, err := s.index.Query(ctx, []string{queryText}, searchCandidates)
		if err != nil {
			return nil, fmt.Errorf("index query: %w", err)
		}
		urls := ids[0]
		if len(urls) == 0 {
			return map[string][]models.Job{}, nil
		}
		unordered, err := s.store.FindActive(ctx, urls, p)
		if err != nil {
			return nil, err
		}
		jobs = orderByURLs(unordered, urls)
	} else {
		var err error
		jobs, err = s.store.FindActive(ctx, nil, p)
		if err != nil {
			return nil, err
		}
	}

	return groupByRole(sortJobs(jobs, p.Sort)), nil
}

// RecommendJobs answers recommendation queries from a role → ranked
// keywords profile: one semantic query per role, intersected with active
// jobs. An empty profile degrades to all active jobs under FallbackRoleKey.
func (s *RankingService) RecommendJobs(ctx context.Context, profile map[string][]string, p dtos.SearchParams) (map[string][]models.Job, error) {
	if p.Role != "" {
		if keywords, ok := profile[p.Role]; ok {
			profile = map[string][]string{p.Role: keywords}
		} else {
			profile = nil
		}
	}

	if len(profile) == 0 {
		all := p
		all.Role = ""
		jobs, err := s.store.FindActive(ctx, nil, all)
		if err != nil {
			return nil, err
		}
		return map[string][]models.Job{FallbackRoleKey: sortJobs(jobs, p.Sort)}, nil
	}

	roles := make([]string, 0, len(profile))
	queries := make([]string, 0, len(profile))
	for role, keywords := range profile {
		roles = append(roles, role)
		queries = append(queries, strings.Join(keywords, " "))
	}

	urlLists, err := s.index.Query(ctx, queries, recommendCandidates)
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}

	seen := make(map[string]struct{})
	var union []string
	for _, urls := range urlLists {
		for _, u := range urls {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			union = append(union, u)
		}
	}

	// The per-role grouping below carries role semantics; the store query
	// must not also restrict by role.
	storeParams := p
	storeParams.Role = ""
	jobs, err := s.store.FindActive(ctx, union, storeParams)
	if err != nil {
		return nil, err
	}
	byURL := make(map[string]models.Job, len(jobs))
	for _, j := range jobs {
		byURL[j.URL] = j
	}

	out := make(map[string][]models.Job, len(roles))
	for i, role := range roles {
		var matched []models.Job
		for _, u := range urlLists[i] {
			if j, ok := byURL[u]; ok {
				matched = append(matched, j)
			}
		}
		out[role] = sortJobs(matched, p.Sort)
	}
	return out, nil
}

// orderByURLs reorders jobs to match the index's similarity order.
func orderByURLs(jobs []models.Job, urls []string) []models.Job {
	byURL := make(map[string]models.Job, len(jobs))
	for _, j := range jobs {
		byURL[j.URL] = j
	}
	out := make([]models.Job, 0, len(jobs))
	for _, u := range urls {
		if j, ok := byURL[u]; ok {
			out = append(out, j)
		}
	}
	return out
}

// sortJobs applies the requested sort mode. Relevance keeps the incoming
// (index) order. Jobs with unknown experience sort after every known value
// in both experience modes; missing salary sorts as zero, never excluded.
func sortJobs(jobs []models.Job, mode dtos.SortMode) []models.Job {
	switch mode {
	case dtos.SortIncExperience:
		sort.SliceStable(jobs, func(i, j int) bool {
			return experienceRank(jobs[i]) < experienceRank(jobs[j])
		})
	case dtos.SortDescExperience:
		sort.SliceStable(jobs, func(i, j int) bool {
			ri, rj := experienceRank(jobs[i]), experienceRank(jobs[j])
			if ri == unknownExperience || rj == unknownExperience {
				return rj == unknownExperience && ri != unknownExperience
			}
			return ri > rj
		})
	case dtos.SortSalary:
		sort.SliceStable(jobs, func(i, j int) bool {
			return meanSalary(jobs[i]) > meanSalary(jobs[j])
		})
	}
	return jobs
}

const unknownExperience = int(^uint(0) >> 1) // sorts last either way

func experienceRank(j models.Job) int {
	if j.RequiredExperience == nil {
		return unknownExperience
	}
	return *j.RequiredExperience
}

func meanSalary(j models.Job) float64 {
	var min, max float64
	if j.SalaryMin != nil {
		min = float64(*j.SalaryMin)
	}
	if j.SalaryMax != nil {
		max = float64(*j.SalaryMax)
	}
	return (min + max) / 2
}

// groupByRole splits an ordered job list into role → jobs, preserving order
// within each role.
func groupByRole(jobs []models.Job) map[string][]models.Job {
	out := make(map[string][]models.Job)
	for _, j := range jobs {
		out[j.Role] = append(out[j.Role], j)
	}
	return out
}

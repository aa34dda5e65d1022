package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/remoteradar/remote-radar/internal/dtos"
)

// ErrRateLimited marks a backend failure caused by quota exhaustion. It is
// the only failure class that triggers fallback to the next backend.
var ErrRateLimited = errors.New("model backend rate limited")

// Backend is one model in the fallback chain.
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// modelBackend adapts a langchaingo model to the Backend interface and
// classifies its errors.
type modelBackend struct {
	name  string
	model llms.Model
}

// NewModelBackend wraps a langchaingo model for use in the fallback chain.
func NewModelBackend(name string, model llms.Model) Backend {
	return &modelBackend{name: name, model: model}
}

func (b *modelBackend) Name() string { return b.name }

func (b *modelBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := llms.GenerateFromSinglePrompt(ctx, b.model, prompt, llms.WithTemperature(0))
	if err != nil {
		if looksRateLimited(err) {
			return "", fmt.Errorf("%w: %s: %v", ErrRateLimited, b.name, err)
		}
		return "", fmt.Errorf("%s: %w", b.name, err)
	}
	return resp, nil
}

// looksRateLimited matches the quota wording the provider SDKs put in their
// error strings. There is no shared sentinel across providers.
func looksRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "rate_limit", "quota", "resource exhausted", "too many requests"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// LLMService runs prompts against an ordered, fixed list of model backends,
// primary first. Only rate-limiting advances the chain; any other failure
// aborts immediately so genuine extraction problems are not masked as
// capacity problems.
type LLMService struct {
	backends []Backend
}

func NewLLMService(backends ...Backend) *LLMService {
	return &LLMService{backends: backends}
}

// maxPageChars bounds prompt size; listing pages carry far more chrome than
// content.
const maxPageChars = 20000

// tryBackends walks the chain in priority order. Rate-limit errors advance
// to the next backend (warn if not last, error if last); any other error is
// terminal. The returned error is non-nil only when every usable path was
// exhausted or a terminal failure occurred.
func (s *LLMService) tryBackends(ctx context.Context, prompt string) (string, error) {
	for i, b := range s.backends {
		resp, err := b.Generate(ctx, prompt)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, ErrRateLimited) {
			if i == len(s.backends)-1 {
				log.Printf("[llm] ERROR all backends rate limited, last was %s: %v", b.Name(), err)
				return "", err
			}
			log.Printf("[llm] WARN %s rate limited, falling back to %s", b.Name(), s.backends[i+1].Name())
			continue
		}
		log.Printf("[llm] backend %s failed, aborting: %v", b.Name(), err)
		return "", err
	}
	return "", errors.New("no model backends configured")
}

// ExtractJob converts raw page text into the structured remainder of a job
// record. levelsText is the levels.fyi salary page for the posting's
// company/role/city, empty when unavailable; the model falls back to it
// when the posting itself has no salary. A nil result with nil error means
// extraction failed and was swallowed; the job is still recorded with its
// source-derivable fields.
func (s *LLMService) ExtractJob(ctx context.Context, pageText, levelsText, source string) (*dtos.JobExtraction, error) {
	if len(pageText) > maxPageChars {
		pageText = pageText[:maxPageChars]
	}
	if len(levelsText) > maxPageChars {
		levelsText = levelsText[:maxPageChars]
	}

	prompt, err := extractJobPrompt.Format(map[string]any{
		"page_data":            pageText,
		"levels_fyi_page_data": levelsText,
		"source":               source,
	})
	if err != nil {
		return nil, fmt.Errorf("format extract prompt: %w", err)
	}

	resp, err := s.tryBackends(ctx, prompt)
	if err != nil {
		return nil, nil // swallowed: extraction is best-effort here
	}

	extraction, err := parseJobExtraction(resp)
	if err != nil {
		log.Printf("[llm] discarding malformed extraction: %v", err)
		return nil, nil
	}
	return extraction, nil
}

// parseJobExtraction validates a model response against the fixed schema.
func parseJobExtraction(resp string) (*dtos.JobExtraction, error) {
	var out dtos.JobExtraction
	if err := json.Unmarshal([]byte(stripFences(resp)), &out); err != nil {
		return nil, fmt.Errorf("schema violation: %w", err)
	}
	if out.SalaryCurrency == "" {
		out.SalaryCurrency = "USD"
	}
	// Salary bounds are both-or-neither in a well-formed record.
	if (out.SalaryMin == nil) != (out.SalaryMax == nil) {
		log.Println("[llm] dropping lone salary bound")
		out.SalaryMin, out.SalaryMax = nil, nil
	}
	return &out, nil
}

// ExtractResumeKeywords maps each role to a ranked keyword list (5 to 100
// unique terms) derived from the resume. Returns an empty map when roles is
// empty or when every backend was exhausted.
func (s *LLMService) ExtractResumeKeywords(ctx context.Context, resumeText string, roles []string) (map[string][]string, error) {
	if len(roles) == 0 {
		return map[string][]string{}, nil
	}

	prompt, err := resumeKeywordsPrompt.Format(map[string]any{
		"resume_data": resumeText,
		"roles":       strings.Join(roles, ", "),
	})
	if err != nil {
		return nil, fmt.Errorf("format keywords prompt: %w", err)
	}

	resp, err := s.tryBackends(ctx, prompt)
	if err != nil {
		return map[string][]string{}, nil
	}

	var raw map[string][]string
	if err := json.Unmarshal([]byte(stripFences(resp)), &raw); err != nil {
		log.Printf("[llm] discarding malformed keyword mapping: %v", err)
		return map[string][]string{}, nil
	}

	out := make(map[string][]string, len(raw))
	for role, keywords := range raw {
		unique := dedupeKeywords(keywords)
		if len(unique) < 5 {
			log.Printf("[llm] role %q yielded only %d keywords, skipping", role, len(unique))
			continue
		}
		if len(unique) > 100 {
			unique = unique[:100]
		}
		out[role] = unique
	}
	return out, nil
}

func dedupeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		key := strings.ToLower(k)
		if k == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, k)
	}
	return out
}

// GenerateCoverLetter is the one user-facing generation path: when even the
// last backend is rate limited, the error is returned to the caller instead
// of being swallowed, so the API can answer 429.
func (s *LLMService) GenerateCoverLetter(ctx context.Context, resumeData, jobDescription, company, name string) (string, error) {
	prompt, err := coverLetterPrompt.Format(map[string]any{
		"resume_data":     resumeData,
		"job_description": jobDescription,
		"company":         company,
		"name":            name,
	})
	if err != nil {
		return "", fmt.Errorf("format cover letter prompt: %w", err)
	}

	resp, err := s.tryBackends(ctx, prompt)
	if err != nil {
		return "", err
	}

	letter := strings.TrimSpace(stripFences(resp))
	if words := len(strings.Fields(letter)); words > 200 {
		log.Printf("[llm] WARN cover letter ran long (%d words)", words)
	}
	return letter, nil
}

// stripFences removes a wrapping markdown code fence if the model added one
// despite the no-preamble instruction.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

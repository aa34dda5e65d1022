package services

import "github.com/tmc/langchaingo/prompts"

// Prompt templates are a boundary contract: placeholders are substituted
// verbatim and every template instructs the model to emit JSON only, no
// preamble. A model that wraps its answer in prose produces a parse
// failure, not a protocol error.

var extractJobPrompt = prompts.PromptTemplate{
	Template: `### SCRAPED TEXT FROM WEBSITE:
{{.page_data}}
### INSTRUCTION:
The scraped text is from a job listing page from {{.source}}.
Extract the job posting into a JSON object with exactly these keys:
"description", "required_experience", "salary_min", "salary_max", "salary_currency", "salary_from_levels_fyi", "remote".
"description" keeps the original content but formatted as HTML using <hX>, <b>, <em> tags to prettify it.
"required_experience" is the minimum years of experience as an integer, or null.
"salary_min" and "salary_max" are integers or null; "salary_currency" defaults to "USD".
"salary_from_levels_fyi" is a boolean indicating the salary was taken from levels.fyi rather than the posting.
"remote" is a boolean indicating whether the job can be done remotely.
If the posting itself carries no salary, use the levels.fyi data below (may be empty) and set "salary_from_levels_fyi" to true; if that is empty too, set the salary fields to null.
### SCRAPED TEXT FROM LEVELS.FYI:
{{.levels_fyi_page_data}}
### VALID JSON (NO PREAMBLE)
### DO NOT OUTPUT ANYTHING APART FROM JSON OBJECT`,
	InputVariables: []string{"page_data", "levels_fyi_page_data", "source"},
	TemplateFormat: prompts.TemplateFormatGoTemplate,
}

var resumeKeywordsPrompt = prompts.PromptTemplate{
	Template: `### RESUME TEXT:
{{.resume_data}}
### INSTRUCTION:
For each of the following roles: {{.roles}}
select between 5 and 100 unique keywords from the resume that are most relevant to that role,
ranked from most to least relevant.
Respond with a JSON object mapping each role name to its ranked keyword array.
### VALID JSON (NO PREAMBLE)
### DO NOT OUTPUT ANYTHING APART FROM JSON OBJECT`,
	InputVariables: []string{"resume_data", "roles"},
	TemplateFormat: prompts.TemplateFormatGoTemplate,
}

var coverLetterPrompt = prompts.PromptTemplate{
	Template: `### RESUME TEXT:
{{.resume_data}}
### JOB DESCRIPTION:
{{.job_description}}
### INSTRUCTION:
Write a cover letter for {{.name}} applying to {{.company}}.
Ground every claim in the resume above; do not invent experience.
Keep it under 200 words. Respond with the letter text only, no preamble and no sign-off placeholders.`,
	InputVariables: []string{"resume_data", "job_description", "company", "name"},
	TemplateFormat: prompts.TemplateFormatGoTemplate,
}

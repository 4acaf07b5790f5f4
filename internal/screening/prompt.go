package screening

import (
	"fmt"
	"strconv"
	"strings"

	_ "embed"

	"github.com/hirescreen/hirescreen/internal/domain"
)

//go:embed prompt.md
var promptTemplate string

// buildPrompt renders the screening prompt for one job/resume pair. Missing
// resume data degrades to explicit placeholders rather than empty strings so
// the model is not misled by blank sections.
func buildPrompt(job *domain.JobPosting, resume *domain.Resume) string {
	parsed := resume.Parsed
	if parsed == nil {
		parsed = &domain.ParsedResume{}
	}

	name := strings.TrimSpace(parsed.FullName)
	if name == "" {
		name = "Unknown"
	}
	skills := strings.Join(parsed.Skills, ", ")
	if skills == "" {
		skills = "Not specified"
	}

	replacer := strings.NewReplacer(
		"{{JOB_TITLE}}", job.Title,
		"{{REQUIRED_SKILLS}}", strings.Join(job.RequiredSkills, ", "),
		"{{EXPERIENCE_LEVEL}}", string(job.ExperienceLevel),
		"{{JOB_DESCRIPTION}}", job.Description,
		"{{CANDIDATE_NAME}}", name,
		"{{CANDIDATE_SKILLS}}", skills,
		"{{EXPERIENCE_YEARS}}", strconv.Itoa(parsed.TotalExperienceYears),
		"{{EDUCATION}}", formatEducation(parsed.Education),
	)
	return replacer.Replace(promptTemplate)
}

// formatEducation renders the first education entry; the rest carry little
// additional signal for screening.
func formatEducation(entries []domain.Education) string {
	if len(entries) == 0 {
		return "Not specified"
	}

	entry := entries[0]
	degree := entry.Degree
	if degree == "" {
		degree = "Unknown"
	}
	institution := entry.Institution
	if institution == "" {
		institution = "Unknown"
	}
	year := entry.Year
	if year == "" {
		year = "Unknown"
	}
	return fmt.Sprintf("%s from %s (%s)", degree, institution, year)
}

// Package domain holds the entities of the candidate screening core as plain
// records with explicit id-based foreign keys. Related entities are resolved
// through the store at the point of use, never through implicit graph
// traversal.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role distinguishes the two kinds of users the core deals with.
type Role string

const (
	RoleRecruiter Role = "RECRUITER"
	RoleCandidate Role = "CANDIDATE"
)

// ApplicationStatus is the state of an application in its lifecycle.
type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "PENDING"
	StatusUnderReview ApplicationStatus = "UNDER_REVIEW"
	StatusShortlisted ApplicationStatus = "SHORTLISTED"
	StatusRejected    ApplicationStatus = "REJECTED"
	StatusInterviewed ApplicationStatus = "INTERVIEWED"
	StatusHired       ApplicationStatus = "HIRED"
	StatusWithdrawn   ApplicationStatus = "WITHDRAWN"
)

// transitions is the recruiter-driven part of the state graph. WITHDRAWN is
// reachable from any non-terminal state, but only through Withdraw by the
// owning candidate.
var transitions = map[ApplicationStatus][]ApplicationStatus{
	StatusPending:     {StatusUnderReview},
	StatusUnderReview: {StatusShortlisted, StatusRejected, StatusInterviewed, StatusHired},
	StatusShortlisted: {StatusInterviewed, StatusRejected, StatusHired},
	StatusInterviewed: {StatusRejected, StatusHired},
}

// Terminal reports whether no further transition may leave the status.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusHired || s == StatusWithdrawn
}

// CanTransitionTo reports whether a recruiter may move an application from s
// to next.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseApplicationStatus converts external input into a status value.
func ParseApplicationStatus(raw string) (ApplicationStatus, error) {
	status := ApplicationStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case StatusPending, StatusUnderReview, StatusShortlisted, StatusRejected,
		StatusInterviewed, StatusHired, StatusWithdrawn:
		return status, nil
	}
	return "", fmt.Errorf("%w: unknown application status %q", ErrValidation, raw)
}

// Recommendation is the tier derived from the overall match score.
type Recommendation string

const (
	StrongFit   Recommendation = "STRONG_FIT"
	GoodFit     Recommendation = "GOOD_FIT"
	ModerateFit Recommendation = "MODERATE_FIT"
	PoorFit     Recommendation = "POOR_FIT"
)

// RecommendationFor maps an overall score to its tier. Lower bounds are
// inclusive: 80 is STRONG_FIT, 79.999 is GOOD_FIT.
func RecommendationFor(score float64) Recommendation {
	switch {
	case score >= 80:
		return StrongFit
	case score >= 60:
		return GoodFit
	case score >= 40:
		return ModerateFit
	default:
		return PoorFit
	}
}

// ParseRecommendation converts external input into a recommendation tier.
func ParseRecommendation(raw string) (Recommendation, error) {
	rec := Recommendation(strings.ToUpper(strings.TrimSpace(raw)))
	switch rec {
	case StrongFit, GoodFit, ModerateFit, PoorFit:
		return rec, nil
	}
	return "", fmt.Errorf("%w: unknown recommendation %q", ErrValidation, raw)
}

// ExperienceLevel of a job posting.
type ExperienceLevel string

const (
	LevelEntry  ExperienceLevel = "ENTRY"
	LevelMid    ExperienceLevel = "MID"
	LevelSenior ExperienceLevel = "SENIOR"
	LevelLead   ExperienceLevel = "LEAD"
)

// ParseExperienceLevel converts external input into an experience level.
func ParseExperienceLevel(raw string) (ExperienceLevel, error) {
	level := ExperienceLevel(strings.ToUpper(strings.TrimSpace(raw)))
	switch level {
	case LevelEntry, LevelMid, LevelSenior, LevelLead:
		return level, nil
	}
	return "", fmt.Errorf("%w: unknown experience level %q", ErrValidation, raw)
}

// EmploymentType of a job posting.
type EmploymentType string

const (
	FullTime   EmploymentType = "FULL_TIME"
	PartTime   EmploymentType = "PART_TIME"
	Contract   EmploymentType = "CONTRACT"
	Internship EmploymentType = "INTERNSHIP"
)

// ParseEmploymentType converts external input into an employment type.
func ParseEmploymentType(raw string) (EmploymentType, error) {
	typ := EmploymentType(strings.ToUpper(strings.TrimSpace(raw)))
	switch typ {
	case FullTime, PartTime, Contract, Internship:
		return typ, nil
	}
	return "", fmt.Errorf("%w: unknown employment type %q", ErrValidation, raw)
}

// User is the opaque acting identity supplied by the authorization context.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// JobPosting is owned by its recruiter and screened against.
type JobPosting struct {
	ID              string          `json:"id"`
	RecruiterID     string          `json:"recruiter_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	RequiredSkills  []string        `json:"required_skills"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	EmploymentType  EmploymentType  `json:"employment_type"`
	Location        string          `json:"location,omitempty"`
	SalaryRange     string          `json:"salary_range,omitempty"`
	CompanyName     string          `json:"company_name,omitempty"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Education is one entry of a parsed resume.
type Education struct {
	Degree      string `json:"degree,omitempty"`
	Institution string `json:"institution,omitempty"`
	Year        string `json:"year,omitempty"`
	Field       string `json:"field,omitempty"`
}

// ParsedResume is the structured data extracted from a resume upstream.
type ParsedResume struct {
	FullName             string      `json:"full_name,omitempty"`
	Email                string      `json:"email,omitempty"`
	Phone                string      `json:"phone,omitempty"`
	Skills               []string    `json:"skills,omitempty"`
	TotalExperienceYears int         `json:"total_experience_years,omitempty"`
	Education            []Education `json:"education,omitempty"`
	Summary              string      `json:"summary,omitempty"`
}

// Resume is owned exclusively by its uploader and read-only for screening.
type Resume struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	RawText    string        `json:"raw_text,omitempty"`
	Parsed     *ParsedResume `json:"parsed,omitempty"`
	UploadedAt time.Time     `json:"uploaded_at"`
}

// Application is one candidate's submission of one resume against one job.
// It is never deleted, only status-transitioned.
type Application struct {
	ID          string            `json:"id"`
	JobID       string            `json:"job_id"`
	CandidateID string            `json:"candidate_id"`
	ResumeID    string            `json:"resume_id"`
	Status      ApplicationStatus `json:"status"`
	CoverLetter string            `json:"cover_letter,omitempty"`
	AppliedAt   time.Time         `json:"applied_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	ScreenedAt  *time.Time        `json:"screened_at,omitempty"`
}

// ScreeningResult stores the analysis of one application. Exactly one result
// may exist per application and it is immutable once created.
type ScreeningResult struct {
	ID                   string         `json:"id"`
	ApplicationID        string         `json:"application_id"`
	JobID                string         `json:"job_id"`
	MatchScore           int            `json:"match_score"`
	SkillMatchScore      int            `json:"skill_match_score"`
	ExperienceMatchScore int            `json:"experience_match_score"`
	EducationMatchScore  int            `json:"education_match_score"`
	Recommendation       Recommendation `json:"recommendation"`
	MatchedSkills        []string       `json:"matched_skills,omitempty"`
	MissingSkills        []string       `json:"missing_skills,omitempty"`
	KeyHighlights        []string       `json:"key_highlights,omitempty"`
	Strengths            string         `json:"strengths,omitempty"`
	Weaknesses           string         `json:"weaknesses,omitempty"`
	Analysis             string         `json:"analysis,omitempty"`
	ProcessingTimeMs     int64          `json:"processing_time_ms"`
	CreatedAt            time.Time      `json:"created_at"`
}

// ScreeningStatistics aggregates the results screened for one job.
type ScreeningStatistics struct {
	TotalScreened int     `json:"total_screened"`
	StrongFit     int     `json:"strong_fit"`
	GoodFit       int     `json:"good_fit"`
	ModerateFit   int     `json:"moderate_fit"`
	PoorFit       int     `json:"poor_fit"`
	AverageScore  float64 `json:"average_score"`
}

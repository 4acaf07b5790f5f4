package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hirescreen/hirescreen/internal/domain"
)

// Memory is an in-process Store safe for concurrent use. Records are copied
// on the way in and out so callers never share mutable state with the store.
type Memory struct {
	mu sync.RWMutex

	users        map[string]*domain.User
	jobs         map[string]*domain.JobPosting
	resumes      map[string]*domain.Resume
	applications map[string]*domain.Application
	results      map[string]*domain.ScreeningResult

	// applicationPairs indexes applications by job+candidate, backing the
	// duplicate-application constraint. resultsByApplication backs the 1:1
	// screening result constraint.
	applicationPairs     map[string]string
	resultsByApplication map[string]string
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		users:                make(map[string]*domain.User),
		jobs:                 make(map[string]*domain.JobPosting),
		resumes:              make(map[string]*domain.Resume),
		applications:         make(map[string]*domain.Application),
		results:              make(map[string]*domain.ScreeningResult),
		applicationPairs:     make(map[string]string),
		resultsByApplication: make(map[string]string),
	}
}

func pairKey(jobID, candidateID string) string {
	return jobID + "|" + candidateID
}

func (m *Memory) CreateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *Memory) UserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	clone := *user
	return &clone, nil
}

func (m *Memory) CreateJob(_ context.Context, job *domain.JobPosting) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	m.jobs[job.ID] = cloneJob(job)
	return nil
}

func (m *Memory) JobByID(_ context.Context, id string) (*domain.JobPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	return cloneJob(job), nil
}

func (m *Memory) SaveJob(_ context.Context, job *domain.JobPosting) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[job.ID]; !ok {
		return fmt.Errorf("job %s: %w", job.ID, domain.ErrNotFound)
	}
	m.jobs[job.ID] = cloneJob(job)
	return nil
}

func (m *Memory) DeleteJob(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[id]; !ok {
		return fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	delete(m.jobs, id)
	return nil
}

func (m *Memory) ActiveJobsByRecruiter(_ context.Context, recruiterID string) ([]*domain.JobPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*domain.JobPosting, 0)
	for _, job := range m.jobs {
		if job.RecruiterID == recruiterID && job.Active {
			jobs = append(jobs, cloneJob(job))
		}
	}
	sortByCreatedAt(jobs, func(j *domain.JobPosting) time.Time { return j.CreatedAt })
	return jobs, nil
}

func (m *Memory) ActiveJobs(_ context.Context, limit, offset int) ([]*domain.JobPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*domain.JobPosting, 0)
	for _, job := range m.jobs {
		if job.Active {
			jobs = append(jobs, cloneJob(job))
		}
	}
	sortByCreatedAt(jobs, func(j *domain.JobPosting) time.Time { return j.CreatedAt })

	if offset >= len(jobs) {
		return []*domain.JobPosting{}, nil
	}
	jobs = jobs[offset:]
	if limit > 0 && limit < len(jobs) {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (m *Memory) CreateResume(_ context.Context, resume *domain.Resume) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if resume.ID == "" {
		resume.ID = uuid.NewString()
	}
	if resume.UploadedAt.IsZero() {
		resume.UploadedAt = time.Now().UTC()
	}
	m.resumes[resume.ID] = cloneResume(resume)
	return nil
}

func (m *Memory) ResumeByID(_ context.Context, id string) (*domain.Resume, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resume, ok := m.resumes[id]
	if !ok {
		return nil, fmt.Errorf("resume %s: %w", id, domain.ErrNotFound)
	}
	return cloneResume(resume), nil
}

func (m *Memory) CreateApplication(_ context.Context, application *domain.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pair := pairKey(application.JobID, application.CandidateID)
	if _, ok := m.applicationPairs[pair]; ok {
		return fmt.Errorf("application for job %s by candidate %s already exists: %w",
			application.JobID, application.CandidateID, domain.ErrConflict)
	}

	if application.ID == "" {
		application.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if application.AppliedAt.IsZero() {
		application.AppliedAt = now
	}
	application.UpdatedAt = now

	m.applications[application.ID] = cloneApplication(application)
	m.applicationPairs[pair] = application.ID
	return nil
}

func (m *Memory) ApplicationByID(_ context.Context, id string) (*domain.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	application, ok := m.applications[id]
	if !ok {
		return nil, fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
	}
	return cloneApplication(application), nil
}

func (m *Memory) SaveApplication(_ context.Context, application *domain.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.applications[application.ID]; !ok {
		return fmt.Errorf("application %s: %w", application.ID, domain.ErrNotFound)
	}
	application.UpdatedAt = time.Now().UTC()
	m.applications[application.ID] = cloneApplication(application)
	return nil
}

func (m *Memory) ApplicationsByJob(_ context.Context, jobID string) ([]*domain.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	applications := make([]*domain.Application, 0)
	for _, application := range m.applications {
		if application.JobID == jobID {
			applications = append(applications, cloneApplication(application))
		}
	}
	sortByCreatedAt(applications, func(a *domain.Application) time.Time { return a.AppliedAt })
	return applications, nil
}

func (m *Memory) ApplicationsByCandidate(_ context.Context, candidateID string) ([]*domain.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	applications := make([]*domain.Application, 0)
	for _, application := range m.applications {
		if application.CandidateID == candidateID {
			applications = append(applications, cloneApplication(application))
		}
	}
	sortByCreatedAt(applications, func(a *domain.Application) time.Time { return a.AppliedAt })
	return applications, nil
}

func (m *Memory) ApplicationsByJobAndStatus(_ context.Context, jobID string, status domain.ApplicationStatus) ([]*domain.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	applications := make([]*domain.Application, 0)
	for _, application := range m.applications {
		if application.JobID == jobID && application.Status == status {
			applications = append(applications, cloneApplication(application))
		}
	}
	sortByCreatedAt(applications, func(a *domain.Application) time.Time { return a.AppliedAt })
	return applications, nil
}

func (m *Memory) ApplicationExists(_ context.Context, jobID, candidateID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.applicationPairs[pairKey(jobID, candidateID)]
	return ok, nil
}

func (m *Memory) CountApplicationsByJob(_ context.Context, jobID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, application := range m.applications {
		if application.JobID == jobID {
			count++
		}
	}
	return count, nil
}

func (m *Memory) CreateScreeningResult(_ context.Context, result *domain.ScreeningResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.resultsByApplication[result.ApplicationID]; ok {
		return fmt.Errorf("screening result for application %s already exists: %w",
			result.ApplicationID, domain.ErrConflict)
	}

	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	m.results[result.ID] = cloneResult(result)
	m.resultsByApplication[result.ApplicationID] = result.ID
	return nil
}

func (m *Memory) ScreeningResultByID(_ context.Context, id string) (*domain.ScreeningResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result, ok := m.results[id]
	if !ok {
		return nil, fmt.Errorf("screening result %s: %w", id, domain.ErrNotFound)
	}
	return cloneResult(result), nil
}

func (m *Memory) ScreeningResultByApplicationID(_ context.Context, applicationID string) (*domain.ScreeningResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.resultsByApplication[applicationID]
	if !ok {
		return nil, fmt.Errorf("screening result for application %s: %w", applicationID, domain.ErrNotFound)
	}
	return cloneResult(m.results[id]), nil
}

func (m *Memory) ScreeningResultsByJob(_ context.Context, jobID string) ([]*domain.ScreeningResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]*domain.ScreeningResult, 0)
	for _, result := range m.results {
		if result.JobID == jobID {
			results = append(results, cloneResult(result))
		}
	}
	sortByCreatedAt(results, func(r *domain.ScreeningResult) time.Time { return r.CreatedAt })
	return results, nil
}

func (m *Memory) ScreeningResultExists(_ context.Context, applicationID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.resultsByApplication[applicationID]
	return ok, nil
}

// sortByCreatedAt keeps list reads deterministic; map iteration order is not.
func sortByCreatedAt[T any](items []T, at func(T) time.Time) {
	sort.Slice(items, func(i, j int) bool { return at(items[i]).Before(at(items[j])) })
}

func cloneJob(job *domain.JobPosting) *domain.JobPosting {
	clone := *job
	clone.RequiredSkills = append([]string(nil), job.RequiredSkills...)
	return &clone
}

func cloneResume(resume *domain.Resume) *domain.Resume {
	clone := *resume
	if resume.Parsed != nil {
		parsed := *resume.Parsed
		parsed.Skills = append([]string(nil), resume.Parsed.Skills...)
		parsed.Education = append([]domain.Education(nil), resume.Parsed.Education...)
		clone.Parsed = &parsed
	}
	return &clone
}

func cloneApplication(application *domain.Application) *domain.Application {
	clone := *application
	if application.ScreenedAt != nil {
		at := *application.ScreenedAt
		clone.ScreenedAt = &at
	}
	return &clone
}

func cloneResult(result *domain.ScreeningResult) *domain.ScreeningResult {
	clone := *result
	clone.MatchedSkills = append([]string(nil), result.MatchedSkills...)
	clone.MissingSkills = append([]string(nil), result.MissingSkills...)
	clone.KeyHighlights = append([]string(nil), result.KeyHighlights...)
	return &clone
}

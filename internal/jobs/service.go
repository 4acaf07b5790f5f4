// Package jobs owns job posting creation, mutation and the cached read paths
// around them.
package jobs

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hirescreen/hirescreen/internal/cache"
	"github.com/hirescreen/hirescreen/internal/domain"
	"github.com/hirescreen/hirescreen/internal/store"
)

// Service provides job posting operations. Mutations are owner-only and
// evict every cache entry they could invalidate, after the store write.
type Service struct {
	store  store.Store
	cache  cache.Cache
	logger *zap.Logger
}

// NewService wires a job service.
func NewService(st store.Store, c cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, cache: c, logger: logger}
}

// CreateParams carries the attributes of a new job posting.
type CreateParams struct {
	Title           string
	Description     string
	RequiredSkills  []string
	ExperienceLevel domain.ExperienceLevel
	EmploymentType  domain.EmploymentType
	Location        string
	SalaryRange     string
	CompanyName     string
}

// UpdateParams carries a partial update; nil fields are left unchanged.
type UpdateParams struct {
	Title           *string
	Description     *string
	RequiredSkills  []string
	ExperienceLevel *domain.ExperienceLevel
	EmploymentType  *domain.EmploymentType
	Location        *string
	SalaryRange     *string
	CompanyName     *string
}

// Create stores a new active job posting owned by the recruiter.
func (s *Service) Create(ctx context.Context, recruiterID string, params CreateParams) (*domain.JobPosting, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, fmt.Errorf("%w: job title is required", domain.ErrValidation)
	}
	if len(params.RequiredSkills) == 0 {
		return nil, fmt.Errorf("%w: required skills must not be empty", domain.ErrValidation)
	}

	job := &domain.JobPosting{
		RecruiterID:     recruiterID,
		Title:           params.Title,
		Description:     params.Description,
		RequiredSkills:  params.RequiredSkills,
		ExperienceLevel: params.ExperienceLevel,
		EmploymentType:  params.EmploymentType,
		Location:        params.Location,
		SalaryRange:     params.SalaryRange,
		CompanyName:     params.CompanyName,
		Active:          true,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.cache.Evict(cache.RecruiterJobsKey(recruiterID))

	s.logger.Info("job posting created",
		zap.String("job_id", job.ID),
		zap.String("recruiter_id", recruiterID),
	)
	return job, nil
}

// Update applies a partial update to a job owned by the recruiter.
func (s *Service) Update(ctx context.Context, jobID, recruiterID string, params UpdateParams) (*domain.JobPosting, error) {
	job, err := s.requireOwned(ctx, jobID, recruiterID)
	if err != nil {
		return nil, err
	}

	if params.Title != nil && strings.TrimSpace(*params.Title) != "" {
		job.Title = *params.Title
	}
	if params.Description != nil && strings.TrimSpace(*params.Description) != "" {
		job.Description = *params.Description
	}
	if len(params.RequiredSkills) > 0 {
		job.RequiredSkills = params.RequiredSkills
	}
	if params.ExperienceLevel != nil {
		job.ExperienceLevel = *params.ExperienceLevel
	}
	if params.EmploymentType != nil {
		job.EmploymentType = *params.EmploymentType
	}
	if params.Location != nil {
		job.Location = *params.Location
	}
	if params.SalaryRange != nil {
		job.SalaryRange = *params.SalaryRange
	}
	if params.CompanyName != nil {
		job.CompanyName = *params.CompanyName
	}

	if err := s.store.SaveJob(ctx, job); err != nil {
		return nil, err
	}

	s.evictJob(jobID, recruiterID)

	s.logger.Info("job posting updated", zap.String("job_id", jobID))
	return job, nil
}

// Deactivate soft-deletes the job; existing applications are unaffected but
// no new ones may be created against it.
func (s *Service) Deactivate(ctx context.Context, jobID, recruiterID string) error {
	job, err := s.requireOwned(ctx, jobID, recruiterID)
	if err != nil {
		return err
	}

	job.Active = false
	if err := s.store.SaveJob(ctx, job); err != nil {
		return err
	}

	s.evictJob(jobID, recruiterID)

	s.logger.Info("job posting deactivated", zap.String("job_id", jobID))
	return nil
}

// Delete permanently removes the job.
func (s *Service) Delete(ctx context.Context, jobID, recruiterID string) error {
	if _, err := s.requireOwned(ctx, jobID, recruiterID); err != nil {
		return err
	}

	if err := s.store.DeleteJob(ctx, jobID); err != nil {
		return err
	}

	s.evictJob(jobID, recruiterID)

	s.logger.Info("job posting deleted", zap.String("job_id", jobID))
	return nil
}

// JobByID is a read-through cached lookup.
func (s *Service) JobByID(ctx context.Context, jobID string) (*domain.JobPosting, error) {
	key := cache.JobKey(jobID)
	if job, ok := cache.Lookup[*domain.JobPosting](s.cache, key); ok {
		return job, nil
	}

	job, err := s.store.JobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, job)
	return job, nil
}

// ActiveJobsByRecruiter is a read-through cached list of the recruiter's
// active postings.
func (s *Service) ActiveJobsByRecruiter(ctx context.Context, recruiterID string) ([]*domain.JobPosting, error) {
	key := cache.RecruiterJobsKey(recruiterID)
	if jobs, ok := cache.Lookup[[]*domain.JobPosting](s.cache, key); ok {
		return jobs, nil
	}

	jobs, err := s.store.ActiveJobsByRecruiter(ctx, recruiterID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, jobs)
	return jobs, nil
}

// ActiveJobs lists active postings with pagination. Paginated reads bypass
// the cache entirely; their key space is unbounded.
func (s *Service) ActiveJobs(ctx context.Context, limit, offset int) ([]*domain.JobPosting, error) {
	return s.store.ActiveJobs(ctx, limit, offset)
}

func (s *Service) requireOwned(ctx context.Context, jobID, recruiterID string) (*domain.JobPosting, error) {
	job, err := s.store.JobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.RecruiterID != recruiterID {
		return nil, fmt.Errorf("%w: job %s is not owned by user %s", domain.ErrForbidden, jobID, recruiterID)
	}
	return job, nil
}

func (s *Service) evictJob(jobID, recruiterID string) {
	s.cache.Evict(cache.JobKey(jobID), cache.RecruiterJobsKey(recruiterID))
}

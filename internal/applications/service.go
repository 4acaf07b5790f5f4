// Package applications owns the application lifecycle: submission, the
// recruiter-driven status machine, and candidate withdrawal.
package applications

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hirescreen/hirescreen/internal/cache"
	"github.com/hirescreen/hirescreen/internal/domain"
	"github.com/hirescreen/hirescreen/internal/store"
)

// Service provides application operations. Every mutation evicts the
// application entry and both list keyspaces after the store write; the
// per-job and per-candidate lists both contain the mutated record.
type Service struct {
	store  store.Store
	cache  cache.Cache
	logger *zap.Logger
}

// NewService wires an application service.
func NewService(st store.Store, c cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, cache: c, logger: logger}
}

// Apply submits a resume against a job on behalf of the candidate. The job
// must be active, the resume must belong to the candidate, and the candidate
// must not have applied to this job before with any resume.
func (s *Service) Apply(ctx context.Context, candidateID, jobID, resumeID, coverLetter string) (*domain.Application, error) {
	job, err := s.store.JobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.Active {
		return nil, fmt.Errorf("%w: job %s is no longer accepting applications", domain.ErrConflict, jobID)
	}

	resume, err := s.store.ResumeByID(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	if resume.UserID != candidateID {
		return nil, fmt.Errorf("%w: resume %s is not owned by user %s", domain.ErrForbidden, resumeID, candidateID)
	}

	exists, err := s.store.ApplicationExists(ctx, jobID, candidateID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: candidate %s already applied to job %s", domain.ErrConflict, candidateID, jobID)
	}

	application := &domain.Application{
		JobID:       jobID,
		CandidateID: candidateID,
		ResumeID:    resumeID,
		Status:      domain.StatusPending,
		CoverLetter: coverLetter,
	}
	// The store enforces job+candidate uniqueness as well, closing the race
	// between the existence check and the insert.
	if err := s.store.CreateApplication(ctx, application); err != nil {
		return nil, err
	}

	s.cache.Evict(
		cache.CandidateApplicationsKey(candidateID),
		cache.JobApplicationsKey(jobID),
	)

	s.logger.Info("application submitted",
		zap.String("application_id", application.ID),
		zap.String("job_id", jobID),
		zap.String("candidate_id", candidateID),
	)
	return application, nil
}

// TransitionStatus moves an application along the recruiter-driven state
// graph. Only the recruiter owning the job may transition, and WITHDRAWN is
// never reachable this way.
func (s *Service) TransitionStatus(ctx context.Context, applicationID, recruiterID string, next domain.ApplicationStatus) (*domain.Application, error) {
	application, err := s.store.ApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	job, err := s.store.JobByID(ctx, application.JobID)
	if err != nil {
		return nil, err
	}
	if job.RecruiterID != recruiterID {
		return nil, fmt.Errorf("%w: job %s is not owned by user %s", domain.ErrForbidden, application.JobID, recruiterID)
	}

	if next == domain.StatusWithdrawn {
		return nil, fmt.Errorf("%w: withdrawal is reserved to the candidate", domain.ErrValidation)
	}
	if !application.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: cannot transition application %s from %s to %s",
			domain.ErrConflict, applicationID, application.Status, next)
	}

	if next == domain.StatusUnderReview && application.ScreenedAt == nil {
		now := time.Now().UTC()
		application.ScreenedAt = &now
	}
	previous := application.Status
	application.Status = next

	if err := s.store.SaveApplication(ctx, application); err != nil {
		return nil, err
	}

	// A status change invalidates every cached application list: the record
	// moves between status-dependent views, so the whole list keyspaces go,
	// not just this application's two lists.
	s.cache.Evict(cache.ApplicationKey(application.ID))
	s.cache.EvictPrefix(cache.CandidateApplicationsPrefix, cache.JobApplicationsPrefix)

	s.logger.Info("application status changed",
		zap.String("application_id", applicationID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
	)
	return application, nil
}

// Withdraw moves the candidate's own application to WITHDRAWN. Withdrawing an
// already withdrawn application is a no-op; withdrawing from another terminal
// state is a conflict.
func (s *Service) Withdraw(ctx context.Context, applicationID, candidateID string) (*domain.Application, error) {
	application, err := s.store.ApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if application.CandidateID != candidateID {
		return nil, fmt.Errorf("%w: application %s does not belong to user %s", domain.ErrForbidden, applicationID, candidateID)
	}

	if application.Status == domain.StatusWithdrawn {
		return application, nil
	}
	if application.Status.Terminal() {
		return nil, fmt.Errorf("%w: cannot withdraw application %s in state %s",
			domain.ErrConflict, applicationID, application.Status)
	}

	application.Status = domain.StatusWithdrawn
	if err := s.store.SaveApplication(ctx, application); err != nil {
		return nil, err
	}

	s.evictApplication(application)

	s.logger.Info("application withdrawn", zap.String("application_id", applicationID))
	return application, nil
}

// ApplicationByID is a read-through cached lookup.
func (s *Service) ApplicationByID(ctx context.Context, applicationID string) (*domain.Application, error) {
	key := cache.ApplicationKey(applicationID)
	if application, ok := cache.Lookup[*domain.Application](s.cache, key); ok {
		return application, nil
	}

	application, err := s.store.ApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, application)
	return application, nil
}

// ApplicationsForJob lists a job's applications for its owning recruiter.
func (s *Service) ApplicationsForJob(ctx context.Context, jobID, recruiterID string) ([]*domain.Application, error) {
	job, err := s.store.JobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.RecruiterID != recruiterID {
		return nil, fmt.Errorf("%w: job %s is not owned by user %s", domain.ErrForbidden, jobID, recruiterID)
	}

	key := cache.JobApplicationsKey(jobID)
	if applications, ok := cache.Lookup[[]*domain.Application](s.cache, key); ok {
		return applications, nil
	}

	applications, err := s.store.ApplicationsByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, applications)
	return applications, nil
}

// ApplicationsForCandidate lists the candidate's own applications.
func (s *Service) ApplicationsForCandidate(ctx context.Context, candidateID string) ([]*domain.Application, error) {
	key := cache.CandidateApplicationsKey(candidateID)
	if applications, ok := cache.Lookup[[]*domain.Application](s.cache, key); ok {
		return applications, nil
	}

	applications, err := s.store.ApplicationsByCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, applications)
	return applications, nil
}

// ApplicationsByStatus lists a job's applications filtered by status. Never
// cached; the status dimension would multiply the key space.
func (s *Service) ApplicationsByStatus(ctx context.Context, jobID, recruiterID string, status domain.ApplicationStatus) ([]*domain.Application, error) {
	job, err := s.store.JobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.RecruiterID != recruiterID {
		return nil, fmt.Errorf("%w: job %s is not owned by user %s", domain.ErrForbidden, jobID, recruiterID)
	}
	return s.store.ApplicationsByJobAndStatus(ctx, jobID, status)
}

// CountForJob reports how many applications a job has received.
func (s *Service) CountForJob(ctx context.Context, jobID string) (int64, error) {
	return s.store.CountApplicationsByJob(ctx, jobID)
}

func (s *Service) evictApplication(application *domain.Application) {
	s.cache.Evict(
		cache.ApplicationKey(application.ID),
		cache.CandidateApplicationsKey(application.CandidateID),
		cache.JobApplicationsKey(application.JobID),
	)
}

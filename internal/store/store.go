// Package store defines the durable record contract the screening core runs
// against, plus two implementations: an in-process store used by tests and as
// a fallback, and a gorm-backed Postgres store.
package store

import (
	"context"

	"github.com/hirescreen/hirescreen/internal/domain"
)

// Store is the entity store consumed by the lifecycle, screening and jobs
// services. Lookups return domain.ErrNotFound for absent records; uniqueness
// violations surface as domain.ErrConflict; any other storage fault is
// wrapped with domain.ErrInternal.
type Store interface {
	CreateUser(ctx context.Context, user *domain.User) error
	UserByID(ctx context.Context, id string) (*domain.User, error)

	CreateJob(ctx context.Context, job *domain.JobPosting) error
	JobByID(ctx context.Context, id string) (*domain.JobPosting, error)
	SaveJob(ctx context.Context, job *domain.JobPosting) error
	DeleteJob(ctx context.Context, id string) error
	ActiveJobsByRecruiter(ctx context.Context, recruiterID string) ([]*domain.JobPosting, error)
	ActiveJobs(ctx context.Context, limit, offset int) ([]*domain.JobPosting, error)

	CreateResume(ctx context.Context, resume *domain.Resume) error
	ResumeByID(ctx context.Context, id string) (*domain.Resume, error)

	// CreateApplication enforces the one-application-per-(job,candidate)
	// invariant and returns domain.ErrConflict on a duplicate.
	CreateApplication(ctx context.Context, application *domain.Application) error
	ApplicationByID(ctx context.Context, id string) (*domain.Application, error)
	SaveApplication(ctx context.Context, application *domain.Application) error
	ApplicationsByJob(ctx context.Context, jobID string) ([]*domain.Application, error)
	ApplicationsByCandidate(ctx context.Context, candidateID string) ([]*domain.Application, error)
	ApplicationsByJobAndStatus(ctx context.Context, jobID string, status domain.ApplicationStatus) ([]*domain.Application, error)
	ApplicationExists(ctx context.Context, jobID, candidateID string) (bool, error)
	CountApplicationsByJob(ctx context.Context, jobID string) (int64, error)

	// CreateScreeningResult enforces the at-most-one-result-per-application
	// invariant and returns domain.ErrConflict when a result already exists.
	CreateScreeningResult(ctx context.Context, result *domain.ScreeningResult) error
	ScreeningResultByID(ctx context.Context, id string) (*domain.ScreeningResult, error)
	ScreeningResultByApplicationID(ctx context.Context, applicationID string) (*domain.ScreeningResult, error)
	ScreeningResultsByJob(ctx context.Context, jobID string) ([]*domain.ScreeningResult, error)
	ScreeningResultExists(ctx context.Context, applicationID string) (bool, error)
}

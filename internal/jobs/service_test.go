package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hirescreen/hirescreen/internal/cache"
	"github.com/hirescreen/hirescreen/internal/domain"
	"github.com/hirescreen/hirescreen/internal/store"
)

func newService(t *testing.T) (*Service, *store.Memory, *cache.Memory) {
	t.Helper()
	st := store.NewMemory()
	c := cache.NewMemory()
	return NewService(st, c, nil), st, c
}

func createJob(t *testing.T, svc *Service, recruiterID string) *domain.JobPosting {
	t.Helper()
	job, err := svc.Create(context.Background(), recruiterID, CreateParams{
		Title:           "Backend Engineer",
		Description:     "Build services",
		RequiredSkills:  []string{"Go", "SQL"},
		ExperienceLevel: domain.LevelMid,
		EmploymentType:  domain.FullTime,
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}

func TestCreateRequiresSkills(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)

	_, err := svc.Create(context.Background(), "rec-1", CreateParams{
		Title: "Backend Engineer",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateEvictsRecruiterList(t *testing.T) {
	t.Parallel()
	svc, _, c := newService(t)
	ctx := context.Background()

	first := createJob(t, svc, "rec-1")

	// Prime the recruiter list cache, then create another job.
	jobs, err := svc.ActiveJobsByRecruiter(ctx, "rec-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != first.ID {
		t.Fatalf("unexpected list: %+v", jobs)
	}
	if _, ok := c.Get(cache.RecruiterJobsKey("rec-1")); !ok {
		t.Fatal("expected recruiter list to be cached")
	}

	createJob(t, svc, "rec-1")

	jobs, err = svc.ActiveJobsByRecruiter(ctx, "rec-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs after eviction, got %d", len(jobs))
	}
}

func TestUpdateIsOwnerOnly(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)
	job := createJob(t, svc, "rec-1")

	title := "Staff Engineer"
	_, err := svc.Update(context.Background(), job.ID, "rec-2", UpdateParams{Title: &title})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	t.Parallel()
	svc, _, c := newService(t)
	ctx := context.Background()
	job := createJob(t, svc, "rec-1")

	// Prime the entry cache so the update has something to invalidate.
	if _, err := svc.JobByID(ctx, job.ID); err != nil {
		t.Fatalf("get: %v", err)
	}

	title := "Staff Engineer"
	updated, err := svc.Update(ctx, job.ID, "rec-1", UpdateParams{
		Title:          &title,
		RequiredSkills: []string{"Go", "Kubernetes"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Staff Engineer" {
		t.Fatalf("title not updated: %q", updated.Title)
	}
	if updated.Description != "Build services" {
		t.Fatalf("description should be unchanged: %q", updated.Description)
	}

	if _, ok := c.Get(cache.JobKey(job.ID)); ok {
		t.Fatal("job entry should be evicted after update")
	}

	got, err := svc.JobByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Staff Engineer" {
		t.Fatalf("stale read after update: %q", got.Title)
	}
}

func TestDeactivateRemovesFromActiveLists(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)
	ctx := context.Background()
	job := createJob(t, svc, "rec-1")

	if _, err := svc.ActiveJobsByRecruiter(ctx, "rec-1"); err != nil {
		t.Fatalf("list: %v", err)
	}

	if err := svc.Deactivate(ctx, job.ID, "rec-1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	jobs, err := svc.ActiveJobsByRecruiter(ctx, "rec-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("deactivated job still listed: %+v", jobs)
	}

	// The posting itself is still retrievable.
	got, err := svc.JobByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Active {
		t.Fatal("job should be inactive")
	}
}

func TestDeleteRemovesJob(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)
	ctx := context.Background()
	job := createJob(t, svc, "rec-1")

	if err := svc.Delete(ctx, job.ID, "rec-2"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}

	if err := svc.Delete(ctx, job.ID, "rec-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.JobByID(ctx, job.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestJobByIDCachesEntry(t *testing.T) {
	t.Parallel()
	svc, st, _ := newService(t)
	ctx := context.Background()
	job := createJob(t, svc, "rec-1")

	if _, err := svc.JobByID(ctx, job.ID); err != nil {
		t.Fatalf("get: %v", err)
	}

	// Remove from the store; the cached entry still serves reads.
	if err := st.DeleteJob(ctx, job.ID); err != nil {
		t.Fatalf("store delete: %v", err)
	}

	got, err := svc.JobByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("expected cache hit, got %v", err)
	}
	if got.ID != job.ID {
		t.Fatalf("unexpected job: %+v", got)
	}
}

func TestActiveJobsPaginates(t *testing.T) {
	t.Parallel()
	svc, _, c := newService(t)
	ctx := context.Background()

	for range 3 {
		createJob(t, svc, "rec-1")
	}

	page, err := svc.ActiveJobs(ctx, 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(page))
	}

	page, err = svc.ActiveJobs(ctx, 2, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("expected 1 job, got %d", len(page))
	}

	if c.Len() != 0 {
		t.Fatal("paginated reads must not populate the cache")
	}
}

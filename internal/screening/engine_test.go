package screening

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/hirescreen/hirescreen/internal/cache"
	"github.com/hirescreen/hirescreen/internal/domain"
	"github.com/hirescreen/hirescreen/internal/store"
)

const (
	recruiterID = "rec-1"
	candidateID = "cand-1"
)

// stubCompleter returns queued responses in order, then repeats the last one.
// A response holding an error fails that call.
type stubCompleter struct {
	mu        sync.Mutex
	responses []stubResponse
	calls     int
}

type stubResponse struct {
	text string
	err  error
}

func (s *stubCompleter) Complete(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.responses) == 0 {
		return "", errors.New("no stubbed response")
	}
	response := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return response.text, response.err
}

func analysisJSON(overall float64) string {
	return fmt.Sprintf(`{
		"overallScore": %g,
		"skillMatchScore": 80,
		"experienceMatchScore": 70,
		"educationMatchScore": 60,
		"matchedSkills": ["Java", "SQL"],
		"missingSkills": ["AWS"],
		"strengths": "Good core skills",
		"weaknesses": "No cloud experience",
		"summary": "Decent match.",
		"keyHighlights": ["Shipped a billing system"]
	}`, overall)
}

type engineFixture struct {
	engine    *Engine
	store     *store.Memory
	cache     *cache.Memory
	completer *stubCompleter

	job *domain.JobPosting
}

func newEngineFixture(t *testing.T, responses ...stubResponse) *engineFixture {
	t.Helper()
	ctx := context.Background()

	st := store.NewMemory()
	c := cache.NewMemory()
	completer := &stubCompleter{responses: responses}

	job := &domain.JobPosting{
		RecruiterID:     recruiterID,
		Title:           "Backend Engineer",
		RequiredSkills:  []string{"Java", "SQL", "AWS"},
		ExperienceLevel: domain.LevelMid,
		EmploymentType:  domain.FullTime,
		Active:          true,
	}
	if err := st.CreateJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	return &engineFixture{
		engine:    NewEngine(st, completer, c, nil, 0),
		store:     st,
		cache:     c,
		completer: completer,
		job:       job,
	}
}

func (f *engineFixture) addApplication(t *testing.T, candidate string) *domain.Application {
	t.Helper()
	ctx := context.Background()

	resume := &domain.Resume{
		UserID: candidate,
		Parsed: &domain.ParsedResume{
			FullName:             "Jamie Doe",
			Skills:               []string{"Java", "SQL"},
			TotalExperienceYears: 4,
		},
	}
	if err := f.store.CreateResume(ctx, resume); err != nil {
		t.Fatalf("create resume: %v", err)
	}

	application := &domain.Application{
		JobID:       f.job.ID,
		CandidateID: candidate,
		ResumeID:    resume.ID,
		Status:      domain.StatusPending,
	}
	if err := f.store.CreateApplication(ctx, application); err != nil {
		t.Fatalf("create application: %v", err)
	}
	return application
}

func TestScreenApplication(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, stubResponse{text: analysisJSON(75)})
	ctx := context.Background()
	application := f.addApplication(t, candidateID)

	result, err := f.engine.ScreenApplication(ctx, application.ID, recruiterID)
	if err != nil {
		t.Fatalf("screen: %v", err)
	}
	if result.MatchScore != 75 {
		t.Fatalf("match score: %d", result.MatchScore)
	}
	if result.Recommendation != domain.GoodFit {
		t.Fatalf("recommendation: %s", result.Recommendation)
	}
	if result.JobID != f.job.ID || result.ApplicationID != application.ID {
		t.Fatalf("result references: %+v", result)
	}

	stored, err := f.store.ApplicationByID(ctx, application.ID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if stored.Status != domain.StatusUnderReview {
		t.Fatalf("status after screening: %s", stored.Status)
	}
	if stored.ScreenedAt == nil {
		t.Fatal("screened_at not stamped")
	}
}

func TestScreenApplicationRequiresJobOwner(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, stubResponse{text: analysisJSON(75)})
	application := f.addApplication(t, candidateID)

	_, err := f.engine.ScreenApplication(context.Background(), application.ID, "rec-2")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if f.completer.calls != 0 {
		t.Fatal("completion service should not be called")
	}
}

func TestScreenApplicationTwiceConflicts(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, stubResponse{text: analysisJSON(90)})
	ctx := context.Background()
	application := f.addApplication(t, candidateID)

	if _, err := f.engine.ScreenApplication(ctx, application.ID, recruiterID); err != nil {
		t.Fatalf("first screen: %v", err)
	}

	_, err := f.engine.ScreenApplication(ctx, application.ID, recruiterID)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if f.completer.calls != 1 {
		t.Fatalf("completion service called %d times, want 1", f.completer.calls)
	}

	results, err := f.store.ScreeningResultsByJob(ctx, f.job.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly one result, got %d", len(results))
	}
}

func TestConcurrentScreeningYieldsOneResult(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, stubResponse{text: analysisJSON(70)})
	ctx := context.Background()
	application := f.addApplication(t, candidateID)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.ScreenApplication(ctx, application.ID, recruiterID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, conflicted int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != attempts-1 {
		t.Fatalf("succeeded=%d conflicted=%d", succeeded, conflicted)
	}
}

func TestScoringFailurePersistsNothing(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, stubResponse{text: "not json at all"})
	ctx := context.Background()
	application := f.addApplication(t, candidateID)

	_, err := f.engine.ScreenApplication(ctx, application.ID, recruiterID)
	if !errors.Is(err, domain.ErrScoring) {
		t.Fatalf("expected scoring error, got %v", err)
	}

	if exists, _ := f.store.ScreeningResultExists(ctx, application.ID); exists {
		t.Fatal("no result may be persisted on scoring failure")
	}
	stored, err := f.store.ApplicationByID(ctx, application.ID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if stored.Status != domain.StatusPending {
		t.Fatalf("application status changed on failure: %s", stored.Status)
	}
	if stored.ScreenedAt != nil {
		t.Fatal("screened_at stamped on failure")
	}
}

func TestScreeningEvictsResultAndApplicationCaches(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, stubResponse{text: analysisJSON(85)})
	ctx := context.Background()
	application := f.addApplication(t, candidateID)

	// Prime stats and job result list caches with the pre-screening state.
	if _, err := f.engine.Statistics(ctx, f.job.ID); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if _, err := f.engine.ResultsForJob(ctx, f.job.ID); err != nil {
		t.Fatalf("results: %v", err)
	}

	if _, err := f.engine.ScreenApplication(ctx, application.ID, recruiterID); err != nil {
		t.Fatalf("screen: %v", err)
	}

	stats, err := f.engine.Statistics(ctx, f.job.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalScreened != 1 || stats.StrongFit != 1 {
		t.Fatalf("stale statistics: %+v", stats)
	}

	results, err := f.engine.ResultsForJob(ctx, f.job.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("stale result list: %+v", results)
	}
}

func TestBatchScreenPartialFailure(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t,
		stubResponse{text: analysisJSON(85)},
		stubResponse{err: errors.New("upstream unavailable")},
		stubResponse{text: analysisJSON(45)},
	)
	ctx := context.Background()

	first := f.addApplication(t, "cand-1")
	f.addApplication(t, "cand-2")
	f.addApplication(t, "cand-3")

	// Screen one up front so the batch has something to skip.
	if _, err := f.engine.ScreenApplication(ctx, first.ID, recruiterID); err != nil {
		t.Fatalf("pre-screen: %v", err)
	}

	results, summary, err := f.engine.BatchScreen(ctx, f.job.ID, recruiterID)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if summary.Screened != 1 || summary.Skipped != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	// Only the results produced by this run come back, so the list is
	// shorter than the number of unscreened applications.
	if len(results) != 1 {
		t.Fatalf("expected 1 produced result, got %d", len(results))
	}
	if results[0].MatchScore != 45 {
		t.Fatalf("unexpected result returned: %+v", results[0])
	}
}

func TestBatchScreenReturnsNewResults(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t,
		stubResponse{text: analysisJSON(85)},
		stubResponse{text: analysisJSON(45)},
	)
	ctx := context.Background()

	first := f.addApplication(t, "cand-1")
	second := f.addApplication(t, "cand-2")

	results, summary, err := f.engine.BatchScreen(ctx, f.job.ID, recruiterID)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if summary.Screened != 2 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 produced results, got %d", len(results))
	}
	want := map[string]bool{first.ID: true, second.ID: true}
	for _, result := range results {
		if !want[result.ApplicationID] {
			t.Fatalf("unexpected result for application %s", result.ApplicationID)
		}
	}
}

func TestBatchScreenRequiresJobOwner(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, stubResponse{text: analysisJSON(85)})
	f.addApplication(t, candidateID)

	_, _, err := f.engine.BatchScreen(context.Background(), f.job.ID, "rec-2")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestScreeningReleasesApplicationLock(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, stubResponse{text: analysisJSON(75)})
	ctx := context.Background()
	application := f.addApplication(t, candidateID)

	if _, err := f.engine.ScreenApplication(ctx, application.ID, recruiterID); err != nil {
		t.Fatalf("screen: %v", err)
	}
	if n := lockCount(f.engine); n != 0 {
		t.Fatalf("lock entries after screening: %d", n)
	}

	// A later attempt takes and releases a fresh lock.
	if _, err := f.engine.ScreenApplication(ctx, application.ID, recruiterID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if n := lockCount(f.engine); n != 0 {
		t.Fatalf("lock entries after conflict: %d", n)
	}
}

func lockCount(e *Engine) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.locks)
}

func TestResultByID(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, stubResponse{text: analysisJSON(75)})
	ctx := context.Background()
	application := f.addApplication(t, candidateID)

	result, err := f.engine.ScreenApplication(ctx, application.ID, recruiterID)
	if err != nil {
		t.Fatalf("screen: %v", err)
	}

	got, err := f.engine.ResultByID(ctx, result.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if got.ApplicationID != application.ID {
		t.Fatalf("unexpected result: %+v", got)
	}

	if _, err := f.engine.ResultByID(ctx, "absent"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTopCandidatesSortedByScore(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t,
		stubResponse{text: analysisJSON(45)},
		stubResponse{text: analysisJSON(90)},
		stubResponse{text: analysisJSON(70)},
	)
	ctx := context.Background()

	for _, candidate := range []string{"cand-1", "cand-2", "cand-3"} {
		application := f.addApplication(t, candidate)
		if _, err := f.engine.ScreenApplication(ctx, application.ID, recruiterID); err != nil {
			t.Fatalf("screen %s: %v", candidate, err)
		}
	}

	top, err := f.engine.TopCandidates(ctx, f.job.ID, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 results, got %d", len(top))
	}
	if top[0].MatchScore != 90 || top[1].MatchScore != 70 {
		t.Fatalf("unexpected order: %d, %d", top[0].MatchScore, top[1].MatchScore)
	}

	// The cached job list keeps its stored order.
	results, err := f.engine.ResultsForJob(ctx, f.job.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if results[0].MatchScore != 45 {
		t.Fatalf("cached list mutated by sorting: %d", results[0].MatchScore)
	}
}

func TestCandidatesByRecommendation(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t,
		stubResponse{text: analysisJSON(85)},
		stubResponse{text: analysisJSON(30)},
	)
	ctx := context.Background()

	for _, candidate := range []string{"cand-1", "cand-2"} {
		application := f.addApplication(t, candidate)
		if _, err := f.engine.ScreenApplication(ctx, application.ID, recruiterID); err != nil {
			t.Fatalf("screen %s: %v", candidate, err)
		}
	}

	strong, err := f.engine.CandidatesByRecommendation(ctx, f.job.ID, domain.StrongFit)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(strong) != 1 || strong[0].MatchScore != 85 {
		t.Fatalf("unexpected filtered results: %+v", strong)
	}
	if f.cache.Len() != 0 {
		t.Fatal("tier-filtered reads must not populate the cache")
	}
}

func TestStatisticsAggregates(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t,
		stubResponse{text: analysisJSON(85)},
		stubResponse{text: analysisJSON(65)},
		stubResponse{text: analysisJSON(30)},
	)
	ctx := context.Background()

	for _, candidate := range []string{"cand-1", "cand-2", "cand-3"} {
		application := f.addApplication(t, candidate)
		if _, err := f.engine.ScreenApplication(ctx, application.ID, recruiterID); err != nil {
			t.Fatalf("screen %s: %v", candidate, err)
		}
	}

	stats, err := f.engine.Statistics(ctx, f.job.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalScreened != 3 {
		t.Fatalf("total: %d", stats.TotalScreened)
	}
	if stats.StrongFit != 1 || stats.GoodFit != 1 || stats.PoorFit != 1 || stats.ModerateFit != 0 {
		t.Fatalf("tier counts: %+v", stats)
	}
	if stats.AverageScore != 60 {
		t.Fatalf("average: %v", stats.AverageScore)
	}
}

func TestStatisticsEmptyJob(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t)

	stats, err := f.engine.Statistics(context.Background(), f.job.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalScreened != 0 || stats.AverageScore != 0 {
		t.Fatalf("expected zero statistics, got %+v", stats)
	}
}

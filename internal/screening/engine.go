// Package screening implements scoring of applications against job postings
// through a language-model completion service, plus the cached read paths
// over the resulting screening data.
package screening

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hirescreen/hirescreen/internal/ai"
	"github.com/hirescreen/hirescreen/internal/cache"
	"github.com/hirescreen/hirescreen/internal/domain"
	"github.com/hirescreen/hirescreen/internal/store"
	"github.com/hirescreen/hirescreen/internal/utils"
)

const (
	defaultTimeout   = 2 * time.Minute
	maxLogTextLength = 200
)

// Engine screens applications. Screening is idempotent per application: at
// most one result ever exists, enforced by a per-application lock around the
// check-then-insert and by the store's uniqueness constraint underneath it.
type Engine struct {
	store     store.Store
	completer ai.Completer
	cache     cache.Cache
	logger    *zap.Logger
	timeout   time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine wires a screening engine. A non-positive timeout falls back to
// the default completion deadline.
func NewEngine(st store.Store, completer ai.Completer, c cache.Cache, logger *zap.Logger, timeout time.Duration) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Engine{
		store:     st,
		completer: completer,
		cache:     c,
		logger:    logger,
		timeout:   timeout,
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockApplication serializes screening attempts per application id and
// returns the unlock func.
func (e *Engine) lockApplication(id string) func() {
	e.mu.Lock()
	lock, ok := e.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[id] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// forgetLock drops an application's lock entry once a result exists. Later
// attempts take a fresh mutex and hit the store's uniqueness check instead.
func (e *Engine) forgetLock(id string) {
	e.mu.Lock()
	delete(e.locks, id)
	e.mu.Unlock()
}

// ScreenApplication scores one application. The recruiter must own the job
// the application targets. A second screening attempt is a conflict; scoring
// failures persist nothing and leave the application unchanged.
func (e *Engine) ScreenApplication(ctx context.Context, applicationID, recruiterID string) (*domain.ScreeningResult, error) {
	application, err := e.store.ApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	job, err := e.store.JobByID(ctx, application.JobID)
	if err != nil {
		return nil, err
	}
	if job.RecruiterID != recruiterID {
		return nil, fmt.Errorf("%w: job %s is not owned by user %s", domain.ErrForbidden, job.ID, recruiterID)
	}

	unlock := e.lockApplication(applicationID)
	defer unlock()

	screened, err := e.store.ScreeningResultExists(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if screened {
		e.forgetLock(applicationID)
		return nil, fmt.Errorf("%w: application %s is already screened", domain.ErrConflict, applicationID)
	}

	resume, err := e.store.ResumeByID(ctx, application.ResumeID)
	if err != nil {
		return nil, err
	}

	result, err := e.score(ctx, job, application, resume)
	if err != nil {
		return nil, err
	}

	if err := e.store.CreateScreeningResult(ctx, result); err != nil {
		return nil, err
	}
	e.forgetLock(applicationID)

	// Screening moves a PENDING application into review. An application
	// already transitioned further keeps its status.
	if application.Status == domain.StatusPending {
		application.Status = domain.StatusUnderReview
	}
	if application.ScreenedAt == nil {
		now := time.Now().UTC()
		application.ScreenedAt = &now
	}
	if err := e.store.SaveApplication(ctx, application); err != nil {
		return nil, err
	}

	e.evictAfterScreening(application)

	e.logger.Info("application screened",
		zap.String("application_id", applicationID),
		zap.String("job_id", job.ID),
		zap.Int("match_score", result.MatchScore),
		zap.String("recommendation", string(result.Recommendation)),
		zap.Int64("processing_time_ms", result.ProcessingTimeMs),
	)
	return result, nil
}

// score builds the prompt, calls the completion service under the engine
// deadline and converts the analysis into a result record.
func (e *Engine) score(ctx context.Context, job *domain.JobPosting, application *domain.Application, resume *domain.Resume) (*domain.ScreeningResult, error) {
	prompt := buildPrompt(job, resume)

	e.logger.Debug("screening prompt built",
		zap.String("application_id", application.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, maxLogTextLength)),
	)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()
	raw, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: completion service: %v", domain.ErrScoring, err)
	}
	elapsed := time.Since(started)

	e.logger.Debug("completion response received",
		zap.String("application_id", application.ID),
		zap.Duration("elapsed", elapsed),
		zap.String("response_preview", utils.TruncateForLog(raw, maxLogTextLength)),
	)

	a, err := parseAnalysis(raw)
	if err != nil {
		return nil, err
	}

	overall := *a.OverallScore
	return &domain.ScreeningResult{
		ApplicationID:        application.ID,
		JobID:                job.ID,
		MatchScore:           int(overall),
		SkillMatchScore:      int(*a.SkillMatchScore),
		ExperienceMatchScore: int(*a.ExperienceMatchScore),
		EducationMatchScore:  int(*a.EducationMatchScore),
		Recommendation:       domain.RecommendationFor(overall),
		MatchedSkills:        a.MatchedSkills,
		MissingSkills:        a.MissingSkills,
		KeyHighlights:        a.KeyHighlights,
		Strengths:            a.Strengths,
		Weaknesses:           a.Weaknesses,
		Analysis:             a.Summary,
		ProcessingTimeMs:     elapsed.Milliseconds(),
	}, nil
}

// BatchSummary reports the outcome of a batch screening run.
type BatchSummary struct {
	Screened int `json:"screened"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// BatchScreen screens every unscreened application of a job sequentially and
// returns the results it produced. Already screened applications are skipped,
// and a failing application is logged and skipped rather than aborting the
// rest of the batch, so the returned list may be shorter than the job's
// unscreened application count.
func (e *Engine) BatchScreen(ctx context.Context, jobID, recruiterID string) ([]*domain.ScreeningResult, *BatchSummary, error) {
	job, err := e.store.JobByID(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if job.RecruiterID != recruiterID {
		return nil, nil, fmt.Errorf("%w: job %s is not owned by user %s", domain.ErrForbidden, jobID, recruiterID)
	}

	applications, err := e.store.ApplicationsByJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}

	results := make([]*domain.ScreeningResult, 0, len(applications))
	summary := &BatchSummary{}
	for _, application := range applications {
		if err := ctx.Err(); err != nil {
			return results, summary, err
		}

		result, err := e.ScreenApplication(ctx, application.ID, recruiterID)
		switch {
		case err == nil:
			results = append(results, result)
			summary.Screened++
		case errors.Is(err, domain.ErrConflict):
			summary.Skipped++
		default:
			summary.Failed++
			e.logger.Warn("batch screening item failed",
				zap.String("application_id", application.ID),
				zap.String("job_id", jobID),
				zap.Error(err),
			)
		}
	}

	e.logger.Info("batch screening finished",
		zap.String("job_id", jobID),
		zap.Int("screened", summary.Screened),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return results, summary, nil
}

// ResultByID looks up one result by its own id. Uncached; the by-application
// key is the hot path.
func (e *Engine) ResultByID(ctx context.Context, resultID string) (*domain.ScreeningResult, error) {
	return e.store.ScreeningResultByID(ctx, resultID)
}

// ResultByApplicationID is a read-through cached lookup of one result.
func (e *Engine) ResultByApplicationID(ctx context.Context, applicationID string) (*domain.ScreeningResult, error) {
	key := cache.ResultKey(applicationID)
	if result, ok := cache.Lookup[*domain.ScreeningResult](e.cache, key); ok {
		return result, nil
	}

	result, err := e.store.ScreeningResultByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	e.cache.Set(key, result)
	return result, nil
}

// ResultsForJob is a read-through cached list of a job's results.
func (e *Engine) ResultsForJob(ctx context.Context, jobID string) ([]*domain.ScreeningResult, error) {
	key := cache.JobResultsKey(jobID)
	if results, ok := cache.Lookup[[]*domain.ScreeningResult](e.cache, key); ok {
		return results, nil
	}

	results, err := e.store.ScreeningResultsByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	e.cache.Set(key, results)
	return results, nil
}

// TopCandidates returns a job's results ordered by match score, best first,
// limited to the requested count. The cached job list is left untouched.
func (e *Engine) TopCandidates(ctx context.Context, jobID string, limit int) ([]*domain.ScreeningResult, error) {
	results, err := e.ResultsForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	sorted := make([]*domain.ScreeningResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MatchScore > sorted[j].MatchScore
	})

	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// CandidatesByRecommendation filters a job's results by tier. Never cached;
// the tier dimension would multiply the key space.
func (e *Engine) CandidatesByRecommendation(ctx context.Context, jobID string, rec domain.Recommendation) ([]*domain.ScreeningResult, error) {
	results, err := e.store.ScreeningResultsByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	filtered := make([]*domain.ScreeningResult, 0, len(results))
	for _, result := range results {
		if result.Recommendation == rec {
			filtered = append(filtered, result)
		}
	}
	return filtered, nil
}

// Statistics aggregates a job's screening results, cached per job.
func (e *Engine) Statistics(ctx context.Context, jobID string) (*domain.ScreeningStatistics, error) {
	key := cache.JobStatsKey(jobID)
	if stats, ok := cache.Lookup[*domain.ScreeningStatistics](e.cache, key); ok {
		return stats, nil
	}

	results, err := e.store.ScreeningResultsByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	stats := aggregate(results)
	e.cache.Set(key, stats)
	return stats, nil
}

// aggregate derives counts and the mean score. An empty result set yields
// all-zero statistics rather than an error.
func aggregate(results []*domain.ScreeningResult) *domain.ScreeningStatistics {
	stats := &domain.ScreeningStatistics{TotalScreened: len(results)}
	if len(results) == 0 {
		return stats
	}

	var sum int
	for _, result := range results {
		sum += result.MatchScore
		switch result.Recommendation {
		case domain.StrongFit:
			stats.StrongFit++
		case domain.GoodFit:
			stats.GoodFit++
		case domain.ModerateFit:
			stats.ModerateFit++
		case domain.PoorFit:
			stats.PoorFit++
		}
	}
	stats.AverageScore = float64(sum) / float64(len(results))
	return stats
}

// evictAfterScreening drops every cache entry a fresh result invalidates:
// the result keyspaces and, because screening also advances the application
// status, the application entry and list keyspaces.
func (e *Engine) evictAfterScreening(application *domain.Application) {
	e.cache.Evict(
		cache.ResultKey(application.ID),
		cache.JobResultsKey(application.JobID),
		cache.JobStatsKey(application.JobID),
		cache.ApplicationKey(application.ID),
		cache.JobApplicationsKey(application.JobID),
		cache.CandidateApplicationsKey(application.CandidateID),
	)
}

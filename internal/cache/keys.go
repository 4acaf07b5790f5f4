package cache

// Key builders for every cached query. Paginated, sorted, searched or
// multi-valued-filter reads are never cached because their key space is
// unbounded and cannot be evicted precisely.

const (
	// CandidateApplicationsPrefix covers every cached per-candidate
	// application list.
	CandidateApplicationsPrefix = "apps:candidate:"
	// JobApplicationsPrefix covers every cached per-job application list.
	JobApplicationsPrefix = "apps:job:"
)

// JobKey caches a single job posting by id.
func JobKey(jobID string) string { return "job:" + jobID }

// RecruiterJobsKey caches a recruiter's active job list.
func RecruiterJobsKey(recruiterID string) string { return "jobs:user:" + recruiterID }

// ApplicationKey caches a single application by id.
func ApplicationKey(applicationID string) string { return "app:" + applicationID }

// CandidateApplicationsKey caches a candidate's application list.
func CandidateApplicationsKey(candidateID string) string {
	return CandidateApplicationsPrefix + candidateID
}

// JobApplicationsKey caches a job's application list.
func JobApplicationsKey(jobID string) string { return JobApplicationsPrefix + jobID }

// ResultKey caches the screening result of one application.
func ResultKey(applicationID string) string { return "result:app:" + applicationID }

// JobResultsKey caches a job's screening result list.
func JobResultsKey(jobID string) string { return "results:job:" + jobID }

// JobStatsKey caches a job's screening statistics.
func JobStatsKey(jobID string) string { return "stats:job:" + jobID }

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hirescreen/hirescreen/internal/domain"
)

// Gorm is a Postgres-backed Store. The unique indexes on applications
// (job+candidate) and screening results (application) are the storage-level
// backstop for the invariants the services also check explicitly.
type Gorm struct {
	db *gorm.DB
}

type userRecord struct {
	ID        string `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex;not null"`
	FullName  string
	Role      string
	CreatedAt time.Time
}

func (userRecord) TableName() string { return "users" }

type jobRecord struct {
	ID              string `gorm:"primaryKey"`
	RecruiterID     string `gorm:"index;not null"`
	Title           string `gorm:"not null"`
	Description     string `gorm:"type:text"`
	RequiredSkills  datatypes.JSON
	ExperienceLevel string
	EmploymentType  string
	Location        string
	SalaryRange     string
	CompanyName     string
	Active          bool `gorm:"index"`
	CreatedAt       time.Time
}

func (jobRecord) TableName() string { return "job_postings" }

type resumeRecord struct {
	ID         string `gorm:"primaryKey"`
	UserID     string `gorm:"index;not null"`
	RawText    string `gorm:"type:text"`
	Parsed     datatypes.JSON
	UploadedAt time.Time
}

func (resumeRecord) TableName() string { return "resumes" }

type applicationRecord struct {
	ID          string `gorm:"primaryKey"`
	JobID       string `gorm:"not null;uniqueIndex:idx_job_candidate"`
	CandidateID string `gorm:"not null;uniqueIndex:idx_job_candidate;index"`
	ResumeID    string `gorm:"not null"`
	Status      string `gorm:"not null"`
	CoverLetter string `gorm:"type:text"`
	AppliedAt   time.Time
	UpdatedAt   time.Time
	ScreenedAt  *time.Time
}

func (applicationRecord) TableName() string { return "applications" }

type screeningResultRecord struct {
	ID                   string `gorm:"primaryKey"`
	ApplicationID        string `gorm:"not null;uniqueIndex"`
	JobID                string `gorm:"index;not null"`
	MatchScore           int
	SkillMatchScore      int
	ExperienceMatchScore int
	EducationMatchScore  int
	Recommendation       string
	MatchedSkills        datatypes.JSON
	MissingSkills        datatypes.JSON
	KeyHighlights        datatypes.JSON
	Strengths            string `gorm:"type:text"`
	Weaknesses           string `gorm:"type:text"`
	Analysis             string `gorm:"type:text"`
	ProcessingTimeMs     int64
	CreatedAt            time.Time
}

func (screeningResultRecord) TableName() string { return "screening_results" }

// OpenGorm connects to Postgres and migrates the schema.
func OpenGorm(dsn string) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.AutoMigrate(
		&userRecord{},
		&jobRecord{},
		&resumeRecord{},
		&applicationRecord{},
		&screeningResultRecord{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Gorm{db: db}, nil
}

func translate(err error, what string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s already exists: %w", what, domain.ErrConflict)
	default:
		return fmt.Errorf("%s: %w: %v", what, domain.ErrInternal, err)
	}
}

func (g *Gorm) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	record := userRecord{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
	if err := g.db.WithContext(ctx).Create(&record).Error; err != nil {
		return translate(err, "user")
	}
	return nil
}

func (g *Gorm) UserByID(ctx context.Context, id string) (*domain.User, error) {
	var record userRecord
	if err := g.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("user %s", id))
	}
	return &domain.User{
		ID:        record.ID,
		Email:     record.Email,
		FullName:  record.FullName,
		Role:      domain.Role(record.Role),
		CreatedAt: record.CreatedAt,
	}, nil
}

func (g *Gorm) CreateJob(ctx context.Context, job *domain.JobPosting) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	record, err := toJobRecord(job)
	if err != nil {
		return err
	}
	if err := g.db.WithContext(ctx).Create(record).Error; err != nil {
		return translate(err, "job")
	}
	return nil
}

func (g *Gorm) JobByID(ctx context.Context, id string) (*domain.JobPosting, error) {
	var record jobRecord
	if err := g.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("job %s", id))
	}
	return fromJobRecord(&record)
}

func (g *Gorm) SaveJob(ctx context.Context, job *domain.JobPosting) error {
	record, err := toJobRecord(job)
	if err != nil {
		return err
	}
	result := g.db.WithContext(ctx).Model(&jobRecord{}).Where("id = ?", job.ID).
		Select("*").Omit("id", "created_at").Updates(record)
	if result.Error != nil {
		return translate(result.Error, fmt.Sprintf("job %s", job.ID))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job %s: %w", job.ID, domain.ErrNotFound)
	}
	return nil
}

func (g *Gorm) DeleteJob(ctx context.Context, id string) error {
	result := g.db.WithContext(ctx).Delete(&jobRecord{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error, fmt.Sprintf("job %s", id))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (g *Gorm) ActiveJobsByRecruiter(ctx context.Context, recruiterID string) ([]*domain.JobPosting, error) {
	var records []jobRecord
	err := g.db.WithContext(ctx).
		Where("recruiter_id = ? AND active", recruiterID).
		Order("created_at").
		Find(&records).Error
	if err != nil {
		return nil, translate(err, "jobs by recruiter")
	}
	return fromJobRecords(records)
}

func (g *Gorm) ActiveJobs(ctx context.Context, limit, offset int) ([]*domain.JobPosting, error) {
	query := g.db.WithContext(ctx).Where("active").Order("created_at").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []jobRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, translate(err, "active jobs")
	}
	return fromJobRecords(records)
}

func (g *Gorm) CreateResume(ctx context.Context, resume *domain.Resume) error {
	if resume.ID == "" {
		resume.ID = uuid.NewString()
	}
	if resume.UploadedAt.IsZero() {
		resume.UploadedAt = time.Now().UTC()
	}
	record := resumeRecord{
		ID:         resume.ID,
		UserID:     resume.UserID,
		RawText:    resume.RawText,
		UploadedAt: resume.UploadedAt,
	}
	if resume.Parsed != nil {
		parsed, err := json.Marshal(resume.Parsed)
		if err != nil {
			return fmt.Errorf("encode parsed resume: %w: %v", domain.ErrInternal, err)
		}
		record.Parsed = parsed
	}
	if err := g.db.WithContext(ctx).Create(&record).Error; err != nil {
		return translate(err, "resume")
	}
	return nil
}

func (g *Gorm) ResumeByID(ctx context.Context, id string) (*domain.Resume, error) {
	var record resumeRecord
	if err := g.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("resume %s", id))
	}
	resume := &domain.Resume{
		ID:         record.ID,
		UserID:     record.UserID,
		RawText:    record.RawText,
		UploadedAt: record.UploadedAt,
	}
	if len(record.Parsed) > 0 {
		var parsed domain.ParsedResume
		if err := json.Unmarshal(record.Parsed, &parsed); err != nil {
			return nil, fmt.Errorf("decode parsed resume: %w: %v", domain.ErrInternal, err)
		}
		resume.Parsed = &parsed
	}
	return resume, nil
}

func (g *Gorm) CreateApplication(ctx context.Context, application *domain.Application) error {
	if application.ID == "" {
		application.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if application.AppliedAt.IsZero() {
		application.AppliedAt = now
	}
	application.UpdatedAt = now

	record := toApplicationRecord(application)
	if err := g.db.WithContext(ctx).Create(record).Error; err != nil {
		return translate(err, "application")
	}
	return nil
}

func (g *Gorm) ApplicationByID(ctx context.Context, id string) (*domain.Application, error) {
	var record applicationRecord
	if err := g.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("application %s", id))
	}
	return fromApplicationRecord(&record), nil
}

func (g *Gorm) SaveApplication(ctx context.Context, application *domain.Application) error {
	application.UpdatedAt = time.Now().UTC()
	record := toApplicationRecord(application)
	result := g.db.WithContext(ctx).Model(&applicationRecord{}).Where("id = ?", application.ID).
		Select("*").Omit("id", "applied_at").Updates(record)
	if result.Error != nil {
		return translate(result.Error, fmt.Sprintf("application %s", application.ID))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("application %s: %w", application.ID, domain.ErrNotFound)
	}
	return nil
}

func (g *Gorm) ApplicationsByJob(ctx context.Context, jobID string) ([]*domain.Application, error) {
	return g.listApplications(ctx, "job_id = ?", jobID)
}

func (g *Gorm) ApplicationsByCandidate(ctx context.Context, candidateID string) ([]*domain.Application, error) {
	return g.listApplications(ctx, "candidate_id = ?", candidateID)
}

func (g *Gorm) ApplicationsByJobAndStatus(ctx context.Context, jobID string, status domain.ApplicationStatus) ([]*domain.Application, error) {
	return g.listApplications(ctx, "job_id = ? AND status = ?", jobID, string(status))
}

func (g *Gorm) listApplications(ctx context.Context, query string, args ...any) ([]*domain.Application, error) {
	var records []applicationRecord
	err := g.db.WithContext(ctx).Where(query, args...).Order("applied_at").Find(&records).Error
	if err != nil {
		return nil, translate(err, "applications")
	}
	applications := make([]*domain.Application, 0, len(records))
	for i := range records {
		applications = append(applications, fromApplicationRecord(&records[i]))
	}
	return applications, nil
}

func (g *Gorm) ApplicationExists(ctx context.Context, jobID, candidateID string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&applicationRecord{}).
		Where("job_id = ? AND candidate_id = ?", jobID, candidateID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "application existence")
	}
	return count > 0, nil
}

func (g *Gorm) CountApplicationsByJob(ctx context.Context, jobID string) (int64, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&applicationRecord{}).
		Where("job_id = ?", jobID).
		Count(&count).Error
	if err != nil {
		return 0, translate(err, "application count")
	}
	return count, nil
}

func (g *Gorm) CreateScreeningResult(ctx context.Context, result *domain.ScreeningResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
	record, err := toResultRecord(result)
	if err != nil {
		return err
	}
	if err := g.db.WithContext(ctx).Create(record).Error; err != nil {
		return translate(err, fmt.Sprintf("screening result for application %s", result.ApplicationID))
	}
	return nil
}

func (g *Gorm) ScreeningResultByID(ctx context.Context, id string) (*domain.ScreeningResult, error) {
	var record screeningResultRecord
	if err := g.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("screening result %s", id))
	}
	return fromResultRecord(&record)
}

func (g *Gorm) ScreeningResultByApplicationID(ctx context.Context, applicationID string) (*domain.ScreeningResult, error) {
	var record screeningResultRecord
	err := g.db.WithContext(ctx).First(&record, "application_id = ?", applicationID).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("screening result for application %s", applicationID))
	}
	return fromResultRecord(&record)
}

func (g *Gorm) ScreeningResultsByJob(ctx context.Context, jobID string) ([]*domain.ScreeningResult, error) {
	var records []screeningResultRecord
	err := g.db.WithContext(ctx).Where("job_id = ?", jobID).Order("created_at").Find(&records).Error
	if err != nil {
		return nil, translate(err, "screening results")
	}
	results := make([]*domain.ScreeningResult, 0, len(records))
	for i := range records {
		result, err := fromResultRecord(&records[i])
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (g *Gorm) ScreeningResultExists(ctx context.Context, applicationID string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&screeningResultRecord{}).
		Where("application_id = ?", applicationID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "screening result existence")
	}
	return count > 0, nil
}

func toJobRecord(job *domain.JobPosting) (*jobRecord, error) {
	skills, err := json.Marshal(job.RequiredSkills)
	if err != nil {
		return nil, fmt.Errorf("encode required skills: %w: %v", domain.ErrInternal, err)
	}
	return &jobRecord{
		ID:              job.ID,
		RecruiterID:     job.RecruiterID,
		Title:           job.Title,
		Description:     job.Description,
		RequiredSkills:  skills,
		ExperienceLevel: string(job.ExperienceLevel),
		EmploymentType:  string(job.EmploymentType),
		Location:        job.Location,
		SalaryRange:     job.SalaryRange,
		CompanyName:     job.CompanyName,
		Active:          job.Active,
		CreatedAt:       job.CreatedAt,
	}, nil
}

func fromJobRecord(record *jobRecord) (*domain.JobPosting, error) {
	var skills []string
	if len(record.RequiredSkills) > 0 {
		if err := json.Unmarshal(record.RequiredSkills, &skills); err != nil {
			return nil, fmt.Errorf("decode required skills: %w: %v", domain.ErrInternal, err)
		}
	}
	return &domain.JobPosting{
		ID:              record.ID,
		RecruiterID:     record.RecruiterID,
		Title:           record.Title,
		Description:     record.Description,
		RequiredSkills:  skills,
		ExperienceLevel: domain.ExperienceLevel(record.ExperienceLevel),
		EmploymentType:  domain.EmploymentType(record.EmploymentType),
		Location:        record.Location,
		SalaryRange:     record.SalaryRange,
		CompanyName:     record.CompanyName,
		Active:          record.Active,
		CreatedAt:       record.CreatedAt,
	}, nil
}

func fromJobRecords(records []jobRecord) ([]*domain.JobPosting, error) {
	jobs := make([]*domain.JobPosting, 0, len(records))
	for i := range records {
		job, err := fromJobRecord(&records[i])
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func toApplicationRecord(application *domain.Application) *applicationRecord {
	return &applicationRecord{
		ID:          application.ID,
		JobID:       application.JobID,
		CandidateID: application.CandidateID,
		ResumeID:    application.ResumeID,
		Status:      string(application.Status),
		CoverLetter: application.CoverLetter,
		AppliedAt:   application.AppliedAt,
		UpdatedAt:   application.UpdatedAt,
		ScreenedAt:  application.ScreenedAt,
	}
}

func fromApplicationRecord(record *applicationRecord) *domain.Application {
	return &domain.Application{
		ID:          record.ID,
		JobID:       record.JobID,
		CandidateID: record.CandidateID,
		ResumeID:    record.ResumeID,
		Status:      domain.ApplicationStatus(record.Status),
		CoverLetter: record.CoverLetter,
		AppliedAt:   record.AppliedAt,
		UpdatedAt:   record.UpdatedAt,
		ScreenedAt:  record.ScreenedAt,
	}
}

func toResultRecord(result *domain.ScreeningResult) (*screeningResultRecord, error) {
	matched, err := json.Marshal(result.MatchedSkills)
	if err != nil {
		return nil, fmt.Errorf("encode matched skills: %w: %v", domain.ErrInternal, err)
	}
	missing, err := json.Marshal(result.MissingSkills)
	if err != nil {
		return nil, fmt.Errorf("encode missing skills: %w: %v", domain.ErrInternal, err)
	}
	highlights, err := json.Marshal(result.KeyHighlights)
	if err != nil {
		return nil, fmt.Errorf("encode key highlights: %w: %v", domain.ErrInternal, err)
	}
	return &screeningResultRecord{
		ID:                   result.ID,
		ApplicationID:        result.ApplicationID,
		JobID:                result.JobID,
		MatchScore:           result.MatchScore,
		SkillMatchScore:      result.SkillMatchScore,
		ExperienceMatchScore: result.ExperienceMatchScore,
		EducationMatchScore:  result.EducationMatchScore,
		Recommendation:       string(result.Recommendation),
		MatchedSkills:        matched,
		MissingSkills:        missing,
		KeyHighlights:        highlights,
		Strengths:            result.Strengths,
		Weaknesses:           result.Weaknesses,
		Analysis:             result.Analysis,
		ProcessingTimeMs:     result.ProcessingTimeMs,
		CreatedAt:            result.CreatedAt,
	}, nil
}

func fromResultRecord(record *screeningResultRecord) (*domain.ScreeningResult, error) {
	result := &domain.ScreeningResult{
		ID:                   record.ID,
		ApplicationID:        record.ApplicationID,
		JobID:                record.JobID,
		MatchScore:           record.MatchScore,
		SkillMatchScore:      record.SkillMatchScore,
		ExperienceMatchScore: record.ExperienceMatchScore,
		EducationMatchScore:  record.EducationMatchScore,
		Recommendation:       domain.Recommendation(record.Recommendation),
		Strengths:            record.Strengths,
		Weaknesses:           record.Weaknesses,
		Analysis:             record.Analysis,
		ProcessingTimeMs:     record.ProcessingTimeMs,
		CreatedAt:            record.CreatedAt,
	}
	for _, pair := range []struct {
		raw  datatypes.JSON
		dest *[]string
	}{
		{record.MatchedSkills, &result.MatchedSkills},
		{record.MissingSkills, &result.MissingSkills},
		{record.KeyHighlights, &result.KeyHighlights},
	} {
		if len(pair.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(pair.raw, pair.dest); err != nil {
			return nil, fmt.Errorf("decode screening result lists: %w: %v", domain.ErrInternal, err)
		}
	}
	return result, nil
}

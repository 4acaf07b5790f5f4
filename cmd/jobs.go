package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hirescreen/hirescreen/internal/domain"
	"github.com/hirescreen/hirescreen/internal/jobs"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage job postings",
}

var jobCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a job posting",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		a, err := newApp(ctx, false)
		if err != nil {
			log.Fatalf("initializing: %s", err)
		}

		userID, err := a.requireUser()
		if err != nil {
			a.logger.Fatal("resolving acting user", zap.Error(err))
		}

		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		skills, _ := cmd.Flags().GetStringSlice("skills")
		location, _ := cmd.Flags().GetString("location")
		salary, _ := cmd.Flags().GetString("salary")
		company, _ := cmd.Flags().GetString("company")

		rawLevel, _ := cmd.Flags().GetString("level")
		level, err := domain.ParseExperienceLevel(rawLevel)
		if err != nil {
			a.logger.Fatal("parsing experience level", zap.Error(err))
		}
		rawType, _ := cmd.Flags().GetString("type")
		employment, err := domain.ParseEmploymentType(rawType)
		if err != nil {
			a.logger.Fatal("parsing employment type", zap.Error(err))
		}

		job, err := a.jobs.Create(ctx, userID, jobs.CreateParams{
			Title:           title,
			Description:     description,
			RequiredSkills:  skills,
			ExperienceLevel: level,
			EmploymentType:  employment,
			Location:        location,
			SalaryRange:     salary,
			CompanyName:     company,
		})
		if err != nil {
			a.logger.Fatal("creating job", zap.Error(err))
		}

		if err := printJSON(job); err != nil {
			a.logger.Fatal("rendering job", zap.Error(err))
		}
	},
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active job postings",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		a, err := newApp(ctx, false)
		if err != nil {
			log.Fatalf("initializing: %s", err)
		}

		mine, _ := cmd.Flags().GetBool("mine")
		var list []*domain.JobPosting
		if mine {
			userID, err := a.requireUser()
			if err != nil {
				a.logger.Fatal("resolving acting user", zap.Error(err))
			}
			list, err = a.jobs.ActiveJobsByRecruiter(ctx, userID)
			if err != nil {
				a.logger.Fatal("listing jobs", zap.Error(err))
			}
		} else {
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			list, err = a.jobs.ActiveJobs(ctx, limit, offset)
			if err != nil {
				a.logger.Fatal("listing jobs", zap.Error(err))
			}
		}

		if err := printJSON(list); err != nil {
			a.logger.Fatal("rendering jobs", zap.Error(err))
		}
	},
}

var jobDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Stop accepting applications for a job",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		a, err := newApp(ctx, false)
		if err != nil {
			log.Fatalf("initializing: %s", err)
		}

		userID, err := a.requireUser()
		if err != nil {
			a.logger.Fatal("resolving acting user", zap.Error(err))
		}

		jobID, _ := cmd.Flags().GetString("job")
		if jobID == "" {
			a.logger.Fatal("--job is required")
		}

		if err := a.jobs.Deactivate(ctx, jobID, userID); err != nil {
			a.logger.Fatal("deactivating job", zap.Error(err))
		}

		a.logger.Info("job posting deactivated", zap.String("job_id", jobID))
	},
}

func init() {
	rootCmd.AddCommand(jobCmd)
	jobCmd.AddCommand(jobCreateCmd)
	jobCmd.AddCommand(jobListCmd)
	jobCmd.AddCommand(jobDeactivateCmd)

	jobCreateCmd.Flags().StringP("title", "t", "", "job title")
	jobCreateCmd.Flags().String("description", "", "job description")
	jobCreateCmd.Flags().StringSlice("skills", nil, "required skills, comma separated")
	jobCreateCmd.Flags().String("level", "MID", "experience level (ENTRY, MID, SENIOR, LEAD)")
	jobCreateCmd.Flags().String("type", "FULL_TIME", "employment type (FULL_TIME, PART_TIME, CONTRACT, INTERNSHIP)")
	jobCreateCmd.Flags().String("location", "", "job location")
	jobCreateCmd.Flags().String("salary", "", "salary range")
	jobCreateCmd.Flags().String("company", "", "company name")

	jobListCmd.Flags().Bool("mine", false, "list only jobs owned by the acting user")
	jobListCmd.Flags().IntP("limit", "n", 20, "maximum number of jobs to list")
	jobListCmd.Flags().Int("offset", 0, "number of jobs to skip")

	jobDeactivateCmd.Flags().StringP("job", "J", "", "id of the job")
}

package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hirescreen/hirescreen/internal/domain"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Submit a resume against a job posting",
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
		resumeID, _ := cmd.Flags().GetString("resume")
		if jobID == "" || resumeID == "" {
			a.logger.Fatal("--job and --resume are required")
		}
		coverLetter, _ := cmd.Flags().GetString("cover-letter")

		application, err := a.applications.Apply(ctx, userID, jobID, resumeID, coverLetter)
		if err != nil {
			a.logger.Fatal("submitting application", zap.Error(err))
		}

		if err := printJSON(application); err != nil {
			a.logger.Fatal("rendering application", zap.Error(err))
		}
	},
}

var transitionCmd = &cobra.Command{
	Use:   "transition",
	Short: "Move an application to a new status",
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

		applicationID, _ := cmd.Flags().GetString("application")
		rawStatus, _ := cmd.Flags().GetString("status")
		if applicationID == "" || rawStatus == "" {
			a.logger.Fatal("--application and --status are required")
		}

		status, err := domain.ParseApplicationStatus(rawStatus)
		if err != nil {
			a.logger.Fatal("parsing status", zap.Error(err))
		}

		application, err := a.applications.TransitionStatus(ctx, applicationID, userID, status)
		if err != nil {
			a.logger.Fatal("transitioning application", zap.Error(err))
		}

		if err := printJSON(application); err != nil {
			a.logger.Fatal("rendering application", zap.Error(err))
		}
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw your own application",
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

		applicationID, _ := cmd.Flags().GetString("application")
		if applicationID == "" {
			a.logger.Fatal("--application is required")
		}

		application, err := a.applications.Withdraw(ctx, applicationID, userID)
		if err != nil {
			a.logger.Fatal("withdrawing application", zap.Error(err))
		}

		if err := printJSON(application); err != nil {
			a.logger.Fatal("rendering application", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(transitionCmd)
	rootCmd.AddCommand(withdrawCmd)

	applyCmd.Flags().StringP("job", "J", "", "id of the job to apply to")
	applyCmd.Flags().StringP("resume", "r", "", "id of the resume to submit")
	applyCmd.Flags().StringP("cover-letter", "m", "", "optional cover letter text")

	transitionCmd.Flags().StringP("application", "a", "", "id of the application")
	transitionCmd.Flags().StringP("status", "s", "", "target status (e.g. SHORTLISTED)")

	withdrawCmd.Flags().StringP("application", "a", "", "id of the application")
}

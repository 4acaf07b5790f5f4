package cmd

import (
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hirescreen/hirescreen/internal/domain"
	"github.com/hirescreen/hirescreen/internal/screening"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var confirmPrompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptYes, PromptNo},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Screen every unscreened application of a job",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		a, err := newApp(ctx, true)
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

		pending, err := a.applications.ApplicationsForJob(ctx, jobID, userID)
		if err != nil {
			a.logger.Fatal("listing applications", zap.Error(err))
		}
		a.logger.Info("applications found for job",
			zap.String("job_id", jobID),
			zap.Int("count", len(pending)),
		)
		if len(pending) == 0 {
			return
		}

		autoApprove, _ := cmd.Flags().GetBool("auto-approve")
		if !autoApprove {
			_, answer, err := confirmPrompt.Run()
			if err != nil {
				a.logger.Fatal("running confirmation prompt", zap.Error(err))
			}
			if answer != PromptYes {
				a.logger.Info("batch screening cancelled")
				return
			}
		}

		results, summary, err := a.engine.BatchScreen(ctx, jobID, userID)
		if err != nil {
			a.logger.Fatal("batch screening", zap.Error(err))
		}

		out := struct {
			Summary *screening.BatchSummary   `json:"summary"`
			Results []*domain.ScreeningResult `json:"results"`
		}{Summary: summary, Results: results}
		if err := printJSON(out); err != nil {
			a.logger.Fatal("rendering summary", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("job", "J", "", "id of the job whose applications to screen")
	batchCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before screening")
}

package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hirescreen/hirescreen/internal/domain"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show screening statistics for a job",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		a, err := newApp(ctx, false)
		if err != nil {
			log.Fatalf("initializing: %s", err)
		}

		jobID, _ := cmd.Flags().GetString("job")
		if jobID == "" {
			a.logger.Fatal("--job is required")
		}

		stats, err := a.engine.Statistics(ctx, jobID)
		if err != nil {
			a.logger.Fatal("aggregating statistics", zap.Error(err))
		}

		if err := printJSON(stats); err != nil {
			a.logger.Fatal("rendering statistics", zap.Error(err))
		}
	},
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Show a job's best screened candidates",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		a, err := newApp(ctx, false)
		if err != nil {
			log.Fatalf("initializing: %s", err)
		}

		jobID, _ := cmd.Flags().GetString("job")
		if jobID == "" {
			a.logger.Fatal("--job is required")
		}

		if rec, _ := cmd.Flags().GetString("recommendation"); rec != "" {
			tier, err := domain.ParseRecommendation(rec)
			if err != nil {
				a.logger.Fatal("parsing recommendation", zap.Error(err))
			}
			results, err := a.engine.CandidatesByRecommendation(ctx, jobID, tier)
			if err != nil {
				a.logger.Fatal("filtering results", zap.Error(err))
			}
			if err := printJSON(results); err != nil {
				a.logger.Fatal("rendering results", zap.Error(err))
			}
			return
		}

		limit, _ := cmd.Flags().GetInt("limit")
		results, err := a.engine.TopCandidates(ctx, jobID, limit)
		if err != nil {
			a.logger.Fatal("ranking candidates", zap.Error(err))
		}

		if err := printJSON(results); err != nil {
			a.logger.Fatal("rendering results", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(topCmd)

	statsCmd.Flags().StringP("job", "J", "", "id of the job")

	topCmd.Flags().StringP("job", "J", "", "id of the job")
	topCmd.Flags().IntP("limit", "n", 10, "maximum number of candidates to show")
	topCmd.Flags().StringP("recommendation", "r", "", "filter by recommendation tier instead of ranking")
}

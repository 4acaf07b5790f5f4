package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen one application against its job posting",
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

		applicationID, _ := cmd.Flags().GetString("application")
		if applicationID == "" {
			a.logger.Fatal("--application is required")
		}

		result, err := a.engine.ScreenApplication(ctx, applicationID, userID)
		if err != nil {
			a.logger.Fatal("screening application", zap.Error(err))
		}

		if err := printJSON(result); err != nil {
			a.logger.Fatal("rendering result", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringP("application", "a", "", "id of the application to screen")
}

package cmd

import (
	"github.com/spf13/cobra"
)

// newStatsCmd creates and configures the 'stats' subcommand.
func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show ingestion statistics",
		Long:  `Prints content and job counts and the job success rate from the store.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			stats, err := appInstance.Service().Stats(cmd.Context())
			if err != nil {
				return err
			}

			cmd.Printf("content records: %d\n", stats.TotalContent)
			cmd.Printf("scrape jobs:     %d\n", stats.TotalJobs)
			cmd.Printf("completed jobs:  %d\n", stats.CompletedJobs)
			cmd.Printf("success rate:    %.1f%%\n", stats.SuccessRate*100)
			return nil
		},
	}
}

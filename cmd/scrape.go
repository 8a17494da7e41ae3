package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webharvest/harvester/internal/content"
	"github.com/webharvest/harvester/internal/scraper"
)

// newScrapeCmd creates and configures the 'scrape' subcommand.
// It scrapes either a single ad-hoc URL or a named target from the
// configuration.
func newScrapeCmd() *cobra.Command {
	var (
		formats    []string
		targetName string
	)

	cmd := &cobra.Command{
		Use:   "scrape [url]",
		Short: "Scrape a URL or a configured target",
		Long: `Scrapes a single URL through the extraction service and persists the
result, or, with --target, runs a named target from the configuration
and records a scrape job.`,

		Args: func(cmd *cobra.Command, args []string) error {
			if targetName != "" {
				if len(args) != 0 {
					return fmt.Errorf("--target and a url argument are mutually exclusive")
				}
				return nil
			}
			return cobra.ExactArgs(1)(cmd, args)
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			if targetName != "" {
				return runTarget(cmd, appInstance, targetName)
			}
			return runScrape(cmd, appInstance, args[0], formats)
		},
	}

	cmd.Flags().StringSliceVar(&formats, "formats", nil, "formats to request (default markdown)")
	cmd.Flags().StringVar(&targetName, "target", "", "run the named target from the configuration")

	return cmd
}

func runScrape(cmd *cobra.Command, appInstance App, url string, formats []string) error {
	outcome, err := appInstance.Service().Scrape(cmd.Context(), scraper.Request{
		URL:     url,
		Formats: formats,
	})
	if err != nil {
		return err
	}

	if !outcome.Success() {
		cmd.Printf("scrape failed: %s: %s\n", outcome.Failure.URL, outcome.Failure.Reason)
		return nil
	}

	printRecord(cmd, *outcome.Record)
	return nil
}

func runTarget(cmd *cobra.Command, appInstance App, name string) error {
	target, err := appInstance.Config().TargetByName(name)
	if err != nil {
		return err
	}

	job, err := appInstance.Service().RunTarget(cmd.Context(), target)
	if err != nil {
		return err
	}

	cmd.Printf("job %s (%s): %s\n", job.JobName, job.ID, job.Status)
	cmd.Printf("  pages scraped: %d\n", job.PagesScraped)
	cmd.Printf("  pages failed:  %d\n", job.PagesFailed)
	if job.ErrorMessage != "" {
		cmd.Printf("  error: %s\n", job.ErrorMessage)
	}
	return nil
}

func printRecord(cmd *cobra.Command, rec content.Record) {
	cmd.Printf("scraped %s\n", rec.URL)
	cmd.Printf("  id:         %d\n", rec.ID)
	cmd.Printf("  title:      %s\n", rec.Title)
	cmd.Printf("  type:       %s\n", rec.ContentType)
	cmd.Printf("  word count: %d\n", rec.WordCount)
	if preview := previewText(rec.Content, 200); preview != "" {
		cmd.Printf("  preview:    %s\n", preview)
	}
}

// previewText truncates s to at most n runes for display.
func previewText(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

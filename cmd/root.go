// Package cmd defines and implements the CLI commands for the harvester executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webharvest/harvester/internal/app"
	"github.com/webharvest/harvester/internal/config"
	"github.com/webharvest/harvester/internal/content"
	"github.com/webharvest/harvester/internal/scraper"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands use.
// This allows us to inject a mock app during tests.
type App interface {
	Close()
	Config() config.Config
	Logger() *zap.Logger
	Service() *scraper.Service
	Store() content.Store
}

// newApp is the application factory. It's a variable so we can
// replace it with a mock factory in our tests.
var newApp = func(ctx context.Context) (App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return app.NewApp(ctx, cfg)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvester",
		Short: "Content ingestion pipeline backed by a Firecrawl-compatible extraction service.",
		Long: `harvester pulls page content through an external extraction service,
normalizes and classifies it, and persists it idempotently keyed by URL.
It can scrape single URLs, run configured targets, report ingestion
statistics, and run as a daemon that schedules targets on an interval.`,

		SilenceUsage: true,

		// This hook runs BEFORE the subcommand's RunE. It is where the
		// application is built and injected.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// This hook ensures services are shut down gracefully.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., /etc/harvester, $HOME/.harvester)")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newDaemonCmd())

	return cmd
}

// resolveApp retrieves the injected App from the command context.
func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point. Cobra prints the error; we only set
// the exit code.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

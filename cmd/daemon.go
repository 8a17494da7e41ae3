package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webharvest/harvester/internal/api"
	"github.com/webharvest/harvester/internal/scheduler"
)

// newDaemonCmd creates and configures the 'daemon' subcommand. The
// daemon runs scheduled targets on their configured intervals and
// serves health probes and Prometheus metrics over HTTP.
func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled targets and serve health and metrics endpoints",
		Long: `Runs until interrupted. Each target with an hourly or daily schedule is
scraped on its interval, and an HTTP server exposes /healthz, /readyz,
and /metrics.`,

		RunE: runDaemonCommand,
	}
}

func runDaemonCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := appInstance.Logger()
	cfg := appInstance.Config()

	sched := scheduler.New(appInstance.Service(), cfg.Targets, logger)
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Start(ctx)
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(appInstance.Store(), logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("daemon listening",
			zap.String("addr", srv.Addr),
			zap.Int("scheduled_targets", sched.TargetCount()),
		)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		stop()
		<-schedDone
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", zap.Error(err))
	}

	<-schedDone
	logger.Info("daemon stopped")
	return nil
}

// Package scheduler triggers target runs on their configured cadence.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/webharvest/harvester/internal/config"
	"github.com/webharvest/harvester/internal/content"
)

// TargetRunner executes one scrape run against a configured target.
type TargetRunner interface {
	RunTarget(ctx context.Context, target config.Target) (content.ScrapeJob, error)
}

// Scheduler owns one ticker per scheduled target. Targets without a
// recognized schedule label are manual-only and never fire.
type Scheduler struct {
	runner     TargetRunner
	targets    []config.Target
	runTimeout time.Duration
	logger     *zap.Logger
}

// New constructs a Scheduler over the scheduled subset of targets.
func New(runner TargetRunner, targets []config.Target, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	scheduled := make([]config.Target, 0, len(targets))
	for _, target := range targets {
		if _, ok := target.Interval(); ok {
			scheduled = append(scheduled, target)
		}
	}
	return &Scheduler{
		runner:     runner,
		targets:    scheduled,
		runTimeout: 10 * time.Minute,
		logger:     logger,
	}
}

// TargetCount reports how many targets are scheduled.
func (s *Scheduler) TargetCount() int {
	return len(s.targets)
}

// Start blocks until the context finishes, firing each target on its
// interval. Runs for distinct targets proceed independently; a failed
// run is logged and the cadence keeps going.
func (s *Scheduler) Start(ctx context.Context) {
	if len(s.targets) == 0 {
		s.logger.Info("no scheduled targets; scheduler idle")
		<-ctx.Done()
		return
	}

	var wg sync.WaitGroup
	for _, target := range s.targets {
		interval, _ := target.Interval()
		wg.Add(1)
		go func(target config.Target, interval time.Duration) {
			defer wg.Done()
			s.loop(ctx, target, interval)
		}(target, interval)
	}
	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, target config.Target, interval time.Duration) {
	s.logger.Info("target scheduled",
		zap.String("target", target.Name),
		zap.Duration("interval", interval),
	)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", zap.String("target", target.Name))
			return
		case <-ticker.C:
			s.run(ctx, target)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, target config.Target) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	job, err := s.runner.RunTarget(runCtx, target)
	if err != nil {
		s.logger.Error("scheduled target run failed",
			zap.String("target", target.Name),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("scheduled target run finished",
		zap.String("target", target.Name),
		zap.String("job_id", job.ID),
		zap.String("status", string(job.Status)),
	)
}

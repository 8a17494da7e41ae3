package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/webharvest/harvester/internal/config"
	"github.com/webharvest/harvester/internal/content"
)

type recordingRunner struct {
	mu   sync.Mutex
	runs []string
	err  error
}

func (r *recordingRunner) RunTarget(_ context.Context, target config.Target) (content.ScrapeJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, target.Name)
	if r.err != nil {
		return content.ScrapeJob{}, r.err
	}
	return content.ScrapeJob{ID: "job-1", Status: content.JobStatusCompleted}, nil
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func TestNewKeepsOnlyScheduledTargets(t *testing.T) {
	t.Parallel()

	sched := New(&recordingRunner{}, []config.Target{
		{Name: "hourly", Schedule: "hourly"},
		{Name: "daily", Schedule: "daily"},
		{Name: "manual"},
		{Name: "typo", Schedule: "weekly"},
	}, nil)

	if got := sched.TargetCount(); got != 2 {
		t.Fatalf("TargetCount() = %d, want 2", got)
	}
}

func TestStartReturnsOnCancel(t *testing.T) {
	t.Parallel()

	sched := New(&recordingRunner{}, []config.Target{{Name: "hourly", Schedule: "hourly"}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStartIdlesWithoutTargets(t *testing.T) {
	t.Parallel()

	sched := New(&recordingRunner{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("idle Start did not return after cancel")
	}
}

func TestRunInvokesRunner(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{}
	sched := New(runner, nil, nil)

	sched.run(context.Background(), config.Target{Name: "t"})
	if runner.count() != 1 {
		t.Fatalf("expected one run, got %d", runner.count())
	}
}

// TestRunSurvivesRunnerError ensures a failing run is logged, not
// fatal to the cadence.
func TestRunSurvivesRunnerError(t *testing.T) {
	t.Parallel()

	runner := &recordingRunner{err: errors.New("boom")}
	sched := New(runner, nil, nil)

	sched.run(context.Background(), config.Target{Name: "t"})
	sched.run(context.Background(), config.Target{Name: "t"})
	if runner.count() != 2 {
		t.Fatalf("expected two runs, got %d", runner.count())
	}
}

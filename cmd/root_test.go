package cmd

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/webharvest/harvester/internal/config"
	"github.com/webharvest/harvester/internal/content"
	"github.com/webharvest/harvester/internal/metrics"
	"github.com/webharvest/harvester/internal/scraper"
	"github.com/webharvest/harvester/internal/storage/memory"
)

type fakeExtractor struct {
	result *content.ExtractResult
	err    error
}

func (f *fakeExtractor) Extract(context.Context, content.ExtractRequest) (*content.ExtractResult, error) {
	return f.result, f.err
}

type noopLimiter struct{}

func (noopLimiter) Wait(context.Context) error { return nil }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() (string, error) {
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", s.n.Add(1)), nil
}

// testApp satisfies the App interface with an in-memory store and a
// canned extraction result.
type testApp struct {
	cfg     config.Config
	store   *memory.ContentStore
	service *scraper.Service
}

func (a *testApp) Close()                    {}
func (a *testApp) Config() config.Config     { return a.cfg }
func (a *testApp) Logger() *zap.Logger       { return zap.NewNop() }
func (a *testApp) Service() *scraper.Service { return a.service }
func (a *testApp) Store() content.Store      { return a.store }

func newTestApp(result *content.ExtractResult) *testApp {
	metrics.Init()
	clk := fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.NewContentStore(clk)
	svc := scraper.New(&fakeExtractor{result: result}, store, noopLimiter{}, clk, &seqIDs{}, nil)
	return &testApp{
		cfg: config.Config{
			Targets: []config.Target{
				{Name: "techcrunch", BaseURL: "https://techcrunch.com", Type: "news", Limit: 1},
			},
		},
		store:   store,
		service: svc,
	}
}

// execute swaps the app factory, runs the root command with args, and
// returns the combined output.
func execute(t *testing.T, a App, args ...string) (string, error) {
	t.Helper()

	orig := newApp
	newApp = func(context.Context) (App, error) { return a, nil }
	t.Cleanup(func() { newApp = orig })

	var buf bytes.Buffer
	root := newRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

func TestScrapeCommandPrintsRecord(t *testing.T) {
	a := newTestApp(&content.ExtractResult{
		Markdown: "hello scraped world",
		Metadata: map[string]any{"title": "Hello"},
	})

	out, err := execute(t, a, "scrape", "https://example.com/news/hello")
	if err != nil {
		t.Fatalf("execute error = %v", err)
	}

	if !strings.Contains(out, "scraped https://example.com/news/hello") {
		t.Fatalf("output missing url line:\n%s", out)
	}
	if !strings.Contains(out, "title:      Hello") {
		t.Fatalf("output missing title:\n%s", out)
	}
	if !strings.Contains(out, "word count: 3") {
		t.Fatalf("output missing word count:\n%s", out)
	}
	if a.store.Len() != 1 {
		t.Fatalf("store len = %d, want 1", a.store.Len())
	}
}

func TestScrapeCommandReportsFailure(t *testing.T) {
	a := newTestApp(nil)

	out, err := execute(t, a, "scrape", "https://example.com/missing")
	if err != nil {
		t.Fatalf("execute error = %v", err)
	}
	if !strings.Contains(out, "scrape failed: https://example.com/missing") {
		t.Fatalf("output missing failure line:\n%s", out)
	}
	if a.store.Len() != 0 {
		t.Fatalf("store len = %d, want 0", a.store.Len())
	}
}

func TestScrapeCommandRunsTarget(t *testing.T) {
	a := newTestApp(&content.ExtractResult{
		Markdown: "front page content",
		Metadata: map[string]any{"title": "TechCrunch"},
	})

	out, err := execute(t, a, "scrape", "--target", "techcrunch")
	if err != nil {
		t.Fatalf("execute error = %v", err)
	}
	if !strings.Contains(out, "job techcrunch") {
		t.Fatalf("output missing job line:\n%s", out)
	}
	if !strings.Contains(out, "completed") {
		t.Fatalf("output missing status:\n%s", out)
	}
	if !strings.Contains(out, "pages scraped: 1") {
		t.Fatalf("output missing page count:\n%s", out)
	}
}

func TestScrapeCommandRejectsTargetWithURL(t *testing.T) {
	a := newTestApp(nil)

	if _, err := execute(t, a, "scrape", "--target", "techcrunch", "https://example.com"); err == nil {
		t.Fatal("expected mutual-exclusion error")
	}
}

func TestScrapeCommandUnknownTarget(t *testing.T) {
	a := newTestApp(nil)

	_, err := execute(t, a, "scrape", "--target", "nope")
	if err == nil {
		t.Fatal("expected error for unknown target")
	}
}

func TestStatsCommand(t *testing.T) {
	a := newTestApp(&content.ExtractResult{Markdown: "body text here"})

	if _, err := execute(t, a, "scrape", "--target", "techcrunch"); err != nil {
		t.Fatalf("seed run error = %v", err)
	}

	out, err := execute(t, a, "stats")
	if err != nil {
		t.Fatalf("execute error = %v", err)
	}
	if !strings.Contains(out, "content records: 1") {
		t.Fatalf("output missing content count:\n%s", out)
	}
	if !strings.Contains(out, "success rate:    100.0%") {
		t.Fatalf("output missing success rate:\n%s", out)
	}
}

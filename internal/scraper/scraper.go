// Package scraper implements the ingestion pipeline: request
// construction, extraction-service call, normalization, and persistence.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/webharvest/harvester/internal/config"
	"github.com/webharvest/harvester/internal/content"
	"github.com/webharvest/harvester/internal/metrics"
)

// Request describes one scrape invocation.
type Request struct {
	URL     string
	Formats []string

	// Schema requests schema-driven structured extraction. Attaching a
	// schema forces the json format into the service request.
	Schema map[string]any

	// SourceName names the configured target this scrape belongs to, if
	// any.
	SourceName string
}

// Outcome is the result of a scrape. Exactly one of Record and Failure
// is set: service and no-content failures are reported here rather than
// raised, while persistence faults surface as errors from Scrape.
type Outcome struct {
	Record  *content.Record
	Failure *content.ScrapeFailure
}

// Success reports whether a record was persisted.
func (o Outcome) Success() bool {
	return o.Record != nil
}

// Service coordinates the scrape pipeline.
type Service struct {
	extractor content.Extractor
	store     content.Store
	limiter   content.Limiter
	clock     content.Clock
	ids       content.IDGenerator
	logger    *zap.Logger
}

// New constructs a Service.
func New(
	extractor content.Extractor,
	store content.Store,
	limiter content.Limiter,
	clock content.Clock,
	ids content.IDGenerator,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		extractor: extractor,
		store:     store,
		limiter:   limiter,
		clock:     clock,
		ids:       ids,
		logger:    logger,
	}
}

// Scrape runs one URL through the pipeline. Service call and no-content
// failures come back inside the Outcome with a nil error; a non-nil
// error means the local system failed (rate-limiter cancellation or a
// persistence fault wrapping content.ErrPersistence).
func (s *Service) Scrape(ctx context.Context, req Request) (Outcome, error) {
	start := s.clock.Now()
	label := string(content.Classify(req.URL))

	if err := s.limiter.Wait(ctx); err != nil {
		return Outcome{}, fmt.Errorf("wait for rate limit: %w", err)
	}

	extractReq := content.ExtractRequest{
		URL:     req.URL,
		Formats: buildFormats(req.Formats, req.Schema != nil),
		Schema:  req.Schema,
	}

	result, err := s.extractor.Extract(ctx, extractReq)
	if err != nil {
		return s.reported(req.URL, label, err.Error(), start), nil
	}

	draft, err := content.Normalize(req.URL, result, req.Schema != nil)
	if err != nil {
		if errors.Is(err, content.ErrNoContent) {
			return s.reported(req.URL, label, err.Error(), start), nil
		}
		return Outcome{}, fmt.Errorf("normalize %s: %w", req.URL, err)
	}
	draft.SourceName = req.SourceName

	// Once normalization succeeded the write runs to completion even if
	// the caller goes away, so the store never sees a half-delivered
	// cancellation.
	record, err := s.store.UpsertContent(context.WithoutCancel(ctx), draft)
	if err != nil {
		return Outcome{}, fmt.Errorf("persist %s: %w: %w", req.URL, content.ErrPersistence, err)
	}

	metrics.ObserveScrape(string(record.ContentType), "success", s.clock.Now().Sub(start))
	s.logger.Info("scraped and saved url",
		zap.String("url", record.URL),
		zap.Int64("id", record.ID),
		zap.String("content_type", string(record.ContentType)),
		zap.Int("word_count", record.WordCount),
	)
	return Outcome{Record: &record}, nil
}

// RunTarget scrapes a configured target and books a scrape job around
// it: created as running, finished as completed when at least one page
// landed, failed otherwise. The page loop is bounded by the target's
// limit, so pages_scraped + pages_failed never exceeds it.
func (s *Service) RunTarget(ctx context.Context, target config.Target) (content.ScrapeJob, error) {
	id, err := s.ids.NewID()
	if err != nil {
		return content.ScrapeJob{}, fmt.Errorf("generate job id: %w", err)
	}

	started := s.clock.Now()
	job := content.ScrapeJob{
		ID:        id,
		JobName:   target.Name,
		TargetURL: target.BaseURL,
		JobType:   jobType(target.Type),
		Status:    content.JobStatusRunning,
		StartedAt: &started,
		CreatedAt: started,
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return content.ScrapeJob{}, fmt.Errorf("create job %s: %w: %w", target.Name, content.ErrPersistence, err)
	}

	limit := target.Limit
	if limit <= 0 {
		limit = 1
	}
	// The pipeline drives single-URL scrapes; a target run covers its
	// base URL. Page discovery beyond it belongs to the extraction
	// service's crawl mode.
	pages := []string{target.BaseURL}
	if len(pages) > limit {
		pages = pages[:limit]
	}

	var scraped, failed int
	var lastReason string
	for _, url := range pages {
		outcome, err := s.Scrape(ctx, Request{
			URL:        url,
			Formats:    target.Formats,
			Schema:     target.ExtractSchema,
			SourceName: target.Name,
		})
		if err != nil {
			finishErr := s.store.FinishJob(context.WithoutCancel(ctx), job.ID, content.JobStatusFailed, err.Error(), scraped, failed+1)
			if finishErr != nil {
				s.logger.Error("finish job after pipeline error failed", zap.String("job_id", job.ID), zap.Error(finishErr))
			}
			return content.ScrapeJob{}, err
		}
		if outcome.Success() {
			scraped++
			continue
		}
		failed++
		lastReason = outcome.Failure.Reason
	}

	status := content.JobStatusCompleted
	if scraped == 0 {
		status = content.JobStatusFailed
		if lastReason == "" {
			lastReason = "no pages were scraped"
		}
	}
	if err := s.store.FinishJob(context.WithoutCancel(ctx), job.ID, status, lastReason, scraped, failed); err != nil {
		return content.ScrapeJob{}, fmt.Errorf("finish job %s: %w: %w", job.ID, content.ErrPersistence, err)
	}

	job.Status = status
	job.ErrorMessage = lastReason
	job.PagesScraped = scraped
	job.PagesFailed = failed
	completed := s.clock.Now()
	job.CompletedAt = &completed
	s.logger.Info("target run finished",
		zap.String("target", target.Name),
		zap.String("job_id", job.ID),
		zap.String("status", string(status)),
		zap.Int("pages_scraped", scraped),
		zap.Int("pages_failed", failed),
	)
	return job, nil
}

// Stats reads the aggregate ingestion statistics.
func (s *Service) Stats(ctx context.Context) (content.Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return content.Stats{}, fmt.Errorf("read stats: %w: %w", content.ErrPersistence, err)
	}
	return stats, nil
}

func (s *Service) reported(url, label, reason string, start time.Time) Outcome {
	metrics.ObserveScrape(label, "failure", s.clock.Now().Sub(start))
	failure := &content.ScrapeFailure{URL: url, Reason: reason}
	s.logger.Warn("scrape failed", zap.String("url", url), zap.String("reason", reason))
	return Outcome{Failure: failure}
}

// buildFormats defaults to markdown and forces json when a schema was
// attached, without mutating the caller's slice.
func buildFormats(formats []string, schemaRequested bool) []string {
	out := slices.Clone(formats)
	if len(out) == 0 {
		out = []string{content.FormatMarkdown}
	}
	if schemaRequested && !slices.Contains(out, content.FormatJSON) {
		out = append(out, content.FormatJSON)
	}
	return out
}

func jobType(t string) content.JobType {
	if t == string(content.JobTypeCrawl) {
		return content.JobTypeCrawl
	}
	return content.JobTypeScrape
}

// Package memory provides an in-memory content store for
// development and testing.
package memory

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/webharvest/harvester/internal/content"
)

// ContentStore implements content.Store without external dependencies.
// Upserts hold the mutex for the whole read-modify-write, giving the
// same per-URL atomicity the Postgres statement provides.
type ContentStore struct {
	mu     sync.RWMutex
	nextID int64
	byURL  map[string]content.Record
	jobs   map[string]content.ScrapeJob
	clock  content.Clock
}

// NewContentStore constructs a ContentStore.
func NewContentStore(clock content.Clock) *ContentStore {
	return &ContentStore{
		nextID: 1,
		byURL:  make(map[string]content.Record),
		jobs:   make(map[string]content.ScrapeJob),
		clock:  clock,
	}
}

// UpsertContent inserts or updates the record keyed by URL.
func (s *ContentStore) UpsertContent(_ context.Context, draft content.Draft) (content.Record, error) {
	if draft.URL == "" {
		return content.Record{}, errors.New("draft url is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	record, exists := s.byURL[draft.URL]
	if !exists {
		record = content.Record{ID: s.nextID, URL: draft.URL, CreatedAt: now}
		s.nextID++
	}
	record.Title = draft.Title
	record.Content = draft.Content
	record.HTMLContent = draft.HTMLContent
	record.Metadata = cloneMap(draft.Metadata)
	record.ExtractedData = cloneMap(draft.ExtractedData)
	record.SourceName = draft.SourceName
	record.ContentType = draft.ContentType
	record.WordCount = draft.WordCount
	record.UpdatedAt = now

	s.byURL[draft.URL] = record
	return record, nil
}

// Stats computes aggregates under one lock acquisition, mirroring the
// single consistent snapshot the SQL store reads.
func (s *ContentStore) Stats(_ context.Context) (content.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := content.Stats{
		TotalContent: int64(len(s.byURL)),
		TotalJobs:    int64(len(s.jobs)),
	}
	for _, job := range s.jobs {
		if job.Status == content.JobStatusCompleted {
			stats.CompletedJobs++
		}
	}
	if stats.TotalJobs > 0 {
		stats.SuccessRate = float64(stats.CompletedJobs) / float64(stats.TotalJobs)
	}
	return stats, nil
}

// CreateJob stores a new job row.
func (s *ContentStore) CreateJob(_ context.Context, job content.ScrapeJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == "" {
		return errors.New("job id is required")
	}
	if _, exists := s.jobs[job.ID]; exists {
		return errors.New("job already exists")
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.clock.Now()
	}
	s.jobs[job.ID] = job
	return nil
}

// FinishJob moves a job to a terminal status.
func (s *ContentStore) FinishJob(_ context.Context, id string, status content.JobStatus, errText string, scraped, failed int) error {
	if !status.Terminal() {
		return errors.New("status is not terminal")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return errors.New("job not found")
	}
	job.Status = status
	job.ErrorMessage = errText
	job.PagesScraped = scraped
	job.PagesFailed = failed
	job.CompletedAt = pointerTime(s.clock.Now())
	s.jobs[id] = job
	return nil
}

// GetJob fetches a job by ID (test helper, not part of content.Store).
func (s *ContentStore) GetJob(id string) (content.ScrapeJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}

// GetByURL fetches a record by URL (test helper, not part of
// content.Store).
func (s *ContentStore) GetByURL(url string) (content.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.byURL[url]
	return record, ok
}

// Len reports the number of stored records.
func (s *ContentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byURL)
}

// Close implements content.Store; nothing to release.
func (s *ContentStore) Close() {}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	maps.Copy(out, m)
	return out
}

func pointerTime(t time.Time) *time.Time {
	return &t
}
